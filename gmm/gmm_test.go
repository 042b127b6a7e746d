// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/omec-project/nas"
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/nas/nasType"
	"github.com/omec-project/nas/security"
	"github.com/omec-project/ngap/ngapType"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/gmm/message"
	"github.com/omec-project/uesim/gsm"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/omec-project/uesim/nas/nas_security"
	"github.com/omec-project/uesim/util"
	"github.com/omec-project/util/milenage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 3GPP TS 35.208 test set 1
const (
	testK    = "465b5ce8b199b49faa5f0a2ee238a6bc"
	testOpc  = "cd63cb71954a9f4e48a5994e37a02baf"
	testRand = "23553cbe9637a89d218ae64dae47bf35"
	testSqn  = "ff9bb4d0b607"
	testAmf  = "b9b9"
)

var testGuti = [11]uint8{0xf2, 0x02, 0xf8, 0x39, 0xca, 0xfe, 0x00, 0x00, 0x00, 0x00, 0x01}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testConfig() *factory.UeConfig {
	return &factory.UeConfig{
		Supi:      "imsi-208930000000003",
		Mcc:       "208",
		Mnc:       "93",
		Key:       testK,
		Op:        testOpc,
		OpType:    factory.OpTypeOpc,
		Amf:       "8000",
		Imei:      "356938035643803",
		Imeisv:    "4370816125816151",
		Integrity: factory.AlgorithmSet{Alg1: true, Alg2: true},
		Ciphering: factory.AlgorithmSet{Alg1: true, Alg2: true},
	}
}

func newTestMm(t *testing.T, cfg *factory.UeConfig) (*NasMm, *MockOutbox, *testClock) {
	t.Helper()
	ue, err := context.NewUeContext(cfg)
	require.NoError(t, err)
	out := &MockOutbox{}
	mm := NewNasMm(1, ue, out)
	clock := &testClock{now: time.Unix(1700000000, 0)}
	mm.SetClock(clock.Now)
	mm.OnStart(gsm.NewNasSm(1, cfg, out))
	return mm, out, clock
}

func mustHex(t *testing.T, s string) []uint8 {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func gmmMessage(msgType uint8) *nas.Message {
	m := nas.NewMessage()
	m.GmmMessage = nas.NewGmmMessage()
	m.GmmHeader.SetMessageType(msgType)
	return m
}

// lastSent decodes the last NAS PDU handed to RRC, which must be plain.
func lastSent(t *testing.T, out *MockOutbox) *nas.Message {
	t.Helper()
	pdus := out.NasPdus()
	require.NotEmpty(t, pdus)
	b := pdus[len(pdus)-1]
	m := nas.NewMessage()
	require.NoError(t, m.PlainNasDecode(&b))
	require.NotNil(t, m.GmmMessage)
	return m
}

func lastStatusCause(t *testing.T, out *MockOutbox) uint8 {
	t.Helper()
	m := lastSent(t, out)
	require.Equal(t, uint8(nas.MsgTypeStatus5GMM), m.GmmHeader.GetMessageType())
	return m.GmmMessage.Status5GMM.Cause5GMM.GetCauseValue()
}

// startRegistration runs the cycle until the initial registration request
// is on its way.
func startRegistration(t *testing.T, mm *NasMm, out *MockOutbox) {
	t.Helper()
	mm.PerformMmCycle()
	require.Equal(t, context.MmDeregisteredPlmnSearch, mm.ue.MmState)
	mm.HandleActiveCellChanged(true)
	require.Equal(t, context.MmDeregisteredNormalService, mm.ue.MmState)
	mm.PerformMmCycle()
	require.Equal(t, context.MmRegisteredInitiatedNa, mm.ue.MmState)
	mm.HandleRrcConnectionSetup()
}

func buildRegistrationAccept(withGuti bool) *nas.Message {
	m := gmmMessage(nas.MsgTypeRegistrationAccept)
	accept := nasMessage.NewRegistrationAccept(0)
	accept.RegistrationResult5GS.SetLen(1)
	accept.RegistrationResult5GS.SetRegistrationResultValue5GS(nasMessage.AccessType3GPP)
	if withGuti {
		accept.GUTI5G = &nasType.GUTI5G{Len: 11, Octet: testGuti}
	}
	// one hour
	accept.T3512Value = &nasType.T3512Value{Len: 1, Octet: 0x21}
	m.GmmMessage.RegistrationAccept = accept
	return m
}

func buildRegistrationReject(cause uint8, t3346 *nasType.T3346Value) *nas.Message {
	m := gmmMessage(nas.MsgTypeRegistrationReject)
	reject := nasMessage.NewRegistrationReject(0)
	reject.Cause5GMM.SetCauseValue(cause)
	reject.T3346Value = t3346
	m.GmmMessage.RegistrationReject = reject
	return m
}

func register(t *testing.T, mm *NasMm, out *MockOutbox) {
	t.Helper()
	startRegistration(t, mm, out)
	mm.ReceiveMmMessage(buildRegistrationAccept(true))
	require.Equal(t, context.MmRegisteredNormalService, mm.ue.MmState)
}

func TestMmCycleIsIdempotent(t *testing.T) {
	mm, out, clock := newTestMm(t, testConfig())

	mm.PerformMmCycle()
	assert.Equal(t, context.MmDeregisteredPlmnSearch, mm.ue.MmState)

	mm.PerformMmCycle()
	mm.PerformMmCycle()
	searches := 0
	for _, msg := range out.Rrc {
		if _, ok := msg.(taskmsgtypes.PlmnSearchRequest); ok {
			searches++
		}
	}
	assert.Equal(t, 1, searches)

	clock.Advance(time.Second)
	mm.HandleActiveCellChanged(true)
	mm.PerformMmCycle()
	mm.PerformMmCycle()
	assert.Equal(t, context.MmRegisteredInitiatedNa, mm.ue.MmState)
	assert.Len(t, out.NasPdus(), 1)
}

func TestMmCycleWithoutSupi(t *testing.T) {
	cfg := testConfig()
	cfg.Supi = ""
	mm, _, _ := newTestMm(t, cfg)

	mm.PerformMmCycle()
	assert.Equal(t, context.MmDeregisteredNoSupi, mm.ue.MmState)
}

func TestMmCycleInNull(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	mm.switchMmState(context.MmNullNa)
	out.Reset()

	mm.PerformMmCycle()
	assert.Equal(t, context.MmNullNa, mm.ue.MmState)
	assert.Empty(t, out.Rrc)
	assert.Empty(t, out.App)
}

func TestSwitchMmStateNotifiesApp(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	out.Reset()

	mm.switchMmState(context.MmDeregisteredPlmnSearch)
	require.Len(t, out.App, 2)
	assert.Equal(t, taskmsgtypes.StateSwitch{
		UeId: 1, Kind: taskmsgtypes.StateKindMm, Old: "MM-DEREGISTERED", New: "MM-DEREGISTERED",
	}, out.App[0])
	sub := out.App[1].(taskmsgtypes.StateSwitch)
	assert.Equal(t, taskmsgtypes.StateKindMmSub, sub.Kind)
	assert.Equal(t, 1, out.Cycles)
}

func TestLeavingDeregisteredDeletesSecurityContexts(t *testing.T) {
	mm, _, _ := newTestMm(t, testConfig())
	mm.ue.Usim.CurrentNsCtx = context.NewNasSecurityContext(1, make([]uint8, 32))
	mm.ue.Usim.NonCurrentNsCtx = context.NewNasSecurityContext(2, make([]uint8, 32))

	mm.switchMmState(context.MmDeregisteredNormalService)
	assert.NotNil(t, mm.ue.Usim.CurrentNsCtx)

	mm.switchMmState(context.MmRegisteredInitiatedNa)
	assert.Nil(t, mm.ue.Usim.CurrentNsCtx)
	assert.Nil(t, mm.ue.Usim.NonCurrentNsCtx)
}

func TestInitialRegistrationRequest(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	mm.PerformMmCycle()
	mm.HandleActiveCellChanged(true)
	mm.PerformMmCycle()

	require.NotEmpty(t, out.Rrc)
	initial, ok := out.Rrc[len(out.Rrc)-1].(taskmsgtypes.InitialNasDelivery)
	require.True(t, ok)
	assert.Equal(t, int64(ngapType.RRCEstablishmentCausePresentMoData), initial.EstablishmentCause)

	m := lastSent(t, out)
	request := m.GmmMessage.RegistrationRequest
	require.NotNil(t, request)
	assert.Equal(t, uint8(nasMessage.RegistrationType5GSInitialRegistration),
		request.NgksiAndRegistrationType5GS.GetRegistrationType5GS())
	assert.Equal(t, message.NgKsiNoKeyAvailable, request.NgksiAndRegistrationType5GS.GetNasKeySetIdentifiler())

	suci, err := util.EncodeSuci("imsi-208930000000003", "208", "93", "0000")
	require.NoError(t, err)
	assert.Equal(t, suci, request.MobileIdentity5GS.GetMobileIdentity5GSContents())
	assert.Equal(t, suci, mm.ue.Usim.StoredSuci)
	assert.True(t, mm.ue.Timers.T3519.IsRunning())
	assert.True(t, mm.ue.Timers.T3510.IsRunning())
}

func TestRegistrationAccept(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	startRegistration(t, mm, out)

	mm.ReceiveMmMessage(buildRegistrationAccept(true))

	assert.Equal(t, context.MmRegisteredNormalService, mm.ue.MmState)
	assert.Equal(t, context.RmRegistered, mm.ue.RmState)
	assert.Equal(t, context.U1Updated, mm.ue.Usim.UState)
	require.NotNil(t, mm.ue.Usim.StoredGuti)
	assert.Equal(t, testGuti, mm.ue.Usim.StoredGuti.Octet)
	assert.Nil(t, mm.ue.Usim.StoredSuci)
	assert.False(t, mm.ue.Timers.T3510.IsRunning())
	assert.False(t, mm.ue.Timers.T3519.IsRunning())
	assert.True(t, mm.ue.Timers.T3512.IsRunning())
	assert.Equal(t, time.Hour, mm.ue.Timers.T3512.Interval())

	m := lastSent(t, out)
	assert.Equal(t, uint8(nas.MsgTypeRegistrationComplete), m.GmmHeader.GetMessageType())

	// a GUTI is preferred from now on
	id := mm.getOrGeneratePreferredId()
	assert.Equal(t, testGuti[:], id.GetMobileIdentity5GSContents())
}

func TestRegistrationAcceptWithoutGuti(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	startRegistration(t, mm, out)
	sent := len(out.NasPdus())

	mm.ReceiveMmMessage(buildRegistrationAccept(false))
	assert.Equal(t, context.MmRegisteredNormalService, mm.ue.MmState)
	assert.Len(t, out.NasPdus(), sent)
}

func TestRegistrationAcceptStartsInitialSessions(t *testing.T) {
	cfg := testConfig()
	cfg.Sessions = []factory.SessionConfig{{Type: factory.SessionTypeIPv4, Apn: "internet"}}
	mm, out, _ := newTestMm(t, cfg)
	startRegistration(t, mm, out)

	mm.ReceiveMmMessage(buildRegistrationAccept(true))

	m := lastSent(t, out)
	require.NotNil(t, m.GmmMessage.ULNASTransport)
	assert.Equal(t, 1, mm.sm.Sessions().CountInState(context.PsActivePending))
}

func TestRegistrationAcceptInWrongState(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	mm.HandleRrcConnectionSetup()

	mm.ReceiveMmMessage(buildRegistrationAccept(true))
	assert.Equal(t, context.MmDeregisteredNa, mm.ue.MmState)
	assert.Equal(t, uint8(CauseMessageTypeNotCompatibleWithState), lastStatusCause(t, out))
	assert.Nil(t, mm.ue.Usim.StoredGuti)
}

func TestRegistrationRejectCongestion(t *testing.T) {
	mm, out, clock := newTestMm(t, testConfig())
	startRegistration(t, mm, out)

	// two seconds
	mm.ReceiveMmMessage(buildRegistrationReject(CauseCongestion, &nasType.T3346Value{Len: 1, Octet: 0x01}))
	assert.Equal(t, context.MmDeregisteredAttemptingRegistration, mm.ue.MmState)
	require.True(t, mm.ue.Timers.T3346.IsRunning())

	sent := len(out.NasPdus())
	mm.PerformMmCycle()
	assert.Len(t, out.NasPdus(), sent)

	clock.Advance(2 * time.Second)
	mm.PerformTick(clock.Now())
	assert.Equal(t, context.MmDeregisteredNormalService, mm.ue.MmState)

	mm.PerformMmCycle()
	assert.Equal(t, context.MmRegisteredInitiatedNa, mm.ue.MmState)
	assert.Len(t, out.NasPdus(), sent+1)
}

func TestRegistrationRejectIllegalUe(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	startRegistration(t, mm, out)

	mm.ReceiveMmMessage(buildRegistrationReject(CauseIllegalUe, nil))
	assert.False(t, mm.ue.Usim.Valid)
	assert.Equal(t, context.U3RoamingNotAllowed, mm.ue.Usim.UState)
	assert.Equal(t, context.MmDeregisteredNa, mm.ue.MmState)

	mm.PerformMmCycle()
	assert.Equal(t, context.MmDeregisteredNoSupi, mm.ue.MmState)
}

func TestRegistrationRejectCauses(t *testing.T) {
	testCases := []struct {
		name  string
		cause uint8
		state context.MmState
	}{
		{"PlmnNotAllowed", CausePlmnNotAllowed, context.MmDeregisteredPlmnSearch},
		{"TrackingAreaNotAllowed", CauseTrackingAreaNotAllowed, context.MmDeregisteredLimitedService},
		{"RoamingNotAllowedInTa", CauseRoamingNotAllowedInTa, context.MmDeregisteredLimitedService},
		{"NoSuitableCellsInTa", CauseNoSuitableCellsInTa, context.MmDeregisteredLimitedService},
		{"Abnormal", CauseProtocolErrorUnspecified, context.MmDeregisteredAttemptingRegistration},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mm, out, _ := newTestMm(t, testConfig())
			startRegistration(t, mm, out)

			mm.ReceiveMmMessage(buildRegistrationReject(tc.cause, nil))
			assert.Equal(t, tc.state, mm.ue.MmState)
			assert.Equal(t, context.RmDeregistered, mm.ue.RmState)
		})
	}
}

func TestAbnormalInitialRegistrationAttempts(t *testing.T) {
	mm, out, clock := newTestMm(t, testConfig())
	startRegistration(t, mm, out)

	for attempt := 1; attempt < context.MaxRegAttemptCounter; attempt++ {
		mm.ReceiveMmMessage(buildRegistrationReject(CauseProtocolErrorUnspecified, nil))
		require.Equal(t, attempt, mm.ue.RegAttemptCounter)
		require.True(t, mm.ue.Timers.T3511.IsRunning())
		require.False(t, mm.ue.Timers.T3502.IsRunning())

		clock.Advance(context.T3511DefaultValue)
		mm.PerformTick(clock.Now())
		require.Equal(t, context.MmDeregisteredNormalService, mm.ue.MmState)
		mm.PerformMmCycle()
		require.Equal(t, context.MmRegisteredInitiatedNa, mm.ue.MmState)
	}

	mm.ReceiveMmMessage(buildRegistrationReject(CauseProtocolErrorUnspecified, nil))
	assert.Equal(t, context.MaxRegAttemptCounter, mm.ue.RegAttemptCounter)
	assert.True(t, mm.ue.Timers.T3502.IsRunning())
	assert.Equal(t, context.U2NotUpdated, mm.ue.Usim.UState)
	assert.Equal(t, context.MmDeregisteredAttemptingRegistration, mm.ue.MmState)
}

func TestT3510Expiry(t *testing.T) {
	mm, out, clock := newTestMm(t, testConfig())
	startRegistration(t, mm, out)
	out.Reset()

	clock.Advance(context.T3510DefaultValue)
	mm.PerformTick(clock.Now())

	assert.Contains(t, out.Rrc, taskmsgtypes.RrcMessage(taskmsgtypes.LocalReleaseConnection{UeId: 1}))
	assert.Equal(t, context.MmDeregisteredAttemptingRegistration, mm.ue.MmState)
	assert.Equal(t, 1, mm.ue.RegAttemptCounter)
	assert.True(t, mm.ue.Timers.T3511.IsRunning())
}

func TestConnectionLossDuringRegistration(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	startRegistration(t, mm, out)

	mm.HandleRrcConnectionRelease()
	assert.Equal(t, context.CmIdle, mm.ue.CmState)
	assert.Equal(t, context.MmDeregisteredAttemptingRegistration, mm.ue.MmState)
	assert.Equal(t, context.RmDeregistered, mm.ue.RmState)
	assert.Equal(t, context.U2NotUpdated, mm.ue.Usim.UState)
	assert.Equal(t, 1, mm.ue.RegAttemptCounter)
}

func TestIdentityRequest(t *testing.T) {
	testCases := []struct {
		name         string
		identityType uint8
		expected     func(t *testing.T) []uint8
	}{
		{"Suci", nasMessage.MobileIdentity5GSTypeSuci, func(t *testing.T) []uint8 {
			b, err := util.EncodeSuci("imsi-208930000000003", "208", "93", "0000")
			require.NoError(t, err)
			return b
		}},
		{"Imei", nasMessage.MobileIdentity5GSTypeImei, func(t *testing.T) []uint8 {
			b, err := util.EncodeDigitIdentity("356938035643803", nasMessage.MobileIdentity5GSTypeImei)
			require.NoError(t, err)
			return b
		}},
		{"Imeisv", nasMessage.MobileIdentity5GSTypeImeisv, func(t *testing.T) []uint8 {
			b, err := util.EncodeDigitIdentity("4370816125816151", nasMessage.MobileIdentity5GSTypeImeisv)
			require.NoError(t, err)
			return b
		}},
		{"GutiNotAssigned", nasMessage.MobileIdentity5GSType5gGuti, func(t *testing.T) []uint8 {
			return []uint8{message.MobileIdentityNoIdentity}
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mm, out, _ := newTestMm(t, testConfig())
			m := gmmMessage(nas.MsgTypeIdentityRequest)
			request := nasMessage.NewIdentityRequest(0)
			request.SpareHalfOctetAndIdentityType.SetTypeOfIdentity(tc.identityType)
			m.GmmMessage.IdentityRequest = request

			mm.ReceiveMmMessage(m)

			response := lastSent(t, out).GmmMessage.IdentityResponse
			require.NotNil(t, response)
			assert.Equal(t, tc.expected(t), response.MobileIdentity.GetMobileIdentityContents())
		})
	}
}

func TestSuciReusedWhileT3519Runs(t *testing.T) {
	mm, _, clock := newTestMm(t, testConfig())

	first := mm.getOrGenerateSuci()
	require.NotNil(t, first)
	require.True(t, mm.ue.Timers.T3519.IsRunning())

	clock.Advance(context.T3519DefaultValue / 2)
	assert.Equal(t, first, mm.getOrGenerateSuci())
	assert.Equal(t, context.T3519DefaultValue/2, mm.ue.Timers.T3519.Remaining(clock.Now()))

	clock.Advance(context.T3519DefaultValue / 2)
	mm.PerformTick(clock.Now())
	assert.Nil(t, mm.ue.Usim.StoredSuci)

	assert.Equal(t, first, mm.getOrGenerateSuci())
	assert.True(t, mm.ue.Timers.T3519.IsRunning())
}

// buildAutn plays the network side of 5G-AKA.
func buildAutn(t *testing.T, rand, sqn, amf []uint8) []uint8 {
	t.Helper()
	k, opc := mustHex(t, testK), mustHex(t, testOpc)
	ak := make([]uint8, 6)
	macA := make([]uint8, 8)
	require.NoError(t, milenage.F2345(opc, k, rand, nil, nil, nil, ak, nil))
	require.NoError(t, milenage.F1(opc, k, rand, sqn, amf, macA, nil))

	autn := make([]uint8, 0, 16)
	for i := range sqn {
		autn = append(autn, sqn[i]^ak[i])
	}
	autn = append(autn, amf...)
	return append(autn, macA...)
}

func buildAuthenticationRequest(ngKsi uint8, rand, autn []uint8) *nas.Message {
	m := gmmMessage(nas.MsgTypeAuthenticationRequest)
	request := nasMessage.NewAuthenticationRequest(0)
	request.SpareHalfOctetAndNgksi.SetNasKeySetIdentifiler(ngKsi)
	request.ABBA.Len = 2
	request.ABBA.Buffer = []uint8{0x00, 0x00}

	var randValue, autnValue [16]uint8
	copy(randValue[:], rand)
	copy(autnValue[:], autn)
	request.AuthenticationParameterRAND = &nasType.AuthenticationParameterRAND{}
	request.AuthenticationParameterRAND.SetRANDValue(randValue)
	request.AuthenticationParameterAUTN = &nasType.AuthenticationParameterAUTN{Len: 16}
	request.AuthenticationParameterAUTN.SetAUTN(autnValue)
	m.GmmMessage.AuthenticationRequest = request
	return m
}

func authenticate(t *testing.T, mm *NasMm, out *MockOutbox) {
	t.Helper()
	rand := mustHex(t, testRand)
	autn := buildAutn(t, rand, mustHex(t, testSqn), mustHex(t, testAmf))
	mm.ReceiveMmMessage(buildAuthenticationRequest(1, rand, autn))
	require.Equal(t, uint8(nas.MsgTypeAuthenticationResponse), lastSent(t, out).GmmHeader.GetMessageType())
}

func TestAuthenticationRequest(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	startRegistration(t, mm, out)

	rand := mustHex(t, testRand)
	autn := buildAutn(t, rand, mustHex(t, testSqn), mustHex(t, testAmf))
	mm.ReceiveMmMessage(buildAuthenticationRequest(1, rand, autn))

	response := lastSent(t, out).GmmMessage.AuthenticationResponse
	require.NotNil(t, response)
	require.NotNil(t, response.AuthenticationResponseParameter)

	k, opc := mustHex(t, testK), mustHex(t, testOpc)
	res, ck, ik := make([]uint8, 8), make([]uint8, 16), make([]uint8, 16)
	require.NoError(t, milenage.F2345(opc, k, rand, res, ck, ik, nil, nil))
	resStar, err := context.DerivateResStar(ck, ik, context.ServingNetworkName("208", "93"), rand, res)
	require.NoError(t, err)

	assert.Equal(t, resStar, response.AuthenticationResponseParameter.Octet[:len(resStar)])
	assert.Equal(t, mustHex(t, testSqn), mm.ue.Usim.Sqn)
	require.NotNil(t, mm.ue.Usim.NonCurrentNsCtx)
	assert.Equal(t, uint8(1), mm.ue.Usim.NonCurrentNsCtx.NgKsi)
	assert.Len(t, mm.ue.Usim.NonCurrentNsCtx.Kamf, 32)
	assert.Nil(t, mm.ue.Usim.CurrentNsCtx)
}

func lastAuthenticationFailure(t *testing.T, out *MockOutbox) *nasMessage.AuthenticationFailure {
	t.Helper()
	failure := lastSent(t, out).GmmMessage.AuthenticationFailure
	require.NotNil(t, failure)
	return failure
}

func TestAuthenticationMacFailure(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	startRegistration(t, mm, out)

	rand := mustHex(t, testRand)
	autn := buildAutn(t, rand, mustHex(t, testSqn), mustHex(t, testAmf))
	autn[15] ^= 0x01
	mm.ReceiveMmMessage(buildAuthenticationRequest(1, rand, autn))

	failure := lastAuthenticationFailure(t, out)
	assert.Equal(t, uint8(CauseMacFailure), failure.Cause5GMM.GetCauseValue())
	assert.Nil(t, failure.AuthenticationFailureParameter)
	assert.True(t, mm.ue.Timers.T3520.IsRunning())
	assert.Nil(t, mm.ue.Usim.NonCurrentNsCtx)
}

func TestAuthenticationSeparationBit(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	startRegistration(t, mm, out)

	rand := mustHex(t, testRand)
	autn := buildAutn(t, rand, mustHex(t, testSqn), []uint8{0x00, 0x00})
	mm.ReceiveMmMessage(buildAuthenticationRequest(1, rand, autn))

	failure := lastAuthenticationFailure(t, out)
	assert.Equal(t, uint8(CauseNon5gAuthenticationUnacceptable), failure.Cause5GMM.GetCauseValue())
}

func TestAuthenticationSynchFailure(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	startRegistration(t, mm, out)
	authenticate(t, mm, out)

	// replaying the same vector
	rand := mustHex(t, testRand)
	autn := buildAutn(t, rand, mustHex(t, testSqn), mustHex(t, testAmf))
	mm.ReceiveMmMessage(buildAuthenticationRequest(2, rand, autn))

	failure := lastAuthenticationFailure(t, out)
	assert.Equal(t, uint8(CauseSynchFailure), failure.Cause5GMM.GetCauseValue())
	require.NotNil(t, failure.AuthenticationFailureParameter)
	auts := failure.AuthenticationFailureParameter.Octet[:]
	require.Len(t, auts, 14)

	k, opc := mustHex(t, testK), mustHex(t, testOpc)
	akStar := make([]uint8, 6)
	require.NoError(t, milenage.F2345(opc, k, rand, nil, nil, nil, nil, akStar))
	sqnMs := make([]uint8, 6)
	for i := range sqnMs {
		sqnMs[i] = auts[i] ^ akStar[i]
	}
	assert.Equal(t, mustHex(t, testSqn), sqnMs)

	macS := make([]uint8, 8)
	require.NoError(t, milenage.F1(opc, k, rand, sqnMs, []uint8{0x00, 0x00}, nil, macS))
	assert.Equal(t, macS, auts[6:14])
}

func TestAuthenticationEapNotSupported(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	m := buildAuthenticationRequest(1, mustHex(t, testRand), make([]uint8, 16))
	m.GmmMessage.AuthenticationRequest.EAPMessage = &nasType.EAPMessage{Len: 1, Buffer: []uint8{0x01}}

	mm.ReceiveMmMessage(m)
	assert.Equal(t, uint8(CauseMessageTypeNonExistent), lastStatusCause(t, out))
}

func TestAuthenticationReject(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	startRegistration(t, mm, out)

	m := gmmMessage(nas.MsgTypeAuthenticationReject)
	m.GmmMessage.AuthenticationReject = nasMessage.NewAuthenticationReject(0)
	mm.ReceiveMmMessage(m)

	assert.False(t, mm.ue.Usim.Valid)
	assert.Nil(t, mm.ue.Usim.StoredSuci)
	assert.Equal(t, context.U3RoamingNotAllowed, mm.ue.Usim.UState)
	assert.Equal(t, context.MmDeregisteredNa, mm.ue.MmState)
}

func buildSecurityModeCommand(ngKsi uint8, capability []uint8) *nas.Message {
	m := gmmMessage(nas.MsgTypeSecurityModeCommand)
	command := nasMessage.NewSecurityModeCommand(0)
	command.SelectedNASSecurityAlgorithms.SetTypeOfIntegrityProtectionAlgorithm(security.AlgIntegrity128NIA2)
	command.SelectedNASSecurityAlgorithms.SetTypeOfCipheringAlgorithm(security.AlgCiphering128NEA2)
	command.SpareHalfOctetAndNgksi.SetNasKeySetIdentifiler(ngKsi)
	command.ReplayedUESecurityCapabilities.Len = uint8(len(capability))
	command.ReplayedUESecurityCapabilities.Buffer = capability
	m.GmmMessage.SecurityModeCommand = command
	return m
}

func TestSecurityModeCommand(t *testing.T) {
	cfg := testConfig()
	mm, out, _ := newTestMm(t, cfg)
	startRegistration(t, mm, out)
	authenticate(t, mm, out)

	capability := message.BuildUeSecurityCapability(cfg.Integrity, cfg.Ciphering).Buffer
	m := buildSecurityModeCommand(1, capability)
	m.GmmMessage.SecurityModeCommand.IMEISVRequest = &nasType.IMEISVRequest{}
	m.GmmMessage.SecurityModeCommand.IMEISVRequest.SetIMEISVRequestValue(1)
	m.GmmMessage.SecurityModeCommand.Additional5GSecurityInformation = &nasType.Additional5GSecurityInformation{Len: 1}
	m.GmmMessage.SecurityModeCommand.Additional5GSecurityInformation.SetRINMR(1)

	mm.ReceiveMmMessage(m)

	current := mm.ue.Usim.CurrentNsCtx
	require.NotNil(t, current)
	assert.Nil(t, mm.ue.Usim.NonCurrentNsCtx)
	assert.Equal(t, uint8(security.AlgIntegrity128NIA2), current.IntegrityAlg)
	assert.Equal(t, uint8(security.AlgCiphering128NEA2), current.CipheringAlg)
	assert.Equal(t, uint32(1), current.ULCount.Get())

	pdus := out.NasPdus()
	secured := pdus[len(pdus)-1]
	assert.Equal(t, uint8(nas.SecurityHeaderTypeIntegrityProtectedAndCipheredWithNew5gNasSecurityContext),
		nas.GetSecurityHeaderType(secured)&0x0f)

	verifier := *current
	verifier.ULCount.Set(0, 0)
	plain, err := nas_security.Decrypt(&verifier, secured, security.DirectionUplink)
	require.NoError(t, err)
	complete := nas.NewMessage()
	require.NoError(t, complete.PlainNasDecode(&plain))
	require.NotNil(t, complete.GmmMessage.SecurityModeComplete)

	imeisv, err := util.EncodeDigitIdentity("4370816125816151", nasMessage.MobileIdentity5GSTypeImeisv)
	require.NoError(t, err)
	require.NotNil(t, complete.GmmMessage.SecurityModeComplete.IMEISV)
	assert.Equal(t, imeisv, complete.GmmMessage.SecurityModeComplete.IMEISV.Octet[:len(imeisv)])

	container := complete.GmmMessage.SecurityModeComplete.NASMessageContainer
	require.NotNil(t, container)
	retained, err := message.EncodeGmm(mm.ue.LastRegistrationRequest)
	require.NoError(t, err)
	assert.Equal(t, retained, container.GetNASMessageContainerContents())
}

func TestSecurityModeCommandUnknownNgKsi(t *testing.T) {
	cfg := testConfig()
	mm, out, _ := newTestMm(t, cfg)
	startRegistration(t, mm, out)
	authenticate(t, mm, out)

	capability := message.BuildUeSecurityCapability(cfg.Integrity, cfg.Ciphering).Buffer
	mm.ReceiveMmMessage(buildSecurityModeCommand(3, capability))

	reject := lastSent(t, out).GmmMessage.SecurityModeReject
	require.NotNil(t, reject)
	assert.Equal(t, uint8(CauseSecurityModeRejectedUnspecified), reject.Cause5GMM.GetCauseValue())
	assert.Nil(t, mm.ue.Usim.CurrentNsCtx)
}

func TestSecurityModeCommandCapabilityMismatch(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	startRegistration(t, mm, out)
	authenticate(t, mm, out)

	mm.ReceiveMmMessage(buildSecurityModeCommand(1, []uint8{0x80, 0x80}))

	reject := lastSent(t, out).GmmMessage.SecurityModeReject
	require.NotNil(t, reject)
	assert.Equal(t, uint8(CauseUeSecurityCapabilitiesMismatch), reject.Cause5GMM.GetCauseValue())
	assert.NotNil(t, mm.ue.Usim.NonCurrentNsCtx)
}

func TestDeregistration(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	register(t, mm, out)

	mm.SendDeregistration(context.DeregCauseUnspecified)
	assert.Equal(t, context.MmDeregisteredInitiatedNa, mm.ue.MmState)
	assert.True(t, mm.ue.Timers.T3521.IsRunning())
	assert.False(t, mm.ue.Timers.T3512.IsRunning())

	request := lastSent(t, out).GmmMessage.DeregistrationRequestUEOriginatingDeregistration
	require.NotNil(t, request)
	assert.Equal(t, uint8(0), request.NgksiAndDeregistrationType.GetSwitchOff())
	assert.Equal(t, testGuti[:], request.MobileIdentity5GS.GetMobileIdentity5GSContents())

	m := gmmMessage(nas.MsgTypeDeregistrationAcceptUEOriginatingDeregistration)
	m.GmmMessage.DeregistrationAcceptUEOriginatingDeregistration =
		nasMessage.NewDeregistrationAcceptUEOriginatingDeregistration(0)
	mm.ReceiveMmMessage(m)

	assert.Equal(t, context.MmDeregisteredNa, mm.ue.MmState)
	assert.Equal(t, context.RmDeregistered, mm.ue.RmState)
	assert.False(t, mm.ue.Timers.T3521.IsRunning())
}

func TestDeregistrationSwitchOff(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	register(t, mm, out)

	mm.SendDeregistration(context.DeregCauseSwitchOff)

	assert.Equal(t, context.MmNullNa, mm.ue.MmState)
	assert.Equal(t, context.RmDeregistered, mm.ue.RmState)
	assert.Contains(t, out.Rrc, taskmsgtypes.RrcMessage(taskmsgtypes.LocalReleaseConnection{UeId: 1}))
	request := lastSent(t, out).GmmMessage.DeregistrationRequestUEOriginatingDeregistration
	require.NotNil(t, request)
	assert.Equal(t, uint8(1), request.NgksiAndDeregistrationType.GetSwitchOff())
}

func TestDeregistrationWhenNotRegistered(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())

	mm.SendDeregistration(context.DeregCauseUnspecified)
	assert.Equal(t, context.MmDeregisteredNa, mm.ue.MmState)
	assert.Empty(t, out.NasPdus())

	mm.SendDeregistration(context.DeregCauseDisable5g)
	assert.Equal(t, context.MmNullNa, mm.ue.MmState)
	assert.Empty(t, out.NasPdus())
}

func TestT3521Retransmission(t *testing.T) {
	mm, out, clock := newTestMm(t, testConfig())
	register(t, mm, out)
	mm.SendDeregistration(context.DeregCauseUnspecified)
	sent := len(out.NasPdus())

	for i := 1; i <= context.MaxT3521Retransmission; i++ {
		clock.Advance(context.T3521DefaultValue)
		mm.PerformTick(clock.Now())
		require.Equal(t, context.MmDeregisteredInitiatedNa, mm.ue.MmState)
		require.Len(t, out.NasPdus(), sent+i)
	}

	clock.Advance(context.T3521DefaultValue)
	mm.PerformTick(clock.Now())
	assert.Len(t, out.NasPdus(), sent+context.MaxT3521Retransmission)
	assert.Equal(t, context.MmDeregisteredNa, mm.ue.MmState)
	assert.Equal(t, context.RmDeregistered, mm.ue.RmState)
}

func TestNetworkInitiatedDeregistration(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	register(t, mm, out)

	m := gmmMessage(nas.MsgTypeDeregistrationRequestUETerminatedDeregistration)
	request := nasMessage.NewDeregistrationRequestUETerminatedDeregistration(0)
	request.SpareHalfOctetAndDeregistrationType.SetAccessType(message.AccessType3GPP)
	m.GmmMessage.DeregistrationRequestUETerminatedDeregistration = request
	mm.ReceiveMmMessage(m)

	assert.Equal(t, uint8(nas.MsgTypeDeregistrationAcceptUETerminatedDeregistration),
		lastSent(t, out).GmmHeader.GetMessageType())
	assert.Equal(t, context.MmDeregisteredNa, mm.ue.MmState)
	assert.Equal(t, context.RmDeregistered, mm.ue.RmState)
}

func TestServiceRequest(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	register(t, mm, out)
	mm.HandleRrcConnectionRelease()
	require.Equal(t, context.MmRegisteredNormalService, mm.ue.MmState)

	mm.SendServiceRequest(message.ServiceTypeData)
	assert.Equal(t, context.MmServiceRequestInitiatedNa, mm.ue.MmState)
	assert.True(t, mm.ue.Timers.T3517.IsRunning())

	_, initial := out.Rrc[len(out.Rrc)-1].(taskmsgtypes.InitialNasDelivery)
	assert.True(t, initial)
	request := lastSent(t, out).GmmMessage.ServiceRequest
	require.NotNil(t, request)
	assert.Equal(t, [7]uint8{0xf4, 0xfe, 0x00, 0x00, 0x00, 0x00, 0x01}, request.TMSI5GS.Octet)

	mm.HandleRrcConnectionSetup()
	m := gmmMessage(nas.MsgTypeServiceAccept)
	m.GmmMessage.ServiceAccept = nasMessage.NewServiceAccept(0)
	mm.ReceiveMmMessage(m)

	assert.Equal(t, context.MmRegisteredNormalService, mm.ue.MmState)
	assert.False(t, mm.ue.Timers.T3517.IsRunning())
}

func TestServiceReject(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	register(t, mm, out)
	mm.HandleRrcConnectionRelease()
	mm.SendServiceRequest(message.ServiceTypeSignalling)

	m := gmmMessage(nas.MsgTypeServiceReject)
	m.GmmMessage.ServiceReject = nasMessage.NewServiceReject(0)
	m.GmmMessage.ServiceReject.Cause5GMM.SetCauseValue(CauseUeIdentityCannotBeDerived)
	mm.ReceiveMmMessage(m)

	assert.Nil(t, mm.ue.Usim.StoredGuti)
	assert.Equal(t, context.MmDeregisteredNa, mm.ue.MmState)
	assert.Equal(t, context.RmDeregistered, mm.ue.RmState)
}

func TestServiceAcceptInWrongState(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	register(t, mm, out)

	m := gmmMessage(nas.MsgTypeServiceAccept)
	m.GmmMessage.ServiceAccept = nasMessage.NewServiceAccept(0)
	mm.ReceiveMmMessage(m)
	assert.Equal(t, uint8(CauseMessageTypeNotCompatibleWithState), lastStatusCause(t, out))
}

func TestConfigurationUpdateCommand(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	register(t, mm, out)

	guti := testGuti
	guti[10] = 0x02
	m := gmmMessage(nas.MsgTypeConfigurationUpdateCommand)
	command := nasMessage.NewConfigurationUpdateCommand(0)
	command.ConfigurationUpdateIndication = &nasType.ConfigurationUpdateIndication{}
	command.ConfigurationUpdateIndication.SetACK(1)
	command.GUTI5G = &nasType.GUTI5G{Len: 11, Octet: guti}
	m.GmmMessage.ConfigurationUpdateCommand = command
	mm.ReceiveMmMessage(m)

	assert.Equal(t, guti, mm.ue.Usim.StoredGuti.Octet)
	assert.Equal(t, uint8(nas.MsgTypeConfigurationUpdateComplete), lastSent(t, out).GmmHeader.GetMessageType())
}

func TestUnknownMmMessage(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())

	m := gmmMessage(nas.MsgTypeNotification)
	mm.ReceiveMmMessage(m)
	assert.Empty(t, out.NasPdus())
	assert.Equal(t, context.MmDeregisteredNa, mm.ue.MmState)
}

func TestActiveCellLost(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	register(t, mm, out)

	mm.HandleActiveCellChanged(false)
	assert.Equal(t, context.MmRegisteredNoCellAvailable, mm.ue.MmState)

	mm.HandleActiveCellChanged(true)
	assert.Equal(t, context.MmRegisteredNormalService, mm.ue.MmState)
}

func TestPeriodicRegistration(t *testing.T) {
	mm, out, clock := newTestMm(t, testConfig())
	register(t, mm, out)

	clock.Advance(time.Hour)
	mm.PerformTick(clock.Now())

	assert.Equal(t, context.MmRegisteredInitiatedNa, mm.ue.MmState)
	request := lastSent(t, out).GmmMessage.RegistrationRequest
	require.NotNil(t, request)
	assert.Equal(t, uint8(nasMessage.RegistrationType5GSPeriodicRegistrationUpdating),
		request.NgksiAndRegistrationType5GS.GetRegistrationType5GS())
}

func TestStatus(t *testing.T) {
	mm, out, _ := newTestMm(t, testConfig())
	register(t, mm, out)

	status := mm.Status()
	assert.Equal(t, "imsi-208930000000003", status.Supi)
	assert.Equal(t, context.MmRegisteredNormalService.String(), status.MmState)
	assert.Equal(t, util.GutiToString(mm.ue.Usim.StoredGuti), status.Guti)
	assert.Empty(t, status.Sessions)
}
