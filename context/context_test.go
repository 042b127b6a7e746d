// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package context

import (
	"encoding/hex"
	"testing"

	"github.com/omec-project/nas/security"
	"github.com/omec-project/uesim/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUeConfig() *factory.UeConfig {
	return &factory.UeConfig{
		Supi:   "imsi-208930000000003",
		Mcc:    "208",
		Mnc:    "93",
		Key:    "465b5ce8b199b49faa5f0a2ee238a6bc",
		Op:     "cdc202d5123e20f62b6d676ac72cb318",
		OpType: factory.OpTypeOp,
		Amf:    "8000",
		Imei:   "356938035643803",
		Imeisv: "4370816125816151",
	}
}

func TestMmStatePairs(t *testing.T) {
	seen := map[MmState]bool{}
	for _, s := range AllMmStates() {
		assert.False(t, seen[s], "duplicate state %s", s)
		seen[s] = true
		assert.NotEmpty(t, s.Main().String())
		assert.NotEmpty(t, s.Sub().String())
		if s.Is(MmMainNull) || s.Is(MmMainRegisteredInitiated) || s.Is(MmMainDeregisteredInitiated) ||
			s.Is(MmMainServiceRequestInitiated) {
			assert.Equal(t, MmSubNa, s.Sub(), "%s has no sub-states", s.Main())
		}
	}
	assert.Len(t, seen, 21)
	assert.Equal(t, "MM-DEREGISTERED/PLMN-SEARCH", MmDeregisteredPlmnSearch.String())
	assert.NotEqual(t, MmDeregisteredNormalService, MmRegisteredNormalService)

	var zero MmState
	assert.Equal(t, MmNullNa, zero)
	assert.Equal(t, MmMainServiceRequestInitiated, MmServiceRequestInitiatedNa.Main())
	assert.Equal(t, MmSubAttemptingRegistrationUpdate, MmRegisteredAttemptingRegistrationUpdate.Sub())
}

func TestNewUsimDerivesOpc(t *testing.T) {
	usim, err := NewUsim(testUeConfig())
	require.NoError(t, err)
	assert.True(t, usim.Valid)
	assert.Equal(t, "cd63cb71954a9f4e48a5994e37a02baf", hex.EncodeToString(usim.Opc))
	assert.Equal(t, []uint8{0x80, 0x00}, usim.Amf)
	assert.Equal(t, U2NotUpdated, usim.UState)
}

func TestNewUsimInvalid(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(cfg *factory.UeConfig)
	}{
		{"bad key", func(cfg *factory.UeConfig) { cfg.Key = "zz" }},
		{"short op", func(cfg *factory.UeConfig) { cfg.Op = "00" }},
		{"unknown op type", func(cfg *factory.UeConfig) { cfg.OpType = "OPX" }},
		{"bad supi", func(cfg *factory.UeConfig) { cfg.Supi = "imsi-12" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testUeConfig()
			tc.modify(cfg)
			_, err := NewUsim(cfg)
			assert.Error(t, err)
		})
	}

	cfg := testUeConfig()
	cfg.Supi = ""
	usim, err := NewUsim(cfg)
	require.NoError(t, err)
	assert.False(t, usim.Valid)
}

func TestDeleteSecurityContexts(t *testing.T) {
	usim, err := NewUsim(testUeConfig())
	require.NoError(t, err)
	assert.False(t, usim.DeleteSecurityContexts())

	kamf := make([]uint8, 32)
	for i := range kamf {
		kamf[i] = uint8(i)
	}
	current := NewNasSecurityContext(1, kamf)
	current.IntegrityAlg = security.AlgIntegrity128NIA2
	require.NoError(t, current.DerivateAlgKey())
	assert.NotEqual(t, [16]uint8{}, current.KnasInt)
	usim.CurrentNsCtx = current
	usim.NonCurrentNsCtx = NewNasSecurityContext(2, make([]uint8, 32))

	assert.True(t, usim.DeleteSecurityContexts())
	assert.Nil(t, usim.CurrentNsCtx)
	assert.Nil(t, usim.NonCurrentNsCtx)
	// key material is wiped, not only dropped
	assert.Nil(t, current.Kamf)
	assert.Equal(t, [16]uint8{}, current.KnasInt)
	assert.Equal(t, uint8(0), kamf[5])
}

func TestPromoteNonCurrent(t *testing.T) {
	usim, err := NewUsim(testUeConfig())
	require.NoError(t, err)
	next := NewNasSecurityContext(3, make([]uint8, 32))
	usim.NonCurrentNsCtx = next
	usim.PromoteNonCurrent()
	assert.Same(t, next, usim.CurrentNsCtx)
	assert.Nil(t, usim.NonCurrentNsCtx)
	assert.True(t, usim.HasCurrentSecurityContext())
	assert.False(t, next.IsProtected())
}

func TestKeyDerivation(t *testing.T) {
	assert.Equal(t, "5G:mnc093.mcc208.3gppnetwork.org", ServingNetworkName("208", "93"))
	assert.Equal(t, "5G:mnc410.mcc310.3gppnetwork.org", ServingNetworkName("310", "410"))

	ck := make([]byte, 16)
	ik := make([]byte, 16)
	rand := make([]byte, 16)
	res := make([]byte, 8)
	sn := ServingNetworkName("208", "93")

	resStar, err := DerivateResStar(ck, ik, sn, rand, res)
	require.NoError(t, err)
	assert.Len(t, resStar, 16)

	kausf, err := DerivateKausf(ck, ik, sn, make([]byte, 6))
	require.NoError(t, err)
	assert.Len(t, kausf, 32)
	kseaf, err := DerivateKseaf(kausf, sn)
	require.NoError(t, err)
	kamf, err := DerivateKamf(kseaf, "imsi-208930000000003", []byte{0x00, 0x00})
	require.NoError(t, err)
	assert.Len(t, kamf, 32)

	again, err := DerivateKamf(kseaf, "imsi-208930000000003", []byte{0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, kamf, again)

	_, err = DerivateKamf(kseaf, "nai-x", nil)
	assert.Error(t, err)
}

func TestSessionTableAllocation(t *testing.T) {
	table := NewSessionTable()
	assert.Nil(t, table.Session(PsiNone))
	assert.Nil(t, table.Transaction(PtiNone))
	assert.Nil(t, table.Session(MaxPsi+1))

	for i := 1; i <= int(MaxPsi); i++ {
		psi, err := table.AllocatePsi()
		require.NoError(t, err)
		assert.Equal(t, Psi(i), psi)
	}
	psi, err := table.AllocatePsi()
	assert.ErrorIs(t, err, ErrSessionTableFull)
	assert.Equal(t, PsiNone, psi)

	table.FreePsi(7)
	psi, err = table.AllocatePsi()
	require.NoError(t, err)
	assert.Equal(t, Psi(7), psi)

	for i := 1; i <= int(MaxPti); i++ {
		_, err = table.AllocatePti()
		require.NoError(t, err)
	}
	_, err = table.AllocatePti()
	assert.ErrorIs(t, err, ErrTransactionTableFull)
	assert.Len(t, table.PendingTransactions(), int(MaxPti))

	table.FreePti(3)
	assert.Len(t, table.PendingTransactions(), int(MaxPti)-1)
	pti, err := table.AllocatePti()
	require.NoError(t, err)
	assert.Equal(t, Pti(3), pti)
}

func TestSessionTableFreeClearsRecord(t *testing.T) {
	table := NewSessionTable()
	psi, err := table.AllocatePsi()
	require.NoError(t, err)
	ps := table.Session(psi)
	ps.State.Set(PsActive)
	ps.IsEmergency = true
	ps.Apn = "sos"
	assert.True(t, table.HasEmergencySession())
	assert.Equal(t, 1, table.CountInState(PsActive))

	table.FreePsi(psi)
	assert.False(t, ps.Allocated)
	assert.True(t, ps.State.Is(PsInactive))
	assert.Empty(t, ps.Apn)
	assert.False(t, table.HasEmergencySession())
	assert.Empty(t, table.Sessions())
}

func testGnbConfig() *factory.GnbConfig {
	return &factory.GnbConfig{
		GnbId:     "000102",
		GnbIdBits: 24,
		Nci:       "000000010",
		Mcc:       "208",
		Mnc:       "93",
		Tac:       "000001",
	}
}

func TestGnbContextUeLookup(t *testing.T) {
	gnb, err := NewGnbContext(testGnbConfig())
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{0x02, 0xf8, 0x39}, gnb.PlmnId)
	assert.Equal(t, uint64(0x10), gnb.Nci)

	gnb.NewAmfContext(1, "127.0.0.18", 38412)
	assert.Nil(t, gnb.SelectAmf())
	gnb.FindAmf(1).State = AmfConnected
	assert.NotNil(t, gnb.SelectAmf())

	ue, err := gnb.NewUe(5, 1)
	require.NoError(t, err)
	assert.Equal(t, AmfUeNgapIdUnset, ue.AmfUeNgapId)
	_, err = gnb.NewUe(5, 1)
	assert.Error(t, err)

	// first UE associated message binds the AMF id
	found := gnb.FindUeByNgapIdPair(1, 42, ue.RanUeNgapId)
	require.NotNil(t, found)
	assert.Equal(t, int64(42), found.AmfUeNgapId)
	assert.Same(t, ue, gnb.FindUeByAmfId(42))

	assert.Nil(t, gnb.FindUeByNgapIdPair(1, 43, ue.RanUeNgapId))
	assert.Nil(t, gnb.FindUeByNgapIdPair(2, 42, ue.RanUeNgapId))
	assert.Nil(t, gnb.FindUeByNgapIdPair(1, 42, ue.RanUeNgapId+100))

	gnb.DeleteUe(5)
	assert.Nil(t, gnb.FindUe(5))
	assert.Empty(t, gnb.Ues())
}

func TestNewGnbContextInvalid(t *testing.T) {
	cfg := testGnbConfig()
	cfg.Tac = "01"
	_, err := NewGnbContext(cfg)
	assert.Error(t, err)

	cfg = testGnbConfig()
	cfg.GnbIdBits = 40
	_, err = NewGnbContext(cfg)
	assert.Error(t, err)
}

func TestNewUeContext(t *testing.T) {
	ue, err := NewUeContext(testUeConfig())
	require.NoError(t, err)
	assert.Equal(t, MmDeregisteredNa, ue.MmState)
	assert.Equal(t, RmDeregistered, ue.RmState)
	assert.Equal(t, CmIdle, ue.CmState)
	assert.NotEmpty(t, ue.InstanceId)
	assert.Len(t, ue.Timers.All(), 11)
	assert.False(t, ue.Timers.T3346.IsRunning())
}
