// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/gmm/message"
	"github.com/omec-project/util/milenage"
)

// authVector holds the Milenage outputs for one RAND.
type authVector struct {
	res  []uint8
	ck   []uint8
	ik   []uint8
	ak   []uint8
	sqn  []uint8
	xmac []uint8
}

type autnError struct {
	cause uint8
	auts  []uint8
}

func (e *autnError) Error() string {
	return fmt.Sprintf("autn validation failed with cause [%d]", e.cause)
}

func (mm *NasMm) receiveAuthenticationRequest(msg *nasMessage.AuthenticationRequest) {
	mm.log.Debugln("Authentication Request received")

	if msg.EAPMessage != nil {
		mm.log.Errorln("EAP based authentication is not supported")
		mm.sendMmStatus(CauseMessageTypeNonExistent)
		return
	}
	if msg.AuthenticationParameterRAND == nil || msg.AuthenticationParameterAUTN == nil {
		mm.log.Errorln("Received Authentication Request without RAND or AUTN")
		mm.sendMmStatus(CauseInvalidMandatoryInformation)
		return
	}
	if !mm.ue.Usim.Valid {
		mm.log.Warnln("Authentication Request received without a valid USIM")
		return
	}

	ngKsi := msg.SpareHalfOctetAndNgksi.GetNasKeySetIdentifiler()
	tsc := msg.SpareHalfOctetAndNgksi.GetTSC()
	if current := mm.ue.Usim.CurrentNsCtx; current != nil && current.NgKsi == ngKsi && current.Tsc == tsc {
		mm.log.Errorf("ngKSI [%d] is already in use", ngKsi)
		mm.sendAuthenticationFailure(CauseNgKsiAlreadyInUse, nil)
		return
	}

	rand := msg.GetRANDValue()
	autn := msg.GetAUTN()

	vector, err := mm.validateAutn(rand[:], autn[:])
	if err != nil {
		var failure *autnError
		if !errors.As(err, &failure) {
			mm.log.Errorf("Milenage error: %+v", err)
			return
		}
		mm.log.Errorln(failure)
		mm.sendAuthenticationFailure(failure.cause, failure.auts)
		return
	}

	snName := context.ServingNetworkName(mm.ue.Config.Mcc, mm.ue.Config.Mnc)
	resStar, err := context.DerivateResStar(vector.ck, vector.ik, snName, rand[:], vector.res)
	if err != nil {
		mm.log.Errorf("RES* derivation error: %+v", err)
		return
	}
	kausf, err := context.DerivateKausf(vector.ck, vector.ik, snName, autn[0:6])
	if err != nil {
		mm.log.Errorf("Kausf derivation error: %+v", err)
		return
	}
	kseaf, err := context.DerivateKseaf(kausf, snName)
	if err != nil {
		mm.log.Errorf("Kseaf derivation error: %+v", err)
		return
	}
	kamf, err := context.DerivateKamf(kseaf, mm.ue.Usim.Supi, msg.ABBA.GetABBAContents())
	if err != nil {
		mm.log.Errorf("Kamf derivation error: %+v", err)
		return
	}

	copy(mm.ue.Usim.Sqn, vector.sqn)
	mm.ue.Rand = append([]uint8{}, rand[:]...)
	mm.ue.ResStar = resStar

	nonCurrent := context.NewNasSecurityContext(ngKsi, kamf)
	nonCurrent.Tsc = tsc
	mm.ue.Usim.NonCurrentNsCtx = nonCurrent

	mm.ue.Timers.T3520.Stop()
	mm.SendNasMessage(message.BuildAuthenticationResponse(resStar))
}

// validateAutn runs Milenage for rand and checks the network token. Failures
// the network must hear about are returned as *autnError.
func (mm *NasMm) validateAutn(rand, autn []uint8) (*authVector, error) {
	usim := mm.ue.Usim
	vector := &authVector{
		res:  make([]uint8, 8),
		ck:   make([]uint8, 16),
		ik:   make([]uint8, 16),
		ak:   make([]uint8, 6),
		sqn:  make([]uint8, 6),
		xmac: make([]uint8, 8),
	}
	if err := milenage.F2345(usim.Opc, usim.K, rand, vector.res, vector.ck, vector.ik, vector.ak, nil); err != nil {
		return nil, err
	}

	sqnXorAk := autn[0:6]
	amf := autn[6:8]
	mac := autn[8:16]
	for i := range vector.sqn {
		vector.sqn[i] = sqnXorAk[i] ^ vector.ak[i]
	}

	if err := milenage.F1(usim.Opc, usim.K, rand, vector.sqn, amf, vector.xmac, nil); err != nil {
		return nil, err
	}
	if !bytes.Equal(mac, vector.xmac) {
		return nil, &autnError{cause: CauseMacFailure}
	}

	// AMF separation bit
	if amf[0]&0x80 == 0 {
		return nil, &autnError{cause: CauseNon5gAuthenticationUnacceptable}
	}

	if bytes.Compare(vector.sqn, usim.Sqn) <= 0 {
		auts, err := mm.generateAuts(rand)
		if err != nil {
			return nil, err
		}
		return nil, &autnError{cause: CauseSynchFailure, auts: auts}
	}
	return vector, nil
}

// generateAuts builds the resynchronisation token from the stored SQN.
func (mm *NasMm) generateAuts(rand []uint8) ([]uint8, error) {
	usim := mm.ue.Usim
	macS := make([]uint8, 8)
	akStar := make([]uint8, 6)

	// MAC-S is computed with a dummy AMF of all zeros
	if err := milenage.F1(usim.Opc, usim.K, rand, usim.Sqn, []uint8{0x00, 0x00}, nil, macS); err != nil {
		return nil, err
	}
	if err := milenage.F2345(usim.Opc, usim.K, rand, nil, nil, nil, nil, akStar); err != nil {
		return nil, err
	}

	auts := make([]uint8, 0, 14)
	for i := 0; i < 6; i++ {
		auts = append(auts, usim.Sqn[i]^akStar[i])
	}
	return append(auts, macS...), nil
}

func (mm *NasMm) sendAuthenticationFailure(cause uint8, auts []uint8) {
	mm.log.Warnf("Sending Authentication Failure with cause [%d]", cause)
	mm.ue.Timers.T3520.Start(mm.clock())
	mm.SendNasMessage(message.BuildAuthenticationFailure(cause, auts))
}

func (mm *NasMm) receiveAuthenticationReject(msg *nasMessage.AuthenticationReject) {
	mm.log.Errorln("Authentication Reject received")

	if msg.EAPMessage != nil {
		mm.log.Warnln("EAP message in Authentication Reject is ignored")
	}

	mm.ue.Timers.T3510.Stop()
	mm.ue.Timers.T3517.Stop()
	mm.ue.Timers.T3519.Stop()
	mm.ue.Timers.T3520.Stop()
	mm.ue.Timers.T3521.Stop()

	mm.switchUState(context.U3RoamingNotAllowed)
	mm.ue.Usim.StoredGuti = nil
	mm.ue.Usim.StoredSuci = nil
	mm.ue.Usim.DeleteSecurityContexts()
	mm.ue.Usim.Valid = false

	mm.switchRmState(context.RmDeregistered)
	mm.switchMmState(context.MmDeregisteredNa)
}

func (mm *NasMm) receiveAuthenticationResult(msg *nasMessage.AuthenticationResult) {
	if msg.ABBA != nil {
		mm.log.Debugf("Authentication Result received with ABBA [%x]", msg.ABBA.GetABBAContents())
		return
	}
	mm.log.Debugln("Authentication Result received")
}
