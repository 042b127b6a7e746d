// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"bytes"

	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/nas/security"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/gmm/message"
	"github.com/omec-project/uesim/util"
)

func supportsAlgorithm(set factory.AlgorithmSet, alg uint8) bool {
	switch alg {
	case 0:
		return true
	case 1:
		return set.Alg1
	case 2:
		return set.Alg2
	case 3:
		return set.Alg3
	default:
		return false
	}
}

func (mm *NasMm) receiveSecurityModeCommand(msg *nasMessage.SecurityModeCommand) {
	mm.log.Debugln("Security Mode Command received")

	ngKsi := msg.SpareHalfOctetAndNgksi.GetNasKeySetIdentifiler()

	var nsCtx *context.NasSecurityContext
	usim := mm.ue.Usim
	switch {
	case usim.NonCurrentNsCtx != nil && usim.NonCurrentNsCtx.NgKsi == ngKsi:
		nsCtx = usim.NonCurrentNsCtx
	case usim.CurrentNsCtx != nil && usim.CurrentNsCtx.NgKsi == ngKsi:
		nsCtx = usim.CurrentNsCtx
	default:
		mm.log.Errorf("Security context with ngKSI [%d] not found", ngKsi)
		mm.sendSecurityModeReject(CauseSecurityModeRejectedUnspecified)
		return
	}

	// the network must echo what the UE sent in its registration request
	expected := message.BuildUeSecurityCapability(mm.ue.Config.Integrity, mm.ue.Config.Ciphering)
	replayed := msg.ReplayedUESecurityCapabilities.Buffer
	if len(replayed) < 2 || !bytes.Equal(replayed[:2], expected.Buffer[:2]) {
		mm.log.Errorf("Replayed UE security capabilities mismatch [%x]", replayed)
		mm.sendSecurityModeReject(CauseUeSecurityCapabilitiesMismatch)
		return
	}

	integrity := msg.SelectedNASSecurityAlgorithms.GetTypeOfIntegrityProtectionAlgorithm()
	ciphering := msg.SelectedNASSecurityAlgorithms.GetTypeOfCipheringAlgorithm()
	if !supportsAlgorithm(mm.ue.Config.Integrity, integrity) || !supportsAlgorithm(mm.ue.Config.Ciphering, ciphering) {
		mm.log.Errorf("Selected algorithms are not supported NIA[%d] NEA[%d]", integrity, ciphering)
		mm.sendSecurityModeReject(CauseUeSecurityCapabilitiesMismatch)
		return
	}
	if integrity == security.AlgIntegrity128NIA0 && !mm.ue.RegisteredForEmergency &&
		mm.ue.LastRegistrationType != nasMessage.RegistrationType5GSEmergencyRegistration {
		mm.log.Warnln("Null integrity algorithm selected for a non-emergency registration")
	}

	nsCtx.IntegrityAlg = integrity
	nsCtx.CipheringAlg = ciphering
	if err := nsCtx.DerivateAlgKey(); err != nil {
		mm.log.Errorf("Algorithm key derivation error: %+v", err)
		mm.sendSecurityModeReject(CauseSecurityModeRejectedUnspecified)
		return
	}
	nsCtx.ULCount.Set(0, 0)
	nsCtx.DLCount.Set(0, 0)

	if nsCtx == usim.NonCurrentNsCtx {
		usim.PromoteNonCurrent()
	}

	var imeisv []uint8
	if msg.IMEISVRequest != nil && msg.IMEISVRequest.GetIMEISVRequestValue() == 1 {
		if mm.ue.Config.Imeisv == "" {
			mm.log.Warnln("IMEISV requested but not configured")
		} else {
			var err error
			if imeisv, err = util.EncodeDigitIdentity(mm.ue.Config.Imeisv,
				nasMessage.MobileIdentity5GSTypeImeisv); err != nil {
				mm.log.Errorf("IMEISV encoding error: %+v", err)
				imeisv = nil
			}
		}
	}

	var container []uint8
	if msg.Additional5GSecurityInformation != nil && msg.Additional5GSecurityInformation.GetRINMR() == 1 {
		if mm.ue.LastRegistrationRequest == nil {
			mm.log.Warnln("Retransmission of the initial message requested but none is retained")
		} else {
			b, err := message.EncodeGmm(mm.ue.LastRegistrationRequest)
			if err != nil {
				mm.log.Errorf("Registration request encoding error: %+v", err)
			} else {
				container = b
			}
		}
	}

	mm.log.Infof("Security Mode Command completed NIA[%d] NEA[%d]", integrity, ciphering)
	mm.sendNasMessage(message.BuildSecurityModeComplete(imeisv, container), true)
}

func (mm *NasMm) sendSecurityModeReject(cause uint8) {
	mm.log.Warnf("Rejecting Security Mode Command with cause [%d]", cause)
	mm.SendNasMessage(message.BuildSecurityModeReject(cause))
}
