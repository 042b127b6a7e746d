// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gsm

import (
	"github.com/mohae/deepcopy"
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/nas/nasType"
	"github.com/omec-project/openapi/models"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/gsm/message"
	"github.com/omec-project/uesim/util"
)

func sessionTypeValue(sessionType string) (uint8, bool) {
	switch sessionType {
	case factory.SessionTypeIPv4, "":
		return nasMessage.PDUSessionTypeIPv4, true
	case factory.SessionTypeIPv6:
		return nasMessage.PDUSessionTypeIPv6, false
	case factory.SessionTypeIPv4v6:
		return nasMessage.PDUSessionTypeIPv4IPv6, false
	default:
		return 0, false
	}
}

// SendEstablishmentRequest starts a UE requested PDU session establishment.
// Nothing is sent and no identity stays allocated when a precondition fails.
func (sm *NasSm) SendEstablishmentRequest(config factory.SessionConfig) {
	sm.log.Debugln("Sending PDU session establishment request")

	if sm.mm == nil || !sm.mm.IsRegistered() {
		sm.log.Errorln("UE is not registered")
		return
	}

	sessionType, supported := sessionTypeValue(config.Type)
	if !supported {
		sm.log.Errorf("PDU session type [%s] is not supported", config.Type)
		return
	}
	if sm.mm.IsRegisteredForEmergency() && !config.Emergency {
		sm.log.Errorln("Non-emergency PDU session cannot be requested, UE is registered for emergency only")
		return
	}
	if config.Emergency && sm.sessions.HasEmergencySession() {
		sm.log.Errorln("Emergency PDU session cannot be requested, " +
			"another emergency session already established or establishing")
		return
	}

	psi, err := sm.sessions.AllocatePsi()
	if err != nil {
		sm.log.Errorf("PDU session identity allocation failed: %+v", err)
		return
	}
	pti, err := sm.sessions.AllocatePti()
	if err != nil {
		sm.log.Errorf("Procedure transaction identity allocation failed: %+v", err)
		sm.sessions.FreePsi(psi)
		return
	}

	ps := sm.sessions.Session(psi)
	ps.SessionType = sessionType
	ps.Apn = config.Apn
	ps.SNssai = nil
	if config.Slice != nil {
		ps.SNssai = &models.Snssai{Sst: config.Slice.Sst, Sd: config.Slice.Sd}
	}
	ps.IsEmergency = config.Emergency
	ps.ClearNegotiated()
	sm.sendEvent(ps, EstablishmentRequestEvent)

	request := message.BuildPDUSessionEstablishmentRequest(uint8(psi), uint8(pti),
		sm.config.IsUplinkIntegrityFullRate(), sm.config.IsDownlinkIntegrityFullRate())

	pt := sm.sessions.Transaction(pti)
	pt.Psi = psi
	pt.Message = request
	pt.Timer = util.NewNasTimer(3580, context.T3580DefaultValue)
	pt.Timer.Start(sm.clock())

	sm.sendTransaction(pt)
}

func (sm *NasSm) ReceivePduSessionEstablishmentAccept(msg *nasMessage.PDUSessionEstablishmentAccept) {
	sm.log.Debugln("PDU Session Establishment Accept received")

	psi := context.Psi(msg.PDUSessionID.GetPDUSessionID())
	pti := context.Pti(msg.PTI.GetPTI())

	if msg.Cause5GSM != nil {
		sm.log.Warnf("SM cause received in PduSessionEstablishmentAccept [%d]", msg.Cause5GSM.GetCauseValue())
	}

	if !pti.IsValid() {
		sm.log.Errorf("Received PTI [%d] value is invalid", pti)
		sm.sendSmCause(nasMessage.Cause5GSMInvalidPTIValue, psi)
		return
	}

	pt := sm.sessions.Transaction(pti)
	if pt.State != context.PtPending || pt.Psi != psi {
		sm.log.Errorf("Received PSI value [%d] is invalid, expected was [%d]", psi, pt.Psi)
		sm.sendSmCause(nasMessage.Cause5GSMInvalidPTIValue, psi)
		return
	}

	sm.sessions.FreePti(pti)

	ps := sm.sessions.Session(psi)
	if !ps.State.Is(context.PsActivePending) {
		sm.log.Errorln("PS establishment accept received without requested")
		sm.sendSmCause(nasMessage.Cause5GSMMessageTypeNotCompatibleWithTheProtocolState, psi)
		return
	}

	ps.AuthorizedQosRules = deepcopy.Copy(msg.AuthorizedQosRules).(nasType.AuthorizedQosRules)
	ps.SessionAmbr = msg.SessionAMBR
	ps.SessionType = msg.SelectedSSCModeAndSelectedPDUSessionType.GetPDUSessionType()
	if msg.AuthorizedQosFlowDescriptions != nil {
		ps.AuthorizedQosFlowDescriptions = deepcopy.Copy(msg.AuthorizedQosFlowDescriptions).(*nasType.AuthorizedQosFlowDescriptions)
	} else {
		ps.AuthorizedQosFlowDescriptions = nil
	}
	if msg.PDUAddress != nil {
		ps.PduAddress = deepcopy.Copy(msg.PDUAddress).(*nasType.PDUAddress)
	} else {
		ps.PduAddress = nil
	}

	sm.sendEvent(ps, EstablishmentAcceptEvent)
}

// ReceivePduSessionEstablishmentReject releases the transaction and the
// session it was establishing.
func (sm *NasSm) ReceivePduSessionEstablishmentReject(msg *nasMessage.PDUSessionEstablishmentReject) {
	psi := context.Psi(msg.PDUSessionID.GetPDUSessionID())
	pti := context.Pti(msg.PTI.GetPTI())
	sm.log.Errorf("PDU Session Establishment Reject received [%d]", msg.Cause5GSM.GetCauseValue())

	if !pti.IsValid() {
		sm.log.Errorf("Received PTI [%d] value is invalid", pti)
		sm.sendSmCause(nasMessage.Cause5GSMInvalidPTIValue, psi)
		return
	}
	pt := sm.sessions.Transaction(pti)
	if pt.State != context.PtPending || pt.Psi != psi {
		sm.log.Errorf("Received PSI value [%d] is invalid, expected was [%d]", psi, pt.Psi)
		sm.sendSmCause(nasMessage.Cause5GSMInvalidPTIValue, psi)
		return
	}

	sm.sessions.FreePti(pti)

	ps := sm.sessions.Session(psi)
	if !ps.State.Is(context.PsActivePending) {
		sm.log.Errorln("PS establishment reject received without requested")
		sm.sendSmCause(nasMessage.Cause5GSMMessageTypeNotCompatibleWithTheProtocolState, psi)
		return
	}
	sm.sendEvent(ps, EstablishmentRejectEvent)
	sm.sessions.FreePsi(psi)
}

// AbortEstablishmentRequest cancels an establishment before the network
// resolved it. The transaction and its session are freed unconditionally.
func (sm *NasSm) AbortEstablishmentRequest(pti context.Pti) {
	pt := sm.sessions.Transaction(pti)
	if pt == nil {
		return
	}
	psi := pt.Psi
	sm.log.Debugf("PDU Session Establishment Procedure aborted for PTI[%d], PSI[%d]", pti, psi)

	sm.sessions.FreePti(pti)
	if ps := sm.sessions.Session(psi); ps != nil {
		sm.localRelease(ps)
	}
}
