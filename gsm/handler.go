// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gsm

import (
	"github.com/omec-project/nas"
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/openapi/models"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/gsm/message"
	"github.com/omec-project/uesim/msgtypes/nasmsgtypes"
)

// ReceiveSmMessage handles a decoded 5GSM message from the network.
func (sm *NasSm) ReceiveSmMessage(msg *nas.Message) {
	if msg == nil || msg.GsmMessage == nil {
		sm.log.Errorln("Gsm Message is nil")
		return
	}
	msgType := msg.GsmHeader.GetMessageType()
	sm.log.Debugf("Receive %s", nasmsgtypes.GsmName(msgType))

	switch msgType {
	case nas.MsgTypePDUSessionEstablishmentAccept:
		sm.ReceivePduSessionEstablishmentAccept(msg.GsmMessage.PDUSessionEstablishmentAccept)
	case nas.MsgTypePDUSessionEstablishmentReject:
		sm.ReceivePduSessionEstablishmentReject(msg.GsmMessage.PDUSessionEstablishmentReject)
	case nas.MsgTypePDUSessionReleaseCommand:
		sm.ReceivePduSessionReleaseCommand(msg.GsmMessage.PDUSessionReleaseCommand)
	case nas.MsgTypePDUSessionReleaseReject:
		sm.ReceivePduSessionReleaseReject(msg.GsmMessage.PDUSessionReleaseReject)
	case nas.MsgTypeStatus5GSM:
		sm.ReceiveSmStatus(msg.GsmMessage.Status5GSM)
	case nas.MsgTypePDUSessionModificationCommand:
		psi := context.Psi(msg.GsmMessage.PDUSessionModificationCommand.PDUSessionID.GetPDUSessionID())
		sm.log.Warnf("PDU Session Modification Command for PSI[%d] is not supported", psi)
		sm.sendSmCause(nasMessage.Cause5GSMMessageTypeNonExistentOrNotImplemented, psi)
	default:
		sm.log.Errorf("Unhandled NAS SM message received [%s]", nasmsgtypes.GsmName(msgType))
	}
}

func (sm *NasSm) ReceiveSmStatus(msg *nasMessage.Status5GSM) {
	psi := context.Psi(msg.PDUSessionID.GetPDUSessionID())
	pti := context.Pti(msg.PTI.GetPTI())
	cause := msg.Cause5GSM.GetCauseValue()
	sm.log.Errorf("SM Status received PSI[%d] PTI[%d] cause[%d]", psi, pti, cause)

	switch cause {
	case nasMessage.Cause5GSMInvalidPDUSessionIdentity:
		if ps := sm.sessions.Session(psi); ps != nil && ps.Allocated {
			sm.localRelease(ps)
		}
	case nasMessage.Cause5GSMInvalidPTIValue:
		if pt := sm.sessions.Transaction(pti); pt != nil && pt.State == context.PtPending {
			sm.abortTransaction(pt)
		}
	}
}

// sendSmCause replies with a 5GSM STATUS keyed to psi.
func (sm *NasSm) sendSmCause(cause uint8, psi context.Psi) {
	sm.log.Warnf("Sending SM Cause[%d] for PSI[%d]", cause, psi)
	sm.sendSmMessage(psi, message.BuildStatus5GSM(uint8(psi), uint8(context.PtiNone), cause))
}

// sendTransaction sends or resends the message retained by a transaction.
func (sm *NasSm) sendTransaction(pt *context.ProcedureTransaction) {
	if pt.Message == nil {
		return
	}
	if pt.Message.GsmHeader.GetMessageType() != nas.MsgTypePDUSessionEstablishmentRequest {
		sm.sendSmMessage(pt.Psi, pt.Message)
		return
	}

	ps := sm.sessions.Session(pt.Psi)
	requestType := uint8(nasMessage.ULNASTransportRequestTypeInitialRequest)
	if ps.IsEmergency {
		requestType = nasMessage.ULNASTransportRequestTypeInitialEmergencyRequest
	}
	sm.deliver(pt.Psi, pt.Message, requestType, ps)
}

func (sm *NasSm) sendSmMessage(psi context.Psi, msg *nas.Message) {
	sm.deliver(psi, msg, 0, nil)
}

func (sm *NasSm) deliver(psi context.Psi, msg *nas.Message, requestType uint8, ps *context.PduSession) {
	if sm.mm == nil {
		sm.log.Errorln("MM sublayer is not attached")
		return
	}
	smPdu, err := message.EncodeGsm(msg)
	if err != nil {
		sm.log.Errorln(err)
		return
	}

	var dnn string
	var sNssai *models.Snssai
	if ps != nil {
		dnn, sNssai = ps.Apn, ps.SNssai
	}
	ulNasTransport, err := message.BuildULNASTransport(smPdu, uint8(psi), requestType, dnn, sNssai)
	if err != nil {
		sm.log.Errorf("Build UL NAS Transport error: %+v", err)
		return
	}
	sm.mm.SendNasMessage(ulNasTransport)
}
