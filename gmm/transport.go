// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"github.com/omec-project/nas"
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/ngap/ngapType"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/gmm/message"
	"github.com/omec-project/uesim/msgtypes/nasmsgtypes"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/omec-project/uesim/nas/nas_security"
)

// SendNasMessage protects msg with the current security context, if any,
// and hands it to RRC.
func (mm *NasMm) SendNasMessage(msg *nas.Message) {
	mm.sendNasMessage(msg, false)
}

func (mm *NasMm) sendNasMessage(msg *nas.Message, newContext bool) {
	pdu, err := nas_security.Encode(mm.ue.Usim.CurrentNsCtx, msg, newContext)
	if err != nil {
		mm.log.Errorf("NAS encode error: %+v", err)
		return
	}
	if msg.GmmMessage != nil {
		mm.log.Debugf("Send %s", nasmsgtypes.GmmName(msg.GmmHeader.GetMessageType()))
	}

	if mm.ue.CmState == context.CmIdle {
		mm.out.SendToRrc(taskmsgtypes.InitialNasDelivery{
			UeId:               mm.ueId,
			Pdu:                pdu,
			EstablishmentCause: int64(ngapType.RRCEstablishmentCausePresentMoData),
		})
		return
	}
	mm.out.SendToRrc(taskmsgtypes.UplinkNasDelivery{UeId: mm.ueId, Pdu: pdu})
}

func (mm *NasMm) sendMmStatus(cause uint8) {
	mm.log.Warnf("Sending MM Status with cause [%d]", cause)
	mm.SendNasMessage(message.BuildStatus5GMM(cause))
}

// SendMmStatus answers an undeliverable message on behalf of the router.
func (mm *NasMm) SendMmStatus(cause uint8) {
	mm.sendMmStatus(cause)
}

// ReceiveMmMessage handles a plain 5GMM message, after the security
// envelope, if any, has been removed.
func (mm *NasMm) ReceiveMmMessage(msg *nas.Message) {
	if msg == nil || msg.GmmMessage == nil {
		mm.log.Errorln("Gmm Message is nil")
		return
	}
	msgType := msg.GmmHeader.GetMessageType()
	mm.log.Debugf("Receive %s", nasmsgtypes.GmmName(msgType))

	gmm := msg.GmmMessage
	switch msgType {
	case nas.MsgTypeRegistrationAccept:
		mm.receiveRegistrationAccept(gmm.RegistrationAccept)
	case nas.MsgTypeRegistrationReject:
		mm.receiveRegistrationReject(gmm.RegistrationReject)
	case nas.MsgTypeDeregistrationAcceptUEOriginatingDeregistration:
		mm.receiveDeregistrationAccept(gmm.DeregistrationAcceptUEOriginatingDeregistration)
	case nas.MsgTypeDeregistrationRequestUETerminatedDeregistration:
		mm.receiveDeregistrationRequest(gmm.DeregistrationRequestUETerminatedDeregistration)
	case nas.MsgTypeServiceAccept:
		mm.receiveServiceAccept(gmm.ServiceAccept)
	case nas.MsgTypeServiceReject:
		mm.receiveServiceReject(gmm.ServiceReject)
	case nas.MsgTypeConfigurationUpdateCommand:
		mm.receiveConfigurationUpdateCommand(gmm.ConfigurationUpdateCommand)
	case nas.MsgTypeAuthenticationRequest:
		mm.receiveAuthenticationRequest(gmm.AuthenticationRequest)
	case nas.MsgTypeAuthenticationReject:
		mm.receiveAuthenticationReject(gmm.AuthenticationReject)
	case nas.MsgTypeAuthenticationResult:
		mm.receiveAuthenticationResult(gmm.AuthenticationResult)
	case nas.MsgTypeAuthenticationResponse, nas.MsgTypeAuthenticationFailure:
		mm.log.Warnf("Network sent a UE originated message [%s], ignoring", nasmsgtypes.GmmName(msgType))
	case nas.MsgTypeIdentityRequest:
		mm.receiveIdentityRequest(gmm.IdentityRequest)
	case nas.MsgTypeSecurityModeCommand:
		mm.receiveSecurityModeCommand(gmm.SecurityModeCommand)
	case nas.MsgTypeStatus5GMM:
		mm.receiveMmStatus(gmm.Status5GMM)
	case nas.MsgTypeDLNASTransport:
		mm.receiveDlNasTransport(gmm.DLNASTransport)
	default:
		mm.log.Errorf("Unhandled NAS MM message received [%s]", nasmsgtypes.GmmName(msgType))
	}
}

func (mm *NasMm) receiveMmStatus(msg *nasMessage.Status5GMM) {
	mm.log.Errorf("MM Status received with cause [%d]", msg.Cause5GMM.GetCauseValue())
}

func (mm *NasMm) receiveDlNasTransport(msg *nasMessage.DLNASTransport) {
	containerType := msg.SpareHalfOctetAndPayloadContainerType.GetPayloadContainerType()
	if containerType != nasMessage.PayloadContainerTypeN1SMInfo {
		mm.log.Warnf("DL NAS Transport with payload container type [%d] is not handled", containerType)
		return
	}

	payload := msg.PayloadContainer.GetPayloadContainerContents()
	m := nas.NewMessage()
	if err := m.PlainNasDecode(&payload); err != nil {
		mm.log.Errorf("N1 SM payload decode error: %+v", err)
		return
	}
	if m.GsmMessage == nil {
		mm.log.Errorln("DL NAS Transport payload is not an SM message")
		return
	}
	if mm.sm != nil {
		mm.sm.ReceiveSmMessage(m)
	}
}
