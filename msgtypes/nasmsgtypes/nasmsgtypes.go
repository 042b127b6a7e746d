// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package nasmsgtypes

import (
	"fmt"

	"github.com/omec-project/nas"
)

var (
	GmmMsg map[uint8]string
	GsmMsg map[uint8]string
)

func init() {
	BuildGmmMessageTypeToMsgMap()
	BuildGsmMessageTypeToMsgMap()
}

func BuildGmmMessageTypeToMsgMap() {
	GmmMsg = make(map[uint8]string, 32)
	GmmMsg[nas.MsgTypeRegistrationRequest] = "RegistrationRequest"
	GmmMsg[nas.MsgTypeRegistrationAccept] = "RegistrationAccept"
	GmmMsg[nas.MsgTypeRegistrationComplete] = "RegistrationComplete"
	GmmMsg[nas.MsgTypeRegistrationReject] = "RegistrationReject"
	GmmMsg[nas.MsgTypeDeregistrationRequestUEOriginatingDeregistration] = "DeregistrationRequestUEOriginating"
	GmmMsg[nas.MsgTypeDeregistrationAcceptUEOriginatingDeregistration] = "DeregistrationAcceptUEOriginating"
	GmmMsg[nas.MsgTypeDeregistrationRequestUETerminatedDeregistration] = "DeregistrationRequestUETerminated"
	GmmMsg[nas.MsgTypeDeregistrationAcceptUETerminatedDeregistration] = "DeregistrationAcceptUETerminated"
	GmmMsg[nas.MsgTypeServiceRequest] = "ServiceRequest"
	GmmMsg[nas.MsgTypeServiceReject] = "ServiceReject"
	GmmMsg[nas.MsgTypeServiceAccept] = "ServiceAccept"
	GmmMsg[nas.MsgTypeConfigurationUpdateCommand] = "ConfigurationUpdateCommand"
	GmmMsg[nas.MsgTypeConfigurationUpdateComplete] = "ConfigurationUpdateComplete"
	GmmMsg[nas.MsgTypeAuthenticationRequest] = "AuthenticationRequest"
	GmmMsg[nas.MsgTypeAuthenticationResponse] = "AuthenticationResponse"
	GmmMsg[nas.MsgTypeAuthenticationReject] = "AuthenticationReject"
	GmmMsg[nas.MsgTypeAuthenticationFailure] = "AuthenticationFailure"
	GmmMsg[nas.MsgTypeAuthenticationResult] = "AuthenticationResult"
	GmmMsg[nas.MsgTypeIdentityRequest] = "IdentityRequest"
	GmmMsg[nas.MsgTypeIdentityResponse] = "IdentityResponse"
	GmmMsg[nas.MsgTypeSecurityModeCommand] = "SecurityModeCommand"
	GmmMsg[nas.MsgTypeSecurityModeComplete] = "SecurityModeComplete"
	GmmMsg[nas.MsgTypeSecurityModeReject] = "SecurityModeReject"
	GmmMsg[nas.MsgTypeStatus5GMM] = "Status5GMM"
	GmmMsg[nas.MsgTypeNotification] = "Notification"
	GmmMsg[nas.MsgTypeNotificationResponse] = "NotificationResponse"
	GmmMsg[nas.MsgTypeULNASTransport] = "ULNASTransport"
	GmmMsg[nas.MsgTypeDLNASTransport] = "DLNASTransport"
}

func BuildGsmMessageTypeToMsgMap() {
	GsmMsg = make(map[uint8]string, 24)
	GsmMsg[nas.MsgTypePDUSessionEstablishmentRequest] = "PDUSessionEstablishmentRequest"
	GsmMsg[nas.MsgTypePDUSessionEstablishmentAccept] = "PDUSessionEstablishmentAccept"
	GsmMsg[nas.MsgTypePDUSessionEstablishmentReject] = "PDUSessionEstablishmentReject"
	GsmMsg[nas.MsgTypePDUSessionAuthenticationCommand] = "PDUSessionAuthenticationCommand"
	GsmMsg[nas.MsgTypePDUSessionAuthenticationComplete] = "PDUSessionAuthenticationComplete"
	GsmMsg[nas.MsgTypePDUSessionAuthenticationResult] = "PDUSessionAuthenticationResult"
	GsmMsg[nas.MsgTypePDUSessionModificationRequest] = "PDUSessionModificationRequest"
	GsmMsg[nas.MsgTypePDUSessionModificationReject] = "PDUSessionModificationReject"
	GsmMsg[nas.MsgTypePDUSessionModificationCommand] = "PDUSessionModificationCommand"
	GsmMsg[nas.MsgTypePDUSessionModificationComplete] = "PDUSessionModificationComplete"
	GsmMsg[nas.MsgTypePDUSessionModificationCommandReject] = "PDUSessionModificationCommandReject"
	GsmMsg[nas.MsgTypePDUSessionReleaseRequest] = "PDUSessionReleaseRequest"
	GsmMsg[nas.MsgTypePDUSessionReleaseReject] = "PDUSessionReleaseReject"
	GsmMsg[nas.MsgTypePDUSessionReleaseCommand] = "PDUSessionReleaseCommand"
	GsmMsg[nas.MsgTypePDUSessionReleaseComplete] = "PDUSessionReleaseComplete"
	GsmMsg[nas.MsgTypeStatus5GSM] = "Status5GSM"
}

// GmmName never returns an empty label.
func GmmName(msgType uint8) string {
	if name, ok := GmmMsg[msgType]; ok {
		return name
	}
	return fmt.Sprintf("UnknownGmm_%d", msgType)
}

func GsmName(msgType uint8) string {
	if name, ok := GsmMsg[msgType]; ok {
		return name
	}
	return fmt.Sprintf("UnknownGsm_%d", msgType)
}
