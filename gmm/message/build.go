// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package message

import (
	"encoding/hex"
	"fmt"

	"github.com/omec-project/nas"
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/nas/nasType"
	"github.com/omec-project/openapi/models"
	"github.com/omec-project/uesim/factory"
)

const (
	NgKsiNoKeyAvailable uint8 = 0x07

	// 5GS mobile identity type "no identity"
	MobileIdentityNoIdentity uint8 = 0x00

	AccessType3GPP uint8 = 0x01

	ServiceTypeSignalling uint8 = 0x00
	ServiceTypeData       uint8 = 0x01
)

func newGmmMessage(msgType uint8) *nas.Message {
	m := nas.NewMessage()
	m.GmmMessage = nas.NewGmmMessage()
	m.GmmHeader.SetMessageType(msgType)
	return m
}

// RegistrationParams carries what varies between the registration requests
// the UE sends.
type RegistrationParams struct {
	RegistrationType uint8
	FollowOnRequest  bool
	Tsc              uint8
	NgKsi            uint8
	MobileIdentity   nasType.MobileIdentity5GS
	Integrity        factory.AlgorithmSet
	Ciphering        factory.AlgorithmSet
	RequestedNssai   []models.Snssai
}

func BuildRegistrationRequest(params *RegistrationParams) (*nas.Message, error) {
	m := newGmmMessage(nas.MsgTypeRegistrationRequest)

	request := nasMessage.NewRegistrationRequest(0)
	request.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	request.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	request.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	request.RegistrationRequestMessageIdentity.SetMessageType(nas.MsgTypeRegistrationRequest)

	request.NgksiAndRegistrationType5GS.SetTSC(params.Tsc)
	request.NgksiAndRegistrationType5GS.SetNasKeySetIdentifiler(params.NgKsi)
	if params.FollowOnRequest {
		request.NgksiAndRegistrationType5GS.SetFOR(1)
	}
	request.NgksiAndRegistrationType5GS.SetRegistrationType5GS(params.RegistrationType)
	request.MobileIdentity5GS = params.MobileIdentity

	request.UESecurityCapability = BuildUeSecurityCapability(params.Integrity, params.Ciphering)

	if len(params.RequestedNssai) > 0 {
		contents, err := EncodeNssai(params.RequestedNssai)
		if err != nil {
			return nil, err
		}
		request.RequestedNSSAI = nasType.NewRequestedNSSAI(nasMessage.RegistrationRequestRequestedNSSAIType)
		request.RequestedNSSAI.SetLen(uint8(len(contents)))
		request.RequestedNSSAI.SetSNSSAIValue(contents)
	}

	m.GmmMessage.RegistrationRequest = request
	return m, nil
}

// BuildUeSecurityCapability sets the null algorithms plus the configured
// 128-bit ones.
func BuildUeSecurityCapability(integrity, ciphering factory.AlgorithmSet) *nasType.UESecurityCapability {
	capability := nasType.NewUESecurityCapability(nasMessage.RegistrationRequestUESecurityCapabilityType)
	capability.SetLen(2)
	capability.Buffer = []uint8{0x00, 0x00}

	capability.SetEA0_5G(1)
	capability.SetIA0_5G(1)
	if ciphering.Alg1 {
		capability.SetEA1_128_5G(1)
	}
	if ciphering.Alg2 {
		capability.SetEA2_128_5G(1)
	}
	if ciphering.Alg3 {
		capability.SetEA3_128_5G(1)
	}
	if integrity.Alg1 {
		capability.SetIA1_128_5G(1)
	}
	if integrity.Alg2 {
		capability.SetIA2_128_5G(1)
	}
	if integrity.Alg3 {
		capability.SetIA3_128_5G(1)
	}
	return capability
}

// EncodeNssai encodes a list of S-NSSAI values, each prefixed by its length.
func EncodeNssai(list []models.Snssai) ([]uint8, error) {
	var buf []uint8
	for _, snssai := range list {
		if snssai.Sd == "" {
			buf = append(buf, 1, uint8(snssai.Sst))
			continue
		}
		sd, err := hex.DecodeString(snssai.Sd)
		if err != nil || len(sd) != 3 {
			return nil, fmt.Errorf("invalid sd [%s]", snssai.Sd)
		}
		buf = append(buf, 4, uint8(snssai.Sst))
		buf = append(buf, sd...)
	}
	return buf, nil
}

func BuildRegistrationComplete() *nas.Message {
	m := newGmmMessage(nas.MsgTypeRegistrationComplete)

	complete := nasMessage.NewRegistrationComplete(0)
	complete.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	complete.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	complete.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	complete.RegistrationCompleteMessageIdentity.SetMessageType(nas.MsgTypeRegistrationComplete)

	m.GmmMessage.RegistrationComplete = complete
	return m
}

func BuildDeregistrationRequest(switchOff bool, tsc, ngKsi uint8, identity nasType.MobileIdentity5GS) *nas.Message {
	m := newGmmMessage(nas.MsgTypeDeregistrationRequestUEOriginatingDeregistration)

	request := nasMessage.NewDeregistrationRequestUEOriginatingDeregistration(0)
	request.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	request.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	request.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	request.DeregistrationRequestMessageIdentity.SetMessageType(
		nas.MsgTypeDeregistrationRequestUEOriginatingDeregistration)

	request.NgksiAndDeregistrationType.SetAccessType(AccessType3GPP)
	if switchOff {
		request.NgksiAndDeregistrationType.SetSwitchOff(1)
	}
	request.NgksiAndDeregistrationType.SetReRegistrationRequired(0)
	request.NgksiAndDeregistrationType.SetTSC(tsc)
	request.NgksiAndDeregistrationType.SetNasKeySetIdentifiler(ngKsi)
	request.MobileIdentity5GS = identity

	m.GmmMessage.DeregistrationRequestUEOriginatingDeregistration = request
	return m
}

func BuildDeregistrationAccept() *nas.Message {
	m := newGmmMessage(nas.MsgTypeDeregistrationAcceptUETerminatedDeregistration)

	accept := nasMessage.NewDeregistrationAcceptUETerminatedDeregistration(0)
	accept.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	accept.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	accept.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	accept.DeregistrationAcceptMessageIdentity.SetMessageType(
		nas.MsgTypeDeregistrationAcceptUETerminatedDeregistration)

	m.GmmMessage.DeregistrationAcceptUETerminatedDeregistration = accept
	return m
}

func BuildServiceRequest(serviceType, tsc, ngKsi uint8, sTmsi [7]uint8) *nas.Message {
	m := newGmmMessage(nas.MsgTypeServiceRequest)

	request := nasMessage.NewServiceRequest(0)
	request.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	request.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	request.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	request.ServiceRequestMessageIdentity.SetMessageType(nas.MsgTypeServiceRequest)
	request.ServiceTypeAndNgksi.SetServiceTypeValue(serviceType)
	request.ServiceTypeAndNgksi.SetTSC(tsc)
	request.ServiceTypeAndNgksi.SetNasKeySetIdentifiler(ngKsi)
	request.TMSI5GS.SetLen(uint16(len(sTmsi)))
	request.TMSI5GS.Octet = sTmsi

	m.GmmMessage.ServiceRequest = request
	return m
}

func BuildAuthenticationResponse(resStar []uint8) *nas.Message {
	m := newGmmMessage(nas.MsgTypeAuthenticationResponse)

	response := nasMessage.NewAuthenticationResponse(0)
	response.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	response.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	response.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	response.AuthenticationResponseMessageIdentity.SetMessageType(nas.MsgTypeAuthenticationResponse)

	response.AuthenticationResponseParameter = nasType.NewAuthenticationResponseParameter(
		nasMessage.AuthenticationResponseAuthenticationResponseParameterType)
	response.AuthenticationResponseParameter.SetLen(uint8(len(resStar)))
	copy(response.AuthenticationResponseParameter.Octet[:], resStar)

	m.GmmMessage.AuthenticationResponse = response
	return m
}

// BuildAuthenticationFailure carries AUTS only for a synch failure.
func BuildAuthenticationFailure(cause uint8, auts []uint8) *nas.Message {
	m := newGmmMessage(nas.MsgTypeAuthenticationFailure)

	failure := nasMessage.NewAuthenticationFailure(0)
	failure.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	failure.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	failure.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	failure.AuthenticationFailureMessageIdentity.SetMessageType(nas.MsgTypeAuthenticationFailure)
	failure.Cause5GMM.SetCauseValue(cause)

	if len(auts) > 0 {
		failure.AuthenticationFailureParameter = nasType.NewAuthenticationFailureParameter(
			nasMessage.AuthenticationFailureAuthenticationFailureParameterType)
		failure.AuthenticationFailureParameter.SetLen(uint8(len(auts)))
		copy(failure.AuthenticationFailureParameter.Octet[:], auts)
	}

	m.GmmMessage.AuthenticationFailure = failure
	return m
}

func BuildIdentityResponse(identity []uint8) *nas.Message {
	m := newGmmMessage(nas.MsgTypeIdentityResponse)

	response := nasMessage.NewIdentityResponse(0)
	response.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	response.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	response.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	response.IdentityResponseMessageIdentity.SetMessageType(nas.MsgTypeIdentityResponse)
	response.MobileIdentity = nasType.MobileIdentity{
		Len:    uint16(len(identity)),
		Buffer: identity,
	}

	m.GmmMessage.IdentityResponse = response
	return m
}

// BuildSecurityModeComplete adds the IMEISV and the NAS message container
// only when given.
func BuildSecurityModeComplete(imeisv []uint8, container []uint8) *nas.Message {
	m := newGmmMessage(nas.MsgTypeSecurityModeComplete)

	complete := nasMessage.NewSecurityModeComplete(0)
	complete.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	complete.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	complete.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	complete.SecurityModeCompleteMessageIdentity.SetMessageType(nas.MsgTypeSecurityModeComplete)

	if len(imeisv) > 0 {
		complete.IMEISV = nasType.NewIMEISV(nasMessage.SecurityModeCompleteIMEISVType)
		complete.IMEISV.SetLen(uint16(len(imeisv)))
		copy(complete.IMEISV.Octet[:], imeisv)
	}

	if container != nil {
		complete.NASMessageContainer = nasType.NewNASMessageContainer(
			nasMessage.SecurityModeCompleteNASMessageContainerType)
		complete.NASMessageContainer.SetLen(uint16(len(container)))
		complete.NASMessageContainer.SetNASMessageContainerContents(container)
	}

	m.GmmMessage.SecurityModeComplete = complete
	return m
}

func BuildSecurityModeReject(cause uint8) *nas.Message {
	m := newGmmMessage(nas.MsgTypeSecurityModeReject)

	reject := nasMessage.NewSecurityModeReject(0)
	reject.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	reject.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	reject.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	reject.SecurityModeRejectMessageIdentity.SetMessageType(nas.MsgTypeSecurityModeReject)
	reject.Cause5GMM.SetCauseValue(cause)

	m.GmmMessage.SecurityModeReject = reject
	return m
}

func BuildConfigurationUpdateComplete() *nas.Message {
	m := newGmmMessage(nas.MsgTypeConfigurationUpdateComplete)

	complete := nasMessage.NewConfigurationUpdateComplete(0)
	complete.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	complete.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	complete.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	complete.ConfigurationUpdateCompleteMessageIdentity.SetMessageType(nas.MsgTypeConfigurationUpdateComplete)

	m.GmmMessage.ConfigurationUpdateComplete = complete
	return m
}

func BuildStatus5GMM(cause uint8) *nas.Message {
	m := newGmmMessage(nas.MsgTypeStatus5GMM)

	status := nasMessage.NewStatus5GMM(0)
	status.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	status.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	status.SpareHalfOctetAndSecurityHeaderType.SetSpareHalfOctet(0)
	status.STATUSMessageIdentity5GMM.SetMessageType(nas.MsgTypeStatus5GMM)
	status.Cause5GMM.SetCauseValue(cause)

	m.GmmMessage.Status5GMM = status
	return m
}

// EncodeGmm returns the plain encoding of an MM message, as carried in a NAS
// message container.
func EncodeGmm(m *nas.Message) ([]byte, error) {
	b, err := m.PlainNasEncode()
	if err != nil {
		return nil, fmt.Errorf("encode %d: %w", m.GmmHeader.GetMessageType(), err)
	}
	return b, nil
}
