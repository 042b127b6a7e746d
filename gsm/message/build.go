// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package message

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/omec-project/nas"
	"github.com/omec-project/nas/nasConvert"
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/nas/nasType"
	"github.com/omec-project/openapi/models"
)

const (
	integrityRateFull   uint8 = 0xff
	integrityRate64kbps uint8 = 0x00
)

func newGsmMessage(msgType uint8) *nas.Message {
	m := nas.NewMessage()
	m.GsmMessage = nas.NewGsmMessage()
	m.GsmHeader.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSSessionManagementMessage)
	m.GsmHeader.SetMessageType(msgType)
	return m
}

func BuildPDUSessionEstablishmentRequest(psi, pti uint8, uplinkFullRate, downlinkFullRate bool) *nas.Message {
	m := newGsmMessage(nas.MsgTypePDUSessionEstablishmentRequest)

	request := nasMessage.NewPDUSessionEstablishmentRequest(0)
	request.ExtendedProtocolDiscriminator.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSSessionManagementMessage)
	request.SetMessageType(nas.MsgTypePDUSessionEstablishmentRequest)
	request.PDUSessionID.SetPDUSessionID(psi)
	request.PTI.SetPTI(pti)

	uplinkRate, downlinkRate := integrityRate64kbps, integrityRate64kbps
	if uplinkFullRate {
		uplinkRate = integrityRateFull
	}
	if downlinkFullRate {
		downlinkRate = integrityRateFull
	}
	request.IntegrityProtectionMaximumDataRate.
		SetMaximumDataRatePerUEForUserPlaneIntegrityProtectionForUpLink(uplinkRate)
	request.IntegrityProtectionMaximumDataRate.
		SetMaximumDataRatePerUEForUserPlaneIntegrityProtectionForDownLink(downlinkRate)

	request.PDUSessionType = nasType.NewPDUSessionType(nasMessage.PDUSessionEstablishmentRequestPDUSessionTypeType)
	request.PDUSessionType.SetPDUSessionTypeValue(nasMessage.PDUSessionTypeIPv4)

	request.SSCMode = nasType.NewSSCMode(nasMessage.PDUSessionEstablishmentRequestSSCModeType)
	request.SSCMode.SetSSCMode(1)

	// reflective QoS and multi-homed IPv6 PDU session are not supported
	request.Capability5GSM = nasType.NewCapability5GSM(nasMessage.PDUSessionEstablishmentRequestCapability5GSMType)
	request.Capability5GSM.SetLen(1)
	request.Capability5GSM.SetRqoS(0)
	request.Capability5GSM.SetMH6PDU(0)

	request.ExtendedProtocolConfigurationOptions = nasType.NewExtendedProtocolConfigurationOptions(
		nasMessage.PDUSessionEstablishmentRequestExtendedProtocolConfigurationOptionsType)
	protocolConfigurationOptions := nasConvert.NewProtocolConfigurationOptions()
	protocolConfigurationOptions.AddIPAddressAllocationViaNASSignallingUL()
	protocolConfigurationOptions.AddDNSServerIPv4AddressRequest()
	pcoContents := protocolConfigurationOptions.Marshal()
	request.ExtendedProtocolConfigurationOptions.SetLen(uint16(len(pcoContents)))
	request.ExtendedProtocolConfigurationOptions.SetExtendedProtocolConfigurationOptionsContents(pcoContents)

	m.GsmMessage.PDUSessionEstablishmentRequest = request
	return m
}

func BuildPDUSessionReleaseRequest(psi, pti, cause uint8) *nas.Message {
	m := newGsmMessage(nas.MsgTypePDUSessionReleaseRequest)

	request := nasMessage.NewPDUSessionReleaseRequest(0)
	request.ExtendedProtocolDiscriminator.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSSessionManagementMessage)
	request.SetMessageType(nas.MsgTypePDUSessionReleaseRequest)
	request.PDUSessionID.SetPDUSessionID(psi)
	request.PTI.SetPTI(pti)
	request.Cause5GSM = nasType.NewCause5GSM(nasMessage.PDUSessionReleaseRequestCause5GSMType)
	request.Cause5GSM.SetCauseValue(cause)

	m.GsmMessage.PDUSessionReleaseRequest = request
	return m
}

func BuildPDUSessionReleaseComplete(psi, pti uint8) *nas.Message {
	m := newGsmMessage(nas.MsgTypePDUSessionReleaseComplete)

	complete := nasMessage.NewPDUSessionReleaseComplete(0)
	complete.ExtendedProtocolDiscriminator.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSSessionManagementMessage)
	complete.SetMessageType(nas.MsgTypePDUSessionReleaseComplete)
	complete.PDUSessionID.SetPDUSessionID(psi)
	complete.PTI.SetPTI(pti)

	m.GsmMessage.PDUSessionReleaseComplete = complete
	return m
}

func BuildStatus5GSM(psi, pti, cause uint8) *nas.Message {
	m := newGsmMessage(nas.MsgTypeStatus5GSM)

	status := nasMessage.NewStatus5GSM(0)
	status.ExtendedProtocolDiscriminator.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSSessionManagementMessage)
	status.SetMessageType(nas.MsgTypeStatus5GSM)
	status.PDUSessionID.SetPDUSessionID(psi)
	status.PTI.SetPTI(pti)
	status.Cause5GSM.SetCauseValue(cause)

	m.GsmMessage.Status5GSM = status
	return m
}

// BuildULNASTransport carries an encoded 5GSM message to the network. The
// request type, DNN and S-NSSAI are only present for a session
// establishment; pass requestType zero to leave all three out.
func BuildULNASTransport(smPdu []byte, psi, requestType uint8, dnn string,
	sNssai *models.Snssai,
) (*nas.Message, error) {
	m := nas.NewMessage()
	m.GmmMessage = nas.NewGmmMessage()
	m.GmmHeader.SetMessageType(nas.MsgTypeULNASTransport)

	ulNasTransport := nasMessage.NewULNASTransport(0)
	ulNasTransport.SpareHalfOctetAndSecurityHeaderType.SetSecurityHeaderType(nas.SecurityHeaderTypePlainNas)
	ulNasTransport.SetMessageType(nas.MsgTypeULNASTransport)
	ulNasTransport.ExtendedProtocolDiscriminator.SetExtendedProtocolDiscriminator(nasMessage.Epd5GSMobilityManagementMessage)
	ulNasTransport.PduSessionID2Value = new(nasType.PduSessionID2Value)
	ulNasTransport.PduSessionID2Value.SetIei(nasMessage.ULNASTransportPduSessionID2ValueType)
	ulNasTransport.PduSessionID2Value.SetPduSessionID2Value(psi)

	if requestType != 0 {
		ulNasTransport.RequestType = new(nasType.RequestType)
		ulNasTransport.RequestType.SetIei(nasMessage.ULNASTransportRequestTypeType)
		ulNasTransport.RequestType.SetRequestTypeValue(requestType)

		if dnn != "" {
			ulNasTransport.DNN = new(nasType.DNN)
			ulNasTransport.DNN.SetIei(nasMessage.ULNASTransportDNNType)
			ulNasTransport.DNN.SetDNN([]uint8(dnn))
		}

		if sNssai != nil {
			ulNasTransport.SNSSAI = nasType.NewSNSSAI(nasMessage.ULNASTransportSNSSAIType)
			ulNasTransport.SNSSAI.SetSST(uint8(sNssai.Sst))
			if sNssai.Sd == "" {
				ulNasTransport.SNSSAI.SetLen(1)
			} else {
				sd, err := hex.DecodeString(sNssai.Sd)
				if err != nil || len(sd) != 3 {
					return nil, fmt.Errorf("invalid slice differentiator %q", sNssai.Sd)
				}
				var sdTemp [3]uint8
				copy(sdTemp[:], sd)
				ulNasTransport.SNSSAI.SetLen(4)
				ulNasTransport.SNSSAI.SetSD(sdTemp)
			}
		}
	}

	ulNasTransport.SpareHalfOctetAndPayloadContainerType.SetPayloadContainerType(nasMessage.PayloadContainerTypeN1SMInfo)
	ulNasTransport.PayloadContainer.SetLen(uint16(len(smPdu)))
	ulNasTransport.PayloadContainer.SetPayloadContainerContents(smPdu)

	m.GmmMessage.ULNASTransport = ulNasTransport
	return m, nil
}

// EncodeGsm returns the plain encoding of a 5GSM message.
func EncodeGsm(m *nas.Message) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := m.GsmMessageEncode(buf); err != nil {
		return nil, fmt.Errorf("encode 5GSM message error: %w", err)
	}
	return buf.Bytes(), nil
}
