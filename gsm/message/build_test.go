// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package message_test

import (
	"testing"

	"github.com/omec-project/nas"
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/openapi/models"
	"github.com/omec-project/uesim/gsm/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, b []byte) *nas.Message {
	m := nas.NewMessage()
	require.NoError(t, m.PlainNasDecode(&b))
	return m
}

func TestBuildPDUSessionEstablishmentRequest(t *testing.T) {
	b, err := message.EncodeGsm(message.BuildPDUSessionEstablishmentRequest(5, 3, true, false))
	require.NoError(t, err)

	m := decode(t, b)
	require.NotNil(t, m.GsmMessage)
	require.NotNil(t, m.GsmMessage.PDUSessionEstablishmentRequest)
	request := m.GsmMessage.PDUSessionEstablishmentRequest
	assert.Equal(t, uint8(5), request.PDUSessionID.GetPDUSessionID())
	assert.Equal(t, uint8(3), request.PTI.GetPTI())
	assert.Equal(t, uint8(0xff),
		request.IntegrityProtectionMaximumDataRate.GetMaximumDataRatePerUEForUserPlaneIntegrityProtectionForUpLink())
	assert.Equal(t, uint8(0x00),
		request.IntegrityProtectionMaximumDataRate.GetMaximumDataRatePerUEForUserPlaneIntegrityProtectionForDownLink())
	require.NotNil(t, request.PDUSessionType)
	assert.Equal(t, uint8(nasMessage.PDUSessionTypeIPv4), request.PDUSessionType.GetPDUSessionTypeValue())
	require.NotNil(t, request.SSCMode)
	assert.Equal(t, uint8(1), request.SSCMode.GetSSCMode())
	require.NotNil(t, request.ExtendedProtocolConfigurationOptions)
	assert.NotZero(t, request.ExtendedProtocolConfigurationOptions.GetLen())
}

func TestBuildStatus5GSM(t *testing.T) {
	b, err := message.EncodeGsm(message.BuildStatus5GSM(7, 0, nasMessage.Cause5GSMInvalidPTIValue))
	require.NoError(t, err)

	m := decode(t, b)
	require.NotNil(t, m.GsmMessage.Status5GSM)
	assert.Equal(t, uint8(7), m.GsmMessage.Status5GSM.PDUSessionID.GetPDUSessionID())
	assert.Equal(t, uint8(nasMessage.Cause5GSMInvalidPTIValue), m.GsmMessage.Status5GSM.Cause5GSM.GetCauseValue())
}

func TestBuildULNASTransport(t *testing.T) {
	smPdu, err := message.EncodeGsm(message.BuildPDUSessionReleaseComplete(2, 0))
	require.NoError(t, err)

	testCases := []struct {
		name        string
		requestType uint8
		dnn         string
		sNssai      *models.Snssai
		wantErr     bool
	}{
		{"establishment with slice", nasMessage.ULNASTransportRequestTypeInitialRequest, "internet",
			&models.Snssai{Sst: 1, Sd: "010203"}, false},
		{"sst only", nasMessage.ULNASTransportRequestTypeInitialRequest, "", &models.Snssai{Sst: 2}, false},
		{"no request type", 0, "internet", &models.Snssai{Sst: 1, Sd: "010203"}, false},
		{"bad sd", nasMessage.ULNASTransportRequestTypeInitialRequest, "", &models.Snssai{Sst: 1, Sd: "01"}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := message.BuildULNASTransport(smPdu, 2, tc.requestType, tc.dnn, tc.sNssai)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			b, err := msg.PlainNasEncode()
			require.NoError(t, err)

			ul := decode(t, b).GmmMessage.ULNASTransport
			require.NotNil(t, ul)
			assert.Equal(t, uint8(2), ul.PduSessionID2Value.GetPduSessionID2Value())
			assert.Equal(t, smPdu, ul.PayloadContainer.GetPayloadContainerContents())
			if tc.requestType == 0 {
				assert.Nil(t, ul.RequestType)
				assert.Nil(t, ul.DNN)
				assert.Nil(t, ul.SNSSAI)
				return
			}
			require.NotNil(t, ul.RequestType)
			assert.Equal(t, tc.requestType, ul.RequestType.GetRequestTypeValue())
			require.NotNil(t, ul.SNSSAI)
			assert.Equal(t, uint8(tc.sNssai.Sst), ul.SNSSAI.GetSST())
			if tc.dnn != "" {
				require.NotNil(t, ul.DNN)
				assert.Equal(t, []uint8(tc.dnn), ul.DNN.GetDNN())
			}
		})
	}
}
