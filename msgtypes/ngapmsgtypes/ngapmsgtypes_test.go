// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package ngapmsgtypes

import (
	"testing"

	"github.com/omec-project/ngap/ngapType"
	"github.com/stretchr/testify/assert"
)

func TestPduProcedure(t *testing.T) {
	pdu := &ngapType.NGAPPDU{Present: ngapType.NGAPPDUPresentSuccessfulOutcome}
	assert.Equal(t, int64(-1), PduProcedure(pdu))
	assert.Equal(t, "UnknownProcedureCode_-1", ProcedureName(PduProcedure(pdu)))

	pdu.SuccessfulOutcome = new(ngapType.SuccessfulOutcome)
	pdu.SuccessfulOutcome.ProcedureCode.Value = ngapType.ProcedureCodeNGSetup
	assert.Equal(t, "NGSetup", ProcedureName(PduProcedure(pdu)))

	pdu = &ngapType.NGAPPDU{Present: ngapType.NGAPPDUPresentInitiatingMessage}
	pdu.InitiatingMessage = new(ngapType.InitiatingMessage)
	pdu.InitiatingMessage.ProcedureCode.Value = ngapType.ProcedureCodeUEContextRelease
	assert.Equal(t, "UEContextRelease", ProcedureName(PduProcedure(pdu)))

	assert.Equal(t, -1, int(PduProcedure(&ngapType.NGAPPDU{})))
}
