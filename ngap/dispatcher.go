// SPDX-FileCopyrightText: 2022-present Intel Corporation
// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package ngap

import (
	ctxt "context"
	"fmt"

	"github.com/omec-project/ngap"
	"github.com/omec-project/ngap/ngapType"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/metrics"
	"github.com/omec-project/uesim/msgtypes/ngapmsgtypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("uesim/ngap")

// Dispatch decodes one NGAP PDU received on the association of amf.
func (t *Task) Dispatch(ctx ctxt.Context, amf *context.AmfContext, msg []byte) {
	if len(msg) == 0 {
		amf.Log.Warnln("Empty NGAP message received")
		return
	}

	pdu, err := ngap.Decoder(msg)
	if err != nil {
		amf.Log.Errorf("NGAP decode error: %+v", err)
		metrics.IncrementNgapMsgStats("Unknown", metrics.DirectionIn, "failure", "decode error")
		return
	}

	t.DispatchNgapMsg(ctx, amf, pdu)
}

func (t *Task) DispatchNgapMsg(ctx ctxt.Context, amf *context.AmfContext, pdu *ngapType.NGAPPDU) {
	procName := ngapmsgtypes.ProcedureName(ngapmsgtypes.PduProcedure(pdu))

	_, span := tracer.Start(ctx, fmt.Sprintf("UESIM NGAP %s", procName),
		trace.WithAttributes(
			attribute.String("net.peer", fmt.Sprintf("%s:%d", amf.Address, amf.Port)),
			attribute.String("ngap.pdu_present", fmt.Sprintf("%d", pdu.Present)),
			attribute.String("ngap.procedureCode", procName),
		),
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	switch pdu.Present {
	case ngapType.NGAPPDUPresentInitiatingMessage:
		initiatingMessage := pdu.InitiatingMessage
		if initiatingMessage == nil {
			amf.Log.Errorln("Initiating Message is nil")
			return
		}
		metrics.IncrementNgapMsgStats(procName, metrics.DirectionIn, "", "")
		switch initiatingMessage.ProcedureCode.Value {
		case ngapType.ProcedureCodeDownlinkNASTransport:
			t.HandleDownlinkNasTransport(amf, pdu)
		case ngapType.ProcedureCodeInitialContextSetup:
			t.HandleInitialContextSetupRequest(amf, pdu)
		case ngapType.ProcedureCodeUEContextModification:
			t.HandleUEContextModificationRequest(amf, pdu)
		case ngapType.ProcedureCodeUEContextRelease:
			t.HandleUEContextReleaseCommand(amf, pdu)
		case ngapType.ProcedureCodeErrorIndication:
			t.HandleErrorIndication(amf, pdu)
		default:
			amf.Log.Warnf("Not implemented(choice: %d, procedureCode: %d)", pdu.Present,
				initiatingMessage.ProcedureCode.Value)
		}
	case ngapType.NGAPPDUPresentSuccessfulOutcome:
		successfulOutcome := pdu.SuccessfulOutcome
		if successfulOutcome == nil {
			amf.Log.Errorln("successful Outcome is nil")
			return
		}
		metrics.IncrementNgapMsgStats(procName, metrics.DirectionIn, "", "")
		switch successfulOutcome.ProcedureCode.Value {
		case ngapType.ProcedureCodeNGSetup:
			t.HandleNGSetupResponse(amf, pdu)
		default:
			amf.Log.Warnf("Not implemented(choice: %d, procedureCode: %d)", pdu.Present,
				successfulOutcome.ProcedureCode.Value)
		}
	case ngapType.NGAPPDUPresentUnsuccessfulOutcome:
		unsuccessfulOutcome := pdu.UnsuccessfulOutcome
		if unsuccessfulOutcome == nil {
			amf.Log.Errorln("unsuccessful Outcome is nil")
			return
		}
		metrics.IncrementNgapMsgStats(procName, metrics.DirectionIn, "", "")
		switch unsuccessfulOutcome.ProcedureCode.Value {
		case ngapType.ProcedureCodeNGSetup:
			t.HandleNGSetupFailure(amf, pdu)
		default:
			amf.Log.Warnf("Not implemented(choice: %d, procedureCode: %d)", pdu.Present,
				unsuccessfulOutcome.ProcedureCode.Value)
		}
	default:
		amf.Log.Warnf("Unknown NGAP PDU Present: %d", pdu.Present)
	}
}
