// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gsm

import (
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/util/fsm"
)

const (
	EstablishmentRequestEvent fsm.EventType = "Establishment Request"
	EstablishmentAcceptEvent  fsm.EventType = "Establishment Accept"
	EstablishmentRejectEvent  fsm.EventType = "Establishment Reject"
	ReleaseRequestEvent       fsm.EventType = "Release Request"
	ReleaseCommandEvent       fsm.EventType = "Release Command"
	ReleaseRejectEvent        fsm.EventType = "Release Reject"
	LocalReleaseEvent         fsm.EventType = "Local Release"
)

const (
	ArgNasSm      string = "NAS SM"
	ArgPduSession string = "PDU Session"
)

var transitions = fsm.Transitions{
	{Event: EstablishmentRequestEvent, From: context.PsInactive, To: context.PsActivePending},
	{Event: EstablishmentAcceptEvent, From: context.PsActivePending, To: context.PsActive},
	{Event: EstablishmentRejectEvent, From: context.PsActivePending, To: context.PsInactive},
	{Event: ReleaseRequestEvent, From: context.PsActive, To: context.PsInactivePending},
	{Event: ReleaseRejectEvent, From: context.PsInactivePending, To: context.PsActive},
	{Event: ReleaseCommandEvent, From: context.PsActive, To: context.PsInactive},
	{Event: ReleaseCommandEvent, From: context.PsInactivePending, To: context.PsInactive},
	{Event: LocalReleaseEvent, From: context.PsActivePending, To: context.PsInactive},
	{Event: LocalReleaseEvent, From: context.PsActive, To: context.PsInactive},
	{Event: LocalReleaseEvent, From: context.PsInactivePending, To: context.PsInactive},
}

var callbacks = fsm.Callbacks{
	context.PsInactive:        Inactive,
	context.PsActivePending:   ActivePending,
	context.PsActive:          Active,
	context.PsInactivePending: InactivePending,
}

// GsmFSM drives every PDU session of the UE.
var GsmFSM *fsm.FSM

func init() {
	if f, err := fsm.NewFSM(transitions, callbacks); err != nil {
		logger.GsmLog.Errorf("Initialize Gsm FSM Error: %+v", err)
	} else {
		GsmFSM = f
	}
}

func Inactive(state *fsm.State, event fsm.EventType, args fsm.ArgsType) {
	if event == fsm.EntryEvent {
		sm := args[ArgNasSm].(*NasSm)
		ps := args[ArgPduSession].(*context.PduSession)
		logger.GsmLog.Debugf("PSI[%d] is inactive", ps.Psi)
		sm.notifyReleased(ps)
	}
}

func ActivePending(state *fsm.State, event fsm.EventType, args fsm.ArgsType) {
	if event == fsm.EntryEvent {
		ps := args[ArgPduSession].(*context.PduSession)
		logger.GsmLog.Debugf("PSI[%d] establishment pending", ps.Psi)
	}
}

func Active(state *fsm.State, event fsm.EventType, args fsm.ArgsType) {
	if event == fsm.EntryEvent {
		sm := args[ArgNasSm].(*NasSm)
		ps := args[ArgPduSession].(*context.PduSession)
		sm.notifyEstablished(ps)
	}
}

func InactivePending(state *fsm.State, event fsm.EventType, args fsm.ArgsType) {
	if event == fsm.EntryEvent {
		ps := args[ArgPduSession].(*context.PduSession)
		logger.GsmLog.Debugf("PSI[%d] release pending", ps.Psi)
	}
}
