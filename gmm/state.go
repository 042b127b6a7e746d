// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
)

func (mm *NasMm) switchMmState(state context.MmState) {
	old := mm.ue.MmState
	mm.ue.MmState = state
	mm.onSwitchMmState(old, state)

	mm.out.SendToApp(taskmsgtypes.StateSwitch{
		UeId: mm.ueId,
		Kind: taskmsgtypes.StateKindMm,
		Old:  old.Main().String(),
		New:  state.Main().String(),
	})
	mm.out.SendToApp(taskmsgtypes.StateSwitch{
		UeId: mm.ueId,
		Kind: taskmsgtypes.StateKindMmSub,
		Old:  old.Sub().String(),
		New:  state.Sub().String(),
	})
	if old != state {
		mm.log.Infof("UE switches to state [%s]", state)
	}
	mm.out.TriggerMmCycle()
}

func (mm *NasMm) switchRmState(state context.RmState) {
	old := mm.ue.RmState
	mm.ue.RmState = state

	mm.out.SendToApp(taskmsgtypes.StateSwitch{
		UeId: mm.ueId,
		Kind: taskmsgtypes.StateKindRm,
		Old:  old.String(),
		New:  state.String(),
	})
	if old != state {
		mm.log.Infof("UE switches to state [%s]", state)
	}
	mm.out.TriggerMmCycle()
}

func (mm *NasMm) switchCmState(state context.CmState) {
	old := mm.ue.CmState
	mm.ue.CmState = state
	mm.onSwitchCmState(old, state)

	mm.out.SendToApp(taskmsgtypes.StateSwitch{
		UeId: mm.ueId,
		Kind: taskmsgtypes.StateKindCm,
		Old:  old.String(),
		New:  state.String(),
	})
	if old != state {
		mm.log.Infof("UE switches to state [%s]", state)
	}
	mm.out.TriggerMmCycle()
}

func (mm *NasMm) switchUState(state context.UState) {
	old := mm.ue.Usim.UState
	mm.ue.Usim.UState = state

	mm.out.SendToApp(taskmsgtypes.StateSwitch{
		UeId: mm.ueId,
		Kind: taskmsgtypes.StateKindU5,
		Old:  old.String(),
		New:  state.String(),
	})
	if old != state {
		mm.log.Infof("UE switches to state [%s]", state)
	}
	mm.out.TriggerMmCycle()
}

func (mm *NasMm) onSwitchMmState(old, state context.MmState) {
	// leaving MM-DEREGISTERED for a registration procedure starts from scratch
	if old.Is(context.MmMainDeregistered) &&
		!state.Is(context.MmMainDeregistered) && !state.Is(context.MmMainNull) {
		if mm.ue.Usim.DeleteSecurityContexts() {
			mm.log.Debugln("Deleting NAS security context")
		}
	}
}

func (mm *NasMm) onSwitchCmState(old, state context.CmState) {
	if old != context.CmConnected || state != context.CmIdle {
		return
	}

	switch mm.ue.MmState.Main() {
	case context.MmMainRegisteredInitiated:
		// the connection was lost before the registration completed
		if mm.ue.IsInitialOrEmergencyRegistration() {
			mm.switchRmState(context.RmDeregistered)
			mm.switchMmState(context.MmDeregisteredNa)
			mm.switchUState(context.U2NotUpdated)
			mm.handleAbnormalInitialRegFailure(mm.ue.LastRegistrationType)
		} else {
			mm.handleAbnormalMobilityRegFailure(mm.ue.LastRegistrationType)
		}
	case context.MmMainDeregisteredInitiated:
		if mm.ue.LastDeregCause == context.DeregCauseDisable5g {
			mm.switchMmState(context.MmNullNa)
		} else if !mm.ue.IsSwitchOffDeregistration() {
			mm.switchMmState(context.MmDeregisteredNa)
		}
		mm.switchRmState(context.RmDeregistered)
	}
}
