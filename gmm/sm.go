// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"time"

	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
)

// plmnSearchInterval is the minimum gap between two PLMN search requests.
const plmnSearchInterval = 50 * time.Millisecond

// PerformMmCycle moves the UE forward from states that need no external
// event. The NAS task runs it whenever a cycle was triggered; running it
// again without any change in between sends nothing new.
func (mm *NasMm) PerformMmCycle() {
	state := mm.ue.MmState

	switch {
	case state.Is(context.MmMainNull):
		return
	case state == context.MmDeregisteredNa:
		if mm.switchToECallInactivityIfNeeded() {
			return
		}
		if mm.ue.Usim.Valid {
			if mm.ue.CmState == context.CmIdle {
				mm.switchMmState(context.MmDeregisteredPlmnSearch)
			} else {
				mm.switchMmState(context.MmDeregisteredNormalService)
			}
		} else {
			mm.switchMmState(context.MmDeregisteredNoSupi)
		}
		return
	case state.Sub() == context.MmSubPlmnSearch || state.Sub() == context.MmSubNoCellAvailable:
		now := mm.clock()
		if now.Sub(mm.ue.LastPlmnSearchTrigger) > plmnSearchInterval {
			mm.out.SendToRrc(taskmsgtypes.PlmnSearchRequest{UeId: mm.ueId})
			mm.ue.LastPlmnSearchTrigger = now
		}
		return
	case state == context.MmDeregisteredNormalService:
		if !mm.ue.Timers.T3346.IsRunning() {
			mm.sendInitialRegistration(false)
		}
		return
	case state.Is(context.MmMainRegistered):
		mm.startECallInactivityIfNeeded()
	}
}

// switchToECallInactivityIfNeeded applies to eCall only UEs that have been
// deregistered because of eCall inactivity.
func (mm *NasMm) switchToECallInactivityIfNeeded() bool {
	if !mm.ue.Config.EcallOnly {
		return false
	}
	if mm.ue.Timers.T3444.IsRunning() || mm.ue.Timers.T3445.IsRunning() {
		return false
	}
	if mm.ue.LastDeregCause != context.DeregCauseEcallInactivity {
		return false
	}
	mm.switchMmState(context.MmDeregisteredEcallInactive)
	return true
}

func (mm *NasMm) startECallInactivityIfNeeded() {
	if !mm.ue.Config.EcallOnly {
		return
	}
	if mm.ue.Timers.T3444.IsRunning() || mm.ue.Timers.T3445.IsRunning() {
		return
	}
	if mm.sm != nil && mm.sm.Sessions().HasEmergencySession() {
		return
	}
	mm.ue.Timers.T3444.Start(mm.clock())
}
