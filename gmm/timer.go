// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"time"

	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/omec-project/uesim/util"
)

// PerformTick handles every MM timer that expired by now.
func (mm *NasMm) PerformTick(now time.Time) {
	for _, timer := range mm.ue.Timers.All() {
		if timer.PerformTick(now) {
			mm.onTimerExpire(timer, now)
		}
	}
}

func (mm *NasMm) onTimerExpire(timer *util.NasTimer, now time.Time) {
	mm.log.Debugf("NAS timer[%d] expired [%d]", timer.Code(), timer.ExpiryCount())
	state := mm.ue.MmState

	switch timer.Code() {
	case 3346, 3502, 3511:
		switch state {
		case context.MmDeregisteredAttemptingRegistration:
			mm.switchMmState(context.MmDeregisteredNormalService)
		case context.MmRegisteredAttemptingRegistrationUpdate:
			mm.sendMobilityRegistration(nasMessage.RegistrationType5GSMobilityRegistrationUpdating)
		}
	case 3510:
		if !state.Is(context.MmMainRegisteredInitiated) {
			return
		}
		mm.log.Warnln("Registration procedure timed out")
		mm.out.SendToRrc(taskmsgtypes.LocalReleaseConnection{UeId: mm.ueId})
		if mm.ue.IsInitialOrEmergencyRegistration() {
			mm.switchRmState(context.RmDeregistered)
			mm.switchMmState(context.MmDeregisteredNa)
			mm.handleAbnormalInitialRegFailure(mm.ue.LastRegistrationType)
		} else {
			mm.handleAbnormalMobilityRegFailure(mm.ue.LastRegistrationType)
		}
	case 3512:
		if state == context.MmRegisteredNormalService {
			mm.sendMobilityRegistration(nasMessage.RegistrationType5GSPeriodicRegistrationUpdating)
		} else {
			mm.log.Warnf("Periodic registration is postponed in state [%s]", state)
		}
	case 3517:
		if !state.Is(context.MmMainServiceRequestInitiated) {
			return
		}
		mm.log.Warnln("Service Request procedure timed out")
		mm.switchMmState(context.MmRegisteredNormalService)
		mm.out.SendToRrc(taskmsgtypes.LocalReleaseConnection{UeId: mm.ueId})
	case 3519:
		mm.ue.Usim.StoredSuci = nil
	case 3520:
		mm.log.Warnln("Network failed the authentication check")
		mm.out.SendToRrc(taskmsgtypes.LocalReleaseConnection{UeId: mm.ueId})
	case 3521:
		mm.onT3521Expire(timer, now)
	case 3444, 3445:
		if mm.ue.Config.EcallOnly && state.Is(context.MmMainRegistered) {
			mm.SendDeregistration(context.DeregCauseEcallInactivity)
		}
	}
}

func (mm *NasMm) onT3521Expire(timer *util.NasTimer, now time.Time) {
	if !mm.ue.MmState.Is(context.MmMainDeregisteredInitiated) {
		return
	}
	if timer.ExpiryCount() <= context.MaxT3521Retransmission && mm.ue.LastDeregistrationRequest != nil {
		mm.log.Warnf("Retransmitting De-registration Request [%d]", timer.ExpiryCount())
		mm.SendNasMessage(mm.ue.LastDeregistrationRequest)
		timer.Start(now)
		return
	}

	mm.log.Errorln("De-registration procedure aborted, performing local de-registration")
	timer.Stop()
	mm.switchRmState(context.RmDeregistered)
	if mm.ue.LastDeregCause == context.DeregCauseDisable5g {
		mm.switchMmState(context.MmNullNa)
	} else {
		mm.switchMmState(context.MmDeregisteredNa)
	}
}
