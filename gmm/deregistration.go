// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/gmm/message"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/omec-project/uesim/util"
)

// SendDeregistration starts a UE originating de-registration. A switch-off
// de-registration leaves the UE in MM-NULL without waiting for the network.
func (mm *NasMm) SendDeregistration(cause context.DeregCause) {
	state := mm.ue.MmState
	if !state.Is(context.MmMainRegistered) && !state.Is(context.MmMainRegisteredInitiated) &&
		!state.Is(context.MmMainServiceRequestInitiated) {
		mm.log.Warnf("De-registration [%s] requested in state [%s], nothing to signal", cause, state)
		if cause == context.DeregCauseDisable5g {
			mm.switchMmState(context.MmNullNa)
		}
		return
	}
	mm.log.Infof("Starting de-registration procedure due to [%s]", cause)

	switchOff := cause == context.DeregCauseSwitchOff
	tsc := uint8(nasMessage.TypeOfSecurityContextFlagNative)
	ngKsi := message.NgKsiNoKeyAvailable
	if current := mm.ue.Usim.CurrentNsCtx; current != nil {
		tsc = current.Tsc
		ngKsi = current.NgKsi
	}

	request := message.BuildDeregistrationRequest(switchOff, tsc, ngKsi, mm.getOrGeneratePreferredId())
	mm.ue.LastDeregistrationRequest = request
	mm.ue.LastDeregCause = cause

	if mm.sm != nil {
		mm.sm.LocalReleaseAll()
	}
	mm.ue.Timers.T3512.Stop()
	mm.ue.Timers.T3510.Stop()

	mm.SendNasMessage(request)

	if switchOff {
		mm.switchRmState(context.RmDeregistered)
		mm.switchMmState(context.MmNullNa)
		mm.out.SendToRrc(taskmsgtypes.LocalReleaseConnection{UeId: mm.ueId})
		return
	}

	mm.ue.Timers.T3521.Stop()
	mm.ue.Timers.T3521.Start(mm.clock())
	mm.switchMmState(context.MmDeregisteredInitiatedNa)
}

func (mm *NasMm) receiveDeregistrationAccept(msg *nasMessage.DeregistrationAcceptUEOriginatingDeregistration) {
	if !mm.ue.MmState.Is(context.MmMainDeregisteredInitiated) {
		mm.log.Warnln("De-registration Accept ignored since the MM state is not MM_DEREGISTERED_INITIATED")
		mm.sendMmStatus(CauseMessageTypeNotCompatibleWithState)
		return
	}

	mm.ue.Timers.T3521.Stop()
	mm.switchRmState(context.RmDeregistered)

	if mm.ue.LastDeregCause == context.DeregCauseDisable5g {
		mm.switchMmState(context.MmNullNa)
	} else {
		mm.switchMmState(context.MmDeregisteredNa)
	}
	mm.log.Infoln("De-registration is successful")
}

// receiveDeregistrationRequest handles the network initiated
// de-registration.
func (mm *NasMm) receiveDeregistrationRequest(msg *nasMessage.DeregistrationRequestUETerminatedDeregistration) {
	mm.log.Infoln("Network initiated de-registration request received")

	reRegistration := msg.SpareHalfOctetAndDeregistrationType.GetReRegistrationRequired() == 1

	if msg.T3346Value != nil {
		if d, ok := util.GprsTimer2ToDuration(msg.T3346Value.Octet); ok && d > 0 {
			mm.ue.Timers.T3346.StartWithInterval(mm.clock(), d)
		}
	}

	if msg.Cause5GMM != nil {
		cause := msg.Cause5GMM.GetCauseValue()
		mm.log.Warnf("De-registration cause [%d]", cause)
		switch cause {
		case CauseIllegalUe, CauseIllegalMe, Cause5gsServicesNotAllowed:
			mm.switchUState(context.U3RoamingNotAllowed)
			mm.ue.Usim.StoredGuti = nil
			mm.ue.Usim.DeleteSecurityContexts()
			mm.ue.Usim.Valid = false
		case CausePlmnNotAllowed, CauseTrackingAreaNotAllowed, CauseRoamingNotAllowedInTa:
			mm.switchUState(context.U3RoamingNotAllowed)
			mm.ue.Usim.StoredGuti = nil
			mm.ue.Usim.DeleteSecurityContexts()
		}
	}

	if mm.sm != nil {
		mm.sm.LocalReleaseAll()
	}
	mm.ue.Timers.T3512.Stop()
	mm.ue.Timers.T3521.Stop()

	mm.SendNasMessage(message.BuildDeregistrationAccept())

	mm.switchRmState(context.RmDeregistered)
	mm.switchMmState(context.MmDeregisteredNa)

	if reRegistration {
		mm.log.Infoln("Re-registration required by the network")
		mm.ue.Usim.DeleteSecurityContexts()
	}
}
