// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/nas/nasType"
	"github.com/omec-project/openapi/models"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/gmm/message"
	"github.com/omec-project/uesim/util"
)

func (mm *NasMm) sendInitialRegistration(emergency bool) {
	if mm.ue.MmState.Is(context.MmMainRegisteredInitiated) {
		return
	}
	mm.log.Infoln("Sending Initial Registration")

	// clears any security context left from an earlier registration
	mm.switchMmState(context.MmRegisteredInitiatedNa)

	registrationType := uint8(nasMessage.RegistrationType5GSInitialRegistration)
	if emergency {
		registrationType = nasMessage.RegistrationType5GSEmergencyRegistration
	}
	mm.sendRegistration(registrationType, true)
}

// sendMobilityRegistration starts a mobility or periodic registration update.
func (mm *NasMm) sendMobilityRegistration(registrationType uint8) {
	if mm.ue.MmState.Is(context.MmMainRegisteredInitiated) {
		return
	}
	if mm.ue.Timers.T3346.IsRunning() {
		mm.log.Warnln("Registration update is not allowed while T3346 is running")
		return
	}
	mm.log.Infof("Sending Mobility Registration [%d]", registrationType)

	mm.switchMmState(context.MmRegisteredInitiatedNa)
	mm.sendRegistration(registrationType, false)
}

func (mm *NasMm) sendRegistration(registrationType uint8, followOn bool) {
	tsc := uint8(nasMessage.TypeOfSecurityContextFlagNative)
	ngKsi := message.NgKsiNoKeyAvailable
	if current := mm.ue.Usim.CurrentNsCtx; current != nil {
		tsc = current.Tsc
		ngKsi = current.NgKsi
	}

	request, err := message.BuildRegistrationRequest(&message.RegistrationParams{
		RegistrationType: registrationType,
		FollowOnRequest:  followOn,
		Tsc:              tsc,
		NgKsi:            ngKsi,
		MobileIdentity:   mm.getOrGeneratePreferredId(),
		Integrity:        mm.ue.Config.Integrity,
		Ciphering:        mm.ue.Config.Ciphering,
		RequestedNssai:   mm.requestedNssai(),
	})
	if err != nil {
		mm.log.Errorf("Build Registration Request error: %+v", err)
		return
	}

	mm.ue.LastRegistrationRequest = request
	mm.ue.LastRegistrationType = registrationType
	mm.ue.RegisteredForEmergency = false

	now := mm.clock()
	mm.ue.Timers.T3510.Start(now)
	mm.ue.Timers.T3502.Stop()
	mm.ue.Timers.T3511.Stop()

	mm.SendNasMessage(request)
}

// requestedNssai prefers the configured NSSAI and falls back to the slices
// of the configured sessions.
func (mm *NasMm) requestedNssai() []models.Snssai {
	if len(mm.ue.Config.ConfiguredNssai) > 0 {
		return mm.ue.Config.ConfiguredNssai
	}
	var list []models.Snssai
	seen := make(map[models.Snssai]bool)
	for _, session := range mm.ue.Config.Sessions {
		if session.Slice == nil || seen[*session.Slice] {
			continue
		}
		seen[*session.Slice] = true
		list = append(list, *session.Slice)
	}
	return list
}

func (mm *NasMm) receiveRegistrationAccept(msg *nasMessage.RegistrationAccept) {
	if !mm.ue.MmState.Is(context.MmMainRegisteredInitiated) {
		mm.log.Warnln("Registration Accept ignored since the MM state is not MM_REGISTERED_INITIATED")
		mm.sendMmStatus(CauseMessageTypeNotCompatibleWithState)
		return
	}

	mm.ue.Timers.T3510.Stop()

	if msg.GUTI5G != nil {
		guti := *msg.GUTI5G
		mm.ue.Usim.StoredGuti = &guti
		// a GUTI makes the stored SUCI obsolete
		mm.ue.Timers.T3519.Stop()
		mm.ue.Usim.StoredSuci = nil
	}

	if msg.T3502Value != nil {
		if d, ok := util.GprsTimer2ToDuration(msg.T3502Value.Octet); ok {
			mm.ue.Timers.T3502 = util.NewNasTimer(3502, d)
		}
	}

	mm.ue.RegAttemptCounter = 0
	mm.ue.RegisteredForEmergency =
		mm.ue.LastRegistrationType == nasMessage.RegistrationType5GSEmergencyRegistration

	initial := mm.ue.IsInitialOrEmergencyRegistration()

	mm.switchUState(context.U1Updated)
	mm.switchRmState(context.RmRegistered)
	mm.switchMmState(context.MmRegisteredNormalService)

	if msg.GUTI5G != nil {
		mm.SendNasMessage(message.BuildRegistrationComplete())
	}

	if initial {
		mm.log.Infof("Initial Registration is successful")
	} else {
		mm.log.Infof("Mobility Registration is successful")
	}

	mm.startT3512(msg.T3512Value)

	if initial && mm.sm != nil {
		mm.sm.EstablishInitialSessions()
	}
}

// startT3512 runs the periodic registration timer, unless the network has
// deactivated it or the UE registered for emergency services.
func (mm *NasMm) startT3512(value *nasType.T3512Value) {
	timer := mm.ue.Timers.T3512
	if value != nil {
		d, ok := util.GprsTimer3ToDuration(value.Octet)
		if !ok || d == 0 {
			timer.Stop()
			return
		}
		mm.ue.Timers.T3512 = util.NewNasTimer(3512, d)
		timer = mm.ue.Timers.T3512
	}
	if mm.ue.RegisteredForEmergency {
		timer.Stop()
		return
	}
	timer.Start(mm.clock())
}

func (mm *NasMm) receiveRegistrationReject(msg *nasMessage.RegistrationReject) {
	cause := msg.Cause5GMM.GetCauseValue()
	mm.log.Errorf("Registration rejected with cause [%d]", cause)

	if !mm.ue.MmState.Is(context.MmMainRegisteredInitiated) {
		mm.log.Warnln("Registration Reject ignored since the MM state is not MM_REGISTERED_INITIATED")
		mm.sendMmStatus(CauseMessageTypeNotCompatibleWithState)
		return
	}

	regType := mm.ue.LastRegistrationType
	initial := mm.ue.IsInitialOrEmergencyRegistration()
	now := mm.clock()

	mm.ue.Timers.T3510.Stop()

	switch cause {
	case CauseCongestion:
		if msg.T3346Value != nil {
			if d, ok := util.GprsTimer2ToDuration(msg.T3346Value.Octet); ok && d > 0 {
				mm.ue.Timers.T3346.StartWithInterval(now, d)
			}
		}
		if initial {
			mm.switchMmState(context.MmDeregisteredAttemptingRegistration)
		} else {
			mm.switchMmState(context.MmRegisteredAttemptingRegistrationUpdate)
		}
	case CauseIllegalUe, CauseIllegalMe, Cause5gsServicesNotAllowed:
		mm.switchUState(context.U3RoamingNotAllowed)
		mm.ue.Usim.StoredGuti = nil
		mm.ue.Usim.DeleteSecurityContexts()
		mm.ue.Usim.Valid = false
		mm.switchRmState(context.RmDeregistered)
		mm.switchMmState(context.MmDeregisteredNa)
	case CausePlmnNotAllowed:
		mm.switchUState(context.U3RoamingNotAllowed)
		mm.ue.Usim.StoredGuti = nil
		mm.ue.Usim.DeleteSecurityContexts()
		mm.ue.RegAttemptCounter = 0
		mm.switchRmState(context.RmDeregistered)
		mm.switchMmState(context.MmDeregisteredPlmnSearch)
	case CauseTrackingAreaNotAllowed, CauseRoamingNotAllowedInTa, CauseNoSuitableCellsInTa:
		mm.switchUState(context.U3RoamingNotAllowed)
		mm.ue.RegAttemptCounter = 0
		mm.switchRmState(context.RmDeregistered)
		mm.switchMmState(context.MmDeregisteredLimitedService)
	default:
		if initial {
			mm.switchRmState(context.RmDeregistered)
			mm.switchMmState(context.MmDeregisteredNa)
			mm.handleAbnormalInitialRegFailure(regType)
		} else {
			mm.handleAbnormalMobilityRegFailure(regType)
		}
	}
}

func (mm *NasMm) handleAbnormalInitialRegFailure(regType uint8) {
	now := mm.clock()
	mm.ue.Timers.T3510.Stop()

	if regType == nasMessage.RegistrationType5GSEmergencyRegistration {
		mm.switchMmState(context.MmDeregisteredLimitedService)
		return
	}

	mm.ue.RegAttemptCounter++
	if mm.ue.RegAttemptCounter < context.MaxRegAttemptCounter {
		mm.ue.Timers.T3511.Start(now)
		mm.switchMmState(context.MmDeregisteredAttemptingRegistration)
		return
	}

	mm.log.Warnf("Registration attempt counter reached [%d]", mm.ue.RegAttemptCounter)
	mm.ue.Usim.StoredGuti = nil
	mm.ue.Usim.DeleteSecurityContexts()
	mm.switchUState(context.U2NotUpdated)
	mm.ue.Timers.T3502.Start(now)
	mm.switchMmState(context.MmDeregisteredAttemptingRegistration)
}

func (mm *NasMm) handleAbnormalMobilityRegFailure(regType uint8) {
	now := mm.clock()
	mm.ue.Timers.T3510.Stop()

	mm.ue.RegAttemptCounter++
	if mm.ue.RegAttemptCounter < context.MaxRegAttemptCounter {
		mm.ue.Timers.T3511.Start(now)
	} else {
		mm.log.Warnf("Registration attempt counter reached [%d]", mm.ue.RegAttemptCounter)
		mm.switchUState(context.U2NotUpdated)
		mm.ue.Timers.T3502.Start(now)
	}
	mm.log.Debugf("Mobility registration [%d] failed", regType)
	mm.switchMmState(context.MmRegisteredAttemptingRegistrationUpdate)
}
