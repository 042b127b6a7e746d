// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/nas/nasType"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/gmm/message"
	"github.com/omec-project/uesim/util"
)

// sTmsiFromGuti keeps AMF set id, AMF pointer and 5G-TMSI of the GUTI.
func sTmsiFromGuti(guti *nasType.GUTI5G) [7]uint8 {
	return [7]uint8{
		0xf0 | nasMessage.MobileIdentity5GSType5gSTmsi,
		guti.Octet[5], guti.Octet[6],
		guti.Octet[7], guti.Octet[8], guti.Octet[9], guti.Octet[10],
	}
}

// SendServiceRequest moves a registered UE in CM-IDLE back to CM-CONNECTED.
func (mm *NasMm) SendServiceRequest(serviceType uint8) {
	if !mm.ue.MmState.Is(context.MmMainRegistered) {
		mm.log.Warnf("Service Request is not allowed in state [%s]", mm.ue.MmState)
		return
	}
	if mm.ue.CmState == context.CmConnected {
		mm.log.Debugln("Service Request skipped, UE is already in CM-CONNECTED")
		return
	}
	if mm.ue.Timers.T3346.IsRunning() && !mm.ue.RegisteredForEmergency {
		mm.log.Warnln("Service Request is not allowed while T3346 is running")
		return
	}
	guti := mm.ue.Usim.StoredGuti
	if guti == nil {
		mm.log.Errorln("Service Request needs a 5G-GUTI")
		return
	}

	tsc := uint8(nasMessage.TypeOfSecurityContextFlagNative)
	ngKsi := message.NgKsiNoKeyAvailable
	if current := mm.ue.Usim.CurrentNsCtx; current != nil {
		tsc = current.Tsc
		ngKsi = current.NgKsi
	}

	mm.log.Infof("Sending Service Request with service type [%d]", serviceType)
	request := message.BuildServiceRequest(serviceType, tsc, ngKsi, sTmsiFromGuti(guti))
	mm.switchMmState(context.MmServiceRequestInitiatedNa)
	mm.ue.Timers.T3517.Start(mm.clock())
	mm.SendNasMessage(request)
}

func (mm *NasMm) receiveServiceAccept(msg *nasMessage.ServiceAccept) {
	if !mm.ue.MmState.Is(context.MmMainServiceRequestInitiated) {
		mm.log.Warnln("Service Accept ignored since the MM state is not MM_SERVICE_REQUEST_INITIATED")
		mm.sendMmStatus(CauseMessageTypeNotCompatibleWithState)
		return
	}
	mm.ue.Timers.T3517.Stop()
	mm.switchMmState(context.MmRegisteredNormalService)
	mm.log.Infoln("Service Request is successful")
}

func (mm *NasMm) receiveServiceReject(msg *nasMessage.ServiceReject) {
	if !mm.ue.MmState.Is(context.MmMainServiceRequestInitiated) {
		mm.log.Warnln("Service Reject ignored since the MM state is not MM_SERVICE_REQUEST_INITIATED")
		mm.sendMmStatus(CauseMessageTypeNotCompatibleWithState)
		return
	}
	cause := msg.Cause5GMM.GetCauseValue()
	mm.log.Errorf("Service Request rejected with cause [%d]", cause)

	mm.ue.Timers.T3517.Stop()

	switch cause {
	case CauseCongestion:
		if msg.T3346Value != nil {
			if d, ok := util.GprsTimer2ToDuration(msg.T3346Value.Octet); ok && d > 0 {
				mm.ue.Timers.T3346.StartWithInterval(mm.clock(), d)
			}
		}
		mm.switchMmState(context.MmRegisteredNormalService)
	case CauseIllegalUe, CauseIllegalMe, Cause5gsServicesNotAllowed:
		mm.switchUState(context.U3RoamingNotAllowed)
		mm.ue.Usim.StoredGuti = nil
		mm.ue.Usim.DeleteSecurityContexts()
		mm.ue.Usim.Valid = false
		mm.switchRmState(context.RmDeregistered)
		mm.switchMmState(context.MmDeregisteredNa)
	case CauseUeIdentityCannotBeDerived:
		mm.ue.Usim.StoredGuti = nil
		mm.ue.Usim.DeleteSecurityContexts()
		mm.switchUState(context.U2NotUpdated)
		mm.switchRmState(context.RmDeregistered)
		mm.switchMmState(context.MmDeregisteredNa)
	case CauseImplicitlyDeregistered:
		mm.ue.Usim.DeleteSecurityContexts()
		mm.switchRmState(context.RmDeregistered)
		mm.switchMmState(context.MmDeregisteredNa)
	default:
		mm.switchMmState(context.MmRegisteredNormalService)
	}
}

func (mm *NasMm) receiveConfigurationUpdateCommand(msg *nasMessage.ConfigurationUpdateCommand) {
	mm.log.Debugln("Configuration Update Command received")

	if msg.GUTI5G != nil {
		guti := *msg.GUTI5G
		mm.ue.Usim.StoredGuti = &guti
		mm.ue.Timers.T3519.Stop()
		mm.ue.Usim.StoredSuci = nil
		mm.log.Infof("New 5G-GUTI assigned [%s]", util.GutiToString(&guti))
	}

	indication := msg.ConfigurationUpdateIndication
	if indication == nil {
		return
	}
	if indication.GetACK() == 1 {
		mm.SendNasMessage(message.BuildConfigurationUpdateComplete())
	}
	if indication.GetRED() == 1 {
		mm.log.Infoln("Registration requested by the network after connection release")
	}
}
