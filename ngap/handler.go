// SPDX-FileCopyrightText: 2022-present Intel Corporation
// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package ngap

import (
	"github.com/omec-project/aper"
	mi "github.com/omec-project/metricfunc/pkg/metricinfo"
	"github.com/omec-project/ngap/ngapConvert"
	"github.com/omec-project/ngap/ngapType"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/uesim/metrics"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	ngap_message "github.com/omec-project/uesim/ngap/message"
)

func (t *Task) HandleNGSetupResponse(amf *context.AmfContext, message *ngapType.NGAPPDU) {
	var aMFName *ngapType.AMFName
	var servedGUAMIList *ngapType.ServedGUAMIList
	var relativeAMFCapacity *ngapType.RelativeAMFCapacity

	if amf == nil {
		logger.NgapLog.Errorln("amf is nil")
		return
	}
	if message == nil {
		amf.Log.Errorln("NGAP Message is nil")
		return
	}
	successfulOutcome := message.SuccessfulOutcome
	if successfulOutcome == nil {
		amf.Log.Errorln("SuccessfulOutcome is nil")
		return
	}
	nGSetupResponse := successfulOutcome.Value.NGSetupResponse
	if nGSetupResponse == nil {
		amf.Log.Errorln("NGSetupResponse is nil")
		return
	}

	amf.Log.Infoln("Handle NG Setup Response")

	for _, ie := range nGSetupResponse.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFName:
			aMFName = ie.Value.AMFName
			amf.Log.Debugln("decode IE AMFName")
		case ngapType.ProtocolIEIDServedGUAMIList:
			servedGUAMIList = ie.Value.ServedGUAMIList
			amf.Log.Debugln("decode IE ServedGUAMIList")
		case ngapType.ProtocolIEIDRelativeAMFCapacity:
			relativeAMFCapacity = ie.Value.RelativeAMFCapacity
			amf.Log.Debugln("decode IE RelativeAMFCapacity")
		}
	}

	if aMFName != nil {
		amf.Name = aMFName.Value
	}
	if servedGUAMIList != nil {
		for _, item := range servedGUAMIList.List {
			plmnId := ngapConvert.PlmnIdToModels(item.GUAMI.PLMNIdentity)
			amfId := ngapConvert.AmfIdToModels(item.GUAMI.AMFRegionID.Value, item.GUAMI.AMFSetID.Value,
				item.GUAMI.AMFPointer.Value)
			amf.Log.Infof("Served GUAMI [%s%s/%s]", plmnId.Mcc, plmnId.Mnc, amfId)
		}
	}
	if relativeAMFCapacity != nil {
		amf.Log.Debugf("Relative AMF capacity [%d]", relativeAMFCapacity.Value)
	}

	t.setAmfState(amf, context.AmfConnected)
	amf.Log.Infof("NG Setup procedure is successful, AMF [%s]", amf.Name)
}

func (t *Task) HandleNGSetupFailure(amf *context.AmfContext, message *ngapType.NGAPPDU) {
	var cause *ngapType.Cause
	var timeToWait *ngapType.TimeToWait

	if amf == nil {
		logger.NgapLog.Errorln("amf is nil")
		return
	}
	if message == nil {
		amf.Log.Errorln("NGAP Message is nil")
		return
	}
	unsuccessfulOutcome := message.UnsuccessfulOutcome
	if unsuccessfulOutcome == nil {
		amf.Log.Errorln("UnsuccessfulOutcome is nil")
		return
	}
	nGSetupFailure := unsuccessfulOutcome.Value.NGSetupFailure
	if nGSetupFailure == nil {
		amf.Log.Errorln("NGSetupFailure is nil")
		return
	}

	for _, ie := range nGSetupFailure.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDCause:
			cause = ie.Value.Cause
			amf.Log.Debugln("decode IE Cause")
		case ngapType.ProtocolIEIDTimeToWait:
			timeToWait = ie.Value.TimeToWait
			amf.Log.Debugln("decode IE TimeToWait")
		}
	}

	if cause != nil {
		printAndGetCause(amf, cause)
	}
	if timeToWait != nil {
		amf.Log.Warnf("Time to wait [%d]", timeToWait.Value)
	}

	t.setAmfState(amf, context.AmfNotConnected)
	amf.Log.Errorln("NG Setup procedure is failed")
}

func (t *Task) HandleDownlinkNasTransport(amf *context.AmfContext, message *ngapType.NGAPPDU) {
	var aMFUENGAPID *ngapType.AMFUENGAPID
	var rANUENGAPID *ngapType.RANUENGAPID
	var nASPDU *ngapType.NASPDU

	if amf == nil {
		logger.NgapLog.Errorln("amf is nil")
		return
	}
	if message == nil {
		amf.Log.Errorln("NGAP Message is nil")
		return
	}
	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		amf.Log.Errorln("InitiatingMessage is nil")
		return
	}
	downlinkNasTransport := initiatingMessage.Value.DownlinkNASTransport
	if downlinkNasTransport == nil {
		amf.Log.Errorln("DownlinkNASTransport is nil")
		return
	}

	for _, ie := range downlinkNasTransport.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			aMFUENGAPID = ie.Value.AMFUENGAPID
			amf.Log.Debugln("decode IE AmfUeNgapID")
		case ngapType.ProtocolIEIDRANUENGAPID:
			rANUENGAPID = ie.Value.RANUENGAPID
			amf.Log.Debugln("decode IE RanUeNgapID")
		case ngapType.ProtocolIEIDNASPDU:
			nASPDU = ie.Value.NASPDU
			amf.Log.Debugln("decode IE NasPdu")
		}
	}

	ue := t.findUe(amf, aMFUENGAPID, rANUENGAPID)
	if ue == nil {
		return
	}
	if nASPDU == nil {
		ue.Log.Errorln("NasPdu is nil")
		return
	}
	t.deliverNasPdu(ue, nASPDU)
}

// HandleInitialContextSetupRequest answers every request for a known UE with
// a response without PDU session resources. The UE-AMBR is received in bit/s
// and kept in byte/s.
func (t *Task) HandleInitialContextSetupRequest(amf *context.AmfContext, message *ngapType.NGAPPDU) {
	var aMFUENGAPID *ngapType.AMFUENGAPID
	var rANUENGAPID *ngapType.RANUENGAPID
	var ueAggregateMaximumBitRate *ngapType.UEAggregateMaximumBitRate
	var nASPDU *ngapType.NASPDU

	if amf == nil {
		logger.NgapLog.Errorln("amf is nil")
		return
	}
	if message == nil {
		amf.Log.Errorln("NGAP Message is nil")
		return
	}
	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		amf.Log.Errorln("InitiatingMessage is nil")
		return
	}
	initialContextSetupRequest := initiatingMessage.Value.InitialContextSetupRequest
	if initialContextSetupRequest == nil {
		amf.Log.Errorln("InitialContextSetupRequest is nil")
		return
	}

	amf.Log.Infoln("Handle Initial Context Setup Request")

	for _, ie := range initialContextSetupRequest.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			aMFUENGAPID = ie.Value.AMFUENGAPID
			amf.Log.Debugln("decode IE AmfUeNgapID")
		case ngapType.ProtocolIEIDRANUENGAPID:
			rANUENGAPID = ie.Value.RANUENGAPID
			amf.Log.Debugln("decode IE RanUeNgapID")
		case ngapType.ProtocolIEIDUEAggregateMaximumBitRate:
			ueAggregateMaximumBitRate = ie.Value.UEAggregateMaximumBitRate
			amf.Log.Debugln("decode IE UEAggregateMaximumBitRate")
		case ngapType.ProtocolIEIDNASPDU:
			nASPDU = ie.Value.NASPDU
			amf.Log.Debugln("decode IE NasPdu")
		}
	}

	ue := t.findUe(amf, aMFUENGAPID, rANUENGAPID)
	if ue == nil {
		return
	}

	if ueAggregateMaximumBitRate != nil {
		ue.UeAmbr.Dl = uint64(ueAggregateMaximumBitRate.UEAggregateMaximumBitRateDL.Value) / 8
		ue.UeAmbr.Ul = uint64(ueAggregateMaximumBitRate.UEAggregateMaximumBitRateUL.Value) / 8
		ue.Log.Debugf("UE-AMBR DL [%d] UL [%d] bytes/s", ue.UeAmbr.Dl, ue.UeAmbr.Ul)
	}

	ngap_message.SendInitialContextSetupResponse(amf, ue)

	if nASPDU != nil {
		t.deliverNasPdu(ue, nASPDU)
	}

	t.sendToGtp(taskmsgtypes.UeContextUpdate{IsCreate: true, UeId: ue.CtxId, Ambr: ue.UeAmbr})
	t.publishUe(ue, "Connected", mi.SubsOpMod)
}

// HandleUEContextModificationRequest stores the UE-AMBR as received, without
// the bit/s to byte/s conversion done at initial context setup.
func (t *Task) HandleUEContextModificationRequest(amf *context.AmfContext, message *ngapType.NGAPPDU) {
	var aMFUENGAPID *ngapType.AMFUENGAPID
	var rANUENGAPID *ngapType.RANUENGAPID
	var ueAggregateMaximumBitRate *ngapType.UEAggregateMaximumBitRate
	var newAMFUENGAPID *ngapType.AMFUENGAPID

	if amf == nil {
		logger.NgapLog.Errorln("amf is nil")
		return
	}
	if message == nil {
		amf.Log.Errorln("NGAP Message is nil")
		return
	}
	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		amf.Log.Errorln("InitiatingMessage is nil")
		return
	}
	uEContextModificationRequest := initiatingMessage.Value.UEContextModificationRequest
	if uEContextModificationRequest == nil {
		amf.Log.Errorln("UEContextModificationRequest is nil")
		return
	}

	amf.Log.Infoln("Handle UE Context Modification Request")

	for _, ie := range uEContextModificationRequest.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			aMFUENGAPID = ie.Value.AMFUENGAPID
			amf.Log.Debugln("decode IE AmfUeNgapID")
		case ngapType.ProtocolIEIDRANUENGAPID:
			rANUENGAPID = ie.Value.RANUENGAPID
			amf.Log.Debugln("decode IE RanUeNgapID")
		case ngapType.ProtocolIEIDUEAggregateMaximumBitRate:
			ueAggregateMaximumBitRate = ie.Value.UEAggregateMaximumBitRate
			amf.Log.Debugln("decode IE UEAggregateMaximumBitRate")
		case ngapType.ProtocolIEIDNewAMFUENGAPID:
			newAMFUENGAPID = ie.Value.NewAMFUENGAPID
			amf.Log.Debugln("decode IE NewAmfUeNgapID")
		}
	}

	ue := t.findUe(amf, aMFUENGAPID, rANUENGAPID)
	if ue == nil {
		return
	}

	if ueAggregateMaximumBitRate != nil {
		ue.UeAmbr.Dl = uint64(ueAggregateMaximumBitRate.UEAggregateMaximumBitRateDL.Value)
		ue.UeAmbr.Ul = uint64(ueAggregateMaximumBitRate.UEAggregateMaximumBitRateUL.Value)
	}
	if newAMFUENGAPID != nil {
		ue.Log.Infof("AMF UE NGAP ID changed to [%d]", newAMFUENGAPID.Value)
		ue.SetAmfUeNgapId(newAMFUENGAPID.Value)
	}

	ngap_message.SendUEContextModificationResponse(amf, ue)

	t.sendToGtp(taskmsgtypes.UeContextUpdate{IsCreate: false, UeId: ue.CtxId, Ambr: ue.UeAmbr})
}

func (t *Task) HandleUEContextReleaseCommand(amf *context.AmfContext, message *ngapType.NGAPPDU) {
	var uENGAPIDs *ngapType.UENGAPIDs
	var cause *ngapType.Cause

	if amf == nil {
		logger.NgapLog.Errorln("amf is nil")
		return
	}
	if message == nil {
		amf.Log.Errorln("NGAP Message is nil")
		return
	}
	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		amf.Log.Errorln("InitiatingMessage is nil")
		return
	}
	ueContextReleaseCommand := initiatingMessage.Value.UEContextReleaseCommand
	if ueContextReleaseCommand == nil {
		amf.Log.Errorln("UEContextReleaseCommand is nil")
		return
	}

	amf.Log.Infoln("Handle UE Context Release Command")

	for _, ie := range ueContextReleaseCommand.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDUENGAPIDs:
			uENGAPIDs = ie.Value.UENGAPIDs
			amf.Log.Debugln("decode IE UENGAPIDs")
		case ngapType.ProtocolIEIDCause:
			cause = ie.Value.Cause
			amf.Log.Debugln("decode IE Cause")
		}
	}

	if uENGAPIDs == nil {
		amf.Log.Errorln("UENGAPIDs is nil")
		return
	}

	var ue *context.NgapUeContext
	switch uENGAPIDs.Present {
	case ngapType.UENGAPIDsPresentUENGAPIDPair:
		pair := uENGAPIDs.UENGAPIDPair
		ue = t.gnb.FindUeByNgapIdPair(amf.CtxId, pair.AMFUENGAPID.Value, pair.RANUENGAPID.Value)
	case ngapType.UENGAPIDsPresentAMFUENGAPID:
		ue = t.gnb.FindUeByAmfId(uENGAPIDs.AMFUENGAPID.Value)
		if ue != nil && ue.AmfCtxId != amf.CtxId {
			ue = nil
		}
	}
	if ue == nil {
		amf.Log.Warnln("No UE Context for UE Context Release Command")
		return
	}

	if cause != nil {
		printAndGetCause(amf, cause)
	}

	t.sendToRrc(taskmsgtypes.AnRelease{UeId: ue.CtxId})
	t.sendToGtp(taskmsgtypes.UeContextRelease{UeId: ue.CtxId})

	ngap_message.SendUEContextReleaseComplete(amf, ue)

	t.deleteUe(ue)
}

func (t *Task) HandleErrorIndication(amf *context.AmfContext, message *ngapType.NGAPPDU) {
	var aMFUENGAPID *ngapType.AMFUENGAPID
	var rANUENGAPID *ngapType.RANUENGAPID
	var cause *ngapType.Cause
	var criticalityDiagnostics *ngapType.CriticalityDiagnostics

	if amf == nil {
		logger.NgapLog.Errorln("amf is nil")
		return
	}
	if message == nil {
		amf.Log.Errorln("NGAP Message is nil")
		return
	}
	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		amf.Log.Errorln("InitiatingMessage is nil")
		return
	}
	errorIndication := initiatingMessage.Value.ErrorIndication
	if errorIndication == nil {
		amf.Log.Errorln("ErrorIndication is nil")
		return
	}

	for _, ie := range errorIndication.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			aMFUENGAPID = ie.Value.AMFUENGAPID
			amf.Log.Debugln("decode IE AmfUeNgapID")
		case ngapType.ProtocolIEIDRANUENGAPID:
			rANUENGAPID = ie.Value.RANUENGAPID
			amf.Log.Debugln("decode IE RanUeNgapID")
		case ngapType.ProtocolIEIDCause:
			cause = ie.Value.Cause
			amf.Log.Debugln("decode IE Cause")
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
			amf.Log.Debugln("decode IE CriticalityDiagnostics")
		}
	}

	if aMFUENGAPID != nil && rANUENGAPID != nil {
		amf.Log.Warnf("Error Indication for AmfUeNgapID[%d] RanUeNgapID[%d]", aMFUENGAPID.Value,
			rANUENGAPID.Value)
	}
	if cause == nil && criticalityDiagnostics == nil {
		amf.Log.Errorln("[ErrorIndication] both Cause IE and CriticalityDiagnostics IE are nil, should have at least one")
		return
	}
	if cause != nil {
		printAndGetCause(amf, cause)
	}
	if criticalityDiagnostics != nil {
		printCriticalityDiagnostics(amf, criticalityDiagnostics)
	}
}

// findUe resolves the UE of a UE associated message. A missing UE is a benign
// race with a release and the message is dropped.
func (t *Task) findUe(amf *context.AmfContext, aMFUENGAPID *ngapType.AMFUENGAPID,
	rANUENGAPID *ngapType.RANUENGAPID,
) *context.NgapUeContext {
	if aMFUENGAPID == nil || rANUENGAPID == nil {
		amf.Log.Errorln("UE NGAP ID pair is incomplete")
		return nil
	}
	ue := t.gnb.FindUeByNgapIdPair(amf.CtxId, aMFUENGAPID.Value, rANUENGAPID.Value)
	if ue == nil {
		amf.Log.Warnf("No UE Context[AmfUeNgapID: %d, RanUeNgapID: %d]", aMFUENGAPID.Value, rANUENGAPID.Value)
	}
	return ue
}

func (t *Task) deliverNasPdu(ue *context.NgapUeContext, nASPDU *ngapType.NASPDU) {
	pdu := make([]byte, len(nASPDU.Value))
	copy(pdu, nASPDU.Value)
	t.sendToRrc(taskmsgtypes.DownlinkNasDelivery{UeId: ue.CtxId, Pdu: pdu})
}

func printAndGetCause(amf *context.AmfContext, cause *ngapType.Cause) (present int, value aper.Enumerated) {
	present = cause.Present
	switch cause.Present {
	case ngapType.CausePresentRadioNetwork:
		amf.Log.Warnf("Cause RadioNetwork[%d]", cause.RadioNetwork.Value)
		value = cause.RadioNetwork.Value
	case ngapType.CausePresentTransport:
		amf.Log.Warnf("Cause Transport[%d]", cause.Transport.Value)
		value = cause.Transport.Value
	case ngapType.CausePresentProtocol:
		amf.Log.Warnf("Cause Protocol[%d]", cause.Protocol.Value)
		value = cause.Protocol.Value
	case ngapType.CausePresentNas:
		amf.Log.Warnf("Cause Nas[%d]", cause.Nas.Value)
		value = cause.Nas.Value
	case ngapType.CausePresentMisc:
		amf.Log.Warnf("Cause Misc[%d]", cause.Misc.Value)
		value = cause.Misc.Value
	default:
		amf.Log.Errorf("Invalid Cause group[%d]", cause.Present)
	}
	return
}

func printCriticalityDiagnostics(amf *context.AmfContext, criticalityDiagnostics *ngapType.CriticalityDiagnostics) {
	amf.Log.Debugln("criticality Diagnostics")

	if criticalityDiagnostics.ProcedureCriticality != nil {
		switch criticalityDiagnostics.ProcedureCriticality.Value {
		case ngapType.CriticalityPresentReject:
			amf.Log.Debugln("procedure Criticality: Reject")
		case ngapType.CriticalityPresentIgnore:
			amf.Log.Debugln("procedure Criticality: Ignore")
		case ngapType.CriticalityPresentNotify:
			amf.Log.Debugln("procedure Criticality: Notify")
		}
	}

	if criticalityDiagnostics.IEsCriticalityDiagnostics != nil {
		for _, ieCriticalityDiagnostics := range criticalityDiagnostics.IEsCriticalityDiagnostics.List {
			amf.Log.Debugf("IE ID: %d", ieCriticalityDiagnostics.IEID.Value)

			switch ieCriticalityDiagnostics.TypeOfError.Value {
			case ngapType.TypeOfErrorPresentNotUnderstood:
				amf.Log.Debugln("type of error: Not understood")
			case ngapType.TypeOfErrorPresentMissing:
				amf.Log.Debugln("type of error: Missing")
			}
		}
	}
}

func (t *Task) setAmfState(amf *context.AmfContext, state context.AmfState) {
	amf.State = state
	metrics.SetAmfAssociationStats(amfAddr(amf), state.String())
	metrics.GetWriter().PublishGnbStatus(t.gnb.Config.Name, state == context.AmfConnected)
}
