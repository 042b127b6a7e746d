// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0
//

package util

import (
	"net"
	"time"

	"github.com/omec-project/aper"
	"github.com/omec-project/ngap/ngapType"
)

// ASN.1 Basic-PER encoded values
const (
	NgapPDUIncomingMessage     byte = 0x00
	NgapPDUSuccessfulOutcome   byte = 0x20
	NgapPDUUnSuccessfulOutcome byte = 0x40
)

var MessageTypeMap = map[byte]string{
	NgapPDUIncomingMessage:     "IncomingMessage",
	NgapPDUSuccessfulOutcome:   "SuccessfulOutcome",
	NgapPDUUnSuccessfulOutcome: "UnsuccessfulOutcome",
}

// Mock Connection struct. Implements the net.Conn interface and keeps every
// written PDU.
type TestConn struct {
	Data    []byte
	Written [][]byte
	Closed  bool
}

type TestConnAddr struct{}

func (tca TestConnAddr) Network() (a string) { return }
func (tca TestConnAddr) String() (a string)  { return }

// Write method of the mocked testConn struct will be invoked as a part of the
// unit test framework
func (tc *TestConn) Write(b []byte) (n int, err error) {
	tc.Data = append([]byte{}, b...)
	tc.Written = append(tc.Written, tc.Data)
	return len(b), nil
}

func (tc *TestConn) Close() (e error) {
	tc.Closed = true
	return
}

func (tc *TestConn) Read(b []byte) (n int, err error) { return }

func (tc *TestConn) LocalAddr() net.Addr                    { return TestConnAddr{} }
func (tc *TestConn) RemoteAddr() net.Addr                   { return TestConnAddr{} }
func (tc *TestConn) SetDeadline(t time.Time) (e error)      { return }
func (tc *TestConn) SetReadDeadline(t time.Time) (e error)  { return }
func (tc *TestConn) SetWriteDeadline(t time.Time) (e error) { return }

// BuildNGSetupResponse forms the AMF answer to an NG Setup Request with one
// served GUAMI of PLMN 208/93 and AMF id cafe00.
func BuildNGSetupResponse(amfName string) (pdu ngapType.NGAPPDU) {
	pdu.Present = ngapType.NGAPPDUPresentSuccessfulOutcome
	pdu.SuccessfulOutcome = new(ngapType.SuccessfulOutcome)

	successfulOutcome := pdu.SuccessfulOutcome
	successfulOutcome.ProcedureCode.Value = ngapType.ProcedureCodeNGSetup
	successfulOutcome.Criticality.Value = ngapType.CriticalityPresentReject

	successfulOutcome.Value.Present = ngapType.SuccessfulOutcomePresentNGSetupResponse
	successfulOutcome.Value.NGSetupResponse = new(ngapType.NGSetupResponse)

	responseIEs := &successfulOutcome.Value.NGSetupResponse.ProtocolIEs

	// AMFName
	ie := ngapType.NGSetupResponseIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFName
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.NGSetupResponseIEsPresentAMFName
	ie.Value.AMFName = &ngapType.AMFName{Value: amfName}
	responseIEs.List = append(responseIEs.List, ie)

	// ServedGUAMIList
	ie = ngapType.NGSetupResponseIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDServedGUAMIList
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.NGSetupResponseIEsPresentServedGUAMIList
	ie.Value.ServedGUAMIList = new(ngapType.ServedGUAMIList)

	servedGUAMIItem := ngapType.ServedGUAMIItem{}
	servedGUAMIItem.GUAMI.PLMNIdentity.Value = aper.OctetString("\x02\xf8\x39")
	servedGUAMIItem.GUAMI.AMFRegionID.Value = aper.BitString{Bytes: []byte{0xca}, BitLength: 8}
	servedGUAMIItem.GUAMI.AMFSetID.Value = aper.BitString{Bytes: []byte{0xfe, 0x00}, BitLength: 10}
	servedGUAMIItem.GUAMI.AMFPointer.Value = aper.BitString{Bytes: []byte{0x00}, BitLength: 6}
	ie.Value.ServedGUAMIList.List = append(ie.Value.ServedGUAMIList.List, servedGUAMIItem)
	responseIEs.List = append(responseIEs.List, ie)

	// RelativeAMFCapacity
	ie = ngapType.NGSetupResponseIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRelativeAMFCapacity
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.NGSetupResponseIEsPresentRelativeAMFCapacity
	ie.Value.RelativeAMFCapacity = &ngapType.RelativeAMFCapacity{Value: 0xff}
	responseIEs.List = append(responseIEs.List, ie)

	return pdu
}

func BuildNGSetupFailure(cause ngapType.Cause) (pdu ngapType.NGAPPDU) {
	pdu.Present = ngapType.NGAPPDUPresentUnsuccessfulOutcome
	pdu.UnsuccessfulOutcome = new(ngapType.UnsuccessfulOutcome)

	unsuccessfulOutcome := pdu.UnsuccessfulOutcome
	unsuccessfulOutcome.ProcedureCode.Value = ngapType.ProcedureCodeNGSetup
	unsuccessfulOutcome.Criticality.Value = ngapType.CriticalityPresentReject

	unsuccessfulOutcome.Value.Present = ngapType.UnsuccessfulOutcomePresentNGSetupFailure
	unsuccessfulOutcome.Value.NGSetupFailure = new(ngapType.NGSetupFailure)

	failureIEs := &unsuccessfulOutcome.Value.NGSetupFailure.ProtocolIEs

	// Cause
	ie := ngapType.NGSetupFailureIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDCause
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.NGSetupFailureIEsPresentCause
	ie.Value.Cause = &cause
	failureIEs.List = append(failureIEs.List, ie)

	return pdu
}

func BuildDownlinkNasTransport(amfUeNgapId, ranUeNgapId int64, nasPdu []byte) (pdu ngapType.NGAPPDU) {
	pdu.Present = ngapType.NGAPPDUPresentInitiatingMessage
	pdu.InitiatingMessage = new(ngapType.InitiatingMessage)

	initiatingMessage := pdu.InitiatingMessage
	initiatingMessage.ProcedureCode.Value = ngapType.ProcedureCodeDownlinkNASTransport
	initiatingMessage.Criticality.Value = ngapType.CriticalityPresentIgnore

	initiatingMessage.Value.Present = ngapType.InitiatingMessagePresentDownlinkNASTransport
	initiatingMessage.Value.DownlinkNASTransport = new(ngapType.DownlinkNASTransport)

	downlinkNasTransportIEs := &initiatingMessage.Value.DownlinkNASTransport.ProtocolIEs

	// AMF UE NGAP ID
	ie := ngapType.DownlinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.DownlinkNASTransportIEsPresentAMFUENGAPID
	ie.Value.AMFUENGAPID = &ngapType.AMFUENGAPID{Value: amfUeNgapId}
	downlinkNasTransportIEs.List = append(downlinkNasTransportIEs.List, ie)

	// RAN UE NGAP ID
	ie = ngapType.DownlinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.DownlinkNASTransportIEsPresentRANUENGAPID
	ie.Value.RANUENGAPID = &ngapType.RANUENGAPID{Value: ranUeNgapId}
	downlinkNasTransportIEs.List = append(downlinkNasTransportIEs.List, ie)

	// NAS PDU
	ie = ngapType.DownlinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDNASPDU
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.DownlinkNASTransportIEsPresentNASPDU
	ie.Value.NASPDU = &ngapType.NASPDU{Value: aper.OctetString(nasPdu)}
	downlinkNasTransportIEs.List = append(downlinkNasTransportIEs.List, ie)

	return pdu
}

func ueAggregateMaximumBitRate(dl, ul int64) *ngapType.UEAggregateMaximumBitRate {
	ambr := new(ngapType.UEAggregateMaximumBitRate)
	ambr.UEAggregateMaximumBitRateDL.Value = dl
	ambr.UEAggregateMaximumBitRateUL.Value = ul
	return ambr
}

// BuildInitialContextSetupRequest carries only the IEs read by the gNB. A
// zero ambrDl leaves out the UE-AMBR IE and a nil nasPdu the NAS-PDU IE.
func BuildInitialContextSetupRequest(amfUeNgapId, ranUeNgapId, ambrDl, ambrUl int64,
	nasPdu []byte,
) (pdu ngapType.NGAPPDU) {
	pdu.Present = ngapType.NGAPPDUPresentInitiatingMessage
	pdu.InitiatingMessage = new(ngapType.InitiatingMessage)

	initiatingMessage := pdu.InitiatingMessage
	initiatingMessage.ProcedureCode.Value = ngapType.ProcedureCodeInitialContextSetup
	initiatingMessage.Criticality.Value = ngapType.CriticalityPresentReject

	initiatingMessage.Value.Present = ngapType.InitiatingMessagePresentInitialContextSetupRequest
	initiatingMessage.Value.InitialContextSetupRequest = new(ngapType.InitialContextSetupRequest)

	requestIEs := &initiatingMessage.Value.InitialContextSetupRequest.ProtocolIEs

	// AMF UE NGAP ID
	ie := ngapType.InitialContextSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.InitialContextSetupRequestIEsPresentAMFUENGAPID
	ie.Value.AMFUENGAPID = &ngapType.AMFUENGAPID{Value: amfUeNgapId}
	requestIEs.List = append(requestIEs.List, ie)

	// RAN UE NGAP ID
	ie = ngapType.InitialContextSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.InitialContextSetupRequestIEsPresentRANUENGAPID
	ie.Value.RANUENGAPID = &ngapType.RANUENGAPID{Value: ranUeNgapId}
	requestIEs.List = append(requestIEs.List, ie)

	// UE Aggregate Maximum Bit Rate
	if ambrDl != 0 {
		ie = ngapType.InitialContextSetupRequestIEs{}
		ie.Id.Value = ngapType.ProtocolIEIDUEAggregateMaximumBitRate
		ie.Criticality.Value = ngapType.CriticalityPresentReject
		ie.Value.Present = ngapType.InitialContextSetupRequestIEsPresentUEAggregateMaximumBitRate
		ie.Value.UEAggregateMaximumBitRate = ueAggregateMaximumBitRate(ambrDl, ambrUl)
		requestIEs.List = append(requestIEs.List, ie)
	}

	// NAS PDU
	if nasPdu != nil {
		ie = ngapType.InitialContextSetupRequestIEs{}
		ie.Id.Value = ngapType.ProtocolIEIDNASPDU
		ie.Criticality.Value = ngapType.CriticalityPresentIgnore
		ie.Value.Present = ngapType.InitialContextSetupRequestIEsPresentNASPDU
		ie.Value.NASPDU = &ngapType.NASPDU{Value: aper.OctetString(nasPdu)}
		requestIEs.List = append(requestIEs.List, ie)
	}

	return pdu
}

// BuildUEContextModificationRequest leaves out the New AMF UE NGAP ID IE when
// newAmfUeNgapId is negative.
func BuildUEContextModificationRequest(amfUeNgapId, ranUeNgapId, ambrDl, ambrUl,
	newAmfUeNgapId int64,
) (pdu ngapType.NGAPPDU) {
	pdu.Present = ngapType.NGAPPDUPresentInitiatingMessage
	pdu.InitiatingMessage = new(ngapType.InitiatingMessage)

	initiatingMessage := pdu.InitiatingMessage
	initiatingMessage.ProcedureCode.Value = ngapType.ProcedureCodeUEContextModification
	initiatingMessage.Criticality.Value = ngapType.CriticalityPresentReject

	initiatingMessage.Value.Present = ngapType.InitiatingMessagePresentUEContextModificationRequest
	initiatingMessage.Value.UEContextModificationRequest = new(ngapType.UEContextModificationRequest)

	requestIEs := &initiatingMessage.Value.UEContextModificationRequest.ProtocolIEs

	// AMF UE NGAP ID
	ie := ngapType.UEContextModificationRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.UEContextModificationRequestIEsPresentAMFUENGAPID
	ie.Value.AMFUENGAPID = &ngapType.AMFUENGAPID{Value: amfUeNgapId}
	requestIEs.List = append(requestIEs.List, ie)

	// RAN UE NGAP ID
	ie = ngapType.UEContextModificationRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.UEContextModificationRequestIEsPresentRANUENGAPID
	ie.Value.RANUENGAPID = &ngapType.RANUENGAPID{Value: ranUeNgapId}
	requestIEs.List = append(requestIEs.List, ie)

	// UE Aggregate Maximum Bit Rate
	ie = ngapType.UEContextModificationRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDUEAggregateMaximumBitRate
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.UEContextModificationRequestIEsPresentUEAggregateMaximumBitRate
	ie.Value.UEAggregateMaximumBitRate = ueAggregateMaximumBitRate(ambrDl, ambrUl)
	requestIEs.List = append(requestIEs.List, ie)

	// New AMF UE NGAP ID
	if newAmfUeNgapId >= 0 {
		ie = ngapType.UEContextModificationRequestIEs{}
		ie.Id.Value = ngapType.ProtocolIEIDNewAMFUENGAPID
		ie.Criticality.Value = ngapType.CriticalityPresentReject
		ie.Value.Present = ngapType.UEContextModificationRequestIEsPresentNewAMFUENGAPID
		ie.Value.NewAMFUENGAPID = &ngapType.AMFUENGAPID{Value: newAmfUeNgapId}
		requestIEs.List = append(requestIEs.List, ie)
	}

	return pdu
}

// BuildUEContextReleaseCommand identifies the UE by the id pair, or by the
// AMF UE NGAP ID alone when ranUeNgapId is negative.
func BuildUEContextReleaseCommand(amfUeNgapId, ranUeNgapId int64, cause ngapType.Cause) (pdu ngapType.NGAPPDU) {
	pdu.Present = ngapType.NGAPPDUPresentInitiatingMessage
	pdu.InitiatingMessage = new(ngapType.InitiatingMessage)

	initiatingMessage := pdu.InitiatingMessage
	initiatingMessage.ProcedureCode.Value = ngapType.ProcedureCodeUEContextRelease
	initiatingMessage.Criticality.Value = ngapType.CriticalityPresentReject

	initiatingMessage.Value.Present = ngapType.InitiatingMessagePresentUEContextReleaseCommand
	initiatingMessage.Value.UEContextReleaseCommand = new(ngapType.UEContextReleaseCommand)

	commandIEs := &initiatingMessage.Value.UEContextReleaseCommand.ProtocolIEs

	// UE NGAP IDs
	ie := ngapType.UEContextReleaseCommandIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDUENGAPIDs
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.UEContextReleaseCommandIEsPresentUENGAPIDs
	ie.Value.UENGAPIDs = new(ngapType.UENGAPIDs)

	uENGAPIDs := ie.Value.UENGAPIDs
	if ranUeNgapId < 0 {
		uENGAPIDs.Present = ngapType.UENGAPIDsPresentAMFUENGAPID
		uENGAPIDs.AMFUENGAPID = &ngapType.AMFUENGAPID{Value: amfUeNgapId}
	} else {
		uENGAPIDs.Present = ngapType.UENGAPIDsPresentUENGAPIDPair
		uENGAPIDs.UENGAPIDPair = new(ngapType.UENGAPIDPair)
		uENGAPIDs.UENGAPIDPair.AMFUENGAPID.Value = amfUeNgapId
		uENGAPIDs.UENGAPIDPair.RANUENGAPID.Value = ranUeNgapId
	}
	commandIEs.List = append(commandIEs.List, ie)

	// Cause
	ie = ngapType.UEContextReleaseCommandIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDCause
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.UEContextReleaseCommandIEsPresentCause
	ie.Value.Cause = &cause
	commandIEs.List = append(commandIEs.List, ie)

	return pdu
}
