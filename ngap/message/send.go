// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package message

import (
	"fmt"

	"github.com/omec-project/ngap/ngapType"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/uesim/metrics"
)

const (
	reasonBuildError = "build error"
	reasonNoConn     = "no association"
	reasonWriteError = "write error"
)

// SendToAmf writes pkt to the association of amf and returns the reason of a
// failure for the message counters.
func SendToAmf(amf *context.AmfContext, pkt []byte) (bool, string) {
	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return false, reasonNoConn
	}
	if amf.Conn == nil {
		amf.Log.Errorln("SCTP association is not up")
		return false, reasonNoConn
	}
	if n, err := amf.Conn.Write(pkt); err != nil {
		amf.Log.Errorf("Write to SCTP socket failed: %+v", err)
		return false, reasonWriteError
	} else {
		amf.Log.Tracef("Wrote %d bytes", n)
	}
	return true, ""
}

func send(amf *context.AmfContext, name string, pkt []byte, err error) {
	if err != nil {
		logger.NgapLog.Errorf("Build %s failed : %+v", name, err)
		metrics.IncrementNgapMsgStats(name, metrics.DirectionOut, "failure", reasonBuildError)
		return
	}
	if ok, reason := SendToAmf(amf, pkt); !ok {
		metrics.IncrementNgapMsgStats(name, metrics.DirectionOut, "failure", reason)
		return
	}
	metrics.IncrementNgapMsgStats(name, metrics.DirectionOut, "success", "")
}

func SendNGSetupRequest(gnb *context.GnbContext, amf *context.AmfContext) {
	amf.Log.Infoln("Send NG Setup Request")
	pkt, err := BuildNGSetupRequest(gnb)
	send(amf, "NGSetupRequest", pkt, err)
}

func SendInitialUEMessage(gnb *context.GnbContext, amf *context.AmfContext, ue *context.NgapUeContext,
	nasPdu []byte, establishmentCause int64,
) {
	ue.Log.Infoln("Send Initial UE Message")
	pkt, err := BuildInitialUEMessage(gnb, ue, nasPdu, establishmentCause)
	send(amf, "InitialUEMessage", pkt, err)
}

func SendUplinkNasTransport(gnb *context.GnbContext, amf *context.AmfContext, ue *context.NgapUeContext,
	nasPdu []byte,
) {
	ue.Log.Infoln("Send Uplink NAS Transport")
	if len(nasPdu) == 0 {
		ue.Log.Errorln("NAS Pdu is nil")
		metrics.IncrementNgapMsgStats("UplinkNASTransport", metrics.DirectionOut, "failure", "empty nas pdu")
		return
	}
	pkt, err := BuildUplinkNasTransport(gnb, ue, nasPdu)
	send(amf, "UplinkNASTransport", pkt, err)
}

func SendInitialContextSetupResponse(amf *context.AmfContext, ue *context.NgapUeContext) {
	ue.Log.Infoln("Send Initial Context Setup Response")
	pkt, err := BuildInitialContextSetupResponse(ue)
	send(amf, "InitialContextSetupResponse", pkt, err)
}

func SendUEContextModificationResponse(amf *context.AmfContext, ue *context.NgapUeContext) {
	ue.Log.Infoln("Send UE Context Modification Response")
	pkt, err := BuildUEContextModificationResponse(ue)
	send(amf, "UEContextModificationResponse", pkt, err)
}

func SendUEContextReleaseComplete(amf *context.AmfContext, ue *context.NgapUeContext) {
	ue.Log.Infoln("Send UE Context Release Complete")
	pkt, err := BuildUEContextReleaseComplete(ue)
	send(amf, "UEContextReleaseComplete", pkt, err)
}

// SendUEContextReleaseRequest starts the NG-RAN node initiated release.
func SendUEContextReleaseRequest(amf *context.AmfContext, ue *context.NgapUeContext, cause ngapType.Cause) {
	ue.Log.Infof("Send UE Context Release Request, cause %s", CauseString(cause))
	pkt, err := BuildUEContextReleaseRequest(ue, cause)
	send(amf, "UEContextReleaseRequest", pkt, err)
}

func CauseString(cause ngapType.Cause) string {
	switch cause.Present {
	case ngapType.CausePresentRadioNetwork:
		return fmt.Sprintf("radioNetwork(%d)", cause.RadioNetwork.Value)
	case ngapType.CausePresentTransport:
		return fmt.Sprintf("transport(%d)", cause.Transport.Value)
	case ngapType.CausePresentNas:
		return fmt.Sprintf("nas(%d)", cause.Nas.Value)
	case ngapType.CausePresentProtocol:
		return fmt.Sprintf("protocol(%d)", cause.Protocol.Value)
	case ngapType.CausePresentMisc:
		return fmt.Sprintf("misc(%d)", cause.Misc.Value)
	default:
		return "unknown"
	}
}
