// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package ngap

import (
	ctxt "context"
	"encoding/hex"
	"fmt"

	"github.com/omec-project/aper"
	mi "github.com/omec-project/metricfunc/pkg/metricinfo"
	"github.com/omec-project/ngap/ngapType"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/uesim/metrics"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	ngap_message "github.com/omec-project/uesim/ngap/message"
	"github.com/sirupsen/logrus"
)

const inboxSize = 1024

// Task is the gNB side NGAP layer. It owns the gNB context, every AMF
// association and every NGAP UE context.
type Task struct {
	gnb *context.GnbContext

	inbox chan taskmsgtypes.NgapMessage
	rrc   chan<- taskmsgtypes.RrcMessage
	gtp   chan<- taskmsgtypes.GtpMessage

	log *logrus.Entry
}

// NewTask creates one AMF context per configured AMF, numbered from 1 in
// configuration order.
func NewTask(cfg *factory.GnbConfig, rrc chan<- taskmsgtypes.RrcMessage,
	gtp chan<- taskmsgtypes.GtpMessage,
) (*Task, error) {
	gnb, err := context.NewGnbContext(cfg)
	if err != nil {
		return nil, fmt.Errorf("create gnb context: %w", err)
	}
	for i, amfCfg := range cfg.AmfConfigs {
		amf := gnb.NewAmfContext(i+1, amfCfg.Address, amfCfg.Port)
		metrics.SetAmfAssociationStats(amfAddr(amf), amf.State.String())
	}
	return &Task{
		gnb:   gnb,
		inbox: make(chan taskmsgtypes.NgapMessage, inboxSize),
		rrc:   rrc,
		gtp:   gtp,
		log:   logger.NgapLog.WithField("gnb", cfg.Name),
	}, nil
}

func (t *Task) Inbox() chan<- taskmsgtypes.NgapMessage {
	return t.inbox
}

func (t *Task) Gnb() *context.GnbContext {
	return t.gnb
}

func (t *Task) Run(ctx ctxt.Context) {
	t.log.Infoln("NGAP task started")
	for {
		select {
		case <-ctx.Done():
			t.log.Infoln("NGAP task stopped")
			return
		case msg := <-t.inbox:
			t.handleMessage(ctx, msg)
		}
	}
}

func (t *Task) handleMessage(ctx ctxt.Context, msg taskmsgtypes.NgapMessage) {
	switch m := msg.(type) {
	case taskmsgtypes.SctpAssociationUp:
		t.handleAssociationUp(m)
	case taskmsgtypes.SctpAssociationDown:
		t.handleAssociationDown(m)
	case taskmsgtypes.SctpData:
		amf := t.gnb.FindAmf(m.AmfCtxId)
		if amf == nil {
			t.log.Errorf("NGAP data from unknown AMF context [%d]", m.AmfCtxId)
			return
		}
		t.Dispatch(ctx, amf, m.Data)
	case taskmsgtypes.InitialNasDelivery:
		t.handleInitialNasDelivery(m)
	case taskmsgtypes.UplinkNasDelivery:
		t.handleUplinkNasDelivery(m)
	case taskmsgtypes.ContextReleaseTrigger:
		t.SendContextRelease(m.UeId, m.Cause)
	case taskmsgtypes.NgapStatusQuery:
		select {
		case m.Reply <- t.ueInfos():
		case <-ctx.Done():
		}
	default:
		t.log.Warnf("Unhandled NGAP task message [%T]", msg)
	}
}

func (t *Task) handleAssociationUp(m taskmsgtypes.SctpAssociationUp) {
	amf := t.gnb.FindAmf(m.AmfCtxId)
	if amf == nil {
		t.log.Errorf("SCTP association up for unknown AMF context [%d]", m.AmfCtxId)
		if m.Conn != nil {
			_ = m.Conn.Close()
		}
		return
	}
	amf.Log.Infoln("SCTP association is up")
	amf.Conn = m.Conn
	t.setAmfState(amf, context.AmfWaitingNgSetup)
	ngap_message.SendNGSetupRequest(t.gnb, amf)
}

// handleAssociationDown releases locally every UE served through the lost
// association.
func (t *Task) handleAssociationDown(m taskmsgtypes.SctpAssociationDown) {
	amf := t.gnb.FindAmf(m.AmfCtxId)
	if amf == nil {
		return
	}
	amf.Log.Warnln("SCTP association is down")
	amf.Conn = nil
	t.setAmfState(amf, context.AmfNotConnected)

	for _, ue := range t.gnb.Ues() {
		if ue.AmfCtxId != amf.CtxId {
			continue
		}
		t.sendToRrc(taskmsgtypes.AnRelease{UeId: ue.CtxId})
		t.sendToGtp(taskmsgtypes.UeContextRelease{UeId: ue.CtxId})
		t.deleteUe(ue)
	}
}

func (t *Task) handleInitialNasDelivery(m taskmsgtypes.InitialNasDelivery) {
	ue := t.gnb.FindUe(m.UeId)
	if ue == nil {
		amf := t.gnb.SelectAmf()
		if amf == nil {
			t.log.Errorf("No connected AMF, dropping initial NAS message of UE [%d]", m.UeId)
			return
		}
		var err error
		if ue, err = t.gnb.NewUe(m.UeId, amf.CtxId); err != nil {
			t.log.Errorf("Create UE context error: %+v", err)
			return
		}
		t.publishUe(ue, "Idle", mi.SubsOpAdd)
	} else {
		ue.Log.Warnln("Initial NAS message for a UE with an NGAP context")
	}
	ngap_message.SendInitialUEMessage(t.gnb, t.gnb.FindAmf(ue.AmfCtxId), ue, m.Pdu, m.EstablishmentCause)
}

func (t *Task) handleUplinkNasDelivery(m taskmsgtypes.UplinkNasDelivery) {
	ue := t.gnb.FindUe(m.UeId)
	if ue == nil {
		t.log.Errorf("No NGAP context for UE [%d], dropping uplink NAS message", m.UeId)
		return
	}
	ngap_message.SendUplinkNasTransport(t.gnb, t.gnb.FindAmf(ue.AmfCtxId), ue, m.Pdu)
}

// SendContextRelease requests the release of the UE context from the AMF.
// The local context is kept until the AMF answers with a release command.
func (t *Task) SendContextRelease(ueId int, cause ngapType.Cause) {
	ue := t.gnb.FindUe(ueId)
	if ue == nil {
		t.log.Warnf("No NGAP context for UE [%d], release request not sent", ueId)
		return
	}
	ngap_message.SendUEContextReleaseRequest(t.gnb.FindAmf(ue.AmfCtxId), ue, cause)
}

// RadioNetworkCause builds a radio network layer cause.
func RadioNetworkCause(value aper.Enumerated) ngapType.Cause {
	return ngapType.Cause{
		Present:      ngapType.CausePresentRadioNetwork,
		RadioNetwork: &ngapType.CauseRadioNetwork{Value: value},
	}
}

func (t *Task) deleteUe(ue *context.NgapUeContext) {
	t.publishUe(ue, "Deregistered", mi.SubsOpDel)
	t.gnb.DeleteUe(ue.CtxId)
}

func (t *Task) ueInfos() []taskmsgtypes.NgapUeInfo {
	ues := t.gnb.Ues()
	infos := make([]taskmsgtypes.NgapUeInfo, 0, len(ues))
	for _, ue := range ues {
		infos = append(infos, taskmsgtypes.NgapUeInfo{
			UeId:        ue.CtxId,
			AmfCtxId:    ue.AmfCtxId,
			RanUeNgapId: ue.RanUeNgapId,
			AmfUeNgapId: ue.AmfUeNgapId,
			AmbrDl:      ue.UeAmbr.Dl,
			AmbrUl:      ue.UeAmbr.Ul,
		})
	}
	return infos
}

func (t *Task) publishUe(ue *context.NgapUeContext, state string, op mi.SubscriberOp) {
	writer := metrics.GetWriter()
	if !writer.Enabled() {
		return
	}
	subscriber := mi.CoreSubscriber{
		AmfNgapId: ue.AmfUeNgapId,
		RanNgapId: ue.RanUeNgapId,
		GnbId:     hex.EncodeToString(t.gnb.GnbId),
		TacId:     hex.EncodeToString(t.gnb.Tac),
		UeState:   state,
	}
	if amf := t.gnb.FindAmf(ue.AmfCtxId); amf != nil {
		subscriber.AmfIp = amf.Address
	}
	if err := writer.PublishUeCtxtEvent(subscriber, op); err != nil {
		ue.Log.Errorf("Publish UE context event error: %+v", err)
	}
}

func (t *Task) sendToRrc(msg taskmsgtypes.RrcMessage) {
	t.rrc <- msg
}

func (t *Task) sendToGtp(msg taskmsgtypes.GtpMessage) {
	t.gtp <- msg
}

func amfAddr(amf *context.AmfContext) string {
	return fmt.Sprintf("%s:%d", amf.Address, amf.Port)
}
