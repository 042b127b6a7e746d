// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

// Package rrc bridges the NAS tasks of the simulated UEs and the NGAP task
// of the simulated gNB. There is no radio: every UE camps on the gNB cell
// as soon as it searches for one.
package rrc

import (
	ctxt "context"

	"github.com/omec-project/ngap/ngapType"
	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/omec-project/uesim/ngap"
	"github.com/sirupsen/logrus"
)

const inboxSize = 1024

type ueLink struct {
	nas       chan<- taskmsgtypes.NasMessage
	connected bool
}

type Task struct {
	inbox chan taskmsgtypes.RrcMessage
	ngap  chan<- taskmsgtypes.NgapMessage
	ues   map[int]*ueLink
	log   *logrus.Entry
}

func NewTask() *Task {
	return &Task{
		inbox: make(chan taskmsgtypes.RrcMessage, inboxSize),
		ues:   make(map[int]*ueLink),
		log:   logger.RrcLog,
	}
}

// SetNgap attaches the gNB. It must be called before Run; without it uplink
// traffic is dropped.
func (t *Task) SetNgap(ngap chan<- taskmsgtypes.NgapMessage) {
	t.ngap = ngap
}

func (t *Task) Inbox() chan<- taskmsgtypes.RrcMessage {
	return t.inbox
}

// AddUe attaches the NAS inbox of a UE. It must be called before Run.
func (t *Task) AddUe(ueId int, nas chan<- taskmsgtypes.NasMessage) {
	t.ues[ueId] = &ueLink{nas: nas}
}

func (t *Task) Run(ctx ctxt.Context) {
	t.log.Infoln("RRC task started")
	for {
		select {
		case <-ctx.Done():
			t.log.Infoln("RRC task stopped")
			return
		case msg := <-t.inbox:
			t.handleMessage(ctx, msg)
		}
	}
}

func (t *Task) handleMessage(ctx ctxt.Context, msg taskmsgtypes.RrcMessage) {
	switch m := msg.(type) {
	case taskmsgtypes.PlmnSearchRequest:
		t.sendToUe(ctx, m.UeId, taskmsgtypes.ActiveCellChanged{HasCell: true})
	case taskmsgtypes.InitialNasDelivery:
		ue := t.ues[m.UeId]
		if ue == nil {
			t.log.Errorf("Initial NAS message from unknown UE [%d]", m.UeId)
			return
		}
		if !ue.connected {
			ue.connected = true
			t.log.Infof("RRC connection established for UE [%d]", m.UeId)
			t.sendToUe(ctx, m.UeId, taskmsgtypes.RrcConnectionSetup{})
		}
		t.sendToNgap(ctx, m)
	case taskmsgtypes.UplinkNasDelivery:
		ue := t.ues[m.UeId]
		if ue == nil || !ue.connected {
			t.log.Warnf("Uplink NAS message without RRC connection for UE [%d], dropping", m.UeId)
			return
		}
		t.sendToNgap(ctx, m)
	case taskmsgtypes.DownlinkNasDelivery:
		t.sendToUe(ctx, m.UeId, taskmsgtypes.NasDelivery{Pdu: m.Pdu})
	case taskmsgtypes.AnRelease:
		if ue := t.ues[m.UeId]; ue != nil {
			ue.connected = false
		}
		t.log.Infof("RRC connection released for UE [%d]", m.UeId)
		t.sendToUe(ctx, m.UeId, taskmsgtypes.RrcConnectionRelease{})
	case taskmsgtypes.LocalReleaseConnection:
		ue := t.ues[m.UeId]
		if ue == nil || !ue.connected {
			return
		}
		ue.connected = false
		t.log.Infof("RRC connection locally released for UE [%d]", m.UeId)
		t.sendToUe(ctx, m.UeId, taskmsgtypes.RrcConnectionRelease{})
		t.sendToNgap(ctx, taskmsgtypes.ContextReleaseTrigger{
			UeId:  m.UeId,
			Cause: ngap.RadioNetworkCause(ngapType.CauseRadioNetworkPresentRadioConnectionWithUeLost),
		})
	default:
		t.log.Warnf("Unhandled RRC task message [%T]", msg)
	}
}

func (t *Task) sendToUe(ctx ctxt.Context, ueId int, msg taskmsgtypes.NasMessage) {
	ue := t.ues[ueId]
	if ue == nil {
		t.log.Errorf("No NAS task for UE [%d], dropping [%T]", ueId, msg)
		return
	}
	select {
	case ue.nas <- msg:
	case <-ctx.Done():
	}
}

func (t *Task) sendToNgap(ctx ctxt.Context, msg taskmsgtypes.NgapMessage) {
	if t.ngap == nil {
		t.log.Errorf("No gNB attached, dropping [%T]", msg)
		return
	}
	select {
	case t.ngap <- msg:
	case <-ctx.Done():
	}
}
