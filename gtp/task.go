// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

// Package gtp keeps the user plane view of the gNB UE contexts. Tunnels are
// not set up; the table only records what the NGAP layer provisioned.
package gtp

import (
	ctxt "context"
	"sort"

	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/sirupsen/logrus"
)

const inboxSize = 256

type ueContext struct {
	ueId int
	ambr context.UeAmbr
}

type Task struct {
	inbox chan taskmsgtypes.GtpMessage
	ues   map[int]*ueContext
	log   *logrus.Entry
}

func NewTask() *Task {
	return &Task{
		inbox: make(chan taskmsgtypes.GtpMessage, inboxSize),
		ues:   make(map[int]*ueContext),
		log:   logger.GtpLog,
	}
}

func (t *Task) Inbox() chan<- taskmsgtypes.GtpMessage {
	return t.inbox
}

func (t *Task) Run(ctx ctxt.Context) {
	t.log.Infoln("GTP task started")
	for {
		select {
		case <-ctx.Done():
			t.log.Infoln("GTP task stopped")
			return
		case msg := <-t.inbox:
			t.handleMessage(ctx, msg)
		}
	}
}

func (t *Task) handleMessage(ctx ctxt.Context, msg taskmsgtypes.GtpMessage) {
	switch m := msg.(type) {
	case taskmsgtypes.UeContextUpdate:
		t.updateUeContext(m)
	case taskmsgtypes.UeContextRelease:
		if _, ok := t.ues[m.UeId]; !ok {
			t.log.Warnf("Release of unknown UE context [%d]", m.UeId)
			return
		}
		delete(t.ues, m.UeId)
		t.log.Infof("UE context [%d] released", m.UeId)
	case taskmsgtypes.GtpStatusQuery:
		select {
		case m.Reply <- t.ueInfos():
		case <-ctx.Done():
		}
	default:
		t.log.Warnf("Unhandled GTP task message [%T]", msg)
	}
}

func (t *Task) updateUeContext(m taskmsgtypes.UeContextUpdate) {
	ue, ok := t.ues[m.UeId]
	switch {
	case m.IsCreate && ok:
		t.log.Warnf("UE context [%d] already exists, overwriting", m.UeId)
	case !m.IsCreate && !ok:
		t.log.Warnf("Update of unknown UE context [%d], creating it", m.UeId)
	}
	if ue == nil {
		ue = &ueContext{ueId: m.UeId}
		t.ues[m.UeId] = ue
	}
	ue.ambr = m.Ambr
	t.log.Debugf("UE context [%d] AMBR DL[%d] UL[%d]", m.UeId, m.Ambr.Dl, m.Ambr.Ul)
}

func (t *Task) ueInfos() []taskmsgtypes.GtpUeInfo {
	infos := make([]taskmsgtypes.GtpUeInfo, 0, len(t.ues))
	for _, ue := range t.ues {
		infos = append(infos, taskmsgtypes.GtpUeInfo{
			UeId:   ue.ueId,
			AmbrDl: ue.ambr.Dl,
			AmbrUl: ue.ambr.Ul,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].UeId < infos[j].UeId })
	return infos
}
