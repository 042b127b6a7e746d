// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

// Package app is the application side of the simulated UEs. It records the
// PDU sessions that are up and reports UE state changes.
package app

import (
	ctxt "context"
	"sort"

	mi "github.com/omec-project/metricfunc/pkg/metricinfo"
	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/uesim/metrics"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/sirupsen/logrus"
)

const inboxSize = 1024

type ueRecord struct {
	supi     string
	mmState  string
	sessions map[uint8]taskmsgtypes.SessionInfo
}

type Task struct {
	inbox chan taskmsgtypes.AppMessage
	ues   map[int]*ueRecord
	log   *logrus.Entry
}

func NewTask() *Task {
	return &Task{
		inbox: make(chan taskmsgtypes.AppMessage, inboxSize),
		ues:   make(map[int]*ueRecord),
		log:   logger.AppLog,
	}
}

func (t *Task) Inbox() chan<- taskmsgtypes.AppMessage {
	return t.inbox
}

// AddUe names the UE in metrics and events. It must be called before Run.
func (t *Task) AddUe(ueId int, supi string) {
	t.ues[ueId] = &ueRecord{supi: supi, sessions: make(map[uint8]taskmsgtypes.SessionInfo)}
}

func (t *Task) Run(ctx ctxt.Context) {
	t.log.Infoln("Application task started")
	for {
		select {
		case <-ctx.Done():
			t.log.Infoln("Application task stopped")
			return
		case msg := <-t.inbox:
			t.handleMessage(ctx, msg)
		}
	}
}

func (t *Task) handleMessage(ctx ctxt.Context, msg taskmsgtypes.AppMessage) {
	switch m := msg.(type) {
	case taskmsgtypes.SessionEstablished:
		ue := t.ue(m.UeId)
		session := m.Session
		session.UeId = m.UeId
		ue.sessions[session.Psi] = session
		t.log.Infof("UE [%d] PDU session PSI[%d] is up, address [%s]", m.UeId, session.Psi, session.PduAddress)
		metrics.SetPduSessionStats(ue.supi, len(ue.sessions))
	case taskmsgtypes.SessionReleased:
		ue := t.ue(m.UeId)
		if _, ok := ue.sessions[m.Psi]; !ok {
			t.log.Warnf("UE [%d] released unknown PDU session PSI[%d]", m.UeId, m.Psi)
			return
		}
		delete(ue.sessions, m.Psi)
		t.log.Infof("UE [%d] PDU session PSI[%d] is down", m.UeId, m.Psi)
		metrics.SetPduSessionStats(ue.supi, len(ue.sessions))
	case taskmsgtypes.StateSwitch:
		t.handleStateSwitch(m)
	case taskmsgtypes.SessionStatusQuery:
		select {
		case m.Reply <- t.sessions():
		case <-ctx.Done():
		}
	default:
		t.log.Warnf("Unhandled application task message [%T]", msg)
	}
}

func (t *Task) handleStateSwitch(m taskmsgtypes.StateSwitch) {
	ue := t.ue(m.UeId)
	t.log.Debugf("UE [%d] %s state [%s] -> [%s]", m.UeId, m.Kind, m.Old, m.New)
	metrics.IncrementStateSwitchStats(string(m.Kind), m.New)

	switch m.Kind {
	case taskmsgtypes.StateKindMm:
		ue.mmState = m.New
	case taskmsgtypes.StateKindMmSub:
	default:
		return
	}

	writer := metrics.GetWriter()
	if !writer.Enabled() {
		return
	}
	subscriber := mi.CoreSubscriber{
		Imsi:        ue.supi,
		UeState:     ue.mmState,
		AmfSubState: m.New,
	}
	if err := writer.PublishUeCtxtEvent(subscriber, mi.SubsOpMod); err != nil {
		t.log.Errorf("Could not publish UE [%d] state: %v", m.UeId, err)
	}
}

func (t *Task) ue(ueId int) *ueRecord {
	ue, ok := t.ues[ueId]
	if !ok {
		ue = &ueRecord{sessions: make(map[uint8]taskmsgtypes.SessionInfo)}
		t.ues[ueId] = ue
	}
	return ue
}

func (t *Task) sessions() []taskmsgtypes.SessionInfo {
	var sessions []taskmsgtypes.SessionInfo
	for _, ue := range t.ues {
		for _, session := range ue.sessions {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].UeId != sessions[j].UeId {
			return sessions[i].UeId < sessions[j].UeId
		}
		return sessions[i].Psi < sessions[j].Psi
	})
	return sessions
}
