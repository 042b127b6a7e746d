// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

// Package rls is the radio link simulation control loop. The gNB and UEs
// share a process, so no radio link message is exchanged yet.
package rls

import (
	ctxt "context"

	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/sirupsen/logrus"
)

const inboxSize = 64

type Task struct {
	inbox chan taskmsgtypes.RlsMessage
	log   *logrus.Entry
}

func NewTask() *Task {
	return &Task{
		inbox: make(chan taskmsgtypes.RlsMessage, inboxSize),
		log:   logger.RlsLog,
	}
}

func (t *Task) Inbox() chan<- taskmsgtypes.RlsMessage {
	return t.inbox
}

func (t *Task) Run(ctx ctxt.Context) {
	t.log.Infoln("RLS task started")
	for {
		select {
		case <-ctx.Done():
			t.log.Infoln("RLS task stopped")
			return
		case msg := <-t.inbox:
			t.log.Warnf("Unhandled RLS task message [%T]", msg)
		}
	}
}
