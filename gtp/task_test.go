// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0
package gtp

import (
	ctxt "context"
	"testing"
	"time"

	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func query(t *testing.T, task *Task) []taskmsgtypes.GtpUeInfo {
	t.Helper()
	reply := make(chan []taskmsgtypes.GtpUeInfo, 1)
	task.Inbox() <- taskmsgtypes.GtpStatusQuery{Reply: reply}
	select {
	case infos := <-reply:
		return infos
	case <-time.After(2 * time.Second):
		t.Fatal("no reply from GTP task")
		return nil
	}
}

func TestUeContextTable(t *testing.T) {
	task := NewTask()
	ctx, cancel := ctxt.WithCancel(ctxt.Background())
	defer cancel()
	go task.Run(ctx)

	task.Inbox() <- taskmsgtypes.UeContextUpdate{IsCreate: true, UeId: 2, Ambr: context.UeAmbr{Dl: 100, Ul: 50}}
	task.Inbox() <- taskmsgtypes.UeContextUpdate{IsCreate: true, UeId: 1}
	task.Inbox() <- taskmsgtypes.UeContextUpdate{UeId: 1, Ambr: context.UeAmbr{Dl: 7, Ul: 8}}

	infos := query(t, task)
	require.Len(t, infos, 2)
	assert.Equal(t, taskmsgtypes.GtpUeInfo{UeId: 1, AmbrDl: 7, AmbrUl: 8}, infos[0])
	assert.Equal(t, taskmsgtypes.GtpUeInfo{UeId: 2, AmbrDl: 100, AmbrUl: 50}, infos[1])

	task.Inbox() <- taskmsgtypes.UeContextRelease{UeId: 2}
	task.Inbox() <- taskmsgtypes.UeContextRelease{UeId: 5}
	infos = query(t, task)
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].UeId)
}

func TestUpdateOfUnknownContextCreatesIt(t *testing.T) {
	task := NewTask()
	task.handleMessage(ctxt.Background(), taskmsgtypes.UeContextUpdate{UeId: 3, Ambr: context.UeAmbr{Dl: 1, Ul: 1}})
	require.Contains(t, task.ues, 3)
	assert.Equal(t, context.UeAmbr{Dl: 1, Ul: 1}, task.ues[3].ambr)
}
