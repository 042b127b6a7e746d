// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0
package rrc

import (
	ctxt "context"
	"testing"

	"github.com/omec-project/ngap/ngapType"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTask() (*Task, chan taskmsgtypes.NasMessage, chan taskmsgtypes.NgapMessage) {
	ngap := make(chan taskmsgtypes.NgapMessage, 8)
	nas := make(chan taskmsgtypes.NasMessage, 8)
	task := NewTask()
	task.SetNgap(ngap)
	task.AddUe(1, nas)
	return task, nas, ngap
}

func TestPlmnSearch(t *testing.T) {
	task, nas, _ := newTestTask()
	task.handleMessage(ctxt.Background(), taskmsgtypes.PlmnSearchRequest{UeId: 1})
	require.Len(t, nas, 1)
	assert.Equal(t, taskmsgtypes.ActiveCellChanged{HasCell: true}, <-nas)
}

func TestInitialNasSetsUpConnection(t *testing.T) {
	task, nas, ngap := newTestTask()
	ctx := ctxt.Background()
	initial := taskmsgtypes.InitialNasDelivery{UeId: 1, Pdu: []byte{0x7e, 0x00, 0x41}}

	task.handleMessage(ctx, initial)
	require.Len(t, nas, 1)
	assert.Equal(t, taskmsgtypes.RrcConnectionSetup{}, <-nas)
	require.Len(t, ngap, 1)
	assert.Equal(t, initial, <-ngap)

	// a second initial message reuses the connection
	task.handleMessage(ctx, initial)
	assert.Empty(t, nas)
	assert.Len(t, ngap, 1)
}

func TestUplinkRequiresConnection(t *testing.T) {
	task, _, ngap := newTestTask()
	ctx := ctxt.Background()
	uplink := taskmsgtypes.UplinkNasDelivery{UeId: 1, Pdu: []byte{0x7e, 0x00, 0x67}}

	task.handleMessage(ctx, uplink)
	assert.Empty(t, ngap)

	task.handleMessage(ctx, taskmsgtypes.InitialNasDelivery{UeId: 1, Pdu: []byte{0x7e}})
	<-ngap
	task.handleMessage(ctx, uplink)
	require.Len(t, ngap, 1)
	assert.Equal(t, uplink, <-ngap)
}

func TestDownlinkAndRelease(t *testing.T) {
	task, nas, ngap := newTestTask()
	ctx := ctxt.Background()

	task.handleMessage(ctx, taskmsgtypes.DownlinkNasDelivery{UeId: 1, Pdu: []byte{0x7e, 0x00, 0x56}})
	assert.Equal(t, taskmsgtypes.NasDelivery{Pdu: []byte{0x7e, 0x00, 0x56}}, <-nas)

	task.handleMessage(ctx, taskmsgtypes.InitialNasDelivery{UeId: 1, Pdu: []byte{0x7e}})
	<-nas
	<-ngap
	task.handleMessage(ctx, taskmsgtypes.AnRelease{UeId: 1})
	assert.Equal(t, taskmsgtypes.RrcConnectionRelease{}, <-nas)
	assert.False(t, task.ues[1].connected)
	assert.Empty(t, ngap)
}

func TestLocalReleaseRequestsContextRelease(t *testing.T) {
	task, nas, ngap := newTestTask()
	ctx := ctxt.Background()

	// nothing to release while idle
	task.handleMessage(ctx, taskmsgtypes.LocalReleaseConnection{UeId: 1})
	assert.Empty(t, nas)
	assert.Empty(t, ngap)

	task.handleMessage(ctx, taskmsgtypes.InitialNasDelivery{UeId: 1, Pdu: []byte{0x7e}})
	<-nas
	<-ngap
	task.handleMessage(ctx, taskmsgtypes.LocalReleaseConnection{UeId: 1})
	assert.Equal(t, taskmsgtypes.RrcConnectionRelease{}, <-nas)
	require.Len(t, ngap, 1)
	trigger, ok := (<-ngap).(taskmsgtypes.ContextReleaseTrigger)
	require.True(t, ok)
	assert.Equal(t, 1, trigger.UeId)
	assert.Equal(t, ngapType.CausePresentRadioNetwork, trigger.Cause.Present)
	assert.Equal(t, ngapType.CauseRadioNetworkPresentRadioConnectionWithUeLost, trigger.Cause.RadioNetwork.Value)
}

func TestUnknownUe(t *testing.T) {
	task, nas, ngap := newTestTask()
	ctx := ctxt.Background()
	task.handleMessage(ctx, taskmsgtypes.InitialNasDelivery{UeId: 9, Pdu: []byte{0x7e}})
	task.handleMessage(ctx, taskmsgtypes.DownlinkNasDelivery{UeId: 9, Pdu: []byte{0x7e}})
	assert.Empty(t, nas)
	assert.Empty(t, ngap)
}

func TestNoGnbAttached(t *testing.T) {
	nas := make(chan taskmsgtypes.NasMessage, 8)
	task := NewTask()
	task.AddUe(1, nas)
	task.handleMessage(ctxt.Background(), taskmsgtypes.InitialNasDelivery{UeId: 1, Pdu: []byte{0x7e}})
	assert.Equal(t, taskmsgtypes.RrcConnectionSetup{}, <-nas)
}
