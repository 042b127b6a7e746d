// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package nas

import (
	ctxt "context"
	"testing"
	"time"

	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForRrc[T taskmsgtypes.RrcMessage](t *testing.T, rrc <-chan taskmsgtypes.RrcMessage) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-rrc:
			if m, ok := msg.(T); ok {
				return m
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestTaskRegistersOnceCellIsFound(t *testing.T) {
	rrc := make(chan taskmsgtypes.RrcMessage, 16)
	app := make(chan taskmsgtypes.AppMessage, 64)
	task, err := NewTask(3, &factory.UeConfig{
		Supi:   "imsi-208930000000003",
		Mcc:    "208",
		Mnc:    "93",
		Key:    "465b5ce8b199b49faa5f0a2ee238a6bc",
		Op:     "cd63cb71954a9f4e48a5994e37a02baf",
		OpType: factory.OpTypeOpc,
		Amf:    "8000",
	}, rrc, app)
	require.NoError(t, err)

	ctx, cancel := ctxt.WithCancel(ctxt.Background())
	defer cancel()
	go task.Run(ctx)

	search := waitForRrc[taskmsgtypes.PlmnSearchRequest](t, rrc)
	assert.Equal(t, 3, search.UeId)

	task.Inbox() <- taskmsgtypes.ActiveCellChanged{HasCell: true}
	initial := waitForRrc[taskmsgtypes.InitialNasDelivery](t, rrc)
	assert.Equal(t, 3, initial.UeId)
	assert.NotEmpty(t, initial.Pdu)

	reply := make(chan taskmsgtypes.UeStatus, 1)
	task.Inbox() <- taskmsgtypes.StatusQuery{Reply: reply}
	select {
	case status := <-reply:
		assert.Equal(t, "imsi-208930000000003", status.Supi)
		assert.Equal(t, "MM-REGISTERED-INITIATED/NA", status.MmState)
	case <-time.After(2 * time.Second):
		t.Fatal("no status reply")
	}
}

func TestUplinkName(t *testing.T) {
	assert.Equal(t, "IdentityRequest", uplinkName(identityRequest(t)))
	assert.Equal(t, "Unknown", uplinkName([]byte{0x2e}))
	assert.Equal(t, "Secured", uplinkName([]byte{0x7e, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x7e}))
}
