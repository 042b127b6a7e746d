// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0
package rls

import (
	ctxt "context"
	"testing"
	"time"
)

func TestRunStopsOnCancel(t *testing.T) {
	task := NewTask()
	ctx, cancel := ctxt.WithCancel(ctxt.Background())
	done := make(chan struct{})
	go func() {
		task.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RLS task did not stop")
	}
}
