// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"time"

	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
)

// MockOutbox records everything the MM sublayer sends, for tests.
type MockOutbox struct {
	Cycles int
	Rrc    []taskmsgtypes.RrcMessage
	App    []taskmsgtypes.AppMessage
}

func (o *MockOutbox) TriggerMmCycle() {
	o.Cycles++
}

func (o *MockOutbox) SendToRrc(msg taskmsgtypes.RrcMessage) {
	o.Rrc = append(o.Rrc, msg)
}

func (o *MockOutbox) SendToApp(msg taskmsgtypes.AppMessage) {
	o.App = append(o.App, msg)
}

// NasPdus returns the payload of every initial and uplink NAS delivery.
func (o *MockOutbox) NasPdus() [][]byte {
	var pdus [][]byte
	for _, msg := range o.Rrc {
		switch m := msg.(type) {
		case taskmsgtypes.InitialNasDelivery:
			pdus = append(pdus, m.Pdu)
		case taskmsgtypes.UplinkNasDelivery:
			pdus = append(pdus, m.Pdu)
		}
	}
	return pdus
}

func (o *MockOutbox) Reset() {
	o.Cycles = 0
	o.Rrc = nil
	o.App = nil
}

// SetClock replaces the time source of the sublayer, for tests.
func (mm *NasMm) SetClock(clock func() time.Time) {
	mm.clock = clock
}
