// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gmm

import (
	"time"

	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/gsm"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/omec-project/uesim/util"
	"github.com/sirupsen/logrus"
)

// Outbox is how the MM sublayer reaches the rest of the UE. The NAS task
// implements it on top of its channels.
type Outbox interface {
	// TriggerMmCycle asks for one more MM cycle after the current event.
	TriggerMmCycle()
	SendToRrc(msg taskmsgtypes.RrcMessage)
	SendToApp(msg taskmsgtypes.AppMessage)
}

// NasMm is the 5GS mobility management sublayer of one UE.
type NasMm struct {
	ueId  int
	ue    *context.UeContext
	sm    *gsm.NasSm
	out   Outbox
	clock func() time.Time

	log *logrus.Entry
}

func NewNasMm(ueId int, ue *context.UeContext, out Outbox) *NasMm {
	return &NasMm{
		ueId:  ueId,
		ue:    ue,
		out:   out,
		clock: time.Now,
		log:   ue.Log,
	}
}

// OnStart attaches the SM sublayer and schedules the first cycle.
func (mm *NasMm) OnStart(sm *gsm.NasSm) {
	mm.sm = sm
	sm.OnStart(mm)
	mm.out.TriggerMmCycle()
}

func (mm *NasMm) Context() *context.UeContext {
	return mm.ue
}

func (mm *NasMm) IsRegistered() bool {
	return mm.ue.MmState.Is(context.MmMainRegistered) || mm.ue.MmState.Is(context.MmMainServiceRequestInitiated)
}

func (mm *NasMm) IsRegisteredForEmergency() bool {
	return mm.ue.RegisteredForEmergency
}

// Status takes a snapshot of the MM context and the session table.
func (mm *NasMm) Status() taskmsgtypes.UeStatus {
	status := taskmsgtypes.UeStatus{
		Supi:     mm.ue.Usim.Supi,
		MmState:  mm.ue.MmState.String(),
		RmState:  mm.ue.RmState.String(),
		CmState:  mm.ue.CmState.String(),
		UState:   mm.ue.Usim.UState.String(),
		Guti:     util.GutiToString(mm.ue.Usim.StoredGuti),
		Sessions: []taskmsgtypes.SessionInfo{},
	}
	if mm.sm != nil {
		for _, ps := range mm.sm.Sessions().Sessions() {
			status.Sessions = append(status.Sessions, gsm.SessionInfo(ps))
		}
	}
	return status
}
