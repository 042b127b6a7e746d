// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package nas

import (
	ctxt "context"
	"fmt"
	"time"

	"github.com/omec-project/nas"
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/gmm"
	"github.com/omec-project/uesim/gsm"
	"github.com/omec-project/uesim/metrics"
	"github.com/omec-project/uesim/msgtypes/nasmsgtypes"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("uesim/nas")

const (
	DefaultTickInterval = 50 * time.Millisecond
	inboxSize           = 256
)

// Task owns the NAS layer of one UE. All MM and SM state is touched only
// from the goroutine running Run.
type Task struct {
	ueId   int
	ue     *context.UeContext
	mm     *gmm.NasMm
	sm     *gsm.NasSm
	router *Router

	inbox chan taskmsgtypes.NasMessage
	cycle chan struct{}
	rrc   chan<- taskmsgtypes.RrcMessage
	app   chan<- taskmsgtypes.AppMessage

	TickInterval time.Duration

	log *logrus.Entry
}

func NewTask(ueId int, cfg *factory.UeConfig, rrc chan<- taskmsgtypes.RrcMessage,
	app chan<- taskmsgtypes.AppMessage,
) (*Task, error) {
	ue, err := context.NewUeContext(cfg)
	if err != nil {
		return nil, fmt.Errorf("create ue context: %w", err)
	}
	t := &Task{
		ueId:         ueId,
		ue:           ue,
		inbox:        make(chan taskmsgtypes.NasMessage, inboxSize),
		cycle:        make(chan struct{}, 1),
		rrc:          rrc,
		app:          app,
		TickInterval: DefaultTickInterval,
		log:          ue.Log,
	}
	t.mm = gmm.NewNasMm(ueId, ue, t)
	t.sm = gsm.NewNasSm(ueId, cfg, t)
	t.router = NewRouter(t.mm, t.sm, ue.Log)
	return t, nil
}

func (t *Task) Inbox() chan<- taskmsgtypes.NasMessage {
	return t.inbox
}

func (t *Task) UeId() int {
	return t.ueId
}

// Run processes one inbox message, MM cycle or timer tick per iteration
// until ctx is done.
func (t *Task) Run(ctx ctxt.Context) {
	t.mm.OnStart(t.sm)
	ticker := time.NewTicker(t.TickInterval)
	defer ticker.Stop()

	t.log.Infoln("NAS task started")
	for {
		select {
		case <-ctx.Done():
			t.log.Infoln("NAS task stopped")
			return
		case msg := <-t.inbox:
			t.handleMessage(ctx, msg)
		case <-t.cycle:
			t.mm.PerformMmCycle()
		case now := <-ticker.C:
			t.mm.PerformTick(now)
			t.sm.PerformTick(now)
		}
	}
}

func (t *Task) handleMessage(ctx ctxt.Context, msg taskmsgtypes.NasMessage) {
	switch m := msg.(type) {
	case taskmsgtypes.NasDelivery:
		_, span := tracer.Start(ctx, "UESIM NAS Downlink",
			trace.WithAttributes(attribute.Int("nas.pdu_length", len(m.Pdu))),
			trace.WithSpanKind(trace.SpanKindConsumer),
		)
		t.router.ReceiveNasMessage(m.Pdu)
		span.End()
	case taskmsgtypes.ActiveCellChanged:
		t.mm.HandleActiveCellChanged(m.HasCell)
	case taskmsgtypes.RrcConnectionSetup:
		t.mm.HandleRrcConnectionSetup()
	case taskmsgtypes.RrcConnectionRelease:
		t.mm.HandleRrcConnectionRelease()
	case taskmsgtypes.RadioLinkFailure:
		t.mm.HandleRadioLinkFailure()
	case taskmsgtypes.EstablishSession:
		t.sm.SendEstablishmentRequest(m.Session)
	case taskmsgtypes.ReleaseSession:
		t.sm.ReleaseSession(context.Psi(m.Psi))
	case taskmsgtypes.Deregister:
		t.mm.SendDeregistration(m.Cause)
	case taskmsgtypes.ServiceRequest:
		t.mm.SendServiceRequest(m.ServiceType)
	case taskmsgtypes.StatusQuery:
		select {
		case m.Reply <- t.mm.Status():
		case <-ctx.Done():
		}
	default:
		t.log.Warnf("Unhandled NAS task message [%T]", msg)
	}
}

func (t *Task) TriggerMmCycle() {
	select {
	case t.cycle <- struct{}{}:
	default:
	}
}

func (t *Task) SendToRrc(msg taskmsgtypes.RrcMessage) {
	switch m := msg.(type) {
	case taskmsgtypes.InitialNasDelivery:
		metrics.IncrementNasMsgStats(uplinkName(m.Pdu), metrics.DirectionOut, "ok")
	case taskmsgtypes.UplinkNasDelivery:
		metrics.IncrementNasMsgStats(uplinkName(m.Pdu), metrics.DirectionOut, "ok")
	}
	t.rrc <- msg
}

func (t *Task) SendToApp(msg taskmsgtypes.AppMessage) {
	select {
	case t.app <- msg:
	default:
		t.log.Warnf("Application task queue full, dropping [%T]", msg)
	}
}

// uplinkName names plain MM PDUs by message type; protected ones are opaque.
func uplinkName(pdu []byte) string {
	if len(pdu) < 3 || pdu[0] != nasMessage.Epd5GSMobilityManagementMessage {
		return "Unknown"
	}
	if nas.GetSecurityHeaderType(pdu)&0x0f != nas.SecurityHeaderTypePlainNas {
		return "Secured"
	}
	return nasmsgtypes.GmmName(pdu[2])
}
