// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gsm

import (
	"net"
	"time"

	"github.com/omec-project/nas"
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/omec-project/util/fsm"
	"github.com/sirupsen/logrus"
)

// MmLayer is the part of the MM sublayer the SM sublayer relies on.
type MmLayer interface {
	IsRegistered() bool
	IsRegisteredForEmergency() bool
	SendNasMessage(msg *nas.Message)
}

// AppSink receives the session notifications meant for the application task.
type AppSink interface {
	SendToApp(msg taskmsgtypes.AppMessage)
}

type NasSm struct {
	ueId     int
	config   *factory.UeConfig
	sessions *context.SessionTable
	mm       MmLayer
	app      AppSink
	clock    func() time.Time

	// sessions the application task has been told about
	announced map[context.Psi]bool

	log *logrus.Entry
}

func NewNasSm(ueId int, config *factory.UeConfig, app AppSink) *NasSm {
	return &NasSm{
		ueId:      ueId,
		config:    config,
		sessions:  context.NewSessionTable(),
		app:       app,
		clock:     time.Now,
		announced: make(map[context.Psi]bool),
		log:       logger.GsmLog.WithField(logger.FieldSupi, config.Supi),
	}
}

func (sm *NasSm) OnStart(mm MmLayer) {
	sm.mm = mm
}

func (sm *NasSm) Sessions() *context.SessionTable {
	return sm.sessions
}

// EstablishInitialSessions requests every session listed in the
// configuration, in order.
func (sm *NasSm) EstablishInitialSessions() {
	if len(sm.config.Sessions) == 0 {
		sm.log.Warnln("No initial PDU sessions are configured")
		return
	}
	sm.log.Infof("Initial PDU sessions are establishing [%d#]", len(sm.config.Sessions))
	for _, session := range sm.config.Sessions {
		sm.SendEstablishmentRequest(session)
	}
}

func (sm *NasSm) sendEvent(ps *context.PduSession, event fsm.EventType) {
	if err := GsmFSM.SendEvent(ps.State, event, fsm.ArgsType{
		ArgNasSm:      sm,
		ArgPduSession: ps,
	}); err != nil {
		sm.log.Errorln(err)
	}
}

func (sm *NasSm) notifyEstablished(ps *context.PduSession) {
	if sm.announced[ps.Psi] {
		return
	}
	sm.announced[ps.Psi] = true
	sm.log.Infof("PDU Session establishment is successful PSI[%d]", ps.Psi)
	if sm.app != nil {
		sm.app.SendToApp(taskmsgtypes.SessionEstablished{
			UeId:    sm.ueId,
			Session: SessionInfo(ps),
		})
	}
}

func (sm *NasSm) notifyReleased(ps *context.PduSession) {
	if !sm.announced[ps.Psi] {
		return
	}
	delete(sm.announced, ps.Psi)
	sm.log.Infof("PDU Session released PSI[%d]", ps.Psi)
	if sm.app != nil {
		sm.app.SendToApp(taskmsgtypes.SessionReleased{
			UeId: sm.ueId,
			Psi:  uint8(ps.Psi),
		})
	}
}

// SessionInfo takes a snapshot of a session record for another task.
func SessionInfo(ps *context.PduSession) taskmsgtypes.SessionInfo {
	info := taskmsgtypes.SessionInfo{
		Psi:         uint8(ps.Psi),
		State:       string(ps.State.Current()),
		SessionType: ps.SessionType,
		Apn:         ps.Apn,
		IsEmergency: ps.IsEmergency,
	}
	if ps.SNssai != nil {
		info.Sst = ps.SNssai.Sst
		info.Sd = ps.SNssai.Sd
	}
	if ps.PduAddress != nil {
		info.PduAddress = pduAddressString(ps.PduAddress.GetPDUSessionTypeValue(),
			ps.PduAddress.GetPDUAddressInformation())
	}
	if ps.State.Is(context.PsActive) {
		ambr := ps.SessionAmbr
		info.SessionAmbr = &ambr
	}
	return info
}

func pduAddressString(sessionType uint8, addr [12]uint8) string {
	switch sessionType {
	case nasMessage.PDUSessionTypeIPv4:
		return net.IP(addr[:4]).String()
	case nasMessage.PDUSessionTypeIPv6:
		// interface identifier only
		ip := make(net.IP, net.IPv6len)
		ip[0], ip[1] = 0xfe, 0x80
		copy(ip[8:], addr[:8])
		return ip.String()
	case nasMessage.PDUSessionTypeIPv4IPv6:
		return net.IP(addr[8:12]).String()
	default:
		return ""
	}
}
