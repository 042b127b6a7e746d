// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gsm

import (
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/gsm/message"
	"github.com/omec-project/uesim/util"
)

// ReleaseSession starts a UE requested PDU session release.
func (sm *NasSm) ReleaseSession(psi context.Psi) {
	if sm.mm == nil || !sm.mm.IsRegistered() {
		sm.log.Errorln("UE is not registered")
		return
	}
	ps := sm.sessions.Session(psi)
	if ps == nil || !ps.State.Is(context.PsActive) {
		sm.log.Errorf("PDU session release requested for PSI[%d] which is not active", psi)
		return
	}

	pti, err := sm.sessions.AllocatePti()
	if err != nil {
		sm.log.Errorf("Procedure transaction identity allocation failed: %+v", err)
		return
	}
	sm.sendEvent(ps, ReleaseRequestEvent)

	pt := sm.sessions.Transaction(pti)
	pt.Psi = psi
	pt.Message = message.BuildPDUSessionReleaseRequest(uint8(psi), uint8(pti),
		nasMessage.Cause5GSMRegularDeactivation)
	pt.Timer = util.NewNasTimer(3582, context.T3582DefaultValue)
	pt.Timer.Start(sm.clock())

	sm.sendTransaction(pt)
}

func (sm *NasSm) ReceivePduSessionReleaseCommand(msg *nasMessage.PDUSessionReleaseCommand) {
	psi := context.Psi(msg.PDUSessionID.GetPDUSessionID())
	pti := context.Pti(msg.PTI.GetPTI())
	sm.log.Infof("PDU Session Release Command received PSI[%d] cause[%d]", psi, msg.Cause5GSM.GetCauseValue())

	ps := sm.sessions.Session(psi)
	if ps == nil || ps.State.Is(context.PsInactive) {
		sm.log.Errorf("PDU Session Release Command for inactive PSI[%d]", psi)
		sm.sendSmCause(nasMessage.Cause5GSMInvalidPDUSessionIdentity, psi)
		return
	}

	if pt := sm.sessions.Transaction(pti); pt != nil && pt.Psi == psi {
		sm.sessions.FreePti(pti)
	}

	if ps.State.Is(context.PsActivePending) {
		sm.sendEvent(ps, LocalReleaseEvent)
	} else {
		sm.sendEvent(ps, ReleaseCommandEvent)
	}
	sm.sessions.FreePsi(psi)

	sm.sendSmMessage(psi, message.BuildPDUSessionReleaseComplete(uint8(psi), uint8(pti)))
}

func (sm *NasSm) ReceivePduSessionReleaseReject(msg *nasMessage.PDUSessionReleaseReject) {
	psi := context.Psi(msg.PDUSessionID.GetPDUSessionID())
	pti := context.Pti(msg.PTI.GetPTI())
	sm.log.Warnf("PDU Session Release Reject received PSI[%d] cause[%d]", psi, msg.Cause5GSM.GetCauseValue())

	if !pti.IsValid() {
		sm.sendSmCause(nasMessage.Cause5GSMInvalidPTIValue, psi)
		return
	}
	if pt := sm.sessions.Transaction(pti); pt.State != context.PtPending || pt.Psi != psi {
		sm.log.Errorf("Received PSI value [%d] is invalid, expected was [%d]", psi, pt.Psi)
		sm.sendSmCause(nasMessage.Cause5GSMInvalidPTIValue, psi)
		return
	}
	sm.sessions.FreePti(pti)

	ps := sm.sessions.Session(psi)
	if !ps.State.Is(context.PsInactivePending) {
		sm.sendSmCause(nasMessage.Cause5GSMMessageTypeNotCompatibleWithTheProtocolState, psi)
		return
	}
	sm.sendEvent(ps, ReleaseRejectEvent)
}

// LocalReleaseAll drops every transaction and session without signalling,
// as done when the UE leaves the registered state.
func (sm *NasSm) LocalReleaseAll() {
	for _, pt := range sm.sessions.PendingTransactions() {
		sm.sessions.FreePti(pt.Pti)
	}
	for _, ps := range sm.sessions.Sessions() {
		sm.localRelease(ps)
	}
}

func (sm *NasSm) localRelease(ps *context.PduSession) {
	if !ps.State.Is(context.PsInactive) {
		sm.sendEvent(ps, LocalReleaseEvent)
	}
	sm.sessions.FreePsi(ps.Psi)
}
