// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package gsm

import (
	"time"

	"github.com/omec-project/nas"
	"github.com/omec-project/uesim/context"
)

// PerformTick checks the timer of every pending transaction against now.
// An expired timer resends the retained request until the retransmission
// limit is reached, then the procedure is aborted.
func (sm *NasSm) PerformTick(now time.Time) {
	for _, pt := range sm.sessions.PendingTransactions() {
		if pt.Timer.PerformTick(now) {
			sm.onTransactionTimerExpire(pt, now)
		}
	}
}

func (sm *NasSm) onTransactionTimerExpire(pt *context.ProcedureTransaction, now time.Time) {
	sm.log.Warnf("T%d expired for PTI[%d] PSI[%d] (%d)", pt.Timer.Code(), pt.Pti, pt.Psi, pt.Timer.ExpiryCount())

	limit := context.MaxT3580Retransmission
	if pt.Timer.Code() == 3582 {
		limit = context.MaxT3582Retransmission
	}
	if pt.Timer.ExpiryCount() > limit {
		sm.abortTransaction(pt)
		return
	}

	pt.Timer.Start(now)
	sm.sendTransaction(pt)
}

// abortTransaction ends the procedure run by pt without network signalling.
func (sm *NasSm) abortTransaction(pt *context.ProcedureTransaction) {
	if pt.Message == nil {
		sm.sessions.FreePti(pt.Pti)
		return
	}
	switch pt.Message.GsmHeader.GetMessageType() {
	case nas.MsgTypePDUSessionEstablishmentRequest:
		sm.AbortEstablishmentRequest(pt.Pti)
	case nas.MsgTypePDUSessionReleaseRequest:
		// the network did not answer, release locally
		psi := pt.Psi
		sm.sessions.FreePti(pt.Pti)
		if ps := sm.sessions.Session(psi); ps != nil {
			sm.localRelease(ps)
		}
	default:
		sm.sessions.FreePti(pt.Pti)
	}
}
