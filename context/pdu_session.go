// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package context

import (
	"errors"
	"fmt"

	"github.com/omec-project/nas"
	"github.com/omec-project/nas/nasType"
	"github.com/omec-project/openapi/models"
	"github.com/omec-project/uesim/util"
	"github.com/omec-project/util/fsm"
)

// Psi is a PDU session identity. PsiNone never names a live session.
type Psi uint8

// Pti is a procedure transaction identity. PtiNone never names a live
// transaction.
type Pti uint8

const (
	PsiNone Psi = 0
	MinPsi  Psi = 1
	MaxPsi  Psi = 15

	PtiNone Pti = 0
	MinPti  Pti = 1
	MaxPti  Pti = 14
)

func (p Psi) IsValid() bool {
	return p >= MinPsi && p <= MaxPsi
}

func (p Pti) IsValid() bool {
	return p >= MinPti && p <= MaxPti
}

var (
	ErrSessionTableFull     = errors.New("no free pdu session identity")
	ErrTransactionTableFull = errors.New("no free procedure transaction identity")
)

// PDU session states
const (
	PsInactive        fsm.StateType = "Inactive"
	PsActivePending   fsm.StateType = "ActivePending"
	PsActive          fsm.StateType = "Active"
	PsInactivePending fsm.StateType = "InactivePending"
)

type PtState uint8

const (
	PtInactive PtState = iota
	PtPending
)

type PduSession struct {
	Psi         Psi
	State       *fsm.State
	Allocated   bool
	SessionType uint8
	Apn         string
	SNssai      *models.Snssai
	IsEmergency bool

	AuthorizedQosRules            nasType.AuthorizedQosRules
	SessionAmbr                   nasType.SessionAMBR
	AuthorizedQosFlowDescriptions *nasType.AuthorizedQosFlowDescriptions
	PduAddress                    *nasType.PDUAddress
}

func (ps *PduSession) reset() {
	ps.State.Set(PsInactive)
	ps.Allocated = false
	ps.SessionType = 0
	ps.Apn = ""
	ps.SNssai = nil
	ps.IsEmergency = false
	ps.ClearNegotiated()
}

// ClearNegotiated drops every value received from the network.
func (ps *PduSession) ClearNegotiated() {
	ps.AuthorizedQosRules = nasType.AuthorizedQosRules{}
	ps.SessionAmbr = nasType.SessionAMBR{}
	ps.AuthorizedQosFlowDescriptions = nil
	ps.PduAddress = nil
}

func (ps *PduSession) String() string {
	return fmt.Sprintf("PDU session %d [%s]", ps.Psi, ps.State.Current())
}

type ProcedureTransaction struct {
	Pti     Pti
	State   PtState
	Psi     Psi
	Timer   *util.NasTimer
	Message *nas.Message
}

func (pt *ProcedureTransaction) reset() {
	pt.State = PtInactive
	pt.Psi = PsiNone
	pt.Message = nil
	pt.Timer.Stop()
}

// SessionTable is the arena of PDU sessions and procedure transactions.
// Slot zero of each table is the sentinel and is never handed out.
type SessionTable struct {
	sessions     [MaxPsi + 1]*PduSession
	transactions [MaxPti + 1]*ProcedureTransaction
}

func NewSessionTable() *SessionTable {
	t := &SessionTable{}
	for i := range t.sessions {
		t.sessions[i] = &PduSession{
			Psi:   Psi(i),
			State: fsm.NewState(PsInactive),
		}
	}
	for i := range t.transactions {
		t.transactions[i] = &ProcedureTransaction{
			Pti:   Pti(i),
			Timer: util.NewNasTimer(3580, T3580DefaultValue),
		}
	}
	return t
}

// Session returns nil for identities outside 1..15.
func (t *SessionTable) Session(psi Psi) *PduSession {
	if !psi.IsValid() {
		return nil
	}
	return t.sessions[psi]
}

// Transaction returns nil for identities outside 1..14.
func (t *SessionTable) Transaction(pti Pti) *ProcedureTransaction {
	if !pti.IsValid() {
		return nil
	}
	return t.transactions[pti]
}

func (t *SessionTable) AllocatePsi() (Psi, error) {
	for psi := MinPsi; psi <= MaxPsi; psi++ {
		ps := t.sessions[psi]
		if !ps.Allocated && ps.State.Is(PsInactive) {
			ps.Allocated = true
			return psi, nil
		}
	}
	return PsiNone, ErrSessionTableFull
}

func (t *SessionTable) FreePsi(psi Psi) {
	if ps := t.Session(psi); ps != nil {
		ps.reset()
	}
}

func (t *SessionTable) AllocatePti() (Pti, error) {
	for pti := MinPti; pti <= MaxPti; pti++ {
		pt := t.transactions[pti]
		if pt.State == PtInactive {
			pt.State = PtPending
			return pti, nil
		}
	}
	return PtiNone, ErrTransactionTableFull
}

func (t *SessionTable) FreePti(pti Pti) {
	if pt := t.Transaction(pti); pt != nil {
		pt.reset()
	}
}

// Sessions returns the allocated sessions in PSI order.
func (t *SessionTable) Sessions() []*PduSession {
	var list []*PduSession
	for psi := MinPsi; psi <= MaxPsi; psi++ {
		if t.sessions[psi].Allocated {
			list = append(list, t.sessions[psi])
		}
	}
	return list
}

// PendingTransactions returns the transactions waiting for a response.
func (t *SessionTable) PendingTransactions() []*ProcedureTransaction {
	var list []*ProcedureTransaction
	for pti := MinPti; pti <= MaxPti; pti++ {
		if t.transactions[pti].State == PtPending {
			list = append(list, t.transactions[pti])
		}
	}
	return list
}

// HasEmergencySession reports an emergency session that is active or being
// established.
func (t *SessionTable) HasEmergencySession() bool {
	for _, ps := range t.Sessions() {
		if ps.IsEmergency && (ps.State.Is(PsActivePending) || ps.State.Is(PsActive)) {
			return true
		}
	}
	return false
}

func (t *SessionTable) CountInState(state fsm.StateType) int {
	count := 0
	for _, ps := range t.Sessions() {
		if ps.State.Is(state) {
			count++
		}
	}
	return count
}
