// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

// Package taskmsgtypes holds the messages exchanged between tasks. Each task
// accepts a closed set of message types; a value placed on a task channel is
// owned by the receiver from then on.
package taskmsgtypes

import (
	"net"

	"github.com/omec-project/nas/nasType"
	"github.com/omec-project/ngap/ngapType"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/factory"
)

// NasMessage is accepted by the UE NAS task.
type NasMessage interface {
	isNasMessage()
}

// RrcMessage is accepted by the RRC task.
type RrcMessage interface {
	isRrcMessage()
}

// NgapMessage is accepted by the gNB NGAP task.
type NgapMessage interface {
	isNgapMessage()
}

// GtpMessage is accepted by the GTP task.
type GtpMessage interface {
	isGtpMessage()
}

// AppMessage is accepted by the application task.
type AppMessage interface {
	isAppMessage()
}

// RLS control task messages. The task has no handled message yet.
type RlsMessage interface {
	isRlsMessage()
}

// NAS task

type NasDelivery struct {
	Pdu []byte
}

type ActiveCellChanged struct {
	HasCell bool
}

type RrcConnectionSetup struct{}

type RrcConnectionRelease struct{}

type RadioLinkFailure struct{}

type EstablishSession struct {
	Session factory.SessionConfig
}

type Deregister struct {
	Cause context.DeregCause
}

// ServiceRequest asks MM to leave CM-IDLE with the given 5GS service type.
type ServiceRequest struct {
	ServiceType uint8
}

type ReleaseSession struct {
	Psi uint8
}

type StatusQuery struct {
	Reply chan<- UeStatus
}

type UeStatus struct {
	Supi     string        `json:"supi"`
	MmState  string        `json:"mmState"`
	RmState  string        `json:"rmState"`
	CmState  string        `json:"cmState"`
	UState   string        `json:"uState"`
	Guti     string        `json:"guti,omitempty"`
	Sessions []SessionInfo `json:"sessions"`
}

func (NasDelivery) isNasMessage()          {}
func (ActiveCellChanged) isNasMessage()    {}
func (RrcConnectionSetup) isNasMessage()   {}
func (RrcConnectionRelease) isNasMessage() {}
func (RadioLinkFailure) isNasMessage()     {}
func (EstablishSession) isNasMessage()     {}
func (Deregister) isNasMessage()           {}
func (ServiceRequest) isNasMessage()       {}
func (ReleaseSession) isNasMessage()       {}
func (StatusQuery) isNasMessage()          {}

// RRC task. Initial and uplink deliveries travel UE NAS -> RRC -> NGAP.

type PlmnSearchRequest struct {
	UeId int
}

type InitialNasDelivery struct {
	UeId               int
	Pdu                []byte
	EstablishmentCause int64
}

type UplinkNasDelivery struct {
	UeId int
	Pdu  []byte
}

type LocalReleaseConnection struct {
	UeId int
}

type DownlinkNasDelivery struct {
	UeId int
	Pdu  []byte
}

type AnRelease struct {
	UeId int
}

func (PlmnSearchRequest) isRrcMessage()      {}
func (InitialNasDelivery) isRrcMessage()     {}
func (UplinkNasDelivery) isRrcMessage()      {}
func (LocalReleaseConnection) isRrcMessage() {}
func (DownlinkNasDelivery) isRrcMessage()    {}
func (AnRelease) isRrcMessage()              {}

// NGAP task

// SctpAssociationUp hands the connected association to the NGAP task, which
// is its only writer from then on.
type SctpAssociationUp struct {
	AmfCtxId int
	Conn     net.Conn
}

type SctpData struct {
	AmfCtxId int
	Data     []byte
}

type SctpAssociationDown struct {
	AmfCtxId int
}

// ContextReleaseTrigger starts the NG-RAN node initiated release of a UE
// context.
type ContextReleaseTrigger struct {
	UeId  int
	Cause ngapType.Cause
}

type NgapStatusQuery struct {
	Reply chan<- []NgapUeInfo
}

type NgapUeInfo struct {
	UeId        int    `json:"ueId"`
	AmfCtxId    int    `json:"amfCtxId"`
	RanUeNgapId int64  `json:"ranUeNgapId"`
	AmfUeNgapId int64  `json:"amfUeNgapId"`
	AmbrDl      uint64 `json:"ambrDl"`
	AmbrUl      uint64 `json:"ambrUl"`
}

func (SctpAssociationUp) isNgapMessage()     {}
func (SctpData) isNgapMessage()              {}
func (SctpAssociationDown) isNgapMessage()   {}
func (InitialNasDelivery) isNgapMessage()    {}
func (UplinkNasDelivery) isNgapMessage()     {}
func (ContextReleaseTrigger) isNgapMessage() {}
func (NgapStatusQuery) isNgapMessage()       {}

// GTP task

type UeContextUpdate struct {
	IsCreate bool
	UeId     int
	Ambr     context.UeAmbr
}

type UeContextRelease struct {
	UeId int
}

type GtpStatusQuery struct {
	Reply chan<- []GtpUeInfo
}

type GtpUeInfo struct {
	UeId   int    `json:"ueId"`
	AmbrDl uint64 `json:"ambrDl"`
	AmbrUl uint64 `json:"ambrUl"`
}

func (UeContextUpdate) isGtpMessage()  {}
func (UeContextRelease) isGtpMessage() {}
func (GtpStatusQuery) isGtpMessage()   {}

// Application task

// SessionInfo is a snapshot of a PDU session taken when it was sent.
type SessionInfo struct {
	UeId        int                  `json:"ueId,omitempty"`
	Psi         uint8                `json:"psi"`
	State       string               `json:"state"`
	SessionType uint8                `json:"sessionType"`
	Apn         string               `json:"apn,omitempty"`
	Sst         int32                `json:"sst,omitempty"`
	Sd          string               `json:"sd,omitempty"`
	IsEmergency bool                 `json:"emergency"`
	PduAddress  string               `json:"pduAddress,omitempty"`
	SessionAmbr *nasType.SessionAMBR `json:"-"`
}

type SessionEstablished struct {
	UeId    int
	Session SessionInfo
}

type SessionReleased struct {
	UeId int
	Psi  uint8
}

// StateKind names the state axis reported in a StateSwitch.
type StateKind string

const (
	StateKindMm    StateKind = "MM"
	StateKindMmSub StateKind = "MM_SUB"
	StateKindRm    StateKind = "RM"
	StateKindCm    StateKind = "CM"
	StateKindU5    StateKind = "U5"
)

type StateSwitch struct {
	UeId int
	Kind StateKind
	Old  string
	New  string
}

type SessionStatusQuery struct {
	Reply chan<- []SessionInfo
}

func (SessionEstablished) isAppMessage() {}
func (SessionReleased) isAppMessage()    {}
func (StateSwitch) isAppMessage()        {}
func (SessionStatusQuery) isAppMessage() {}
