// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package context

import (
	"encoding/hex"
	"fmt"
	"net"
	"strconv"

	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/uesim/util"
	"github.com/omec-project/util/idgenerator"
	"github.com/sirupsen/logrus"
)

const (
	AmfUeNgapIdUnset      int64 = -1
	MaxValueOfRanUeNgapId int64 = 4294967295
)

type AmfState uint8

const (
	AmfNotConnected AmfState = iota
	AmfWaitingNgSetup
	AmfConnected
)

func (s AmfState) String() string {
	switch s {
	case AmfWaitingNgSetup:
		return "WAITING-NG-SETUP"
	case AmfConnected:
		return "CONNECTED"
	default:
		return "NOT-CONNECTED"
	}
}

type AmfContext struct {
	CtxId   int
	Address string
	Port    int
	Name    string
	State   AmfState
	Conn    net.Conn

	Log *logrus.Entry
}

// UeAmbr is kept in the units received from the core, see the NGAP handlers.
type UeAmbr struct {
	Dl uint64
	Ul uint64
}

type NgapUeContext struct {
	CtxId       int
	AmfCtxId    int
	RanUeNgapId int64
	AmfUeNgapId int64
	UeAmbr      UeAmbr

	Log *logrus.Entry
}

func (ue *NgapUeContext) updateLog() {
	ue.Log = logger.NgapLog.WithFields(logrus.Fields{
		logger.FieldRanUeNgapID: ue.RanUeNgapId,
		logger.FieldAmfUeNgapID: ue.AmfUeNgapId,
	})
}

// SetAmfUeNgapId is the only way the AMF assigned id changes.
func (ue *NgapUeContext) SetAmfUeNgapId(id int64) {
	ue.AmfUeNgapId = id
	ue.updateLog()
}

// GnbContext is owned by the NGAP task.
type GnbContext struct {
	Config    *factory.GnbConfig
	PlmnId    [3]uint8
	Tac       []uint8
	GnbId     []uint8
	GnbIdBits uint64
	Nci       uint64

	amfs map[int]*AmfContext
	ues  map[int]*NgapUeContext

	ranUeNgapIdGenerator *idgenerator.IDGenerator
}

func NewGnbContext(cfg *factory.GnbConfig) (*GnbContext, error) {
	plmn, err := util.EncodePlmn(cfg.Mcc, cfg.Mnc)
	if err != nil {
		return nil, err
	}
	tac, err := hex.DecodeString(cfg.Tac)
	if err != nil || len(tac) != 3 {
		return nil, fmt.Errorf("invalid tac [%s]", cfg.Tac)
	}
	gnbId, err := hex.DecodeString(cfg.GnbId)
	if err != nil || len(gnbId) == 0 || len(gnbId) > 4 {
		return nil, fmt.Errorf("invalid gnb id [%s]", cfg.GnbId)
	}
	bits := uint64(cfg.GnbIdBits)
	if bits == 0 {
		bits = uint64(len(gnbId) * 8)
	}
	if bits < 22 || bits > 32 {
		return nil, fmt.Errorf("invalid gnb id length [%d]", bits)
	}
	nci, err := strconv.ParseUint(cfg.Nci, 16, 64)
	if err != nil || nci >= 1<<36 {
		return nil, fmt.Errorf("invalid nci [%s]", cfg.Nci)
	}
	return &GnbContext{
		Config:               cfg,
		PlmnId:               plmn,
		Tac:                  tac,
		GnbId:                gnbId,
		GnbIdBits:            bits,
		Nci:                  nci,
		amfs:                 make(map[int]*AmfContext),
		ues:                  make(map[int]*NgapUeContext),
		ranUeNgapIdGenerator: idgenerator.NewGenerator(1, MaxValueOfRanUeNgapId),
	}, nil
}

func (g *GnbContext) NewAmfContext(ctxId int, address string, port int) *AmfContext {
	amf := &AmfContext{
		CtxId:   ctxId,
		Address: address,
		Port:    port,
		State:   AmfNotConnected,
	}
	amf.Log = logger.NgapLog.WithField(logger.FieldAmfAddr, fmt.Sprintf("%s:%d", address, port))
	g.amfs[ctxId] = amf
	return amf
}

func (g *GnbContext) FindAmf(ctxId int) *AmfContext {
	return g.amfs[ctxId]
}

// SelectAmf returns the first connected AMF.
func (g *GnbContext) SelectAmf() *AmfContext {
	var selected *AmfContext
	for _, amf := range g.amfs {
		if amf.State != AmfConnected {
			continue
		}
		if selected == nil || amf.CtxId < selected.CtxId {
			selected = amf
		}
	}
	return selected
}

// NewUe creates the NGAP context of a UE on its first association and
// allocates the RAN UE NGAP ID.
func (g *GnbContext) NewUe(ctxId, amfCtxId int) (*NgapUeContext, error) {
	if _, exists := g.ues[ctxId]; exists {
		return nil, fmt.Errorf("ue context %d already exists", ctxId)
	}
	id, err := g.ranUeNgapIdGenerator.Allocate()
	if err != nil {
		return nil, fmt.Errorf("allocate ran ue ngap id: %w", err)
	}
	ue := &NgapUeContext{
		CtxId:       ctxId,
		AmfCtxId:    amfCtxId,
		RanUeNgapId: id,
		AmfUeNgapId: AmfUeNgapIdUnset,
	}
	ue.updateLog()
	g.ues[ctxId] = ue
	return ue, nil
}

func (g *GnbContext) FindUe(ctxId int) *NgapUeContext {
	return g.ues[ctxId]
}

func (g *GnbContext) FindUeByRanId(ranUeNgapId int64) *NgapUeContext {
	for _, ue := range g.ues {
		if ue.RanUeNgapId == ranUeNgapId {
			return ue
		}
	}
	return nil
}

func (g *GnbContext) FindUeByAmfId(amfUeNgapId int64) *NgapUeContext {
	for _, ue := range g.ues {
		if ue.AmfUeNgapId == amfUeNgapId {
			return ue
		}
	}
	return nil
}

// FindUeByNgapIdPair resolves a UE from the id pair of a UE associated
// message. A UE without an AMF id yet adopts the received one; a UE bound to
// another AMF id or another AMF association is not returned.
func (g *GnbContext) FindUeByNgapIdPair(amfCtxId int, amfUeNgapId, ranUeNgapId int64) *NgapUeContext {
	ue := g.FindUeByRanId(ranUeNgapId)
	if ue == nil {
		logger.NgapLog.Warnf("no ue context for RAN UE NGAP ID [%d]", ranUeNgapId)
		return nil
	}
	if ue.AmfCtxId != amfCtxId {
		ue.Log.Warnf("ue is associated with amf %d, message came from amf %d", ue.AmfCtxId, amfCtxId)
		return nil
	}
	if ue.AmfUeNgapId == AmfUeNgapIdUnset {
		ue.SetAmfUeNgapId(amfUeNgapId)
	} else if ue.AmfUeNgapId != amfUeNgapId {
		ue.Log.Warnf("inconsistent AMF UE NGAP ID [%d]", amfUeNgapId)
		return nil
	}
	return ue
}

func (g *GnbContext) DeleteUe(ctxId int) {
	ue, ok := g.ues[ctxId]
	if !ok {
		return
	}
	g.ranUeNgapIdGenerator.FreeID(ue.RanUeNgapId)
	delete(g.ues, ctxId)
}

func (g *GnbContext) Ues() []*NgapUeContext {
	list := make([]*NgapUeContext, 0, len(g.ues))
	for _, ue := range g.ues {
		list = append(list, ue)
	}
	return list
}
