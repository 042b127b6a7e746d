// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package context

import (
	"time"

	"github.com/google/uuid"
	"github.com/omec-project/nas"
	"github.com/omec-project/nas/nasMessage"
	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/logger"
	"github.com/sirupsen/logrus"
)

type DeregCause uint8

const (
	DeregCauseUnspecified DeregCause = iota
	DeregCauseSwitchOff
	DeregCauseUsimRemoval
	DeregCauseDisable5g
	DeregCauseEcallInactivity
)

func (c DeregCause) String() string {
	switch c {
	case DeregCauseSwitchOff:
		return "switch-off"
	case DeregCauseUsimRemoval:
		return "usim-removal"
	case DeregCauseDisable5g:
		return "disable-5g"
	case DeregCauseEcallInactivity:
		return "ecall-inactivity"
	default:
		return "normal"
	}
}

// UeContext is the MM context of one simulated terminal. It is owned by the
// NAS task and never shared with another goroutine.
type UeContext struct {
	InstanceId string
	Config     *factory.UeConfig
	Usim       *Usim
	Timers     *UeTimers

	RmState RmState
	CmState CmState
	MmState MmState

	LastRegistrationRequest   *nas.Message
	LastRegistrationType      uint8
	LastDeregistrationRequest *nas.Message
	LastDeregCause            DeregCause

	RegAttemptCounter      int
	RegisteredForEmergency bool
	HasActiveCell          bool
	LastPlmnSearchTrigger  time.Time

	// authentication state kept between request and security mode command
	Rand    []uint8
	ResStar []uint8

	Log *logrus.Entry
}

func NewUeContext(cfg *factory.UeConfig) (*UeContext, error) {
	usim, err := NewUsim(cfg)
	if err != nil {
		return nil, err
	}
	ue := &UeContext{
		InstanceId: uuid.New().String(),
		Config:     cfg,
		Usim:       usim,
		Timers:     NewUeTimers(),
		RmState:    RmDeregistered,
		CmState:    CmIdle,
		MmState:    MmDeregisteredNa,
	}
	ue.Log = logger.GmmLog.WithField(logger.FieldSupi, cfg.Supi)
	return ue, nil
}

// IsInitialOrEmergencyRegistration reports the type of the registration
// request currently in flight.
func (ue *UeContext) IsInitialOrEmergencyRegistration() bool {
	return ue.LastRegistrationType == nasMessage.RegistrationType5GSInitialRegistration ||
		ue.LastRegistrationType == nasMessage.RegistrationType5GSEmergencyRegistration
}

func (ue *UeContext) IsSwitchOffDeregistration() bool {
	return ue.LastDeregCause == DeregCauseSwitchOff
}
