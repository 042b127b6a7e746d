// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package context

import (
	"time"

	"github.com/omec-project/uesim/util"
)

// default values from TS 24.501 table 10.2.1
const (
	T3444DefaultValue = 60 * time.Minute
	T3445DefaultValue = 12 * time.Hour
	T3502DefaultValue = 12 * time.Minute
	T3510DefaultValue = 15 * time.Second
	T3511DefaultValue = 10 * time.Second
	T3512DefaultValue = 54 * time.Minute
	T3517DefaultValue = 15 * time.Second
	T3519DefaultValue = 60 * time.Second
	T3520DefaultValue = 15 * time.Second
	T3521DefaultValue = 15 * time.Second
	T3580DefaultValue = 16 * time.Second
	T3582DefaultValue = 16 * time.Second
)

const (
	MaxT3521Retransmission = 4
	MaxT3580Retransmission = 4
	MaxT3582Retransmission = 4
	MaxRegAttemptCounter   = 5
	MaxT3520Expiry         = 3
)

type UeTimers struct {
	T3346 *util.NasTimer
	T3444 *util.NasTimer
	T3445 *util.NasTimer
	T3502 *util.NasTimer
	T3510 *util.NasTimer
	T3511 *util.NasTimer
	T3512 *util.NasTimer
	T3517 *util.NasTimer
	T3519 *util.NasTimer
	T3520 *util.NasTimer
	T3521 *util.NasTimer
}

func NewUeTimers() *UeTimers {
	return &UeTimers{
		T3346: util.NewNasTimer(3346, 0),
		T3444: util.NewNasTimer(3444, T3444DefaultValue),
		T3445: util.NewNasTimer(3445, T3445DefaultValue),
		T3502: util.NewNasTimer(3502, T3502DefaultValue),
		T3510: util.NewNasTimer(3510, T3510DefaultValue),
		T3511: util.NewNasTimer(3511, T3511DefaultValue),
		T3512: util.NewNasTimer(3512, T3512DefaultValue),
		T3517: util.NewNasTimer(3517, T3517DefaultValue),
		T3519: util.NewNasTimer(3519, T3519DefaultValue),
		T3520: util.NewNasTimer(3520, T3520DefaultValue),
		T3521: util.NewNasTimer(3521, T3521DefaultValue),
	}
}

func (t *UeTimers) All() []*util.NasTimer {
	return []*util.NasTimer{
		t.T3346, t.T3444, t.T3445, t.T3502, t.T3510, t.T3511,
		t.T3512, t.T3517, t.T3519, t.T3520, t.T3521,
	}
}
