// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package util

import (
	"fmt"
	"time"

	"github.com/omec-project/nas/nasMessage"
)

// NasTimer is a cooperative protocol timer. It never fires on its own: the
// owning task calls PerformTick with the time read at the start of its
// cycle and handles the expiry itself.
type NasTimer struct {
	code        int
	interval    time.Duration
	deadline    time.Time
	armed       bool
	expiryCount int
}

func NewNasTimer(code int, interval time.Duration) *NasTimer {
	return &NasTimer{
		code:     code,
		interval: interval,
	}
}

func (t *NasTimer) Code() int {
	return t.code
}

func (t *NasTimer) Interval() time.Duration {
	return t.interval
}

func (t *NasTimer) Start(now time.Time) {
	t.StartWithInterval(now, t.interval)
}

// StartWithInterval arms the timer and makes interval the new default.
// A zero interval leaves the timer stopped.
func (t *NasTimer) StartWithInterval(now time.Time, interval time.Duration) {
	t.interval = interval
	if interval <= 0 {
		t.armed = false
		return
	}
	t.deadline = now.Add(interval)
	t.armed = true
}

// Stop disarms the timer and clears the expiry counter.
func (t *NasTimer) Stop() {
	t.armed = false
	t.expiryCount = 0
}

// Disarm keeps the expiry counter so retransmission limits survive a restart.
func (t *NasTimer) Disarm() {
	t.armed = false
}

func (t *NasTimer) IsRunning() bool {
	return t.armed
}

func (t *NasTimer) ExpiryCount() int {
	return t.expiryCount
}

// Remaining returns zero for a stopped timer.
func (t *NasTimer) Remaining(now time.Time) time.Duration {
	if !t.armed {
		return 0
	}
	if d := t.deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// PerformTick reports an expiry exactly once per arming.
func (t *NasTimer) PerformTick(now time.Time) bool {
	if !t.armed || now.Before(t.deadline) {
		return false
	}
	t.armed = false
	t.expiryCount++
	return true
}

func (t *NasTimer) String() string {
	if t.armed {
		return fmt.Sprintf("T%d[running %v]", t.code, t.interval)
	}
	return fmt.Sprintf("T%d[stopped]", t.code)
}

// GprsTimer2ToDuration decodes a GPRS timer 2 value (3GPP TS 24.008 10.5.7.4).
// The second return value is false when the timer is deactivated.
func GprsTimer2ToDuration(octet uint8) (time.Duration, bool) {
	value := time.Duration(octet & 0x1f)
	switch octet >> 5 {
	case 0:
		return value * 2 * time.Second, true
	case 1:
		return value * time.Minute, true
	case 2:
		return value * 6 * time.Minute, true
	case 7:
		return 0, false
	default:
		return value * time.Minute, true
	}
}

// GprsTimer3ToDuration decodes a GPRS timer 3 value (3GPP TS 24.008 10.5.7.4a).
func GprsTimer3ToDuration(octet uint8) (time.Duration, bool) {
	value := time.Duration(octet & 0x1f)
	switch octet >> 5 {
	case nasMessage.GPRSTimer3UnitMultiplesOf10Minutes:
		return value * 10 * time.Minute, true
	case nasMessage.GPRSTimer3UnitMultiplesOf1Hour:
		return value * time.Hour, true
	case nasMessage.GPRSTimer3UnitMultiplesOf10Hours:
		return value * 10 * time.Hour, true
	case nasMessage.GPRSTimer3UnitMultiplesOf2Seconds:
		return value * 2 * time.Second, true
	case nasMessage.GPRSTimer3UnitMultiplesOf30Seconds:
		return value * 30 * time.Second, true
	case nasMessage.GPRSTimer3UnitMultiplesOf1Minute:
		return value * time.Minute, true
	case 6:
		return value * 320 * time.Hour, true
	default:
		return 0, false
	}
}
