// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package util

import (
	"testing"
	"time"

	"github.com/omec-project/nas/nasMessage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNasTimerDeadline(t *testing.T) {
	now := time.Unix(1000, 0)
	timer := NewNasTimer(3580, 16*time.Second)
	assert.False(t, timer.IsRunning())
	assert.False(t, timer.PerformTick(now))

	timer.Start(now)
	assert.True(t, timer.IsRunning())
	assert.Equal(t, 16*time.Second, timer.Remaining(now))
	assert.False(t, timer.PerformTick(now.Add(15*time.Second)))
	assert.True(t, timer.PerformTick(now.Add(16*time.Second)))
	assert.False(t, timer.IsRunning())
	assert.Equal(t, 1, timer.ExpiryCount())

	// expiry reported once per arming
	assert.False(t, timer.PerformTick(now.Add(30*time.Second)))
}

func TestNasTimerStopAndDisarm(t *testing.T) {
	now := time.Unix(0, 0)
	timer := NewNasTimer(3521, 15*time.Second)
	timer.Start(now)
	require.True(t, timer.PerformTick(now.Add(time.Minute)))
	timer.Start(now)
	timer.Disarm()
	assert.False(t, timer.PerformTick(now.Add(time.Hour)))
	assert.Equal(t, 1, timer.ExpiryCount())

	timer.Stop()
	assert.Equal(t, 0, timer.ExpiryCount())
	assert.Equal(t, time.Duration(0), timer.Remaining(now))

	timer.StartWithInterval(now, 0)
	assert.False(t, timer.IsRunning())
}

func TestGprsTimerDecoding(t *testing.T) {
	d, ok := GprsTimer2ToDuration(0x05)
	assert.True(t, ok)
	assert.Equal(t, 10*time.Second, d)

	d, ok = GprsTimer2ToDuration(0x22)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Minute, d)

	_, ok = GprsTimer2ToDuration(0xe0)
	assert.False(t, ok)

	d, ok = GprsTimer3ToDuration(0x21)
	assert.True(t, ok)
	assert.Equal(t, time.Hour, d)

	d, ok = GprsTimer3ToDuration(0x66)
	assert.True(t, ok)
	assert.Equal(t, 12*time.Second, d)

	_, ok = GprsTimer3ToDuration(0xe1)
	assert.False(t, ok)
}

func TestEncodePlmn(t *testing.T) {
	plmn, err := EncodePlmn("208", "93")
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{0x02, 0xf8, 0x39}, plmn)

	plmn, err = EncodePlmn("310", "410")
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{0x13, 0x00, 0x14}, plmn)

	_, err = EncodePlmn("20", "93")
	assert.Error(t, err)
}

func TestEncodeSuci(t *testing.T) {
	suci, err := EncodeSuci("imsi-208930000000003", "208", "93", "0000")
	require.NoError(t, err)
	assert.Equal(t, []uint8{
		0x01, 0x02, 0xf8, 0x39, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x30,
	}, suci)

	_, err = EncodeSuci("imsi-001010000000001", "208", "93", "0000")
	assert.Error(t, err)

	_, err = EncodeSuci("nai-foo@bar", "208", "93", "0000")
	assert.Error(t, err)
}

func TestEncodeDigitIdentity(t *testing.T) {
	imei, err := EncodeDigitIdentity("356938035643803", nasMessage.MobileIdentity5GSTypeImei)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0x3b, 0x65, 0x39, 0x08, 0x53, 0x46, 0x83, 0x30}, imei)

	imeisv, err := EncodeDigitIdentity("4370816125816151", nasMessage.MobileIdentity5GSTypeImeisv)
	require.NoError(t, err)
	assert.Len(t, imeisv, 9)
	assert.Equal(t, uint8(0x45), imeisv[0])
	assert.Equal(t, uint8(0xf1), imeisv[8])
}

func TestHexKey(t *testing.T) {
	key, err := HexKey("8baf473f2f8fd09487cccbd7097c6862", 16)
	require.NoError(t, err)
	assert.Len(t, key, 16)

	_, err = HexKey("8000", 16)
	assert.Error(t, err)
}
