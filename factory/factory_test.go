// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2024 Canonical Ltd.
/*
 *  Tests for UESIM Configuration Factory
 */

package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigFactory(t *testing.T) {
	origConfig := UesimConfig
	defer func() { UesimConfig = origConfig }()
	require.NoError(t, InitConfigFactory("testdata/uesimcfg.yaml"))

	ue := UesimConfig.Configuration.Ue
	require.NotNil(t, ue)
	assert.Equal(t, "imsi-208930000000003", ue.Supi)
	assert.Equal(t, "208", ue.Mcc)
	assert.Equal(t, "93", ue.Mnc)
	assert.Equal(t, OpTypeOpc, ue.OpType)
	assert.True(t, ue.IsUplinkIntegrityFullRate())
	assert.False(t, ue.IsDownlinkIntegrityFullRate())
	require.Len(t, ue.Sessions, 1)
	assert.Equal(t, SessionTypeIPv4, ue.Sessions[0].Type)
	assert.Equal(t, "internet", ue.Sessions[0].Apn)
	require.NotNil(t, ue.Sessions[0].Slice)
	assert.Equal(t, int32(1), ue.Sessions[0].Slice.Sst)
	assert.Equal(t, "010203", ue.Sessions[0].Slice.Sd)

	gnb := UesimConfig.Configuration.Gnb
	require.NotNil(t, gnb)
	require.Len(t, gnb.AmfConfigs, 1)
	assert.Equal(t, 38412, gnb.AmfConfigs[0].Port)
	assert.False(t, UesimConfig.Configuration.KafkaInfo.IsEnabled())
	assert.Nil(t, UesimConfig.Configuration.Telemetry)

	assert.NoError(t, CheckConfigVersion())
}

func TestRoutingIndicatorDefault(t *testing.T) {
	origConfig := UesimConfig
	defer func() { UesimConfig = origConfig }()
	require.NoError(t, InitConfigFactory("testdata/telemetry.yaml"))

	ue := UesimConfig.Configuration.Ue
	assert.Equal(t, DefaultRoutingIndicator, ue.GetRoutingIndicator())
	assert.True(t, ue.IsUplinkIntegrityFullRate())
	assert.True(t, ue.IsDownlinkIntegrityFullRate())
}

func TestTelemetryConfigEnabled(t *testing.T) {
	origConfig := UesimConfig
	defer func() { UesimConfig = origConfig }()
	require.NoError(t, InitConfigFactory("testdata/telemetry.yaml"))

	tel := UesimConfig.Configuration.Telemetry
	require.NotNil(t, tel)
	assert.True(t, tel.Enabled)
	assert.Equal(t, "otel-collector:4317", tel.OtlpEndpoint)
	assert.InDelta(t, 0.5, tel.Ratio, 1e-9)
}

func TestCheckConfigVersionMismatch(t *testing.T) {
	origConfig := UesimConfig
	defer func() { UesimConfig = origConfig }()
	require.NoError(t, InitConfigFactory("testdata/bad_version.yaml"))

	err := CheckConfigVersion()
	assert.Error(t, err)
}

func TestInitConfigFactoryMissingFile(t *testing.T) {
	origConfig := UesimConfig
	defer func() { UesimConfig = origConfig }()
	assert.Error(t, InitConfigFactory("testdata/does_not_exist.yaml"))
}

func TestUpdateConfigLogger(t *testing.T) {
	origConfig := UesimConfig
	defer func() { UesimConfig = origConfig }()
	require.NoError(t, InitConfigFactory("testdata/uesimcfg.yaml"))

	newConfig, err := UpdateConfig("testdata/telemetry.yaml")
	require.NoError(t, err)
	require.NotNil(t, newConfig.Logger)
	require.NotNil(t, newConfig.Logger.UESIM)
	assert.Equal(t, "debug", newConfig.Logger.UESIM.DebugLevel)
	assert.Equal(t, "debug", UesimConfig.Logger.UESIM.DebugLevel)
	// identity changes are reported but not applied
	assert.Equal(t, "imsi-208930000000003", UesimConfig.Configuration.Ue.Supi)
}
