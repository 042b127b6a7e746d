// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0
package service

import (
	"flag"
	"testing"

	"github.com/omec-project/uesim/factory"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func newCliContext(t *testing.T, cfg string) *cli.Context {
	t.Helper()
	flags := flag.NewFlagSet("uesim", flag.ContinueOnError)
	flags.String("cfg", "", "")
	require.NoError(t, flags.Parse([]string{"-cfg", cfg}))
	return cli.NewContext(nil, flags, nil)
}

func TestInitialize(t *testing.T) {
	origConfig := factory.UesimConfig
	defer func() { factory.UesimConfig = origConfig }()

	u := &UESIM{}
	require.NoError(t, u.Initialize(newCliContext(t, "../factory/testdata/uesimcfg.yaml")))
	assert.Equal(t, "imsi-208930000000003", factory.UesimConfig.Configuration.Ue.Supi)
}

func TestInitializeBadVersion(t *testing.T) {
	origConfig := factory.UesimConfig
	defer func() { factory.UesimConfig = origConfig }()

	u := &UESIM{}
	assert.Error(t, u.Initialize(newCliContext(t, "../factory/testdata/bad_version.yaml")))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, parseLevel(&factory.LogSetting{DebugLevel: "debug"}, "UESIM"))
	assert.Equal(t, logrus.InfoLevel, parseLevel(&factory.LogSetting{DebugLevel: "loud"}, "UESIM"))
	assert.Equal(t, logrus.InfoLevel, parseLevel(&factory.LogSetting{}, "UESIM"))
}
