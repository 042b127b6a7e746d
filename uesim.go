// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package main

import (
	"fmt"
	"os"

	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/uesim/service"
	"github.com/urfave/cli"
)

var UESIM = &service.UESIM{}

func main() {
	app := cli.NewApp()
	app.Name = "uesim"
	logger.AppLog.Infoln(app.Name)
	app.Usage = "5G UE and gNB simulator"
	app.UsageText = "uesim -cfg <uesim_config_file.yaml>"
	app.Action = action
	app.Flags = UESIM.GetCliCmd()
	if err := app.Run(os.Args); err != nil {
		logger.AppLog.Fatalf("UESIM run error: %v", err)
	}
}

func action(c *cli.Context) error {
	if err := UESIM.Initialize(c); err != nil {
		logger.CfgLog.Errorf("%+v", err)
		return fmt.Errorf("failed to initialize")
	}

	UESIM.WatchConfig()

	UESIM.Start()

	return nil
}
