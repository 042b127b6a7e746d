// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package util

import (
	"github.com/omec-project/path_util"
)

var (
	UesimLogPath           = path_util.Free5gcPath("free5gc/uesimsslkey.log")
	DefaultUesimConfigPath = path_util.Free5gcPath("free5gc/config/uesimcfg.yaml")
)
