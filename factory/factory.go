// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

/*
 * UESIM Configuration Factory
 */

package factory

import (
	"fmt"
	"os"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/omec-project/uesim/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

var UesimConfig Config

func InitConfigFactory(f string) error {
	content, err := os.ReadFile(f)
	if err != nil {
		return err
	}
	UesimConfig = Config{}
	if yamlErr := yaml.Unmarshal(content, &UesimConfig); yamlErr != nil {
		return yamlErr
	}
	if UesimConfig.Configuration == nil {
		return fmt.Errorf("config file [%s] has no configuration section", f)
	}
	return nil
}

// UpdateConfig re-reads the file through viper. Only the logger section is
// applied at runtime; identity and session changes need a restart.
func UpdateConfig(f string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(f)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var newConfig Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		Result:           &newConfig,
	})
	if err != nil {
		return nil, err
	}
	if err = decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode updated config: %w", err)
	}

	if !reflect.DeepEqual(UesimConfig.Logger, newConfig.Logger) {
		logger.CfgLog.Infoln("logger configuration updated")
		UesimConfig.Logger = newConfig.Logger
	}
	if newConfig.Configuration != nil && UesimConfig.Configuration != nil &&
		!reflect.DeepEqual(UesimConfig.Configuration.Ue, newConfig.Configuration.Ue) {
		logger.CfgLog.Warnln("ue configuration changed, restart required to apply it")
	}
	return &newConfig, nil
}

func CheckConfigVersion() error {
	currentVersion := UesimConfig.GetVersion()

	if currentVersion != UESIM_EXPECTED_CONFIG_VERSION {
		return fmt.Errorf("config version is [%s], but expected is [%s]",
			currentVersion, UESIM_EXPECTED_CONFIG_VERSION)
	}

	logger.CfgLog.Infof("config version [%s]", currentVersion)

	return nil
}
