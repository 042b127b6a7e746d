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
	"github.com/omec-project/openapi/models"
)

const (
	UESIM_EXPECTED_CONFIG_VERSION = "1.0.0"
)

const (
	OpTypeOp  = "OP"
	OpTypeOpc = "OPC"

	IntegrityRateFull   = "full"
	IntegrityRate64kbps = "64kbps"

	SessionTypeIPv4   = "IPv4"
	SessionTypeIPv6   = "IPv6"
	SessionTypeIPv4v6 = "IPv4v6"

	DefaultRoutingIndicator = "0000"
)

type Config struct {
	Info          *Info          `yaml:"info"`
	Configuration *Configuration `yaml:"configuration"`
	Logger        *Logger        `yaml:"logger"`
}

type Info struct {
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type Logger struct {
	UESIM *LogSetting `yaml:"UESIM,omitempty"`
	NAS   *LogSetting `yaml:"NAS,omitempty"`
	NGAP  *LogSetting `yaml:"NGAP,omitempty"`
	Aper  *LogSetting `yaml:"Aper,omitempty"`
	FSM   *LogSetting `yaml:"FSM,omitempty"`
}

type LogSetting struct {
	DebugLevel   string `yaml:"debugLevel,omitempty"`
	ReportCaller bool   `yaml:"ReportCaller,omitempty"`
}

type Configuration struct {
	Ue        *UeConfig  `yaml:"ue,omitempty"`
	Gnb       *GnbConfig `yaml:"gnb,omitempty"`
	Oam       *Oam       `yaml:"oam,omitempty"`
	Metrics   *Metrics   `yaml:"metrics,omitempty"`
	KafkaInfo KafkaInfo  `yaml:"kafkaInfo,omitempty"`
	Telemetry *Telemetry `yaml:"telemetry,omitempty"`
}

type UeConfig struct {
	Supi             string           `yaml:"supi"`
	Mcc              string           `yaml:"mcc"`
	Mnc              string           `yaml:"mnc"`
	RoutingIndicator string           `yaml:"routingIndicator,omitempty"`
	Key              string           `yaml:"key"`
	Op               string           `yaml:"op"`
	OpType           string           `yaml:"opType"`
	Amf              string           `yaml:"amf"`
	Imei             string           `yaml:"imei,omitempty"`
	Imeisv           string           `yaml:"imeisv,omitempty"`
	IntegrityMaxRate IntegrityMaxRate `yaml:"integrityMaxRate,omitempty"`
	Integrity        AlgorithmSet     `yaml:"integrity,omitempty"`
	Ciphering        AlgorithmSet     `yaml:"ciphering,omitempty"`
	ConfiguredNssai  []models.Snssai  `yaml:"configuredNssai,omitempty"`
	Sessions         []SessionConfig  `yaml:"sessions,omitempty"`
	EcallOnly        bool             `yaml:"ecallOnly,omitempty"`
}

type IntegrityMaxRate struct {
	Uplink   string `yaml:"uplink,omitempty"`
	Downlink string `yaml:"downlink,omitempty"`
}

// AlgorithmSet lists the optional 128-bit algorithms supported by the UE.
// The null algorithm is always supported.
type AlgorithmSet struct {
	Alg1 bool `yaml:"alg1,omitempty"`
	Alg2 bool `yaml:"alg2,omitempty"`
	Alg3 bool `yaml:"alg3,omitempty"`
}

type SessionConfig struct {
	Type      string         `yaml:"type"`
	Apn       string         `yaml:"apn,omitempty"`
	Slice     *models.Snssai `yaml:"slice,omitempty"`
	Emergency bool           `yaml:"emergency,omitempty"`
}

type GnbConfig struct {
	Name       string          `yaml:"name,omitempty"`
	GnbId      string          `yaml:"gnbId"`
	GnbIdBits  int             `yaml:"gnbIdBits,omitempty"`
	Nci        string          `yaml:"nci"`
	Mcc        string          `yaml:"mcc"`
	Mnc        string          `yaml:"mnc"`
	Tac        string          `yaml:"tac"`
	NgapIp     string          `yaml:"ngapIp,omitempty"`
	AmfConfigs []AmfConfig     `yaml:"amfConfigs,omitempty"`
	Slices     []models.Snssai `yaml:"slices,omitempty"`
}

type AmfConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

type Oam struct {
	BindingIPv4 string `yaml:"bindingIPv4,omitempty"`
	Port        int    `yaml:"port,omitempty"`
}

type Metrics struct {
	Enabled     bool   `yaml:"enabled,omitempty"`
	BindingIPv4 string `yaml:"bindingIPv4,omitempty"`
	Port        int    `yaml:"port,omitempty"`
}

type KafkaInfo struct {
	EnableKafka *bool  `yaml:"enableKafka,omitempty"`
	BrokerUri   string `yaml:"brokerUri,omitempty"`
	BrokerPort  int    `yaml:"brokerPort,omitempty"`
	Topic       string `yaml:"topicName,omitempty"`
}

type Telemetry struct {
	Enabled      bool    `yaml:"enabled"`
	OtlpEndpoint string  `yaml:"otlp_endpoint"`
	Ratio        float64 `yaml:"ratio,omitempty"`
}

func (c *Config) GetVersion() string {
	if c.Info != nil && c.Info.Version != "" {
		return c.Info.Version
	}
	return ""
}

func (u *UeConfig) GetRoutingIndicator() string {
	if u.RoutingIndicator == "" {
		return DefaultRoutingIndicator
	}
	return u.RoutingIndicator
}

func (u *UeConfig) IsUplinkIntegrityFullRate() bool {
	return u.IntegrityMaxRate.Uplink != IntegrityRate64kbps
}

func (u *UeConfig) IsDownlinkIntegrityFullRate() bool {
	return u.IntegrityMaxRate.Downlink != IntegrityRate64kbps
}

func (k *KafkaInfo) IsEnabled() bool {
	return k.EnableKafka != nil && *k.EnableKafka
}
