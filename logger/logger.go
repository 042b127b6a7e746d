// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package logger

import (
	"os"
	"time"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/omec-project/logger_util"
	"github.com/sirupsen/logrus"
)

var (
	log        *logrus.Logger
	AppLog     *logrus.Entry
	InitLog    *logrus.Entry
	CfgLog     *logrus.Entry
	ContextLog *logrus.Entry
	GmmLog     *logrus.Entry
	GsmLog     *logrus.Entry
	NasLog     *logrus.Entry
	NgapLog    *logrus.Entry
	RrcLog     *logrus.Entry
	GtpLog     *logrus.Entry
	RlsLog     *logrus.Entry
	UtilLog    *logrus.Entry
	GinLog     *logrus.Entry
	KafkaLog   *logrus.Entry
	MetricsLog *logrus.Entry
	TracingLog *logrus.Entry
	OamLog     *logrus.Entry
)

const (
	FieldSupi        string = "supi"
	FieldRanUeNgapID string = "ran_ue_ngap_id"
	FieldAmfUeNgapID string = "amf_ue_ngap_id"
	FieldAmfAddr     string = "amf_addr"
	FieldPsi         string = "psi"
)

const LogFilePath = "/var/log/uesim.log"

func init() {
	log = logrus.New()
	log.SetReportCaller(false)

	log.Formatter = &formatter.Formatter{
		TimestampFormat: time.RFC3339,
		TrimMessages:    true,
		NoFieldsSpace:   true,
		HideKeys:        true,
		FieldsOrder:     []string{"component", "category"},
	}

	if selfLogHook, err := logger_util.NewFileHook(LogFilePath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o666); err == nil {
		log.Hooks.Add(selfLogHook)
	}

	AppLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "App"})
	InitLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "Init"})
	CfgLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "CFG"})
	ContextLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "Context"})
	GmmLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "MM"})
	GsmLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "SM"})
	NasLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "NAS"})
	NgapLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "NGAP"})
	RrcLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "RRC"})
	GtpLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "GTP"})
	RlsLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "RLS"})
	UtilLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "Util"})
	GinLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "GIN"})
	KafkaLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "Kafka"})
	MetricsLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "Metrics"})
	TracingLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "Tracing"})
	OamLog = log.WithFields(logrus.Fields{"component": "UESIM", "category": "OAM"})
}

func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

func SetReportCaller(enable bool) {
	log.SetReportCaller(enable)
}
