// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

/*
 * UESIM Statistics exposing to promethus
 *
 */

package metrics

import (
	"fmt"
	"net/http"

	"github.com/omec-project/uesim/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// UesimStats captures simulator level stats
type UesimStats struct {
	nasMsg        *prometheus.CounterVec
	ngapMsg       *prometheus.CounterVec
	stateSwitch   *prometheus.CounterVec
	pduSessions   *prometheus.GaugeVec
	amfAssociated *prometheus.GaugeVec
}

var uesimStats *UesimStats

func initUesimStats() *UesimStats {
	return &UesimStats{
		nasMsg: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uesim_nas_messages_total",
			Help: "nas message counters",
		}, []string{"msg_type", "direction", "result"}),

		ngapMsg: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uesim_ngap_messages_total",
			Help: "ngap interface counters",
		}, []string{"msg_type", "direction", "result", "reason"}),

		stateSwitch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uesim_state_switch_total",
			Help: "ue state transitions",
		}, []string{"kind", "state"}),

		pduSessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "uesim_pdu_sessions",
			Help: "PDU sessions of the simulated UE",
		}, []string{"supi"}),

		amfAssociated: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "uesim_amf_association",
			Help: "NGAP association state per AMF",
		}, []string{"amf", "state"}),
	}
}

func (ps *UesimStats) register() error {
	collectors := []prometheus.Collector{
		ps.nasMsg, ps.ngapMsg, ps.stateSwitch, ps.pduSessions, ps.amfAssociated,
	}
	for _, c := range collectors {
		prometheus.Unregister(c)
		if err := prometheus.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	uesimStats = initUesimStats()

	if err := uesimStats.register(); err != nil {
		logger.MetricsLog.Errorln("UESIM Stats register failed", err)
	}
}

// InitMetrics serves the prometheus registry; it blocks.
func InitMetrics(bindingIPv4 string, port int) {
	if port == 0 {
		port = 9089
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf("%s:%d", bindingIPv4, port)
	logger.MetricsLog.Infof("metrics served on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.InitLog.Errorf("could not open metrics port: %v", err)
	}
}

// IncrementNasMsgStats increments NAS message level stats
func IncrementNasMsgStats(msgType, direction, result string) {
	uesimStats.nasMsg.WithLabelValues(msgType, direction, result).Inc()
}

// IncrementNgapMsgStats increments NGAP message level stats
func IncrementNgapMsgStats(msgType, direction, result, reason string) {
	uesimStats.ngapMsg.WithLabelValues(msgType, direction, result, reason).Inc()
}

func IncrementStateSwitchStats(kind, state string) {
	uesimStats.stateSwitch.WithLabelValues(kind, state).Inc()
}

func SetPduSessionStats(supi string, count int) {
	uesimStats.pduSessions.WithLabelValues(supi).Set(float64(count))
}

// SetAmfAssociationStats keeps a single state series per AMF at 1.
func SetAmfAssociationStats(amf, state string) {
	uesimStats.amfAssociated.DeletePartialMatch(prometheus.Labels{"amf": amf})
	uesimStats.amfAssociated.WithLabelValues(amf, state).Set(1)
}
