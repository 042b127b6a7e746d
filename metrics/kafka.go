// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mi "github.com/omec-project/metricfunc/pkg/metricinfo"
	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/logger"
	"github.com/segmentio/kafka-go"
)

type Writer struct {
	kafkaWriter *kafka.Writer
}

var StatWriter Writer

func InitialiseKafkaStream(config *factory.Configuration) error {
	if !config.KafkaInfo.IsEnabled() {
		logger.KafkaLog.Info("Kafka disabled")
		return nil
	}

	brokerUrl := "sd-core-kafka-headless:9092"
	topicName := "sdcore-data-source-uesim"

	if config.KafkaInfo.BrokerUri != "" && config.KafkaInfo.BrokerPort != 0 {
		brokerUrl = fmt.Sprintf("%s:%d", config.KafkaInfo.BrokerUri, config.KafkaInfo.BrokerPort)
	}
	logger.KafkaLog.Debugf("initialise kafka broker url [%v]", brokerUrl)

	if config.KafkaInfo.Topic != "" {
		topicName = config.KafkaInfo.Topic
	}
	logger.KafkaLog.Debugf("initialise kafka Topic [%v]", config.KafkaInfo.Topic)

	producer := kafka.Writer{
		Addr:         kafka.TCP(brokerUrl),
		Topic:        topicName,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	StatWriter = Writer{
		kafkaWriter: &producer,
	}

	logger.KafkaLog.Debugf("initialising kafka stream with url[%v], topic[%v]", brokerUrl, topicName)
	return nil
}

func GetWriter() Writer {
	return StatWriter
}

func (writer Writer) Enabled() bool {
	return writer.kafkaWriter != nil
}

func (writer Writer) SendMessage(message []byte) error {
	if writer.kafkaWriter == nil {
		return fmt.Errorf("kafka stream is not initialised")
	}
	msg := kafka.Message{Value: message}
	return writer.kafkaWriter.WriteMessages(context.Background(), msg)
}

func (writer Writer) PublishUeCtxtEvent(ctxt mi.CoreSubscriber, op mi.SubscriberOp) error {
	ueKafkaEvt := mi.MetricEvent{
		EventType:      mi.CSubscriberEvt,
		SubscriberData: mi.CoreSubscriberData{Subscriber: ctxt, Operation: op},
	}
	msg, err := json.Marshal(ueKafkaEvt)
	if err != nil {
		logger.KafkaLog.Errorf("publishing ue context event error [%v] ", err.Error())
		return err
	}
	logger.KafkaLog.Debugf("publishing ue context event[%s] ", msg)
	if err := writer.SendMessage(msg); err != nil {
		logger.KafkaLog.Errorf("could not publish ue context event, error [%v]", err.Error())
	}
	return nil
}

func (writer Writer) PublishNfStatusEvent(msgEvent mi.MetricEvent) error {
	msg, err := json.Marshal(msgEvent)
	if err != nil {
		return err
	}
	logger.KafkaLog.Debugf("publishing nf status event[%s] ", msg)
	if err := writer.SendMessage(msg); err != nil {
		logger.KafkaLog.Errorf("error publishing nf status event: %v", err)
	}
	return nil
}

// PublishGnbStatus reports the NG association of the simulated gNB.
func (writer Writer) PublishGnbStatus(gnbName string, connected bool) {
	if !writer.Enabled() {
		return
	}
	status := mi.NfStatusDisconnected
	if connected {
		status = mi.NfStatusConnected
	}
	event := mi.MetricEvent{
		EventType: mi.CNfStatusEvt,
		NfStatusData: mi.CNfStatus{
			NfType:   mi.NfTypeGnb,
			NfStatus: status,
			NfName:   gnbName,
		},
	}
	if err := writer.PublishNfStatusEvent(event); err != nil {
		logger.KafkaLog.Errorf("could not publish gnb status: %v", err)
	}
}
