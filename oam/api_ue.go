// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package oam

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/omec-project/openapi/models"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/factory"
	gmm_message "github.com/omec-project/uesim/gmm/message"
	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
)

const DefaultTimeout = 2 * time.Second

var errTaskTimeout = errors.New("task did not answer in time")

// Tasks holds the inboxes the OAM handlers talk to. A nil inbox makes the
// matching routes answer 503.
type Tasks struct {
	Nas     chan<- taskmsgtypes.NasMessage
	Ngap    chan<- taskmsgtypes.NgapMessage
	Gtp     chan<- taskmsgtypes.GtpMessage
	App     chan<- taskmsgtypes.AppMessage
	Timeout time.Duration
}

type ServiceRequestData struct {
	// "signalling" or "data"
	ServiceType string `json:"serviceType"`
}

type DeregisterData struct {
	SwitchOff bool `json:"switchOff"`
	Disable5g bool `json:"disable5g"`
}

type PduSessionData struct {
	Type      string         `json:"type"`
	Apn       string         `json:"apn,omitempty"`
	Slice     *models.Snssai `json:"slice,omitempty"`
	Emergency bool           `json:"emergency,omitempty"`
}

func (tasks *Tasks) timeout() time.Duration {
	if tasks.Timeout == 0 {
		return DefaultTimeout
	}
	return tasks.Timeout
}

// query posts msg with send and waits for the reply on reply.
func query[T any](tasks *Tasks, send func() bool, reply chan T) (T, error) {
	var zero T
	timer := time.NewTimer(tasks.timeout())
	defer timer.Stop()
	if !send() {
		return zero, errTaskTimeout
	}
	select {
	case rsp := <-reply:
		return rsp, nil
	case <-timer.C:
		return zero, errTaskTimeout
	}
}

func post[T any](inbox chan<- T, msg T, timeout time.Duration) bool {
	select {
	case inbox <- msg:
		return true
	case <-time.After(timeout):
		return false
	}
}

func problem(c *gin.Context, status int, cause, detail string) {
	c.JSON(status, models.ProblemDetails{
		Status: int32(status),
		Cause:  cause,
		Detail: detail,
	})
}

func (tasks *Tasks) HTTPGetUeStatus(c *gin.Context) {
	if tasks.Nas == nil {
		problem(c, http.StatusServiceUnavailable, "UE_NOT_RUNNING", "")
		return
	}
	reply := make(chan taskmsgtypes.UeStatus, 1)
	status, err := query(tasks, func() bool {
		return post(tasks.Nas, taskmsgtypes.NasMessage(taskmsgtypes.StatusQuery{Reply: reply}), tasks.timeout())
	}, reply)
	if err != nil {
		logger.OamLog.Errorf("UE status query: %v", err)
		problem(c, http.StatusGatewayTimeout, "SYSTEM_FAILURE", err.Error())
		return
	}
	c.JSON(http.StatusOK, status)
}

func (tasks *Tasks) HTTPGetPduSessions(c *gin.Context) {
	if tasks.App == nil {
		problem(c, http.StatusServiceUnavailable, "UE_NOT_RUNNING", "")
		return
	}
	reply := make(chan []taskmsgtypes.SessionInfo, 1)
	sessions, err := query(tasks, func() bool {
		return post(tasks.App, taskmsgtypes.AppMessage(taskmsgtypes.SessionStatusQuery{Reply: reply}), tasks.timeout())
	}, reply)
	if err != nil {
		logger.OamLog.Errorf("PDU session query: %v", err)
		problem(c, http.StatusGatewayTimeout, "SYSTEM_FAILURE", err.Error())
		return
	}
	if sessions == nil {
		sessions = []taskmsgtypes.SessionInfo{}
	}
	c.JSON(http.StatusOK, sessions)
}

func (tasks *Tasks) HTTPGetNgapUes(c *gin.Context) {
	if tasks.Ngap == nil {
		problem(c, http.StatusServiceUnavailable, "GNB_NOT_RUNNING", "")
		return
	}
	reply := make(chan []taskmsgtypes.NgapUeInfo, 1)
	ues, err := query(tasks, func() bool {
		return post(tasks.Ngap, taskmsgtypes.NgapMessage(taskmsgtypes.NgapStatusQuery{Reply: reply}), tasks.timeout())
	}, reply)
	if err != nil {
		logger.OamLog.Errorf("NGAP UE query: %v", err)
		problem(c, http.StatusGatewayTimeout, "SYSTEM_FAILURE", err.Error())
		return
	}
	c.JSON(http.StatusOK, ues)
}

func (tasks *Tasks) HTTPGetGtpUes(c *gin.Context) {
	if tasks.Gtp == nil {
		problem(c, http.StatusServiceUnavailable, "GNB_NOT_RUNNING", "")
		return
	}
	reply := make(chan []taskmsgtypes.GtpUeInfo, 1)
	ues, err := query(tasks, func() bool {
		return post(tasks.Gtp, taskmsgtypes.GtpMessage(taskmsgtypes.GtpStatusQuery{Reply: reply}), tasks.timeout())
	}, reply)
	if err != nil {
		logger.OamLog.Errorf("GTP UE query: %v", err)
		problem(c, http.StatusGatewayTimeout, "SYSTEM_FAILURE", err.Error())
		return
	}
	c.JSON(http.StatusOK, ues)
}

func (tasks *Tasks) HTTPServiceRequest(c *gin.Context) {
	var data ServiceRequestData
	if err := c.ShouldBindJSON(&data); err != nil {
		problem(c, http.StatusBadRequest, "MALFORMED_REQUEST", err.Error())
		return
	}
	var serviceType uint8
	switch data.ServiceType {
	case "", "signalling":
		serviceType = gmm_message.ServiceTypeSignalling
	case "data":
		serviceType = gmm_message.ServiceTypeData
	default:
		problem(c, http.StatusBadRequest, "INVALID_MSG_FORMAT",
			fmt.Sprintf("unknown service type [%s]", data.ServiceType))
		return
	}
	tasks.sendToNas(c, taskmsgtypes.ServiceRequest{ServiceType: serviceType})
}

func (tasks *Tasks) HTTPDeregister(c *gin.Context) {
	var data DeregisterData
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&data); err != nil {
			problem(c, http.StatusBadRequest, "MALFORMED_REQUEST", err.Error())
			return
		}
	}
	cause := context.DeregCauseUnspecified
	switch {
	case data.SwitchOff:
		cause = context.DeregCauseSwitchOff
	case data.Disable5g:
		cause = context.DeregCauseDisable5g
	}
	tasks.sendToNas(c, taskmsgtypes.Deregister{Cause: cause})
}

func (tasks *Tasks) HTTPEstablishPduSession(c *gin.Context) {
	var data PduSessionData
	if err := c.ShouldBindJSON(&data); err != nil {
		problem(c, http.StatusBadRequest, "MALFORMED_REQUEST", err.Error())
		return
	}
	switch data.Type {
	case "":
		data.Type = factory.SessionTypeIPv4
	case factory.SessionTypeIPv4, factory.SessionTypeIPv6, factory.SessionTypeIPv4v6:
	default:
		problem(c, http.StatusBadRequest, "INVALID_MSG_FORMAT",
			fmt.Sprintf("unknown PDU session type [%s]", data.Type))
		return
	}
	tasks.sendToNas(c, taskmsgtypes.EstablishSession{Session: factory.SessionConfig{
		Type:      data.Type,
		Apn:       data.Apn,
		Slice:     data.Slice,
		Emergency: data.Emergency,
	}})
}

func (tasks *Tasks) HTTPReleasePduSession(c *gin.Context) {
	psi, err := strconv.ParseUint(c.Param("psi"), 10, 8)
	if err != nil || !context.Psi(psi).IsValid() {
		problem(c, http.StatusBadRequest, "INVALID_MSG_FORMAT",
			fmt.Sprintf("PSI must be in [%d, %d]", context.MinPsi, context.MaxPsi))
		return
	}
	tasks.sendToNas(c, taskmsgtypes.ReleaseSession{Psi: uint8(psi)})
}

func (tasks *Tasks) sendToNas(c *gin.Context, msg taskmsgtypes.NasMessage) {
	if tasks.Nas == nil {
		problem(c, http.StatusServiceUnavailable, "UE_NOT_RUNNING", "")
		return
	}
	if !post(tasks.Nas, msg, tasks.timeout()) {
		logger.OamLog.Errorf("NAS task inbox is full, dropping [%T]", msg)
		problem(c, http.StatusServiceUnavailable, "SYSTEM_FAILURE", errTaskTimeout.Error())
		return
	}
	logger.OamLog.Infof("[%T] sent to the NAS task", msg)
	c.Status(http.StatusAccepted)
}
