// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package oam

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/omec-project/logger_util"
	"github.com/omec-project/uesim/logger"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// Routes is the list of the generated Route.
type Routes []Route

// NewRouter returns a new router.
func NewRouter(tasks *Tasks) *gin.Engine {
	router := logger_util.NewGinWithLogrus(logger.GinLog)
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "User-Agent", "Referrer", "Host", "Token", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowAllOrigins:  true,
		MaxAge:           86400,
	}))
	AddService(router, tasks)

	return router
}

func AddService(engine *gin.Engine, tasks *Tasks) *gin.RouterGroup {
	group := engine.Group("/uesim-oam/v1")

	for _, route := range tasks.routes() {
		switch route.Method {
		case "GET":
			group.GET(route.Pattern, route.HandlerFunc)
		case "DELETE":
			group.DELETE(route.Pattern, route.HandlerFunc)
		case "POST":
			group.POST(route.Pattern, route.HandlerFunc)
		}
	}
	return group
}

// Index is the index handler.
func Index(c *gin.Context) {
	c.String(http.StatusOK, "Hello World!")
}

func (tasks *Tasks) routes() Routes {
	return Routes{
		{
			"Index",
			"GET",
			"/",
			Index,
		},
		{
			"UE Status",
			"GET",
			"/status",
			tasks.HTTPGetUeStatus,
		},
		{
			"PDU Sessions",
			"GET",
			"/pdu-sessions",
			tasks.HTTPGetPduSessions,
		},
		{
			"Establish PDU Session",
			strings.ToUpper("post"),
			"/pdu-sessions",
			tasks.HTTPEstablishPduSession,
		},
		{
			"Release PDU Session",
			strings.ToUpper("delete"),
			"/pdu-sessions/:psi",
			tasks.HTTPReleasePduSession,
		},
		{
			"NGAP UE Contexts",
			"GET",
			"/ngap-ues",
			tasks.HTTPGetNgapUes,
		},
		{
			"GTP UE Contexts",
			"GET",
			"/gtp-ues",
			tasks.HTTPGetGtpUes,
		},
		{
			"Service Request",
			strings.ToUpper("post"),
			"/service-request",
			tasks.HTTPServiceRequest,
		},
		{
			"Deregister",
			strings.ToUpper("post"),
			"/deregister",
			tasks.HTTPDeregister,
		},
	}
}
