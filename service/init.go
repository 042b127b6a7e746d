// SPDX-FileCopyrightText: 2022-present Intel Corporation
// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0
//

package service

import (
	ctxt "context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	aperLogger "github.com/omec-project/aper/logger"
	"github.com/omec-project/http2_util"
	nasLogger "github.com/omec-project/nas/logger"
	ngapLogger "github.com/omec-project/ngap/logger"
	"github.com/omec-project/uesim/app"
	"github.com/omec-project/uesim/context"
	"github.com/omec-project/uesim/factory"
	"github.com/omec-project/uesim/gtp"
	"github.com/omec-project/uesim/logger"
	"github.com/omec-project/uesim/metrics"
	"github.com/omec-project/uesim/msgtypes/taskmsgtypes"
	"github.com/omec-project/uesim/nas"
	"github.com/omec-project/uesim/ngap"
	ngap_service "github.com/omec-project/uesim/ngap/service"
	"github.com/omec-project/uesim/oam"
	"github.com/omec-project/uesim/rls"
	"github.com/omec-project/uesim/rrc"
	"github.com/omec-project/uesim/tracing"
	"github.com/omec-project/uesim/util"
	fsmLogger "github.com/omec-project/util/fsm/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// the simulator runs a single UE
const ueId = 1

type UESIM struct {
	cancel ctxt.CancelFunc
	wg     sync.WaitGroup
	nas    chan<- taskmsgtypes.NasMessage
	tp     *sdktrace.TracerProvider
}

type (
	// Config information.
	Config struct {
		uesimcfg string
	}
)

var config Config

var uesimCLi = []cli.Flag{
	cli.StringFlag{
		Name:  "cfg",
		Usage: "uesim config file",
	},
}

var initLog *logrus.Entry

func init() {
	initLog = logger.InitLog
}

func (*UESIM) GetCliCmd() (flags []cli.Flag) {
	return uesimCLi
}

func (u *UESIM) Initialize(c *cli.Context) error {
	config = Config{
		uesimcfg: c.String("cfg"),
	}
	if config.uesimcfg == "" {
		config.uesimcfg = util.DefaultUesimConfigPath
	}

	if err := factory.InitConfigFactory(config.uesimcfg); err != nil {
		return err
	}

	u.setLogLevel()

	if err := factory.CheckConfigVersion(); err != nil {
		return err
	}

	viper.SetConfigFile(config.uesimcfg)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return err
	}

	return nil
}

func (u *UESIM) WatchConfig() {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		logger.CfgLog.Infoln("Config file changed:", e.Name)
		if _, err := factory.UpdateConfig(config.uesimcfg); err != nil {
			logger.CfgLog.Errorf("error in loading updated configuration: %v", err)
			return
		}
		u.setLogLevel()
		logger.CfgLog.Infoln("successfully updated configuration")
	})
}

func parseLevel(setting *factory.LogSetting, name string) logrus.Level {
	if setting.DebugLevel == "" {
		initLog.Warnf("%s Log level not set. Default set to [info] level", name)
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(setting.DebugLevel)
	if err != nil {
		initLog.Warnf("%s Log level [%s] is invalid, set to [info] level", name, setting.DebugLevel)
		return logrus.InfoLevel
	}
	return level
}

func (u *UESIM) setLogLevel() {
	cfg := factory.UesimConfig.Logger
	if cfg == nil {
		initLog.Warnln("UESIM config without log level setting!!!")
		return
	}

	if cfg.UESIM != nil {
		level := parseLevel(cfg.UESIM, "UESIM")
		initLog.Infof("UESIM Log level is set to [%s] level", level)
		logger.SetLogLevel(level)
		logger.SetReportCaller(cfg.UESIM.ReportCaller)
	}

	if cfg.NAS != nil {
		nasLogger.SetLogLevel(parseLevel(cfg.NAS, "NAS"))
		nasLogger.SetReportCaller(cfg.NAS.ReportCaller)
	}

	if cfg.NGAP != nil {
		ngapLogger.SetLogLevel(parseLevel(cfg.NGAP, "NGAP"))
		ngapLogger.SetReportCaller(cfg.NGAP.ReportCaller)
	}

	if cfg.FSM != nil {
		fsmLogger.SetLogLevel(parseLevel(cfg.FSM, "FSM"))
		fsmLogger.SetReportCaller(cfg.FSM.ReportCaller)
	}

	if cfg.Aper != nil {
		aperLogger.SetLogLevel(parseLevel(cfg.Aper, "Aper"))
		aperLogger.SetReportCaller(cfg.Aper.ReportCaller)
	}
}

func (u *UESIM) Start() {
	initLog.Infoln("Simulator started")
	cfg := factory.UesimConfig.Configuration

	ctx, cancel := ctxt.WithCancel(ctxt.Background())
	u.cancel = cancel

	tp, err := tracing.InitTracer(ctx, tracing.ConfigFromFactory(cfg.Telemetry, factory.UesimConfig.GetVersion()))
	if err != nil {
		initLog.Errorf("initialise tracing failed, %v", err)
	}
	u.tp = tp

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		go metrics.InitMetrics(cfg.Metrics.BindingIPv4, cfg.Metrics.Port)
	}

	if err = metrics.InitialiseKafkaStream(cfg); err != nil {
		initLog.Errorf("initialise kafka stream failed, %v ", err.Error())
	}

	tasks := &oam.Tasks{}

	gtpTask := gtp.NewTask()
	appTask := app.NewTask()
	rlsTask := rls.NewTask()
	rrcTask := rrc.NewTask()
	tasks.Gtp = gtpTask.Inbox()
	tasks.App = appTask.Inbox()

	var ngapTask *ngap.Task
	if cfg.Gnb != nil {
		if ngapTask, err = ngap.NewTask(cfg.Gnb, rrcTask.Inbox(), gtpTask.Inbox()); err != nil {
			initLog.Fatalf("gNB setup failed: %+v", err)
		}
		rrcTask.SetNgap(ngapTask.Inbox())
		tasks.Ngap = ngapTask.Inbox()
	} else {
		initLog.Warnln("No gNB configured, the UE will not find a cell")
	}

	var nasTask *nas.Task
	if cfg.Ue != nil {
		if nasTask, err = nas.NewTask(ueId, cfg.Ue, rrcTask.Inbox(), appTask.Inbox()); err != nil {
			initLog.Fatalf("UE setup failed: %+v", err)
		}
		rrcTask.AddUe(ueId, nasTask.Inbox())
		appTask.AddUe(ueId, cfg.Ue.Supi)
		tasks.Nas = nasTask.Inbox()
		u.nas = nasTask.Inbox()
	}

	u.run(ctx, gtpTask.Run, appTask.Run, rlsTask.Run, rrcTask.Run)
	if ngapTask != nil {
		u.run(ctx, ngapTask.Run)
		for i, amfCfg := range cfg.Gnb.AmfConfigs {
			amfCfg, amfCtxId := amfCfg, i+1
			u.run(ctx, func(ctx ctxt.Context) {
				ngap_service.Run(ctx, cfg.Gnb.NgapIp, amfCfg, amfCtxId, ngapTask.Inbox())
			})
		}
	}
	if nasTask != nil {
		u.run(ctx, nasTask.Run)
	}

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChannel
		u.Terminate()
		os.Exit(0)
	}()

	bindingIPv4, port := "127.0.0.1", 29599
	if cfg.Oam != nil {
		if cfg.Oam.BindingIPv4 != "" {
			bindingIPv4 = cfg.Oam.BindingIPv4
		}
		if cfg.Oam.Port != 0 {
			port = cfg.Oam.Port
		}
	}
	addr := fmt.Sprintf("%s:%d", bindingIPv4, port)

	server, err := http2_util.NewServer(addr, util.UesimLogPath, oam.NewRouter(tasks))
	if server == nil {
		initLog.Errorf("Initialize HTTP server failed: %+v", err)
		return
	}
	if err != nil {
		initLog.Warnf("Initialize HTTP server: %+v", err)
	}

	initLog.Infof("OAM API served on %s", addr)
	if err = server.ListenAndServe(); err != nil {
		initLog.Fatalf("HTTP server setup failed: %+v", err)
	}
}

func (u *UESIM) run(ctx ctxt.Context, loops ...func(ctxt.Context)) {
	for _, loop := range loops {
		u.wg.Add(1)
		go func(loop func(ctxt.Context)) {
			defer u.wg.Done()
			loop(ctx)
		}(loop)
	}
}

// Terminate switches the UE off and stops every task.
func (u *UESIM) Terminate() {
	logger.InitLog.Infof("Terminating UESIM...")

	if u.nas != nil {
		select {
		case u.nas <- taskmsgtypes.Deregister{Cause: context.DeregCauseSwitchOff}:
			// leave the NAS and NGAP tasks time to send the request
			time.Sleep(500 * time.Millisecond)
		default:
			logger.InitLog.Warnln("NAS task busy, skipping switch-off de-registration")
		}
	}

	if u.cancel != nil {
		u.cancel()
	}
	u.wg.Wait()
	tracing.Shutdown(u.tp)

	logger.InitLog.Infof("UESIM terminated")
}
