package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/scorekeeper/broadcast"
	"github.com/wfunc/scorekeeper/config"
	"github.com/wfunc/scorekeeper/feedback"
	"github.com/wfunc/scorekeeper/logger"
	"github.com/wfunc/scorekeeper/monitor"
	"github.com/wfunc/scorekeeper/persistence"
	"github.com/wfunc/scorekeeper/preset"
	"github.com/wfunc/scorekeeper/rpc"
	"github.com/wfunc/scorekeeper/server"
	"github.com/wfunc/scorekeeper/services"
	"github.com/wfunc/scorekeeper/session"
	"github.com/wfunc/scorekeeper/state"
	"github.com/wfunc/scorekeeper/timer"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Logging.Development {
		logger.InitDevelopment()
	}

	catalog := preset.Library()
	if err := catalog.Validate(); err != nil {
		logger.Log.Fatalf("Invalid preset catalog: %v", err)
	}

	// Initialize storage
	store, err := persistence.Open(cfg.Storage)
	if err != nil {
		logger.Log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Driver, err)
	}
	controller := persistence.NewController(store, cfg.Storage.Key)
	defer controller.Close()
	logger.Log.Infof("Storage ready (driver=%s).", cfg.Storage.Driver)

	// Wire state, feedback and push channels
	sessions := session.NewManager()
	broadcaster := broadcast.NewWatchBroadcaster(nil, sessions)
	cues := feedback.NewManager(feedback.Multi{feedback.LogTrigger{}, broadcaster})
	app := state.New(catalog, controller, cues, state.WithObserver(broadcaster))
	broadcaster.SetSource(app)
	logger.Log.Infof("Loaded %d sessions.", len(app.Sessions()))

	timers := timer.NewTimerManager()
	opts := []server.Option{server.WithTimers(timers)}

	if cfg.Metrics.Enabled {
		mon := monitor.NewMonitor(cfg.Metrics.Namespace)
		controller.SetObserver(mon.ObserveSave)
		app.AddObserver(mon)
		mon.SetSource(app)
		timers.AddTimer(time.Minute, time.Minute, mon.Refresh)
		metricsServer := mon.StartServer(cfg.Metrics.Address)
		defer metricsServer.Close()
		opts = append(opts, server.WithRecorder(mon))
		logger.Log.Infof("Metrics listening on %s", cfg.Metrics.Address)
	}

	scores := services.NewScoreService(app)
	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress, scores)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	opts = append(opts, server.WithRPC(rpcServer))

	scoreServer := server.NewScoreServer(cfg.Server, scores, sessions, broadcaster, opts...)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Log.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := scoreServer.Shutdown(ctx); err != nil {
			logger.Log.Warnf("Shutdown: %v", err)
		}
	}()

	// Start Server
	logger.Log.Infof("Starting score server on %s", cfg.Server.HTTPAddress)
	if err := scoreServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
