package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/queued/queued/internal/api"
	"github.com/queued/queued/internal/api/middleware"
	"github.com/queued/queued/internal/config"
	"github.com/queued/queued/internal/core"
	"github.com/queued/queued/internal/pkg/logger"
	"github.com/queued/queued/internal/pkg/mongostore"
	"github.com/queued/queued/internal/server"
	"github.com/queued/queued/internal/store"
	"github.com/queued/queued/internal/worker"
	"go.uber.org/zap"
)

// Build-time variables
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("starting queued",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	client, err := mongostore.NewClientWithRetry(&cfg.Mongo, log)
	if err != nil {
		log.Fatal("failed to connect to store", zap.Error(err))
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error("error disconnecting from store", zap.Error(err))
		}
	}()
	log.Info("store connection established")

	st := store.New(client, cfg.Mongo.Database)
	if err := st.EnsureIndexes(context.Background()); err != nil {
		log.Fatal("failed to ensure indexes", zap.Error(err))
	}
	log.Info("store indexes ready")

	queueRepo := st.NewQueueRepository()
	messageRepo := st.NewMessageRepository()

	controllers := &api.ControllerContainer{
		Queue:   core.NewQueueController(queueRepo, messageRepo, log),
		Message: core.NewMessageController(queueRepo, messageRepo, log),
		Claim:   core.NewClaimController(queueRepo, messageRepo, log),
	}
	log.Info("core controllers initialized")

	router := api.NewRouter(api.RouterConfig{
		Logger:     log,
		Client:     client,
		Controller: controllers,
		ClaimCfg:   cfg.Claim,
		Version:    Version,
		BuildTime:  BuildTime,
		CORSConfig: middleware.DefaultCORSConfig(),
	})

	workerManager := worker.NewManager()
	workerManager.Register(worker.NewPoolMonitorWorker(client, cfg.Worker.PoolMonitorInterval, log))
	workerManager.Register(worker.NewStatsWorker(controllers.Queue, worker.StatsWorkerConfig{
		Interval: cfg.Worker.StatsInterval,
		PageSize: 100,
	}, log))
	log.Info("workers initialized")

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.Fatal("invalid server port", zap.String("port", cfg.Server.Port), zap.Error(err))
	}

	srv := server.New(router, log, server.Config{
		Host:            cfg.Server.Host,
		Port:            port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerManager.StartAll(workerCtx)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("received shutdown signal")

	workerCancel()
	workerManager.StopAll()
	log.Info("workers stopped")

	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	log.Info("queued stopped")
}
