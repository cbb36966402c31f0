package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crabzie/coresched/config/logger"
	postgres "github.com/crabzie/coresched/config/storage/postgresql"
	redis "github.com/crabzie/coresched/config/storage/redis"
	config "github.com/crabzie/coresched/config/utils"
	"github.com/crabzie/coresched/internal/adapter/monitoring/prometheus"
	"github.com/crabzie/coresched/internal/adapter/queue/rabbitmq"
	pgrepo "github.com/crabzie/coresched/internal/adapter/storage/postgres"
	redisAdapter "github.com/crabzie/coresched/internal/adapter/storage/redis"
	"github.com/crabzie/coresched/internal/core/service"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// _shutdownPeriod is time to wait before gracefully shutting server
// _shutdownHardPeriod is time to wait beofre force closing server
// _readinessDrainDelay is time to sleep while context shutdown message propagate
const (
	_shutdownPeriod      = 10 * time.Second
	_shutdownHardPeriod  = 3 * time.Second
	_readinessDrainDelay = 5 * time.Second
)

func main() {
	rootCtx, rootCtxCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCtxCancel()

	// Init config
	appConfig := config.New()
	baseLogger := logger.Build(appConfig.Logger)
	zap.L().Debug("Logger Builded successfully")

	zap.L().Info("Starting the application", zap.String("app", appConfig.App.Name), zap.String("env", appConfig.App.Env), zap.String("owner", appConfig.App.Owner))

	// Init database service
	dbLogger := baseLogger.Named("DB")
	dbService, err := postgres.New(rootCtx, appConfig.DB, dbLogger)
	if err != nil {
		zap.L().Error("Error initializing database connection", zap.Error(err))
		os.Exit(1)
	}
	defer dbService.Close()
	zap.L().Info("Successfully connected to the database", zap.String("db", appConfig.DB.Connection))

	// Migrate database
	if err := dbService.Migrate(); err != nil {
		zap.L().Error("Error migrating database", zap.Error(err))
		os.Exit(1)
	}
	zap.L().Info("Successfully migrated the database")

	// Init cache service
	cacheService, err := redis.New(rootCtx, appConfig.Redis)
	if err != nil {
		zap.L().Error("Error initializing cache connection", zap.Error(err))
		os.Exit(1)
	}
	defer cacheService.Close()
	zap.L().Info("Successfully connected to the cache server", zap.String("address", appConfig.Redis.Addr))

	// Init message queue
	queueService, err := rabbitmq.NewQueueService(rootCtx, appConfig.MQ, baseLogger.Named("MQ"))
	if err != nil {
		zap.L().Error("Error initializing message queue connection", zap.Error(err))
		os.Exit(1)
	}
	defer queueService.Close()
	zap.L().Info("Successfully connected to the message queue", zap.String("host", appConfig.MQ.Host))

	// Init metrics
	registry := prom.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := prometheus.NewMetricsRecorder(registry, baseLogger.Named("Metrics"))

	mux := http.NewServeMux()
	mux.Handle(appConfig.Metrics.Path, prometheus.Handler(registry))
	metricsServer := &http.Server{
		Addr:              appConfig.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zap.L().Info("Serving metrics", zap.String("addr", appConfig.Metrics.Addr), zap.String("path", appConfig.Metrics.Path))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("Metrics server failed", zap.Error(err))
			rootCtxCancel()
		}
	}()

	// Init services
	repo := pgrepo.NewRunRepository(dbService, baseLogger.Named("Repository"))
	cache := redisAdapter.NewResultCache(cacheService.Client, cacheService.Storage, appConfig.Redis.TTL, baseLogger.Named("Cache"))
	simulator := service.NewSimulatorService(metrics, queueService, baseLogger.Named("Simulator"))
	runner := service.NewRunnerService(simulator, repo, cache, queueService, baseLogger.Named("Runner"))

	if err := runner.StartRunner(rootCtx); err != nil {
		zap.L().Error("Error starting the runner", zap.Error(err))
		os.Exit(1)
	}
	zap.L().Info("Runner started successfully. Waiting for simulation requests...")

	// Wait for ctx cancelation
	<-rootCtx.Done()
	rootCtxCancel()

	// Wait for signal propagation
	time.Sleep(_readinessDrainDelay)
	zap.L().Info("Readiness check propagated, now waiting for ongoing requests to finish")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), _shutdownPeriod)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Failed to wait for ongoing requests to finish, waiting for forced cancellation", zap.Error(err))
		time.Sleep(_shutdownHardPeriod)
	}

	zap.L().Info("Graceful shutdown complete.")
}
