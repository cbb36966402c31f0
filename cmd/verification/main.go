package main

import (
	"context"
	"time"

	"github.com/crabzie/coresched/config/logger"
	postgresConfig "github.com/crabzie/coresched/config/storage/postgresql"
	redisConfig "github.com/crabzie/coresched/config/storage/redis"
	config "github.com/crabzie/coresched/config/utils"
	"github.com/crabzie/coresched/internal/adapter/monitoring/prometheus"
	"github.com/crabzie/coresched/internal/adapter/queue/rabbitmq"
	"github.com/crabzie/coresched/internal/adapter/storage/postgres"
	redisAdapter "github.com/crabzie/coresched/internal/adapter/storage/redis"
	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/crabzie/coresched/internal/core/service"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// 1. Setup Logger & Config
	appConfig := config.New()
	log := logger.Build(appConfig.Logger)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log.Info("Starting Verification...")

	// 2. Run a tiny workload with metrics attached
	log.Info("--- Testing Simulator & Prometheus ---")
	registry := prom.NewRegistry()
	metrics := prometheus.NewMetricsRecorder(registry, log)
	simulator := service.NewSimulatorService(metrics, service.NewLogSink(log.Named("Decisions")), log.Named("Simulator"))

	w := &domain.Workload{
		Name:    "verification",
		Cores:   2,
		Quantum: 2,
		Jobs: []domain.JobSpec{
			{ID: 0, Arrival: 0, Length: 6, Priority: 2},
			{ID: 1, Arrival: 1, Length: 2, Priority: 0},
			{ID: 2, Arrival: 2, Length: 3, Priority: 1},
		},
	}
	run, err := simulator.Run(ctx, w, domain.PolicyPPRI)
	if err != nil {
		log.Fatal("Simulation failed", zap.Error(err))
	}
	log.Info("✓ Simulator: Run Success",
		zap.String("run", run.ID),
		zap.Float64("avg_turnaround", run.AverageTurnaroundTime))

	if families, err := registry.Gather(); err != nil || len(families) == 0 {
		log.Error("X Prometheus: Gather Failed", zap.Error(err))
	} else {
		log.Info("✓ Prometheus: Gather Success", zap.Int("Families", len(families)))
	}

	// 3. Test Postgres
	log.Info("--- Testing Postgres ---")
	dbService, err := postgresConfig.New(ctx, appConfig.DB, log)
	if err != nil {
		log.Fatal("Failed to connect to DB", zap.Error(err))
	}
	defer dbService.Close()
	if err := dbService.Migrate(); err != nil {
		log.Fatal("Failed to migrate DB", zap.Error(err))
	}
	repo := postgres.NewRunRepository(dbService, log)

	if err := repo.Save(ctx, run); err != nil {
		log.Error("X Postgres: Save Run Failed", zap.Error(err))
	} else {
		log.Info("✓ Postgres: Save Run Success")
	}

	if fetched, err := repo.GetByID(ctx, run.ID); err != nil {
		log.Error("X Postgres: Get Run Failed", zap.Error(err))
	} else {
		log.Info("✓ Postgres: Get Run Success", zap.String("FetchedID", fetched.ID), zap.Int("Jobs", len(fetched.Jobs)))
	}

	if runs, err := repo.ListByWorkload(ctx, w.Name, 5); err != nil {
		log.Error("X Postgres: List Runs Failed", zap.Error(err))
	} else {
		log.Info("✓ Postgres: List Runs Success", zap.Int("Count", len(runs)))
	}

	// 4. Test Redis
	log.Info("--- Testing Redis ---")
	redisService, err := redisConfig.New(ctx, appConfig.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisService.Close()
	cache := redisAdapter.NewResultCache(redisService.Client, redisService.Storage, appConfig.Redis.TTL, log)

	if err := cache.Put(ctx, run); err != nil {
		log.Error("X Redis: Cache Run Failed", zap.Error(err))
	} else {
		log.Info("✓ Redis: Cache Run Success")
	}

	if _, ok, err := cache.Get(ctx, run.Fingerprint, run.Policy); err != nil || !ok {
		log.Error("X Redis: Cached Run Lookup Failed", zap.Bool("hit", ok), zap.Error(err))
	} else {
		log.Info("✓ Redis: Cached Run Lookup Success")
	}

	if board, err := cache.Leaderboard(ctx, w.Name); err != nil {
		log.Error("X Redis: Leaderboard Failed", zap.Error(err))
	} else {
		log.Info("✓ Redis: Leaderboard Success", zap.Int("Count", len(board)))
	}

	// 5. Test RabbitMQ
	log.Info("--- Testing RabbitMQ ---")
	queue, err := rabbitmq.NewQueueService(ctx, appConfig.MQ, log)
	if err != nil {
		log.Error("X RabbitMQ: Connection Failed", zap.Error(err))
	} else {
		defer queue.Close()
		req := &domain.SimulationRequest{
			ID:       uuid.NewString(),
			Workload: *w,
			Policies: []domain.Policy{domain.PolicyFCFS},
			SentAt:   time.Now().UTC(),
		}
		if err := queue.PublishRequest(ctx, req); err != nil {
			log.Error("X RabbitMQ: Publish Failed", zap.Error(err))
		} else {
			log.Info("✓ RabbitMQ: Publish Success")
		}
		if err := queue.Decide(ctx, domain.Decision{RunID: run.ID, Policy: run.Policy, Kind: domain.DecisionIdle, Core: 0}); err != nil {
			log.Error("X RabbitMQ: Decision Broadcast Failed", zap.Error(err))
		} else {
			log.Info("✓ RabbitMQ: Decision Broadcast Success")
		}
	}

	log.Info("Verification Complete.")
}
