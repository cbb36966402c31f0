package service

import (
	"context"
	"fmt"

	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/crabzie/coresched/internal/core/port"
	"go.uber.org/zap"
)

type runnerService struct {
	simulator *simulatorService
	repo      port.RunRepository
	cache     port.ResultCache
	queue     port.QueueService
	log       *zap.Logger
}

// NewRunnerService wires the request consumer to the simulator, repository and cache.
func NewRunnerService(
	simulator *simulatorService,
	repo port.RunRepository,
	cache port.ResultCache,
	queue port.QueueService,
	log *zap.Logger,
) *runnerService {
	return &runnerService{
		simulator: simulator,
		repo:      repo,
		cache:     cache,
		queue:     queue,
		log:       log,
	}
}

// StartRunner starts consuming simulation requests
func (r *runnerService) StartRunner(ctx context.Context) error {
	r.log.Info("Starting simulation runner")

	if err := r.queue.ConsumeRequests(ctx, r.ProcessRequest); err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}
	return nil
}

// ProcessRequest simulates every requested policy that is not cached yet and
// persists and caches the new runs.
func (r *runnerService) ProcessRequest(ctx context.Context, req *domain.SimulationRequest) error {
	_, err := r.Process(ctx, req)
	return err
}

// Process is ProcessRequest returning the summaries, cached ones included.
func (r *runnerService) Process(ctx context.Context, req *domain.SimulationRequest) ([]*domain.RunSummary, error) {
	w := &req.Workload
	log := r.log.With(zap.String("request_id", req.ID), zap.String("workload", w.Name))
	log.Info("Processing simulation request", zap.Int("jobs", len(w.Jobs)), zap.Int("policies", len(req.Policies)))

	policies := req.Policies
	if len(policies) == 0 {
		policies = r.simulator.defaultPolicies(w)
	}

	// 1. Serve what we can from the cache
	var results []*domain.RunSummary
	var missing []domain.Policy
	fingerprint := w.Fingerprint()
	for _, p := range policies {
		cached, ok, err := r.cache.Get(ctx, fingerprint, p)
		if err != nil {
			log.Warn("Cache lookup failed, simulating", zap.String("policy", string(p)), zap.Error(err))
		}
		if ok {
			log.Debug("Cache hit", zap.String("policy", string(p)), zap.String("run_id", cached.ID))
			results = append(results, cached)
			continue
		}
		missing = append(missing, p)
	}
	if len(missing) == 0 {
		return results, nil
	}

	// 2. Simulate the rest
	fresh, err := r.simulator.Sweep(ctx, w, missing)
	if err != nil {
		log.Error("Simulation failed", zap.Error(err))
		return nil, err
	}

	// 3. Persist first, then cache
	for _, run := range fresh {
		if err := r.repo.Save(ctx, run); err != nil {
			log.Error("Failed to save run", zap.String("run_id", run.ID), zap.Error(err))
			return nil, err
		}
		if err := r.cache.Put(ctx, run); err != nil {
			log.Warn("Failed to cache run", zap.String("run_id", run.ID), zap.Error(err))
		}
		results = append(results, run)
	}

	if board, err := r.cache.Leaderboard(ctx, w.Name); err == nil && len(board) > 0 {
		log.Info("Request completed",
			zap.String("best_policy", string(board[0].Policy)),
			zap.Float64("best_avg_turnaround", board[0].AverageTurnaroundTime))
	}
	return results, nil
}
