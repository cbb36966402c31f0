// Package port provides behavior interfaces that connect the simulation services to storage, messaging & monitoring.
package port

import (
	"context"

	"github.com/crabzie/coresched/internal/core/domain"
)

// RunRepository defines how simulation runs are persisted
type RunRepository interface {
	Save(ctx context.Context, run *domain.RunSummary) error
	GetByID(ctx context.Context, id string) (*domain.RunSummary, error)
	ListByWorkload(ctx context.Context, workload string, limit uint64) ([]*domain.RunSummary, error)
}

// ResultCache defines how finished runs are cached and ranked (Redis)
type ResultCache interface {
	Get(ctx context.Context, fingerprint string, policy domain.Policy) (*domain.RunSummary, bool, error)
	Put(ctx context.Context, run *domain.RunSummary) error
	Leaderboard(ctx context.Context, workload string) ([]LeaderboardEntry, error)
}

// LeaderboardEntry is one policy's rank for a workload.
type LeaderboardEntry struct {
	Policy                domain.Policy
	AverageTurnaroundTime float64
}

// QueueService defines how simulation requests are published and consumed
type QueueService interface {
	PublishRequest(ctx context.Context, req *domain.SimulationRequest) error
	ConsumeRequests(ctx context.Context, handler func(ctx context.Context, req *domain.SimulationRequest) error) error
}

// DecisionSink receives every scheduling decision taken during a run
type DecisionSink interface {
	Decide(ctx context.Context, d domain.Decision) error
}

// MetricsRecorder defines which simulation metrics are exported (Prometheus)
type MetricsRecorder interface {
	Dispatched(policy domain.Policy)
	Preempted(policy domain.Policy)
	Rotated(policy domain.Policy)
	Finished(policy domain.Policy, turnaround int)
	QueueDepth(policy domain.Policy, depth int)
}
