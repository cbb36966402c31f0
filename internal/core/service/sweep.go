package service

import (
	"context"

	"github.com/crabzie/coresched/internal/core/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sweep runs w once per policy, each on its own scheduler, concurrently.
// Summaries are returned in the order of policies. An empty list means every
// policy, leaving out RR when the workload has no quantum.
func (s *simulatorService) Sweep(ctx context.Context, w *domain.Workload, policies []domain.Policy) ([]*domain.RunSummary, error) {
	if len(policies) == 0 {
		policies = s.defaultPolicies(w)
	}

	summaries := make([]*domain.RunSummary, len(policies))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range policies {
		g.Go(func() error {
			summary, err := s.Run(gctx, w, p)
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *simulatorService) defaultPolicies(w *domain.Workload) []domain.Policy {
	var policies []domain.Policy
	for _, p := range domain.Policies {
		if p == domain.PolicyRR && w.Quantum < 1 {
			s.log.Warn("Skipping round robin, workload has no quantum", zap.String("workload", w.Name))
			continue
		}
		policies = append(policies, p)
	}
	return policies
}
