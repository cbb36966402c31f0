package service

import (
	"context"

	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/crabzie/coresched/internal/core/port"
	"go.uber.org/zap"
)

type nopRecorder struct{}

func (nopRecorder) Dispatched(domain.Policy)      {}
func (nopRecorder) Preempted(domain.Policy)       {}
func (nopRecorder) Rotated(domain.Policy)         {}
func (nopRecorder) Finished(domain.Policy, int)   {}
func (nopRecorder) QueueDepth(domain.Policy, int) {}

type logSink struct {
	log *zap.Logger
}

// NewLogSink returns a DecisionSink that writes every decision to log at info level
func NewLogSink(log *zap.Logger) port.DecisionSink {
	return &logSink{log: log}
}

func (s *logSink) Decide(_ context.Context, d domain.Decision) error {
	fields := []zap.Field{
		zap.String("policy", string(d.Policy)),
		zap.Int("time", d.Time),
		zap.String("kind", string(d.Kind)),
		zap.Int("core", d.Core),
		zap.Int("job_id", d.JobID),
		zap.String("queue", d.Queue),
	}
	if d.Evicted != nil {
		fields = append(fields, zap.Int("evicted", *d.Evicted))
	}
	s.log.Info("Decision", fields...)
	return nil
}
