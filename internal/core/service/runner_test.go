package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/crabzie/coresched/internal/core/port"
)

type memoryRepository struct {
	mu   sync.Mutex
	runs map[string]*domain.RunSummary
	err  error
}

func (r *memoryRepository) Save(_ context.Context, run *domain.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.runs == nil {
		r.runs = map[string]*domain.RunSummary{}
	}
	r.runs[run.ID] = run
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*domain.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return run, nil
}

func (r *memoryRepository) ListByWorkload(_ context.Context, workload string, _ uint64) ([]*domain.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var runs []*domain.RunSummary
	for _, run := range r.runs {
		if run.Workload == workload {
			runs = append(runs, run)
		}
	}
	return runs, nil
}

type memoryCache struct {
	runs map[string]*domain.RunSummary
}

func (c *memoryCache) key(fingerprint string, p domain.Policy) string {
	return fingerprint + ":" + string(p)
}

func (c *memoryCache) Get(_ context.Context, fingerprint string, p domain.Policy) (*domain.RunSummary, bool, error) {
	run, ok := c.runs[c.key(fingerprint, p)]
	return run, ok, nil
}

func (c *memoryCache) Put(_ context.Context, run *domain.RunSummary) error {
	if c.runs == nil {
		c.runs = map[string]*domain.RunSummary{}
	}
	c.runs[c.key(run.Fingerprint, run.Policy)] = run
	return nil
}

func (c *memoryCache) Leaderboard(context.Context, string) ([]port.LeaderboardEntry, error) {
	return nil, nil
}

type stubQueue struct {
	requests []*domain.SimulationRequest
}

func (q *stubQueue) PublishRequest(_ context.Context, req *domain.SimulationRequest) error {
	q.requests = append(q.requests, req)
	return nil
}

func (q *stubQueue) ConsumeRequests(ctx context.Context, handler func(context.Context, *domain.SimulationRequest) error) error {
	for _, req := range q.requests {
		if err := handler(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func newRunner(repo *memoryRepository, cache *memoryCache, queue *stubQueue) *runnerService {
	log := zap.NewNop()
	return NewRunnerService(NewSimulatorService(nil, nil, log), repo, cache, queue, log)
}

func TestRunnerSimulatesPersistsAndCaches(t *testing.T) {
	repo := &memoryRepository{}
	cache := &memoryCache{}
	runner := newRunner(repo, cache, &stubQueue{})

	req := &domain.SimulationRequest{ID: "req-1", Workload: *twoJobWorkload()}
	results, err := runner.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, results, 5)
	assert.Len(t, repo.runs, 5)
	assert.Len(t, cache.runs, 5)

	// Second time round everything comes from the cache.
	again, err := runner.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, repo.runs, 5)
	require.Len(t, again, 5)
	for i := range results {
		assert.Equal(t, results[i].ID, again[i].ID)
	}
}

func TestRunnerOnlySimulatesMissingPolicies(t *testing.T) {
	repo := &memoryRepository{}
	cache := &memoryCache{}
	runner := newRunner(repo, cache, &stubQueue{})
	w := twoJobWorkload()

	_, err := runner.Process(context.Background(), &domain.SimulationRequest{Workload: *w, Policies: []domain.Policy{domain.PolicyFCFS}})
	require.NoError(t, err)
	results, err := runner.Process(context.Background(), &domain.SimulationRequest{Workload: *w, Policies: []domain.Policy{domain.PolicyFCFS, domain.PolicyPSJF}})
	require.NoError(t, err)

	assert.Len(t, results, 2)
	assert.Len(t, repo.runs, 2)
}

func TestRunnerPropagatesRepositoryErrors(t *testing.T) {
	boom := errors.New("db down")
	runner := newRunner(&memoryRepository{err: boom}, &memoryCache{}, &stubQueue{})

	_, err := runner.Process(context.Background(), &domain.SimulationRequest{Workload: *twoJobWorkload()})
	assert.ErrorIs(t, err, boom)
}

func TestStartRunnerConsumesQueuedRequests(t *testing.T) {
	repo := &memoryRepository{}
	queue := &stubQueue{}
	require.NoError(t, queue.PublishRequest(context.Background(), &domain.SimulationRequest{
		ID:       "req-2",
		Workload: *twoJobWorkload(),
		Policies: []domain.Policy{domain.PolicySJF},
	}))
	runner := newRunner(repo, &memoryCache{}, queue)

	require.NoError(t, runner.StartRunner(context.Background()))
	runs, err := repo.ListByWorkload(context.Background(), "two-jobs", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.PolicySJF, runs[0].Policy)
}
