// Package scheduler decides which job occupies which core under a scheduling
// policy. A Scheduler is a pure decision function over its own state: it is
// driven one event at a time and is not safe for concurrent use.
package scheduler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/crabzie/coresched/internal/core/priqueue"
	"go.uber.org/zap"
)

// Counters tallies the core changes made by a Scheduler.
type Counters struct {
	Dispatches  int
	Preemptions int
	Rotations   int
}

// Scheduler owns the core table, the waiting queue and the active policy.
type Scheduler struct {
	policy   policy
	cores    []*domain.Job
	waiting  *priqueue.Queue[*domain.Job]
	finished []domain.JobResult
	counters Counters
	log      *zap.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger makes the scheduler log its decisions at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) {
		s.log = log
	}
}

// New starts a scheduler with cores idle cores under policy p.
func New(cores int, p domain.Policy, opts ...Option) (*Scheduler, error) {
	pol, ok := lookupPolicy(p)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedPolicy, p)
	}
	if cores < 1 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidCoreCount, cores)
	}

	s := &Scheduler{
		policy:  pol,
		cores:   make([]*domain.Job, cores),
		waiting: priqueue.New(pol.compare),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("policy", string(p)))
	return s, nil
}

// NewJob admits a job arriving at time. It returns the core the job was
// placed on, or false when no core changes occupant. When the returned core
// was occupied, its previous job has been preempted back to the queue.
func (s *Scheduler) NewJob(id, time, length, priority int) (int, bool) {
	j := domain.NewJob(id, time, length, priority)

	if core, ok := s.idleCore(); ok {
		s.dispatch(core, j, time)
		return core, true
	}

	if s.policy.preemptive {
		if core, ok := s.preempt(j, time); ok {
			return core, true
		}
	}

	idx := s.waiting.Offer(j)
	s.log.Debug("Job queued",
		zap.Int("job_id", id),
		zap.Int("time", time),
		zap.Int("position", idx))
	return domain.NoCore, false
}

// JobFinished frees core after job id completed at time and dispatches the
// head of the queue onto it. It returns the dispatched job's id, or false
// when the core stays idle.
//
// An event for an idle core, or for a job that does not occupy the core, is
// rejected with an error and changes nothing.
func (s *Scheduler) JobFinished(core, id, time int) (int, bool, error) {
	j, err := s.occupant(core)
	if err != nil {
		return 0, false, err
	}
	if j.ID != id {
		return 0, false, fmt.Errorf("%w: core %d runs job %d, not %d", domain.ErrJobMismatch, core, j.ID, id)
	}

	j.Finish(time)
	s.cores[core] = nil
	s.finished = append(s.finished, j.Result())
	s.log.Debug("Job finished",
		zap.Int("job_id", id),
		zap.Int("core", core),
		zap.Int("time", time))

	next, ok := s.waiting.Poll()
	if !ok {
		return 0, false, nil
	}
	s.dispatch(core, next, time)
	return next.ID, true, nil
}

// QuantumExpired rotates the occupant of core to the back of the queue and
// dispatches the queue head. When the occupant is the only runnable job it
// keeps the core and the call reports no change.
func (s *Scheduler) QuantumExpired(core, time int) (int, bool, error) {
	if !s.policy.rotating {
		return 0, false, fmt.Errorf("%w: policy is %s", domain.ErrNotRoundRobin, s.policy.kind)
	}
	current, err := s.occupant(core)
	if err != nil {
		return 0, false, err
	}

	current.Requeue(time)
	s.cores[core] = nil
	s.waiting.Offer(current)

	next, _ := s.waiting.Poll()
	if next == current {
		current.Start(core, time)
		s.cores[core] = current
		return 0, false, nil
	}

	s.counters.Rotations++
	s.dispatch(core, next, time)
	return next.ID, true, nil
}

// AverageWaitingTime is the mean time finished jobs spent ready but not running.
func (s *Scheduler) AverageWaitingTime() float64 {
	return s.average(domain.JobResult.WaitingTime)
}

// AverageTurnaroundTime is the mean of completion minus arrival.
func (s *Scheduler) AverageTurnaroundTime() float64 {
	return s.average(domain.JobResult.TurnaroundTime)
}

// AverageResponseTime is the mean of first dispatch minus arrival.
func (s *Scheduler) AverageResponseTime() float64 {
	return s.average(domain.JobResult.ResponseTime)
}

func (s *Scheduler) average(metric func(domain.JobResult) int) float64 {
	if len(s.finished) == 0 {
		return 0
	}
	total := 0
	for _, r := range s.finished {
		total += metric(r)
	}
	return float64(total) / float64(len(s.finished))
}

// CleanUp idles every core and drains the waiting queue. Statistics of
// finished jobs remain available.
func (s *Scheduler) CleanUp() {
	for i := range s.cores {
		s.cores[i] = nil
	}
	for s.waiting.Len() > 0 {
		s.waiting.Poll()
	}
	s.waiting.Destroy()
}

// ShowQueue renders running jobs in core order followed by waiting jobs in
// rank order, each as id(core) with -1 for waiting jobs.
func (s *Scheduler) ShowQueue() string {
	var parts []string
	for _, j := range s.cores {
		if j != nil {
			parts = append(parts, j.String())
		}
	}
	for _, j := range s.waiting.All() {
		parts = append(parts, strconv.Itoa(j.ID)+"("+strconv.Itoa(domain.NoCore)+")")
	}
	return strings.Join(parts, " ")
}

// Running returns a copy of the job occupying core.
func (s *Scheduler) Running(core int) (domain.Job, bool) {
	j, err := s.occupant(core)
	if err != nil {
		return domain.Job{}, false
	}
	return *j, true
}

// Results returns the retained statistics of finished jobs in completion order.
func (s *Scheduler) Results() []domain.JobResult {
	return append([]domain.JobResult(nil), s.finished...)
}

// Counters returns the number of dispatches, preemptions and rotations so far.
func (s *Scheduler) Counters() Counters { return s.counters }

// Policy returns the active policy.
func (s *Scheduler) Policy() domain.Policy { return s.policy.kind }

// Cores returns the number of cores.
func (s *Scheduler) Cores() int { return len(s.cores) }

// QueueLen returns the number of waiting jobs.
func (s *Scheduler) QueueLen() int { return s.waiting.Len() }

func (s *Scheduler) occupant(core int) (*domain.Job, error) {
	if core < 0 || core >= len(s.cores) {
		return nil, fmt.Errorf("%w: %d", domain.ErrCoreOutOfRange, core)
	}
	j := s.cores[core]
	if j == nil {
		return nil, fmt.Errorf("%w: %d", domain.ErrCoreIdle, core)
	}
	return j, nil
}

// idleCore returns the lowest-indexed idle core.
func (s *Scheduler) idleCore() (int, bool) {
	for i, j := range s.cores {
		if j == nil {
			return i, true
		}
	}
	return domain.NoCore, false
}

func (s *Scheduler) dispatch(core int, j *domain.Job, time int) {
	j.Start(core, time)
	s.cores[core] = j
	s.counters.Dispatches++
	s.log.Debug("Job dispatched",
		zap.Int("job_id", j.ID),
		zap.Int("core", core),
		zap.Int("time", time),
		zap.Int("remaining", j.RemainingLength))
}

// preempt evicts the weakest running job if j strictly outranks it.
// Must only be called when every core is occupied.
func (s *Scheduler) preempt(j *domain.Job, time int) (int, bool) {
	for _, running := range s.cores {
		running.Checkpoint(time)
	}

	weakest := 0
	for i := 1; i < len(s.cores); i++ {
		if s.policy.compare(s.cores[weakest], s.cores[i]) < 0 {
			weakest = i
		}
	}

	victim := s.cores[weakest]
	if s.policy.compare(j, victim) >= 0 {
		return domain.NoCore, false
	}

	victim.Requeue(time)
	victim.Preemptions++
	s.waiting.Offer(victim)
	s.counters.Preemptions++
	s.log.Debug("Job preempted",
		zap.Int("job_id", victim.ID),
		zap.Int("by_job_id", j.ID),
		zap.Int("core", weakest),
		zap.Int("time", time),
		zap.Int("remaining", victim.RemainingLength))

	s.dispatch(weakest, j, time)
	return weakest, true
}
