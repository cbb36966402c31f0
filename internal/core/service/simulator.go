package service

import (
	"container/heap"
	"context"
	"fmt"
	"time"

	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/crabzie/coresched/internal/core/port"
	"github.com/crabzie/coresched/internal/core/scheduler"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type simulatorService struct {
	metrics port.MetricsRecorder
	sink    port.DecisionSink
	log     *zap.Logger
}

// NewSimulatorService creates the driver that replays workloads through a scheduler.
// metrics and sink may be nil.
func NewSimulatorService(metrics port.MetricsRecorder, sink port.DecisionSink, log *zap.Logger) *simulatorService {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &simulatorService{
		metrics: metrics,
		sink:    sink,
		log:     log,
	}
}

// simulation is the state of one run. It is confined to a single goroutine.
type simulation struct {
	ctx     context.Context
	svc     *simulatorService
	runID   string
	policy  domain.Policy
	quantum int
	sched   *scheduler.Scheduler
	events  eventLog
	seq     int
	epochs  []int
	log     *zap.Logger
}

// Run simulates w under policy p and returns the run summary.
func (s *simulatorService) Run(ctx context.Context, w *domain.Workload, p domain.Policy) (*domain.RunSummary, error) {
	if err := w.Validate(p); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := s.log.With(zap.String("run_id", runID), zap.String("workload", w.Name), zap.String("policy", string(p)))

	sched, err := scheduler.New(w.Cores, p, scheduler.WithLogger(log.Named("Scheduler")))
	if err != nil {
		return nil, err
	}
	defer sched.CleanUp()

	sim := &simulation{
		ctx:     ctx,
		svc:     s,
		runID:   runID,
		policy:  p,
		quantum: w.Quantum,
		sched:   sched,
		events:  make(eventLog, 0, len(w.Jobs)),
		epochs:  make([]int, w.Cores),
		log:     log,
	}
	for _, j := range w.Jobs {
		sim.push(event{time: j.Arrival, kind: eventArrival, core: domain.NoCore, job: j})
	}

	log.Info("Simulation started", zap.Int("jobs", len(w.Jobs)), zap.Int("cores", w.Cores))
	for sim.events.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ev := heap.Pop(&sim.events).(event)
		if err := sim.handle(ev); err != nil {
			return nil, fmt.Errorf("simulation %s at t=%d: %w", runID, ev.time, err)
		}
		s.metrics.QueueDepth(p, sched.QueueLen())
	}

	summary := sim.summary(w)
	log.Info("Simulation complete",
		zap.Float64("avg_waiting", summary.AverageWaitingTime),
		zap.Float64("avg_turnaround", summary.AverageTurnaroundTime),
		zap.Float64("avg_response", summary.AverageResponseTime),
		zap.Int("makespan", summary.Makespan),
		zap.Int("preemptions", summary.Preemptions))
	return summary, nil
}

func (sim *simulation) push(ev event) {
	ev.sequenceNumber = sim.seq
	sim.seq++
	heap.Push(&sim.events, ev)
}

func (sim *simulation) stale(ev event) bool {
	return ev.epoch != sim.epochs[ev.core]
}

func (sim *simulation) handle(ev event) error {
	switch ev.kind {
	case eventArrival:
		return sim.arrive(ev)
	case eventCompletion:
		if sim.stale(ev) {
			return nil
		}
		return sim.complete(ev)
	case eventQuantum:
		if sim.stale(ev) {
			return nil
		}
		return sim.expire(ev)
	default:
		return fmt.Errorf("unknown event kind %d", ev.kind)
	}
}

func (sim *simulation) arrive(ev event) error {
	j := ev.job
	occupants := make([]int, sim.sched.Cores())
	for core := range occupants {
		occupants[core] = domain.NoCore
		if running, ok := sim.sched.Running(core); ok {
			occupants[core] = running.ID
		}
	}

	core, ok := sim.sched.NewJob(j.ID, ev.time, j.Length, j.Priority)
	if !ok {
		sim.decide(domain.Decision{Time: ev.time, Kind: domain.DecisionQueued, Core: domain.NoCore, JobID: j.ID})
		return nil
	}

	d := domain.Decision{Time: ev.time, Kind: domain.DecisionArrival, Core: core, JobID: j.ID}
	if evicted := occupants[core]; evicted != domain.NoCore {
		d.Kind = domain.DecisionPreempt
		d.Evicted = &evicted
		sim.svc.metrics.Preempted(sim.policy)
	}
	sim.start(core, ev.time, true)
	sim.decide(d)
	return nil
}

func (sim *simulation) complete(ev event) error {
	running, ok := sim.sched.Running(ev.core)
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrCoreIdle, ev.core)
	}
	next, ok, err := sim.sched.JobFinished(ev.core, running.ID, ev.time)
	if err != nil {
		return err
	}
	sim.svc.metrics.Finished(sim.policy, ev.time-running.ArrivalTime)

	if !ok {
		sim.epochs[ev.core]++
		sim.decide(domain.Decision{Time: ev.time, Kind: domain.DecisionIdle, Core: ev.core, JobID: running.ID})
		return nil
	}
	sim.start(ev.core, ev.time, true)
	sim.decide(domain.Decision{Time: ev.time, Kind: domain.DecisionFinish, Core: ev.core, JobID: next})
	return nil
}

func (sim *simulation) expire(ev event) error {
	next, ok, err := sim.sched.QuantumExpired(ev.core, ev.time)
	if err != nil {
		return err
	}

	kind := domain.DecisionContinue
	if ok {
		kind = domain.DecisionQuantum
		sim.svc.metrics.Rotated(sim.policy)
	}
	jobID := sim.start(ev.core, ev.time, ok)
	if ok && next != jobID {
		return fmt.Errorf("core %d runs job %d, scheduler dispatched %d", ev.core, jobID, next)
	}
	sim.decide(domain.Decision{Time: ev.time, Kind: kind, Core: ev.core, JobID: jobID})
	return nil
}

// start schedules the follow-up events of whatever now occupies core and
// invalidates the events of its previous occupant.
func (sim *simulation) start(core, now int, dispatched bool) int {
	sim.epochs[core]++
	running, _ := sim.sched.Running(core)
	if dispatched {
		sim.svc.metrics.Dispatched(sim.policy)
	}

	sim.push(event{time: running.ProjectedCompletion(), kind: eventCompletion, core: core, epoch: sim.epochs[core]})
	if sim.policy == domain.PolicyRR && running.RemainingLength > sim.quantum {
		sim.push(event{time: now + sim.quantum, kind: eventQuantum, core: core, epoch: sim.epochs[core]})
	}
	return running.ID
}

func (sim *simulation) decide(d domain.Decision) {
	d.RunID = sim.runID
	d.Policy = sim.policy
	d.Queue = sim.sched.ShowQueue()
	sim.log.Debug("Scheduling decision",
		zap.String("kind", string(d.Kind)),
		zap.Int("time", d.Time),
		zap.Int("core", d.Core),
		zap.Int("job_id", d.JobID),
		zap.String("queue", d.Queue))

	if sim.svc.sink == nil {
		return
	}
	if err := sim.svc.sink.Decide(sim.ctx, d); err != nil {
		sim.log.Warn("Failed to emit decision", zap.Error(err))
	}
}

func (sim *simulation) summary(w *domain.Workload) *domain.RunSummary {
	results := sim.sched.Results()
	makespan := 0
	for _, r := range results {
		makespan = max(makespan, r.CompletionTime)
	}
	counters := sim.sched.Counters()

	return &domain.RunSummary{
		ID:                    sim.runID,
		Workload:              w.Name,
		Fingerprint:           w.Fingerprint(),
		Policy:                sim.policy,
		Cores:                 w.Cores,
		Quantum:               w.Quantum,
		AverageWaitingTime:    sim.sched.AverageWaitingTime(),
		AverageTurnaroundTime: sim.sched.AverageTurnaroundTime(),
		AverageResponseTime:   sim.sched.AverageResponseTime(),
		Makespan:              makespan,
		Dispatches:            counters.Dispatches,
		Preemptions:           counters.Preemptions,
		Rotations:             counters.Rotations,
		Jobs:                  results,
		CreatedAt:             time.Now().UTC(),
	}
}
