package domain

import "fmt"

// JobState is the lifecycle state of a simulated job.
type JobState int

const (
	JobStateWaiting  JobState = iota // In the waiting queue
	JobStateRunning                  // Occupying a core
	JobStateFinished                 // Completed, kept only for statistics
)

func (s JobState) String() string {
	switch s {
	case JobStateWaiting:
		return "WAITING"
	case JobStateRunning:
		return "RUNNING"
	case JobStateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// NoCore marks a job that is not occupying any core.
const NoCore = -1

// Job is one unit of schedulable work. Times and lengths are logical ticks.
type Job struct {
	ID              int      `json:"id"`
	ArrivalTime     int      `json:"arrival_time"`
	OriginalLength  int      `json:"original_length"`
	RemainingLength int      `json:"remaining_length"` // as of LastStartTime
	Priority        int      `json:"priority"`         // lower value = higher priority
	State           JobState `json:"state"`
	Core            int      `json:"core"`

	// ReadyTime is when the job last entered the waiting queue (arrival,
	// preemption or quantum rotation). Comparators break ties on it.
	ReadyTime      int `json:"ready_time"`
	LastStartTime  int `json:"last_start_time"`
	FirstStartTime int `json:"first_start_time"` // -1 until first dispatch
	CompletionTime int `json:"completion_time"`
	Preemptions    int `json:"preemptions"`
}

// NewJob creates a job that has just arrived at time.
func NewJob(id, time, length, priority int) *Job {
	return &Job{
		ID:              id,
		ArrivalTime:     time,
		OriginalLength:  length,
		RemainingLength: length,
		Priority:        priority,
		State:           JobStateWaiting,
		Core:            NoCore,
		ReadyTime:       time,
		LastStartTime:   -1,
		FirstStartTime:  -1,
		CompletionTime:  -1,
	}
}

// Start places the job on core at time.
func (j *Job) Start(core, time int) {
	j.State = JobStateRunning
	j.Core = core
	j.LastStartTime = time
	if j.FirstStartTime < 0 {
		j.FirstStartTime = time
	}
}

// Checkpoint charges the CPU time consumed since the last start against the
// remaining length and restarts the accounting window at time.
func (j *Job) Checkpoint(time int) {
	if j.State != JobStateRunning {
		return
	}
	consumed := time - j.LastStartTime
	j.RemainingLength -= consumed
	if j.RemainingLength < 0 {
		j.RemainingLength = 0
	}
	j.LastStartTime = time
}

// Requeue moves a running job back to the waiting state at time.
func (j *Job) Requeue(time int) {
	j.Checkpoint(time)
	j.State = JobStateWaiting
	j.Core = NoCore
	j.ReadyTime = time
}

// Finish marks the job completed at time.
func (j *Job) Finish(time int) {
	j.State = JobStateFinished
	j.Core = NoCore
	j.RemainingLength = 0
	j.CompletionTime = time
}

// ProjectedCompletion is the time the job finishes if it keeps its core.
func (j *Job) ProjectedCompletion() int {
	return j.LastStartTime + j.RemainingLength
}

func (j *Job) String() string {
	return fmt.Sprintf("%d(%d)", j.ID, j.Core)
}

// JobResult holds the retained timestamps of a finished job.
type JobResult struct {
	JobID          int `json:"job_id"`
	ArrivalTime    int `json:"arrival_time"`
	Length         int `json:"length"`
	Priority       int `json:"priority"`
	FirstStartTime int `json:"first_start_time"`
	CompletionTime int `json:"completion_time"`
	Preemptions    int `json:"preemptions"`
}

// Result snapshots the statistics of a finished job.
func (j *Job) Result() JobResult {
	return JobResult{
		JobID:          j.ID,
		ArrivalTime:    j.ArrivalTime,
		Length:         j.OriginalLength,
		Priority:       j.Priority,
		FirstStartTime: j.FirstStartTime,
		CompletionTime: j.CompletionTime,
		Preemptions:    j.Preemptions,
	}
}

// TurnaroundTime is completion minus arrival.
func (r JobResult) TurnaroundTime() int { return r.CompletionTime - r.ArrivalTime }

// WaitingTime is the time spent ready but not running.
func (r JobResult) WaitingTime() int { return r.TurnaroundTime() - r.Length }

// ResponseTime is first dispatch minus arrival.
func (r JobResult) ResponseTime() int { return r.FirstStartTime - r.ArrivalTime }
