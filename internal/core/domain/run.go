package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// JobSpec describes one job of a workload.
type JobSpec struct {
	ID       int `json:"id" yaml:"id"`
	Arrival  int `json:"arrival" yaml:"arrival"`
	Length   int `json:"length" yaml:"length"`
	Priority int `json:"priority" yaml:"priority"`
}

// Workload is a self-contained simulation input.
type Workload struct {
	Name    string    `json:"name" yaml:"name"`
	Cores   int       `json:"cores" yaml:"cores"`
	Policy  Policy    `json:"policy,omitempty" yaml:"policy,omitempty"`
	Quantum int       `json:"quantum,omitempty" yaml:"quantum,omitempty"`
	Jobs    []JobSpec `json:"jobs" yaml:"jobs"`
}

// Validate checks the workload for the given policy.
func (w *Workload) Validate(p Policy) error {
	if w.Cores < 1 {
		return fmt.Errorf("%w: cores must be >= 1, got %d", ErrInvalidWorkload, w.Cores)
	}
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedPolicy, p)
	}
	if p == PolicyRR && w.Quantum < 1 {
		return fmt.Errorf("%w: round robin needs quantum >= 1, got %d", ErrInvalidWorkload, w.Quantum)
	}
	seen := make(map[int]struct{}, len(w.Jobs))
	for _, j := range w.Jobs {
		if _, dup := seen[j.ID]; dup {
			return fmt.Errorf("%w: duplicate job id %d", ErrInvalidWorkload, j.ID)
		}
		seen[j.ID] = struct{}{}
		if j.Arrival < 0 {
			return fmt.Errorf("%w: job %d arrives at negative time %d", ErrInvalidWorkload, j.ID, j.Arrival)
		}
		if j.Length < 1 {
			return fmt.Errorf("%w: job %d has non-positive length %d", ErrInvalidWorkload, j.ID, j.Length)
		}
	}
	return nil
}

// Fingerprint is a stable hash of the workload contents, used as a cache key.
func (w *Workload) Fingerprint() string {
	data, _ := json.Marshal(struct {
		Cores   int       `json:"cores"`
		Quantum int       `json:"quantum"`
		Jobs    []JobSpec `json:"jobs"`
	}{w.Cores, w.Quantum, w.Jobs})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// RunSummary is the outcome of one simulation.
type RunSummary struct {
	ID                    string      `json:"id"`
	Workload              string      `json:"workload"`
	Fingerprint           string      `json:"fingerprint"`
	Policy                Policy      `json:"policy"`
	Cores                 int         `json:"cores"`
	Quantum               int         `json:"quantum"`
	AverageWaitingTime    float64     `json:"average_waiting_time"`
	AverageTurnaroundTime float64     `json:"average_turnaround_time"`
	AverageResponseTime   float64     `json:"average_response_time"`
	Makespan              int         `json:"makespan"`
	Dispatches            int         `json:"dispatches"`
	Preemptions           int         `json:"preemptions"`
	Rotations             int         `json:"rotations"`
	Jobs                  []JobResult `json:"jobs"`
	CreatedAt             time.Time   `json:"created_at"`
}

// SimulationRequest asks a runner to simulate a workload under some policies.
// An empty Policies list means every policy.
type SimulationRequest struct {
	ID       string    `json:"id"`
	Workload Workload  `json:"workload"`
	Policies []Policy  `json:"policies,omitempty"`
	SentAt   time.Time `json:"sent_at"`
}
