package domain

// DecisionKind names the event that produced a decision.
type DecisionKind string

const (
	DecisionArrival  DecisionKind = "ARRIVAL"
	DecisionFinish   DecisionKind = "FINISH"
	DecisionQuantum  DecisionKind = "QUANTUM"
	DecisionPreempt  DecisionKind = "PREEMPT"
	DecisionQueued   DecisionKind = "QUEUED"
	DecisionIdle     DecisionKind = "IDLE"
	DecisionContinue DecisionKind = "CONTINUE"
)

// Decision records one scheduling decision taken during a run.
type Decision struct {
	RunID   string       `json:"run_id"`
	Policy  Policy       `json:"policy"`
	Time    int          `json:"time"`
	Kind    DecisionKind `json:"kind"`
	Core    int          `json:"core"`
	JobID   int          `json:"job_id"`
	Evicted *int         `json:"evicted,omitempty"` // preempted job id, PREEMPT only
	Queue   string       `json:"queue"`             // queue trace after the decision
}
