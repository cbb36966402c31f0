package service

import "github.com/crabzie/coresched/internal/core/domain"

type eventKind int

// Kinds are ordered: at equal time completions run first, then quantum
// expiries, then arrivals.
const (
	eventCompletion eventKind = iota
	eventQuantum
	eventArrival
)

// event is a simulator-internal event.
type event struct {
	time int
	kind eventKind
	// Each event is assigned a sequence number.
	// Events with equal time and kind are ordered by their sequence number.
	sequenceNumber int
	core           int
	// Completion and quantum events are only valid while the core's epoch is unchanged.
	epoch int
	job   domain.JobSpec
}

type eventLog []event

func (el eventLog) Len() int { return len(el) }

func (el eventLog) Less(i, j int) bool {
	if el[i].time != el[j].time {
		return el[i].time < el[j].time
	}
	if el[i].kind != el[j].kind {
		return el[i].kind < el[j].kind
	}
	return el[i].sequenceNumber < el[j].sequenceNumber
}

func (el eventLog) Swap(i, j int) { el[i], el[j] = el[j], el[i] }

func (el *eventLog) Push(x any) {
	*el = append(*el, x.(event))
}

func (el *eventLog) Pop() any {
	old := *el
	n := len(old)
	item := old[n-1]
	old[n-1] = event{} // avoid memory leak
	*el = old[:n-1]
	return item
}
