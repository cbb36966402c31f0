package scheduler

import (
	"cmp"

	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/crabzie/coresched/internal/core/priqueue"
)

// policy binds a discipline to its comparator. It is resolved once at start up.
type policy struct {
	kind       domain.Policy
	compare    priqueue.Comparator[*domain.Job]
	preemptive bool
	rotating   bool
}

var policies = map[domain.Policy]policy{
	domain.PolicyFCFS: {kind: domain.PolicyFCFS, compare: noPreference},
	domain.PolicySJF:  {kind: domain.PolicySJF, compare: shortestFirst},
	domain.PolicyPSJF: {kind: domain.PolicyPSJF, compare: shortestFirst, preemptive: true},
	domain.PolicyPRI:  {kind: domain.PolicyPRI, compare: highestPriorityFirst},
	domain.PolicyPPRI: {kind: domain.PolicyPPRI, compare: highestPriorityFirst, preemptive: true},
	domain.PolicyRR:   {kind: domain.PolicyRR, compare: noPreference, rotating: true},
}

func lookupPolicy(p domain.Policy) (policy, bool) {
	pol, ok := policies[p]
	return pol, ok
}

// noPreference keeps insertion order.
func noPreference(_, _ *domain.Job) int { return 0 }

// shortestFirst ranks by remaining work. Jobs that never ran still have their
// full length remaining, so this is plain SJF for non-preemptive runs.
func shortestFirst(a, b *domain.Job) int {
	if c := cmp.Compare(a.RemainingLength, b.RemainingLength); c != 0 {
		return c
	}
	return cmp.Compare(a.ReadyTime, b.ReadyTime)
}

func highestPriorityFirst(a, b *domain.Job) int {
	if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
		return c
	}
	return cmp.Compare(a.ReadyTime, b.ReadyTime)
}
