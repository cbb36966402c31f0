package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" psjf ")
	require.NoError(t, err)
	assert.Equal(t, PolicyPSJF, p)

	_, err = ParsePolicy("lottery")
	assert.ErrorIs(t, err, ErrUnsupportedPolicy)
}

func TestJobAccountingAcrossPreemptions(t *testing.T) {
	j := NewJob(1, 0, 10, 0)
	j.Start(0, 0)
	j.Requeue(3)
	assert.Equal(t, 7, j.RemainingLength)
	assert.Equal(t, 3, j.ReadyTime)
	assert.Equal(t, 0, j.ArrivalTime)
	assert.Equal(t, NoCore, j.Core)

	j.Start(1, 5)
	j.Checkpoint(6)
	assert.Equal(t, 6, j.RemainingLength)
	assert.Equal(t, 12, j.ProjectedCompletion())
	assert.Equal(t, 0, j.FirstStartTime)

	j.Finish(12)
	r := j.Result()
	assert.Equal(t, 12, r.TurnaroundTime())
	assert.Equal(t, 2, r.WaitingTime())
	assert.Equal(t, 0, r.ResponseTime())
}

func TestWorkloadValidate(t *testing.T) {
	valid := func() *Workload {
		return &Workload{Cores: 1, Quantum: 1, Jobs: []JobSpec{{ID: 0, Arrival: 0, Length: 1}}}
	}
	tests := map[string]struct {
		mutate func(w *Workload)
		policy Policy
	}{
		"no cores":           {mutate: func(w *Workload) { w.Cores = 0 }, policy: PolicyFCFS},
		"duplicate ids":      {mutate: func(w *Workload) { w.Jobs = append(w.Jobs, w.Jobs[0]) }, policy: PolicyFCFS},
		"negative arrival":   {mutate: func(w *Workload) { w.Jobs[0].Arrival = -1 }, policy: PolicyFCFS},
		"empty job":          {mutate: func(w *Workload) { w.Jobs[0].Length = 0 }, policy: PolicySJF},
		"rr without quantum": {mutate: func(w *Workload) { w.Quantum = 0 }, policy: PolicyRR},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			w := valid()
			tc.mutate(w)
			assert.ErrorIs(t, w.Validate(tc.policy), ErrInvalidWorkload)
		})
	}

	assert.NoError(t, valid().Validate(PolicyRR))
}

func TestFingerprintIgnoresNameAndPolicy(t *testing.T) {
	a := &Workload{Name: "a", Cores: 2, Policy: PolicyFCFS, Jobs: []JobSpec{{ID: 1, Length: 3}}}
	b := &Workload{Name: "b", Cores: 2, Policy: PolicyRR, Jobs: []JobSpec{{ID: 1, Length: 3}}}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Cores = 3
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
