package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSummariesBestFirst(t *testing.T) {
	runs := []*domain.RunSummary{
		{Policy: domain.PolicyFCFS, AverageTurnaroundTime: 9},
		{Policy: domain.PolicySJF, AverageTurnaroundTime: 4.5},
		{Policy: domain.PolicyRR, AverageTurnaroundTime: 7, Rotations: 3},
	}

	var out bytes.Buffer
	require.NoError(t, printSummaries(&out, runs))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "POLICY"))
	assert.True(t, strings.HasPrefix(lines[1], "SJF"))
	assert.True(t, strings.HasPrefix(lines[2], "RR"))
	assert.True(t, strings.HasPrefix(lines[3], "FCFS"))
	assert.Contains(t, lines[1], "4.50")

	assert.Equal(t, domain.PolicyFCFS, runs[0].Policy, "input order is left alone")
}

func TestFormatDecision(t *testing.T) {
	evicted := 3
	tests := map[string]struct {
		decision domain.Decision
		contains []string
		absent   []string
	}{
		"preemption": {
			decision: domain.Decision{Policy: domain.PolicyPSJF, Time: 4, Kind: domain.DecisionPreempt, Core: 1, JobID: 5, Evicted: &evicted, Queue: "3(-1)"},
			contains: []string{"t=4", "PSJF", "PREEMPT", "core=1", "job=5", "evicted=3", "queue=[3(-1)]"},
		},
		"queued": {
			decision: domain.Decision{Policy: domain.PolicyFCFS, Time: 2, Kind: domain.DecisionQueued, Core: domain.NoCore, JobID: 1, Queue: "1(-1)"},
			contains: []string{"QUEUED", "job=1"},
			absent:   []string{"core=", "evicted="},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			line := formatDecision(tc.decision)
			for _, s := range tc.contains {
				assert.Contains(t, line, s)
			}
			for _, s := range tc.absent {
				assert.NotContains(t, line, s)
			}
		})
	}
}

func TestTraceSinkWritesOneLinePerDecision(t *testing.T) {
	var out bytes.Buffer
	sink := newTraceSink(&out)

	require.NoError(t, sink.Decide(context.Background(), domain.Decision{Kind: domain.DecisionArrival, JobID: 0}))
	require.NoError(t, sink.Decide(context.Background(), domain.Decision{Kind: domain.DecisionFinish, JobID: 0}))

	assert.Equal(t, 2, strings.Count(out.String(), "\n"))
}
