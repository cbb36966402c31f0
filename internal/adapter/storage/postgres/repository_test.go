package postgres

import (
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func testRun() *domain.RunSummary {
	return &domain.RunSummary{
		ID:                    "6f1c1f5e-0000-4000-8000-000000000001",
		Workload:              "demo",
		Fingerprint:           "abc123",
		Policy:                domain.PolicyPSJF,
		Cores:                 2,
		AverageWaitingTime:    1.5,
		AverageTurnaroundTime: 4,
		AverageResponseTime:   1,
		Makespan:              9,
		Dispatches:            3,
		Preemptions:           1,
		CreatedAt:             time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Jobs: []domain.JobResult{
			{JobID: 0, Length: 5, CompletionTime: 6, FirstStartTime: 0},
			{JobID: 1, ArrivalTime: 1, Length: 2, CompletionTime: 3, FirstStartTime: 1},
		},
	}
}

func TestInsertRunQuery(t *testing.T) {
	run := testRun()
	query, args, err := insertRunQuery(psql, run).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "INSERT INTO simulation_runs")
	assert.Contains(t, query, "$14")
	assert.NotContains(t, query, "$15")
	require.Len(t, args, 14)
	assert.Equal(t, run.ID, args[0])
	assert.Equal(t, "PSJF", args[3])
	assert.Equal(t, run.CreatedAt, args[13])
}

func TestInsertJobsQuery(t *testing.T) {
	tests := map[string]struct {
		jobs     []domain.JobResult
		wantOK   bool
		wantArgs int
	}{
		"two jobs": {jobs: testRun().Jobs, wantOK: true, wantArgs: 16},
		"no jobs":  {jobs: nil, wantOK: false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			run := testRun()
			run.Jobs = tc.jobs

			q, ok := insertJobsQuery(psql, run)
			assert.Equal(t, tc.wantOK, ok)
			if !ok {
				return
			}
			query, args, err := q.ToSql()
			require.NoError(t, err)
			assert.Contains(t, query, "INSERT INTO job_results")
			assert.Len(t, args, tc.wantArgs)
			assert.Equal(t, run.ID, args[0])
			assert.Equal(t, 1, args[9], "second row starts with run id then job id")
		})
	}
}

func TestSelectQueries(t *testing.T) {
	query, args, err := selectRunQuery(psql).Where(squirrel.Eq{"workload": "demo"}).OrderBy("created_at DESC").Limit(5).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id::text, workload, fingerprint, policy, cores, quantum, avg_waiting_time, avg_turnaround_time, avg_response_time, makespan, dispatches, preemptions, rotations, created_at FROM simulation_runs WHERE workload = $1 ORDER BY created_at DESC LIMIT 5",
		query)
	assert.Equal(t, []interface{}{"demo"}, args)

	query, args, err = selectJobsQuery(psql, "run-1").ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT job_id, arrival_time, length, priority, first_start_time, completion_time, preemptions FROM job_results WHERE run_id = $1 ORDER BY job_id",
		query)
	assert.Equal(t, []interface{}{"run-1"}, args)
}
