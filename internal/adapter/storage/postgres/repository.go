package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	pgdb "github.com/crabzie/coresched/config/storage/postgresql"
	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/crabzie/coresched/internal/core/port"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	runsTable = "simulation_runs"
	jobsTable = "job_results"
)

var runColumns = []string{
	"id::text", "workload", "fingerprint", "policy", "cores", "quantum",
	"avg_waiting_time", "avg_turnaround_time", "avg_response_time",
	"makespan", "dispatches", "preemptions", "rotations", "created_at",
}

type runRepository struct {
	db  *pgdb.DB
	log *zap.Logger
}

// NewRunRepository creates a new postgres repository for simulation runs
func NewRunRepository(db *pgdb.DB, log *zap.Logger) port.RunRepository {
	return &runRepository{
		db:  db,
		log: log,
	}
}

func insertRunQuery(qb squirrel.StatementBuilderType, run *domain.RunSummary) squirrel.InsertBuilder {
	return qb.Insert(runsTable).
		Columns("id", "workload", "fingerprint", "policy", "cores", "quantum",
			"avg_waiting_time", "avg_turnaround_time", "avg_response_time",
			"makespan", "dispatches", "preemptions", "rotations", "created_at").
		Values(run.ID, run.Workload, run.Fingerprint, string(run.Policy), run.Cores, run.Quantum,
			run.AverageWaitingTime, run.AverageTurnaroundTime, run.AverageResponseTime,
			run.Makespan, run.Dispatches, run.Preemptions, run.Rotations, run.CreatedAt)
}

// insertJobsQuery returns false when the run has no jobs to insert
func insertJobsQuery(qb squirrel.StatementBuilderType, run *domain.RunSummary) (squirrel.InsertBuilder, bool) {
	q := qb.Insert(jobsTable).
		Columns("run_id", "job_id", "arrival_time", "length", "priority",
			"first_start_time", "completion_time", "preemptions")
	for _, j := range run.Jobs {
		q = q.Values(run.ID, j.JobID, j.ArrivalTime, j.Length, j.Priority,
			j.FirstStartTime, j.CompletionTime, j.Preemptions)
	}
	return q, len(run.Jobs) > 0
}

func selectRunQuery(qb squirrel.StatementBuilderType) squirrel.SelectBuilder {
	return qb.Select(runColumns...).From(runsTable)
}

func selectJobsQuery(qb squirrel.StatementBuilderType, runID string) squirrel.SelectBuilder {
	return qb.Select("job_id", "arrival_time", "length", "priority",
		"first_start_time", "completion_time", "preemptions").
		From(jobsTable).
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("job_id")
}

func scanRun(row pgx.Row) (*domain.RunSummary, error) {
	var (
		run    domain.RunSummary
		policy string
	)
	err := row.Scan(&run.ID, &run.Workload, &run.Fingerprint, &policy, &run.Cores, &run.Quantum,
		&run.AverageWaitingTime, &run.AverageTurnaroundTime, &run.AverageResponseTime,
		&run.Makespan, &run.Dispatches, &run.Preemptions, &run.Rotations, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	run.Policy = domain.Policy(policy)
	return &run, nil
}

// Save stores the run and its per-job results in one transaction
func (r *runRepository) Save(ctx context.Context, run *domain.RunSummary) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query, args, err := insertRunQuery(*r.db.QueryBuilder, run).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		if r.db.ErrorCode(err) == pgerrcode.UniqueViolation {
			return fmt.Errorf("run %s already stored: %w", run.ID, err)
		}
		r.log.Error("Failed to save run", zap.String("run", run.ID), zap.Error(err))
		return err
	}

	if q, ok := insertJobsQuery(*r.db.QueryBuilder, run); ok {
		query, args, err := q.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			r.log.Error("Failed to save job results", zap.String("run", run.ID), zap.Error(err))
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetByID loads a run together with its per-job results
func (r *runRepository) GetByID(ctx context.Context, id string) (*domain.RunSummary, error) {
	query, args, err := selectRunQuery(*r.db.QueryBuilder).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	run, err := scanRun(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
		}
		return nil, err
	}

	query, args, err = selectJobsQuery(*r.db.QueryBuilder, id).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var j domain.JobResult
		if err := rows.Scan(&j.JobID, &j.ArrivalTime, &j.Length, &j.Priority,
			&j.FirstStartTime, &j.CompletionTime, &j.Preemptions); err != nil {
			return nil, err
		}
		run.Jobs = append(run.Jobs, j)
	}
	return run, rows.Err()
}

// ListByWorkload returns the newest runs of a workload without their per-job results
func (r *runRepository) ListByWorkload(ctx context.Context, workload string, limit uint64) ([]*domain.RunSummary, error) {
	q := selectRunQuery(*r.db.QueryBuilder).
		Where(squirrel.Eq{"workload": workload}).
		OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
