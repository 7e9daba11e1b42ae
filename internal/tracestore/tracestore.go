// Package tracestore persists the outcome of each explored schedule
// (spec.md §6 "exploration loop") to a local sqlite database: which
// strategy and seed produced it, how many steps it ran, whether it
// succeeded, failed, or hit the step bound, and where its replay trace
// lives on disk. internal/explore uses this to drive its exit code and to
// let a later `actorlab replay` locate the trace for a failing iteration.
package tracestore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how one explored iteration ended.
type Outcome string

const (
	// OutcomeSuccess means the schedule ran to quiescence with no
	// assertion, deadlock, or monitor failure.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailure means an assertion, deadlock, or monitor violation
	// was observed during the schedule.
	OutcomeFailure Outcome = "failure"

	// OutcomeInconclusive means the configured max_steps bound was
	// reached before the schedule quiesced.
	OutcomeInconclusive Outcome = "inconclusive"
)

// RunParams describes one iteration about to be explored.
type RunParams struct {
	Strategy  string
	Seed      int64
	MaxSteps  int
	Iteration int
	TracePath string
}

// Run is one persisted iteration record.
type Run struct {
	ID             string
	Strategy       string
	Seed           int64
	MaxSteps       int
	Iteration      int
	Outcome        Outcome
	StepsTaken     int
	TracePath      string
	FailureMessage string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Store is a sqlite-backed record of explored iterations.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun inserts a new run row in progress (outcome left blank until
// FinishRun) and returns its generated id.
func (s *Store) BeginRun(ctx context.Context, params RunParams) (string, error) {
	id := uuid.NewString()
	now := time.Now().UnixNano()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, strategy, seed, max_steps, iteration, outcome,
			steps_taken, trace_path, failure_message, started_at,
			finished_at
		) VALUES (?, ?, ?, ?, ?, '', 0, ?, '', ?, 0)`,
		id, params.Strategy, params.Seed, params.MaxSteps,
		params.Iteration, params.TracePath, now,
	)
	if err != nil {
		return "", fmt.Errorf("tracestore: insert run: %w", err)
	}

	return id, nil
}

// FinishRun records the final outcome of a previously begun run.
func (s *Store) FinishRun(ctx context.Context, runID string, outcome Outcome,
	stepsTaken int, failureMessage string) error {

	now := time.Now().UnixNano()

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET outcome = ?, steps_taken = ?, failure_message = ?,
		    finished_at = ?
		WHERE id = ?`,
		string(outcome), stepsTaken, failureMessage, now, runID,
	)
	if err != nil {
		return fmt.Errorf("tracestore: finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tracestore: finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("tracestore: finish run: no run with id %q", runID)
	}

	return nil
}

// GetRun looks up a single run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, strategy, seed, max_steps, iteration, outcome,
		       steps_taken, trace_path, failure_message, started_at,
		       finished_at
		FROM runs WHERE id = ?`, runID,
	)

	return scanRun(row)
}

// ListRuns returns every persisted run, optionally filtered to a single
// outcome (pass "" for all outcomes), most recent first.
func (s *Store) ListRuns(ctx context.Context, outcome Outcome) ([]Run, error) {
	query := `
		SELECT id, strategy, seed, max_steps, iteration, outcome,
		       steps_taken, trace_path, failure_message, started_at,
		       finished_at
		FROM runs`
	args := []any{}

	if outcome != "" {
		query += " WHERE outcome = ?"
		args = append(args, string(outcome))
	}

	query += " ORDER BY started_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("tracestore: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tracestore: list runs: %w", err)
	}

	return out, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run                   Run
		outcome               string
		startedAt, finishedAt int64
	)

	err := row.Scan(
		&run.ID, &run.Strategy, &run.Seed, &run.MaxSteps, &run.Iteration,
		&outcome, &run.StepsTaken, &run.TracePath, &run.FailureMessage,
		&startedAt, &finishedAt,
	)
	if err != nil {
		return Run{}, fmt.Errorf("tracestore: scan run: %w", err)
	}

	run.Outcome = Outcome(outcome)
	run.StartedAt = time.Unix(0, startedAt)
	run.FinishedAt = time.Unix(0, finishedAt)

	return run, nil
}

// RecordCoverage increments the hit count of each label observed during
// runID's schedule (spec.md §6 "coverage" hook: labels are opaque strings
// supplied by a CoverageCollector).
func (s *Store) RecordCoverage(ctx context.Context, runID string, labels []string) error {
	for _, label := range labels {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO coverage_points (run_id, label, hit_count)
			VALUES (?, ?, 1)
			ON CONFLICT (run_id, label)
			DO UPDATE SET hit_count = hit_count + 1`,
			runID, label,
		)
		if err != nil {
			return fmt.Errorf("tracestore: record coverage: %w", err)
		}
	}

	return nil
}

// CoverageSummary aggregates hit counts for label across every run.
func (s *Store) CoverageSummary(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, SUM(hit_count) FROM coverage_points GROUP BY label`,
	)
	if err != nil {
		return nil, fmt.Errorf("tracestore: coverage summary: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var label string
		var total int64
		if err := rows.Scan(&label, &total); err != nil {
			return nil, fmt.Errorf("tracestore: coverage summary: %w", err)
		}
		out[label] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tracestore: coverage summary: %w", err)
	}

	return out, nil
}
