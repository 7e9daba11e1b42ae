package tracestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestStore creates a Store backed by a real sqlite database in a
// temporary directory, cleaned up when the test finishes.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "trace.db")

	store, err := Open(path, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestBeginAndFinishRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.BeginRun(ctx, RunParams{
		Strategy:  "random",
		Seed:      7,
		MaxSteps:  1000,
		Iteration: 1,
		TracePath: "/tmp/trace-1.jsonl",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, store.FinishRun(ctx, id, OutcomeSuccess, 42, ""))

	run, err := store.GetRun(ctx, id)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, run.Outcome)
	require.Equal(t, 42, run.StepsTaken)
	require.Equal(t, int64(7), run.Seed)
	require.Equal(t, "/tmp/trace-1.jsonl", run.TracePath)
}

func TestFinishRunUnknownID(t *testing.T) {
	store := newTestStore(t)

	err := store.FinishRun(context.Background(), "does-not-exist", OutcomeFailure, 1, "boom")
	require.Error(t, err)
}

func TestListRunsFiltersByOutcome(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	okID, err := store.BeginRun(ctx, RunParams{Strategy: "random", Seed: 1, MaxSteps: 10, Iteration: 1})
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(ctx, okID, OutcomeSuccess, 5, ""))

	failID, err := store.BeginRun(ctx, RunParams{Strategy: "dfs", Seed: 2, MaxSteps: 10, Iteration: 2})
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(ctx, failID, OutcomeFailure, 9, "assertion failed"))

	failures, err := store.ListRuns(ctx, OutcomeFailure)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	require.Equal(t, failID, failures[0].ID)
	require.Equal(t, "assertion failed", failures[0].FailureMessage)

	all, err := store.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestRecordCoverageAccumulates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.BeginRun(ctx, RunParams{Strategy: "random", Seed: 1, MaxSteps: 10, Iteration: 1})
	require.NoError(t, err)

	require.NoError(t, store.RecordCoverage(ctx, id, []string{"state:Idle->Busy", "event:Ping"}))
	require.NoError(t, store.RecordCoverage(ctx, id, []string{"state:Idle->Busy"}))

	summary, err := store.CoverageSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), summary["state:Idle->Busy"])
	require.Equal(t, int64(1), summary["event:Ping"])
}
