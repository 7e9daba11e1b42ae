package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/actorlab/internal/replay"
	"github.com/roasbeef/actorlab/internal/tracestore"
)

func TestFormatRunIncludesOutcomeAndSeed(t *testing.T) {
	store, err := tracestore.Open(filepath.Join(t.TempDir(), "trace.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()

	runID, err := store.BeginRun(ctx, tracestore.RunParams{
		Strategy: "random", Seed: 7, MaxSteps: 100, Iteration: 1,
	})
	require.NoError(t, err)

	err = store.FinishRun(ctx, runID, tracestore.OutcomeSuccess, 42, "")
	require.NoError(t, err)

	run, err := store.GetRun(ctx, runID)
	require.NoError(t, err)

	out := formatRun(run)
	require.Contains(t, out, "random")
	require.Contains(t, out, "7")
	require.Contains(t, out, "success")
}

func TestReplaySchedulePicksSurvivesLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	w, err := replay.NewWriter(path)
	require.NoError(t, err)
	w.RecordSchedulePick("Ping#1")
	w.RecordRandomPick(3)
	require.NoError(t, w.Close())

	src, err := replay.Load(path)
	require.NoError(t, err)

	require.Equal(t, []string{"Ping#1"}, src.SchedulePicks())
	require.Equal(t, []int{3}, src.RandomPicks())
}
