package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	w, err := NewWriter(path)
	require.NoError(t, err)

	w.RecordSchedulePick("op-1")
	w.RecordRandomPick(1)
	w.RecordSchedulePick("op-2")
	w.RecordSchedulePick("op-1")
	w.RecordRandomPick(0)

	require.NoError(t, w.Close())

	src, err := Load(path)
	require.NoError(t, err)

	id, ok := src.NextSchedulePick()
	require.True(t, ok)
	require.Equal(t, "op-1", id)

	id, ok = src.NextSchedulePick()
	require.True(t, ok)
	require.Equal(t, "op-2", id)

	id, ok = src.NextSchedulePick()
	require.True(t, ok)
	require.Equal(t, "op-1", id)

	_, ok = src.NextSchedulePick()
	require.False(t, ok)

	v, ok := src.NextRandomPick()
	require.True(t, ok)
	require.Equal(t, 1, v)

	v, ok = src.NextRandomPick()
	require.True(t, ok)
	require.Equal(t, 0, v)

	_, ok = src.NextRandomPick()
	require.False(t, ok)
}

func TestLoadToleratesTruncatedFinalLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	w, err := NewWriter(path)
	require.NoError(t, err)

	w.RecordSchedulePick("op-1")
	w.RecordSchedulePick("op-2")
	require.NoError(t, w.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"kind":"schedule","op_id":"op-3`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	src, err := Load(path)
	require.NoError(t, err)

	id, ok := src.NextSchedulePick()
	require.True(t, ok)
	require.Equal(t, "op-1", id)

	id, ok = src.NextSchedulePick()
	require.True(t, ok)
	require.Equal(t, "op-2", id)

	_, ok = src.NextSchedulePick()
	require.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
}
