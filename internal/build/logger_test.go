package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesRotatingFile(t *testing.T) {
	dir := t.TempDir()

	logger, closeFn, err := NewLogger(dir)
	require.NoError(t, err)
	t.Cleanup(func() { closeFn() })

	logger.Info("hello from the test", "iteration", 1)

	require.NoError(t, closeFn())

	_, err = os.Stat(filepath.Join(dir, DefaultLogFilename))
	require.NoError(t, err)
}

func TestNewLoggerWithoutDirSkipsFile(t *testing.T) {
	logger, closeFn, err := NewLogger("")
	require.NoError(t, err)
	t.Cleanup(func() { closeFn() })

	logger.Info("console only")
}
