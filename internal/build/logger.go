package build

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/btcsuite/btclog"
)

// NewLogger builds the dual-stream slog.Logger the teacher's daemon wires
// up by hand in main(): records go to stderr, and, if logDir is
// non-empty, to a rotating log file under it as well. The returned
// close func is RotatingLogWriter.Close, which closes the pipe feeding
// the rotator (not the rotator itself); call it once the logger is
// no longer needed. Passing an empty logDir disables file logging and
// close is a no-op.
func NewLogger(logDir string) (*slog.Logger, func() error, error) {
	var handlers []btclog.Handler

	consoleHandler := btclog.NewDefaultHandler(os.Stderr)
	handlers = append(handlers, consoleHandler)

	noop := func() error { return nil }

	if logDir == "" {
		return slog.New(NewHandlerSet(handlers...)), noop, nil
	}

	rotator := NewRotatingLogWriter()
	if err := rotator.InitLogRotator(&LogRotatorConfig{
		LogDir:         logDir,
		MaxLogFiles:    DefaultMaxLogFiles,
		MaxLogFileSize: DefaultMaxLogFileSize,
	}); err != nil {
		return nil, nil, fmt.Errorf("build: init log rotator: %w", err)
	}

	fileHandler := btclog.NewDefaultHandler(rotator)
	handlers = append(handlers, fileHandler)

	logger := slog.New(NewHandlerSet(handlers...))

	return logger, rotator.Close, nil
}
