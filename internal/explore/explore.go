// Package explore drives the iteration loop spec.md §6 calls "controlled
// exploration": run a program under a fresh internal/runtime.Controlled
// context some number of times, each time with a different schedule
// (random seed or round-robin ordering), persist the outcome of every
// iteration to internal/tracestore, and produce an internal/bugreport for
// the first schedule that fails.
package explore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/actors"
	"github.com/roasbeef/actorlab/internal/bugreport"
	"github.com/roasbeef/actorlab/internal/build"
	"github.com/roasbeef/actorlab/internal/replay"
	"github.com/roasbeef/actorlab/internal/runtime"
	"github.com/roasbeef/actorlab/internal/scheduler"
	"github.com/roasbeef/actorlab/internal/tracestore"
)

// Program is the system under exploration: given a fresh Controlled
// context, it creates the initial actors and issues whatever top-level
// sends are needed to kick the schedule off. The harness has already
// called host.AcquireRoot before invoking Program and calls
// host.CompleteRoot immediately after it returns, so Program should not
// call either itself.
type Program func(ctx context.Context, host *runtime.Controlled) error

// CoverageCollector inspects one log record as it's emitted and returns
// zero or more opaque coverage labels it represents (e.g. a state
// transition or an event type seen). A nil collector disables coverage
// tracking entirely; this is the default.
type CoverageCollector func(rec actors.LogRecord) []string

// Exit codes, matching spec.md §6 "exploration loop" exit-code contract.
const (
	// ExitSuccess means every iteration ran to quiescence with no
	// failure and (if bounded) no iteration was inconclusive.
	ExitSuccess = 0

	// ExitFailure means at least one iteration hit an assertion,
	// deadlock, or monitor violation.
	ExitFailure = 1

	// ExitInconclusive means no iteration failed outright, but at least
	// one hit the configured max_steps bound before quiescing.
	ExitInconclusive = 2
)

// quiescePollInterval is how often the harness checks whether a schedule
// has reached quiescence or its step bound. This isn't a scheduling point
// itself: it only observes state the scheduler already serializes.
const quiescePollInterval = time.Millisecond

// Options configures one exploration run.
type Options struct {
	Config runtime.Config

	// Types is the actor type registry shared across every iteration.
	Types *runtime.TypeRegistry

	// Store persists per-iteration outcomes and coverage, if non-nil.
	Store *tracestore.Store

	// TraceDir is the directory replay traces are written under, named
	// trace-<iteration>.jsonl. Empty disables trace persistence.
	TraceDir string

	// BugReportDir is the directory a Markdown bug report is written
	// to for the first failing iteration, named bug-<iteration>.md.
	// Empty disables bug report generation.
	BugReportDir string

	// Coverage, if non-nil, is consulted for every log record emitted
	// during every iteration.
	Coverage CoverageCollector

	// Log receives every log record across every iteration, in
	// addition to whatever coverage/report processing happens
	// internally. Typically wired to a livelog.Hub's LogSink.
	Log runtime.LogSink

	// Logger receives progress diagnostics ("iteration complete", ...).
	// If nil and LogDir is empty, slog.Default() is used. If nil and
	// LogDir is set, build.NewLogger(LogDir) builds the console+rotating
	// file logger the teacher's daemon wires up by hand.
	Logger *slog.Logger

	// LogDir is consulted only when Logger is nil; see Logger.
	LogDir string
}

// IterationResult summarizes one completed iteration.
type IterationResult struct {
	Iteration      int
	Outcome        tracestore.Outcome
	StepsTaken     int
	FailureMessage string
	TracePath      string
}

// Result summarizes an entire exploration run.
type Result struct {
	ExitCode   int
	Iterations []IterationResult
}

// Run explores program for the configured number of iterations.
func Run(ctx context.Context, program Program, opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		if opts.LogDir != "" {
			builtLogger, closeLog, err := build.NewLogger(opts.LogDir)
			if err != nil {
				return Result{}, fmt.Errorf("explore: build logger: %w", err)
			}
			defer closeLog()

			log = builtLogger
		} else {
			log = slog.Default()
		}
	}

	iterations := opts.Config.Iterations
	if iterations <= 0 {
		iterations = 1
	}

	var res Result

	for i := 1; i <= iterations; i++ {
		iterCfg := opts.Config
		iterCfg.Seed = opts.Config.Seed + int64(i-1)

		iterResult, err := runIteration(ctx, program, opts, iterCfg, i)
		if err != nil {
			return res, fmt.Errorf("explore: iteration %d: %w", i, err)
		}

		log.InfoContext(ctx, "iteration complete",
			"iteration", i,
			"outcome", string(iterResult.Outcome),
			"steps_taken", iterResult.StepsTaken,
		)

		res.Iterations = append(res.Iterations, iterResult)

		if iterResult.Outcome == tracestore.OutcomeFailure {
			res.ExitCode = ExitFailure
			break
		}

		if iterResult.Outcome == tracestore.OutcomeInconclusive && res.ExitCode < ExitInconclusive {
			res.ExitCode = ExitInconclusive
		}
	}

	return res, nil
}

func runIteration(ctx context.Context, program Program, opts Options,
	cfg runtime.Config, iteration int) (IterationResult, error) {

	strat, err := runtime.NewStrategy(cfg)
	if err != nil {
		return IterationResult{}, err
	}

	var (
		tracePath string
		writer    *replay.Writer
		rec       scheduler.Recorder
	)

	if opts.TraceDir != "" {
		if err := os.MkdirAll(opts.TraceDir, 0o755); err != nil {
			return IterationResult{}, fmt.Errorf("create trace dir: %w", err)
		}

		tracePath = filepath.Join(opts.TraceDir, fmt.Sprintf("trace-%d.jsonl", iteration))

		writer, err = replay.NewWriter(tracePath)
		if err != nil {
			return IterationResult{}, err
		}
		defer writer.Close()

		rec = writer
	}

	host := runtime.NewControlled(fmt.Sprintf("explore-%d", iteration), opts.Types, strat, cfg.MaxSteps, rec)

	var (
		failureMessage string
		failed         bool
		failedCh       = make(chan struct{})
		coverageLabels []string
	)

	host.RegisterFailureSink(func(_ actorid.ID, message string) {
		if !failed {
			failed = true
			failureMessage = message
			close(failedCh)
		}
	})

	host.RegisterLog(func(r actors.LogRecord) {
		if opts.Log != nil {
			opts.Log(r)
		}
		if opts.Coverage != nil {
			coverageLabels = append(coverageLabels, opts.Coverage(r)...)
		}
	})

	var runID string
	if opts.Store != nil {
		runID, err = opts.Store.BeginRun(ctx, tracestore.RunParams{
			Strategy:  cfg.Strategy,
			Seed:      cfg.Seed,
			MaxSteps:  cfg.MaxSteps,
			Iteration: iteration,
			TracePath: tracePath,
		})
		if err != nil {
			return IterationResult{}, err
		}
	}

	host.AcquireRoot()

	if err := program(ctx, host); err != nil {
		return IterationResult{}, fmt.Errorf("program: %w", err)
	}

	if err := host.CompleteRoot(); err != nil {
		return IterationResult{}, err
	}

poll:
	for !host.Quiescent() && !host.StepsExceeded() {
		select {
		case <-ctx.Done():
			return IterationResult{}, ctx.Err()
		case <-failedCh:
			break poll
		case <-time.After(quiescePollInterval):
		}
	}

	outcome := tracestore.OutcomeSuccess
	switch {
	case failed:
		outcome = tracestore.OutcomeFailure
	case host.StepsExceeded():
		outcome = tracestore.OutcomeInconclusive
	}

	if opts.Store != nil {
		if err := opts.Store.FinishRun(ctx, runID, outcome, host.Steps(), failureMessage); err != nil {
			return IterationResult{}, err
		}

		if len(coverageLabels) > 0 {
			if err := opts.Store.RecordCoverage(ctx, runID, coverageLabels); err != nil {
				return IterationResult{}, err
			}
		}
	}

	if outcome == tracestore.OutcomeFailure && opts.BugReportDir != "" {
		if err := writeBugReport(opts, cfg, iteration, host.Steps(), failureMessage, tracePath); err != nil {
			return IterationResult{}, err
		}
	}

	return IterationResult{
		Iteration:      iteration,
		Outcome:        outcome,
		StepsTaken:     host.Steps(),
		FailureMessage: failureMessage,
		TracePath:      tracePath,
	}, nil
}

func writeBugReport(opts Options, cfg runtime.Config, iteration, stepsTaken int,
	failureMessage, tracePath string) error {

	if err := os.MkdirAll(opts.BugReportDir, 0o755); err != nil {
		return fmt.Errorf("create bug report dir: %w", err)
	}

	report := bugreport.Report{
		Title:          fmt.Sprintf("Schedule failure at iteration %d", iteration),
		Strategy:       cfg.Strategy,
		Seed:           cfg.Seed,
		Iteration:      iteration,
		StepsTaken:     stepsTaken,
		FailureMessage: failureMessage,
		TracePath:      tracePath,
		GeneratedAt:    time.Now(),
	}

	path := filepath.Join(opts.BugReportDir, fmt.Sprintf("bug-%d.md", iteration))

	return os.WriteFile(path, []byte(report.Markdown()), 0o644)
}
