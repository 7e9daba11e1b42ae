package runtime

import (
	"fmt"

	"github.com/roasbeef/actorlab/internal/scheduler"
)

// Config gathers the exploration knobs spec.md §6 names for a single
// invocation of the explore harness.
type Config struct {
	// Strategy selects the scheduling strategy. Supported values are
	// "random" and "dfs"; NewStrategy returns an error for every
	// other name.
	Strategy string

	// Iterations is the number of independent schedules to explore.
	Iterations int

	// MaxSteps bounds each schedule's scheduling-point count; 0 means
	// unbounded.
	MaxSteps int

	// Seed feeds the random oracle when Strategy is "random".
	Seed int64

	// ReportCoverage carries the report_coverage setting. Nothing in
	// this module reads it: internal/explore collects coverage whenever
	// Options.Coverage is set, regardless of this field.
	ReportCoverage bool

	// Verbose carries the verbose setting. Nothing in this module reads
	// it; the log records emitted are the same either way.
	Verbose bool
}

// DefaultConfig returns the zero-value-safe baseline: a single random
// schedule, unbounded steps, seed 1.
func DefaultConfig() Config {
	return Config{Strategy: "random", Iterations: 1, Seed: 1}
}

// NewStrategy builds the scheduler.Strategy named by cfg.Strategy.
//
// Only "random" and "dfs" are implemented as distinct strategies here;
// "dfs" is approximated by RoundRobinStrategy, which always explores
// operations in a fixed deterministic order rather than a true
// depth-first backtracking search over unexplored branches. "pct",
// "probabilistic", "portfolio" and "fuzzing" are not implemented;
// requesting one returns an error naming the two supported strategies,
// and any other name returns an unknown-strategy error.
func NewStrategy(cfg Config) (scheduler.Strategy, error) {
	switch cfg.Strategy {
	case "", "random":
		return scheduler.NewRandomStrategy(cfg.Seed), nil

	case "dfs":
		return scheduler.NewRoundRobinStrategy(), nil

	case "pct", "probabilistic", "portfolio", "fuzzing":
		return nil, fmt.Errorf(
			"runtime: strategy %q is not implemented; use \"random\" or \"dfs\"",
			cfg.Strategy,
		)

	default:
		return nil, fmt.Errorf("runtime: unknown strategy %q", cfg.Strategy)
	}
}
