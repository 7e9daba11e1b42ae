// Package commands implements the actorlab CLI: a thin driver over
// internal/tracestore, internal/replay and internal/bugreport for
// inspecting artifacts a library-driven exploration run already
// produced. It does not itself run an exploration: that happens from a
// caller's own Go code via internal/explore.Run, the same way a Coyote
// user drives the actual test run and only reaches for tooling like this
// to inspect what came out of it.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// dbPath is the path to the tracestore sqlite database.
	dbPath string

	// outputFormat controls output format (text, json).
	outputFormat string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "actorlab",
	Short: "Inspect actorlab exploration artifacts",
	Long: `actorlab is a thin command-line front end over the actorlab
controlled-concurrency runtime's persisted artifacts: the run history and
coverage kept in a tracestore database, and the replay traces and bug
reports an exploration run leaves on disk.

It does not drive exploration itself; write a Go program that calls
internal/explore.Run (or the runtime package directly) and point this CLI
at the database and directories it was configured to use.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&dbPath, "db", "actorlab.db",
		"Path to the tracestore SQLite database",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputFormat, "format", "text",
		"Output format: text, json",
	)

	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(coverageCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}
