package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roasbeef/actorlab/internal/bugreport"
)

var reportHTML bool

var reportCmd = &cobra.Command{
	Use:   "report <run-id>",
	Short: "Render a failing run as a Markdown or HTML bug report",
	Long: `Render a previously recorded run as a bug report, the same shape
internal/explore writes automatically for the first failing iteration of a
run. Useful for regenerating a report, or producing one for a run that was
recorded without internal/explore's BugReportDir configured.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(
		&reportHTML, "html", false,
		"Render as HTML instead of Markdown",
	)
}

func runReport(cmd *cobra.Command, args []string) error {
	store, err := getStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(context.Background(), args[0])
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Schedule %s at iteration %d", run.Outcome, run.Iteration)

	report := bugreport.Report{
		Title:          title,
		Strategy:       run.Strategy,
		Seed:           run.Seed,
		Iteration:      run.Iteration,
		StepsTaken:     run.StepsTaken,
		FailureMessage: run.FailureMessage,
		TracePath:      run.TracePath,
		GeneratedAt:    time.Now(),
	}

	if !reportHTML {
		fmt.Print(report.Markdown())
		return nil
	}

	html, err := report.HTML()
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stdout, string(html))

	return nil
}
