package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roasbeef/actorlab/internal/tracestore"
)

var runsOutcomeFilter string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect persisted exploration runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs recorded in the tracestore database",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a single run's detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsListCmd.Flags().StringVar(
		&runsOutcomeFilter, "outcome", "",
		"Filter by outcome: success, failure, inconclusive",
	)

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := getStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	runs, err := store.ListRuns(ctx, tracestore.Outcome(runsOutcomeFilter))
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return outputJSON(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	for _, run := range runs {
		fmt.Print(formatRun(run))
		fmt.Println()
	}

	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := getStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(context.Background(), args[0])
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return outputJSON(run)
	}

	fmt.Print(formatRun(run))

	return nil
}
