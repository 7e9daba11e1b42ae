package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Summarize coverage labels hit across every recorded run",
	Long: `Summarize the opaque coverage labels a CoverageCollector attached
to internal/explore.Options recorded, aggregated across every run in the
tracestore database.`,
	RunE: runCoverage,
}

func runCoverage(cmd *cobra.Command, args []string) error {
	store, err := getStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.CoverageSummary(context.Background())
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return outputJSON(summary)
	}

	if len(summary) == 0 {
		fmt.Println("No coverage recorded.")
		return nil
	}

	labels := make([]string, 0, len(summary))
	for label := range summary {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		fmt.Printf("%-40s %d\n", label, summary[label])
	}

	return nil
}
