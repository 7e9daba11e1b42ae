package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roasbeef/actorlab/internal/tracestore"
)

// getStore opens the tracestore database at dbPath.
func getStore() (*tracestore.Store, error) {
	store, err := tracestore.Open(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracestore at %q: %w", dbPath, err)
	}

	return store, nil
}

// outputJSON prints v as indented JSON.
func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))

	return nil
}

// formatRun formats a single run for text output.
func formatRun(run tracestore.Run) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Run %s\n", run.ID)
	sb.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(&sb, "Strategy:   %s\n", run.Strategy)
	fmt.Fprintf(&sb, "Seed:       %d\n", run.Seed)
	fmt.Fprintf(&sb, "Iteration:  %d\n", run.Iteration)
	fmt.Fprintf(&sb, "Outcome:    %s\n", run.Outcome)
	fmt.Fprintf(&sb, "Steps:      %d\n", run.StepsTaken)
	if run.TracePath != "" {
		fmt.Fprintf(&sb, "Trace:      %s\n", run.TracePath)
	}
	if run.FailureMessage != "" {
		fmt.Fprintf(&sb, "Failure:    %s\n", run.FailureMessage)
	}
	fmt.Fprintf(&sb, "Started:    %s\n", run.StartedAt.Format(time.RFC3339))
	if run.Outcome != "" {
		fmt.Fprintf(&sb, "Finished:   %s\n", run.FinishedAt.Format(time.RFC3339))
	}

	return sb.String()
}
