package bugreport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarkdownIncludesFailureAndLog(t *testing.T) {
	r := Report{
		Title:          "Deadlock in actor Waiter#1",
		Strategy:       "dfs",
		Seed:           7,
		Iteration:      3,
		StepsTaken:     12,
		FailureMessage: "Deadlock detected. 'Waiter#1' is waiting to receive an event, but no other controlled tasks are enabled.",
		TracePath:      "/tmp/trace-3.jsonl",
		Log: []LogLine{
			{Actor: "Waiter#1", Kind: "ReceiveEvent", Message: "waiting for Never"},
		},
		GeneratedAt: time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC),
	}

	md := r.Markdown()
	require.Contains(t, md, "# Deadlock in actor Waiter#1")
	require.Contains(t, md, "**Seed:** 7")
	require.Contains(t, md, "Deadlock detected.")
	require.Contains(t, md, "Waiter#1")
	require.Contains(t, md, "/tmp/trace-3.jsonl")
}

func TestHTMLRendersWithoutError(t *testing.T) {
	r := Report{
		Title:          "Assertion failure",
		FailureMessage: "boom",
	}

	html, err := r.HTML()
	require.NoError(t, err)
	require.Contains(t, string(html), "<h1")
	require.Contains(t, string(html), "boom")
}

func TestSortLogsByActorIsStable(t *testing.T) {
	lines := []LogLine{
		{Actor: "B", Kind: "x", Message: "1"},
		{Actor: "A", Kind: "x", Message: "1"},
		{Actor: "B", Kind: "x", Message: "2"},
		{Actor: "A", Kind: "x", Message: "2"},
	}

	sorted := SortLogsByActor(lines)
	require.Equal(t, []string{"A", "A", "B", "B"}, []string{
		sorted[0].Actor, sorted[1].Actor, sorted[2].Actor, sorted[3].Actor,
	})
	require.Equal(t, "1", sorted[0].Message)
	require.Equal(t, "2", sorted[1].Message)
}
