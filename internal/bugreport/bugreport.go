// Package bugreport renders a failed schedule (spec.md §7 failure kinds:
// assertion, deadlock, monitor violation, uncaught panic) into a
// human-readable Markdown document, plus an HTML rendering of the same
// document for display in a browser.
package bugreport

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// LogLine is one log record captured over the course of the failing
// schedule, ordered as emitted.
type LogLine struct {
	Actor   string
	Kind    string
	Message string
}

// Report describes one failed iteration, assembled by internal/explore
// from the iteration's result, the failure sink's message and the trace
// path. internal/explore leaves Log empty.
type Report struct {
	// Title is a short one-line description of the failure, e.g.
	// "Assertion failure in actor Ping#3".
	Title string

	// Strategy and Seed identify how the failing schedule was chosen.
	Strategy string
	Seed     int64

	// Iteration is the 1-based iteration number within the exploration
	// run that produced this failure.
	Iteration int

	// StepsTaken is how many scheduling points the failing run consumed.
	StepsTaken int

	// FailureMessage is the assertion/deadlock/monitor message that
	// ended the schedule.
	FailureMessage string

	// TracePath is the on-disk internal/replay trace that reproduces
	// this exact interleaving, if one was persisted.
	TracePath string

	// Log is the ordered trail of log records leading up to the
	// failure.
	Log []LogLine

	// GeneratedAt is when this report was assembled.
	GeneratedAt time.Time
}

// Markdown renders r as a Markdown document.
func (r Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "- **Strategy:** %s\n", r.Strategy)
	fmt.Fprintf(&b, "- **Seed:** %d\n", r.Seed)
	fmt.Fprintf(&b, "- **Iteration:** %d\n", r.Iteration)
	fmt.Fprintf(&b, "- **Steps taken:** %d\n", r.StepsTaken)
	if r.TracePath != "" {
		fmt.Fprintf(&b, "- **Replay trace:** `%s`\n", r.TracePath)
	}
	fmt.Fprintf(&b, "- **Generated:** %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Failure\n\n")
	fmt.Fprintf(&b, "```\n%s\n```\n\n", r.FailureMessage)

	if len(r.Log) > 0 {
		b.WriteString("## Log\n\n")
		for _, line := range r.Log {
			fmt.Fprintf(&b, "- `%s` **%s**: %s\n", line.Actor, line.Kind, line.Message)
		}
	}

	return b.String()
}

// HTML renders r's Markdown form to HTML.
func (r Report) HTML() (template.HTML, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("bugreport: render markdown: %w", err)
	}

	return template.HTML(buf.String()), nil
}

// SortLogsByActor groups lines as a stable sort by actor, preserving each
// actor's own chronological order. Useful when a report aggregates log
// lines across multiple actors and a reader wants to follow one actor's
// thread at a time.
func SortLogsByActor(lines []LogLine) []LogLine {
	out := make([]LogLine, len(lines))
	copy(out, lines)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Actor < out[j].Actor
	})

	return out
}
