// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/khartman/memoflow/internal/history"
	"github.com/khartman/memoflow/internal/linkcheck"
	"github.com/khartman/memoflow/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRunState outputs a human-readable summary of the current run.
func (p *Printer) PrintRunState(state types.RunState) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Subject:  %s\n", state.Subject))
	sb.WriteString(fmt.Sprintf("Stage:    %s\n", state.Stage))

	if len(state.Artifacts) > 0 {
		sb.WriteString("\nArtifacts:\n")
		for _, a := range state.Artifacts {
			sb.WriteString(fmt.Sprintf("  • %s (%s, %d bytes)\n", a.Title, a.Filename, len(a.Content)))
		}
	}

	if state.Err != "" {
		sb.WriteString(fmt.Sprintf("\nError: %s\n", state.Err))
	}

	p.printBox("RUN STATE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLinkResults outputs per-link verification outcomes with status indicators.
func (p *Printer) PrintLinkResults(results []linkcheck.Result) {
	if len(results) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Checked %d links:\n\n", len(results)))

	count := min(len(results), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := results[i]
		url := r.URL
		if len(url) > 42 {
			url = url[:39] + "..."
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", statusIndicator(r.Status), url))
	}

	if len(results) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more links", len(results)-maxItemsToShow))
	}

	p.printBox("LINK VERIFICATION", strings.TrimSuffix(sb.String(), "\n"))
}

// statusIndicator maps a verification status to a short display symbol.
func statusIndicator(s linkcheck.Status) string {
	switch s {
	case linkcheck.StatusVerified:
		return "✓"
	case linkcheck.StatusInvalid:
		return "!"
	case linkcheck.StatusDead:
		return "✗"
	default:
		return "?"
	}
}

// PrintHistory outputs the stored run history, most recent first.
func (p *Printer) PrintHistory(entries []history.Entry) {
	if len(entries) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Stored runs: %d\n\n", len(entries)))

	for i, e := range entries {
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, e.Subject))
		sb.WriteString(fmt.Sprintf("    Completed: %s\n", e.CompletedAt.Format("2006-01-02 15:04")))
		sb.WriteString(fmt.Sprintf("    Artifacts: %d\n", len(e.Artifacts)))
		if i < len(entries)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("RUN HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintArtifactPreview outputs the first lines of a generated artifact.
func (p *Printer) PrintArtifactPreview(artifact types.Artifact) {
	lines := strings.Split(artifact.Content, "\n")

	var sb strings.Builder
	count := min(len(lines), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(lines[i])
		sb.WriteString("\n")
	}
	if len(lines) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more lines", len(lines)-maxItemsToShow))
	}

	p.printBox(strings.ToUpper(artifact.Title), strings.TrimSuffix(sb.String(), "\n"))
}
