package observability

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/khartman/memoflow/internal/history"
	"github.com/khartman/memoflow/internal/linkcheck"
	"github.com/khartman/memoflow/internal/types"
)

func TestPrintRunState(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	state := types.RunState{
		Subject: "Acme Corp",
		Stage:   types.StageDraftingMemo,
		Artifacts: []types.Artifact{
			{Key: types.KeySources, Title: "Primary Sources", Filename: "sources.md", Content: "# Sources"},
		},
	}

	p.PrintRunState(state)
	output := buf.String()

	assert.Contains(t, output, "RUN STATE")
	assert.Contains(t, output, "Acme Corp")
	assert.Contains(t, output, "drafting_memo")
	assert.Contains(t, output, "sources.md")
}

func TestPrintLinkResults(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	results := []linkcheck.Result{
		{URL: "https://example.com/a.pdf", Status: linkcheck.StatusVerified},
		{URL: "https://example.com/b.pdf", Status: linkcheck.StatusDead},
		{URL: "https://example.com/c.pdf", Status: linkcheck.StatusUnverifiable},
	}

	p.PrintLinkResults(results)
	output := buf.String()

	assert.Contains(t, output, "LINK VERIFICATION")
	assert.Contains(t, output, "Checked 3 links")
	assert.Contains(t, output, "✓")
	assert.Contains(t, output, "✗")
	assert.Contains(t, output, "?")
}

func TestPrintLinkResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLinkResults(nil)

	assert.Empty(t, buf.String())
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	entries := []history.Entry{
		{Subject: "Acme Corp", CompletedAt: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)},
		{Subject: "Globex", CompletedAt: time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC)},
	}

	p.PrintHistory(entries)
	output := buf.String()

	assert.Contains(t, output, "RUN HISTORY")
	assert.Contains(t, output, "Acme Corp")
	assert.Contains(t, output, "Globex")
	assert.Contains(t, output, "2026-03-10 09:30")
}

func TestPrintArtifactPreview_TruncatesLongContent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	artifact := types.Artifact{
		Key:      types.KeyMemo,
		Title:    "Investment Memo",
		Filename: "memo.md",
		Content:  "line1\nline2\nline3\nline4\nline5\nline6\nline7",
	}

	p.PrintArtifactPreview(artifact)
	output := buf.String()

	assert.Contains(t, output, "INVESTMENT MEMO")
	assert.Contains(t, output, "line1")
	assert.Contains(t, output, "more lines")
	assert.NotContains(t, output, "line7")
}
