package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khartman/memoflow/internal/linkcheck"
	"github.com/khartman/memoflow/internal/observability"
	"github.com/khartman/memoflow/internal/types"
)

func TestResolveConfig_FlagOverridesFile(t *testing.T) {
	content := `{"subject": "File Corp", "link_timeout_seconds": 30, "suffix": ".pdf"}`
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	runConfigPath = tmpFile
	require.NoError(t, runCommand.Flags().Set("subject", "Flag Corp"))
	t.Cleanup(func() {
		runConfigPath = ""
		runCommand.Flags().Set("subject", "") //nolint:errcheck
	})

	cfg, err := resolveConfig(runCommand)
	require.NoError(t, err)

	// Flag wins over file, file wins over defaults
	assert.Equal(t, "Flag Corp", cfg.Subject)
	assert.Equal(t, 30, cfg.LinkTimeoutSeconds)
	assert.Equal(t, ".pdf", cfg.Suffix)
	assert.Equal(t, "out", cfg.OutputDir)
}

func TestResolveConfig_Defaults(t *testing.T) {
	runConfigPath = ""

	cfg, err := resolveConfig(runCommand)
	require.NoError(t, err)

	assert.Equal(t, ".pdf", cfg.Suffix)
	assert.Equal(t, 5, cfg.LinkTimeoutSeconds)
}

func TestReportingVerifier_PrintsResultsAndAnnotates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
	}))
	t.Cleanup(srv.Close)
	url := srv.URL + "/report.pdf"

	var buf bytes.Buffer
	rv := &reportingVerifier{
		checker: linkcheck.NewVerifier(linkcheck.WithSuffix(".pdf")),
		suffix:  ".pdf",
		printer: observability.NewPrinter(&buf),
	}

	out := rv.Verify(context.Background(), "see "+url+" for filings")

	assert.Contains(t, out, url+" ✅")
	assert.Contains(t, buf.String(), "LINK VERIFICATION")
	assert.Contains(t, buf.String(), "✓")
}

func TestReportingVerifier_NoLinksPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	rv := &reportingVerifier{
		checker: linkcheck.NewVerifier(),
		suffix:  ".pdf",
		printer: observability.NewPrinter(&buf),
	}

	text := "prose with no document links"
	assert.Equal(t, text, rv.Verify(context.Background(), text))
	assert.Empty(t, buf.String())
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	artifacts := []types.Artifact{
		{Key: types.KeySources, Title: "Primary Sources", Filename: "sources.md", Content: "# Sources"},
		{Key: types.KeyMemo, Title: "Investment Memo", Filename: "memo.md", Content: "# Memo"},
	}

	require.NoError(t, writeArtifacts(dir, artifacts))

	data, err := os.ReadFile(filepath.Join(dir, "sources.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Sources", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "memo.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Memo", string(data))
}
