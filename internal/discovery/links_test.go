package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDocumentLinks_FindsPDFs(t *testing.T) {
	html := `
		<html><body>
			<a href="/reports/2023-annual.pdf">2023 Annual Report</a>
			<a href="https://cdn.example.net/q4-earnings.pdf">Q4 Earnings</a>
			<a href="/about">About</a>
			<a href="/press/release.html">Press</a>
		</body></html>`

	links, err := ExtractDocumentLinks(html, "https://ir.example.com/filings", ".pdf")
	require.NoError(t, err)
	require.Len(t, links, 2)

	assert.Equal(t, "https://ir.example.com/reports/2023-annual.pdf", links[0].URL)
	assert.Equal(t, "2023 Annual Report", links[0].Text)
	// Cross-origin document hosting (CDNs) is kept.
	assert.Equal(t, "https://cdn.example.net/q4-earnings.pdf", links[1].URL)
}

func TestExtractDocumentLinks_DeduplicatesAndStripsFragments(t *testing.T) {
	html := `
		<html><body>
			<a href="/a.pdf#page=3">First</a>
			<a href="/a.pdf">Again</a>
			<a href="/A-different.PDF">Upper</a>
		</body></html>`

	links, err := ExtractDocumentLinks(html, "https://example.com", ".pdf")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "https://example.com/a.pdf", links[0].URL)
	assert.Equal(t, "https://example.com/A-different.PDF", links[1].URL)
}

func TestExtractDocumentLinks_InvalidBaseURL(t *testing.T) {
	_, err := ExtractDocumentLinks("<html></html>", "not-a-url", ".pdf")
	var extractErr *LinkExtractionError
	require.ErrorAs(t, err, &extractErr)
}

func TestExtractDocumentLinks_NoMatches(t *testing.T) {
	links, err := ExtractDocumentLinks("<html><body><a href='/x.html'>x</a></body></html>", "https://example.com", ".pdf")
	require.NoError(t, err)
	assert.Empty(t, links)
}
