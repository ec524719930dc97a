package discovery

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/khartman/memoflow/internal/fetch"
)

// Searcher finds investor-relations and filings pages for a subject company
// using Google Custom Search.
type Searcher struct {
	svc *customsearch.Service
	cx  string
}

// NewSearcher creates a Searcher. Requires a Google Search API key and a
// custom search engine ID.
func NewSearcher(ctx context.Context, apiKey, cx string) (*Searcher, error) {
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &Searcher{svc: svc, cx: cx}, nil
}

// FindFilingPages returns candidate IR/filings page URLs for a subject.
func (s *Searcher) FindFilingPages(ctx context.Context, subject string) ([]string, error) {
	queries := []string{
		fmt.Sprintf("%s investor relations annual report", subject),
		fmt.Sprintf("%s SEC filings", subject),
	}

	seen := make(map[string]bool)
	var pages []string
	for _, q := range queries {
		resp, err := s.svc.Cse.List().Context(ctx).Cx(s.cx).Q(q).Num(3).Do()
		if err != nil {
			continue // skip failed queries gracefully
		}
		for _, item := range resp.Items {
			if !seen[item.Link] {
				seen[item.Link] = true
				pages = append(pages, item.Link)
			}
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no filing pages found for %s", subject)
	}
	return pages, nil
}

// Options configures a Discover call.
type Options struct {
	// Suffix of document links to collect, default ".pdf".
	Suffix string
	// UseBrowser enables headless-browser rendering when the HTTP fetch
	// yields too little content (JavaScript-rendered IR sites).
	UseBrowser bool
	Verbose    bool
}

// Discover fetches a filings page and lists the document links it carries.
// When the page looks JavaScript-rendered and UseBrowser is set, it retries
// with a headless browser before extracting.
func Discover(ctx context.Context, pageURL string, opts Options) ([]DocumentLink, error) {
	suffix := opts.Suffix
	if suffix == "" {
		suffix = ".pdf"
	}

	result, err := fetch.URL(ctx, pageURL, nil)
	if err != nil {
		return nil, err
	}
	html := result.HTML

	if opts.UseBrowser {
		text, textErr := fetch.ExtractMainText(html, fetch.IRPageSelectors())
		if textErr == nil && fetch.ShouldUseBrowser(text) {
			if opts.Verbose {
				log.Printf("[VERBOSE] Content too short (%d chars), falling back to browser rendering...", len(text))
			}
			if rendered, browserErr := fetch.BrowserSimple(ctx, pageURL, opts.Verbose); browserErr == nil {
				html = rendered
			} else if opts.Verbose {
				log.Printf("[VERBOSE] Browser rendering failed: %v, using HTTP content", browserErr)
			}
		}
	}

	links, err := ExtractDocumentLinks(html, pageURL, suffix)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		log.Printf("[VERBOSE] Found %d %s link(s) on %s", len(links), strings.TrimPrefix(suffix, "."), pageURL)
	}
	return links, nil
}
