// Package discovery locates candidate primary documents for a subject:
// investor-relations pages via web search, and the PDF document links they
// contain.
package discovery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LinkExtractionError represents an error while pulling document links out
// of a page.
type LinkExtractionError struct {
	Message string
	Cause   error
}

func (e *LinkExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("link extraction failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("link extraction failed: %s", e.Message)
}

func (e *LinkExtractionError) Unwrap() error {
	return e.Cause
}

// DocumentLink is one document found on a page.
type DocumentLink struct {
	URL  string // absolute URL
	Text string // anchor text, trimmed
}

// ExtractDocumentLinks returns the links on a page whose target ends in
// suffix (case-insensitive), with relative hrefs resolved against baseURL.
// Deduplicated by URL, document order preserved.
func ExtractDocumentLinks(htmlContent, baseURL, suffix string) ([]DocumentLink, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &LinkExtractionError{Message: "failed to parse base URL", Cause: err}
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, &LinkExtractionError{
			Message: fmt.Sprintf("invalid base URL: %s (must have scheme and host)", baseURL),
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &LinkExtractionError{Message: "failed to parse HTML", Cause: err}
	}

	suffix = strings.ToLower(suffix)
	seen := make(map[string]bool)
	var links []DocumentLink

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}

		linkURL, err := url.Parse(href)
		if err != nil {
			return // skip malformed hrefs
		}

		absolute := base.ResolveReference(linkURL)
		absolute.Fragment = ""
		if !strings.HasSuffix(strings.ToLower(absolute.Path), suffix) {
			return
		}

		urlString := absolute.String()
		if seen[urlString] {
			return
		}
		seen[urlString] = true

		links = append(links, DocumentLink{
			URL:  urlString,
			Text: strings.TrimSpace(s.Text()),
		})
	})

	return links, nil
}
