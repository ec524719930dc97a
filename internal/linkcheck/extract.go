// Package linkcheck verifies that document links embedded in generated text
// actually point at reachable files of the expected type.
package linkcheck

import (
	"regexp"
	"strings"
	"sync"
)

// DefaultSuffix is the document suffix links are matched against.
const DefaultSuffix = ".pdf"

var (
	patternCache   = make(map[string]*regexp.Regexp)
	patternCacheMu sync.Mutex
)

// urlPattern returns the compiled extraction pattern for a suffix: an http(s)
// URL made of URL-safe characters and terminated by the suffix. The match
// stops before whitespace, pipes and bracket characters so links survive
// markdown tables and [text](url) syntax. Suffix match is case-insensitive.
func urlPattern(suffix string) *regexp.Regexp {
	patternCacheMu.Lock()
	defer patternCacheMu.Unlock()

	if re, ok := patternCache[suffix]; ok {
		return re
	}
	re := regexp.MustCompile(`(?i)https?://[^\s|\[\]()<>]+` + regexp.QuoteMeta(suffix))
	patternCache[suffix] = re
	return re
}

// Extract scans text for URLs ending in suffix and returns them deduplicated
// by exact string equality, preserving first-seen order. Text with no
// matching URLs yields an empty result; malformed fragments are simply not
// matched, never an error.
func Extract(text, suffix string) []string {
	if suffix == "" {
		suffix = DefaultSuffix
	}

	matches := urlPattern(suffix).FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			urls = append(urls, m)
		}
	}
	return urls
}

// mediaFragment returns the content-type fragment expected for a suffix,
// e.g. ".pdf" -> "pdf". Matching is by case-insensitive substring so both
// "application/pdf" and "application/x-pdf" qualify.
func mediaFragment(suffix string) string {
	return strings.ToLower(strings.TrimPrefix(suffix, "."))
}
