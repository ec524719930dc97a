package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds each individual probe.
const DefaultTimeout = 5 * time.Second

// DefaultUserAgent is the user agent string for probe requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; Memoflow/1.0)"

// Status classifies the outcome of one probe.
type Status string

// Probe outcomes. Unverifiable means the probe could not determine either
// way (timeout, refusal, network error) and is distinct from a confirmed
// dead link.
const (
	StatusVerified     Status = "verified"
	StatusInvalid      Status = "invalid"
	StatusDead         Status = "dead"
	StatusUnverifiable Status = "unverifiable"
)

// Result is the settled outcome of probing one URL.
type Result struct {
	URL    string
	Status Status
}

// Verifier probes document links and annotates text with their status.
// The zero value is not usable; call NewVerifier.
type Verifier struct {
	suffix    string
	timeout   time.Duration
	userAgent string
	client    *http.Client
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithSuffix sets the document suffix to match (default ".pdf").
func WithSuffix(suffix string) Option {
	return func(v *Verifier) { v.suffix = suffix }
}

// WithTimeout sets the per-probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) { v.timeout = d }
}

// WithClient sets the HTTP client used for probes.
func WithClient(c *http.Client) Option {
	return func(v *Verifier) { v.client = c }
}

// NewVerifier creates a Verifier with defaults suitable for PDF links.
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{
		suffix:    DefaultSuffix,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		client:    &http.Client{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify extracts document links from text, probes them all concurrently and
// returns the text with per-link status markers and a trailing summary. Text
// containing no matching links is returned unchanged. Probe failures degrade
// to informational status; Verify never returns an error.
func (v *Verifier) Verify(ctx context.Context, text string) string {
	urls := Extract(text, v.suffix)
	if len(urls) == 0 {
		return text
	}
	return v.Annotate(text, v.Check(ctx, urls))
}

// Check probes each URL once, all probes issued concurrently. It returns only
// after every probe has settled; one probe's timeout or failure never cancels
// a sibling.
func (v *Verifier) Check(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))

	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			results[i] = Result{URL: u, Status: v.probe(ctx, u)}
			return nil
		})
	}
	_ = g.Wait() // probes classify their own failures

	return results
}

// probe performs a single bounded-time HEAD existence check. The body is
// never fetched.
func (v *Verifier) probe(ctx context.Context, url string) Status {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return StatusUnverifiable
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		return StatusUnverifiable
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return StatusDead
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(contentType, mediaFragment(v.suffix)) {
		return StatusVerified
	}
	return StatusInvalid
}

// marker returns the inline annotation for a status, or "" for statuses that
// carry no inline marker.
func (v *Verifier) marker(status Status) string {
	switch status {
	case StatusVerified:
		return "✅"
	case StatusInvalid:
		return fmt.Sprintf("⚠️ [not a %s]", strings.ToUpper(mediaFragment(v.suffix)))
	case StatusDead:
		return "❌ [unreachable]"
	default:
		return ""
	}
}

// Annotate appends a status marker after every occurrence of each probed URL
// and a trailing summary block. Replacement is a single pass over maximal URL
// tokens, so a URL that is a string prefix of another never matches inside
// the longer one. Occurrences already carrying a marker have it absorbed and
// rewritten, so annotating prior output with identical results is a no-op
// for the markers.
func (v *Verifier) Annotate(text string, results []Result) string {
	if len(results) == 0 {
		return text
	}

	markers := make(map[string]string, len(results))
	var invalidOrDead, unverifiable int
	for _, r := range results {
		switch r.Status {
		case StatusInvalid, StatusDead:
			invalidOrDead++
		case StatusUnverifiable:
			unverifiable++
			continue // no inline marker
		}
		markers[r.URL] = v.marker(r.Status)
	}

	tokenRe := urlPattern(v.suffix)
	text = v.annotationPattern().ReplaceAllStringFunc(text, func(m string) string {
		url := tokenRe.FindString(m) // leading URL token, any trailing marker excluded
		marker, ok := markers[url]
		if !ok {
			return m
		}
		return url + " " + marker
	})

	return text + v.summary(len(results), invalidOrDead, unverifiable)
}

// annotationPattern matches one maximal URL token optionally followed by one
// of the inline markers, so existing markers are absorbed on rewrite.
func (v *Verifier) annotationPattern() *regexp.Regexp {
	alts := []string{
		regexp.QuoteMeta(v.marker(StatusVerified)),
		regexp.QuoteMeta(v.marker(StatusInvalid)),
		regexp.QuoteMeta(v.marker(StatusDead)),
	}
	return regexp.MustCompile(urlPattern(v.suffix).String() + `(?: (?:` + strings.Join(alts, `|`) + `))?`)
}

// summary builds the trailing verification block: an alert when confirmed
// problems exist, otherwise a note about unverifiable links, otherwise a
// success line.
func (v *Verifier) summary(total, invalidOrDead, unverifiable int) string {
	var sb strings.Builder
	sb.WriteString("\n\n---\n")

	switch {
	case invalidOrDead > 0:
		sb.WriteString(fmt.Sprintf("⚠️ Link check: %d of %d document link(s) are broken or do not point at %s files. Review the flagged links before relying on this material.",
			invalidOrDead, total, strings.ToUpper(mediaFragment(v.suffix))))
	case unverifiable > 0:
		sb.WriteString(fmt.Sprintf("ℹ️ Link check: %d link(s) could not be verified automatically. This may reflect access restrictions on the origin rather than broken links.",
			unverifiable))
	default:
		sb.WriteString(fmt.Sprintf("✅ Link check: all %d document link(s) verified.", total))
	}

	sb.WriteString("\n")
	return sb.String()
}
