package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pdfServer returns a test server that answers HEAD with the given status and
// content type.
func pdfServer(t *testing.T, status int, contentType string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheck_Classification(t *testing.T) {
	okPDF := pdfServer(t, http.StatusOK, "application/pdf")
	okHTML := pdfServer(t, http.StatusOK, "text/html; charset=utf-8")
	notFound := pdfServer(t, http.StatusNotFound, "")

	// A server that is already closed yields a connection error.
	refused := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	refusedURL := refused.URL
	refused.Close()

	v := NewVerifier()
	results := v.Check(context.Background(), []string{
		okPDF.URL + "/a.pdf",
		okHTML.URL + "/b.pdf",
		notFound.URL + "/c.pdf",
		refusedURL + "/d.pdf",
	})

	require.Len(t, results, 4)
	assert.Equal(t, StatusVerified, results[0].Status)
	assert.Equal(t, StatusInvalid, results[1].Status)
	assert.Equal(t, StatusDead, results[2].Status)
	assert.Equal(t, StatusUnverifiable, results[3].Status)
}

func TestCheck_TimeoutIsUnverifiable(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	t.Cleanup(slow.Close)

	v := NewVerifier(WithTimeout(50 * time.Millisecond))
	results := v.Check(context.Background(), []string{slow.URL + "/slow.pdf"})

	require.Len(t, results, 1)
	assert.Equal(t, StatusUnverifiable, results[0].Status)
}

func TestCheck_OneTimeoutDoesNotAbortSiblings(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	t.Cleanup(slow.Close)
	fast := pdfServer(t, http.StatusOK, "application/pdf")

	v := NewVerifier(WithTimeout(100 * time.Millisecond))
	results := v.Check(context.Background(), []string{
		slow.URL + "/slow.pdf",
		fast.URL + "/fast.pdf",
	})

	require.Len(t, results, 2)
	assert.Equal(t, StatusUnverifiable, results[0].Status)
	assert.Equal(t, StatusVerified, results[1].Status)
}

func TestVerify_NoLinksReturnsTextUnchanged(t *testing.T) {
	v := NewVerifier()
	text := "No document links in here, just prose."
	assert.Equal(t, text, v.Verify(context.Background(), text))
}

func TestVerify_AnnotatesEveryOccurrenceOnce(t *testing.T) {
	srv := pdfServer(t, http.StatusOK, "application/pdf")
	url := srv.URL + "/2023.pdf"
	text := fmt.Sprintf("First: %s\nSecond: %s\nThird: %s\n", url, url, url)

	v := NewVerifier()
	out := v.Verify(context.Background(), text)

	assert.Equal(t, 3, strings.Count(out, url+" ✅"))
	assert.Contains(t, out, "✅ Link check: all 1 document link(s) verified.")
}

func TestVerify_MarkersNotDoubledOnReverify(t *testing.T) {
	srv := pdfServer(t, http.StatusOK, "application/pdf")
	url := srv.URL + "/2023.pdf"
	text := "See " + url + " for details."

	v := NewVerifier()
	once := v.Verify(context.Background(), text)
	twice := v.Verify(context.Background(), once)

	assert.Equal(t, 1, strings.Count(twice, url+" ✅"))
	assert.NotContains(t, twice, "✅ ✅")
}

func TestAnnotate_UnverifiableGetsNoInlineMarker(t *testing.T) {
	v := NewVerifier()
	url := "https://blocked.example/doc.pdf"
	out := v.Annotate("see "+url, []Result{{URL: url, Status: StatusUnverifiable}})

	assert.Contains(t, out, "see "+url+"\n")
	assert.NotContains(t, out, url+" ✅")
	assert.Contains(t, out, "1 link(s) could not be verified automatically")
}

func TestAnnotate_PrefixURLsStayIntact(t *testing.T) {
	v := NewVerifier()
	short := "https://ir.example/q2.pdf"
	long := "https://ir.example/q2.pdf.pdf"
	text := "one " + short + " two " + long

	out := v.Annotate(text, []Result{
		{URL: short, Status: StatusVerified},
		{URL: long, Status: StatusVerified},
	})

	assert.Contains(t, out, "one "+short+" ✅ two "+long+" ✅")
	assert.NotContains(t, out, short+" ✅.pdf")

	// Same outcome regardless of result order.
	reversed := v.Annotate(text, []Result{
		{URL: long, Status: StatusVerified},
		{URL: short, Status: StatusVerified},
	})
	assert.Equal(t, out, reversed)
}

func TestAnnotate_SummarySelection(t *testing.T) {
	v := NewVerifier()

	tests := []struct {
		name    string
		results []Result
		want    string
	}{
		{
			name:    "all verified",
			results: []Result{{URL: "https://a.example/a.pdf", Status: StatusVerified}},
			want:    "all 1 document link(s) verified",
		},
		{
			name: "alert wins over unverifiable",
			results: []Result{
				{URL: "https://a.example/a.pdf", Status: StatusDead},
				{URL: "https://b.example/b.pdf", Status: StatusUnverifiable},
			},
			want: "1 of 2 document link(s) are broken",
		},
		{
			name: "invalid counts toward alert",
			results: []Result{
				{URL: "https://a.example/a.pdf", Status: StatusInvalid},
				{URL: "https://b.example/b.pdf", Status: StatusVerified},
			},
			want: "1 of 2 document link(s) are broken",
		},
		{
			name: "unverifiable note",
			results: []Result{
				{URL: "https://a.example/a.pdf", Status: StatusVerified},
				{URL: "https://b.example/b.pdf", Status: StatusUnverifiable},
				{URL: "https://c.example/c.pdf", Status: StatusUnverifiable},
			},
			want: "2 link(s) could not be verified automatically",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "doc"
			for _, r := range tt.results {
				text += " " + r.URL
			}
			out := v.Annotate(text, tt.results)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestAnnotate_DistinctMarkers(t *testing.T) {
	v := NewVerifier()
	out := v.Annotate(
		"a https://x.example/a.pdf b https://x.example/b.pdf c https://x.example/c.pdf",
		[]Result{
			{URL: "https://x.example/a.pdf", Status: StatusVerified},
			{URL: "https://x.example/b.pdf", Status: StatusInvalid},
			{URL: "https://x.example/c.pdf", Status: StatusDead},
		})

	assert.Contains(t, out, "https://x.example/a.pdf ✅")
	assert.Contains(t, out, "https://x.example/b.pdf ⚠️ [not a PDF]")
	assert.Contains(t, out, "https://x.example/c.pdf ❌ [unreachable]")
}
