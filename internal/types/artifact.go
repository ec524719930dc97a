// Package types provides type definitions for structured data used throughout the memoflow system.
package types

// Artifact is the immutable titled text output of one pipeline stage.
// Once appended to a RunState it is never mutated; observers may hold it freely.
type Artifact struct {
	Key      string `json:"key"`      // stage key: "sources", "report", "memo"
	Title    string `json:"title"`    // display title
	Filename string `json:"filename"` // suggested output filename
	Content  string `json:"content"`  // plain text content
}

// Artifact keys for the three generation stages.
const (
	KeySources = "sources"
	KeyReport  = "report"
	KeyMemo    = "memo"
)
