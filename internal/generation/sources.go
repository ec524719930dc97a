package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/khartman/memoflow/internal/schemas"
)

// Source is one primary document the model proposes for the subject.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Kind  string `json:"kind,omitempty"`
	Why   string `json:"why,omitempty"`
}

// SourceList is the structured output of the sources stage.
type SourceList struct {
	Sources []Source `json:"sources"`
}

// ParseSourceList validates raw JSON against the source_list schema and
// unmarshals it.
func ParseSourceList(raw string) (*SourceList, error) {
	if err := schemas.Validate("source_list.json", raw); err != nil {
		return nil, err
	}

	var list SourceList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("failed to parse source list: %w", err)
	}
	return &list, nil
}

// kindLabels maps source kinds to display headings.
var kindLabels = map[string]string{
	"annual_report": "Annual Report",
	"filing":        "Regulatory Filing",
	"presentation":  "Investor Presentation",
	"earnings":      "Earnings Release",
	"other":         "Other",
}

// Markdown renders the source list as the sources artifact text. Every entry
// keeps its URL on the same line so the link verifier can find and annotate
// it in place.
func (l *SourceList) Markdown(subject string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Primary Sources: %s\n\n", subject))

	for _, s := range l.Sources {
		label := kindLabels[s.Kind]
		if label == "" {
			label = kindLabels["other"]
		}
		sb.WriteString(fmt.Sprintf("- **%s** (%s)\n", s.Title, label))
		sb.WriteString(fmt.Sprintf("  %s\n", s.URL))
		if s.Why != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", s.Why))
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}
