// Package generation produces the three text artifacts of a research run:
// the source list, the analyst report and the investment memo.
package generation

import (
	"context"

	"github.com/khartman/memoflow/internal/llm"
	"github.com/khartman/memoflow/internal/prompts"
)

// Generator is the contract the pipeline drives. Each call is a single
// request/response; context cancellation is the only way to abandon one.
type Generator interface {
	// Sources produces the primary-source listing for a subject.
	Sources(ctx context.Context, subject string) (string, error)
	// Report drafts the analyst report from the (annotated) source listing.
	Report(ctx context.Context, subject, sources string) (string, error)
	// Memo drafts the investment memo from the report.
	Memo(ctx context.Context, subject, report string) (string, error)
}

// GeminiGenerator implements Generator on top of the llm client.
type GeminiGenerator struct {
	client llm.Client
}

// NewGeminiGenerator creates a Generator backed by the given LLM client.
func NewGeminiGenerator(client llm.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

// Sources asks the model for a structured source list, validates it against
// the embedded schema and renders it as the sources artifact text.
func (g *GeminiGenerator) Sources(ctx context.Context, subject string) (string, error) {
	prompt := prompts.Format(prompts.MustGet("generation.json", "sources"), map[string]string{
		"Subject": subject,
	})

	raw, err := g.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return "", wrap("sources", "generation call failed", err)
	}

	list, err := ParseSourceList(raw)
	if err != nil {
		return "", wrap("sources", "model returned an unusable source list", err)
	}

	return list.Markdown(subject), nil
}

// Report drafts the analyst report using the annotated sources as context.
func (g *GeminiGenerator) Report(ctx context.Context, subject, sources string) (string, error) {
	prompt := prompts.Format(prompts.MustGet("generation.json", "report"), map[string]string{
		"Subject": subject,
		"Context": sources,
	})

	text, err := g.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return "", wrap("report", "generation call failed", err)
	}
	return text, nil
}

// Memo drafts the investment memo using the report as context.
func (g *GeminiGenerator) Memo(ctx context.Context, subject, report string) (string, error) {
	prompt := prompts.Format(prompts.MustGet("generation.json", "memo"), map[string]string{
		"Subject": subject,
		"Context": report,
	})

	text, err := g.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return "", wrap("memo", "generation call failed", err)
	}
	return text, nil
}
