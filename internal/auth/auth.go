// Package auth gates pipeline runs on a confirmed generation credential.
//
// The probe does not merely check that a key is present: it issues the
// cheapest possible call against the provider and only reports authorized
// when the provider actually accepts the key. A key that was entered but
// rejected, revoked or expired fails the probe.
package auth

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/khartman/memoflow/internal/generation"
	"github.com/khartman/memoflow/internal/llm"
)

// probeTimeout bounds the credential confirmation call.
const probeTimeout = 10 * time.Second

// Probe confirms the API key is accepted by the provider. It returns nil
// when authorized, generation.ErrAuthorizationRevoked-class errors when the
// key is rejected, and other errors for transport failures.
func Probe(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("%w: no API key configured", generation.ErrAuthorizationRevoked)
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	client, err := llm.NewClient(ctx, nil, apiKey)
	if err != nil {
		return fmt.Errorf("failed to create client for credential check: %w", err)
	}
	defer func() { _ = client.Close() }()

	if _, err := client.CountTokens(ctx, "ping", llm.TierLite); err != nil {
		if generation.IsAuthorizationRevoked(err) {
			return fmt.Errorf("%w: %v", generation.ErrAuthorizationRevoked, err)
		}
		return fmt.Errorf("credential check failed: %w", err)
	}
	return nil
}

// Prompt writes reauthorization instructions for the operator.
func Prompt(w io.Writer) {
	fmt.Fprintln(w, "Your Gemini API key is missing or no longer valid.")
	fmt.Fprintln(w, "Set GEMINI_API_KEY (or --api-key) to a valid key and run again.")
	fmt.Fprintln(w, "Keys are issued at https://aistudio.google.com/apikey")
}
