package auth

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/khartman/memoflow/internal/generation"
)

func TestProbe_EmptyKey(t *testing.T) {
	err := Probe(context.Background(), "")
	assert.Error(t, err)
	assert.True(t, generation.IsAuthorizationRevoked(err))
}

func TestPrompt(t *testing.T) {
	var buf bytes.Buffer
	Prompt(&buf)

	out := buf.String()
	assert.Contains(t, out, "GEMINI_API_KEY")
	assert.Contains(t, out, "aistudio.google.com")
}
