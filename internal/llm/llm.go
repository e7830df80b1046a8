package llm

import (
	"context"
	"errors"
)

// Client abstracts LLM providers for insight generation.
type Client interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Model() string
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM not configured")

// PlaceholderClient is used when no provider credentials are present.
// Callers treat its error as "API unavailable" and fall back.
type PlaceholderClient struct{}

func (PlaceholderClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotConfigured
}

func (PlaceholderClient) Model() string { return "none" }
