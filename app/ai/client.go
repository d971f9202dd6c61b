// Package ai provides the pluggable text-completion capability used by the
// change classifier and the digest summarizer. Every caller carries its own
// deterministic fallback, so the service stays fully functional when no
// provider is configured or the configured one fails.
package ai

import (
	"context"
	"fmt"
)

type Client interface {
	// Complete sends a prompt and returns the model's text response. The
	// context carries the hard deadline; implementations must not outlive it.
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewFromConfig builds the configured provider. Provider "none" returns nil,
// which callers treat as "capability absent" and route to their fallbacks.
func NewFromConfig(provider, model, apiKey string) (Client, error) {
	switch provider {
	case "ollama":
		return NewOllamaClient(model), nil
	case "openai":
		return NewOpenAIClient(apiKey, model)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", provider)
	}
}
