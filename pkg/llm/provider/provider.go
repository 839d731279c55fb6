// Package provider calls hosted chat completion APIs on behalf of the
// workshop backend.
package provider

import (
	"context"
	"net/http"

	"github.com/papercomputeco/catalyst/pkg/llm"
)

// Provider is a chat completion backend.
type Provider interface {
	// Name returns the canonical provider name (e.g., "openai", "ollama").
	Name() string

	// Complete performs a single, non-streaming completion.
	Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

	// Stream starts a streaming completion. The returned stream must be
	// closed by the caller.
	Stream(ctx context.Context, req *llm.ChatRequest) (llm.Stream, error)
}

// Config holds what every provider needs to reach its API.
type Config struct {
	// Upstream is the API base URL. Empty selects the provider default.
	Upstream string

	// Model is used for requests that do not name one.
	Model string

	// APIKey authenticates against hosted APIs. Ollama ignores it.
	APIKey string

	HTTPClient *http.Client
}
