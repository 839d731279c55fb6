package provider

import (
	"fmt"

	"github.com/papercomputeco/catalyst/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/catalyst/pkg/llm/provider/ollama"
	"github.com/papercomputeco/catalyst/pkg/llm/provider/openai"
)

// Supported provider type constants
const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
	Ollama    = "ollama"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Anthropic, OpenAI, Ollama}
}

// New creates a Provider for the given provider type.
func New(providerType string, cfg Config) (Provider, error) {
	switch providerType {
	case Anthropic:
		return anthropic.New(cfg.Upstream, cfg.Model, cfg.APIKey, cfg.HTTPClient), nil
	case OpenAI:
		return openai.New(cfg.Upstream, cfg.Model, cfg.APIKey, cfg.HTTPClient), nil
	case Ollama:
		return ollama.New(cfg.Upstream, cfg.Model, cfg.HTTPClient), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", providerType, SupportedProviders())
	}
}
