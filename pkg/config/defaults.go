package config

const (
	defaultProvider = "openai"

	defaultAPIListen = ":8081"
	defaultMaxTokens = 8192

	defaultClientAPITarget = "http://localhost:8081"
	defaultClientTimeout   = "5m"
	defaultParticipant     = "me"

	defaultKafkaTopic = "catalyst.workshops"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		// Upstream, model and key variable are left to the provider
		// defaults so switching providers needs a single key.
		LLM: LLMConfig{
			Provider: defaultProvider,
		},
		API: APIConfig{
			Listen:    defaultAPIListen,
			MaxTokens: defaultMaxTokens,
		},
		Client: ClientConfig{
			APITarget:   defaultClientAPITarget,
			Timeout:     defaultClientTimeout,
			Participant: defaultParticipant,
		},
		Events: EventsConfig{
			KafkaTopic: defaultKafkaTopic,
		},
	}
}

// DefaultAPIKeyEnv returns the conventional API key variable for provider,
// or "" for providers that need no key.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// KeyEnv returns the environment variable holding the API key: APIKeyEnv
// when set, otherwise the provider's conventional variable.
func (l LLMConfig) KeyEnv() string {
	if l.APIKeyEnv != "" {
		return l.APIKeyEnv
	}
	return DefaultAPIKeyEnv(l.Provider)
}
