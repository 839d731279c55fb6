package llm

// ChatRequest is a provider-agnostic chat completion request.
type ChatRequest struct {
	// Model overrides the provider's configured model when set.
	Model string `json:"model,omitempty"`

	// System is sent the way each provider expects a system prompt.
	System string `json:"system,omitempty"`

	Messages []Message `json:"messages"`

	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`

	// JSON asks the provider for a JSON object response where it supports it.
	JSON bool `json:"json,omitempty"`
}

// Prompt returns a request holding a single user message.
func Prompt(text string) *ChatRequest {
	return &ChatRequest{
		Messages: []Message{NewTextMessage(RoleUser, text)},
	}
}
