// Package api serves the workshop backend: streamed facilitation calls backed
// by a chat completion provider, and persistence of completed workshops.
package api

// DefaultMaxTokens bounds every completion when Config.MaxTokens is unset.
const DefaultMaxTokens = 8192

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Model overrides the provider's configured model when set.
	Model string

	// MaxTokens bounds every completion (defaults to DefaultMaxTokens).
	MaxTokens int
}
