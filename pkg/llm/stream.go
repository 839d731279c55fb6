package llm

// StreamChunk is one incremental piece of a streaming completion.
type StreamChunk struct {
	// Content is the text delta. It may be empty on role or usage chunks.
	Content string `json:"content"`

	// Done is set on the provider's final chunk.
	Done bool `json:"done"`

	StopReason string `json:"stop_reason,omitempty"`
	Usage      *Usage `json:"usage,omitempty"`
}

// Stream yields completion chunks in arrival order. Next returns io.EOF once
// the provider ends the stream. Close releases the connection and may be
// called at any time.
type Stream interface {
	Next() (*StreamChunk, error)
	Close() error
}
