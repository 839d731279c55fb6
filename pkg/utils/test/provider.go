package testutils

import (
	"context"
	"io"
	"sync"

	"github.com/papercomputeco/catalyst/pkg/llm"
)

// FakeProvider is a scripted provider.Provider.
type FakeProvider struct {
	// Chunks are yielded in order by every stream.
	Chunks []string

	// StreamErr is returned by Stream itself.
	StreamErr error

	// ChunkErr is returned by a stream once Chunks are exhausted, instead
	// of io.EOF.
	ChunkErr error

	// Response is the content of every Complete answer.
	Response string

	// CompleteErr is returned by Complete.
	CompleteErr error

	mu       sync.Mutex
	requests []*llm.ChatRequest
}

// Name implements provider.Provider.
func (f *FakeProvider) Name() string { return "fake" }

// Complete implements provider.Provider.
func (f *FakeProvider) Complete(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	f.record(req)
	if f.CompleteErr != nil {
		return nil, f.CompleteErr
	}
	return &llm.ChatResponse{
		Model:   "fake-model",
		Message: llm.NewTextMessage(llm.RoleAssistant, f.Response),
	}, nil
}

// Stream implements provider.Provider.
func (f *FakeProvider) Stream(_ context.Context, req *llm.ChatRequest) (llm.Stream, error) {
	f.record(req)
	if f.StreamErr != nil {
		return nil, f.StreamErr
	}
	return &fakeStream{chunks: f.Chunks, err: f.ChunkErr}, nil
}

// Requests returns every request the provider has seen.
func (f *FakeProvider) Requests() []*llm.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*llm.ChatRequest(nil), f.requests...)
}

// LastRequest returns the most recent request, or nil.
func (f *FakeProvider) LastRequest() *llm.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func (f *FakeProvider) record(req *llm.ChatRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
}

type fakeStream struct {
	chunks []string
	err    error
	closed bool
}

func (s *fakeStream) Next() (*llm.StreamChunk, error) {
	if s.closed {
		return nil, io.EOF
	}
	if len(s.chunks) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}

	next := s.chunks[0]
	s.chunks = s.chunks[1:]
	return &llm.StreamChunk{Content: next, Done: len(s.chunks) == 0 && s.err == nil}, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}
