package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/papercomputeco/catalyst/pkg/llm"
)

const (
	name = "ollama"

	DefaultUpstream = "http://localhost:11434"
	DefaultModel    = "llama3.2"
)

// Provider calls a local Ollama chat endpoint.
type Provider struct {
	upstream string
	model    string
	client   *http.Client
}

// New returns an Ollama provider. Empty upstream and model select the
// defaults; a nil client uses http.DefaultClient.
func New(upstream, model string, client *http.Client) *Provider {
	if upstream == "" {
		upstream = DefaultUpstream
	}
	if model == "" {
		model = DefaultModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Provider{
		upstream: strings.TrimSuffix(upstream, "/"),
		model:    model,
		client:   client,
	}
}

func (p *Provider) Name() string {
	return name
}

func (p *Provider) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := llm.PostJSON(ctx, p.client, name, p.upstream+"/api/chat", nil, p.toRequest(req, false))
	if err != nil {
		return nil, err
	}

	var result ollamaResponse
	if err := llm.DecodeJSON(resp, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, &llm.APIError{Provider: name, Message: result.Error}
	}

	return &llm.ChatResponse{
		Model:      result.Model,
		CreatedAt:  result.CreatedAt,
		Message:    llm.NewTextMessage(llm.RoleAssistant, result.Message.Content),
		StopReason: result.DoneReason,
		Usage:      toUsage(&result),
	}, nil
}

func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest) (llm.Stream, error) {
	resp, err := llm.PostJSON(ctx, p.client, name, p.upstream+"/api/chat", nil, p.toRequest(req, true))
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &stream{body: resp.Body, scanner: scanner}, nil
}

func (p *Provider) toRequest(req *llm.ChatRequest, streaming bool) *ollamaRequest {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]ollamaMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, ollamaMessage{Role: llm.RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, ollamaMessage{Role: m.Role, Content: m.Content})
	}

	out := &ollamaRequest{
		Model:    model,
		Messages: messages,
		Stream:   streaming,
	}
	if req.JSON {
		out.Format = "json"
	}
	if req.Temperature != nil || req.MaxTokens != nil {
		out.Options = &ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		}
	}
	return out
}

// stream reads Ollama's newline-delimited JSON chunks.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func (s *stream) Next() (*llm.StreamChunk, error) {
	if s.done {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk ollamaResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return nil, fmt.Errorf("parse ollama chunk: %w", err)
		}
		if chunk.Error != "" {
			return nil, &llm.APIError{Provider: name, Message: chunk.Error}
		}

		out := &llm.StreamChunk{
			Content: chunk.Message.Content,
			Done:    chunk.Done,
		}
		if chunk.Done {
			s.done = true
			out.StopReason = chunk.DoneReason
			out.Usage = toUsage(&chunk)
		}
		return out, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *stream) Close() error {
	return s.body.Close()
}

func toUsage(r *ollamaResponse) *llm.Usage {
	if r.PromptEvalCount == 0 && r.EvalCount == 0 {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     r.PromptEvalCount,
		CompletionTokens: r.EvalCount,
		TotalTokens:      r.PromptEvalCount + r.EvalCount,
	}
}
