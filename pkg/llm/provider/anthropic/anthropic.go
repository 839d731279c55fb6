// Package anthropic talks to Anthropic's messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/papercomputeco/catalyst/pkg/llm"
	"github.com/papercomputeco/catalyst/pkg/sse"
)

const (
	name = "anthropic"

	DefaultUpstream  = "https://api.anthropic.com"
	DefaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 4096
	apiVersion       = "2023-06-01"

	jsonInstruction = "\n\nReturn ONLY valid JSON, no markdown or extra text."
)

// Provider calls the Anthropic messages API.
type Provider struct {
	upstream string
	model    string
	apiKey   string
	client   *http.Client
}

// New returns an Anthropic provider. Empty upstream and model select the
// defaults; a nil client uses http.DefaultClient.
func New(upstream, model, apiKey string, client *http.Client) *Provider {
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
		apiKey:   apiKey,
		client:   client,
	}
}

func (p *Provider) Name() string {
	return name
}

func (p *Provider) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := p.post(ctx, p.toRequest(req, false))
	if err != nil {
		return nil, err
	}

	var result anthropicResponse
	if err := llm.DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, llm.ErrNoChoices
	}

	return &llm.ChatResponse{
		Model:      result.Model,
		Message:    llm.NewTextMessage(llm.RoleAssistant, text.String()),
		StopReason: result.StopReason,
		Usage:      toUsage(result.Usage),
	}, nil
}

func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest) (llm.Stream, error) {
	resp, err := p.post(ctx, p.toRequest(req, true))
	if err != nil {
		return nil, err
	}
	return &stream{body: resp.Body, reader: sse.NewReader(resp.Body)}, nil
}

func (p *Provider) post(ctx context.Context, body *anthropicRequest) (*http.Response, error) {
	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": apiVersion,
	}
	return llm.PostJSON(ctx, p.client, name, p.upstream+"/v1/messages", headers, body)
}

func (p *Provider) toRequest(req *llm.ChatRequest, streaming bool) *anthropicRequest {
	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	messages := make([]anthropicMessage, 0, len(req.Messages))
	for i, m := range req.Messages {
		content := m.Content
		// No native JSON mode; ask for it on the last user turn.
		if req.JSON && i == len(req.Messages)-1 && m.Role == llm.RoleUser {
			content += jsonInstruction
		}
		messages = append(messages, anthropicMessage{Role: m.Role, Content: content})
	}

	return &anthropicRequest{
		Model:       model,
		Messages:    messages,
		System:      req.System,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Stream:      streaming,
	}
}

// stream reads Anthropic's typed events until message_stop.
type stream struct {
	body   io.ReadCloser
	reader *sse.Reader
}

func (s *stream) Next() (*llm.StreamChunk, error) {
	for {
		ev, err := s.reader.Next()
		if err != nil {
			return nil, err
		}
		if ev == nil {
			return nil, io.EOF
		}

		var data anthropicEvent
		if err := json.Unmarshal([]byte(ev.Data), &data); err != nil {
			return nil, fmt.Errorf("parse anthropic event: %w", err)
		}

		switch data.Type {
		case "content_block_delta":
			if data.Delta.Type != "text_delta" {
				continue
			}
			return &llm.StreamChunk{Content: data.Delta.Text}, nil
		case "message_delta":
			return &llm.StreamChunk{
				Done:       true,
				StopReason: data.Delta.StopReason,
				Usage:      toUsage(data.Usage),
			}, nil
		case "message_stop":
			return nil, io.EOF
		case "error":
			msg := "stream error"
			if data.Error != nil {
				msg = data.Error.Message
			}
			return nil, &llm.APIError{Provider: name, Message: msg}
		}
	}
}

func (s *stream) Close() error {
	return s.body.Close()
}

func toUsage(u *anthropicUsage) *llm.Usage {
	if u == nil {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     u.InputTokens,
		CompletionTokens: u.OutputTokens,
		TotalTokens:      u.InputTokens + u.OutputTokens,
	}
}
