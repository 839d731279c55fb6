// Package openai talks to OpenAI-compatible chat completion APIs.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/catalyst/pkg/llm"
	"github.com/papercomputeco/catalyst/pkg/sse"
)

const (
	name = "openai"

	DefaultUpstream = "https://api.openai.com"
	DefaultModel    = "gpt-4o-mini"
)

// Provider calls the OpenAI chat completions API.
type Provider struct {
	upstream string
	model    string
	apiKey   string
	client   *http.Client
}

// New returns an OpenAI provider. Empty upstream and model select the
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

	var result openaiResponse
	if err := llm.DecodeJSON(resp, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, &llm.APIError{Provider: name, Message: result.Error.Message}
	}
	if len(result.Choices) == 0 {
		return nil, llm.ErrNoChoices
	}

	choice := result.Choices[0]
	return &llm.ChatResponse{
		Model:      result.Model,
		CreatedAt:  time.Unix(result.Created, 0),
		Message:    llm.NewTextMessage(llm.RoleAssistant, choice.Message.Content),
		StopReason: choice.FinishReason,
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

func (p *Provider) post(ctx context.Context, body *openaiRequest) (*http.Response, error) {
	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}
	return llm.PostJSON(ctx, p.client, name, p.upstream+"/v1/chat/completions", headers, body)
}

func (p *Provider) toRequest(req *llm.ChatRequest, streaming bool) *openaiRequest {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]openaiMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openaiMessage{Role: llm.RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, openaiMessage{Role: m.Role, Content: m.Content})
	}

	out := &openaiRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      streaming,
	}
	if req.JSON {
		out.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return out
}

// stream reads OpenAI's "data:" events until [DONE].
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
		if ev == nil || ev.Done() {
			return nil, io.EOF
		}
		if ev.Data == "" {
			continue
		}

		var chunk openaiChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			return nil, fmt.Errorf("parse openai chunk: %w", err)
		}
		if chunk.Error != nil {
			return nil, &llm.APIError{Provider: name, Message: chunk.Error.Message}
		}

		out := &llm.StreamChunk{Usage: toUsage(chunk.Usage)}
		if len(chunk.Choices) > 0 {
			choice := chunk.Choices[0]
			out.Content = choice.Delta.Content
			if choice.FinishReason != nil {
				out.StopReason = *choice.FinishReason
				out.Done = true
			}
		}
		return out, nil
	}
}

func (s *stream) Close() error {
	return s.body.Close()
}

func toUsage(u *openaiUsage) *llm.Usage {
	if u == nil {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}
