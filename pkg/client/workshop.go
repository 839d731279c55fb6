package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/papercomputeco/catalyst/pkg/stream"
	"github.com/papercomputeco/catalyst/pkg/workshop"
)

// Ping checks that the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, pingEndpoint, nil, nil)
	return err
}

// EvaluateTopic streams the topic evaluation. A completion without a usable
// JSON object returns stream.ErrNoResult.
func (c *Client) EvaluateTopic(ctx context.Context, topic workshop.Topic, progress ProgressFunc) (workshop.TopicEvaluation, error) {
	text, err := c.call(ctx, evaluateTopicEndpoint, topic, progress)
	if err != nil {
		return workshop.TopicEvaluation{}, err
	}
	return extract[workshop.TopicEvaluation](c, evaluateTopicEndpoint, text)
}

// PreMortem streams the risk pre-analysis of topic.
func (c *Client) PreMortem(ctx context.Context, topic workshop.Topic, progress ProgressFunc) (workshop.PreMortem, error) {
	text, err := c.call(ctx, preMortemEndpoint, workshop.PreMortemRequest{Topic: topic}, progress)
	if err != nil {
		return workshop.PreMortem{}, err
	}
	return extract[workshop.PreMortem](c, preMortemEndpoint, text)
}

// ClassifyQuestion classifies one question into a 5F dimension. It always
// returns a usable classification: on any failure the fact fallback is
// returned together with the error.
func (c *Client) ClassifyQuestion(ctx context.Context, req workshop.ClassifyRequest) (workshop.Classification, error) {
	text, err := c.call(ctx, classifyQuestionEndpoint, req, nil)
	if err != nil {
		c.logger.Warn("question classification failed, using fallback", "error", err)
		return workshop.DefaultClassification(), err
	}

	result, err := decode[workshop.Classification](text)
	if err != nil {
		c.logger.Warn("unreadable classification, using fallback", "error", err)
		return workshop.DefaultClassification(), err
	}
	return result.Normalize(), nil
}

// ShadowQuestions asks for questions covering the pool's blind spots.
func (c *Client) ShadowQuestions(ctx context.Context, req workshop.ShadowRequest) (workshop.ShadowQuestions, error) {
	text, err := c.call(ctx, shadowQuestionsEndpoint, req, nil)
	if err != nil {
		return workshop.ShadowQuestions{}, err
	}
	return decode[workshop.ShadowQuestions](text)
}

// GenerateSummary streams the summary report of the session. When the stream
// ends cleanly with a non-empty report, the report is stored on the session
// and the workshop is saved exactly once. The saved record is nil when
// nothing was saved.
func (c *Client) GenerateSummary(ctx context.Context, sess *workshop.Session, progress ProgressFunc) (string, *workshop.Record, error) {
	text, err := c.call(ctx, generateSummaryEndpoint, sess.SummaryRequest(), progress)
	if err != nil {
		return text, nil, err
	}
	if text == "" {
		c.logger.Warn("summary stream ended without content, workshop not saved")
		return "", nil, nil
	}

	sess.SetSummaryReport(text)

	rec, err := c.SaveWorkshop(ctx, sess.SaveRequest(text))
	if err != nil {
		return text, nil, fmt.Errorf("saving workshop: %w", err)
	}
	return text, rec, nil
}

// SaveWorkshop persists a completed workshop.
func (c *Client) SaveWorkshop(ctx context.Context, req workshop.SaveRequest) (*workshop.Record, error) {
	text, err := c.call(ctx, saveWorkshopEndpoint, req, nil)
	if err != nil {
		return nil, err
	}

	rec, err := decode[workshop.Record](text)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListWorkshops returns up to limit saved workshops, newest first. A limit
// of zero leaves the bound to the backend.
func (c *Client) ListWorkshops(ctx context.Context, limit int) ([]workshop.Summary, error) {
	ep := listWorkshopsEndpoint
	if limit > 0 {
		ep.path += "?limit=" + strconv.Itoa(limit)
	}

	text, err := c.call(ctx, ep, nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[[]workshop.Summary](text)
}

// GetWorkshop fetches one saved workshop. It returns ErrNotFound when the
// backend has no such workshop.
func (c *Client) GetWorkshop(ctx context.Context, id string) (*workshop.Record, error) {
	text, err := c.call(ctx, workshopEndpoint(id), nil, nil)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	rec, err := decode[workshop.Record](text)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// extract runs the single extraction pass over a finished stream.
func extract[T any](c *Client, ep endpoint, text string) (T, error) {
	v, err := stream.Extract[T](text)
	if err != nil {
		c.logger.Warn("no result in completion", "path", ep.path, "length", len(text))
	}
	return v, err
}

// decode parses a non-streamed JSON answer. Failures wrap stream.ErrNoResult.
func decode[T any](text string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return v, fmt.Errorf("%w: %w", stream.ErrNoResult, err)
	}
	return v, nil
}
