// Package client talks to the catalyst backend on behalf of the terminal
// workshop. Every call, streamed or not, goes through one entry point that
// picks the transport from the endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/catalyst/pkg/logger"
	"github.com/papercomputeco/catalyst/pkg/stream"
	"github.com/papercomputeco/catalyst/pkg/utils"
)

// ErrNotFound is returned when the backend has no workshop with the
// requested ID.
var ErrNotFound = errors.New("workshop not found")

// ProgressFunc receives every content delta of a streamed call.
type ProgressFunc = stream.ProgressFunc

// Client is a catalyst backend client.
type Client struct {
	target   string
	http     *http.Client
	consumer *stream.Consumer
	logger   *slog.Logger
	timeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithTimeout bounds every call, including reading a whole stream.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New returns a client for the backend at target, e.g.
// "http://localhost:8081".
func New(target string, opts ...Option) *Client {
	c := &Client{
		target: strings.TrimRight(target, "/"),
		http:   http.DefaultClient,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.consumer = stream.NewConsumer(
		stream.WithHTTPClient(c.http),
		stream.WithLogger(c.logger),
		stream.WithTimeout(c.timeout),
	)
	return c
}

// call performs one backend call and returns the response text. Streaming
// endpoints return the accumulated content; the others return the raw body.
// Every transport failure matches stream.ErrTransport.
func (c *Client) call(ctx context.Context, ep endpoint, body any, progress ProgressFunc) (string, error) {
	url := c.target + ep.path
	if ep.streaming {
		return c.consumer.Consume(ctx, url, body, progress)
	}
	return c.do(ctx, ep.method, url, body)
}

func (c *Client) do(ctx context.Context, method, url string, body any) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", utils.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed", "method", method, "url", url, "error", err)
		return "", &stream.TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &stream.TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("request rejected", "method", method, "url", url, "status", resp.StatusCode)
		if msg := errorMessage(data); msg != "" {
			return "", &stream.TransportError{StatusCode: resp.StatusCode, Err: errors.New(msg)}
		}
		return "", &stream.TransportError{StatusCode: resp.StatusCode}
	}

	return string(data), nil
}

// errorMessage returns the "error" field of a JSON error body, or the body
// itself.
func errorMessage(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return string(bytes.TrimSpace(data))
}

// statusCode returns the HTTP status carried by err, or 0.
func statusCode(err error) int {
	var te *stream.TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}
