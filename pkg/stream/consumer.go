package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/papercomputeco/catalyst/pkg/logger"
	"github.com/papercomputeco/catalyst/pkg/sse"
	"github.com/papercomputeco/catalyst/pkg/utils"
)

const defaultChunkSize = 32 * 1024

// ProgressFunc is called after each content delta is appended, with the
// delta and the whole text accumulated so far.
type ProgressFunc func(delta, accumulated string)

// Consumer performs streaming completion requests.
type Consumer struct {
	client    *http.Client
	logger    *slog.Logger
	timeout   time.Duration
	chunkSize int
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Consumer) {
		c.client = client
	}
}

// WithLogger sets the consumer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Consumer) {
		c.logger = l
	}
}

// WithTimeout bounds every Consume call, including reading the whole body.
// Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Consumer) {
		c.timeout = d
	}
}

// withChunkSize sets the size of each body read.
func withChunkSize(n int) Option {
	return func(c *Consumer) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// NewConsumer returns a Consumer using http.DefaultClient unless configured
// otherwise.
func NewConsumer(opts ...Option) *Consumer {
	c := &Consumer{
		client:    http.DefaultClient,
		logger:    logger.Nop(),
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consume POSTs body as JSON to url and reads the event stream until the
// transport reaches end of stream. It returns the accumulated content.
//
// Once ctx is done no further progress calls are made and the connection is
// released. Every failure to open or read the stream matches ErrTransport;
// cancellation and timeouts also match the context error.
func (c *Consumer) Consume(ctx context.Context, url string, body any, progress ProgressFunc) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", sse.ContentType)
	req.Header.Set("User-Agent", utils.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("stream request failed", "url", url, "error", err)
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("stream request rejected", "url", url, "status", resp.StatusCode)
		if len(msg) > 0 {
			return "", &TransportError{StatusCode: resp.StatusCode, Err: errors.New(string(bytes.TrimSpace(msg)))}
		}
		return "", &TransportError{StatusCode: resp.StatusCode}
	}

	if resp.Body == http.NoBody {
		return "", ErrNoResponseBody
	}

	return c.read(ctx, resp.Body, progress)
}

func (c *Consumer) read(ctx context.Context, body io.Reader, progress ProgressFunc) (string, error) {
	var acc *Accumulator
	acc = NewAccumulator(c.logger, func(delta string) {
		if progress == nil || ctx.Err() != nil {
			return
		}
		progress(delta, acc.Text())
	})

	decoder := NewTextDecoder()
	buf := make([]byte, c.chunkSize)

	for {
		n, err := body.Read(buf)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return acc.Text(), &TransportError{Err: ctxErr}
		}
		if n > 0 {
			acc.Feed(decoder.Decode(buf[:n]))
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			c.logger.Error("stream read failed", "error", err)
			return acc.Text(), &TransportError{Err: err}
		}
	}

	acc.Feed(decoder.Flush())
	if residual := acc.Residual(); residual != "" {
		c.logger.Debug("dropping unterminated line at end of stream", "residual", residual)
	}

	return acc.Text(), nil
}
