package api

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/catalyst/pkg/llm"
	"github.com/papercomputeco/catalyst/pkg/sse"
)

// streamCompletion relays a provider stream to the client as content frames
// followed by [DONE]. A failure to start the stream is a 500 JSON answer; a
// failure after the headers are sent is a single error frame.
func (s *Server) streamCompletion(c *fiber.Ctx, req *llm.ChatRequest, failMsg string) error {
	// The stream outlives the handler, so it is bound to the user context
	// rather than the fasthttp request context.
	upstream, err := s.llm.Stream(c.UserContext(), req)
	if err != nil {
		s.logger.Error("starting completion stream",
			"path", c.Path(),
			"provider", s.llm.Name(),
			"error", err,
		)
		return internalError(c, failMsg)
	}

	c.Set(fiber.HeaderContentType, sse.ContentType)
	c.Set(fiber.HeaderCacheControl, "no-cache, no-transform")
	c.Set("X-Accel-Buffering", "no")

	// io.Pipe makes every frame write block until fasthttp has consumed the
	// previous one, so frames leave the server as the provider yields them.
	pr, pw := io.Pipe()
	path := c.Path()

	go s.relay(upstream, pw, path, failMsg)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) relay(upstream llm.Stream, pw *io.PipeWriter, path, failMsg string) {
	defer pw.Close()
	defer upstream.Close()

	w := sse.NewWriter(pw)
	frames := 0

	for {
		chunk, err := upstream.Next()
		if errors.Is(err, io.EOF) {
			if err := w.WriteDone(); err != nil {
				s.logger.Debug("client went away before done", "path", path, "error", err)
			}
			s.logger.Debug("completion stream finished", "path", path, "frames", frames)
			return
		}
		if err != nil {
			s.logger.Error("completion stream failed",
				"path", path,
				"frames", frames,
				"error", err,
			)
			if err := w.WriteError(failMsg); err != nil {
				s.logger.Debug("writing error frame", "path", path, "error", err)
			}
			return
		}

		if chunk.Content == "" {
			continue
		}
		if err := w.WriteContent(chunk.Content); err != nil {
			s.logger.Debug("client went away mid-stream", "path", path, "error", err)
			return
		}
		frames++
	}
}
