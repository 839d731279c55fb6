package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ContentType is the media type of an event stream.
const ContentType = "text/event-stream"

// Frame is the JSON payload of a catalyst stream frame. Exactly one of
// Content or Error is set.
type Frame struct {
	Content *string `json:"content,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Writer writes "data: <payload>\n\n" frames.
type Writer struct {
	w     io.Writer
	flush func() error
}

// NewWriter returns a Writer over w. When w implements http.Flusher or a
// Flush() error method, every frame is flushed after it is written.
func NewWriter(w io.Writer) *Writer {
	sw := &Writer{w: w}

	switch f := w.(type) {
	case interface{ Flush() error }:
		sw.flush = f.Flush
	case http.Flusher:
		sw.flush = func() error {
			f.Flush()
			return nil
		}
	}
	return sw
}

// WriteContent writes one content frame.
func (w *Writer) WriteContent(text string) error {
	return w.writeJSON(Frame{Content: &text})
}

// WriteError writes one error frame.
func (w *Writer) WriteError(msg string) error {
	return w.writeJSON(Frame{Error: msg})
}

// WriteDone writes the [DONE] terminator.
func (w *Writer) WriteDone() error {
	return w.writeData(DoneMarker)
}

func (w *Writer) writeJSON(f Frame) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling frame: %w", err)
	}
	return w.writeData(string(payload))
}

func (w *Writer) writeData(payload string) error {
	if _, err := io.WriteString(w.w, "data: "+payload+"\n\n"); err != nil {
		return err
	}
	if w.flush != nil {
		return w.flush()
	}
	return nil
}
