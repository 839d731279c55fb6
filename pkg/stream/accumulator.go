package stream

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/papercomputeco/catalyst/pkg/sse"
)

const dataPrefix = "data: "

// Accumulator applies "data:" frames to the accumulated message text.
type Accumulator struct {
	lines   LineBuffer
	text    strings.Builder
	onDelta func(delta string)
	logger  *slog.Logger
}

// NewAccumulator returns an Accumulator that calls onDelta, when non-nil,
// with every non-empty content delta after it is appended.
func NewAccumulator(logger *slog.Logger, onDelta func(delta string)) *Accumulator {
	return &Accumulator{
		onDelta: onDelta,
		logger:  logger,
	}
}

// Feed consumes a piece of decoded text. Complete lines are processed in
// order; an unterminated tail waits for the next Feed.
func (a *Accumulator) Feed(text string) {
	for _, line := range a.lines.Push(text) {
		a.handleLine(line)
	}
}

func (a *Accumulator) handleLine(line string) {
	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return
	}
	if payload == sse.DoneMarker {
		return
	}

	var frame sse.Frame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		a.logger.Debug("skipping malformed frame", "error", err, "payload", payload)
		return
	}

	if frame.Error != "" {
		a.logger.Warn("upstream reported an error in stream", "error", frame.Error)
	}

	if frame.Content == nil || *frame.Content == "" {
		return
	}

	a.text.WriteString(*frame.Content)
	if a.onDelta != nil {
		a.onDelta(*frame.Content)
	}
}

// Text returns the accumulated message.
func (a *Accumulator) Text() string {
	return a.text.String()
}

// Residual returns text received after the last newline. It is never
// applied: a frame is only complete once its line is terminated.
func (a *Accumulator) Residual() string {
	return a.lines.Residual()
}
