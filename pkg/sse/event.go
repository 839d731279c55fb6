// Package sse reads Server-Sent Events from upstream LLM providers and writes
// the single-field "data:" frames catalyst streams to its own clients.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// DoneMarker is the data payload that ends a catalyst stream.
const DoneMarker = "[DONE]"

// Event is a single parsed SSE event, delimited by a blank line.
type Event struct {
	// Type is the "event:" field. Empty means the default "message" type.
	Type string

	// Data holds every "data:" line of the event joined with "\n".
	Data string

	// ID is the last "id:" field, if present.
	ID string
}

// Done reports whether the event is the [DONE] terminator.
func (e *Event) Done() bool {
	return e.Data == DoneMarker
}
