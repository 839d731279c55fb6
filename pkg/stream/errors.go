package stream

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport is matched by every failure to open or read a stream:
	// network errors, non-2xx statuses, a missing body and timeouts.
	ErrTransport = errors.New("stream transport failure")

	// ErrNoResponseBody is returned when the response carries no readable body.
	ErrNoResponseBody = fmt.Errorf("%w: no response body", ErrTransport)

	// ErrNoResult is returned when no JSON object can be extracted from the
	// accumulated text.
	ErrNoResult = errors.New("no result in completion")
)

// TransportError describes a failed stream request or read.
type TransportError struct {
	// StatusCode is the HTTP status of a non-2xx response, or 0 when the
	// failure happened below HTTP.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d %s: %v", ErrTransport, e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d %s", ErrTransport, e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", ErrTransport, e.Err)
	default:
		return ErrTransport.Error()
	}
}

// Unwrap lets errors.Is match both ErrTransport and the underlying cause,
// such as context.DeadlineExceeded.
func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}
