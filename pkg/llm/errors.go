package llm

import (
	"errors"
	"fmt"
)

// ErrNoChoices is returned when a provider answers without any completion.
var ErrNoChoices = errors.New("provider returned no completion")

// APIError is a non-2xx answer, or an in-band error, from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}
