package stream

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractObject returns the text between the first '{' and the last '}'
// when it is valid JSON. It is a pure function of text.
func ExtractObject(text string) (json.RawMessage, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, false
	}

	raw := text[start : end+1]
	if !json.Valid([]byte(raw)) {
		return nil, false
	}
	return json.RawMessage(raw), true
}

// Extract decodes the object found by ExtractObject into a T. Any failure
// wraps ErrNoResult.
func Extract[T any](text string) (T, error) {
	var v T

	raw, ok := ExtractObject(text)
	if !ok {
		return v, ErrNoResult
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrNoResult, err)
	}
	return v, nil
}
