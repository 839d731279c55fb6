package stream

import "strings"

// LineBuffer splits decoded text into lines. Text after the last newline is
// held and prefixed to the next push.
type LineBuffer struct {
	residual string
}

// Push returns the complete lines formed by the held text followed by text.
// A trailing carriage return is trimmed from each line.
func (b *LineBuffer) Push(text string) []string {
	parts := strings.Split(b.residual+text, "\n")
	b.residual = parts[len(parts)-1]

	lines := parts[:len(parts)-1]
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Residual returns the unterminated text currently held.
func (b *LineBuffer) Residual() string {
	return b.residual
}
