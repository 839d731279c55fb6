package stream

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TextDecoder turns byte chunks into UTF-8 text. A code point split across
// chunk boundaries is held back until the rest of it arrives. Invalid bytes
// decode to U+FFFD.
type TextDecoder struct {
	t       transform.Transformer
	pending []byte
}

// NewTextDecoder returns an empty decoder.
func NewTextDecoder() *TextDecoder {
	return &TextDecoder{t: unicode.UTF8.NewDecoder()}
}

// Decode returns the text of every complete code point in the held back
// bytes followed by chunk.
func (d *TextDecoder) Decode(chunk []byte) string {
	return d.decode(chunk, false)
}

// Flush returns whatever is still held back, with incomplete sequences
// replaced by U+FFFD, and resets the decoder.
func (d *TextDecoder) Flush() string {
	out := d.decode(nil, true)
	d.t.Reset()
	return out
}

// Pending returns the number of bytes held back for the next call.
func (d *TextDecoder) Pending() int {
	return len(d.pending)
}

func (d *TextDecoder) decode(chunk []byte, atEOF bool) string {
	src := append(d.pending, chunk...)
	if len(src) == 0 {
		return ""
	}

	// Each invalid byte may expand into the three byte replacement rune.
	dst := make([]byte, len(src)*3+utf8.UTFMax)

	nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
	if err != nil && !errors.Is(err, transform.ErrShortSrc) {
		// Unreachable with a correctly sized dst; keep the bytes for Flush.
		nSrc = 0
		nDst = 0
	}

	d.pending = append(d.pending[:0:0], src[nSrc:]...)
	return string(dst[:nDst])
}
