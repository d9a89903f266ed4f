package protocol

import "strings"

// MaxLineLength bounds the inbound line buffer. Leading whitespace is not
// buffered and so does not count against it.
const MaxLineLength = 64

// Decoder assembles inbound bytes into commands. It keeps partial lines
// between calls to Feed, so bytes may arrive in arbitrary chunks.
type Decoder struct {
	buf []byte
	// truncated is set once a non-whitespace byte had to be dropped from
	// the current line.
	truncated bool
}

// NewDecoder creates an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, 0, MaxLineLength)}
}

// Feed consumes p and returns the commands completed by it, in order.
// Empty lines produce nothing. A line whose text does not fit in
// MaxLineLength is reported once, as an unknown command holding the text
// that fit.
func (d *Decoder) Feed(p []byte) []Command {
	var out []Command
	for _, b := range p {
		switch {
		case b == '\n' || b == '\r':
			if d.truncated {
				out = append(out, Command{Kind: CommandUnknown, Raw: strings.TrimSpace(string(d.buf))})
			} else if cmd, ok := ParseLine(string(d.buf)); ok {
				out = append(out, cmd)
			}
			d.buf = d.buf[:0]
			d.truncated = false
		case len(d.buf) == 0 && isSpace(b):
		case len(d.buf) >= MaxLineLength:
			if !isSpace(b) {
				d.truncated = true
			}
		default:
			d.buf = append(d.buf, b)
		}
	}
	return out
}

// Pending returns the number of buffered bytes of an incomplete line.
func (d *Decoder) Pending() int {
	return len(d.buf)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\v' || b == '\f'
}
