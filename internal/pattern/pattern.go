package pattern

import (
	"fmt"
	"net/url"
	"strings"
)

// Delimiter separates pattern segments.
const Delimiter = "."

// Resource prefixes a pattern is mounted under.
const (
	SwapsList       = "swaps/list"
	SwapsStream     = "swaps/stream"
	TransfersList   = "transfers/list"
	TransfersStream = "transfers/stream"
	EventsList      = "events/list"
)

// Pattern is an ordered list of filter segments. Its wire form is each
// segment percent-encoded on its own and joined with Delimiter.
type Pattern struct {
	segments []string
}

// New builds a pattern from raw (unencoded) segments.
func New(segments ...string) Pattern {
	return Pattern{segments: append([]string(nil), segments...)}
}

// Parse decodes the wire form produced by String.
func Parse(input string) (Pattern, error) {
	if input == "" {
		return Pattern{}, fmt.Errorf("empty pattern")
	}
	parts := strings.Split(input, Delimiter)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		seg, err := url.PathUnescape(part)
		if err != nil {
			return Pattern{}, fmt.Errorf("decode segment %q: %w", part, err)
		}
		segments = append(segments, seg)
	}
	return Pattern{segments: segments}, nil
}

// Segments returns a copy of the raw segments.
func (p Pattern) Segments() []string {
	return append([]string(nil), p.segments...)
}

func (p Pattern) String() string {
	encoded := make([]string, len(p.segments))
	for i, seg := range p.segments {
		encoded[i] = escapeSegment(seg)
	}
	return strings.Join(encoded, Delimiter)
}

// Path mounts the pattern under a resource prefix, e.g. "swaps/list/<pattern>".
func (p Pattern) Path(resource string) string {
	return resource + "/" + p.String()
}

const upperhex = "0123456789ABCDEF"

// escapeSegment follows encodeURIComponent, except that the delimiter is
// escaped as well so a value can never split into two segments.
func escapeSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '~', '!', '*', '\'', '(', ')':
		return true
	}
	return false
}
