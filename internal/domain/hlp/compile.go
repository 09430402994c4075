package hlp

import (
	"fmt"
	"strings"

	"github.com/engine-core/engine/internal/domain/hlp/decode"
)

// Compile lexes src into alternating literal and capture segments and
// resolves every capture's decoder. Unknown decoder names are rejected
// eagerly, at compile time, rather than deferred to Run — this keeps a
// bad template from ever reaching a router or tester entry, mirroring
// validate-before-persist elsewhere in this module.
func Compile(src string) (*Template, error) {
	t := &Template{Source: src}

	i := 0
	for i < len(src) {
		if src[i] == '<' {
			cap, newI, err := lexCapture(src, i)
			if err != nil {
				return nil, err
			}
			dec, ok := decode.Lookup(cap.Type)
			if !ok {
				return nil, fmt.Errorf("hlp: capture %q: %w", cap.Name, decode.ErrUnknownDecoder(cap.Type))
			}
			cap.decoder = dec
			t.Segments = append(t.Segments, Segment{IsCapture: true, Capture: cap})
			i = newI
			continue
		}
		lit, newI := lexLiteral(src, i)
		t.Segments = append(t.Segments, Segment{Literal: lit})
		i = newI
	}
	return t, nil
}

// lexLiteral consumes a run of literal bytes starting at i (which must
// not be '<' unescaped), honoring `\` as an escape for the following
// byte, and returns the run plus the index of the next unconsumed byte.
func lexLiteral(src string, i int) (string, int) {
	var b strings.Builder
	for i < len(src) {
		c := src[i]
		if c == '<' {
			break
		}
		if c == '\\' && i+1 < len(src) {
			b.WriteByte(src[i+1])
			i += 2
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), i
}

// lexCapture parses a `<['?']name['/'type('/'arg)*]>` starting at the
// '<' at index i, returning the parsed Capture and the index just past
// the closing '>'.
func lexCapture(src string, i int) (Capture, int, error) {
	start := i
	i++ // past '<'

	var cap Capture
	if i < len(src) && src[i] == '?' {
		cap.Optional = true
		i++
	}

	nameStart := i
	for i < len(src) && isNameByte(src[i]) {
		i++
	}
	cap.Name = src[nameStart:i]

	if i >= len(src) {
		return Capture{}, 0, fmt.Errorf("%w: unterminated capture at byte %d", ErrMalformedTemplate, start)
	}

	switch src[i] {
	case '>':
		cap.Type = "keyword"
		return cap, i + 1, nil
	case '/':
		// fall through to type/args parsing below.
	default:
		return Capture{}, 0, fmt.Errorf("%w: byte %q in capture at %d", ErrInvalidCaptureName, src[i], i)
	}

	// Parse '/'-separated type and args until '>'.
	var parts []string
	for i < len(src) && src[i] == '/' {
		i++
		partStart := i
		for i < len(src) && src[i] != '/' && src[i] != '>' {
			i++
		}
		parts = append(parts, src[partStart:i])
	}
	if i >= len(src) || src[i] != '>' {
		return Capture{}, 0, fmt.Errorf("%w: unterminated capture at byte %d", ErrMalformedTemplate, start)
	}
	i++ // past '>'

	if len(parts) == 0 {
		cap.Type = "keyword"
	} else {
		cap.Type = parts[0]
		cap.Args = parts[1:]
	}
	return cap, i, nil
}

func isNameByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '_' || b == '.':
		return true
	}
	return false
}
