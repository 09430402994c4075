package hlp

import "github.com/engine-core/engine/internal/domain/hlp/decode"

// Run walks t's segments left to right against input. Every literal must
// match byte-for-byte; every capture invokes its decoder at the current
// cursor. An optional capture (`<?name...>`) that fails to decode is
// skipped without advancing the cursor; any other segment failure fails
// the whole parse, returning an empty result and false. Input longer
// than the template after the final segment is accepted and ignored.
func Run(t *Template, input string) (*decode.ParseResult, bool) {
	result := decode.NewParseResult()
	cursor := 0

	for idx, seg := range t.Segments {
		if !seg.IsCapture {
			if cursor+len(seg.Literal) > len(input) || input[cursor:cursor+len(seg.Literal)] != seg.Literal {
				return decode.NewParseResult(), false
			}
			cursor += len(seg.Literal)
			continue
		}

		stop := nextLiteral(t.Segments, idx+1)
		fields, newCursor, ok := seg.Capture.decoder.Decode(input, cursor, seg.Capture.Args, stop)
		if !ok {
			if seg.Capture.Optional {
				continue
			}
			return decode.NewParseResult(), false
		}
		cursor = newCursor
		if seg.Capture.Name == "" {
			continue // anonymous capture: decoded but not emitted
		}
		emit(result, seg.Capture.Name, fields)
	}

	return result, true
}

// nextLiteral scans forward from idx for the next literal segment's
// text. Consecutive captures with no intervening literal yield "" (the
// capture consumes greedily to end of input, per keyword semantics).
func nextLiteral(segments []Segment, idx int) string {
	for i := idx; i < len(segments); i++ {
		if !segments[i].IsCapture {
			return segments[i].Literal
		}
		return ""
	}
	return ""
}

// emit folds a decoder's field set into result under name: the decoder's
// "" key (scalar decoders) maps directly to name, and any other key
// (composite decoders) maps to "name.key".
func emit(result *decode.ParseResult, name string, fields *decode.ParseResult) {
	for _, k := range fields.Keys() {
		v, _ := fields.Get(k)
		if k == "" {
			result.Set(name, v)
			continue
		}
		result.Set(name+"."+k, v)
	}
}
