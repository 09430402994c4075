package decode

import "strings"

func init() {
	register("quoted", DecoderFunc(decodeQuoted))
}

// decodeQuoted reads a delimited span. With no arguments the delimiter is
// `"` on both ends. `quoted/X` uses X as both start and end delimiter.
// `quoted/START/END` uses distinct tokens. The capture consumes the start
// delimiter, the content up to (not including) the end delimiter, and
// the end delimiter itself.
func decodeQuoted(input string, cursor int, args []string, _ string) (*ParseResult, int, bool) {
	start, end := `"`, `"`
	switch len(args) {
	case 0:
	case 1:
		start, end = args[0], args[0]
	default:
		start, end = args[0], args[1]
	}

	rest := input[cursor:]
	if !strings.HasPrefix(rest, start) {
		return nil, cursor, false
	}
	afterStart := rest[len(start):]
	idx := strings.Index(afterStart, end)
	if idx < 0 {
		return nil, cursor, false
	}

	r := NewParseResult()
	r.Set("", String(afterStart[:idx]))
	return r, cursor + len(start) + idx + len(end), true
}
