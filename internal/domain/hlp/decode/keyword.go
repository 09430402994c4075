package decode

import "strings"

func init() {
	register("keyword", DecoderFunc(decodeKeyword))
}

// decodeKeyword consumes bytes until the next occurrence of stop (the
// upcoming template literal) or end of input, whichever comes first.
// An empty match (capture immediately followed by its stop text) still
// succeeds, yielding an empty string — HLP keyword captures are not
// required to be non-empty.
func decodeKeyword(input string, cursor int, _ []string, stop string) (*ParseResult, int, bool) {
	rest := input[cursor:]
	end := len(rest)
	if stop != "" {
		if idx := strings.Index(rest, stop); idx >= 0 {
			end = idx
		}
	}
	r := NewParseResult()
	r.Set("", String(rest[:end]))
	return r, cursor + end, true
}
