package decode

func init() {
	register("to_end", DecoderFunc(decodeToEnd))
}

// decodeToEnd is greedy to EOF: it consumes every remaining byte,
// including any that would otherwise match a trailing template literal.
func decodeToEnd(input string, cursor int, _ []string, _ string) (*ParseResult, int, bool) {
	r := NewParseResult()
	r.Set("", String(input[cursor:]))
	return r, len(input), true
}
