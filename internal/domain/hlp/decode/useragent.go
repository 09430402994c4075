package decode

func init() {
	register("useragent", DecoderFunc(decodeUserAgent))
}

// decodeUserAgent captures raw bytes until a closing bracket or
// parenthesis, a quote, or the surrounding template literal (the first
// whitespace when no literal follows), storing the span as "original".
func decodeUserAgent(input string, cursor int, _ []string, stop string) (*ParseResult, int, bool) {
	rest := input[cursor:]
	n := consumeToken(rest, stop)
	for i := 0; i < n; i++ {
		switch rest[i] {
		case ']', ')', '"', '\'':
			n = i
		}
	}
	if n == 0 {
		return nil, cursor, false
	}
	r := NewParseResult()
	r.Set("original", String(rest[:n]))
	return r, cursor + n, true
}
