package decode

import "strings"

// consumeToken returns the length of the token starting at the front of
// rest: bytes up to the first occurrence of stop when stop is non-empty,
// otherwise up to the first ASCII whitespace byte, otherwise to EOF. This
// is the shared termination rule for typed (non-keyword) captures that
// don't own a more specific delimiter of their own (url, domain,
// filepath, useragent; kv_map uses it only when a literal follows).
func consumeToken(rest, stop string) int {
	if stop != "" {
		if idx := strings.Index(rest, stop); idx >= 0 {
			return idx
		}
		return len(rest)
	}
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case ' ', '\t', '\r', '\n':
			return i
		}
	}
	return len(rest)
}
