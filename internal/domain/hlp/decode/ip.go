package decode

import (
	"net"
	"strings"
)

func init() {
	register("ip", DecoderFunc(decodeIP))
}

// decodeIP accepts an IPv4 dotted-quad or an IPv6 address (including
// "::" compression) and rejects everything else. The address token is
// taken to be the longest run of bytes valid in an IP literal
// ([0-9A-Fa-f:.]) starting at cursor.
func decodeIP(input string, cursor int, _ []string, _ string) (*ParseResult, int, bool) {
	rest := input[cursor:]
	end := 0
	for end < len(rest) && isIPByte(rest[end]) {
		end++
	}
	if end == 0 {
		return nil, cursor, false
	}

	token := rest[:end]
	ip := net.ParseIP(token)
	if ip == nil {
		return nil, cursor, false
	}
	// A token containing '.' is accepted only when it has an IPv4 form
	// (a dotted-quad or an IPv4-mapped IPv6 address); other IPv6 forms
	// with a dotted tail are rejected.
	if strings.Contains(token, ".") && ip.To4() == nil {
		return nil, cursor, false
	}

	r := NewParseResult()
	r.Set("", String(token))
	return r, cursor + end, true
}

func isIPByte(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'a' && b <= 'f':
		return true
	case b >= 'A' && b <= 'F':
		return true
	case b == ':' || b == '.':
		return true
	}
	return false
}
