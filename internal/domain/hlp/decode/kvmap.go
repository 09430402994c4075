package decode

import (
	"encoding/json"
	"strings"
)

func init() {
	register("kv_map", DecoderFunc(decodeKVMap))
}

// decodeKVMap reads `KEY<sep>VALUE(<pairDelim>KEY<sep>VALUE)*` up to the
// next template literal or end of input, emitting a JSONString encoding
// a flat object in the pairs' original order. A pair with an empty key,
// empty value, or missing separator fails the whole capture.
func decodeKVMap(input string, cursor int, args []string, stop string) (*ParseResult, int, bool) {
	if len(args) < 2 || args[0] == "" || args[1] == "" {
		return nil, cursor, false
	}
	sep, pairDelim := args[0], args[1]

	rest := input[cursor:]
	n := consumeToken(rest, stop)
	if stop == "" {
		n = len(rest)
	}
	if n == 0 {
		return nil, cursor, false
	}
	token := rest[:n]

	pairs := strings.Split(token, pairDelim)
	var b strings.Builder
	b.WriteByte('{')
	for i, pair := range pairs {
		idx := strings.Index(pair, sep)
		if idx <= 0 {
			return nil, cursor, false
		}
		key := pair[:idx]
		value := pair[idx+len(sep):]
		if key == "" || value == "" {
			return nil, cursor, false
		}
		if i > 0 {
			b.WriteByte(',')
		}
		keyJSON, _ := json.Marshal(key)
		valJSON, _ := json.Marshal(value)
		b.Write(keyJSON)
		b.WriteByte(':')
		b.Write(valJSON)
	}
	b.WriteByte('}')

	r := NewParseResult()
	r.Set("", JSON(b.String()))
	return r, cursor + n, true
}
