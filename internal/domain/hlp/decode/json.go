package decode

import (
	"bytes"
	"encoding/json"
	"strings"
)

func init() {
	register("json", DecoderFunc(decodeJSON))
}

// decodeJSON parses exactly one JSON value starting at cursor and stores
// its raw lexeme (never a re-serialized form) as a JSONString. The
// argument selects the accepted top-level type: object (default), array,
// string, number, bool, null, or any. Unclosed, malformed, or
// wrong-typed values are rejected.
func decodeJSON(input string, cursor int, args []string, _ string) (*ParseResult, int, bool) {
	want := "object"
	if len(args) > 0 && args[0] != "" {
		want = strings.ToLower(args[0])
	}

	rest := input[cursor:]
	dec := json.NewDecoder(strings.NewReader(rest))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, cursor, false
	}

	lexeme := strings.TrimSpace(string(raw))
	if lexeme == "" {
		return nil, cursor, false
	}
	if want != "any" && !jsonTypeMatches(want, lexeme) {
		return nil, cursor, false
	}

	consumed := int(dec.InputOffset())
	r := NewParseResult()
	r.Set("", JSON(lexeme))
	return r, cursor + consumed, true
}

func jsonTypeMatches(want, lexeme string) bool {
	first := lexeme[0]
	switch want {
	case "object":
		return first == '{'
	case "array":
		return first == '['
	case "string":
		return first == '"'
	case "number":
		return first == '-' || (first >= '0' && first <= '9')
	case "bool":
		return bytes.HasPrefix([]byte(lexeme), []byte("true")) || bytes.HasPrefix([]byte(lexeme), []byte("false"))
	case "null":
		return lexeme == "null"
	}
	return false
}
