package decode

import "strconv"

func init() {
	register("number", DecoderFunc(decodeNumber))
}

// decodeNumber accepts a signed decimal integer fitting in 64 bits, or a
// float with a fractional part and no exponent. Scientific notation,
// overflow, and leading-dot forms ("`.5`") are rejected.
func decodeNumber(input string, cursor int, _ []string, _ string) (*ParseResult, int, bool) {
	rest := input[cursor:]
	i := 0
	if i < len(rest) && rest[i] == '-' {
		i++
	}
	digitsStart := i
	for i < len(rest) && isDigit(rest[i]) {
		i++
	}
	if i == digitsStart {
		return nil, cursor, false
	}

	isFloat := false
	intEnd := i
	if i < len(rest) && rest[i] == '.' {
		fracStart := i + 1
		j := fracStart
		for j < len(rest) && isDigit(rest[j]) {
			j++
		}
		if j > fracStart {
			isFloat = true
			i = j
		}
	}
	// Reject scientific notation directly following the numeral.
	if i < len(rest) && (rest[i] == 'e' || rest[i] == 'E') {
		return nil, cursor, false
	}

	lexeme := rest[:i]
	r := NewParseResult()
	if isFloat {
		f, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return nil, cursor, false
		}
		r.Set("", Float(f))
	} else {
		n, err := strconv.ParseInt(rest[:intEnd], 10, 64)
		if err != nil {
			return nil, cursor, false
		}
		r.Set("", Int(n))
	}
	return r, cursor + i, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
