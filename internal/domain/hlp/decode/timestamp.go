package decode

import (
	"strings"
	"time"
)

func init() {
	register("timestamp", DecoderFunc(decodeTimestamp))
}

type timeFormat struct {
	name    string
	layout  string
	hasZone bool
}

var namedFormats = map[string]timeFormat{
	"ANSIC":       {"ANSIC", time.ANSIC, false},
	"UnixDate":    {"UnixDate", time.UnixDate, true},
	"RubyDate":    {"RubyDate", time.RubyDate, true},
	"RFC822":      {"RFC822", time.RFC822, true},
	"RFC822Z":     {"RFC822Z", time.RFC822Z, true},
	"RFC850":      {"RFC850", time.RFC850, true},
	"RFC1123":     {"RFC1123", time.RFC1123, true},
	"RFC1123Z":    {"RFC1123Z", time.RFC1123Z, true},
	"RFC3339":     {"RFC3339", time.RFC3339, true},
	"Kitchen":     {"Kitchen", time.Kitchen, false},
	"Stamp":       {"Stamp", time.Stamp, false},
	"POSTGRES":    {"POSTGRES", "2006-01-02 15:04:05-07", true},
	"POSTGRES_MS": {"POSTGRES_MS", "2006-01-02 15:04:05.000-07", true},
	"APACHE":      {"APACHE", "02/Jan/2006:15:04:05 -0700", true},
}

// defaultTryOrder is the deterministic order used when no format argument
// is given: first match wins.
var defaultTryOrder = []string{
	"RFC3339", "RFC1123Z", "RFC1123", "RFC822Z", "RFC822", "RFC850",
	"ANSIC", "UnixDate", "RubyDate", "Kitchen", "Stamp", "POSTGRES",
	"POSTGRES_MS", "APACHE",
}

// decodeTimestamp parses `timestamp/<fmt>` (a named format) or, with no
// format argument, tries the built-in list in defaultTryOrder and takes
// the first match. Sub-keys year, month, day, hour, minutes, seconds,
// timezone are emitted as appropriate for the matched layout.
func decodeTimestamp(input string, cursor int, args []string, stop string) (*ParseResult, int, bool) {
	rest := input[cursor:]

	if len(args) > 0 && args[0] != "" {
		f, ok := namedFormats[args[0]]
		if !ok {
			return nil, cursor, false
		}
		return tryFormat(rest, f, stop, cursor)
	}

	for _, name := range defaultTryOrder {
		if r, newCursor, ok := tryFormat(rest, namedFormats[name], stop, cursor); ok {
			return r, newCursor, true
		}
	}
	return nil, cursor, false
}

func tryFormat(rest string, f timeFormat, stop string, cursor int) (*ParseResult, int, bool) {
	maxLen := len(rest)
	if stop != "" {
		if idx := strings.Index(rest, stop); idx >= 0 {
			maxLen = idx
		}
	}
	if maxLen <= 0 {
		return nil, cursor, false
	}

	minLen := maxLen - 12
	if minLen < 1 {
		minLen = 1
	}
	for l := maxLen; l >= minLen; l-- {
		candidate := rest[:l]
		t, err := time.Parse(f.layout, candidate)
		if err != nil {
			continue
		}
		r := NewParseResult()
		r.Set("year", Int(int64(t.Year())))
		r.Set("month", Int(int64(t.Month())))
		r.Set("day", Int(int64(t.Day())))
		r.Set("hour", Int(int64(t.Hour())))
		r.Set("minutes", Int(int64(t.Minute())))
		r.Set("seconds", Int(int64(t.Second())))
		if f.hasZone {
			name, _ := t.Zone()
			r.Set("timezone", String(name))
		}
		return r, cursor + l, true
	}
	return nil, cursor, false
}
