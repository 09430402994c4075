// Package decode implements the semantic decoders used by HLP captures:
// typed parsers that consume a prefix of the input and emit one or more
// named fields (ip, url, domain, filepath, useragent, json, kv_map,
// timestamp, number, quoted, keyword, to-end).
package decode

// Kind identifies the Go-level type carried by a Value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindUint
	KindJSON
)

// JSONString carries a raw JSON lexeme exactly as it appeared in the
// input, never re-serialized.
type JSONString string

// Value is a single typed field produced by a decoder.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
	Uint  uint64
	JSON  JSONString
}

func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Int(i int64) Value      { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value  { return Value{Kind: KindFloat, Float: f} }
func Uint(u uint64) Value    { return Value{Kind: KindUint, Uint: u} }
func JSON(j string) Value    { return Value{Kind: KindJSON, JSON: JSONString(j)} }

// ParseResult is the ordered mapping from capture key to typed value
// produced by running a compiled HLP template against an input string.
type ParseResult struct {
	order  []string
	values map[string]Value
}

// NewParseResult returns an empty result.
func NewParseResult() *ParseResult {
	return &ParseResult{values: make(map[string]Value)}
}

// Set records key=value, appending key to the emission order the first
// time it is seen and overwriting the value on repeats.
func (r *ParseResult) Set(key string, v Value) {
	if _, exists := r.values[key]; !exists {
		r.order = append(r.order, key)
	}
	r.values[key] = v
}

// Get returns the value for key and whether it was present.
func (r *ParseResult) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns capture keys in emission order.
func (r *ParseResult) Keys() []string {
	return append([]string(nil), r.order...)
}

// Len reports the number of distinct keys captured.
func (r *ParseResult) Len() int { return len(r.order) }

// Merge copies every key/value from other into r, preserving other's
// relative order for newly-seen keys.
func (r *ParseResult) Merge(other *ParseResult) {
	for _, k := range other.order {
		r.Set(k, other.values[k])
	}
}
