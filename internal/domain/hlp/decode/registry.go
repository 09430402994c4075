package decode

import "fmt"

// Decoder decodes one capture starting at cursor in input. stop is the
// literal text (if any) that follows this capture in the template —
// keyword and kv_map consume up to the first occurrence of stop (or EOF
// when stop is empty); url, domain, filepath and useragent consume up to
// stop (or the first whitespace when stop is empty); timestamp searches
// only the text before stop; quoted, ip, json and number ignore it and
// use their own termination rule. On success the decoder returns the fields to emit
// (keyed relative to the capture name — the caller prefixes composite
// sub-keys), the new cursor position, and true. On failure the returned
// cursor is ignored and the capture emits nothing; the decoder must not
// mutate input.
type Decoder interface {
	Decode(input string, cursor int, args []string, stop string) (fields *ParseResult, newCursor int, ok bool)
}

// DecoderFunc adapts a plain function to the Decoder interface.
type DecoderFunc func(input string, cursor int, args []string, stop string) (*ParseResult, int, bool)

func (f DecoderFunc) Decode(input string, cursor int, args []string, stop string) (*ParseResult, int, bool) {
	return f(input, cursor, args, stop)
}

var registry = map[string]Decoder{}

func register(name string, d Decoder) {
	registry[name] = d
}

// Lookup returns the decoder registered under name, defaulting to
// "keyword" when name is empty (the HLP default capture type).
func Lookup(name string) (Decoder, bool) {
	if name == "" {
		name = "keyword"
	}
	d, ok := registry[name]
	return d, ok
}

// Names returns every registered decoder name, in no particular order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}

// ErrUnknownDecoder is returned by Lookup callers when a template names a
// decoder that was never registered.
func ErrUnknownDecoder(name string) error {
	return fmt.Errorf("unknown decoder type %q", name)
}
