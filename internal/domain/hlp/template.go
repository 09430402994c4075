// Package hlp implements the Human-readable Log Parser template
// language: compiling a mixed literal/capture template into a
// deterministic left-to-right parser that yields a map of named,
// typed fields from an input string.
package hlp

import "github.com/engine-core/engine/internal/domain/hlp/decode"

// Capture describes one `<name[/type[/arg...]]>` segment.
type Capture struct {
	Name     string
	Optional bool
	Type     string
	Args     []string
	decoder  decode.Decoder
}

// Segment is one compiled unit of a Template: a literal run or a
// capture.
type Segment struct {
	Literal    string
	IsCapture  bool
	Capture    Capture
}

// Template is a compiled HLP expression, ready to Run against inputs.
type Template struct {
	Source   string
	Segments []Segment
}
