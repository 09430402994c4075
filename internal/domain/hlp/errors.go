package hlp

import "errors"

// ErrMalformedTemplate is returned when a template's capture syntax is
// unterminated or otherwise cannot be lexed.
var ErrMalformedTemplate = errors.New("hlp: malformed template")

// ErrInvalidCaptureName is returned when a capture name contains bytes
// outside [A-Za-z0-9_.].
var ErrInvalidCaptureName = errors.New("hlp: invalid capture name")
