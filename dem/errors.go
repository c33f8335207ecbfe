package dem

import (
	"errors"
	"fmt"
)

// ErrMalformedModel is matched by every MalformedModelError.
var ErrMalformedModel = errors.New("dem: malformed model")

// MalformedModelError describes why a detector error model could not be compiled.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type MalformedModelError struct {
	// Line is the 1-based source line, or 0 when the problem is not tied to one line.
	Line   int
	Reason string
	cause  error
}

func (e *MalformedModelError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("dem: malformed model: line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("dem: malformed model: %s", e.Reason)
}

func (e *MalformedModelError) Unwrap() error { return e.cause }

// Is reports whether target is ErrMalformedModel.
func (e *MalformedModelError) Is(target error) bool { return target == ErrMalformedModel }

func malformed(line int, format string, args ...any) *MalformedModelError {
	return &MalformedModelError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

func malformedCause(line int, cause error, format string, args ...any) *MalformedModelError {
	return &MalformedModelError{Line: line, Reason: fmt.Sprintf(format, args...), cause: cause}
}
