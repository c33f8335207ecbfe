package shots

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/tesseract/codec"
)

// Format is a shot line format.
type Format int

const (
	// FormatDets lists fired detectors and observables by index.
	FormatDets Format = iota
	// Format01 is one character per detector and observable.
	Format01
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatDets:
		return "dets"
	case Format01:
		return "01"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ErrUnknownFormat is returned for unrecognised format names or extensions.
var ErrUnknownFormat = errors.New("shots: unknown format")

// ParseFormat returns the format with the given name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "dets":
		return FormatDets, nil
	case "01":
		return Format01, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatForPath infers the format from the extension of path after any
// compression suffix is removed.
func FormatForPath(path string) (Format, error) {
	ext := filepath.Ext(codec.TrimExtension(path))
	return ParseFormat(strings.TrimPrefix(ext, "."))
}

// Shot is one syndrome, optionally with the observables that actually
// flipped.
type Shot struct {
	// Detectors are the fired detector indices, ascending and distinct.
	Detectors []int
	// Observables holds the recorded observable flips. It is nil when the
	// input carried none.
	Observables *bitset.BitSet
}

// HasObservables reports whether the shot carries recorded observables.
func (s Shot) HasObservables() bool {
	return s.Observables != nil
}

// ErrFormat matches every FormatError.
var ErrFormat = errors.New("shots: malformed input")

// FormatError reports a malformed shot line.
type FormatError struct {
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("shots: line %d: %s", e.Line, e.Reason)
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}
