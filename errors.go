package tesseract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/tesseract/dem"
	"github.com/hupe1980/tesseract/internal/search"
)

var (
	// ErrNoSolutionFound is returned by a single ordering that finds no
	// hypothesis, including when its expansion budget runs out.
	ErrNoSolutionFound = search.ErrNoSolution

	// ErrDecodeFailed is matched by every DecodeFailedError.
	ErrDecodeFailed = errors.New("tesseract: decode failed")

	// ErrInvalidSyndrome is matched by every InvalidSyndromeError.
	ErrInvalidSyndrome = errors.New("tesseract: invalid syndrome")

	// ErrInvalidConfig is matched by every ConfigError.
	ErrInvalidConfig = errors.New("tesseract: invalid config")

	// ErrMalformedModel is returned when the model text cannot be compiled.
	ErrMalformedModel = dem.ErrMalformedModel
)

// InvalidSyndromeError reports a syndrome entry that is out of range or
// repeated.
type InvalidSyndromeError struct {
	Detector     int
	NumDetectors int
	Duplicate    bool
}

func (e *InvalidSyndromeError) Error() string {
	if e.Duplicate {
		return fmt.Sprintf("tesseract: invalid syndrome: detector %d listed twice", e.Detector)
	}
	return fmt.Sprintf("tesseract: invalid syndrome: detector %d not in [0, %d)", e.Detector, e.NumDetectors)
}

// Is reports whether target is ErrInvalidSyndrome.
func (e *InvalidSyndromeError) Is(target error) bool { return target == ErrInvalidSyndrome }

// DecodeFailedError reports that every ordering failed for one syndrome.
//
// Each run's cause is available through errors.Is and errors.As.
type DecodeFailedError struct {
	// Causes holds one error per ordering, indexed by order.
	Causes []error
}

func (e *DecodeFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tesseract: decode failed: all %d orderings failed", len(e.Causes))
	if len(e.Causes) > 0 && e.Causes[0] != nil {
		fmt.Fprintf(&b, " (first: %v)", e.Causes[0])
	}
	return b.String()
}

// Is reports whether target is ErrDecodeFailed.
func (e *DecodeFailedError) Is(target error) bool { return target == ErrDecodeFailed }

// Unwrap returns the per-ordering causes.
func (e *DecodeFailedError) Unwrap() []error { return e.Causes }

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tesseract: invalid config: %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Range errors from the search surface as syndrome errors.
	if errors.Is(err, search.ErrDetectorOutOfRange) {
		return fmt.Errorf("%w: %w", ErrInvalidSyndrome, err)
	}
	return err
}
