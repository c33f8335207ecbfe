package shots

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/bits-and-blooms/bitset"
)

// Writer encodes shots and predictions line by line. Call Flush when done.
type Writer struct {
	w       *bufio.Writer
	format  Format
	numDets int
	numObs  int
	buf     []byte
}

// NewWriter returns a Writer for shots over numDets detectors and numObs
// observables.
func NewWriter(w io.Writer, format Format, numDets, numObs int) *Writer {
	return &Writer{
		w:       bufio.NewWriter(w),
		format:  format,
		numDets: numDets,
		numObs:  numObs,
	}
}

// Write emits one shot. Observables are written only when the shot has them.
func (w *Writer) Write(s Shot) error {
	w.buf = w.buf[:0]
	switch w.format {
	case FormatDets:
		w.buf = append(w.buf, "shot"...)
		for _, d := range s.Detectors {
			w.buf = append(w.buf, " D"...)
			w.buf = strconv.AppendInt(w.buf, int64(d), 10)
		}
		if s.Observables != nil {
			for l, ok := s.Observables.NextSet(0); ok; l, ok = s.Observables.NextSet(l + 1) {
				w.buf = append(w.buf, " L"...)
				w.buf = strconv.AppendUint(w.buf, uint64(l), 10)
			}
		}
	case Format01:
		start := len(w.buf)
		for i := 0; i < w.numDets; i++ {
			w.buf = append(w.buf, '0')
		}
		for _, d := range s.Detectors {
			if d < 0 || d >= w.numDets {
				return fmt.Errorf("shots: detector %d out of range [0, %d)", d, w.numDets)
			}
			w.buf[start+d] = '1'
		}
		if s.Observables != nil {
			w.buf = appendBits(w.buf, s.Observables, w.numObs)
		}
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, w.format)
	}
	w.buf = append(w.buf, '\n')
	_, err := w.w.Write(w.buf)
	return err
}

// WritePrediction emits one line of numObs characters for predicted
// observable flips, the 01 prediction format.
func (w *Writer) WritePrediction(obs *bitset.BitSet) error {
	w.buf = appendBits(w.buf[:0], obs, w.numObs)
	w.buf = append(w.buf, '\n')
	_, err := w.w.Write(w.buf)
	return err
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func appendBits(dst []byte, b *bitset.BitSet, n int) []byte {
	for i := 0; i < n; i++ {
		if b != nil && b.Test(uint(i)) {
			dst = append(dst, '1')
		} else {
			dst = append(dst, '0')
		}
	}
	return dst
}
