package shots

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"
)

const maxLineSize = 64 * 1024 * 1024

// Reader decodes shots line by line.
type Reader struct {
	sc      *bufio.Scanner
	format  Format
	numDets int
	numObs  int
	line    int
	dets    *roaring.Bitmap
}

// NewReader returns a Reader for shots over numDets detectors and numObs
// observables. Indices outside those ranges are rejected.
func NewReader(r io.Reader, format Format, numDets, numObs int) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{
		sc:      sc,
		format:  format,
		numDets: numDets,
		numObs:  numObs,
		dets:    roaring.New(),
	}
}

// Next returns the next shot, or io.EOF after the last one.
func (r *Reader) Next() (Shot, error) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" && r.format == FormatDets {
			continue
		}
		switch r.format {
		case FormatDets:
			return r.parseDets(text)
		case Format01:
			return r.parse01(text)
		default:
			return Shot{}, fmt.Errorf("%w: %v", ErrUnknownFormat, r.format)
		}
	}
	if err := r.sc.Err(); err != nil {
		return Shot{}, err
	}
	return Shot{}, io.EOF
}

// ReadAll returns every remaining shot.
func (r *Reader) ReadAll() ([]Shot, error) {
	var out []Shot
	for {
		s, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}

func (r *Reader) fail(format string, args ...any) (Shot, error) {
	return Shot{}, &FormatError{Line: r.line, Reason: fmt.Sprintf(format, args...)}
}

// parseDets reads "shot D1 D4 L0". Repeated targets collapse to one.
func (r *Reader) parseDets(text string) (Shot, error) {
	fields := strings.Fields(text)
	if fields[0] != "shot" {
		return r.fail("expected \"shot\", got %q", fields[0])
	}

	r.dets.Clear()
	var obs *bitset.BitSet
	for _, f := range fields[1:] {
		if len(f) < 2 {
			return r.fail("bad target %q", f)
		}
		idx, err := strconv.ParseUint(f[1:], 10, 32)
		if err != nil {
			return r.fail("bad target %q", f)
		}
		switch f[0] {
		case 'D':
			if int(idx) >= r.numDets {
				return r.fail("detector D%d out of range [0, %d)", idx, r.numDets)
			}
			r.dets.Add(uint32(idx))
		case 'L':
			if int(idx) >= r.numObs {
				return r.fail("observable L%d out of range [0, %d)", idx, r.numObs)
			}
			if obs == nil {
				obs = bitset.New(uint(r.numObs))
			}
			obs.Set(uint(idx))
		default:
			return r.fail("bad target %q", f)
		}
	}

	s := Shot{Detectors: make([]int, 0, r.dets.GetCardinality()), Observables: obs}
	it := r.dets.Iterator()
	for it.HasNext() {
		s.Detectors = append(s.Detectors, int(it.Next()))
	}
	return s, nil
}

// parse01 reads numDets characters, then optionally numObs more.
func (r *Reader) parse01(text string) (Shot, error) {
	switch len(text) {
	case r.numDets:
	case r.numDets + r.numObs:
	default:
		return r.fail("got %d characters, want %d or %d", len(text), r.numDets, r.numDets+r.numObs)
	}

	s := Shot{Detectors: []int{}}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '0' && c != '1' {
			return r.fail("unexpected character %q at column %d", c, i+1)
		}
		if i >= r.numDets && s.Observables == nil {
			s.Observables = bitset.New(uint(r.numObs))
		}
		if c == '0' {
			continue
		}
		if i < r.numDets {
			s.Detectors = append(s.Detectors, i)
		} else {
			s.Observables.Set(uint(i - r.numDets))
		}
	}
	return s, nil
}
