// Package stats collects diagnostic counters from decoded shots.
//
// For every mechanism in a winning hypothesis the Recorder counts the
// detector that was in focus when the mechanism was committed, and that
// detector's detcost at the time. The counters are written as CSV for
// offline plotting.
package stats

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
)

// ErrorCount is the number of commits of Error while Detector was in focus.
type ErrorCount struct {
	Detector int
	Error    int
	Count    uint64
}

// DetCostCount is the number of commits at Detector with the given detcost.
type DetCostCount struct {
	Detector int
	DetCost  float64
	Count    uint64
}

type errorKey struct{ det, mech int }

type detcostKey struct {
	det     int
	detcost float64
}

// Recorder accumulates counters. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	errors   map[errorKey]uint64
	detcosts map[detcostKey]uint64
	usage    map[int]int
	shots    int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		errors:   make(map[errorKey]uint64),
		detcosts: make(map[detcostKey]uint64),
		usage:    make(map[int]int),
	}
}

// Commit is one step of a winning hypothesis.
type Commit struct {
	Focus     int
	Mechanism int
	DetCost   float64
}

// RecordShot adds the commits of one decoded shot.
func (r *Recorder) RecordShot(commits []Commit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.shots++
	for _, c := range commits {
		r.errors[errorKey{c.Focus, c.Mechanism}]++
		r.detcosts[detcostKey{c.Focus, c.DetCost}]++
		r.usage[c.Mechanism]++
	}
}

// Shots returns the number of recorded shots.
func (r *Recorder) Shots() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shots
}

// MechanismCounts returns how often each of numMechs mechanisms appeared in
// a winning hypothesis.
func (r *Recorder) MechanismCounts(numMechs int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, numMechs)
	for m, n := range r.usage {
		if m < numMechs {
			out[m] = n
		}
	}
	return out
}

// ErrorCounts returns the (detector, error) counters sorted by detector,
// then error.
func (r *Recorder) ErrorCounts() []ErrorCount {
	r.mu.Lock()
	out := make([]ErrorCount, 0, len(r.errors))
	for k, n := range r.errors {
		out = append(out, ErrorCount{Detector: k.det, Error: k.mech, Count: n})
	}
	r.mu.Unlock()

	slices.SortFunc(out, func(a, b ErrorCount) int {
		return cmp.Or(cmp.Compare(a.Detector, b.Detector), cmp.Compare(a.Error, b.Error))
	})
	return out
}

// DetCostCounts returns the (detector, detcost) counters sorted by detector,
// then detcost.
func (r *Recorder) DetCostCounts() []DetCostCount {
	r.mu.Lock()
	out := make([]DetCostCount, 0, len(r.detcosts))
	for k, n := range r.detcosts {
		out = append(out, DetCostCount{Detector: k.det, DetCost: k.detcost, Count: n})
	}
	r.mu.Unlock()

	slices.SortFunc(out, func(a, b DetCostCount) int {
		return cmp.Or(cmp.Compare(a.Detector, b.Detector), cmp.Compare(a.DetCost, b.DetCost))
	})
	return out
}

// Reset clears all counters.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.errors)
	clear(r.detcosts)
	clear(r.usage)
	r.shots = 0
}

// WriteErrorCSV writes the header detector_index,error_index,count followed
// by one row per counter.
func (r *Recorder) WriteErrorCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"detector_index", "error_index", "count"}); err != nil {
		return err
	}
	for _, c := range r.ErrorCounts() {
		row := []string{strconv.Itoa(c.Detector), strconv.Itoa(c.Error), strconv.FormatUint(c.Count, 10)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("stats: write error counts: %w", err)
	}
	return nil
}

// WriteDetCostCSV writes the header detector_index,detcost,count followed by
// one row per counter.
func (r *Recorder) WriteDetCostCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"detector_index", "detcost", "count"}); err != nil {
		return err
	}
	for _, c := range r.DetCostCounts() {
		row := []string{strconv.Itoa(c.Detector), strconv.FormatFloat(c.DetCost, 'g', -1, 64), strconv.FormatUint(c.Count, 10)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("stats: write detcost counts: %w", err)
	}
	return nil
}
