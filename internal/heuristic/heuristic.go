// Package heuristic computes mechanism costs and the admissible lower bound
// that guides the decoder search.
//
// For a detector d, DetCost is the minimum over unblocked mechanisms e
// toggling d of w_e/|dets(e)|. Any set of mechanisms that explains a set U of
// detectors pays at least DetCost(d) for every d in U: each chosen mechanism
// spreads its weight over the detectors it touches, and no detector is
// credited more than once. Bound is therefore admissible whenever every weight
// is non-negative, which holds for p <= 0.5.
package heuristic

import (
	"cmp"
	"math"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/tesseract/dem"
)

// Weight returns the cost -ln(p/(1-p)) of a mechanism with probability p.
func Weight(p float64) float64 { return dem.Weight(p) }

type entry struct {
	mech   uint32
	shared float64
}

// Evaluator holds read-only per-detector tables derived from a model. It is
// safe for concurrent use.
type Evaluator struct {
	model *dem.Model
	// byShared lists the mechanisms on each detector by ascending w/|dets|.
	byShared [][]entry
	// candidates lists the mechanisms on each detector by weight, then index.
	candidates [][]int32
}

// New builds an Evaluator for m.
func New(m *dem.Model) *Evaluator {
	n := m.NumDetectors()
	e := &Evaluator{
		model:      m,
		byShared:   make([][]entry, n),
		candidates: make([][]int32, n),
	}
	for d := 0; d < n; d++ {
		mechs := m.Detectors[d].Mechanisms
		shared := make([]entry, len(mechs))
		cands := make([]int32, len(mechs))
		for i, idx := range mechs {
			mech := &m.Mechanisms[idx]
			shared[i] = entry{mech: uint32(idx), shared: mech.Weight / float64(len(mech.Detectors))}
			cands[i] = int32(idx)
		}
		slices.SortStableFunc(shared, func(a, b entry) int {
			if c := cmp.Compare(a.shared, b.shared); c != 0 {
				return c
			}
			return cmp.Compare(a.mech, b.mech)
		})
		slices.SortFunc(cands, func(a, b int32) int {
			if c := cmp.Compare(m.Mechanisms[a].Weight, m.Mechanisms[b].Weight); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		e.byShared[d] = shared
		e.candidates[d] = cands
	}
	return e
}

// Model returns the model the evaluator was built from.
func (e *Evaluator) Model() *dem.Model { return e.model }

// DetCost returns the cheapest shared cost of an unblocked mechanism on d, or
// +Inf when every mechanism on d is blocked. A nil blocked set blocks nothing.
func (e *Evaluator) DetCost(d int, blocked *bitset.BitSet) float64 {
	for _, en := range e.byShared[d] {
		if blocked == nil || !blocked.Test(uint(en.mech)) {
			return en.shared
		}
	}
	return math.Inf(1)
}

// Bound sums DetCost over the active detectors. It returns +Inf as soon as
// one active detector can no longer be explained.
func (e *Evaluator) Bound(active, blocked *bitset.BitSet) float64 {
	var sum float64
	for d, ok := active.NextSet(0); ok; d, ok = active.NextSet(d + 1) {
		c := e.DetCost(int(d), blocked)
		if math.IsInf(c, 1) {
			return c
		}
		sum += c
	}
	return sum
}

// Candidates returns the mechanisms toggling d ordered by weight, then index.
// The slice is shared and must not be modified.
func (e *Evaluator) Candidates(d int) []int32 { return e.candidates[d] }
