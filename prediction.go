package tesseract

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// Prediction is the decoder's answer for one syndrome.
type Prediction struct {
	// Observables holds the predicted flip of each logical observable.
	Observables *bitset.BitSet
	// Cost is the total weight of the chosen mechanisms.
	Cost float64
	// Mechanisms are the chosen mechanism indices, ascending.
	Mechanisms []int
	// Order is the index of the ordering that produced the hypothesis.
	Order int
	// Expansions is the number of nodes expanded across all orderings.
	Expansions int
}

// Flipped reports whether observable l is predicted to flip.
func (p *Prediction) Flipped(l int) bool {
	return l >= 0 && p.Observables.Test(uint(l))
}

// Mask returns the predicted flips of observables 0..63 as a bit mask.
func (p *Prediction) Mask() uint64 {
	var mask uint64
	for l, ok := p.Observables.NextSet(0); ok && l < 64; l, ok = p.Observables.NextSet(l + 1) {
		mask |= 1 << l
	}
	return mask
}

// Clone returns a deep copy of p.
func (p *Prediction) Clone() *Prediction {
	c := *p
	c.Observables = p.Observables.Clone()
	c.Mechanisms = slices.Clone(p.Mechanisms)
	return &c
}
