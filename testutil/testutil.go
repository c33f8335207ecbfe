package testutil

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/hupe1980/tesseract/dem"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Float64 returns a pseudo-random number in [0,1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Syndrome returns k distinct detectors drawn from [0, numDets), ascending.
func (r *RNG) Syndrome(numDets, k int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	perm := r.rand.Perm(numDets)[:min(k, numDets)]
	slices.Sort(perm)
	return perm
}

// RandomDEM generates a model with numMechs mechanisms over numDets detectors.
// Each mechanism toggles 1..maxDets distinct detectors and flips each of the
// numObs observables with probability one half. Probabilities lie in
// [0.001, 0.2), so every weight is positive.
func (r *RNG) RandomDEM(numDets, numMechs, maxDets, numObs int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	for i := 0; i < numMechs; i++ {
		p := 0.001 + r.rand.Float64()*0.199
		k := 1 + r.rand.IntN(min(maxDets, numDets))
		dets := r.rand.Perm(numDets)[:k]
		slices.Sort(dets)

		fmt.Fprintf(&b, "error(%s)", strconv.FormatFloat(p, 'g', -1, 64))
		for _, d := range dets {
			fmt.Fprintf(&b, " D%d", d)
		}
		for l := 0; l < numObs; l++ {
			if r.rand.IntN(2) == 1 {
				fmt.Fprintf(&b, " L%d", l)
			}
		}
		b.WriteByte('\n')
	}
	for d := 0; d < numDets; d++ {
		fmt.Fprintf(&b, "detector(%d, 0) D%d\n", d, d)
	}
	for l := 0; l < numObs; l++ {
		fmt.Fprintf(&b, "logical_observable L%d\n", l)
	}
	return b.String()
}

// RepetitionCodeDEM returns a phenomenological model of a distance-d
// repetition code over the given number of rounds. Each round has d-1
// detectors. Data errors on the two boundary qubits flip L0; measurement
// errors connect a detector to its successor in the next round.
func RepetitionCodeDEM(distance, rounds int, p float64) string {
	prob := strconv.FormatFloat(p, 'g', -1, 64)
	perRound := distance - 1

	var b strings.Builder
	b.WriteString("logical_observable L0\n")
	for r := 0; r < rounds; r++ {
		base := r * perRound
		for q := 0; q < distance; q++ {
			fmt.Fprintf(&b, "error(%s)", prob)
			if q > 0 {
				fmt.Fprintf(&b, " D%d", base+q-1)
			}
			if q < perRound {
				fmt.Fprintf(&b, " D%d", base+q)
			}
			if q == 0 {
				b.WriteString(" L0")
			}
			b.WriteByte('\n')
		}
		if r+1 < rounds {
			for s := 0; s < perRound; s++ {
				fmt.Fprintf(&b, "error(%s) D%d D%d\n", prob, base+s, base+perRound+s)
			}
		}
		for s := 0; s < perRound; s++ {
			fmt.Fprintf(&b, "detector(%d, %d) D%d\n", s, r, base+s)
		}
	}
	return b.String()
}

// ExactResult is a minimum-cost explanation found by ExactDecode.
type ExactResult struct {
	Cost        float64
	Mechanisms  []int
	Observables []int
}

// maxExactMechanisms bounds the brute-force enumeration.
const maxExactMechanisms = 24

// ExactDecode enumerates every subset of search mechanisms and returns the
// cheapest one whose detector toggles equal syndrome. ok is false when no
// subset explains the syndrome. It panics for models with more than 24
// mechanisms.
func ExactDecode(m *dem.Model, syndrome []int) (ExactResult, bool) {
	n := m.NumMechanisms()
	if n > maxExactMechanisms {
		panic(fmt.Sprintf("testutil: ExactDecode supports at most %d mechanisms, got %d", maxExactMechanisms, n))
	}
	if m.NumDetectors() > 64 || m.NumObservables > 64 {
		panic("testutil: ExactDecode supports at most 64 detectors and observables")
	}

	var target uint64
	for _, d := range syndrome {
		target ^= 1 << uint(d)
	}
	dets := make([]uint64, n)
	obs := make([]uint64, n)
	for i, mech := range m.Mechanisms {
		for _, d := range mech.Detectors {
			dets[i] |= 1 << uint(d)
		}
		for _, l := range mech.Observables {
			obs[i] |= 1 << uint(l)
		}
	}

	best := math.Inf(1)
	var bestSet uint64
	found := false
	for set := uint64(0); set < 1<<uint(n); set++ {
		var toggles uint64
		var cost float64
		for i := 0; i < n; i++ {
			if set&(1<<uint(i)) != 0 {
				toggles ^= dets[i]
				cost += m.Mechanisms[i].Weight
			}
		}
		if toggles == target && cost < best {
			best, bestSet, found = cost, set, true
		}
	}
	if !found {
		return ExactResult{}, false
	}

	res := ExactResult{Cost: best, Mechanisms: []int{}, Observables: []int{}}
	var parity uint64
	for i := 0; i < n; i++ {
		if bestSet&(1<<uint(i)) != 0 {
			res.Mechanisms = append(res.Mechanisms, i)
			parity ^= obs[i]
		}
	}
	for l := 0; l < m.NumObservables; l++ {
		if parity&(1<<uint(l)) != 0 {
			res.Observables = append(res.Observables, l)
		}
	}
	return res, true
}

// SubsetCost returns the total weight of mechs and whether their toggles
// equal syndrome.
func SubsetCost(m *dem.Model, syndrome, mechs []int) (float64, bool) {
	active := make(map[int]bool, len(syndrome))
	for _, d := range syndrome {
		active[d] = !active[d]
	}
	var cost float64
	for _, i := range mechs {
		cost += m.Mechanisms[i].Weight
		for _, d := range m.Mechanisms[i].Detectors {
			active[d] = !active[d]
		}
	}
	for _, on := range active {
		if on {
			return cost, false
		}
	}
	return cost, true
}
