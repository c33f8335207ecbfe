package dem

import (
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// Detector is a single parity check of the circuit.
type Detector struct {
	Index int
	// Coords are the annotated coordinates, or nil when the model carries none.
	Coords []float64
	// Mechanisms lists the search mechanisms that toggle this detector, ascending.
	Mechanisms []int
}

// Mechanism is one independent error channel.
type Mechanism struct {
	// Index is the dense position in Model.Mechanisms (or Model.Undetectable).
	Index int
	// Source is the position of the originating error instruction after
	// repeat blocks are flattened.
	Source      int
	Probability float64
	Weight      float64
	// Detectors and Observables are sorted and free of duplicates.
	Detectors   []int
	Observables []int
}

// Model is a compiled detector error model.
//
// A Model is immutable and safe for concurrent use.
type Model struct {
	Detectors  []Detector
	Mechanisms []Mechanism
	// Undetectable holds mechanisms that toggle no detector.
	Undetectable []Mechanism
	// NumObservables is the number of declared logical observables.
	NumObservables int
	// ZeroProbability counts error instructions dropped because p == 0.
	ZeroProbability int

	// declared lists the observables named by logical_observable, ascending,
	// or nil when the model declared none.
	declared []int

	minActivation []float64
	minShared     []float64
	neighbors     []*roaring.Bitmap
}

// NumDetectors returns the number of detectors.
func (m *Model) NumDetectors() int { return len(m.Detectors) }

// NumMechanisms returns the number of search mechanisms.
func (m *Model) NumMechanisms() int { return len(m.Mechanisms) }

// MinActivationCost returns the lowest weight among mechanisms toggling d, or
// +Inf when no mechanism toggles it.
func (m *Model) MinActivationCost(d int) float64 { return m.minActivation[d] }

// MinSharedCost returns the lowest w/|dets| among mechanisms toggling d, or
// +Inf when no mechanism toggles it.
func (m *Model) MinSharedCost(d int) float64 { return m.minShared[d] }

// Neighbors returns the detectors that share at least one mechanism with d.
// The returned bitmap must not be modified.
func (m *Model) Neighbors(d int) *roaring.Bitmap { return m.neighbors[d] }

// HasCoords reports whether any detector carries coordinates.
func (m *Model) HasCoords() bool {
	for i := range m.Detectors {
		if m.Detectors[i].Coords != nil {
			return true
		}
	}
	return false
}

// finalize renumbers mechanisms and derives per-detector tables.
// It is called once by every constructor of Model.
func (m *Model) finalize() {
	for i := range m.Mechanisms {
		m.Mechanisms[i].Index = i
	}
	for i := range m.Undetectable {
		m.Undetectable[i].Index = i
	}

	n := len(m.Detectors)
	for d := range m.Detectors {
		m.Detectors[d].Index = d
		m.Detectors[d].Mechanisms = nil
	}
	m.minActivation = make([]float64, n)
	m.minShared = make([]float64, n)
	m.neighbors = make([]*roaring.Bitmap, n)
	for d := 0; d < n; d++ {
		m.minActivation[d] = math.Inf(1)
		m.minShared[d] = math.Inf(1)
		m.neighbors[d] = roaring.New()
	}

	for i := range m.Mechanisms {
		mech := &m.Mechanisms[i]
		shared := mech.Weight / float64(len(mech.Detectors))
		for _, d := range mech.Detectors {
			m.Detectors[d].Mechanisms = append(m.Detectors[d].Mechanisms, i)
			if mech.Weight < m.minActivation[d] {
				m.minActivation[d] = mech.Weight
			}
			if shared < m.minShared[d] {
				m.minShared[d] = shared
			}
			for _, o := range mech.Detectors {
				if o != d {
					m.neighbors[d].Add(uint32(o))
				}
			}
		}
	}
	for d := 0; d < n; d++ {
		m.neighbors[d].RunOptimize()
	}
}

// clone returns a deep copy of the user-visible parts of m, without derived tables.
func (m *Model) clone() *Model {
	out := &Model{
		Detectors:           make([]Detector, len(m.Detectors)),
		Mechanisms:          cloneMechanisms(m.Mechanisms),
		Undetectable:        cloneMechanisms(m.Undetectable),
		NumObservables:      m.NumObservables,
		ZeroProbability:     m.ZeroProbability,
		declared:            slices.Clone(m.declared),
	}
	for i, d := range m.Detectors {
		out.Detectors[i] = Detector{Index: d.Index}
		if d.Coords != nil {
			out.Detectors[i].Coords = append([]float64(nil), d.Coords...)
		}
	}
	return out
}

func cloneMechanisms(in []Mechanism) []Mechanism {
	if in == nil {
		return nil
	}
	out := make([]Mechanism, len(in))
	for i, mech := range in {
		out[i] = mech
		out[i].Detectors = append([]int(nil), mech.Detectors...)
		out[i].Observables = append([]int(nil), mech.Observables...)
	}
	return out
}

// Weight converts a probability into the log-likelihood cost -ln(p/(1-p)).
// Likelier mechanisms are cheaper. The cost is negative for p > 0.5.
func Weight(p float64) float64 {
	return -math.Log(p / (1 - p))
}
