package dem

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCounts is returned by FromCounts for inconsistent count vectors.
var ErrInvalidCounts = errors.New("dem: invalid mechanism counts")

// MergeIdentical returns a model in which mechanisms with identical detector
// and observable symptoms are combined into one. Two independent mechanisms
// with probabilities p1 and p2 fire an odd number of times with probability
// p1(1-p2) + p2(1-p1). The merged mechanism keeps the position and source of
// the first member of its group.
func (m *Model) MergeIdentical() *Model {
	out := m.clone()
	out.Mechanisms = mergeMechanisms(out.Mechanisms)
	out.Undetectable = mergeMechanisms(out.Undetectable)
	out.finalize()
	return out
}

func mergeMechanisms(in []Mechanism) []Mechanism {
	if len(in) == 0 {
		return in
	}
	first := make(map[string]int, len(in))
	out := make([]Mechanism, 0, len(in))
	for _, mech := range in {
		key := symptomKey(mech.Detectors, mech.Observables)
		if i, ok := first[key]; ok {
			p1, p2 := out[i].Probability, mech.Probability
			out[i].Probability = p1*(1-p2) + p2*(1-p1)
			out[i].Weight = Weight(out[i].Probability)
			continue
		}
		first[key] = len(out)
		out = append(out, mech)
	}
	return out
}

// FromCounts returns a model whose mechanism probabilities are re-estimated
// as count/shots. counts is indexed like Mechanisms. A mechanism that was
// never counted keeps its probability, as do undetectable mechanisms.
func (m *Model) FromCounts(counts []int, shots int) (*Model, error) {
	if len(counts) != len(m.Mechanisms) {
		return nil, fmt.Errorf("%w: got %d counts for %d mechanisms", ErrInvalidCounts, len(counts), len(m.Mechanisms))
	}
	if shots <= 0 {
		return nil, fmt.Errorf("%w: shots must be positive, got %d", ErrInvalidCounts, shots)
	}
	for i, c := range counts {
		// p must stay below 1 to have a finite weight.
		if c < 0 || c >= shots {
			return nil, fmt.Errorf("%w: mechanism %d has count %d for %d shots", ErrInvalidCounts, i, c, shots)
		}
	}

	out := m.clone()
	for i, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(shots)
		out.Mechanisms[i].Probability = p
		out.Mechanisms[i].Weight = Weight(p)
	}
	out.finalize()
	return out, nil
}

// symptomKey identifies the combined detector and observable effect.
func symptomKey(dets, obs []int) string {
	var b strings.Builder
	for _, d := range dets {
		b.WriteString(strconv.Itoa(d))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for _, l := range obs {
		b.WriteString(strconv.Itoa(l))
		b.WriteByte(',')
	}
	return b.String()
}
