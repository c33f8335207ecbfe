package dem

import (
	"cmp"
	"io"
	"slices"
	"strconv"
	"strings"
)

// String formats the model as DEM text. Compiling the output yields an
// equivalent model with the same mechanism order. Observables are written as
// declared; a model that declared none gets L0..L(NumObservables-1).
func (m *Model) String() string {
	var b strings.Builder
	_, _ = m.WriteTo(&b)
	return b.String()
}

// WriteTo writes the model as DEM text to w.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	all := make([]*Mechanism, 0, len(m.Mechanisms)+len(m.Undetectable))
	for i := range m.Mechanisms {
		all = append(all, &m.Mechanisms[i])
	}
	for i := range m.Undetectable {
		all = append(all, &m.Undetectable[i])
	}
	slices.SortStableFunc(all, func(a, b *Mechanism) int { return cmp.Compare(a.Source, b.Source) })

	for _, mech := range all {
		b.WriteString("error(")
		b.WriteString(formatFloat(mech.Probability))
		b.WriteByte(')')
		for _, d := range mech.Detectors {
			b.WriteString(" D")
			b.WriteString(strconv.Itoa(d))
		}
		for _, l := range mech.Observables {
			b.WriteString(" L")
			b.WriteString(strconv.Itoa(l))
		}
		b.WriteByte('\n')
	}

	for _, d := range m.Detectors {
		if d.Coords == nil && len(d.Mechanisms) > 0 {
			continue
		}
		b.WriteString("detector")
		if d.Coords != nil {
			b.WriteByte('(')
			for i, c := range d.Coords {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(formatFloat(c))
			}
			b.WriteByte(')')
		}
		b.WriteString(" D")
		b.WriteString(strconv.Itoa(d.Index))
		b.WriteByte('\n')
	}

	for _, l := range m.observables() {
		b.WriteString("logical_observable L")
		b.WriteString(strconv.Itoa(l))
		b.WriteByte('\n')
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func (m *Model) observables() []int {
	if m.declared != nil {
		return m.declared
	}
	out := make([]int, m.NumObservables)
	for l := range out {
		out[l] = l
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
