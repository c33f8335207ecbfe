package dem

import "github.com/RoaringBitmap/roaring/v2"

// RedundantMechanisms returns the mechanisms whose symptom equals the XOR of
// the symptoms of two other mechanisms with a strictly lower combined weight.
// A minimum-cost decoder never selects such a mechanism, so a high count
// points at a poorly merged model.
func (m *Model) RedundantMechanisms() *roaring.Bitmap {
	cheapest := make(map[string]float64, len(m.Mechanisms))
	for _, mech := range m.Mechanisms {
		key := symptomKey(mech.Detectors, mech.Observables)
		if w, ok := cheapest[key]; !ok || mech.Weight < w {
			cheapest[key] = mech.Weight
		}
	}

	out := roaring.New()
	for i := range m.Mechanisms {
		e := &m.Mechanisms[i]
		// Any decomposition e = e1 ^ e2 has one part touching e's first detector.
		for _, j := range m.Detectors[e.Detectors[0]].Mechanisms {
			if j == i {
				continue
			}
			e1 := &m.Mechanisms[j]
			dets := symmetricDifference(e.Detectors, e1.Detectors)
			if len(dets) == 0 {
				continue
			}
			w2, ok := cheapest[symptomKey(dets, symmetricDifference(e.Observables, e1.Observables))]
			if !ok {
				continue
			}
			if e1.Weight+w2 < e.Weight {
				out.Add(uint32(i))
				break
			}
		}
	}
	return out
}

// symmetricDifference merges two sorted index lists, dropping shared entries.
func symmetricDifference(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
