package dem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoMechanisms = `
error(0.1) D0 L0
error(0.1) D0 D1
`

func TestCompile_TwoMechanisms(t *testing.T) {
	m, err := Compile(twoMechanisms)
	require.NoError(t, err)

	assert.Equal(t, 2, m.NumDetectors())
	assert.Equal(t, 2, m.NumMechanisms())
	assert.Equal(t, 1, m.NumObservables)
	assert.Equal(t, []int{0, 1}, m.Detectors[0].Mechanisms)
	assert.Equal(t, []int{1}, m.Detectors[1].Mechanisms)
	assert.Equal(t, []int{0}, m.Mechanisms[0].Observables)
	assert.Empty(t, m.Mechanisms[1].Observables)

	w := -math.Log(0.1 / 0.9)
	assert.InDelta(t, w, m.Mechanisms[0].Weight, 1e-12)
	assert.InDelta(t, w, m.MinActivationCost(0), 1e-12)
	assert.InDelta(t, w/2, m.MinSharedCost(0), 1e-12)
	assert.InDelta(t, w/2, m.MinSharedCost(1), 1e-12)
	assert.True(t, m.Neighbors(0).Contains(1))
	assert.True(t, m.Neighbors(1).Contains(0))
	assert.False(t, m.Neighbors(0).Contains(0))
}

func TestCompile_TargetsCancel(t *testing.T) {
	m, err := Compile("error(0.1) D0 ^  D0 D1  L0 L1 L1")
	require.NoError(t, err)

	require.Len(t, m.Mechanisms, 1)
	assert.Equal(t, []int{1}, m.Mechanisms[0].Detectors)
	assert.Equal(t, []int{0}, m.Mechanisms[0].Observables)
	assert.Equal(t, 2, m.NumDetectors())
	assert.Equal(t, 2, m.NumObservables)
}

func TestCompile_RepeatAndShift(t *testing.T) {
	text := `
# two rounds of a three-detector block
detector(0, 0) D0
repeat 2 {
    error(0.01) D0 D1   # tail comment
    detector(1, 0) D1
    shift_detectors(0, 1) 1
}
error[leak](0.2) D0
`
	m, err := Compile(text)
	require.NoError(t, err)

	require.Len(t, m.Mechanisms, 3)
	assert.Equal(t, []int{0, 1}, m.Mechanisms[0].Detectors)
	assert.Equal(t, []int{1, 2}, m.Mechanisms[1].Detectors)
	assert.Equal(t, []int{2}, m.Mechanisms[2].Detectors)
	assert.Equal(t, []int{0, 1, 2}, []int{m.Mechanisms[0].Source, m.Mechanisms[1].Source, m.Mechanisms[2].Source})

	require.Equal(t, 3, m.NumDetectors())
	assert.Equal(t, []float64{0, 0}, m.Detectors[0].Coords)
	assert.Equal(t, []float64{1, 0}, m.Detectors[1].Coords)
	assert.Equal(t, []float64{1, 1}, m.Detectors[2].Coords)
}

func TestCompile_ZeroProbabilityDropped(t *testing.T) {
	m, err := Compile(`
error(0.1) D0
error(0) D1
error(0.2) D2
`)
	require.NoError(t, err)

	assert.Equal(t, 1, m.ZeroProbability)
	assert.Equal(t, 3, m.NumDetectors())
	require.Len(t, m.Mechanisms, 2)
	assert.Equal(t, 2, m.Mechanisms[1].Source)
	assert.Empty(t, m.Detectors[1].Mechanisms)
	assert.True(t, math.IsInf(m.MinActivationCost(1), 1))
}

func TestCompile_Undetectable(t *testing.T) {
	m, err := Compile(`
error(0.1) D0
error(0.01) L0
error(0.02) D1 D1
`)
	require.NoError(t, err)

	assert.Len(t, m.Mechanisms, 1)
	require.Len(t, m.Undetectable, 2)
	assert.Equal(t, []int{0}, m.Undetectable[0].Observables)
	assert.Equal(t, 1, m.Undetectable[1].Index)
}

func TestCompile_Observables(t *testing.T) {
	t.Run("declared", func(t *testing.T) {
		m, err := Compile("error(0.1) D0 L1\nlogical_observable L0\nlogical_observable L1")
		require.NoError(t, err)
		assert.Equal(t, 2, m.NumObservables)
	})

	t.Run("undeclared reference", func(t *testing.T) {
		_, err := Compile("logical_observable L0\nerror(0.1) D0 L1")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedModel)

		var me *MalformedModelError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, 2, me.Line)
	})

	t.Run("fixed count", func(t *testing.T) {
		_, err := Compile("error(0.1) D0 L3", WithNumObservables(2))
		assert.ErrorIs(t, err, ErrMalformedModel)

		m, err := Compile("error(0.1) D0 L1", WithNumObservables(4))
		require.NoError(t, err)
		assert.Equal(t, 4, m.NumObservables)
	})

	t.Run("implicit", func(t *testing.T) {
		m, err := Compile("error(0.1) D0 L2")
		require.NoError(t, err)
		assert.Equal(t, 3, m.NumObservables)
	})
}

func TestCompile_NumDetectors(t *testing.T) {
	m, err := Compile("error(0.1) D0 D1", WithNumDetectors(5))
	require.NoError(t, err)
	assert.Equal(t, 5, m.NumDetectors())

	_, err = Compile("error(0.1) D0 D5", WithNumDetectors(5))
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func TestCompile_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"probability one", "error(1) D0"},
		{"negative probability", "error(-0.1) D0"},
		{"bad probability", "error(abc) D0"},
		{"missing probability", "error D0"},
		{"two probabilities", "error(0.1, 0.2) D0"},
		{"unknown instruction", "frobnicate D0"},
		{"bad target", "error(0.1) X0"},
		{"bad index", "error(0.1) D-1"},
		{"observable target on detector", "detector L0"},
		{"unclosed repeat", "repeat 2 {\nerror(0.1) D0"},
		{"stray brace", "error(0.1) D0\n}"},
		{"repeat without block", "repeat 2"},
		{"conflicting coordinates", "detector(0, 1) D0\ndetector(0, 2) D0"},
		{"unterminated arguments", "error(0.1 D0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compile(tt.text)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, ErrMalformedModel)
		})
	}
}

func TestCompile_DuplicateCoordinatesAgree(t *testing.T) {
	m, err := Compile("detector(0, 1) D0\ndetector(0, 1) D0\ndetector D0")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, m.Detectors[0].Coords)
}

func TestMergeIdentical(t *testing.T) {
	m, err := Compile(`
error(0.1) D0 D1
error(0.2) D2
error(0.2) D1 D0
error(0.3) D0 D1 L0
`)
	require.NoError(t, err)

	merged := m.MergeIdentical()
	require.Len(t, merged.Mechanisms, 3)
	assert.InDelta(t, 0.1*0.8+0.2*0.9, merged.Mechanisms[0].Probability, 1e-12)
	assert.InDelta(t, Weight(0.26), merged.Mechanisms[0].Weight, 1e-12)
	assert.Equal(t, []int{0}, merged.Mechanisms[2].Observables)
	assert.Equal(t, []int{0, 2}, merged.Detectors[0].Mechanisms)

	// The source model is unchanged.
	assert.Len(t, m.Mechanisms, 4)
}

func TestFromCounts(t *testing.T) {
	m, err := Compile(`
error(0.1) D0
error(0) D1
error(0.2) D2
detector(0, 0, 0) D0
detector(0, 0, 0) D1
detector(0, 0, 0) D2
`)
	require.NoError(t, err)

	_, err = m.FromCounts([]int{1, 7, 4}, 10)
	assert.ErrorIs(t, err, ErrInvalidCounts)
	_, err = m.FromCounts([]int{1, -1}, 10)
	assert.ErrorIs(t, err, ErrInvalidCounts)
	_, err = m.FromCounts([]int{1, 10}, 10)
	assert.ErrorIs(t, err, ErrInvalidCounts)
	_, err = m.FromCounts([]int{1, 4}, 0)
	assert.ErrorIs(t, err, ErrInvalidCounts)

	out, err := m.FromCounts([]int{1, 4}, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, out.Mechanisms[0].Probability, 1e-12)
	assert.InDelta(t, 0.4, out.Mechanisms[1].Probability, 1e-12)
	assert.InDelta(t, Weight(0.4), out.MinActivationCost(2), 1e-12)
	assert.InDelta(t, 0.2, m.Mechanisms[1].Probability, 1e-12)
}

func TestFromCounts_ZeroCount(t *testing.T) {
	m, err := Compile("error(0.1) D0 L0\nerror(0.01) D0 D1\nerror(0.2) D1\nerror(0.05) L0")
	require.NoError(t, err)

	out, err := m.FromCounts([]int{30, 0, 12}, 100)
	require.NoError(t, err)
	require.Equal(t, 3, out.NumMechanisms())
	assert.InDelta(t, 0.3, out.Mechanisms[0].Probability, 1e-12)
	// Never counted, so the prior estimate is kept.
	assert.InDelta(t, 0.01, out.Mechanisms[1].Probability, 1e-12)
	assert.InDelta(t, Weight(0.01), out.Mechanisms[1].Weight, 1e-12)
	assert.InDelta(t, 0.12, out.Mechanisms[2].Probability, 1e-12)
	assert.InDelta(t, 0.05, out.Undetectable[0].Probability, 1e-12)

	again, err := Compile(out.String())
	require.NoError(t, err)
	assert.Equal(t, 3, again.NumMechanisms())
	assert.Zero(t, again.ZeroProbability)

	out, err = m.FromCounts([]int{0, 0, 0}, 5)
	require.NoError(t, err)
	assert.Equal(t, m.String(), out.String())
}

func TestRedundantMechanisms(t *testing.T) {
	m, err := Compile(`
error(0.1) D0 D1
error(0.1) D1 D2
error(0.001) D0 D2
error(0.3) D0 D2 L0
`)
	require.NoError(t, err)

	redundant := m.RedundantMechanisms()
	// D0 D2 at p=0.001 is dearer than D0 D1 plus D1 D2.
	assert.True(t, redundant.Contains(2))
	assert.False(t, redundant.Contains(0))
	assert.False(t, redundant.Contains(1))
	// D0 D2 L0 has no decomposition with a matching observable.
	assert.False(t, redundant.Contains(3))
	assert.Equal(t, uint64(1), redundant.GetCardinality())
}

func TestString_RoundTrip(t *testing.T) {
	text := `
error(0.125) D0 D1 L0
error(0.01) L1
error(0.25) D1 ^ D2
detector(0.5, 2) D1
detector D7
logical_observable L0
logical_observable L1
`
	m, err := Compile(text)
	require.NoError(t, err)

	again, err := Compile(m.String())
	require.NoError(t, err)

	assert.Equal(t, m.NumDetectors(), again.NumDetectors())
	assert.Equal(t, m.NumObservables, again.NumObservables)
	assert.Equal(t, m.Mechanisms, again.Mechanisms)
	assert.Equal(t, m.Undetectable, again.Undetectable)
	for d := range m.Detectors {
		assert.Equal(t, m.Detectors[d].Coords, again.Detectors[d].Coords)
	}
}

func TestString_KeepsDeclaredObservables(t *testing.T) {
	m, err := Compile("logical_observable L0\nlogical_observable L2\nerror(0.1) D0 L2")
	require.NoError(t, err)
	assert.Equal(t, 3, m.NumObservables)

	text := m.String()
	assert.Contains(t, text, "logical_observable L0\n")
	assert.Contains(t, text, "logical_observable L2\n")
	assert.NotContains(t, text, "logical_observable L1")

	again, err := Compile(text)
	require.NoError(t, err)
	assert.Equal(t, 3, again.NumObservables)

	_, err = Compile(text + "error(0.1) D0 L1\n")
	assert.ErrorIs(t, err, ErrMalformedModel)

	implicit, err := Compile("error(0.1) D0 L1")
	require.NoError(t, err)
	assert.Contains(t, implicit.String(), "logical_observable L0\nlogical_observable L1\n")
}
