package testutil

import (
	"testing"

	"github.com/hupe1980/tesseract/dem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.Syndrome(20, 5)
	rng.Reset()
	b := rng.Syndrome(20, 5)
	assert.Equal(t, a, b)
	assert.Len(t, a, 5)
	assert.IsIncreasing(t, a)
	assert.Equal(t, uint64(4711), rng.Seed())
}

func TestRandomDEM(t *testing.T) {
	text := NewRNG(1).RandomDEM(8, 12, 3, 2)
	m, err := dem.Compile(text)
	require.NoError(t, err)
	assert.Equal(t, 8, m.NumDetectors())
	assert.Equal(t, 12, m.NumMechanisms())
	assert.Equal(t, 2, m.NumObservables)
	for _, mech := range m.Mechanisms {
		assert.Greater(t, mech.Weight, 0.0)
		assert.LessOrEqual(t, len(mech.Detectors), 3)
	}
}

func TestRepetitionCodeDEM(t *testing.T) {
	m, err := dem.Compile(RepetitionCodeDEM(3, 2, 0.1))
	require.NoError(t, err)
	assert.Equal(t, 4, m.NumDetectors())
	assert.Equal(t, 3+2+3, m.NumMechanisms())
	assert.Equal(t, 1, m.NumObservables)
	assert.Equal(t, []float64{1, 1}, m.Detectors[3].Coords)
}

func TestExactDecode(t *testing.T) {
	m, err := dem.Compile("error(0.1) D0 L0\nerror(0.1) D0 D1")
	require.NoError(t, err)

	res, ok := ExactDecode(m, []int{0})
	require.True(t, ok)
	assert.Equal(t, []int{0}, res.Mechanisms)
	assert.Equal(t, []int{0}, res.Observables)

	res, ok = ExactDecode(m, []int{1})
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, res.Mechanisms)
	assert.Equal(t, []int{0}, res.Observables)

	res, ok = ExactDecode(m, nil)
	require.True(t, ok)
	assert.Empty(t, res.Mechanisms)
	assert.Zero(t, res.Cost)

	cost, consistent := SubsetCost(m, []int{1}, res.Mechanisms)
	assert.False(t, consistent)
	assert.Zero(t, cost)

	m, err = dem.Compile("error(0.1) D0 D1")
	require.NoError(t, err)
	_, ok = ExactDecode(m, []int{0})
	assert.False(t, ok)
}
