package order

import (
	"slices"
	"testing"

	"github.com/hupe1980/tesseract/dem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain: D0-D1-D2-D3 plus an isolated pair D4-D5 and a lone D6.
const chainDEM = `
error(0.1) D0 D1
error(0.1) D1 D2
error(0.1) D2 D3
error(0.1) D4 D5
error(0.1) D6
detector(0, 0) D0
detector(1, 0) D1
detector(2, 0) D2
detector(3, 0) D3
detector(0, 5) D4
detector(1, 5) D5
`

func compile(t *testing.T) *dem.Model {
	t.Helper()
	m, err := dem.Compile(chainDEM)
	require.NoError(t, err)
	return m
}

func assertPermutation(t *testing.T, o Order, n int) {
	t.Helper()
	require.Len(t, o.Sequence, n)
	seen := make([]bool, n)
	for pos, d := range o.Sequence {
		assert.False(t, seen[d], "detector %d repeated", d)
		seen[d] = true
		assert.Equal(t, int32(pos), o.Rank[d])
	}
}

func TestGenerate_BFS(t *testing.T) {
	m := compile(t)
	orders, err := Generate(m, Config{Strategy: BFS, NumOrders: 4, Seed: 7, BFSStart: 2})
	require.NoError(t, err)
	require.Len(t, orders, 4)

	// Start at D2: neighbors D1, D3 then D0; other components by lowest index.
	assert.Equal(t, []int32{2, 1, 3, 0, 4, 5, 6}, orders[0].Sequence)
	for i, o := range orders {
		assert.Equal(t, i, o.Index)
		assertPermutation(t, o, m.NumDetectors())
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	m := compile(t)
	for _, st := range []Strategy{BFS, Random, Coordinate} {
		t.Run(string(st), func(t *testing.T) {
			cfg := Config{Strategy: st, NumOrders: 3, Seed: 42, BFSStart: -1}
			a, err := Generate(m, cfg)
			require.NoError(t, err)
			b, err := Generate(m, cfg)
			require.NoError(t, err)
			assert.Equal(t, a, b)

			// Order i is independent of the total count.
			cfg.NumOrders = 1
			c, err := Generate(m, cfg)
			require.NoError(t, err)
			assert.Equal(t, a[0], c[0])

			for _, o := range a {
				assertPermutation(t, o, m.NumDetectors())
			}
		})
	}
}

func TestGenerate_Coordinate(t *testing.T) {
	m := compile(t)
	orders, err := Generate(m, Config{Strategy: Coordinate, NumOrders: 5, Seed: 1})
	require.NoError(t, err)
	for _, o := range orders {
		// D6 has no coordinates and comes last.
		assert.Equal(t, int32(6), o.Sequence[6])
		// The chain lies on a line, so it appears in monotone order.
		var chain []int32
		for _, d := range o.Sequence {
			if d <= 3 {
				chain = append(chain, d)
			}
		}
		rev := slices.Clone(chain)
		slices.Reverse(rev)
		assert.True(t, slices.IsSorted(chain) || slices.IsSorted(rev), "chain order %v", chain)
	}
}

func TestGenerate_Errors(t *testing.T) {
	m := compile(t)
	_, err := Generate(m, Config{Strategy: BFS, NumOrders: 0})
	assert.Error(t, err)
	_, err = Generate(m, Config{Strategy: "spiral", NumOrders: 1})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	_, err = Generate(m, Config{Strategy: BFS, NumOrders: 1, BFSStart: 99})
	assert.Error(t, err)

	st, err := ParseStrategy("random")
	require.NoError(t, err)
	assert.Equal(t, Random, st)
	_, err = ParseStrategy("nope")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}
