package search

import (
	"context"
	"testing"

	"github.com/hupe1980/tesseract/dem"
	"github.com/hupe1980/tesseract/internal/heuristic"
	"github.com/hupe1980/tesseract/internal/order"
	"github.com/hupe1980/tesseract/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(t *testing.T, text string, lim Limits) Params {
	t.Helper()
	m, err := dem.Compile(text)
	require.NoError(t, err)
	orders, err := order.Generate(m, order.Config{Strategy: order.BFS, NumOrders: 1, BFSStart: -1})
	require.NoError(t, err)
	return Params{Evaluator: heuristic.New(m), Rank: orders[0].Rank, Limits: lim}
}

func TestRun_EmptySyndrome(t *testing.T) {
	p := params(t, "error(0.1) D0", Limits{PQLimit: 10})
	sol, err := Run(t.Context(), p, nil)
	require.NoError(t, err)
	assert.Empty(t, sol.Mechanisms)
	assert.Zero(t, sol.Cost)
}

func TestRun_TwoMechanisms(t *testing.T) {
	p := params(t, "error(0.1) D0 L0\nerror(0.1) D0 D1", Limits{PQLimit: 100})

	sol, err := Run(t.Context(), p, []int{0})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, sol.Mechanisms)

	sol, err = Run(t.Context(), p, []int{1})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, sol.Mechanisms)
	assert.InDelta(t, 2*heuristic.Weight(0.1), sol.Cost, 1e-12)
	assert.Len(t, sol.Path, 2)

	sol, err = Run(t.Context(), p, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, sol.Mechanisms)
	assert.Positive(t, sol.Stats.Expanded)
}

func TestRun_NoSolution(t *testing.T) {
	p := params(t, "error(0.1) D0 D1\ndetector D2", Limits{PQLimit: 100})

	_, err := Run(t.Context(), p, []int{0})
	assert.ErrorIs(t, err, ErrNoSolution)

	// D2 has no mechanism at all.
	_, err = Run(t.Context(), p, []int{2})
	assert.ErrorIs(t, err, ErrNoSolution)

	_, err = Run(t.Context(), p, []int{7})
	assert.ErrorIs(t, err, ErrDetectorOutOfRange)
}

func TestRun_BudgetExhausted(t *testing.T) {
	p := params(t, testutil.RepetitionCodeDEM(7, 4, 0.05), Limits{PQLimit: 1000, MaxExpansions: 1})
	_, err := Run(t.Context(), p, []int{0, 5, 12})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.ErrorIs(t, err, ErrNoSolution)
}

func TestRun_Canceled(t *testing.T) {
	// A long chain with both ends lit needs many expansions.
	p := params(t, testutil.RepetitionCodeDEM(41, 41, 0.05), Limits{PQLimit: 1 << 20})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := Run(ctx, p, []int{0, 39, 800, 1599})
	// Either it finishes before the first check or observes cancellation.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestRun_MatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(99)
	for trial := 0; trial < 40; trial++ {
		text := rng.RandomDEM(8, 12, 3, 2)
		m, err := dem.Compile(text)
		require.NoError(t, err)
		ev := heuristic.New(m)
		orders, err := order.Generate(m, order.Config{Strategy: order.Random, NumOrders: 3, Seed: uint64(trial)})
		require.NoError(t, err)

		syndrome := rng.Syndrome(m.NumDetectors(), 1+rng.IntN(4))
		want, ok := testutil.ExactDecode(m, syndrome)

		for _, o := range orders {
			sol, err := Run(t.Context(), Params{Evaluator: ev, Rank: o.Rank}, syndrome)
			if !ok {
				assert.ErrorIs(t, err, ErrNoSolution)
				continue
			}
			require.NoError(t, err)
			assert.InDelta(t, want.Cost, sol.Cost, 1e-9, "trial %d order %d", trial, o.Index)

			cost, consistent := testutil.SubsetCost(m, syndrome, sol.Mechanisms)
			assert.True(t, consistent)
			assert.InDelta(t, sol.Cost, cost, 1e-9)
		}
	}
}

func TestRun_Limits(t *testing.T) {
	text := testutil.RepetitionCodeDEM(9, 3, 0.02)
	syndrome := []int{1, 6, 9, 20}
	exact := params(t, text, Limits{})
	best, err := Run(t.Context(), exact, syndrome)
	require.NoError(t, err)

	for name, lim := range map[string]Limits{
		"pqlimit":    {PQLimit: 8},
		"beam":       {BeamWidth: 1},
		"det beam":   {DetBeam: 1},
		"no revisit": {NoRevisitDets: true},
	} {
		t.Run(name, func(t *testing.T) {
			p := exact
			p.Limits = lim
			sol, err := Run(t.Context(), p, syndrome)
			if err != nil {
				assert.ErrorIs(t, err, ErrNoSolution)
				return
			}
			m := p.Evaluator.Model()
			_, consistent := testutil.SubsetCost(m, syndrome, sol.Mechanisms)
			assert.True(t, consistent)
			assert.GreaterOrEqual(t, sol.Cost, best.Cost-1e-9)
			if lim.PQLimit > 0 {
				assert.LessOrEqual(t, sol.Stats.PeakFrontier, lim.PQLimit)
			}
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	p := params(t, testutil.RepetitionCodeDEM(7, 4, 0.05), Limits{PQLimit: 64, BeamWidth: 3})
	syndrome := []int{2, 3, 10, 17}
	first, err := Run(t.Context(), p, syndrome)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Run(t.Context(), p, syndrome)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestReplay(t *testing.T) {
	p := params(t, "error(0.1) D0 L0\nerror(0.2) D0 D1", Limits{})
	sol, err := Run(t.Context(), p, []int{1})
	require.NoError(t, err)

	var focuses, mechs []int
	err = Replay(p, []int{1}, sol.Path, func(focus, mech int, detcost float64) {
		focuses = append(focuses, focus)
		mechs = append(mechs, mech)
		assert.Positive(t, detcost)
	})
	require.NoError(t, err)
	assert.Equal(t, sol.Path, mechs)
	assert.Len(t, focuses, 2)

	err = Replay(p, []int{1}, []int{0}, nil)
	assert.Error(t, err)
	err = Replay(p, []int{1}, []int{5}, nil)
	assert.Error(t, err)
}

func TestEstimateBytes(t *testing.T) {
	assert.Zero(t, EstimateBytes(Limits{}, 10))
	small := EstimateBytes(Limits{PQLimit: 100}, 4)
	large := EstimateBytes(Limits{PQLimit: 100}, 40)
	assert.Positive(t, small)
	assert.Greater(t, large, small)
}
