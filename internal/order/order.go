// Package order generates detector visitation orders.
//
// The search branches on the unexplained detector of lowest rank, so an order
// decides which equivalent solution a run finds first. Running several orders
// and keeping the cheapest result trades time for accuracy.
package order

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/tesseract/dem"
)

// Strategy names an ordering algorithm.
type Strategy string

const (
	// BFS walks the detector graph breadth-first from a start detector.
	BFS Strategy = "bfs"
	// Random uses a uniformly random permutation.
	Random Strategy = "random"
	// Coordinate sorts detectors by their projection on a random direction.
	Coordinate Strategy = "coordinate"
)

// ErrUnknownStrategy is returned for unsupported strategies.
var ErrUnknownStrategy = errors.New("order: unknown strategy")

// ParseStrategy parses a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case BFS, Random, Coordinate:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Config configures Generate.
type Config struct {
	Strategy  Strategy
	NumOrders int
	Seed      uint64
	// BFSStart fixes the start detector of order 0 when >= 0.
	BFSStart int
}

// Order is one visitation order.
type Order struct {
	Index int
	// Rank maps a detector to its position in Sequence.
	Rank []int32
	// Sequence lists every detector exactly once.
	Sequence []int32
}

// Generate returns cfg.NumOrders orders for m. Order i draws its randomness
// from a PCG seeded with (cfg.Seed, i), so results do not depend on how many
// orders are requested.
func Generate(m *dem.Model, cfg Config) ([]Order, error) {
	if cfg.NumOrders <= 0 {
		return nil, fmt.Errorf("order: NumOrders must be positive, got %d", cfg.NumOrders)
	}
	n := m.NumDetectors()
	if cfg.BFSStart >= n && n > 0 {
		return nil, fmt.Errorf("order: BFSStart %d out of range [0, %d)", cfg.BFSStart, n)
	}

	orders := make([]Order, cfg.NumOrders)
	for i := range orders {
		rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
		var seq []int32
		switch cfg.Strategy {
		case BFS, "":
			start := -1
			if i == 0 && cfg.BFSStart >= 0 {
				start = cfg.BFSStart
			} else if n > 0 {
				start = rng.IntN(n)
			}
			seq = bfs(m, start)
		case Random:
			seq = permutation(rng, n)
		case Coordinate:
			seq = coordinate(m, rng)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
		}
		orders[i] = newOrder(i, seq)
	}
	return orders, nil
}

func newOrder(index int, seq []int32) Order {
	rank := make([]int32, len(seq))
	for pos, d := range seq {
		rank[d] = int32(pos)
	}
	return Order{Index: index, Rank: rank, Sequence: seq}
}

// bfs visits the component of start first, then restarts from the lowest
// unvisited detector until every detector is placed.
func bfs(m *dem.Model, start int) []int32 {
	n := m.NumDetectors()
	seq := make([]int32, 0, n)
	visited := make([]bool, n)
	queue := make([]int32, 0, n)

	visit := func(root int) {
		visited[root] = true
		queue = append(queue[:0], int32(root))
		for head := 0; head < len(queue); head++ {
			d := queue[head]
			seq = append(seq, d)
			it := m.Neighbors(int(d)).Iterator()
			for it.HasNext() {
				nb := it.Next()
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, int32(nb))
				}
			}
		}
	}

	if start >= 0 {
		visit(start)
	}
	for d := 0; d < n; d++ {
		if !visited[d] {
			visit(d)
		}
	}
	return seq
}

func permutation(rng *rand.Rand, n int) []int32 {
	perm := rng.Perm(n)
	seq := make([]int32, n)
	for i, d := range perm {
		seq[i] = int32(d)
	}
	return seq
}

// coordinate projects detectors onto a normally distributed direction.
// Detectors without coordinates follow in index order.
func coordinate(m *dem.Model, rng *rand.Rand) []int32 {
	dim := 0
	for _, d := range m.Detectors {
		dim = max(dim, len(d.Coords))
	}
	dir := make([]float64, dim)
	for i := range dir {
		dir[i] = rng.NormFloat64()
	}

	type proj struct {
		det   int32
		value float64
	}
	with := make([]proj, 0, m.NumDetectors())
	var without []int32
	for _, d := range m.Detectors {
		if d.Coords == nil {
			without = append(without, int32(d.Index))
			continue
		}
		var v float64
		for i, c := range d.Coords {
			v += c * dir[i]
		}
		if math.IsNaN(v) {
			without = append(without, int32(d.Index))
			continue
		}
		with = append(with, proj{det: int32(d.Index), value: v})
	}
	slices.SortStableFunc(with, func(a, b proj) int {
		if c := cmp.Compare(a.value, b.value); c != 0 {
			return c
		}
		return cmp.Compare(a.det, b.det)
	})

	seq := make([]int32, 0, m.NumDetectors())
	for _, p := range with {
		seq = append(seq, p.det)
	}
	return append(seq, without...)
}
