// Package search implements the best-first search for a minimum-cost set of
// error mechanisms that explains a syndrome.
//
// A node commits a set of mechanisms. Its unexplained detectors are the
// syndrome XOR the committed toggles. Expansion picks the unexplained detector
// of lowest rank in the run's ordering and branches over the unblocked
// mechanisms on it, cheapest first. Child i commits candidate i and blocks
// candidates 0..i, so every mechanism set is generated at most once and no
// solution is lost. Priority is cost plus the heuristic bound, and the first
// node popped with nothing left to explain is optimal when the frontier is
// never truncated.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/tesseract/internal/heuristic"
	"github.com/hupe1980/tesseract/internal/queue"
)

var (
	// ErrNoSolution is returned when the frontier empties before any node
	// explains the syndrome.
	ErrNoSolution = errors.New("search: no solution found")

	// ErrBudgetExhausted is returned when MaxExpansions is reached.
	ErrBudgetExhausted = fmt.Errorf("%w: expansion budget exhausted", ErrNoSolution)

	// ErrDetectorOutOfRange is returned for syndrome entries outside the model.
	ErrDetectorOutOfRange = errors.New("search: detector out of range")
)

// ctxCheckInterval is the number of pops between context checks.
const ctxCheckInterval = 1024

// Limits bound a run. Zero values disable a limit.
type Limits struct {
	// PQLimit caps the frontier size; the worst node is evicted.
	PQLimit int
	// BeamWidth caps the successors generated per expansion.
	BeamWidth int
	// DetBeam drops nodes with more unexplained detectors than the fewest
	// seen so far plus DetBeam.
	DetBeam int
	// MaxExpansions caps the number of expanded nodes.
	MaxExpansions int
	// NoRevisitDets skips nodes whose unexplained set was already expanded.
	// This is faster but may miss the optimum.
	NoRevisitDets bool
}

// Params configure a run. Evaluator and Rank are read-only and may be shared.
type Params struct {
	Evaluator *heuristic.Evaluator
	// Rank maps a detector to its position in the ordering.
	Rank   []int32
	Limits Limits
}

// Stats describe the work done by a run.
type Stats struct {
	Expanded     int // Nodes popped and expanded
	Generated    int // Children pushed to the frontier
	Pruned       int // Children dropped by the bound or DetBeam
	Skipped      int // Popped nodes dropped by DetBeam or NoRevisitDets
	Evicted      int // Queued nodes evicted by a better child
	Rejected     int // Children refused by a full frontier
	PeakFrontier int
}

// Solution is the result of a successful run.
type Solution struct {
	// Mechanisms are the committed mechanism indices, ascending.
	Mechanisms []int
	// Path lists the same mechanisms in commit order.
	Path  []int
	Cost  float64
	Stats Stats
}

// Run searches for the cheapest mechanism set explaining syndrome.
// Repeated syndrome entries are treated as a single detection.
func Run(ctx context.Context, p Params, syndrome []int) (Solution, error) {
	m := p.Evaluator.Model()
	numDets, numMechs := m.NumDetectors(), m.NumMechanisms()
	for _, d := range syndrome {
		if d < 0 || d >= numDets {
			return Solution{}, fmt.Errorf("%w: %d not in [0, %d)", ErrDetectorOutOfRange, d, numDets)
		}
	}
	if len(syndrome) == 0 {
		return Solution{Mechanisms: []int{}, Path: []int{}}, nil
	}

	s := Get(numDets, numMechs, p.Limits.PQLimit)
	defer Put(s)
	if p.Limits.NoRevisitDets && s.seen == nil {
		s.seen = make(map[string]struct{})
	}

	r := &run{p: p, s: s, syndrome: syndrome, minDets: math.MaxInt}
	return r.search(ctx)
}

type run struct {
	p        Params
	s        *Searcher
	syndrome []int
	seq      uint64
	minDets  int
	stats    Stats
}

func (r *run) search(ctx context.Context) (Solution, error) {
	s, ev, lim := r.s, r.p.Evaluator, r.p.Limits

	for _, d := range r.syndrome {
		s.Active.Set(uint(d))
	}
	rootBound := ev.Bound(s.Active, nil)
	if math.IsInf(rootBound, 1) {
		return Solution{Stats: r.stats}, ErrNoSolution
	}
	idx, root := s.nodes.Alloc()
	root.path = root.path[:0]
	root.cost = 0
	root.numDets = int(s.Active.Count())
	r.push(idx, rootBound)

	pops := 0
	for {
		item, ok := s.frontier.PopMin()
		if !ok {
			return Solution{Stats: r.stats}, ErrNoSolution
		}
		pops++
		if pops%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Solution{Stats: r.stats}, err
			}
		}

		n := s.nodes.Get(item.Node)
		if n.numDets == 0 {
			return r.solution(n), nil
		}

		if lim.DetBeam > 0 && n.numDets > r.minDets+lim.DetBeam {
			r.stats.Skipped++
			s.nodes.Free(item.Node)
			continue
		}
		if lim.MaxExpansions > 0 && r.stats.Expanded >= lim.MaxExpansions {
			return Solution{Stats: r.stats}, ErrBudgetExhausted
		}

		if err := r.replay(n.path, nil); err != nil {
			return Solution{Stats: r.stats}, err
		}
		if lim.NoRevisitDets {
			key := s.activeKey()
			if _, dup := s.seen[key]; dup {
				r.stats.Skipped++
				s.nodes.Free(item.Node)
				continue
			}
			s.seen[key] = struct{}{}
		}

		r.minDets = min(r.minDets, n.numDets)
		r.stats.Expanded++
		r.expand(item.Node)
		s.nodes.Free(item.Node)
	}
}

// expand generates the children of the node whose state is loaded in scratch.
func (r *run) expand(parentIdx uint32) {
	s, ev, lim := r.s, r.p.Evaluator, r.p.Limits
	mechs := ev.Model().Mechanisms
	parent := s.nodes.Get(parentIdx)

	focus := r.focus()
	cands := r.candidates(focus)

	for _, c := range cands {
		s.Blocked.Set(uint(c))

		mech := &mechs[c]
		numDets := parent.numDets
		for _, d := range mech.Detectors {
			if s.Active.Test(uint(d)) {
				numDets--
			} else {
				numDets++
			}
			s.Active.Flip(uint(d))
		}

		cost := parent.cost + mech.Weight
		var bound float64
		if numDets > 0 {
			bound = ev.Bound(s.Active, s.Blocked)
		}
		for _, d := range mech.Detectors {
			s.Active.Flip(uint(d))
		}

		if math.IsInf(bound, 1) || lim.DetBeam > 0 && r.minDets != math.MaxInt && numDets > r.minDets+lim.DetBeam {
			r.stats.Pruned++
			continue
		}
		priority := cost + bound
		if !s.frontier.WouldAccept(queue.PriorityQueueItem{Priority: priority, Seq: r.seq}) {
			r.stats.Rejected++
			r.seq++
			continue
		}

		idx, child := s.nodes.Alloc()
		// The parent slot is still live, so its pointer stays valid.
		child.path = append(child.path[:0], parent.path...)
		child.path = append(child.path, c)
		child.cost = cost
		child.numDets = numDets
		r.push(idx, priority)
	}
}

func (r *run) push(idx uint32, priority float64) {
	s := r.s
	evicted, dropped := s.frontier.PushBounded(queue.PriorityQueueItem{Node: idx, Priority: priority, Seq: r.seq})
	r.seq++
	if dropped {
		if evicted.Node == idx {
			r.stats.Rejected++
		} else {
			r.stats.Evicted++
			r.stats.Generated++
		}
		s.nodes.Free(evicted.Node)
	} else {
		r.stats.Generated++
	}
	r.stats.PeakFrontier = max(r.stats.PeakFrontier, s.frontier.Len())
}

// focus returns the unexplained detector of lowest rank.
func (r *run) focus() int {
	rank := r.p.Rank
	best, bestRank := -1, int32(math.MaxInt32)
	active := r.s.Active
	for d, ok := active.NextSet(0); ok; d, ok = active.NextSet(d + 1) {
		if rank[d] < bestRank {
			best, bestRank = int(d), rank[d]
		}
	}
	return best
}

// candidates returns the unblocked mechanisms on d, truncated to BeamWidth.
// The result aliases scratch memory.
func (r *run) candidates(d int) []int32 {
	s := r.s
	s.cands = s.cands[:0]
	for _, c := range r.p.Evaluator.Candidates(d) {
		if s.Blocked.Test(uint(c)) {
			continue
		}
		s.cands = append(s.cands, c)
		if r.p.Limits.BeamWidth > 0 && len(s.cands) == r.p.Limits.BeamWidth {
			break
		}
	}
	return s.cands
}

// replay rebuilds the unexplained and blocked sets of a path into scratch.
// fn, when set, observes each commit before it is applied.
func (r *run) replay(path []int32, fn func(focus, mech int, detcost float64)) error {
	s := r.s
	mechs := r.p.Evaluator.Model().Mechanisms

	s.Active.ClearAll()
	s.Blocked.ClearAll()
	for _, d := range r.syndrome {
		s.Active.Set(uint(d))
	}

	for step, c := range path {
		focus := r.focus()
		if focus < 0 {
			return fmt.Errorf("search: path step %d commits mechanism %d after the syndrome is explained", step, c)
		}
		if fn != nil {
			fn(focus, int(c), r.p.Evaluator.DetCost(focus, s.Blocked))
		}
		cands := r.candidates(focus)
		pos := slices.Index(cands, c)
		if pos < 0 {
			return fmt.Errorf("search: path step %d: mechanism %d is not a candidate for detector %d", step, c, focus)
		}
		for _, b := range cands[:pos+1] {
			s.Blocked.Set(uint(b))
		}
		for _, d := range mechs[c].Detectors {
			s.Active.Flip(uint(d))
		}
	}
	return nil
}

func (r *run) solution(n *node) Solution {
	sol := Solution{
		Mechanisms: make([]int, len(n.path)),
		Path:       make([]int, len(n.path)),
		Cost:       n.cost,
		Stats:      r.stats,
	}
	for i, c := range n.path {
		sol.Path[i] = int(c)
		sol.Mechanisms[i] = int(c)
	}
	slices.Sort(sol.Mechanisms)
	return sol
}

// Replay walks a solution path for p and syndrome and calls fn for every
// commit with the focus detector and its DetCost just before the commit.
func Replay(p Params, syndrome []int, path []int, fn func(focus, mech int, detcost float64)) error {
	m := p.Evaluator.Model()
	s := Get(m.NumDetectors(), m.NumMechanisms(), 0)
	defer Put(s)

	steps := make([]int32, len(path))
	for i, c := range path {
		if c < 0 || c >= m.NumMechanisms() {
			return fmt.Errorf("search: mechanism %d out of range", c)
		}
		steps[i] = int32(c)
	}
	r := &run{p: p, s: s, syndrome: syndrome}
	return r.replay(steps, fn)
}
