package search

import (
	"encoding/binary"
	"sync"
	"unsafe"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/tesseract/internal/arena"
	"github.com/hupe1980/tesseract/internal/queue"
)

// node is a partial hypothesis. Only the committed path is stored; the
// unexplained and blocked sets are rebuilt by replaying it.
type node struct {
	path    []int32
	cost    float64
	numDets int
}

// Searcher is a reusable execution context for one search run.
// It owns all scratch memory required for search, eliminating heap allocations
// in the steady state.
//
// Searcher is NOT thread-safe. It is intended to be owned by a single goroutine
// during a search run.
type Searcher struct {
	// Active is the unexplained detector set of the node being expanded.
	Active *bitset.BitSet
	// Blocked is the blocked mechanism set of the node being expanded.
	Blocked *bitset.BitSet

	frontier *queue.MinMax
	nodes    *arena.Arena[node]

	// seen holds expanded unexplained sets when revisits are disabled.
	seen   map[string]struct{}
	keyBuf []byte

	cands []int32
}

// NewSearcher creates a Searcher sized for numDets detectors and numMechs
// mechanisms.
func NewSearcher(numDets, numMechs int) *Searcher {
	return &Searcher{
		Active:   bitset.New(uint(numDets)),
		Blocked:  bitset.New(uint(numMechs)),
		frontier: queue.NewMinMax(0),
		nodes:    arena.New[node](arena.DefaultChunkSize),
		cands:    make([]int32, 0, 16),
	}
}

// Reset clears the searcher state for reuse without freeing memory.
func (s *Searcher) Reset(numDets, numMechs, pqLimit int) {
	s.Active = resize(s.Active, numDets)
	s.Blocked = resize(s.Blocked, numMechs)
	s.frontier.Reset(pqLimit)
	s.nodes.Reset()
	if s.seen != nil {
		clear(s.seen)
	}
	s.keyBuf = s.keyBuf[:0]
	s.cands = s.cands[:0]
}

func resize(b *bitset.BitSet, n int) *bitset.BitSet {
	if b.Len() < uint(n) {
		return bitset.New(uint(n))
	}
	b.ClearAll()
	return b
}

// activeKey encodes Active as a map key.
func (s *Searcher) activeKey() string {
	s.keyBuf = s.keyBuf[:0]
	for _, w := range s.Active.Words() {
		s.keyBuf = binary.LittleEndian.AppendUint64(s.keyBuf, w)
	}
	return string(s.keyBuf)
}

// maxPooledChunks caps the arena chunks a pooled Searcher keeps.
const maxPooledChunks = 64

var searcherPool = sync.Pool{
	New: func() any { return NewSearcher(0, 0) },
}

// Get retrieves a Searcher from the pool, reset for the given sizes.
func Get(numDets, numMechs, pqLimit int) *Searcher {
	s := searcherPool.Get().(*Searcher)
	s.Reset(numDets, numMechs, pqLimit)
	return s
}

// Put returns a Searcher to the pool for reuse.
func Put(s *Searcher) {
	s.nodes.Reset()
	s.nodes.Trim(maxPooledChunks)
	s.frontier.Reset(0)
	searcherPool.Put(s)
}

// nodeOverhead approximates the frontier footprint of one node, excluding its
// path: the arena slot plus its queue item.
const nodeOverhead = int64(unsafe.Sizeof(node{}) + unsafe.Sizeof(queue.PriorityQueueItem{}))

// EstimateBytes approximates the peak frontier memory of a run with the given
// limits on a syndrome of weight numDets. It returns 0 when the frontier is
// unbounded.
func EstimateBytes(l Limits, numDets int) int64 {
	if l.PQLimit <= 0 {
		return 0
	}
	// Paths rarely exceed the syndrome weight.
	pathBytes := int64(max(numDets, 1)) * int64(unsafe.Sizeof(int32(0)))
	return int64(l.PQLimit) * (nodeOverhead + pathBytes)
}
