// Package arena provides a typed slab allocator addressed by uint32 indices.
//
// # Memory Management
//
// Slots are carved from fixed-size chunks that are never moved, so pointers
// returned by Get stay valid until Reset. Freed slots go to a free list and
// are handed out again before the arena grows. Reset keeps the chunks for the
// next user.
//
// # Concurrency Model
//
// An Arena is owned by one goroutine at a time and is not safe for concurrent
// use.
package arena

import "math/bits"

// DefaultChunkSize is the number of slots per chunk.
const DefaultChunkSize = 4096

// Stats reports arena usage.
type Stats struct {
	Chunks      int    // Chunks currently held
	Capacity    int    // Slots reserved across all chunks
	Live        int    // Slots allocated and not freed
	HighWater   int    // Slots ever carved from chunks since the last Reset
	TotalAllocs uint64 // Cumulative allocations since creation
}

// Arena is a chunked slab of T values.
type Arena[T any] struct {
	chunkBits   uint
	chunkMask   uint32
	chunks      [][]T
	next        uint32
	free        []uint32
	live        int
	totalAllocs uint64
}

// New creates an arena. chunkSize is rounded up to a power of two; values
// <= 0 select DefaultChunkSize.
func New[T any](chunkSize int) *Arena[T] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunkBits := uint(bits.Len(uint(chunkSize - 1)))
	return &Arena[T]{
		chunkBits: chunkBits,
		chunkMask: uint32(1)<<chunkBits - 1,
	}
}

// Alloc returns a slot and its index. A recycled slot keeps its previous
// contents so the caller can reuse any buffers it holds.
func (a *Arena[T]) Alloc() (uint32, *T) {
	a.live++
	a.totalAllocs++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		return idx, a.Get(idx)
	}
	idx := a.next
	c := int(idx >> a.chunkBits)
	if c == len(a.chunks) {
		a.chunks = append(a.chunks, make([]T, 1<<a.chunkBits))
	}
	a.next++
	return idx, &a.chunks[c][idx&a.chunkMask]
}

// Get returns the slot at idx. The index must come from Alloc.
func (a *Arena[T]) Get(idx uint32) *T {
	return &a.chunks[idx>>a.chunkBits][idx&a.chunkMask]
}

// Free returns idx to the free list.
func (a *Arena[T]) Free(idx uint32) {
	a.free = append(a.free, idx)
	a.live--
}

// Len returns the number of live slots.
func (a *Arena[T]) Len() int { return a.live }

// Reset frees every slot while keeping the chunks.
func (a *Arena[T]) Reset() {
	a.next = 0
	a.free = a.free[:0]
	a.live = 0
}

// Stats returns current usage.
func (a *Arena[T]) Stats() Stats {
	return Stats{
		Chunks:      len(a.chunks),
		Capacity:    len(a.chunks) << a.chunkBits,
		Live:        a.live,
		HighWater:   int(a.next),
		TotalAllocs: a.totalAllocs,
	}
}

// Trim drops chunks beyond the first keep chunks. It must only be called
// after Reset.
func (a *Arena[T]) Trim(keep int) {
	if keep < len(a.chunks) {
		clear(a.chunks[keep:])
		a.chunks = a.chunks[:keep]
	}
}
