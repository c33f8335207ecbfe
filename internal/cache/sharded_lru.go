package cache

import "hash/maphash"

const numShards = 16

// Sharded is a sharded LRU cache for high-concurrency workloads.
// It distributes entries across shards to reduce lock contention.
type Sharded[K comparable, V any] struct {
	shards [numShards]*LRU[K, V]
	seed   maphash.Seed
}

// NewSharded creates a sharded cache.
// The capacity is divided evenly across all shards.
func NewSharded[K comparable, V any](capacity int) *Sharded[K, V] {
	shardCapacity := max(capacity/numShards, 1)

	s := &Sharded[K, V]{
		seed: maphash.MakeSeed(),
	}
	for i := range numShards {
		s.shards[i] = NewLRU[K, V](shardCapacity)
	}
	return s
}

func (s *Sharded[K, V]) shard(key K) *LRU[K, V] {
	return s.shards[maphash.Comparable(s.seed, key)%numShards]
}

// Get returns a cached value.
func (s *Sharded[K, V]) Get(key K) (V, bool) {
	return s.shard(key).Get(key)
}

// Set caches a value.
func (s *Sharded[K, V]) Set(key K, value V) {
	s.shard(key).Set(key, value)
}

// Len returns the number of cached entries across shards.
func (s *Sharded[K, V]) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.Len()
	}
	return n
}

// Stats returns hit and miss counts summed over shards.
func (s *Sharded[K, V]) Stats() (hits, misses int64) {
	for _, sh := range s.shards {
		h, m := sh.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}
