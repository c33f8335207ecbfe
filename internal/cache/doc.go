// Package cache provides LRU caching for decode results.
//
// LRU is a single-mutex cache with entry-count capacity. Sharded spreads keys
// over independent LRUs by hash so concurrent decoders rarely contend.
//
// Key features:
//   - Generic keys and values
//   - Hit and miss counters readable without locking
//   - Per-shard mutex for minimal contention
package cache
