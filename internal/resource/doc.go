// Package resource bounds memory and IO shared by concurrent decode runs.
//
//   - Memory: each search run reserves its estimated frontier footprint
//     before it starts and releases it when done. Acquire blocks until enough
//     budget is free, so a tight limit throttles parallelism instead of
//     failing runs.
//   - IO: a token bucket throttles reads of remote models and shot files.
//
// # Memory Management
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(ctx, need); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(need)
//
// # IO Rate Limiting
//
//	reader := resource.NewRateLimitedReader(ctx, blob, rc)
//
// # Nil Safety
//
// All methods handle nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource
