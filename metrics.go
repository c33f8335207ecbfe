package tesseract

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting decoder metrics.
// Implement this interface to integrate with monitoring systems; the
// prommetrics package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordDecode is called after each decode. detections is the syndrome
	// size, err is nil if successful.
	RecordDecode(detections int, duration time.Duration, err error)

	// RecordRun is called after each ordering run with the number of nodes
	// it expanded.
	RecordRun(expansions int, err error)

	// RecordBatch is called after each batch with the number of shots
	// attempted and failed.
	RecordBatch(count, failed int, duration time.Duration)

	// RecordCacheLookup is called for each prediction cache lookup.
	RecordCacheLookup(hit bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordDecode(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRun(int, error)                   {}
func (NoopMetricsCollector) RecordBatch(int, int, time.Duration)    {}
func (NoopMetricsCollector) RecordCacheLookup(bool)                 {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	DecodeCount      atomic.Int64
	DecodeErrors     atomic.Int64
	DecodeTotalNanos atomic.Int64
	Detections       atomic.Int64
	RunCount         atomic.Int64
	RunErrors        atomic.Int64
	Expansions       atomic.Int64
	BatchCount       atomic.Int64
	BatchShots       atomic.Int64
	BatchFailed      atomic.Int64
	CacheHits        atomic.Int64
	CacheMisses      atomic.Int64
}

// RecordDecode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDecode(detections int, duration time.Duration, err error) {
	b.DecodeCount.Add(1)
	b.DecodeTotalNanos.Add(duration.Nanoseconds())
	b.Detections.Add(int64(detections))
	if err != nil {
		b.DecodeErrors.Add(1)
	}
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(expansions int, err error) {
	b.RunCount.Add(1)
	b.Expansions.Add(int64(expansions))
	if err != nil {
		b.RunErrors.Add(1)
	}
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(count, failed int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.BatchShots.Add(int64(count))
	b.BatchFailed.Add(int64(failed))
}

// RecordCacheLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheLookup(hit bool) {
	if hit {
		b.CacheHits.Add(1)
	} else {
		b.CacheMisses.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		DecodeCount:    b.DecodeCount.Load(),
		DecodeErrors:   b.DecodeErrors.Load(),
		DecodeAvgNanos: b.getAvgDecodeNanos(),
		Detections:     b.Detections.Load(),
		RunCount:       b.RunCount.Load(),
		RunErrors:      b.RunErrors.Load(),
		Expansions:     b.Expansions.Load(),
		BatchCount:     b.BatchCount.Load(),
		BatchShots:     b.BatchShots.Load(),
		BatchFailed:    b.BatchFailed.Load(),
		CacheHits:      b.CacheHits.Load(),
		CacheMisses:    b.CacheMisses.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgDecodeNanos() int64 {
	count := b.DecodeCount.Load()
	if count == 0 {
		return 0
	}
	return b.DecodeTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	DecodeCount    int64
	DecodeErrors   int64
	DecodeAvgNanos int64
	Detections     int64
	RunCount       int64
	RunErrors      int64
	Expansions     int64
	BatchCount     int64
	BatchShots     int64
	BatchFailed    int64
	CacheHits      int64
	CacheMisses    int64
}
