// Package prommetrics exports decoder metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc := prommetrics.New(reg, "tesseract")
//	dec, _ := tesseract.New(model, tesseract.WithMetricsCollector(mc))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prommetrics

import (
	"time"

	"github.com/hupe1980/tesseract"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

var _ tesseract.MetricsCollector = (*Collector)(nil)

// Collector implements tesseract.MetricsCollector with Prometheus metrics.
type Collector struct {
	decodeLatency *prometheus.HistogramVec
	detections    prometheus.Histogram
	runs          *prometheus.CounterVec
	expansions    prometheus.Histogram
	batches       prometheus.Counter
	batchShots    *prometheus.CounterVec
	batchLatency  prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
}

// New creates a Collector and registers its metrics with reg.
// A nil reg uses prometheus.DefaultRegisterer. It panics if the metrics
// are already registered.
func New(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		decodeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_duration_seconds",
			Help:      "Latency of single-syndrome decodes.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"status"}),
		detections: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_detections",
			Help:      "Number of fired detectors per decoded syndrome.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_runs_total",
			Help:      "Search runs by outcome.",
		}, []string{"status"}),
		expansions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_expansions",
			Help:      "Nodes expanded per search run.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Completed batch decodes.",
		}),
		batchShots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_shots_total",
			Help:      "Shots decoded in batches by outcome.",
		}, []string{"status"}),
		batchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Latency of batch decodes.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Prediction cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		c.decodeLatency,
		c.detections,
		c.runs,
		c.expansions,
		c.batches,
		c.batchShots,
		c.batchLatency,
		c.cacheLookups,
	)
	return c
}

// RecordDecode implements tesseract.MetricsCollector.
func (c *Collector) RecordDecode(detections int, duration time.Duration, err error) {
	c.decodeLatency.WithLabelValues(status(err)).Observe(duration.Seconds())
	c.detections.Observe(float64(detections))
}

// RecordRun implements tesseract.MetricsCollector.
func (c *Collector) RecordRun(expansions int, err error) {
	c.runs.WithLabelValues(status(err)).Inc()
	c.expansions.Observe(float64(expansions))
}

// RecordBatch implements tesseract.MetricsCollector.
func (c *Collector) RecordBatch(count, failed int, duration time.Duration) {
	c.batches.Inc()
	c.batchShots.WithLabelValues(statusOK).Add(float64(count - failed))
	c.batchShots.WithLabelValues(statusError).Add(float64(failed))
	c.batchLatency.Observe(duration.Seconds())
}

// RecordCacheLookup implements tesseract.MetricsCollector.
func (c *Collector) RecordCacheLookup(hit bool) {
	if hit {
		c.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	c.cacheLookups.WithLabelValues("miss").Inc()
}

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusOK
}
