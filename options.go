package tesseract

import (
	"log/slog"

	"github.com/hupe1980/tesseract/stats"
)

type options struct {
	cfg              Config
	metricsCollector MetricsCollector
	logger           *Logger
	recorder         *stats.Recorder
}

// Option configures a Decoder.
//
// Options apply in order, so a field option after WithConfig overrides the
// value from the config.
type Option func(*options)

// WithConfig replaces the whole configuration.
//
// Example:
//
//	cfg, _ := tesseract.LoadConfig("decoder.yaml")
//	dec, _ := tesseract.New(model, tesseract.WithConfig(cfg), tesseract.WithThreads(8))
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithPQLimit caps the search frontier. 0 means unbounded.
func WithPQLimit(n int) Option {
	return func(o *options) {
		o.cfg.PQLimit = n
	}
}

// WithBeamWidth caps the children generated per expansion. 0 means all.
func WithBeamWidth(n int) Option {
	return func(o *options) {
		o.cfg.BeamWidth = n
	}
}

// WithDetBeam sets the residual-detector beam. 0 disables it.
func WithDetBeam(n int) Option {
	return func(o *options) {
		o.cfg.DetBeam = n
	}
}

// WithMaxExpansions caps the nodes expanded per ordering run.
func WithMaxExpansions(n int) Option {
	return func(o *options) {
		o.cfg.MaxExpansions = n
	}
}

// WithNoRevisitDets skips nodes whose unexplained detectors were already
// expanded. Faster, but the result may not be optimal.
func WithNoRevisitDets(enabled bool) Option {
	return func(o *options) {
		o.cfg.NoRevisitDets = enabled
	}
}

// WithNumDetOrders sets the number of detector orderings tried per shot.
func WithNumDetOrders(n int) Option {
	return func(o *options) {
		o.cfg.NumDetOrders = n
	}
}

// WithDetOrderSeed seeds the ordering generator.
func WithDetOrderSeed(seed uint64) Option {
	return func(o *options) {
		o.cfg.DetOrderSeed = seed
	}
}

// WithDetOrder selects the ordering strategy.
func WithDetOrder(s DetOrderStrategy) Option {
	return func(o *options) {
		o.cfg.DetOrder = s
	}
}

// WithBFSStart fixes the start detector of the first BFS ordering.
func WithBFSStart(d int) Option {
	return func(o *options) {
		o.cfg.BFSStart = d
	}
}

// WithThreads sets the number of worker goroutines.
func WithThreads(n int) Option {
	return func(o *options) {
		o.cfg.Threads = n
	}
}

// WithSchedule selects the unit of parallel work.
func WithSchedule(s Schedule) Option {
	return func(o *options) {
		o.cfg.Schedule = s
	}
}

// WithMergeErrors merges mechanisms with identical symptoms before
// decoding.
func WithMergeErrors(enabled bool) Option {
	return func(o *options) {
		o.cfg.MergeErrors = enabled
	}
}

// WithCacheSize enables a prediction cache holding up to n syndromes.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cfg.CacheSize = n
	}
}

// WithMemoryLimit bounds the frontier memory reserved by concurrent runs.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.cfg.MemoryLimitBytes = bytes
	}
}

// WithMetricsCollector configures a metrics collector for monitoring decodes.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &tesseract.BasicMetricsCollector{}
//	dec, _ := tesseract.New(model, tesseract.WithMetricsCollector(metrics))
//	// ... decode ...
//	stats := metrics.GetStats()
//	fmt.Printf("Decodes: %d, Avg latency: %dns\n", stats.DecodeCount, stats.DecodeAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := tesseract.NewJSONLogger(slog.LevelInfo)
//	dec, _ := tesseract.New(model, tesseract.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithStatsRecorder records the focus detector and detcost of every
// mechanism in each winning hypothesis. It disables the prediction cache.
func WithStatsRecorder(r *stats.Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		cfg:              DefaultConfig(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
