package tesseract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/tesseract/internal/order"
	"gopkg.in/yaml.v3"
)

// Schedule selects the unit of parallel work.
type Schedule string

const (
	// SchedulePerRun schedules every (shot, ordering) run independently.
	SchedulePerRun Schedule = "per-run"
	// SchedulePerShot schedules whole shots; a shot's orderings run in turn
	// on one worker.
	SchedulePerShot Schedule = "per-shot"
)

// DetOrderStrategy selects how detector orderings are generated.
type DetOrderStrategy = order.Strategy

// Detector ordering strategies.
const (
	DetOrderBFS        = order.BFS
	DetOrderRandom     = order.Random
	DetOrderCoordinate = order.Coordinate
)

// Config holds every tunable of the decoder and its command line.
// The zero value is not valid; start from DefaultConfig.
type Config struct {
	// PQLimit caps the search frontier. 0 means unbounded.
	PQLimit int `yaml:"pqlimit"`
	// BeamWidth caps the children generated per expansion. 0 means all.
	BeamWidth int `yaml:"beam_width"`
	// DetBeam drops nodes with more unexplained detectors than the best
	// seen plus DetBeam. 0 disables it.
	DetBeam int `yaml:"det_beam"`
	// MaxExpansions caps the nodes expanded per run. 0 means unlimited.
	MaxExpansions int `yaml:"max_expansions"`
	// NoRevisitDets skips nodes whose unexplained set was already expanded.
	NoRevisitDets bool `yaml:"no_revisit_dets"`

	NumDetOrders int            `yaml:"num_det_orders"`
	DetOrderSeed uint64         `yaml:"det_order_seed"`
	DetOrder     DetOrderStrategy `yaml:"det_order"`
	// BFSStart fixes the start detector of the first BFS order. -1 draws it
	// from the seed.
	BFSStart int `yaml:"bfs_start"`

	Threads  int      `yaml:"threads"`
	Schedule Schedule `yaml:"schedule"`

	// MergeErrors combines mechanisms with identical symptoms before
	// decoding.
	MergeErrors bool `yaml:"merge_errors"`

	// CacheSize enables a syndrome to prediction cache when > 0.
	CacheSize int `yaml:"cache_size"`
	// MemoryLimitBytes bounds the frontier memory of concurrent runs.
	MemoryLimitBytes int64 `yaml:"memory_limit_bytes"`
	// ReadBytesPerSec throttles reads of remote inputs. 0 means unlimited.
	ReadBytesPerSec int64 `yaml:"read_bytes_per_sec"`

	SampleNumShots int    `yaml:"sample_num_shots"`
	SampleSeed     uint64 `yaml:"sample_seed"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PQLimit:      200000,
		NumDetOrders: 1,
		DetOrder:     order.BFS,
		BFSStart:     -1,
		Threads:      1,
		Schedule:     SchedulePerRun,
	}
}

// Validate reports the first invalid field as a *ConfigError.
func (c Config) Validate() error {
	switch {
	case c.PQLimit < 0:
		return &ConfigError{Field: "pqlimit", Reason: "must be >= 0"}
	case c.BeamWidth < 0:
		return &ConfigError{Field: "beam_width", Reason: "must be >= 0"}
	case c.DetBeam < 0:
		return &ConfigError{Field: "det_beam", Reason: "must be >= 0"}
	case c.MaxExpansions < 0:
		return &ConfigError{Field: "max_expansions", Reason: "must be >= 0"}
	case c.NumDetOrders < 1:
		return &ConfigError{Field: "num_det_orders", Reason: "must be >= 1"}
	case c.BFSStart < -1:
		return &ConfigError{Field: "bfs_start", Reason: "must be >= -1"}
	case c.Threads < 1:
		return &ConfigError{Field: "threads", Reason: "must be >= 1"}
	case c.CacheSize < 0:
		return &ConfigError{Field: "cache_size", Reason: "must be >= 0"}
	case c.MemoryLimitBytes < 0:
		return &ConfigError{Field: "memory_limit_bytes", Reason: "must be >= 0"}
	case c.ReadBytesPerSec < 0:
		return &ConfigError{Field: "read_bytes_per_sec", Reason: "must be >= 0"}
	case c.SampleNumShots < 0:
		return &ConfigError{Field: "sample_num_shots", Reason: "must be >= 0"}
	}
	if _, err := order.ParseStrategy(string(c.DetOrder)); err != nil {
		return &ConfigError{Field: "det_order", Reason: err.Error()}
	}
	switch c.Schedule {
	case SchedulePerRun, SchedulePerShot:
	default:
		return &ConfigError{Field: "schedule", Reason: fmt.Sprintf("unknown schedule %q", c.Schedule)}
	}
	return nil
}

// ParseConfig reads YAML from r on top of DefaultConfig and validates the
// result. Unknown keys are rejected.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("tesseract: load config: %w", err)
	}
	return ParseConfig(bytes.NewReader(data))
}
