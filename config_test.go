package tesseract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 200000, cfg.PQLimit)
	assert.Equal(t, DetOrderBFS, cfg.DetOrder)
	assert.Equal(t, SchedulePerRun, cfg.Schedule)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(`
pqlimit: 1000
beam_width: 5
num_det_orders: 4
det_order: random
threads: 8
schedule: per-shot
cache_size: 128
`))
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.PQLimit)
	assert.Equal(t, 5, cfg.BeamWidth)
	assert.Equal(t, 4, cfg.NumDetOrders)
	assert.Equal(t, DetOrderRandom, cfg.DetOrder)
	assert.Equal(t, 8, cfg.Threads)
	assert.Equal(t, SchedulePerShot, cfg.Schedule)
	assert.Equal(t, 128, cfg.CacheSize)
	// Untouched fields keep their defaults.
	assert.Equal(t, -1, cfg.BFSStart)

	cfg, err = ParseConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = ParseConfig(strings.NewReader("pq_limit: 3\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig(strings.NewReader("threads: 0\n"))
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "threads", ce.Field)
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]func(*Config){
		"pqlimit":            func(c *Config) { c.PQLimit = -1 },
		"beam_width":         func(c *Config) { c.BeamWidth = -1 },
		"det_beam":           func(c *Config) { c.DetBeam = -2 },
		"max_expansions":     func(c *Config) { c.MaxExpansions = -1 },
		"num_det_orders":     func(c *Config) { c.NumDetOrders = 0 },
		"bfs_start":          func(c *Config) { c.BFSStart = -3 },
		"threads":            func(c *Config) { c.Threads = 0 },
		"cache_size":         func(c *Config) { c.CacheSize = -1 },
		"memory_limit_bytes": func(c *Config) { c.MemoryLimitBytes = -1 },
		"read_bytes_per_sec": func(c *Config) { c.ReadBytesPerSec = -1 },
		"sample_num_shots":   func(c *Config) { c.SampleNumShots = -1 },
		"det_order":          func(c *Config) { c.DetOrder = "spiral" },
		"schedule":           func(c *Config) { c.Schedule = "eager" },
	}
	for field, mutate := range tests {
		t.Run(field, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			err := cfg.Validate()
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, field, ce.Field)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decoder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("det_beam: 3\nmerge_errors: true\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.DetBeam)
	assert.True(t, cfg.MergeErrors)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOptions_OverrideConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threads = 2
	cfg.PQLimit = 10

	o := applyOptions([]Option{WithConfig(cfg), WithThreads(6), nil, WithLogger(nil)})
	assert.Equal(t, 6, o.cfg.Threads)
	assert.Equal(t, 10, o.cfg.PQLimit)
	assert.NotNil(t, o.logger)
	assert.NotNil(t, o.metricsCollector)
}
