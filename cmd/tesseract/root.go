package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/tesseract"
	"github.com/hupe1980/tesseract/internal/order"
	"github.com/hupe1980/tesseract/prommetrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath  string
	demPath     string
	logLevel    string
	logFormat   string
	metricsAddr string

	pqlimit         int
	beam            int
	detBeam         int
	maxExpansions   int
	noRevisitDets   bool
	numDetOrders    int
	detOrderSeed    uint64
	detOrder        string
	detOrderBFS     bool
	threads         int
	schedule        string
	mergeErrors     bool
	cacheSize       int
	memoryLimit     int64
	readBytesPerSec int64
	sampleNumShots  int
	sampleSeed      uint64
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "tesseract",
		Short:         "Search-based decoder for quantum error correction",
		Long:          "tesseract decodes syndromes of a detector error model with a best-first search over error mechanisms.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaults := tesseract.DefaultConfig()
	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML decoder configuration")
	pf.StringVar(&g.demPath, "dem", "", "detector error model (path, s3://bucket/key or minio://host/bucket/key)")
	pf.StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&g.logFormat, "log-format", "text", "log format (text, json)")
	pf.StringVar(&g.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	pf.IntVar(&g.pqlimit, "pqlimit", defaults.PQLimit, "maximum size of the search frontier (0 = unbounded)")
	pf.IntVar(&g.beam, "beam", 0, "maximum children per expansion (0 = all)")
	pf.IntVar(&g.detBeam, "det-beam", 0, "residual detector beam (0 = off)")
	pf.IntVar(&g.maxExpansions, "max-expansions", 0, "expansion budget per ordering (0 = unlimited)")
	pf.BoolVar(&g.noRevisitDets, "no-revisit-dets", false, "skip nodes whose residual detectors were already expanded")
	pf.IntVar(&g.numDetOrders, "num-det-orders", defaults.NumDetOrders, "number of detector orderings per shot")
	pf.Uint64Var(&g.detOrderSeed, "det-order-seed", 0, "seed for detector orderings")
	pf.StringVar(&g.detOrder, "det-order", string(defaults.DetOrder), "ordering strategy (bfs, random, coordinate)")
	pf.BoolVar(&g.detOrderBFS, "det-order-bfs", false, "shorthand for --det-order=bfs")
	pf.IntVar(&g.threads, "threads", defaults.Threads, "number of worker goroutines")
	pf.StringVar(&g.schedule, "schedule", string(defaults.Schedule), "parallel schedule (per-run, per-shot)")
	pf.BoolVar(&g.mergeErrors, "merge-errors", false, "merge mechanisms with identical symptoms")
	pf.IntVar(&g.cacheSize, "cache-size", 0, "prediction cache entries (0 = off)")
	pf.Int64Var(&g.memoryLimit, "memory-limit", 0, "frontier memory budget in bytes (0 = unlimited)")
	pf.Int64Var(&g.readBytesPerSec, "read-bytes-per-sec", 0, "throttle input reads (0 = unlimited)")
	pf.IntVar(&g.sampleNumShots, "sample-num-shots", 0, "number of shots to sample")
	pf.Uint64Var(&g.sampleSeed, "sample-seed", 0, "seed for shot sampling")

	cmd.AddCommand(
		newDecodeCmd(g),
		newSampleCmd(g),
		newDemStatsCmd(g),
	)
	return cmd
}

// config loads --config and applies every flag set on the command line.
func (g *globalFlags) config(cmd *cobra.Command) (tesseract.Config, error) {
	cfg := tesseract.DefaultConfig()
	if g.configPath != "" {
		var err error
		if cfg, err = tesseract.LoadConfig(g.configPath); err != nil {
			return cfg, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("pqlimit") {
		cfg.PQLimit = g.pqlimit
	}
	if changed("beam") {
		cfg.BeamWidth = g.beam
	}
	if changed("det-beam") {
		cfg.DetBeam = g.detBeam
	}
	if changed("max-expansions") {
		cfg.MaxExpansions = g.maxExpansions
	}
	if changed("no-revisit-dets") {
		cfg.NoRevisitDets = g.noRevisitDets
	}
	if changed("num-det-orders") {
		cfg.NumDetOrders = g.numDetOrders
	}
	if changed("det-order-seed") {
		cfg.DetOrderSeed = g.detOrderSeed
	}
	if changed("det-order") {
		s, err := order.ParseStrategy(g.detOrder)
		if err != nil {
			return cfg, err
		}
		cfg.DetOrder = s
	}
	if changed("det-order-bfs") && g.detOrderBFS {
		cfg.DetOrder = order.BFS
	}
	if changed("threads") {
		cfg.Threads = g.threads
	}
	if changed("schedule") {
		cfg.Schedule = tesseract.Schedule(g.schedule)
	}
	if changed("merge-errors") {
		cfg.MergeErrors = g.mergeErrors
	}
	if changed("cache-size") {
		cfg.CacheSize = g.cacheSize
	}
	if changed("memory-limit") {
		cfg.MemoryLimitBytes = g.memoryLimit
	}
	if changed("read-bytes-per-sec") {
		cfg.ReadBytesPerSec = g.readBytesPerSec
	}
	if changed("sample-num-shots") {
		cfg.SampleNumShots = g.sampleNumShots
	}
	if changed("sample-seed") {
		cfg.SampleSeed = g.sampleSeed
	}
	return cfg, cfg.Validate()
}

func (g *globalFlags) logger(w io.Writer) (*tesseract.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", g.logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(g.logFormat) {
	case "text":
		return tesseract.NewLogger(slog.NewTextHandler(w, opts)), nil
	case "json":
		return tesseract.NewLogger(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q", g.logFormat)
	}
}

// serveMetrics starts a /metrics endpoint when --metrics-addr is set and
// returns a collector for the decoder plus a shutdown function.
func (g *globalFlags) serveMetrics(logger *tesseract.Logger) (tesseract.MetricsCollector, func(), error) {
	if g.metricsAddr == "" {
		return tesseract.NoopMetricsCollector{}, func() {}, nil
	}

	reg := prometheus.NewRegistry()
	mc := prommetrics.New(reg, "tesseract")

	ln, err := net.Listen("tcp", g.metricsAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return mc, shutdown, nil
}

// session holds what every decoding subcommand needs.
type session struct {
	cfg      tesseract.Config
	logger   *tesseract.Logger
	metrics  tesseract.MetricsCollector
	shutdown func()
}

func (g *globalFlags) session(cmd *cobra.Command) (*session, error) {
	if g.demPath == "" {
		return nil, errors.New("--dem is required")
	}
	cfg, err := g.config(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	mc, shutdown, err := g.serveMetrics(logger)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, metrics: mc, shutdown: shutdown}, nil
}

func (s *session) options(extra ...tesseract.Option) []tesseract.Option {
	return append([]tesseract.Option{
		tesseract.WithConfig(s.cfg),
		tesseract.WithLogger(s.logger),
		tesseract.WithMetricsCollector(s.metrics),
	}, extra...)
}
