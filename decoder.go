package tesseract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/tesseract/dem"
	"github.com/hupe1980/tesseract/internal/heuristic"
	"github.com/hupe1980/tesseract/internal/order"
	"github.com/hupe1980/tesseract/internal/resource"
	"github.com/hupe1980/tesseract/internal/search"
	"github.com/hupe1980/tesseract/stats"
	"golang.org/x/sync/errgroup"
)

// ErrTooManyObservables is returned by DecodeMask for models with more than
// 64 observables.
var ErrTooManyObservables = errors.New("tesseract: more than 64 observables")

// Decoder decodes syndromes of one detector error model.
// It is immutable and safe for concurrent use.
type Decoder struct {
	model    *dem.Model
	cfg      Config
	opts     options
	orders   []order.Order
	params   []search.Params
	res      *resource.Controller
	runBytes int64
	cache    *predictionCache
}

// New builds a Decoder for m.
//
// With MergeErrors set the decoder works on m.MergeIdentical(), and
// Prediction.Mechanisms index that merged model; see Decoder.Model.
func New(m *dem.Model, optFns ...Option) (*Decoder, error) {
	o := applyOptions(optFns)
	cfg := o.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MergeErrors {
		m = m.MergeIdentical()
	}
	if cfg.BFSStart >= m.NumDetectors() && m.NumDetectors() > 0 {
		return nil, &ConfigError{Field: "bfs_start", Reason: fmt.Sprintf("detector %d not in [0, %d)", cfg.BFSStart, m.NumDetectors())}
	}

	if cfg.DetOrder == DetOrderCoordinate && !m.HasCoords() {
		o.logger.Warn("model has no detector coordinates, coordinate order falls back to index order")
	}

	orders, err := order.Generate(m, order.Config{
		Strategy:  cfg.DetOrder,
		NumOrders: cfg.NumDetOrders,
		Seed:      cfg.DetOrderSeed,
		BFSStart:  cfg.BFSStart,
	})
	if err != nil {
		return nil, &ConfigError{Field: "det_order", Reason: err.Error()}
	}

	limits := search.Limits{
		PQLimit:       cfg.PQLimit,
		BeamWidth:     cfg.BeamWidth,
		DetBeam:       cfg.DetBeam,
		MaxExpansions: cfg.MaxExpansions,
		NoRevisitDets: cfg.NoRevisitDets,
	}
	ev := heuristic.New(m)
	params := make([]search.Params, len(orders))
	for i, ord := range orders {
		params[i] = search.Params{Evaluator: ev, Rank: ord.Rank, Limits: limits}
	}

	runBytes := search.EstimateBytes(limits, m.NumDetectors())
	if cfg.MemoryLimitBytes > 0 && runBytes > cfg.MemoryLimitBytes {
		return nil, &ConfigError{
			Field:  "memory_limit_bytes",
			Reason: fmt.Sprintf("%d bytes cannot hold one run's frontier of %d bytes", cfg.MemoryLimitBytes, runBytes),
		}
	}

	// Cache hits skip the search, so they cannot feed a stats recorder.
	var cache *predictionCache
	if o.recorder == nil {
		cache = newPredictionCache(cfg.CacheSize)
	}

	return &Decoder{
		model:    m,
		cfg:      cfg,
		opts:     o,
		orders:   orders,
		params:   params,
		res:      resource.NewController(resource.Config{MemoryLimitBytes: cfg.MemoryLimitBytes}),
		runBytes: runBytes,
		cache:    cache,
	}, nil
}

// Compile compiles DEM text and builds a Decoder for it.
func Compile(text string, optFns ...Option) (*Decoder, error) {
	logger := applyOptions(optFns).logger
	m, err := dem.Compile(text)
	if err != nil {
		logger.LogCompile(context.Background(), 0, 0, 0, 0, err)
		return nil, err
	}
	logger.LogCompile(context.Background(), m.NumDetectors(), m.NumMechanisms(), len(m.Undetectable), m.ZeroProbability, nil)
	return New(m, optFns...)
}

// Model returns the model the decoder searches.
func (d *Decoder) Model() *dem.Model { return d.model }

// Config returns the effective configuration.
func (d *Decoder) Config() Config { return d.cfg }

// Decode returns the minimum-cost prediction across all orderings.
//
// An ordering that finds nothing is skipped. If every ordering fails the
// error is a *DecodeFailedError carrying each cause. Ties in cost go to the
// lowest ordering index.
func (d *Decoder) Decode(ctx context.Context, syndrome []int) (*Prediction, error) {
	start := time.Now()
	p, err := d.decode(ctx, syndrome)
	d.opts.metricsCollector.RecordDecode(len(syndrome), time.Since(start), err)
	if p != nil {
		d.opts.logger.LogDecode(ctx, len(syndrome), p.Cost, p.Order, nil)
	} else {
		d.opts.logger.LogDecode(ctx, len(syndrome), 0, -1, err)
	}
	return p, err
}

// DecodeMask decodes syndrome and returns the predicted observable flips as
// a bit mask.
func (d *Decoder) DecodeMask(ctx context.Context, syndrome []int) (uint64, error) {
	if d.model.NumObservables > 64 {
		return 0, ErrTooManyObservables
	}
	p, err := d.Decode(ctx, syndrome)
	if err != nil {
		return 0, err
	}
	return p.Mask(), nil
}

func (d *Decoder) decode(ctx context.Context, syndrome []int) (*Prediction, error) {
	if err := d.validate(syndrome); err != nil {
		return nil, err
	}
	if len(syndrome) == 0 {
		if d.opts.recorder != nil {
			d.opts.recorder.RecordShot(nil)
		}
		return d.emptyPrediction(), nil
	}

	key := ""
	if d.cache != nil {
		key = syndromeKey(syndrome)
		p, hit := d.cache.get(key)
		d.opts.metricsCollector.RecordCacheLookup(hit)
		if hit {
			return p, nil
		}
	}

	results := make([]runResult, len(d.orders))
	if d.cfg.Schedule == SchedulePerShot || d.cfg.Threads == 1 || len(d.orders) == 1 {
		d.runAll(ctx, syndrome, results)
	} else {
		var g errgroup.Group
		g.SetLimit(d.cfg.Threads)
		for i := range d.orders {
			g.Go(func() error {
				results[i] = d.run(ctx, syndrome, i)
				return nil
			})
		}
		_ = g.Wait()
	}

	p, err := d.aggregate(ctx, syndrome, results)
	if err != nil {
		return nil, err
	}
	d.cache.put(key, p)
	return p, nil
}

// validate rejects out-of-range and repeated detectors.
func (d *Decoder) validate(syndrome []int) error {
	n := d.model.NumDetectors()
	var seen *bitset.BitSet
	if len(syndrome) > 1 {
		seen = bitset.New(uint(n))
	}
	for _, det := range syndrome {
		if det < 0 || det >= n {
			return &InvalidSyndromeError{Detector: det, NumDetectors: n}
		}
		if seen != nil {
			if seen.Test(uint(det)) {
				return &InvalidSyndromeError{Detector: det, NumDetectors: n, Duplicate: true}
			}
			seen.Set(uint(det))
		}
	}
	return nil
}

func (d *Decoder) emptyPrediction() *Prediction {
	return &Prediction{
		Observables: bitset.New(uint(d.model.NumObservables)),
		Mechanisms:  []int{},
	}
}

type runResult struct {
	sol search.Solution
	err error
}

// runAll runs every ordering in turn on the calling goroutine.
func (d *Decoder) runAll(ctx context.Context, syndrome []int, results []runResult) {
	for i := range d.orders {
		results[i] = d.run(ctx, syndrome, i)
	}
}

// run performs one ordering's search, holding its frontier memory budget.
func (d *Decoder) run(ctx context.Context, syndrome []int, idx int) runResult {
	if err := ctx.Err(); err != nil {
		return runResult{err: err}
	}
	if err := d.res.AcquireMemory(ctx, d.runBytes); err != nil {
		return runResult{err: err}
	}
	defer d.res.ReleaseMemory(d.runBytes)

	sol, err := search.Run(ctx, d.params[idx], syndrome)
	err = translateError(err)
	d.opts.metricsCollector.RecordRun(sol.Stats.Expanded, err)
	if err != nil {
		d.opts.logger.LogRunFailure(ctx, idx, sol.Stats.Expanded, err)
	}
	return runResult{sol: sol, err: err}
}

// aggregate picks the cheapest successful run. Strict comparison in index
// order makes the lowest ordering win ties.
func (d *Decoder) aggregate(ctx context.Context, syndrome []int, results []runResult) (*Prediction, error) {
	best, expansions := -1, 0
	for i := range results {
		r := &results[i]
		expansions += r.sol.Stats.Expanded
		if r.err != nil {
			continue
		}
		if best < 0 || r.sol.Cost < results[best].sol.Cost {
			best = i
		}
	}

	if best < 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		causes := make([]error, len(results))
		for i := range results {
			causes[i] = results[i].err
		}
		return nil, &DecodeFailedError{Causes: causes}
	}

	sol := results[best].sol
	p := &Prediction{
		Observables: bitset.New(uint(d.model.NumObservables)),
		Cost:        sol.Cost,
		Mechanisms:  sol.Mechanisms,
		Order:       best,
		Expansions:  expansions,
	}
	for _, m := range sol.Mechanisms {
		for _, l := range d.model.Mechanisms[m].Observables {
			p.Observables.Flip(uint(l))
		}
	}

	if d.opts.recorder != nil {
		d.record(syndrome, best, sol.Path)
	}
	return p, nil
}

// record replays the winning path into the stats recorder.
func (d *Decoder) record(syndrome []int, idx int, path []int) {
	commits := make([]stats.Commit, 0, len(path))
	err := search.Replay(d.params[idx], syndrome, path, func(focus, mech int, detcost float64) {
		commits = append(commits, stats.Commit{Focus: focus, Mechanism: mech, DetCost: detcost})
	})
	if err != nil {
		d.opts.logger.Error("stats replay failed", "order", idx, "error", err)
		return
	}
	d.opts.recorder.RecordShot(commits)
}
