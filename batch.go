package tesseract

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// progressInterval is the minimum time between batch progress logs.
const progressInterval = 5 * time.Second

// BatchResult is the outcome of one syndrome in DecodeBatch.
type BatchResult struct {
	Prediction *Prediction
	// Err is set when the shot failed; other shots are unaffected.
	Err error
}

// DecodeBatch decodes every syndrome and returns the results in input order.
//
// Errors are isolated per shot in BatchResult.Err. The returned error is
// non-nil only when ctx ends before the batch completes; the results of
// shots that finished are still returned.
func (d *Decoder) DecodeBatch(ctx context.Context, syndromes [][]int) ([]BatchResult, error) {
	start := time.Now()
	out := make([]BatchResult, len(syndromes))
	prog := &batchProgress{
		logger: d.opts.logger,
		total:  len(syndromes),
		start:  start,
		every:  rate.Sometimes{Interval: progressInterval},
	}

	keys := make([]string, len(syndromes))
	pending := make([]int, 0, len(syndromes))
	for i, s := range syndromes {
		if err := d.validate(s); err != nil {
			out[i].Err = err
			prog.shotDone(ctx, true)
			continue
		}
		if len(s) == 0 {
			if d.opts.recorder != nil {
				d.opts.recorder.RecordShot(nil)
			}
			out[i].Prediction = d.emptyPrediction()
			prog.shotDone(ctx, false)
			continue
		}
		if d.cache != nil {
			keys[i] = syndromeKey(s)
			p, hit := d.cache.get(keys[i])
			d.opts.metricsCollector.RecordCacheLookup(hit)
			if hit {
				out[i].Prediction = p
				prog.shotDone(ctx, false)
				continue
			}
		}
		pending = append(pending, i)
	}

	finish := func(i int, results []runResult) {
		p, err := d.aggregate(ctx, syndromes[i], results)
		if err == nil {
			d.cache.put(keys[i], p)
			d.opts.logger.LogDecode(ctx, len(syndromes[i]), p.Cost, p.Order, nil)
		} else {
			d.opts.logger.WithShot(i).LogDecode(ctx, len(syndromes[i]), 0, -1, err)
		}
		out[i] = BatchResult{Prediction: p, Err: err}
		prog.shotDone(ctx, err != nil)
	}

	var g errgroup.Group
	g.SetLimit(d.cfg.Threads)

	switch d.cfg.Schedule {
	case SchedulePerShot:
		for _, i := range pending {
			g.Go(func() error {
				results := make([]runResult, len(d.orders))
				d.runAll(ctx, syndromes[i], results)
				finish(i, results)
				return nil
			})
		}
	default:
		// One task per (shot, ordering). The task that completes a shot's
		// last run aggregates it.
		slots := make([][]runResult, len(syndromes))
		remaining := make([]atomic.Int32, len(syndromes))
		for _, i := range pending {
			slots[i] = make([]runResult, len(d.orders))
			remaining[i].Store(int32(len(d.orders)))
		}
		for _, i := range pending {
			for o := range d.orders {
				g.Go(func() error {
					slots[i][o] = d.run(ctx, syndromes[i], o)
					if remaining[i].Add(-1) == 0 {
						finish(i, slots[i])
					}
					return nil
				})
			}
		}
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	failed := int(prog.failed.Load())
	d.opts.metricsCollector.RecordBatch(len(syndromes), failed, elapsed)
	d.opts.logger.LogBatch(ctx, int(prog.done.Load()), len(syndromes), failed, elapsed)

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

type batchProgress struct {
	logger *Logger
	total  int
	start  time.Time
	done   atomic.Int64
	failed atomic.Int64
	every  rate.Sometimes
}

func (p *batchProgress) shotDone(ctx context.Context, failed bool) {
	n := p.done.Add(1)
	if failed {
		p.failed.Add(1)
	}
	if int(n) == p.total {
		return
	}
	p.every.Do(func() {
		p.logger.LogBatch(ctx, int(n), p.total, int(p.failed.Load()), time.Since(p.start))
	})
}
