// Package sampler draws syndromes from a detector error model.
//
// Every mechanism fires independently with its probability. A shot records
// the detectors toggled an odd number of times and the observables flipped.
// Shot i depends only on the seed and i, so results are identical for any
// number of workers.
package sampler

import (
	"context"
	"math/rand/v2"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/tesseract/dem"
	"github.com/hupe1980/tesseract/shots"
	"golang.org/x/sync/errgroup"
)

// Sampler samples shots from a model. It is safe for concurrent use.
type Sampler struct {
	model *dem.Model
	seed  uint64
	mechs []dem.Mechanism
}

// New returns a Sampler for m. Undetectable mechanisms are included, so
// sampled observables reflect every error the model describes.
func New(m *dem.Model, seed uint64) *Sampler {
	mechs := make([]dem.Mechanism, 0, len(m.Mechanisms)+len(m.Undetectable))
	mechs = append(mechs, m.Mechanisms...)
	mechs = append(mechs, m.Undetectable...)
	return &Sampler{model: m, seed: seed, mechs: mechs}
}

// Shot returns shot i.
func (s *Sampler) Shot(i int) shots.Shot {
	rng := rand.New(rand.NewPCG(s.seed, uint64(i)))
	dets := bitset.New(uint(s.model.NumDetectors()))
	obs := bitset.New(uint(s.model.NumObservables))

	for k := range s.mechs {
		mech := &s.mechs[k]
		if rng.Float64() >= mech.Probability {
			continue
		}
		for _, d := range mech.Detectors {
			dets.Flip(uint(d))
		}
		for _, l := range mech.Observables {
			obs.Flip(uint(l))
		}
	}

	shot := shots.Shot{Detectors: make([]int, 0, dets.Count()), Observables: obs}
	for d, ok := dets.NextSet(0); ok; d, ok = dets.NextSet(d + 1) {
		shot.Detectors = append(shot.Detectors, int(d))
	}
	return shot
}

// Sample returns shots 0..n-1 using up to workers goroutines.
// workers < 1 means one.
func (s *Sampler) Sample(ctx context.Context, n, workers int) ([]shots.Shot, error) {
	out := make([]shots.Shot, n)
	workers = max(workers, 1)

	g, ctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				out[i] = s.Shot(i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
