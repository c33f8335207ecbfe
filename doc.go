// Package tesseract decodes quantum error correction syndromes by searching
// for the most likely set of error mechanisms that explains them.
//
// A detector error model (DEM) lists independent error mechanisms, each with
// a probability, the detectors it toggles and the logical observables it
// flips. Given the detectors that fired in one shot, the decoder runs a
// best-first search over mechanism sets and returns the observable flips of
// the cheapest set found. Cost is the sum of mechanism weights
// -ln(p/(1-p)), so the cheapest set is the most likely one.
//
// # Quick Start
//
//	dec, err := tesseract.Compile(demText)
//	if err != nil {
//	    return err
//	}
//	pred, err := dec.Decode(ctx, []int{3, 7})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(pred.Flipped(0), pred.Cost)
//
// # Orderings
//
// Each run of the search expands detectors in a fixed ordering. Several
// orderings can be tried per shot and the cheapest result wins:
//
//	dec, _ := tesseract.New(model,
//	    tesseract.WithNumDetOrders(8),
//	    tesseract.WithDetOrder(tesseract.DetOrderBFS),
//	    tesseract.WithThreads(runtime.NumCPU()),
//	)
//
// Results do not depend on the number of threads or on the schedule. Ties
// in cost go to the ordering with the lowest index.
//
// # Approximations
//
// Without limits the search is exact. PQLimit, BeamWidth, DetBeam,
// MaxExpansions and NoRevisitDets trade optimality for speed. When every
// ordering fails the error is a *DecodeFailedError:
//
//	_, err := dec.Decode(ctx, syndrome)
//	if errors.Is(err, tesseract.ErrDecodeFailed) { ... }
//
// # Batches
//
// DecodeBatch decodes many shots with per-shot error isolation:
//
//	results, err := dec.DecodeBatch(ctx, syndromes)
//	for i, r := range results {
//	    if r.Err != nil { ... }
//	}
//
// # Configuration
//
// Config can be loaded from YAML and refined with options:
//
//	cfg, _ := tesseract.LoadConfig("decoder.yaml")
//	dec, _ := tesseract.New(model, tesseract.WithConfig(cfg), tesseract.WithThreads(4))
//
// # Observability
//
// WithLogger attaches a structured logger and WithMetricsCollector receives
// decode, run, batch and cache events. Package prommetrics exports them to
// Prometheus. WithStatsRecorder collects per-detector statistics of the
// winning hypotheses.
package tesseract
