// Package dem compiles detector error models into the immutable graph used by
// the decoder.
//
// A detector error model (DEM) lists independent error mechanisms. Each one
// has a probability, the detectors it toggles and the logical observables it
// flips. The accepted text format is the one produced by circuit compilers
// such as stim:
//
//	# comments are ignored
//	error(0.1) D0 D1 L0
//	error(0.05) D1 ^ D2
//	detector(0, 0, 0) D0
//	logical_observable L0
//	shift_detectors(0, 0, 1) 2
//	repeat 10 {
//	    error(0.01) D0 D2
//	    shift_detectors 2
//	}
//
// # Compilation
//
//	m, err := dem.Compile(text)
//	if errors.Is(err, dem.ErrMalformedModel) { ... }
//
// Compile validates the description and flattens repeat blocks and detector
// shifts. It assigns each mechanism a weight w = -ln(p/(1-p)) and derives the
// per-detector cost bounds used by the search heuristic.
//
// Mechanisms that toggle no detector cannot be observed. They are listed in
// Model.Undetectable and take no part in the search graph.
//
// # Transforms
//
// Models are immutable. MergeIdentical, FromCounts and the text formatter all
// return new values.
package dem
