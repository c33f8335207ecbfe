// Package testutil provides testing utilities for the decoder.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source, synthetic detector error models and a
// brute-force decoder that serves as ground truth.
//
// # Synthetic Models
//
//	text := testutil.RepetitionCodeDEM(5, 3, 0.01)
//	text := testutil.NewRNG(seed).RandomDEM(12, 16, 3, 2)
//
// # Exact Decoding (Ground Truth)
//
//	best, ok := testutil.ExactDecode(model, syndrome)
package testutil
