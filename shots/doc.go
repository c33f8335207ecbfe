// Package shots reads syndromes and writes predictions in the line formats
// used by stim.
//
// Two formats are supported:
//
//	dets  one line per shot listing the fired detectors and observables,
//	      e.g. "shot D3 D7 L0"
//	01    one character per detector, optionally followed by one character
//	      per observable, e.g. "00010001" + "1"
//
// Files may be compressed; ReadFile and Create pick the codec from the file
// extension, so "run.01.zst" is zstd-compressed 01 data.
package shots
