package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/tesseract"
	"github.com/hupe1980/tesseract/shots"
	"github.com/spf13/cobra"
)

func newDecodeCmd(g *globalFlags) *cobra.Command {
	var inPath, outPath string

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a shot file and write predicted observable flips",
		Long: `decode reads shots in dets or 01 format and writes one line of
predicted observable flips per shot in 01 format. Shots that carry their
observables are also scored against the predictions.`,
		Example: `  tesseract decode --dem surface.dem --in shots.01 --out predictions.01
  tesseract decode --dem s3://bucket/surface.dem --in s3://bucket/shots.dets.zst --threads 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inPath == "" {
				return errors.New("--in is required")
			}
			s, err := g.session(cmd)
			if err != nil {
				return err
			}
			defer s.shutdown()
			ctx := cmd.Context()

			in := newInput(s.cfg.ReadBytesPerSec)
			m, err := in.model(ctx, g.demPath)
			if err != nil {
				return err
			}
			dec, err := tesseract.New(m, s.options()...)
			if err != nil {
				return err
			}
			batch, err := in.shots(ctx, inPath, m.NumDetectors(), m.NumObservables)
			if err != nil {
				return err
			}

			syndromes := make([][]int, len(batch))
			for i, shot := range batch {
				syndromes[i] = shot.Detectors
			}
			start := time.Now()
			results, err := dec.DecodeBatch(ctx, syndromes)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			if err := writePredictions(cmd, outPath, m.NumDetectors(), m.NumObservables, results); err != nil {
				return err
			}

			sum := summarize(batch, results)
			fmt.Fprintf(cmd.ErrOrStderr(), "decoded %d shots in %s (%d failed)\n", len(batch), elapsed.Round(time.Millisecond), sum.failed)
			if sum.scored > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "logical errors: %d of %d (rate %.6g)\n", sum.errors, sum.scored, sum.rate())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "shot file (.dets or .01, optionally .zst or .lz4)")
	cmd.Flags().StringVar(&outPath, "out", "", "prediction file (default stdout)")
	return cmd
}

func writePredictions(cmd *cobra.Command, path string, numDets, numObs int, results []tesseract.BatchResult) error {
	var w *shots.Writer
	closeFn := func() error { return w.Flush() }
	if path == "" {
		w = shots.NewWriter(cmd.OutOrStdout(), shots.Format01, numDets, numObs)
	} else {
		fw, err := shots.Create(path, shots.Format01, numDets, numObs)
		if err != nil {
			return err
		}
		w, closeFn = fw.Writer, fw.Close
	}

	empty := bitset.New(uint(numObs))
	for _, r := range results {
		obs := empty
		if r.Err == nil {
			obs = r.Prediction.Observables
		}
		if err := w.WritePrediction(obs); err != nil {
			_ = closeFn()
			return err
		}
	}
	return closeFn()
}

type summary struct {
	failed int
	scored int
	errors int
}

// summarize counts failed shots and, where the true observables are known,
// mispredicted ones. A failed shot counts as a logical error.
func summarize(batch []shots.Shot, results []tesseract.BatchResult) summary {
	var s summary
	for i, r := range results {
		if r.Err != nil {
			s.failed++
		}
		if !batch[i].HasObservables() {
			continue
		}
		s.scored++
		if r.Err != nil || r.Prediction.Observables.SymmetricDifferenceCardinality(batch[i].Observables) > 0 {
			s.errors++
		}
	}
	return s
}

func (s summary) rate() float64 {
	if s.scored == 0 {
		return 0
	}
	return float64(s.errors) / float64(s.scored)
}
