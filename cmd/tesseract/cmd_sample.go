package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hupe1980/tesseract"
	"github.com/hupe1980/tesseract/sampler"
	"github.com/hupe1980/tesseract/stats"
	"github.com/spf13/cobra"
)

func newSampleCmd(g *globalFlags) *cobra.Command {
	var errorsOut, detcostOut, demOut string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample shots from the model, decode them and report the logical error rate",
		Example: `  tesseract sample --dem surface.dem --sample-num-shots 10000 --sample-seed 7 --threads 8
  tesseract sample --dem surface.dem --sample-num-shots 1000 --stats-errors-out errors.csv --dem-out refit.dem`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.session(cmd)
			if err != nil {
				return err
			}
			defer s.shutdown()
			if s.cfg.SampleNumShots == 0 {
				return errors.New("--sample-num-shots must be positive")
			}
			ctx := cmd.Context()

			m, err := newInput(s.cfg.ReadBytesPerSec).model(ctx, g.demPath)
			if err != nil {
				return err
			}

			var rec *stats.Recorder
			if errorsOut != "" || detcostOut != "" || demOut != "" {
				rec = stats.NewRecorder()
			}
			dec, err := tesseract.New(m, s.options(tesseract.WithStatsRecorder(rec))...)
			if err != nil {
				return err
			}

			batch, err := sampler.New(m, s.cfg.SampleSeed).Sample(ctx, s.cfg.SampleNumShots, s.cfg.Threads)
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

			sum := summarize(batch, results)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "shots: %d\n", len(batch))
			fmt.Fprintf(out, "failed: %d\n", sum.failed)
			fmt.Fprintf(out, "logical errors: %d\n", sum.errors)
			fmt.Fprintf(out, "logical error rate: %.6g\n", sum.rate())
			fmt.Fprintf(out, "time per shot: %s\n", perShot(elapsed, len(batch)))

			if rec == nil {
				return nil
			}
			if errorsOut != "" {
				if err := writeFile(errorsOut, rec.WriteErrorCSV); err != nil {
					return err
				}
			}
			if detcostOut != "" {
				if err := writeFile(detcostOut, rec.WriteDetCostCSV); err != nil {
					return err
				}
			}
			if demOut != "" {
				refit, err := dec.Model().FromCounts(rec.MechanismCounts(dec.Model().NumMechanisms()), rec.Shots())
				if err != nil {
					return fmt.Errorf("--dem-out: %w", err)
				}
				if err := os.WriteFile(demOut, []byte(refit.String()), 0o644); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&errorsOut, "stats-errors-out", "", "write per-detector mechanism counts as CSV")
	cmd.Flags().StringVar(&detcostOut, "stats-detcost-out", "", "write per-detector detcost counts as CSV")
	cmd.Flags().StringVar(&demOut, "dem-out", "", "write the model re-estimated from decoded mechanism counts")
	return cmd
}

func perShot(elapsed time.Duration, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return elapsed / time.Duration(n)
}

func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
