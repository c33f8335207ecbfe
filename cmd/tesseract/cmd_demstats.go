package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDemStatsCmd(g *globalFlags) *cobra.Command {
	var noMerge bool

	cmd := &cobra.Command{
		Use:   "dem-stats",
		Short: "Report model size and redundant error mechanisms",
		Long: `dem-stats merges mechanisms with identical symptoms and counts the
mechanisms whose symptom is the XOR of two cheaper ones. The search never
needs such a mechanism in an optimal hypothesis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if g.demPath == "" {
				return fmt.Errorf("--dem is required")
			}
			cfg, err := g.config(cmd)
			if err != nil {
				return err
			}
			m, err := newInput(cfg.ReadBytesPerSec).model(cmd.Context(), g.demPath)
			if err != nil {
				return err
			}
			if !noMerge {
				m = m.MergeIdentical()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "detectors: %d\n", m.NumDetectors())
			fmt.Fprintf(out, "observables: %d\n", m.NumObservables)
			fmt.Fprintf(out, "coordinates: %t\n", m.HasCoords())
			fmt.Fprintf(out, "errors: %d (undetectable %d, zero probability %d)\n",
				m.NumMechanisms(), len(m.Undetectable), m.ZeroProbability)
			redundant := m.RedundantMechanisms()
			fmt.Fprintf(out, "%d of %d errors are redundant\n", redundant.GetCardinality(), m.NumMechanisms())
			return nil
		},
	}

	cmd.Flags().BoolVar(&noMerge, "no-merge-errors", false, "count redundancy without merging identical mechanisms")
	return cmd
}
