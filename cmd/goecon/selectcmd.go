package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sartorproj/goecon/hellwig"
	"github.com/sartorproj/goecon/pipeline"
)

func newSelectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select",
		Short: "Rank predictor subsets of the input CSV by Hellwig capacity",
		Long: "Rank every subset of the non-target columns by Hellwig's integral " +
			"information capacity. The input is used as is; run it on already " +
			"stationary data, for example the output of apply.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.loadInput()
			if err != nil {
				return err
			}
			target := a.cfg.Target
			y, ok := data.Column(target)
			if !ok {
				return fmt.Errorf("%w: %q", pipeline.ErrTargetMissing, target)
			}

			ranking, err := hellwig.SelectBestConcurrent(cmd.Context(), y, data.Drop(target), a.cfg.Workers)
			if err != nil {
				return err
			}
			a.logger.Debug("subsets scored", zap.Int("count", len(ranking)))

			if n := a.cfg.TopN; n > 0 && len(ranking) > n {
				ranking = ranking[:n]
			}
			out := cmd.OutOrStdout()
			for i, c := range ranking {
				fmt.Fprintf(out, "%2d. H=%.6f  %s\n", i+1, c.Capacity, strings.Join(c.Predictors, ", "))
			}
			return nil
		},
	}
}
