package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sartorproj/goecon/store"
	"github.com/sartorproj/goecon/timeseries"
	"github.com/sartorproj/goecon/transform"
)

func newApplyCmd(a *app) *cobra.Command {
	var (
		recipePath string
		runID      int64
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Replay a stored transformation recipe on the input CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				recipe *transform.Recipe
				err    error
			)
			switch {
			case recipePath != "":
				recipe, err = transform.LoadRecipe(recipePath)
			case runID > 0 && a.cfg.Store != "":
				var s *store.Store
				if s, err = store.Open(cmd.Context(), a.cfg.Store, a.logger); err != nil {
					return err
				}
				defer s.Close()
				recipe, err = s.LoadRecipe(cmd.Context(), runID)
			default:
				return errors.New("either --recipe or --run with --store is required")
			}
			if err != nil {
				return err
			}

			data, err := a.loadInput()
			if err != nil {
				return err
			}
			if a.cfg.LogTransform {
				var bad int
				if data, bad = data.Interpolate().Log(); bad > 0 {
					a.logger.Warn("non-positive values replaced before log transform", zap.Int("rows", bad))
				}
			}
			if missing := recipe.Missing(data); len(missing) > 0 {
				a.logger.Warn("input lacks recipe variables", zap.Strings("missing", missing))
			}

			out := recipe.Apply(data)
			if outPath == "" {
				return timeseries.WriteTableCSV(out, cmd.OutOrStdout())
			}
			if err := timeseries.SaveTableCSV(out, outPath); err != nil {
				return err
			}
			a.logger.Info("transformed table written", zap.String("file", outPath), zap.Int("rows", out.Len()))
			return nil
		},
	}
	cmd.Flags().StringVar(&recipePath, "recipe", "", "recipe YAML written by run --recipe")
	cmd.Flags().Int64Var(&runID, "run", 0, "id of a stored run whose recipe to replay")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output CSV (stdout when empty)")
	return cmd
}
