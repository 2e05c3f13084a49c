package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sartorproj/goecon/pipeline"
	"github.com/sartorproj/goecon/store"
)

func newRunsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List the runs recorded in the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Store == "" {
				return fmt.Errorf("%w: no store, set --store", pipeline.ErrInvalidConfig)
			}
			s, err := store.Open(cmd.Context(), a.cfg.Store, a.logger)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tTARGET\tR2\tRMSE\tPREDICTORS")
			for _, r := range runs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\t%.6f\t%s\n",
					r.ID, r.CreatedAt.Format(time.RFC3339), r.Target, r.RSquared, r.RMSE, strings.Join(r.Selected, ","))
			}
			return w.Flush()
		},
	}
}
