package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sartorproj/goecon/stats"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Test every input column for stationarity with ADF and KPSS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.loadInput()
			if err != nil {
				return err
			}
			tester := &stats.Tester{Alpha: a.cfg.Alpha, Logger: a.logger}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COLUMN\tNOBS\tADF\tADF P\tKPSS\tKPSS P\tSTATIONARY")
			for _, name := range data.Names() {
				col, _ := data.Column(name)
				v := tester.Test(col)
				if v.ADF == nil || v.KPSS == nil {
					reason := "too few observations"
					if v.Err != nil {
						reason = v.Err.Error()
					}
					fmt.Fprintf(w, "%s\t%d\t-\t-\t-\t-\tfalse (%s)\n", name, v.NObs, reason)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%t\n",
					name, v.NObs, v.ADF.Statistic, v.ADF.PValue, v.KPSS.Statistic, v.KPSS.PValue, v.Stationary)
			}
			return w.Flush()
		},
	}
}
