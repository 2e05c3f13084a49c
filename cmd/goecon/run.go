package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sartorproj/goecon/pipeline"
	"github.com/sartorproj/goecon/store"
	"github.com/sartorproj/goecon/transform"
)

func newRunCmd(a *app) *cobra.Command {
	var reportPath, recipePath, metricsPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full analysis on the input CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.loadInput()
			if err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			p, err := pipeline.New(a.cfg, pipeline.WithLogger(a.logger), pipeline.WithRegisterer(reg))
			if err != nil {
				return err
			}
			report, err := p.Run(cmd.Context(), data)
			if metricsPath != "" {
				if werr := prometheus.WriteToTextfile(metricsPath, reg); werr != nil {
					a.logger.Warn("failed to write metrics", zap.String("file", metricsPath), zap.Error(werr))
				}
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), report.String())

			if reportPath != "" {
				if err := writeReport(report, reportPath); err != nil {
					return err
				}
				a.logger.Info("report written", zap.String("file", reportPath))
			}
			if recipePath != "" {
				if err := transform.SaveRecipe(report.Recipe, recipePath); err != nil {
					return err
				}
				a.logger.Info("recipe written", zap.String("file", recipePath))
			}
			if a.cfg.Store != "" {
				s, err := store.Open(cmd.Context(), a.cfg.Store, a.logger)
				if err != nil {
					return err
				}
				defer s.Close()
				id, err := s.SaveRun(cmd.Context(), report)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nSaved as run %d in %s\n", id, a.cfg.Store)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", "write the report to this file (.json or .yaml)")
	cmd.Flags().StringVar(&recipePath, "recipe", "", "write the transformation recipe to this YAML file")
	cmd.Flags().StringVar(&metricsPath, "metrics-file", "", "write Prometheus metrics of the run in textfile format")
	return cmd
}

func writeReport(report *pipeline.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = report.WriteJSON(f)
	} else {
		err = report.WriteYAML(f)
	}
	if err != nil {
		return err
	}
	return f.Close()
}
