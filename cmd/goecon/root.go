package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sartorproj/goecon/logging"
	"github.com/sartorproj/goecon/pipeline"
	"github.com/sartorproj/goecon/timeseries"
)

const envPrefix = "GOECON"

// app carries what every subcommand needs once flags, environment and the
// config file have been merged.
type app struct {
	v      *viper.Viper
	cfg    *pipeline.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "goecon",
		Short:         "Stationarity transforms and Hellwig variable selection for time series regression",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.Bool("dev", false, "human readable development logs")
	addConfigFlags(flags, pipeline.DefaultConfig())

	root.AddCommand(
		newRunCmd(a),
		newCheckCmd(a),
		newSelectCmd(a),
		newApplyCmd(a),
		newRunsCmd(a),
	)
	return root
}

// addConfigFlags registers one flag per Config field, defaulting to def.
func addConfigFlags(flags *pflag.FlagSet, def *pipeline.Config) {
	flags.String("input", def.Input, "input CSV file")
	flags.String("target", def.Target, "response column")
	flags.String("target-transformed", def.TargetTransformed, "response column after differencing")
	flags.Float64("alpha", def.Alpha, "significance level of the stationarity tests")
	flags.Int("max-diff-order", def.MaxDiffOrder, "highest differencing order tried")
	flags.Float64("train-fraction", def.TrainFraction, "share of rows used for training")
	flags.Float64("corr-low", def.CorrLow, "lowest |r| with the target a predictor may have")
	flags.Float64("corr-high", def.CorrHigh, "highest |r| with the target a predictor may have")
	flags.StringSlice("drop-columns", def.DropColumns, "columns removed before transformation")
	flags.Bool("log-transform", def.LogTransform, "take natural logs before differencing")
	flags.Float64("min-variance", def.MinVariance, "drop columns with a lower variance (0 disables)")
	flags.Int("top-n", def.TopN, "ranked combinations kept in the report (0 keeps all)")
	flags.Int("workers", def.Workers, "goroutines scoring subsets (0 uses GOMAXPROCS)")
	flags.Int("diagnostic-lags", def.DiagnosticLags, "lags of the Breusch-Godfrey test")
	flags.String("log-level", def.LogLevel, "debug, info, warn or error")
	flags.String("store", def.Store, "SQLite database recording runs")
}

// setup merges flags, GOECON_* variables and the config file, in that order
// of precedence, into a validated Config and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	v := a.v
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	cmd.Root().PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "dev" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return fmt.Errorf("binding flags: %w", bindErr)
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
	}

	cfg := pipeline.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	dev, _ := cmd.Flags().GetBool("dev")
	logger, err := logging.New(cfg.LogLevel, dev)
	if err != nil {
		return err
	}
	a.logger = logger
	a.logger.Debug("configuration loaded", zap.Any("config", cfg), zap.String("file", v.ConfigFileUsed()))
	return nil
}

// loadInput reads the configured CSV file.
func (a *app) loadInput() (*timeseries.Table, error) {
	if a.cfg.Input == "" {
		return nil, fmt.Errorf("%w: no input file, set --input", pipeline.ErrInvalidConfig)
	}
	table, err := timeseries.LoadTableCSV(a.cfg.Input, timeseries.DefaultCSVOptions())
	if err != nil {
		return nil, err
	}
	a.logger.Info("loaded input",
		zap.String("file", a.cfg.Input), zap.Int("rows", table.Len()), zap.Strings("columns", table.Names()))
	return table, nil
}
