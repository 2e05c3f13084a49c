package pipeline

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config drives a pipeline run.
type Config struct {
	// Input is the CSV file to load. Unused when a table is passed directly.
	Input string `yaml:"input" mapstructure:"input"`

	// Target is the raw response column; TargetTransformed is its name after
	// differencing, used as the Hellwig and OLS response.
	Target            string `yaml:"target" mapstructure:"target"`
	TargetTransformed string `yaml:"target_transformed" mapstructure:"target_transformed"`

	// Alpha is the significance level of the stationarity tests.
	Alpha        float64 `yaml:"alpha" mapstructure:"alpha"`
	MaxDiffOrder int     `yaml:"max_diff_order" mapstructure:"max_diff_order"`

	TrainFraction float64 `yaml:"train_fraction" mapstructure:"train_fraction"`

	// Predictors with |r| to the target outside [CorrLow, CorrHigh] are
	// dropped before any transformation.
	CorrLow  float64 `yaml:"corr_low" mapstructure:"corr_low"`
	CorrHigh float64 `yaml:"corr_high" mapstructure:"corr_high"`

	DropColumns  []string `yaml:"drop_columns" mapstructure:"drop_columns"`
	LogTransform bool     `yaml:"log_transform" mapstructure:"log_transform"`

	// MinVariance drops stationary columns whose variance falls below it.
	// Zero disables the filter.
	MinVariance float64 `yaml:"min_variance" mapstructure:"min_variance"`

	TopN           int `yaml:"top_n" mapstructure:"top_n"`
	Workers        int `yaml:"workers" mapstructure:"workers"`
	DiagnosticLags int `yaml:"diagnostic_lags" mapstructure:"diagnostic_lags"`

	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	Store    string `yaml:"store" mapstructure:"store"`
}

// DefaultConfig returns the settings of the reference analysis.
func DefaultConfig() *Config {
	return &Config{
		Target:            "CLOSE",
		TargetTransformed: "D_CLOSE",
		Alpha:             0.05,
		MaxDiffOrder:      2,
		TrainFraction:     0.8,
		CorrLow:           0.3,
		CorrHigh:          0.75,
		DropColumns:       []string{"INFLATION"},
		LogTransform:      true,
		TopN:              5,
		Workers:           0,
		DiagnosticLags:    2,
		LogLevel:          "info",
	}
}

// Validate checks the configuration for values the pipeline cannot run
// with.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("%w: target cannot be empty", ErrInvalidConfig)
	}
	if c.TargetTransformed == "" {
		return fmt.Errorf("%w: target_transformed cannot be empty", ErrInvalidConfig)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("%w: alpha must be in (0, 1), got %g", ErrInvalidConfig, c.Alpha)
	}
	if c.MaxDiffOrder < 1 {
		return fmt.Errorf("%w: max_diff_order must be at least 1, got %d", ErrInvalidConfig, c.MaxDiffOrder)
	}
	if c.TrainFraction <= 0 || c.TrainFraction > 1 {
		return fmt.Errorf("%w: train_fraction must be in (0, 1], got %g", ErrInvalidConfig, c.TrainFraction)
	}
	if c.CorrLow < 0 || c.CorrHigh > 1 || c.CorrLow > c.CorrHigh {
		return fmt.Errorf("%w: correlation band [%g, %g] must lie within [0, 1]", ErrInvalidConfig, c.CorrLow, c.CorrHigh)
	}
	if c.MinVariance < 0 {
		return fmt.Errorf("%w: min_variance cannot be negative", ErrInvalidConfig)
	}
	if c.TopN < 0 {
		return fmt.Errorf("%w: top_n cannot be negative", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers cannot be negative", ErrInvalidConfig)
	}
	if c.DiagnosticLags < 1 {
		return fmt.Errorf("%w: diagnostic_lags must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads a YAML file on top of DefaultConfig and validates the
// result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file '%s': %w", path, err)
	}
	return nil
}
