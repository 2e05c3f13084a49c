package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goecon/hellwig"
	"github.com/sartorproj/goecon/regression"
	"github.com/sartorproj/goecon/transform"
)

// StationarityCheck is the verdict for one column.
type StationarityCheck struct {
	Variable   string `yaml:"variable" json:"variable"`
	Stationary bool   `yaml:"stationary" json:"stationary"`
}

// Coefficient is one estimated term of the final model.
type Coefficient struct {
	Term     string `yaml:"term" json:"term"`
	Estimate Float  `yaml:"estimate" json:"estimate"`
	StdError Float  `yaml:"std_error" json:"std_error"`
	TStat    Float  `yaml:"t_stat" json:"t_stat"`
	PValue   Float  `yaml:"p_value" json:"p_value"`
	Stars    string `yaml:"stars,omitempty" json:"stars,omitempty"`
}

// ModelSummary describes the fitted regression.
type ModelSummary struct {
	Formula      string        `yaml:"formula" json:"formula"`
	NObs         int           `yaml:"nobs" json:"nobs"`
	Coefficients []Coefficient `yaml:"coefficients" json:"coefficients"`
	RSquared     Float         `yaml:"r_squared" json:"r_squared"`
	AdjRSquared  Float         `yaml:"adj_r_squared" json:"adj_r_squared"`
	FStatistic   Float         `yaml:"f_statistic" json:"f_statistic"`
	FPValue      Float         `yaml:"f_p_value" json:"f_p_value"`
	AIC          Float         `yaml:"aic" json:"aic"`
	BIC          Float         `yaml:"bic" json:"bic"`
}

// Diagnostic is one residual test of the final model.
type Diagnostic struct {
	Name      string `yaml:"name" json:"name"`
	Statistic Float  `yaml:"statistic" json:"statistic"`
	PValue    Float  `yaml:"p_value" json:"p_value"`
	DF        Float  `yaml:"df,omitempty" json:"df,omitempty"`
	// Rejected is true when the null hypothesis is rejected at the
	// configured alpha.
	Rejected bool `yaml:"rejected" json:"rejected"`
}

// Diagnostics groups the residual checks.
type Diagnostics struct {
	Tests        []Diagnostic     `yaml:"tests" json:"tests"`
	DurbinWatson Float            `yaml:"durbin_watson" json:"durbin_watson"`
	VIF          map[string]Float `yaml:"vif,omitempty" json:"vif,omitempty"`
}

// Report is everything a run produced.
type Report struct {
	Config *Config `yaml:"config" json:"config"`

	TrainRows int `yaml:"train_rows" json:"train_rows"`
	TestRows  int `yaml:"test_rows" json:"test_rows"`

	Correlations      []CorrelationCheck  `yaml:"correlations" json:"correlations"`
	RemovedByCorr     []string            `yaml:"removed_by_correlation,omitempty" json:"removed_by_correlation,omitempty"`
	Dropped           []string            `yaml:"dropped,omitempty" json:"dropped,omitempty"`
	NonPositiveRows   int                 `yaml:"non_positive_rows" json:"non_positive_rows"`
	Initial           []StationarityCheck `yaml:"initial_stationarity" json:"initial_stationarity"`
	Recipe            *transform.Recipe   `yaml:"recipe" json:"recipe"`
	Rechecked         []StationarityCheck `yaml:"rechecked_stationarity" json:"rechecked_stationarity"`
	Variance          []VarianceStat      `yaml:"variance" json:"variance"`
	RemovedByVariance []string            `yaml:"removed_by_variance,omitempty" json:"removed_by_variance,omitempty"`

	Ranking  []hellwig.Combination `yaml:"ranking" json:"ranking"`
	Selected []string              `yaml:"selected" json:"selected"`

	Model       *ModelSummary `yaml:"model" json:"model"`
	Diagnostics *Diagnostics  `yaml:"diagnostics" json:"diagnostics"`
	Metrics     *Metrics      `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// WriteYAML encodes the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// WriteJSON encodes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// String renders a human readable summary.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rows: train=%d test=%d\n", r.TrainRows, r.TestRows)
	if len(r.RemovedByCorr) > 0 {
		fmt.Fprintf(&b, "Removed by correlation: %s\n", strings.Join(r.RemovedByCorr, ", "))
	}
	if r.Recipe != nil {
		b.WriteString("\nTransformations:\n")
		b.WriteString(r.Recipe.String())
	}

	b.WriteString("\nStationarity after transformation:\n")
	for _, c := range r.Rechecked {
		mark := "non-stationary"
		if c.Stationary {
			mark = "stationary"
		}
		fmt.Fprintf(&b, "  %-24s %s\n", c.Variable, mark)
	}

	b.WriteString("\nHellwig ranking:\n")
	for i, c := range r.Ranking {
		fmt.Fprintf(&b, "  %2d. H=%.6f  %s\n", i+1, c.Capacity, strings.Join(c.Predictors, ", "))
	}

	if m := r.Model; m != nil {
		fmt.Fprintf(&b, "\nModel: %s\n", m.Formula)
		fmt.Fprintf(&b, "  R2=%.4f  adj.R2=%.4f  F=%.4f (p=%.4g)  AIC=%.4f  BIC=%.4f\n",
			m.RSquared, m.AdjRSquared, m.FStatistic, m.FPValue, m.AIC, m.BIC)
		for _, c := range m.Coefficients {
			fmt.Fprintf(&b, "  %-20s %12.6f  p=%.4f %s\n", c.Term, c.Estimate, c.PValue, c.Stars)
		}
	}

	if d := r.Diagnostics; d != nil {
		b.WriteString("\nDiagnostics:\n")
		for _, t := range d.Tests {
			fmt.Fprintf(&b, "  %-22s stat=%10.4f  p=%.4f  rejected=%t\n", t.Name, t.Statistic, t.PValue, t.Rejected)
		}
		fmt.Fprintf(&b, "  %-22s %.4f\n", "Durbin-Watson", d.DurbinWatson)
		for _, name := range r.Selected {
			if v, ok := d.VIF[name]; ok {
				fmt.Fprintf(&b, "  VIF %-18s %.4f\n", name, v)
			}
		}
	}

	if m := r.Metrics; m != nil {
		fmt.Fprintf(&b, "\nOut of sample (n=%d): MAE=%.6f RMSE=%.6f MAPE=%.4f%% sMAPE=%.4f%%\n",
			m.N, m.MAE, m.RMSE, m.MAPE, m.SMAPE)
	}
	return b.String()
}

func summarize(m *regression.Model) *ModelSummary {
	f, fp := m.FTest()
	s := &ModelSummary{
		Formula:     m.Formula(),
		NObs:        m.NObs,
		RSquared:    Float(m.RSquared),
		AdjRSquared: Float(m.AdjRSquared),
		FStatistic:  Float(f),
		FPValue:     Float(fp),
		AIC:         Float(m.AIC),
		BIC:         Float(m.BIC),
	}
	for i, term := range m.Terms() {
		s.Coefficients = append(s.Coefficients, Coefficient{
			Term:     term,
			Estimate: Float(m.Coeffs[i]),
			StdError: Float(m.StdErrors[i]),
			TStat:    Float(m.TStats[i]),
			PValue:   Float(m.PValues[i]),
			Stars:    regression.Significance(m.PValues[i]),
		})
	}
	return s
}
