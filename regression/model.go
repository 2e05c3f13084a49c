package regression

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/goecon/timeseries"
)

// ConstName is the label of the intercept term.
const ConstName = "const"

// Model is a linear regression of one table column on a set of other
// columns, always estimated with an intercept.
type Model struct {
	Target     string
	Predictors []string

	*Fit

	x *mat.Dense
}

// OLS estimates target = const + Σ b_j * predictor_j on the rows of data.
// Rows containing NaN in any used column must be removed beforehand.
func OLS(target string, data *timeseries.Table, predictors []string) (*Model, error) {
	if len(predictors) == 0 {
		return nil, ErrNoExplanatoryVars
	}
	y, ok := data.Column(target)
	if !ok {
		return nil, fmt.Errorf("%w: target %q", timeseries.ErrUnknownColumn, target)
	}

	x, err := designMatrix(data, predictors)
	if err != nil {
		return nil, err
	}
	for i, v := range y {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: target %q has NaN at row %d", ErrInvalidArgument, target, i)
		}
	}

	fit, err := FitDense(x, y)
	if err != nil {
		return nil, fmt.Errorf("fitting %s: %w", target, err)
	}

	return &Model{
		Target:     target,
		Predictors: append([]string(nil), predictors...),
		Fit:        fit,
		x:          x,
	}, nil
}

// designMatrix builds [1, predictors...] from the table.
func designMatrix(data *timeseries.Table, predictors []string) (*mat.Dense, error) {
	n := data.Len()
	x := mat.NewDense(n, len(predictors)+1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}
	for j, name := range predictors {
		col, ok := data.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: predictor %q", timeseries.ErrUnknownColumn, name)
		}
		for i, v := range col {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("%w: predictor %q has NaN at row %d", ErrInvalidArgument, name, i)
			}
			x.Set(i, j+1, v)
		}
	}
	return x, nil
}

// Terms returns the coefficient labels in estimation order.
func (m *Model) Terms() []string {
	return append([]string{ConstName}, m.Predictors...)
}

// Coefficient returns the estimate for a term by name.
func (m *Model) Coefficient(term string) (float64, bool) {
	for i, name := range m.Terms() {
		if name == term {
			return m.Coeffs[i], true
		}
	}
	return 0, false
}

// Design returns the design matrix the model was estimated on, intercept
// column first.
func (m *Model) Design() *mat.Dense {
	return m.x
}

// Predict evaluates the fitted equation on the rows of data.
func (m *Model) Predict(data *timeseries.Table) ([]float64, error) {
	x, err := designMatrix(data, m.Predictors)
	if err != nil {
		return nil, err
	}
	var out mat.VecDense
	out.MulVec(x, mat.NewVecDense(len(m.Coeffs), m.Coeffs))
	return out.RawVector().Data, nil
}

// Formula renders the estimated equation, e.g. "Y = 1.2000 + 0.5000*X1".
func (m *Model) Formula() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s = %.4f", m.Target, m.Coeffs[0])
	for i, name := range m.Predictors {
		c := m.Coeffs[i+1]
		sign := "+"
		if c < 0 {
			sign = "-"
		}
		fmt.Fprintf(&b, " %s %.4f*%s", sign, math.Abs(c), name)
	}
	return b.String()
}

// Summary renders a coefficient table with fit statistics.
func (m *Model) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "OLS Regression Results: %s\n", m.Target)
	fmt.Fprintf(&b, "No. Observations: %d    Df Residuals: %d\n", m.NObs, m.NObs-m.NParams)
	f, fp := m.FTest()
	fmt.Fprintf(&b, "R-squared: %.4f    Adj. R-squared: %.4f\n", m.RSquared, m.AdjRSquared)
	fmt.Fprintf(&b, "F-statistic: %.4f    Prob (F-statistic): %.4g\n", f, fp)
	fmt.Fprintf(&b, "Log-Likelihood: %.4f    AIC: %.4f    BIC: %.4f\n", m.LogLik, m.AIC, m.BIC)
	fmt.Fprintf(&b, "%-20s %12s %12s %10s %10s\n", "", "coef", "std err", "t", "P>|t|")
	for i, name := range m.Terms() {
		fmt.Fprintf(&b, "%-20s %12.4f %12.4f %10.3f %10.4f %s\n",
			name, m.Coeffs[i], m.StdErrors[i], m.TStats[i], m.PValues[i], Significance(m.PValues[i]))
	}
	b.WriteString("Signif. codes: 0 '***' 0.001 '**' 0.01 '*' 0.05 '.' 0.1 ' ' 1\n")
	return b.String()
}

// Significance returns the conventional star code for a p-value.
func Significance(p float64) string {
	switch {
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	case p < 0.1:
		return "."
	default:
		return ""
	}
}
