package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TestResult is the outcome of a residual test on a fitted model.
type TestResult struct {
	Name      string  `json:"name" yaml:"name"`
	Statistic float64 `json:"statistic" yaml:"statistic"`
	PValue    float64 `json:"p_value" yaml:"p_value"`
	DF        float64 `json:"df" yaml:"df"`
}

// Rejects reports whether the null hypothesis is rejected at level alpha.
func (r TestResult) Rejects(alpha float64) bool {
	return r.PValue < alpha
}

// BreuschGodfrey tests the residuals of m for serial correlation up to
// order nlags. Lagged residuals are zero padded so every observation is
// kept. The statistic is n*R² of the auxiliary regression of the residuals
// on the original regressors and the lags, chi-squared with nlags df.
func BreuschGodfrey(m *Model, nlags int) (TestResult, error) {
	if nlags < 1 {
		return TestResult{}, fmt.Errorf("%w: nlags must be positive, got %d", ErrInvalidArgument, nlags)
	}
	n, k := m.x.Dims()
	if n <= k+nlags {
		return TestResult{}, fmt.Errorf("%w: n=%d with %d regressors and %d lags", ErrNotEnoughObservations, n, k, nlags)
	}

	aux := mat.NewDense(n, k+nlags, nil)
	aux.Slice(0, n, 0, k).(*mat.Dense).Copy(m.x)
	for lag := 1; lag <= nlags; lag++ {
		for i := lag; i < n; i++ {
			aux.Set(i, k+lag-1, m.Residuals[i-lag])
		}
	}

	fit, err := FitDense(aux, m.Residuals)
	if err != nil {
		return TestResult{}, fmt.Errorf("breusch-godfrey auxiliary regression: %w", err)
	}

	lm := float64(n) * fit.RSquared
	df := float64(nlags)
	return TestResult{
		Name:      "Breusch-Godfrey",
		Statistic: lm,
		PValue:    distuv.ChiSquared{K: df}.Survival(lm),
		DF:        df,
	}, nil
}

// BreuschPagan tests the residuals of m for heteroskedasticity by
// regressing the squared residuals on the model's regressors. The
// statistic is n*R², chi-squared with k-1 df.
func BreuschPagan(m *Model) (TestResult, error) {
	n, k := m.x.Dims()
	sq := make([]float64, n)
	for i, r := range m.Residuals {
		sq[i] = r * r
	}
	fit, err := FitDense(m.x, sq)
	if err != nil {
		return TestResult{}, fmt.Errorf("breusch-pagan auxiliary regression: %w", err)
	}

	lm := float64(n) * fit.RSquared
	df := float64(k - 1)
	if df < 1 {
		return TestResult{}, ErrNoExplanatoryVars
	}
	return TestResult{
		Name:      "Breusch-Pagan",
		Statistic: lm,
		PValue:    distuv.ChiSquared{K: df}.Survival(lm),
		DF:        df,
	}, nil
}

// GoldfeldQuandt compares the residual variance of the second half of the
// sample against the first half. The alternative is variance increasing
// over the sample.
func GoldfeldQuandt(m *Model) (TestResult, error) {
	n, k := m.x.Dims()
	split := n / 2
	if split <= k || n-split <= k {
		return TestResult{}, fmt.Errorf("%w: %d observations for %d regressors per half", ErrNotEnoughObservations, n, k)
	}

	y := make([]float64, n)
	for i := range y {
		y[i] = m.Fitted[i] + m.Residuals[i]
	}

	first, err := FitDense(mat.DenseCopyOf(m.x.Slice(0, split, 0, k)), y[:split])
	if err != nil {
		return TestResult{}, fmt.Errorf("goldfeld-quandt first half: %w", err)
	}
	second, err := FitDense(mat.DenseCopyOf(m.x.Slice(split, n, 0, k)), y[split:])
	if err != nil {
		return TestResult{}, fmt.Errorf("goldfeld-quandt second half: %w", err)
	}

	df1 := float64(split - k)
	df2 := float64(n - split - k)
	if first.Sigma2 == 0 {
		return TestResult{}, fmt.Errorf("%w: zero residual variance in first half", ErrInvalidArgument)
	}
	f := second.Sigma2 / first.Sigma2
	return TestResult{
		Name:      "Goldfeld-Quandt",
		Statistic: f,
		PValue:    distuv.F{D1: df2, D2: df1}.Survival(f),
		DF:        df2,
	}, nil
}

// VIF returns the variance inflation factor of every predictor of m,
// in predictor order. Each predictor is regressed on the intercept and the
// remaining predictors; VIF = 1/(1-R²). A predictor that is an exact
// linear combination of the others gets +Inf.
func VIF(m *Model) ([]float64, error) {
	n, k := m.x.Dims()
	if k == 2 {
		// a lone predictor is only regressed on the intercept
		return []float64{1}, nil
	}

	out := make([]float64, k-1)
	for j := 1; j < k; j++ {
		others := mat.NewDense(n, k-1, nil)
		y := make([]float64, n)
		for i := 0; i < n; i++ {
			col := 0
			for c := 0; c < k; c++ {
				if c == j {
					y[i] = m.x.At(i, c)
					continue
				}
				others.Set(i, col, m.x.At(i, c))
				col++
			}
		}
		fit, err := FitDense(others, y)
		if err != nil {
			return nil, fmt.Errorf("vif for %s: %w", m.Predictors[j-1], err)
		}
		if fit.RSquared >= 1 {
			out[j-1] = math.Inf(1)
			continue
		}
		out[j-1] = 1 / (1 - fit.RSquared)
	}
	return out, nil
}
