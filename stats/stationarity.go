package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/goecon/regression"
	"github.com/sartorproj/goecon/timeseries"
)

var (
	// ErrInsufficientData is returned when a series is too short for a test.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDegenerate is returned for series a test cannot be computed on,
	// such as a constant series or one containing NaN.
	ErrDegenerate = errors.New("degenerate series")
)

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	UsedLag      int // lagged differences in the final regression
	NObs         int // observations in the final regression
	ICBest       float64
	CriticalVals map[string]float64 // Critical values at 1%, 5%, 10%
}

// ADF performs the Augmented Dickey-Fuller test for a unit root with a
// constant in the test regression.
// The null hypothesis is that the series has a unit root (is non-stationary).
//
// The number of lagged differences is chosen by AIC over 0..maxLag, every
// candidate being fitted on the same sample; the chosen lag is then re-fitted
// on the longest sample it allows. maxLag <= 0 selects
// ceil(12*(n/100)^(1/4)), capped at n/2-2.
func ADF(series *timeseries.Series, maxLag int) (*ADFResult, error) {
	x := series.Values
	n := len(x)
	if err := checkFinite(x); err != nil {
		return nil, err
	}
	if n < 10 {
		return nil, fmt.Errorf("%w: %d observations", ErrInsufficientData, n)
	}

	if maxLag <= 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
		if limit := n/2 - 2; limit < maxLag {
			maxLag = limit
		}
	}
	if maxLag < 0 || n-1-maxLag < maxLag+3 {
		return nil, fmt.Errorf("%w: %d observations for %d lags", ErrInsufficientData, n, maxLag)
	}
	if stat.Variance(x, nil) == 0 {
		return nil, fmt.Errorf("%w: constant series", ErrDegenerate)
	}

	dx := series.DiffN(1).Values[1:]

	// Lag search on the common sample.
	design, y := adfDesign(x, dx, maxLag)
	bestLag, bestIC := 0, math.Inf(1)
	rows, _ := design.Dims()
	for lag := 0; lag <= maxLag; lag++ {
		fit, err := regression.FitDense(mat.DenseCopyOf(design.Slice(0, rows, 0, lag+2)), y)
		if err != nil {
			return nil, fmt.Errorf("adf lag %d: %w", lag, err)
		}
		if fit.AIC < bestIC {
			bestLag, bestIC = lag, fit.AIC
		}
	}

	design, y = adfDesign(x, dx, bestLag)
	fit, err := regression.FitDense(design, y)
	if err != nil {
		return nil, fmt.Errorf("adf: %w", err)
	}

	// Column 1 holds the lagged level.
	tStat := fit.TStats[1]
	if math.IsNaN(tStat) || math.IsInf(tStat, 0) {
		return nil, fmt.Errorf("%w: adf statistic is not finite", ErrDegenerate)
	}

	return &ADFResult{
		Statistic:    tStat,
		PValue:       mackinnonPValue(tStat),
		UsedLag:      bestLag,
		NObs:         fit.NObs,
		ICBest:       bestIC,
		CriticalVals: mackinnonCrit(fit.NObs),
	}, nil
}

// adfDesign builds the test regression
//
//	Δy_t = α + β y_{t-1} + Σ_{i=1..lags} γ_i Δy_{t-i}
//
// as columns [1, y_{t-1}, Δy_{t-1}, ..., Δy_{t-lags}].
func adfDesign(x, dx []float64, lags int) (*mat.Dense, []float64) {
	nobs := len(dx) - lags
	design := mat.NewDense(nobs, lags+2, nil)
	y := make([]float64, nobs)
	for i := 0; i < nobs; i++ {
		t := i + lags
		y[i] = dx[t]
		design.Set(i, 0, 1)
		design.Set(i, 1, x[t])
		for j := 1; j <= lags; j++ {
			design.Set(i, 1+j, dx[t-j])
		}
	}
	return design, y
}

// MacKinnon (1994) response surface for the constant-only, single series
// case.
var (
	tauMax    = 2.74
	tauMin    = -18.83
	tauStar   = -1.61
	tauSmallP = []float64{2.1659, 1.4412, 3.8269e-2}
	tauLargeP = []float64{1.7339, 9.3202e-1, -1.2745e-1, -1.0368e-2}
	tauCritC  = map[string][]float64{
		"1%":  {-3.43035, -6.5393, -16.786, -79.433},
		"5%":  {-2.86154, -2.8903, -4.234, -40.04},
		"10%": {-2.56677, -1.5384, -2.809, 0},
	}
)

// mackinnonPValue returns the approximate asymptotic p-value of an ADF
// statistic from a regression with a constant.
func mackinnonPValue(stat float64) float64 {
	switch {
	case stat > tauMax:
		return 1
	case stat < tauMin:
		return 0
	}
	coef := tauLargeP
	if stat <= tauStar {
		coef = tauSmallP
	}
	return distuv.UnitNormal.CDF(polyval(coef, stat))
}

// mackinnonCrit returns the MacKinnon (2010) finite sample critical values.
func mackinnonCrit(nobs int) map[string]float64 {
	out := make(map[string]float64, len(tauCritC))
	inv := 1 / float64(nobs)
	for level, c := range tauCritC {
		out[level] = polyval(c, inv)
	}
	return out
}

// polyval evaluates c[0] + c[1]x + c[2]x² + ...
func polyval(c []float64, x float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
}

var (
	kpssPValues = []float64{0.10, 0.05, 0.025, 0.01}
	kpssCritC   = []float64{0.347, 0.463, 0.574, 0.739}
	kpssCritCT  = []float64{0.119, 0.146, 0.176, 0.216}
)

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test.
// The null hypothesis is that the series is level stationary ("c") or trend
// stationary ("ct").
//
// nlags <= 0 selects the lag truncation automatically (Hobijn et al.
// 1998). The p-value is interpolated in the KPSS table and therefore lies
// in [0.01, 0.10].
func KPSS(series *timeseries.Series, regressionType string, nlags int) (*KPSSResult, error) {
	x := series.Values
	n := len(x)
	if err := checkFinite(x); err != nil {
		return nil, err
	}
	if n < 3 {
		return nil, fmt.Errorf("%w: %d observations", ErrInsufficientData, n)
	}

	var (
		resid []float64
		crit  []float64
		err   error
	)
	switch regressionType {
	case "", "c":
		mean := stat.Mean(x, nil)
		resid = make([]float64, n)
		for i, v := range x {
			resid[i] = v - mean
		}
		crit = kpssCritC
	case "ct":
		resid, err = detrend(x)
		if err != nil {
			return nil, err
		}
		crit = kpssCritCT
	default:
		return nil, fmt.Errorf("kpss: unknown regression %q", regressionType)
	}

	ssr := floats.Dot(resid, resid)
	if ssr == 0 {
		return nil, fmt.Errorf("%w: zero residual variance", ErrDegenerate)
	}

	if nlags <= 0 {
		nlags = kpssAutoLag(resid)
	}
	if nlags > n-1 {
		nlags = n - 1
	}

	// Long-run variance with Bartlett weights.
	sHat := ssr
	for i := 1; i <= nlags; i++ {
		prod := floats.Dot(resid[i:], resid[:n-i])
		sHat += 2 * prod * (1 - float64(i)/float64(nlags+1))
	}
	sHat /= float64(n)
	if sHat <= 0 {
		return nil, fmt.Errorf("%w: non-positive long-run variance", ErrDegenerate)
	}

	cum := 0.0
	eta := 0.0
	for _, r := range resid {
		cum += r
		eta += cum * cum
	}
	eta /= float64(n) * float64(n)
	kpssStat := eta / sHat

	return &KPSSResult{
		Statistic: kpssStat,
		PValue:    interpDescending(kpssStat, crit, kpssPValues),
		Lags:      nlags,
		CriticalVals: map[string]float64{
			"10%":  crit[0],
			"5%":   crit[1],
			"2.5%": crit[2],
			"1%":   crit[3],
		},
	}, nil
}

// kpssAutoLag implements the data-dependent bandwidth of Hobijn, Franses
// and Ooms (1998).
func kpssAutoLag(resid []float64) int {
	n := len(resid)
	nf := float64(n)
	covLags := int(math.Pow(nf, 2.0/9.0))
	s0 := floats.Dot(resid, resid) / nf
	s1 := 0.0
	for i := 1; i <= covLags && i < n; i++ {
		prod := floats.Dot(resid[i:], resid[:n-i]) / (nf / 2)
		s0 += prod
		s1 += float64(i) * prod
	}
	if s0 == 0 {
		return 0
	}
	sHat := s1 / s0
	gamma := 1.1447 * math.Pow(sHat*sHat, 1.0/3.0)
	return int(gamma * math.Pow(nf, 1.0/3.0))
}

// interpDescending linearly interpolates y at stat for increasing xs,
// clamping outside the table.
func interpDescending(stat float64, xs, ys []float64) float64 {
	if stat <= xs[0] {
		return ys[0]
	}
	last := len(xs) - 1
	if stat >= xs[last] {
		return ys[last]
	}
	for i := 1; i <= last; i++ {
		if stat <= xs[i] {
			w := (stat - xs[i-1]) / (xs[i] - xs[i-1])
			return ys[i-1] + w*(ys[i]-ys[i-1])
		}
	}
	return ys[last]
}

// detrend removes a least squares linear trend.
func detrend(x []float64) ([]float64, error) {
	n := len(x)
	design := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		design.Set(i, 1, float64(i))
	}
	fit, err := regression.FitDense(design, x)
	if err != nil {
		return nil, fmt.Errorf("detrend: %w", err)
	}
	return fit.Residuals, nil
}

func checkFinite(x []float64) error {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at %d", ErrDegenerate, i)
		}
	}
	return nil
}
