package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/goecon/timeseries"
)

// LjungBoxResult represents the result of a Ljung-Box test, together with
// the Box-Pierce statistic computed on the same autocorrelations.
type LjungBoxResult struct {
	Statistic   float64
	PValue      float64
	BPStatistic float64
	BPPValue    float64
	Lags        int
	DOF         int // Degrees of freedom
}

// LjungBox performs the Ljung-Box test for autocorrelation in residuals.
// The null hypothesis is that there is no autocorrelation up to lag h.
// fitdf is the number of model parameters to subtract from the degrees of
// freedom.
func LjungBox(series *timeseries.Series, lags, fitdf int) (*LjungBoxResult, error) {
	n := series.Len()
	if lags < 1 {
		return nil, fmt.Errorf("ljung-box: lags must be positive, got %d", lags)
	}
	if n < 3 {
		return nil, fmt.Errorf("%w: %d observations", ErrInsufficientData, n)
	}
	if lags >= n {
		lags = n - 1
	}

	acf := ACF(series, lags)
	if acf == nil {
		return nil, fmt.Errorf("%w: constant series", ErrDegenerate)
	}

	nf := float64(n)
	q, bp := 0.0, 0.0
	for k := 1; k <= lags; k++ {
		q += acf[k] * acf[k] / (nf - float64(k))
		bp += acf[k] * acf[k]
	}
	q *= nf * (nf + 2)
	bp *= nf

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}
	chi := distuv.ChiSquared{K: float64(dof)}

	return &LjungBoxResult{
		Statistic:   q,
		PValue:      chi.Survival(q),
		BPStatistic: bp,
		BPPValue:    chi.Survival(bp),
		Lags:        lags,
		DOF:         dof,
	}, nil
}

// DurbinWatson calculates the Durbin-Watson statistic for first-order
// autocorrelation. Values near 2 indicate none, below 2 positive and above
// 2 negative autocorrelation. NaN is returned for all-zero residuals.
func DurbinWatson(residuals []float64) float64 {
	n := len(residuals)
	if n < 2 {
		return math.NaN()
	}
	den := floats.Dot(residuals, residuals)
	if den == 0 {
		return math.NaN()
	}
	num := 0.0
	for i := 1; i < n; i++ {
		d := residuals[i] - residuals[i-1]
		num += d * d
	}
	return num / den
}

// JarqueBeraResult is the outcome of the Jarque-Bera normality test.
type JarqueBeraResult struct {
	Statistic float64
	PValue    float64
	Skewness  float64
	Kurtosis  float64 // not excess
}

// JarqueBera tests residuals for normality using the population skewness
// and kurtosis. The statistic is chi-squared with 2 df under the null.
func JarqueBera(residuals []float64) (*JarqueBeraResult, error) {
	n := len(residuals)
	if n < 3 {
		return nil, fmt.Errorf("%w: %d observations", ErrInsufficientData, n)
	}
	m2 := stat.Moment(2, residuals, nil)
	if m2 == 0 {
		return nil, fmt.Errorf("%w: zero variance", ErrDegenerate)
	}
	skew := stat.Moment(3, residuals, nil) / math.Pow(m2, 1.5)
	kurt := stat.Moment(4, residuals, nil) / (m2 * m2)

	jb := float64(n) / 6 * (skew*skew + (kurt-3)*(kurt-3)/4)
	return &JarqueBeraResult{
		Statistic: jb,
		PValue:    distuv.ChiSquared{K: 2}.Survival(jb),
		Skewness:  skew,
		Kurtosis:  kurt,
	}, nil
}
