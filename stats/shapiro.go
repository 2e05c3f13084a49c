package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Polynomial coefficients of Royston's (1995) approximation, algorithm AS R94.
var (
	swC1    = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2    = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3    = []float64{0.5440, -0.39978, 0.025054, -6.714e-4}
	swC4    = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5    = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6    = []float64{-0.4803, -0.082676, 0.0030302}
	swGamma = []float64{-2.273, 0.459}
)

// ShapiroWilkResult is the outcome of the Shapiro-Wilk normality test.
type ShapiroWilkResult struct {
	Statistic float64 // W, in (0, 1]
	PValue    float64
}

// ShapiroWilk tests residuals for normality with Royston's approximation
// of the W coefficients and of its null distribution. The approximation is
// calibrated for 3 <= n <= 5000; larger samples are tested all the same.
func ShapiroWilk(residuals []float64) (*ShapiroWilkResult, error) {
	n := len(residuals)
	if n < 3 {
		return nil, fmt.Errorf("%w: %d observations", ErrInsufficientData, n)
	}
	if err := checkFinite(residuals); err != nil {
		return nil, err
	}
	x := append([]float64(nil), residuals...)
	sort.Float64s(x)
	if x[n-1]-x[0] < 1e-19*math.Max(1, math.Abs(x[0])) {
		return nil, fmt.Errorf("%w: zero range", ErrDegenerate)
	}

	a := shapiroWilkCoefficients(n)
	var num float64
	for i, ai := range a {
		num += ai * (x[n-1-i] - x[i])
	}
	mean := stat.Mean(x, nil)
	var ss float64
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}
	w := math.Min(num*num/ss, 1)

	return &ShapiroWilkResult{Statistic: w, PValue: shapiroWilkPValue(w, n)}, nil
}

// shapiroWilkCoefficients returns the n/2 weights of the upper order
// statistics; the lower half takes the same weights negated.
func shapiroWilkCoefficients(n int) []float64 {
	half := n / 2
	a := make([]float64, half)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	an := float64(n)
	m := make([]float64, half)
	var summ2 float64
	for i := range m {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (an + 0.25))
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)

	a[0] = poly(swC1, rsn) - m[0]/ssumm2
	first := 1
	fac := math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a[0]*a[0]))
	if n > 5 {
		a[1] = poly(swC2, rsn) - m[1]/ssumm2
		first = 2
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a[0]*a[0] - 2*a[1]*a[1]))
	}
	for i := first; i < half; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

func shapiroWilkPValue(w float64, n int) float64 {
	if n == 3 {
		p := 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Pi/3)
		return math.Max(p, 0)
	}

	an := float64(n)
	y := math.Log(1 - w)
	var mu, sigma float64
	if n <= 11 {
		gamma := poly(swGamma, an)
		if y >= gamma {
			return 1e-99
		}
		y = -math.Log(gamma - y)
		mu = poly(swC3, an)
		sigma = math.Exp(poly(swC4, an))
	} else {
		ln := math.Log(an)
		mu = poly(swC5, ln)
		sigma = math.Exp(poly(swC6, ln))
	}
	return distuv.UnitNormal.Survival((y - mu) / sigma)
}

// poly evaluates c[0] + c[1]x + c[2]x² + ...
func poly(c []float64, x float64) float64 {
	r := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}
	return r
}
