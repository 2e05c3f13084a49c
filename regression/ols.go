package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Fit holds the estimates of an ordinary least squares regression of y on
// the columns of X. Nothing is added to X; callers that want an intercept
// include a column of ones.
type Fit struct {
	Coeffs    []float64 // estimated coefficients, one per column of X
	StdErrors []float64 // standard errors of the coefficients
	TStats    []float64 // t statistics
	PValues   []float64 // two-sided p-values (Student t, n-k df)
	Fitted    []float64
	Residuals []float64

	NObs    int
	NParams int

	SSR         float64 // residual sum of squares
	TSS         float64 // centred total sum of squares
	Sigma2      float64 // SSR / (n-k)
	RSquared    float64
	AdjRSquared float64
	LogLik      float64
	AIC         float64
	BIC         float64
}

// FitDense regresses y on X by OLS.
func FitDense(x *mat.Dense, y []float64) (*Fit, error) {
	n, k := x.Dims()
	if k == 0 {
		return nil, ErrNoExplanatoryVars
	}
	if len(y) != n {
		return nil, fmt.Errorf("%w: %d observations for %d rows", ErrInvalidArgument, len(y), n)
	}
	if n <= k {
		return nil, fmt.Errorf("%w: n=%d, k=%d", ErrNotEnoughObservations, n, k)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	xtxInv, err := invert(&xtx)
	if err != nil {
		return nil, err
	}

	yVec := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yVec)

	var beta mat.VecDense
	beta.MulVec(xtxInv, &xty)

	var yhat mat.VecDense
	yhat.MulVec(x, &beta)

	fit := &Fit{
		Coeffs:    make([]float64, k),
		StdErrors: make([]float64, k),
		TStats:    make([]float64, k),
		PValues:   make([]float64, k),
		Fitted:    make([]float64, n),
		Residuals: make([]float64, n),
		NObs:      n,
		NParams:   k,
	}

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)

	for i := 0; i < n; i++ {
		fit.Fitted[i] = yhat.AtVec(i)
		fit.Residuals[i] = y[i] - fit.Fitted[i]
		fit.SSR += fit.Residuals[i] * fit.Residuals[i]
		d := y[i] - mean
		fit.TSS += d * d
	}

	df := float64(n - k)
	fit.Sigma2 = fit.SSR / df

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	for i := 0; i < k; i++ {
		fit.Coeffs[i] = beta.AtVec(i)
		fit.StdErrors[i] = math.Sqrt(fit.Sigma2 * xtxInv.At(i, i))
		fit.TStats[i] = fit.Coeffs[i] / fit.StdErrors[i]
		fit.PValues[i] = 2 * tdist.Survival(math.Abs(fit.TStats[i]))
	}

	if fit.TSS > 0 {
		fit.RSquared = 1 - fit.SSR/fit.TSS
		fit.AdjRSquared = 1 - (1-fit.RSquared)*float64(n-1)/df
	}

	nf := float64(n)
	fit.LogLik = -nf / 2 * (math.Log(2*math.Pi) + math.Log(fit.SSR/nf) + 1)
	fit.AIC = -2*fit.LogLik + 2*float64(k)
	fit.BIC = -2*fit.LogLik + float64(k)*math.Log(nf)

	return fit, nil
}

// FTest returns the overall F statistic and its p-value for a fit whose
// first column is the intercept.
func (f *Fit) FTest() (stat, prob float64) {
	dfModel := float64(f.NParams - 1)
	dfResid := float64(f.NObs - f.NParams)
	if dfModel <= 0 || dfResid <= 0 || f.SSR == 0 {
		return math.NaN(), math.NaN()
	}
	ess := f.TSS - f.SSR
	stat = (ess / dfModel) / (f.SSR / dfResid)
	prob = distuv.F{D1: dfModel, D2: dfResid}.Survival(stat)
	return stat, prob
}

// WithIntercept returns a copy of X with a leading column of ones.
func WithIntercept(x *mat.Dense) *mat.Dense {
	n, k := x.Dims()
	out := mat.NewDense(n, k+1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, 1)
		for j := 0; j < k; j++ {
			out.Set(i, j+1, x.At(i, j))
		}
	}
	return out
}

// invert returns the inverse of a square matrix, mapping gonum's condition
// errors onto ErrSingular.
func invert(a mat.Matrix) (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
		return nil, err
	}
	return &inv, nil
}
