package stats

import (
	"math"

	"go.uber.org/zap"

	"github.com/sartorproj/goecon/timeseries"
)

const (
	// DefaultAlpha is the significance level used for both tests.
	DefaultAlpha = 0.05
	// MinObservations is the smallest sample the tester will judge.
	MinObservations = 20
)

// Verdict is the joint outcome of the ADF and KPSS tests on one series.
type Verdict struct {
	Stationary bool
	NObs       int
	ADF        *ADFResult
	KPSS       *KPSSResult
	// Err is set when a test could not be computed. Stationary is then false.
	Err error
}

// Tester decides whether a series is stationary. A series passes when ADF
// rejects a unit root (p < Alpha) and KPSS does not reject stationarity
// (p > Alpha).
type Tester struct {
	Alpha  float64
	MinObs int
	Logger *zap.Logger
}

// NewTester returns a tester with the default significance level.
func NewTester(logger *zap.Logger) *Tester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tester{Alpha: DefaultAlpha, MinObs: MinObservations, Logger: logger}
}

// IsStationary reports the verdict for values. NaN entries are dropped
// first.
func (t *Tester) IsStationary(values []float64) bool {
	return t.Test(values).Stationary
}

// Test runs both tests on the non-NaN entries of values. It never fails:
// too few observations or a test that cannot be computed yield a
// non-stationary verdict.
func (t *Tester) Test(values []float64) Verdict {
	return t.test("", values)
}

func (t *Tester) test(name string, values []float64) Verdict {
	series := timeseries.NewNamed(name, values).DropNaN()

	v := Verdict{NObs: series.Len()}
	if v.NObs < t.minObs() {
		return v
	}

	adf, err := ADF(series, 0)
	if err != nil {
		v.Err = err
		t.logger().Warn("adf test failed", zap.String("series", name), zap.Error(err))
		return v
	}
	kpss, err := KPSS(series, "c", 0)
	if err != nil {
		v.Err = err
		t.logger().Warn("kpss test failed", zap.String("series", name), zap.Error(err))
		return v
	}

	alpha := t.alpha()
	v.ADF, v.KPSS = adf, kpss
	v.Stationary = adf.PValue < alpha && kpss.PValue > alpha
	return v
}

// Classify tests every column of table and splits the names, in column
// order, into non-stationary and stationary.
func (t *Tester) Classify(table *timeseries.Table) (nonStationary, stationary []string) {
	for _, name := range table.Names() {
		col, _ := table.Column(name)
		v := t.test(name, col)
		t.logger().Info("stationarity",
			zap.String("series", name),
			zap.Bool("stationary", v.Stationary),
			zap.Int("nobs", v.NObs),
			zap.Float64("adf_p", v.adfP()),
			zap.Float64("kpss_p", v.kpssP()))
		if v.Stationary {
			stationary = append(stationary, name)
		} else {
			nonStationary = append(nonStationary, name)
		}
	}
	return nonStationary, stationary
}

func (v Verdict) adfP() float64 {
	if v.ADF == nil {
		return math.NaN()
	}
	return v.ADF.PValue
}

func (v Verdict) kpssP() float64 {
	if v.KPSS == nil {
		return math.NaN()
	}
	return v.KPSS.PValue
}

func (t *Tester) alpha() float64 {
	if t.Alpha <= 0 {
		return DefaultAlpha
	}
	return t.Alpha
}

func (t *Tester) minObs() int {
	if t.MinObs <= 0 {
		return MinObservations
	}
	return t.MinObs
}

func (t *Tester) logger() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}
