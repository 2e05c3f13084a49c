package pipeline

import (
	"fmt"
	"math"

	"github.com/sartorproj/goecon/timeseries"
)

// Metrics are out-of-sample forecast errors.
type Metrics struct {
	N    int   `yaml:"n" json:"n"`
	MAE  Float `yaml:"mae" json:"mae"`
	RMSE Float `yaml:"rmse" json:"rmse"`
	// MAPE averages only the finite percentage errors and is NaN when
	// every actual value is zero.
	MAPE  Float `yaml:"mape" json:"mape"`
	SMAPE Float `yaml:"smape" json:"smape"`
}

// Evaluate compares predictions with actual values.
func Evaluate(actual, predicted []float64) (*Metrics, error) {
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("%w: %d actual values, %d predictions", timeseries.ErrLengthMismatch, len(actual), len(predicted))
	}
	n := len(actual)
	if n == 0 {
		return nil, fmt.Errorf("%w: no observations to evaluate", timeseries.ErrLengthMismatch)
	}

	var absSum, sqSum, apeSum, sapeSum float64
	apeN := 0
	for i := range actual {
		e := actual[i] - predicted[i]
		absSum += math.Abs(e)
		sqSum += e * e

		if ape := math.Abs(e/actual[i]) * 100; !math.IsNaN(ape) && !math.IsInf(ape, 0) {
			apeSum += ape
			apeN++
		}
		// both zero is a perfect forecast
		if den := math.Abs(actual[i]) + math.Abs(predicted[i]); den > 0 {
			sapeSum += 2 * math.Abs(e) / den
		}
	}

	nf := float64(n)
	m := &Metrics{
		N:     n,
		MAE:   Float(absSum / nf),
		RMSE:  Float(math.Sqrt(sqSum / nf)),
		MAPE:  Float(math.NaN()),
		SMAPE: Float(sapeSum / nf * 100),
	}
	if apeN > 0 {
		m.MAPE = Float(apeSum / float64(apeN))
	}
	return m, nil
}
