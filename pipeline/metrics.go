package pipeline

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "goecon"

// Pipeline stages as reported in the stage label.
const (
	stagePrepare    = "prepare"
	stageDifference = "difference"
	stageSelect     = "select"
	stageFit        = "fit"
	stageEvaluate   = "evaluate"
)

// instruments are the Prometheus collectors of one Pipeline.
type instruments struct {
	stageDuration *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	subsetsScored prometheus.Counter
	differencing  *prometheus.GaugeVec
	holdoutRMSE   prometheus.Gauge
	modelRSquared prometheus.Gauge
}

func newInstruments() *instruments {
	return &instruments{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"stage"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"result"}),
		subsetsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "hellwig",
			Name:      "subsets_scored_total",
			Help:      "Predictor subsets scored by Hellwig selection.",
		}),
		differencing: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "transform",
			Name:      "differencing_order",
			Help:      "Differencing order chosen for each variable in the last run.",
		}, []string{"variable"}),
		holdoutRMSE: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "holdout_rmse",
			Help:      "Out-of-sample RMSE of the last run.",
		}),
		modelRSquared: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "model_r_squared",
			Help:      "In-sample R-squared of the last fitted model.",
		}),
	}
}

// register adds the collectors to reg, reusing collectors that an earlier
// pipeline already registered there.
func (in *instruments) register(reg prometheus.Registerer) error {
	var err error
	if in.stageDuration, err = registerOrReuse(reg, in.stageDuration); err != nil {
		return err
	}
	if in.runs, err = registerOrReuse(reg, in.runs); err != nil {
		return err
	}
	if in.subsetsScored, err = registerOrReuse(reg, in.subsetsScored); err != nil {
		return err
	}
	if in.differencing, err = registerOrReuse(reg, in.differencing); err != nil {
		return err
	}
	if in.holdoutRMSE, err = registerOrReuse(reg, in.holdoutRMSE); err != nil {
		return err
	}
	in.modelRSquared, err = registerOrReuse(reg, in.modelRSquared)
	return err
}

func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

// timeStage returns a func that records the elapsed time of stage.
func (in *instruments) timeStage(stage string) func() {
	start := time.Now()
	return func() {
		in.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
