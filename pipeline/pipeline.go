package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sartorproj/goecon/hellwig"
	"github.com/sartorproj/goecon/regression"
	"github.com/sartorproj/goecon/stats"
	"github.com/sartorproj/goecon/timeseries"
	"github.com/sartorproj/goecon/transform"
)

// ljungBoxLags is the horizon of the residual portmanteau test.
const ljungBoxLags = 10

// ErrNoTestRows is logged when the hold-out sample is empty after
// transformation; evaluation is then skipped.
var ErrNoTestRows = errors.New("no rows left for evaluation")

// Pipeline runs the full analysis: filtering, log transform, differencing
// to stationarity, Hellwig selection, OLS fit, residual diagnostics and
// out-of-sample evaluation.
type Pipeline struct {
	cfg      *Config
	logger   *zap.Logger
	checker  transform.StationarityChecker
	registry prometheus.Registerer
	metrics  *instruments
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithChecker replaces the ADF/KPSS tester used both to classify columns
// and to pick differencing orders.
func WithChecker(c transform.StationarityChecker) Option {
	return func(p *Pipeline) {
		p.checker = c
	}
}

// WithRegisterer registers the pipeline's Prometheus collectors with reg.
// Pipelines sharing a registerer share their collectors.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Pipeline) {
		p.registry = reg
	}
}

// New validates cfg and returns a pipeline.
func New(cfg *Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.checker == nil {
		p.checker = &stats.Tester{Alpha: cfg.Alpha, MinObs: stats.MinObservations, Logger: p.logger}
	}
	p.metrics = newInstruments()
	if p.registry != nil {
		if err := p.metrics.register(p.registry); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() *Config {
	return p.cfg
}

// Run analyses data. The target column must be present; every other column
// is a candidate predictor.
func (p *Pipeline) Run(ctx context.Context, data *timeseries.Table) (*Report, error) {
	report, err := p.run(ctx, data)
	result := "success"
	if err != nil {
		result = "error"
	}
	p.metrics.runs.WithLabelValues(result).Inc()
	return report, err
}

func (p *Pipeline) run(ctx context.Context, data *timeseries.Table) (*Report, error) {
	cfg := p.cfg
	log := p.logger
	if !data.Has(cfg.Target) {
		return nil, fmt.Errorf("%w: %q", ErrTargetMissing, cfg.Target)
	}

	report := &Report{Config: cfg}

	done := p.metrics.timeStage(stagePrepare)
	train, test := data.Interpolate().Split(cfg.TrainFraction)
	log.Info("split data", zap.Int("train", train.Len()), zap.Int("test", test.Len()))

	train, checks, removed, err := FilterByCorrelation(train, cfg.Target, cfg.CorrLow, cfg.CorrHigh)
	if err != nil {
		return nil, err
	}
	test = test.Drop(removed...)
	report.Correlations, report.RemovedByCorr = checks, removed
	log.Info("correlation filter", zap.Strings("removed", removed), zap.Int("kept", train.Width()-1))

	for _, name := range cfg.DropColumns {
		if name == cfg.Target || !train.Has(name) {
			continue
		}
		report.Dropped = append(report.Dropped, name)
	}
	train, test = train.Drop(report.Dropped...), test.Drop(report.Dropped...)

	if cfg.LogTransform {
		if test, err = test.Select(train.Names()...); err != nil {
			return nil, fmt.Errorf("aligning test columns: %w", err)
		}
		var bad int
		train, bad = train.Log()
		test, _ = test.Log()
		report.NonPositiveRows = bad
		if bad > 0 {
			log.Warn("non-positive values replaced before log transform", zap.Int("rows", bad))
		}
	}

	nonStationary, initial := p.classify(train)
	report.Initial = initial
	done()

	done = p.metrics.timeStage(stageDifference)
	train, recipe, err := transform.MakeStationary(train, nonStationary, cfg.MaxDiffOrder,
		transform.WithTester(p.checker), transform.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("differencing: %w", err)
	}
	if missing := recipe.Missing(test); len(missing) > 0 {
		log.Debug("test table lacks recipe variables", zap.Strings("missing", missing))
	}
	test = recipe.Apply(test)
	report.Recipe = recipe
	for _, e := range recipe.Entries() {
		p.metrics.differencing.WithLabelValues(e.Variable).Set(float64(e.Order))
	}

	_, report.Rechecked = p.classify(train)

	report.Variance, report.RemovedByVariance = LowVariance(train, cfg.MinVariance, cfg.TargetTransformed)
	if len(report.RemovedByVariance) > 0 {
		log.Info("low variance columns removed", zap.Strings("columns", report.RemovedByVariance))
		train, test = train.Drop(report.RemovedByVariance...), test.Drop(report.RemovedByVariance...)
	}
	report.TrainRows, report.TestRows = train.Len(), test.Len()
	done()

	y, ok := train.Column(cfg.TargetTransformed)
	if !ok {
		return nil, fmt.Errorf("%w: %q after transformation", ErrTargetMissing, cfg.TargetTransformed)
	}
	candidates := train.Drop(cfg.TargetTransformed)

	done = p.metrics.timeStage(stageSelect)
	ranking, err := hellwig.SelectBestConcurrent(ctx, y, candidates, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("hellwig selection: %w", err)
	}
	best, _ := hellwig.Best(ranking)
	report.Selected = best.Predictors
	report.Ranking = ranking
	if cfg.TopN > 0 && len(ranking) > cfg.TopN {
		report.Ranking = ranking[:cfg.TopN]
	}
	log.Info("best predictor subset",
		zap.Strings("predictors", best.Predictors), zap.Float64("capacity", best.Capacity),
		zap.Int("subsets", len(ranking)))
	p.metrics.subsetsScored.Add(float64(len(ranking)))
	done()

	done = p.metrics.timeStage(stageFit)
	model, err := regression.OLS(cfg.TargetTransformed, train, best.Predictors)
	if err != nil {
		return nil, fmt.Errorf("fitting model: %w", err)
	}
	report.Model = summarize(model)
	log.Info("model fitted", zap.String("formula", model.Formula()), zap.Float64("r_squared", model.RSquared))

	report.Diagnostics = p.diagnose(model)
	p.metrics.modelRSquared.Set(model.RSquared)
	done()

	if test.Len() == 0 {
		log.Warn("skipping evaluation", zap.Error(ErrNoTestRows))
		return report, nil
	}
	defer p.metrics.timeStage(stageEvaluate)()
	predicted, err := model.Predict(test)
	if err != nil {
		return nil, fmt.Errorf("predicting test rows: %w", err)
	}
	actual, ok := test.Column(cfg.TargetTransformed)
	if !ok {
		return nil, fmt.Errorf("%w: %q in test rows", ErrTargetMissing, cfg.TargetTransformed)
	}
	if report.Metrics, err = Evaluate(actual, predicted); err != nil {
		return nil, err
	}
	p.metrics.holdoutRMSE.Set(float64(report.Metrics.RMSE))
	log.Info("out of sample",
		zap.Float64("mae", float64(report.Metrics.MAE)), zap.Float64("rmse", float64(report.Metrics.RMSE)))

	return report, nil
}

// classify splits the columns of table by the pipeline's checker.
func (p *Pipeline) classify(table *timeseries.Table) ([]string, []StationarityCheck) {
	var nonStationary []string
	checks := make([]StationarityCheck, 0, table.Width())
	for _, name := range table.Names() {
		col, _ := table.Column(name)
		ok := p.checker.IsStationary(col)
		checks = append(checks, StationarityCheck{Variable: name, Stationary: ok})
		if !ok {
			nonStationary = append(nonStationary, name)
		}
		p.logger.Debug("stationarity", zap.String("series", name), zap.Bool("stationary", ok))
	}
	return nonStationary, checks
}

// diagnose runs the residual tests. A test that cannot be computed is
// logged and left out.
func (p *Pipeline) diagnose(m *regression.Model) *Diagnostics {
	alpha := p.cfg.Alpha
	d := &Diagnostics{DurbinWatson: Float(stats.DurbinWatson(m.Residuals))}
	add := func(r regression.TestResult) {
		d.Tests = append(d.Tests, Diagnostic{
			Name:      r.Name,
			Statistic: Float(r.Statistic),
			PValue:    Float(r.PValue),
			DF:        Float(r.DF),
			Rejected:  r.Rejects(alpha),
		})
	}
	skip := func(name string, err error) {
		p.logger.Warn("diagnostic skipped", zap.String("test", name), zap.Error(err))
	}

	if jb, err := stats.JarqueBera(m.Residuals); err != nil {
		skip("Jarque-Bera", err)
	} else {
		add(regression.TestResult{Name: "Jarque-Bera", Statistic: jb.Statistic, PValue: jb.PValue, DF: 2})
	}

	if sw, err := stats.ShapiroWilk(m.Residuals); err != nil {
		skip("Shapiro-Wilk", err)
	} else {
		add(regression.TestResult{Name: "Shapiro-Wilk", Statistic: sw.Statistic, PValue: sw.PValue})
	}

	if lb, err := stats.LjungBox(timeseries.New(m.Residuals), ljungBoxLags, 0); err != nil {
		skip("Ljung-Box", err)
	} else {
		add(regression.TestResult{Name: "Ljung-Box", Statistic: lb.Statistic, PValue: lb.PValue, DF: float64(lb.DOF)})
	}

	tests := []struct {
		name string
		run  func() (regression.TestResult, error)
	}{
		{"Breusch-Godfrey", func() (regression.TestResult, error) { return regression.BreuschGodfrey(m, p.cfg.DiagnosticLags) }},
		{"Breusch-Pagan", func() (regression.TestResult, error) { return regression.BreuschPagan(m) }},
		{"Goldfeld-Quandt", func() (regression.TestResult, error) { return regression.GoldfeldQuandt(m) }},
	}
	for _, t := range tests {
		r, err := t.run()
		if err != nil {
			skip(t.name, err)
			continue
		}
		add(r)
	}

	vif, err := regression.VIF(m)
	if err != nil {
		skip("VIF", err)
		return d
	}
	d.VIF = make(map[string]Float, len(vif))
	for i, name := range m.Predictors {
		d.VIF[name] = Float(vif[i])
	}
	return d
}
