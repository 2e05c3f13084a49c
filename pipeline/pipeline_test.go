package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goecon/pipeline"
	"github.com/sartorproj/goecon/stats"
	"github.com/sartorproj/goecon/timeseries"
	"github.com/sartorproj/goecon/transform"
)

// lagOneChecker calls a series stationary when its lag-1 autocorrelation
// is small. Levels of a random walk fail, their differences pass.
type lagOneChecker struct{}

func (lagOneChecker) IsStationary(values []float64) bool {
	acf := stats.ACF(timeseries.New(values).DropNaN(), 1)
	return len(acf) == 2 && math.Abs(acf[1]) < 0.5
}

type alwaysStationary struct{}

func (alwaysStationary) IsStationary([]float64) bool { return true }

// marketTable simulates a price driven by one random-walk predictor, a
// stationary distraction and a slowly drifting rate.
func marketTable(n int) *timeseries.Table {
	rng := rand.New(rand.NewPCG(11, 17))
	closeP := make([]float64, n)
	x1 := make([]float64, n)
	noise := make([]float64, n)
	inflation := make([]float64, n)
	c, x, inf := 200.0, 100.0, 3.0
	for i := 0; i < n; i++ {
		e := rng.NormFloat64()
		x += e
		c += 2*e + 0.5*rng.NormFloat64()
		inf += 0.01 * rng.NormFloat64()
		closeP[i], x1[i], inflation[i] = c, x, inf
		noise[i] = 10 + rng.NormFloat64()
	}
	t := timeseries.NewTable()
	Expect(t.AddColumn("CLOSE", closeP)).To(Succeed())
	Expect(t.AddColumn("X1", x1)).To(Succeed())
	Expect(t.AddColumn("NOISE", noise)).To(Succeed())
	Expect(t.AddColumn("INFLATION", inflation)).To(Succeed())
	return t
}

func openBand(cfg *pipeline.Config) *pipeline.Config {
	cfg.CorrLow, cfg.CorrHigh = 0, 1
	return cfg
}

var _ = Describe("Pipeline", func() {
	var (
		ctx  context.Context
		data *timeseries.Table
	)

	BeforeEach(func() {
		ctx = context.Background()
		data = marketTable(200)
	})

	Context("New", func() {
		It("should reject an invalid configuration", func() {
			cfg := pipeline.DefaultConfig()
			cfg.Alpha = 0
			_, err := pipeline.New(cfg)
			Expect(err).To(MatchError(pipeline.ErrInvalidConfig))
		})

		It("should fall back to the default configuration", func() {
			p, err := pipeline.New(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Config()).To(Equal(pipeline.DefaultConfig()))
		})
	})

	Context("Run", func() {
		var (
			p    *pipeline.Pipeline
			logs *observer.ObservedLogs
		)

		BeforeEach(func() {
			var core zapcore.Core
			core, logs = observer.New(zap.DebugLevel)
			var err error
			p, err = pipeline.New(openBand(pipeline.DefaultConfig()), pipeline.WithChecker(lagOneChecker{}), pipeline.WithLogger(zap.New(core)))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should difference the random walks and keep the stationary column", func() {
			report, err := p.Run(ctx, data)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Dropped).To(Equal([]string{"INFLATION"}))
			Expect(report.Initial).To(Equal([]pipeline.StationarityCheck{
				{Variable: "CLOSE", Stationary: false},
				{Variable: "X1", Stationary: false},
				{Variable: "NOISE", Stationary: true},
			}))
			Expect(report.Recipe.Entries()).To(Equal([]transform.Entry{
				{Variable: "NOISE", Order: 0, Output: "NOISE"},
				{Variable: "CLOSE", Order: 1, Output: "D_CLOSE"},
				{Variable: "X1", Order: 1, Output: "D_X1"},
			}))
			for _, c := range report.Rechecked {
				Expect(c.Stationary).To(BeTrue(), c.Variable)
			}
		})

		It("should split before differencing", func() {
			report, err := p.Run(ctx, data)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.TrainRows).To(Equal(159))
			Expect(report.TestRows).To(Equal(39))
			Expect(report.Metrics.N).To(Equal(39))
		})

		It("should select the driving predictor and fit it", func() {
			report, err := p.Run(ctx, data)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Ranking).To(HaveLen(3))
			Expect(report.Selected).To(ContainElement("D_X1"))
			Expect(report.Selected).To(Equal(report.Ranking[0].Predictors))

			Expect(report.Model.Coefficients).To(HaveLen(len(report.Selected) + 1))
			Expect(report.Model.Coefficients[0].Term).To(Equal("const"))
			Expect(float64(report.Model.RSquared)).To(BeNumerically(">", 0.5))
			Expect(report.Model.Formula).To(HavePrefix("D_CLOSE = "))

			names := make([]string, 0, len(report.Diagnostics.Tests))
			for _, t := range report.Diagnostics.Tests {
				names = append(names, t.Name)
			}
			Expect(names).To(Equal([]string{"Jarque-Bera", "Shapiro-Wilk", "Ljung-Box", "Breusch-Godfrey", "Breusch-Pagan", "Goldfeld-Quandt"}))
			Expect(report.Diagnostics.VIF).To(HaveLen(len(report.Selected)))
			Expect(float64(report.Diagnostics.DurbinWatson)).To(BeNumerically(">", 0))
			Expect(float64(report.Metrics.RMSE)).To(BeNumerically(">", 0))
		})

		It("should log the selection", func() {
			_, err := p.Run(ctx, data)
			Expect(err).NotTo(HaveOccurred())
			entries := logs.FilterMessage("best predictor subset").All()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].ContextMap()).To(HaveKeyWithValue("subsets", int64(3)))
		})

		It("should truncate the ranking to top n", func() {
			p.Config().TopN = 1
			report, err := p.Run(ctx, data)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Ranking).To(HaveLen(1))
			Expect(report.Selected).To(Equal(report.Ranking[0].Predictors))
		})

		It("should encode the report", func() {
			report, err := p.Run(ctx, data)
			Expect(err).NotTo(HaveOccurred())

			var js bytes.Buffer
			Expect(report.WriteJSON(&js)).To(Succeed())
			var decoded pipeline.Report
			Expect(json.Unmarshal(js.Bytes(), &decoded)).To(Succeed())
			Expect(decoded.Recipe.Entries()).To(Equal(report.Recipe.Entries()))
			Expect(decoded.Selected).To(Equal(report.Selected))

			var ys bytes.Buffer
			Expect(report.WriteYAML(&ys)).To(Succeed())
			var fromYAML pipeline.Report
			Expect(yaml.Unmarshal(ys.Bytes(), &fromYAML)).To(Succeed())
			Expect(fromYAML.TrainRows).To(Equal(report.TrainRows))

			Expect(report.String()).To(ContainSubstring("Hellwig ranking"))
			Expect(report.String()).To(ContainSubstring("D_X1"))
		})

		It("should fail without the target column", func() {
			_, err := p.Run(ctx, data.Drop("CLOSE"))
			Expect(err).To(MatchError(pipeline.ErrTargetMissing))
		})

		It("should stop when cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := p.Run(cancelled, data)
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Context("metrics", func() {
		It("should record a run", func() {
			reg := prometheus.NewRegistry()
			p, err := pipeline.New(openBand(pipeline.DefaultConfig()), pipeline.WithChecker(lagOneChecker{}), pipeline.WithRegisterer(reg))
			Expect(err).NotTo(HaveOccurred())

			report, err := p.Run(ctx, data)
			Expect(err).NotTo(HaveOccurred())

			Expect(testutil.ToFloat64(pipeline.RunsTotal(p).WithLabelValues("success"))).To(Equal(1.0))
			Expect(testutil.ToFloat64(pipeline.SubsetsScored(p))).To(Equal(3.0))
			Expect(testutil.ToFloat64(pipeline.DifferencingOrder(p).WithLabelValues("CLOSE"))).To(Equal(1.0))
			Expect(testutil.ToFloat64(pipeline.HoldoutRMSE(p))).To(Equal(float64(report.Metrics.RMSE)))
			stages, err := testutil.GatherAndCount(reg, "goecon_pipeline_stage_duration_seconds")
			Expect(err).NotTo(HaveOccurred())
			Expect(stages).To(Equal(5))
		})

		It("should count failures", func() {
			reg := prometheus.NewRegistry()
			p, err := pipeline.New(openBand(pipeline.DefaultConfig()), pipeline.WithChecker(lagOneChecker{}), pipeline.WithRegisterer(reg))
			Expect(err).NotTo(HaveOccurred())

			_, err = p.Run(ctx, data.Drop("CLOSE"))
			Expect(err).To(HaveOccurred())
			Expect(testutil.ToFloat64(pipeline.RunsTotal(p).WithLabelValues("error"))).To(Equal(1.0))
		})

		It("should share collectors between pipelines on one registry", func() {
			reg := prometheus.NewRegistry()
			first, err := pipeline.New(openBand(pipeline.DefaultConfig()), pipeline.WithChecker(lagOneChecker{}), pipeline.WithRegisterer(reg))
			Expect(err).NotTo(HaveOccurred())
			second, err := pipeline.New(openBand(pipeline.DefaultConfig()), pipeline.WithChecker(lagOneChecker{}), pipeline.WithRegisterer(reg))
			Expect(err).NotTo(HaveOccurred())

			_, err = first.Run(ctx, data)
			Expect(err).NotTo(HaveOccurred())
			_, err = second.Run(ctx, data)
			Expect(err).NotTo(HaveOccurred())
			Expect(testutil.ToFloat64(pipeline.RunsTotal(second).WithLabelValues("success"))).To(Equal(2.0))
		})
	})

	It("should fail when the target is never differenced", func() {
		p, err := pipeline.New(openBand(pipeline.DefaultConfig()), pipeline.WithChecker(alwaysStationary{}))
		Expect(err).NotTo(HaveOccurred())
		_, err = p.Run(context.Background(), data)
		Expect(err).To(MatchError(pipeline.ErrTargetMissing))
	})
})
