package pipeline_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sartorproj/goecon/pipeline"
)

var _ = Describe("Config", func() {
	Context("defaults", func() {
		It("should be valid", func() {
			Expect(pipeline.DefaultConfig().Validate()).To(Succeed())
		})

		It("should model the reference analysis", func() {
			cfg := pipeline.DefaultConfig()
			Expect(cfg.Target).To(Equal("CLOSE"))
			Expect(cfg.TargetTransformed).To(Equal("D_CLOSE"))
			Expect(cfg.MaxDiffOrder).To(Equal(2))
			Expect(cfg.DropColumns).To(ConsistOf("INFLATION"))
		})
	})

	DescribeTable("validation failures",
		func(mutate func(*pipeline.Config)) {
			cfg := pipeline.DefaultConfig()
			mutate(cfg)
			Expect(cfg.Validate()).To(MatchError(pipeline.ErrInvalidConfig))
		},
		Entry("empty target", func(c *pipeline.Config) { c.Target = "" }),
		Entry("empty transformed target", func(c *pipeline.Config) { c.TargetTransformed = "" }),
		Entry("alpha of zero", func(c *pipeline.Config) { c.Alpha = 0 }),
		Entry("alpha of one", func(c *pipeline.Config) { c.Alpha = 1 }),
		Entry("differencing order of zero", func(c *pipeline.Config) { c.MaxDiffOrder = 0 }),
		Entry("train fraction above one", func(c *pipeline.Config) { c.TrainFraction = 1.5 }),
		Entry("inverted correlation band", func(c *pipeline.Config) { c.CorrLow, c.CorrHigh = 0.8, 0.2 }),
		Entry("negative min variance", func(c *pipeline.Config) { c.MinVariance = -1 }),
		Entry("negative top n", func(c *pipeline.Config) { c.TopN = -1 }),
		Entry("negative workers", func(c *pipeline.Config) { c.Workers = -2 }),
		Entry("no diagnostic lags", func(c *pipeline.Config) { c.DiagnosticLags = 0 }),
	)

	Context("files", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should overlay YAML on the defaults", func() {
			path := filepath.Join(dir, "goecon.yaml")
			Expect(os.WriteFile(path, []byte("target: PRICE\ntarget_transformed: D_PRICE\nmax_diff_order: 3\n"), 0o644)).To(Succeed())

			cfg, err := pipeline.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Target).To(Equal("PRICE"))
			Expect(cfg.MaxDiffOrder).To(Equal(3))
			Expect(cfg.Alpha).To(Equal(0.05))
			Expect(cfg.TopN).To(Equal(5))
		})

		It("should reject an invalid file", func() {
			path := filepath.Join(dir, "bad.yaml")
			Expect(os.WriteFile(path, []byte("alpha: 2\n"), 0o644)).To(Succeed())

			_, err := pipeline.LoadConfig(path)
			Expect(err).To(MatchError(pipeline.ErrInvalidConfig))
		})

		It("should round trip through Save", func() {
			path := filepath.Join(dir, "saved.yaml")
			cfg := pipeline.DefaultConfig()
			cfg.Workers = 3
			cfg.Store = "runs.db"
			Expect(cfg.Save(path)).To(Succeed())

			loaded, err := pipeline.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("should fail on a missing file", func() {
			_, err := pipeline.LoadConfig(filepath.Join(dir, "missing.yaml"))
			Expect(err).To(HaveOccurred())
		})
	})
})
