package pipeline_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sartorproj/goecon/pipeline"
	"github.com/sartorproj/goecon/timeseries"
)

// bandTable holds a trend target and predictors whose correlation with it
// is known in closed form: TWIN is 1, MID about 0.49, ZIGZAG about 0.02.
func bandTable() *timeseries.Table {
	const n = 100
	y := make([]float64, n)
	twin := make([]float64, n)
	mid := make([]float64, n)
	zigzag := make([]float64, n)
	for i := range y {
		alt := 1.0
		if i%2 == 1 {
			alt = -1
		}
		y[i] = float64(i)
		twin[i] = 2*float64(i) + 3
		mid[i] = float64(i) + 50*alt
		zigzag[i] = alt
	}
	t := timeseries.NewTable()
	Expect(t.AddColumn("Y", y)).To(Succeed())
	Expect(t.AddColumn("TWIN", twin)).To(Succeed())
	Expect(t.AddColumn("MID", mid)).To(Succeed())
	Expect(t.AddColumn("ZIGZAG", zigzag)).To(Succeed())
	return t
}

var _ = Describe("FilterByCorrelation", func() {
	It("should keep only predictors inside the band", func() {
		out, checks, removed, err := pipeline.FilterByCorrelation(bandTable(), "Y", 0.3, 0.75)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Names()).To(Equal([]string{"Y", "MID"}))
		Expect(removed).To(Equal([]string{"TWIN", "ZIGZAG"}))

		Expect(checks).To(HaveLen(3))
		Expect(checks[0].Variable).To(Equal("TWIN"))
		Expect(float64(checks[0].R)).To(BeNumerically("~", 1, 1e-9))
		Expect(checks[1].Kept).To(BeTrue())
		Expect(float64(checks[1].R)).To(BeNumerically("~", 0.489, 0.005))
		Expect(float64(checks[2].R)).To(BeNumerically("<", 0.05))
	})

	It("should include the band edges", func() {
		_, _, removed, err := pipeline.FilterByCorrelation(bandTable(), "Y", 0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(removed).To(BeEmpty())
	})

	It("should remove a constant predictor", func() {
		t := bandTable()
		Expect(t.AddColumn("FLAT", make([]float64, t.Len()))).To(Succeed())

		_, checks, removed, err := pipeline.FilterByCorrelation(t, "Y", 0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(removed).To(ConsistOf("FLAT"))
		Expect(math.IsNaN(float64(checks[3].R))).To(BeTrue())
	})

	It("should fail without the target", func() {
		_, _, _, err := pipeline.FilterByCorrelation(bandTable(), "CLOSE", 0.3, 0.75)
		Expect(err).To(MatchError(pipeline.ErrTargetMissing))
	})
})

var _ = Describe("LowVariance", func() {
	var t *timeseries.Table

	BeforeEach(func() {
		t = timeseries.NewTable()
		Expect(t.AddColumn("WIDE", []float64{10, 20, 30, 40})).To(Succeed())
		Expect(t.AddColumn("NARROW", []float64{1, 1.001, 0.999, 1})).To(Succeed())
		Expect(t.AddColumn("TARGET", []float64{5, 5.0001, 5, 5.0001})).To(Succeed())
	})

	It("should report the spread of every column", func() {
		stats, removed := pipeline.LowVariance(t, 0, "TARGET")
		Expect(removed).To(BeEmpty())
		Expect(stats).To(HaveLen(3))
		Expect(stats[0].Variable).To(Equal("WIDE"))
		Expect(stats[0].Variance).To(BeNumerically("~", 500.0/3, 1e-9))
		Expect(float64(stats[0].CV)).To(BeNumerically("~", math.Sqrt(500.0/3)/25*100, 1e-9))
	})

	It("should flag columns below the threshold but never the target", func() {
		_, removed := pipeline.LowVariance(t, 0.01, "TARGET")
		Expect(removed).To(Equal([]string{"NARROW"}))
	})

	It("should report an undefined CV for a zero mean", func() {
		z := timeseries.NewTable()
		Expect(z.AddColumn("Z", []float64{-1, 1, -1, 1})).To(Succeed())
		stats, _ := pipeline.LowVariance(z, 0, "")
		Expect(math.IsInf(float64(stats[0].CV), 1)).To(BeTrue())
	})
})
