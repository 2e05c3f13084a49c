package pipeline_test

import (
	"encoding/json"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sartorproj/goecon/pipeline"
	"github.com/sartorproj/goecon/timeseries"
)

var _ = Describe("Evaluate", func() {
	It("should compute the error metrics", func() {
		m, err := pipeline.Evaluate([]float64{1, 2, 4}, []float64{2, 2, 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.N).To(Equal(3))
		Expect(float64(m.MAE)).To(BeNumerically("~", 1, 1e-12))
		Expect(float64(m.RMSE)).To(BeNumerically("~", math.Sqrt(5.0/3), 1e-12))
		// |1-2|/1, 0, |4-2|/4
		Expect(float64(m.MAPE)).To(BeNumerically("~", 50, 1e-9))
		// 2/3, 0, 2/3
		Expect(float64(m.SMAPE)).To(BeNumerically("~", 400.0/9, 1e-9))
	})

	It("should skip zero actual values in MAPE", func() {
		m, err := pipeline.Evaluate([]float64{0, 2}, []float64{1, 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(float64(m.MAPE)).To(BeNumerically("~", 50, 1e-9))
	})

	It("should leave MAPE undefined when every actual is zero", func() {
		m, err := pipeline.Evaluate([]float64{0, 0}, []float64{0, 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(math.IsNaN(float64(m.MAPE))).To(BeTrue())
		// the first pair is a perfect forecast, the second scores 2
		Expect(float64(m.SMAPE)).To(BeNumerically("~", 100, 1e-9))

		data, err := json.Marshal(m)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"mape":null`))
	})

	It("should reject mismatched input", func() {
		_, err := pipeline.Evaluate([]float64{1, 2}, []float64{1})
		Expect(err).To(MatchError(timeseries.ErrLengthMismatch))

		_, err = pipeline.Evaluate(nil, nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Float", func() {
	It("should decode null as NaN", func() {
		var f pipeline.Float
		Expect(json.Unmarshal([]byte("null"), &f)).To(Succeed())
		Expect(math.IsNaN(float64(f))).To(BeTrue())

		Expect(json.Unmarshal([]byte("1.5"), &f)).To(Succeed())
		Expect(f).To(Equal(pipeline.Float(1.5)))
	})
})
