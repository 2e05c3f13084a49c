package hellwig

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goecon/timeseries"
)

// MaxPredictors bounds the candidate count; 2^k-1 subsets are scored and
// returned.
const MaxPredictors = 20

var (
	// ErrNoPredictors is returned for an empty predictor table.
	ErrNoPredictors = errors.New("no predictors")
	// ErrTooManyPredictors is returned above MaxPredictors candidates.
	ErrTooManyPredictors = errors.New("too many predictors")
	// ErrTooFewRows is returned when correlations cannot be estimated.
	ErrTooFewRows = errors.New("at least two rows are required")
	// ErrUndefinedCorrelation is returned when a correlation is NaN,
	// typically because a column is constant or holds missing values.
	ErrUndefinedCorrelation = errors.New("undefined correlation")
)

// Combination is a scored predictor subset.
type Combination struct {
	Predictors []string `yaml:"predictors" json:"predictors"`
	Capacity   float64  `yaml:"capacity" json:"capacity"`
}

// CorrelationMatrix holds the Pearson correlations of the target with each
// predictor (r0) and among predictors (Rxx).
type CorrelationMatrix struct {
	names []string
	r0    []float64
	rxx   *mat.SymDense
}

// NewCorrelationMatrix estimates the correlations of target and the
// columns of predictors.
func NewCorrelationMatrix(target []float64, predictors *timeseries.Table) (*CorrelationMatrix, error) {
	k := predictors.Width()
	if k == 0 {
		return nil, ErrNoPredictors
	}
	n := len(target)
	if predictors.Len() != n {
		return nil, fmt.Errorf("%w: target has %d rows, predictors %d", timeseries.ErrLengthMismatch, n, predictors.Len())
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewRows, n)
	}

	names := predictors.Names()
	data := mat.NewDense(n, k+1, nil)
	data.SetCol(0, target)
	for j, name := range names {
		col, _ := predictors.Column(name)
		data.SetCol(j+1, col)
	}

	var all mat.SymDense
	stat.CorrelationMatrix(&all, data, nil)

	m := &CorrelationMatrix{
		names: names,
		r0:    make([]float64, k),
		rxx:   mat.NewSymDense(k, nil),
	}
	for i := 0; i <= k; i++ {
		for j := i; j <= k; j++ {
			if math.IsNaN(all.At(i, j)) {
				return nil, fmt.Errorf("%w: %s and %s", ErrUndefinedCorrelation, m.label(i), m.label(j))
			}
		}
	}
	for j := 0; j < k; j++ {
		m.r0[j] = all.At(0, j+1)
		for l := j; l < k; l++ {
			m.rxx.SetSym(j, l, all.At(j+1, l+1))
		}
	}
	return m, nil
}

func (m *CorrelationMatrix) label(i int) string {
	if i == 0 {
		return "target"
	}
	return m.names[i-1]
}

// Names returns the predictor names in matrix order.
func (m *CorrelationMatrix) Names() []string {
	return append([]string(nil), m.names...)
}

// Target returns the correlation of predictor j with the target.
func (m *CorrelationMatrix) Target(j int) float64 {
	return m.r0[j]
}

// Between returns the correlation of predictors i and j.
func (m *CorrelationMatrix) Between(i, j int) float64 {
	return m.rxx.At(i, j)
}

// Capacity returns the integral information capacity of the predictor
// subset: the sum over members j of r0_j² / (1 + Σ|r_jl|), where l runs
// over the other members of the subset.
func Capacity(m *CorrelationMatrix, subset []int) float64 {
	h := 0.0
	for _, j := range subset {
		denom := 1.0
		for _, l := range subset {
			if l != j {
				denom += math.Abs(m.rxx.At(j, l))
			}
		}
		h += m.r0[j] * m.r0[j] / denom
	}
	return h
}

// SelectBest scores every non-empty subset of the predictor columns and
// returns them ordered by capacity, highest first. Subsets are enumerated
// by size and then lexicographically by column position; equal capacities
// keep that order.
func SelectBest(target []float64, predictors *timeseries.Table) ([]Combination, error) {
	m, err := prepare(target, predictors)
	if err != nil {
		return nil, err
	}
	results := make([]Combination, 0, subsetCount(len(m.names)))
	forEachSubset(len(m.names), func(idx []int) bool {
		results = append(results, m.combination(idx))
		return true
	})
	rank(results)
	return results, nil
}

func prepare(target []float64, predictors *timeseries.Table) (*CorrelationMatrix, error) {
	k := predictors.Width()
	if k == 0 {
		return nil, ErrNoPredictors
	}
	if k > MaxPredictors {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyPredictors, k, MaxPredictors)
	}
	return NewCorrelationMatrix(target, predictors)
}

func (m *CorrelationMatrix) combination(subset []int) Combination {
	names := make([]string, len(subset))
	for i, j := range subset {
		names[i] = m.names[j]
	}
	return Combination{Predictors: names, Capacity: Capacity(m, subset)}
}

func rank(results []Combination) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Capacity > results[j].Capacity
	})
}

func subsetCount(k int) int {
	return (1 << k) - 1
}

// forEachSubset calls fn with every non-empty subset of 0..k-1, by size and
// then in lexicographic order within a size, until fn returns false. idx is
// reused between calls.
func forEachSubset(k int, fn func(idx []int) bool) {
	for size := 1; size <= k; size++ {
		idx := make([]int, size)
		for i := range idx {
			idx[i] = i
		}
		for {
			if !fn(idx) {
				return
			}
			if !nextCombination(idx, k) {
				break
			}
		}
	}
}

// nextCombination advances idx to the next size-len(idx) combination of
// 0..k-1 in lexicographic order. It returns false after the last one.
func nextCombination(idx []int, k int) bool {
	size := len(idx)
	i := size - 1
	for i >= 0 && idx[i] == k-size+i {
		i--
	}
	if i < 0 {
		return false
	}
	idx[i]++
	for j := i + 1; j < size; j++ {
		idx[j] = idx[j-1] + 1
	}
	return true
}

// Best returns the highest ranked combination.
func Best(results []Combination) (Combination, bool) {
	if len(results) == 0 {
		return Combination{}, false
	}
	return results[0], true
}
