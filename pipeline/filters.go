package pipeline

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goecon/timeseries"
)

// ErrTargetMissing is returned when the response column is absent.
var ErrTargetMissing = errors.New("target column not found")

// CorrelationCheck is the outcome of the correlation band filter for one
// predictor.
type CorrelationCheck struct {
	Variable string `yaml:"variable" json:"variable"`
	R        Float  `yaml:"r" json:"r"`
	Kept     bool   `yaml:"kept" json:"kept"`
}

// FilterByCorrelation drops every predictor whose absolute correlation
// with target lies outside [low, high]. It returns the filtered table, the
// per-predictor checks in column order and the removed names. A predictor
// whose correlation is undefined, such as a constant column, is removed.
func FilterByCorrelation(table *timeseries.Table, target string, low, high float64) (*timeseries.Table, []CorrelationCheck, []string, error) {
	y, ok := table.Column(target)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %q", ErrTargetMissing, target)
	}

	var (
		checks  []CorrelationCheck
		removed []string
	)
	for _, name := range table.Names() {
		if name == target {
			continue
		}
		x, _ := table.Column(name)
		r := math.Abs(stat.Correlation(x, y, nil))
		kept := r >= low && r <= high
		checks = append(checks, CorrelationCheck{Variable: name, R: Float(r), Kept: kept})
		if !kept {
			removed = append(removed, name)
		}
	}
	return table.Drop(removed...), checks, removed, nil
}

// VarianceStat describes the spread of one column.
type VarianceStat struct {
	Variable string  `yaml:"variable" json:"variable"`
	Variance float64 `yaml:"variance" json:"variance"`
	// CV is the coefficient of variation in percent, std/|mean|*100.
	CV Float `yaml:"cv" json:"cv"`
}

// LowVariance computes the variance statistics of every column and lists
// the columns, other than keep, whose variance is below minVariance. A
// minVariance of zero never removes anything.
func LowVariance(table *timeseries.Table, minVariance float64, keep string) ([]VarianceStat, []string) {
	var (
		out     []VarianceStat
		removed []string
	)
	for _, name := range table.Names() {
		s, _ := table.Series(name)
		v := s.Variance()
		out = append(out, VarianceStat{Variable: name, Variance: v, CV: Float(s.Std() / math.Abs(s.Mean()) * 100)})
		if minVariance > 0 && v < minVariance && name != keep {
			removed = append(removed, name)
		}
	}
	return out, removed
}
