// Package timeseries provides core time series data structures and operations.
package timeseries

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Series represents a time series with timestamps and values.
// A NaN value marks a missing observation.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// New creates a new time series from values.
func New(values []float64) *Series {
	return &Series{Values: values}
}

// NewNamed creates a named time series from values.
func NewNamed(name string, values []float64) *Series {
	return &Series{Values: values, Name: name}
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Std calculates the sample standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// DropNaN returns a copy of the series without missing values.
func (s *Series) DropNaN() *Series {
	values := make([]float64, 0, len(s.Values))
	var timestamps []time.Time
	withTime := len(s.Timestamps) == len(s.Values)
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		values = append(values, v)
		if withTime {
			timestamps = append(timestamps, s.Timestamps[i])
		}
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// DiffN differences the series n times. The result has the same length as
// the input; the first n positions are NaN so rows stay aligned with the
// original index.
func (s *Series) DiffN(n int) *Series {
	values := difference(s.Values, n)

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// difference returns x differenced order times, padded with leading NaN to
// len(x). Order 0 returns a copy. A NaN anywhere in the inputs of a
// difference propagates to its output.
func difference(x []float64, order int) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	for d := 0; d < order; d++ {
		for i := len(out) - 1; i > 0; i-- {
			out[i] -= out[i-1]
		}
		if len(out) > 0 {
			out[0] = math.NaN()
		}
	}
	return out
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	var timestamps []time.Time
	if s.Timestamps != nil {
		timestamps = make([]time.Time, len(s.Timestamps))
		copy(timestamps, s.Timestamps)
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// Log applies natural logarithm transformation.
// Non-positive values become NaN.
func (s *Series) Log() *Series {
	result := make([]float64, len(s.Values))
	for i, v := range s.Values {
		if v > 0 {
			result[i] = math.Log(v)
		} else {
			result[i] = math.NaN()
		}
	}

	out := s.Copy()
	out.Values = result
	return out
}

// Interpolate fills missing values linearly between known neighbours.
// Leading and trailing gaps take the nearest known value. A series with no
// known value is returned unchanged.
func (s *Series) Interpolate() *Series {
	out := s.Copy()
	out.Values = interpolate(out.Values)
	return out
}

func interpolate(x []float64) []float64 {
	prev := -1
	for i, v := range x {
		if math.IsNaN(v) {
			continue
		}
		switch {
		case prev == -1:
			for j := 0; j < i; j++ {
				x[j] = v
			}
		case i-prev > 1:
			step := (v - x[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				x[j] = x[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
	if prev >= 0 {
		for j := prev + 1; j < len(x); j++ {
			x[j] = x[prev]
		}
	}
	return x
}
