package transform

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sartorproj/goecon/stats"
	"github.com/sartorproj/goecon/timeseries"
)

// ErrInvalidOrder is returned for a maximum differencing order below 1.
var ErrInvalidOrder = errors.New("maximum differencing order must be at least 1")

// StationarityChecker judges a series. Missing values may be present and
// are the checker's to handle.
type StationarityChecker interface {
	IsStationary(values []float64) bool
}

type options struct {
	checker StationarityChecker
	logger  *zap.Logger
}

// Option configures MakeStationary.
type Option func(*options)

// WithTester sets the stationarity checker. The default is a stats.Tester
// at the 5% level.
func WithTester(c StationarityChecker) Option {
	return func(o *options) {
		o.checker = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// MakeStationary differences every column named in nonStationary by the
// smallest order in 1..maxOrder whose result passes the checker. When no
// order passes, maxOrder is used anyway. Other columns are copied
// unchanged. Copied columns come first, in table order, followed by the
// differenced ones in the order given; rows left incomplete by the
// differencing are dropped.
//
// The returned recipe holds one entry per input column and reproduces the
// output on any other table through Apply.
func MakeStationary(table *timeseries.Table, nonStationary []string, maxOrder int, opts ...Option) (*timeseries.Table, *Recipe, error) {
	if maxOrder < 1 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, maxOrder)
	}

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.checker == nil {
		o.checker = stats.NewTester(o.logger)
	}

	flagged := make(map[string]bool, len(nonStationary))
	var order []string
	for _, name := range nonStationary {
		if !table.Has(name) {
			return nil, nil, fmt.Errorf("%w: %q", timeseries.ErrUnknownColumn, name)
		}
		if !flagged[name] {
			flagged[name] = true
			order = append(order, name)
		}
	}

	entries := make([]Entry, 0, table.Width())
	for _, name := range table.Names() {
		if !flagged[name] {
			entries = append(entries, Entry{Variable: name, Order: 0, Output: name})
		}
	}
	for _, name := range order {
		col, _ := table.Column(name)
		d := firstPassingOrder(col, maxOrder, o.checker)
		if d == 0 {
			d = maxOrder
			o.logger.Info("no differencing order passed, using maximum",
				zap.String("variable", name), zap.Int("order", d))
		} else {
			o.logger.Debug("differencing order found",
				zap.String("variable", name), zap.Int("order", d))
		}
		entries = append(entries, Entry{Variable: name, Order: d, Output: OutputName(name, d)})
	}

	recipe, err := NewRecipe(entries...)
	if err != nil {
		return nil, nil, fmt.Errorf("building recipe: %w", err)
	}
	return recipe.Apply(table), recipe, nil
}

// firstPassingOrder returns the smallest order in 1..maxOrder whose
// difference passes the checker, or 0 when none does.
func firstPassingOrder(col []float64, maxOrder int, checker StationarityChecker) int {
	for d := 1; d <= maxOrder; d++ {
		if checker.IsStationary(timeseries.New(col).DiffN(d).DropNaN().Values) {
			return d
		}
	}
	return 0
}
