package timeseries

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrLengthMismatch signals a column whose length differs from the table's row count.
	ErrLengthMismatch = errors.New("column length does not match table")
	// ErrUnknownColumn signals a lookup of a column the table does not hold.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrDuplicateColumn signals an attempt to add a column name twice.
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Table is an ordered set of named, row-aligned numeric columns with an
// optional timestamp index. NaN marks a missing cell.
type Table struct {
	Index []time.Time

	names []string
	cols  map[string][]float64
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{cols: make(map[string][]float64)}
}

// NewTableFromSeries builds a table from named series of equal length.
func NewTableFromSeries(series ...*Series) (*Table, error) {
	t := NewTable()
	for _, s := range series {
		if err := t.AddColumn(s.Name, s.Values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.names) == 0 {
		return len(t.Index)
	}
	return len(t.cols[t.names[0]])
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.names)
}

// Names returns the column names in insertion order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Has reports whether the table holds a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// AddColumn appends a column. The values are copied.
func (t *Table) AddColumn(name string, values []float64) error {
	if t.cols == nil {
		t.cols = make(map[string][]float64)
	}
	if _, ok := t.cols[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}
	if len(t.names) > 0 && len(values) != t.Len() {
		return fmt.Errorf("%w: %q has %d rows, table has %d", ErrLengthMismatch, name, len(values), t.Len())
	}
	if len(t.names) == 0 && t.Index != nil && len(values) != len(t.Index) {
		return fmt.Errorf("%w: %q has %d rows, index has %d", ErrLengthMismatch, name, len(values), len(t.Index))
	}

	v := make([]float64, len(values))
	copy(v, values)
	t.names = append(t.names, name)
	t.cols[name] = v
	return nil
}

// Column returns the values of a column. The slice is shared with the table.
func (t *Table) Column(name string) ([]float64, bool) {
	v, ok := t.cols[name]
	return v, ok
}

// Series returns a copy of a column as a Series.
func (t *Table) Series(name string) (*Series, error) {
	v, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	s := &Series{Name: name, Values: make([]float64, len(v))}
	copy(s.Values, v)
	if len(t.Index) == len(v) {
		s.Timestamps = make([]time.Time, len(v))
		copy(s.Timestamps, t.Index)
	}
	return s, nil
}

// Select returns a new table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	out := &Table{Index: copyIndex(t.Index), cols: make(map[string][]float64, len(names))}
	for _, name := range names {
		v, ok := t.cols[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		if err := out.AddColumn(name, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Drop returns a new table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	out := &Table{Index: copyIndex(t.Index), cols: make(map[string][]float64)}
	for _, name := range t.names {
		if _, ok := skip[name]; ok {
			continue
		}
		_ = out.AddColumn(name, t.cols[name])
	}
	return out
}

// Copy returns a deep copy of the table.
func (t *Table) Copy() *Table {
	return t.Drop()
}

// DropNaRows returns a new table keeping only rows where every column holds
// a value.
func (t *Table) DropNaRows() *Table {
	n := t.Len()
	keep := make([]int, 0, n)
	for i := 0; i < n; i++ {
		complete := true
		for _, name := range t.names {
			if math.IsNaN(t.cols[name][i]) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	return t.rows(keep)
}

// Split divides the table into a leading block of floor(frac*n) rows and
// the remaining rows.
func (t *Table) Split(frac float64) (head, tail *Table) {
	n := t.Len()
	cut := int(math.Floor(frac * float64(n)))
	if cut < 0 {
		cut = 0
	}
	if cut > n {
		cut = n
	}
	return t.span(0, cut), t.span(cut, n)
}

// Interpolate returns a new table with every column linearly interpolated
// in both directions.
func (t *Table) Interpolate() *Table {
	out := &Table{Index: copyIndex(t.Index), cols: make(map[string][]float64, len(t.names))}
	for _, name := range t.names {
		out.names = append(out.names, name)
		out.cols[name] = NewNamed(name, t.cols[name]).Interpolate().Values
	}
	return out
}

// Log returns the natural log of the table. Non-positive cells are treated
// as missing and re-interpolated; rows still incomplete afterwards are
// dropped. The second result counts rows that held a non-positive value.
func (t *Table) Log() (*Table, int) {
	n := t.Len()
	bad := 0
	for i := 0; i < n; i++ {
		for _, name := range t.names {
			if t.cols[name][i] <= 0 {
				bad++
				break
			}
		}
	}

	levels := t.Copy()
	if bad > 0 {
		for _, name := range levels.names {
			col := levels.cols[name]
			for i, v := range col {
				if v <= 0 {
					col[i] = math.NaN()
				}
			}
		}
		levels = levels.Interpolate()
	}
	levels = levels.DropNaRows()

	out := &Table{Index: levels.Index, cols: make(map[string][]float64, len(levels.names))}
	for _, name := range levels.names {
		out.names = append(out.names, name)
		out.cols[name] = NewNamed(name, levels.cols[name]).Log().Values
	}
	return out, bad
}

// Rename returns a copy of the table with columns renamed by fn.
// Colliding results are an error.
func (t *Table) Rename(fn func(string) string) (*Table, error) {
	out := &Table{Index: copyIndex(t.Index), cols: make(map[string][]float64, len(t.names))}
	for _, name := range t.names {
		if err := out.AddColumn(fn(name), t.cols[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t *Table) span(start, end int) *Table {
	idx := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		idx = append(idx, i)
	}
	return t.rows(idx)
}

func (t *Table) rows(idx []int) *Table {
	out := &Table{cols: make(map[string][]float64, len(t.names))}
	if len(t.Index) == t.Len() && t.Index != nil {
		out.Index = make([]time.Time, len(idx))
		for j, i := range idx {
			out.Index[j] = t.Index[i]
		}
	}
	for _, name := range t.names {
		src := t.cols[name]
		v := make([]float64, len(idx))
		for j, i := range idx {
			v[j] = src[i]
		}
		out.names = append(out.names, name)
		out.cols[name] = v
	}
	return out
}

func copyIndex(idx []time.Time) []time.Time {
	if idx == nil {
		return nil
	}
	out := make([]time.Time, len(idx))
	copy(out, idx)
	return out
}

var (
	nonIdentRun = regexp.MustCompile(`[^0-9a-zA-Z_]+`)
	underscores = regexp.MustCompile(`_+`)
)

// SanitizeName turns an arbitrary header into an identifier made of
// letters, digits and single underscores.
func SanitizeName(name string) string {
	name = nonIdentRun.ReplaceAllString(name, "_")
	name = underscores.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}
