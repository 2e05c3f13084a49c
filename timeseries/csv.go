package timeseries

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn string   // Column name for dates (optional, auto-detected when empty)
	DateFormat string   // Date format (default: "2006-01-02")
	Delimiter  rune     // Field delimiter (default: ',')
	SkipRows   int      // Number of rows to skip at start
	Sanitize   bool     // Run SanitizeName over value column headers
	Columns    []string // Value columns to keep (all numeric columns when empty)
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateFormat: "2006-01-02",
		Delimiter:  ',',
		Sanitize:   true,
	}
}

// LoadTableCSV loads a table from a CSV file.
func LoadTableCSV(filename string, opts *CSVOptions) (*Table, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	t, err := LoadTableCSVFromReader(file, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	return t, nil
}

// LoadTableCSVFromReader loads a table from an io.Reader. The first row is
// the header. Empty cells and NA/NaN/null markers become NaN.
func LoadTableCSVFromReader(r io.Reader, opts *CSVOptions) (*Table, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateIdx := -1
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		header[i] = h
		switch {
		case opts.DateColumn != "" && h == opts.DateColumn:
			dateIdx = i
		case opts.DateColumn == "" && dateIdx == -1 && isDateHeader(h):
			dateIdx = i
		}
	}

	want := make(map[string]struct{}, len(opts.Columns))
	for _, c := range opts.Columns {
		want[c] = struct{}{}
	}

	var valueIdx []int
	var names []string
	for i, h := range header {
		if i == dateIdx {
			continue
		}
		if len(want) > 0 {
			if _, ok := want[h]; !ok {
				continue
			}
		}
		valueIdx = append(valueIdx, i)
		names = append(names, h)
	}
	if len(valueIdx) == 0 {
		return nil, errors.New("no value columns found in CSV")
	}

	cols := make([][]float64, len(valueIdx))
	var index []time.Time
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+2, err)
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}

		for j, i := range valueIdx {
			v := math.NaN()
			if i < len(record) {
				v, err = parseCell(record[i])
				if err != nil {
					return nil, fmt.Errorf("row %d column %q: %w", row+2, names[j], err)
				}
			}
			cols[j] = append(cols[j], v)
		}

		if dateIdx >= 0 && dateIdx < len(record) {
			if ts, ok := parseDate(record[dateIdx], opts.DateFormat); ok {
				index = append(index, ts)
			}
		}
		row++
	}

	if row == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	t := NewTable()
	if len(index) == row {
		t.Index = index
	}
	for j, name := range names {
		if err := t.AddColumn(name, cols[j]); err != nil {
			return nil, err
		}
	}
	if opts.Sanitize {
		return t.Rename(SanitizeName)
	}
	return t, nil
}

func isDateHeader(h string) bool {
	switch strings.ToLower(h) {
	case "ds", "date", "time", "timestamp", "month", "year", "period":
		return true
	}
	return false
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	switch s {
	case "", "NA", "NaN", "nan", "null", "NULL":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseDate(s, preferred string) (time.Time, bool) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	formats := []string{
		preferred,
		"2006-01-02",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006/01/02",
		"01/02/2006",
		"02-Jan-2006",
		"2006-01",
		"2006",
	}
	for _, f := range formats {
		if f == "" {
			continue
		}
		if ts, err := time.Parse(f, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// SaveTableCSV writes a table to a CSV file. The index, when present,
// becomes a leading "date" column.
func SaveTableCSV(t *Table, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteTableCSV(t, file)
}

// WriteTableCSV writes a table as CSV to w.
func WriteTableCSV(t *Table, w io.Writer) error {
	bw := bufio.NewWriter(w)
	writer := csv.NewWriter(bw)

	withIndex := len(t.Index) == t.Len() && t.Index != nil
	header := t.Names()
	if withIndex {
		header = append([]string{"date"}, header...)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	names := t.Names()
	record := make([]string, len(header))
	for i := 0; i < t.Len(); i++ {
		k := 0
		if withIndex {
			record[0] = t.Index[i].Format("2006-01-02")
			k = 1
		}
		for j, name := range names {
			v := t.cols[name][i]
			if math.IsNaN(v) {
				record[k+j] = ""
			} else {
				record[k+j] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
