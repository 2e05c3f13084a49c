// Package timeseries provides time series data structures and utilities.
//
// This package includes the Series type for a single variable and the Table
// type for a set of row-aligned variables, along with CSV loading and the
// transformations the preprocessing pipeline needs.
//
// # Creating a Series
//
// Create a time series from a slice:
//
//	values := []float64{100, 102, 105, 103, 108, 110}
//	series := timeseries.NewNamed("CLOSE", values)
//
// # Tables
//
// Build a table from columns or load one from CSV:
//
//	t := timeseries.NewTable()
//	t.AddColumn("CLOSE", closes)
//	t.AddColumn("VOLUME", volumes)
//
//	t, err := timeseries.LoadTableCSV("data.csv", timeseries.DefaultCSVOptions())
//
// Missing cells are NaN. DropNaRows keeps only complete rows, which is how
// columns differenced by different orders are re-aligned.
//
// # Transformations
//
//	d2 := series.DiffN(2)           // differenced twice, two leading NaN
//	filled := t.Interpolate()       // linear, both directions
//	logged, nonPositive := t.Log()  // natural log
//	train, test := t.Split(0.8)     // 80/20 split by position
//
// # Column names
//
// SanitizeName maps arbitrary spreadsheet headers to identifiers:
//
//	timeseries.SanitizeName("S&P 500 (close)") // "S_P_500_close"
package timeseries
