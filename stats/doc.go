// Package stats provides the statistical tests used to judge and validate
// time series: unit root and stationarity tests, and residual diagnostics.
//
// # Stationarity Tests
//
// Test whether a time series is stationary:
//
//	// Augmented Dickey-Fuller test, lag length by AIC
//	// H0: Series has unit root (non-stationary)
//	adf, err := stats.ADF(series, 0)
//
//	// KPSS test, automatic lag truncation
//	// H0: Series is level stationary
//	kpss, err := stats.KPSS(series, "c", 0)
//
// Tester combines both: a series is stationary when ADF rejects (p < alpha)
// and KPSS does not (p > alpha). Missing values are dropped and fewer than
// 20 observations are never judged stationary.
//
//	tester := stats.NewTester(logger)
//	ok := tester.IsStationary(values)
//	nonStationary, stationary := tester.Classify(table)
//
// # Residual Diagnostics
//
//	lb, err := stats.LjungBox(residuals, 10, 0)
//	dw := stats.DurbinWatson(resid)
//	jb, err := stats.JarqueBera(resid)
//	sw, err := stats.ShapiroWilk(resid)
package stats
