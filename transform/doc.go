// Package transform turns non-stationary columns into stationary ones by
// differencing and records what it did so the same treatment can be
// replayed on held-out data.
//
//	train, recipe, err := transform.MakeStationary(tbl, nonStationary, 2)
//	test := recipe.Apply(testTbl)
//
// MakeStationary uses the first differencing order that passes the
// stationarity check and falls back to the maximum order when none does.
// Apply never re-estimates orders.
package transform
