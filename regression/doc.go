// Package regression estimates linear models by ordinary least squares and
// runs the residual diagnostics used to validate them.
//
// FitDense works directly on a gonum design matrix and is what the unit
// root tests build on. OLS fits a named target column of a
// timeseries.Table on named predictor columns with an intercept:
//
//	m, err := regression.OLS("D_CLOSE", train, []string{"D_OIL", "RATE"})
//	fmt.Println(m.Summary())
//
// Diagnostics:
//
//	bg, _ := regression.BreuschGodfrey(m, 4) // serial correlation
//	bp, _ := regression.BreuschPagan(m)      // heteroskedasticity
//	gq, _ := regression.GoldfeldQuandt(m)    // variance shift
//	vif, _ := regression.VIF(m)              // collinearity
package regression
