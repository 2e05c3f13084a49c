// Package goecon prepares multivariate time series for linear regression
// and selects predictors with Hellwig's information capacity method.
//
// Raw series are rarely stationary. goecon tests each column with the
// augmented Dickey-Fuller and KPSS tests, differences the failing ones by
// the smallest order that passes and records the orders in a recipe that
// can be replayed on hold-out or future data. Predictor subsets of the
// transformed table are then ranked by their integral information capacity.
//
// # Features
//
//   - Joint ADF/KPSS stationarity verdicts with MacKinnon and KPSS p-values
//   - First-fit differencing with a replayable, serialisable recipe
//   - Exhaustive Hellwig subset ranking, sequential or concurrent
//   - OLS with residual diagnostics (Jarque-Bera, Shapiro-Wilk, Ljung-Box,
//     Durbin-Watson, Breusch-Godfrey, Breusch-Pagan, Goldfeld-Quandt, VIF)
//   - An end-to-end pipeline with out-of-sample evaluation and a SQLite run
//     store
//
// # Quick Start
//
// Make a table stationary and rank the predictors:
//
//	tester := stats.NewTester(logger)
//	nonStationary, _ := tester.Classify(table)
//	diffed, recipe, _ := transform.MakeStationary(table, nonStationary, 2)
//	y, _ := diffed.Column("D_CLOSE")
//	ranking, _ := hellwig.SelectBest(y, diffed.Drop("D_CLOSE"))
//	holdout := recipe.Apply(testTable)
//
// Or run everything at once:
//
//	p, _ := pipeline.New(pipeline.DefaultConfig())
//	report, _ := p.Run(ctx, table)
//	fmt.Println(report)
//
// # Packages
//
//   - timeseries: Series and Table types, CSV I/O, interpolation and logs
//   - stats: ADF, KPSS, the stationarity tester, ACF and residual tests
//   - transform: differencing engine and transformation recipes
//   - hellwig: correlation matrix and capacity ranking
//   - regression: OLS models and residual diagnostics
//   - pipeline: configuration, filters, orchestration and reports
//   - store: SQLite persistence of runs
//   - logging: zap logger construction
//
// # References
//
//   - Hellwig, Z. (1968). On the optimal choice of predictors
//   - MacKinnon, J.G. (1994). Approximate asymptotic distribution functions for unit-root and cointegration tests
//   - Kwiatkowski, D., Phillips, P.C.B., Schmidt, P., & Shin, Y. (1992). Testing the null hypothesis of stationarity
package goecon
