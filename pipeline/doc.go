// Package pipeline chains the goecon building blocks into one analysis.
//
// A run splits the data into training and hold-out rows, filters
// predictors by their correlation with the target, log transforms and
// differences the training columns until they are stationary, replays
// the learned transformation on the hold-out rows, selects predictors with
// Hellwig's method, fits OLS, runs residual diagnostics and scores the
// model out of sample. Everything it learns is collected in a Report.
package pipeline
