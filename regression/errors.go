package regression

import "errors"

var (
	// ErrNotEnoughObservations signals that there weren't enough observations to fit the model.
	ErrNotEnoughObservations = errors.New("not enough observations")
	// ErrNoExplanatoryVars signals that there is no explanatory variable to fit the model.
	ErrNoExplanatoryVars = errors.New("no explanatory variables")
	// ErrSingular signals that X'X could not be inverted.
	ErrSingular = errors.New("design matrix is singular")
	// ErrInvalidArgument signals that any of given arguments was invalid.
	ErrInvalidArgument = errors.New("invalid argument")
)
