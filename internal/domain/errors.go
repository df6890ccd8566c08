package domain

import "errors"

var (
	// ErrProvider wraps every failure to obtain a time series.
	ErrProvider = errors.New("time series provider failed")

	// ErrInvalidInput is returned when a query violates an invariant the
	// caller was expected to validate.
	ErrInvalidInput = errors.New("invalid input")
)
