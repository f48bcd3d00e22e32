package types

import "errors"

var (
	// ErrInvalidArgument covers out of range indices and mismatched field lengths.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedCapability is returned when a patch lacks the data an operation needs.
	ErrUnsupportedCapability = errors.New("unsupported capability")

	// ErrNumericalFailure is returned for singular or non-converged linear solves.
	ErrNumericalFailure = errors.New("numerical failure")

	ErrUnknownMotionSolver = errors.New("unknown motion solver")
	ErrUnknownCorrector    = errors.New("unknown flux corrector")
)
