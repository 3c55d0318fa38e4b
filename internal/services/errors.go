package services

import "errors"

var (
	// ErrInvalidInput marks degenerate request geometry or scheduling
	// (distinct from a regulatory rejection, which is a valid request that
	// fails validation).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned for unknown flight IDs.
	ErrNotFound = errors.New("flight not found")

	// ErrTerminalStatus is returned when a transition is requested on a
	// completed, cancelled or rejected flight.
	ErrTerminalStatus = errors.New("flight is in a terminal status")

	// ErrInvalidTransition is returned for lifecycle transitions the state
	// machine does not allow, e.g. approving a flight that is not pending.
	ErrInvalidTransition = errors.New("invalid status transition")
)
