package domain

import "errors"

// Error taxonomy for engine operations. Operations wrap these sentinels with
// context via fmt.Errorf("...: %w", Err...); callers classify with errors.Is.
var (
	// ErrValidation is returned for bad input shape or range
	ErrValidation = errors.New("validation failed")

	// ErrUnauthenticated is returned when no actor identity is bound to the request
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrForbidden is returned when the actor is not allowed to perform the operation
	ErrForbidden = errors.New("forbidden")

	// ErrInsufficientFunds is returned when credits are below the required fee or price
	ErrInsufficientFunds = errors.New("insufficient credits")

	// ErrNotFound is returned for an unresolved DID or missing document
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when the operation conflicts with current state
	// (already minted, third-party-held tokens on unmint, self-purchase)
	ErrConflict = errors.New("conflict")

	// ErrUpstream is returned when the gatekeeper SDK or the store fails
	ErrUpstream = errors.New("upstream failure")
)
