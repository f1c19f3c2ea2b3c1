package domain

import "errors"

var (
	// ErrValidation marks malformed or out-of-range input; the caller can
	// recover by correcting the request.
	ErrValidation = errors.New("validation failed")

	ErrLotNotFound = errors.New("lot not found")
	ErrBidNotFound = errors.New("bid not found")

	// ErrUnauthorized means the actor is neither the lot's seller nor the
	// bid's bidder, depending on the operation.
	ErrUnauthorized = errors.New("actor not allowed")

	// ErrLotNotOpen means the operation requires an open lot.
	ErrLotNotOpen = errors.New("lot is not open")

	// ErrBidNotPending means the operation requires a pending bid, e.g. the
	// bid was already resolved or belongs to a different lot.
	ErrBidNotPending = errors.New("bid is not pending")

	// ErrAlreadyResolved is returned when a withdrawal loses the race
	// against another transition.
	ErrAlreadyResolved = errors.New("already resolved")

	// ErrConflict is the store-level signal that a conditional update found
	// the row in a different status than expected. The engine maps it to one
	// of the errors above; it never reaches API clients as-is.
	ErrConflict = errors.New("concurrent status change")
)
