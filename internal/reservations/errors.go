package reservations

import "errors"

// Failure modes a caller can act on. Lock contention and cache unavailability
// share one sentinel: both mean "could not serialize the attempt, retry",
// and the distinction is only interesting in logs.
var (
	ErrLockContention           = errors.New("dates are being booked by another request, please retry")
	ErrCapacityExceeded         = errors.New("not enough units available for the requested dates")
	ErrReservationNotFound      = errors.New("reservation not found")
	ErrReservationExpired       = errors.New("reservation has expired")
	ErrReservationNotExtendable = errors.New("reservation can no longer be extended")
	ErrInvalidRange             = errors.New("check-out date must be after check-in date")
	ErrRangeTooFarAhead         = errors.New("check-in date is beyond the advance booking window")
	ErrNotOwner                 = errors.New("reservation does not belong to user")
)
