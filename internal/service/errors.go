package service

import "errors"

var (
	// ErrInvalidWindow means start does not precede end.
	ErrInvalidWindow = errors.New("booking window start must precede end")

	// ErrPastDate rejects bookings starting in the past.
	ErrPastDate = errors.New("booking cannot start in the past")

	// ErrDateTooFar rejects bookings beyond the configured horizon.
	ErrDateTooFar = errors.New("booking is too far in the future")

	// ErrInvalidTransition means the requested status change is not allowed
	// from the booking's current (effective) state. Terminal states never
	// transition again.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrPermissionDenied means the actor is neither the owner nor an admin.
	ErrPermissionDenied = errors.New("actor may not modify this booking")
)
