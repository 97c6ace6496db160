package database

import "errors"

var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCapacityExceeded means the insert would push a space past its
	// capacity. This is the store-level constraint the write path relies on;
	// callers should re-run the availability check and report a conflict.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrConcurrentModification means a versioned update lost the race.
	ErrConcurrentModification = errors.New("booking was modified concurrently")

	// ErrSpaceInactive means the space exists but is not bookable.
	ErrSpaceInactive = errors.New("space is inactive")

	// ErrTransient marks store failures that are safe to retry at the read
	// layer. Write-layer transient errors are surfaced, never retried, since
	// retrying an insert risks duplicate submission.
	ErrTransient = errors.New("transient store error")
)

// IsTransient reports whether err is worth a bounded retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
