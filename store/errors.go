package store

import "errors"

var (
	// ErrParentNotFound is returned when the parent ticket doesn't exist or is deleted.
	ErrParentNotFound = errors.New("tickets: parent ticket not found")

	// ErrConcurrentModification is returned when optimistic lock fails (version mismatch).
	ErrConcurrentModification = errors.New("tickets: ticket was modified concurrently")

	// ErrSequence is returned when the id counter returns no usable value.
	ErrSequence = errors.New("tickets: id sequence unavailable")
)
