package ticket

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an engine failure. The set is closed; transports are
// expected to switch over every value.
type Kind int

const (
	// KindUnknown marks errors that did not originate from the engine.
	KindUnknown Kind = iota
	KindNotFound
	KindNoRecordsFound
	KindCreationFailed
	KindValidation
	KindTransientStorage
	KindTimeout
	KindParentCycle
)

// Kinds lists every engine kind, KindUnknown excluded.
var Kinds = []Kind{
	KindNotFound,
	KindNoRecordsFound,
	KindCreationFailed,
	KindValidation,
	KindTransientStorage,
	KindTimeout,
	KindParentCycle,
}

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindNoRecordsFound:
		return "no_records_found"
	case KindCreationFailed:
		return "creation_failed"
	case KindValidation:
		return "validation"
	case KindTransientStorage:
		return "transient_storage"
	case KindTimeout:
		return "timeout"
	case KindParentCycle:
		return "parent_cycle"
	default:
		return "unknown"
	}
}

// Error is the error type returned by the engine.
type Error struct {
	Kind Kind

	// Op names the operation that failed (e.g. "delete").
	Op string

	// ID is the ticket the failure refers to, zero when not applicable.
	ID int64

	// Msg is a human readable description.
	Msg string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "tickets: " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of Op, ID or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	// ErrNotFound is returned when a requested ticket does not exist.
	ErrNotFound = &Error{Kind: KindNotFound}

	// ErrNoRecordsFound is returned when a listing that must be non-empty is empty.
	ErrNoRecordsFound = &Error{Kind: KindNoRecordsFound}

	// ErrCreationFailed is returned when the repository did not hand back a created ticket.
	ErrCreationFailed = &Error{Kind: KindCreationFailed}

	// ErrValidation is returned when input violates a constraint.
	ErrValidation = &Error{Kind: KindValidation}

	// ErrTransientStorage is returned for retryable storage failures.
	ErrTransientStorage = &Error{Kind: KindTransientStorage}

	// ErrTimeout is returned when the caller's deadline expired.
	ErrTimeout = &Error{Kind: KindTimeout}

	// ErrParentCycle is returned when re-parenting would create a cycle.
	ErrParentCycle = &Error{Kind: KindParentCycle}
)

// KindOf returns the kind carried by err. Context deadline errors map to
// KindTimeout; anything else without a kind is KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

// Transient marks a storage failure as retryable.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindTransientStorage, Op: op, Err: err}
}

func notFound(op string, id int64) error {
	return &Error{Kind: KindNotFound, Op: op, ID: id, Msg: fmt.Sprintf("ticket %d not found", id)}
}

func validationError(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Msg: "invalid input", Err: err}
}

// storageError keeps engine errors as they are, converts deadline expiry to
// KindTimeout and annotates everything else with the operation.
func storageError(op string, id int64, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, ID: id, Err: err}
	}
	return fmt.Errorf("%s %d: %w", op, id, err)
}

// settle is storageError for errors that already carry their operation. It
// only converts a bare deadline expiry, as left behind by skipped fan-out
// work, into KindTimeout.
func settle(op string, id int64, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, ID: id, Err: err}
	}
	return err
}
