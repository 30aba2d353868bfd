package ticket

import "context"

// Repository is the storage contract consumed by the engine.
//
// Each call is independently atomic. A missing record is reported as a nil
// result with a nil error; a non-nil error always means the storage call
// itself failed. Implementations should wrap retryable failures with
// [Transient] so the boundary can decide to retry.
type Repository interface {
	// FindByID returns the ticket or nil.
	FindByID(ctx context.Context, id int64) (*Ticket, error)

	// FindChildren returns the direct children of parentID. A ticket without
	// children yields an empty slice; there is no separate absent state.
	FindChildren(ctx context.Context, parentID int64) ([]Ticket, error)

	// FindRoots returns root tickets in ascending id order within the window.
	FindRoots(ctx context.Context, offset, limit int) ([]Ticket, error)

	// CreateRecord stores a new root ticket and returns it, or nil on failure.
	CreateRecord(ctx context.Context, title, description string) (*Ticket, error)

	// DeleteRecord removes a ticket. Nil means it was already absent.
	DeleteRecord(ctx context.Context, id int64) (*Deleted, error)

	// SetCompletion sets the completed flag and returns the updated ticket.
	SetCompletion(ctx context.Context, id int64, completed bool) (*Ticket, error)

	// ClearParent turns the ticket into a root and returns it.
	ClearParent(ctx context.Context, id int64) (*Ticket, error)

	// SetParent points the ticket at parentID and returns it. Cycle checks are
	// the caller's job.
	SetParent(ctx context.Context, id, parentID int64) (*Ticket, error)
}
