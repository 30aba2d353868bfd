package ticket

import "time"

// Ticket is a single stored record.
type Ticket struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// ParentID is nil for root tickets.
	ParentID *int64 `json:"parentId"`
}

// IsRoot reports whether the ticket has no parent.
func (t Ticket) IsRoot() bool {
	return t.ParentID == nil
}

// Node is a ticket with its children attached. Nodes are built per request
// and never persisted.
type Node struct {
	Ticket

	// Children are in the order the repository returned them.
	Children []*Node `json:"children"`
}

// newNode wraps t in a node with an empty, non-nil child list.
func newNode(t Ticket) *Node {
	return &Node{Ticket: t, Children: []*Node{}}
}

// Deleted confirms the deletion of one ticket.
type Deleted struct {
	ID int64 `json:"id"`
}

// Int64 returns a pointer to v. Handy for building ParentID values.
func Int64(v int64) *int64 {
	return &v
}
