// Package ticket implements the ticket hierarchy engine.
//
// Tickets are stored flat and linked by a single parent pointer. This package
// rebuilds bounded-depth trees from that table and propagates mutations to
// whole subtrees. It never talks to a database directly: every read and write
// goes through a [Repository].
//
// # Components
//
//   - [TreeBuilder] enriches a root ticket breadth-first into a [Node] tree.
//   - [Flatten], [CountDescendants] and the cascade methods on [Service]
//     apply completion toggles and deletes to every node of a subtree.
//   - [Service] is the entry point used by transports. It validates input and
//     turns repository absence into typed errors.
//
// # Consistency
//
// Cascades are not transactional. Mutations are dispatched concurrently
// (bounded by [Config].WriteConcurrency) and the first failure fails the
// call, but mutations that already committed stay committed. Callers that
// receive an error from [Service.ToggleTicket] or [Service.DeleteTicket]
// must assume the subtree may be partially updated.
//
// # Errors
//
// All failures surfaced by [Service] carry a [Kind]:
//
//   - [ErrNotFound] - the ticket does not exist
//   - [ErrNoRecordsFound] - a listing came back empty
//   - [ErrCreationFailed] - the repository did not return the created ticket
//   - [ErrValidation] - input rejected before any repository call
//   - [ErrTransientStorage] - retryable storage failure
//   - [ErrTimeout] - the caller's deadline expired
//   - [ErrParentCycle] - a re-parent would make a ticket its own ancestor
package ticket
