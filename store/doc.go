// Package store is the DynamoDB implementation of [ticket.Repository].
//
// Tickets live in one table keyed by a numeric id. Ids are allocated from an
// atomic counter item. Parent links are kept twice: as parent_id on the
// ticket itself and as a record in a relationship table, so the children of
// a ticket can be listed with a query instead of a scan.
//
// # Tables
//
//   - Ticket table: partition key id (N). Root tickets carry root_pk="ROOT",
//     which feeds a sparse global secondary index ([Config.RootIndex]) with
//     sort key id (N). That index serves root pagination.
//   - Relationship table: partition key pk (S), sort key child_ref (S).
//     pk is "ticket#<parent>#<shard>" (see internal/shard).
//   - Counter table: partition key name (S), attribute seq (N).
//
// # Deletion
//
// Deletes are soft: the ticket gets a ttl equal to the deletion time and
// drops out of the root index. Every read treats ttl <= now as deleted.
// DynamoDB TTL removes the item later, and the stream handler in package
// stream copies the ttl to children that the synchronous cascade did not
// reach.
//
// # Configuration
//
// Use [DefaultConfig] for small datasets (NumShards=1, single queries).
// Increase NumShards for parents with very many children:
//
//	cfg := store.DefaultConfig()
//	cfg.NumShards = 16
//
// # Errors
//
// Absence is reported as a nil result with a nil error, as the Repository
// contract requires. Throttling, internal server errors and optimistic lock
// failures are wrapped with [ticket.Transient] so callers may retry them.
package store
