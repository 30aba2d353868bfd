// Package graphstore is a Neo4j implementation of [ticket.Repository].
//
// Tickets are (:Ticket) nodes; a child points at its parent with a
// HAS_PARENT relationship and also carries the parent's id as parentId, so
// that tickets orphaned by a partial delete do not resurface as roots.
// Ids come from a (:TicketCounter) node incremented in the creating
// transaction.
package graphstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/jacentio/tickets/ticket"
)

const counterName = "tickets"

var _ ticket.Repository = (*Store)(nil)

// Store runs ticket queries against a Neo4j database.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

// New creates a Store. An empty database selects the server default.
func New(driver neo4j.DriverWithContext, database string) *Store {
	return &Store{driver: driver, database: database}
}

// Connect opens a driver and checks connectivity.
func Connect(ctx context.Context, uri, username, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return driver, nil
}

// EnsureSchema creates the uniqueness constraint on ticket ids.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.write(ctx, "CREATE CONSTRAINT ticket_id IF NOT EXISTS FOR (t:Ticket) REQUIRE t.id IS UNIQUE", nil)
	return err
}

// FindByID returns the ticket, or nil when it does not exist.
func (s *Store) FindByID(ctx context.Context, id int64) (*ticket.Ticket, error) {
	records, err := s.read(ctx,
		"MATCH (t:Ticket {id: $id}) "+
			"RETURN t, t.parentId AS parentId",
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	return first(records)
}

// FindChildren returns the children of parentID ordered by id.
func (s *Store) FindChildren(ctx context.Context, parentID int64) ([]ticket.Ticket, error) {
	records, err := s.read(ctx,
		"MATCH (t:Ticket)-[:HAS_PARENT]->(:Ticket {id: $id}) "+
			"RETURN t, t.parentId AS parentId ORDER BY t.id",
		map[string]any{"id": parentID},
	)
	if err != nil {
		return nil, err
	}
	return all(records)
}

// FindRoots returns one page of root tickets ordered by id.
func (s *Store) FindRoots(ctx context.Context, offset, limit int) ([]ticket.Ticket, error) {
	if limit <= 0 {
		return []ticket.Ticket{}, nil
	}
	records, err := s.read(ctx,
		"MATCH (t:Ticket) WHERE t.parentId IS NULL "+
			"RETURN t, null AS parentId ORDER BY t.id SKIP $offset LIMIT $limit",
		map[string]any{"offset": int64(offset), "limit": int64(limit)},
	)
	if err != nil {
		return nil, err
	}
	return all(records)
}

// CreateRecord stores a new root ticket with the next id from the counter.
func (s *Store) CreateRecord(ctx context.Context, title, description string) (*ticket.Ticket, error) {
	records, err := s.write(ctx,
		"MERGE (c:TicketCounter {name: $counter}) "+
			"ON CREATE SET c.seq = 0 "+
			"SET c.seq = c.seq + 1 "+
			"WITH c.seq AS id "+
			"CREATE (t:Ticket {id: id, title: $title, description: $description, completed: false, createdAt: $now, updatedAt: $now}) "+
			"RETURN t, null AS parentId",
		map[string]any{
			"counter":     counterName,
			"title":       title,
			"description": description,
			"now":         time.Now().UTC(),
		},
	)
	if err != nil {
		return nil, err
	}
	return first(records)
}

// DeleteRecord removes a ticket and its relationships. Children keep their
// parentId and stay out of the root listing.
func (s *Store) DeleteRecord(ctx context.Context, id int64) (*ticket.Deleted, error) {
	records, err := s.write(ctx,
		"MATCH (t:Ticket {id: $id}) "+
			"WITH t, t.id AS id "+
			"DETACH DELETE t "+
			"RETURN id",
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &ticket.Deleted{ID: id}, nil
}

// SetCompletion sets the completed flag.
func (s *Store) SetCompletion(ctx context.Context, id int64, completed bool) (*ticket.Ticket, error) {
	records, err := s.write(ctx,
		"MATCH (t:Ticket {id: $id}) "+
			"SET t.completed = $completed, t.updatedAt = $now "+
			"RETURN t, t.parentId AS parentId",
		map[string]any{"id": id, "completed": completed, "now": time.Now().UTC()},
	)
	if err != nil {
		return nil, err
	}
	return first(records)
}

// ClearParent turns a ticket into a root.
func (s *Store) ClearParent(ctx context.Context, id int64) (*ticket.Ticket, error) {
	records, err := s.write(ctx,
		"MATCH (t:Ticket {id: $id}) "+
			"OPTIONAL MATCH (t)-[r:HAS_PARENT]->() "+
			"DELETE r "+
			"WITH DISTINCT t "+
			"REMOVE t.parentId "+
			"SET t.updatedAt = $now "+
			"RETURN t, null AS parentId",
		map[string]any{"id": id, "now": time.Now().UTC()},
	)
	if err != nil {
		return nil, err
	}
	return first(records)
}

// errParentMissing aborts the SetParent transaction.
var errParentMissing = errors.New("tickets: parent ticket not found")

// SetParent moves a ticket below parentID, replacing any previous parent.
// A missing parent fails with a NotFound error.
func (s *Store) SetParent(ctx context.Context, id, parentID int64) (*ticket.Ticket, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (p:Ticket {id: $id}) RETURN p.id", map[string]any{"id": parentID})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			if err := res.Err(); err != nil {
				return nil, err
			}
			return nil, errParentMissing
		}

		res, err = tx.Run(ctx,
			"MATCH (t:Ticket {id: $id}), (p:Ticket {id: $parentId}) "+
				"OPTIONAL MATCH (t)-[r:HAS_PARENT]->() "+
				"DELETE r "+
				"WITH DISTINCT t, p "+
				"CREATE (t)-[:HAS_PARENT]->(p) "+
				"SET t.parentId = $parentId, t.updatedAt = $now "+
				"RETURN t, t.parentId AS parentId",
			map[string]any{"id": id, "parentId": parentID, "now": time.Now().UTC()},
		)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if errors.Is(err, errParentMissing) {
		return nil, &ticket.Error{
			Kind: ticket.KindNotFound,
			Op:   "set parent",
			ID:   parentID,
			Msg:  fmt.Sprintf("parent ticket %d not found", parentID),
			Err:  err,
		}
	}
	if err != nil {
		return nil, mapError("set parent", err)
	}
	return first(result.([]*neo4j.Record))
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func (s *Store) read(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, mapError("read", err)
	}
	return result.([]*neo4j.Record), nil
}

func (s *Store) write(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, mapError("write", err)
	}
	return result.([]*neo4j.Record), nil
}

// mapError marks errors the driver considers retryable as transient.
func mapError(op string, err error) error {
	if neo4j.IsRetryable(err) {
		return ticket.Transient(op, err)
	}
	return fmt.Errorf("neo4j %s: %w", op, err)
}
