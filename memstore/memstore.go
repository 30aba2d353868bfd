// Package memstore is an in-memory ticket.Repository for local runs and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jacentio/tickets/ticket"
)

// Store keeps tickets in a map guarded by a mutex. Ids are assigned from a
// counter starting at 1.
type Store struct {
	mu      sync.RWMutex
	seq     int64
	tickets map[int64]ticket.Ticket

	// now is swapped in tests.
	now func() time.Time
}

var _ ticket.Repository = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		tickets: make(map[int64]ticket.Ticket),
		now:     time.Now,
	}
}

// Insert stores t as is, including its parent pointer, and returns it with
// id and timestamps filled in. A zero id is replaced by the next id. It is
// meant for seeding hierarchies.
func (s *Store) Insert(t ticket.Ticket) ticket.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == 0 {
		s.seq++
		t.ID = s.seq
	} else if t.ID > s.seq {
		s.seq = t.ID
	}
	now := s.now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	s.tickets[t.ID] = t
	return t
}

// Len returns the number of stored tickets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tickets)
}

func (s *Store) FindByID(ctx context.Context, id int64) (*ticket.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *Store) FindChildren(ctx context.Context, parentID int64) ([]ticket.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	children := []ticket.Ticket{}
	for _, t := range s.tickets {
		if t.ParentID != nil && *t.ParentID == parentID {
			children = append(children, t)
		}
	}
	sortByID(children)
	return children, nil
}

func (s *Store) FindRoots(ctx context.Context, offset, limit int) ([]ticket.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var roots []ticket.Ticket
	for _, t := range s.tickets {
		if t.IsRoot() {
			roots = append(roots, t)
		}
	}
	sortByID(roots)

	if offset >= len(roots) {
		return []ticket.Ticket{}, nil
	}
	end := len(roots)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return roots[offset:end], nil
}

func (s *Store) CreateRecord(ctx context.Context, title, description string) (*ticket.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := s.Insert(ticket.Ticket{Title: title, Description: description})
	return &t, nil
}

func (s *Store) DeleteRecord(ctx context.Context, id int64) (*ticket.Deleted, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[id]; !ok {
		return nil, nil
	}
	delete(s.tickets, id)
	return &ticket.Deleted{ID: id}, nil
}

func (s *Store) SetCompletion(ctx context.Context, id int64, completed bool) (*ticket.Ticket, error) {
	return s.update(ctx, id, func(t *ticket.Ticket) {
		t.Completed = completed
	})
}

func (s *Store) ClearParent(ctx context.Context, id int64) (*ticket.Ticket, error) {
	return s.update(ctx, id, func(t *ticket.Ticket) {
		t.ParentID = nil
	})
}

func (s *Store) SetParent(ctx context.Context, id, parentID int64) (*ticket.Ticket, error) {
	return s.update(ctx, id, func(t *ticket.Ticket) {
		t.ParentID = ticket.Int64(parentID)
	})
}

// update applies fn to a copy of the ticket and stores it with a fresh
// UpdatedAt. Missing tickets yield nil.
func (s *Store) update(ctx context.Context, id int64, fn func(t *ticket.Ticket)) (*ticket.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, nil
	}
	fn(&t)
	t.UpdatedAt = s.now().UTC()
	s.tickets[id] = t
	return &t, nil
}

func sortByID(ts []ticket.Ticket) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].ID < ts[j].ID })
}
