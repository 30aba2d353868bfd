package ticket_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jacentio/tickets/memstore"
	"github.com/jacentio/tickets/ticket"
)

// spyRepo wraps a memstore, counts calls, tracks concurrent writes and
// injects failures.
type spyRepo struct {
	*memstore.Store

	mu          sync.Mutex
	calls       map[string]int
	inFlight    int
	maxInFlight int

	// delay is applied to every write and child lookup.
	delay time.Duration

	absentOnDelete map[int64]bool
	toggleErr      map[int64]error
	childrenErr    error
	rootsErr       error
	nilCreate      bool
}

func newSpy() *spyRepo {
	return &spyRepo{
		Store:          memstore.New(),
		calls:          map[string]int{},
		absentOnDelete: map[int64]bool{},
		toggleErr:      map[int64]error{},
	}
}

func (r *spyRepo) enter(name string) func() {
	r.mu.Lock()
	r.calls[name]++
	r.inFlight++
	if r.inFlight > r.maxInFlight {
		r.maxInFlight = r.inFlight
	}
	r.mu.Unlock()

	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}
}

func (r *spyRepo) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func (r *spyRepo) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *spyRepo) peak() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxInFlight
}

// resetCounters forgets calls made while seeding.
func (r *spyRepo) resetCounters() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = map[string]int{}
	r.maxInFlight = 0
}

func (r *spyRepo) FindByID(ctx context.Context, id int64) (*ticket.Ticket, error) {
	r.mu.Lock()
	r.calls["FindByID"]++
	r.mu.Unlock()
	return r.Store.FindByID(ctx, id)
}

func (r *spyRepo) FindChildren(ctx context.Context, parentID int64) ([]ticket.Ticket, error) {
	defer r.enter("FindChildren")()
	if r.childrenErr != nil {
		return nil, r.childrenErr
	}
	return r.Store.FindChildren(ctx, parentID)
}

func (r *spyRepo) FindRoots(ctx context.Context, offset, limit int) ([]ticket.Ticket, error) {
	r.mu.Lock()
	r.calls["FindRoots"]++
	r.mu.Unlock()
	if r.rootsErr != nil {
		return nil, r.rootsErr
	}
	return r.Store.FindRoots(ctx, offset, limit)
}

func (r *spyRepo) CreateRecord(ctx context.Context, title, description string) (*ticket.Ticket, error) {
	defer r.enter("CreateRecord")()
	if r.nilCreate {
		return nil, nil
	}
	return r.Store.CreateRecord(ctx, title, description)
}

func (r *spyRepo) DeleteRecord(ctx context.Context, id int64) (*ticket.Deleted, error) {
	defer r.enter("DeleteRecord")()
	if r.absentOnDelete[id] {
		return nil, nil
	}
	return r.Store.DeleteRecord(ctx, id)
}

func (r *spyRepo) SetCompletion(ctx context.Context, id int64, completed bool) (*ticket.Ticket, error) {
	defer r.enter("SetCompletion")()
	if err := r.toggleErr[id]; err != nil {
		return nil, err
	}
	return r.Store.SetCompletion(ctx, id, completed)
}

func (r *spyRepo) ClearParent(ctx context.Context, id int64) (*ticket.Ticket, error) {
	defer r.enter("ClearParent")()
	return r.Store.ClearParent(ctx, id)
}

func (r *spyRepo) SetParent(ctx context.Context, id, parentID int64) (*ticket.Ticket, error) {
	defer r.enter("SetParent")()
	return r.Store.SetParent(ctx, id, parentID)
}

// seedScenario inserts root 1 with children 2 and 3, and 4 below 2.
func seedScenario(t *testing.T, r *spyRepo) {
	t.Helper()
	r.Insert(ticket.Ticket{ID: 1, Title: "root"})
	r.Insert(ticket.Ticket{ID: 2, Title: "child 2", ParentID: ticket.Int64(1)})
	r.Insert(ticket.Ticket{ID: 3, Title: "child 3", ParentID: ticket.Int64(1)})
	r.Insert(ticket.Ticket{ID: 4, Title: "grandchild 4", ParentID: ticket.Int64(2)})
	r.resetCounters()
}

// seedChain inserts a parent chain 1 <- 2 <- ... <- n.
func seedChain(r *spyRepo, n int) {
	r.Insert(ticket.Ticket{ID: 1, Title: "chain 1"})
	for i := 2; i <= n; i++ {
		r.Insert(ticket.Ticket{ID: int64(i), Title: "chain", ParentID: ticket.Int64(int64(i - 1))})
	}
	r.resetCounters()
}

// seedWide inserts root 1 with n direct children.
func seedWide(r *spyRepo, n int) {
	r.Insert(ticket.Ticket{ID: 1, Title: "wide root"})
	for i := 2; i <= n+1; i++ {
		r.Insert(ticket.Ticket{ID: int64(i), Title: "leaf", ParentID: ticket.Int64(1)})
	}
	r.resetCounters()
}

func ids(ts []ticket.Ticket) []int64 {
	out := make([]int64, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func childIDs(n *ticket.Node) []int64 {
	out := make([]int64, len(n.Children))
	for i, c := range n.Children {
		out[i] = c.ID
	}
	return out
}
