package ticket_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/tickets/ticket"
)

func newCascade(repo ticket.Repository) *ticket.Cascade {
	cfg := ticket.DefaultConfig()
	return ticket.NewCascade(repo, ticket.NewTreeBuilder(repo, cfg), cfg, nil)
}

func TestFlatten_PreOrder(t *testing.T) {
	leaf := func(id int64) *ticket.Node {
		return &ticket.Node{Ticket: ticket.Ticket{ID: id}, Children: []*ticket.Node{}}
	}
	tree := &ticket.Node{
		Ticket: ticket.Ticket{ID: 1},
		Children: []*ticket.Node{
			{Ticket: ticket.Ticket{ID: 2}, Children: []*ticket.Node{leaf(4), leaf(5)}},
			leaf(3),
		},
	}

	assert.Equal(t, []int64{1, 2, 4, 5, 3}, ids(ticket.Flatten(tree)))
	assert.Equal(t, 4, ticket.CountDescendants(tree))
	assert.Equal(t, 0, ticket.CountDescendants(leaf(9)))
	assert.Equal(t, 0, ticket.CountDescendants(nil))
	assert.Empty(t, ticket.Flatten(nil))
}

func TestCascadeToggle_Scenario(t *testing.T) {
	repo := newSpy()
	seedScenario(t, repo)

	tree, err := newCascade(repo).Toggle(context.Background(), 1, true)
	require.NoError(t, err)

	assert.Equal(t, 4, repo.count("SetCompletion"))
	assert.LessOrEqual(t, repo.peak(), 5)
	for _, tk := range ticket.Flatten(tree) {
		assert.True(t, tk.Completed, "ticket %d", tk.ID)

		stored, err := repo.Store.FindByID(context.Background(), tk.ID)
		require.NoError(t, err)
		assert.True(t, stored.Completed, "stored ticket %d", tk.ID)
	}
}

func TestCascadeToggle_RoundTrip(t *testing.T) {
	repo := newSpy()
	seedScenario(t, repo)
	c := newCascade(repo)
	ctx := context.Background()

	_, err := c.Toggle(ctx, 1, true)
	require.NoError(t, err)
	tree, err := c.Toggle(ctx, 1, false)
	require.NoError(t, err)

	for _, tk := range ticket.Flatten(tree) {
		assert.False(t, tk.Completed, "ticket %d", tk.ID)
	}
}

func TestCascadeToggle_OnlySubtree(t *testing.T) {
	repo := newSpy()
	seedScenario(t, repo)

	_, err := newCascade(repo).Toggle(context.Background(), 2, true)
	require.NoError(t, err)

	ctx := context.Background()
	for id, want := range map[int64]bool{1: false, 2: true, 3: false, 4: true} {
		got, err := repo.Store.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Completed, "ticket %d", id)
	}
}

func TestCascadeToggle_BoundedConcurrency(t *testing.T) {
	repo := newSpy()
	seedWide(repo, 30)
	repo.delay = 5 * time.Millisecond

	tree, err := newCascade(repo).Toggle(context.Background(), 1, true)
	require.NoError(t, err)

	assert.Equal(t, 31, repo.count("SetCompletion"))
	assert.LessOrEqual(t, repo.peak(), 5)
	assert.Equal(t, 30, ticket.CountDescendants(tree))
}

func TestCascadeToggle_NotFound(t *testing.T) {
	repo := newSpy()

	_, err := newCascade(repo).Toggle(context.Background(), 7, true)
	assert.ErrorIs(t, err, ticket.ErrNotFound)
	assert.Zero(t, repo.count("SetCompletion"))
}

func TestCascadeToggle_FailurePropagates(t *testing.T) {
	repo := newSpy()
	seedScenario(t, repo)
	repo.toggleErr[3] = ticket.Transient("update", assert.AnError)

	tree, err := newCascade(repo).Toggle(context.Background(), 1, true)
	require.Error(t, err)
	assert.Nil(t, tree)
	assert.ErrorIs(t, err, ticket.ErrTransientStorage)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCascadeDelete_Success(t *testing.T) {
	repo := newSpy()
	seedScenario(t, repo)

	deleted, err := newCascade(repo).Delete(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, deleted, 4)
	got := make([]int64, len(deleted))
	rootSeen := 0
	for i, d := range deleted {
		got[i] = d.ID
		if d.ID == 1 {
			rootSeen++
		}
	}
	assert.Equal(t, []int64{1, 2, 4, 3}, got)
	assert.Equal(t, 1, rootSeen)
	assert.Zero(t, repo.Len())
	assert.LessOrEqual(t, repo.peak(), 5)
}

func TestCascadeDelete_AbsentChildFailsWholeCall(t *testing.T) {
	repo := newSpy()
	seedScenario(t, repo)
	repo.absentOnDelete[3] = true

	deleted, err := newCascade(repo).Delete(context.Background(), 1)
	require.Error(t, err)
	assert.Nil(t, deleted)
	assert.ErrorIs(t, err, ticket.ErrNotFound)

	var e *ticket.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, int64(3), e.ID)

	// Ticket 3 survives; the others may already be gone.
	stillThere, err := repo.Store.FindByID(context.Background(), 3)
	require.NoError(t, err)
	assert.NotNil(t, stillThere)
}

func TestCascadeDelete_NotFound(t *testing.T) {
	repo := newSpy()

	_, err := newCascade(repo).Delete(context.Background(), 1)
	assert.ErrorIs(t, err, ticket.ErrNotFound)
	assert.Zero(t, repo.count("DeleteRecord"))
}

func TestCascadeDelete_DeadlineBecomesTimeout(t *testing.T) {
	repo := newSpy()
	seedWide(repo, 20)
	repo.delay = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := newCascade(repo).Delete(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ticket.ErrTimeout)
}
