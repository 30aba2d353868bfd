package ticket_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/tickets/ticket"
)

func newService(repo ticket.Repository) *ticket.Service {
	return ticket.NewService(repo, ticket.DefaultConfig(), nil)
}

func TestService_FindByID(t *testing.T) {
	repo := newSpy()
	seedScenario(t, repo)

	tree, err := newService(repo).FindByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tree.ID)
	assert.Equal(t, []int64{4}, childIDs(tree))
}

func TestService_FindByID_NotFound(t *testing.T) {
	repo := newSpy()

	_, err := newService(repo).FindByID(context.Background(), 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, ticket.ErrNotFound)
	assert.Contains(t, err.Error(), "ticket 99 not found")
}

func TestService_FindAll_Empty(t *testing.T) {
	repo := newSpy()

	_, err := newService(repo).FindAll(context.Background(), 0, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ticket.ErrNoRecordsFound)
}

func TestService_FindAll_OffsetPastEnd(t *testing.T) {
	repo := newSpy()
	seedScenario(t, repo)

	_, err := newService(repo).FindAll(context.Background(), 5, 10)
	assert.ErrorIs(t, err, ticket.ErrNoRecordsFound)
}

func TestService_FindAll_TreesInPageOrder(t *testing.T) {
	repo := newSpy()
	for i := int64(1); i <= 25; i++ {
		repo.Insert(ticket.Ticket{ID: i, Title: "root"})
		repo.Insert(ticket.Ticket{ID: 100 + i, Title: "child", ParentID: ticket.Int64(i)})
	}
	repo.resetCounters()
	repo.delay = 2 * time.Millisecond

	trees, err := newService(repo).FindAll(context.Background(), 5, 15)
	require.NoError(t, err)

	require.Len(t, trees, 15)
	for i, tree := range trees {
		assert.Equal(t, int64(6+i), tree.ID)
		assert.Equal(t, []int64{106 + int64(i)}, childIDs(tree))
	}
	assert.LessOrEqual(t, repo.peak(), 10)
}

func TestService_FindAll_InvalidWindow(t *testing.T) {
	repo := newSpy()
	svc := newService(repo)

	for _, tc := range []struct {
		name          string
		offset, limit int
	}{
		{"negative offset", -1, 10},
		{"zero limit", 0, 0},
		{"limit too large", 0, ticket.MaxPageSize + 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.FindAll(context.Background(), tc.offset, tc.limit)
			assert.ErrorIs(t, err, ticket.ErrValidation)
		})
	}
	assert.Zero(t, repo.total())
}

func TestService_FindAll_StorageError(t *testing.T) {
	repo := newSpy()
	repo.rootsErr = ticket.Transient("scan", assert.AnError)

	_, err := newService(repo).FindAll(context.Background(), 0, 10)
	assert.ErrorIs(t, err, ticket.ErrTransientStorage)
}

func TestService_CreateTicket(t *testing.T) {
	repo := newSpy()

	created, err := newService(repo).CreateTicket(context.Background(), "Write docs", "Describe the engine")
	require.NoError(t, err)
	assert.Equal(t, "Write docs", created.Title)
	assert.True(t, created.IsRoot())
	assert.False(t, created.Completed)
	assert.Equal(t, 1, repo.count("CreateRecord"))
}

func TestService_CreateTicket_Validation(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		valid       bool
	}{
		{"empty title", "", "x", false},
		{"title too long", strings.Repeat("a", 256), "x", false},
		{"title at limit", strings.Repeat("a", 255), "x", true},
		{"multibyte title at limit", strings.Repeat("å", 255), "x", true},
		{"empty description", "t", "", false},
		{"description too long", "t", strings.Repeat("d", 1001), false},
		{"description at limit", "t", strings.Repeat("d", 1000), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newSpy()
			_, err := newService(repo).CreateTicket(context.Background(), tt.title, tt.description)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ticket.ErrValidation)
			assert.Zero(t, repo.total(), "no repository calls expected")
		})
	}
}

func TestService_CreateTicket_CreationFailed(t *testing.T) {
	repo := newSpy()
	repo.nilCreate = true

	_, err := newService(repo).CreateTicket(context.Background(), "t", "d")
	assert.ErrorIs(t, err, ticket.ErrCreationFailed)
}

func TestService_ToggleAndDelete(t *testing.T) {
	repo := newSpy()
	seedScenario(t, repo)
	svc := newService(repo)
	ctx := context.Background()

	tree, err := svc.ToggleTicket(ctx, 1, true)
	require.NoError(t, err)
	assert.True(t, tree.Children[0].Children[0].Completed)

	deleted, err := svc.DeleteTicket(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	remaining, err := svc.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, childIDs(remaining))
}

func TestService_RemoveParent(t *testing.T) {
	repo := newSpy()
	seedScenario(t, repo)
	svc := newService(repo)
	ctx := context.Background()

	t.Run("child becomes root", func(t *testing.T) {
		got, err := svc.RemoveParent(ctx, 4)
		require.NoError(t, err)
		assert.True(t, got.IsRoot())

		roots, err := svc.FindAll(ctx, 0, 10)
		require.NoError(t, err)
		assert.Len(t, roots, 2)
	})

	t.Run("root is a no-op", func(t *testing.T) {
		before := repo.count("ClearParent")
		got, err := svc.RemoveParent(ctx, 1)
		require.NoError(t, err)
		assert.True(t, got.IsRoot())
		assert.Equal(t, before, repo.count("ClearParent"))
	})

	t.Run("missing ticket", func(t *testing.T) {
		_, err := svc.RemoveParent(ctx, 404)
		assert.ErrorIs(t, err, ticket.ErrNotFound)
	})
}

func TestService_SetParent(t *testing.T) {
	repo := newSpy()
	seedScenario(t, repo)
	repo.Insert(ticket.Ticket{ID: 5, Title: "loose"})
	svc := newService(repo)
	ctx := context.Background()

	t.Run("moves ticket", func(t *testing.T) {
		got, err := svc.SetParent(ctx, 5, 3)
		require.NoError(t, err)
		require.NotNil(t, got.ParentID)
		assert.Equal(t, int64(3), *got.ParentID)
	})

	t.Run("same parent is a no-op", func(t *testing.T) {
		before := repo.count("SetParent")
		_, err := svc.SetParent(ctx, 5, 3)
		require.NoError(t, err)
		assert.Equal(t, before, repo.count("SetParent"))
	})

	t.Run("self", func(t *testing.T) {
		_, err := svc.SetParent(ctx, 2, 2)
		assert.ErrorIs(t, err, ticket.ErrParentCycle)
	})

	t.Run("into own descendant", func(t *testing.T) {
		_, err := svc.SetParent(ctx, 1, 4)
		assert.ErrorIs(t, err, ticket.ErrParentCycle)

		root, err := repo.Store.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.True(t, root.IsRoot())
	})

	t.Run("missing parent", func(t *testing.T) {
		_, err := svc.SetParent(ctx, 5, 404)
		assert.ErrorIs(t, err, ticket.ErrNotFound)
	})
}

func TestService_AddChildren(t *testing.T) {
	repo := newSpy()
	seedScenario(t, repo)
	for i := int64(10); i < 20; i++ {
		repo.Insert(ticket.Ticket{ID: i, Title: "new"})
	}
	repo.resetCounters()
	svc := newService(repo)
	ctx := context.Background()

	children := []int64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	tree, err := svc.AddChildren(ctx, 3, children)
	require.NoError(t, err)
	assert.Equal(t, children, childIDs(tree))
	assert.LessOrEqual(t, repo.peak(), 5)

	_, err = svc.AddChildren(ctx, 3, nil)
	assert.ErrorIs(t, err, ticket.ErrValidation)

	_, err = svc.AddChildren(ctx, 4, []int64{1})
	assert.ErrorIs(t, err, ticket.ErrParentCycle)
}
