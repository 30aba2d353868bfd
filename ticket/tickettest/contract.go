// Package tickettest provides a contract suite that every ticket.Repository
// implementation runs against itself.
package tickettest

import (
	"context"
	"testing"

	"github.com/jacentio/tickets/ticket"
)

// RunRepositoryContract runs the contract suite. factory is called once per
// subtest; implementations backed by shared tables may return the same
// instance, the checks only rely on tickets they create themselves.
func RunRepositoryContract(t *testing.T, factory func() ticket.Repository) {
	t.Run("CreateAndFind", func(t *testing.T) { testCreateAndFind(t, factory()) })
	t.Run("FindMissing", func(t *testing.T) { testFindMissing(t, factory()) })
	t.Run("Children", func(t *testing.T) { testChildren(t, factory()) })
	t.Run("Roots", func(t *testing.T) { testRoots(t, factory()) })
	t.Run("SetCompletion", func(t *testing.T) { testSetCompletion(t, factory()) })
	t.Run("ClearParent", func(t *testing.T) { testClearParent(t, factory()) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, factory()) })
}

func mustCreate(t *testing.T, r ticket.Repository, title string) ticket.Ticket {
	t.Helper()
	created, err := r.CreateRecord(context.Background(), title, title+" description")
	if err != nil {
		t.Fatalf("CreateRecord(%q) failed: %v", title, err)
	}
	if created == nil {
		t.Fatalf("CreateRecord(%q) returned nil", title)
	}
	return *created
}

func mustSetParent(t *testing.T, r ticket.Repository, id, parentID int64) ticket.Ticket {
	t.Helper()
	updated, err := r.SetParent(context.Background(), id, parentID)
	if err != nil {
		t.Fatalf("SetParent(%d, %d) failed: %v", id, parentID, err)
	}
	if updated == nil {
		t.Fatalf("SetParent(%d, %d) returned nil", id, parentID)
	}
	return *updated
}

func testCreateAndFind(t *testing.T, r ticket.Repository) {
	ctx := context.Background()
	created := mustCreate(t, r, "contract create")

	if created.ID <= 0 {
		t.Errorf("expected positive id, got %d", created.ID)
	}
	if !created.IsRoot() {
		t.Errorf("expected new ticket to be a root, got parent %d", *created.ParentID)
	}
	if created.Completed {
		t.Error("expected new ticket to be incomplete")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	next := mustCreate(t, r, "contract create next")
	if next.ID <= created.ID {
		t.Errorf("expected monotonic ids, got %d after %d", next.ID, created.ID)
	}

	got, err := r.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected ticket, got nil")
	}
	if got.Title != created.Title || got.Description != created.Description {
		t.Errorf("expected %q/%q, got %q/%q", created.Title, created.Description, got.Title, got.Description)
	}
}

func testFindMissing(t *testing.T, r ticket.Repository) {
	ctx := context.Background()
	const missing = int64(1 << 60)

	got, err := r.FindByID(ctx, missing)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing ticket, got %+v", got)
	}

	updated, err := r.SetCompletion(ctx, missing, true)
	if err != nil {
		t.Fatalf("SetCompletion failed: %v", err)
	}
	if updated != nil {
		t.Errorf("expected nil SetCompletion result, got %+v", updated)
	}

	deleted, err := r.DeleteRecord(ctx, missing)
	if err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if deleted != nil {
		t.Errorf("expected nil DeleteRecord result, got %+v", deleted)
	}
}

func testChildren(t *testing.T, r ticket.Repository) {
	ctx := context.Background()
	parent := mustCreate(t, r, "contract parent")
	a := mustCreate(t, r, "contract child a")
	b := mustCreate(t, r, "contract child b")

	empty, err := r.FindChildren(ctx, parent.ID)
	if err != nil {
		t.Fatalf("FindChildren failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no children, got %d", len(empty))
	}

	moved := mustSetParent(t, r, b.ID, parent.ID)
	if moved.ParentID == nil || *moved.ParentID != parent.ID {
		t.Errorf("expected parent %d, got %v", parent.ID, moved.ParentID)
	}
	mustSetParent(t, r, a.ID, parent.ID)

	children, err := r.FindChildren(ctx, parent.ID)
	if err != nil {
		t.Fatalf("FindChildren failed: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	if children[0].ID != a.ID || children[1].ID != b.ID {
		t.Errorf("expected children [%d %d] in id order, got [%d %d]", a.ID, b.ID, children[0].ID, children[1].ID)
	}
}

func testRoots(t *testing.T, r ticket.Repository) {
	ctx := context.Background()
	r1 := mustCreate(t, r, "contract root 1")
	r2 := mustCreate(t, r, "contract root 2")
	child := mustCreate(t, r, "contract root child")
	mustSetParent(t, r, child.ID, r1.ID)

	all, err := r.FindRoots(ctx, 0, 1000)
	if err != nil {
		t.Fatalf("FindRoots failed: %v", err)
	}

	pos := map[int64]int{}
	for i, root := range all {
		if !root.IsRoot() {
			t.Errorf("FindRoots returned child ticket %d", root.ID)
		}
		if i > 0 && all[i-1].ID >= root.ID {
			t.Errorf("expected ascending ids, got %d then %d", all[i-1].ID, root.ID)
		}
		pos[root.ID] = i
	}
	if _, ok := pos[r1.ID]; !ok {
		t.Errorf("expected root %d in listing", r1.ID)
	}
	if _, ok := pos[r2.ID]; !ok {
		t.Errorf("expected root %d in listing", r2.ID)
	}
	if _, ok := pos[child.ID]; ok {
		t.Errorf("expected child %d to be excluded", child.ID)
	}

	if len(all) >= 2 {
		window, err := r.FindRoots(ctx, 1, 1)
		if err != nil {
			t.Fatalf("FindRoots window failed: %v", err)
		}
		if len(window) != 1 || window[0].ID != all[1].ID {
			t.Errorf("expected window [%d], got %+v", all[1].ID, window)
		}
	}

	past, err := r.FindRoots(ctx, len(all)+10, 10)
	if err != nil {
		t.Fatalf("FindRoots past end failed: %v", err)
	}
	if len(past) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(past))
	}
}

func testSetCompletion(t *testing.T, r ticket.Repository) {
	ctx := context.Background()
	created := mustCreate(t, r, "contract toggle")

	updated, err := r.SetCompletion(ctx, created.ID, true)
	if err != nil {
		t.Fatalf("SetCompletion failed: %v", err)
	}
	if updated == nil || !updated.Completed {
		t.Fatalf("expected completed ticket, got %+v", updated)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Errorf("expected UpdatedAt to move forward, got %v before %v", updated.UpdatedAt, created.UpdatedAt)
	}

	got, err := r.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got == nil || !got.Completed {
		t.Errorf("expected stored ticket to be completed, got %+v", got)
	}
}

func testClearParent(t *testing.T, r ticket.Repository) {
	ctx := context.Background()
	parent := mustCreate(t, r, "contract clear parent")
	child := mustCreate(t, r, "contract clear child")
	mustSetParent(t, r, child.ID, parent.ID)

	cleared, err := r.ClearParent(ctx, child.ID)
	if err != nil {
		t.Fatalf("ClearParent failed: %v", err)
	}
	if cleared == nil || !cleared.IsRoot() {
		t.Fatalf("expected root ticket, got %+v", cleared)
	}

	children, err := r.FindChildren(ctx, parent.ID)
	if err != nil {
		t.Fatalf("FindChildren failed: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("expected no children after ClearParent, got %d", len(children))
	}
}

func testDelete(t *testing.T, r ticket.Repository) {
	ctx := context.Background()
	created := mustCreate(t, r, "contract delete")

	deleted, err := r.DeleteRecord(ctx, created.ID)
	if err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if deleted == nil || deleted.ID != created.ID {
		t.Fatalf("expected confirmation for %d, got %+v", created.ID, deleted)
	}

	got, err := r.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}

	again, err := r.DeleteRecord(ctx, created.ID)
	if err != nil {
		t.Fatalf("second DeleteRecord failed: %v", err)
	}
	if again != nil {
		t.Errorf("expected nil on second delete, got %+v", again)
	}
}
