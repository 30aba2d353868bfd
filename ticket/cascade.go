package ticket

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Flatten returns the tree in pre-order: the node first, then the flattened
// children left to right.
func Flatten(tree *Node) []Ticket {
	nodes := flattenNodes(tree)
	out := make([]Ticket, len(nodes))
	for i, n := range nodes {
		out[i] = n.Ticket
	}
	return out
}

// CountDescendants returns the number of nodes below tree.
func CountDescendants(tree *Node) int {
	if tree == nil {
		return 0
	}
	return len(flattenNodes(tree)) - 1
}

func flattenNodes(tree *Node) []*Node {
	if tree == nil {
		return nil
	}
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		out = append(out, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(tree)
	return out
}

// Cascade applies a mutation to every ticket of a subtree.
//
// The subtree is fully built before any write is sent. Writes are issued
// with at most WriteConcurrency in flight and all of them are awaited. The
// first failure is returned; writes that already succeeded are kept.
type Cascade struct {
	repo    Repository
	builder *TreeBuilder
	limit   int
	logger  *slog.Logger
}

// NewCascade creates a Cascade. A nil logger falls back to slog.Default().
func NewCascade(repo Repository, builder *TreeBuilder, cfg Config, logger *slog.Logger) *Cascade {
	cfg.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Cascade{
		repo:    repo,
		builder: builder,
		limit:   cfg.WriteConcurrency,
		logger:  logger,
	}
}

// Toggle sets completed on rootID and all of its descendants. The returned
// tree holds the tickets as the repository returned them after the update.
func (c *Cascade) Toggle(ctx context.Context, rootID int64, completed bool) (*Node, error) {
	tree, err := c.builder.BuildTree(ctx, rootID)
	if err != nil {
		return nil, err
	}

	nodes := flattenNodes(tree)
	c.logger.Info("cascading toggle",
		"rootID", rootID,
		"completed", completed,
		"tickets", len(nodes),
	)

	updated := make([]Ticket, len(nodes))
	err = fanOut(ctx, c.limit, len(nodes), func(ctx context.Context, i int) error {
		id := nodes[i].ID
		t, err := c.repo.SetCompletion(ctx, id, completed)
		if err == nil && t == nil {
			err = notFound("toggle", id)
		}
		cascadeMutations.WithLabelValues("toggle", outcome(err)).Inc()
		if err != nil {
			return storageError("toggle", id, err)
		}
		updated[i] = *t
		return nil
	})
	if err != nil {
		c.logger.Warn("cascade toggle failed, subtree may be partially updated",
			"rootID", rootID,
			"error", err,
		)
		return nil, settle("toggle", rootID, err)
	}

	for i, n := range nodes {
		n.Ticket = updated[i]
	}
	return tree, nil
}

// Delete removes rootID and all of its descendants. On success it returns one
// confirmation per ticket in pre-order, the root first.
//
// A ticket that disappears between tree construction and its delete fails
// the whole call with ErrNotFound even though other deletes may already have
// committed.
func (c *Cascade) Delete(ctx context.Context, rootID int64) ([]Deleted, error) {
	tree, err := c.builder.BuildTree(ctx, rootID)
	if err != nil {
		return nil, err
	}

	nodes := flattenNodes(tree)
	c.logger.Info("cascading delete",
		"rootID", rootID,
		"tickets", len(nodes),
	)

	deleted := make([]Deleted, len(nodes))
	err = fanOut(ctx, c.limit, len(nodes), func(ctx context.Context, i int) error {
		id := nodes[i].ID
		d, err := c.repo.DeleteRecord(ctx, id)
		if err == nil && d == nil {
			err = notFound("delete", id)
		}
		cascadeMutations.WithLabelValues("delete", outcome(err)).Inc()
		if err != nil {
			return storageError("delete", id, err)
		}
		deleted[i] = *d
		return nil
	})
	if err != nil {
		c.logger.Warn("cascade delete failed, subtree may be partially deleted",
			"rootID", rootID,
			"error", err,
		)
		return nil, settle("delete", rootID, err)
	}
	return deleted, nil
}

// fanOut runs fn for every index in [0, n) with at most limit calls in
// flight and waits for all of them. After the first failure the remaining
// calls that have not started are skipped.
func fanOut(ctx context.Context, limit, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
