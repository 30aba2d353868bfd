package ticket

import (
	"context"
)

// TreeBuilder turns a root ticket into a nested tree by breadth-first
// enrichment.
//
// The root and its direct children are fetched first. Each following round
// drains up to BatchSize queued nodes and fetches the children of every child
// attached to them, so each node costs exactly one FindChildren call. At most
// MaxDepth rounds run; whatever lies deeper is left out without an error.
// A round is counted whether or not it finished a whole level, so very wide
// levels eat into the depth budget.
type TreeBuilder struct {
	repo      Repository
	maxDepth  int
	batchSize int
}

// NewTreeBuilder creates a TreeBuilder reading from repo.
func NewTreeBuilder(repo Repository, cfg Config) *TreeBuilder {
	cfg.validate()
	return &TreeBuilder{
		repo:      repo,
		maxDepth:  cfg.MaxDepth,
		batchSize: cfg.BatchSize,
	}
}

// BuildTree resolves rootID and builds its tree. It returns ErrNotFound when
// the root does not exist.
func (b *TreeBuilder) BuildTree(ctx context.Context, rootID int64) (*Node, error) {
	root, err := b.repo.FindByID(ctx, rootID)
	if err != nil {
		return nil, storageError("find", rootID, err)
	}
	if root == nil {
		return nil, notFound("build tree", rootID)
	}
	return b.Build(ctx, *root)
}

// Build builds the tree below an already resolved root.
func (b *TreeBuilder) Build(ctx context.Context, root Ticket) (*Node, error) {
	// Every discovered node, keyed by id. A ticket already in the tree is
	// never attached a second time, which also stops cyclic parent chains
	// from repeating ids.
	index := map[int64]*Node{}

	tree := newNode(root)
	index[root.ID] = tree
	if err := b.attachChildren(ctx, tree, index); err != nil {
		return nil, err
	}

	queue := []*Node{tree}
	rounds := 0
	for depth := 0; depth < b.maxDepth; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, storageError("build tree", root.ID, err)
		}

		n := min(len(queue), b.batchSize)
		batch := queue[:n]
		queue = queue[n:]
		if len(batch) == 0 {
			break
		}
		rounds++

		for _, node := range batch {
			for _, child := range node.Children {
				if err := b.attachChildren(ctx, child, index); err != nil {
					return nil, err
				}
				queue = append(queue, child)
			}
		}
	}

	treeRounds.Observe(float64(rounds))
	treeNodes.Observe(float64(len(index)))
	return tree, nil
}

// attachChildren fetches the direct children of node and attaches those not
// seen before.
func (b *TreeBuilder) attachChildren(ctx context.Context, node *Node, index map[int64]*Node) error {
	children, err := b.repo.FindChildren(ctx, node.ID)
	if err != nil {
		return storageError("find children", node.ID, err)
	}

	node.Children = make([]*Node, 0, len(children))
	for _, c := range children {
		if _, seen := index[c.ID]; seen {
			continue
		}
		child := newNode(c)
		index[c.ID] = child
		node.Children = append(node.Children, child)
	}
	return nil
}
