package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/jacentio/tickets/ticket")

// Service exposes the ticket operations to transports.
type Service struct {
	repo    Repository
	builder *TreeBuilder
	cascade *Cascade
	config  Config
	logger  *slog.Logger
}

// NewService wires a Service around repo. A nil logger falls back to
// slog.Default().
func NewService(repo Repository, config Config, logger *slog.Logger) *Service {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	builder := NewTreeBuilder(repo, config)
	return &Service{
		repo:    repo,
		builder: builder,
		cascade: NewCascade(repo, builder, config, logger),
		config:  config,
		logger:  logger,
	}
}

// begin starts a span for op and returns a function that records the
// outcome on the span and in metrics.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "Service."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		operationTotal.WithLabelValues(op, outcome(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, KindOf(err).String())
		}
		span.End()
	}
}

// find resolves id or fails with ErrNotFound.
func (s *Service) find(ctx context.Context, op string, id int64) (*Ticket, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(op, id, err)
	}
	if t == nil {
		s.logger.Warn("ticket not found", "op", op, "id", id)
		return nil, notFound(op, id)
	}
	return t, nil
}

// FindByID returns the tree rooted at id.
func (s *Service) FindByID(ctx context.Context, id int64) (tree *Node, err error) {
	ctx, done := s.begin(ctx, "find_by_id", attribute.Int64("ticket.id", id))
	defer func() { done(err) }()

	s.logger.Info("looking up ticket", "id", id)
	root, err := s.find(ctx, "find", id)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(ctx, *root)
}

// FindAll returns the trees of the root tickets inside the pagination window,
// in repository order. An empty page fails with ErrNoRecordsFound, including
// a page that is empty only because offset is past the end.
func (s *Service) FindAll(ctx context.Context, offset, limit int) (trees []*Node, err error) {
	ctx, done := s.begin(ctx, "find_all",
		attribute.Int("page.offset", offset),
		attribute.Int("page.limit", limit),
	)
	defer func() { done(err) }()

	if err := (PageInput{Offset: offset, Limit: limit}).Validate(); err != nil {
		return nil, validationError("find all", err)
	}

	s.logger.Info("finding root tickets", "offset", offset, "limit", limit)
	roots, err := s.repo.FindRoots(ctx, offset, limit)
	if err != nil {
		return nil, storageError("find roots", 0, err)
	}
	if len(roots) == 0 {
		s.logger.Warn("no root tickets found", "offset", offset, "limit", limit)
		return nil, &Error{Kind: KindNoRecordsFound, Op: "find all", Msg: "no tickets found"}
	}

	trees = make([]*Node, len(roots))
	err = fanOut(ctx, s.config.ReadConcurrency, len(roots), func(ctx context.Context, i int) error {
		tree, err := s.builder.Build(ctx, roots[i])
		if err != nil {
			return err
		}
		trees[i] = tree
		return nil
	})
	if err != nil {
		return nil, settle("find all", 0, err)
	}

	s.logger.Info("found root tickets", "count", len(trees))
	return trees, nil
}

// CreateTicket stores a new root ticket. Input is validated before the
// repository is touched.
func (s *Service) CreateTicket(ctx context.Context, title, description string) (t *Ticket, err error) {
	ctx, done := s.begin(ctx, "create")
	defer func() { done(err) }()

	if err := (CreateInput{Title: title, Description: description}).Validate(); err != nil {
		return nil, validationError("create", err)
	}

	t, err = s.repo.CreateRecord(ctx, title, description)
	if err != nil {
		return nil, storageError("create", 0, err)
	}
	if t == nil {
		s.logger.Warn("ticket creation returned nothing", "title", title)
		return nil, &Error{Kind: KindCreationFailed, Op: "create", Msg: fmt.Sprintf("failed to create ticket %q", title)}
	}

	s.logger.Info("created ticket", "id", t.ID, "title", t.Title)
	return t, nil
}

// ToggleTicket sets completed on id and every descendant. See [Cascade.Toggle]
// for the consistency caveat.
func (s *Service) ToggleTicket(ctx context.Context, id int64, completed bool) (tree *Node, err error) {
	ctx, done := s.begin(ctx, "toggle",
		attribute.Int64("ticket.id", id),
		attribute.Bool("ticket.completed", completed),
	)
	defer func() { done(err) }()

	tree, err = s.cascade.Toggle(ctx, id, completed)
	if err != nil {
		return nil, err
	}

	s.logger.Info("cascade toggle completed", "id", id, "updated", CountDescendants(tree)+1)
	return tree, nil
}

// DeleteTicket deletes id and every descendant. See [Cascade.Delete] for the
// consistency caveat.
func (s *Service) DeleteTicket(ctx context.Context, id int64) (deleted []Deleted, err error) {
	ctx, done := s.begin(ctx, "delete", attribute.Int64("ticket.id", id))
	defer func() { done(err) }()

	deleted, err = s.cascade.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("cascade delete completed", "id", id, "deleted", len(deleted))
	return deleted, nil
}

// RemoveParent makes id a root ticket. A ticket that already is a root is
// returned unchanged.
func (s *Service) RemoveParent(ctx context.Context, id int64) (t *Ticket, err error) {
	ctx, done := s.begin(ctx, "remove_parent", attribute.Int64("ticket.id", id))
	defer func() { done(err) }()

	current, err := s.find(ctx, "remove parent", id)
	if err != nil {
		return nil, err
	}
	if current.IsRoot() {
		s.logger.Info("ticket is already a root", "id", id)
		return current, nil
	}

	t, err = s.repo.ClearParent(ctx, id)
	if err != nil {
		return nil, storageError("remove parent", id, err)
	}
	if t == nil {
		return nil, notFound("remove parent", id)
	}

	s.logger.Info("removed parent", "id", id, "previousParent", *current.ParentID)
	return t, nil
}

// SetParent moves id below parentID. It fails with ErrParentCycle when
// parentID is id itself or one of its descendants.
//
// The ancestor check and the write are separate repository calls, so two
// concurrent moves can still race into a cycle. Tree construction tolerates
// that by never visiting a ticket twice.
func (s *Service) SetParent(ctx context.Context, id, parentID int64) (t *Ticket, err error) {
	ctx, done := s.begin(ctx, "set_parent",
		attribute.Int64("ticket.id", id),
		attribute.Int64("ticket.parent_id", parentID),
	)
	defer func() { done(err) }()

	return s.setParent(ctx, id, parentID)
}

func (s *Service) setParent(ctx context.Context, id, parentID int64) (*Ticket, error) {
	if id == parentID {
		return nil, &Error{Kind: KindParentCycle, Op: "set parent", ID: id, Msg: "a ticket cannot be its own parent"}
	}

	child, err := s.find(ctx, "set parent", id)
	if err != nil {
		return nil, err
	}
	parent, err := s.find(ctx, "set parent", parentID)
	if err != nil {
		return nil, err
	}
	if child.ParentID != nil && *child.ParentID == parentID {
		return child, nil
	}

	if err := s.checkAncestors(ctx, id, parent); err != nil {
		return nil, err
	}

	t, err := s.repo.SetParent(ctx, id, parentID)
	if err != nil {
		return nil, storageError("set parent", id, err)
	}
	if t == nil {
		return nil, notFound("set parent", id)
	}

	s.logger.Info("set parent", "id", id, "parentID", parentID)
	return t, nil
}

// checkAncestors walks up from parent and fails if it meets id.
func (s *Service) checkAncestors(ctx context.Context, id int64, parent *Ticket) error {
	visited := map[int64]bool{parent.ID: true}
	cur := parent
	for cur.ParentID != nil {
		next := *cur.ParentID
		if next == id {
			return &Error{
				Kind: KindParentCycle,
				Op:   "set parent",
				ID:   id,
				Msg:  fmt.Sprintf("ticket %d is an ancestor of ticket %d", id, parent.ID),
			}
		}
		// An existing cycle above parent cannot contain id, or we would have
		// met it already.
		if visited[next] {
			return nil
		}
		visited[next] = true

		t, err := s.repo.FindByID(ctx, next)
		if err != nil {
			return storageError("set parent", next, err)
		}
		if t == nil {
			return nil
		}
		cur = t
	}
	return nil
}

// AddChildren moves every ticket in childIDs below parentID and returns the
// parent's rebuilt tree. Moves run with the cascade write limit; the first
// failure fails the call and earlier moves stay applied.
func (s *Service) AddChildren(ctx context.Context, parentID int64, childIDs []int64) (tree *Node, err error) {
	ctx, done := s.begin(ctx, "add_children",
		attribute.Int64("ticket.parent_id", parentID),
		attribute.Int("ticket.children", len(childIDs)),
	)
	defer func() { done(err) }()

	if len(childIDs) == 0 {
		return nil, &Error{Kind: KindValidation, Op: "add children", ID: parentID, Msg: "no children given"}
	}
	if _, err := s.find(ctx, "add children", parentID); err != nil {
		return nil, err
	}

	err = fanOut(ctx, s.config.WriteConcurrency, len(childIDs), func(ctx context.Context, i int) error {
		_, err := s.setParent(ctx, childIDs[i], parentID)
		return err
	})
	if err != nil {
		return nil, settle("add children", parentID, err)
	}

	return s.builder.BuildTree(ctx, parentID)
}
