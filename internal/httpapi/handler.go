// Package httpapi exposes the ticket service over HTTP.
//
// Every operation runs under a request deadline and is retried a bounded
// number of times when storage reports a transient failure. Responses use a
// small envelope:
//
//	{"success": true, "data": ..., "message": "..."}
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jacentio/tickets/ticket"
)

// Service is the ticket service as seen by the HTTP layer.
type Service interface {
	FindByID(ctx context.Context, id int64) (*ticket.Node, error)
	FindAll(ctx context.Context, offset, limit int) ([]*ticket.Node, error)
	CreateTicket(ctx context.Context, title, description string) (*ticket.Ticket, error)
	ToggleTicket(ctx context.Context, id int64, completed bool) (*ticket.Node, error)
	DeleteTicket(ctx context.Context, id int64) ([]ticket.Deleted, error)
	RemoveParent(ctx context.Context, id int64) (*ticket.Ticket, error)
	SetParent(ctx context.Context, id, parentID int64) (*ticket.Ticket, error)
	AddChildren(ctx context.Context, parentID int64, childIDs []int64) (*ticket.Node, error)
}

var _ Service = (*ticket.Service)(nil)

// Options configures request handling.
type Options struct {
	// Timeout bounds each request, retries included.
	// Default: 2s
	Timeout time.Duration

	// Retries is the number of extra attempts after a transient storage error.
	// Default: 2
	Retries int

	// RetryDelay is the pause between attempts.
	// Default: 50ms
	RetryDelay time.Duration

	// PageSize is the limit used when a listing does not name one.
	// Default: 20
	PageSize int
}

// DefaultOptions returns the request handling defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:    2 * time.Second,
		Retries:    2,
		RetryDelay: 50 * time.Millisecond,
		PageSize:   20,
	}
}

func (o *Options) validate() {
	d := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.PageSize < 1 || o.PageSize > ticket.MaxPageSize {
		o.PageSize = d.PageSize
	}
}

// Handler serves the ticket routes.
type Handler struct {
	service Service
	options Options
	logger  *slog.Logger
}

// NewHandler creates a Handler. A nil logger falls back to slog.Default().
func NewHandler(service Service, options Options, logger *slog.Logger) *Handler {
	options.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, options: options, logger: logger}
}

// Register adds the ticket routes to router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/tickets", h.findAll).Methods(http.MethodGet)
	router.HandleFunc("/tickets", h.create).Methods(http.MethodPost)
	router.HandleFunc("/tickets/{id}", h.findByID).Methods(http.MethodGet)
	router.HandleFunc("/tickets/{id}", h.delete).Methods(http.MethodDelete)
	router.HandleFunc("/tickets/{id}/completed", h.toggle).Methods(http.MethodPut)
	router.HandleFunc("/tickets/{id}/parent", h.setParent).Methods(http.MethodPut)
	router.HandleFunc("/tickets/{id}/parent", h.removeParent).Methods(http.MethodDelete)
	router.HandleFunc("/tickets/{id}/children", h.addChildren).Methods(http.MethodPost)
}

// NewRouter returns a router with the ticket routes, a health check and,
// when metrics is non-nil, a /metrics endpoint.
func NewRouter(h *Handler, metrics http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestID)
	h.Register(router)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if metrics != nil {
		router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
	return router
}

type requestIDKey struct{}

// requestID tags each request with an id, reusing X-Request-ID when the
// client sent one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// findAll handles GET /tickets.
func (h *Handler) findAll(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", h.options.PageSize)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	trees, err := call(r.Context(), h, "find all", func(ctx context.Context) ([]*ticket.Node, error) {
		return h.service.FindAll(ctx, offset, limit)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	children := 0
	for _, tree := range trees {
		children += ticket.CountDescendants(tree)
	}
	h.ok(w, http.StatusOK, trees, fmt.Sprintf("Found %d tickets with %d children", len(trees), children))
}

// findByID handles GET /tickets/{id}.
func (h *Handler) findByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	tree, err := call(r.Context(), h, "find", func(ctx context.Context) (*ticket.Node, error) {
		return h.service.FindByID(ctx, id)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, tree, fmt.Sprintf("Found ticket with ID %d with %d children", tree.ID, ticket.CountDescendants(tree)))
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// create handles POST /tickets.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	t, err := call(r.Context(), h, "create", func(ctx context.Context) (*ticket.Ticket, error) {
		return h.service.CreateTicket(ctx, req.Title, req.Description)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusCreated, t, fmt.Sprintf("Created ticket with ID %d", t.ID))
}

type toggleRequest struct {
	Completed *bool `json:"completed"`
}

// toggle handles PUT /tickets/{id}/completed.
func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Completed == nil {
		h.badRequest(w, r, fmt.Errorf("completed is required"))
		return
	}

	tree, err := call(r.Context(), h, "toggle", func(ctx context.Context) (*ticket.Node, error) {
		return h.service.ToggleTicket(ctx, id, *req.Completed)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, tree,
		fmt.Sprintf("Updated ticket with ID %d to completed: %t and all children", tree.ID, tree.Completed))
}

// delete handles DELETE /tickets/{id}.
func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	deleted, err := callOnce(r.Context(), h, "delete", func(ctx context.Context) ([]ticket.Deleted, error) {
		return h.service.DeleteTicket(ctx, id)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, deleted,
		fmt.Sprintf("Deleted ticket with ID %d and %d children", id, len(deleted)-1))
}

// removeParent handles DELETE /tickets/{id}/parent.
func (h *Handler) removeParent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	t, err := call(r.Context(), h, "remove parent", func(ctx context.Context) (*ticket.Ticket, error) {
		return h.service.RemoveParent(ctx, id)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, t, fmt.Sprintf("Ticket with ID %d is a root ticket", t.ID))
}

type setParentRequest struct {
	ParentID *int64 `json:"parentId"`
}

// setParent handles PUT /tickets/{id}/parent.
func (h *Handler) setParent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req setParentRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.ParentID == nil {
		h.badRequest(w, r, fmt.Errorf("parentId is required"))
		return
	}

	t, err := call(r.Context(), h, "set parent", func(ctx context.Context) (*ticket.Ticket, error) {
		return h.service.SetParent(ctx, id, *req.ParentID)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, t, fmt.Sprintf("Moved ticket with ID %d under ticket with ID %d", t.ID, *req.ParentID))
}

type addChildrenRequest struct {
	ChildIDs []int64 `json:"childIds"`
}

// addChildren handles POST /tickets/{id}/children.
func (h *Handler) addChildren(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req addChildrenRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	tree, err := call(r.Context(), h, "add children", func(ctx context.Context) (*ticket.Node, error) {
		return h.service.AddChildren(ctx, id, req.ChildIDs)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, tree, fmt.Sprintf("Found ticket with ID %d with %d children", tree.ID, ticket.CountDescendants(tree)))
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		h.badRequest(w, r, fmt.Errorf("invalid ticket id %q", raw))
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request payload: %w", err)
	}
	return nil
}
