// Package stream provides DynamoDB Streams handlers for cascade deletes.
//
// The synchronous cascade in package ticket stops at the tree depth bound.
// The handler here finishes the job: whenever a ticket gains a ttl, the same
// ttl is copied to all of its children, whose own stream records then carry
// the deletion further down.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/tickets/store"
)

// Store is the part of *store.Store the handler writes through.
type Store interface {
	QueryAllChildren(ctx context.Context, parentID int64) ([]store.ChildRef, error)
	SetTTLByID(ctx context.Context, id, ttl, from int64) error
	SetRelationshipTTL(ctx context.Context, childID, parentID, ttl int64) error
}

var _ Store = (*store.Store)(nil)

// ErrPartialCascade is returned when some children could not be expired.
// The stream retries the batch; every step is idempotent.
var ErrPartialCascade = errors.New("tickets: cascade delete incomplete")

// Handler processes DynamoDB stream events for cascade deletes.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(s Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  s,
		logger: logger,
	}
}

// HandleCascadeDelete processes DynamoDB stream events to propagate TTL to children.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleCascadeDelete(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	// Only process MODIFY events where TTL was added
	if record.EventName != "MODIFY" {
		return nil
	}

	oldTTL := getNumberAttr(record.Change.OldImage, "ttl")
	newTTL := getNumberAttr(record.Change.NewImage, "ttl")
	if oldTTL != 0 || newTTL == 0 {
		return nil
	}

	id := getNumberAttr(record.Change.NewImage, "id")
	if id == 0 {
		h.logger.Warn("skipping record without ticket id", "eventID", record.EventID)
		return nil
	}
	parentID := getNumberAttr(record.Change.NewImage, "parent_id")

	h.logger.Info("processing cascade delete",
		"id", id,
		"parentID", parentID,
		"ttl", newTTL,
	)

	// 1. Query all children (including already-deleted ones - idempotent)
	children, err := h.store.QueryAllChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("query children of %d: %w", id, err)
	}

	// 2. Set same TTL on all children (triggers their cascade via stream).
	// Children remember id so a synchronous cascade reaching them later
	// counts them as deleted.
	failed := 0
	for _, child := range children {
		if err := h.store.SetTTLByID(ctx, child.ID, newTTL, id); err != nil {
			failed++
			h.logger.Warn("failed to set TTL on child",
				"id", id,
				"child", child.ID,
				"error", err,
			)
		}
	}

	// 3. Expire this ticket's own relationship record
	if parentID != 0 {
		if err := h.store.SetRelationshipTTL(ctx, id, parentID, newTTL); err != nil {
			h.logger.Warn("failed to set relationship TTL",
				"id", id,
				"parentID", parentID,
				"error", err,
			)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d children of ticket %d", ErrPartialCascade, failed, len(children), id)
	}

	h.logger.Info("cascade delete completed",
		"id", id,
		"childrenProcessed", len(children),
	)
	return nil
}

// getNumberAttr extracts an integer attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}
