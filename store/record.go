package store

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/tickets/internal/shard"
	"github.com/jacentio/tickets/ticket"
)

// rootMarker is the partition value of the sparse root index.
const rootMarker = "ROOT"

// record is the stored shape of a ticket.
type record struct {
	ID          int64  `dynamodbav:"id"`
	Title       string `dynamodbav:"title"`
	Description string `dynamodbav:"description"`
	Completed   bool   `dynamodbav:"completed"`
	CreatedAt   string `dynamodbav:"created_at"`
	UpdatedAt   string `dynamodbav:"updated_at"`
	ParentID    *int64 `dynamodbav:"parent_id,omitempty"`
	RootPK      string `dynamodbav:"root_pk,omitempty"`
	Version     int64  `dynamodbav:"version"`
	TTL         int64  `dynamodbav:"ttl,omitempty"`
}

// relationship links a child to its parent in the relationship table.
type relationship struct {
	PK       string `dynamodbav:"pk"`
	ChildRef string `dynamodbav:"child_ref"`
	ChildID  int64  `dynamodbav:"child_id"`
	ParentID int64  `dynamodbav:"parent_id"`
	TTL      int64  `dynamodbav:"ttl,omitempty"`
}

// ChildRef represents a reference to a child ticket in the relationship table.
type ChildRef struct {
	// ID is the child's ticket id.
	ID int64

	// ShardPK is the relationship table partition key (for TTL updates).
	ShardPK string

	// TTL is the relationship record's ttl, zero when unset.
	TTL int64
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime accepts RFC3339 with or without fractional seconds. Unparseable
// values yield the zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (r record) ticket() ticket.Ticket {
	t := ticket.Ticket{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}
	if r.ParentID != nil {
		t.ParentID = ticket.Int64(*r.ParentID)
	}
	return t
}

// unmarshalTicket converts a raw item. Deleted items yield nil.
func unmarshalTicket(raw map[string]types.AttributeValue) (*ticket.Ticket, error) {
	if raw == nil || IsDeleted(raw) {
		return nil, nil
	}
	var r record
	if err := attributevalue.UnmarshalMap(raw, &r); err != nil {
		return nil, err
	}
	t := r.ticket()
	return &t, nil
}

// unmarshalChildRef converts a relationship item to a ChildRef.
func unmarshalChildRef(item map[string]types.AttributeValue, shardPK string) ChildRef {
	ref := ChildRef{ShardPK: shardPK}

	if v, ok := item["child_id"].(*types.AttributeValueMemberN); ok {
		ref.ID, _ = strconv.ParseInt(v.Value, 10, 64)
	}
	if v, ok := item["ttl"].(*types.AttributeValueMemberN); ok {
		ref.TTL, _ = strconv.ParseInt(v.Value, 10, 64)
	}

	return ref
}

// ticketKey is the primary key of a ticket item.
func ticketKey(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
	}
}

// relationshipKey is the primary key of the record linking childID to parentID.
func relationshipKey(parentID, childID int64, numShards int) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk":        &types.AttributeValueMemberS{Value: shard.RelationshipPK(parentID, childID, numShards)},
		"child_ref": &types.AttributeValueMemberS{Value: shard.Ref(childID)},
	}
}

func numberValue(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}
