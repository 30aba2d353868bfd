package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/tickets/internal/shard"
	"github.com/jacentio/tickets/ticket"
)

const (
	// maxBatchGet is the BatchGetItem key limit.
	maxBatchGet = 100

	// maxUnprocessedRetries bounds the re-submission of unprocessed keys.
	maxUnprocessedRetries = 5

	// counterName is the counter item holding the ticket id sequence.
	counterName = "tickets"
)

// API is the subset of the DynamoDB client used by Store.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

var _ ticket.Repository = (*Store)(nil)

// Store provides DynamoDB operations on tickets and their parent links.
type Store struct {
	client API
	config Config
}

// New creates a new Store instance.
func New(client API, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// Config returns the validated configuration.
func (s *Store) Config() Config {
	return s.config
}

// nextID allocates the next ticket id from the counter table.
func (s *Store) nextID(ctx context.Context) (int64, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.config.CounterTable),
		Key: map[string]types.AttributeValue{
			"name": &types.AttributeValueMemberS{Value: counterName},
		},
		UpdateExpression:         aws.String("ADD #seq :one"),
		ExpressionAttributeNames: map[string]string{"#seq": "seq"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": numberValue(1),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, mapError("next id", err)
	}

	v, ok := out.Attributes["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, ErrSequence
	}
	id, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil || id < 1 {
		return 0, ErrSequence
	}
	return id, nil
}

// CreateRecord stores a new root ticket. A colliding id yields a nil ticket.
func (s *Store) CreateRecord(ctx context.Context, title, description string) (*ticket.Ticket, error) {
	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	now := formatTime(time.Now())
	r := record{
		ID:          id,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		RootPK:      rootMarker,
		Version:     1,
	}
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return nil, fmt.Errorf("marshal ticket: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.config.TicketTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if isConditionFailed(err) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("create", err)
	}

	t := r.ticket()
	return &t, nil
}

// FindByID returns the ticket, or nil when it is missing or deleted.
func (s *Store) FindByID(ctx context.Context, id int64) (*ticket.Ticket, error) {
	r, err := s.getRecord(ctx, id)
	if err != nil || r == nil {
		return nil, err
	}
	t := r.ticket()
	return &t, nil
}

// getItem reads a ticket item with strong consistency, deleted or not.
func (s *Store) getItem(ctx context.Context, id int64) (map[string]types.AttributeValue, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.TicketTable),
		Key:            ticketKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, mapError("get", err)
	}
	return out.Item, nil
}

// getRecord reads a ticket with strong consistency. Deleted tickets yield nil.
func (s *Store) getRecord(ctx context.Context, id int64) (*record, error) {
	item, err := s.getItem(ctx, id)
	if err != nil || item == nil || IsDeleted(item) {
		return nil, err
	}

	var r record
	if err := attributevalue.UnmarshalMap(item, &r); err != nil {
		return nil, fmt.Errorf("decode ticket %d: %w", id, err)
	}
	return &r, nil
}

// FindChildren returns the live children of parentID ordered by id. Stale
// relationship records, left behind by a move that has not been cleaned up,
// are skipped by checking each child's own parent_id.
func (s *Store) FindChildren(ctx context.Context, parentID int64) ([]ticket.Ticket, error) {
	refs, err := s.queryChildren(ctx, parentID, true)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(refs))
	ids := make([]int64, 0, len(refs))
	for _, ref := range refs {
		if ref.ID == 0 || seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		ids = append(ids, ref.ID)
	}

	found, err := s.batchGet(ctx, ids)
	if err != nil {
		return nil, err
	}

	children := make([]ticket.Ticket, 0, len(found))
	for _, t := range found {
		if t.ParentID != nil && *t.ParentID == parentID {
			children = append(children, t)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children, nil
}

// batchGet fetches tickets by id in chunks, re-submitting unprocessed keys.
// Missing and deleted tickets are left out.
func (s *Store) batchGet(ctx context.Context, ids []int64) ([]ticket.Ticket, error) {
	var result []ticket.Ticket

	for start := 0; start < len(ids); start += maxBatchGet {
		end := min(start+maxBatchGet, len(ids))
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, ticketKey(id))
		}

		request := map[string]types.KeysAndAttributes{
			s.config.TicketTable: {Keys: keys, ConsistentRead: aws.Bool(true)},
		}
		for attempt := 0; len(request) > 0; attempt++ {
			if attempt > maxUnprocessedRetries {
				return nil, ticket.Transient("batch get", errors.New("unprocessed keys remain"))
			}
			if attempt > 0 {
				if err := sleep(ctx, time.Duration(attempt)*50*time.Millisecond); err != nil {
					return nil, err
				}
			}

			out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, mapError("batch get", err)
			}
			for _, raw := range out.Responses[s.config.TicketTable] {
				t, err := unmarshalTicket(raw)
				if err != nil {
					return nil, fmt.Errorf("decode ticket: %w", err)
				}
				if t != nil {
					result = append(result, *t)
				}
			}
			request = out.UnprocessedKeys
		}
	}

	return result, nil
}

// FindRoots pages through the root index in id order.
func (s *Store) FindRoots(ctx context.Context, offset, limit int) ([]ticket.Ticket, error) {
	roots := make([]ticket.Ticket, 0, max(limit, 0))
	if limit <= 0 {
		return roots, nil
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                aws.String(s.config.TicketTable),
		IndexName:                aws.String(s.config.RootIndex),
		KeyConditionExpression:   aws.String("root_pk = :root"),
		FilterExpression:         aws.String(TTLFilterExpr()),
		ExpressionAttributeNames: ttlNames(),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":root": &types.AttributeValueMemberS{Value: rootMarker},
			":now":  nowValue(),
		},
		ScanIndexForward: aws.Bool(true),
	})

	skipped := 0
	for paginator.HasMorePages() && len(roots) < limit {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError("find roots", err)
		}
		for _, raw := range page.Items {
			t, err := unmarshalTicket(raw)
			if err != nil {
				return nil, fmt.Errorf("decode ticket: %w", err)
			}
			if t == nil {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			roots = append(roots, *t)
			if len(roots) == limit {
				break
			}
		}
	}

	return roots, nil
}

// DeleteRecord soft deletes a ticket by setting its TTL to now and expires
// its relationship record in the same transaction. A missing or already
// deleted ticket yields nil, except when the stream handler expired it while
// cascading an ancestor's delete: the deletion is then confirmed, so a
// synchronous cascade racing the stream still reports every ticket.
func (s *Store) DeleteRecord(ctx context.Context, id int64) (*ticket.Deleted, error) {
	item, err := s.getItem(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	if IsDeleted(item) {
		if expiredByCascade(item) {
			return &ticket.Deleted{ID: id}, nil
		}
		return nil, nil
	}

	var r record
	if err := attributevalue.UnmarshalMap(item, &r); err != nil {
		return nil, fmt.Errorf("decode ticket %d: %w", id, err)
	}

	now := time.Now().Unix()
	items := []types.TransactWriteItem{{
		Update: &types.Update{
			TableName:           aws.String(s.config.TicketTable),
			Key:                 ticketKey(id),
			UpdateExpression:    aws.String("SET #ttl = :ttl, #version = #version + :one REMOVE #root"),
			ConditionExpression: aws.String("#version = :expected AND attribute_not_exists(#ttl)"),
			ExpressionAttributeNames: map[string]string{
				"#ttl":     "ttl",
				"#version": "version",
				"#root":    "root_pk",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":ttl":      numberValue(now),
				":one":      numberValue(1),
				":expected": numberValue(r.Version),
			},
		},
	}}

	if r.ParentID != nil {
		rel, err := s.relationshipItem(*r.ParentID, id, now)
		if err != nil {
			return nil, err
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.config.RelationshipTable),
				Item:      rel,
			},
		})
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err := s.mapTransactionError("delete", err, -1, id); err != nil {
		if errors.Is(err, ErrConcurrentModification) && s.cascadedSince(ctx, id) {
			return &ticket.Deleted{ID: id}, nil
		}
		return nil, err
	}

	return &ticket.Deleted{ID: id}, nil
}

// cascadedSince reports whether the stream handler expired id after it was
// read.
func (s *Store) cascadedSince(ctx context.Context, id int64) bool {
	item, err := s.getItem(ctx, id)
	return err == nil && item != nil && IsDeleted(item) && expiredByCascade(item)
}

// SetCompletion sets the completed flag. A missing or deleted ticket yields nil.
func (s *Store) SetCompletion(ctx context.Context, id int64, completed bool) (*ticket.Ticket, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.config.TicketTable),
		Key:                 ticketKey(id),
		UpdateExpression:    aws.String("SET #completed = :completed, #updated = :updated, #version = #version + :one"),
		ConditionExpression: aws.String(ActiveCondition()),
		ExpressionAttributeNames: mergeExprNames(ttlNames(), map[string]string{
			"#completed": "completed",
			"#updated":   "updated_at",
			"#version":   "version",
		}),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":completed": &types.AttributeValueMemberBOOL{Value: completed},
			":updated":   &types.AttributeValueMemberS{Value: formatTime(time.Now())},
			":one":       numberValue(1),
			":now":       nowValue(),
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("set completion", err)
	}
	return unmarshalTicket(out.Attributes)
}

// ClearParent turns a ticket into a root. The ticket update and the removal
// of its relationship record happen in one transaction.
func (s *Store) ClearParent(ctx context.Context, id int64) (*ticket.Ticket, error) {
	r, err := s.getRecord(ctx, id)
	if err != nil || r == nil {
		return nil, err
	}
	if r.ParentID == nil {
		t := r.ticket()
		return &t, nil
	}

	now := formatTime(time.Now())
	items := []types.TransactWriteItem{
		{
			Update: &types.Update{
				TableName:                 aws.String(s.config.TicketTable),
				Key:                       ticketKey(id),
				UpdateExpression:          aws.String("SET #root = :root, #updated = :updated, #version = #version + :one REMOVE #parent"),
				ConditionExpression:       aws.String("#version = :expected AND attribute_not_exists(#ttl)"),
				ExpressionAttributeNames:  s.linkNames(),
				ExpressionAttributeValues: s.linkValues(r.Version, now, map[string]types.AttributeValue{":root": &types.AttributeValueMemberS{Value: rootMarker}}),
			},
		},
		{
			Delete: &types.Delete{
				TableName: aws.String(s.config.RelationshipTable),
				Key:       relationshipKey(*r.ParentID, id, s.config.NumShards),
			},
		},
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err := s.mapTransactionError("clear parent", err, -1, id); err != nil {
		return nil, err
	}

	r.ParentID = nil
	r.UpdatedAt = now
	t := r.ticket()
	return &t, nil
}

// SetParent moves a ticket below parentID. The parent must exist and be live
// when the transaction commits; otherwise the call fails with a NotFound
// error wrapping ErrParentNotFound. A missing or deleted child yields nil.
func (s *Store) SetParent(ctx context.Context, id, parentID int64) (*ticket.Ticket, error) {
	r, err := s.getRecord(ctx, id)
	if err != nil || r == nil {
		return nil, err
	}
	if r.ParentID != nil && *r.ParentID == parentID {
		t := r.ticket()
		return &t, nil
	}

	now := formatTime(time.Now())
	rel, err := s.relationshipItem(parentID, id, 0)
	if err != nil {
		return nil, err
	}

	parentCheckIndex := 0
	items := []types.TransactWriteItem{
		{
			ConditionCheck: &types.ConditionCheck{
				TableName:                aws.String(s.config.TicketTable),
				Key:                      ticketKey(parentID),
				ConditionExpression:      aws.String(ActiveCondition()),
				ExpressionAttributeNames: ttlNames(),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":now": nowValue(),
				},
			},
		},
		{
			Update: &types.Update{
				TableName:                 aws.String(s.config.TicketTable),
				Key:                       ticketKey(id),
				UpdateExpression:          aws.String("SET #parent = :parent, #updated = :updated, #version = #version + :one REMOVE #root"),
				ConditionExpression:       aws.String("#version = :expected AND attribute_not_exists(#ttl)"),
				ExpressionAttributeNames:  s.linkNames(),
				ExpressionAttributeValues: s.linkValues(r.Version, now, map[string]types.AttributeValue{":parent": numberValue(parentID)}),
			},
		},
	}
	if r.ParentID != nil {
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(s.config.RelationshipTable),
				Key:       relationshipKey(*r.ParentID, id, s.config.NumShards),
			},
		})
	}
	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.config.RelationshipTable),
			Item:      rel,
		},
	})

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err := s.mapTransactionError("set parent", err, parentCheckIndex, parentID); err != nil {
		return nil, err
	}

	r.ParentID = ticket.Int64(parentID)
	r.UpdatedAt = now
	t := r.ticket()
	return &t, nil
}

func (s *Store) linkNames() map[string]string {
	return map[string]string{
		"#ttl":     "ttl",
		"#version": "version",
		"#updated": "updated_at",
		"#root":    "root_pk",
		"#parent":  "parent_id",
	}
}

func (s *Store) linkValues(expected int64, updated string, extra map[string]types.AttributeValue) map[string]types.AttributeValue {
	values := map[string]types.AttributeValue{
		":expected": numberValue(expected),
		":updated":  &types.AttributeValueMemberS{Value: updated},
		":one":      numberValue(1),
	}
	for k, v := range extra {
		values[k] = v
	}
	return values
}

// relationshipItem builds the relationship record for childID below parentID.
// A non-zero ttl marks it expired.
func (s *Store) relationshipItem(parentID, childID, ttl int64) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(relationship{
		PK:       shard.RelationshipPK(parentID, childID, s.config.NumShards),
		ChildRef: shard.Ref(childID),
		ChildID:  childID,
		ParentID: parentID,
		TTL:      ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal relationship: %w", err)
	}
	return item, nil
}

// QueryAllChildren returns all children of a ticket (including deleted ones).
// This is used by the stream handler to propagate TTL to all children.
func (s *Store) QueryAllChildren(ctx context.Context, parentID int64) ([]ChildRef, error) {
	return s.queryChildren(ctx, parentID, false)
}

// queryChildren reads every shard of parentID's relationship records.
// activeOnly drops records whose TTL has passed.
func (s *Store) queryChildren(ctx context.Context, parentID int64, activeOnly bool) ([]ChildRef, error) {
	numShards := s.config.NumShards
	if numShards < 1 {
		numShards = 1
	}

	// Fast path for single shard (default)
	if numShards == 1 {
		return s.queryShard(ctx, shard.PK(parentID, 0), activeOnly)
	}

	// Multi-shard fan-out
	var mu sync.Mutex
	var allChildren []ChildRef
	var wg sync.WaitGroup
	errs := make(chan error, numShards)

	for shardNum := 0; shardNum < numShards; shardNum++ {
		wg.Add(1)
		go func(shardNum int) {
			defer wg.Done()

			shardChildren, err := s.queryShard(ctx, shard.PK(parentID, shardNum), activeOnly)
			if err != nil {
				errs <- fmt.Errorf("shard %02x: %w", shardNum, err)
				return
			}

			mu.Lock()
			allChildren = append(allChildren, shardChildren...)
			mu.Unlock()
		}(shardNum)
	}

	go func() {
		wg.Wait()
		close(errs)
	}()

	for err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return allChildren, nil
}

func (s *Store) queryShard(ctx context.Context, shardPK string, activeOnly bool) ([]ChildRef, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.config.RelationshipTable),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: shardPK},
		},
	}
	if activeOnly {
		input.FilterExpression = aws.String(TTLFilterExpr())
		input.ExpressionAttributeNames = ttlNames()
		input.ExpressionAttributeValues[":now"] = nowValue()
	}

	var children []ChildRef
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError("query children", err)
		}
		for _, item := range page.Items {
			children = append(children, unmarshalChildRef(item, shardPK))
		}
	}

	return children, nil
}

// SetTTLByID sets TTL on a ticket that has none yet and removes it from the
// root index. Used by the stream handler to propagate TTL from the deleted
// ticket from to its child id; from is kept on the child as cascade_from.
func (s *Store) SetTTLByID(ctx context.Context, id, ttl, from int64) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.config.TicketTable),
		Key:                 ticketKey(id),
		UpdateExpression:    aws.String("SET #ttl = :ttl, #from = :from, #version = #version + :one REMOVE #root"),
		ConditionExpression: aws.String("attribute_exists(id) AND attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{
			"#ttl":     "ttl",
			"#from":    cascadeFromAttr,
			"#version": "version",
			"#root":    "root_pk",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl":  numberValue(ttl),
			":from": numberValue(from),
			":one":  numberValue(1),
		},
	})

	// Ignore condition failure - already has TTL or gone
	if isConditionFailed(err) {
		return nil
	}
	return mapError("set ttl", err)
}

// SetRelationshipTTL sets TTL on the relationship record of childID below parentID.
func (s *Store) SetRelationshipTTL(ctx context.Context, childID, parentID, ttl int64) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.config.RelationshipTable),
		Key:                 relationshipKey(parentID, childID, s.config.NumShards),
		UpdateExpression:    aws.String("SET #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_exists(pk) AND attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl": numberValue(ttl),
		},
	})

	// Ignore condition failure - already has TTL or was removed by a move
	if isConditionFailed(err) {
		return nil
	}
	return mapError("set relationship ttl", err)
}

// mapTransactionError maps TransactWriteItems failures. A failed condition
// at parentCheckIndex means the parent is gone; any other failed condition
// means the ticket changed since it was read.
func (s *Store) mapTransactionError(op string, err error, parentCheckIndex int, parentID int64) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for i, reason := range txErr.CancellationReasons {
			if reason.Code == nil {
				continue
			}
			switch *reason.Code {
			case "ConditionalCheckFailed":
				if i == parentCheckIndex {
					return &ticket.Error{
						Kind: ticket.KindNotFound,
						Op:   op,
						ID:   parentID,
						Msg:  fmt.Sprintf("parent ticket %d not found", parentID),
						Err:  ErrParentNotFound,
					}
				}
				return ticket.Transient(op, ErrConcurrentModification)
			case "TransactionConflict", "ThrottlingError", "ProvisionedThroughputExceeded":
				return ticket.Transient(op, err)
			}
		}
	}

	return mapError(op, err)
}

// mapError marks retryable service errors as transient and annotates the rest.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		throughput *types.ProvisionedThroughputExceededException
		limit      *types.RequestLimitExceeded
		internal   *types.InternalServerError
		conflict   *types.TransactionConflictException
		inProgress *types.TransactionInProgressException
	)
	switch {
	case errors.As(err, &throughput),
		errors.As(err, &limit),
		errors.As(err, &internal),
		errors.As(err, &conflict),
		errors.As(err, &inProgress):
		return ticket.Transient(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConditionFailed(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
