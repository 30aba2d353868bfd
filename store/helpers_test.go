package store_test

import (
	"context"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is a scripted DynamoDB client. Unset hooks return empty outputs.
type fakeDynamo struct {
	mu sync.Mutex

	getItem       func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItem       func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	updateItem    func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	query         func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	batchGetItem  func(*dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error)
	transactWrite func(*dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error)

	calls        map[string]int
	puts         []*dynamodb.PutItemInput
	updates      []*dynamodb.UpdateItemInput
	queries      []*dynamodb.QueryInput
	batches      []*dynamodb.BatchGetItemInput
	transactions []*dynamodb.TransactWriteItemsInput
}

func newFake() *fakeDynamo {
	return &fakeDynamo{calls: make(map[string]int)}
}

func (f *fakeDynamo) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeDynamo) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.record("GetItem")
	if f.getItem == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getItem(in)
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.record("PutItem")
	f.mu.Lock()
	f.puts = append(f.puts, in)
	f.mu.Unlock()
	if f.putItem == nil {
		return &dynamodb.PutItemOutput{}, nil
	}
	return f.putItem(in)
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.record("UpdateItem")
	f.mu.Lock()
	f.updates = append(f.updates, in)
	f.mu.Unlock()
	if f.updateItem == nil {
		return &dynamodb.UpdateItemOutput{}, nil
	}
	return f.updateItem(in)
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.record("Query")
	f.mu.Lock()
	f.queries = append(f.queries, in)
	f.mu.Unlock()
	if f.query == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return f.query(in)
}

func (f *fakeDynamo) BatchGetItem(_ context.Context, in *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	f.record("BatchGetItem")
	f.mu.Lock()
	f.batches = append(f.batches, in)
	f.mu.Unlock()
	if f.batchGetItem == nil {
		return &dynamodb.BatchGetItemOutput{}, nil
	}
	return f.batchGetItem(in)
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.record("TransactWriteItems")
	f.mu.Lock()
	f.transactions = append(f.transactions, in)
	f.mu.Unlock()
	if f.transactWrite == nil {
		return &dynamodb.TransactWriteItemsOutput{}, nil
	}
	return f.transactWrite(in)
}

// --- item builders ---

func numAttr(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

func strAttr(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

// ticketItem builds a stored ticket. parent 0 means root.
func ticketItem(id, parent int64) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"id":          numAttr(id),
		"title":       strAttr("ticket " + strconv.FormatInt(id, 10)),
		"description": strAttr("description"),
		"completed":   &types.AttributeValueMemberBOOL{Value: false},
		"created_at":  strAttr("2024-01-01T00:00:00Z"),
		"updated_at":  strAttr("2024-01-02T00:00:00.5Z"),
		"version":     numAttr(3),
	}
	if parent == 0 {
		item["root_pk"] = strAttr("ROOT")
	} else {
		item["parent_id"] = numAttr(parent)
	}
	return item
}

func relItem(pk string, childID int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk":        strAttr(pk),
		"child_ref": strAttr("ticket#" + strconv.FormatInt(childID, 10)),
		"child_id":  numAttr(childID),
	}
}

func canceled(codes ...string) error {
	reasons := make([]types.CancellationReason, len(codes))
	for i, c := range codes {
		if c != "" {
			reasons[i].Code = aws.String(c)
		}
	}
	return &types.TransactionCanceledException{
		Message:             aws.String("Transaction cancelled"),
		CancellationReasons: reasons,
	}
}

func attrN(t map[string]types.AttributeValue, key string) string {
	if v, ok := t[key].(*types.AttributeValueMemberN); ok {
		return v.Value
	}
	return ""
}

func attrS(t map[string]types.AttributeValue, key string) string {
	if v, ok := t[key].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
