package db

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoStub struct {
	items  map[string]map[string]types.AttributeValue
	putErr error
}

func (stub *dynamoStub) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	key := params.Key["collection"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: stub.items[key]}, nil
}

func (stub *dynamoStub) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if stub.putErr != nil {
		return nil, stub.putErr
	}
	key := params.Item["collection"].(*types.AttributeValueMemberS).Value
	stub.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoStoreRoundTrip(t *testing.T) {
	stub := &dynamoStub{items: make(map[string]map[string]types.AttributeValue)}
	store := NewDynamoStore(stub, "prostranstvo")
	ctx := context.Background()

	empty, err := store.Load(ctx, CollectionDiary)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty document, got %d keys", len(empty))
	}

	if err := store.Save(ctx, CollectionDiary, Document{"7": json.RawMessage(`[]`)}); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	loaded, err := store.Load(ctx, CollectionDiary)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if string(loaded["7"]) != "[]" {
		t.Fatalf("expected stored diary payload, got %q", loaded["7"])
	}
}

func TestDynamoStorePutFailureWrapsStorageFailure(t *testing.T) {
	stub := &dynamoStub{
		items:  make(map[string]map[string]types.AttributeValue),
		putErr: errors.New("throttled"),
	}
	store := NewDynamoStore(stub, "prostranstvo")

	err := store.Save(context.Background(), CollectionUsers, Document{})
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
}

func TestDynamoStoreRejectsOversizedDocument(t *testing.T) {
	stub := &dynamoStub{items: make(map[string]map[string]types.AttributeValue)}
	store := NewDynamoStore(stub, "prostranstvo")

	entry, err := json.Marshal(strings.Repeat("я", maxDynamoPayloadBytes/2))
	if err != nil {
		t.Fatalf("marshal entry: %v", err)
	}
	err = store.Save(context.Background(), CollectionDiary, Document{"7": entry})
	if !errors.Is(err, ErrDocumentTooLarge) {
		t.Fatalf("expected ErrDocumentTooLarge, got %v", err)
	}
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
	if len(stub.items) != 0 {
		t.Fatalf("expected nothing written, got %d items", len(stub.items))
	}
}
