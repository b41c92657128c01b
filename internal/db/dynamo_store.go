package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDB rejects items over 400 KB; the rest of the budget covers the key
// and updated_at attributes.
const maxDynamoPayloadBytes = 390 * 1024

var ErrDocumentTooLarge = errors.New("document exceeds dynamodb item size limit")

type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type collectionItem struct {
	Collection string `dynamodbav:"collection"`
	Payload    string `dynamodbav:"payload"`
	UpdatedAt  string `dynamodbav:"updated_at"`
}

// DynamoStore keeps each collection as one item keyed by "collection", so a
// collection can never grow past one item's size limit.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
}

func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

func OpenDynamoStore(ctx context.Context, region string, tableName string) (*DynamoStore, error) {
	options := make([]func(*config.LoadOptions) error, 0, 1)
	if region != "" {
		options = append(options, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, storageError("load aws config for", CollectionUsers, err)
	}
	return NewDynamoStore(dynamodb.NewFromConfig(cfg), tableName), nil
}

func (store *DynamoStore) Load(ctx context.Context, collection Collection) (Document, error) {
	result, err := store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(store.tableName),
		Key: map[string]types.AttributeValue{
			"collection": &types.AttributeValueMemberS{Value: string(collection)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storageError("get", collection, err)
	}
	if result.Item == nil {
		return Document{}, nil
	}

	var item collectionItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, storageError("unmarshal", collection, err)
	}
	document := Document{}
	if item.Payload == "" {
		return document, nil
	}
	if err := json.Unmarshal([]byte(item.Payload), &document); err != nil {
		return nil, storageError("parse", collection, err)
	}
	return document, nil
}

func (store *DynamoStore) Save(ctx context.Context, collection Collection, document Document) error {
	if document == nil {
		document = Document{}
	}
	payload, err := json.Marshal(document)
	if err != nil {
		return storageError("encode", collection, err)
	}
	if len(payload) > maxDynamoPayloadBytes {
		return storageError("put", collection, fmt.Errorf("%w: %d bytes", ErrDocumentTooLarge, len(payload)))
	}

	item, err := attributevalue.MarshalMap(collectionItem{
		Collection: string(collection),
		Payload:    string(payload),
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return storageError("marshal", collection, err)
	}

	if _, err := store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(store.tableName),
		Item:      item,
	}); err != nil {
		return storageError("put", collection, err)
	}
	return nil
}
