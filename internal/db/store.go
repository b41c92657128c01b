package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type Collection string

const (
	CollectionUsers       Collection = "users"
	CollectionDiary       Collection = "diary"
	CollectionDailyEnergy Collection = "daily_energy"
)

var ErrStorageFailure = errors.New("storage failure")

// Document is a whole collection keyed by user id or calendar date.
type Document map[string]json.RawMessage

// Store loads and saves whole collections. A collection that was never
// saved loads as an empty Document; any other failure wraps ErrStorageFailure.
type Store interface {
	Load(ctx context.Context, collection Collection) (Document, error)
	Save(ctx context.Context, collection Collection, document Document) error
}

func storageError(operation string, collection Collection, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStorageFailure, operation, collection, err)
}

func (document Document) clone() Document {
	copied := make(Document, len(document))
	for key, value := range document {
		raw := make(json.RawMessage, len(value))
		copy(raw, value)
		copied[key] = raw
	}
	return copied
}

func decodeValue(document Document, collection Collection, key string, target any) (bool, error) {
	raw, ok := document[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return false, storageError("decode "+key+" in", collection, err)
	}
	return true, nil
}

func encodeValue(document Document, collection Collection, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return storageError("encode "+key+" in", collection, err)
	}
	document[key] = raw
	return nil
}
