package db

import (
	"context"
	"sync"
)

// MemoryStore keeps collections in process memory. Documents are copied on
// the way in and out so callers never share buffers with the store.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[Collection]Document
	loads       map[Collection]int
	saves       map[Collection]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[Collection]Document),
		loads:       make(map[Collection]int),
		saves:       make(map[Collection]int),
	}
}

func (store *MemoryStore) Load(ctx context.Context, collection Collection) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageError("load", collection, err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	store.loads[collection]++
	document, ok := store.collections[collection]
	if !ok {
		return Document{}, nil
	}
	return document.clone(), nil
}

func (store *MemoryStore) Save(ctx context.Context, collection Collection, document Document) error {
	if err := ctx.Err(); err != nil {
		return storageError("save", collection, err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	store.saves[collection]++
	store.collections[collection] = document.clone()
	return nil
}

func (store *MemoryStore) SaveCount(collection Collection) int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.saves[collection]
}
