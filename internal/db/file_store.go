package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (store *FileStore) path(collection Collection) string {
	return filepath.Join(store.dir, string(collection)+".json")
}

func (store *FileStore) Load(ctx context.Context, collection Collection) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageError("load", collection, err)
	}

	content, err := os.ReadFile(store.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return Document{}, nil
	}
	if err != nil {
		return nil, storageError("read", collection, err)
	}

	document := Document{}
	if len(content) == 0 {
		return document, nil
	}
	if err := json.Unmarshal(content, &document); err != nil {
		return nil, storageError("parse", collection, err)
	}
	return document, nil
}

// Save replaces the collection file atomically: the document is written to a
// temporary file in the same directory and renamed over the old one.
func (store *FileStore) Save(ctx context.Context, collection Collection, document Document) error {
	if err := ctx.Err(); err != nil {
		return storageError("save", collection, err)
	}
	if document == nil {
		document = Document{}
	}

	content, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return storageError("encode", collection, err)
	}

	temp, err := os.CreateTemp(store.dir, "."+string(collection)+"-*.json")
	if err != nil {
		return storageError("create temp file for", collection, err)
	}
	tempName := temp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := temp.Write(content); err != nil {
		_ = temp.Close()
		return storageError("write", collection, err)
	}
	if err := temp.Sync(); err != nil {
		_ = temp.Close()
		return storageError("sync", collection, err)
	}
	if err := temp.Close(); err != nil {
		return storageError("close", collection, err)
	}
	if err := os.Rename(tempName, store.path(collection)); err != nil {
		return storageError("replace", collection, err)
	}

	committed = true
	return nil
}
