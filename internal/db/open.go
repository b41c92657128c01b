package db

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
)

const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverDynamoDB = "dynamodb"
)

type StoreOptions struct {
	Driver      string
	DataDir     string
	SQLitePath  string
	DynamoTable string
	AWSRegion   string
}

// OpenStore builds the configured backend. The returned closer is never nil.
func OpenStore(ctx context.Context, options StoreOptions) (Store, io.Closer, error) {
	switch options.Driver {
	case "", DriverJSON:
		store, err := NewFileStore(options.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	case DriverSQLite:
		path := options.SQLitePath
		if path == "" {
			path = filepath.Join(options.DataDir, "prostranstvo.db")
		}
		database, err := OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		store := NewSQLiteStore(database)
		return store, store, nil
	case DriverDynamoDB:
		store, err := OpenDynamoStore(ctx, options.AWSRegion, options.DynamoTable)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", options.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}
