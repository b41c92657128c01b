package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

func OpenSQLite(dbPath string) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", dbPath)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyEmbeddedMigrations(database); err != nil {
		return nil, fmt.Errorf("apply embedded migrations: %w", err)
	}

	return database, nil
}

type collectionRecord struct {
	Name      string    `gorm:"primaryKey"`
	Payload   string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (collectionRecord) TableName() string {
	return "collections"
}

// SQLiteStore keeps every collection as a single JSON row.
type SQLiteStore struct {
	database *gorm.DB
}

func NewSQLiteStore(database *gorm.DB) *SQLiteStore {
	return &SQLiteStore{database: database}
}

func (store *SQLiteStore) Load(ctx context.Context, collection Collection) (Document, error) {
	var record collectionRecord
	err := store.database.WithContext(ctx).
		Where("name = ?", string(collection)).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, nil
	}
	if err != nil {
		return nil, storageError("select", collection, err)
	}

	document := Document{}
	if err := json.Unmarshal([]byte(record.Payload), &document); err != nil {
		return nil, storageError("parse", collection, err)
	}
	return document, nil
}

func (store *SQLiteStore) Save(ctx context.Context, collection Collection, document Document) error {
	if document == nil {
		document = Document{}
	}
	payload, err := json.Marshal(document)
	if err != nil {
		return storageError("encode", collection, err)
	}

	record := collectionRecord{
		Name:      string(collection),
		Payload:   string(payload),
		UpdatedAt: time.Now().UTC(),
	}
	err = store.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).Create(&record).Error
	})
	if err != nil {
		return storageError("upsert", collection, err)
	}
	return nil
}

func (store *SQLiteStore) Close() error {
	sqlDB, err := store.database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
