package db

import (
	"context"
	"sync"

	"github.com/terraincognita07/prostranstvo/internal/models"
)

type DiaryRepository struct {
	store Store
	lock  *sync.Mutex
}

// Append stores a copy of entry with the next id for the user. Ids are one
// more than the largest id ever stored, so they are never reused.
func (repo *DiaryRepository) Append(ctx context.Context, userID int64, entry models.DiaryEntry) (models.DiaryEntry, error) {
	repo.lock.Lock()
	defer repo.lock.Unlock()

	document, err := repo.store.Load(ctx, CollectionDiary)
	if err != nil {
		return models.DiaryEntry{}, err
	}

	entries, err := repo.entries(document, userID)
	if err != nil {
		return models.DiaryEntry{}, err
	}

	nextID := 1
	for _, existing := range entries {
		if existing.ID >= nextID {
			nextID = existing.ID + 1
		}
	}
	entry.ID = nextID
	entries = append(entries, entry)

	if err := encodeValue(document, CollectionDiary, userKey(userID), entries); err != nil {
		return models.DiaryEntry{}, err
	}
	if err := repo.store.Save(ctx, CollectionDiary, document); err != nil {
		return models.DiaryEntry{}, err
	}
	return entry, nil
}

// List returns the user's entries newest first. limit <= 0 returns all.
func (repo *DiaryRepository) List(ctx context.Context, userID int64, limit int) ([]models.DiaryEntry, error) {
	document, err := repo.store.Load(ctx, CollectionDiary)
	if err != nil {
		return nil, err
	}
	entries, err := repo.entries(document, userID)
	if err != nil {
		return nil, err
	}

	count := len(entries)
	if limit > 0 && limit < count {
		count = limit
	}
	newest := make([]models.DiaryEntry, 0, count)
	for index := len(entries) - 1; index >= 0 && len(newest) < count; index-- {
		newest = append(newest, entries[index])
	}
	return newest, nil
}

func (repo *DiaryRepository) Count(ctx context.Context, userID int64) (int, error) {
	document, err := repo.store.Load(ctx, CollectionDiary)
	if err != nil {
		return 0, err
	}
	entries, err := repo.entries(document, userID)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (repo *DiaryRepository) entries(document Document, userID int64) ([]models.DiaryEntry, error) {
	var entries []models.DiaryEntry
	if _, err := decodeValue(document, CollectionDiary, userKey(userID), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
