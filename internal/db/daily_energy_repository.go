package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/terraincognita07/prostranstvo/internal/models"
)

type DailyEnergyRepository struct {
	store Store
	lock  *sync.Mutex
}

func (repo *DailyEnergyRepository) Find(ctx context.Context, date models.CalendarDate) (models.DailyEnergy, error) {
	document, err := repo.store.Load(ctx, CollectionDailyEnergy)
	if err != nil {
		return models.DailyEnergy{}, err
	}

	var entry models.DailyEnergy
	found, err := decodeValue(document, CollectionDailyEnergy, date.String(), &entry)
	if err != nil {
		return models.DailyEnergy{}, err
	}
	if !found {
		return models.DailyEnergy{}, fmt.Errorf("find daily energy %s: %w", date, ErrNotFound)
	}
	return entry, nil
}

func (repo *DailyEnergyRepository) Put(ctx context.Context, entry models.DailyEnergy) error {
	repo.lock.Lock()
	defer repo.lock.Unlock()

	document, err := repo.store.Load(ctx, CollectionDailyEnergy)
	if err != nil {
		return err
	}
	if err := encodeValue(document, CollectionDailyEnergy, entry.Date.String(), entry); err != nil {
		return err
	}
	return repo.store.Save(ctx, CollectionDailyEnergy, document)
}
