package db

import (
	"errors"
	"strconv"
	"sync"
)

var ErrNotFound = errors.New("record not found")

type Repositories struct {
	Users       *UserRepository
	Diary       *DiaryRepository
	DailyEnergy *DailyEnergyRepository
}

// NewRepositories builds repositories that share one writer lock per
// collection. Every writer of a Store must go through the same Repositories.
func NewRepositories(store Store) *Repositories {
	locks := newCollectionLocks()
	return &Repositories{
		Users:       &UserRepository{store: store, lock: locks.of(CollectionUsers)},
		Diary:       &DiaryRepository{store: store, lock: locks.of(CollectionDiary)},
		DailyEnergy: &DailyEnergyRepository{store: store, lock: locks.of(CollectionDailyEnergy)},
	}
}

type collectionLocks struct {
	mu    sync.Mutex
	locks map[Collection]*sync.Mutex
}

func newCollectionLocks() *collectionLocks {
	return &collectionLocks{locks: make(map[Collection]*sync.Mutex)}
}

func (locks *collectionLocks) of(collection Collection) *sync.Mutex {
	locks.mu.Lock()
	defer locks.mu.Unlock()

	lock, ok := locks.locks[collection]
	if !ok {
		lock = &sync.Mutex{}
		locks.locks[collection] = lock
	}
	return lock
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
