package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/terraincognita07/prostranstvo/internal/models"
)

type UserRepository struct {
	store Store
	lock  *sync.Mutex
}

func (repo *UserRepository) Find(ctx context.Context, userID int64) (models.User, error) {
	document, err := repo.store.Load(ctx, CollectionUsers)
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	found, err := decodeValue(document, CollectionUsers, userKey(userID), &user)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, fmt.Errorf("find user %d: %w", userID, ErrNotFound)
	}
	return user, nil
}

// GetOrCreate returns the stored user or persists a default one. The boolean
// reports whether the user was created by this call.
func (repo *UserRepository) GetOrCreate(ctx context.Context, userID int64, now time.Time) (models.User, bool, error) {
	repo.lock.Lock()
	defer repo.lock.Unlock()

	document, err := repo.store.Load(ctx, CollectionUsers)
	if err != nil {
		return models.User{}, false, err
	}

	var user models.User
	found, err := decodeValue(document, CollectionUsers, userKey(userID), &user)
	if err != nil {
		return models.User{}, false, err
	}
	if found {
		return user, false, nil
	}

	user = models.NewUser(userID, now)
	if err := encodeValue(document, CollectionUsers, userKey(userID), user); err != nil {
		return models.User{}, false, err
	}
	if err := repo.store.Save(ctx, CollectionUsers, document); err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

// Update applies mutate to the stored user and persists the result. Nothing
// is written when mutate returns an error.
func (repo *UserRepository) Update(ctx context.Context, userID int64, mutate func(*models.User) error) (models.User, error) {
	repo.lock.Lock()
	defer repo.lock.Unlock()

	document, err := repo.store.Load(ctx, CollectionUsers)
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	found, err := decodeValue(document, CollectionUsers, userKey(userID), &user)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, fmt.Errorf("update user %d: %w", userID, ErrNotFound)
	}

	if err := mutate(&user); err != nil {
		return models.User{}, err
	}
	if err := encodeValue(document, CollectionUsers, userKey(userID), user); err != nil {
		return models.User{}, err
	}
	if err := repo.store.Save(ctx, CollectionUsers, document); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (repo *UserRepository) List(ctx context.Context) ([]models.User, error) {
	document, err := repo.store.Load(ctx, CollectionUsers)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(document))
	for key := range document {
		var user models.User
		if _, err := decodeValue(document, CollectionUsers, key, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})
	return users, nil
}
