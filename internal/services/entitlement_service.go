package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/terraincognita07/prostranstvo/internal/models"
	"github.com/terraincognita07/prostranstvo/internal/observability"
)

type UserRepository interface {
	Find(ctx context.Context, userID int64) (models.User, error)
	GetOrCreate(ctx context.Context, userID int64, now time.Time) (models.User, bool, error)
	Update(ctx context.Context, userID int64, mutate func(*models.User) error) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type EntitlementService struct {
	users    UserRepository
	locks    *KeyedMutex
	location *time.Location
	now      func() time.Time
	metrics  *observability.Collector
}

func NewEntitlementService(users UserRepository, location *time.Location, metrics *observability.Collector) *EntitlementService {
	if location == nil {
		location = time.Local
	}
	return &EntitlementService{
		users:    users,
		locks:    NewKeyedMutex(),
		location: location,
		now:      time.Now,
		metrics:  metrics,
	}
}

// Today is the server-local calendar date used for every quota decision.
func (service *EntitlementService) Today() models.CalendarDate {
	return models.DateOf(service.now(), service.location)
}

func (service *EntitlementService) Location() *time.Location {
	return service.location
}

func (service *EntitlementService) GetOrCreateUser(ctx context.Context, userID int64) (models.User, error) {
	user, _, err := service.users.GetOrCreate(ctx, userID, service.now())
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// FindUser loads a user without registering it.
func (service *EntitlementService) FindUser(ctx context.Context, userID int64) (models.User, error) {
	user, err := service.users.Find(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (service *EntitlementService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := service.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Check reports whether quota is still available today without recording use.
func (service *EntitlementService) Check(ctx context.Context, userID int64, quota Quota) (models.User, error) {
	user, err := service.GetOrCreateUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	allowed, err := CanUse(user, quota, service.Today())
	if err != nil {
		return models.User{}, err
	}
	if !allowed {
		service.metrics.ObserveDenial("quota_" + string(quota))
		return user, ErrQuotaExhausted
	}
	return user, nil
}

// Consume re-checks and records quota use in one step under the user's lock.
func (service *EntitlementService) Consume(ctx context.Context, userID int64, quota Quota) (models.User, error) {
	unlock := service.locks.Lock(userLockKey(userID))
	defer unlock()

	if _, err := service.GetOrCreateUser(ctx, userID); err != nil {
		return models.User{}, err
	}

	today := service.Today()
	user, err := service.users.Update(ctx, userID, func(user *models.User) error {
		allowed, err := CanUse(*user, quota, today)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrQuotaExhausted
		}
		return RecordUse(user, quota, today)
	})
	if errors.Is(err, ErrQuotaExhausted) {
		service.metrics.ObserveDenial("quota_" + string(quota))
		return models.User{}, err
	}
	if err != nil {
		return models.User{}, fmt.Errorf("record %s use: %w", quota, err)
	}
	return user, nil
}

func (service *EntitlementService) Require(ctx context.Context, userID int64, feature Feature) (models.User, error) {
	user, err := service.GetOrCreateUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if !Allows(feature, user.Subscription) {
		service.metrics.ObserveDenial("feature_" + string(feature))
		return user, DenialFor(feature)
	}
	return user, nil
}

func (service *EntitlementService) SetSubscription(ctx context.Context, userID int64, tier models.Tier) (models.User, error) {
	parsed, err := models.ParseTier(string(tier))
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %s", ErrInvalidTier, tier)
	}
	return service.mutate(ctx, userID, func(user *models.User) {
		user.Subscription = parsed
	})
}

func (service *EntitlementService) ToggleNotification(ctx context.Context, userID int64, kind models.NotificationKind) (models.User, error) {
	return service.mutate(ctx, userID, func(user *models.User) {
		switch kind {
		case models.NotificationDailyEnergy:
			user.Notifications.DailyEnergy = !user.Notifications.DailyEnergy
		case models.NotificationDiaryReminder:
			user.Notifications.DiaryReminder = !user.Notifications.DiaryReminder
		}
	})
}

func (service *EntitlementService) EnableNotification(ctx context.Context, userID int64, kind models.NotificationKind) (models.User, error) {
	return service.mutate(ctx, userID, func(user *models.User) {
		switch kind {
		case models.NotificationDailyEnergy:
			user.Notifications.DailyEnergy = true
		case models.NotificationDiaryReminder:
			user.Notifications.DiaryReminder = true
		}
	})
}

func (service *EntitlementService) DisableNotifications(ctx context.Context, userID int64) (models.User, error) {
	return service.mutate(ctx, userID, func(user *models.User) {
		user.Notifications = models.NotificationSettings{}
	})
}

func (service *EntitlementService) mutate(ctx context.Context, userID int64, apply func(*models.User)) (models.User, error) {
	unlock := service.locks.Lock(userLockKey(userID))
	defer unlock()

	if _, err := service.GetOrCreateUser(ctx, userID); err != nil {
		return models.User{}, err
	}
	user, err := service.users.Update(ctx, userID, func(user *models.User) error {
		apply(user)
		return nil
	})
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func userLockKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
