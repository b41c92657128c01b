package services

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/terraincognita07/prostranstvo/internal/db"
	"github.com/terraincognita07/prostranstvo/internal/models"
)

func TestGetOrCreateUserIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.entitlements.GetOrCreateUser(ctx, 77)
	if err != nil {
		t.Fatalf("GetOrCreateUser() unexpected error: %v", err)
	}
	second, err := f.entitlements.GetOrCreateUser(ctx, 77)
	if err != nil {
		t.Fatalf("second GetOrCreateUser() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical records, got %+v and %+v", first, second)
	}
	if first.Subscription != models.TierFree || first.TarotCount != 0 || first.Notifications.DailyEnergy {
		t.Fatalf("unexpected defaults %+v", first)
	}
}

func TestConsumeTarotTwiceSameDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.entitlements.Consume(ctx, 1, QuotaTarot); err != nil {
		t.Fatalf("first Consume() unexpected error: %v", err)
	}
	_, err := f.entitlements.Consume(ctx, 1, QuotaTarot)
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	if !errors.Is(err, ErrEntitlementDenied) {
		t.Fatalf("expected denial to wrap ErrEntitlementDenied, got %v", err)
	}

	user, err := f.repos.Users.Find(ctx, 1)
	if err != nil {
		t.Fatalf("Find() unexpected error: %v", err)
	}
	if user.TarotCount != 1 {
		t.Fatalf("expected tarot_count 1, got %d", user.TarotCount)
	}

	f.advanceDays(1)
	if _, err := f.entitlements.Consume(ctx, 1, QuotaTarot); err != nil {
		t.Fatalf("Consume() on next day unexpected error: %v", err)
	}
}

func TestConcurrentConsumeRecordsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const callers = 16
	var granted atomic.Int32
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.entitlements.Consume(ctx, 9, QuotaDailyEnergy)
			switch {
			case err == nil:
				granted.Add(1)
			case errors.Is(err, ErrQuotaExhausted):
			default:
				t.Errorf("Consume() unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if granted.Load() != 1 {
		t.Fatalf("expected exactly one granted consume, got %d", granted.Load())
	}
	user, err := f.repos.Users.Find(ctx, 9)
	if err != nil {
		t.Fatalf("Find() unexpected error: %v", err)
	}
	if user.DailyEnergyCount != 1 {
		t.Fatalf("expected daily_energy_count 1, got %d", user.DailyEnergyCount)
	}
	if f.entitlements.locks.size() != 0 {
		t.Fatalf("expected keyed locks to be released, got %d", f.entitlements.locks.size())
	}
}

func TestPaidUserConsumesWithoutLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.entitlements.SetSubscription(ctx, 3, models.TierBase); err != nil {
		t.Fatalf("SetSubscription() unexpected error: %v", err)
	}
	for attempt := 1; attempt <= 3; attempt++ {
		if _, err := f.entitlements.Consume(ctx, 3, QuotaTarot); err != nil {
			t.Fatalf("Consume() attempt %d unexpected error: %v", attempt, err)
		}
	}
	user, err := f.repos.Users.Find(ctx, 3)
	if err != nil {
		t.Fatalf("Find() unexpected error: %v", err)
	}
	if user.TarotCount != 3 {
		t.Fatalf("expected tarot_count 3, got %d", user.TarotCount)
	}
}

func TestRequireFeature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.entitlements.Require(ctx, 4, FeatureDeepen); !errors.Is(err, ErrPaidTierRequired) {
		t.Fatalf("expected ErrPaidTierRequired, got %v", err)
	}
	if _, err := f.entitlements.SetSubscription(ctx, 4, models.TierBase); err != nil {
		t.Fatalf("SetSubscription() unexpected error: %v", err)
	}
	if _, err := f.entitlements.Require(ctx, 4, FeatureDeepen); err != nil {
		t.Fatalf("expected base to deepen, got %v", err)
	}
	if _, err := f.entitlements.Require(ctx, 4, FeatureOwnDeck); !errors.Is(err, ErrPremiumTierRequired) {
		t.Fatalf("expected ErrPremiumTierRequired, got %v", err)
	}
}

func TestSetSubscriptionRejectsUnknownTier(t *testing.T) {
	f := newFixture(t)

	_, err := f.entitlements.SetSubscription(context.Background(), 5, models.Tier("gold"))
	if !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
}

func TestNotificationToggles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.entitlements.ToggleNotification(ctx, 6, models.NotificationDailyEnergy)
	if err != nil {
		t.Fatalf("ToggleNotification() unexpected error: %v", err)
	}
	if !user.Notifications.DailyEnergy || user.Notifications.DiaryReminder {
		t.Fatalf("unexpected notifications %+v", user.Notifications)
	}

	user, err = f.entitlements.EnableNotification(ctx, 6, models.NotificationDiaryReminder)
	if err != nil {
		t.Fatalf("EnableNotification() unexpected error: %v", err)
	}
	if !user.Notifications.DiaryReminder {
		t.Fatal("expected diary reminder to be enabled")
	}

	user, err = f.entitlements.DisableNotifications(ctx, 6)
	if err != nil {
		t.Fatalf("DisableNotifications() unexpected error: %v", err)
	}
	if user.Notifications.DailyEnergy || user.Notifications.DiaryReminder {
		t.Fatalf("expected all notifications off, got %+v", user.Notifications)
	}
}

type failingStore struct{}

func (failingStore) Load(context.Context, db.Collection) (db.Document, error) {
	return nil, errors.Join(db.ErrStorageFailure, errors.New("disk gone"))
}

func (failingStore) Save(context.Context, db.Collection, db.Document) error {
	return db.ErrStorageFailure
}

func TestStorageFailureSurfaces(t *testing.T) {
	repos := db.NewRepositories(failingStore{})
	entitlements := NewEntitlementService(repos.Users, nil, nil)

	_, err := entitlements.Check(context.Background(), 1, QuotaTarot)
	if !errors.Is(err, db.ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locks := NewKeyedMutex()

	var active atomic.Int32
	var overlap atomic.Bool
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("user")
			if active.Add(1) > 1 {
				overlap.Store(true)
			}
			active.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	if overlap.Load() {
		t.Fatal("expected no overlapping holders for the same key")
	}
	if locks.size() != 0 {
		t.Fatalf("expected entries to be released, got %d", locks.size())
	}
}

func TestFindUserDoesNotRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.entitlements.FindUser(ctx, 404); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	users, err := f.entitlements.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() unexpected error: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no registered users, got %d", len(users))
	}
}
