package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/terraincognita07/prostranstvo/internal/models"
	"github.com/terraincognita07/prostranstvo/internal/observability"
	"go.uber.org/zap"
)

type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

type NotificationTexts struct {
	DailyEnergy   string
	DiaryReminder string
}

type NotificationOptions struct {
	Hour     int
	Interval time.Duration
	Texts    NotificationTexts
}

type NotificationService struct {
	entitlements           *EntitlementService
	notifier               Notifier
	hour                   int
	interval               time.Duration
	texts                  NotificationTexts
	logger                 *zap.Logger
	metrics                *observability.Collector
	now                    func() time.Time
	mu                     sync.Mutex
	sentDailyNotifications map[string]models.CalendarDate
}

func NewNotificationService(
	entitlements *EntitlementService,
	notifier Notifier,
	options NotificationOptions,
	logger *zap.Logger,
	metrics *observability.Collector,
) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.Interval <= 0 {
		options.Interval = 10 * time.Minute
	}
	return &NotificationService{
		entitlements:           entitlements,
		notifier:               notifier,
		hour:                   options.Hour,
		interval:               options.Interval,
		texts:                  options.Texts,
		logger:                 logger,
		metrics:                metrics,
		now:                    time.Now,
		sentDailyNotifications: make(map[string]models.CalendarDate),
	}
}

func (service *NotificationService) Start(ctx context.Context) {
	if service.notifier == nil {
		return
	}

	ticker := time.NewTicker(service.interval)
	go func() {
		defer ticker.Stop()

		service.run(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				service.run(ctx)
			}
		}
	}()
}

// run sends each enabled reminder at most once per user and day, starting at
// the configured local hour.
func (service *NotificationService) run(ctx context.Context) int {
	now := service.now().In(service.entitlements.Location())
	if now.Hour() < service.hour {
		return 0
	}
	today := models.DateOf(now, service.entitlements.Location())

	users, err := service.entitlements.ListUsers(ctx)
	if err != nil {
		service.logger.Error("notifications: list users failed", zap.Error(err))
		return 0
	}

	sent := 0
	for _, user := range users {
		for _, kind := range []models.NotificationKind{models.NotificationDailyEnergy, models.NotificationDiaryReminder} {
			if !user.Notifications.Enabled(kind) {
				continue
			}
			text := service.textFor(kind)
			if text == "" {
				continue
			}
			key := fmt.Sprintf("%s:%d", kind, user.ID)
			if !service.shouldSend(key, today) {
				continue
			}
			if err := service.notifier.Notify(ctx, user.ID, text); err != nil {
				service.logger.Warn("notifications: send failed",
					zap.Int64("user_id", user.ID),
					zap.String("kind", string(kind)),
					zap.Error(err),
				)
				service.forget(key)
				continue
			}
			service.metrics.ObserveNotification(string(kind))
			sent++
		}
	}
	return sent
}

func (service *NotificationService) textFor(kind models.NotificationKind) string {
	switch kind {
	case models.NotificationDailyEnergy:
		return service.texts.DailyEnergy
	case models.NotificationDiaryReminder:
		return service.texts.DiaryReminder
	default:
		return ""
	}
}

func (service *NotificationService) shouldSend(key string, today models.CalendarDate) bool {
	service.mu.Lock()
	defer service.mu.Unlock()

	if sentOn, ok := service.sentDailyNotifications[key]; ok && sentOn == today {
		return false
	}

	service.sentDailyNotifications[key] = today
	return true
}

func (service *NotificationService) forget(key string) {
	service.mu.Lock()
	defer service.mu.Unlock()
	delete(service.sentDailyNotifications, key)
}
