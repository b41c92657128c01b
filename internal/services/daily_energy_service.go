package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/prostranstvo/internal/db"
	"github.com/terraincognita07/prostranstvo/internal/models"
	"github.com/terraincognita07/prostranstvo/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type DailyEnergyRepository interface {
	Find(ctx context.Context, date models.CalendarDate) (models.DailyEnergy, error)
	Put(ctx context.Context, entry models.DailyEnergy) error
}

type DailyEnergyGenerator interface {
	DailyEnergy(ctx context.Context) (string, error)
}

type DailyEnergyService struct {
	cache        DailyEnergyRepository
	generator    DailyEnergyGenerator
	entitlements *EntitlementService
	flights      singleflight.Group
	logger       *zap.Logger
	metrics      *observability.Collector
}

func NewDailyEnergyService(
	cache DailyEnergyRepository,
	generator DailyEnergyGenerator,
	entitlements *EntitlementService,
	logger *zap.Logger,
	metrics *observability.Collector,
) *DailyEnergyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyEnergyService{
		cache:        cache,
		generator:    generator,
		entitlements: entitlements,
		logger:       logger,
		metrics:      metrics,
	}
}

// Text returns today's shared energy text, generating it at most once per
// date. Callers that arrive while generation is running share its result.
func (service *DailyEnergyService) Text(ctx context.Context) (string, error) {
	date := service.entitlements.Today()
	flightCtx := context.WithoutCancel(ctx)

	result, err, _ := service.flights.Do(date.String(), func() (interface{}, error) {
		cached, err := service.cache.Find(flightCtx, date)
		if err == nil {
			service.metrics.ObserveDailyEnergyCache(true)
			return cached.Text, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("load daily energy cache: %w", err)
		}
		service.metrics.ObserveDailyEnergyCache(false)

		text, err := service.generator.DailyEnergy(flightCtx)
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)

		entry := models.DailyEnergy{Date: date, Text: text, CreatedAt: time.Now()}
		if err := service.cache.Put(flightCtx, entry); err != nil {
			return "", fmt.Errorf("store daily energy cache: %w", err)
		}
		service.logger.Info("daily energy generated", zap.String("date", date.String()))
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Deliver gives the user today's energy. Use is recorded only after the text
// is available, so a failed generation does not spend the quota.
func (service *DailyEnergyService) Deliver(ctx context.Context, userID int64) (string, error) {
	if _, err := service.entitlements.Check(ctx, userID, QuotaDailyEnergy); err != nil {
		return "", err
	}

	text, err := service.Text(ctx)
	if err != nil {
		return "", err
	}

	if _, err := service.entitlements.Consume(ctx, userID, QuotaDailyEnergy); err != nil {
		return "", err
	}
	return text, nil
}
