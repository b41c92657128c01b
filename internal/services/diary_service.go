package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/prostranstvo/internal/models"
	"github.com/terraincognita07/prostranstvo/internal/observability"
)

type DiaryRepository interface {
	Append(ctx context.Context, userID int64, entry models.DiaryEntry) (models.DiaryEntry, error)
	List(ctx context.Context, userID int64, limit int) ([]models.DiaryEntry, error)
	Count(ctx context.Context, userID int64) (int, error)
}

type DiaryView struct {
	Entries   []models.DiaryEntry
	Total     int
	Truncated bool
}

type DiaryService struct {
	entries      DiaryRepository
	entitlements *EntitlementService
	now          func() time.Time
	metrics      *observability.Collector
}

func NewDiaryService(entries DiaryRepository, entitlements *EntitlementService, metrics *observability.Collector) *DiaryService {
	return &DiaryService{
		entries:      entries,
		entitlements: entitlements,
		now:          time.Now,
		metrics:      metrics,
	}
}

// Save appends a copy of content. Empty free-form notes are rejected with
// ErrEmptyContent; empty copies of generated texts with ErrNothingToSave.
func (service *DiaryService) Save(ctx context.Context, userID int64, content string, entryType models.EntryType) (models.DiaryEntry, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		if entryType == models.EntryTypeNote {
			return models.DiaryEntry{}, ErrEmptyContent
		}
		return models.DiaryEntry{}, ErrNothingToSave
	}
	if _, err := service.entitlements.GetOrCreateUser(ctx, userID); err != nil {
		return models.DiaryEntry{}, err
	}

	entry, err := service.entries.Append(ctx, userID, models.DiaryEntry{
		Content:   trimmed,
		Type:      entryType,
		CreatedAt: service.now(),
	})
	if err != nil {
		return models.DiaryEntry{}, fmt.Errorf("append diary entry: %w", err)
	}
	service.metrics.ObserveDiaryEntry(string(entryType))
	return entry, nil
}

// View returns the whole archive for paid users and the newest
// FreeDiaryViewLimit entries otherwise.
func (service *DiaryService) View(ctx context.Context, userID int64) (DiaryView, error) {
	user, err := service.entitlements.GetOrCreateUser(ctx, userID)
	if err != nil {
		return DiaryView{}, err
	}

	total, err := service.entries.Count(ctx, userID)
	if err != nil {
		return DiaryView{}, fmt.Errorf("count diary entries: %w", err)
	}

	limit := 0
	if !Allows(FeatureDiaryArchive, user.Subscription) {
		limit = FreeDiaryViewLimit
	}
	entries, err := service.entries.List(ctx, userID, limit)
	if err != nil {
		return DiaryView{}, fmt.Errorf("list diary entries: %w", err)
	}

	return DiaryView{
		Entries:   entries,
		Total:     total,
		Truncated: limit > 0 && total > limit,
	}, nil
}

func (service *DiaryService) Count(ctx context.Context, userID int64) (int, error) {
	count, err := service.entries.Count(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count diary entries: %w", err)
	}
	return count, nil
}

func (service *DiaryService) Themes(ctx context.Context, userID int64) ([]Theme, error) {
	entries, err := service.insightEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ExtractThemes(entries, maxThemes), nil
}

func (service *DiaryService) Patterns(ctx context.Context, userID int64) (Patterns, error) {
	entries, err := service.insightEntries(ctx, userID)
	if err != nil {
		return Patterns{}, err
	}
	return BuildPatterns(entries, service.entitlements.Today(), service.entitlements.Location()), nil
}

func (service *DiaryService) insightEntries(ctx context.Context, userID int64) ([]models.DiaryEntry, error) {
	if _, err := service.entitlements.Require(ctx, userID, FeatureDiaryInsights); err != nil {
		return nil, err
	}
	entries, err := service.entries.List(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("list diary entries: %w", err)
	}
	return entries, nil
}
