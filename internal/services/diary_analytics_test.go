package services

import (
	"testing"
	"time"

	"github.com/terraincognita07/prostranstvo/internal/models"
)

func TestExtractThemesCountsOncePerEntry(t *testing.T) {
	t.Parallel()

	entries := []models.DiaryEntry{
		{Type: models.EntryTypeNote, Content: "Страх, страх и ещё раз страх. Семья рядом."},
		{Type: models.EntryTypeNote, Content: "Семья снова в мыслях, и страх тоже"},
		{Type: models.EntryTypeNote, Content: "Прогулка у моря"},
		{Type: models.EntryTypeTarot, Content: "семья семья семья"},
	}

	themes := ExtractThemes(entries, 5)
	if len(themes) != 2 {
		t.Fatalf("expected 2 themes, got %+v", themes)
	}
	if themes[0].Word != "семья" || themes[0].Count != 2 {
		t.Fatalf("expected семья x2 first (alphabetical tie-break), got %+v", themes[0])
	}
	if themes[1].Word != "страх" || themes[1].Count != 2 {
		t.Fatalf("expected страх x2 second, got %+v", themes[1])
	}
}

func TestBuildPatterns(t *testing.T) {
	t.Parallel()

	location := time.UTC
	day := func(d int) time.Time {
		return time.Date(2026, time.March, d, 9, 0, 0, 0, location)
	}
	entries := []models.DiaryEntry{
		{Type: models.EntryTypeNote, CreatedAt: day(1)},
		{Type: models.EntryTypeNote, CreatedAt: day(2)},
		{Type: models.EntryTypeTarot, CreatedAt: day(2)},
		{Type: models.EntryTypeDailyEnergy, CreatedAt: day(5)},
		{Type: models.EntryTypeNote, CreatedAt: day(6)},
	}

	patterns := BuildPatterns(entries, models.CalendarDate("2026-03-07"), location)
	if patterns.Total != 5 || patterns.ActiveDays != 4 {
		t.Fatalf("unexpected totals %+v", patterns)
	}
	if patterns.ByType[models.EntryTypeNote] != 3 || patterns.ByType[models.EntryTypeTarot] != 1 {
		t.Fatalf("unexpected by-type counts %+v", patterns.ByType)
	}
	if patterns.CurrentStreak != 2 {
		t.Fatalf("expected current streak 2 ending yesterday, got %d", patterns.CurrentStreak)
	}
	if patterns.LongestStreak != 2 {
		t.Fatalf("expected longest streak 2, got %d", patterns.LongestStreak)
	}
	if patterns.MostActiveWeekday != day(2).Weekday() {
		t.Fatalf("expected most active weekday %s, got %s", day(2).Weekday(), patterns.MostActiveWeekday)
	}

	stale := BuildPatterns(entries, models.CalendarDate("2026-03-20"), location)
	if stale.CurrentStreak != 0 {
		t.Fatalf("expected no current streak after a gap, got %d", stale.CurrentStreak)
	}
}
