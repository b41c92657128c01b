package services

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/terraincognita07/prostranstvo/internal/models"
)

const (
	maxThemes     = 5
	minThemeRunes = 4
)

var themeStopWords = map[string]struct{}{
	"этот": {}, "эта": {}, "это": {}, "эти": {}, "того": {}, "тому": {}, "тоже": {},
	"который": {}, "которая": {}, "которые": {}, "когда": {}, "потом": {}, "потому": {},
	"очень": {}, "просто": {}, "сегодня": {}, "вчера": {}, "завтра": {}, "будет": {},
	"была": {}, "было": {}, "были": {}, "есть": {}, "чтобы": {}, "если": {}, "себя": {},
	"меня": {}, "мной": {}, "тебя": {}, "тебе": {}, "него": {}, "неё": {},
	"нему": {}, "ними": {}, "всех": {}, "всем": {}, "всё": {}, "весь": {}, "свой": {},
	"своя": {}, "своё": {}, "свои": {}, "только": {}, "ещё": {}, "уже": {}, "даже": {},
	"какой": {}, "какая": {}, "какие": {}, "такой": {}, "такая": {}, "такие": {},
	"где": {}, "там": {}, "тут": {}, "здесь": {}, "сейчас": {}, "между": {}, "через": {},
	"после": {}, "перед": {}, "хочу": {}, "могу": {}, "может": {}, "нужно": {}, "надо": {},
}

type Theme struct {
	Word  string
	Count int
}

// ExtractThemes returns the words that recur across the user's own notes,
// counted once per entry, most frequent first.
func ExtractThemes(entries []models.DiaryEntry, limit int) []Theme {
	counts := make(map[string]int)
	for _, entry := range entries {
		if entry.Type != models.EntryTypeNote {
			continue
		}
		seen := make(map[string]struct{})
		for _, word := range splitWords(entry.Content) {
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			counts[word]++
		}
	}

	themes := make([]Theme, 0, len(counts))
	for word, count := range counts {
		if count < 2 {
			continue
		}
		themes = append(themes, Theme{Word: word, Count: count})
	}
	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Count != themes[j].Count {
			return themes[i].Count > themes[j].Count
		}
		return themes[i].Word < themes[j].Word
	})
	if limit > 0 && len(themes) > limit {
		themes = themes[:limit]
	}
	return themes
}

func splitWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		word := strings.Trim(field, "-")
		if utf8.RuneCountInString(word) < minThemeRunes {
			continue
		}
		if _, stop := themeStopWords[word]; stop {
			continue
		}
		words = append(words, word)
	}
	return words
}

type Patterns struct {
	Total             int
	ByType            map[models.EntryType]int
	ByWeekday         [7]int
	MostActiveWeekday time.Weekday
	ActiveDays        int
	CurrentStreak     int
	LongestStreak     int
}

// BuildPatterns summarizes when and what the user writes. The current streak
// counts consecutive days with entries ending today or yesterday.
func BuildPatterns(entries []models.DiaryEntry, today models.CalendarDate, location *time.Location) Patterns {
	patterns := Patterns{
		Total:  len(entries),
		ByType: make(map[models.EntryType]int),
	}
	if location == nil {
		location = time.Local
	}

	days := make(map[models.CalendarDate]struct{})
	for _, entry := range entries {
		patterns.ByType[entry.Type]++
		local := entry.CreatedAt.In(location)
		patterns.ByWeekday[local.Weekday()]++
		days[models.DateOf(local, location)] = struct{}{}
	}
	patterns.ActiveDays = len(days)

	for weekday := time.Sunday; weekday <= time.Saturday; weekday++ {
		if patterns.ByWeekday[weekday] > patterns.ByWeekday[patterns.MostActiveWeekday] {
			patterns.MostActiveWeekday = weekday
		}
	}

	sorted := make([]time.Time, 0, len(days))
	for day := range days {
		parsed, err := day.Time(location)
		if err != nil {
			continue
		}
		sorted = append(sorted, parsed)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Before(sorted[j])
	})

	run := 0
	for index, day := range sorted {
		if index > 0 && isNextDay(sorted[index-1], day) {
			run++
		} else {
			run = 1
		}
		if run > patterns.LongestStreak {
			patterns.LongestStreak = run
		}
	}

	todayTime, err := today.Time(location)
	if err != nil || len(sorted) == 0 {
		return patterns
	}
	cursor := todayTime
	if _, ok := days[today]; !ok {
		cursor = todayTime.AddDate(0, 0, -1)
	}
	for {
		if _, ok := days[models.DateOf(cursor, location)]; !ok {
			break
		}
		patterns.CurrentStreak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return patterns
}

func isNextDay(previous time.Time, current time.Time) bool {
	return previous.AddDate(0, 0, 1).Equal(current)
}
