package bot

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/terraincognita07/prostranstvo/internal/models"
	"github.com/terraincognita07/prostranstvo/internal/services"
)

const (
	entryPreviewRunes = 100
	maxMessageRunes   = 4000
)

func (conv *conversation) diaryMenu() {
	user, err := conv.router.entitlements.GetOrCreateUser(conv.ctx, conv.event.UserID)
	if err != nil {
		conv.fail("diary_menu", err)
		return
	}
	count, err := conv.router.diary.Count(conv.ctx, conv.event.UserID)
	if err != nil {
		conv.fail("diary_menu", err)
		return
	}

	rows := [][]Button{
		{conv.button("button.diary_new", ButtonDiaryNew)},
		{conv.button("button.diary_view", ButtonDiaryView)},
	}
	if services.Allows(services.FeatureDiaryInsights, user.Subscription) {
		rows = append(rows,
			[]Button{conv.button("button.diary_themes", ButtonDiaryThemes)},
			[]Button{conv.button("button.diary_patterns", ButtonDiaryPatterns)},
		)
	} else {
		rows = append(rows,
			[]Button{conv.button("button.diary_themes_locked", ButtonUpgradeNeeded)},
			[]Button{conv.button("button.diary_patterns_locked", ButtonUpgradeNeeded)},
		)
	}
	conv.send(Reply{Text: conv.tf("diary.menu", count), Buttons: rows})
}

func (conv *conversation) diaryNew() {
	conv.router.sessions.Start(conv.key, Dialog{Step: StepDiaryContent})
	conv.say(conv.t("diary.ask_content"))
}

func (conv *conversation) diaryContent(dialog Dialog, text string) {
	_, err := conv.router.diary.Save(conv.ctx, conv.event.UserID, text, models.EntryTypeNote)
	if errors.Is(err, services.ErrEmptyContent) {
		conv.say(conv.t("diary.empty_content"))
		return
	}
	if err != nil {
		conv.fail("diary_save", err)
		return
	}

	conv.router.sessions.Finish(conv.key, dialog.Token, nil)
	conv.sayWithMenu(conv.t("diary.saved"))
}

func (conv *conversation) saveDailyEnergy() {
	content := conv.router.sessions.Get(conv.key).LastDailyEnergy
	conv.saveCopy(content, models.EntryTypeDailyEnergy, "diary.saved_daily")
}

func (conv *conversation) saveTarot() {
	content := conv.router.sessions.Get(conv.key).LastTarotReading
	conv.saveCopy(content, models.EntryTypeTarot, "diary.saved_tarot")
}

func (conv *conversation) saveCopy(content string, entryType models.EntryType, savedKey string) {
	_, err := conv.router.diary.Save(conv.ctx, conv.event.UserID, content, entryType)
	switch {
	case errors.Is(err, services.ErrNothingToSave):
		conv.alert(conv.t("diary.nothing_to_save"))
	case err != nil:
		conv.fail("diary_save_copy", err)
	default:
		conv.alert(conv.t(savedKey))
	}
}

func (conv *conversation) diaryView() {
	view, err := conv.router.diary.View(conv.ctx, conv.event.UserID)
	if err != nil {
		conv.fail("diary_view", err)
		return
	}
	if len(view.Entries) == 0 {
		conv.say(conv.t("diary.no_entries"))
		return
	}

	blocks := make([]string, 0, len(view.Entries)+1)
	for _, entry := range view.Entries {
		date := formatDate(entry.CreatedAt, conv.router.location)
		blocks = append(blocks, conv.tf("diary.view_entry", date, preview(entry.Content, entryPreviewRunes)))
	}
	if view.Truncated {
		blocks = append(blocks, conv.t("diary.view_locked"))
	}

	for _, message := range chunkBlocks(conv.t("diary.view_header"), blocks, maxMessageRunes) {
		conv.say(message)
	}
}

func (conv *conversation) diaryThemes() {
	themes, err := conv.router.diary.Themes(conv.ctx, conv.event.UserID)
	if err != nil {
		conv.fail("diary_themes", err)
		return
	}
	if len(themes) == 0 {
		conv.say(conv.t("diary.themes_empty"))
		return
	}

	lines := []string{conv.t("diary.themes_header"), ""}
	for _, theme := range themes {
		lines = append(lines, conv.tf("diary.theme_line", theme.Word, theme.Count))
	}
	conv.say(strings.Join(lines, "\n"))
}

func (conv *conversation) diaryPatterns() {
	patterns, err := conv.router.diary.Patterns(conv.ctx, conv.event.UserID)
	if err != nil {
		conv.fail("diary_patterns", err)
		return
	}
	if patterns.Total == 0 {
		conv.say(conv.t("diary.patterns_empty"))
		return
	}

	conv.say(conv.tf("diary.patterns",
		patterns.Total,
		patterns.ByType[models.EntryTypeNote],
		patterns.ByType[models.EntryTypeTarot],
		patterns.ByType[models.EntryTypeDailyEnergy],
		patterns.ActiveDays,
		patterns.CurrentStreak,
		patterns.LongestStreak,
		conv.t(weekdayKey(patterns.MostActiveWeekday)),
	))
}

func weekdayKey(day time.Weekday) string {
	return "weekday." + strconv.Itoa(int(day))
}

// preview cuts content to limit runes and marks the cut with an ellipsis.
func preview(content string, limit int) string {
	if utf8.RuneCountInString(content) <= limit {
		return content
	}
	runes := []rune(content)
	return string(runes[:limit]) + "..."
}

// chunkBlocks joins blocks under header into messages no longer than limit
// runes. A single oversized block is cut.
func chunkBlocks(header string, blocks []string, limit int) []string {
	messages := make([]string, 0, 1)
	current := header
	for _, block := range blocks {
		if utf8.RuneCountInString(block) > limit {
			block = preview(block, limit-3)
		}
		candidate := current + "\n\n" + block
		if current == "" {
			candidate = block
		}
		if utf8.RuneCountInString(candidate) > limit {
			messages = append(messages, current)
			current = block
			continue
		}
		current = candidate
	}
	if current != "" {
		messages = append(messages, current)
	}
	return messages
}
