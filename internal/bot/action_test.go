package bot

import (
	"testing"

	"github.com/terraincognita07/prostranstvo/internal/models"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	menu := map[string]ActionKind{"🃏 Таро": ActionTarotMenu}
	tests := []struct {
		name  string
		event Event
		want  Action
	}{
		{name: "start command", event: Event{Kind: EventCommand, Payload: "/start"}, want: Action{Kind: ActionStart}},
		{name: "command with bot suffix", event: Event{Kind: EventCommand, Payload: "/cancel@prostranstvo_bot"}, want: Action{Kind: ActionCancel}},
		{name: "unknown command", event: Event{Kind: EventCommand, Payload: "/nope"}, want: Action{Kind: ActionFallback}},
		{name: "menu label", event: Event{Kind: EventText, Payload: " 🃏 Таро "}, want: Action{Kind: ActionTarotMenu}},
		{name: "free text", event: Event{Kind: EventText, Payload: "привет"}, want: Action{Kind: ActionText, Text: "привет"}},
		{name: "tarot count", event: Event{Kind: EventButton, Payload: "tarot_3cards"}, want: Action{Kind: ActionTarotCount, Count: 3}},
		{name: "own layout", event: Event{Kind: EventButton, Payload: "own_2cards"}, want: Action{Kind: ActionOwnLayout, Count: 2}},
		{name: "own layout out of range", event: Event{Kind: EventButton, Payload: "own_7cards"}, want: Action{Kind: ActionFallback}},
		{name: "toggle diary", event: Event{Kind: EventButton, Payload: "toggle_diary_notif"}, want: Action{Kind: ActionToggleNotification, Notification: models.NotificationDiaryReminder}},
		{name: "subscribe premium", event: Event{Kind: EventButton, Payload: "subscribe_premium"}, want: Action{Kind: ActionSubscribe, Tier: models.TierPremium}},
		{name: "subscribe free rejected", event: Event{Kind: EventButton, Payload: "subscribe_free"}, want: Action{Kind: ActionFallback}},
		{name: "deepen daily", event: Event{Kind: EventButton, Payload: "deepen_daily"}, want: Action{Kind: ActionDeepen, Target: DeepenDailyEnergy}},
		{name: "continue own deck", event: Event{Kind: EventButton, Payload: "continue_own_deck"}, want: Action{Kind: ActionDeepen, Target: DeepenTarot}},
		{name: "save tarot", event: Event{Kind: EventButton, Payload: "diary_save_tarot"}, want: Action{Kind: ActionSaveTarot}},
		{name: "unknown button", event: Event{Kind: EventButton, Payload: "mystery"}, want: Action{Kind: ActionFallback}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Decode(tt.event, menu); got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestActionKindNamesAreComplete(t *testing.T) {
	for kind := ActionFallback; kind <= ActionText; kind++ {
		if kind.String() == "unknown" {
			t.Fatalf("action kind %d has no name", kind)
		}
	}
}
