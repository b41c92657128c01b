package bot

import (
	"strconv"
	"strings"

	"github.com/terraincognita07/prostranstvo/internal/models"
)

type ActionKind int

const (
	ActionFallback ActionKind = iota
	ActionStart
	ActionCancel
	ActionHowItWorks
	ActionDailyEnergy
	ActionTarotMenu
	ActionTarotBot
	ActionTarotOwn
	ActionTarotCount
	ActionOwnLayout
	ActionDiaryMenu
	ActionDiaryNew
	ActionDiaryView
	ActionDiaryThemes
	ActionDiaryPatterns
	ActionSaveDailyEnergy
	ActionSaveTarot
	ActionNotificationsMenu
	ActionToggleNotification
	ActionDisableNotifications
	ActionNotifyDaily
	ActionSubscriptionMenu
	ActionSubscribe
	ActionCancelSubscription
	ActionUpgradeNeeded
	ActionUpgradePremium
	ActionDeepen
	ActionText
)

var actionNames = map[ActionKind]string{
	ActionFallback:             "fallback",
	ActionStart:                "start",
	ActionCancel:               "cancel",
	ActionHowItWorks:           "how_it_works",
	ActionDailyEnergy:          "daily_energy",
	ActionTarotMenu:            "tarot_menu",
	ActionTarotBot:             "tarot_bot",
	ActionTarotOwn:             "tarot_own",
	ActionTarotCount:           "tarot_count",
	ActionOwnLayout:            "own_layout",
	ActionDiaryMenu:            "diary_menu",
	ActionDiaryNew:             "diary_new",
	ActionDiaryView:            "diary_view",
	ActionDiaryThemes:          "diary_themes",
	ActionDiaryPatterns:        "diary_patterns",
	ActionSaveDailyEnergy:      "save_daily_energy",
	ActionSaveTarot:            "save_tarot",
	ActionNotificationsMenu:    "notifications_menu",
	ActionToggleNotification:   "toggle_notification",
	ActionDisableNotifications: "disable_notifications",
	ActionNotifyDaily:          "notify_daily",
	ActionSubscriptionMenu:     "subscription_menu",
	ActionSubscribe:            "subscribe",
	ActionCancelSubscription:   "cancel_subscription",
	ActionUpgradeNeeded:        "upgrade_needed",
	ActionUpgradePremium:       "upgrade_premium",
	ActionDeepen:               "deepen",
	ActionText:                 "text",
}

func (kind ActionKind) String() string {
	if name, ok := actionNames[kind]; ok {
		return name
	}
	return "unknown"
}

type DeepenTarget string

const (
	DeepenDailyEnergy DeepenTarget = "daily"
	DeepenTarot       DeepenTarget = "tarot"
)

// Action is an Event decoded into a closed set of intents. Only the field
// matching Kind is meaningful.
type Action struct {
	Kind         ActionKind
	Count        int
	Notification models.NotificationKind
	Tier         models.Tier
	Target       DeepenTarget
	Text         string
}

const (
	ButtonDailyEnergy        = "daily_energy"
	ButtonTarot              = "tarot"
	ButtonDiary              = "diary"
	ButtonHowItWorks         = "how_it_works"
	ButtonSaveDailyEnergy    = "diary_save_daily"
	ButtonSaveTarot          = "diary_save_tarot"
	ButtonDiaryView          = "diary_view"
	ButtonDiaryNew           = "diary_new"
	ButtonDiaryThemes        = "diary_themes"
	ButtonDiaryPatterns      = "diary_patterns"
	ButtonNotifyDaily        = "notify_daily"
	ButtonToggleDaily        = "toggle_daily_notif"
	ButtonToggleDiary        = "toggle_diary_notif"
	ButtonDisableAll         = "disable_all_notif"
	ButtonSubscription       = "subscription"
	ButtonSubscribeBase      = "subscribe_base"
	ButtonSubscribePremium   = "subscribe_premium"
	ButtonCancelSubscription = "cancel_subscription"
	ButtonUpgradeNeeded      = "upgrade_needed"
	ButtonUpgradePremium     = "upgrade_premium"
	ButtonDeepenDaily        = "deepen_daily"
	ButtonDeepenTarot        = "deepen_tarot"
	ButtonTarotBot           = "tarot_bot"
	ButtonTarotOwn           = "tarot_own"
	ButtonTarotOneCard       = "tarot_1card"
	ButtonTarotThreeCards    = "tarot_3cards"
	ButtonOwnOneCard         = "own_1card"
	ButtonOwnTwoCards        = "own_2cards"
	ButtonOwnThreeCards      = "own_3cards"
	ButtonContinueOwnDeck    = "continue_own_deck"
)

var exactButtons = map[string]Action{
	ButtonDailyEnergy:        {Kind: ActionDailyEnergy},
	ButtonTarot:              {Kind: ActionTarotMenu},
	ButtonDiary:              {Kind: ActionDiaryMenu},
	ButtonHowItWorks:         {Kind: ActionHowItWorks},
	ButtonSaveDailyEnergy:    {Kind: ActionSaveDailyEnergy},
	ButtonSaveTarot:          {Kind: ActionSaveTarot},
	ButtonDiaryView:          {Kind: ActionDiaryView},
	ButtonDiaryNew:           {Kind: ActionDiaryNew},
	ButtonDiaryThemes:        {Kind: ActionDiaryThemes},
	ButtonDiaryPatterns:      {Kind: ActionDiaryPatterns},
	ButtonNotifyDaily:        {Kind: ActionNotifyDaily},
	ButtonDisableAll:         {Kind: ActionDisableNotifications},
	ButtonSubscription:       {Kind: ActionSubscriptionMenu},
	ButtonCancelSubscription: {Kind: ActionCancelSubscription},
	ButtonUpgradeNeeded:      {Kind: ActionUpgradeNeeded},
	ButtonUpgradePremium:     {Kind: ActionUpgradePremium},
	ButtonTarotBot:           {Kind: ActionTarotBot},
	ButtonTarotOwn:           {Kind: ActionTarotOwn},
	ButtonContinueOwnDeck:    {Kind: ActionDeepen, Target: DeepenTarot},
}

var notificationButtons = map[string]models.NotificationKind{
	"daily": models.NotificationDailyEnergy,
	"diary": models.NotificationDiaryReminder,
}

// Decode turns an inbound event into an Action. menu maps the reply keyboard
// labels to their actions; any other text is ActionText.
func Decode(event Event, menu map[string]ActionKind) Action {
	switch event.Kind {
	case EventCommand:
		return decodeCommand(event.Payload)
	case EventButton:
		return decodeButton(strings.TrimSpace(event.Payload))
	case EventText:
		if kind, ok := menu[strings.TrimSpace(event.Payload)]; ok {
			return Action{Kind: kind}
		}
		return Action{Kind: ActionText, Text: event.Payload}
	default:
		return Action{Kind: ActionFallback}
	}
}

func decodeCommand(payload string) Action {
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return Action{Kind: ActionFallback}
	}
	command := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}

	switch command {
	case "start":
		return Action{Kind: ActionStart}
	case "cancel":
		return Action{Kind: ActionCancel}
	case "help":
		return Action{Kind: ActionHowItWorks}
	case "energy":
		return Action{Kind: ActionDailyEnergy}
	case "tarot":
		return Action{Kind: ActionTarotMenu}
	case "diary":
		return Action{Kind: ActionDiaryMenu}
	default:
		return Action{Kind: ActionFallback}
	}
}

func decodeButton(data string) Action {
	if action, ok := exactButtons[data]; ok {
		return action
	}

	switch {
	case strings.HasPrefix(data, "toggle_"):
		name := strings.TrimSuffix(strings.TrimPrefix(data, "toggle_"), "_notif")
		if kind, ok := notificationButtons[name]; ok {
			return Action{Kind: ActionToggleNotification, Notification: kind}
		}
	case strings.HasPrefix(data, "subscribe_"):
		if tier, err := models.ParseTier(strings.TrimPrefix(data, "subscribe_")); err == nil && tier != models.TierFree {
			return Action{Kind: ActionSubscribe, Tier: tier}
		}
	case strings.HasPrefix(data, "deepen_"):
		switch DeepenTarget(strings.TrimPrefix(data, "deepen_")) {
		case DeepenDailyEnergy:
			return Action{Kind: ActionDeepen, Target: DeepenDailyEnergy}
		case DeepenTarot:
			return Action{Kind: ActionDeepen, Target: DeepenTarot}
		}
	case strings.HasPrefix(data, "own_"):
		if count, ok := parseCardCount(strings.TrimPrefix(data, "own_")); ok {
			return Action{Kind: ActionOwnLayout, Count: count}
		}
	case strings.HasPrefix(data, "tarot_"):
		if count, ok := parseCardCount(strings.TrimPrefix(data, "tarot_")); ok {
			return Action{Kind: ActionTarotCount, Count: count}
		}
	}
	return Action{Kind: ActionFallback}
}

// parseCardCount reads ids like "1card" or "3cards".
func parseCardCount(raw string) (int, bool) {
	digits := strings.TrimSuffix(strings.TrimSuffix(raw, "s"), "card")
	if digits == raw {
		return 0, false
	}
	count, err := strconv.Atoi(digits)
	if err != nil || count < 1 || count > 3 {
		return 0, false
	}
	return count, true
}
