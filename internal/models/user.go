package models

import (
	"fmt"
	"strings"
	"time"
)

type Tier string

const (
	TierFree    Tier = "free"
	TierBase    Tier = "base"
	TierPremium Tier = "premium"
)

func ParseTier(raw string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierFree:
		return TierFree, nil
	case TierBase:
		return TierBase, nil
	case TierPremium:
		return TierPremium, nil
	default:
		return "", fmt.Errorf("unknown subscription tier %q", raw)
	}
}

type NotificationKind string

const (
	NotificationDailyEnergy   NotificationKind = "daily_energy"
	NotificationDiaryReminder NotificationKind = "diary_reminder"
)

type NotificationSettings struct {
	DailyEnergy   bool `json:"daily_energy"`
	DiaryReminder bool `json:"diary_reminder"`
}

func (settings NotificationSettings) Enabled(kind NotificationKind) bool {
	switch kind {
	case NotificationDailyEnergy:
		return settings.DailyEnergy
	case NotificationDiaryReminder:
		return settings.DiaryReminder
	default:
		return false
	}
}

type User struct {
	ID               int64                `json:"user_id"`
	Subscription     Tier                 `json:"subscription"`
	DailyEnergyCount int                  `json:"daily_energy_count"`
	TarotCount       int                  `json:"tarot_count"`
	LastDailyEnergy  *CalendarDate        `json:"last_daily_energy"`
	LastTarot        *CalendarDate        `json:"last_tarot"`
	Notifications    NotificationSettings `json:"notifications"`
	CreatedAt        time.Time            `json:"created_at"`
}

func NewUser(id int64, now time.Time) User {
	return User{
		ID:           id,
		Subscription: TierFree,
		CreatedAt:    now,
	}
}
