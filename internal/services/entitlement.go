package services

import "github.com/terraincognita07/prostranstvo/internal/models"

const FreeDiaryViewLimit = 5

type Quota string

const (
	QuotaTarot       Quota = "tarot"
	QuotaDailyEnergy Quota = "daily_energy"
)

type Feature string

const (
	FeatureOwnDeck       Feature = "own_deck"
	FeatureDeepen        Feature = "deepen"
	FeatureDiaryArchive  Feature = "diary_archive"
	FeatureDiaryInsights Feature = "diary_insights"
)

// featureTiers lists, per feature, every tier allowed to use it. Access is
// set membership; tiers are not compared by rank.
var featureTiers = map[Feature]map[models.Tier]struct{}{
	FeatureOwnDeck: {
		models.TierPremium: {},
	},
	FeatureDeepen: {
		models.TierBase:    {},
		models.TierPremium: {},
	},
	FeatureDiaryArchive: {
		models.TierBase:    {},
		models.TierPremium: {},
	},
	FeatureDiaryInsights: {
		models.TierBase:    {},
		models.TierPremium: {},
	},
}

func Features() []Feature {
	return []Feature{FeatureOwnDeck, FeatureDeepen, FeatureDiaryArchive, FeatureDiaryInsights}
}

func Allows(feature Feature, tier models.Tier) bool {
	allowed, ok := featureTiers[feature]
	if !ok {
		return false
	}
	_, ok = allowed[tier]
	return ok
}

func DenialFor(feature Feature) error {
	if feature == FeatureOwnDeck {
		return ErrPremiumTierRequired
	}
	return ErrPaidTierRequired
}

func IsPaid(user models.User) bool {
	return user.Subscription == models.TierBase || user.Subscription == models.TierPremium
}

func IsPremium(user models.User) bool {
	return user.Subscription == models.TierPremium
}

func CanUseDailyEnergy(user models.User, today models.CalendarDate) bool {
	if user.Subscription != models.TierFree {
		return true
	}
	return !models.SameDate(user.LastDailyEnergy, today)
}

func CanUseTarot(user models.User, today models.CalendarDate) bool {
	if user.Subscription != models.TierFree {
		return true
	}
	return !models.SameDate(user.LastTarot, today)
}

func RecordDailyEnergyUse(user *models.User, today models.CalendarDate) {
	date := today
	user.LastDailyEnergy = &date
	user.DailyEnergyCount++
}

func RecordTarotUse(user *models.User, today models.CalendarDate) {
	date := today
	user.LastTarot = &date
	user.TarotCount++
}

func CanUse(user models.User, quota Quota, today models.CalendarDate) (bool, error) {
	switch quota {
	case QuotaTarot:
		return CanUseTarot(user, today), nil
	case QuotaDailyEnergy:
		return CanUseDailyEnergy(user, today), nil
	default:
		return false, ErrInvalidQuota
	}
}

func RecordUse(user *models.User, quota Quota, today models.CalendarDate) error {
	switch quota {
	case QuotaTarot:
		RecordTarotUse(user, today)
	case QuotaDailyEnergy:
		RecordDailyEnergyUse(user, today)
	default:
		return ErrInvalidQuota
	}
	return nil
}
