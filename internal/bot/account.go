package bot

import (
	"errors"
	"strings"

	"github.com/terraincognita07/prostranstvo/internal/models"
	"github.com/terraincognita07/prostranstvo/internal/services"
)

func (conv *conversation) dailyEnergy() {
	if _, err := conv.router.entitlements.Check(conv.ctx, conv.event.UserID, services.QuotaDailyEnergy); err != nil {
		conv.dailyEnergyFailed(err)
		return
	}
	conv.say(conv.t("daily_energy.generating"))

	text, err := conv.router.energy.Deliver(conv.ctx, conv.event.UserID)
	if err != nil {
		conv.dailyEnergyFailed(err)
		return
	}
	conv.router.sessions.Update(conv.key, func(session *Session) {
		session.LastDailyEnergy = text
	})

	user, err := conv.router.entitlements.GetOrCreateUser(conv.ctx, conv.event.UserID)
	if err != nil {
		conv.fail("daily_energy", err)
		return
	}
	deepen := conv.button("button.deepen_locked", ButtonUpgradeNeeded)
	if services.IsPaid(user) {
		deepen = conv.button("button.deepen", ButtonDeepenDaily)
	}
	conv.send(Reply{
		Text: text,
		Buttons: [][]Button{
			{conv.button("button.save_to_diary", ButtonSaveDailyEnergy)},
			{conv.button("button.ask_tarot", ButtonTarot)},
			{conv.button("button.notify_daily", ButtonNotifyDaily)},
			{deepen},
		},
	})
}

func (conv *conversation) dailyEnergyFailed(err error) {
	if errors.Is(err, services.ErrQuotaExhausted) {
		conv.sayWithMenu(conv.t("daily_energy.denied"))
		return
	}
	conv.fail("daily_energy", err)
}

func (conv *conversation) deepen(target DeepenTarget) {
	if _, err := conv.router.entitlements.Require(conv.ctx, conv.event.UserID, services.FeatureDeepen); err != nil {
		conv.fail("deepen", err)
		return
	}

	session := conv.router.sessions.Get(conv.key)
	prior := session.LastTarotReading
	if target == DeepenDailyEnergy {
		prior = session.LastDailyEnergy
	}
	if strings.TrimSpace(prior) == "" {
		conv.say(conv.t("deepen.nothing"))
		return
	}

	conv.say(conv.t("deepen.generating"))
	text, err := conv.router.readings.Deepen(conv.ctx, conv.event.UserID, prior)
	if errors.Is(err, services.ErrNothingToDeepen) {
		conv.say(conv.t("deepen.nothing"))
		return
	}
	if err != nil {
		conv.fail("deepen", err)
		return
	}
	conv.say(text)
}

func (conv *conversation) notificationsMenu() {
	user, err := conv.router.entitlements.GetOrCreateUser(conv.ctx, conv.event.UserID)
	if err != nil {
		conv.fail("notifications_menu", err)
		return
	}
	conv.send(Reply{
		Text: conv.tf("notifications.menu",
			conv.status(user.Notifications.DailyEnergy),
			conv.status(user.Notifications.DiaryReminder),
		),
		Buttons: [][]Button{
			{conv.button("button.notif_daily", ButtonToggleDaily)},
			{conv.button("button.notif_diary", ButtonToggleDiary)},
			{conv.button("button.notif_disable", ButtonDisableAll)},
		},
	})
}

func (conv *conversation) status(enabled bool) string {
	if enabled {
		return conv.t("notifications.status_on")
	}
	return conv.t("notifications.status_off")
}

func (conv *conversation) toggleNotification(kind models.NotificationKind) {
	user, err := conv.router.entitlements.ToggleNotification(conv.ctx, conv.event.UserID, kind)
	if err != nil {
		conv.fail("toggle_notification", err)
		return
	}

	state := conv.t("notifications.disabled")
	if user.Notifications.Enabled(kind) {
		state = conv.t("notifications.enabled")
	}
	key := "notifications.daily_toggled"
	if kind == models.NotificationDiaryReminder {
		key = "notifications.diary_toggled"
	}
	conv.alert(conv.tf(key, state))
	conv.notificationsMenu()
}

func (conv *conversation) disableNotifications() {
	if _, err := conv.router.entitlements.DisableNotifications(conv.ctx, conv.event.UserID); err != nil {
		conv.fail("disable_notifications", err)
		return
	}
	conv.alert(conv.t("notifications.disabled_all"))
	conv.notificationsMenu()
}

func (conv *conversation) notifyDaily() {
	if _, err := conv.router.entitlements.EnableNotification(conv.ctx, conv.event.UserID, models.NotificationDailyEnergy); err != nil {
		conv.fail("notify_daily", err)
		return
	}
	conv.alert(conv.t("notifications.daily_enabled"))
}

func (conv *conversation) subscriptionMenu() {
	user, err := conv.router.entitlements.GetOrCreateUser(conv.ctx, conv.event.UserID)
	if err != nil {
		conv.fail("subscription_menu", err)
		return
	}

	rows := [][]Button{
		{conv.button("button.subscribe_base", ButtonSubscribeBase)},
		{conv.button("button.subscribe_premium", ButtonSubscribePremium)},
	}
	if services.IsPaid(user) {
		rows = append(rows, []Button{conv.button("button.cancel_subscription", ButtonCancelSubscription)})
	}
	conv.send(Reply{
		Text:    conv.tf("subscription.menu", strings.ToUpper(string(user.Subscription))),
		Buttons: rows,
	})
}

func (conv *conversation) subscribe(tier models.Tier) {
	conv.say(conv.tf("subscription.subscribe",
		strings.ToUpper(string(tier)),
		conv.t("subscription.price."+string(tier)),
	))
}
