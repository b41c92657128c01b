package bot

import (
	"errors"
	"strconv"
	"strings"

	"github.com/terraincognita07/prostranstvo/internal/services"
	"github.com/terraincognita07/prostranstvo/internal/tarot"
)

func (conv *conversation) tarotMenu() {
	user, err := conv.router.entitlements.GetOrCreateUser(conv.ctx, conv.event.UserID)
	if err != nil {
		conv.fail("tarot_menu", err)
		return
	}

	own := conv.button("button.tarot_own_locked", ButtonUpgradePremium)
	if services.IsPremium(user) {
		own = conv.button("button.tarot_own", ButtonTarotOwn)
	}
	conv.send(Reply{
		Text: conv.t("tarot.menu"),
		Buttons: [][]Button{
			{conv.button("button.tarot_bot", ButtonTarotBot)},
			{own},
		},
	})
}

func (conv *conversation) tarotBotStart() {
	if _, err := conv.router.entitlements.Check(conv.ctx, conv.event.UserID, services.QuotaTarot); err != nil {
		if errors.Is(err, services.ErrQuotaExhausted) {
			conv.sayWithMenu(conv.t("tarot.denied"))
			return
		}
		conv.fail("tarot_bot", err)
		return
	}

	conv.router.sessions.Start(conv.key, Dialog{Step: StepTarotQuestion})
	conv.say(conv.t("tarot.ask_question"))
}

func (conv *conversation) tarotQuestion(dialog Dialog, text string) {
	question := strings.TrimSpace(text)
	if question == "" {
		conv.say(conv.t("tarot.ask_question"))
		return
	}

	_, ok := conv.router.sessions.Advance(conv.key, dialog.Token, StepTarotQuestion, func(next *Dialog) {
		next.Question = question
		next.Step = StepTarotCardCount
	})
	if !ok {
		conv.fallback()
		return
	}
	conv.askCardCount()
}

func (conv *conversation) askCardCount() {
	conv.send(Reply{
		Text: conv.t("tarot.choose_count"),
		Buttons: [][]Button{
			{conv.button("button.spread_single", ButtonTarotOneCard)},
			{conv.button("button.spread_three", ButtonTarotThreeCards)},
		},
	})
}

// tarotCountText accepts a typed count while the count buttons are shown.
func (conv *conversation) tarotCountText(dialog Dialog, text string) {
	count, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || (count != 1 && count != 3) {
		conv.askCardCount()
		return
	}
	conv.drawTarot(dialog, count)
}

func (conv *conversation) tarotCount(count int) {
	dialog := conv.router.sessions.Get(conv.key).Dialog
	if dialog.Step != StepTarotCardCount {
		conv.fallback()
		return
	}
	if count != 1 && count != 3 {
		conv.askCardCount()
		return
	}
	conv.drawTarot(dialog, count)
}

func (conv *conversation) drawTarot(dialog Dialog, count int) {
	spread, err := tarot.SpreadForCount(count)
	if err != nil {
		conv.askCardCount()
		return
	}
	current, ok := conv.router.sessions.Advance(conv.key, dialog.Token, StepTarotCardCount, func(next *Dialog) {
		next.Spread = spread
		next.Step = StepTarotDrawing
	})
	if !ok {
		conv.fallback()
		return
	}
	conv.say(conv.t("tarot.drawing"))

	reading, err := conv.router.readings.BotReading(conv.ctx, conv.event.UserID, current.Question, spread)
	if err != nil {
		conv.router.sessions.Advance(conv.key, current.Token, StepTarotDrawing, func(next *Dialog) {
			next.Step = StepTarotCardCount
		})
		if errors.Is(err, services.ErrQuotaExhausted) {
			conv.router.sessions.Cancel(conv.key)
			conv.sayWithMenu(conv.t("tarot.denied"))
			return
		}
		conv.fail("tarot_reading", err)
		if !errors.Is(err, services.ErrEntitlementDenied) {
			conv.askCardCount()
		}
		return
	}

	finished := conv.router.sessions.Finish(conv.key, current.Token, func(session *Session) {
		session.LastTarotReading = reading.Text
	})
	if !finished {
		return
	}

	user, err := conv.router.entitlements.GetOrCreateUser(conv.ctx, conv.event.UserID)
	if err != nil {
		conv.fail("tarot_reading", err)
		return
	}
	deepen := conv.button("button.deepen_tarot_locked", ButtonUpgradeNeeded)
	if services.IsPaid(user) {
		deepen = conv.button("button.deepen_tarot", ButtonDeepenTarot)
	}
	conv.send(Reply{
		Text: conv.tf("tarot.reading", strings.Join(reading.Cards, ", "), reading.Text),
		Buttons: [][]Button{
			{conv.button("button.save_to_diary", ButtonSaveTarot)},
			{deepen},
			{conv.button("button.another_question", ButtonTarot)},
			{conv.button("menu.daily_energy", ButtonDailyEnergy)},
		},
	})
}

func (conv *conversation) tarotOwnStart() {
	if _, err := conv.router.entitlements.Require(conv.ctx, conv.event.UserID, services.FeatureOwnDeck); err != nil {
		conv.fail("tarot_own", err)
		return
	}

	conv.router.sessions.Start(conv.key, Dialog{Step: StepOwnDeckLayout})
	conv.askOwnLayout()
}

func (conv *conversation) askOwnLayout() {
	conv.send(Reply{
		Text: conv.t("own.layout"),
		Buttons: [][]Button{
			{conv.button("button.spread_single", ButtonOwnOneCard)},
			{conv.button("button.spread_two", ButtonOwnTwoCards)},
			{conv.button("button.spread_three", ButtonOwnThreeCards)},
		},
	})
}

// ownLayout starts the own-deck flow from a layout button. The layout buttons
// are an entry point of their own, so the dialog is replaced.
func (conv *conversation) ownLayout(count int) {
	if _, err := conv.router.entitlements.Require(conv.ctx, conv.event.UserID, services.FeatureOwnDeck); err != nil {
		conv.fail("own_layout", err)
		return
	}

	spread, err := tarot.SpreadForCount(count)
	if err != nil {
		conv.askOwnLayout()
		return
	}
	conv.router.sessions.Start(conv.key, Dialog{Step: StepOwnDeckQuestion, Spread: spread})
	conv.say(conv.t("own.pull_" + strconv.Itoa(spread.Count())))
}

func (conv *conversation) ownLayoutText(dialog Dialog, text string) {
	count, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		conv.askOwnLayout()
		return
	}
	spread, err := tarot.SpreadForCount(count)
	if err != nil {
		conv.askOwnLayout()
		return
	}
	_, ok := conv.router.sessions.Advance(conv.key, dialog.Token, StepOwnDeckLayout, func(next *Dialog) {
		next.Spread = spread
		next.Step = StepOwnDeckQuestion
	})
	if !ok {
		conv.fallback()
		return
	}
	conv.say(conv.t("own.pull_" + strconv.Itoa(count)))
}

func (conv *conversation) ownQuestion(dialog Dialog, text string) {
	question := strings.TrimSpace(text)
	if question == "" {
		conv.say(conv.t("own.pull_" + strconv.Itoa(dialog.Spread.Count())))
		return
	}

	current, ok := conv.router.sessions.Advance(conv.key, dialog.Token, StepOwnDeckQuestion, func(next *Dialog) {
		next.Question = question
		next.Step = StepOwnDeckCards
	})
	if !ok {
		conv.fallback()
		return
	}
	conv.askOwnCards(current.Spread)
}

func (conv *conversation) askOwnCards(spread tarot.Spread) {
	if spread.Count() == 1 {
		conv.say(conv.t("own.ask_cards_1"))
		return
	}
	conv.say(conv.tf("own.ask_cards_n", spread.Count()))
}

func (conv *conversation) ownCards(dialog Dialog, text string) {
	cards := services.ParseCardNames(text)
	if len(cards) != dialog.Spread.Count() {
		conv.say(conv.tf("own.count_mismatch", dialog.Spread.Count(), len(cards)))
		return
	}

	current, ok := conv.router.sessions.Advance(conv.key, dialog.Token, StepOwnDeckCards, func(next *Dialog) {
		next.Step = StepOwnDeckInterpreting
	})
	if !ok {
		conv.fallback()
		return
	}
	conv.say(conv.t("own.interpreting"))

	reading, err := conv.router.readings.OwnDeckReading(conv.ctx, conv.event.UserID, current.Question, cards, current.Spread)
	if err != nil {
		conv.router.sessions.Advance(conv.key, current.Token, StepOwnDeckInterpreting, func(next *Dialog) {
			next.Step = StepOwnDeckCards
		})
		if errors.Is(err, services.ErrCardCountMismatch) {
			conv.say(conv.tf("own.count_mismatch", current.Spread.Count(), len(cards)))
			return
		}
		if errors.Is(err, services.ErrEntitlementDenied) {
			conv.router.sessions.Cancel(conv.key)
		}
		conv.fail("own_deck_reading", err)
		if !errors.Is(err, services.ErrEntitlementDenied) {
			conv.askOwnCards(current.Spread)
		}
		return
	}

	finished := conv.router.sessions.Finish(conv.key, current.Token, func(session *Session) {
		session.LastTarotReading = reading.Text
	})
	if !finished {
		return
	}

	conv.send(Reply{
		Text: conv.tf("tarot.reading", strings.Join(reading.Cards, ", "), reading.Text),
		Buttons: [][]Button{
			{conv.button("button.save_to_diary", ButtonSaveTarot)},
			{conv.button("button.continue_own", ButtonContinueOwnDeck)},
			{conv.button("button.new_own_spread", ButtonTarotOwn)},
		},
	})
}
