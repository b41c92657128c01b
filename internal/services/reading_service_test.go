package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/terraincognita07/prostranstvo/internal/models"
	"github.com/terraincognita07/prostranstvo/internal/tarot"
)

func newReadingService(f *fixture) *ReadingService {
	return NewReadingService(f.entitlements, f.generator, rand.New(rand.NewPCG(7, 11)))
}

func TestBotReadingDrawsDistinctCardsAndRecordsUse(t *testing.T) {
	f := newFixture(t)
	service := newReadingService(f)
	ctx := context.Background()

	reading, err := service.BotReading(ctx, 1, "Что меня ждёт?", tarot.SpreadThreeCard)
	if err != nil {
		t.Fatalf("BotReading() unexpected error: %v", err)
	}
	if len(reading.Cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(reading.Cards))
	}
	if reading.Cards[0] == reading.Cards[1] || reading.Cards[1] == reading.Cards[2] || reading.Cards[0] == reading.Cards[2] {
		t.Fatalf("expected distinct cards, got %v", reading.Cards)
	}
	if f.generator.lastQuestion != "Что меня ждёт?" || f.generator.lastSpread != tarot.SpreadThreeCard {
		t.Fatalf("unexpected generator input %q %q", f.generator.lastQuestion, f.generator.lastSpread)
	}
	if !reflect.DeepEqual(f.generator.lastCards, reading.Cards) {
		t.Fatalf("expected generator to receive drawn cards %v, got %v", reading.Cards, f.generator.lastCards)
	}

	if _, err := service.BotReading(ctx, 1, "Ещё?", tarot.SpreadSingle); !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	if calls := f.generator.tarotCalls.Load(); calls != 1 {
		t.Fatalf("expected denied request not to call the generator, got %d calls", calls)
	}
}

func TestBotReadingFailureKeepsQuota(t *testing.T) {
	f := newFixture(t)
	f.generator.fail = true
	service := newReadingService(f)
	ctx := context.Background()

	if _, err := service.BotReading(ctx, 2, "вопрос", tarot.SpreadSingle); !errors.Is(err, errStubGeneration) {
		t.Fatalf("expected generation failure, got %v", err)
	}
	user, err := f.repos.Users.Find(ctx, 2)
	if err != nil {
		t.Fatalf("Find() unexpected error: %v", err)
	}
	if user.TarotCount != 0 {
		t.Fatalf("expected tarot_count 0 after failure, got %d", user.TarotCount)
	}

	f.generator.fail = false
	if _, err := service.BotReading(ctx, 2, "вопрос", tarot.SpreadSingle); err != nil {
		t.Fatalf("retry BotReading() unexpected error: %v", err)
	}
}

func TestBotReadingRejectsTwoCardSpread(t *testing.T) {
	f := newFixture(t)
	service := newReadingService(f)

	_, err := service.BotReading(context.Background(), 1, "вопрос", tarot.SpreadTwoCard)
	if !errors.Is(err, ErrUnsupportedSpread) {
		t.Fatalf("expected ErrUnsupportedSpread, got %v", err)
	}
}

func TestOwnDeckReading(t *testing.T) {
	f := newFixture(t)
	service := newReadingService(f)
	ctx := context.Background()

	if _, err := service.OwnDeckReading(ctx, 8, "вопрос", []string{"Шут"}, tarot.SpreadSingle); !errors.Is(err, ErrPremiumTierRequired) {
		t.Fatalf("expected ErrPremiumTierRequired, got %v", err)
	}

	if _, err := f.entitlements.SetSubscription(ctx, 8, models.TierPremium); err != nil {
		t.Fatalf("SetSubscription() unexpected error: %v", err)
	}

	_, err := service.OwnDeckReading(ctx, 8, "вопрос", []string{"Fool", "Magician"}, tarot.SpreadThreeCard)
	if !errors.Is(err, ErrCardCountMismatch) {
		t.Fatalf("expected ErrCardCountMismatch, got %v", err)
	}

	reading, err := service.OwnDeckReading(ctx, 8, "вопрос", []string{"  шут ", "Моя карта"}, tarot.SpreadTwoCard)
	if err != nil {
		t.Fatalf("OwnDeckReading() unexpected error: %v", err)
	}
	want := []string{"Шут", "Моя карта"}
	if !reflect.DeepEqual(reading.Cards, want) {
		t.Fatalf("expected cards %v, got %v", want, reading.Cards)
	}

	user, err := f.repos.Users.Find(ctx, 8)
	if err != nil {
		t.Fatalf("Find() unexpected error: %v", err)
	}
	if user.TarotCount != 0 {
		t.Fatalf("expected own deck readings not to use the tarot quota, got %d", user.TarotCount)
	}
}

func TestDeepenRequiresPaidTier(t *testing.T) {
	f := newFixture(t)
	service := newReadingService(f)
	ctx := context.Background()

	if _, err := service.Deepen(ctx, 3, "текст"); !errors.Is(err, ErrPaidTierRequired) {
		t.Fatalf("expected ErrPaidTierRequired, got %v", err)
	}
	if _, err := f.entitlements.SetSubscription(ctx, 3, models.TierBase); err != nil {
		t.Fatalf("SetSubscription() unexpected error: %v", err)
	}
	if _, err := service.Deepen(ctx, 3, "  "); !errors.Is(err, ErrNothingToDeepen) {
		t.Fatalf("expected ErrNothingToDeepen, got %v", err)
	}
	text, err := service.Deepen(ctx, 3, "текст")
	if err != nil {
		t.Fatalf("Deepen() unexpected error: %v", err)
	}
	if text != "глубже" || f.generator.deepenedPrior != "текст" {
		t.Fatalf("unexpected deepen result %q for prior %q", text, f.generator.deepenedPrior)
	}
}

func TestParseCardNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "Шут, Маг , Мир", want: []string{"Шут", "Маг", "Мир"}},
		{raw: "Шут,, ,Маг,", want: []string{"Шут", "Маг"}},
		{raw: "   ", want: []string{}},
	}
	for _, testCase := range tests {
		got := ParseCardNames(testCase.raw)
		if !reflect.DeepEqual(got, testCase.want) {
			t.Fatalf("ParseCardNames(%q): expected %v, got %v", testCase.raw, testCase.want, got)
		}
	}
}
