package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/terraincognita07/prostranstvo/internal/tarot"
)

type ReadingGenerator interface {
	TarotReading(ctx context.Context, question string, cards []string, spread tarot.Spread) (string, error)
	OwnDeckReading(ctx context.Context, question string, cards []string, spread tarot.Spread) (string, error)
	DeeperInterpretation(ctx context.Context, prior string) (string, error)
}

type Reading struct {
	Question string
	Spread   tarot.Spread
	Cards    []string
	Text     string
}

type ReadingService struct {
	entitlements *EntitlementService
	generator    ReadingGenerator
	rngMu        sync.Mutex
	rng          *rand.Rand
}

func NewReadingService(entitlements *EntitlementService, generator ReadingGenerator, rng *rand.Rand) *ReadingService {
	return &ReadingService{
		entitlements: entitlements,
		generator:    generator,
		rng:          rng,
	}
}

// BotReading draws cards for the user and interprets them. The daily quota is
// checked before drawing and consumed only after the text is generated.
func (service *ReadingService) BotReading(ctx context.Context, userID int64, question string, spread tarot.Spread) (Reading, error) {
	if spread != tarot.SpreadSingle && spread != tarot.SpreadThreeCard {
		return Reading{}, fmt.Errorf("%w: %s", ErrUnsupportedSpread, spread)
	}
	if _, err := service.entitlements.Check(ctx, userID, QuotaTarot); err != nil {
		return Reading{}, err
	}

	cards := service.draw(spread.Count())
	text, err := service.generator.TarotReading(ctx, question, cards, spread)
	if err != nil {
		return Reading{}, err
	}

	if _, err := service.entitlements.Consume(ctx, userID, QuotaTarot); err != nil {
		return Reading{}, err
	}
	return Reading{Question: question, Spread: spread, Cards: cards, Text: text}, nil
}

// OwnDeckReading interprets cards the user drew from a physical deck. Names
// are free text; an exact catalog match is replaced by its canonical spelling.
func (service *ReadingService) OwnDeckReading(ctx context.Context, userID int64, question string, cards []string, spread tarot.Spread) (Reading, error) {
	if !spread.Valid() {
		return Reading{}, fmt.Errorf("%w: %s", ErrUnsupportedSpread, spread)
	}
	if _, err := service.entitlements.Require(ctx, userID, FeatureOwnDeck); err != nil {
		return Reading{}, err
	}
	if len(cards) != spread.Count() {
		return Reading{}, fmt.Errorf("%w: expected %d, got %d", ErrCardCountMismatch, spread.Count(), len(cards))
	}

	named := make([]string, len(cards))
	for index, card := range cards {
		if match := tarot.Find(card); match.Exact != "" {
			named[index] = match.Exact
			continue
		}
		named[index] = card
	}

	text, err := service.generator.OwnDeckReading(ctx, question, named, spread)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Question: question, Spread: spread, Cards: named, Text: text}, nil
}

func (service *ReadingService) Deepen(ctx context.Context, userID int64, prior string) (string, error) {
	if _, err := service.entitlements.Require(ctx, userID, FeatureDeepen); err != nil {
		return "", err
	}
	if strings.TrimSpace(prior) == "" {
		return "", ErrNothingToDeepen
	}
	return service.generator.DeeperInterpretation(ctx, prior)
}

func (service *ReadingService) draw(count int) []string {
	service.rngMu.Lock()
	defer service.rngMu.Unlock()
	return tarot.Draw(service.rng, count)
}

// ParseCardNames splits comma separated input, trimming each name and
// dropping empty segments.
func ParseCardNames(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
