package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/terraincognita07/prostranstvo/internal/db"
	"github.com/terraincognita07/prostranstvo/internal/tarot"
)

var errStubGeneration = errors.New("stub generation failure")

type stubGenerator struct {
	mu            sync.Mutex
	energyCalls   atomic.Int32
	tarotCalls    atomic.Int32
	energyDelay   time.Duration
	fail          bool
	lastQuestion  string
	lastCards     []string
	lastSpread    tarot.Spread
	readingText   string
	energyText    string
	deepenedPrior string
}

func (stub *stubGenerator) DailyEnergy(context.Context) (string, error) {
	stub.energyCalls.Add(1)
	if stub.energyDelay > 0 {
		time.Sleep(stub.energyDelay)
	}
	if stub.fail {
		return "", errStubGeneration
	}
	if stub.energyText != "" {
		return stub.energyText, nil
	}
	return "энергия дня", nil
}

func (stub *stubGenerator) TarotReading(_ context.Context, question string, cards []string, spread tarot.Spread) (string, error) {
	stub.tarotCalls.Add(1)
	stub.mu.Lock()
	stub.lastQuestion = question
	stub.lastCards = append([]string(nil), cards...)
	stub.lastSpread = spread
	stub.mu.Unlock()
	if stub.fail {
		return "", errStubGeneration
	}
	if stub.readingText != "" {
		return stub.readingText, nil
	}
	return "расклад", nil
}

func (stub *stubGenerator) OwnDeckReading(_ context.Context, question string, cards []string, spread tarot.Spread) (string, error) {
	stub.mu.Lock()
	stub.lastQuestion = question
	stub.lastCards = append([]string(nil), cards...)
	stub.lastSpread = spread
	stub.mu.Unlock()
	if stub.fail {
		return "", errStubGeneration
	}
	return "своя колода", nil
}

func (stub *stubGenerator) DeeperInterpretation(_ context.Context, prior string) (string, error) {
	stub.mu.Lock()
	stub.deepenedPrior = prior
	stub.mu.Unlock()
	if stub.fail {
		return "", errStubGeneration
	}
	return "глубже", nil
}

type fixture struct {
	store        *db.MemoryStore
	repos        *db.Repositories
	entitlements *EntitlementService
	generator    *stubGenerator
	now          time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := db.NewMemoryStore()
	repos := db.NewRepositories(store)
	now := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	entitlements := NewEntitlementService(repos.Users, time.UTC, nil)
	entitlements.now = func() time.Time { return now }

	return &fixture{
		store:        store,
		repos:        repos,
		entitlements: entitlements,
		generator:    &stubGenerator{},
		now:          now,
	}
}

func (f *fixture) advanceDays(days int) {
	f.now = f.now.AddDate(0, 0, days)
	now := f.now
	f.entitlements.now = func() time.Time { return now }
}
