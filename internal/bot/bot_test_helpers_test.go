package bot

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/terraincognita07/prostranstvo/internal/db"
	"github.com/terraincognita07/prostranstvo/internal/generator"
	"github.com/terraincognita07/prostranstvo/internal/i18n"
	"github.com/terraincognita07/prostranstvo/internal/models"
	"github.com/terraincognita07/prostranstvo/internal/services"
	"github.com/terraincognita07/prostranstvo/internal/tarot"
)

type tarotCall struct {
	question string
	cards    []string
	spread   tarot.Spread
	output   string
}

type stubGenerator struct {
	mu       sync.Mutex
	fail     bool
	started  chan struct{}
	release  chan struct{}
	calls    []tarotCall
	priors   []string
}

func (stub *stubGenerator) wait(ctx context.Context) error {
	if stub.started != nil {
		stub.started <- struct{}{}
	}
	if stub.release != nil {
		select {
		case <-stub.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.fail {
		return generator.ErrGenerationFailed
	}
	return nil
}

func (stub *stubGenerator) DailyEnergy(ctx context.Context) (string, error) {
	if err := stub.wait(ctx); err != nil {
		return "", err
	}
	return "энергия дня", nil
}

func (stub *stubGenerator) TarotReading(ctx context.Context, question string, cards []string, spread tarot.Spread) (string, error) {
	if err := stub.wait(ctx); err != nil {
		return "", err
	}
	output := "ответ на «" + question + "»: " + strings.Join(cards, " / ")
	stub.record(question, cards, spread, output)
	return output, nil
}

func (stub *stubGenerator) OwnDeckReading(ctx context.Context, question string, cards []string, spread tarot.Spread) (string, error) {
	if err := stub.wait(ctx); err != nil {
		return "", err
	}
	output := "своя колода: " + strings.Join(cards, " / ")
	stub.record(question, cards, spread, output)
	return output, nil
}

func (stub *stubGenerator) DeeperInterpretation(ctx context.Context, prior string) (string, error) {
	if err := stub.wait(ctx); err != nil {
		return "", err
	}
	stub.mu.Lock()
	stub.priors = append(stub.priors, prior)
	stub.mu.Unlock()
	return "глубже: " + prior, nil
}

func (stub *stubGenerator) record(question string, cards []string, spread tarot.Spread, output string) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.calls = append(stub.calls, tarotCall{
		question: question,
		cards:    append([]string(nil), cards...),
		spread:   spread,
		output:   output,
	})
}

func (stub *stubGenerator) tarotCalls() []tarotCall {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return append([]tarotCall(nil), stub.calls...)
}

func (stub *stubGenerator) deepenPriors() []string {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return append([]string(nil), stub.priors...)
}

func (stub *stubGenerator) setFail(fail bool) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.fail = fail
}

type harness struct {
	router       *Router
	texts        *i18n.Manager
	repos        *db.Repositories
	entitlements *services.EntitlementService
	generator    *stubGenerator
}

const (
	testUserID int64 = 42
	testChatID int64 = 4200
)

func newHarness(t *testing.T) *harness {
	t.Helper()

	texts, err := i18n.NewEmbeddedManager(i18n.LangRU)
	require.NoError(t, err)

	repos := db.NewRepositories(db.NewMemoryStore())
	entitlements := services.NewEntitlementService(repos.Users, time.UTC, nil)
	stub := &stubGenerator{}

	router := NewRouter(Dependencies{
		Entitlements: entitlements,
		DailyEnergy:  services.NewDailyEnergyService(repos.DailyEnergy, stub, entitlements, nil, nil),
		Readings:     services.NewReadingService(entitlements, stub, rand.New(rand.NewPCG(1, 2))),
		Diary:        services.NewDiaryService(repos.Diary, entitlements, nil),
		Texts:        texts,
		Location:     time.UTC,
	})

	return &harness{
		router:       router,
		texts:        texts,
		repos:        repos,
		entitlements: entitlements,
		generator:    stub,
	}
}

func (h *harness) t(key string) string {
	return h.texts.Translate(i18n.LangRU, key)
}

func (h *harness) setTier(t *testing.T, tier models.Tier) {
	t.Helper()
	_, err := h.entitlements.SetSubscription(context.Background(), testUserID, tier)
	require.NoError(t, err)
}

func (h *harness) command(payload string) []Reply {
	return h.router.Handle(context.Background(), Event{UserID: testUserID, ChatID: testChatID, Kind: EventCommand, Payload: payload})
}

func (h *harness) press(data string) []Reply {
	return h.router.Handle(context.Background(), Event{UserID: testUserID, ChatID: testChatID, Kind: EventButton, Payload: data, CallbackID: "cb"})
}

func (h *harness) send(text string) []Reply {
	return h.router.Handle(context.Background(), Event{UserID: testUserID, ChatID: testChatID, Kind: EventText, Payload: text})
}

func (h *harness) step() Step {
	return h.router.Sessions().Get(SessionKey{UserID: testUserID, ChatID: testChatID}).Dialog.Step
}

func replyTexts(replies []Reply) []string {
	texts := make([]string, 0, len(replies))
	for _, reply := range replies {
		texts = append(texts, reply.Text)
	}
	return texts
}

func buttonData(reply Reply) []string {
	var data []string
	for _, row := range reply.Buttons {
		for _, button := range row {
			data = append(data, button.Data)
		}
	}
	return data
}

func lastReply(t *testing.T, replies []Reply) Reply {
	t.Helper()
	require.NotEmpty(t, replies)
	return replies[len(replies)-1]
}
