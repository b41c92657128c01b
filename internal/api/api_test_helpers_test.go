package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/prostranstvo/internal/db"
	"github.com/terraincognita07/prostranstvo/internal/observability"
	"github.com/terraincognita07/prostranstvo/internal/services"
	"github.com/terraincognita07/prostranstvo/internal/telegram"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecretKey     = "0123456789abcdef0123456789abcdef"
	testWebhookSecret = "hook-secret"
	testAdminPassword = "correct horse battery"
)

type recordingProcessor struct {
	mu      sync.Mutex
	updates []telegram.Update
}

func (processor *recordingProcessor) Process(_ context.Context, update telegram.Update) error {
	processor.mu.Lock()
	defer processor.mu.Unlock()
	processor.updates = append(processor.updates, update)
	return nil
}

func (processor *recordingProcessor) received() []telegram.Update {
	processor.mu.Lock()
	defer processor.mu.Unlock()
	return append([]telegram.Update(nil), processor.updates...)
}

type testApp struct {
	app          *fiber.App
	handler      *Handler
	processor    *recordingProcessor
	entitlements *services.EntitlementService
	repos        *db.Repositories
	metrics      *observability.Collector
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash admin password: %v", err)
	}

	repos := db.NewRepositories(db.NewMemoryStore())
	metrics := observability.NewCollector("prostranstvo")
	entitlements := services.NewEntitlementService(repos.Users, time.UTC, metrics)
	processor := &recordingProcessor{}

	handler, err := NewHandler(HandlerConfig{
		Updates:           processor,
		Users:             entitlements,
		Diary:             repos.Diary,
		WebhookSecret:     testWebhookSecret,
		SecretKey:         testSecretKey,
		AdminPasswordHash: string(hash),
		Metrics:           metrics,
	})
	if err != nil {
		t.Fatalf("NewHandler() unexpected error: %v", err)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	RegisterRoutes(app, handler)

	return &testApp{
		app:          app,
		handler:      handler,
		processor:    processor,
		entitlements: entitlements,
		repos:        repos,
		metrics:      metrics,
	}
}

func (ta *testApp) do(t *testing.T, method string, path string, body string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := ta.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s request failed: %v", method, path, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return response, payload
}

func (ta *testApp) login(t *testing.T) string {
	t.Helper()

	response, body := ta.do(t, http.MethodPost, "/api/admin/login", `{"password":"`+testAdminPassword+`"}`, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected login status 200, got %d: %s", response.StatusCode, body)
	}
	payload := map[string]string{}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if payload["token"] == "" {
		t.Fatal("expected token in login response")
	}
	return payload["token"]
}

func readAPIError(t *testing.T, body []byte) string {
	t.Helper()

	payload := map[string]string{}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return payload["error"]
}
