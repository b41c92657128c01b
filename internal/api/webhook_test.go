package api

import (
	"net/http"
	"strings"
	"testing"
)

const testUpdateBody = `{"update_id":7,"message":{"message_id":1,"from":{"id":42},"chat":{"id":42,"type":"private"},"text":"/start"}}`

func TestTelegramWebhookRejectsWrongSecret(t *testing.T) {
	ta := newTestApp(t)

	response, body := ta.do(t, http.MethodPost, "/telegram/webhook", testUpdateBody, map[string]string{
		webhookSecretHeader: "wrong",
	})
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", response.StatusCode)
	}
	if got := readAPIError(t, body); got != "invalid secret token" {
		t.Fatalf("expected invalid secret token error, got %q", got)
	}
	ta.handler.Wait()
	if len(ta.processor.received()) != 0 {
		t.Fatal("expected rejected update not to be processed")
	}
}

func TestTelegramWebhookProcessesUpdate(t *testing.T) {
	ta := newTestApp(t)

	response, _ := ta.do(t, http.MethodPost, "/telegram/webhook", testUpdateBody, map[string]string{
		webhookSecretHeader: testWebhookSecret,
	})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}

	ta.handler.Wait()
	updates := ta.processor.received()
	if len(updates) != 1 {
		t.Fatalf("expected one processed update, got %d", len(updates))
	}
	if updates[0].UpdateID != 7 || updates[0].Message == nil || updates[0].Message.Text != "/start" {
		t.Fatalf("unexpected update %+v", updates[0])
	}
}

func TestTelegramWebhookRejectsMalformedBody(t *testing.T) {
	ta := newTestApp(t)

	response, _ := ta.do(t, http.MethodPost, "/telegram/webhook", `{"update_id":`, map[string]string{
		webhookSecretHeader: testWebhookSecret,
	})
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", response.StatusCode)
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	ta := newTestApp(t)

	response, body := ta.do(t, http.MethodGet, "/healthz", "", nil)
	if response.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
		t.Fatalf("unexpected health response %d: %s", response.StatusCode, body)
	}

	response, body = ta.do(t, http.MethodGet, "/metrics", "", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected metrics status 200, got %d", response.StatusCode)
	}
	if !strings.Contains(string(body), "prostranstvo_http_requests_total") {
		t.Fatalf("expected http request counter in metrics output")
	}
}
