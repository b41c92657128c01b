package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.telegram.org"

var ErrAPI = errors.New("telegram api error")

type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewClient(token string, options ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(options.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 70 * time.Second
	}
	return &Client{
		token:   token,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetUpdates long-polls for updates after offset.
func (client *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	values := url.Values{}
	values.Set("offset", strconv.FormatInt(offset, 10))
	values.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	values.Set("allowed_updates", `["message","callback_query"]`)

	var updates []Update
	if err := client.call(ctx, "getUpdates", values, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage posts text to chatID. markup is an inline or reply keyboard
// and may be nil.
func (client *Client) SendMessage(ctx context.Context, chatID int64, text string, markup any) error {
	values := url.Values{}
	values.Set("chat_id", strconv.FormatInt(chatID, 10))
	values.Set("text", text)
	if markup != nil {
		encoded, err := json.Marshal(markup)
		if err != nil {
			return fmt.Errorf("encode reply markup: %w", err)
		}
		values.Set("reply_markup", string(encoded))
	}
	return client.call(ctx, "sendMessage", values, nil)
}

func (client *Client) AnswerCallbackQuery(ctx context.Context, callbackID string, text string, alert bool) error {
	values := url.Values{}
	values.Set("callback_query_id", callbackID)
	if text != "" {
		values.Set("text", text)
	}
	if alert {
		values.Set("show_alert", "true")
	}
	return client.call(ctx, "answerCallbackQuery", values, nil)
}

func (client *Client) SetWebhook(ctx context.Context, webhookURL string, secret string) error {
	values := url.Values{}
	values.Set("url", webhookURL)
	if secret != "" {
		values.Set("secret_token", secret)
	}
	values.Set("allowed_updates", `["message","callback_query"]`)
	return client.call(ctx, "setWebhook", values, nil)
}

func (client *Client) DeleteWebhook(ctx context.Context) error {
	return client.call(ctx, "deleteWebhook", url.Values{}, nil)
}

// Notify sends a plain push message. Private chats share the user's id.
func (client *Client) Notify(ctx context.Context, userID int64, text string) error {
	return client.SendMessage(ctx, userID, text, nil)
}

func (client *Client) call(ctx context.Context, method string, values url.Values, result any) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", client.baseURL, client.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, redact(err, client.token))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("%w: %s status %d", ErrAPI, method, resp.StatusCode)
	}
	if !decoded.OK {
		return fmt.Errorf("%w: %s status %d: %s", ErrAPI, method, decoded.ErrorCode, decoded.Description)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// redact keeps the bot token out of transport errors, which embed the URL.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}
