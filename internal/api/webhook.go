package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/prostranstvo/internal/telegram"
	"go.uber.org/zap"
)

const webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramWebhook acknowledges an update immediately and processes it in the
// background, since generation can take longer than Telegram waits.
func (handler *Handler) TelegramWebhook(c *fiber.Ctx) error {
	if handler.updates == nil {
		return apiError(c, fiber.StatusNotFound, "webhook disabled")
	}
	if handler.webhookSecret != "" && !secretsEqual(handler.webhookSecret, c.Get(webhookSecretHeader)) {
		return apiError(c, fiber.StatusUnauthorized, "invalid secret token")
	}

	var update telegram.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid update")
	}

	handler.inflight.Add(1)
	go func() {
		defer handler.inflight.Done()
		if err := handler.updates.Process(handler.background, update); err != nil {
			handler.logger.Warn("webhook update failed", zap.Int64("update_id", update.UpdateID), zap.Error(err))
		}
	}()

	return c.JSON(fiber.Map{"ok": true})
}
