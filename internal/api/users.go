package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/prostranstvo/internal/db"
	"github.com/terraincognita07/prostranstvo/internal/models"
	"github.com/terraincognita07/prostranstvo/internal/services"
	"go.uber.org/zap"
)

type userResponse struct {
	UserID           int64                       `json:"user_id"`
	Subscription     models.Tier                 `json:"subscription"`
	TarotCount       int                         `json:"tarot_count"`
	DailyEnergyCount int                         `json:"daily_energy_count"`
	LastTarot        *models.CalendarDate        `json:"last_tarot"`
	LastDailyEnergy  *models.CalendarDate        `json:"last_daily_energy"`
	Notifications    models.NotificationSettings `json:"notifications"`
	CreatedAt        string                      `json:"created_at"`
	DiaryEntries     *int                        `json:"diary_entries,omitempty"`
}

type subscriptionInput struct {
	Tier string `json:"tier" validate:"required,oneof=free base premium"`
}

func newUserResponse(user models.User) userResponse {
	return userResponse{
		UserID:           user.ID,
		Subscription:     user.Subscription,
		TarotCount:       user.TarotCount,
		DailyEnergyCount: user.DailyEnergyCount,
		LastTarot:        user.LastTarot,
		LastDailyEnergy:  user.LastDailyEnergy,
		Notifications:    user.Notifications,
		CreatedAt:        user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (handler *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := handler.users.ListUsers(c.UserContext())
	if err != nil {
		handler.logger.Error("list users failed", zap.Error(err))
		return apiError(c, fiber.StatusInternalServerError, "failed to load users")
	}

	payload := make([]userResponse, 0, len(users))
	for _, user := range users {
		payload = append(payload, newUserResponse(user))
	}
	return c.JSON(fiber.Map{"users": payload})
}

func (handler *Handler) GetUser(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid user id")
	}

	user, err := handler.users.FindUser(c.UserContext(), userID)
	if errors.Is(err, db.ErrNotFound) {
		return apiError(c, fiber.StatusNotFound, "user not found")
	}
	if err != nil {
		handler.logger.Error("find user failed", zap.Int64("user_id", userID), zap.Error(err))
		return apiError(c, fiber.StatusInternalServerError, "failed to load user")
	}

	payload := newUserResponse(user)
	if handler.diary != nil {
		count, err := handler.diary.Count(c.UserContext(), userID)
		if err != nil {
			handler.logger.Error("count diary failed", zap.Int64("user_id", userID), zap.Error(err))
			return apiError(c, fiber.StatusInternalServerError, "failed to load user")
		}
		payload.DiaryEntries = &count
	}
	return c.JSON(payload)
}

func (handler *Handler) UpdateSubscription(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var input subscriptionInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	if err := handler.validate.Struct(input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid tier")
	}

	user, err := handler.users.SetSubscription(c.UserContext(), userID, models.Tier(input.Tier))
	if errors.Is(err, services.ErrInvalidTier) {
		return apiError(c, fiber.StatusBadRequest, "invalid tier")
	}
	if err != nil {
		handler.logger.Error("set subscription failed", zap.Int64("user_id", userID), zap.Error(err))
		return apiError(c, fiber.StatusInternalServerError, "failed to update subscription")
	}

	handler.logger.Info("subscription changed",
		zap.Int64("user_id", userID),
		zap.String("tier", string(user.Subscription)),
	)
	return c.JSON(newUserResponse(user))
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}
