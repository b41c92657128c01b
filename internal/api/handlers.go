package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/prostranstvo/internal/models"
	"github.com/terraincognita07/prostranstvo/internal/observability"
	"github.com/terraincognita07/prostranstvo/internal/telegram"
	"go.uber.org/zap"
)

const (
	minSecretKeyLength = 32
	adminTokenTTL      = 12 * time.Hour
	loginAttemptLimit  = 5
	loginAttemptWindow = 15 * time.Minute
)

var ErrWeakSecretKey = errors.New("secret key must be at least 32 characters")

type UpdateProcessor interface {
	Process(ctx context.Context, update telegram.Update) error
}

type UserAdmin interface {
	FindUser(ctx context.Context, userID int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetSubscription(ctx context.Context, userID int64, tier models.Tier) (models.User, error)
}

type DiaryCounter interface {
	Count(ctx context.Context, userID int64) (int, error)
}

type HandlerConfig struct {
	Updates           UpdateProcessor
	Users             UserAdmin
	Diary             DiaryCounter
	WebhookSecret     string
	SecretKey         string
	AdminPasswordHash string
	Logger            *zap.Logger
	Metrics           *observability.Collector
	// Context bounds webhook processing that outlives the HTTP request.
	Context context.Context
}

type Handler struct {
	updates           UpdateProcessor
	users             UserAdmin
	diary             DiaryCounter
	webhookSecret     string
	secretKey         []byte
	adminPasswordHash []byte
	validate          *validator.Validate
	loginLimiter      *attemptLimiter
	logger            *zap.Logger
	metrics           *observability.Collector
	background        context.Context
	inflight          sync.WaitGroup
	now               func() time.Time
}

func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if len(cfg.SecretKey) < minSecretKeyLength {
		return nil, ErrWeakSecretKey
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}

	return &Handler{
		updates:           cfg.Updates,
		users:             cfg.Users,
		diary:             cfg.Diary,
		webhookSecret:     cfg.WebhookSecret,
		secretKey:         []byte(cfg.SecretKey),
		adminPasswordHash: []byte(cfg.AdminPasswordHash),
		validate:          validator.New(validator.WithRequiredStructEnabled()),
		loginLimiter:      newAttemptLimiter(loginAttemptLimit, loginAttemptWindow),
		logger:            cfg.Logger,
		metrics:           cfg.Metrics,
		background:        cfg.Context,
		now:               time.Now,
	}, nil
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Wait blocks until webhook updates accepted so far have been processed.
func (handler *Handler) Wait() {
	handler.inflight.Wait()
}

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
