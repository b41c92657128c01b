package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const adminRole = "admin"

type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type loginInput struct {
	Password string `json:"password" form:"password" validate:"required,max=128"`
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	if len(handler.adminPasswordHash) == 0 {
		return apiError(c, fiber.StatusServiceUnavailable, "admin access disabled")
	}

	now := handler.now()
	limiterKey := clientKey(c)
	if handler.loginLimiter.blocked(limiterKey, now) {
		return apiError(c, fiber.StatusTooManyRequests, "too many login attempts")
	}

	var input loginInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	if err := handler.validate.Struct(input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := bcrypt.CompareHashAndPassword(handler.adminPasswordHash, []byte(input.Password)); err != nil {
		handler.loginLimiter.fail(limiterKey, now)
		handler.logger.Sugar().Warnw("admin login failed", "ip", limiterKey)
		return apiError(c, fiber.StatusUnauthorized, "invalid credentials")
	}
	handler.loginLimiter.reset(limiterKey)

	token, expiresAt, err := handler.buildAdminToken(now)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to create token")
	}
	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

func (handler *Handler) buildAdminToken(now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(adminTokenTTL)
	claims := adminClaims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminRole,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(handler.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign admin token: %w", err)
	}
	return signed, expiresAt, nil
}

func (handler *Handler) parseAdminToken(raw string) (*adminClaims, error) {
	claims := &adminClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return handler.secretKey, nil
	}, jwt.WithTimeFunc(handler.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Role != adminRole {
		return nil, errors.New("invalid role")
	}
	return claims, nil
}
