package api

import (
	"crypto/subtle"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const contextAdminKey = "admin_subject"

func (handler *Handler) RequestMetrics(c *fiber.Ctx) error {
	err := c.Next()

	status := c.Response().StatusCode()
	if fiberErr, ok := err.(*fiber.Error); ok {
		status = fiberErr.Code
	}
	handler.metrics.ObserveHTTP(c.Method(), c.Route().Path, strconv.Itoa(status))
	return err
}

func (handler *Handler) AdminRequired(c *fiber.Ctx) error {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	rawToken, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(rawToken) == "" {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	claims, err := handler.parseAdminToken(strings.TrimSpace(rawToken))
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	c.Locals(contextAdminKey, claims.Subject)
	return c.Next()
}

func secretsEqual(expected string, provided string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}
