package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Use(handler.RequestMetrics)

	app.Get("/healthz", handler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(handler.metrics.Registry(), promhttp.HandlerOpts{})))
	app.Post("/telegram/webhook", handler.TelegramWebhook)

	admin := app.Group("/api/admin")
	admin.Post("/login", handler.Login)

	users := admin.Group("/users", handler.AdminRequired)
	users.Get("", handler.ListUsers)
	users.Get("/:id", handler.GetUser)
	users.Put("/:id/subscription", handler.UpdateSubscription)
}
