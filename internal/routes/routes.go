package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ananth-NQI/guestotp-backend/internal/handlers"
	"github.com/Ananth-NQI/guestotp-backend/internal/middleware"
)

// Options controls which route groups are mounted
type Options struct {
	Version           string
	WebhookSecret     string
	EnableDebugRoutes bool
	AdminAPIKey       string
}

// Handlers groups every handler the router mounts
type Handlers struct {
	GuestOTP *handlers.GuestOTPHandler
	Debug    *handlers.DebugHandler
	Health   *handlers.HealthHandler
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h Handlers, opts Options) {
	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Guest OTP Backend",
			"version": opts.Version,
			"endpoints": fiber.Map{
				"health":          "/health",
				"metrics":         "/metrics",
				"hotel_guest_otp": "/api/hotel_guest_otp",
			},
		})
	})

	app.Get("/health", h.Health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	api.Get("/hotel_guest_otp", h.GuestOTP.ListRecords)
	api.Post("/hotel_guest_otp", middleware.ValidateWebhookSignature(opts.WebhookSecret), h.GuestOTP.CreateRecords)
	api.All("/hotel_guest_otp", h.GuestOTP.MethodNotAllowed)

	if opts.EnableDebugRoutes && h.Debug != nil {
		debug := api.Group("/debug", middleware.RequireAdminKey(opts.AdminAPIKey))
		debug.Post("/lock_otp", h.Debug.IssueOTP)
		debug.Post("/notifications", h.Debug.SendNotifications)
	}
}
