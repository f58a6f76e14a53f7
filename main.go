package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/guestotp-backend/database"
	"github.com/Ananth-NQI/guestotp-backend/internal/config"
	"github.com/Ananth-NQI/guestotp-backend/internal/handlers"
	"github.com/Ananth-NQI/guestotp-backend/internal/jobs"
	"github.com/Ananth-NQI/guestotp-backend/internal/logging"
	"github.com/Ananth-NQI/guestotp-backend/internal/routes"
	"github.com/Ananth-NQI/guestotp-backend/internal/services"
	"github.com/Ananth-NQI/guestotp-backend/internal/shared"
	"github.com/Ananth-NQI/guestotp-backend/internal/storage"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// Initialize storage
	var store storage.Store
	if cfg.UseMemoryStore {
		logrus.Warn("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		logrus.Infof("📦 Connecting to %s database...", cfg.Database.Driver)
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to database")
		}

		logrus.Info("🔄 Running database migrations...")
		if err := database.Migrate(db); err != nil {
			logrus.WithError(err).Fatal("Failed to migrate database")
		}
		logrus.Info("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(db)
	}

	// Lock vendor session, optionally shared through Redis
	var tokenCache services.TokenCache
	if cfg.Lock.SessionRedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := services.NewRedisTokenCache(ctx, cfg.Lock.SessionRedisURL)
		cancel()
		if err != nil {
			logrus.WithError(err).Warn("⚠️  Redis unavailable - lock token will not be shared")
		} else {
			tokenCache = redisCache
			defer redisCache.Close()
			logrus.Info("✅ Lock token shared through Redis")
		}
	}
	if cfg.Lock.Endpoint == "" {
		logrus.Warn("⚠️  ATOMBERG_ENDPOINT not set - PIN generation will fail")
	}

	session := services.NewLockSession(cfg.Lock.TokenTTL, cfg.Lock.DirectoryTTL)
	gateway := services.NewAtombergGateway(cfg.Lock, session, tokenCache)
	otpService := services.NewOTPService(gateway, cfg.Property.OTPSuffix)

	notifier := services.NewNotifier(buildSenders(cfg)...)

	checkinService := services.NewCheckinService(
		services.NewReservationExtractor(cfg.Property),
		otpService,
		store,
		notifier,
		cfg.Property,
		cfg.DefaultPageSize,
	)

	refreshJob := jobs.NewLockSessionRefreshJob(gateway, cfg.Lock.RefreshSchedule, 2*cfg.Lock.HTTPTimeout)
	if cfg.Lock.Endpoint != "" {
		if err := refreshJob.Start(); err != nil {
			logrus.WithError(err).Fatal("Invalid LOCK_SESSION_REFRESH_CRON")
		}
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Guest OTP Backend v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			var se *shared.ServiceError
			switch {
			case errors.As(err, &fe):
				code = fe.Code
			case errors.As(err, &se):
				code = shared.HTTPStatus(err)
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		Output: logrus.StandardLogger().Writer(),
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Webhook-Signature, X-Admin-Key",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	routes.SetupRoutes(app, routes.Handlers{
		GuestOTP: handlers.NewGuestOTPHandler(checkinService),
		Debug:    handlers.NewDebugHandler(otpService, notifier),
		Health:   handlers.NewHealthHandler(version, store, refreshJob, session.DeviceCount),
	}, routes.Options{
		Version:           version,
		WebhookSecret:     cfg.WebhookSecret,
		EnableDebugRoutes: cfg.EnableDebugRoutes,
		AdminAPIKey:       cfg.AdminAPIKey,
	})

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logrus.Info("🛑 Gracefully shutting down...")
		refreshJob.Stop()
		logrus.Info("⏹️  Shutting down server...")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	logrus.Info("========================================")
	logrus.Infof("🚀 Guest OTP Backend starting on port %s", cfg.ServerPort)
	logrus.Infof("📊 Storage: %s", store.Kind())
	logrus.Infof("🌍 Environment: %s", cfg.Environment)
	logrus.Infof("🕐 Property time zone: %s", cfg.Property.Timezone)
	logrus.Infof("📱 WhatsApp: %s, SMS: %s", cfg.WhatsApp.Provider, cfg.SMS.Provider)
	logrus.Info("========================================")

	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.WithError(err).Fatal("Server stopped")
	}
}

// buildSenders picks the WhatsApp and SMS providers
func buildSenders(cfg *config.Config) []services.MessageSender {
	template := services.TemplateConfig{
		Name:         cfg.WhatsApp.TemplateName,
		LanguageCode: cfg.WhatsApp.LanguageCode,
	}

	var twilioService *services.TwilioService
	if cfg.WhatsApp.Provider == "twilio" || cfg.SMS.Provider == "twilio" {
		var err error
		twilioService, err = services.NewTwilioService(cfg.Twilio, cfg.WhatsApp.CountryCode)
		if err != nil {
			logrus.WithError(err).Warn("⚠️  Twilio credentials not found - falling back to HTTP providers")
		} else {
			logrus.Info("✅ Twilio service initialized")
		}
	}

	var whatsapp services.MessageSender = services.NewWhatsAppService(cfg.WhatsApp, template)
	if cfg.WhatsApp.Provider == "twilio" && twilioService != nil {
		whatsapp = services.NewTwilioWhatsAppSender(twilioService)
	}

	var sms services.MessageSender = services.NewSMSService(cfg.SMS)
	if cfg.SMS.Provider == "twilio" && twilioService != nil {
		sms = services.NewTwilioSMSSender(twilioService)
	}

	return []services.MessageSender{whatsapp, sms}
}
