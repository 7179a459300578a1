package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/vpskeeper/vpskeeper/internal/config"
	"github.com/vpskeeper/vpskeeper/internal/crypto"
	"github.com/vpskeeper/vpskeeper/internal/database"
	"github.com/vpskeeper/vpskeeper/internal/handlers"
	"github.com/vpskeeper/vpskeeper/internal/notify"
	"github.com/vpskeeper/vpskeeper/internal/routes"
	"github.com/vpskeeper/vpskeeper/internal/services"
)

func main() {
	// JSON structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting vpskeeper", "version", handlers.Version)

	// ─── Config ──────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// ─── Database ────────────────────────────────────────────────────────
	if err := database.Connect(cfg); err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	db := database.DB

	// ─── Encryption ─────────────────────────────────────────────────────
	encryptor, err := crypto.NewEncryptor(cfg.MasterKey)
	if err != nil {
		slog.Error("Failed to create encryptor", "error", err)
		os.Exit(1)
	}

	// ─── Services ───────────────────────────────────────────────────────
	clock := services.SystemClock()
	accessService := services.NewAccessService(db)
	billingService := services.NewBillingService(db, clock)
	serverService := services.NewServerService(db, encryptor, clock)
	manualService := services.NewManualService(db)
	settingsService := services.NewSettingsService(db, cfg.SecretTTLSeconds)
	exportService := services.NewExportService(serverService, manualService)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := accessService.BootstrapAdmin(ctx, cfg.AdminTelegramID); err != nil {
		slog.Error("Failed to bootstrap admin", "error", err)
		cancel()
		os.Exit(1)
	}
	cancel()

	// ─── Telegram delivery ──────────────────────────────────────────────
	var notifier *notify.TelegramSender
	if cfg.TelegramBotToken != "" {
		notifier = notify.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramAPIURL)
	} else {
		slog.Warn("TELEGRAM_BOT_TOKEN not set, reminders and secret delivery disabled")
	}

	// ─── Reminder scheduler ─────────────────────────────────────────────
	eventsHandler := handlers.NewEventsHandler()
	var reminder *services.ReminderService
	if notifier != nil {
		reminder = services.NewReminderService(
			db, billingService, accessService, notifier, eventsHandler, clock, cfg.NotifyHourUTC)
		reminder.Start()
	}

	// ─── Handlers ───────────────────────────────────────────────────────
	authHandler := handlers.NewAuthHandler(cfg)
	serverHandler := handlers.NewServerHandler(serverService, billingService, settingsService, notifier)
	billingHandler := handlers.NewBillingHandler(billingService, clock)
	manualHandler := handlers.NewManualHandler(manualService)
	accessHandler := handlers.NewAccessHandler(accessService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	exportHandler := handlers.NewExportHandler(exportService)
	systemHandler := handlers.NewSystemHandler()

	// ─── Fiber App ──────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      "vpskeeper v" + handlers.Version,
		ServerHeader: "vpskeeper",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: false,
	}))

	// Request logger
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if c.Path() == "/api/health" {
			return err
		}
		slog.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		)
		return err
	})

	// ─── Routes ─────────────────────────────────────────────────────────
	routes.Setup(app, cfg, authHandler, serverHandler, billingHandler, manualHandler,
		accessHandler, settingsHandler, exportHandler, eventsHandler, systemHandler)

	// ─── Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down vpskeeper...")

		if reminder != nil {
			reminder.Stop()
		}
		if notifier != nil {
			notifier.Close()
		}

		if err := app.Shutdown(); err != nil {
			slog.Error("Fiber shutdown error", "error", err)
		}

		if sqlDB, err := database.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	// ─── Start ──────────────────────────────────────────────────────────
	listenAddr := ":" + cfg.Port
	slog.Info("vpskeeper listening", "addr", listenAddr)

	if err := app.Listen(listenAddr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
