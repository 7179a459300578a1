package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vpskeeper/vpskeeper/internal/config"
	"github.com/vpskeeper/vpskeeper/internal/handlers"
	"github.com/vpskeeper/vpskeeper/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	serverHandler *handlers.ServerHandler,
	billingHandler *handlers.BillingHandler,
	manualHandler *handlers.ManualHandler,
	accessHandler *handlers.AccessHandler,
	settingsHandler *handlers.SettingsHandler,
	exportHandler *handlers.ExportHandler,
	eventsHandler *handlers.EventsHandler,
	systemHandler *handlers.SystemHandler,
) {
	// ─── Public ──────────────────────────────────────────────────────────
	app.Get("/api/health", systemHandler.Health)
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/refresh", authHandler.Refresh)

	// ─── Protected routes ────────────────────────────────────────────────
	api := app.Group("/api", middleware.JWTProtected(cfg.JWTSecret))

	api.Get("/auth/me", authHandler.Me)

	// Servers
	api.Get("/servers", serverHandler.ListServers)
	api.Post("/servers", serverHandler.CreateServer)
	api.Get("/servers/:id", serverHandler.GetServer)
	api.Delete("/servers/:id", serverHandler.DeleteServer)
	api.Post("/servers/:id/archive", serverHandler.ToggleArchive)
	api.Post("/servers/:id/favorite", serverHandler.ToggleFavorite)
	api.Put("/servers/:id/notes", serverHandler.UpdateNotes)
	api.Put("/servers/:id/secret", serverHandler.SetSecret)
	api.Post("/servers/:id/reveal", serverHandler.RevealSecret)

	// Billing
	api.Post("/servers/:id/billing", billingHandler.AddBilling)
	api.Get("/servers/:id/billing", billingHandler.ListServerBillings)
	api.Get("/billing/expiring", billingHandler.ListExpiring)
	api.Get("/billing/summary", billingHandler.MonthlySummary)

	// Manuals
	api.Get("/manuals", manualHandler.ListManuals)
	api.Post("/manuals", manualHandler.CreateManual)
	api.Get("/manuals/categories", manualHandler.CategoryCounts)
	api.Get("/manuals/search", manualHandler.SearchManuals)
	api.Get("/manuals/:id", manualHandler.GetManual)
	api.Get("/manuals/:id/commands", manualHandler.GetCommands)
	api.Put("/manuals/:id", manualHandler.UpdateManual)
	api.Delete("/manuals/:id", manualHandler.DeleteManual)

	// Whitelist (admin only)
	access := api.Group("/access", middleware.AdminOnly())
	access.Get("/", accessHandler.ListWhitelist)
	access.Post("/", accessHandler.AddToWhitelist)
	access.Delete("/:id", accessHandler.RemoveFromWhitelist)

	// Settings
	api.Get("/settings/secret-ttl", settingsHandler.GetSecretTTL)
	api.Put("/settings/secret-ttl", settingsHandler.SetSecretTTL)

	// Export
	api.Get("/export", exportHandler.Export)

	// Events (WebSocket)
	api.Use("/events", eventsHandler.UpgradeCheck())
	api.Get("/events", eventsHandler.HandleEvents())
}
