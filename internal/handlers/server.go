package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vpskeeper/vpskeeper/internal/middleware"
	"github.com/vpskeeper/vpskeeper/internal/models"
	"github.com/vpskeeper/vpskeeper/internal/notify"
	"github.com/vpskeeper/vpskeeper/internal/services"
)

type ServerHandler struct {
	servers  *services.ServerService
	billing  *services.BillingService
	settings *services.SettingsService
	notifier *notify.TelegramSender
}

func NewServerHandler(servers *services.ServerService, billing *services.BillingService, settings *services.SettingsService, notifier *notify.TelegramSender) *ServerHandler {
	return &ServerHandler{servers: servers, billing: billing, settings: settings, notifier: notifier}
}

func (h *ServerHandler) ListServers(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)

	opts := services.ListOptions{
		OwnerTelegramID: claims.TelegramID,
		Page:            c.QueryInt("page", 1),
		PageSize:        c.QueryInt("page_size", 5),
		Scope:           services.SearchScope(c.Query("scope", string(services.ScopeAll))),
		Search:          c.Query("search"),
		Role:            c.Query("role"),
		Provider:        c.Query("provider"),
		Tag:             c.Query("tag"),
	}

	servers, total, err := h.servers.ListServers(c.Context(), opts)
	if err != nil {
		slog.Error("Failed to list servers", "error", err)
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"servers": servers,
		"total":   total,
		"page":    opts.Page,
	})
}

func (h *ServerHandler) CreateServer(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)

	var req struct {
		Name        string   `json:"name"`
		Role        string   `json:"role"`
		Provider    string   `json:"provider"`
		IP4         string   `json:"ip4"`
		IP6         string   `json:"ip6"`
		Domain      string   `json:"domain"`
		SSHPort     int      `json:"ssh_port"`
		SSHUser     string   `json:"ssh_user"`
		SecretType  string   `json:"secret_type"`
		SecretValue string   `json:"secret_value"`
		Tags        []string `json:"tags"`
		Notes       string   `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	server, err := h.servers.CreateServer(c.Context(), services.ServerInput{
		OwnerTelegramID: claims.TelegramID,
		Name:            req.Name,
		Role:            models.ServerRole(req.Role),
		Provider:        req.Provider,
		IP4:             req.IP4,
		IP6:             req.IP6,
		Domain:          req.Domain,
		SSHPort:         req.SSHPort,
		SSHUser:         req.SSHUser,
		SecretType:      models.SecretType(req.SecretType),
		SecretValue:     req.SecretValue,
		Tags:            req.Tags,
		Notes:           req.Notes,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(server)
}

// GetServer returns one server with its nearest future billing record, or
// the latest known one when nothing is due.
func (h *ServerHandler) GetServer(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)

	server, err := h.servers.GetServer(c.Context(), claims.TelegramID, c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}

	nearest, err := h.billing.NearestBillingForServer(c.Context(), server.ID)
	if err != nil {
		slog.Error("Failed to load nearest billing", "server", server.Name, "error", err)
		return serviceError(c, err)
	}

	resp := fiber.Map{"server": server, "nearest_billing": nearest}
	if nearest == nil {
		latest, err := h.billing.LatestBillingForServer(c.Context(), server.ID)
		if err != nil {
			return serviceError(c, err)
		}
		resp["latest_billing"] = latest
	}
	return c.JSON(resp)
}

func (h *ServerHandler) ToggleArchive(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)
	server, err := h.servers.ToggleArchive(c.Context(), claims.TelegramID, c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(server)
}

func (h *ServerHandler) ToggleFavorite(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)
	server, err := h.servers.ToggleFavorite(c.Context(), claims.TelegramID, c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(server)
}

func (h *ServerHandler) UpdateNotes(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)

	var req struct {
		Notes    string   `json:"notes"`
		CPULoad  *float64 `json:"cpu_load"`
		RAMLoad  *float64 `json:"ram_load"`
		DiskLoad *float64 `json:"disk_load"`
		NetNotes *string  `json:"net_notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	err := h.servers.UpdateNotes(c.Context(), claims.TelegramID, c.Params("id"),
		req.Notes, req.CPULoad, req.RAMLoad, req.DiskLoad, req.NetNotes)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"updated": true})
}

func (h *ServerHandler) SetSecret(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)

	var req struct {
		SecretType  string `json:"secret_type"`
		SecretValue string `json:"secret_value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	err := h.servers.SetSecret(c.Context(), claims.TelegramID, c.Params("id"),
		models.SecretType(req.SecretType), req.SecretValue)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"updated": true})
}

// RevealSecret decrypts and returns the secret. When a Telegram sender is
// configured, the secret is also pushed to the owner's chat as a message
// that self-deletes after the configured TTL.
func (h *ServerHandler) RevealSecret(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)

	secret, ok, err := h.servers.RevealSecret(c.Context(), claims.TelegramID, c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "No secret set for this server",
		})
	}

	ttl := h.settings.GetSecretTTL(c.Context())
	if h.notifier != nil {
		text := fmt.Sprintf("🔐 Secret:\n%s", secret)
		if err := h.notifier.SendTemporary(c.Context(), claims.TelegramID, text, time.Duration(ttl)*time.Second); err != nil {
			slog.Error("Failed to send secret to chat", "error", err)
		}
	}

	return c.JSON(fiber.Map{
		"secret":      secret,
		"ttl_seconds": ttl,
	})
}

func (h *ServerHandler) DeleteServer(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)
	if err := h.servers.DeleteServer(c.Context(), claims.TelegramID, c.Params("id")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}
