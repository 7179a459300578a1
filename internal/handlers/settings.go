package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vpskeeper/vpskeeper/internal/services"
)

type SettingsHandler struct {
	settings *services.SettingsService
}

func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) GetSecretTTL(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"secret_ttl_seconds": h.settings.GetSecretTTL(c.Context())})
}

func (h *SettingsHandler) SetSecretTTL(c *fiber.Ctx) error {
	var req struct {
		SecretTTLSeconds int `json:"secret_ttl_seconds"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	if err := h.settings.SetSecretTTL(c.Context(), req.SecretTTLSeconds); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"secret_ttl_seconds": req.SecretTTLSeconds})
}
