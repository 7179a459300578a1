package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vpskeeper/vpskeeper/internal/services"
)

// AccessHandler manages the whitelist. All routes are admin-only.
type AccessHandler struct {
	access *services.AccessService
}

func NewAccessHandler(access *services.AccessService) *AccessHandler {
	return &AccessHandler{access: access}
}

func (h *AccessHandler) ListWhitelist(c *fiber.Ctx) error {
	users, err := h.access.ListWhitelist(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *AccessHandler) AddToWhitelist(c *fiber.Ctx) error {
	var req struct {
		TelegramID int64 `json:"telegram_id"`
		IsAdmin    bool  `json:"is_admin"`
	}
	if err := c.BodyParser(&req); err != nil || req.TelegramID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "telegram_id is required",
		})
	}

	if err := h.access.AddToWhitelist(c.Context(), req.TelegramID, req.IsAdmin); err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"added": true})
}

func (h *AccessHandler) RemoveFromWhitelist(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid telegram ID",
		})
	}

	removed, err := h.access.RemoveFromWhitelist(c.Context(), int64(id))
	if err != nil {
		return serviceError(c, err)
	}
	if !removed {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Not found",
		})
	}
	return c.JSON(fiber.Map{"removed": true})
}
