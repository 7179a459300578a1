package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vpskeeper/vpskeeper/internal/crypto"
	"github.com/vpskeeper/vpskeeper/internal/services"
	"gorm.io/gorm"
)

// serviceError maps service-layer failures onto API responses. Not-owned
// and non-existent both arrive as gorm.ErrRecordNotFound, so the response
// never leaks ownership.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": err.Error(),
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Not found",
		})
	case errors.Is(err, crypto.ErrDecrypt):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to decrypt secret",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Internal error",
		})
	}
}
