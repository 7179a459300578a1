package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vpskeeper/vpskeeper/internal/middleware"
	"github.com/vpskeeper/vpskeeper/internal/services"
)

type ExportHandler struct {
	exporter *services.ExportService
}

func NewExportHandler(exporter *services.ExportService) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

// Export serves a JSON snapshot of the owner's servers and manuals.
// Secrets are exported as ciphertext only, and only when asked for.
func (h *ExportHandler) Export(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)
	includeSecret := c.QueryBool("include_secret", false)

	bundle, err := h.exporter.ExportUserData(c.Context(), claims.TelegramID, includeSecret)
	if err != nil {
		return serviceError(c, err)
	}

	data, err := bundle.JSON()
	if err != nil {
		return serviceError(c, err)
	}

	c.Set("Content-Type", "application/json")
	c.Set("Content-Disposition", `attachment; filename="vpskeeper-export.json"`)
	return c.Send(data)
}
