package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/vpskeeper/vpskeeper/internal/middleware"
	"github.com/vpskeeper/vpskeeper/internal/models"
	"github.com/vpskeeper/vpskeeper/internal/services"
)

type ManualHandler struct {
	manuals *services.ManualService
}

func NewManualHandler(manuals *services.ManualService) *ManualHandler {
	return &ManualHandler{manuals: manuals}
}

type manualRequest struct {
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	BodyMarkdown string   `json:"body_markdown"`
}

func (h *ManualHandler) CreateManual(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)

	var req manualRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	manual, err := h.manuals.CreateManual(c.Context(), services.ManualInput{
		OwnerTelegramID: claims.TelegramID,
		Title:           req.Title,
		Category:        models.ManualCategory(req.Category),
		Tags:            req.Tags,
		BodyMarkdown:    req.BodyMarkdown,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(manual)
}

func (h *ManualHandler) ListManuals(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)

	manuals, err := h.manuals.ListManuals(c.Context(), claims.TelegramID,
		models.ManualCategory(c.Query("category")))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"manuals": manuals})
}

func (h *ManualHandler) CategoryCounts(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)

	counts, err := h.manuals.CategoryCounts(c.Context(), claims.TelegramID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"categories": counts})
}

func (h *ManualHandler) SearchManuals(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Query parameter q is required",
		})
	}

	manuals, err := h.manuals.SearchManuals(c.Context(), claims.TelegramID, query)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"manuals": manuals})
}

func (h *ManualHandler) GetManual(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid manual ID",
		})
	}

	manual, err := h.manuals.GetManual(c.Context(), claims.TelegramID, uint(id))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(manual)
}

// GetCommands extracts the fenced code blocks from a manual body.
func (h *ManualHandler) GetCommands(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid manual ID",
		})
	}

	manual, err := h.manuals.GetManual(c.Context(), claims.TelegramID, uint(id))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"commands": services.ExtractCommands(manual.BodyMarkdown)})
}

func (h *ManualHandler) UpdateManual(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid manual ID",
		})
	}

	var req manualRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	err = h.manuals.UpdateManual(c.Context(), uint(id), services.ManualInput{
		OwnerTelegramID: claims.TelegramID,
		Title:           req.Title,
		Category:        models.ManualCategory(req.Category),
		Tags:            req.Tags,
		BodyMarkdown:    req.BodyMarkdown,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"updated": true})
}

func (h *ManualHandler) DeleteManual(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid manual ID",
		})
	}

	removed, err := h.manuals.DeleteManual(c.Context(), claims.TelegramID, uint(id))
	if err != nil {
		return serviceError(c, err)
	}
	if !removed {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Not found",
		})
	}
	return c.JSON(fiber.Map{"deleted": true})
}
