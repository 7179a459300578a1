package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vpskeeper/vpskeeper/internal/middleware"
	"github.com/vpskeeper/vpskeeper/internal/money"
	"github.com/vpskeeper/vpskeeper/internal/services"
)

type BillingHandler struct {
	billing *services.BillingService
	clock   services.Clock
}

func NewBillingHandler(billing *services.BillingService, clock services.Clock) *BillingHandler {
	return &BillingHandler{billing: billing, clock: clock}
}

func (h *BillingHandler) AddBilling(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)

	var req struct {
		PaidAt    string `json:"paid_at"`    // YYYY-MM-DD
		ExpiresAt string `json:"expires_at"` // YYYY-MM-DD
		Amount    string `json:"amount"`     // "10.50"
		Currency  string `json:"currency"`
		Period    string `json:"period"`
		Comment   string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	paidAt, err := time.Parse("2006-01-02", req.PaidAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "paid_at must be YYYY-MM-DD",
		})
	}
	expiresAt, err := time.Parse("2006-01-02", req.ExpiresAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "expires_at must be YYYY-MM-DD",
		})
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid amount",
		})
	}

	billing, err := h.billing.AddBilling(c.Context(), claims.TelegramID, services.BillingInput{
		ServerID:      c.Params("id"),
		PaidAt:        paidAt,
		ExpiresAt:     expiresAt,
		PriceAmount:   amount,
		PriceCurrency: req.Currency,
		Period:        req.Period,
		Comment:       req.Comment,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(billing)
}

func (h *BillingHandler) ListServerBillings(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)

	billings, err := h.billing.ListServerBillings(c.Context(), claims.TelegramID, c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"billings": billings})
}

// ListExpiring returns (server, billing, days left) triples inside the
// requested window, soonest first.
func (h *BillingHandler) ListExpiring(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)
	days := c.QueryInt("days", 7)
	if days < 0 || days > 365 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "days must be 0..365",
		})
	}

	expiring, err := h.billing.ListExpiring(c.Context(), claims.TelegramID, days)
	if err != nil {
		slog.Error("Failed to list expiring billings", "error", err)
		return serviceError(c, err)
	}

	items := make([]fiber.Map, 0, len(expiring))
	for _, e := range expiring {
		items = append(items, fiber.Map{
			"server":    e.Server,
			"billing":   e.Billing,
			"days_left": e.DaysLeft,
		})
	}
	return c.JSON(fiber.Map{"expiring": items})
}

// MonthlySummary sums the month's payments grouped by currency. The month
// defaults to the current one, or comes from ?month=YYYY-MM.
func (h *BillingHandler) MonthlySummary(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)

	ref := h.clock.Now().UTC()
	if m := c.Query("month"); m != "" {
		parsed, err := time.Parse("2006-01", m)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "month must be YYYY-MM",
			})
		}
		ref = parsed
	}

	summary, err := h.billing.MonthlySummary(c.Context(), claims.TelegramID, ref)
	if err != nil {
		return serviceError(c, err)
	}

	totals := make(map[string]string, len(summary))
	for currency, amount := range summary {
		totals[currency] = money.Format(amount)
	}
	return c.JSON(fiber.Map{
		"month":  ref.Format("2006-01"),
		"totals": totals,
	})
}
