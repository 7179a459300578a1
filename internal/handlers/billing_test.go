package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpskeeper/vpskeeper/internal/middleware"
	"github.com/vpskeeper/vpskeeper/internal/models"
	"github.com/vpskeeper/vpskeeper/internal/services"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubClock struct {
	now time.Time
}

func (c stubClock) Now() time.Time { return c.now }

func billingApp(t *testing.T, clock services.Clock) *fiber.App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Server{}, &models.Billing{}))

	h := NewBillingHandler(services.NewBillingService(db, clock), clock)

	app := fiber.New()
	app.Get("/api/billing/summary", func(c *fiber.Ctx) error {
		c.Locals("claims", &middleware.Claims{TelegramID: 100})
		return c.Next()
	}, h.MonthlySummary)
	return app
}

func TestMonthlySummaryDefaultsToClockMonth(t *testing.T) {
	// The default reference month must come from the injected clock, not
	// the wall clock.
	clock := stubClock{now: time.Date(2001, 7, 15, 12, 0, 0, 0, time.UTC)}
	app := billingApp(t, clock)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/billing/summary", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Month string `json:"month"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "2001-07", body.Month)
}

func TestMonthlySummaryExplicitMonth(t *testing.T) {
	clock := stubClock{now: time.Date(2001, 7, 15, 12, 0, 0, 0, time.UTC)}
	app := billingApp(t, clock)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/billing/summary?month=2026-02", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Month string `json:"month"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "2026-02", body.Month)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/billing/summary?month=February", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
