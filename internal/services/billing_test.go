package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpskeeper/vpskeeper/internal/models"
	"gorm.io/gorm"
)

func TestAddBillingValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db, clockAt(t, "2026-03-01"))
	server := seedServer(t, db, 100, "alpha", models.StatusActive)
	ctx := context.Background()

	t.Run("expiry before payment rejected", func(t *testing.T) {
		_, err := svc.AddBilling(ctx, 100, BillingInput{
			ServerID:    server.ID.String(),
			PaidAt:      mustDate(t, "2026-03-01"),
			ExpiresAt:   mustDate(t, "2026-02-01"),
			PriceAmount: 500,
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		_, err := svc.AddBilling(ctx, 100, BillingInput{
			ServerID:    server.ID.String(),
			PaidAt:      mustDate(t, "2026-03-01"),
			ExpiresAt:   mustDate(t, "2026-04-01"),
			PriceAmount: -1,
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("currency upper-cased and defaults applied", func(t *testing.T) {
		billing, err := svc.AddBilling(ctx, 100, BillingInput{
			ServerID:      server.ID.String(),
			PaidAt:        mustDate(t, "2026-03-01"),
			ExpiresAt:     mustDate(t, "2026-04-01"),
			PriceAmount:   1050,
			PriceCurrency: "  eur ",
		})
		require.NoError(t, err)
		assert.Equal(t, "EUR", billing.PriceCurrency)
		assert.Equal(t, "1m", billing.Period)
	})

	t.Run("empty currency defaults to RUB", func(t *testing.T) {
		billing, err := svc.AddBilling(ctx, 100, BillingInput{
			ServerID:    server.ID.String(),
			PaidAt:      mustDate(t, "2026-03-01"),
			ExpiresAt:   mustDate(t, "2026-04-01"),
			PriceAmount: 0,
		})
		require.NoError(t, err)
		assert.Equal(t, "RUB", billing.PriceCurrency)
	})
}

func TestAddBillingOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db, clockAt(t, "2026-03-01"))
	server := seedServer(t, db, 100, "alpha", models.StatusActive)
	ctx := context.Background()

	input := BillingInput{
		ServerID:    server.ID.String(),
		PaidAt:      mustDate(t, "2026-03-01"),
		ExpiresAt:   mustDate(t, "2026-04-01"),
		PriceAmount: 500,
	}

	// Another owner's server and a garbage id look identical: not found.
	_, err := svc.AddBilling(ctx, 999, input)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	input.ServerID = "not-a-uuid"
	_, err = svc.AddBilling(ctx, 100, input)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListExpiringWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db, clockAt(t, "2026-03-01"))
	ctx := context.Background()

	alpha := seedServer(t, db, 100, "alpha", models.StatusActive)
	bravo := seedServer(t, db, 100, "bravo", models.StatusActive)
	archived := seedServer(t, db, 100, "charlie", models.StatusArchived)
	foreign := seedServer(t, db, 999, "delta", models.StatusActive)

	seedBilling(t, db, alpha.ID, "2026-02-01", "2026-03-01", 1000, "RUB") // today, included
	seedBilling(t, db, alpha.ID, "2026-02-01", "2026-03-08", 1000, "RUB") // +7, included
	seedBilling(t, db, bravo.ID, "2026-02-01", "2026-03-04", 2000, "RUB") // +3, included
	seedBilling(t, db, bravo.ID, "2026-02-01", "2026-03-09", 2000, "RUB") // +8, outside
	seedBilling(t, db, bravo.ID, "2026-01-01", "2026-02-28", 2000, "RUB") // expired yesterday
	seedBilling(t, db, archived.ID, "2026-02-01", "2026-03-03", 500, "RUB")
	seedBilling(t, db, foreign.ID, "2026-02-01", "2026-03-03", 500, "RUB")

	got, err := svc.ListExpiring(ctx, 100, 7)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Soonest first, with the computed day delta.
	assert.Equal(t, 0, got[0].DaysLeft)
	assert.Equal(t, "alpha", got[0].Server.Name)
	assert.Equal(t, 3, got[1].DaysLeft)
	assert.Equal(t, "bravo", got[1].Server.Name)
	assert.Equal(t, 7, got[2].DaysLeft)
	assert.Equal(t, "alpha", got[2].Server.Name)
}

func TestNearestAndLatestBilling(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db, clockAt(t, "2026-03-01"))
	ctx := context.Background()

	server := seedServer(t, db, 100, "alpha", models.StatusActive)

	// Renewed early: the later-created record expires sooner.
	old := models.Billing{
		ServerID:      server.ID,
		PaidAt:        mustDate(t, "2026-01-01"),
		ExpiresAt:     mustDate(t, "2026-05-01"),
		PriceAmount:   1000,
		PriceCurrency: "RUB",
		Period:        "1m",
		CreatedAt:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&old).Error)
	renewal := models.Billing{
		ServerID:      server.ID,
		PaidAt:        mustDate(t, "2026-02-20"),
		ExpiresAt:     mustDate(t, "2026-03-10"),
		PriceAmount:   1000,
		PriceCurrency: "RUB",
		Period:        "1m",
		CreatedAt:     time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&renewal).Error)

	nearest, err := svc.NearestBillingForServer(ctx, server.ID)
	require.NoError(t, err)
	require.NotNil(t, nearest)
	assert.Equal(t, renewal.ID, nearest.ID)

	latest, err := svc.LatestBillingForServer(ctx, server.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, renewal.ID, latest.ID)

	// A server with only expired records has no nearest, but still a latest.
	stale := seedServer(t, db, 100, "stale", models.StatusActive)
	seedBilling(t, db, stale.ID, "2026-01-01", "2026-02-01", 1000, "RUB")

	nearest, err = svc.NearestBillingForServer(ctx, stale.ID)
	require.NoError(t, err)
	assert.Nil(t, nearest)

	latest, err = svc.LatestBillingForServer(ctx, stale.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)

	// No records at all: both nil, no error.
	empty := seedServer(t, db, 100, "empty", models.StatusActive)
	nearest, err = svc.NearestBillingForServer(ctx, empty.ID)
	require.NoError(t, err)
	assert.Nil(t, nearest)
	latest, err = svc.LatestBillingForServer(ctx, empty.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestMonthlySummary(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db, clockAt(t, "2026-02-10"))
	ctx := context.Background()

	server := seedServer(t, db, 100, "alpha", models.StatusActive)
	foreign := seedServer(t, db, 999, "delta", models.StatusActive)

	seedBilling(t, db, server.ID, "2026-02-01", "2026-03-01", 1000, "EUR")
	seedBilling(t, db, server.ID, "2026-02-20", "2026-03-20", 1550, "EUR")
	seedBilling(t, db, server.ID, "2026-02-05", "2026-03-05", 500, "USD")
	seedBilling(t, db, server.ID, "2026-01-31", "2026-02-28", 9900, "EUR") // previous month
	seedBilling(t, db, server.ID, "2026-03-01", "2026-04-01", 9900, "EUR") // next month
	seedBilling(t, db, foreign.ID, "2026-02-05", "2026-03-05", 9900, "EUR")

	summary, err := svc.MonthlySummary(ctx, 100, mustDate(t, "2026-02-10"))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"EUR": 2550, "USD": 500}, summary)
}

func TestMonthlySummaryYearBoundary(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db, clockAt(t, "2025-12-15"))
	ctx := context.Background()

	server := seedServer(t, db, 100, "alpha", models.StatusActive)
	seedBilling(t, db, server.ID, "2025-12-31", "2026-01-31", 700, "RUB")
	seedBilling(t, db, server.ID, "2026-01-01", "2026-02-01", 9900, "RUB")

	summary, err := svc.MonthlySummary(ctx, 100, mustDate(t, "2025-12-15"))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"RUB": 700}, summary)
}

func TestDueNotificationsExactOffsets(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db, clockAt(t, "2026-03-01"))
	ctx := context.Background()

	at7 := seedServer(t, db, 100, "at7", models.StatusActive)
	at6 := seedServer(t, db, 100, "at6", models.StatusActive)
	at8 := seedServer(t, db, 100, "at8", models.StatusActive)

	seedBilling(t, db, at7.ID, "2026-02-01", "2026-03-08", 1000, "RUB")
	seedBilling(t, db, at6.ID, "2026-02-01", "2026-03-07", 1000, "RUB")
	seedBilling(t, db, at8.ID, "2026-02-01", "2026-03-09", 1000, "RUB")

	due, err := svc.DueNotifications(ctx, []int{14, 7, 3, 1})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "at7", due[0].Server.Name)
	assert.Equal(t, 7, due[0].DaysLeft)
}

func TestDueNotificationsNearestRecordOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db, clockAt(t, "2026-03-01"))
	ctx := context.Background()

	// Nearest record is due in 2 days (no threshold); the record at +7
	// behind it must not fire on its behalf.
	masked := seedServer(t, db, 100, "masked", models.StatusActive)
	seedBilling(t, db, masked.ID, "2026-02-01", "2026-03-03", 1000, "RUB")
	seedBilling(t, db, masked.ID, "2026-02-01", "2026-03-08", 1000, "RUB")

	// Nearest record itself sits on a threshold.
	firing := seedServer(t, db, 100, "firing", models.StatusActive)
	seedBilling(t, db, firing.ID, "2026-02-01", "2026-03-04", 2000, "RUB")
	seedBilling(t, db, firing.ID, "2026-02-01", "2026-06-01", 2000, "RUB")

	due, err := svc.DueNotifications(ctx, ReminderOffsets)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "firing", due[0].Server.Name)
	assert.Equal(t, 3, due[0].DaysLeft)
}

func TestDueNotificationsSkipsArchived(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db, clockAt(t, "2026-03-01"))
	ctx := context.Background()

	archived := seedServer(t, db, 100, "archived", models.StatusArchived)
	seedBilling(t, db, archived.ID, "2026-02-01", "2026-03-08", 1000, "RUB")

	due, err := svc.DueNotifications(ctx, ReminderOffsets)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDueNotificationsNoOffsets(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db, clockAt(t, "2026-03-01"))

	due, err := svc.DueNotifications(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestListServerBillingsOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewBillingService(db, clockAt(t, "2026-03-01"))
	ctx := context.Background()

	server := seedServer(t, db, 100, "alpha", models.StatusActive)
	seedBilling(t, db, server.ID, "2026-01-01", "2026-02-01", 1000, "RUB")
	seedBilling(t, db, server.ID, "2026-02-01", "2026-03-01", 1000, "RUB")

	history, err := svc.ListServerBillings(ctx, 100, server.ID.String())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].ExpiresAt.After(history[1].ExpiresAt))

	_, err = svc.ListServerBillings(ctx, 999, server.ID.String())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = svc.ListServerBillings(ctx, 100, uuid.NewString())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	to := time.Date(2026, 3, 8, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 7, daysBetween(from, to))
	assert.Equal(t, -7, daysBetween(to, from))
	assert.Equal(t, 0, daysBetween(from, from))
}
