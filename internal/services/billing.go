package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vpskeeper/vpskeeper/internal/models"
	"gorm.io/gorm"
)

// BillingInput is a new payment record before validation. PriceAmount is
// in minor units.
type BillingInput struct {
	ServerID      string
	PaidAt        time.Time
	ExpiresAt     time.Time
	PriceAmount   int64
	PriceCurrency string
	Period        string
	Comment       string
}

func (in *BillingInput) validate() error {
	paid, expires := dateOnly(in.PaidAt), dateOnly(in.ExpiresAt)
	if expires.Before(paid) {
		return validationErrorf("expiry date cannot be before payment date")
	}
	if in.PriceAmount < 0 {
		return validationErrorf("amount cannot be negative")
	}

	in.PriceCurrency = strings.ToUpper(strings.TrimSpace(in.PriceCurrency))
	if in.PriceCurrency == "" {
		in.PriceCurrency = "RUB"
	}
	if len(in.PriceCurrency) < 3 || len(in.PriceCurrency) > 10 {
		return validationErrorf("currency code must be 3..10 characters")
	}

	in.Period = strings.TrimSpace(in.Period)
	if in.Period == "" {
		in.Period = "1m"
	}
	if len(in.Period) > 20 {
		return validationErrorf("period label too long")
	}

	in.PaidAt, in.ExpiresAt = paid, expires
	return nil
}

// ExpiringBilling is one (server, billing, days remaining) match returned
// by the window and due-notification queries.
type ExpiringBilling struct {
	Server   models.Server
	Billing  models.Billing
	DaysLeft int
}

type BillingService struct {
	db    *gorm.DB
	clock Clock
}

func NewBillingService(db *gorm.DB, clock Clock) *BillingService {
	return &BillingService{db: db, clock: clock}
}

// AddBilling validates and persists a payment record for a server owned by
// ownerID. Validation runs entirely before the insert.
func (s *BillingService) AddBilling(ctx context.Context, ownerID int64, in BillingInput) (*models.Billing, error) {
	serverID, err := uuid.Parse(in.ServerID)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var server models.Server
	if err := s.db.WithContext(ctx).
		First(&server, "id = ? AND owner_telegram_id = ?", serverID, ownerID).Error; err != nil {
		return nil, err
	}

	billing := models.Billing{
		ServerID:      serverID,
		PaidAt:        in.PaidAt,
		ExpiresAt:     in.ExpiresAt,
		PriceAmount:   in.PriceAmount,
		PriceCurrency: in.PriceCurrency,
		Period:        in.Period,
	}
	if c := strings.TrimSpace(in.Comment); c != "" {
		billing.Comment = &c
	}

	if err := s.db.WithContext(ctx).Create(&billing).Error; err != nil {
		return nil, err
	}
	return &billing, nil
}

// ListExpiring returns the owner's active servers with billing records
// expiring within windowDays of today, soonest first.
func (s *BillingService) ListExpiring(ctx context.Context, ownerID int64, windowDays int) ([]ExpiringBilling, error) {
	today := dateOnly(s.clock.Now())
	end := today.AddDate(0, 0, windowDays)

	ownedActive := s.db.Model(&models.Server{}).Select("id").
		Where("owner_telegram_id = ? AND status = ?", ownerID, models.StatusActive)

	var billings []models.Billing
	err := s.db.WithContext(ctx).
		Preload("Server").
		Where("server_id IN (?)", ownedActive).
		Where("expires_at >= ? AND expires_at <= ?", today, end).
		Order("expires_at ASC, id ASC").
		Find(&billings).Error
	if err != nil {
		return nil, err
	}

	result := make([]ExpiringBilling, 0, len(billings))
	for _, b := range billings {
		result = append(result, ExpiringBilling{
			Server:   b.Server,
			Billing:  b,
			DaysLeft: daysBetween(today, b.ExpiresAt),
		})
	}
	return result, nil
}

// ListServerBillings returns the full payment history of one owned server,
// most recent expiry first.
func (s *BillingService) ListServerBillings(ctx context.Context, ownerID int64, serverID string) ([]models.Billing, error) {
	id, err := uuid.Parse(serverID)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}

	var server models.Server
	if err := s.db.WithContext(ctx).
		Select("id").First(&server, "id = ? AND owner_telegram_id = ?", id, ownerID).Error; err != nil {
		return nil, err
	}

	var billings []models.Billing
	err = s.db.WithContext(ctx).
		Where("server_id = ?", id).
		Order("expires_at DESC, id DESC").
		Find(&billings).Error
	return billings, err
}

// NearestBillingForServer returns the soonest record with expires_at >=
// today, or nil when the server has no future-dated record.
func (s *BillingService) NearestBillingForServer(ctx context.Context, serverID uuid.UUID) (*models.Billing, error) {
	today := dateOnly(s.clock.Now())

	var billing models.Billing
	err := s.db.WithContext(ctx).
		Where("server_id = ? AND expires_at >= ?", serverID, today).
		Order("expires_at ASC, id ASC").
		First(&billing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &billing, nil
}

// LatestBillingForServer returns the most recently created record
// regardless of expiry, or nil when the server has none. This answers
// "most current known state", which is a different question from "next
// thing due".
func (s *BillingService) LatestBillingForServer(ctx context.Context, serverID uuid.UUID) (*models.Billing, error) {
	var billing models.Billing
	err := s.db.WithContext(ctx).
		Where("server_id = ?", serverID).
		Order("created_at DESC, id DESC").
		First(&billing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &billing, nil
}

// MonthlySummary sums amounts (minor units) by currency over records whose
// paid_at falls inside the calendar month of ref, for servers owned by
// ownerID.
func (s *BillingService) MonthlySummary(ctx context.Context, ownerID int64, ref time.Time) (map[string]int64, error) {
	ref = dateOnly(ref)
	monthStart := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	owned := s.db.Model(&models.Server{}).Select("id").
		Where("owner_telegram_id = ?", ownerID)

	var rows []struct {
		PriceCurrency string
		Total         int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Billing{}).
		Select("price_currency, SUM(price_amount) AS total").
		Where("server_id IN (?)", owned).
		Where("paid_at >= ? AND paid_at < ?", monthStart, nextMonth).
		Group("price_currency").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := make(map[string]int64, len(rows))
	for _, r := range rows {
		summary[r.PriceCurrency] = r.Total
	}
	return summary, nil
}

// DueNotifications returns, across all owners, every active server whose
// nearest future billing record is due in exactly one of the given
// day offsets. Exact match only: a record due in 10 days does not match
// offset 7, it will when it reaches 7.
func (s *BillingService) DueNotifications(ctx context.Context, dayOffsets []int) ([]ExpiringBilling, error) {
	if len(dayOffsets) == 0 {
		return nil, nil
	}
	maxOffset := dayOffsets[0]
	for _, d := range dayOffsets[1:] {
		if d > maxOffset {
			maxOffset = d
		}
	}

	today := dateOnly(s.clock.Now())
	limit := today.AddDate(0, 0, maxOffset)

	active := s.db.Model(&models.Server{}).Select("id").
		Where("status = ?", models.StatusActive)

	var billings []models.Billing
	err := s.db.WithContext(ctx).
		Preload("Server").
		Where("server_id IN (?)", active).
		Where("expires_at >= ? AND expires_at <= ?", today, limit).
		Order("expires_at ASC, id ASC").
		Find(&billings).Error
	if err != nil {
		return nil, err
	}

	// Nearest record per server: rows arrive sorted by expiry, so the
	// first one seen wins.
	nearest := make(map[uuid.UUID]models.Billing)
	order := make([]uuid.UUID, 0, len(billings))
	for _, b := range billings {
		if _, seen := nearest[b.ServerID]; !seen {
			nearest[b.ServerID] = b
			order = append(order, b.ServerID)
		}
	}

	offsets := make(map[int]bool, len(dayOffsets))
	for _, d := range dayOffsets {
		offsets[d] = true
	}

	var due []ExpiringBilling
	for _, serverID := range order {
		b := nearest[serverID]
		delta := daysBetween(today, b.ExpiresAt)
		if offsets[delta] {
			due = append(due, ExpiringBilling{Server: b.Server, Billing: b, DaysLeft: delta})
		}
	}
	return due, nil
}
