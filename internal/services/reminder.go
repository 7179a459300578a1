package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/vpskeeper/vpskeeper/internal/models"
	"github.com/vpskeeper/vpskeeper/internal/money"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReminderOffsets are the day-before thresholds a record fires at, once
// each, as its expiry approaches.
var ReminderOffsets = []int{14, 7, 3, 1}

// Sender delivers one message to one recipient. Failures must be
// reported per call so the scheduler can isolate them.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) (messageID int, err error)
}

// Broadcaster fans a notification event out to connected observers. It
// must never block the scheduler.
type Broadcaster interface {
	Broadcast(event NotificationEvent)
}

// NotificationEvent is the wire form of one delivered reminder tuple.
type NotificationEvent struct {
	ServerID   string `json:"server_id"`
	ServerName string `json:"server_name"`
	IP4        string `json:"ip4"`
	ExpiresAt  string `json:"expires_at"`
	DaysLeft   int    `json:"days_left"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
}

type dueLister interface {
	DueNotifications(ctx context.Context, dayOffsets []int) ([]ExpiringBilling, error)
}

type adminLister interface {
	ListAdmins(ctx context.Context) ([]int64, error)
}

// ReminderService fires the expiry reminder batch once per day at a
// configured UTC hour. Missed days are not backfilled: the exact-offset
// match window for that day is simply gone.
type ReminderService struct {
	db         *gorm.DB
	billing    dueLister
	access     adminLister
	sender     Sender
	events     Broadcaster
	clock      Clock
	notifyHour int
	stop       chan struct{}
}

func NewReminderService(db *gorm.DB, billing dueLister, access adminLister, sender Sender, events Broadcaster, clock Clock, notifyHourUTC int) *ReminderService {
	return &ReminderService{
		db:         db,
		billing:    billing,
		access:     access,
		sender:     sender,
		events:     events,
		clock:      clock,
		notifyHour: notifyHourUTC,
		stop:       make(chan struct{}),
	}
}

func (r *ReminderService) Start() {
	go r.loop()
	slog.Info("Reminder scheduler started", "hour_utc", r.notifyHour)
}

func (r *ReminderService) Stop() {
	close(r.stop)
	slog.Info("Reminder scheduler stopped")
}

func (r *ReminderService) loop() {
	for {
		timer := time.NewTimer(r.untilNextRun())
		select {
		case <-timer.C:
			r.RunOnce(context.Background())
		case <-r.stop:
			timer.Stop()
			return
		}
	}
}

// untilNextRun returns the wait until the next notifyHour:00 UTC
// wall-clock time.
func (r *ReminderService) untilNextRun() time.Duration {
	now := r.clock.Now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), r.notifyHour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// RunOnce executes a single reminder cycle synchronously. Query or
// delivery failures are logged and never abort the rest of the batch;
// the next scheduled firing is the retry.
func (r *ReminderService) RunOnce(ctx context.Context) {
	due, err := r.billing.DueNotifications(ctx, ReminderOffsets)
	if err != nil {
		slog.Error("Reminder query failed", "error", err)
		return
	}
	if len(due) == 0 {
		slog.Info("Reminder cycle: nothing due")
		return
	}

	admins, err := r.access.ListAdmins(ctx)
	if err != nil {
		slog.Error("Reminder recipient lookup failed", "error", err)
		return
	}
	if len(admins) == 0 {
		slog.Warn("Reminder cycle: no admin recipients, skipping delivery")
		return
	}

	events := make([]NotificationEvent, 0, len(due))
	for _, item := range due {
		text := formatReminder(item)
		for _, adminID := range admins {
			if _, err := r.sender.Send(ctx, adminID, text); err != nil {
				slog.Error("Reminder delivery failed",
					"recipient", adminID,
					"server", item.Server.Name,
					"error", err,
				)
			}
		}

		event := NotificationEvent{
			ServerID:   item.Server.ID.String(),
			ServerName: item.Server.Name,
			IP4:        item.Server.IP4,
			ExpiresAt:  item.Billing.ExpiresAt.Format("2006-01-02"),
			DaysLeft:   item.DaysLeft,
			Amount:     money.Format(item.Billing.PriceAmount),
			Currency:   item.Billing.PriceCurrency,
		}
		events = append(events, event)
		if r.events != nil {
			r.events.Broadcast(event)
		}
	}

	r.recordCycle(ctx, events, len(admins))
	slog.Info("Reminder cycle complete", "due", len(due), "recipients", len(admins))
}

// recordCycle stores a best-effort audit row; failure to write it does
// not fail the cycle.
func (r *ReminderService) recordCycle(ctx context.Context, events []NotificationEvent, recipients int) {
	if r.db == nil {
		return
	}
	details, err := json.Marshal(events)
	if err != nil {
		slog.Error("Failed to encode notification log", "error", err)
		return
	}
	log := models.NotificationLog{
		FiredAt:    r.clock.Now().UTC(),
		DueCount:   len(events),
		Recipients: recipients,
		Details:    datatypes.JSON(details),
	}
	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		slog.Error("Failed to save notification log", "error", err)
	}
}

func formatReminder(item ExpiringBilling) string {
	return fmt.Sprintf(
		"⏰ Payment reminder\nServer: %s\nIP: %s\nExpires: %s\nDays left: %d\nAmount: %s %s",
		item.Server.Name,
		item.Server.IP4,
		item.Billing.ExpiresAt.Format("02.01.2006"),
		item.DaysLeft,
		money.Format(item.Billing.PriceAmount),
		item.Billing.PriceCurrency,
	)
}
