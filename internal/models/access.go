package models

import "time"

// AccessUser is one whitelist entry. Everything in the API is gated on
// membership; admins additionally receive expiry reminders.
type AccessUser struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TelegramID int64     `gorm:"not null;uniqueIndex" json:"telegram_id"`
	IsAdmin    bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
}
