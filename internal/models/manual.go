package models

import "time"

type ManualCategory string

const (
	CategoryInstall      ManualCategory = "install"
	CategoryTroubleshoot ManualCategory = "troubleshoot"
	CategoryUpgrade      ManualCategory = "upgrade"
	CategoryOther        ManualCategory = "other"
)

// Manual is a runbook-style markdown article in the knowledge base.
type Manual struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	OwnerTelegramID int64          `gorm:"not null;index" json:"owner_telegram_id"`
	Title           string         `gorm:"size:200;not null;index" json:"title"`
	Category        ManualCategory `gorm:"size:20;not null;default:'other'" json:"category"`
	BodyMarkdown    string         `gorm:"type:text;not null" json:"body_markdown"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	Tags []ManualTag `gorm:"constraint:OnDelete:CASCADE" json:"tags,omitempty"`
}

type ManualTag struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	ManualID uint   `gorm:"not null;uniqueIndex:uq_manual_tag,priority:1" json:"-"`
	Tag      string `gorm:"size:50;not null;index;uniqueIndex:uq_manual_tag,priority:2" json:"tag"`
}
