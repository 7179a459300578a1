package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationLog records one reminder cycle that delivered something:
// when it fired, how many records were due, how many admins received the
// batch, and a JSON array of the per-server details.
type NotificationLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	FiredAt    time.Time      `gorm:"not null;index" json:"fired_at"`
	DueCount   int            `gorm:"not null" json:"due_count"`
	Recipients int            `gorm:"not null" json:"recipients"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
}
