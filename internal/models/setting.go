package models

import "time"

// AppSetting is a key/value override persisted across restarts, e.g. the
// secret display TTL.
type AppSetting struct {
	Key       string    `gorm:"size:100;primaryKey" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
