package models

import (
	"time"

	"github.com/google/uuid"
)

// Billing is one payment record for a server. PriceAmount is stored in
// minor units (cents), never floating point. Multiple records per server
// form the payment history; the "current" record is derived at query time.
type Billing struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ServerID      uuid.UUID `gorm:"type:uuid;not null;index" json:"server_id"`
	PaidAt        time.Time `gorm:"type:date;not null" json:"paid_at"`
	ExpiresAt     time.Time `gorm:"type:date;not null;index" json:"expires_at"`
	PriceAmount   int64     `gorm:"not null;check:price_amount >= 0" json:"price_amount"`
	PriceCurrency string    `gorm:"size:10;not null;default:'RUB'" json:"price_currency"`
	Period        string    `gorm:"size:20;not null;default:'1m'" json:"period"`
	Comment       *string   `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	Server Server `gorm:"foreignKey:ServerID" json:"-"`
}
