package models

import (
	"time"

	"github.com/google/uuid"
)

type ServerRole string

const (
	RoleBridge   ServerRole = "bridge"
	RoleXrayEdge ServerRole = "xray-edge"
	RolePanel    ServerRole = "panel"
	RoleDB       ServerRole = "db"
	RoleTest     ServerRole = "test"
	RoleOther    ServerRole = "other"
)

type SecretType string

const (
	SecretNone       SecretType = "none"
	SecretPassword   SecretType = "password"
	SecretPrivateKey SecretType = "private_key"
)

type ServerStatus string

const (
	StatusActive   ServerStatus = "active"
	StatusArchived ServerStatus = "archived"
)

// Server is an inventory record for one VPS. SecretEncrypted holds the
// AEAD token for the SSH secret; it is set iff SecretType != none and is
// never the plaintext.
type Server struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerTelegramID int64        `gorm:"not null;index;uniqueIndex:uq_server_owner_name,priority:1" json:"owner_telegram_id"`
	Name            string       `gorm:"size:100;not null;uniqueIndex:uq_server_owner_name,priority:2" json:"name"`
	Role            ServerRole   `gorm:"size:20;not null" json:"role"`
	Provider        string       `gorm:"size:100;default:''" json:"provider"`
	IP4             string       `gorm:"size:45;not null" json:"ip4"`
	IP6             *string      `gorm:"size:100" json:"ip6,omitempty"`
	Domain          *string      `gorm:"size:255" json:"domain,omitempty"`
	SSHPort         int          `gorm:"default:22" json:"ssh_port"`
	SSHUser         string       `gorm:"size:100;not null" json:"ssh_user"`
	SecretType      SecretType   `gorm:"size:20;not null;default:'none'" json:"secret_type"`
	SecretEncrypted string       `gorm:"type:text" json:"-"`
	Notes           string       `gorm:"type:text;default:''" json:"notes"`
	IsFavorite      bool         `gorm:"default:false" json:"is_favorite"`
	Status          ServerStatus `gorm:"size:20;not null;default:'active'" json:"status"`
	CPULoad         *float64     `json:"cpu_load,omitempty"`
	RAMLoad         *float64     `json:"ram_load,omitempty"`
	DiskLoad        *float64     `json:"disk_load,omitempty"`
	NetNotes        *string      `gorm:"type:text" json:"net_notes,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	Tags     []ServerTag `gorm:"constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	Billings []Billing   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type ServerTag struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	ServerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_server_tag,priority:1" json:"-"`
	Tag      string    `gorm:"size:50;not null;index;uniqueIndex:uq_server_tag,priority:2" json:"tag"`
}
