package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vpskeeper/vpskeeper/internal/crypto"
	"github.com/vpskeeper/vpskeeper/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testMasterKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// fixedClock pins "now" so day-delta assertions are stable.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func clockAt(t *testing.T, date string) fixedClock {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	return fixedClock{now: parsed}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(
		&models.AccessUser{},
		&models.AppSetting{},
		&models.Server{},
		&models.ServerTag{},
		&models.Billing{},
		&models.Manual{},
		&models.ManualTag{},
		&models.NotificationLog{},
	))
	return db
}

func newTestEncryptor(t *testing.T) *crypto.Encryptor {
	t.Helper()
	enc, err := crypto.NewEncryptor(testMasterKey)
	require.NoError(t, err)
	return enc
}

func mustDate(t *testing.T, date string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	return parsed
}

func seedServer(t *testing.T, db *gorm.DB, ownerID int64, name string, status models.ServerStatus) models.Server {
	t.Helper()
	server := models.Server{
		ID:              uuid.New(),
		OwnerTelegramID: ownerID,
		Name:            name,
		Role:            models.RoleOther,
		Provider:        "hetzner",
		IP4:             "203.0.113.10",
		SSHPort:         22,
		SSHUser:         "root",
		SecretType:      models.SecretNone,
		Status:          status,
	}
	require.NoError(t, db.Create(&server).Error)
	return server
}

func seedBilling(t *testing.T, db *gorm.DB, serverID uuid.UUID, paid, expires string, amount int64, currency string) models.Billing {
	t.Helper()
	billing := models.Billing{
		ServerID:      serverID,
		PaidAt:        mustDate(t, paid),
		ExpiresAt:     mustDate(t, expires),
		PriceAmount:   amount,
		PriceCurrency: currency,
		Period:        "1m",
	}
	require.NoError(t, db.Create(&billing).Error)
	return billing
}
