package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/vpskeeper/vpskeeper/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const secretTTLKey = "secret_ttl_seconds"

const (
	minSecretTTL = 10
	maxSecretTTL = 300
)

// SettingsService persists runtime-tunable settings, currently just the
// secret display TTL.
type SettingsService struct {
	db         *gorm.DB
	defaultTTL int
}

func NewSettingsService(db *gorm.DB, defaultTTL int) *SettingsService {
	return &SettingsService{db: db, defaultTTL: defaultTTL}
}

// GetSecretTTL returns the persisted TTL, falling back to the configured
// default when the setting is absent, malformed or out of range.
func (s *SettingsService) GetSecretTTL(ctx context.Context) int {
	var setting models.AppSetting
	err := s.db.WithContext(ctx).First(&setting, "key = ?", secretTTLKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.defaultTTL
	}
	if err != nil {
		return s.defaultTTL
	}
	ttl, err := strconv.Atoi(setting.Value)
	if err != nil || ttl < minSecretTTL || ttl > maxSecretTTL {
		return s.defaultTTL
	}
	return ttl
}

// SetSecretTTL stores a TTL override, enforcing the same 10..300 range as
// the config.
func (s *SettingsService) SetSecretTTL(ctx context.Context, ttlSeconds int) error {
	if ttlSeconds < minSecretTTL || ttlSeconds > maxSecretTTL {
		return validationErrorf("ttl must be in range 10..300 seconds")
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&models.AppSetting{Key: secretTTLKey, Value: strconv.Itoa(ttlSeconds)}).Error
}
