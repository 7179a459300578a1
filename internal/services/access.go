package services

import (
	"context"
	"errors"

	"github.com/vpskeeper/vpskeeper/internal/models"
	"gorm.io/gorm"
)

// AccessService owns the whitelist. Every inbound identity is checked
// against it; the admin flag selects reminder recipients.
type AccessService struct {
	db *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{db: db}
}

// BootstrapAdmin makes sure the configured owner is whitelisted as admin.
// Safe to call on every startup.
func (s *AccessService) BootstrapAdmin(ctx context.Context, telegramID int64) error {
	var user models.AccessUser
	err := s.db.WithContext(ctx).First(&user, "telegram_id = ?", telegramID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).
			Create(&models.AccessUser{TelegramID: telegramID, IsAdmin: true}).Error
	}
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return s.db.WithContext(ctx).
			Model(&user).Update("is_admin", true).Error
	}
	return nil
}

func (s *AccessService) IsAllowed(ctx context.Context, telegramID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.AccessUser{}).
		Where("telegram_id = ?", telegramID).
		Count(&count).Error
	return count > 0, err
}

func (s *AccessService) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.AccessUser{}).
		Where("telegram_id = ? AND is_admin = ?", telegramID, true).
		Count(&count).Error
	return count > 0, err
}

// AddToWhitelist inserts or updates an entry. The admin flag is only ever
// upgraded, never silently revoked.
func (s *AccessService) AddToWhitelist(ctx context.Context, telegramID int64, isAdmin bool) error {
	var existing models.AccessUser
	err := s.db.WithContext(ctx).First(&existing, "telegram_id = ?", telegramID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).
			Create(&models.AccessUser{TelegramID: telegramID, IsAdmin: isAdmin}).Error
	}
	if err != nil {
		return err
	}
	if isAdmin && !existing.IsAdmin {
		return s.db.WithContext(ctx).Model(&existing).Update("is_admin", true).Error
	}
	return nil
}

// RemoveFromWhitelist reports whether an entry was actually removed.
func (s *AccessService) RemoveFromWhitelist(ctx context.Context, telegramID int64) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		Delete(&models.AccessUser{})
	return res.RowsAffected > 0, res.Error
}

// ListWhitelist returns all entries, admins first.
func (s *AccessService) ListWhitelist(ctx context.Context) ([]models.AccessUser, error) {
	var users []models.AccessUser
	err := s.db.WithContext(ctx).
		Order("is_admin DESC, telegram_id ASC").
		Find(&users).Error
	return users, err
}

// ListAdmins resolves the reminder recipient set.
func (s *AccessService) ListAdmins(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&models.AccessUser{}).
		Where("is_admin = ?", true).
		Order("telegram_id ASC").
		Pluck("telegram_id", &ids).Error
	return ids, err
}
