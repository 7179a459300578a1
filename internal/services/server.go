package services

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/vpskeeper/vpskeeper/internal/crypto"
	"github.com/vpskeeper/vpskeeper/internal/models"
	"golang.org/x/crypto/ssh"
	"gorm.io/gorm"
)

var serverRoles = map[models.ServerRole]bool{
	models.RoleBridge:   true,
	models.RoleXrayEdge: true,
	models.RolePanel:    true,
	models.RoleDB:       true,
	models.RoleTest:     true,
	models.RoleOther:    true,
}

var secretTypes = map[models.SecretType]bool{
	models.SecretNone:       true,
	models.SecretPassword:   true,
	models.SecretPrivateKey: true,
}

// ServerInput is a new server before validation.
type ServerInput struct {
	OwnerTelegramID int64
	Name            string
	Role            models.ServerRole
	Provider        string
	IP4             string
	IP6             string
	Domain          string
	SSHPort         int
	SSHUser         string
	SecretType      models.SecretType
	SecretValue     string
	Tags            []string
	Notes           string
}

func (in *ServerInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || len(in.Name) > 100 {
		return validationErrorf("name must be 1..100 characters")
	}
	if !serverRoles[in.Role] {
		return validationErrorf("unknown role %q", in.Role)
	}
	in.Provider = strings.TrimSpace(in.Provider)
	if in.Provider == "" || len(in.Provider) > 100 {
		return validationErrorf("provider must be 1..100 characters")
	}

	in.IP4 = strings.TrimSpace(in.IP4)
	if ip := net.ParseIP(in.IP4); ip == nil || ip.To4() == nil {
		return validationErrorf("IPv4 address required")
	}
	in.IP6 = strings.TrimSpace(in.IP6)
	if in.IP6 != "" {
		if ip := net.ParseIP(in.IP6); ip == nil || ip.To4() != nil {
			return validationErrorf("invalid IPv6 address")
		}
	}
	in.Domain = strings.ToLower(strings.TrimSpace(in.Domain))
	if in.Domain != "" && (len(in.Domain) > 255 || !strings.Contains(in.Domain, ".")) {
		return validationErrorf("invalid domain")
	}

	if in.SSHPort == 0 {
		in.SSHPort = 22
	}
	if in.SSHPort < 1 || in.SSHPort > 65535 {
		return validationErrorf("ssh port must be 1..65535")
	}
	in.SSHUser = strings.TrimSpace(in.SSHUser)
	if in.SSHUser == "" || len(in.SSHUser) > 100 {
		return validationErrorf("ssh user must be 1..100 characters")
	}

	if in.SecretType == "" {
		in.SecretType = models.SecretNone
	}
	if !secretTypes[in.SecretType] {
		return validationErrorf("unknown secret type %q", in.SecretType)
	}
	in.SecretValue = strings.TrimSpace(in.SecretValue)
	if err := validateSecret(in.SecretType, in.SecretValue); err != nil {
		return err
	}

	in.Tags = normalizeTags(in.Tags)
	return nil
}

// validateSecret enforces the ciphertext-iff-typed invariant before
// anything touches the cipher, and rejects private keys that cannot be
// parsed (passphrase-protected keys are accepted).
func validateSecret(secretType models.SecretType, value string) error {
	if secretType == models.SecretNone {
		if value != "" {
			return validationErrorf("secret value given but secret type is none")
		}
		return nil
	}
	if value == "" {
		return validationErrorf("secret value required for type %q", secretType)
	}
	if secretType == models.SecretPrivateKey {
		if _, err := ssh.ParsePrivateKey([]byte(value)); err != nil {
			var passErr *ssh.PassphraseMissingError
			if !errors.As(err, &passErr) {
				return validationErrorf("not a valid SSH private key")
			}
		}
	}
	return nil
}

// normalizeTags lower-cases, trims and deduplicates while keeping order.
func normalizeTags(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	result := make([]string, 0, len(raw))
	for _, r := range raw {
		tag := strings.ToLower(strings.TrimSpace(r))
		if tag == "" || len(tag) > 50 || seen[tag] {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
	}
	return result
}

// SearchScope narrows ListServers.
type SearchScope string

const (
	ScopeAll       SearchScope = "all"
	ScopeActive    SearchScope = "active"
	ScopeArchived  SearchScope = "archived"
	ScopeExpiring7 SearchScope = "expiring_7"
)

// ListOptions filters and pages ListServers.
type ListOptions struct {
	OwnerTelegramID int64
	Page            int
	PageSize        int
	Scope           SearchScope
	Search          string
	Role            string
	Provider        string
	Tag             string
}

// ServerService owns server records and the encrypted secret lifecycle.
type ServerService struct {
	db        *gorm.DB
	encryptor *crypto.Encryptor
	clock     Clock
}

func NewServerService(db *gorm.DB, encryptor *crypto.Encryptor, clock Clock) *ServerService {
	return &ServerService{db: db, encryptor: encryptor, clock: clock}
}

// CreateServer validates input, encrypts the secret when present and
// persists the server with its tags.
func (s *ServerService) CreateServer(ctx context.Context, in ServerInput) (*models.Server, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Server{}).
		Where("owner_telegram_id = ? AND name = ?", in.OwnerTelegramID, in.Name).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, validationErrorf("server %q already exists", in.Name)
	}

	server := models.Server{
		ID:              uuid.New(),
		OwnerTelegramID: in.OwnerTelegramID,
		Name:            in.Name,
		Role:            in.Role,
		Provider:        in.Provider,
		IP4:             in.IP4,
		SSHPort:         in.SSHPort,
		SSHUser:         in.SSHUser,
		SecretType:      in.SecretType,
		Notes:           in.Notes,
		Status:          models.StatusActive,
	}
	if in.IP6 != "" {
		server.IP6 = &in.IP6
	}
	if in.Domain != "" {
		server.Domain = &in.Domain
	}
	if in.SecretType != models.SecretNone {
		encrypted, err := s.encryptor.Encrypt(in.SecretValue)
		if err != nil {
			return nil, err
		}
		server.SecretEncrypted = encrypted
	}
	for _, tag := range in.Tags {
		server.Tags = append(server.Tags, models.ServerTag{Tag: tag})
	}

	if err := s.db.WithContext(ctx).Create(&server).Error; err != nil {
		return nil, err
	}
	return &server, nil
}

// ListServers pages through the owner's servers, favorites first.
func (s *ServerService) ListServers(ctx context.Context, opts ListOptions) ([]models.Server, int64, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = 5
	}

	q := s.db.WithContext(ctx).
		Model(&models.Server{}).
		Where("owner_telegram_id = ?", opts.OwnerTelegramID)

	switch opts.Scope {
	case ScopeActive:
		q = q.Where("status = ?", models.StatusActive)
	case ScopeArchived:
		q = q.Where("status = ?", models.StatusArchived)
	case ScopeExpiring7:
		today := dateOnly(s.clock.Now())
		within := s.db.Model(&models.Billing{}).Select("server_id").
			Where("expires_at >= ? AND expires_at <= ?", today, today.AddDate(0, 0, 7))
		q = q.Where("id IN (?)", within)
	}

	if opts.Role != "" {
		q = q.Where("role = ?", opts.Role)
	}
	if opts.Provider != "" {
		q = q.Where("LOWER(provider) LIKE ?", "%"+strings.ToLower(opts.Provider)+"%")
	}
	if opts.Search != "" {
		like := "%" + strings.ToLower(opts.Search) + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR LOWER(ip4) LIKE ? OR LOWER(provider) LIKE ? OR LOWER(notes) LIKE ?",
			like, like, like, like,
		)
	}
	if opts.Tag != "" {
		tagged := s.db.Model(&models.ServerTag{}).Select("server_id").
			Where("tag = ?", strings.ToLower(strings.TrimSpace(opts.Tag)))
		q = q.Where("id IN (?)", tagged)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var servers []models.Server
	err := q.Preload("Tags").
		Order("is_favorite DESC, name ASC").
		Offset((opts.Page - 1) * opts.PageSize).
		Limit(opts.PageSize).
		Find(&servers).Error
	return servers, total, err
}

// GetServer loads an owned server with tags. Not-owned and non-existent
// are indistinguishable: both return gorm.ErrRecordNotFound.
func (s *ServerService) GetServer(ctx context.Context, ownerID int64, serverID string) (*models.Server, error) {
	id, err := uuid.Parse(serverID)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}

	var server models.Server
	err = s.db.WithContext(ctx).
		Preload("Tags").
		First(&server, "id = ? AND owner_telegram_id = ?", id, ownerID).Error
	if err != nil {
		return nil, err
	}
	return &server, nil
}

// ToggleArchive flips a server between active and archived.
func (s *ServerService) ToggleArchive(ctx context.Context, ownerID int64, serverID string) (*models.Server, error) {
	server, err := s.GetServer(ctx, ownerID, serverID)
	if err != nil {
		return nil, err
	}

	next := models.StatusArchived
	if server.Status == models.StatusArchived {
		next = models.StatusActive
	}
	if err := s.db.WithContext(ctx).Model(server).Update("status", next).Error; err != nil {
		return nil, err
	}
	server.Status = next
	return server, nil
}

func (s *ServerService) ToggleFavorite(ctx context.Context, ownerID int64, serverID string) (*models.Server, error) {
	server, err := s.GetServer(ctx, ownerID, serverID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(server).Update("is_favorite", !server.IsFavorite).Error; err != nil {
		return nil, err
	}
	server.IsFavorite = !server.IsFavorite
	return server, nil
}

// UpdateNotes replaces the free-form notes and load figures.
func (s *ServerService) UpdateNotes(ctx context.Context, ownerID int64, serverID, notes string, cpu, ram, disk *float64, netNotes *string) error {
	server, err := s.GetServer(ctx, ownerID, serverID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(server).Updates(map[string]any{
		"notes":     notes,
		"cpu_load":  cpu,
		"ram_load":  ram,
		"disk_load": disk,
		"net_notes": netNotes,
	}).Error
}

// SetSecret re-encrypts the server secret. This is the only path that
// touches the ciphertext after creation; type none clears it.
func (s *ServerService) SetSecret(ctx context.Context, ownerID int64, serverID string, secretType models.SecretType, value string) error {
	if !secretTypes[secretType] {
		return validationErrorf("unknown secret type %q", secretType)
	}
	value = strings.TrimSpace(value)
	if err := validateSecret(secretType, value); err != nil {
		return err
	}

	server, err := s.GetServer(ctx, ownerID, serverID)
	if err != nil {
		return err
	}

	encrypted := ""
	if secretType != models.SecretNone {
		if encrypted, err = s.encryptor.Encrypt(value); err != nil {
			return err
		}
	}
	return s.db.WithContext(ctx).Model(server).Updates(map[string]any{
		"secret_type":      secretType,
		"secret_encrypted": encrypted,
	}).Error
}

// RevealSecret decrypts an owned server's secret. ok is false when no
// secret is set; a decryption failure propagates as crypto.ErrDecrypt and
// must never be reported as "no secret".
func (s *ServerService) RevealSecret(ctx context.Context, ownerID int64, serverID string) (plaintext string, ok bool, err error) {
	server, err := s.GetServer(ctx, ownerID, serverID)
	if err != nil {
		return "", false, err
	}
	if server.SecretType == models.SecretNone || server.SecretEncrypted == "" {
		return "", false, nil
	}

	plaintext, err = s.encryptor.Decrypt(server.SecretEncrypted)
	if err != nil {
		return "", false, err
	}
	return plaintext, true, nil
}

// DeleteServer removes an owned server; billing records and tags go with
// it (ON DELETE CASCADE).
func (s *ServerService) DeleteServer(ctx context.Context, ownerID int64, serverID string) error {
	server, err := s.GetServer(ctx, ownerID, serverID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(server).Error
}
