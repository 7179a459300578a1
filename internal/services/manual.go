package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/vpskeeper/vpskeeper/internal/models"
	"gorm.io/gorm"
)

var manualCategories = map[models.ManualCategory]bool{
	models.CategoryInstall:      true,
	models.CategoryTroubleshoot: true,
	models.CategoryUpgrade:      true,
	models.CategoryOther:        true,
}

// ManualInput is a new or updated runbook article before validation.
type ManualInput struct {
	OwnerTelegramID int64
	Title           string
	Category        models.ManualCategory
	Tags            []string
	BodyMarkdown    string
}

func (in *ManualInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || len(in.Title) > 200 {
		return validationErrorf("title must be 1..200 characters")
	}
	if in.Category == "" {
		in.Category = models.CategoryOther
	}
	if !manualCategories[in.Category] {
		return validationErrorf("unknown category %q", in.Category)
	}
	if strings.TrimSpace(in.BodyMarkdown) == "" {
		return validationErrorf("body cannot be empty")
	}
	in.Tags = normalizeTags(in.Tags)
	return nil
}

type ManualService struct {
	db *gorm.DB
}

func NewManualService(db *gorm.DB) *ManualService {
	return &ManualService{db: db}
}

func (s *ManualService) CreateManual(ctx context.Context, in ManualInput) (*models.Manual, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	manual := models.Manual{
		OwnerTelegramID: in.OwnerTelegramID,
		Title:           in.Title,
		Category:        in.Category,
		BodyMarkdown:    in.BodyMarkdown,
	}
	for _, tag := range in.Tags {
		manual.Tags = append(manual.Tags, models.ManualTag{Tag: tag})
	}

	if err := s.db.WithContext(ctx).Create(&manual).Error; err != nil {
		return nil, err
	}
	return &manual, nil
}

// CategoryCounts returns article counts per category, category order.
func (s *ManualService) CategoryCounts(ctx context.Context, ownerID int64) (map[models.ManualCategory]int64, error) {
	var rows []struct {
		Category models.ManualCategory
		Count    int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Manual{}).
		Select("category, COUNT(*) AS count").
		Where("owner_telegram_id = ?", ownerID).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ManualCategory]int64, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.Count
	}
	return counts, nil
}

// ListManuals returns the owner's articles, most recently updated first,
// optionally narrowed to one category.
func (s *ManualService) ListManuals(ctx context.Context, ownerID int64, category models.ManualCategory) ([]models.Manual, error) {
	q := s.db.WithContext(ctx).
		Preload("Tags").
		Where("owner_telegram_id = ?", ownerID).
		Order("updated_at DESC")
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var manuals []models.Manual
	err := q.Find(&manuals).Error
	return manuals, err
}

// SearchManuals matches text against title, body and tags,
// case-insensitively.
func (s *ManualService) SearchManuals(ctx context.Context, ownerID int64, text string) ([]models.Manual, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(text)) + "%"

	tagged := s.db.Model(&models.ManualTag{}).Select("manual_id").
		Where("LOWER(tag) LIKE ?", like)

	var manuals []models.Manual
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Where("owner_telegram_id = ?", ownerID).
		Where("LOWER(title) LIKE ? OR LOWER(body_markdown) LIKE ? OR id IN (?)", like, like, tagged).
		Order("updated_at DESC").
		Find(&manuals).Error
	return manuals, err
}

func (s *ManualService) GetManual(ctx context.Context, ownerID int64, manualID uint) (*models.Manual, error) {
	var manual models.Manual
	err := s.db.WithContext(ctx).
		Preload("Tags").
		First(&manual, "id = ? AND owner_telegram_id = ?", manualID, ownerID).Error
	if err != nil {
		return nil, err
	}
	return &manual, nil
}

// UpdateManual replaces the article content and its tag set.
func (s *ManualService) UpdateManual(ctx context.Context, manualID uint, in ManualInput) error {
	if err := in.validate(); err != nil {
		return err
	}

	manual, err := s.GetManual(ctx, in.OwnerTelegramID, manualID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(manual).Updates(map[string]any{
			"title":         in.Title,
			"category":      in.Category,
			"body_markdown": in.BodyMarkdown,
		}).Error; err != nil {
			return err
		}
		if err := tx.Where("manual_id = ?", manual.ID).Delete(&models.ManualTag{}).Error; err != nil {
			return err
		}
		for _, tag := range in.Tags {
			if err := tx.Create(&models.ManualTag{ManualID: manual.ID, Tag: tag}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteManual reports whether an article was actually removed. Tags
// cascade.
func (s *ManualService) DeleteManual(ctx context.Context, ownerID int64, manualID uint) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND owner_telegram_id = ?", manualID, ownerID).
		Delete(&models.Manual{})
	return res.RowsAffected > 0, res.Error
}

var fencedBlockRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\n(.*?)```")

// ExtractCommands pulls fenced code blocks out of a manual body for the
// copy-commands feature.
func ExtractCommands(markdown string) []string {
	var commands []string
	for _, m := range fencedBlockRe.FindAllStringSubmatch(markdown, -1) {
		if block := strings.TrimSpace(m[1]); block != "" {
			commands = append(commands, block)
		}
	}
	return commands
}
