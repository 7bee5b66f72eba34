package service

import (
	"errors"
	"strings"

	"github.com/newsroom/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryNotFound = errors.New("category not found")
)

// CategoryService wraps category related operations.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb}
}

// CategoryInput represents fields accepted when creating or updating a
// category.
type CategoryInput struct {
	Name        string
	Description *string
	Color       *string
	Icon        *string
	IsActive    *bool
	SortOrder   *int
	ParentID    *uint
}

// makeCategorySlug derives the slug from the name; unlike article slugs
// there is no uniqueness suffix, the name itself is unique.
func makeCategorySlug(name string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// ListActive returns active categories in configured order.
func (s *CategoryService) ListActive() ([]db.Category, error) {
	var categories []db.Category
	if err := s.db.Where("is_active = ?", true).
		Order("sort_order asc").Order("name asc").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListAll returns every category in configured order.
func (s *CategoryService) ListAll() ([]db.Category, error) {
	var categories []db.Category
	if err := s.db.Order("sort_order asc").Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Get fetches a category by id.
func (s *CategoryService) Get(id uint) (*db.Category, error) {
	var category db.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// GetBySlug fetches a category by slug.
func (s *CategoryService) GetBySlug(slug string) (*db.Category, error) {
	var category db.Category
	if err := s.db.Where("slug = ?", strings.ToLower(slug)).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Create persists a category with a derived slug.
func (s *CategoryService) Create(input CategoryInput) (*db.Category, error) {
	name := strings.TrimSpace(input.Name)
	slug := makeCategorySlug(name)

	var existing db.Category
	err := s.db.Where("name = ? OR slug = ?", name, slug).First(&existing).Error
	if err == nil {
		return nil, ErrCategoryExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category := db.Category{
		Name:     name,
		Slug:     slug,
		Color:    "#3B82F6",
		Icon:     "fas fa-newspaper",
		IsActive: true,
		ParentID: input.ParentID,
	}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}
	if input.Color != nil {
		category.Color = *input.Color
	}
	if input.Icon != nil {
		category.Icon = *input.Icon
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}

	if err := s.db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Update applies allow-listed changes. The slug never changes once set.
func (s *CategoryService) Update(id uint, input CategoryInput) (*db.Category, error) {
	category, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(input.Name); name != "" && name != category.Name {
		var existing db.Category
		err := s.db.Where("name = ? AND id <> ?", name, id).First(&existing).Error
		if err == nil {
			return nil, ErrCategoryExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Color != nil {
		updates["color"] = *input.Color
	}
	if input.Icon != nil {
		updates["icon"] = *input.Icon
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.SortOrder != nil {
		updates["sort_order"] = *input.SortOrder
	}
	if input.ParentID != nil {
		updates["parent_id"] = *input.ParentID
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(id)
}

// Delete removes a category permanently. Articles keep their category slug;
// a dangling slug is tolerated by the listing layer.
func (s *CategoryService) Delete(id uint) error {
	result := s.db.Unscoped().Delete(&db.Category{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// RefreshArticleCounts recomputes the denormalized published-article count
// for every category. The counts are an eventually consistent read model:
// article writes never touch them, this routine runs periodically and on
// demand from the admin API.
func (s *CategoryService) RefreshArticleCounts() error {
	var categories []db.Category
	if err := s.db.Find(&categories).Error; err != nil {
		return err
	}

	for i := range categories {
		var count int64
		err := s.db.Model(&db.Article{}).
			Where("category = ? AND status = ?", categories[i].Slug, db.StatusPublished).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == categories[i].ArticleCount {
			continue
		}
		if err := s.db.Model(&categories[i]).UpdateColumn("article_count", count).Error; err != nil {
			return err
		}
	}
	return nil
}
