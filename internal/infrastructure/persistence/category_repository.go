package persistence

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category within a company
func (r *GormCategoryRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*catalog.Category, error) {
	var category catalog.Category
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&category).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &category, nil
}

// FindAll lists categories of a company
func (r *GormCategoryRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]catalog.Category, int64, error) {
	query := r.db.WithContext(ctx).Model(&catalog.Category{}).Where("company_id = ?", companyID)
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var categories []catalog.Category
	total, err := findPage(query, filter, CategorySortFields, "name", &categories)
	if err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

// ExistsByName checks for a case-insensitive name clash, optionally ignoring one category
func (r *GormCategoryRepository) ExistsByName(ctx context.Context, companyID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&catalog.Category{}).
		Where("company_id = ? AND LOWER(name) = LOWER(?)", companyID, name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountProducts counts live products in a category
func (r *GormCategoryRepository) CountProducts(ctx context.Context, companyID, categoryID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("company_id = ? AND category_id = ? AND deleted_at IS NULL", companyID, categoryID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a category
func (r *GormCategoryRepository) Create(ctx context.Context, category *catalog.Category) error {
	return translateDuplicate(r.db.WithContext(ctx).Create(category).Error)
}

// Save updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return translateDuplicate(r.db.WithContext(ctx).Save(category).Error)
}

// Delete removes a category within a company
func (r *GormCategoryRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&catalog.Category{}, "company_id = ? AND id = ?", companyID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormCategoryRepository implements CategoryRepository
var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
