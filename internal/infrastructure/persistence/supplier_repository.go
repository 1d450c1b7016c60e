package persistence

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/partner"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSupplierRepository implements SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier within a company
func (r *GormSupplierRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*partner.Supplier, error) {
	var supplier partner.Supplier
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&supplier).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &supplier, nil
}

// FindAll lists suppliers of a company
func (r *GormSupplierRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]partner.Supplier, int64, error) {
	query := applyContactSearch(r.db.WithContext(ctx).Model(&partner.Supplier{}).Where("company_id = ?", companyID), filter)

	var suppliers []partner.Supplier
	total, err := findPage(query, filter, PartnerSortFields, "name", &suppliers)
	if err != nil {
		return nil, 0, err
	}
	return suppliers, total, nil
}

// ExistsByEmail checks if another supplier of the company uses the email
func (r *GormSupplierRepository) ExistsByEmail(ctx context.Context, companyID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error) {
	return existsByEmail(r.db.WithContext(ctx).Model(&partner.Supplier{}), companyID, email, excludeID)
}

// Create inserts a supplier
func (r *GormSupplierRepository) Create(ctx context.Context, supplier *partner.Supplier) error {
	return translateDuplicate(r.db.WithContext(ctx).Create(supplier).Error)
}

// Save updates a supplier
func (r *GormSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	return translateDuplicate(r.db.WithContext(ctx).Save(supplier).Error)
}

// Delete deletes a supplier within a company
func (r *GormSupplierRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&partner.Supplier{}, "company_id = ? AND id = ?", companyID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyContactSearch filters a supplier or customer query by the search term
func applyContactSearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ? OR tax_number ILIKE ?",
			pattern, pattern, pattern, pattern)
	}
	return query
}

func existsByEmail(query *gorm.DB, companyID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error) {
	if email == "" {
		return false, nil
	}
	query = query.Where("company_id = ? AND LOWER(email) = LOWER(?)", companyID, email)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormSupplierRepository implements SupplierRepository
var _ partner.SupplierRepository = (*GormSupplierRepository)(nil)
