package persistence

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/partner"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer within a company
func (r *GormCustomerRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*partner.Customer, error) {
	var customer partner.Customer
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&customer).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &customer, nil
}

// FindAll lists customers of a company
func (r *GormCustomerRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]partner.Customer, int64, error) {
	query := applyContactSearch(r.db.WithContext(ctx).Model(&partner.Customer{}).Where("company_id = ?", companyID), filter)

	var customers []partner.Customer
	total, err := findPage(query, filter, PartnerSortFields, "name", &customers)
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// ExistsByEmail checks if another customer of the company uses the email
func (r *GormCustomerRepository) ExistsByEmail(ctx context.Context, companyID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error) {
	return existsByEmail(r.db.WithContext(ctx).Model(&partner.Customer{}), companyID, email, excludeID)
}

// Create inserts a customer
func (r *GormCustomerRepository) Create(ctx context.Context, customer *partner.Customer) error {
	return translateDuplicate(r.db.WithContext(ctx).Create(customer).Error)
}

// Save updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return translateDuplicate(r.db.WithContext(ctx).Save(customer).Error)
}

// Delete deletes a customer within a company
func (r *GormCustomerRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&partner.Customer{}, "company_id = ? AND id = ?", companyID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
