package persistence

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCompanyRepository implements CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByID finds a company by ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Company, error) {
	var company identity.Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &company, nil
}

// FindByStripeCustomerID finds the company attached to a payment customer
func (r *GormCompanyRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*identity.Company, error) {
	var company identity.Company
	if err := r.db.WithContext(ctx).
		Where("stripe_customer_id = ?", customerID).
		First(&company).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &company, nil
}

// FindAll returns every company ordered by name
func (r *GormCompanyRepository) FindAll(ctx context.Context) ([]identity.Company, error) {
	var companies []identity.Company
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

// Create inserts a new company
func (r *GormCompanyRepository) Create(ctx context.Context, company *identity.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

// Save updates an existing company
func (r *GormCompanyRepository) Save(ctx context.Context, company *identity.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

// Ensure GormCompanyRepository implements CompanyRepository
var _ identity.CompanyRepository = (*GormCompanyRepository)(nil)
