package persistence

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSettingsRepository implements SettingsRepository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// FindByCompany returns the settings row of a company
func (r *GormSettingsRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) (*identity.CompanySettings, error) {
	var s identity.CompanySettings
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&s).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &s, nil
}

// FindDailyReportEnabled lists settings of companies that opted into the daily digest
func (r *GormSettingsRepository) FindDailyReportEnabled(ctx context.Context) ([]identity.CompanySettings, error) {
	var settings []identity.CompanySettings
	if err := r.db.WithContext(ctx).
		Where("daily_report_enabled = ?", true).
		Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// Save upserts the settings row
func (r *GormSettingsRepository) Save(ctx context.Context, s *identity.CompanySettings) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// Ensure GormSettingsRepository implements SettingsRepository
var _ identity.SettingsRepository = (*GormSettingsRepository)(nil)
