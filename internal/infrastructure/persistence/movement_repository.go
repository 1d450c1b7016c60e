package persistence

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMovementRepository implements MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// FindByID finds a movement within a company
func (r *GormMovementRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*inventory.StockMovement, error) {
	var m inventory.StockMovement
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&m).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &m, nil
}

// FindAll lists movements of a company, newest first by default
func (r *GormMovementRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter inventory.MovementFilter) ([]inventory.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.StockMovement{}).Where("company_id = ?", companyID)
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ReferenceType != "" {
		query = query.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.ReferenceID != nil {
		query = query.Where("reference_id = ?", *filter.ReferenceID)
	}
	if filter.Search != "" {
		query = query.Where("reason ILIKE ?", likePattern(filter.Search))
	}
	query = applyDateRange(query, "created_at", filter.Filter)

	var movements []inventory.StockMovement
	total, err := findPage(query, filter.Filter, MovementSortFields, "created_at", &movements)
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// Create appends a movement to the ledger
func (r *GormMovementRepository) Create(ctx context.Context, m *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Ensure GormMovementRepository implements MovementRepository
var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
