package persistence

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID loads an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*trade.Order, error) {
	var order trade.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("company_id = ? AND id = ?", companyID, id).
		First(&order).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &order, nil
}

// FindByIDForUpdate loads an order with its items and locks the order row
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*trade.Order, error) {
	var order trade.Order
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		Where("company_id = ? AND id = ?", companyID, id).
		First(&order).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &order, nil
}

// FindAll lists order headers of a company
func (r *GormOrderRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter trade.DocumentFilter) ([]trade.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&trade.Order{}).Where("company_id = ?", companyID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PartnerID != nil {
		query = query.Where("supplier_id = ?", *filter.PartnerID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("number ILIKE ? OR supplier_name ILIKE ?", pattern, pattern)
	}
	query = applyDateRange(query, "order_date", filter.Filter)

	var orders []trade.Order
	total, err := findPage(query, filter.Filter, OrderSortFields, "created_at", &orders)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// FindRecent loads the latest orders with items, newest first
func (r *GormOrderRepository) FindRecent(ctx context.Context, companyID uuid.UUID, limit int) ([]trade.Order, error) {
	var orders []trade.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("company_id = ?", companyID).
		Order("order_date DESC, created_at DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Create inserts the order together with its items
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	return translateDuplicate(r.db.WithContext(ctx).Create(order).Error)
}

// Save updates the order header. Items are immutable once created.
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}

// Ensure GormOrderRepository implements OrderRepository
var _ trade.OrderRepository = (*GormOrderRepository)(nil)
