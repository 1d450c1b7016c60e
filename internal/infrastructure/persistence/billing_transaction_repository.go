package persistence

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/billing"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBillingTransactionRepository implements billing.TransactionRepository using GORM
type GormBillingTransactionRepository struct {
	db *gorm.DB
}

// NewGormBillingTransactionRepository creates a new GormBillingTransactionRepository
func NewGormBillingTransactionRepository(db *gorm.DB) *GormBillingTransactionRepository {
	return &GormBillingTransactionRepository{db: db}
}

// FindAll lists ledger rows of a company, newest first by default
func (r *GormBillingTransactionRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]billing.BillingTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&billing.BillingTransaction{}).Where("company_id = ?", companyID)
	if typ, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", typ)
	}
	query = applyDateRange(query, "created_at", filter)

	var txs []billing.BillingTransaction
	total, err := findPage(query, filter, BillingTransactionSortFields, "created_at", &txs)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// ExistsByEventID reports whether a provider event was already booked
func (r *GormBillingTransactionRepository) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&billing.BillingTransaction{}).
		Where("stripe_event_id = ?", eventID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a ledger row. A repeated event ID yields shared.ErrAlreadyExists.
func (r *GormBillingTransactionRepository) Create(ctx context.Context, tx *billing.BillingTransaction) error {
	return translateDuplicate(r.db.WithContext(ctx).Create(tx).Error)
}

// Ensure GormBillingTransactionRepository implements TransactionRepository
var _ billing.TransactionRepository = (*GormBillingTransactionRepository)(nil)
