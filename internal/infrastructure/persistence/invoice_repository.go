package persistence

import (
	"context"
	"time"

	"github.com/bizdesk/backend/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID loads an invoice with its items
func (r *GormInvoiceRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*trade.Invoice, error) {
	var invoice trade.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("company_id = ? AND id = ?", companyID, id).
		First(&invoice).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &invoice, nil
}

// FindByIDForUpdate loads an invoice with its items and locks the invoice row
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*trade.Invoice, error) {
	var invoice trade.Invoice
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		Where("company_id = ? AND id = ?", companyID, id).
		First(&invoice).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &invoice, nil
}

// FindAll lists invoice headers of a company
func (r *GormInvoiceRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter trade.DocumentFilter) ([]trade.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&trade.Invoice{}).Where("company_id = ?", companyID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PartnerID != nil {
		query = query.Where("customer_id = ?", *filter.PartnerID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("number ILIKE ? OR customer_name ILIKE ?", pattern, pattern)
	}
	if overdue, ok := filter.Filters["overdue"].(bool); ok && overdue {
		query = query.Where("status = ? AND due_date < ?", trade.InvoiceStatusUnpaid, time.Now().Format(time.DateOnly))
	}
	query = applyDateRange(query, "issue_date", filter.Filter)

	var invoices []trade.Invoice
	total, err := findPage(query, filter.Filter, InvoiceSortFields, "created_at", &invoices)
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// FindRecent loads the latest invoices with items, newest first
func (r *GormInvoiceRepository) FindRecent(ctx context.Context, companyID uuid.UUID, limit int) ([]trade.Invoice, error) {
	var invoices []trade.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("company_id = ?", companyID).
		Order("issue_date DESC, created_at DESC").
		Limit(limit).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// CountOverdue counts unpaid invoices whose due date is before asOf
func (r *GormInvoiceRepository) CountOverdue(ctx context.Context, companyID uuid.UUID, asOf time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&trade.Invoice{}).
		Where("company_id = ? AND status = ? AND due_date < ?", companyID, trade.InvoiceStatusUnpaid, asOf.Format(time.DateOnly)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts the invoice together with its items
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *trade.Invoice) error {
	return translateDuplicate(r.db.WithContext(ctx).Create(invoice).Error)
}

// Save updates the invoice header. Items are immutable once created.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *trade.Invoice) error {
	return r.db.WithContext(ctx).Omit("Items").Save(invoice).Error
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ trade.InvoiceRepository = (*GormInvoiceRepository)(nil)
