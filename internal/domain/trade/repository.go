package trade

import (
	"context"
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentFilter narrows order and invoice listings
type DocumentFilter struct {
	shared.Filter
	Status    string
	PartnerID *uuid.UUID
}

// OrderRepository persists purchase orders
type OrderRepository interface {
	// FindByID loads the order with its items
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Order, error)
	// FindByIDForUpdate loads the order with its items and locks the header row
	FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*Order, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter DocumentFilter) ([]Order, int64, error)
	FindRecent(ctx context.Context, companyID uuid.UUID, limit int) ([]Order, error)
	Create(ctx context.Context, order *Order) error
	Save(ctx context.Context, order *Order) error
}

// InvoiceRepository persists sales invoices
type InvoiceRepository interface {
	// FindByID loads the invoice with its items
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error)
	// FindByIDForUpdate loads the invoice with its items and locks the header row
	FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter DocumentFilter) ([]Invoice, int64, error)
	FindRecent(ctx context.Context, companyID uuid.UUID, limit int) ([]Invoice, error)
	CountOverdue(ctx context.Context, companyID uuid.UUID, asOf time.Time) (int64, error)
	Create(ctx context.Context, invoice *Invoice) error
	Save(ctx context.Context, invoice *Invoice) error
}
