package partner

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SupplierRepository persists suppliers
type SupplierRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Supplier, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]Supplier, int64, error)
	ExistsByEmail(ctx context.Context, companyID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error)
	Create(ctx context.Context, supplier *Supplier) error
	Save(ctx context.Context, supplier *Supplier) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

// CustomerRepository persists customers
type CustomerRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Customer, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]Customer, int64, error)
	ExistsByEmail(ctx context.Context, companyID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error)
	Create(ctx context.Context, customer *Customer) error
	Save(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}
