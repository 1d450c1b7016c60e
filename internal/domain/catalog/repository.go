package catalog

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CategoryRepository persists categories
type CategoryRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Category, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]Category, int64, error)
	ExistsByName(ctx context.Context, companyID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
	CountProducts(ctx context.Context, companyID, categoryID uuid.UUID) (int64, error)
	Create(ctx context.Context, category *Category) error
	Save(ctx context.Context, category *Category) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

// ProductFilter narrows product listings
type ProductFilter struct {
	shared.Filter
	CategoryID     *uuid.UUID
	SupplierID     *uuid.UUID
	LowStockOnly   bool
	LowStockFloor  int64
	IncludeDeleted bool
	OnlyDeleted    bool
}

// ProductRepository persists products. Soft-deleted products are excluded
// unless the filter asks for them or the method says otherwise.
type ProductRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Product, error)
	// FindByIDUnscoped also returns soft-deleted products
	FindByIDUnscoped(ctx context.Context, companyID, id uuid.UUID) (*Product, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]Product, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter ProductFilter) ([]Product, int64, error)
	FindLowStock(ctx context.Context, companyID uuid.UUID, threshold int64, limit int) ([]Product, error)
	CountLowStock(ctx context.Context, companyID uuid.UUID, threshold int64) (int64, error)
	ExistsBySKU(ctx context.Context, companyID uuid.UUID, sku string, excludeID *uuid.UUID) (bool, error)
	Create(ctx context.Context, product *Product) error
	Save(ctx context.Context, product *Product) error
}
