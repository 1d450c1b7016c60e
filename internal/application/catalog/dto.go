package catalog

import (
	"time"

	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

// CategoryListFilter represents filter options for the category list
type CategoryListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// ToCategoryResponse converts a domain category to its response
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Version:     c.Version,
	}
}

// CreateProductRequest represents a request to create a product.
// InitialQuantity is booked as an opening ADJUSTMENT movement.
type CreateProductRequest struct {
	SKU             string          `json:"sku" binding:"required,min=1,max=50"`
	Name            string          `json:"name" binding:"required,min=1,max=200"`
	Description     string          `json:"description"`
	CategoryID      *uuid.UUID      `json:"category_id"`
	SupplierID      *uuid.UUID      `json:"supplier_id"`
	Unit            string          `json:"unit" binding:"max=20"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	MinStock        int64           `json:"min_stock" binding:"min=0"`
	InitialQuantity int64           `json:"initial_quantity" binding:"min=0"`
}

// UpdateProductRequest represents a partial product update. Quantity is not
// editable here; use a stock movement.
type UpdateProductRequest struct {
	SKU           *string          `json:"sku" binding:"omitempty,min=1,max=50"`
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description   *string          `json:"description"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	ClearCategory bool             `json:"clear_category"`
	SupplierID    *uuid.UUID       `json:"supplier_id"`
	ClearSupplier bool             `json:"clear_supplier"`
	Unit          *string          `json:"unit" binding:"omitempty,max=20"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SalePrice     *decimal.Decimal `json:"sale_price"`
	MinStock      *int64           `json:"min_stock" binding:"omitempty,min=0"`
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search     string     `form:"search"`
	CategoryID *uuid.UUID `form:"category_id"`
	SupplierID *uuid.UUID `form:"supplier_id"`
	LowStock   bool       `form:"low_stock"`
	// Status is active (default), deleted or all
	Status   string `form:"status" binding:"omitempty,oneof=active deleted all"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f ProductListFilter) toDomain(lowStockFloor int64) catalog.ProductFilter {
	filter := catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		},
		CategoryID:     f.CategoryID,
		SupplierID:     f.SupplierID,
		LowStockOnly:   f.LowStock,
		LowStockFloor:  lowStockFloor,
		IncludeDeleted: f.Status == "all",
		OnlyDeleted:    f.Status == "deleted",
	}
	filter.Normalize()
	return filter
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	CategoryID    *uuid.UUID      `json:"category_id,omitempty"`
	SupplierID    *uuid.UUID      `json:"supplier_id,omitempty"`
	Unit          string          `json:"unit"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Quantity      int64           `json:"quantity"`
	MinStock      int64           `json:"min_stock"`
	IsLowStock    bool            `json:"is_low_stock"`
	ImageURL      string          `json:"image_url,omitempty"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// ToProductResponse converts a domain product to its response.
// threshold is the company-wide low stock threshold.
func ToProductResponse(p *catalog.Product, threshold int64) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		SupplierID:    p.SupplierID,
		Unit:          p.Unit,
		PurchasePrice: p.PurchasePrice,
		SalePrice:     p.SalePrice,
		Quantity:      p.Quantity,
		MinStock:      p.MinStock,
		IsLowStock:    p.IsLowStock(threshold),
		ImageURL:      p.ImageURL,
		DeletedAt:     p.DeletedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}
}

// ToProductResponses converts a slice of products
func ToProductResponses(products []catalog.Product, threshold int64) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i], threshold)
	}
	return responses
}
