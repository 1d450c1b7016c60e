package catalog

import (
	"regexp"
	"strings"
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_\-.]*$`)

// Product is a stocked item. Quantity is the on-hand count and only changes
// through stock movements.
type Product struct {
	shared.CompanyAggregateRoot
	SKU           string          `gorm:"column:sku;size:50;not null" json:"sku"`
	Name          string          `gorm:"size:200;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	CategoryID    *uuid.UUID      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	SupplierID    *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Unit          string          `gorm:"size:20;not null;default:pcs" json:"unit"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"sale_price"`
	Quantity      int64           `gorm:"not null;default:0" json:"quantity"`
	MinStock      int64           `gorm:"not null;default:0" json:"min_stock"`
	ImageURL      string          `gorm:"size:500" json:"image_url"`
	ImageKey      string          `gorm:"size:500" json:"-"`
	DeletedAt     *time.Time      `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// ProductDetails are the descriptive, editable fields of a product
type ProductDetails struct {
	Name          string
	Description   string
	CategoryID    *uuid.UUID
	SupplierID    *uuid.UUID
	Unit          string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	MinStock      int64
}

// NewProduct creates a product with zero stock.
// Opening stock is booked separately as an ADJUSTMENT movement.
func NewProduct(companyID uuid.UUID, sku string, details ProductDetails) (*Product, error) {
	sku = NormalizeSKU(sku)
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	p := &Product{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		SKU:                  sku,
	}
	if err := p.applyDetails(details); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the descriptive fields
func (p *Product) Update(details ProductDetails) error {
	if p.IsDeleted() {
		return shared.NewDomainError("PRODUCT_DELETED", "Cannot update a deleted product")
	}
	if err := p.applyDetails(details); err != nil {
		return err
	}
	p.IncrementVersion()
	return nil
}

// ChangeSKU changes the product code
func (p *Product) ChangeSKU(sku string) error {
	sku = NormalizeSKU(sku)
	if err := validateSKU(sku); err != nil {
		return err
	}
	p.SKU = sku
	p.IncrementVersion()
	return nil
}

func (p *Product) applyDetails(d ProductDetails) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	if d.PurchasePrice.IsNegative() || d.SalePrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Prices cannot be negative")
	}
	if d.MinStock < 0 {
		return shared.NewDomainError("INVALID_MIN_STOCK", "Minimum stock cannot be negative")
	}
	unit := strings.TrimSpace(d.Unit)
	if unit == "" {
		unit = "pcs"
	}
	if len(unit) > 20 {
		return shared.NewDomainError("INVALID_UNIT", "Unit cannot exceed 20 characters")
	}

	p.Name = name
	p.Description = strings.TrimSpace(d.Description)
	p.CategoryID = d.CategoryID
	p.SupplierID = d.SupplierID
	p.Unit = unit
	p.PurchasePrice = d.PurchasePrice
	p.SalePrice = d.SalePrice
	p.MinStock = d.MinStock
	return nil
}

// SetImage records an uploaded image and returns the key of the replaced one
func (p *Product) SetImage(key, url string) string {
	prev := p.ImageKey
	p.ImageKey = key
	p.ImageURL = url
	p.IncrementVersion()
	return prev
}

// SetQuantity overwrites the on-hand count. Only the stock ledger calls this.
func (p *Product) SetQuantity(qty int64) error {
	if qty < 0 {
		return shared.ErrInsufficientStock
	}
	p.Quantity = qty
	p.IncrementVersion()
	return nil
}

// IsLowStock reports whether on-hand stock is at or below the effective threshold
func (p *Product) IsLowStock(companyThreshold int64) bool {
	threshold := p.MinStock
	if companyThreshold > threshold {
		threshold = companyThreshold
	}
	return p.Quantity <= threshold
}

// IsDeleted reports whether the product has been soft-deleted
func (p *Product) IsDeleted() bool {
	return p.DeletedAt != nil
}

// SoftDelete hides the product while keeping its history
func (p *Product) SoftDelete() error {
	if p.IsDeleted() {
		return shared.NewDomainError("PRODUCT_DELETED", "Product is already deleted")
	}
	now := time.Now()
	p.DeletedAt = &now
	p.IncrementVersion()
	return nil
}

// Restore brings a soft-deleted product back
func (p *Product) Restore() error {
	if !p.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "Product is not deleted")
	}
	p.DeletedAt = nil
	p.IncrementVersion()
	return nil
}

// NormalizeSKU trims and upper-cases a product code
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 50 characters")
	}
	if !skuPattern.MatchString(sku) {
		return shared.NewDomainError("INVALID_SKU", "SKU may only contain letters, digits, '-', '_' and '.'")
	}
	return nil
}
