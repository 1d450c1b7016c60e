package persistence

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lowStockCondition matches products at or below max(min_stock, threshold)
const lowStockCondition = "quantity <= GREATEST(min_stock, ?)"

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a live product within a company
func (r *GormProductRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ? AND deleted_at IS NULL", companyID, id).
		First(&product).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &product, nil
}

// FindByIDUnscoped finds a product including soft-deleted ones
func (r *GormProductRepository) FindByIDUnscoped(ctx context.Context, companyID, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&product).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &product, nil
}

// FindByIDForUpdate finds a live product and takes a row lock (SELECT ... FOR UPDATE)
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id = ? AND deleted_at IS NULL", companyID, id).
		First(&product).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &product, nil
}

// FindByIDs finds live products by IDs
func (r *GormProductRepository) FindByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}

	var products []catalog.Product
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id IN ? AND deleted_at IS NULL", companyID, ids).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindAll lists products of a company
func (r *GormProductRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&catalog.Product{}).Where("company_id = ?", companyID), filter)

	var products []catalog.Product
	total, err := findPage(query, filter.Filter, ProductSortFields, "name", &products)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// FindLowStock lists live products at or below the threshold, emptiest first
func (r *GormProductRepository) FindLowStock(ctx context.Context, companyID uuid.UUID, threshold int64, limit int) ([]catalog.Product, error) {
	query := r.db.WithContext(ctx).
		Where("company_id = ? AND deleted_at IS NULL", companyID).
		Where(lowStockCondition, threshold).
		Order("quantity ASC, name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var products []catalog.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// CountLowStock counts live products at or below the threshold
func (r *GormProductRepository) CountLowStock(ctx context.Context, companyID uuid.UUID, threshold int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("company_id = ? AND deleted_at IS NULL", companyID).
		Where(lowStockCondition, threshold).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountLowStockByCompany counts live low-stock products for every company,
// using each company's own threshold. Companies with none are omitted.
func (r *GormProductRepository) CountLowStockByCompany(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		CompanyID uuid.UUID
		Count     int64
	}
	err := r.db.WithContext(ctx).
		Table("products p").
		Select("p.company_id, COUNT(*) AS count").
		Joins("LEFT JOIN company_settings s ON s.company_id = p.company_id").
		Where("p.deleted_at IS NULL").
		Where("p.quantity <= GREATEST(p.min_stock, COALESCE(s.low_stock_threshold, ?))", identity.DefaultLowStockThreshold).
		Group("p.company_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.CompanyID.String()] = row.Count
	}
	return counts, nil
}

// ExistsBySKU checks whether a SKU is taken in the company. Deleted products
// keep their SKU reserved so they can be restored.
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, companyID uuid.UUID, sku string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("company_id = ? AND sku = ?", companyID, catalog.NormalizeSKU(sku))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	return translateDuplicate(r.db.WithContext(ctx).Create(product).Error)
}

// Save updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return translateDuplicate(r.db.WithContext(ctx).Save(product).Error)
}

func (r *GormProductRepository) applyFilter(query *gorm.DB, filter catalog.ProductFilter) *gorm.DB {
	switch {
	case filter.OnlyDeleted:
		query = query.Where("deleted_at IS NOT NULL")
	case !filter.IncludeDeleted:
		query = query.Where("deleted_at IS NULL")
	}

	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("name ILIKE ? OR sku ILIKE ? OR description ILIKE ?", pattern, pattern, pattern)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.LowStockOnly {
		query = query.Where(lowStockCondition, filter.LowStockFloor)
	}
	return query
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
