package catalog

import (
	"context"
	"errors"
	"fmt"

	appshared "github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/inventory"
	"github.com/bizdesk/backend/internal/domain/partner"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// lowStockListLimit caps the dedicated low-stock listing
const lowStockListLimit = 100

// UploadPolicy limits image uploads
type UploadPolicy struct {
	MaxSize int64
}

// ProductService handles product-related business operations
type ProductService struct {
	txScope      appshared.TransactionScope
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	supplierRepo partner.SupplierRepository
	settingsRepo identity.SettingsRepository
	ledger       appshared.StockLedger
	storage      appshared.ObjectStorage
	images       appshared.ImageProcessor
	policy       UploadPolicy
	logger       *zap.Logger
}

// ProductServiceDeps groups the collaborators of ProductService
type ProductServiceDeps struct {
	TxScope      appshared.TransactionScope
	ProductRepo  catalog.ProductRepository
	CategoryRepo catalog.CategoryRepository
	SupplierRepo partner.SupplierRepository
	SettingsRepo identity.SettingsRepository
	Ledger       appshared.StockLedger
	Storage      appshared.ObjectStorage
	Images       appshared.ImageProcessor
	Policy       UploadPolicy
	Logger       *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(deps ProductServiceDeps) *ProductService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		txScope:      deps.TxScope,
		productRepo:  deps.ProductRepo,
		categoryRepo: deps.CategoryRepo,
		supplierRepo: deps.SupplierRepo,
		settingsRepo: deps.SettingsRepo,
		ledger:       deps.Ledger,
		storage:      deps.Storage,
		images:       deps.Images,
		policy:       deps.Policy,
		logger:       logger,
	}
}

// Create creates a product. A positive initial quantity is booked as an
// ADJUSTMENT movement in the same transaction.
func (s *ProductService) Create(ctx context.Context, companyID, userID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ProductService", "Create",
		telemetry.SpanAttrCompanyID, companyID,
	)
	defer span.End()

	if req.InitialQuantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Initial quantity cannot be negative")
	}
	if err := s.checkReferences(ctx, companyID, req.CategoryID, req.SupplierID); err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(companyID, req.SKU, catalog.ProductDetails{
		Name:          req.Name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		SupplierID:    req.SupplierID,
		Unit:          req.Unit,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		MinStock:      req.MinStock,
	})
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueSKU(ctx, companyID, product.SKU, nil); err != nil {
		return nil, err
	}
	product.SetCreatedBy(userID)

	var opening *inventory.StockMovement
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if err := repos.ProductRepo().Create(ctx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		if req.InitialQuantity == 0 {
			return nil
		}
		var err error
		opening, err = s.ledger.ApplyInTx(ctx, repos, companyID, inventory.MovementRequest{
			ProductID:     product.ID,
			Type:          inventory.MovementAdjustment,
			Quantity:      req.InitialQuantity,
			Reason:        "Opening stock",
			ReferenceType: inventory.ReferenceProduct,
			ReferenceID:   &product.ID,
			CreatedBy:     &userID,
		})
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if opening != nil {
		product.Quantity = opening.QuantityAfter
		s.ledger.NotifyCommitted(ctx, opening)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrProductID, product.ID)

	resp := ToProductResponse(product, s.lowStockThreshold(ctx, companyID))
	return &resp, nil
}

// GetByID retrieves a live product
func (s *ProductService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product, s.lowStockThreshold(ctx, companyID))
	return &resp, nil
}

// List lists products with search, category and low-stock filters
func (s *ProductService) List(ctx context.Context, companyID uuid.UUID, filter ProductListFilter) (shared.Paginated[ProductResponse], error) {
	threshold := s.lowStockThreshold(ctx, companyID)
	domainFilter := filter.toDomain(threshold)

	products, total, err := s.productRepo.FindAll(ctx, companyID, domainFilter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	return shared.NewPaginated(ToProductResponses(products, threshold), total, domainFilter.Page, domainFilter.PageSize), nil
}

// ListLowStock lists live products at or below max(min_stock, company threshold)
func (s *ProductService) ListLowStock(ctx context.Context, companyID uuid.UUID) ([]ProductResponse, error) {
	threshold := s.lowStockThreshold(ctx, companyID)
	products, err := s.productRepo.FindLowStock(ctx, companyID, threshold, lowStockListLimit)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products, threshold), nil
}

// Update applies a partial update to a live product
func (s *ProductService) Update(ctx context.Context, companyID, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	details := catalog.ProductDetails{
		Name:          product.Name,
		Description:   product.Description,
		CategoryID:    product.CategoryID,
		SupplierID:    product.SupplierID,
		Unit:          product.Unit,
		PurchasePrice: product.PurchasePrice,
		SalePrice:     product.SalePrice,
		MinStock:      product.MinStock,
	}
	if req.Name != nil {
		details.Name = *req.Name
	}
	if req.Description != nil {
		details.Description = *req.Description
	}
	if req.Unit != nil {
		details.Unit = *req.Unit
	}
	if req.PurchasePrice != nil {
		details.PurchasePrice = *req.PurchasePrice
	}
	if req.SalePrice != nil {
		details.SalePrice = *req.SalePrice
	}
	if req.MinStock != nil {
		details.MinStock = *req.MinStock
	}
	switch {
	case req.ClearCategory:
		details.CategoryID = nil
	case req.CategoryID != nil:
		details.CategoryID = req.CategoryID
	}
	switch {
	case req.ClearSupplier:
		details.SupplierID = nil
	case req.SupplierID != nil:
		details.SupplierID = req.SupplierID
	}

	if err := s.checkReferences(ctx, companyID, req.CategoryID, req.SupplierID); err != nil {
		return nil, err
	}
	if err := product.Update(details); err != nil {
		return nil, err
	}
	if req.SKU != nil && catalog.NormalizeSKU(*req.SKU) != product.SKU {
		if err := product.ChangeSKU(*req.SKU); err != nil {
			return nil, err
		}
		if err := s.ensureUniqueSKU(ctx, companyID, product.SKU, &product.ID); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product, s.lowStockThreshold(ctx, companyID))
	return &resp, nil
}

// Delete soft-deletes a product. Its movements and document lines stay intact.
func (s *ProductService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return err
	}
	if err := product.SoftDelete(); err != nil {
		return err
	}
	return s.productRepo.Save(ctx, product)
}

// Restore brings back a soft-deleted product
func (s *ProductService) Restore(ctx context.Context, companyID, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDUnscoped(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := product.Restore(); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product, s.lowStockThreshold(ctx, companyID))
	return &resp, nil
}

// UploadImage resizes and stores a product picture, replacing the previous one
func (s *ProductService) UploadImage(ctx context.Context, companyID, id uuid.UUID, data []byte) (*ProductResponse, error) {
	if err := appshared.CheckUploadSize(data, s.policy.MaxSize); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	processed, err := s.images.Process(data)
	if err != nil {
		if errors.Is(err, appshared.ErrUnsupportedImage) || errors.Is(err, appshared.ErrImageTooLarge) {
			return nil, err
		}
		return nil, shared.NewDomainError("INVALID_IMAGE", "Image could not be processed")
	}

	key := fmt.Sprintf("companies/%s/products/%s-%s.png", companyID, product.ID, uuid.New())
	url, err := s.storage.Upload(ctx, key, processed, "image/png")
	if err != nil {
		return nil, fmt.Errorf("failed to store product image: %w", err)
	}

	previous := product.SetImage(key, url)
	if err := s.productRepo.Save(ctx, product); err != nil {
		s.deleteObject(ctx, key)
		return nil, err
	}
	if previous != "" {
		s.deleteObject(ctx, previous)
	}

	resp := ToProductResponse(product, s.lowStockThreshold(ctx, companyID))
	return &resp, nil
}

// deleteObject removes a stored object; failures only leave an orphan behind
func (s *ProductService) deleteObject(ctx context.Context, key string) {
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		s.logger.Warn("Failed to delete stored image",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// lowStockThreshold returns the company's configured threshold or the default
func (s *ProductService) lowStockThreshold(ctx context.Context, companyID uuid.UUID) int64 {
	settings, err := s.settingsRepo.FindByCompany(ctx, companyID)
	if err != nil {
		if !shared.IsNotFound(err) {
			s.logger.Warn("Failed to load company settings, using default low stock threshold",
				zap.String("company_id", companyID.String()),
				zap.Error(err),
			)
		}
		return identity.DefaultLowStockThreshold
	}
	return int64(settings.LowStockThreshold)
}

func (s *ProductService) checkReferences(ctx context.Context, companyID uuid.UUID, categoryID, supplierID *uuid.UUID) error {
	if categoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, companyID, *categoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
			}
			return err
		}
	}
	if supplierID != nil {
		if _, err := s.supplierRepo.FindByID(ctx, companyID, *supplierID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVALID_SUPPLIER", "Supplier not found")
			}
			return err
		}
	}
	return nil
}

func (s *ProductService) ensureUniqueSKU(ctx context.Context, companyID uuid.UUID, sku string, excludeID *uuid.UUID) error {
	exists, err := s.productRepo.ExistsBySKU(ctx, companyID, sku, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Product with this SKU already exists")
	}
	return nil
}
