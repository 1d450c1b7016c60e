package inventory

import (
	"context"
	"errors"
	"fmt"

	appshared "github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/inventory"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// StockService owns the stock ledger. Every change to a product's on-hand
// quantity goes through ApplyInTx.
type StockService struct {
	txScope         appshared.TransactionScope
	movementRepo    inventory.MovementRepository
	businessMetrics *telemetry.BusinessMetrics
}

// NewStockService creates a new StockService
func NewStockService(txScope appshared.TransactionScope, movementRepo inventory.MovementRepository) *StockService {
	return &StockService{
		txScope:      txScope,
		movementRepo: movementRepo,
	}
}

// SetBusinessMetrics sets the business metrics recorder (optional)
func (s *StockService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// ApplyInTx locks the product row, computes the new on-hand quantity, saves
// the product and appends the movement. repos must belong to the caller's
// transaction; on any error the caller rolls back.
func (s *StockService) ApplyInTx(
	ctx context.Context,
	repos appshared.TransactionalRepositories,
	companyID uuid.UUID,
	req inventory.MovementRequest,
) (*inventory.StockMovement, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	product, err := repos.ProductRepo().FindByIDForUpdate(ctx, companyID, req.ProductID)
	if err != nil {
		return nil, err
	}

	movement, err := inventory.NewStockMovement(companyID, req, product.Quantity)
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			return nil, insufficientStock(product, req.Quantity)
		}
		return nil, err
	}

	if err := product.SetQuantity(movement.QuantityAfter); err != nil {
		return nil, err
	}
	if err := repos.ProductRepo().Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product quantity: %w", err)
	}
	if err := repos.MovementRepo().Create(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to save stock movement: %w", err)
	}
	return movement, nil
}

// NotifyCommitted records metrics for movements whose transaction committed
func (s *StockService) NotifyCommitted(ctx context.Context, movements ...*inventory.StockMovement) {
	for _, m := range movements {
		s.businessMetrics.RecordStockMovement(ctx, m.CompanyID.String(), string(m.Type))
	}
}

// RecordMovement applies a manual movement in its own transaction
func (s *StockService) RecordMovement(
	ctx context.Context,
	companyID, userID uuid.UUID,
	req RecordMovementRequest,
) (*MovementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "StockService", "RecordMovement",
		telemetry.SpanAttrCompanyID, companyID,
		telemetry.SpanAttrProductID, req.ProductID,
		telemetry.SpanAttrMovementType, req.Type,
		telemetry.SpanAttrQuantity, req.Quantity,
	)
	defer span.End()

	movementReq := inventory.MovementRequest{
		ProductID:     req.ProductID,
		Type:          inventory.MovementType(req.Type),
		Quantity:      req.Quantity,
		Reason:        req.Reason,
		ReferenceType: inventory.ReferenceManual,
		CreatedBy:     &userID,
	}

	var movement *inventory.StockMovement
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		movement, err = s.ApplyInTx(ctx, repos, companyID, movementReq)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.NotifyCommitted(ctx, movement)
	resp := ToMovementResponse(movement)
	return &resp, nil
}

// GetMovement returns a single movement of the company
func (s *StockService) GetMovement(ctx context.Context, companyID, id uuid.UUID) (*MovementResponse, error) {
	movement, err := s.movementRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := ToMovementResponse(movement)
	return &resp, nil
}

// ListMovements lists movements newest first
func (s *StockService) ListMovements(
	ctx context.Context,
	companyID uuid.UUID,
	filter MovementListFilter,
) (shared.Paginated[MovementResponse], error) {
	domainFilter := filter.toDomain()
	movements, total, err := s.movementRepo.FindAll(ctx, companyID, domainFilter)
	if err != nil {
		return shared.Paginated[MovementResponse]{}, err
	}

	items := make([]MovementResponse, len(movements))
	for i := range movements {
		items[i] = ToMovementResponse(&movements[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

func insufficientStock(p *catalog.Product, requested int64) error {
	return shared.NewDomainError("INSUFFICIENT_STOCK",
		fmt.Sprintf("Insufficient stock for %s: %d on hand, %d requested", p.SKU, p.Quantity, requested))
}

// Ensure StockService implements StockLedger
var _ appshared.StockLedger = (*StockService)(nil)
