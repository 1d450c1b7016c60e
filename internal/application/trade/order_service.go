package trade

import (
	"context"
	"fmt"

	appshared "github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/inventory"
	"github.com/bizdesk/backend/internal/domain/partner"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/trade"
	"github.com/bizdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService records received purchase orders. Creating an order books
// the goods into stock and cancelling it takes them out again.
type OrderService struct {
	txScope         appshared.TransactionScope
	orderRepo       trade.OrderRepository
	productRepo     catalog.ProductRepository
	supplierRepo    partner.SupplierRepository
	settingsRepo    identity.SettingsRepository
	ledger          appshared.StockLedger
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// OrderServiceDeps groups the collaborators of OrderService
type OrderServiceDeps struct {
	TxScope      appshared.TransactionScope
	OrderRepo    trade.OrderRepository
	ProductRepo  catalog.ProductRepository
	SupplierRepo partner.SupplierRepository
	SettingsRepo identity.SettingsRepository
	Ledger       appshared.StockLedger
	Logger       *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(deps OrderServiceDeps) *OrderService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		txScope:      deps.TxScope,
		orderRepo:    deps.OrderRepo,
		productRepo:  deps.ProductRepo,
		supplierRepo: deps.SupplierRepo,
		settingsRepo: deps.SettingsRepo,
		ledger:       deps.Ledger,
		logger:       logger,
	}
}

// SetBusinessMetrics sets the business metrics recorder (optional)
func (s *OrderService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// CreateOrder numbers the order, stores it and books an IN movement per item,
// all in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, companyID, userID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "OrderService", "CreateOrder",
		telemetry.SpanAttrCompanyID, companyID,
	)
	defer span.End()

	settings, err := loadSettings(ctx, s.settingsRepo, companyID)
	if err != nil {
		return nil, err
	}
	orderDate, err := parseDate(req.OrderDate, settings.Location())
	if err != nil {
		return nil, err
	}

	var supplier *partner.Supplier
	if req.SupplierID != nil {
		supplier, err = s.supplierRepo.FindByID(ctx, companyID, *req.SupplierID)
		if err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier not found")
			}
			return nil, err
		}
	}

	lines, err := buildLines(ctx, s.productRepo, companyID, req.Items, func(p *catalog.Product) decimal.Decimal {
		return p.PurchasePrice
	})
	if err != nil {
		return nil, err
	}

	var (
		order     *trade.Order
		movements []*inventory.StockMovement
	)
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		seq, err := repos.SequenceRepo().Next(ctx, companyID, trade.SequenceOrder)
		if err != nil {
			return fmt.Errorf("failed to allocate order number: %w", err)
		}
		order, err = trade.NewOrder(companyID, trade.FormatDocumentNumber(settings.OrderPrefix, seq), orderDate, lines, req.Notes)
		if err != nil {
			return err
		}
		if supplier != nil {
			order.SetSupplier(supplier.ID, supplier.Name)
		}
		order.SetCreatedBy(userID)
		if err := repos.OrderRepo().Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		movements, err = applyMoves(ctx, s.ledger, repos, companyID, orderMoves(order), inventory.MovementRequest{
			Type:          inventory.MovementIn,
			Reason:        "Order " + order.Number,
			ReferenceType: inventory.ReferenceOrder,
			ReferenceID:   &order.ID,
			CreatedBy:     &userID,
		})
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.ledger.NotifyCommitted(ctx, movements...)
	s.businessMetrics.RecordOrderReceived(ctx, companyID.String())
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderNumber, order.Number)
	s.logger.Info("order received",
		zap.String("company_id", companyID.String()),
		zap.String("order_number", order.Number),
		zap.Int("items", len(order.Items)),
	)

	resp := ToOrderResponse(order)
	return &resp, nil
}

// CancelOrder cancels a received order and takes its goods back out of stock.
// It fails with INSUFFICIENT_STOCK when some of the goods were already sold.
func (s *OrderService) CancelOrder(ctx context.Context, companyID, userID, id uuid.UUID) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "OrderService", "CancelOrder",
		telemetry.SpanAttrCompanyID, companyID,
		telemetry.SpanAttrOrderID, id,
	)
	defer span.End()

	var (
		order     *trade.Order
		movements []*inventory.StockMovement
	)
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByIDForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if err := order.Cancel(); err != nil {
			return err
		}

		movements, err = applyMoves(ctx, s.ledger, repos, companyID, orderMoves(order), inventory.MovementRequest{
			Type:          inventory.MovementOut,
			Reason:        "Order " + order.Number + " cancelled",
			ReferenceType: inventory.ReferenceOrder,
			ReferenceID:   &order.ID,
			CreatedBy:     &userID,
		})
		if err != nil {
			return err
		}
		return repos.OrderRepo().Save(ctx, order)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.ledger.NotifyCommitted(ctx, movements...)
	resp := ToOrderResponse(order)
	return &resp, nil
}

// GetOrder returns an order with its items
func (s *OrderService) GetOrder(ctx context.Context, companyID, id uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// ListOrders lists orders by status, supplier and order date
func (s *OrderService) ListOrders(ctx context.Context, companyID uuid.UUID, filter DocumentListFilter) (shared.Paginated[OrderResponse], error) {
	domainFilter := filter.toDomain()
	orders, total, err := s.orderRepo.FindAll(ctx, companyID, domainFilter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderResponse(&orders[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

func orderMoves(order *trade.Order) []stockMove {
	moves := make([]stockMove, len(order.Items))
	for i, item := range order.Items {
		moves[i] = stockMove{productID: item.ProductID, quantity: item.Quantity}
	}
	return moves
}
