package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	appinventory "github.com/bizdesk/backend/internal/application/inventory"
	appshared "github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/inventory"
	"github.com/bizdesk/backend/internal/domain/partner"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/trade"
	"github.com/bizdesk/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type tradeFixture struct {
	companyID uuid.UUID
	userID    uuid.UUID
	products  *testutil.MockProductRepository
	movements *testutil.MockMovementRepository
	orders    *testutil.MockOrderRepository
	invoices  *testutil.MockInvoiceRepository
	sequences *testutil.MockSequenceRepository
	settings  *testutil.MockSettingsRepository
	suppliers *testutil.MockSupplierRepository
	customers *testutil.MockCustomerRepository
	orderSvc  *OrderService
	invSvc    *InvoiceService
}

func newTradeFixture(t *testing.T) *tradeFixture {
	f := &tradeFixture{
		companyID: uuid.New(),
		userID:    uuid.New(),
		products:  new(testutil.MockProductRepository),
		movements: new(testutil.MockMovementRepository),
		orders:    new(testutil.MockOrderRepository),
		invoices:  new(testutil.MockInvoiceRepository),
		sequences: new(testutil.MockSequenceRepository),
		settings:  new(testutil.MockSettingsRepository),
		suppliers: new(testutil.MockSupplierRepository),
		customers: new(testutil.MockCustomerRepository),
	}
	scope := appshared.NewNoOpTransactionScope(&appshared.Repositories{
		Products:  f.products,
		Movements: f.movements,
		Orders:    f.orders,
		Invoices:  f.invoices,
		Sequences: f.sequences,
		Settings:  f.settings,
	})
	ledger := appinventory.NewStockService(scope, f.movements)
	logger := zaptest.NewLogger(t)

	f.orderSvc = NewOrderService(OrderServiceDeps{
		TxScope:      scope,
		OrderRepo:    f.orders,
		ProductRepo:  f.products,
		SupplierRepo: f.suppliers,
		SettingsRepo: f.settings,
		Ledger:       ledger,
		Logger:       logger,
	})
	f.invSvc = NewInvoiceService(InvoiceServiceDeps{
		TxScope:      scope,
		InvoiceRepo:  f.invoices,
		ProductRepo:  f.products,
		CustomerRepo: f.customers,
		SettingsRepo: f.settings,
		Ledger:       ledger,
		Logger:       logger,
	})
	return f
}

func (f *tradeFixture) withSettings(mutate func(*identity.CompanySettings)) {
	settings := identity.NewCompanySettings(f.companyID)
	if mutate != nil {
		mutate(settings)
	}
	f.settings.On("FindByCompany", mock.Anything, f.companyID).Return(settings, nil)
}

func (f *tradeFixture) product(t *testing.T, sku string, qty int64, purchase, sale string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(f.companyID, sku, catalog.ProductDetails{
		Name:          "Product " + sku,
		PurchasePrice: decimal.RequireFromString(purchase),
		SalePrice:     decimal.RequireFromString(sale),
	})
	require.NoError(t, err)
	p.Quantity = qty
	return p
}

// expectLock serves a fresh copy of p for the row lock and accepts the save
func (f *tradeFixture) expectLock(p *catalog.Product) {
	locked := *p
	f.products.On("FindByIDForUpdate", mock.Anything, f.companyID, p.ID).Return(&locked, nil).Once()
	f.products.On("Save", mock.Anything, &locked).Return(nil).Once()
}

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()
	f := newTradeFixture(t)
	f.withSettings(func(s *identity.CompanySettings) { s.OrderPrefix = "PO" })

	contact, err := partner.NewContact("Acme Wholesale", "", "", "", "", "")
	require.NoError(t, err)
	supplier := partner.NewSupplier(f.companyID, contact)
	cola := f.product(t, "COLA", 2, "0.40", "1.20")
	chips := f.product(t, "CHIPS", 0, "0.80", "2.00")

	f.suppliers.On("FindByID", mock.Anything, f.companyID, supplier.ID).Return(supplier, nil).Once()
	f.products.On("FindByIDs", mock.Anything, f.companyID, mock.Anything).
		Return([]catalog.Product{*cola, *chips}, nil).Once()
	f.sequences.On("Next", mock.Anything, f.companyID, trade.SequenceOrder).Return(int64(7), nil).Once()
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*trade.Order")).Return(nil).Once()
	f.expectLock(cola)
	f.expectLock(chips)
	var booked []*inventory.StockMovement
	f.movements.On("Create", mock.Anything, mock.AnythingOfType("*inventory.StockMovement")).
		Run(func(args mock.Arguments) { booked = append(booked, args.Get(1).(*inventory.StockMovement)) }).
		Return(nil).Twice()

	unitCost := decimal.RequireFromString("0.35")
	resp, err := f.orderSvc.CreateOrder(ctx, f.companyID, f.userID, CreateOrderRequest{
		SupplierID: &supplier.ID,
		OrderDate:  "2026-03-01",
		Items: []LineRequest{
			{ProductID: cola.ID, Quantity: 10, UnitPrice: &unitCost},
			{ProductID: chips.ID, Quantity: 4},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "PO-00007", resp.Number)
	assert.Equal(t, "Acme Wholesale", resp.SupplierName)
	assert.Equal(t, "2026-03-01", resp.OrderDate)
	assert.Equal(t, "RECEIVED", resp.Status)
	assert.True(t, decimal.RequireFromString("6.70").Equal(resp.Total), resp.Total.String())
	require.Len(t, resp.Items, 2)
	assert.True(t, decimal.RequireFromString("0.80").Equal(resp.Items[1].UnitPrice))

	require.Len(t, booked, 2)
	after := map[uuid.UUID]int64{}
	for _, m := range booked {
		assert.Equal(t, inventory.MovementIn, m.Type)
		assert.Equal(t, inventory.ReferenceOrder, m.ReferenceType)
		assert.Equal(t, resp.ID, *m.ReferenceID)
		after[m.ProductID] = m.QuantityAfter
	}
	assert.Equal(t, int64(12), after[cola.ID])
	assert.Equal(t, int64(4), after[chips.ID])
	f.orders.AssertExpectations(t)
	f.products.AssertExpectations(t)
}

func TestOrderService_CreateOrder_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown supplier", func(t *testing.T) {
		f := newTradeFixture(t)
		f.withSettings(nil)
		supplierID := uuid.New()
		f.suppliers.On("FindByID", mock.Anything, f.companyID, supplierID).Return(nil, shared.ErrNotFound).Once()

		_, err := f.orderSvc.CreateOrder(ctx, f.companyID, f.userID, CreateOrderRequest{
			SupplierID: &supplierID,
			Items:      []LineRequest{{ProductID: uuid.New(), Quantity: 1}},
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_SUPPLIER", domainErr.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newTradeFixture(t)
		f.withSettings(nil)
		f.products.On("FindByIDs", mock.Anything, f.companyID, mock.Anything).Return([]catalog.Product{}, nil).Once()

		_, err := f.orderSvc.CreateOrder(ctx, f.companyID, f.userID, CreateOrderRequest{
			Items: []LineRequest{{ProductID: uuid.New(), Quantity: 1}},
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_PRODUCT", domainErr.Code)
		f.sequences.AssertNotCalled(t, "Next", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad date", func(t *testing.T) {
		f := newTradeFixture(t)
		f.withSettings(nil)

		_, err := f.orderSvc.CreateOrder(ctx, f.companyID, f.userID, CreateOrderRequest{
			OrderDate: "01/03/2026",
			Items:     []LineRequest{{ProductID: uuid.New(), Quantity: 1}},
		})

		require.Error(t, err)
	})
}

func TestOrderService_CancelOrder(t *testing.T) {
	ctx := context.Background()

	newOrder := func(t *testing.T, f *tradeFixture, p *catalog.Product, qty int64) *trade.Order {
		order, err := trade.NewOrder(f.companyID, "PO-00001", time.Time{}, []trade.Line{
			{ProductID: p.ID, ProductName: p.Name, Quantity: qty, UnitPrice: p.PurchasePrice},
		}, "")
		require.NoError(t, err)
		return order
	}

	t.Run("reverses stock", func(t *testing.T) {
		f := newTradeFixture(t)
		p := f.product(t, "COLA", 10, "0.40", "1.20")
		order := newOrder(t, f, p, 6)
		f.orders.On("FindByIDForUpdate", mock.Anything, f.companyID, order.ID).Return(order, nil).Once()
		f.expectLock(p)
		f.movements.On("Create", mock.Anything, mock.MatchedBy(func(m *inventory.StockMovement) bool {
			return m.Type == inventory.MovementOut && m.QuantityAfter == 4
		})).Return(nil).Once()
		f.orders.On("Save", mock.Anything, order).Return(nil).Once()

		resp, err := f.orderSvc.CancelOrder(ctx, f.companyID, f.userID, order.ID)

		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", resp.Status)
		assert.NotNil(t, resp.CancelledAt)
		f.movements.AssertExpectations(t)
	})

	t.Run("goods already sold", func(t *testing.T) {
		f := newTradeFixture(t)
		p := f.product(t, "COLA", 2, "0.40", "1.20")
		order := newOrder(t, f, p, 6)
		f.orders.On("FindByIDForUpdate", mock.Anything, f.companyID, order.ID).Return(order, nil).Once()
		f.products.On("FindByIDForUpdate", mock.Anything, f.companyID, p.ID).Return(p, nil).Once()

		_, err := f.orderSvc.CancelOrder(ctx, f.companyID, f.userID, order.ID)

		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("already cancelled", func(t *testing.T) {
		f := newTradeFixture(t)
		p := f.product(t, "COLA", 10, "0.40", "1.20")
		order := newOrder(t, f, p, 1)
		require.NoError(t, order.Cancel())
		f.orders.On("FindByIDForUpdate", mock.Anything, f.companyID, order.ID).Return(order, nil).Once()

		_, err := f.orderSvc.CancelOrder(ctx, f.companyID, f.userID, order.ID)

		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()
	f := newTradeFixture(t)
	supplierID := uuid.New()

	f.orders.On("FindAll", ctx, f.companyID, mock.MatchedBy(func(filter trade.DocumentFilter) bool {
		return filter.Status == "RECEIVED" && *filter.PartnerID == supplierID && filter.PageSize == 20
	})).Return([]trade.Order{{Number: "PO-00001"}}, int64(1), nil).Once()

	page, err := f.orderSvc.ListOrders(ctx, f.companyID, DocumentListFilter{Status: "RECEIVED", PartnerID: &supplierID})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "PO-00001", page.Items[0].Number)
}

func TestLockOrder(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	moves := []stockMove{{productID: b, quantity: 1}, {productID: a, quantity: 2}, {productID: b, quantity: 3}}

	sorted := lockOrder(moves)

	assert.Equal(t, []stockMove{{productID: a, quantity: 2}, {productID: b, quantity: 1}, {productID: b, quantity: 3}}, sorted)
	assert.Equal(t, b, moves[0].productID)
}
