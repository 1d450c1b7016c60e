package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/inventory"
	"github.com/bizdesk/backend/internal/domain/partner"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInvoiceService_CreateInvoice(t *testing.T) {
	ctx := context.Background()
	f := newTradeFixture(t)
	f.withSettings(func(s *identity.CompanySettings) {
		s.InvoicePrefix = "INV"
		s.DefaultTaxRate = decimal.NewFromInt(10)
	})

	contact, err := partner.NewContact("Corner Shop", "shop@example.com", "", "", "", "")
	require.NoError(t, err)
	customer := partner.NewCustomer(f.companyID, contact)
	cola := f.product(t, "COLA", 20, "0.40", "1.20")

	f.customers.On("FindByID", mock.Anything, f.companyID, customer.ID).Return(customer, nil).Once()
	f.products.On("FindByIDs", mock.Anything, f.companyID, []uuid.UUID{cola.ID}).
		Return([]catalog.Product{*cola}, nil).Once()
	f.sequences.On("Next", mock.Anything, f.companyID, trade.SequenceInvoice).Return(int64(42), nil).Once()
	f.invoices.On("Create", mock.Anything, mock.AnythingOfType("*trade.Invoice")).Return(nil).Once()
	f.expectLock(cola)
	f.movements.On("Create", mock.Anything, mock.MatchedBy(func(m *inventory.StockMovement) bool {
		return m.Type == inventory.MovementOut &&
			m.ReferenceType == inventory.ReferenceInvoice &&
			m.QuantityBefore == 20 && m.QuantityAfter == 10
	})).Return(nil).Once()

	resp, err := f.invSvc.CreateInvoice(ctx, f.companyID, f.userID, CreateInvoiceRequest{
		CustomerID: &customer.ID,
		IssueDate:  "2026-04-01",
		DueDate:    "2026-04-15",
		Discount:   decimal.NewFromInt(2),
		Items:      []LineRequest{{ProductID: cola.ID, Quantity: 10}},
	})

	require.NoError(t, err)
	assert.Equal(t, "INV-00042", resp.Number)
	assert.Equal(t, "Corner Shop", resp.CustomerName)
	assert.Equal(t, "UNPAID", resp.Status)
	// 10 x 1.20 = 12.00, minus 2.00 discount, plus 10% tax
	assert.True(t, decimal.RequireFromString("12").Equal(resp.Subtotal), resp.Subtotal.String())
	assert.True(t, decimal.RequireFromString("1").Equal(resp.TaxAmount), resp.TaxAmount.String())
	assert.True(t, decimal.RequireFromString("11").Equal(resp.Total), resp.Total.String())
	f.movements.AssertExpectations(t)
	f.invoices.AssertExpectations(t)
}

func TestInvoiceService_CreateInvoice_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newTradeFixture(t)
	f.withSettings(nil)

	cola := f.product(t, "COLA", 3, "0.40", "1.20")
	chips := f.product(t, "CHIPS", 1, "0.80", "2.00")
	f.products.On("FindByIDs", mock.Anything, f.companyID, mock.Anything).
		Return([]catalog.Product{*cola, *chips}, nil).Once()
	f.sequences.On("Next", mock.Anything, f.companyID, trade.SequenceInvoice).Return(int64(1), nil).Once()
	f.invoices.On("Create", mock.Anything, mock.AnythingOfType("*trade.Invoice")).Return(nil).Once()
	colaLocked, chipsLocked := *cola, *chips
	f.products.On("FindByIDForUpdate", mock.Anything, f.companyID, cola.ID).Return(&colaLocked, nil).Maybe()
	f.products.On("FindByIDForUpdate", mock.Anything, f.companyID, chips.ID).Return(&chipsLocked, nil).Maybe()
	f.products.On("Save", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.movements.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

	_, err := f.invSvc.CreateInvoice(ctx, f.companyID, f.userID, CreateInvoiceRequest{
		Items: []LineRequest{
			{ProductID: cola.ID, Quantity: 2},
			{ProductID: chips.ID, Quantity: 5},
		},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	assert.Contains(t, err.Error(), "CHIPS")
}

func TestInvoiceService_CreateInvoice_UnknownCustomer(t *testing.T) {
	ctx := context.Background()
	f := newTradeFixture(t)
	f.withSettings(nil)
	customerID := uuid.New()
	f.customers.On("FindByID", mock.Anything, f.companyID, customerID).Return(nil, shared.ErrNotFound).Once()

	_, err := f.invSvc.CreateInvoice(ctx, f.companyID, f.userID, CreateInvoiceRequest{
		CustomerID: &customerID,
		Items:      []LineRequest{{ProductID: uuid.New(), Quantity: 1}},
	})

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_CUSTOMER", domainErr.Code)
}

func newTestInvoice(t *testing.T, f *tradeFixture, p *catalog.Product, qty int64) *trade.Invoice {
	t.Helper()
	inv, err := trade.NewInvoice(f.companyID, "INV-00001", []trade.Line{
		{ProductID: p.ID, ProductName: p.Name, Quantity: qty, UnitPrice: p.SalePrice},
	}, trade.InvoiceTerms{})
	require.NoError(t, err)
	return inv
}

func TestInvoiceService_MarkInvoicePaid(t *testing.T) {
	ctx := context.Background()
	f := newTradeFixture(t)
	p := f.product(t, "COLA", 0, "0.40", "1.20")
	inv := newTestInvoice(t, f, p, 1)

	f.invoices.On("FindByIDForUpdate", mock.Anything, f.companyID, inv.ID).Return(inv, nil).Twice()
	f.invoices.On("Save", mock.Anything, inv).Return(nil).Once()

	resp, err := f.invSvc.MarkInvoicePaid(ctx, f.companyID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAID", resp.Status)
	assert.NotNil(t, resp.PaidAt)

	_, err = f.invSvc.MarkInvoicePaid(ctx, f.companyID, inv.ID)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
	f.invoices.AssertExpectations(t)
}

func TestInvoiceService_CancelInvoice(t *testing.T) {
	ctx := context.Background()
	f := newTradeFixture(t)
	p := f.product(t, "COLA", 5, "0.40", "1.20")
	inv := newTestInvoice(t, f, p, 3)
	require.NoError(t, inv.MarkPaid())

	f.invoices.On("FindByIDForUpdate", mock.Anything, f.companyID, inv.ID).Return(inv, nil).Once()
	f.expectLock(p)
	f.movements.On("Create", mock.Anything, mock.MatchedBy(func(m *inventory.StockMovement) bool {
		return m.Type == inventory.MovementIn && m.QuantityAfter == 8 && *m.ReferenceID == inv.ID
	})).Return(nil).Once()
	f.invoices.On("Save", mock.Anything, inv).Return(nil).Once()

	resp, err := f.invSvc.CancelInvoice(ctx, f.companyID, f.userID, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Status)
	f.movements.AssertExpectations(t)
}

func TestInvoiceService_ListInvoices_Overdue(t *testing.T) {
	ctx := context.Background()
	f := newTradeFixture(t)
	p := f.product(t, "COLA", 0, "0.40", "1.20")
	overdue := newTestInvoice(t, f, p, 1)
	overdue.DueDate = time.Now().AddDate(0, 0, -3)

	f.invoices.On("FindAll", ctx, f.companyID, mock.MatchedBy(func(filter trade.DocumentFilter) bool {
		return filter.Filters["overdue"] == true
	})).Return([]trade.Invoice{*overdue}, int64(1), nil).Once()

	page, err := f.invSvc.ListInvoices(ctx, f.companyID, DocumentListFilter{Overdue: true})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].IsOverdue)
}
