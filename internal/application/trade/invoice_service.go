package trade

import (
	"context"
	"fmt"
	"time"

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

// InvoiceService issues sales invoices. Issuing takes the goods out of stock
// and cancelling puts them back.
type InvoiceService struct {
	txScope         appshared.TransactionScope
	invoiceRepo     trade.InvoiceRepository
	productRepo     catalog.ProductRepository
	customerRepo    partner.CustomerRepository
	settingsRepo    identity.SettingsRepository
	ledger          appshared.StockLedger
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
	now             func() time.Time
}

// InvoiceServiceDeps groups the collaborators of InvoiceService
type InvoiceServiceDeps struct {
	TxScope      appshared.TransactionScope
	InvoiceRepo  trade.InvoiceRepository
	ProductRepo  catalog.ProductRepository
	CustomerRepo partner.CustomerRepository
	SettingsRepo identity.SettingsRepository
	Ledger       appshared.StockLedger
	Logger       *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(deps InvoiceServiceDeps) *InvoiceService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		txScope:      deps.TxScope,
		invoiceRepo:  deps.InvoiceRepo,
		productRepo:  deps.ProductRepo,
		customerRepo: deps.CustomerRepo,
		settingsRepo: deps.SettingsRepo,
		ledger:       deps.Ledger,
		logger:       logger,
		now:          time.Now,
	}
}

// SetBusinessMetrics sets the business metrics recorder (optional)
func (s *InvoiceService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// CreateInvoice numbers the invoice, stores it and books an OUT movement per
// item in one transaction. Any shortfall rolls the whole invoice back.
func (s *InvoiceService) CreateInvoice(ctx context.Context, companyID, userID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "CreateInvoice",
		telemetry.SpanAttrCompanyID, companyID,
	)
	defer span.End()

	settings, err := loadSettings(ctx, s.settingsRepo, companyID)
	if err != nil {
		return nil, err
	}
	loc := settings.Location()
	issueDate, err := parseDate(req.IssueDate, loc)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDate(req.DueDate, loc)
	if err != nil {
		return nil, err
	}
	if issueDate.IsZero() {
		issueDate = s.now().In(loc)
	}
	taxRate := settings.DefaultTaxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}

	var customer *partner.Customer
	if req.CustomerID != nil {
		customer, err = s.customerRepo.FindByID(ctx, companyID, *req.CustomerID)
		if err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer not found")
			}
			return nil, err
		}
	}

	lines, err := buildLines(ctx, s.productRepo, companyID, req.Items, func(p *catalog.Product) decimal.Decimal {
		return p.SalePrice
	})
	if err != nil {
		return nil, err
	}
	terms := trade.InvoiceTerms{
		IssueDate: issueDate,
		DueDate:   dueDate,
		TaxRate:   taxRate,
		Discount:  req.Discount,
		Notes:     req.Notes,
	}

	var (
		invoice   *trade.Invoice
		movements []*inventory.StockMovement
	)
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		seq, err := repos.SequenceRepo().Next(ctx, companyID, trade.SequenceInvoice)
		if err != nil {
			return fmt.Errorf("failed to allocate invoice number: %w", err)
		}
		invoice, err = trade.NewInvoice(companyID, trade.FormatDocumentNumber(settings.InvoicePrefix, seq), lines, terms)
		if err != nil {
			return err
		}
		if customer != nil {
			invoice.SetCustomer(customer.ID, customer.Name)
		}
		invoice.SetCreatedBy(userID)
		if err := repos.InvoiceRepo().Create(ctx, invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		movements, err = applyMoves(ctx, s.ledger, repos, companyID, invoiceMoves(invoice), inventory.MovementRequest{
			Type:          inventory.MovementOut,
			Reason:        "Invoice " + invoice.Number,
			ReferenceType: inventory.ReferenceInvoice,
			ReferenceID:   &invoice.ID,
			CreatedBy:     &userID,
		})
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.ledger.NotifyCommitted(ctx, movements...)
	s.businessMetrics.RecordInvoiceIssued(ctx, companyID.String(), settings.Currency, invoice.Total.InexactFloat64())
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceNumber, invoice.Number,
		telemetry.SpanAttrAmount, invoice.Total.String(),
	)
	s.logger.Info("invoice issued",
		zap.String("company_id", companyID.String()),
		zap.String("invoice_number", invoice.Number),
		zap.String("total", invoice.Total.StringFixed(2)),
	)

	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// MarkInvoicePaid moves an unpaid invoice to PAID
func (s *InvoiceService) MarkInvoicePaid(ctx context.Context, companyID, id uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "MarkInvoicePaid",
		telemetry.SpanAttrCompanyID, companyID,
		telemetry.SpanAttrInvoiceID, id,
	)
	defer span.End()

	var invoice *trade.Invoice
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByIDForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if err := invoice.MarkPaid(); err != nil {
			return err
		}
		return repos.InvoiceRepo().Save(ctx, invoice)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// CancelInvoice cancels an unpaid or paid invoice and restocks its items
func (s *InvoiceService) CancelInvoice(ctx context.Context, companyID, userID, id uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "CancelInvoice",
		telemetry.SpanAttrCompanyID, companyID,
		telemetry.SpanAttrInvoiceID, id,
	)
	defer span.End()

	var (
		invoice   *trade.Invoice
		movements []*inventory.StockMovement
	)
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByIDForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if err := invoice.Cancel(); err != nil {
			return err
		}
		movements, err = applyMoves(ctx, s.ledger, repos, companyID, invoiceMoves(invoice), inventory.MovementRequest{
			Type:          inventory.MovementIn,
			Reason:        "Invoice " + invoice.Number + " cancelled",
			ReferenceType: inventory.ReferenceInvoice,
			ReferenceID:   &invoice.ID,
			CreatedBy:     &userID,
		})
		if err != nil {
			return err
		}
		return repos.InvoiceRepo().Save(ctx, invoice)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.ledger.NotifyCommitted(ctx, movements...)
	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// GetInvoice returns an invoice with its items
func (s *InvoiceService) GetInvoice(ctx context.Context, companyID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// ListInvoices lists invoices by status, customer, issue date and overdue flag
func (s *InvoiceService) ListInvoices(ctx context.Context, companyID uuid.UUID, filter DocumentListFilter) (shared.Paginated[InvoiceResponse], error) {
	domainFilter := filter.toDomain()
	invoices, total, err := s.invoiceRepo.FindAll(ctx, companyID, domainFilter)
	if err != nil {
		return shared.Paginated[InvoiceResponse]{}, err
	}
	now := s.now()
	items := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		items[i] = ToInvoiceResponse(&invoices[i], now)
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

func invoiceMoves(invoice *trade.Invoice) []stockMove {
	moves := make([]stockMove, len(invoice.Items))
	for i, item := range invoice.Items {
		moves[i] = stockMove{productID: item.ProductID, quantity: item.Quantity}
	}
	return moves
}
