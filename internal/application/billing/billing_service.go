package billing

import (
	"context"
	"fmt"

	"github.com/bizdesk/backend/internal/domain/billing"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	stripeinfra "github.com/bizdesk/backend/internal/infrastructure/billing"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"
)

// ErrBillingDisabled is returned by every billing operation when Stripe is not configured
var ErrBillingDisabled = shared.NewDomainError("BILLING_DISABLED", "Billing is not enabled")

// Gateway is the payment provider used for subscriptions
type Gateway interface {
	CreateCustomer(ctx context.Context, input stripeinfra.CreateCustomerInput) (*stripeinfra.CreateCustomerOutput, error)
	CreateCheckoutSession(ctx context.Context, input stripeinfra.CheckoutSessionInput) (*stripeinfra.SessionOutput, error)
	CreatePortalSession(ctx context.Context, input stripeinfra.PortalSessionInput) (*stripeinfra.SessionOutput, error)
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

var _ Gateway = (*stripeinfra.StripeAdapter)(nil)

// BillingService handles the premium subscription of a company
type BillingService struct {
	gateway         Gateway
	companyRepo     identity.CompanyRepository
	transactionRepo billing.TransactionRepository
	publishableKey  string
	logger          *zap.Logger
}

// BillingServiceDeps groups the collaborators of BillingService.
// Gateway is nil when billing is disabled.
type BillingServiceDeps struct {
	Gateway         Gateway
	CompanyRepo     identity.CompanyRepository
	TransactionRepo billing.TransactionRepository
	PublishableKey  string
	Logger          *zap.Logger
}

// NewBillingService creates a new BillingService
func NewBillingService(deps BillingServiceDeps) *BillingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingService{
		gateway:         deps.Gateway,
		companyRepo:     deps.CompanyRepo,
		transactionRepo: deps.TransactionRepo,
		publishableKey:  deps.PublishableKey,
		logger:          logger,
	}
}

// Enabled reports whether a payment provider is configured
func (s *BillingService) Enabled() bool {
	return s.gateway != nil
}

// CreateCheckoutSession starts a premium subscription checkout.
// A Stripe customer is created for the company on first use.
func (s *BillingService) CreateCheckoutSession(ctx context.Context, companyID uuid.UUID) (*SessionResponse, error) {
	if !s.Enabled() {
		return nil, ErrBillingDisabled
	}
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company.IsPremium() {
		return nil, shared.NewDomainError("INVALID_STATE", "Company already has a premium subscription")
	}

	if company.StripeCustomerID == "" {
		out, err := s.gateway.CreateCustomer(ctx, stripeinfra.CreateCustomerInput{
			CompanyID: company.ID,
			Email:     company.Email,
			Name:      company.Name,
		})
		if err != nil {
			return nil, err
		}
		company.AttachStripeCustomer(out.CustomerID)
		if err := s.companyRepo.Save(ctx, company); err != nil {
			return nil, fmt.Errorf("failed to store stripe customer: %w", err)
		}
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, stripeinfra.CheckoutSessionInput{
		CompanyID:  company.ID,
		CustomerID: company.StripeCustomerID,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Checkout session created",
		zap.String("company_id", company.ID.String()),
		zap.String("session_id", sess.SessionID))
	return &SessionResponse{SessionID: sess.SessionID, URL: sess.URL}, nil
}

// CreatePortalSession opens the Stripe billing portal for the company's customer
func (s *BillingService) CreatePortalSession(ctx context.Context, companyID uuid.UUID) (*SessionResponse, error) {
	if !s.Enabled() {
		return nil, ErrBillingDisabled
	}
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company.StripeCustomerID == "" {
		return nil, shared.NewDomainError("INVALID_STATE", "Company has no billing account yet")
	}
	sess, err := s.gateway.CreatePortalSession(ctx, stripeinfra.PortalSessionInput{
		CompanyID:  company.ID,
		CustomerID: company.StripeCustomerID,
	})
	if err != nil {
		return nil, err
	}
	return &SessionResponse{SessionID: sess.SessionID, URL: sess.URL}, nil
}

// GetSubscription returns the billing state of a company
func (s *BillingService) GetSubscription(ctx context.Context, companyID uuid.UUID) (*SubscriptionResponse, error) {
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	resp := toSubscriptionResponse(company, s.Enabled(), s.publishableKey)
	return &resp, nil
}

// ListTransactions lists the billing ledger of a company, newest first
func (s *BillingService) ListTransactions(ctx context.Context, companyID uuid.UUID, filter TransactionListFilter) (shared.Paginated[TransactionResponse], error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
	domainFilter.Normalize()

	rows, total, err := s.transactionRepo.FindAll(ctx, companyID, domainFilter)
	if err != nil {
		return shared.Paginated[TransactionResponse]{}, err
	}
	items := make([]TransactionResponse, len(rows))
	for i := range rows {
		items[i] = ToTransactionResponse(&rows[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}
