package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bizdesk/backend/internal/domain/billing"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	stripeinfra "github.com/bizdesk/backend/internal/infrastructure/billing"
	"github.com/bizdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"
)

// ErrInvalidSignature is returned when the webhook payload cannot be verified
var ErrInvalidSignature = shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")

// processedEventTTL is how long delivered event IDs are remembered.
// Stripe retries for up to three days.
const processedEventTTL = 72 * time.Hour

// StripeWebhookService applies Stripe webhook events to company subscriptions
type StripeWebhookService struct {
	gateway         Gateway
	companyRepo     identity.CompanyRepository
	transactionRepo billing.TransactionRepository
	idempotency     shared.IdempotencyStore
	metrics         *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// StripeWebhookServiceDeps groups the collaborators of StripeWebhookService
type StripeWebhookServiceDeps struct {
	Gateway         Gateway
	CompanyRepo     identity.CompanyRepository
	TransactionRepo billing.TransactionRepository
	Idempotency     shared.IdempotencyStore
	Logger          *zap.Logger
}

// NewStripeWebhookService creates a new StripeWebhookService
func NewStripeWebhookService(deps StripeWebhookServiceDeps) *StripeWebhookService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeWebhookService{
		gateway:         deps.Gateway,
		companyRepo:     deps.CompanyRepo,
		transactionRepo: deps.TransactionRepo,
		idempotency:     deps.Idempotency,
		logger:          logger,
	}
}

// SetBusinessMetrics enables webhook counters
func (s *StripeWebhookService) SetBusinessMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// ProcessWebhook verifies and applies a Stripe webhook event.
// A redelivered event is acknowledged without being applied again. When
// processing fails the event is released so Stripe's retry is handled.
func (s *StripeWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if s.gateway == nil {
		return nil, ErrBillingDisabled
	}
	event, err := s.gateway.ConstructEvent(payload, signature)
	if err != nil {
		s.metrics.RecordWebhookEvent(ctx, "unknown", telemetry.WebhookOutcomeRejected)
		if errors.Is(err, stripeinfra.ErrInvalidSignature) {
			return nil, ErrInvalidSignature
		}
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "StripeWebhookService", "ProcessWebhook",
		"event_id", event.ID, "event_type", string(event.Type))
	defer span.End()

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
		Processed: true,
	}

	fresh, err := s.idempotency.MarkProcessed(ctx, event.ID, processedEventTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check webhook idempotency: %w", err)
	}
	if !fresh {
		s.logger.Info("Duplicate Stripe event ignored",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		s.metrics.RecordWebhookEvent(ctx, string(event.Type), telemetry.WebhookOutcomeDuplicate)
		result.Message = "Event already processed"
		return result, nil
	}

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = s.handleCheckoutCompleted(ctx, event)
	case stripe.EventTypeCustomerSubscriptionUpdated:
		err = s.handleSubscriptionUpdated(ctx, event)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, event)
	case stripe.EventTypeInvoicePaid:
		err = s.handleInvoice(ctx, event, billing.TransactionPaymentSucceeded)
	case stripe.EventTypeInvoicePaymentFailed:
		err = s.handleInvoice(ctx, event, billing.TransactionPaymentFailed)
	default:
		s.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", string(event.Type)))
		result.Message = "Event type not handled"
	}

	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		if releaseErr := s.idempotency.Release(ctx, event.ID); releaseErr != nil {
			s.logger.Warn("Failed to release webhook event", zap.Error(releaseErr))
		}
		s.metrics.RecordWebhookEvent(ctx, string(event.Type), telemetry.WebhookOutcomeFailed)
		result.Processed = false
		result.Message = err.Error()
		return result, err
	}

	s.metrics.RecordWebhookEvent(ctx, string(event.Type), telemetry.WebhookOutcomeProcessed)
	return result, nil
}

// handleCheckoutCompleted upgrades the company referenced by client_reference_id
func (s *StripeWebhookService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	company, err := s.findCompany(ctx, session.ClientReferenceID, customerID)
	if err != nil || company == nil {
		return err
	}

	if customerID != "" && company.StripeCustomerID != customerID {
		company.AttachStripeCustomer(customerID)
	}
	subscriptionID := ""
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}
	company.ActivatePremium(subscriptionID, nil)
	if err := s.companyRepo.Save(ctx, company); err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}

	s.logger.Info("Company upgraded to premium",
		zap.String("company_id", company.ID.String()),
		zap.String("subscription_id", subscriptionID))

	tx := billing.NewBillingTransaction(company.ID, event.ID, billing.TransactionCheckoutCompleted,
		session.AmountTotal, string(session.Currency), "Premium subscription checkout")
	return s.record(ctx, tx)
}

// handleSubscriptionUpdated keeps the plan in line with the subscription status
func (s *StripeWebhookService) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	company, err := s.findCompany(ctx, subscription.Metadata["company_id"], subscriptionCustomer(&subscription))
	if err != nil || company == nil {
		return err
	}

	if stripeinfra.IsActiveSubscription(subscription.Status) {
		company.ActivatePremium(subscription.ID, stripeinfra.PeriodEnd(subscription.CurrentPeriodEnd))
	} else {
		s.logger.Warn("Subscription no longer active",
			zap.String("company_id", company.ID.String()),
			zap.String("status", string(subscription.Status)))
		company.DowngradeToFree(false)
	}
	if err := s.companyRepo.Save(ctx, company); err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}

// handleSubscriptionDeleted returns the company to the free plan
func (s *StripeWebhookService) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	company, err := s.findCompany(ctx, subscription.Metadata["company_id"], subscriptionCustomer(&subscription))
	if err != nil || company == nil {
		return err
	}

	company.DowngradeToFree(true)
	if err := s.companyRepo.Save(ctx, company); err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}

	s.logger.Info("Company downgraded to free",
		zap.String("company_id", company.ID.String()),
		zap.String("subscription_id", subscription.ID))

	tx := billing.NewBillingTransaction(company.ID, event.ID, billing.TransactionSubscriptionCancelled,
		0, string(subscription.Currency), "Premium subscription cancelled")
	return s.record(ctx, tx)
}

// handleInvoice records a subscription payment outcome in the ledger
func (s *StripeWebhookService) handleInvoice(ctx context.Context, event stripe.Event, typ billing.TransactionType) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("failed to unmarshal invoice: %w", err)
	}

	customerID := ""
	if invoice.Customer != nil {
		customerID = invoice.Customer.ID
	}
	companyRef := ""
	if invoice.SubscriptionDetails != nil {
		companyRef = invoice.SubscriptionDetails.Metadata["company_id"]
	}
	company, err := s.findCompany(ctx, companyRef, customerID)
	if err != nil || company == nil {
		return err
	}

	amount, description := invoice.AmountPaid, "Premium subscription payment"
	if typ == billing.TransactionPaymentFailed {
		amount, description = invoice.AmountDue, "Premium subscription payment failed"
		s.logger.Warn("Subscription payment failed",
			zap.String("company_id", company.ID.String()),
			zap.String("invoice_id", invoice.ID))
	}
	tx := billing.NewBillingTransaction(company.ID, event.ID, typ, amount, string(invoice.Currency), description)
	tx.StripeInvoiceID = invoice.ID
	return s.record(ctx, tx)
}

// findCompany resolves the company an event belongs to, first by the company
// id carried in metadata and then by the Stripe customer. A nil company with
// a nil error means the event is not ours and is acknowledged.
func (s *StripeWebhookService) findCompany(ctx context.Context, companyRef, customerID string) (*identity.Company, error) {
	if id, err := uuid.Parse(companyRef); err == nil {
		company, err := s.companyRepo.FindByID(ctx, id)
		if err == nil {
			return company, nil
		}
		if !shared.IsNotFound(err) {
			return nil, fmt.Errorf("failed to find company: %w", err)
		}
	}
	if customerID != "" {
		company, err := s.companyRepo.FindByStripeCustomerID(ctx, customerID)
		if err == nil {
			return company, nil
		}
		if !shared.IsNotFound(err) {
			return nil, fmt.Errorf("failed to find company: %w", err)
		}
	}
	s.logger.Warn("Company not found for Stripe event",
		zap.String("company_ref", companyRef),
		zap.String("customer_id", customerID))
	return nil, nil
}

// record appends a ledger row unless the event was already booked
func (s *StripeWebhookService) record(ctx context.Context, tx *billing.BillingTransaction) error {
	exists, err := s.transactionRepo.ExistsByEventID(ctx, tx.StripeEventID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		return fmt.Errorf("failed to record billing transaction: %w", err)
	}
	return nil
}

func subscriptionCustomer(sub *stripe.Subscription) string {
	if sub.Customer == nil {
		return ""
	}
	return sub.Customer.ID
}
