// Package billing wraps the Stripe API used for premium subscriptions.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizdesk/backend/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
	portalsession "github.com/stripe/stripe-go/v81/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// ErrInvalidSignature is returned when a webhook payload fails verification
var ErrInvalidSignature = errors.New("stripe: invalid webhook signature")

// StripeAdapter implements the outbound Stripe calls and webhook verification
type StripeAdapter struct {
	config config.StripeConfig
	logger *zap.Logger
}

// NewStripeAdapter creates a new Stripe adapter and sets the global API key
func NewStripeAdapter(cfg config.StripeConfig, logger *zap.Logger) (*StripeAdapter, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("stripe: webhook secret is required")
	}
	if cfg.PremiumPriceID == "" {
		return nil, errors.New("stripe: premium price id is required")
	}

	stripe.Key = cfg.SecretKey

	return &StripeAdapter{
		config: cfg,
		logger: logger,
	}, nil
}

// CreateCustomer creates a new customer in Stripe for a company
func (a *StripeAdapter) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*CreateCustomerOutput, error) {
	a.logger.Debug("Creating Stripe customer",
		zap.String("company_id", input.CompanyID.String()),
		zap.String("email", input.Email))

	params := &stripe.CustomerParams{
		Email: stripe.String(input.Email),
		Name:  stripe.String(input.Name),
	}
	params.Context = ctx
	params.AddMetadata("company_id", input.CompanyID.String())

	cust, err := customer.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe customer",
			zap.String("company_id", input.CompanyID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create customer: %w", err)
	}

	a.logger.Info("Created Stripe customer",
		zap.String("company_id", input.CompanyID.String()),
		zap.String("customer_id", cust.ID))

	return &CreateCustomerOutput{
		CustomerID: cust.ID,
		Email:      cust.Email,
		Name:       cust.Name,
		CreatedAt:  time.Unix(cust.Created, 0),
	}, nil
}

// CreateCheckoutSession creates a subscription-mode Checkout Session.
// client_reference_id carries the company id back in checkout.session.completed.
func (a *StripeAdapter) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*SessionOutput, error) {
	priceID := input.PriceID
	if priceID == "" {
		priceID = a.config.PremiumPriceID
	}
	companyID := input.CompanyID.String()

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:          stripe.String(input.CustomerID),
		ClientReferenceID: stripe.String(companyID),
		SuccessURL:        stripe.String(a.config.SuccessURL),
		CancelURL:         stripe.String(a.config.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"company_id": companyID},
		},
	}
	params.Context = ctx
	params.AddMetadata("company_id", companyID)

	sess, err := checkoutsession.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe checkout session",
			zap.String("company_id", companyID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	a.logger.Info("Created Stripe checkout session",
		zap.String("company_id", companyID),
		zap.String("session_id", sess.ID))

	return &SessionOutput{SessionID: sess.ID, URL: sess.URL}, nil
}

// CreatePortalSession creates a billing portal session for an existing customer
func (a *StripeAdapter) CreatePortalSession(ctx context.Context, input PortalSessionInput) (*SessionOutput, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(input.CustomerID),
		ReturnURL: stripe.String(a.config.PortalReturnURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe portal session",
			zap.String("company_id", input.CompanyID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create portal session: %w", err)
	}

	return &SessionOutput{SessionID: sess.ID, URL: sess.URL}, nil
}

// ConstructEvent verifies the Stripe-Signature header and decodes the event.
// API version mismatches are tolerated; payload fields are decoded leniently.
func (a *StripeAdapter) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, a.config.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		a.logger.Warn("Rejected Stripe webhook", zap.Error(err))
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}
