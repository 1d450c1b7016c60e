package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
)

// CreateCustomerInput contains input for creating a Stripe customer
type CreateCustomerInput struct {
	CompanyID uuid.UUID
	Email     string
	Name      string
}

// CreateCustomerOutput contains the result of creating a Stripe customer
type CreateCustomerOutput struct {
	CustomerID string
	Email      string
	Name       string
	CreatedAt  time.Time
}

// CheckoutSessionInput contains input for a subscription checkout
type CheckoutSessionInput struct {
	CompanyID  uuid.UUID
	CustomerID string
	// PriceID overrides the configured premium price
	PriceID string
}

// PortalSessionInput contains input for a billing portal session
type PortalSessionInput struct {
	CompanyID  uuid.UUID
	CustomerID string
}

// SessionOutput is a hosted Stripe page the user is redirected to
type SessionOutput struct {
	SessionID string
	URL       string
}

// IsActiveSubscription reports whether a subscription status grants premium access
func IsActiveSubscription(status stripe.SubscriptionStatus) bool {
	return status == stripe.SubscriptionStatusActive || status == stripe.SubscriptionStatusTrialing
}

// PeriodEnd converts a Stripe period end to a time pointer; zero means unknown
func PeriodEnd(unix int64) *time.Time {
	if unix <= 0 {
		return nil
	}
	t := time.Unix(unix, 0).UTC()
	return &t
}
