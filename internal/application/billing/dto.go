package billing

import (
	"time"

	"github.com/bizdesk/backend/internal/domain/billing"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionResponse is a hosted payment page the client redirects to
type SessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// SubscriptionResponse describes the billing state of a company
type SubscriptionResponse struct {
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	HasBillingAccount bool       `json:"has_billing_account"`
	BillingEnabled    bool       `json:"billing_enabled"`
	PublishableKey    string     `json:"publishable_key,omitempty"`
}

// TransactionListFilter represents filter options for the billing ledger
type TransactionListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TransactionResponse represents a billing ledger row in API responses
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	StripeInvoiceID string          `json:"stripe_invoice_id,omitempty"`
	Description     string          `json:"description"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToTransactionResponse converts a ledger row to its response
func ToTransactionResponse(tx *billing.BillingTransaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		Type:            string(tx.Type),
		Amount:          tx.Amount,
		Currency:        tx.Currency,
		StripeInvoiceID: tx.StripeInvoiceID,
		Description:     tx.Description,
		CreatedAt:       tx.CreatedAt,
	}
}

func toSubscriptionResponse(c *identity.Company, enabled bool, publishableKey string) SubscriptionResponse {
	return SubscriptionResponse{
		Status:            string(c.SubscriptionStatus),
		CurrentPeriodEnd:  c.CurrentPeriodEnd,
		HasBillingAccount: c.StripeCustomerID != "",
		BillingEnabled:    enabled,
		PublishableKey:    publishableKey,
	}
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}
