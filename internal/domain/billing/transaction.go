package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a billing ledger row
type TransactionType string

const (
	TransactionCheckoutCompleted     TransactionType = "CHECKOUT_COMPLETED"
	TransactionPaymentSucceeded      TransactionType = "PAYMENT_SUCCEEDED"
	TransactionPaymentFailed         TransactionType = "PAYMENT_FAILED"
	TransactionSubscriptionCancelled TransactionType = "SUBSCRIPTION_CANCELLED"
)

// BillingTransaction is a ledger row derived from a payment provider event
type BillingTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	StripeEventID   string          `gorm:"size:100;not null;uniqueIndex" json:"stripe_event_id"`
	Type            TransactionType `gorm:"size:40;not null" json:"type"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0" json:"amount"`
	Currency        string          `gorm:"size:3" json:"currency"`
	StripeInvoiceID string          `gorm:"size:100" json:"stripe_invoice_id,omitempty"`
	Description     string          `gorm:"size:500" json:"description"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
}

// TableName returns the table name for GORM
func (BillingTransaction) TableName() string {
	return "billing_transactions"
}

// Currencies whose minor unit is not a hundredth, as listed by Stripe
var (
	zeroDecimalCurrencies = map[string]bool{
		"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
		"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
		"vuv": true, "xaf": true, "xof": true, "xpf": true,
	}
	threeDecimalCurrencies = map[string]bool{
		"bhd": true, "jod": true, "kwd": true, "omr": true, "tnd": true,
	}
)

// MinorUnitExponent returns how many decimal places the currency's minor unit has
func MinorUnitExponent(currency string) int32 {
	c := strings.ToLower(currency)
	switch {
	case zeroDecimalCurrencies[c]:
		return 0
	case threeDecimalCurrencies[c]:
		return 3
	default:
		return 2
	}
}

// NewBillingTransaction builds a ledger row. amountMinor is in the currency's
// smallest unit as reported by the provider.
func NewBillingTransaction(companyID uuid.UUID, eventID string, typ TransactionType, amountMinor int64, currency, description string) *BillingTransaction {
	return &BillingTransaction{
		ID:            uuid.New(),
		CompanyID:     companyID,
		StripeEventID: eventID,
		Type:          typ,
		Amount:        decimal.New(amountMinor, -MinorUnitExponent(currency)),
		Currency:      currency,
		Description:   description,
		CreatedAt:     time.Now(),
	}
}
