package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewBillingTransaction(t *testing.T) {
	companyID := uuid.New()

	tx := NewBillingTransaction(companyID, "evt_1", TransactionPaymentSucceeded, 1999, "usd", "Premium plan")

	assert.Equal(t, companyID, tx.CompanyID)
	assert.Equal(t, "evt_1", tx.StripeEventID)
	assert.True(t, decimal.RequireFromString("19.99").Equal(tx.Amount))
	assert.NotEqual(t, uuid.Nil, tx.ID)
}

func TestNewBillingTransaction_CurrencyExponent(t *testing.T) {
	tests := []struct {
		currency string
		minor    int64
		want     string
	}{
		{"usd", 1999, "19.99"},
		{"EUR", 500, "5.00"},
		{"jpy", 1500, "1500"},
		{"KRW", 12000, "12000"},
		{"kwd", 12345, "12.345"},
		{"bhd", 1000, "1.000"},
	}

	for _, tt := range tests {
		t.Run(tt.currency, func(t *testing.T) {
			tx := NewBillingTransaction(uuid.New(), "evt_"+tt.currency, TransactionPaymentSucceeded, tt.minor, tt.currency, "Premium plan")
			assert.True(t, decimal.RequireFromString(tt.want).Equal(tx.Amount), "got %s", tx.Amount)
		})
	}
}
