package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/bizdesk/backend/internal/domain/billing"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	stripeinfra "github.com/bizdesk/backend/internal/infrastructure/billing"
	"github.com/bizdesk/backend/internal/infrastructure/cache"
	"github.com/bizdesk/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap/zaptest"
)

type webhookFixture struct {
	gateway      *fakeGateway
	companies    *testutil.MockCompanyRepository
	transactions *testutil.MockBillingTransactionRepository
	store        *cache.InMemoryIdempotencyStore
	service      *StripeWebhookService
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	f := &webhookFixture{
		gateway:      &fakeGateway{},
		companies:    new(testutil.MockCompanyRepository),
		transactions: new(testutil.MockBillingTransactionRepository),
		store:        cache.NewInMemoryIdempotencyStore(),
	}
	t.Cleanup(func() { _ = f.store.Close() })
	f.service = NewStripeWebhookService(StripeWebhookServiceDeps{
		Gateway:         f.gateway,
		CompanyRepo:     f.companies,
		TransactionRepo: f.transactions,
		Idempotency:     f.store,
		Logger:          zaptest.NewLogger(t),
	})
	return f
}

func stripeEvent(id string, typ stripe.EventType, raw string) stripe.Event {
	return stripe.Event{ID: id, Type: typ, Data: &stripe.EventData{Raw: json.RawMessage(raw)}}
}

func TestStripeWebhookService_CheckoutCompleted(t *testing.T) {
	f := newWebhookFixture(t)
	company := newCompany(t)
	f.gateway.event = stripeEvent("evt_checkout", stripe.EventTypeCheckoutSessionCompleted, fmt.Sprintf(
		`{"id":"cs_1","client_reference_id":%q,"customer":"cus_9","subscription":"sub_9","amount_total":1900,"currency":"usd"}`,
		company.ID.String()))

	f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil).Once()
	f.companies.On("Save", mock.Anything, company).Return(nil).Once()
	f.transactions.On("ExistsByEventID", mock.Anything, "evt_checkout").Return(false, nil).Once()
	var booked *billing.BillingTransaction
	f.transactions.On("Create", mock.Anything, mock.AnythingOfType("*billing.BillingTransaction")).
		Run(func(args mock.Arguments) { booked = args.Get(1).(*billing.BillingTransaction) }).
		Return(nil).Once()

	result, err := f.service.ProcessWebhook(context.Background(), []byte("{}"), "sig")

	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.Equal(t, identity.SubscriptionPremium, company.SubscriptionStatus)
	assert.Equal(t, "cus_9", company.StripeCustomerID)
	assert.Equal(t, "sub_9", company.StripeSubscriptionID)
	require.NotNil(t, booked)
	assert.Equal(t, billing.TransactionCheckoutCompleted, booked.Type)
	assert.Equal(t, "19", booked.Amount.String())
	assert.Equal(t, company.ID, booked.CompanyID)

	t.Run("redelivery is acknowledged without changes", func(t *testing.T) {
		result, err := f.service.ProcessWebhook(context.Background(), []byte("{}"), "sig")

		require.NoError(t, err)
		assert.True(t, result.Processed)
		assert.Equal(t, "Event already processed", result.Message)
		f.companies.AssertNumberOfCalls(t, "Save", 1)
		f.transactions.AssertNumberOfCalls(t, "Create", 1)
	})
}

func TestStripeWebhookService_SubscriptionUpdated(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   identity.SubscriptionStatus
	}{
		{name: "active", status: "active", want: identity.SubscriptionPremium},
		{name: "trialing", status: "trialing", want: identity.SubscriptionPremium},
		{name: "past due", status: "past_due", want: identity.SubscriptionFree},
		{name: "canceled", status: "canceled", want: identity.SubscriptionFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWebhookFixture(t)
			company := newCompany(t)
			company.AttachStripeCustomer("cus_1")
			f.gateway.event = stripeEvent("evt_"+tt.status, stripe.EventTypeCustomerSubscriptionUpdated, fmt.Sprintf(
				`{"id":"sub_1","customer":"cus_1","status":%q,"current_period_end":1893456000}`, tt.status))
			f.companies.On("FindByStripeCustomerID", mock.Anything, "cus_1").Return(company, nil).Once()
			f.companies.On("Save", mock.Anything, company).Return(nil).Once()

			_, err := f.service.ProcessWebhook(context.Background(), nil, "sig")

			require.NoError(t, err)
			assert.Equal(t, tt.want, company.SubscriptionStatus)
			if tt.want == identity.SubscriptionPremium {
				require.NotNil(t, company.CurrentPeriodEnd)
				assert.Equal(t, int64(1893456000), company.CurrentPeriodEnd.Unix())
				assert.Equal(t, "sub_1", company.StripeSubscriptionID)
			}
			f.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestStripeWebhookService_SubscriptionDeleted(t *testing.T) {
	f := newWebhookFixture(t)
	company := newCompany(t)
	company.AttachStripeCustomer("cus_1")
	company.ActivatePremium("sub_1", nil)
	f.gateway.event = stripeEvent("evt_deleted", stripe.EventTypeCustomerSubscriptionDeleted, fmt.Sprintf(
		`{"id":"sub_1","customer":"cus_1","status":"canceled","metadata":{"company_id":%q}}`, company.ID.String()))

	f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil).Once()
	f.companies.On("Save", mock.Anything, company).Return(nil).Once()
	f.transactions.On("ExistsByEventID", mock.Anything, "evt_deleted").Return(false, nil).Once()
	f.transactions.On("Create", mock.Anything, mock.MatchedBy(func(tx *billing.BillingTransaction) bool {
		return tx.Type == billing.TransactionSubscriptionCancelled && tx.Amount.IsZero()
	})).Return(nil).Once()

	_, err := f.service.ProcessWebhook(context.Background(), nil, "sig")

	require.NoError(t, err)
	assert.Equal(t, identity.SubscriptionFree, company.SubscriptionStatus)
	assert.Empty(t, company.StripeSubscriptionID)
	f.transactions.AssertExpectations(t)
}

func TestStripeWebhookService_InvoiceEvents(t *testing.T) {
	tests := []struct {
		name   string
		typ    stripe.EventType
		want   billing.TransactionType
		amount string
	}{
		{name: "paid", typ: stripe.EventTypeInvoicePaid, want: billing.TransactionPaymentSucceeded, amount: "19"},
		{name: "payment failed", typ: stripe.EventTypeInvoicePaymentFailed, want: billing.TransactionPaymentFailed, amount: "25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWebhookFixture(t)
			company := newCompany(t)
			f.gateway.event = stripeEvent("evt_inv", tt.typ,
				`{"id":"in_1","customer":"cus_1","amount_paid":1900,"amount_due":2500,"currency":"eur"}`)
			f.companies.On("FindByStripeCustomerID", mock.Anything, "cus_1").Return(company, nil).Once()
			f.transactions.On("ExistsByEventID", mock.Anything, "evt_inv").Return(false, nil).Once()
			var booked *billing.BillingTransaction
			f.transactions.On("Create", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { booked = args.Get(1).(*billing.BillingTransaction) }).
				Return(nil).Once()

			_, err := f.service.ProcessWebhook(context.Background(), nil, "sig")

			require.NoError(t, err)
			require.NotNil(t, booked)
			assert.Equal(t, tt.want, booked.Type)
			assert.Equal(t, tt.amount, booked.Amount.String())
			assert.Equal(t, "eur", booked.Currency)
			assert.Equal(t, "in_1", booked.StripeInvoiceID)
			f.companies.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestStripeWebhookService_UnknownCompany(t *testing.T) {
	f := newWebhookFixture(t)
	f.gateway.event = stripeEvent("evt_stranger", stripe.EventTypeInvoicePaid,
		`{"id":"in_1","customer":"cus_unknown","amount_paid":100,"currency":"usd"}`)
	f.companies.On("FindByStripeCustomerID", mock.Anything, "cus_unknown").Return(nil, shared.ErrNotFound).Once()

	result, err := f.service.ProcessWebhook(context.Background(), nil, "sig")

	require.NoError(t, err)
	assert.True(t, result.Processed)
	f.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestStripeWebhookService_FailureReleasesEvent(t *testing.T) {
	f := newWebhookFixture(t)
	company := newCompany(t)
	f.gateway.event = stripeEvent("evt_retry", stripe.EventTypeInvoicePaid,
		`{"id":"in_1","customer":"cus_1","amount_paid":100,"currency":"usd"}`)
	f.companies.On("FindByStripeCustomerID", mock.Anything, "cus_1").Return(company, nil)
	f.transactions.On("ExistsByEventID", mock.Anything, "evt_retry").Return(false, nil)
	f.transactions.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	result, err := f.service.ProcessWebhook(context.Background(), nil, "sig")

	require.Error(t, err)
	assert.False(t, result.Processed)
	processed, err := f.store.IsProcessed(context.Background(), "evt_retry")
	require.NoError(t, err)
	assert.False(t, processed)

	f.transactions.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	result, err = f.service.ProcessWebhook(context.Background(), nil, "sig")
	require.NoError(t, err)
	assert.True(t, result.Processed)
	f.transactions.AssertNumberOfCalls(t, "Create", 2)
}

func TestStripeWebhookService_Rejections(t *testing.T) {
	t.Run("invalid signature", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.gateway.eventErr = fmt.Errorf("%w: bad header", stripeinfra.ErrInvalidSignature)

		_, err := f.service.ProcessWebhook(context.Background(), nil, "bad")

		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("billing disabled", func(t *testing.T) {
		svc := NewStripeWebhookService(StripeWebhookServiceDeps{})

		_, err := svc.ProcessWebhook(context.Background(), nil, "sig")

		assert.ErrorIs(t, err, ErrBillingDisabled)
	})

	t.Run("unhandled type", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.gateway.event = stripeEvent("evt_other", "customer.created", `{}`)

		result, err := f.service.ProcessWebhook(context.Background(), nil, "sig")

		require.NoError(t, err)
		assert.Equal(t, "Event type not handled", result.Message)
	})
}
