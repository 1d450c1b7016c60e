package report

import (
	"context"
	"testing"
	"time"

	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/report"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type reportFixture struct {
	reports   *testutil.MockReportRepository
	companies *testutil.MockCompanyRepository
	settings  *testutil.MockSettingsRepository
	products  *testutil.MockProductRepository
	company   *identity.Company
	service   *ReportService
}

func newReportFixture(t *testing.T) *reportFixture {
	company, err := identity.NewCompany("Acme Ltd", "owner@acme.test")
	require.NoError(t, err)
	f := &reportFixture{
		reports:   new(testutil.MockReportRepository),
		companies: new(testutil.MockCompanyRepository),
		settings:  new(testutil.MockSettingsRepository),
		products:  new(testutil.MockProductRepository),
		company:   company,
	}
	f.service = NewReportService(ReportServiceDeps{
		ReportRepo:   f.reports,
		CompanyRepo:  f.companies,
		SettingsRepo: f.settings,
		ProductRepo:  f.products,
		Logger:       zaptest.NewLogger(t),
	})
	f.service.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }
	f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)
	return f
}

// expectAggregates stubs every repository call made while building a summary
func (f *reportFixture) expectAggregates(daily []report.DailySales) {
	f.reports.On("Totals", mock.Anything, f.company.ID, mock.Anything).Return(report.Totals{
		SalesTotal:        decimal.RequireFromString("330.00"),
		PurchasesTotal:    decimal.RequireFromString("120.50"),
		GrossMargin:       decimal.RequireFromString("90.00"),
		InvoiceCount:      3,
		OrderCount:        1,
		PaidAmount:        decimal.RequireFromString("110.00"),
		OutstandingAmount: decimal.RequireFromString("220.00"),
	}, nil)
	f.reports.On("TopProducts", mock.Anything, f.company.ID, mock.Anything, report.TopProductsLimit).Return([]report.TopProduct{
		{ProductID: uuid.New(), ProductName: "Cola", Quantity: 40, Revenue: decimal.RequireFromString("60.00")},
	}, nil)
	f.reports.On("DailySales", mock.Anything, f.company.ID, mock.Anything).Return(daily, nil)
}

func TestReportService_Summary(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)
	settings := identity.NewCompanySettings(f.company.ID)
	settings.Currency = "EUR"
	settings.LowStockThreshold = 8
	f.settings.On("FindByCompany", mock.Anything, f.company.ID).Return(settings, nil)
	f.expectAggregates([]report.DailySales{
		{Date: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC), Total: decimal.RequireFromString("110.00"), InvoiceCount: 1},
	})
	f.products.On("CountLowStock", mock.Anything, f.company.ID, int64(8)).Return(int64(2), nil).Once()

	summary, err := f.service.Summary(ctx, f.company.ID, SummaryQuery{From: "2026-10-01", To: "2026-10-03"})

	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", summary.CompanyName)
	assert.Equal(t, "EUR", summary.Currency)
	assert.Equal(t, int64(2), summary.LowStockCount)
	assert.Equal(t, "330", summary.Totals.SalesTotal.String())
	require.Len(t, summary.DailySales, 3)
	assert.True(t, summary.DailySales[0].Total.IsZero())
	assert.Equal(t, "110", summary.DailySales[1].Total.String())
	assert.Equal(t, "2026-10-03", summary.DailySales[2].Date.Format(time.DateOnly))
	require.Len(t, summary.TopProducts, 1)
	f.products.AssertExpectations(t)
}

func TestReportService_Summary_DefaultPeriod(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)
	f.settings.On("FindByCompany", mock.Anything, f.company.ID).Return(nil, shared.ErrNotFound)
	f.expectAggregates(nil)
	f.products.On("CountLowStock", mock.Anything, f.company.ID, int64(identity.DefaultLowStockThreshold)).Return(int64(0), nil)

	summary, err := f.service.Summary(ctx, f.company.ID, SummaryQuery{})

	require.NoError(t, err)
	assert.Equal(t, "USD", summary.Currency)
	assert.Equal(t, "2026-09-20", summary.Period.From.Format(time.DateOnly))
	assert.Equal(t, "2026-10-19", summary.Period.To.Format(time.DateOnly))
	assert.Len(t, summary.DailySales, 30)
	assert.NotNil(t, summary.TopProducts)
}

func TestReportService_Summary_InvalidDate(t *testing.T) {
	f := newReportFixture(t)
	f.settings.On("FindByCompany", mock.Anything, f.company.ID).Return(nil, shared.ErrNotFound)

	_, err := f.service.Summary(context.Background(), f.company.ID, SummaryQuery{From: "01/10/2026"})

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_DATE", de.Code)
	f.reports.AssertNotCalled(t, "Totals", mock.Anything, mock.Anything, mock.Anything)
}

func TestReportService_DailySummary_UsesCompanyTimezone(t *testing.T) {
	f := newReportFixture(t)
	settings := identity.NewCompanySettings(f.company.ID)
	settings.Timezone = "Asia/Tokyo"
	f.settings.On("FindByCompany", mock.Anything, f.company.ID).Return(settings, nil)
	f.expectAggregates(nil)
	f.products.On("CountLowStock", mock.Anything, f.company.ID, mock.Anything).Return(int64(0), nil)

	// 20:00 UTC on the 18th is already the 19th in Tokyo
	now := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	summary, _, got, err := f.service.DailySummary(context.Background(), f.company.ID, now)

	require.NoError(t, err)
	assert.Same(t, settings, got)
	assert.Equal(t, "2026-10-18", summary.Period.From.Format(time.DateOnly))
	assert.Len(t, summary.DailySales, 1)
}
