package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bizdesk/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func januaryPeriod() report.Period {
	return report.Period{
		From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestGormReportRepository_Totals(t *testing.T) {
	t.Run("combines invoice, order and cost aggregates", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormReportRepository(db)
		companyID := uuid.New()

		mock.ExpectQuery(`(?s)SELECT COALESCE\(SUM\(total\), 0\) AS sales_total.*FROM "invoices" WHERE company_id = \$3 AND status <> \$4 AND issue_date BETWEEN \$5 AND \$6`).
			WithArgs("PAID", "UNPAID", companyID, "CANCELLED", "2026-01-01", "2026-01-31").
			WillReturnRows(sqlmock.NewRows([]string{"sales_total", "net_sales", "invoice_count", "paid_amount", "outstanding_amount"}).
				AddRow("1100.00", "1000.00", 3, "600.00", "500.00"))
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(total\), 0\) AS purchases_total, COUNT\(\*\) AS order_count FROM "orders" WHERE company_id = \$1 AND status <> \$2 AND order_date BETWEEN \$3 AND \$4`).
			WithArgs(companyID, "CANCELLED", "2026-01-01", "2026-01-31").
			WillReturnRows(sqlmock.NewRows([]string{"purchases_total", "order_count"}).AddRow("400.00", 2))
		mock.ExpectQuery(`(?s)SELECT COALESCE\(SUM\(ii.quantity \* p.purchase_price\), 0\) AS cost FROM invoice_items AS ii JOIN invoices i ON i.id = ii.invoice_id JOIN products p ON p.id = ii.product_id WHERE i.company_id = \$1`).
			WithArgs(companyID, "CANCELLED", "2026-01-01", "2026-01-31").
			WillReturnRows(sqlmock.NewRows([]string{"cost"}).AddRow("650.00"))

		totals, err := repo.Totals(context.Background(), companyID, januaryPeriod())

		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("1100").Equal(totals.SalesTotal))
		assert.True(t, decimal.RequireFromString("400").Equal(totals.PurchasesTotal))
		assert.True(t, decimal.RequireFromString("350").Equal(totals.GrossMargin), totals.GrossMargin.String())
		assert.Equal(t, int64(3), totals.InvoiceCount)
		assert.Equal(t, int64(2), totals.OrderCount)
		assert.True(t, decimal.RequireFromString("600").Equal(totals.PaidAmount))
		assert.True(t, decimal.RequireFromString("500").Equal(totals.OutstandingAmount))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps aggregate errors", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormReportRepository(db)

		mock.ExpectQuery(`FROM "invoices"`).WillReturnError(errors.New("canceling statement"))

		_, err := repo.Totals(context.Background(), uuid.New(), januaryPeriod())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to aggregate invoices")
	})
}

func TestGormReportRepository_TopProducts(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormReportRepository(db)
	companyID := uuid.New()
	widget, gadget := uuid.New(), uuid.New()

	mock.ExpectQuery(`(?s)SELECT ii.product_id AS product_id.*FROM invoice_items AS ii JOIN invoices i ON i.id = ii.invoice_id WHERE .* GROUP BY "?ii"?\."?product_id"? ORDER BY quantity DESC, revenue DESC LIMIT \$5`).
		WithArgs(companyID, "CANCELLED", "2026-01-01", "2026-01-31", 5).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "product_name", "quantity", "revenue"}).
			AddRow(widget, "Widget", 40, "800.00").
			AddRow(gadget, "Gadget", 12, "360.00"))

	top, err := repo.TopProducts(context.Background(), companyID, januaryPeriod(), 5)

	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, widget, top[0].ProductID)
	assert.Equal(t, "Widget", top[0].ProductName)
	assert.Equal(t, int64(40), top[0].Quantity)
	assert.True(t, decimal.RequireFromString("800").Equal(top[0].Revenue))
	assert.Equal(t, gadget, top[1].ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReportRepository_DailySales(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormReportRepository(db)
	companyID := uuid.New()
	day1 := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT issue_date AS date, SUM\(total\) AS total, COUNT\(\*\) AS invoice_count FROM "invoices" WHERE company_id = \$1 AND status <> \$2 AND issue_date BETWEEN \$3 AND \$4 GROUP BY "?issue_date"? ORDER BY issue_date ASC`).
		WithArgs(companyID, "CANCELLED", "2026-01-01", "2026-01-31").
		WillReturnRows(sqlmock.NewRows([]string{"date", "total", "invoice_count"}).
			AddRow(day1, "250.00", 2).
			AddRow(day2, "90.50", 1))

	series, err := repo.DailySales(context.Background(), companyID, januaryPeriod())

	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.True(t, day1.Equal(series[0].Date))
	assert.True(t, decimal.RequireFromString("250").Equal(series[0].Total))
	assert.Equal(t, int64(2), series[0].InvoiceCount)
	assert.True(t, day2.Equal(series[1].Date))
	assert.NoError(t, mock.ExpectationsWereMet())
}
