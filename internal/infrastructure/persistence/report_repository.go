package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/bizdesk/backend/internal/domain/report"
	"github.com/bizdesk/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReportRepository runs report aggregations in SQL
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

type invoiceTotalsRow struct {
	SalesTotal        decimal.Decimal
	NetSales          decimal.Decimal
	InvoiceCount      int64
	PaidAmount        decimal.Decimal
	OutstandingAmount decimal.Decimal
}

type orderTotalsRow struct {
	PurchasesTotal decimal.Decimal
	OrderCount     int64
}

// costRow wraps the single aggregate so GORM maps it by column name
type costRow struct {
	Cost decimal.Decimal
}

// Totals computes headline figures. Gross margin is net sales (after discount,
// before tax) minus the cost of the goods sold at current purchase prices.
func (r *GormReportRepository) Totals(ctx context.Context, companyID uuid.UUID, p report.Period) (report.Totals, error) {
	from, to := periodBounds(p)
	db := r.db.WithContext(ctx)

	var inv invoiceTotalsRow
	if err := db.Model(&trade.Invoice{}).
		Select(`COALESCE(SUM(total), 0) AS sales_total,
			COALESCE(SUM(subtotal - discount), 0) AS net_sales,
			COUNT(*) AS invoice_count,
			COALESCE(SUM(CASE WHEN status = ? THEN total ELSE 0 END), 0) AS paid_amount,
			COALESCE(SUM(CASE WHEN status = ? THEN total ELSE 0 END), 0) AS outstanding_amount`,
			trade.InvoiceStatusPaid, trade.InvoiceStatusUnpaid).
		Where("company_id = ? AND status <> ? AND issue_date BETWEEN ? AND ?",
			companyID, trade.InvoiceStatusCancelled, from, to).
		Scan(&inv).Error; err != nil {
		return report.Totals{}, fmt.Errorf("failed to aggregate invoices: %w", err)
	}

	var ord orderTotalsRow
	if err := db.Model(&trade.Order{}).
		Select("COALESCE(SUM(total), 0) AS purchases_total, COUNT(*) AS order_count").
		Where("company_id = ? AND status <> ? AND order_date BETWEEN ? AND ?",
			companyID, trade.OrderStatusCancelled, from, to).
		Scan(&ord).Error; err != nil {
		return report.Totals{}, fmt.Errorf("failed to aggregate orders: %w", err)
	}

	var cogs costRow
	if err := db.Table("invoice_items AS ii").
		Select("COALESCE(SUM(ii.quantity * p.purchase_price), 0) AS cost").
		Joins("JOIN invoices i ON i.id = ii.invoice_id").
		Joins("JOIN products p ON p.id = ii.product_id").
		Where("i.company_id = ? AND i.status <> ? AND i.issue_date BETWEEN ? AND ?",
			companyID, trade.InvoiceStatusCancelled, from, to).
		Scan(&cogs).Error; err != nil {
		return report.Totals{}, fmt.Errorf("failed to aggregate cost of goods: %w", err)
	}

	return report.Totals{
		SalesTotal:        inv.SalesTotal,
		PurchasesTotal:    ord.PurchasesTotal,
		GrossMargin:       inv.NetSales.Sub(cogs.Cost),
		InvoiceCount:      inv.InvoiceCount,
		OrderCount:        ord.OrderCount,
		PaidAmount:        inv.PaidAmount,
		OutstandingAmount: inv.OutstandingAmount,
	}, nil
}

// TopProducts ranks products by quantity sold
func (r *GormReportRepository) TopProducts(ctx context.Context, companyID uuid.UUID, p report.Period, limit int) ([]report.TopProduct, error) {
	from, to := periodBounds(p)

	var rows []report.TopProduct
	if err := r.db.WithContext(ctx).Table("invoice_items AS ii").
		Select(`ii.product_id AS product_id,
			MAX(ii.product_name) AS product_name,
			SUM(ii.quantity) AS quantity,
			SUM(ii.line_total) AS revenue`).
		Joins("JOIN invoices i ON i.id = ii.invoice_id").
		Where("i.company_id = ? AND i.status <> ? AND i.issue_date BETWEEN ? AND ?",
			companyID, trade.InvoiceStatusCancelled, from, to).
		Group("ii.product_id").
		Order("quantity DESC, revenue DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}
	return rows, nil
}

// DailySales returns per-day invoice totals. Days without sales are absent.
func (r *GormReportRepository) DailySales(ctx context.Context, companyID uuid.UUID, p report.Period) ([]report.DailySales, error) {
	from, to := periodBounds(p)

	var rows []report.DailySales
	if err := r.db.WithContext(ctx).Model(&trade.Invoice{}).
		Select("issue_date AS date, SUM(total) AS total, COUNT(*) AS invoice_count").
		Where("company_id = ? AND status <> ? AND issue_date BETWEEN ? AND ?",
			companyID, trade.InvoiceStatusCancelled, from, to).
		Group("issue_date").
		Order("issue_date ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate daily sales: %w", err)
	}
	return rows, nil
}

// periodBounds renders the period as inclusive calendar dates
func periodBounds(p report.Period) (string, string) {
	return p.From.Format(time.DateOnly), p.To.Format(time.DateOnly)
}

// Ensure GormReportRepository implements report.Repository
var _ report.Repository = (*GormReportRepository)(nil)
