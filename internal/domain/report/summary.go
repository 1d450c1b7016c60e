package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period is a closed date range [From, To] evaluated in the company's timezone
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Totals are the headline figures of a summary
type Totals struct {
	SalesTotal        decimal.Decimal `json:"sales_total"`
	PurchasesTotal    decimal.Decimal `json:"purchases_total"`
	GrossMargin       decimal.Decimal `json:"gross_margin"`
	InvoiceCount      int64           `json:"invoice_count"`
	OrderCount        int64           `json:"order_count"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
}

// TopProduct is a best seller by quantity
type TopProduct struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// DailySales is one point of the sales series
type DailySales struct {
	Date         time.Time       `json:"date"`
	Total        decimal.Decimal `json:"total"`
	InvoiceCount int64           `json:"invoice_count"`
}

// Summary is the aggregated business picture for a period
type Summary struct {
	CompanyID     uuid.UUID    `json:"company_id"`
	CompanyName   string       `json:"company_name"`
	Currency      string       `json:"currency"`
	Period        Period       `json:"period"`
	Totals        Totals       `json:"totals"`
	TopProducts   []TopProduct `json:"top_products"`
	DailySales    []DailySales `json:"daily_sales"`
	LowStockCount int64        `json:"low_stock_count"`
	GeneratedAt   time.Time    `json:"generated_at"`
}

// TopProductsLimit caps the best seller list
const TopProductsLimit = 5

// Repository runs the aggregation queries. Cancelled documents never count.
type Repository interface {
	Totals(ctx context.Context, companyID uuid.UUID, p Period) (Totals, error)
	TopProducts(ctx context.Context, companyID uuid.UUID, p Period, limit int) ([]TopProduct, error)
	DailySales(ctx context.Context, companyID uuid.UUID, p Period) ([]DailySales, error)
}

// NewPeriod normalizes a date range to whole days. A zero from defaults to 30
// days before to, and a zero to defaults to today.
func NewPeriod(from, to time.Time, loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	if to.IsZero() {
		to = time.Now().In(loc)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -29)
	}
	if from.After(to) {
		from, to = to, from
	}
	return Period{
		From: startOfDay(from.In(loc)),
		To:   startOfDay(to.In(loc)).AddDate(0, 0, 1).Add(-time.Nanosecond),
	}
}

// Yesterday is the period covering the previous calendar day in loc
func Yesterday(now time.Time, loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	day := now.In(loc).AddDate(0, 0, -1)
	return NewPeriod(day, day, loc)
}

// FillDailySeries returns one entry per day of p, inserting zero days
func FillDailySeries(p Period, points []DailySales) []DailySales {
	byDay := make(map[string]DailySales, len(points))
	for _, pt := range points {
		byDay[pt.Date.Format(time.DateOnly)] = pt
	}
	var out []DailySales
	for d := p.From; !d.After(p.To); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		if pt, ok := byDay[key]; ok {
			pt.Date = d
			out = append(out, pt)
			continue
		}
		out = append(out, DailySales{Date: d, Total: decimal.Zero})
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
