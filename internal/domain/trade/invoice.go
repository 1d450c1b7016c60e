package trade

import (
	"strings"
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of a sales invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid    InvoiceStatus = "UNPAID"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid reports whether the status is known
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusUnpaid, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// Invoice is a sale to a customer. Goods leave stock when the invoice is created.
type Invoice struct {
	shared.CompanyAggregateRoot
	Number       string          `gorm:"size:30;not null" json:"number"`
	CustomerID   *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	CustomerName string          `gorm:"size:200" json:"customer_name"`
	IssueDate    time.Time       `gorm:"type:date;not null;index" json:"issue_date"`
	DueDate      time.Time       `gorm:"type:date;not null" json:"due_date"`
	Status       InvoiceStatus   `gorm:"size:20;not null;index" json:"status"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	TaxRate      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	TaxAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	Discount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount"`
	Total        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"`
	Notes        string          `gorm:"type:text" json:"notes"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
	Items        []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceItem is a single sold line
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName string          `gorm:"size:200;not null" json:"product_name"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_total"`
}

// TableName returns the table name for GORM
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// InvoiceTerms are the header values of a new invoice
type InvoiceTerms struct {
	IssueDate time.Time
	DueDate   time.Time
	TaxRate   decimal.Decimal
	Discount  decimal.Decimal
	Notes     string
}

// NewInvoice creates an unpaid invoice and computes its totals.
// Tax applies to the discounted subtotal and is rounded to cents.
func NewInvoice(companyID uuid.UUID, number string, lines []Line, terms InvoiceTerms) (*Invoice, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_ITEMS", "Invoice must have at least one item")
	}
	if terms.IssueDate.IsZero() {
		terms.IssueDate = time.Now()
	}
	if terms.DueDate.IsZero() {
		terms.DueDate = terms.IssueDate
	}
	if terms.DueDate.Before(dateOnly(terms.IssueDate)) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}
	if terms.TaxRate.IsNegative() || terms.TaxRate.GreaterThan(hundred) {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 100")
	}
	if terms.Discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}

	inv := &Invoice{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Number:               number,
		IssueDate:            terms.IssueDate,
		DueDate:              terms.DueDate,
		Status:               InvoiceStatusUnpaid,
		TaxRate:              terms.TaxRate,
		Discount:             terms.Discount,
		Notes:                strings.TrimSpace(terms.Notes),
		Subtotal:             decimal.Zero,
	}
	for _, l := range lines {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		item := InvoiceItem{
			ID:          uuid.New(),
			InvoiceID:   inv.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.Total(),
		}
		inv.Items = append(inv.Items, item)
		inv.Subtotal = inv.Subtotal.Add(item.LineTotal)
	}
	if inv.Discount.GreaterThan(inv.Subtotal) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the subtotal")
	}

	taxable := inv.Subtotal.Sub(inv.Discount)
	inv.TaxAmount = taxable.Mul(inv.TaxRate).Div(hundred).Round(2)
	inv.Total = taxable.Add(inv.TaxAmount)
	return inv, nil
}

// SetCustomer records the customer and snapshots its name
func (i *Invoice) SetCustomer(id uuid.UUID, name string) {
	i.CustomerID = &id
	i.CustomerName = name
}

// MarkPaid moves an unpaid invoice to PAID
func (i *Invoice) MarkPaid() error {
	if i.Status != InvoiceStatusUnpaid {
		return shared.NewDomainError("INVALID_STATE", "Only unpaid invoices can be marked as paid")
	}
	now := time.Now()
	i.Status = InvoiceStatusPaid
	i.PaidAt = &now
	i.IncrementVersion()
	return nil
}

// Cancel voids the invoice. Restocking is the caller's job.
func (i *Invoice) Cancel() error {
	if i.Status == InvoiceStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already cancelled")
	}
	now := time.Now()
	i.Status = InvoiceStatusCancelled
	i.CancelledAt = &now
	i.IncrementVersion()
	return nil
}

// IsOverdue reports whether an unpaid invoice is past its due date
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == InvoiceStatusUnpaid && dateOnly(now).After(dateOnly(i.DueDate))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
