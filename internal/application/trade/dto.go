package trade

import (
	"fmt"
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineRequest is a requested document line. A missing unit price falls back
// to the product's purchase price (orders) or sale price (invoices).
type LineRequest struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  int64            `json:"quantity" binding:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest represents a request to record a received purchase order
type CreateOrderRequest struct {
	SupplierID *uuid.UUID    `json:"supplier_id"`
	OrderDate  string        `json:"order_date" binding:"omitempty,datetime=2006-01-02"`
	Notes      string        `json:"notes" binding:"max=2000"`
	Items      []LineRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateInvoiceRequest represents a request to issue an invoice
type CreateInvoiceRequest struct {
	CustomerID *uuid.UUID       `json:"customer_id"`
	IssueDate  string           `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
	DueDate    string           `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	TaxRate    *decimal.Decimal `json:"tax_rate"`
	Discount   decimal.Decimal  `json:"discount"`
	Notes      string           `json:"notes" binding:"max=2000"`
	Items      []LineRequest    `json:"items" binding:"required,min=1,dive"`
}

// DocumentListFilter represents filter options for order and invoice lists
type DocumentListFilter struct {
	Search    string     `form:"search"`
	Status    string     `form:"status"`
	PartnerID *uuid.UUID `form:"partner_id"`
	Overdue   bool       `form:"overdue"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f DocumentListFilter) toDomain() trade.DocumentFilter {
	filter := trade.DocumentFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
			From:     f.From,
			To:       f.To,
		},
		Status:    f.Status,
		PartnerID: f.PartnerID,
	}
	filter.Normalize()
	if f.Overdue {
		filter.Filters["overdue"] = true
	}
	return filter
}

// ItemResponse represents a document line in API responses
type ItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderResponse represents a purchase order in API responses
type OrderResponse struct {
	ID           uuid.UUID       `json:"id"`
	Number       string          `json:"number"`
	SupplierID   *uuid.UUID      `json:"supplier_id,omitempty"`
	SupplierName string          `json:"supplier_name"`
	OrderDate    string          `json:"order_date"`
	Status       string          `json:"status"`
	Notes        string          `json:"notes"`
	Total        decimal.Decimal `json:"total"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
	Items        []ItemResponse  `json:"items,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	Version      int             `json:"version"`
}

// ToOrderResponse converts a domain order to its response
func ToOrderResponse(o *trade.Order) OrderResponse {
	resp := OrderResponse{
		ID:           o.ID,
		Number:       o.Number,
		SupplierID:   o.SupplierID,
		SupplierName: o.SupplierName,
		OrderDate:    o.OrderDate.Format(time.DateOnly),
		Status:       string(o.Status),
		Notes:        o.Notes,
		Total:        o.Total,
		CancelledAt:  o.CancelledAt,
		CreatedAt:    o.CreatedAt,
		Version:      o.Version,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, ItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitCost,
			LineTotal:   item.LineTotal,
		})
	}
	return resp
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID           uuid.UUID       `json:"id"`
	Number       string          `json:"number"`
	CustomerID   *uuid.UUID      `json:"customer_id,omitempty"`
	CustomerName string          `json:"customer_name"`
	IssueDate    string          `json:"issue_date"`
	DueDate      string          `json:"due_date"`
	Status       string          `json:"status"`
	IsOverdue    bool            `json:"is_overdue"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	Notes        string          `json:"notes"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
	Items        []ItemResponse  `json:"items,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	Version      int             `json:"version"`
}

// ToInvoiceResponse converts a domain invoice to its response
func ToInvoiceResponse(inv *trade.Invoice, now time.Time) InvoiceResponse {
	resp := InvoiceResponse{
		ID:           inv.ID,
		Number:       inv.Number,
		CustomerID:   inv.CustomerID,
		CustomerName: inv.CustomerName,
		IssueDate:    inv.IssueDate.Format(time.DateOnly),
		DueDate:      inv.DueDate.Format(time.DateOnly),
		Status:       string(inv.Status),
		IsOverdue:    inv.IsOverdue(now),
		Subtotal:     inv.Subtotal,
		TaxRate:      inv.TaxRate,
		TaxAmount:    inv.TaxAmount,
		Discount:     inv.Discount,
		Total:        inv.Total,
		Notes:        inv.Notes,
		PaidAt:       inv.PaidAt,
		CancelledAt:  inv.CancelledAt,
		CreatedAt:    inv.CreatedAt,
		Version:      inv.Version,
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, ItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	return resp
}

// parseDate parses an optional YYYY-MM-DD value in loc
func parseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_DATE", fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", value))
	}
	return t, nil
}
