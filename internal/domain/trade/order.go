package trade

import (
	"strings"
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a purchase order
type OrderStatus string

const (
	OrderStatusReceived  OrderStatus = "RECEIVED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsValid reports whether the status is known
func (s OrderStatus) IsValid() bool {
	return s == OrderStatusReceived || s == OrderStatusCancelled
}

// Order is a purchase of goods from a supplier. Goods are booked into stock
// when the order is created.
type Order struct {
	shared.CompanyAggregateRoot
	Number       string          `gorm:"size:30;not null" json:"number"`
	SupplierID   *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	SupplierName string          `gorm:"size:200" json:"supplier_name"`
	OrderDate    time.Time       `gorm:"type:date;not null" json:"order_date"`
	Status       OrderStatus     `gorm:"size:20;not null" json:"status"`
	Notes        string          `gorm:"type:text" json:"notes"`
	Total        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
	Items        []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a single purchased line
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName string          `gorm:"size:200;not null" json:"product_name"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_cost"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_total"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrder creates a received order. The number is assigned by the caller
// from the company sequence.
func NewOrder(companyID uuid.UUID, number string, orderDate time.Time, lines []Line, notes string) (*Order, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Order number cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_ITEMS", "Order must have at least one item")
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	o := &Order{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Number:               number,
		OrderDate:            orderDate,
		Status:               OrderStatusReceived,
		Notes:                strings.TrimSpace(notes),
		Total:                decimal.Zero,
	}
	for _, l := range lines {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		item := OrderItem{
			ID:          uuid.New(),
			OrderID:     o.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitPrice,
			LineTotal:   l.Total(),
		}
		o.Items = append(o.Items, item)
		o.Total = o.Total.Add(item.LineTotal)
	}
	return o, nil
}

// SetSupplier records the supplier and snapshots its name
func (o *Order) SetSupplier(id uuid.UUID, name string) {
	o.SupplierID = &id
	o.SupplierName = name
}

// Cancel marks the order cancelled. Reversing stock is the caller's job.
func (o *Order) Cancel() error {
	if o.Status == OrderStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Order is already cancelled")
	}
	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.IncrementVersion()
	return nil
}

// IsCancelled reports whether the order has been cancelled
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}
