package inventory

import (
	"strings"
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MovementType is the kind of stock movement
type MovementType string

const (
	MovementIn         MovementType = "IN"
	MovementOut        MovementType = "OUT"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// IsValid reports whether the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// ReferenceType identifies the document that caused a movement
type ReferenceType string

const (
	ReferenceManual  ReferenceType = "MANUAL"
	ReferenceOrder   ReferenceType = "ORDER"
	ReferenceInvoice ReferenceType = "INVOICE"
	ReferenceProduct ReferenceType = "PRODUCT"
)

// IsValid reports whether the reference type is known
func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceManual, ReferenceOrder, ReferenceInvoice, ReferenceProduct:
		return true
	}
	return false
}

// StockMovement is an immutable ledger entry that changed a product's on-hand quantity
type StockMovement struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"company_id"`
	ProductID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"product_id"`
	Type           MovementType  `gorm:"size:20;not null" json:"type"`
	Quantity       int64         `gorm:"not null" json:"quantity"`
	QuantityBefore int64         `gorm:"not null" json:"quantity_before"`
	QuantityAfter  int64         `gorm:"not null" json:"quantity_after"`
	Reason         string        `gorm:"size:500" json:"reason"`
	ReferenceType  ReferenceType `gorm:"size:20;not null;default:MANUAL" json:"reference_type"`
	ReferenceID    *uuid.UUID    `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	CreatedBy      *uuid.UUID    `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;index" json:"created_at"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// MovementRequest describes a movement to be applied to a product
type MovementRequest struct {
	ProductID     uuid.UUID
	Type          MovementType
	Quantity      int64
	Reason        string
	ReferenceType ReferenceType
	ReferenceID   *uuid.UUID
	CreatedBy     *uuid.UUID
}

// Validate checks the request independent of current stock
func (r MovementRequest) Validate() error {
	if r.ProductID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !r.Type.IsValid() {
		return shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Movement type must be IN, OUT or ADJUSTMENT")
	}
	if r.ReferenceType != "" && !r.ReferenceType.IsValid() {
		return shared.NewDomainError("INVALID_REFERENCE_TYPE", "Unknown reference type")
	}
	switch r.Type {
	case MovementIn, MovementOut:
		if r.Quantity <= 0 {
			return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}
	case MovementAdjustment:
		if r.Quantity < 0 {
			return shared.NewDomainError("INVALID_QUANTITY", "Adjusted quantity cannot be negative")
		}
	}
	if len(r.Reason) > 500 {
		return shared.NewDomainError("INVALID_REASON", "Reason cannot exceed 500 characters")
	}
	return nil
}

// NextQuantity computes the on-hand quantity after the movement
func NextQuantity(current int64, t MovementType, qty int64) (int64, error) {
	var next int64
	switch t {
	case MovementIn:
		next = current + qty
	case MovementOut:
		next = current - qty
	case MovementAdjustment:
		next = qty
	default:
		return current, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Movement type must be IN, OUT or ADJUSTMENT")
	}
	if next < 0 {
		return current, shared.ErrInsufficientStock
	}
	return next, nil
}

// NewStockMovement builds the ledger entry for a request applied to a product
// whose on-hand quantity was before.
func NewStockMovement(companyID uuid.UUID, req MovementRequest, before int64) (*StockMovement, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	after, err := NextQuantity(before, req.Type, req.Quantity)
	if err != nil {
		return nil, err
	}
	ref := req.ReferenceType
	if ref == "" {
		ref = ReferenceManual
	}
	return &StockMovement{
		ID:             uuid.New(),
		CompanyID:      companyID,
		ProductID:      req.ProductID,
		Type:           req.Type,
		Quantity:       req.Quantity,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reason:         strings.TrimSpace(req.Reason),
		ReferenceType:  ref,
		ReferenceID:    req.ReferenceID,
		CreatedBy:      req.CreatedBy,
		CreatedAt:      time.Now(),
	}, nil
}

// Delta is the signed change in on-hand quantity
func (m *StockMovement) Delta() int64 {
	return m.QuantityAfter - m.QuantityBefore
}
