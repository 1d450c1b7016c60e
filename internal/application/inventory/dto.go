package inventory

import (
	"time"

	"github.com/bizdesk/backend/internal/domain/inventory"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RecordMovementRequest is a manual stock movement entered by a member
type RecordMovementRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Type      string    `json:"type" binding:"required,oneof=IN OUT ADJUSTMENT"`
	Quantity  int64     `json:"quantity" binding:"min=0"`
	Reason    string    `json:"reason" binding:"max=500"`
}

// MovementListFilter represents filter options for the movement list
type MovementListFilter struct {
	ProductID     *uuid.UUID `form:"product_id"`
	Type          string     `form:"type" binding:"omitempty,oneof=IN OUT ADJUSTMENT"`
	ReferenceType string     `form:"reference_type" binding:"omitempty,oneof=MANUAL ORDER INVOICE PRODUCT"`
	ReferenceID   *uuid.UUID `form:"reference_id"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (f MovementListFilter) toDomain() inventory.MovementFilter {
	filter := inventory.MovementFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			From:     f.From,
			To:       f.To,
		},
		ProductID:     f.ProductID,
		Type:          inventory.MovementType(f.Type),
		ReferenceType: inventory.ReferenceType(f.ReferenceType),
		ReferenceID:   f.ReferenceID,
	}
	filter.Normalize()
	return filter
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"product_id"`
	Type           string     `json:"type"`
	Quantity       int64      `json:"quantity"`
	QuantityBefore int64      `json:"quantity_before"`
	QuantityAfter  int64      `json:"quantity_after"`
	Delta          int64      `json:"delta"`
	Reason         string     `json:"reason"`
	ReferenceType  string     `json:"reference_type"`
	ReferenceID    *uuid.UUID `json:"reference_id,omitempty"`
	CreatedBy      *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToMovementResponse converts a domain movement to its response
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Type:           string(m.Type),
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Delta:          m.Delta(),
		Reason:         m.Reason,
		ReferenceType:  string(m.ReferenceType),
		ReferenceID:    m.ReferenceID,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}
