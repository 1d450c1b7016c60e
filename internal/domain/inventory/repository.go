package inventory

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MovementFilter narrows movement listings
type MovementFilter struct {
	shared.Filter
	ProductID     *uuid.UUID
	Type          MovementType
	ReferenceType ReferenceType
	ReferenceID   *uuid.UUID
}

// MovementRepository persists stock movements. Movements are append-only.
type MovementRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*StockMovement, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter MovementFilter) ([]StockMovement, int64, error)
	Create(ctx context.Context, movement *StockMovement) error
}
