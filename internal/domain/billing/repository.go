package billing

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TransactionRepository persists the billing ledger
type TransactionRepository interface {
	FindAll(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]BillingTransaction, int64, error)
	ExistsByEventID(ctx context.Context, eventID string) (bool, error)
	Create(ctx context.Context, tx *BillingTransaction) error
}
