package trade

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SequenceKind names an independent per-company document counter
type SequenceKind string

const (
	SequenceOrder   SequenceKind = "ORDER"
	SequenceInvoice SequenceKind = "INVOICE"
)

// SequenceRepository hands out gap-free document numbers. Next must be called
// inside the transaction that persists the document.
type SequenceRepository interface {
	Next(ctx context.Context, companyID uuid.UUID, kind SequenceKind) (int64, error)
}

// FormatDocumentNumber renders numbers like INV-00042
func FormatDocumentNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%05d", prefix, seq)
}
