package persistence

import (
	"context"
	"fmt"

	"github.com/bizdesk/backend/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// nextSequenceSQL bumps (or starts) a per-company counter and returns the new value.
// The row lock taken by the upsert serializes concurrent callers until commit.
const nextSequenceSQL = `
INSERT INTO document_sequences (company_id, kind, last_value, updated_at)
VALUES (?, ?, 1, NOW())
ON CONFLICT (company_id, kind)
DO UPDATE SET last_value = document_sequences.last_value + 1, updated_at = NOW()
RETURNING last_value`

// GormSequenceRepository implements SequenceRepository on the document_sequences table
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// Next returns the next number for the company's document kind
func (r *GormSequenceRepository) Next(ctx context.Context, companyID uuid.UUID, kind trade.SequenceKind) (int64, error) {
	var value int64
	if err := r.db.WithContext(ctx).Raw(nextSequenceSQL, companyID, string(kind)).Scan(&value).Error; err != nil {
		return 0, fmt.Errorf("failed to advance %s sequence: %w", kind, err)
	}
	return value, nil
}

// Ensure GormSequenceRepository implements SequenceRepository
var _ trade.SequenceRepository = (*GormSequenceRepository)(nil)
