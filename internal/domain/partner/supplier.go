package partner

import (
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Supplier is a company the tenant buys goods from
type Supplier struct {
	shared.CompanyAggregateRoot
	Contact
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new supplier
func NewSupplier(companyID uuid.UUID, contact Contact) *Supplier {
	return &Supplier{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Contact:              contact,
	}
}

// Update replaces the supplier's contact details
func (s *Supplier) Update(contact Contact) {
	s.Contact = contact
	s.IncrementVersion()
}
