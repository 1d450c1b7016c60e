package partner

import (
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Customer is a party the tenant sells to
type Customer struct {
	shared.CompanyAggregateRoot
	Contact
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer
func NewCustomer(companyID uuid.UUID, contact Contact) *Customer {
	return &Customer{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Contact:              contact,
	}
}

// Update replaces the customer's contact details
func (c *Customer) Update(contact Contact) {
	c.Contact = contact
	c.IncrementVersion()
}
