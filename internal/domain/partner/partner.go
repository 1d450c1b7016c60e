package partner

import (
	"net/mail"
	"strings"

	"github.com/bizdesk/backend/internal/domain/shared"
)

// Contact holds the fields suppliers and customers have in common
type Contact struct {
	Name      string `gorm:"size:200;not null" json:"name"`
	Email     string `gorm:"size:200;index" json:"email"`
	Phone     string `gorm:"size:50" json:"phone"`
	Address   string `gorm:"type:text" json:"address"`
	TaxNumber string `gorm:"size:50" json:"tax_number"`
	Notes     string `gorm:"type:text" json:"notes"`
}

// NewContact validates and normalizes contact details
func NewContact(name, email, phone, address, taxNumber, notes string) (Contact, error) {
	c := Contact{
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Phone:     strings.TrimSpace(phone),
		Address:   strings.TrimSpace(address),
		TaxNumber: strings.TrimSpace(taxNumber),
		Notes:     strings.TrimSpace(notes),
	}
	if c.Name == "" {
		return Contact{}, shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(c.Name) > 200 {
		return Contact{}, shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return Contact{}, shared.NewDomainError("INVALID_EMAIL", "Invalid email address")
		}
	}
	if len(c.Phone) > 50 {
		return Contact{}, shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	return c, nil
}
