package partner

import (
	"time"

	"github.com/bizdesk/backend/internal/domain/partner"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ContactRequest is the body of supplier and customer create/update requests
type ContactRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=200"`
	Email     string `json:"email" binding:"omitempty,email,max=200"`
	Phone     string `json:"phone" binding:"max=50"`
	Address   string `json:"address" binding:"max=1000"`
	TaxNumber string `json:"tax_number" binding:"max=50"`
	Notes     string `json:"notes" binding:"max=2000"`
}

func (r ContactRequest) toContact() (partner.Contact, error) {
	return partner.NewContact(r.Name, r.Email, r.Phone, r.Address, r.TaxNumber, r.Notes)
}

// ListFilter represents filter options for supplier and customer lists
type ListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f ListFilter) toDomain() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}
	filter.Normalize()
	return filter
}

// PartnerResponse represents a supplier or customer in API responses
type PartnerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	TaxNumber string    `json:"tax_number"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

func toPartnerResponse(root shared.CompanyAggregateRoot, c partner.Contact) PartnerResponse {
	return PartnerResponse{
		ID:        root.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		TaxNumber: c.TaxNumber,
		Notes:     c.Notes,
		CreatedAt: root.CreatedAt,
		UpdatedAt: root.UpdatedAt,
		Version:   root.Version,
	}
}

// ToSupplierResponse converts a supplier to its response
func ToSupplierResponse(s *partner.Supplier) PartnerResponse {
	return toPartnerResponse(s.CompanyAggregateRoot, s.Contact)
}

// ToCustomerResponse converts a customer to its response
func ToCustomerResponse(c *partner.Customer) PartnerResponse {
	return toPartnerResponse(c.CompanyAggregateRoot, c.Contact)
}

var errDuplicateEmail = shared.NewDomainError("ALREADY_EXISTS", "Another partner already uses this email")
