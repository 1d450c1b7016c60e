package partner

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/partner"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo partner.CustomerRepository
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, companyID, userID uuid.UUID, req ContactRequest) (*PartnerResponse, error) {
	contact, err := req.toContact()
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueEmail(ctx, companyID, contact.Email, nil); err != nil {
		return nil, err
	}

	customer := partner.NewCustomer(companyID, contact)
	customer.SetCreatedBy(userID)
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// GetByID retrieves a customer
func (s *CustomerService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*PartnerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// List lists customers with search and pagination
func (s *CustomerService) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) (shared.Paginated[PartnerResponse], error) {
	domainFilter := filter.toDomain()
	customers, total, err := s.customerRepo.FindAll(ctx, companyID, domainFilter)
	if err != nil {
		return shared.Paginated[PartnerResponse]{}, err
	}
	items := make([]PartnerResponse, len(customers))
	for i := range customers {
		items[i] = ToCustomerResponse(&customers[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Update replaces a customer's contact details
func (s *CustomerService) Update(ctx context.Context, companyID, id uuid.UUID, req ContactRequest) (*PartnerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	contact, err := req.toContact()
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueEmail(ctx, companyID, contact.Email, &customer.ID); err != nil {
		return nil, err
	}

	customer.Update(contact)
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// Delete deletes a customer. Invoices keep the customer name snapshot.
func (s *CustomerService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return s.customerRepo.Delete(ctx, companyID, id)
}

func (s *CustomerService) ensureUniqueEmail(ctx context.Context, companyID uuid.UUID, email string, excludeID *uuid.UUID) error {
	if email == "" {
		return nil
	}
	exists, err := s.customerRepo.ExistsByEmail(ctx, companyID, email, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return errDuplicateEmail
	}
	return nil
}
