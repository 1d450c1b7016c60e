package partner

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/partner"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SupplierService handles supplier-related business operations
type SupplierService struct {
	supplierRepo partner.SupplierRepository
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(supplierRepo partner.SupplierRepository) *SupplierService {
	return &SupplierService{supplierRepo: supplierRepo}
}

// Create creates a new supplier
func (s *SupplierService) Create(ctx context.Context, companyID, userID uuid.UUID, req ContactRequest) (*PartnerResponse, error) {
	contact, err := req.toContact()
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueEmail(ctx, companyID, contact.Email, nil); err != nil {
		return nil, err
	}

	supplier := partner.NewSupplier(companyID, contact)
	supplier.SetCreatedBy(userID)
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, err
	}
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// GetByID retrieves a supplier
func (s *SupplierService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*PartnerResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// List lists suppliers with search and pagination
func (s *SupplierService) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) (shared.Paginated[PartnerResponse], error) {
	domainFilter := filter.toDomain()
	suppliers, total, err := s.supplierRepo.FindAll(ctx, companyID, domainFilter)
	if err != nil {
		return shared.Paginated[PartnerResponse]{}, err
	}
	items := make([]PartnerResponse, len(suppliers))
	for i := range suppliers {
		items[i] = ToSupplierResponse(&suppliers[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Update replaces a supplier's contact details
func (s *SupplierService) Update(ctx context.Context, companyID, id uuid.UUID, req ContactRequest) (*PartnerResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	contact, err := req.toContact()
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueEmail(ctx, companyID, contact.Email, &supplier.ID); err != nil {
		return nil, err
	}

	supplier.Update(contact)
	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// Delete deletes a supplier. Orders keep the supplier name snapshot.
func (s *SupplierService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return s.supplierRepo.Delete(ctx, companyID, id)
}

func (s *SupplierService) ensureUniqueEmail(ctx context.Context, companyID uuid.UUID, email string, excludeID *uuid.UUID) error {
	if email == "" {
		return nil
	}
	exists, err := s.supplierRepo.ExistsByEmail(ctx, companyID, email, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return errDuplicateEmail
	}
	return nil
}
