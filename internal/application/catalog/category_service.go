package catalog

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CategoryService handles category-related business operations
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo catalog.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// Create creates a new category
func (s *CategoryService) Create(ctx context.Context, companyID, userID uuid.UUID, req CreateCategoryRequest) (*CategoryResponse, error) {
	category, err := catalog.NewCategory(companyID, req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, companyID, category.Name, nil); err != nil {
		return nil, err
	}
	category.SetCreatedBy(userID)

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// GetByID retrieves a category
func (s *CategoryService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// List lists categories of the company
func (s *CategoryService) List(ctx context.Context, companyID uuid.UUID, filter CategoryListFilter) (shared.Paginated[CategoryResponse], error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
	}
	domainFilter.Normalize()

	categories, total, err := s.categoryRepo.FindAll(ctx, companyID, domainFilter)
	if err != nil {
		return shared.Paginated[CategoryResponse]{}, err
	}
	items := make([]CategoryResponse, len(categories))
	for i := range categories {
		items[i] = ToCategoryResponse(&categories[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Update renames a category
func (s *CategoryService) Update(ctx context.Context, companyID, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := category.Update(req.Name, req.Description); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, companyID, category.Name, &category.ID); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Delete deletes a category that no live product references
func (s *CategoryService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, companyID, id); err != nil {
		return err
	}
	count, err := s.categoryRepo.CountProducts(ctx, companyID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("INVALID_STATE", "Category is still used by products")
	}
	return s.categoryRepo.Delete(ctx, companyID, id)
}

func (s *CategoryService) ensureUniqueName(ctx context.Context, companyID uuid.UUID, name string, excludeID *uuid.UUID) error {
	exists, err := s.categoryRepo.ExistsByName(ctx, companyID, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Category with this name already exists")
	}
	return nil
}
