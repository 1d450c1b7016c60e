package persistence

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMembershipRepository implements MembershipRepository using GORM
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a new GormMembershipRepository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Find returns the membership of a user in a company
func (r *GormMembershipRepository) Find(ctx context.Context, userID, companyID uuid.UUID) (*identity.Membership, error) {
	var m identity.Membership
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		First(&m).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &m, nil
}

// FindByUser lists the companies a user belongs to, oldest first
func (r *GormMembershipRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]identity.Membership, error) {
	var memberships []identity.Membership
	if err := r.db.WithContext(ctx).
		Preload("Company").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// FindByCompany lists the members of a company with their users
func (r *GormMembershipRepository) FindByCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]identity.Membership, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&identity.Membership{}).
		Where("user_companies.company_id = ?", companyID)

	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Joins("JOIN users ON users.id = user_companies.user_id").
			Where("users.name ILIKE ? OR users.email ILIKE ?", pattern, pattern)
	}
	if role, ok := filter.Filters["role"]; ok {
		query = query.Where("user_companies.role = ?", role)
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	field := ValidateSortField(filter.OrderBy, MemberSortFields, "created_at")
	query = query.Preload("User").Order("user_companies." + field + " " + ValidateSortOrder(filter.OrderDir))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var memberships []identity.Membership
	if err := query.Find(&memberships).Error; err != nil {
		return nil, 0, err
	}
	return memberships, total, nil
}

// FindOwners lists the owners of a company with their users
func (r *GormMembershipRepository) FindOwners(ctx context.Context, companyID uuid.UUID) ([]identity.Membership, error) {
	var memberships []identity.Membership
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("company_id = ? AND role = ?", companyID, identity.RoleOwner).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// CountOwnersForUpdate locks the owner rows of a company (SELECT ... FOR UPDATE) and counts them.
// Postgres rejects FOR UPDATE on aggregates, so the locked keys are counted client side.
// Rows are locked in user_id order so concurrent callers queue instead of deadlocking.
func (r *GormMembershipRepository) CountOwnersForUpdate(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var userIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&identity.Membership{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND role = ?", companyID, identity.RoleOwner).
		Order("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return 0, err
	}
	return int64(len(userIDs)), nil
}

// Create inserts a new membership
func (r *GormMembershipRepository) Create(ctx context.Context, m *identity.Membership) error {
	return translateDuplicate(r.db.WithContext(ctx).Omit("User", "Company").Create(m).Error)
}

// Save updates a membership
func (r *GormMembershipRepository) Save(ctx context.Context, m *identity.Membership) error {
	return r.db.WithContext(ctx).Omit("User", "Company").Save(m).Error
}

// Delete removes a user from a company
func (r *GormMembershipRepository) Delete(ctx context.Context, userID, companyID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Delete(&identity.Membership{}, "user_id = ? AND company_id = ?", userID, companyID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormMembershipRepository implements MembershipRepository
var _ identity.MembershipRepository = (*GormMembershipRepository)(nil)
