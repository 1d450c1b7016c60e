package identity

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CompanyRepository persists companies
type CompanyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (*Company, error)
	FindAll(ctx context.Context) ([]Company, error)
	Create(ctx context.Context, company *Company) error
	Save(ctx context.Context, company *Company) error
}

// UserRepository persists users
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *User) error
	Save(ctx context.Context, user *User) error
}

// MembershipRepository persists user/company memberships
type MembershipRepository interface {
	Find(ctx context.Context, userID, companyID uuid.UUID) (*Membership, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error)
	// FindByCompany returns memberships with the User preloaded
	FindByCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]Membership, int64, error)
	FindOwners(ctx context.Context, companyID uuid.UUID) ([]Membership, error)
	// CountOwnersForUpdate counts owners while holding row locks until the transaction ends
	CountOwnersForUpdate(ctx context.Context, companyID uuid.UUID) (int64, error)
	Create(ctx context.Context, membership *Membership) error
	Save(ctx context.Context, membership *Membership) error
	Delete(ctx context.Context, userID, companyID uuid.UUID) error
}

// SettingsRepository persists company settings
type SettingsRepository interface {
	FindByCompany(ctx context.Context, companyID uuid.UUID) (*CompanySettings, error)
	FindDailyReportEnabled(ctx context.Context) ([]CompanySettings, error)
	Save(ctx context.Context, settings *CompanySettings) error
}
