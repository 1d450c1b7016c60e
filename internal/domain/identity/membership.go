package identity

import (
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Role is a user's role inside one company
type Role string

const (
	RoleOwner    Role = "OWNER"
	RoleEmployee Role = "EMPLOYEE"
)

// IsValid reports whether the role is a known value
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleEmployee
}

// ParseRole validates a role string
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", shared.NewDomainError("INVALID_ROLE", "Role must be OWNER or EMPLOYEE")
	}
	return r, nil
}

// Membership (user_companies) assigns a role to a user within a company
type Membership struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_company" json:"user_id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_company;index" json:"company_id"`
	Role      Role      `gorm:"size:20;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

// TableName returns the table name for GORM
func (Membership) TableName() string {
	return "user_companies"
}

// NewMembership creates a membership with a validated role
func NewMembership(userID, companyID uuid.UUID, role Role) (*Membership, error) {
	if userID == uuid.Nil || companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBERSHIP", "User and company are required")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be OWNER or EMPLOYEE")
	}
	now := time.Now()
	return &Membership{
		ID:        uuid.New(),
		UserID:    userID,
		CompanyID: companyID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsOwner reports whether the member owns the company
func (m *Membership) IsOwner() bool {
	return m.Role == RoleOwner
}

// ChangeRole switches the member's role.
// ownerCount is the number of owners the company currently has, including this member.
func (m *Membership) ChangeRole(role Role, ownerCount int64) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Role must be OWNER or EMPLOYEE")
	}
	if m.IsOwner() && role != RoleOwner && ownerCount <= 1 {
		return shared.NewDomainError("INVALID_STATE", "A company must keep at least one owner")
	}
	m.Role = role
	m.UpdatedAt = time.Now()
	return nil
}

// CanBeRemoved checks the last-owner rule before deleting the membership
func (m *Membership) CanBeRemoved(ownerCount int64) error {
	if m.IsOwner() && ownerCount <= 1 {
		return shared.NewDomainError("INVALID_STATE", "A company must keep at least one owner")
	}
	return nil
}
