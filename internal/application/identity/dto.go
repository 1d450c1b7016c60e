package identity

import (
	"time"

	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterInput contains the input for self-service sign-up
type RegisterInput struct {
	Email       string
	Password    string
	Name        string
	CompanyName string
}

// LoginInput contains the input for password login.
// CompanyID selects the membership; the oldest one is used when nil.
type LoginInput struct {
	Email     string
	Password  string
	CompanyID *uuid.UUID
}

// LogoutInput identifies the tokens to revoke
type LogoutInput struct {
	UserID       uuid.UUID
	AccessJTI    string
	AccessTTL    time.Duration
	RefreshToken string
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	CompanyID   uuid.UUID
	OldPassword string
	NewPassword string
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	PlatformRole string     `json:"platform_role"`
	HasPassword  bool       `json:"has_password"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// MembershipInfo is one company the user belongs to
type MembershipInfo struct {
	CompanyID   uuid.UUID `json:"company_id"`
	CompanyName string    `json:"company_name"`
	Role        string    `json:"role"`
}

// AuthResult is returned by every operation that issues tokens
type AuthResult struct {
	Tokens    *auth.TokenPair `json:"-"`
	User      UserInfo        `json:"user"`
	CompanyID *uuid.UUID      `json:"company_id,omitempty"`
	Role      string          `json:"role,omitempty"`
}

// CurrentUserResult describes the caller and all of their memberships
type CurrentUserResult struct {
	User        UserInfo         `json:"user"`
	CompanyID   *uuid.UUID       `json:"company_id,omitempty"`
	Role        string           `json:"role,omitempty"`
	Memberships []MembershipInfo `json:"memberships"`
}

func toUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		AvatarURL:    u.AvatarURL,
		PlatformRole: string(u.PlatformRole),
		HasPassword:  u.HasPassword(),
		LastLoginAt:  u.LastLoginAt,
	}
}

func toMembershipInfos(memberships []identity.Membership) []MembershipInfo {
	infos := make([]MembershipInfo, 0, len(memberships))
	for _, m := range memberships {
		info := MembershipInfo{CompanyID: m.CompanyID, Role: string(m.Role)}
		if m.Company != nil {
			info.CompanyName = m.Company.Name
		}
		infos = append(infos, info)
	}
	return infos
}

// UpdateCompanyRequest represents a company profile update
type UpdateCompanyRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=200"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone" binding:"max=50"`
	Address   string `json:"address" binding:"max=500"`
	TaxNumber string `json:"tax_number" binding:"max=50"`
}

// CompanyResponse represents a company in API responses
type CompanyResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	Address            string     `json:"address"`
	TaxNumber          string     `json:"tax_number"`
	LogoURL            string     `json:"logo_url,omitempty"`
	SubscriptionStatus string     `json:"subscription_status"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ToCompanyResponse converts a domain company to its response
func ToCompanyResponse(c *identity.Company) CompanyResponse {
	return CompanyResponse{
		ID:                 c.ID,
		Name:               c.Name,
		Email:              c.Email,
		Phone:              c.Phone,
		Address:            c.Address,
		TaxNumber:          c.TaxNumber,
		LogoURL:            c.LogoURL,
		SubscriptionStatus: string(c.SubscriptionStatus),
		CurrentPeriodEnd:   c.CurrentPeriodEnd,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// UpdateSettingsRequest represents a partial settings update
type UpdateSettingsRequest struct {
	Currency           *string          `json:"currency" binding:"omitempty,len=3"`
	InvoicePrefix      *string          `json:"invoice_prefix" binding:"omitempty,min=1,max=10"`
	OrderPrefix        *string          `json:"order_prefix" binding:"omitempty,min=1,max=10"`
	DefaultTaxRate     *decimal.Decimal `json:"default_tax_rate"`
	LowStockThreshold  *int             `json:"low_stock_threshold" binding:"omitempty,min=0"`
	Timezone           *string          `json:"timezone"`
	DailyReportEnabled *bool            `json:"daily_report_enabled"`
}

// SettingsResponse represents company settings in API responses
type SettingsResponse struct {
	Currency           string          `json:"currency"`
	InvoicePrefix      string          `json:"invoice_prefix"`
	OrderPrefix        string          `json:"order_prefix"`
	DefaultTaxRate     decimal.Decimal `json:"default_tax_rate"`
	LowStockThreshold  int             `json:"low_stock_threshold"`
	Timezone           string          `json:"timezone"`
	DailyReportEnabled bool            `json:"daily_report_enabled"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ToSettingsResponse converts settings to their response
func ToSettingsResponse(s *identity.CompanySettings) SettingsResponse {
	return SettingsResponse{
		Currency:           s.Currency,
		InvoicePrefix:      s.InvoicePrefix,
		OrderPrefix:        s.OrderPrefix,
		DefaultTaxRate:     s.DefaultTaxRate,
		LowStockThreshold:  s.LowStockThreshold,
		Timezone:           s.Timezone,
		DailyReportEnabled: s.DailyReportEnabled,
		UpdatedAt:          s.UpdatedAt,
	}
}

// FileUploadResponse describes a stored file
type FileUploadResponse struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
	Size        int       `json:"size"`
	ContentType string    `json:"content_type"`
}

// InviteMemberRequest represents a request to add a member by email
type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"max=200"`
	Role  string `json:"role" binding:"omitempty,oneof=OWNER EMPLOYEE"`
}

// ChangeRoleRequest represents a member role change
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=OWNER EMPLOYEE"`
}

// MemberListFilter represents filter options for the member list
type MemberListFilter struct {
	Search   string `form:"search"`
	Role     string `form:"role" binding:"omitempty,oneof=OWNER EMPLOYEE"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// MemberResponse represents a company member in API responses
type MemberResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	JoinedAt  time.Time `json:"joined_at"`
}

// ToMemberResponse converts a membership (with its user) to its response
func ToMemberResponse(m *identity.Membership) MemberResponse {
	resp := MemberResponse{
		UserID:   m.UserID,
		Role:     string(m.Role),
		JoinedAt: m.CreatedAt,
	}
	if m.User != nil {
		resp.Email = m.User.Email
		resp.Name = m.User.Name
		resp.AvatarURL = m.User.AvatarURL
		resp.IsActive = m.User.IsActive
	}
	return resp
}
