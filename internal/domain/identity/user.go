package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// PlatformRole is a user's role across the whole platform (not per company)
type PlatformRole string

const (
	PlatformRoleUser  PlatformRole = "USER"
	PlatformRoleAdmin PlatformRole = "ADMIN"
)

// bcryptCost is a var so tests can lower it
var bcryptCost = bcrypt.DefaultCost

var (
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	letterPattern = regexp.MustCompile(`[a-zA-Z]`)
	digitPattern  = regexp.MustCompile(`[0-9]`)
)

// User is a person who can sign in. Company access is granted through memberships.
type User struct {
	shared.BaseAggregateRoot
	Email        string       `gorm:"size:200;not null;uniqueIndex" json:"email"`
	Name         string       `gorm:"size:200;not null" json:"name"`
	PasswordHash string       `gorm:"size:200" json:"-"`
	GoogleID     *string      `gorm:"size:100;uniqueIndex" json:"-"`
	AvatarURL    string       `gorm:"size:500" json:"avatar_url"`
	PlatformRole PlatformRole `gorm:"size:20;not null;default:USER" json:"platform_role"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates an active user with a password
func NewUser(email, name, password string) (*User, error) {
	user, err := newUser(email, name)
	if err != nil {
		return nil, err
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	return user, nil
}

// NewOAuthUser creates a user authenticated by Google only
func NewOAuthUser(email, name, googleID, avatarURL string) (*User, error) {
	if strings.TrimSpace(googleID) == "" {
		return nil, shared.NewDomainError("INVALID_GOOGLE_ID", "Google account ID cannot be empty")
	}
	user, err := newUser(email, name)
	if err != nil {
		return nil, err
	}
	id := googleID
	user.GoogleID = &id
	user.AvatarURL = avatarURL
	return user, nil
}

func newUser(email, name string) (*User, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Name:              name,
		PlatformRole:      PlatformRoleUser,
		IsActive:          true,
	}, nil
}

// HasPassword reports whether password login is possible for this user
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// VerifyPassword compares a plain password with the stored hash
func (u *User) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetPassword validates and hashes a new password
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	u.IncrementVersion()
	return nil
}

// ChangePassword requires the current password unless none was ever set
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if u.HasPassword() && !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(newPassword)
}

// LinkGoogle attaches a Google account to an existing user
func (u *User) LinkGoogle(googleID, avatarURL string) {
	id := googleID
	u.GoogleID = &id
	if u.AvatarURL == "" {
		u.AvatarURL = avatarURL
	}
	u.IncrementVersion()
}

// RecordLogin stamps the last login time
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.Touch()
}

// IsPlatformAdmin reports whether the user can perform support administration
func (u *User) IsPlatformAdmin() bool {
	return u.PlatformRole == PlatformRoleAdmin
}

// Deactivate blocks any further sign-in
func (u *User) Deactivate() {
	u.IsActive = false
	u.IncrementVersion()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !letterPattern.MatchString(password) || !digitPattern.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address the way users are stored
func NormalizeEmail(email string) string {
	return normalizeEmail(email)
}
