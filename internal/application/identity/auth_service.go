package identity

import (
	"context"
	"errors"
	"fmt"

	appshared "github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")

// GoogleProvider signs users in with Google
type GoogleProvider interface {
	AuthCodeURL(state string) string
	FetchUser(ctx context.Context, code string) (*auth.GoogleUser, error)
}

// AuthService handles authentication operations
type AuthService struct {
	txScope        appshared.TransactionScope
	userRepo       identity.UserRepository
	membershipRepo identity.MembershipRepository
	jwtService     *auth.JWTService
	blacklist      auth.TokenBlacklist
	google         GoogleProvider
	logger         *zap.Logger
}

// AuthServiceDeps groups the collaborators of AuthService. Google is nil
// when Google sign-in is not configured.
type AuthServiceDeps struct {
	TxScope        appshared.TransactionScope
	UserRepo       identity.UserRepository
	MembershipRepo identity.MembershipRepository
	JWTService     *auth.JWTService
	Blacklist      auth.TokenBlacklist
	Google         GoogleProvider
	Logger         *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(deps AuthServiceDeps) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		txScope:        deps.TxScope,
		userRepo:       deps.UserRepo,
		membershipRepo: deps.MembershipRepo,
		jwtService:     deps.JWTService,
		blacklist:      deps.Blacklist,
		google:         deps.Google,
		logger:         logger,
	}
}

// Register creates the user, their company, default settings and an OWNER
// membership in one transaction and signs the user in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
	}

	user, err := identity.NewUser(input.Email, input.Name, input.Password)
	if err != nil {
		return nil, err
	}
	company, err := identity.NewCompany(input.CompanyName, user.Email)
	if err != nil {
		return nil, err
	}
	membership, err := s.createAccount(ctx, user, company)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("company_id", company.ID.String()))
	return s.issue(user, membership, 0)
}

// createAccount stores a new user with a fresh company they own
func (s *AuthService) createAccount(ctx context.Context, user *identity.User, company *identity.Company) (*identity.Membership, error) {
	membership, err := identity.NewMembership(user.ID, company.ID, identity.RoleOwner)
	if err != nil {
		return nil, err
	}
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if err := repos.UserRepo().Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := repos.CompanyRepo().Create(ctx, company); err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}
		if err := repos.SettingsRepo().Save(ctx, identity.NewCompanySettings(company.ID)); err != nil {
			return fmt.Errorf("failed to create company settings: %w", err)
		}
		return repos.MembershipRepo().Create(ctx, membership)
	})
	if err != nil {
		return nil, err
	}
	membership.Company = company
	return membership, nil
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if shared.IsNotFound(err) {
			s.logger.Warn("Login attempt for unknown email")
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	}
	return s.signIn(ctx, user, input.CompanyID)
}

// signIn picks the membership, records the login and issues tokens
func (s *AuthService) signIn(ctx context.Context, user *identity.User, companyID *uuid.UUID) (*AuthResult, error) {
	membership, err := s.selectMembership(ctx, user.ID, companyID)
	if err != nil {
		return nil, err
	}

	user.RecordLogin()
	if err := s.userRepo.Save(ctx, user); err != nil {
		// Don't fail the login
		s.logger.Error("Failed to record login", zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return s.issue(user, membership, 0)
}

// selectMembership returns the requested membership, or the oldest one.
// Users without any company (platform admins) get nil.
func (s *AuthService) selectMembership(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) (*identity.Membership, error) {
	memberships, err := s.membershipRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if companyID == nil {
		if len(memberships) == 0 {
			return nil, nil
		}
		return &memberships[0], nil
	}
	for i := range memberships {
		if memberships[i].CompanyID == *companyID {
			return &memberships[i], nil
		}
	}
	return nil, shared.NewDomainError("FORBIDDEN", "You are not a member of this company")
}

// RefreshToken issues a new token pair from a valid refresh token. The role
// is reloaded so membership changes apply on refresh.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid user ID in token")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("TOKEN_INVALID", "User no longer exists")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	}

	companyID, err := claims.GetCompanyUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid company ID in token")
	}
	var membership *identity.Membership
	if companyID != uuid.Nil {
		membership, err = s.membershipRepo.Find(ctx, userID, companyID)
		if err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.NewDomainError("FORBIDDEN", "You are no longer a member of this company")
			}
			return nil, err
		}
	}

	// The old refresh token must not be reused
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke used refresh token", zap.Error(err))
	}
	return s.issue(user, membership, claims.RefreshCount+1)
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.AccessJTI != "" {
		if err := s.blacklist.Revoke(ctx, input.AccessJTI, input.AccessTTL); err != nil {
			return err
		}
	}
	if input.RefreshToken != "" {
		if claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken); err == nil {
			if err := s.blacklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
				return err
			}
		}
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// GetCurrentUser returns the caller and their memberships
func (s *AuthService) GetCurrentUser(ctx context.Context, userID, companyID uuid.UUID) (*CurrentUserResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	memberships, err := s.membershipRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &CurrentUserResult{
		User:        toUserInfo(user),
		Memberships: toMembershipInfos(memberships),
	}
	for _, m := range memberships {
		if m.CompanyID == companyID {
			id := m.CompanyID
			result.CompanyID = &id
			result.Role = string(m.Role)
		}
	}
	return result, nil
}

// ChangePassword changes the password and revokes every token issued before.
// The returned tokens keep the current session alive.
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.blacklist.RevokeUserTokens(ctx, user.ID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		return nil, err
	}

	s.logger.Info("User password changed", zap.String("user_id", user.ID.String()))

	var companyID *uuid.UUID
	if input.CompanyID != uuid.Nil {
		companyID = &input.CompanyID
	}
	membership, err := s.selectMembership(ctx, user.ID, companyID)
	if err != nil {
		return nil, err
	}
	return s.issue(user, membership, 0)
}

// SwitchCompany issues tokens scoped to another of the user's companies
func (s *AuthService) SwitchCompany(ctx context.Context, userID, companyID uuid.UUID) (*AuthResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	membership, err := s.membershipRepo.Find(ctx, userID, companyID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("FORBIDDEN", "You are not a member of this company")
		}
		return nil, err
	}
	return s.issue(user, membership, 0)
}

// GoogleEnabled reports whether Google sign-in is configured
func (s *AuthService) GoogleEnabled() bool {
	return s.google != nil
}

// GoogleAuthURL returns the consent URL and the state to remember
func (s *AuthService) GoogleAuthURL() (url, state string, err error) {
	if s.google == nil {
		return "", "", errGoogleDisabled
	}
	state, err = auth.NewOAuthState()
	if err != nil {
		return "", "", err
	}
	return s.google.AuthCodeURL(state), state, nil
}

var errGoogleDisabled = shared.NewDomainError("GOOGLE_DISABLED", "Google sign-in is not configured")

// LoginWithGoogle exchanges an authorization code and signs the user in.
// Users are matched by Google ID, then by email (linking the account);
// unknown users get a new account with a personal company.
func (s *AuthService) LoginWithGoogle(ctx context.Context, code string) (*AuthResult, error) {
	if s.google == nil {
		return nil, errGoogleDisabled
	}
	profile, err := s.google.FetchUser(ctx, code)
	if err != nil {
		if errors.Is(err, auth.ErrEmailNotVerified) {
			return nil, shared.NewDomainError("EMAIL_NOT_VERIFIED", "Google account email is not verified")
		}
		s.logger.Warn("Google sign-in failed", zap.Error(err))
		return nil, shared.NewDomainError("OAUTH_FAILED", "Google sign-in failed")
	}

	user, err := s.userRepo.FindByGoogleID(ctx, profile.Sub)
	if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}
	if user == nil {
		user, err = s.userRepo.FindByEmail(ctx, profile.Email)
		switch {
		case err == nil:
			user.LinkGoogle(profile.Sub, profile.Picture)
			if err := s.userRepo.Save(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to link google account: %w", err)
			}
			s.logger.Info("Linked Google account", zap.String("user_id", user.ID.String()))
		case shared.IsNotFound(err):
			if user, err = s.registerGoogleUser(ctx, profile); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}
	if !user.IsActive {
		return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	}
	return s.signIn(ctx, user, nil)
}

func (s *AuthService) registerGoogleUser(ctx context.Context, profile *auth.GoogleUser) (*identity.User, error) {
	user, err := identity.NewOAuthUser(profile.Email, profile.Name, profile.Sub, profile.Picture)
	if err != nil {
		return nil, err
	}
	company, err := identity.NewCompany(user.Name+"'s Company", user.Email)
	if err != nil {
		return nil, err
	}
	if _, err := s.createAccount(ctx, user, company); err != nil {
		return nil, err
	}
	s.logger.Info("User registered with Google", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked {
		revoked, err = s.blacklist.IsUserTokenRevoked(ctx, claims.UserID, claims.GetIssuedAtTime())
		if err != nil {
			return err
		}
	}
	if revoked {
		return shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	}
	return nil
}

func (s *AuthService) issue(user *identity.User, membership *identity.Membership, refreshCount int) (*AuthResult, error) {
	input := auth.GenerateTokenInput{
		UserID:       user.ID,
		Email:        user.Email,
		PlatformRole: string(user.PlatformRole),
		RefreshCount: refreshCount,
	}
	result := &AuthResult{User: toUserInfo(user)}
	if membership != nil {
		input.CompanyID = membership.CompanyID
		input.Role = string(membership.Role)
		companyID := membership.CompanyID
		result.CompanyID = &companyID
		result.Role = string(membership.Role)
	}

	tokens, err := s.jwtService.GenerateTokenPair(input)
	if err != nil {
		if errors.Is(err, auth.ErrMaxRefreshExceeded) {
			return nil, mapTokenError(err)
		}
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	result.Tokens = tokens
	return result, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
}
