package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"html"

	appshared "github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemberService manages who belongs to a company and with which role
type MemberService struct {
	txScope        appshared.TransactionScope
	userRepo       identity.UserRepository
	companyRepo    identity.CompanyRepository
	membershipRepo identity.MembershipRepository
	mailer         appshared.Mailer
	loginURL       string
	logger         *zap.Logger
}

// MemberServiceDeps groups the collaborators of MemberService
type MemberServiceDeps struct {
	TxScope        appshared.TransactionScope
	UserRepo       identity.UserRepository
	CompanyRepo    identity.CompanyRepository
	MembershipRepo identity.MembershipRepository
	Mailer         appshared.Mailer
	// LoginURL is linked from invitation emails
	LoginURL string
	Logger   *zap.Logger
}

// NewMemberService creates a new MemberService
func NewMemberService(deps MemberServiceDeps) *MemberService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberService{
		txScope:        deps.TxScope,
		userRepo:       deps.UserRepo,
		companyRepo:    deps.CompanyRepo,
		membershipRepo: deps.MembershipRepo,
		mailer:         deps.Mailer,
		loginURL:       deps.LoginURL,
		logger:         logger,
	}
}

// ListMembers lists the members of a company
func (s *MemberService) ListMembers(ctx context.Context, companyID uuid.UUID, filter MemberListFilter) (shared.Paginated[MemberResponse], error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   filter.Search,
		OrderBy:  "created_at",
		OrderDir: "asc",
	}
	domainFilter.Normalize()
	if filter.Role != "" {
		domainFilter.Filters["role"] = filter.Role
	}

	memberships, total, err := s.membershipRepo.FindByCompany(ctx, companyID, domainFilter)
	if err != nil {
		return shared.Paginated[MemberResponse]{}, err
	}
	items := make([]MemberResponse, len(memberships))
	for i := range memberships {
		items[i] = ToMemberResponse(&memberships[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// InviteMember adds a user to the company by email. Unknown emails get a new
// account with a temporary password that is sent in the invitation.
func (s *MemberService) InviteMember(ctx context.Context, companyID, inviterID uuid.UUID, req InviteMemberRequest) (*MemberResponse, error) {
	role := identity.RoleEmployee
	if req.Role != "" {
		parsed, err := identity.ParseRole(req.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}

	var tempPassword string
	newUser := user == nil
	if newUser {
		tempPassword, err = temporaryPassword()
		if err != nil {
			return nil, err
		}
		user, err = identity.NewUser(req.Email, req.Name, tempPassword)
		if err != nil {
			return nil, err
		}
	} else {
		if _, err := s.membershipRepo.Find(ctx, user.ID, companyID); err == nil {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "User is already a member of this company")
		} else if !shared.IsNotFound(err) {
			return nil, err
		}
	}

	membership, err := identity.NewMembership(user.ID, companyID, role)
	if err != nil {
		return nil, err
	}
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if newUser {
			if err := repos.UserRepo().Create(ctx, user); err != nil {
				return fmt.Errorf("failed to create invited user: %w", err)
			}
		}
		return repos.MembershipRepo().Create(ctx, membership)
	})
	if err != nil {
		return nil, err
	}
	membership.User = user

	s.logger.Info("Member invited",
		zap.String("company_id", companyID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("invited_by", inviterID.String()),
		zap.Bool("new_user", newUser))

	if err := s.mailer.Send(ctx, s.invitation(company, user, role, tempPassword)); err != nil {
		s.logger.Warn("Failed to send invitation email",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	resp := ToMemberResponse(membership)
	return &resp, nil
}

// ChangeMemberRole changes a member's role. The last owner cannot be demoted.
func (s *MemberService) ChangeMemberRole(ctx context.Context, companyID, userID uuid.UUID, req ChangeRoleRequest) (*MemberResponse, error) {
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}

	var membership *identity.Membership
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		owners, err := repos.MembershipRepo().CountOwnersForUpdate(ctx, companyID)
		if err != nil {
			return err
		}
		membership, err = repos.MembershipRepo().Find(ctx, userID, companyID)
		if err != nil {
			return err
		}
		if err := membership.ChangeRole(role, owners); err != nil {
			return err
		}
		return repos.MembershipRepo().Save(ctx, membership)
	})
	if err != nil {
		return nil, err
	}

	if membership.User == nil {
		if user, err := s.userRepo.FindByID(ctx, userID); err == nil {
			membership.User = user
		}
	}
	resp := ToMemberResponse(membership)
	return &resp, nil
}

// RemoveMember removes a member. The last owner cannot be removed.
func (s *MemberService) RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error {
	return s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		owners, err := repos.MembershipRepo().CountOwnersForUpdate(ctx, companyID)
		if err != nil {
			return err
		}
		membership, err := repos.MembershipRepo().Find(ctx, userID, companyID)
		if err != nil {
			return err
		}
		if err := membership.CanBeRemoved(owners); err != nil {
			return err
		}
		return repos.MembershipRepo().Delete(ctx, userID, companyID)
	})
}

func (s *MemberService) invitation(company *identity.Company, user *identity.User, role identity.Role, tempPassword string) appshared.Message {
	subject := fmt.Sprintf("You have been added to %s on BizDesk", company.Name)
	text := fmt.Sprintf("Hello %s,\n\nYou have been added to %s as %s.\nSign in at %s with %s.\n",
		user.Name, company.Name, role, s.loginURL, user.Email)
	body := fmt.Sprintf("<p>Hello %s,</p><p>You have been added to <strong>%s</strong> as %s.</p>"+
		"<p><a href=\"%s\">Sign in</a> with %s.</p>",
		html.EscapeString(user.Name), html.EscapeString(company.Name), role,
		html.EscapeString(s.loginURL), html.EscapeString(user.Email))
	if tempPassword != "" {
		text += fmt.Sprintf("Your temporary password is %s. Please change it after signing in.\n", tempPassword)
		body += fmt.Sprintf("<p>Your temporary password is <code>%s</code>. Please change it after signing in.</p>",
			html.EscapeString(tempPassword))
	}
	return appshared.Message{
		To:       []string{user.Email},
		Subject:  subject,
		TextBody: text,
		HTMLBody: body,
	}
}

// temporaryPassword returns a random password that satisfies the password rules
func temporaryPassword() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "Tmp1" + base64.RawURLEncoding.EncodeToString(b), nil
}
