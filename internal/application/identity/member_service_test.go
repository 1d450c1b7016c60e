package identity

import (
	"context"
	"errors"
	"testing"

	appshared "github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/infrastructure/mail"
	"github.com/bizdesk/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memberFixture struct {
	users       *testutil.MockUserRepository
	companies   *testutil.MockCompanyRepository
	memberships *testutil.MockMembershipRepository
	mailer      *mail.LogMailer
	service     *MemberService
}

func newMemberFixture(t *testing.T) *memberFixture {
	logger := zaptest.NewLogger(t)
	f := &memberFixture{
		users:       new(testutil.MockUserRepository),
		companies:   new(testutil.MockCompanyRepository),
		memberships: new(testutil.MockMembershipRepository),
		mailer:      mail.NewLogMailer(logger),
	}
	scope := appshared.NewNoOpTransactionScope(&appshared.Repositories{
		Users:       f.users,
		Companies:   f.companies,
		Memberships: f.memberships,
	})
	f.service = NewMemberService(MemberServiceDeps{
		TxScope:        scope,
		UserRepo:       f.users,
		CompanyRepo:    f.companies,
		MembershipRepo: f.memberships,
		Mailer:         f.mailer,
		LoginURL:       "https://app.bizdesk.test/login",
		Logger:         logger,
	})
	return f
}

func TestMemberService_InviteMember(t *testing.T) {
	ctx := context.Background()
	company := newTestCompany(t)
	inviter := uuid.New()

	t.Run("new user gets a temporary password", func(t *testing.T) {
		f := newMemberFixture(t)
		f.companies.On("FindByID", ctx, company.ID).Return(company, nil).Once()
		f.users.On("FindByEmail", ctx, "emp@example.com").Return(nil, shared.ErrNotFound).Once()
		var created *identity.User
		f.users.On("Create", ctx, mock.AnythingOfType("*identity.User")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*identity.User) }).
			Return(nil).Once()
		f.memberships.On("Create", ctx, mock.MatchedBy(func(m *identity.Membership) bool {
			return m.Role == identity.RoleEmployee && m.CompanyID == company.ID
		})).Return(nil).Once()

		resp, err := f.service.InviteMember(ctx, company.ID, inviter, InviteMemberRequest{Email: "emp@example.com", Name: "Emma"})

		require.NoError(t, err)
		assert.Equal(t, "EMPLOYEE", resp.Role)
		assert.Equal(t, "Emma", resp.Name)
		assert.True(t, created.HasPassword())

		sent := f.mailer.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, []string{"emp@example.com"}, sent[0].To)
		assert.Contains(t, sent[0].Subject, "Acme Ltd")
		assert.Contains(t, sent[0].TextBody, "temporary password")
		assert.Contains(t, sent[0].HTMLBody, "https://app.bizdesk.test/login")
	})

	t.Run("existing user", func(t *testing.T) {
		f := newMemberFixture(t)
		user := newTestUser(t, "emp@example.com")
		f.companies.On("FindByID", ctx, company.ID).Return(company, nil).Once()
		f.users.On("FindByEmail", ctx, "emp@example.com").Return(user, nil).Once()
		f.memberships.On("Find", ctx, user.ID, company.ID).Return(nil, shared.ErrNotFound).Once()
		f.memberships.On("Create", ctx, mock.Anything).Return(nil).Once()

		resp, err := f.service.InviteMember(ctx, company.ID, inviter, InviteMemberRequest{Email: "emp@example.com", Role: "OWNER"})

		require.NoError(t, err)
		assert.Equal(t, "OWNER", resp.Role)
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		require.Len(t, f.mailer.Sent(), 1)
		assert.NotContains(t, f.mailer.Sent()[0].TextBody, "temporary password")
	})

	t.Run("already a member", func(t *testing.T) {
		f := newMemberFixture(t)
		user := newTestUser(t, "emp@example.com")
		existing, err := identity.NewMembership(user.ID, company.ID, identity.RoleEmployee)
		require.NoError(t, err)
		f.companies.On("FindByID", ctx, company.ID).Return(company, nil).Once()
		f.users.On("FindByEmail", ctx, "emp@example.com").Return(user, nil).Once()
		f.memberships.On("Find", ctx, user.ID, company.ID).Return(existing, nil).Once()

		_, err = f.service.InviteMember(ctx, company.ID, inviter, InviteMemberRequest{Email: "emp@example.com"})

		assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
		assert.Empty(t, f.mailer.Sent())
	})
}

func TestMemberService_ChangeMemberRole(t *testing.T) {
	ctx := context.Background()
	companyID, userID := uuid.New(), uuid.New()

	t.Run("last owner cannot be demoted", func(t *testing.T) {
		f := newMemberFixture(t)
		owner, err := identity.NewMembership(userID, companyID, identity.RoleOwner)
		require.NoError(t, err)
		mock.InOrder(
			f.memberships.On("CountOwnersForUpdate", ctx, companyID).Return(int64(1), nil).Once(),
			f.memberships.On("Find", ctx, userID, companyID).Return(owner, nil).Once(),
		)

		_, err = f.service.ChangeMemberRole(ctx, companyID, userID, ChangeRoleRequest{Role: "EMPLOYEE"})

		assertCode(t, err, "INVALID_STATE")
		f.memberships.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("promote", func(t *testing.T) {
		f := newMemberFixture(t)
		employee, err := identity.NewMembership(userID, companyID, identity.RoleEmployee)
		require.NoError(t, err)
		user := newTestUser(t, "emp@example.com")
		f.memberships.On("Find", ctx, userID, companyID).Return(employee, nil).Once()
		f.memberships.On("CountOwnersForUpdate", ctx, companyID).Return(int64(1), nil).Once()
		f.memberships.On("Save", ctx, employee).Return(nil).Once()
		f.users.On("FindByID", ctx, userID).Return(user, nil).Once()

		resp, err := f.service.ChangeMemberRole(ctx, companyID, userID, ChangeRoleRequest{Role: "OWNER"})

		require.NoError(t, err)
		assert.Equal(t, "OWNER", resp.Role)
		assert.Equal(t, "emp@example.com", resp.Email)
	})
}

func TestMemberService_RemoveMember(t *testing.T) {
	ctx := context.Background()
	companyID, userID := uuid.New(), uuid.New()

	t.Run("last owner", func(t *testing.T) {
		f := newMemberFixture(t)
		owner, err := identity.NewMembership(userID, companyID, identity.RoleOwner)
		require.NoError(t, err)
		f.memberships.On("Find", ctx, userID, companyID).Return(owner, nil).Once()
		f.memberships.On("CountOwnersForUpdate", ctx, companyID).Return(int64(1), nil).Once()

		err = f.service.RemoveMember(ctx, companyID, userID)

		assertCode(t, err, "INVALID_STATE")
	})

	t.Run("employee", func(t *testing.T) {
		f := newMemberFixture(t)
		employee, err := identity.NewMembership(userID, companyID, identity.RoleEmployee)
		require.NoError(t, err)
		f.memberships.On("Find", ctx, userID, companyID).Return(employee, nil).Once()
		f.memberships.On("CountOwnersForUpdate", ctx, companyID).Return(int64(2), nil).Once()
		f.memberships.On("Delete", ctx, userID, companyID).Return(nil).Once()

		require.NoError(t, f.service.RemoveMember(ctx, companyID, userID))
		f.memberships.AssertExpectations(t)
	})
}

func TestMemberService_ListMembers(t *testing.T) {
	ctx := context.Background()
	f := newMemberFixture(t)
	companyID := uuid.New()
	user := newTestUser(t, "emp@example.com")
	m, err := identity.NewMembership(user.ID, companyID, identity.RoleEmployee)
	require.NoError(t, err)
	m.User = user

	f.memberships.On("FindByCompany", ctx, companyID, mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Filters["role"] == "EMPLOYEE" && filter.OrderDir == "asc"
	})).Return([]identity.Membership{*m}, int64(1), nil).Once()

	page, err := f.service.ListMembers(ctx, companyID, MemberListFilter{Role: "EMPLOYEE"})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "emp@example.com", page.Items[0].Email)
	assert.True(t, page.Items[0].IsActive)
}
