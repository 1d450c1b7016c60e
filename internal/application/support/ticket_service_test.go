package support

import (
	"context"
	"errors"
	"testing"

	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/support"
	"github.com/bizdesk/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTicketService(t *testing.T) (*TicketService, *testutil.MockTicketRepository, *testutil.MockUserRepository) {
	tickets := new(testutil.MockTicketRepository)
	users := new(testutil.MockUserRepository)
	svc := NewTicketService(TicketServiceDeps{TicketRepo: tickets, UserRepo: users, Logger: zaptest.NewLogger(t)})
	return svc, tickets, users
}

func newTicket(t *testing.T, companyID uuid.UUID) *support.Ticket {
	t.Helper()
	ticket, err := support.NewTicket(companyID, uuid.New(), "Cannot print invoice", "The PDF is blank", "", "")
	require.NoError(t, err)
	return ticket
}

func TestTicketService_CreateTicket(t *testing.T) {
	ctx := context.Background()
	svc, tickets, _ := newTicketService(t)
	companyID, userID := uuid.New(), uuid.New()
	tickets.On("Create", ctx, mock.AnythingOfType("*support.Ticket")).Return(nil).Once()

	resp, err := svc.CreateTicket(ctx, companyID, userID, CreateTicketRequest{
		Subject:     "Stock is wrong",
		Description: "Cola shows 5 but we have 12",
		Priority:    "HIGH",
	})

	require.NoError(t, err)
	assert.Equal(t, "OPEN", resp.Status)
	assert.Equal(t, "HIGH", resp.Priority)
	assert.Equal(t, "GENERAL", resp.Department)
	assert.Equal(t, companyID, resp.CompanyID)
	assert.Equal(t, &userID, resp.CreatedBy)
}

func TestTicketService_ListTickets_ScopedToCompany(t *testing.T) {
	ctx := context.Background()
	svc, tickets, _ := newTicketService(t)
	companyID := uuid.New()
	other := uuid.New()

	tickets.On("FindAll", ctx, mock.MatchedBy(func(f support.TicketFilter) bool {
		return f.CompanyID != nil && *f.CompanyID == companyID && f.Status == support.StatusOpen && !f.Unassigned
	})).Return([]support.Ticket{*newTicket(t, companyID)}, int64(1), nil).Once()

	page, err := svc.ListTickets(ctx, companyID, TicketListFilter{Status: "OPEN", CompanyID: &other, Unassigned: true})

	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	tickets.AssertExpectations(t)
}

func TestTicketService_GetTicket_OtherCompany(t *testing.T) {
	ctx := context.Background()
	svc, tickets, _ := newTicketService(t)
	ticket := newTicket(t, uuid.New())
	tickets.On("FindByID", ctx, ticket.ID).Return(ticket, nil).Once()

	_, err := svc.GetTicket(ctx, uuid.New(), ticket.ID)

	assert.True(t, shared.IsNotFound(err))
}

func TestTicketService_AddMessage(t *testing.T) {
	ctx := context.Background()
	companyID, userID := uuid.New(), uuid.New()

	t.Run("member reply reopens resolved ticket", func(t *testing.T) {
		svc, tickets, _ := newTicketService(t)
		ticket := newTicket(t, companyID)
		require.NoError(t, ticket.ChangeStatus(support.StatusResolved))
		tickets.On("FindByID", ctx, ticket.ID).Return(ticket, nil).Once()
		tickets.On("AddMessage", ctx, ticket, mock.AnythingOfType("*support.TicketMessage")).Return(nil).Once()

		msg, err := svc.AddMessage(ctx, companyID, userID, ticket.ID, AddMessageRequest{Body: "Still broken"})

		require.NoError(t, err)
		assert.False(t, msg.IsStaff)
		assert.Equal(t, support.StatusOpen, ticket.Status)
		assert.Nil(t, ticket.ResolvedAt)
	})

	t.Run("closed ticket", func(t *testing.T) {
		svc, tickets, _ := newTicketService(t)
		ticket := newTicket(t, companyID)
		require.NoError(t, ticket.Close())
		tickets.On("FindByID", ctx, ticket.ID).Return(ticket, nil).Once()

		_, err := svc.AddMessage(ctx, companyID, userID, ticket.ID, AddMessageRequest{Body: "Hello?"})

		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		tickets.AssertNotCalled(t, "AddMessage", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTicketService_CloseTicket(t *testing.T) {
	ctx := context.Background()
	svc, tickets, _ := newTicketService(t)
	companyID := uuid.New()
	ticket := newTicket(t, companyID)
	tickets.On("FindByID", ctx, ticket.ID).Return(ticket, nil).Twice()
	tickets.On("Save", ctx, ticket).Return(nil).Once()

	resp, err := svc.CloseTicket(ctx, companyID, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", resp.Status)
	assert.NotNil(t, resp.ClosedAt)

	_, err = svc.CloseTicket(ctx, companyID, ticket.ID)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestTicketService_AssignTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("admin", func(t *testing.T) {
		svc, tickets, users := newTicketService(t)
		admin, err := identity.NewUser("ops@bizdesk.test", "Ops", "secret123")
		require.NoError(t, err)
		admin.PlatformRole = identity.PlatformRoleAdmin
		ticket := newTicket(t, uuid.New())
		users.On("FindByID", ctx, admin.ID).Return(admin, nil).Once()
		tickets.On("FindByID", ctx, ticket.ID).Return(ticket, nil).Once()
		tickets.On("Save", ctx, ticket).Return(nil).Once()

		resp, err := svc.AssignTicket(ctx, ticket.ID, AssignTicketRequest{AdminID: admin.ID})

		require.NoError(t, err)
		assert.Equal(t, &admin.ID, resp.AssignedTo)
	})

	t.Run("regular user", func(t *testing.T) {
		svc, tickets, users := newTicketService(t)
		user, err := identity.NewUser("emp@acme.test", "Emp", "secret123")
		require.NoError(t, err)
		users.On("FindByID", ctx, user.ID).Return(user, nil).Once()

		_, err = svc.AssignTicket(ctx, uuid.New(), AssignTicketRequest{AdminID: user.ID})

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_ASSIGNEE", de.Code)
		tickets.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestTicketService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		from    support.Status
		to      string
		wantErr bool
	}{
		{name: "open to in progress", from: support.StatusOpen, to: "IN_PROGRESS"},
		{name: "in progress to resolved", from: support.StatusInProgress, to: "RESOLVED"},
		{name: "closed to open", from: support.StatusClosed, to: "OPEN"},
		{name: "closed to resolved", from: support.StatusClosed, to: "RESOLVED", wantErr: true},
		{name: "resolved to in progress", from: support.StatusResolved, to: "IN_PROGRESS", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, tickets, _ := newTicketService(t)
			ticket := newTicket(t, uuid.New())
			ticket.Status = tt.from
			tickets.On("FindByID", ctx, ticket.ID).Return(ticket, nil).Once()
			tickets.On("Save", ctx, ticket).Return(nil).Maybe()

			resp, err := svc.UpdateStatus(ctx, ticket.ID, UpdateStatusRequest{Status: tt.to})

			if tt.wantErr {
				assert.True(t, errors.Is(err, shared.ErrInvalidState))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, resp.Status)
		})
	}
}

func TestTicketService_StaffReply(t *testing.T) {
	ctx := context.Background()
	svc, tickets, _ := newTicketService(t)
	ticket := newTicket(t, uuid.New())
	adminID := uuid.New()
	tickets.On("FindByID", ctx, ticket.ID).Return(ticket, nil).Once()
	tickets.On("AddMessage", ctx, ticket, mock.Anything).Return(nil).Once()

	msg, err := svc.StaffReply(ctx, adminID, ticket.ID, AddMessageRequest{Body: "Looking into it"})

	require.NoError(t, err)
	assert.True(t, msg.IsStaff)
	assert.Equal(t, adminID, msg.AuthorID)
	assert.Equal(t, support.StatusInProgress, ticket.Status)
}

func TestTicketService_DeleteTicket(t *testing.T) {
	ctx := context.Background()
	svc, tickets, _ := newTicketService(t)
	id := uuid.New()
	tickets.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound).Once()

	assert.True(t, shared.IsNotFound(svc.DeleteTicket(ctx, id)))
	tickets.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestTicketService_Stats(t *testing.T) {
	ctx := context.Background()

	t.Run("returns repository counters", func(t *testing.T) {
		svc, tickets, _ := newTicketService(t)
		want := &support.Stats{
			Total:          7,
			ByStatus:       map[support.Status]int64{support.StatusOpen: 5, support.StatusClosed: 2},
			OpenUnassigned: 3,
		}
		tickets.On("Stats", ctx).Return(want, nil).Once()

		got, err := svc.Stats(ctx)

		require.NoError(t, err)
		assert.Same(t, want, got)
		tickets.AssertExpectations(t)
	})

	t.Run("propagates errors", func(t *testing.T) {
		svc, tickets, _ := newTicketService(t)
		tickets.On("Stats", ctx).Return(nil, errors.New("db down")).Once()

		got, err := svc.Stats(ctx)

		assert.Nil(t, got)
		assert.Error(t, err)
	})
}
