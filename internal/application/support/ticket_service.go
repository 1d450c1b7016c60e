package support

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/support"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TicketService handles support tickets for company members and platform admins
type TicketService struct {
	ticketRepo support.TicketRepository
	userRepo   identity.UserRepository
	logger     *zap.Logger
}

// TicketServiceDeps groups the collaborators of TicketService
type TicketServiceDeps struct {
	TicketRepo support.TicketRepository
	UserRepo   identity.UserRepository
	Logger     *zap.Logger
}

// NewTicketService creates a new TicketService
func NewTicketService(deps TicketServiceDeps) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		ticketRepo: deps.TicketRepo,
		userRepo:   deps.UserRepo,
		logger:     logger,
	}
}

// CreateTicket opens a ticket for the caller's company
func (s *TicketService) CreateTicket(ctx context.Context, companyID, userID uuid.UUID, req CreateTicketRequest) (*TicketResponse, error) {
	ticket, err := support.NewTicket(companyID, userID, req.Subject, req.Description,
		support.Priority(req.Priority), support.Department(req.Department))
	if err != nil {
		return nil, err
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.logger.Info("Support ticket opened",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("priority", string(ticket.Priority)))
	resp := ToTicketResponse(ticket)
	return &resp, nil
}

// ListTickets lists the tickets of one company
func (s *TicketService) ListTickets(ctx context.Context, companyID uuid.UUID, filter TicketListFilter) (shared.Paginated[TicketResponse], error) {
	domainFilter := filter.toDomain()
	domainFilter.CompanyID = &companyID
	domainFilter.AssignedTo = nil
	domainFilter.Unassigned = false

	tickets, total, err := s.ticketRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[TicketResponse]{}, err
	}
	return toTicketPage(tickets, total, domainFilter), nil
}

// GetTicket loads a ticket of the company with its thread
func (s *TicketService) GetTicket(ctx context.Context, companyID, id uuid.UUID) (*TicketResponse, error) {
	ticket, err := s.companyTicket(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := ToTicketResponse(ticket)
	return &resp, nil
}

// AddMessage posts a member reply. Replying to a resolved ticket reopens it.
func (s *TicketService) AddMessage(ctx context.Context, companyID, userID, id uuid.UUID, req AddMessageRequest) (*MessageResponse, error) {
	ticket, err := s.companyTicket(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return s.postMessage(ctx, ticket, userID, req.Body, false)
}

// CloseTicket closes a ticket of the company
func (s *TicketService) CloseTicket(ctx context.Context, companyID, id uuid.UUID) (*TicketResponse, error) {
	ticket, err := s.companyTicket(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := ticket.Close(); err != nil {
		return nil, err
	}
	if err := s.ticketRepo.Save(ctx, ticket); err != nil {
		return nil, err
	}
	resp := ToTicketResponse(ticket)
	return &resp, nil
}

// companyTicket hides tickets of other companies behind NOT_FOUND
func (s *TicketService) companyTicket(ctx context.Context, companyID, id uuid.UUID) (*support.Ticket, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	return ticket, nil
}

func (s *TicketService) postMessage(ctx context.Context, ticket *support.Ticket, authorID uuid.UUID, body string, isStaff bool) (*MessageResponse, error) {
	message, err := ticket.AddMessage(authorID, body, isStaff)
	if err != nil {
		return nil, err
	}
	if err := s.ticketRepo.AddMessage(ctx, ticket, message); err != nil {
		return nil, err
	}
	resp := toMessageResponse(message)
	return &resp, nil
}
