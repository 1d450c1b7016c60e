package support

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/support"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListAllTickets lists tickets across companies for platform admins
func (s *TicketService) ListAllTickets(ctx context.Context, filter TicketListFilter) (shared.Paginated[TicketResponse], error) {
	domainFilter := filter.toDomain()
	domainFilter.CompanyID = filter.CompanyID

	tickets, total, err := s.ticketRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[TicketResponse]{}, err
	}
	return toTicketPage(tickets, total, domainFilter), nil
}

// AdminGetTicket loads any ticket with its thread
func (s *TicketService) AdminGetTicket(ctx context.Context, id uuid.UUID) (*TicketResponse, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToTicketResponse(ticket)
	return &resp, nil
}

// AssignTicket hands a ticket to a platform admin
func (s *TicketService) AssignTicket(ctx context.Context, id uuid.UUID, req AssignTicketRequest) (*TicketResponse, error) {
	admin, err := s.userRepo.FindByID(ctx, req.AdminID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("INVALID_ASSIGNEE", "Assignee does not exist")
		}
		return nil, err
	}
	if !admin.IsPlatformAdmin() {
		return nil, shared.NewDomainError("INVALID_ASSIGNEE", "Tickets can only be assigned to platform admins")
	}

	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.Assign(admin.ID)
	if err := s.ticketRepo.Save(ctx, ticket); err != nil {
		return nil, err
	}
	s.logger.Info("Support ticket assigned",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("admin_id", admin.ID.String()))
	resp := ToTicketResponse(ticket)
	return &resp, nil
}

// UpdateStatus applies a status transition
func (s *TicketService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*TicketResponse, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ticket.ChangeStatus(support.Status(req.Status)); err != nil {
		return nil, err
	}
	if err := s.ticketRepo.Save(ctx, ticket); err != nil {
		return nil, err
	}
	resp := ToTicketResponse(ticket)
	return &resp, nil
}

// UpdatePriority changes the priority of a ticket
func (s *TicketService) UpdatePriority(ctx context.Context, id uuid.UUID, req UpdatePriorityRequest) (*TicketResponse, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ticket.ChangePriority(support.Priority(req.Priority)); err != nil {
		return nil, err
	}
	if err := s.ticketRepo.Save(ctx, ticket); err != nil {
		return nil, err
	}
	resp := ToTicketResponse(ticket)
	return &resp, nil
}

// StaffReply posts a staff message. The first reply moves an open ticket to IN_PROGRESS.
func (s *TicketService) StaffReply(ctx context.Context, adminID, id uuid.UUID, req AddMessageRequest) (*MessageResponse, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.postMessage(ctx, ticket, adminID, req.Body, true)
}

// DeleteTicket removes a ticket and its thread
func (s *TicketService) DeleteTicket(ctx context.Context, id uuid.UUID) error {
	if _, err := s.ticketRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.ticketRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Support ticket deleted", zap.String("ticket_id", id.String()))
	return nil
}

// Stats returns the admin dashboard counters
func (s *TicketService) Stats(ctx context.Context) (*support.Stats, error) {
	return s.ticketRepo.Stats(ctx)
}
