package support

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TicketFilter narrows ticket listings
type TicketFilter struct {
	shared.Filter
	CompanyID  *uuid.UUID
	Status     Status
	Priority   Priority
	Department Department
	AssignedTo *uuid.UUID
	Unassigned bool
}

// Stats aggregates ticket counts for the admin dashboard
type Stats struct {
	Total                  int64                `json:"total"`
	ByStatus               map[Status]int64     `json:"by_status"`
	ByPriority             map[Priority]int64   `json:"by_priority"`
	ByDepartment           map[Department]int64 `json:"by_department"`
	OpenUnassigned         int64                `json:"open_unassigned"`
	AverageResolutionHours float64              `json:"average_resolution_hours"`
}

// TicketRepository persists tickets and their messages
type TicketRepository interface {
	// FindByID loads the ticket with messages ordered oldest first
	FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	FindAll(ctx context.Context, filter TicketFilter) ([]Ticket, int64, error)
	Create(ctx context.Context, ticket *Ticket) error
	Save(ctx context.Context, ticket *Ticket) error
	AddMessage(ctx context.Context, ticket *Ticket, message *TicketMessage) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*Stats, error)
}
