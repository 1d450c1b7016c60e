package support

import (
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/support"
	"github.com/google/uuid"
)

// CreateTicketRequest represents a request to open a ticket
type CreateTicketRequest struct {
	Subject     string `json:"subject" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"required"`
	Priority    string `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Department  string `json:"department" binding:"omitempty,oneof=GENERAL BILLING TECHNICAL SALES"`
}

// AddMessageRequest represents a reply on a ticket thread
type AddMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// AssignTicketRequest assigns a ticket to a platform admin
type AssignTicketRequest struct {
	AdminID uuid.UUID `json:"admin_id" binding:"required"`
}

// UpdateStatusRequest moves a ticket to another status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
}

// UpdatePriorityRequest changes the priority of a ticket
type UpdatePriorityRequest struct {
	Priority string `json:"priority" binding:"required,oneof=LOW MEDIUM HIGH URGENT"`
}

// TicketListFilter represents filter options for ticket listings.
// CompanyID and Unassigned are only honoured on the admin listing.
type TicketListFilter struct {
	Search     string     `form:"search"`
	Status     string     `form:"status" binding:"omitempty,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
	Priority   string     `form:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Department string     `form:"department" binding:"omitempty,oneof=GENERAL BILLING TECHNICAL SALES"`
	CompanyID  *uuid.UUID `form:"company_id"`
	AssignedTo *uuid.UUID `form:"assigned_to"`
	Unassigned bool       `form:"unassigned"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f TicketListFilter) toDomain() support.TicketFilter {
	filter := support.TicketFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		},
		Status:     support.Status(f.Status),
		Priority:   support.Priority(f.Priority),
		Department: support.Department(f.Department),
		AssignedTo: f.AssignedTo,
		Unassigned: f.Unassigned,
	}
	filter.Normalize()
	return filter
}

// MessageResponse represents a ticket message in API responses
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketResponse represents a ticket in API responses. Messages are only
// filled when a single ticket is loaded.
type TicketResponse struct {
	ID          uuid.UUID         `json:"id"`
	CompanyID   uuid.UUID         `json:"company_id"`
	CreatedBy   *uuid.UUID        `json:"created_by,omitempty"`
	Subject     string            `json:"subject"`
	Description string            `json:"description"`
	Priority    string            `json:"priority"`
	Department  string            `json:"department"`
	Status      string            `json:"status"`
	AssignedTo  *uuid.UUID        `json:"assigned_to,omitempty"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
	ClosedAt    *time.Time        `json:"closed_at,omitempty"`
	Messages    []MessageResponse `json:"messages,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ToTicketResponse converts a ticket to its response
func ToTicketResponse(t *support.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          t.ID,
		CompanyID:   t.CompanyID,
		CreatedBy:   t.CreatedBy,
		Subject:     t.Subject,
		Description: t.Description,
		Priority:    string(t.Priority),
		Department:  string(t.Department),
		Status:      string(t.Status),
		AssignedTo:  t.AssignedTo,
		ResolvedAt:  t.ResolvedAt,
		ClosedAt:    t.ClosedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, m := range t.Messages {
		resp.Messages = append(resp.Messages, toMessageResponse(&m))
	}
	return resp
}

func toMessageResponse(m *support.TicketMessage) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		AuthorID:  m.AuthorID,
		Body:      m.Body,
		IsStaff:   m.IsStaff,
		CreatedAt: m.CreatedAt,
	}
}

func toTicketPage(tickets []support.Ticket, total int64, filter support.TicketFilter) shared.Paginated[TicketResponse] {
	items := make([]TicketResponse, len(tickets))
	for i := range tickets {
		items[i] = ToTicketResponse(&tickets[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize)
}
