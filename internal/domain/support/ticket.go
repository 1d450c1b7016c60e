package support

import (
	"strings"
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Priority of a ticket
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// IsValid reports whether the priority is known
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Department a ticket is routed to
type Department string

const (
	DepartmentGeneral   Department = "GENERAL"
	DepartmentBilling   Department = "BILLING"
	DepartmentTechnical Department = "TECHNICAL"
	DepartmentSales     Department = "SALES"
)

// IsValid reports whether the department is known
func (d Department) IsValid() bool {
	switch d {
	case DepartmentGeneral, DepartmentBilling, DepartmentTechnical, DepartmentSales:
		return true
	}
	return false
}

// Status of a ticket
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
)

// AllStatuses in display order
var AllStatuses = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// AllPriorities in display order
var AllPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// AllDepartments in display order
var AllDepartments = []Department{DepartmentGeneral, DepartmentBilling, DepartmentTechnical, DepartmentSales}

var transitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusResolved, StatusClosed},
	StatusInProgress: {StatusResolved, StatusClosed, StatusOpen},
	StatusResolved:   {StatusClosed, StatusOpen},
	StatusClosed:     {StatusOpen},
}

// IsValid reports whether the status is known
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Ticket is a support request raised by a company member
type Ticket struct {
	shared.CompanyAggregateRoot
	Subject     string          `gorm:"size:200;not null" json:"subject"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Priority    Priority        `gorm:"size:20;not null;index" json:"priority"`
	Department  Department      `gorm:"size:20;not null;index" json:"department"`
	Status      Status          `gorm:"size:20;not null;index" json:"status"`
	AssignedTo  *uuid.UUID      `gorm:"type:uuid;index" json:"assigned_to,omitempty"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	ClosedAt    *time.Time      `json:"closed_at,omitempty"`
	Messages    []TicketMessage `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// TableName returns the table name for GORM
func (Ticket) TableName() string {
	return "tickets"
}

// TicketMessage is one entry in a ticket thread
type TicketMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID  uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	IsStaff   bool      `gorm:"not null;default:false" json:"is_staff"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName returns the table name for GORM
func (TicketMessage) TableName() string {
	return "ticket_messages"
}

// NewTicket opens a ticket
func NewTicket(companyID, createdBy uuid.UUID, subject, description string, priority Priority, department Department) (*Ticket, error) {
	subject = strings.TrimSpace(subject)
	description = strings.TrimSpace(description)
	if subject == "" || len(subject) > 200 {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject must be 1 to 200 characters")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRIORITY", "Unknown priority")
	}
	if department == "" {
		department = DepartmentGeneral
	}
	if !department.IsValid() {
		return nil, shared.NewDomainError("INVALID_DEPARTMENT", "Unknown department")
	}

	t := &Ticket{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Subject:              subject,
		Description:          description,
		Priority:             priority,
		Department:           department,
		Status:               StatusOpen,
	}
	t.SetCreatedBy(createdBy)
	return t, nil
}

// ChangeStatus applies a status transition and maintains resolved/closed timestamps
func (t *Ticket) ChangeStatus(next Status) error {
	if !next.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown ticket status")
	}
	if !t.Status.CanTransitionTo(next) {
		return shared.NewDomainError("INVALID_STATE", "Cannot move ticket from "+string(t.Status)+" to "+string(next))
	}
	now := time.Now()
	switch next {
	case StatusResolved:
		t.ResolvedAt = &now
	case StatusClosed:
		t.ClosedAt = &now
	case StatusOpen:
		t.ResolvedAt = nil
		t.ClosedAt = nil
	}
	t.Status = next
	t.IncrementVersion()
	return nil
}

// ChangePriority updates the priority
func (t *Ticket) ChangePriority(p Priority) error {
	if !p.IsValid() {
		return shared.NewDomainError("INVALID_PRIORITY", "Unknown priority")
	}
	t.Priority = p
	t.IncrementVersion()
	return nil
}

// Assign sets the responsible platform admin
func (t *Ticket) Assign(adminID uuid.UUID) {
	t.AssignedTo = &adminID
	t.IncrementVersion()
}

// AddMessage appends to the thread. A customer message reopens a resolved
// ticket and the first staff reply puts an open ticket in progress.
func (t *Ticket) AddMessage(authorID uuid.UUID, body string, isStaff bool) (*TicketMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message cannot be empty")
	}
	if t.Status == StatusClosed {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot reply to a closed ticket")
	}

	switch {
	case t.Status == StatusResolved && !isStaff:
		if err := t.ChangeStatus(StatusOpen); err != nil {
			return nil, err
		}
	case t.Status == StatusOpen && isStaff:
		if err := t.ChangeStatus(StatusInProgress); err != nil {
			return nil, err
		}
	default:
		t.IncrementVersion()
	}

	return &TicketMessage{
		ID:        uuid.New(),
		TicketID:  t.ID,
		AuthorID:  authorID,
		Body:      body,
		IsStaff:   isStaff,
		CreatedAt: time.Now(),
	}, nil
}

// Close closes the ticket from any non-closed state
func (t *Ticket) Close() error {
	return t.ChangeStatus(StatusClosed)
}
