package persistence

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/support"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTicketRepository implements TicketRepository using GORM
type GormTicketRepository struct {
	db *gorm.DB
}

// NewGormTicketRepository creates a new GormTicketRepository
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// FindByID loads a ticket with its thread, oldest message first
func (r *GormTicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*support.Ticket, error) {
	var ticket support.Ticket
	if err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&ticket).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &ticket, nil
}

// FindAll lists ticket headers without messages
func (r *GormTicketRepository) FindAll(ctx context.Context, filter support.TicketFilter) ([]support.Ticket, int64, error) {
	query := r.db.WithContext(ctx).Model(&support.Ticket{})
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.Unassigned {
		query = query.Where("assigned_to IS NULL")
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("subject ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	query = applyDateRange(query, "created_at", filter.Filter)

	var tickets []support.Ticket
	total, err := findPage(query, filter.Filter, TicketSortFields, "created_at", &tickets)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

// Create inserts a ticket and any initial messages
func (r *GormTicketRepository) Create(ctx context.Context, ticket *support.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

// Save updates the ticket header
func (r *GormTicketRepository) Save(ctx context.Context, ticket *support.Ticket) error {
	return r.db.WithContext(ctx).Omit("Messages").Save(ticket).Error
}

// AddMessage appends a message and persists the status change it may have caused
func (r *GormTicketRepository) AddMessage(ctx context.Context, ticket *support.Ticket, message *support.TicketMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Omit("Messages").Save(ticket).Error
	})
}

// Delete removes a ticket and its thread
func (r *GormTicketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", id).Delete(&support.TicketMessage{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&support.Ticket{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

type groupCount struct {
	Key   string
	Count int64
}

// Stats aggregates ticket counts across all companies
func (r *GormTicketRepository) Stats(ctx context.Context) (*support.Stats, error) {
	db := r.db.WithContext(ctx)
	stats := &support.Stats{
		ByStatus:     make(map[support.Status]int64, len(support.AllStatuses)),
		ByPriority:   make(map[support.Priority]int64, len(support.AllPriorities)),
		ByDepartment: make(map[support.Department]int64, len(support.AllDepartments)),
	}
	for _, s := range support.AllStatuses {
		stats.ByStatus[s] = 0
	}
	for _, p := range support.AllPriorities {
		stats.ByPriority[p] = 0
	}
	for _, d := range support.AllDepartments {
		stats.ByDepartment[d] = 0
	}

	for _, column := range []string{"status", "priority", "department"} {
		var rows []groupCount
		if err := db.Model(&support.Ticket{}).
			Select(column + " AS key, COUNT(*) AS count").
			Group(column).
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			switch column {
			case "status":
				stats.ByStatus[support.Status(row.Key)] = row.Count
				stats.Total += row.Count
			case "priority":
				stats.ByPriority[support.Priority(row.Key)] = row.Count
			case "department":
				stats.ByDepartment[support.Department(row.Key)] = row.Count
			}
		}
	}

	if err := db.Model(&support.Ticket{}).
		Where("status IN ? AND assigned_to IS NULL", []support.Status{support.StatusOpen, support.StatusInProgress}).
		Count(&stats.OpenUnassigned).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&support.Ticket{}).
		Select("COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600), 0)").
		Where("resolved_at IS NOT NULL").
		Scan(&stats.AverageResolutionHours).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// Ensure GormTicketRepository implements TicketRepository
var _ support.TicketRepository = (*GormTicketRepository)(nil)
