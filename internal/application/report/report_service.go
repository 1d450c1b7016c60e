package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/report"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportService builds business summaries from SQL aggregations
type ReportService struct {
	reportRepo   report.Repository
	companyRepo  identity.CompanyRepository
	settingsRepo identity.SettingsRepository
	productRepo  catalog.ProductRepository
	logger       *zap.Logger
	now          func() time.Time
}

// ReportServiceDeps groups the collaborators of ReportService
type ReportServiceDeps struct {
	ReportRepo   report.Repository
	CompanyRepo  identity.CompanyRepository
	SettingsRepo identity.SettingsRepository
	ProductRepo  catalog.ProductRepository
	Logger       *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(deps ReportServiceDeps) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reportRepo:   deps.ReportRepo,
		companyRepo:  deps.CompanyRepo,
		settingsRepo: deps.SettingsRepo,
		productRepo:  deps.ProductRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Summary aggregates sales, purchases and stock for the requested period
func (s *ReportService) Summary(ctx context.Context, companyID uuid.UUID, q SummaryQuery) (*report.Summary, error) {
	company, settings, err := s.load(ctx, companyID)
	if err != nil {
		return nil, err
	}
	loc := settings.Location()

	from, err := parseDay(q.From, loc)
	if err != nil {
		return nil, err
	}
	to, err := parseDay(q.To, loc)
	if err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = s.now().In(loc)
	}
	return s.build(ctx, company, settings, report.NewPeriod(from, to, loc))
}

// DailySummary covers the calendar day before now in the company timezone
func (s *ReportService) DailySummary(ctx context.Context, companyID uuid.UUID, now time.Time) (*report.Summary, *identity.Company, *identity.CompanySettings, error) {
	company, settings, err := s.load(ctx, companyID)
	if err != nil {
		return nil, nil, nil, err
	}
	summary, err := s.build(ctx, company, settings, report.Yesterday(now, settings.Location()))
	if err != nil {
		return nil, nil, nil, err
	}
	return summary, company, settings, nil
}

func (s *ReportService) build(ctx context.Context, company *identity.Company, settings *identity.CompanySettings, period report.Period) (*report.Summary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ReportService", "Summary",
		"company_id", company.ID.String(),
		"from", period.From.Format(time.DateOnly),
		"to", period.To.Format(time.DateOnly))
	defer span.End()

	totals, err := s.reportRepo.Totals(ctx, company.ID, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	top, err := s.reportRepo.TopProducts(ctx, company.ID, period, report.TopProductsLimit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	daily, err := s.reportRepo.DailySales(ctx, company.ID, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	lowStock, err := s.productRepo.CountLowStock(ctx, company.ID, int64(settings.LowStockThreshold))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to count low stock products: %w", err)
	}

	if top == nil {
		top = []report.TopProduct{}
	}
	return &report.Summary{
		CompanyID:     company.ID,
		CompanyName:   company.Name,
		Currency:      settings.Currency,
		Period:        period,
		Totals:        totals,
		TopProducts:   top,
		DailySales:    report.FillDailySeries(period, daily),
		LowStockCount: lowStock,
		GeneratedAt:   s.now(),
	}, nil
}

func (s *ReportService) load(ctx context.Context, companyID uuid.UUID) (*identity.Company, *identity.CompanySettings, error) {
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	settings, err := s.settingsRepo.FindByCompany(ctx, companyID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, nil, err
		}
		settings = identity.NewCompanySettings(companyID)
	}
	return company, settings, nil
}

// parseDay parses a YYYY-MM-DD date in loc. Empty input yields the zero time.
func parseDay(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_DATE", fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", value))
	}
	return t, nil
}
