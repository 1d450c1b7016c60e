package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizdesk/backend/internal/domain/assistant"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/trade"
	"github.com/bizdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Errors returned by Ask
var (
	ErrAssistantDisabled    = shared.NewDomainError("ASSISTANT_DISABLED", "The assistant is not enabled")
	ErrQuotaExceeded        = shared.NewDomainError("QUOTA_EXCEEDED", "Daily assistant quota reached, upgrade to premium for unlimited questions")
	ErrAssistantUnavailable = shared.NewDomainError("ASSISTANT_UNAVAILABLE", "The assistant could not answer right now, please try again")
)

// quotaWindow outlives the calendar day encoded in the quota key
const quotaWindow = 25 * time.Hour

// Model completes prompts
type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Provider() string
}

// QuotaCounter is a fixed-window usage counter
type QuotaCounter interface {
	Consume(ctx context.Context, key string, limit int64, window time.Duration) (int64, bool, error)
	Refund(ctx context.Context, key string) error
}

// AssistantService answers business questions from a company's own data
type AssistantService struct {
	companyRepo    identity.CompanyRepository
	settingsRepo   identity.SettingsRepository
	invoiceRepo    trade.InvoiceRepository
	orderRepo      trade.OrderRepository
	quota          QuotaCounter
	model          Model
	freeDailyQuota int64
	historyLimit   int
	metrics        *telemetry.BusinessMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// AssistantServiceDeps groups the collaborators of AssistantService.
// Model is nil when the assistant is disabled.
type AssistantServiceDeps struct {
	CompanyRepo    identity.CompanyRepository
	SettingsRepo   identity.SettingsRepository
	InvoiceRepo    trade.InvoiceRepository
	OrderRepo      trade.OrderRepository
	Quota          QuotaCounter
	Model          Model
	FreeDailyQuota int
	HistoryLimit   int
	Logger         *zap.Logger
}

// NewAssistantService creates a new AssistantService
func NewAssistantService(deps AssistantServiceDeps) *AssistantService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	history := deps.HistoryLimit
	if history <= 0 {
		history = 50
	}
	return &AssistantService{
		companyRepo:    deps.CompanyRepo,
		settingsRepo:   deps.SettingsRepo,
		invoiceRepo:    deps.InvoiceRepo,
		orderRepo:      deps.OrderRepo,
		quota:          deps.Quota,
		model:          deps.Model,
		freeDailyQuota: int64(deps.FreeDailyQuota),
		historyLimit:   history,
		logger:         logger,
		now:            time.Now,
	}
}

// SetBusinessMetrics enables assistant counters
func (s *AssistantService) SetBusinessMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// Ask answers a question about the company's sales, purchases and stock.
// Filtered questions get a fixed refusal and never consume quota.
func (s *AssistantService) Ask(ctx context.Context, companyID uuid.UUID, req AskRequest) (*AskResponse, error) {
	if s.model == nil {
		return nil, ErrAssistantDisabled
	}
	provider := s.model.Provider()

	question, verdict := assistant.Screen(req.Question)
	if verdict != assistant.VerdictAllowed {
		s.logger.Info("Assistant question filtered",
			zap.String("company_id", companyID.String()),
			zap.String("verdict", string(verdict)))
		s.metrics.RecordAssistantRequest(ctx, provider, "filtered", 0)
		return &AskResponse{Answer: assistant.RefusalMessage, Filtered: true}, nil
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "AssistantService", "Ask",
		"company_id", companyID.String(), "provider", provider)
	defer span.End()

	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settingsRepo.FindByCompany(ctx, companyID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		settings = identity.NewCompanySettings(companyID)
	}

	resp := &AskResponse{}
	var quotaKey string
	if !company.IsPremium() {
		quotaKey = fmt.Sprintf("assistant:%s:%s", companyID, s.now().UTC().Format(time.DateOnly))
		used, ok, err := s.quota.Consume(ctx, quotaKey, s.freeDailyQuota, quotaWindow)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if !ok {
			s.metrics.RecordAssistantRequest(ctx, provider, "quota_exceeded", 0)
			return nil, ErrQuotaExceeded
		}
		remaining := s.freeDailyQuota - used
		resp.RemainingQuota = &remaining
	}

	prompt, err := s.buildPrompt(ctx, company, settings, question)
	if err != nil {
		s.refund(ctx, quotaKey)
		telemetry.RecordError(span, err)
		return nil, err
	}

	started := time.Now()
	answer, err := s.model.Complete(ctx, prompt)
	elapsed := time.Since(started).Seconds()
	if err != nil {
		s.refund(ctx, quotaKey)
		telemetry.RecordError(span, err)
		s.metrics.RecordAssistantRequest(ctx, provider, "failed", elapsed)
		s.logger.Error("Assistant model call failed",
			zap.String("company_id", companyID.String()),
			zap.String("provider", provider),
			zap.Error(err))
		return nil, ErrAssistantUnavailable
	}

	s.metrics.RecordAssistantRequest(ctx, provider, "answered", elapsed)
	resp.Answer = answer
	return resp, nil
}

func (s *AssistantService) buildPrompt(ctx context.Context, company *identity.Company, settings *identity.CompanySettings, question string) (string, error) {
	invoices, err := s.invoiceRepo.FindRecent(ctx, company.ID, s.historyLimit)
	if err != nil {
		return "", fmt.Errorf("failed to load recent invoices: %w", err)
	}
	orders, err := s.orderRepo.FindRecent(ctx, company.ID, s.historyLimit)
	if err != nil {
		return "", fmt.Errorf("failed to load recent orders: %w", err)
	}

	data := assistant.PromptData{
		CompanyName: company.Name,
		Currency:    settings.Currency,
		Today:       s.now().In(settings.Location()),
		Question:    question,
		Invoices:    make([]assistant.Document, 0, len(invoices)),
		Orders:      make([]assistant.Document, 0, len(orders)),
	}
	for _, inv := range invoices {
		doc := assistant.Document{
			Number:  inv.Number,
			Date:    inv.IssueDate,
			Partner: inv.CustomerName,
			Status:  string(inv.Status),
			Total:   inv.Total,
		}
		for _, item := range inv.Items {
			doc.Lines = append(doc.Lines, assistant.DocumentLine{Product: item.ProductName, Quantity: item.Quantity, Price: item.UnitPrice})
		}
		data.Invoices = append(data.Invoices, doc)
	}
	for _, ord := range orders {
		doc := assistant.Document{
			Number:  ord.Number,
			Date:    ord.OrderDate,
			Partner: ord.SupplierName,
			Status:  string(ord.Status),
			Total:   ord.Total,
		}
		for _, item := range ord.Items {
			doc.Lines = append(doc.Lines, assistant.DocumentLine{Product: item.ProductName, Quantity: item.Quantity, Price: item.UnitCost})
		}
		data.Orders = append(data.Orders, doc)
	}
	return assistant.RenderPrompt(data)
}

// refund gives back a consumed question; the key is empty for premium companies
func (s *AssistantService) refund(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.quota.Refund(ctx, key); err != nil {
		s.logger.Warn("Failed to refund assistant quota", zap.String("key", key), zap.Error(err))
	}
}
