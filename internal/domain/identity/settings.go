package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settings defaults
const (
	DefaultCurrency          = "USD"
	DefaultInvoicePrefix     = "INV"
	DefaultOrderPrefix       = "PO"
	DefaultLowStockThreshold = 5
	DefaultTimezone          = "UTC"
)

var (
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	prefixPattern   = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)
)

// CompanySettings holds per-company preferences used by documents, stock alerts and reports
type CompanySettings struct {
	CompanyID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"company_id"`
	Currency           string          `gorm:"size:3;not null" json:"currency"`
	InvoicePrefix      string          `gorm:"size:10;not null" json:"invoice_prefix"`
	OrderPrefix        string          `gorm:"size:10;not null" json:"order_prefix"`
	DefaultTaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"default_tax_rate"`
	LowStockThreshold  int             `gorm:"not null" json:"low_stock_threshold"`
	Timezone           string          `gorm:"size:64;not null" json:"timezone"`
	DailyReportEnabled bool            `gorm:"not null;default:false" json:"daily_report_enabled"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// TableName returns the table name for GORM
func (CompanySettings) TableName() string {
	return "company_settings"
}

// NewCompanySettings returns the defaults for a new company
func NewCompanySettings(companyID uuid.UUID) *CompanySettings {
	now := time.Now()
	return &CompanySettings{
		CompanyID:         companyID,
		Currency:          DefaultCurrency,
		InvoicePrefix:     DefaultInvoicePrefix,
		OrderPrefix:       DefaultOrderPrefix,
		DefaultTaxRate:    decimal.Zero,
		LowStockThreshold: DefaultLowStockThreshold,
		Timezone:          DefaultTimezone,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// SettingsUpdate carries the optional fields of a settings change
type SettingsUpdate struct {
	Currency           *string
	InvoicePrefix      *string
	OrderPrefix        *string
	DefaultTaxRate     *decimal.Decimal
	LowStockThreshold  *int
	Timezone           *string
	DailyReportEnabled *bool
}

// Apply validates and applies a partial update
func (s *CompanySettings) Apply(u SettingsUpdate) error {
	if u.Currency != nil {
		cur := strings.ToUpper(strings.TrimSpace(*u.Currency))
		if !currencyPattern.MatchString(cur) {
			return shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO 4217 code")
		}
		s.Currency = cur
	}
	if u.InvoicePrefix != nil {
		p := strings.ToUpper(strings.TrimSpace(*u.InvoicePrefix))
		if !prefixPattern.MatchString(p) {
			return shared.NewDomainError("INVALID_PREFIX", "Invoice prefix must be 1-10 letters or digits")
		}
		s.InvoicePrefix = p
	}
	if u.OrderPrefix != nil {
		p := strings.ToUpper(strings.TrimSpace(*u.OrderPrefix))
		if !prefixPattern.MatchString(p) {
			return shared.NewDomainError("INVALID_PREFIX", "Order prefix must be 1-10 letters or digits")
		}
		s.OrderPrefix = p
	}
	if u.DefaultTaxRate != nil {
		if u.DefaultTaxRate.IsNegative() || u.DefaultTaxRate.GreaterThan(decimal.NewFromInt(100)) {
			return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 100")
		}
		s.DefaultTaxRate = *u.DefaultTaxRate
	}
	if u.LowStockThreshold != nil {
		if *u.LowStockThreshold < 0 {
			return shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold cannot be negative")
		}
		s.LowStockThreshold = *u.LowStockThreshold
	}
	if u.Timezone != nil {
		if _, err := time.LoadLocation(*u.Timezone); err != nil {
			return shared.NewDomainError("INVALID_TIMEZONE", "Unknown timezone")
		}
		s.Timezone = *u.Timezone
	}
	if u.DailyReportEnabled != nil {
		s.DailyReportEnabled = *u.DailyReportEnabled
	}
	s.UpdatedAt = time.Now()
	return nil
}

// Location returns the company timezone, falling back to UTC
func (s *CompanySettings) Location() *time.Location {
	if loc, err := time.LoadLocation(s.Timezone); err == nil {
		return loc
	}
	return time.UTC
}
