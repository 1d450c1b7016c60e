package identity

import (
	"strings"
	"time"

	"github.com/bizdesk/backend/internal/domain/shared"
)

// SubscriptionStatus is the billing state of a company
type SubscriptionStatus string

const (
	SubscriptionFree    SubscriptionStatus = "FREE"
	SubscriptionPremium SubscriptionStatus = "PREMIUM"
)

// IsValid reports whether the status is a known value
func (s SubscriptionStatus) IsValid() bool {
	return s == SubscriptionFree || s == SubscriptionPremium
}

// Company is the tenant. Products, partners, documents and settings all hang off it.
type Company struct {
	shared.BaseAggregateRoot
	Name                 string             `gorm:"size:200;not null" json:"name"`
	Email                string             `gorm:"size:200" json:"email"`
	Phone                string             `gorm:"size:50" json:"phone"`
	Address              string             `gorm:"size:500" json:"address"`
	TaxNumber            string             `gorm:"size:50" json:"tax_number"`
	LogoURL              string             `gorm:"size:500" json:"logo_url"`
	LogoKey              string             `gorm:"size:500" json:"-"`
	SubscriptionStatus   SubscriptionStatus `gorm:"size:20;not null;default:FREE" json:"subscription_status"`
	StripeCustomerID     string             `gorm:"size:100;index" json:"-"`
	StripeSubscriptionID string             `gorm:"size:100;index" json:"-"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty"`
}

// TableName returns the table name for GORM
func (Company) TableName() string {
	return "companies"
}

// NewCompany creates a company on the FREE plan
func NewCompany(name, email string) (*Company, error) {
	name = strings.TrimSpace(name)
	if err := validateCompanyName(name); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	return &Company{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Name:               name,
		Email:              email,
		SubscriptionStatus: SubscriptionFree,
	}, nil
}

// UpdateProfile replaces the editable contact fields
func (c *Company) UpdateProfile(name, email, phone, address, taxNumber string) error {
	name = strings.TrimSpace(name)
	if err := validateCompanyName(name); err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	if len(taxNumber) > 50 {
		return shared.NewDomainError("INVALID_TAX_NUMBER", "Tax number cannot exceed 50 characters")
	}

	c.Name = name
	c.Email = email
	c.Phone = strings.TrimSpace(phone)
	c.Address = strings.TrimSpace(address)
	c.TaxNumber = strings.TrimSpace(taxNumber)
	c.IncrementVersion()
	return nil
}

// SetLogo records a newly uploaded logo and returns the key of the replaced one
func (c *Company) SetLogo(key, url string) (previousKey string) {
	previousKey = c.LogoKey
	c.LogoKey = key
	c.LogoURL = url
	c.IncrementVersion()
	return previousKey
}

// IsPremium reports whether the company has an active paid subscription
func (c *Company) IsPremium() bool {
	return c.SubscriptionStatus == SubscriptionPremium
}

// AttachStripeCustomer stores the payment provider customer reference
func (c *Company) AttachStripeCustomer(customerID string) {
	c.StripeCustomerID = customerID
	c.IncrementVersion()
}

// ActivatePremium moves the company onto the paid plan
func (c *Company) ActivatePremium(subscriptionID string, periodEnd *time.Time) {
	c.SubscriptionStatus = SubscriptionPremium
	if subscriptionID != "" {
		c.StripeSubscriptionID = subscriptionID
	}
	if periodEnd != nil {
		c.CurrentPeriodEnd = periodEnd
	}
	c.IncrementVersion()
}

// DowngradeToFree returns the company to the free plan.
// When clearSubscription is set the stored subscription reference is dropped.
func (c *Company) DowngradeToFree(clearSubscription bool) {
	c.SubscriptionStatus = SubscriptionFree
	if clearSubscription {
		c.StripeSubscriptionID = ""
		c.CurrentPeriodEnd = nil
	}
	c.IncrementVersion()
}

func validateCompanyName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Company name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Company name cannot exceed 200 characters")
	}
	return nil
}
