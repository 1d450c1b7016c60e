package shared

import (
	"context"

	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/inventory"
	"github.com/bizdesk/backend/internal/domain/trade"
)

// TransactionScope runs a unit of work atomically.
// If fn returns an error the transaction is rolled back, otherwise committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories that share one
// database transaction.
type TransactionalRepositories interface {
	UserRepo() identity.UserRepository
	CompanyRepo() identity.CompanyRepository
	MembershipRepo() identity.MembershipRepository
	SettingsRepo() identity.SettingsRepository
	ProductRepo() catalog.ProductRepository
	MovementRepo() inventory.MovementRepository
	OrderRepo() trade.OrderRepository
	InvoiceRepo() trade.InvoiceRepository
	SequenceRepo() trade.SequenceRepository
}

// Repositories is a plain TransactionalRepositories backed by fixed instances.
// Nil fields are allowed for repositories a caller never touches.
type Repositories struct {
	Users       identity.UserRepository
	Companies   identity.CompanyRepository
	Memberships identity.MembershipRepository
	Settings    identity.SettingsRepository
	Products    catalog.ProductRepository
	Movements   inventory.MovementRepository
	Orders      trade.OrderRepository
	Invoices    trade.InvoiceRepository
	Sequences   trade.SequenceRepository
}

func (r *Repositories) UserRepo() identity.UserRepository             { return r.Users }
func (r *Repositories) CompanyRepo() identity.CompanyRepository       { return r.Companies }
func (r *Repositories) MembershipRepo() identity.MembershipRepository { return r.Memberships }
func (r *Repositories) SettingsRepo() identity.SettingsRepository     { return r.Settings }
func (r *Repositories) ProductRepo() catalog.ProductRepository        { return r.Products }
func (r *Repositories) MovementRepo() inventory.MovementRepository    { return r.Movements }
func (r *Repositories) OrderRepo() trade.OrderRepository              { return r.Orders }
func (r *Repositories) InvoiceRepo() trade.InvoiceRepository          { return r.Invoices }
func (r *Repositories) SequenceRepo() trade.SequenceRepository        { return r.Sequences }

// NoOpTransactionScope runs fn directly against fixed repositories without a
// real transaction. Used in tests and tools that do not need atomicity.
type NoOpTransactionScope struct {
	repos *Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(repos *Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute calls fn with the fixed repositories
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*Repositories)(nil)
)
