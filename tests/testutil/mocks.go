package testutil

import (
	"context"
	"time"

	appshared "github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/domain/billing"
	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/inventory"
	"github.com/bizdesk/backend/internal/domain/partner"
	"github.com/bizdesk/backend/internal/domain/report"
	domainshared "github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/support"
	"github.com/bizdesk/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository mocks identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*identity.User)
	return v, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	v, _ := args.Get(0).(*identity.User)
	return v, args.Error(1)
}

func (m *MockUserRepository) FindByGoogleID(ctx context.Context, googleID string) (*identity.User, error) {
	args := m.Called(ctx, googleID)
	v, _ := args.Get(0).(*identity.User)
	return v, args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

// MockCompanyRepository mocks identity.CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Company, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*identity.Company)
	return v, args.Error(1)
}

func (m *MockCompanyRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*identity.Company, error) {
	args := m.Called(ctx, customerID)
	v, _ := args.Get(0).(*identity.Company)
	return v, args.Error(1)
}

func (m *MockCompanyRepository) FindAll(ctx context.Context) ([]identity.Company, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]identity.Company)
	return v, args.Error(1)
}

func (m *MockCompanyRepository) Create(ctx context.Context, company *identity.Company) error {
	return m.Called(ctx, company).Error(0)
}

func (m *MockCompanyRepository) Save(ctx context.Context, company *identity.Company) error {
	return m.Called(ctx, company).Error(0)
}

// MockMembershipRepository mocks identity.MembershipRepository
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Find(ctx context.Context, userID, companyID uuid.UUID) (*identity.Membership, error) {
	args := m.Called(ctx, userID, companyID)
	v, _ := args.Get(0).(*identity.Membership)
	return v, args.Error(1)
}

func (m *MockMembershipRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]identity.Membership, error) {
	args := m.Called(ctx, userID)
	v, _ := args.Get(0).([]identity.Membership)
	return v, args.Error(1)
}

func (m *MockMembershipRepository) FindByCompany(ctx context.Context, companyID uuid.UUID, filter domainshared.Filter) ([]identity.Membership, int64, error) {
	args := m.Called(ctx, companyID, filter)
	v, _ := args.Get(0).([]identity.Membership)
	return v, args.Get(1).(int64), args.Error(2)
}

func (m *MockMembershipRepository) FindOwners(ctx context.Context, companyID uuid.UUID) ([]identity.Membership, error) {
	args := m.Called(ctx, companyID)
	v, _ := args.Get(0).([]identity.Membership)
	return v, args.Error(1)
}

func (m *MockMembershipRepository) CountOwnersForUpdate(ctx context.Context, companyID uuid.UUID) (int64, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMembershipRepository) Create(ctx context.Context, membership *identity.Membership) error {
	return m.Called(ctx, membership).Error(0)
}

func (m *MockMembershipRepository) Save(ctx context.Context, membership *identity.Membership) error {
	return m.Called(ctx, membership).Error(0)
}

func (m *MockMembershipRepository) Delete(ctx context.Context, userID, companyID uuid.UUID) error {
	return m.Called(ctx, userID, companyID).Error(0)
}

// MockSettingsRepository mocks identity.SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) (*identity.CompanySettings, error) {
	args := m.Called(ctx, companyID)
	v, _ := args.Get(0).(*identity.CompanySettings)
	return v, args.Error(1)
}

func (m *MockSettingsRepository) FindDailyReportEnabled(ctx context.Context) ([]identity.CompanySettings, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]identity.CompanySettings)
	return v, args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, settings *identity.CompanySettings) error {
	return m.Called(ctx, settings).Error(0)
}

// MockCategoryRepository mocks catalog.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*catalog.Category, error) {
	args := m.Called(ctx, companyID, id)
	v, _ := args.Get(0).(*catalog.Category)
	return v, args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter domainshared.Filter) ([]catalog.Category, int64, error) {
	args := m.Called(ctx, companyID, filter)
	v, _ := args.Get(0).([]catalog.Category)
	return v, args.Get(1).(int64), args.Error(2)
}

func (m *MockCategoryRepository) ExistsByName(ctx context.Context, companyID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, companyID, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) CountProducts(ctx context.Context, companyID, categoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, companyID, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *catalog.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return m.Called(ctx, companyID, id).Error(0)
}

// MockProductRepository mocks catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, companyID, id)
	v, _ := args.Get(0).(*catalog.Product)
	return v, args.Error(1)
}

func (m *MockProductRepository) FindByIDUnscoped(ctx context.Context, companyID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, companyID, id)
	v, _ := args.Get(0).(*catalog.Product)
	return v, args.Error(1)
}

func (m *MockProductRepository) FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, companyID, id)
	v, _ := args.Get(0).(*catalog.Product)
	return v, args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, companyID, ids)
	v, _ := args.Get(0).([]catalog.Product)
	return v, args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, companyID, filter)
	v, _ := args.Get(0).([]catalog.Product)
	return v, args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) FindLowStock(ctx context.Context, companyID uuid.UUID, threshold int64, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, companyID, threshold, limit)
	v, _ := args.Get(0).([]catalog.Product)
	return v, args.Error(1)
}

func (m *MockProductRepository) CountLowStock(ctx context.Context, companyID uuid.UUID, threshold int64) (int64, error) {
	args := m.Called(ctx, companyID, threshold)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, companyID uuid.UUID, sku string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, companyID, sku, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

// MockMovementRepository mocks inventory.MovementRepository
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*inventory.StockMovement, error) {
	args := m.Called(ctx, companyID, id)
	v, _ := args.Get(0).(*inventory.StockMovement)
	return v, args.Error(1)
}

func (m *MockMovementRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter inventory.MovementFilter) ([]inventory.StockMovement, int64, error) {
	args := m.Called(ctx, companyID, filter)
	v, _ := args.Get(0).([]inventory.StockMovement)
	return v, args.Get(1).(int64), args.Error(2)
}

func (m *MockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	return m.Called(ctx, movement).Error(0)
}

// MockSupplierRepository mocks partner.SupplierRepository
type MockSupplierRepository struct {
	mock.Mock
}

func (m *MockSupplierRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*partner.Supplier, error) {
	args := m.Called(ctx, companyID, id)
	v, _ := args.Get(0).(*partner.Supplier)
	return v, args.Error(1)
}

func (m *MockSupplierRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter domainshared.Filter) ([]partner.Supplier, int64, error) {
	args := m.Called(ctx, companyID, filter)
	v, _ := args.Get(0).([]partner.Supplier)
	return v, args.Get(1).(int64), args.Error(2)
}

func (m *MockSupplierRepository) ExistsByEmail(ctx context.Context, companyID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, companyID, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSupplierRepository) Create(ctx context.Context, supplier *partner.Supplier) error {
	return m.Called(ctx, supplier).Error(0)
}

func (m *MockSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	return m.Called(ctx, supplier).Error(0)
}

func (m *MockSupplierRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return m.Called(ctx, companyID, id).Error(0)
}

// MockCustomerRepository mocks partner.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, companyID, id)
	v, _ := args.Get(0).(*partner.Customer)
	return v, args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter domainshared.Filter) ([]partner.Customer, int64, error) {
	args := m.Called(ctx, companyID, filter)
	v, _ := args.Get(0).([]partner.Customer)
	return v, args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) ExistsByEmail(ctx context.Context, companyID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, companyID, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *partner.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return m.Called(ctx, companyID, id).Error(0)
}

// MockOrderRepository mocks trade.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*trade.Order, error) {
	args := m.Called(ctx, companyID, id)
	v, _ := args.Get(0).(*trade.Order)
	return v, args.Error(1)
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*trade.Order, error) {
	args := m.Called(ctx, companyID, id)
	v, _ := args.Get(0).(*trade.Order)
	return v, args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter trade.DocumentFilter) ([]trade.Order, int64, error) {
	args := m.Called(ctx, companyID, filter)
	v, _ := args.Get(0).([]trade.Order)
	return v, args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) FindRecent(ctx context.Context, companyID uuid.UUID, limit int) ([]trade.Order, error) {
	args := m.Called(ctx, companyID, limit)
	v, _ := args.Get(0).([]trade.Order)
	return v, args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return m.Called(ctx, order).Error(0)
}

// MockInvoiceRepository mocks trade.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*trade.Invoice, error) {
	args := m.Called(ctx, companyID, id)
	v, _ := args.Get(0).(*trade.Invoice)
	return v, args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*trade.Invoice, error) {
	args := m.Called(ctx, companyID, id)
	v, _ := args.Get(0).(*trade.Invoice)
	return v, args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter trade.DocumentFilter) ([]trade.Invoice, int64, error) {
	args := m.Called(ctx, companyID, filter)
	v, _ := args.Get(0).([]trade.Invoice)
	return v, args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) FindRecent(ctx context.Context, companyID uuid.UUID, limit int) ([]trade.Invoice, error) {
	args := m.Called(ctx, companyID, limit)
	v, _ := args.Get(0).([]trade.Invoice)
	return v, args.Error(1)
}

func (m *MockInvoiceRepository) CountOverdue(ctx context.Context, companyID uuid.UUID, asOf time.Time) (int64, error) {
	args := m.Called(ctx, companyID, asOf)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *trade.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *trade.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

// MockSequenceRepository mocks trade.SequenceRepository
type MockSequenceRepository struct {
	mock.Mock
}

func (m *MockSequenceRepository) Next(ctx context.Context, companyID uuid.UUID, kind trade.SequenceKind) (int64, error) {
	args := m.Called(ctx, companyID, kind)
	return args.Get(0).(int64), args.Error(1)
}

// MockTicketRepository mocks support.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*support.Ticket, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*support.Ticket)
	return v, args.Error(1)
}

func (m *MockTicketRepository) FindAll(ctx context.Context, filter support.TicketFilter) ([]support.Ticket, int64, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]support.Ticket)
	return v, args.Get(1).(int64), args.Error(2)
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *support.Ticket) error {
	return m.Called(ctx, ticket).Error(0)
}

func (m *MockTicketRepository) Save(ctx context.Context, ticket *support.Ticket) error {
	return m.Called(ctx, ticket).Error(0)
}

func (m *MockTicketRepository) AddMessage(ctx context.Context, ticket *support.Ticket, message *support.TicketMessage) error {
	return m.Called(ctx, ticket, message).Error(0)
}

func (m *MockTicketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTicketRepository) Stats(ctx context.Context) (*support.Stats, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).(*support.Stats)
	return v, args.Error(1)
}

// MockBillingTransactionRepository mocks billing.TransactionRepository
type MockBillingTransactionRepository struct {
	mock.Mock
}

func (m *MockBillingTransactionRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter domainshared.Filter) ([]billing.BillingTransaction, int64, error) {
	args := m.Called(ctx, companyID, filter)
	v, _ := args.Get(0).([]billing.BillingTransaction)
	return v, args.Get(1).(int64), args.Error(2)
}

func (m *MockBillingTransactionRepository) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBillingTransactionRepository) Create(ctx context.Context, tx *billing.BillingTransaction) error {
	return m.Called(ctx, tx).Error(0)
}

// MockReportRepository mocks report.Repository
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Totals(ctx context.Context, companyID uuid.UUID, p report.Period) (report.Totals, error) {
	args := m.Called(ctx, companyID, p)
	return args.Get(0).(report.Totals), args.Error(1)
}

func (m *MockReportRepository) TopProducts(ctx context.Context, companyID uuid.UUID, p report.Period, limit int) ([]report.TopProduct, error) {
	args := m.Called(ctx, companyID, p, limit)
	v, _ := args.Get(0).([]report.TopProduct)
	return v, args.Error(1)
}

func (m *MockReportRepository) DailySales(ctx context.Context, companyID uuid.UUID, p report.Period) ([]report.DailySales, error) {
	args := m.Called(ctx, companyID, p)
	v, _ := args.Get(0).([]report.DailySales)
	return v, args.Error(1)
}

// MockObjectStorage mocks appshared.ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// MockMailer mocks appshared.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg appshared.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// MockIdempotencyStore mocks domainshared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}


var (
	_ identity.UserRepository       = (*MockUserRepository)(nil)
	_ identity.CompanyRepository    = (*MockCompanyRepository)(nil)
	_ identity.MembershipRepository = (*MockMembershipRepository)(nil)
	_ identity.SettingsRepository   = (*MockSettingsRepository)(nil)
	_ catalog.CategoryRepository    = (*MockCategoryRepository)(nil)
	_ catalog.ProductRepository     = (*MockProductRepository)(nil)
	_ inventory.MovementRepository  = (*MockMovementRepository)(nil)
	_ partner.SupplierRepository    = (*MockSupplierRepository)(nil)
	_ partner.CustomerRepository    = (*MockCustomerRepository)(nil)
	_ trade.OrderRepository         = (*MockOrderRepository)(nil)
	_ trade.InvoiceRepository       = (*MockInvoiceRepository)(nil)
	_ trade.SequenceRepository      = (*MockSequenceRepository)(nil)
	_ support.TicketRepository      = (*MockTicketRepository)(nil)
	_ billing.TransactionRepository = (*MockBillingTransactionRepository)(nil)
	_ report.Repository             = (*MockReportRepository)(nil)
	_ appshared.ObjectStorage       = (*MockObjectStorage)(nil)
	_ appshared.Mailer              = (*MockMailer)(nil)
	_ domainshared.IdempotencyStore = (*MockIdempotencyStore)(nil)
)
