package router

import (
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/interfaces/http/handler"
	"github.com/bizdesk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers holds every HTTP handler mounted under the API prefix
type Handlers struct {
	System      *handler.SystemHandler
	Auth        *handler.AuthHandler
	Company     *handler.CompanyHandler
	Category    *handler.CategoryHandler
	Product     *handler.ProductHandler
	Supplier    *handler.SupplierHandler
	Customer    *handler.CustomerHandler
	Stock       *handler.StockHandler
	Order       *handler.OrderHandler
	Invoice     *handler.InvoiceHandler
	Billing     *handler.BillingHandler
	Ticket      *handler.TicketHandler
	AdminTicket *handler.AdminTicketHandler
	Report      *handler.ReportHandler
	Assistant   *handler.AssistantHandler
}

// Guards supplies the authorization middleware for API routes
type Guards struct {
	// Auth authenticates the access token; applied to every non-public route
	Auth  gin.HandlerFunc
	Roles *middleware.RoleGuard
	// AfterAuth runs right after authentication, e.g. span enrichment
	AfterAuth []gin.HandlerFunc
	// AuthLimit throttles credential endpoints; optional
	AuthLimit gin.HandlerFunc
}

// RegisterAPI mounts the BizDesk API on the router
func RegisterAPI(r *Router, h Handlers, g Guards) {
	member := g.Roles.RequireCompanyRole()
	owner := middleware.RequireResolvedRole(identity.RoleOwner)

	r.Use(g.Auth)
	r.Use(g.AfterAuth...)

	// Public
	publicAuth := NewDomainGroup("auth-public", "/auth")
	if g.AuthLimit != nil {
		publicAuth.Use(g.AuthLimit)
	}
	publicAuth.POST("/register", h.Auth.Register)
	publicAuth.POST("/login", h.Auth.Login)
	publicAuth.POST("/refresh", h.Auth.RefreshToken)
	publicAuth.GET("/google", h.Auth.GoogleLogin)
	publicAuth.GET("/google/callback", h.Auth.GoogleCallback)

	publicBilling := NewDomainGroup("billing-webhook", "/billing")
	publicBilling.POST("/webhook", h.Billing.HandleWebhook)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)

	r.RegisterPublic(publicAuth).
		RegisterPublic(publicBilling).
		RegisterPublic(system)

	// Authenticated, no company role required
	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/logout", h.Auth.Logout)
	authRoutes.POST("/switch-company", h.Auth.SwitchCompany)
	authRoutes.GET("/me", h.Auth.GetCurrentUser)
	authRoutes.PUT("/password", h.Auth.ChangePassword)

	// Company
	company := NewDomainGroup("company", "/company").Use(member)
	company.GET("", h.Company.GetCompany)
	company.PUT("", owner, h.Company.UpdateCompany)
	company.POST("/logo", owner, h.Company.UploadLogo)
	company.GET("/settings", h.Company.GetSettings)
	company.PUT("/settings", owner, h.Company.UpdateSettings)
	company.GET("/members", h.Company.ListMembers)
	company.POST("/members", owner, h.Company.InviteMember)
	company.PUT("/members/:userId", owner, h.Company.ChangeMemberRole)
	company.DELETE("/members/:userId", owner, h.Company.RemoveMember)

	files := NewDomainGroup("files", "/files").Use(member)
	files.POST("", h.Company.UploadFile)

	// Catalog
	categories := NewDomainGroup("categories", "/categories").Use(member)
	categories.POST("", h.Category.Create)
	categories.GET("", h.Category.List)
	categories.GET("/:id", h.Category.GetByID)
	categories.PUT("/:id", h.Category.Update)
	categories.DELETE("/:id", owner, h.Category.Delete)

	products := NewDomainGroup("products", "/products").Use(member)
	products.POST("", h.Product.Create)
	products.GET("", h.Product.List)
	products.GET("/low-stock", h.Product.ListLowStock)
	products.GET("/:id", h.Product.GetByID)
	products.PUT("/:id", h.Product.Update)
	products.DELETE("/:id", owner, h.Product.Delete)
	products.POST("/:id/restore", owner, h.Product.Restore)
	products.POST("/:id/image", h.Product.UploadImage)

	// Partners
	suppliers := NewDomainGroup("suppliers", "/suppliers").Use(member)
	suppliers.POST("", h.Supplier.Create)
	suppliers.GET("", h.Supplier.List)
	suppliers.GET("/:id", h.Supplier.GetByID)
	suppliers.PUT("/:id", h.Supplier.Update)
	suppliers.DELETE("/:id", owner, h.Supplier.Delete)

	customers := NewDomainGroup("customers", "/customers").Use(member)
	customers.POST("", h.Customer.Create)
	customers.GET("", h.Customer.List)
	customers.GET("/:id", h.Customer.GetByID)
	customers.PUT("/:id", h.Customer.Update)
	customers.DELETE("/:id", owner, h.Customer.Delete)

	// Inventory and trade
	stock := NewDomainGroup("stock", "/stock").Use(member)
	stock.GET("/movements", h.Stock.ListMovements)
	stock.POST("/movements", h.Stock.RecordMovement)
	stock.GET("/movements/:id", h.Stock.GetMovement)

	orders := NewDomainGroup("orders", "/orders").Use(member)
	orders.GET("", h.Order.List)
	orders.POST("", h.Order.Create)
	orders.GET("/:id", h.Order.GetByID)
	orders.POST("/:id/cancel", owner, h.Order.Cancel)

	invoices := NewDomainGroup("invoices", "/invoices").Use(member)
	invoices.GET("", h.Invoice.List)
	invoices.POST("", h.Invoice.Create)
	invoices.GET("/:id", h.Invoice.GetByID)
	invoices.POST("/:id/pay", h.Invoice.MarkPaid)
	invoices.POST("/:id/cancel", owner, h.Invoice.Cancel)

	// Billing
	billing := NewDomainGroup("billing", "/billing").Use(member)
	billing.POST("/checkout", owner, h.Billing.CreateCheckout)
	billing.POST("/portal", owner, h.Billing.CreatePortal)
	billing.GET("/subscription", h.Billing.GetSubscription)
	billing.GET("/transactions", h.Billing.ListTransactions)

	// Support
	tickets := NewDomainGroup("tickets", "/tickets").Use(member)
	tickets.POST("", h.Ticket.Create)
	tickets.GET("", h.Ticket.List)
	tickets.GET("/:id", h.Ticket.GetByID)
	tickets.POST("/:id/messages", h.Ticket.AddMessage)
	tickets.POST("/:id/close", h.Ticket.Close)

	// Reports and assistant
	reports := NewDomainGroup("reports", "/reports").Use(member)
	reports.GET("/summary", h.Report.Summary)
	reports.GET("/export", h.Report.Export)

	assistant := NewDomainGroup("assistant", "/assistant").Use(member)
	assistant.POST("/ask", h.Assistant.Ask)

	// Platform administration
	admin := NewDomainGroup("admin", "/admin").Use(g.Roles.RequirePlatformAdmin())
	adminTickets := admin.Group("admin-tickets", "/tickets")
	adminTickets.GET("", h.AdminTicket.List)
	adminTickets.GET("/stats", h.AdminTicket.Stats)
	adminTickets.GET("/:id", h.AdminTicket.GetByID)
	adminTickets.PUT("/:id/assign", h.AdminTicket.Assign)
	adminTickets.PUT("/:id/status", h.AdminTicket.UpdateStatus)
	adminTickets.PUT("/:id/priority", h.AdminTicket.UpdatePriority)
	adminTickets.POST("/:id/reply", h.AdminTicket.Reply)
	adminTickets.DELETE("/:id", h.AdminTicket.Delete)
	admin.Group("admin-reports", "/reports").POST("/digest", h.Report.TriggerDigest)

	r.Register(authRoutes).
		Register(company).
		Register(files).
		Register(categories).
		Register(products).
		Register(suppliers).
		Register(customers).
		Register(stock).
		Register(orders).
		Register(invoices).
		Register(billing).
		Register(tickets).
		Register(reports).
		Register(assistant).
		Register(admin)
}
