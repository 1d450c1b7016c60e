package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	assistantapp "github.com/bizdesk/backend/internal/application/assistant"
	billingapp "github.com/bizdesk/backend/internal/application/billing"
	catalogapp "github.com/bizdesk/backend/internal/application/catalog"
	identityapp "github.com/bizdesk/backend/internal/application/identity"
	inventoryapp "github.com/bizdesk/backend/internal/application/inventory"
	partnerapp "github.com/bizdesk/backend/internal/application/partner"
	reportapp "github.com/bizdesk/backend/internal/application/report"
	appshared "github.com/bizdesk/backend/internal/application/shared"
	supportapp "github.com/bizdesk/backend/internal/application/support"
	tradeapp "github.com/bizdesk/backend/internal/application/trade"
	"github.com/bizdesk/backend/internal/infrastructure/auth"
	"github.com/bizdesk/backend/internal/infrastructure/billing"
	"github.com/bizdesk/backend/internal/infrastructure/cache"
	"github.com/bizdesk/backend/internal/infrastructure/config"
	"github.com/bizdesk/backend/internal/infrastructure/llm"
	"github.com/bizdesk/backend/internal/infrastructure/logger"
	"github.com/bizdesk/backend/internal/infrastructure/mail"
	"github.com/bizdesk/backend/internal/infrastructure/migration"
	"github.com/bizdesk/backend/internal/infrastructure/persistence"
	"github.com/bizdesk/backend/internal/infrastructure/scheduler"
	"github.com/bizdesk/backend/internal/infrastructure/storage"
	"github.com/bizdesk/backend/internal/infrastructure/telemetry"
	"github.com/bizdesk/backend/internal/interfaces/http/handler"
	"github.com/bizdesk/backend/internal/interfaces/http/middleware"
	"github.com/bizdesk/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/bizdesk/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

//	@title			BizDesk API
//	@version		1.0
//	@description	Multi-tenant back office for small businesses: catalog, stock, orders, invoices, billing and support.
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/bizdesk/backend
//	@contact.email	support@bizdesk.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}". Browsers use the access_token cookie instead.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Telemetry comes first so the bridged logger is used everywhere else
	tel := initTelemetry(ctx, cfg, log)
	defer tel.shutdown(log)
	log = telemetry.BridgeLogger(log, tel.logs, zapcore.InfoLevel)

	log.Info("Starting BizDesk backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
	)

	// Database
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Database.AutoMigrate {
		runMigrations(db, log)
	}

	if cfg.Telemetry.Enabled {
		instrumentDatabase(db, cfg, tel, log)
	}

	// Redis is optional; every consumer has an in-memory fallback
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}
	idempotency := cache.NewIdempotencyStore(redisClient, log)
	quota := cache.NewQuotaCounter(redisClient, log)

	// Object storage
	objectStorage := newObjectStorage(cfg, log)
	images := storage.NewImageResizer(cfg.Storage.ImageMaxDimension)

	// Mail
	mailer, err := mail.NewMailer(cfg.Mail, log)
	if err != nil {
		log.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	membershipRepo := persistence.NewGormMembershipRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	ticketRepo := persistence.NewGormTicketRepository(db.DB)
	billingTxRepo := persistence.NewGormBillingTransactionRepository(db.DB)
	reportRepo := persistence.NewGormReportRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	if tel.business != nil {
		if err := tel.business.RegisterLowStockSource(tel.meter(), productRepo); err != nil {
			log.Warn("Failed to register low stock gauge", zap.Error(err))
		}
	}

	// Optional integrations stay nil interfaces when not configured
	var google identityapp.GoogleProvider
	if cfg.OAuth.Google.Enabled {
		google = auth.NewGoogleOAuth(cfg.OAuth.Google)
		log.Info("Google sign-in enabled")
	}

	var gateway billingapp.Gateway
	if cfg.Stripe.Enabled {
		adapter, err := billing.NewStripeAdapter(cfg.Stripe, log)
		if err != nil {
			log.Fatal("Failed to initialize Stripe", zap.Error(err))
		}
		gateway = adapter
		log.Info("Stripe billing enabled")
	}

	var model assistantapp.Model
	if cfg.Assistant.Enabled {
		client, err := llm.NewClient(ctx, cfg.Assistant, log)
		if err != nil {
			log.Fatal("Failed to initialize assistant model", zap.Error(err))
		}
		model = client
		log.Info("Assistant enabled", zap.String("provider", client.Provider()))
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(identityapp.AuthServiceDeps{
		TxScope:        txScope,
		UserRepo:       userRepo,
		MembershipRepo: membershipRepo,
		JWTService:     jwtService,
		Blacklist:      blacklist,
		Google:         google,
		Logger:         log,
	})
	companyService := identityapp.NewCompanyService(identityapp.CompanyServiceDeps{
		CompanyRepo:   companyRepo,
		SettingsRepo:  settingsRepo,
		Storage:       objectStorage,
		Images:        images,
		MaxUploadSize: cfg.Storage.MaxUploadSize,
		Logger:        log,
	})
	memberService := identityapp.NewMemberService(identityapp.MemberServiceDeps{
		TxScope:        txScope,
		UserRepo:       userRepo,
		CompanyRepo:    companyRepo,
		MembershipRepo: membershipRepo,
		Mailer:         mailer,
		LoginURL:       cfg.App.FrontendURL + "/login",
		Logger:         log,
	})

	stockService := inventoryapp.NewStockService(txScope, movementRepo)
	stockService.SetBusinessMetrics(tel.business)

	categoryService := catalogapp.NewCategoryService(categoryRepo)
	productService := catalogapp.NewProductService(catalogapp.ProductServiceDeps{
		TxScope:      txScope,
		ProductRepo:  productRepo,
		CategoryRepo: categoryRepo,
		SupplierRepo: supplierRepo,
		SettingsRepo: settingsRepo,
		Ledger:       stockService,
		Storage:      objectStorage,
		Images:       images,
		Policy:       catalogapp.UploadPolicy{MaxSize: cfg.Storage.MaxUploadSize},
		Logger:       log,
	})
	supplierService := partnerapp.NewSupplierService(supplierRepo)
	customerService := partnerapp.NewCustomerService(customerRepo)

	orderService := tradeapp.NewOrderService(tradeapp.OrderServiceDeps{
		TxScope:      txScope,
		OrderRepo:    orderRepo,
		ProductRepo:  productRepo,
		SupplierRepo: supplierRepo,
		SettingsRepo: settingsRepo,
		Ledger:       stockService,
		Logger:       log,
	})
	orderService.SetBusinessMetrics(tel.business)
	invoiceService := tradeapp.NewInvoiceService(tradeapp.InvoiceServiceDeps{
		TxScope:      txScope,
		InvoiceRepo:  invoiceRepo,
		ProductRepo:  productRepo,
		CustomerRepo: customerRepo,
		SettingsRepo: settingsRepo,
		Ledger:       stockService,
		Logger:       log,
	})
	invoiceService.SetBusinessMetrics(tel.business)

	billingService := billingapp.NewBillingService(billingapp.BillingServiceDeps{
		Gateway:         gateway,
		CompanyRepo:     companyRepo,
		TransactionRepo: billingTxRepo,
		PublishableKey:  cfg.Stripe.PublishableKey,
		Logger:          log,
	})
	webhookService := billingapp.NewStripeWebhookService(billingapp.StripeWebhookServiceDeps{
		Gateway:         gateway,
		CompanyRepo:     companyRepo,
		TransactionRepo: billingTxRepo,
		Idempotency:     idempotency,
		Logger:          log,
	})
	webhookService.SetBusinessMetrics(tel.business)

	ticketService := supportapp.NewTicketService(supportapp.TicketServiceDeps{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Logger:     log,
	})

	reportService := reportapp.NewReportService(reportapp.ReportServiceDeps{
		ReportRepo:   reportRepo,
		CompanyRepo:  companyRepo,
		SettingsRepo: settingsRepo,
		ProductRepo:  productRepo,
		Logger:       log,
	})

	assistantService := assistantapp.NewAssistantService(assistantapp.AssistantServiceDeps{
		CompanyRepo:    companyRepo,
		SettingsRepo:   settingsRepo,
		InvoiceRepo:    invoiceRepo,
		OrderRepo:      orderRepo,
		Quota:          quota,
		Model:          model,
		FreeDailyQuota: cfg.Assistant.FreeDailyQuota,
		HistoryLimit:   cfg.Assistant.HistoryLimit,
		Logger:         log,
	})
	assistantService.SetBusinessMetrics(tel.business)

	// Daily digest. With the scheduler disabled the manual trigger answers 503.
	var digest handler.DigestTrigger
	if cfg.Scheduler.Enabled {
		digestScheduler := newDigestScheduler(cfg, db, reportService, mailer, companyRepo, log)
		if err := digestScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start digest scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := digestScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping digest scheduler", zap.Error(err))
			}
		}()
		digest = digestScheduler
	}

	// Handlers
	systemHandler := handler.NewSystemHandler(Version, healthChecks(db, redisClient))
	handlers := router.Handlers{
		System:      systemHandler,
		Auth:        handler.NewAuthHandler(authService, cfg.Cookie, cfg.App.FrontendURL),
		Company:     handler.NewCompanyHandler(companyService, memberService),
		Category:    handler.NewCategoryHandler(categoryService),
		Product:     handler.NewProductHandler(productService),
		Supplier:    handler.NewSupplierHandler(supplierService),
		Customer:    handler.NewCustomerHandler(customerService),
		Stock:       handler.NewStockHandler(stockService),
		Order:       handler.NewOrderHandler(orderService),
		Invoice:     handler.NewInvoiceHandler(invoiceService),
		Billing:     handler.NewBillingHandler(billingService, webhookService),
		Ticket:      handler.NewTicketHandler(ticketService),
		AdminTicket: handler.NewAdminTicketHandler(ticketService),
		Report:      handler.NewReportHandler(reportService, digest),
		Assistant:   handler.NewAssistantHandler(assistantService),
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - Server span, request attributes, error marking
	// 5. Metrics - HTTP counters and histograms
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	// 9. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: tel.metrics,
		Enabled:       cfg.Telemetry.MetricsEnabled,
	}))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	jwtAuth := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
	})

	// Swagger documentation endpoint
	swaggerGuard := middleware.SwaggerProtection(middleware.SwaggerConfig{
		Enabled:     cfg.Swagger.Enabled,
		RequireAuth: cfg.Swagger.RequireAuth,
		AllowedIPs:  cfg.Swagger.AllowedIPs,
	}, jwtAuth)
	engine.GET("/swagger/*any", swaggerGuard, ginSwagger.WrapHandler(swaggerFiles.Handler))

	guards := router.Guards{
		Auth:  jwtAuth,
		Roles: middleware.NewRoleGuard(membershipRepo, userRepo, log),
		AfterAuth: []gin.HandlerFunc{
			middleware.TracingAttributeInjector(),
			middleware.Profiling(middleware.ProfilingConfig{Enabled: cfg.Profiling.Enabled}),
		},
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		guards.AuthLimit = middleware.RateLimit(authLimiter)
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterAPI(r, handlers, guards)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// observability bundles the OpenTelemetry providers and Pyroscope profiler
type observability struct {
	traces   *telemetry.TracerProvider
	metrics  *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
	business *telemetry.BusinessMetrics
}

func (o *observability) meter() metric.Meter {
	return o.metrics.Meter("bizdesk")
}

func (o *observability) shutdown(log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if o.profiler != nil {
		if err := o.profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}
	if o.traces != nil {
		if err := o.traces.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}
	if o.metrics != nil {
		if err := o.metrics.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}
	if o.logs != nil {
		if err := o.logs.Shutdown(ctx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}
}

// initTelemetry starts tracing, metrics, log export and profiling. Failures
// are logged and the service keeps running without the affected signal.
func initTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) *observability {
	o := &observability{}
	t := cfg.Telemetry

	traces, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           t.Enabled,
		CollectorEndpoint: t.CollectorEndpoint,
		SamplingRatio:     t.SamplingRatio,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		log.Warn("Tracing unavailable", zap.Error(err))
	} else {
		o.traces = traces
	}

	metrics, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           t.Enabled && t.MetricsEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ExportInterval:    t.MetricsInterval,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		log.Warn("Metrics unavailable", zap.Error(err))
		metrics, _ = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{}, log)
	}
	o.metrics = metrics

	logs, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           t.Enabled && t.LogsEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		log.Warn("Log export unavailable", zap.Error(err))
	} else {
		o.logs = logs
	}

	if t.MetricsEnabled {
		business, err := telemetry.NewBusinessMetrics(o.meter(), log)
		if err != nil {
			log.Warn("Business metrics unavailable", zap.Error(err))
		} else {
			o.business = business
		}
	}

	p := cfg.Profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           p.Enabled,
		ServerAddress:     p.ServerAddress,
		ApplicationName:   p.ApplicationName,
		BasicAuthUser:     p.BasicAuthUser,
		BasicAuthPassword: p.BasicAuthPassword,
	}, log)
	if err != nil {
		log.Warn("Profiling unavailable", zap.Error(err))
	} else {
		o.profiler = profiler
		if profiler.IsEnabled() && o.traces != nil && o.traces.IsEnabled() {
			o.traces.EnableSpanProfiles()
		}
	}

	return o
}

func instrumentDatabase(db *persistence.Database, cfg *config.Config, tel *observability, log *zap.Logger) {
	inst, err := telemetry.NewDBInstrumentation(tel.meter(), telemetry.DBConfig{
		TracingEnabled:     cfg.Telemetry.DBTraceEnabled,
		DBSystem:           "postgresql",
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Warn("Database instrumentation unavailable", zap.Error(err))
		return
	}
	if err := inst.Instrument(db.DB, tel.meter()); err != nil {
		log.Warn("Failed to instrument database", zap.Error(err))
	}
}

func runMigrations(db *persistence.Database, log *zap.Logger) {
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB for migrations", zap.Error(err))
	}
	migrator, err := migration.NewEmbedded(sqlDB, log)
	if err != nil {
		log.Fatal("Failed to initialize migrator", zap.Error(err))
	}
	if err := migrator.Up(); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}
}

func newObjectStorage(cfg *config.Config, log *zap.Logger) appshared.ObjectStorage {
	if !cfg.Storage.Enabled {
		log.Info("Object storage disabled, keeping uploads in memory")
		return storage.NewMemoryObjectStorage(cfg.Storage.PublicBaseURL)
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
	)
	if err != nil {
		log.Fatal("Failed to initialize S3 storage", zap.Error(err))
	}
	log.Info("S3 storage enabled", zap.String("bucket", cfg.Storage.Bucket))
	return s3
}

func newDigestScheduler(
	cfg *config.Config,
	db *persistence.Database,
	reports *reportapp.ReportService,
	mailer appshared.Mailer,
	companies *persistence.GormCompanyRepository,
	log *zap.Logger,
) *scheduler.DigestCronScheduler {
	pool := scheduler.DefaultConfig()
	if cfg.Scheduler.MaxConcurrentJobs > 0 {
		pool.MaxConcurrentJobs = cfg.Scheduler.MaxConcurrentJobs
	}
	if cfg.Scheduler.JobTimeout > 0 {
		pool.JobTimeout = cfg.Scheduler.JobTimeout
	}
	pool.RetryAttempts = cfg.Scheduler.RetryAttempts
	if cfg.Scheduler.RetryDelay > 0 {
		pool.RetryDelay = cfg.Scheduler.RetryDelay
	}

	cronConfig, err := scheduler.NewDigestCronConfig(cfg.Report.DigestEnabled, cfg.Report.DigestCron, pool)
	if err != nil {
		log.Fatal("Invalid digest schedule", zap.Error(err))
	}

	executor := reportapp.NewDigestExecutor(reports, mailer, cfg.Report.DigestRecipients, log)
	return scheduler.NewDigestCronScheduler(
		cronConfig,
		executor,
		companies,
		scheduler.NewJobRunRepository(db.DB),
		log,
	)
}

func healthChecks(db *persistence.Database, redisClient *redis.Client) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
