package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/cache"
	"backoffice-backend/internal/config"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/db"
	"backoffice-backend/internal/handlers"
	"backoffice-backend/internal/health"
	h "backoffice-backend/internal/http"
	"backoffice-backend/internal/middleware"
	"backoffice-backend/internal/monitoring"
	"backoffice-backend/internal/repositories"
	"backoffice-backend/internal/services"
	"backoffice-backend/internal/timeutil"
	"backoffice-backend/internal/wizard"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to PostgreSQL
	pool := db.Connect(cfg)
	defer pool.Close()

	// Initialize Redis cache (optional - graceful fallback if unavailable)
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (continuing without cache)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	// Run database migrations
	log.Println("Running database migrations...")
	migrator := database.NewMigrator(pool, "migrations")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize health checker
	healthChecker := health.NewHealthChecker(pool)

	// Start monitoring dashboard server in background
	go monitoring.NewMonitoringServer(pool, 9090).Start()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(pool)
	customerRepo := repositories.NewCustomerRepository(pool)
	itemRepo := repositories.NewItemRepository(pool)
	invoiceRepo := repositories.NewInvoiceRepository(pool, cfg.Invoice.DocumentPrefix, cfg.Invoice.ReceiptPrefix)
	paymentRepo := repositories.NewPaymentRepository(pool, cfg.Invoice.ReceiptPrefix)
	ledgerRepo := repositories.NewLedgerRepository(pool)
	systemSettingRepo := repositories.NewSystemSettingRepository(pool)
	onlineTransactionRepo := repositories.NewOnlineTransactionRepository(pool)

	// Initialize services
	userService := services.NewUserService(userRepo, jwtManager)
	customerService := services.NewCustomerService(customerRepo)
	itemService := services.NewItemService(itemRepo)
	invoiceService := services.NewInvoiceService(invoiceRepo, customerRepo)
	paymentService := services.NewPaymentService(paymentRepo, invoiceRepo, customerRepo)
	ledgerService := services.NewLedgerService(ledgerRepo, customerRepo)
	systemSettingService := services.NewSystemSettingService(systemSettingRepo)
	razorpayService := services.NewRazorpayService(
		cfg.Razorpay.KeyID,
		cfg.Razorpay.KeySecret,
		cfg.Razorpay.WebhookSecret,
		onlineTransactionRepo,
		paymentRepo,
		invoiceRepo,
		customerRepo,
		systemSettingRepo,
	)

	// In-memory store for invoice drafts being built step by step
	draftStore := wizard.NewStore(timeutil.Now)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	corsMiddleware := middleware.NewCORS(cfg)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	authHandler := handlers.NewAuthHandler(userService)
	customerHandler := handlers.NewCustomerHandler(customerService, invoiceService, ledgerService)
	itemHandler := handlers.NewItemHandler(itemService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	draftHandler := handlers.NewDraftHandler(draftStore, invoiceService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	razorpayHandler := handlers.NewRazorpayHandler(razorpayService)
	systemSettingHandler := handlers.NewSystemSettingHandler(systemSettingService)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	// Create router
	router := h.NewRouter(
		userHandler,
		authHandler,
		customerHandler,
		itemHandler,
		invoiceHandler,
		draftHandler,
		paymentHandler,
		ledgerHandler,
		razorpayHandler,
		systemSettingHandler,
		healthHandler,
		authMiddleware,
	)

	// Wrap with panic recovery and metrics middleware
	handler := middleware.PanicRecovery(middleware.MetricsMiddleware(corsMiddleware(router)))

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
