package http

import (
	"net/http"

	"backoffice-backend/internal/handlers"
	"backoffice-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	userHandler *handlers.UserHandler,
	authHandler *handlers.AuthHandler,
	customerHandler *handlers.CustomerHandler,
	itemHandler *handlers.ItemHandler,
	invoiceHandler *handlers.InvoiceHandler,
	draftHandler *handlers.DraftHandler,
	paymentHandler *handlers.PaymentHandler,
	ledgerHandler *handlers.LedgerHandler,
	razorpayHandler *handlers.RazorpayHandler,
	systemSettingHandler *handlers.SystemSettingHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public API routes - Authentication
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Public API routes - Razorpay webhook (signature-verified, not JWT)
	r.HandleFunc("/api/online-payments/webhook", razorpayHandler.Webhook).Methods("POST")

	// Protected API routes - Current user
	authAPI := r.PathPrefix("/api/auth").Subrouter()
	authAPI.Use(authMiddleware.Authenticate)
	authAPI.HandleFunc("/me", authHandler.Me).Methods("GET")

	// Protected API routes - System Settings (admin only for updates)
	settingsAPI := r.PathPrefix("/api/settings").Subrouter()
	settingsAPI.Use(authMiddleware.Authenticate)
	settingsAPI.HandleFunc("", systemSettingHandler.ListSettings).Methods("GET")
	settingsAPI.HandleFunc("/{key}", systemSettingHandler.GetSetting).Methods("GET")
	settingsAPI.HandleFunc("/{key}", authMiddleware.RequireAdmin(http.HandlerFunc(systemSettingHandler.UpdateSetting)).ServeHTTP).Methods("PUT")

	// Protected API routes - Users (admin only)
	usersAPI := r.PathPrefix("/api/users").Subrouter()
	usersAPI.Use(authMiddleware.RequireAdmin)
	usersAPI.HandleFunc("", userHandler.ListUsers).Methods("GET")
	usersAPI.HandleFunc("", userHandler.CreateUser).Methods("POST")
	usersAPI.HandleFunc("/{id}", userHandler.GetUser).Methods("GET")
	usersAPI.HandleFunc("/{id}", userHandler.UpdateUser).Methods("PUT")
	usersAPI.HandleFunc("/{id}", userHandler.DeleteUser).Methods("DELETE")

	// Protected API routes - Customers (all authenticated users can view,
	// ledger and allocation endpoints need accountant access)
	customersAPI := r.PathPrefix("/api/customers").Subrouter()
	customersAPI.Use(authMiddleware.Authenticate)
	customersAPI.HandleFunc("", customerHandler.ListCustomers).Methods("GET")
	customersAPI.HandleFunc("", customerHandler.CreateCustomer).Methods("POST")
	customersAPI.HandleFunc("/{id}", customerHandler.GetCustomer).Methods("GET")
	customersAPI.HandleFunc("/{id}", customerHandler.UpdateCustomer).Methods("PUT")
	customersAPI.HandleFunc("/{id}", authMiddleware.RequireAdmin(http.HandlerFunc(customerHandler.DeactivateCustomer)).ServeHTTP).Methods("DELETE")
	customersAPI.HandleFunc("/{id}/outstanding-invoices", authMiddleware.RequireAccountantAccess(http.HandlerFunc(customerHandler.GetOutstandingInvoices)).ServeHTTP).Methods("GET")
	customersAPI.HandleFunc("/{id}/ledger", authMiddleware.RequireAccountantAccess(http.HandlerFunc(customerHandler.GetLedger)).ServeHTTP).Methods("GET")
	customersAPI.HandleFunc("/{id}/balance", authMiddleware.RequireAccountantAccess(http.HandlerFunc(customerHandler.GetBalance)).ServeHTTP).Methods("GET")
	customersAPI.HandleFunc("/{id}/suggest-allocations", authMiddleware.RequireAccountantAccess(http.HandlerFunc(paymentHandler.SuggestAllocations)).ServeHTTP).Methods("POST")
	customersAPI.HandleFunc("/{id}/online-transactions", authMiddleware.RequireAccountantAccess(http.HandlerFunc(razorpayHandler.GetTransactionHistory)).ServeHTTP).Methods("GET")

	// Protected API routes - Items
	itemsAPI := r.PathPrefix("/api/items").Subrouter()
	itemsAPI.Use(authMiddleware.Authenticate)
	itemsAPI.HandleFunc("", itemHandler.ListItems).Methods("GET")
	itemsAPI.HandleFunc("", itemHandler.CreateItem).Methods("POST")
	itemsAPI.HandleFunc("/{id}", itemHandler.GetItem).Methods("GET")
	itemsAPI.HandleFunc("/{id}", itemHandler.UpdateItem).Methods("PUT")
	itemsAPI.HandleFunc("/{id}", authMiddleware.RequireAdmin(http.HandlerFunc(itemHandler.DeactivateItem)).ServeHTTP).Methods("DELETE")

	// Protected API routes - Invoices (all can view, creation needs accountant access)
	invoicesAPI := r.PathPrefix("/api/invoices").Subrouter()
	invoicesAPI.Use(authMiddleware.Authenticate)
	invoicesAPI.HandleFunc("", authMiddleware.RequireAccountantAccess(http.HandlerFunc(invoiceHandler.CreateInvoice)).ServeHTTP).Methods("POST")
	invoicesAPI.HandleFunc("", invoiceHandler.ListInvoices).Methods("GET")
	invoicesAPI.HandleFunc("/{id}", invoiceHandler.GetInvoice).Methods("GET")

	// Protected API routes - Invoice drafts (the step-by-step invoice builder)
	draftsAPI := r.PathPrefix("/api/drafts").Subrouter()
	draftsAPI.Use(authMiddleware.Authenticate)
	draftsAPI.Use(authMiddleware.RequireAccountantAccess)
	draftsAPI.HandleFunc("", draftHandler.CreateDraft).Methods("POST")
	draftsAPI.HandleFunc("/{id}", draftHandler.GetDraft).Methods("GET")
	draftsAPI.HandleFunc("/{id}/actions", draftHandler.ApplyAction).Methods("POST")
	draftsAPI.HandleFunc("/{id}/submit", draftHandler.SubmitDraft).Methods("POST")
	draftsAPI.HandleFunc("/{id}", draftHandler.DiscardDraft).Methods("DELETE")

	// Protected API routes - Payments (accountant access)
	paymentsAPI := r.PathPrefix("/api/payments").Subrouter()
	paymentsAPI.Use(authMiddleware.Authenticate)
	paymentsAPI.Use(authMiddleware.RequireAccountantAccess)
	paymentsAPI.HandleFunc("", paymentHandler.RecordPayment).Methods("POST")
	paymentsAPI.HandleFunc("", paymentHandler.ListPayments).Methods("GET")
	paymentsAPI.HandleFunc("/{id}", paymentHandler.GetPayment).Methods("GET")

	// Protected API routes - Ledger (accountant access)
	ledgerAPI := r.PathPrefix("/api/ledger").Subrouter()
	ledgerAPI.Use(authMiddleware.Authenticate)
	ledgerAPI.Use(authMiddleware.RequireAccountantAccess)
	ledgerAPI.HandleFunc("/adjustments", ledgerHandler.RecordAdjustment).Methods("POST")
	ledgerAPI.HandleFunc("/customers/{id}/summary", ledgerHandler.GetSummary).Methods("GET")
	ledgerAPI.HandleFunc("/debtors", ledgerHandler.GetDebtors).Methods("GET")

	// Protected API routes - Online payments (accountant access)
	onlinePaymentsAPI := r.PathPrefix("/api/online-payments").Subrouter()
	onlinePaymentsAPI.Use(authMiddleware.Authenticate)
	onlinePaymentsAPI.HandleFunc("/status", razorpayHandler.CheckPaymentStatus).Methods("GET")
	onlinePaymentsAPI.HandleFunc("/orders", authMiddleware.RequireAccountantAccess(http.HandlerFunc(razorpayHandler.CreateOrder)).ServeHTTP).Methods("POST")
	onlinePaymentsAPI.HandleFunc("/verify", authMiddleware.RequireAccountantAccess(http.HandlerFunc(razorpayHandler.VerifyPayment)).ServeHTTP).Methods("POST")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
