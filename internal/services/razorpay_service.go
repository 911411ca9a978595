package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"backoffice-backend/internal/allocation"
	"backoffice-backend/internal/cache"
	"backoffice-backend/internal/metrics"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/repositories"
	"backoffice-backend/internal/timeutil"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
)

type RazorpayService struct {
	transactionRepo   *repositories.OnlineTransactionRepository
	paymentRepo       *repositories.PaymentRepository
	invoiceRepo       *repositories.InvoiceRepository
	customerRepo      *repositories.CustomerRepository
	systemSettingRepo *repositories.SystemSettingRepository
	// Fallback credentials from environment (used if DB credentials not set)
	envKeyID         string
	envKeySecret     string
	envWebhookSecret string
}

func NewRazorpayService(
	keyID, keySecret, webhookSecret string,
	transactionRepo *repositories.OnlineTransactionRepository,
	paymentRepo *repositories.PaymentRepository,
	invoiceRepo *repositories.InvoiceRepository,
	customerRepo *repositories.CustomerRepository,
	systemSettingRepo *repositories.SystemSettingRepository,
) *RazorpayService {
	return &RazorpayService{
		transactionRepo:   transactionRepo,
		paymentRepo:       paymentRepo,
		invoiceRepo:       invoiceRepo,
		customerRepo:      customerRepo,
		systemSettingRepo: systemSettingRepo,
		envKeyID:          keyID,
		envKeySecret:      keySecret,
		envWebhookSecret:  webhookSecret,
	}
}

// getCredentials returns the Razorpay credentials (from DB first, then env fallback)
func (s *RazorpayService) getCredentials(ctx context.Context) (keyID, keySecret, webhookSecret string) {
	if setting, err := s.systemSettingRepo.Get(ctx, "razorpay_key_id"); err == nil && setting != nil && setting.SettingValue != "" {
		keyID = setting.SettingValue
	}
	if setting, err := s.systemSettingRepo.Get(ctx, "razorpay_key_secret"); err == nil && setting != nil && setting.SettingValue != "" {
		keySecret = setting.SettingValue
	}
	if setting, err := s.systemSettingRepo.Get(ctx, "razorpay_webhook_secret"); err == nil && setting != nil && setting.SettingValue != "" {
		webhookSecret = setting.SettingValue
	}

	if keyID == "" {
		keyID = s.envKeyID
	}
	if keySecret == "" {
		keySecret = s.envKeySecret
	}
	if webhookSecret == "" {
		webhookSecret = s.envWebhookSecret
	}

	return keyID, keySecret, webhookSecret
}

// getClient returns a Razorpay client with current credentials
func (s *RazorpayService) getClient(ctx context.Context) *razorpay.Client {
	keyID, keySecret, _ := s.getCredentials(ctx)
	if keyID == "" || keySecret == "" {
		return nil
	}
	return razorpay.NewClient(keyID, keySecret)
}

// IsEnabled checks if online payments are enabled in system settings
func (s *RazorpayService) IsEnabled(ctx context.Context) bool {
	setting, err := s.systemSettingRepo.Get(ctx, "online_payments_enabled")
	if err != nil || setting == nil {
		return false
	}
	return setting.SettingValue == "true"
}

// CreateOrder creates a Razorpay order against a customer's outstanding
// balance and stores the pending transaction
func (s *RazorpayService) CreateOrder(ctx context.Context, req *models.CreateOnlinePaymentRequest) (*models.CreateOrderResponse, error) {
	if !s.IsEnabled(ctx) {
		return nil, fmt.Errorf("online payments are currently disabled")
	}
	if req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	client := s.getClient(ctx)
	if client == nil {
		return nil, fmt.Errorf("razorpay client not configured")
	}

	customer, err := s.customerRepo.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer not found: %w", err)
	}

	// Razorpay amounts are in paise
	amountPaise := req.Amount.Mul(decimal.NewFromInt(100)).IntPart()

	orderData := map[string]interface{}{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  fmt.Sprintf("cust_%d_%d", customer.ID, time.Now().Unix()),
		"notes": map[string]interface{}{
			"customer_id": customer.ID,
		},
	}

	order, err := client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	orderID, ok := order["id"].(string)
	if !ok || orderID == "" {
		return nil, fmt.Errorf("razorpay order response missing order id: %v", order)
	}

	tx := &models.OnlineTransaction{
		RazorpayOrderID: orderID,
		CustomerID:      customer.ID,
		Amount:          req.Amount,
		Status:          models.OnlineTxStatusPending,
	}
	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}

	keyID, _, _ := s.getCredentials(ctx)
	return &models.CreateOrderResponse{
		OrderID:       orderID,
		Amount:        amountPaise,
		Currency:      "INR",
		KeyID:         keyID,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		CustomerEmail: customer.Email,
	}, nil
}

// VerifyPayment verifies the checkout callback signature and applies the
// capture. Safe to call more than once per order; only the first call with a
// pending transaction creates the payment.
func (s *RazorpayService) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.OnlineTransaction, error) {
	if !s.verifySignature(ctx, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		_ = s.transactionRepo.MarkFailed(ctx, req.RazorpayOrderID, "Invalid signature")
		return nil, fmt.Errorf("invalid payment signature")
	}

	tx, err := s.transactionRepo.GetByOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, fmt.Errorf("transaction not found: %w", err)
	}
	if tx.Status == models.OnlineTxStatusSuccess {
		return tx, nil // Already processed
	}

	tx.RazorpayPaymentID = req.RazorpayPaymentID
	tx.RazorpaySignature = req.RazorpaySignature
	s.fillPaymentDetails(ctx, tx)

	if err := s.capture(ctx, tx); err != nil {
		return nil, err
	}
	return s.transactionRepo.GetByOrderID(ctx, req.RazorpayOrderID)
}

// fillPaymentDetails fetches UTR, method, bank, VPA and card info from the
// Razorpay payments API. Failures are logged, not fatal; the capture does not
// depend on these fields.
func (s *RazorpayService) fillPaymentDetails(ctx context.Context, tx *models.OnlineTransaction) {
	client := s.getClient(ctx)
	if client == nil || tx.RazorpayPaymentID == "" {
		return
	}
	payment, err := client.Payment.Fetch(tx.RazorpayPaymentID, nil, nil)
	if err != nil {
		log.Printf("[Razorpay] Failed to fetch payment details: %v", err)
		return
	}

	if v, ok := payment["acquirer_data"].(map[string]interface{}); ok {
		if u, ok := v["upi_transaction_id"].(string); ok {
			tx.UTRNumber = u
		}
		if u, ok := v["bank_transaction_id"].(string); ok && tx.UTRNumber == "" {
			tx.UTRNumber = u
		}
		if u, ok := v["rrn"].(string); ok && tx.UTRNumber == "" {
			tx.UTRNumber = u
		}
	}
	if m, ok := payment["method"].(string); ok {
		tx.PaymentMethod = m
	}
	if b, ok := payment["bank"].(string); ok {
		tx.Bank = b
	}
	if v, ok := payment["vpa"].(string); ok {
		tx.VPA = v
	}
	if card, ok := payment["card"].(map[string]interface{}); ok {
		if last4, ok := card["last4"].(string); ok {
			tx.CardLast4 = last4
		}
	}
}

// capture claims the pending transaction and converts it into a regular
// payment auto-allocated oldest first across the customer's outstanding
// invoices. MarkSuccess only transitions a pending row, so a concurrent
// webhook and verify callback cannot both create a payment.
func (s *RazorpayService) capture(ctx context.Context, tx *models.OnlineTransaction) error {
	claimed, err := s.transactionRepo.MarkSuccess(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if !claimed {
		log.Printf("[Razorpay] Payment already processed: %s", tx.RazorpayOrderID)
		return nil
	}

	outstanding, err := s.invoiceRepo.GetOutstandingByCustomer(ctx, tx.CustomerID)
	if err != nil {
		return err
	}

	set := make([]allocation.OutstandingInvoice, 0, len(outstanding))
	for _, inv := range outstanding {
		set = append(set, allocation.OutstandingInvoice{InvoiceID: inv.ID, BalanceAmount: inv.BalanceAmount})
	}

	// Any amount beyond the outstanding total stays unallocated and sits on
	// the ledger as credit
	engine := allocation.NewEngine(tx.Amount, set)
	engine.AutoAllocate()

	allocs := make([]models.AllocationRequest, 0)
	for _, a := range engine.Allocations() {
		allocs = append(allocs, models.AllocationRequest{InvoiceID: a.InvoiceID, Amount: a.Amount})
	}

	notes := fmt.Sprintf("Online payment via Razorpay, payment ID %s", tx.RazorpayPaymentID)
	if tx.UTRNumber != "" {
		notes = fmt.Sprintf("%s, UTR %s", notes, tx.UTRNumber)
	}
	payment := &models.Payment{
		CustomerID:      tx.CustomerID,
		Date:            timeutil.StartOfDay(timeutil.Now()),
		Amount:          tx.Amount,
		Method:          "online",
		Reference:       tx.RazorpayPaymentID,
		Notes:           notes,
		CreatedByUserID: 0, // System
	}
	if err := s.paymentRepo.CreateWithAllocations(ctx, payment, allocs); err != nil {
		// The transaction is marked success but the payment failed to apply;
		// log loudly so it can be reconciled
		log.Printf("[Razorpay] Captured %s but failed to apply payment: %v", tx.RazorpayOrderID, err)
		return fmt.Errorf("failed to apply payment: %w", err)
	}

	if err := s.transactionRepo.LinkPayment(ctx, tx.RazorpayOrderID, payment.ID); err != nil {
		log.Printf("[Razorpay] Failed to link payment %d to order %s: %v", payment.ID, tx.RazorpayOrderID, err)
	}

	metrics.OnlinePaymentsCaptured.Inc()
	metrics.PaymentsRecorded.WithLabelValues("online").Inc()
	cache.InvalidatePaymentCaches(ctx, tx.CustomerID)
	return nil
}

// verifySignature verifies the Razorpay payment signature
func (s *RazorpayService) verifySignature(ctx context.Context, orderID, paymentID, signature string) bool {
	_, keySecret, _ := s.getCredentials(ctx)
	if keySecret == "" {
		return false
	}
	data := orderID + "|" + paymentID
	h := hmac.New(sha256.New, []byte(keySecret))
	h.Write([]byte(data))
	expectedSignature := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expectedSignature), []byte(signature))
}

// VerifyWebhookSignature verifies the webhook signature
func (s *RazorpayService) VerifyWebhookSignature(ctx context.Context, body []byte, signature string) bool {
	_, _, webhookSecret := s.getCredentials(ctx)
	if webhookSecret == "" {
		return true // Skip verification if not configured
	}

	h := hmac.New(sha256.New, []byte(webhookSecret))
	h.Write(body)
	expectedSignature := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expectedSignature), []byte(signature))
}

// ProcessWebhook processes Razorpay webhook events
func (s *RazorpayService) ProcessWebhook(ctx context.Context, event string, paymentData map[string]interface{}) error {
	switch event {
	case "payment.captured":
		return s.handlePaymentCaptured(ctx, paymentData)
	case "payment.failed":
		return s.handlePaymentFailed(ctx, paymentData)
	default:
		log.Printf("[Razorpay] Unhandled webhook event: %s", event)
		return nil
	}
}

func webhookEntity(paymentData map[string]interface{}) map[string]interface{} {
	paymentEntity, ok := paymentData["payment"].(map[string]interface{})
	if !ok {
		paymentEntity = paymentData
	}
	entity, ok := paymentEntity["entity"].(map[string]interface{})
	if !ok {
		entity = paymentEntity
	}
	return entity
}

func (s *RazorpayService) handlePaymentCaptured(ctx context.Context, paymentData map[string]interface{}) error {
	entity := webhookEntity(paymentData)

	orderID, _ := entity["order_id"].(string)
	paymentID, _ := entity["id"].(string)
	if orderID == "" {
		return fmt.Errorf("missing order_id in webhook")
	}

	tx, err := s.transactionRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("transaction not found: %w", err)
	}
	if tx.Status == models.OnlineTxStatusSuccess {
		log.Printf("[Razorpay] Payment already processed: %s", orderID)
		return nil
	}

	tx.RazorpayPaymentID = paymentID
	if acquirerData, ok := entity["acquirer_data"].(map[string]interface{}); ok {
		if u, ok := acquirerData["upi_transaction_id"].(string); ok {
			tx.UTRNumber = u
		}
		if u, ok := acquirerData["bank_transaction_id"].(string); ok && tx.UTRNumber == "" {
			tx.UTRNumber = u
		}
	}
	if m, ok := entity["method"].(string); ok {
		tx.PaymentMethod = m
	}
	if b, ok := entity["bank"].(string); ok {
		tx.Bank = b
	}
	if v, ok := entity["vpa"].(string); ok {
		tx.VPA = v
	}

	return s.capture(ctx, tx)
}

func (s *RazorpayService) handlePaymentFailed(ctx context.Context, paymentData map[string]interface{}) error {
	entity := webhookEntity(paymentData)

	orderID, _ := entity["order_id"].(string)
	reason := "Payment failed"
	if errorData, ok := entity["error_description"].(string); ok {
		reason = errorData
	}

	if orderID != "" {
		return s.transactionRepo.MarkFailed(ctx, orderID, reason)
	}
	return nil
}

// GetTransactionHistory returns a customer's online transactions
func (s *RazorpayService) GetTransactionHistory(ctx context.Context, customerID int, limit int) ([]models.OnlineTransaction, error) {
	return s.transactionRepo.ListByCustomer(ctx, customerID, limit)
}
