package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"backoffice-backend/internal/models"
	"backoffice-backend/internal/services"

	"github.com/gorilla/mux"
)

type RazorpayHandler struct {
	Service *services.RazorpayService
}

func NewRazorpayHandler(service *services.RazorpayService) *RazorpayHandler {
	return &RazorpayHandler{Service: service}
}

// CheckPaymentStatus returns whether online payments are enabled
// GET /api/online-payments/status
func (h *RazorpayHandler) CheckPaymentStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"enabled": h.Service.IsEnabled(r.Context())})
}

// CreateOrder creates a Razorpay order for a customer payment
// POST /api/online-payments/orders
func (h *RazorpayHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOnlinePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CustomerID == 0 {
		http.Error(w, "customer_id is required", http.StatusBadRequest)
		return
	}

	response, err := h.Service.CreateOrder(r.Context(), &req)
	if err != nil {
		log.Printf("[Razorpay] CreateOrder error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// VerifyPayment verifies the checkout callback and applies the capture
// POST /api/online-payments/verify
func (h *RazorpayHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		http.Error(w, "order id, payment id and signature are required", http.StatusBadRequest)
		return
	}

	tx, err := h.Service.VerifyPayment(r.Context(), &req)
	if err != nil {
		log.Printf("[Razorpay] VerifyPayment error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tx)
}

// Webhook receives Razorpay webhook events. Signature is verified against the
// raw body before anything is parsed.
// POST /api/online-payments/webhook
func (h *RazorpayHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !h.Service.VerifyWebhookSignature(r.Context(), body, signature) {
		log.Printf("[Razorpay] Invalid webhook signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var payload models.RazorpayWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	if err := h.Service.ProcessWebhook(r.Context(), payload.Event, payload.Payload); err != nil {
		log.Printf("[Razorpay] Webhook processing error: %v", err)
		// Respond 200 anyway so Razorpay does not retry a permanently
		// failing event forever; the error is logged for reconciliation
	}

	w.WriteHeader(http.StatusOK)
}

// GetTransactionHistory returns a customer's online transactions
// GET /api/customers/{id}/online-transactions
func (h *RazorpayHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	customerID, _ := strconv.Atoi(mux.Vars(r)["id"])
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	transactions, err := h.Service.GetTransactionHistory(r.Context(), customerID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}
