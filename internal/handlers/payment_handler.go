package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"backoffice-backend/internal/allocation"
	"backoffice-backend/internal/middleware"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/services"

	"github.com/gorilla/mux"
)

type PaymentHandler struct {
	Service *services.PaymentService
}

func NewPaymentHandler(s *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: s}
}

// allocationStatus maps allocation validation failures to 422; they are
// well-formed requests that break a business rule, not malformed input
func allocationStatus(err error) int {
	switch {
	case errors.Is(err, allocation.ErrNonPositiveAmount),
		errors.Is(err, allocation.ErrNoAllocations),
		errors.Is(err, allocation.ErrZeroAllocation),
		errors.Is(err, allocation.ErrAllocationMismatch),
		errors.Is(err, allocation.ErrUnknownInvoice):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// RecordPayment records a payment with its allocations
// POST /api/payments
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payment, err := h.Service.RecordPayment(r.Context(), &req, userID)
	if err != nil {
		http.Error(w, err.Error(), allocationStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(payment)
}

// SuggestAllocations previews the oldest-first auto-allocation for a payment
// being entered; nothing is persisted
// POST /api/customers/{id}/suggest-allocations
func (h *PaymentHandler) SuggestAllocations(w http.ResponseWriter, r *http.Request) {
	customerID, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req models.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	allocations, err := h.Service.SuggestAllocations(r.Context(), customerID, &req)
	if err != nil {
		http.Error(w, err.Error(), allocationStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(allocations)
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	payment, err := h.Service.GetPayment(r.Context(), id)
	if err != nil {
		http.Error(w, "Payment not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payment)
}

// ListPayments returns payments newest first. Optional query parameters:
// customer_id, limit, offset.
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	customerID, _ := strconv.Atoi(r.URL.Query().Get("customer_id"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	payments, err := h.Service.ListPayments(r.Context(), customerID, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payments)
}
