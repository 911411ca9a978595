package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"backoffice-backend/internal/middleware"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/services"
	"backoffice-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type LedgerHandler struct {
	Service *services.LedgerService
}

func NewLedgerHandler(s *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{Service: s}
}

// RecordAdjustment appends a manual ledger correction
// POST /api/ledger/adjustments
func (h *LedgerHandler) RecordAdjustment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateLedgerEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.Service.RecordAdjustment(r.Context(), &req, userID)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.JSON(w, http.StatusCreated, entry)
}

// GetSummary returns debit/credit totals for one customer
// GET /api/ledger/customers/{id}/summary
func (h *LedgerHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	summary, err := h.Service.GetSummary(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if summary == nil {
		utils.Error(w, http.StatusNotFound, "No ledger entries for customer")
		return
	}

	utils.JSON(w, http.StatusOK, summary)
}

// GetDebtors lists customers who owe money, largest balance first
// GET /api/ledger/debtors
func (h *LedgerHandler) GetDebtors(w http.ResponseWriter, r *http.Request) {
	debtors, err := h.Service.GetDebtors(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, debtors)
}
