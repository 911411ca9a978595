package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"backoffice-backend/internal/middleware"
	"backoffice-backend/internal/pricing"
	"backoffice-backend/internal/services"
	"backoffice-backend/internal/wizard"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// DraftHandler exposes the invoice wizard over HTTP. Drafts live in memory on
// the server; the frontend renders whatever draft state comes back and sends
// one action per user interaction.
type DraftHandler struct {
	Store          *wizard.Store
	InvoiceService *services.InvoiceService
}

func NewDraftHandler(store *wizard.Store, invoiceService *services.InvoiceService) *DraftHandler {
	return &DraftHandler{Store: store, InvoiceService: invoiceService}
}

// draftActionRequest is the JSON envelope for a single wizard action. Type
// selects the action; the other fields are read as that action needs them.
type draftActionRequest struct {
	Type string `json:"type"`

	CustomerID  int       `json:"customer_id,omitempty"`
	InvoiceDate time.Time `json:"invoice_date,omitempty"`
	DueDate     time.Time `json:"due_date,omitempty"`
	Terms       string    `json:"terms,omitempty"`
	Notes       string    `json:"notes,omitempty"`

	Policy           string           `json:"policy,omitempty"`
	DocumentDiscount pricing.Discount `json:"document_discount,omitempty"`

	Step   int               `json:"step,omitempty"`
	ItemID string            `json:"item_id,omitempty"`
	Item   *pricing.LineItem `json:"item,omitempty"`

	Record    bool            `json:"record,omitempty"`
	Date      time.Time       `json:"date,omitempty"`
	Amount    decimal.Decimal `json:"amount,omitempty"`
	Method    string          `json:"method,omitempty"`
	Reference string          `json:"reference,omitempty"`
}

// draftResponse pairs the draft with its derived figures so the frontend
// never computes totals itself
type draftResponse struct {
	Draft                    wizard.Draft           `json:"draft"`
	Totals                   pricing.DocumentTotals `json:"totals"`
	NeedsDiscardConfirmation bool                   `json:"needs_discard_confirmation"`
}

func writeDraft(w http.ResponseWriter, d wizard.Draft) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(draftResponse{
		Draft:                    d,
		Totals:                   d.Totals(),
		NeedsDiscardConfirmation: d.NeedsDiscardConfirmation(),
	})
}

func (req *draftActionRequest) toAction() (wizard.Action, error) {
	switch req.Type {
	case "select_customer":
		return wizard.SelectCustomer{CustomerID: req.CustomerID}, nil
	case "set_dates":
		return wizard.SetDates{InvoiceDate: req.InvoiceDate, DueDate: req.DueDate}, nil
	case "set_terms_and_notes":
		return wizard.SetTermsAndNotes{Terms: req.Terms, Notes: req.Notes}, nil
	case "set_discount_policy":
		return wizard.SetDiscountPolicy{
			Kind:             wizard.PolicyKind(req.Policy),
			DocumentDiscount: req.DocumentDiscount,
		}, nil
	case "next_step":
		return wizard.NextStep{}, nil
	case "go_to_step":
		return wizard.GoToStep{Step: wizard.Step(req.Step)}, nil
	case "begin_add_item":
		return wizard.BeginAddItem{}, nil
	case "begin_edit_item":
		return wizard.BeginEditItem{ItemID: req.ItemID}, nil
	case "save_item":
		if req.Item == nil {
			return nil, errors.New("save_item requires an item")
		}
		return wizard.SaveItem{Item: *req.Item}, nil
	case "cancel_item":
		return wizard.CancelItem{}, nil
	case "remove_item":
		return wizard.RemoveItem{ItemID: req.ItemID}, nil
	case "set_payment":
		return wizard.SetPayment{
			Record:    req.Record,
			Date:      req.Date,
			Amount:    req.Amount,
			Method:    req.Method,
			Reference: req.Reference,
			Notes:     req.Notes,
		}, nil
	default:
		return nil, errors.New("unknown action type: " + req.Type)
	}
}

// CreateDraft opens a new empty draft on step 1
// POST /api/drafts
func (h *DraftHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	d := h.Store.Create()
	w.WriteHeader(http.StatusCreated)
	writeDraft(w, d)
}

// GetDraft returns the current draft state
// GET /api/drafts/{id}
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid draft id", http.StatusBadRequest)
		return
	}

	d, err := h.Store.Get(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeDraft(w, d)
}

// ApplyAction runs one wizard action against the draft. Rejected transitions
// come back as 422 with the reason; the stored draft is unchanged.
// POST /api/drafts/{id}/actions
func (h *DraftHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid draft id", http.StatusBadRequest)
		return
	}

	var req draftActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	action, err := req.toAction()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d, err := h.Store.Apply(id, action)
	if err != nil {
		if errors.Is(err, wizard.ErrDraftNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeDraft(w, d)
}

// SubmitDraft converts the draft into a persisted invoice and drops it from
// the store. A failed submission leaves the draft intact for another attempt.
// POST /api/drafts/{id}/submit
func (h *DraftHandler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid draft id", http.StatusBadRequest)
		return
	}

	d, err := h.Store.Get(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	payload, err := d.BuildSubmitPayload()
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	invoice, err := h.InvoiceService.CreateInvoice(r.Context(), payload, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.Store.Remove(id)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(invoice)
}

// DiscardDraft drops the draft. The response to GET tells the frontend
// whether to ask for confirmation first; this endpoint discards
// unconditionally once called.
// DELETE /api/drafts/{id}
func (h *DraftHandler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid draft id", http.StatusBadRequest)
		return
	}

	if err := h.Store.Discard(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
