// Package wizard drives the five-step invoice creation flow as an explicit
// state machine: a single owned draft mutated only through Reduce. Each step
// is a pure view over the draft; nothing advances automatically.
package wizard

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"backoffice-backend/internal/pricing"
)

// Step is the wizard position. Steps are numbered as shown in the flow.
type Step int

const (
	StepCustomerAndDates Step = 1
	StepItems            Step = 2
	StepAddOrEditItem    Step = 3
	StepPayment          Step = 4
	StepReview           Step = 5
)

// PolicyKind is the serializable discount policy selector held by a draft.
type PolicyKind string

const (
	PolicyPerItem     PolicyKind = "per_item"
	PolicyPerDocument PolicyKind = "per_document"
)

// PaymentDetails captures the optional immediate payment entered on step 4.
type PaymentDetails struct {
	Record    bool            `json:"record"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

// Draft is the in-memory working state of one invoice being built. It is
// created empty when the wizard opens, mutated exclusively through Reduce,
// and either discarded or converted to a persisted invoice on submit.
type Draft struct {
	ID   uuid.UUID `json:"id"`
	Step Step      `json:"step"`

	CustomerID  int       `json:"customer_id"`
	InvoiceDate time.Time `json:"invoice_date"`
	DueDate     time.Time `json:"due_date"`
	Terms       string    `json:"terms"`
	Notes       string    `json:"notes"`

	Items            []pricing.LineItem `json:"items"`
	DiscountPolicy   PolicyKind         `json:"discount_policy"`
	DocumentDiscount pricing.Discount   `json:"document_discount"`

	Payment       PaymentDetails `json:"payment"`
	PaymentSeeded bool           `json:"payment_seeded"`

	// EditingItemID is set while step 3 edits an existing line; empty in
	// create mode.
	EditingItemID string `json:"editing_item_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDraft returns an empty draft positioned on step 1.
func NewDraft(now time.Time) Draft {
	return Draft{
		ID:             uuid.New(),
		Step:           StepCustomerAndDates,
		InvoiceDate:    now,
		DiscountPolicy: PolicyPerItem,
		Payment:        PaymentDetails{Date: now},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// PricingPolicy materializes the draft's policy selection for the calculator.
func (d Draft) PricingPolicy() pricing.Policy {
	if d.DiscountPolicy == PolicyPerDocument {
		return pricing.PerDocument{Discount: d.DocumentDiscount}
	}
	return pricing.PerItem{}
}

// Totals recomputes the document figures from the current draft state.
// Called after every mutation; there is no caching.
func (d Draft) Totals() pricing.DocumentTotals {
	return pricing.ComputeTotals(d.Items, d.PricingPolicy())
}

// NeedsDiscardConfirmation reports whether closing the wizard without saving
// should ask first. Confirmed exit discards the draft unconditionally.
func (d Draft) NeedsDiscardConfirmation() bool {
	return len(d.Items) > 0 || d.Step > StepCustomerAndDates
}

func (d Draft) itemIndex(itemID string) int {
	for i, item := range d.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (d Draft) cloneItems() []pricing.LineItem {
	items := make([]pricing.LineItem, len(d.Items))
	copy(items, d.Items)
	return items
}
