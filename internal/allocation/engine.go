// Package allocation maps one incoming payment onto a customer's outstanding
// invoices. The engine owns the working allocation list while a payment is
// being entered; applying the result transactionally is the payment service's
// job, not the engine's.
package allocation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownInvoice     = errors.New("invoice is not in the outstanding set")
	ErrNotAllocated       = errors.New("invoice has no allocation to edit")
	ErrNonPositiveAmount  = errors.New("payment amount must be greater than zero")
	ErrNoAllocations      = errors.New("at least one allocation is required")
	ErrZeroAllocation     = errors.New("allocations must carry a positive amount")
	ErrAllocationMismatch = errors.New("allocated total must equal the payment amount")
)

// OutstandingInvoice is an open invoice offered for allocation,
// listed oldest first.
type OutstandingInvoice struct {
	InvoiceID     int             `json:"invoice_id"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
}

// Allocation is one payment-to-invoice assignment. At most one per invoice.
type Allocation struct {
	InvoiceID int             `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// Engine holds the in-progress allocation of a single payment amount across a
// fixed outstanding-invoice set. Not safe for concurrent use; each payment
// entry owns its engine.
type Engine struct {
	amount      decimal.Decimal
	invoices    []OutstandingInvoice
	invoiceIdx  map[int]int
	allocations []Allocation
	allocIdx    map[int]int
}

// NewEngine starts an empty allocation over the given payment amount and the
// customer's outstanding invoices, which must arrive oldest first.
func NewEngine(amount decimal.Decimal, invoices []OutstandingInvoice) *Engine {
	e := &Engine{
		amount:     amount,
		invoices:   make([]OutstandingInvoice, len(invoices)),
		invoiceIdx: make(map[int]int, len(invoices)),
		allocIdx:   make(map[int]int),
	}
	copy(e.invoices, invoices)
	for i, inv := range e.invoices {
		e.invoiceIdx[inv.InvoiceID] = i
	}
	return e
}

// Amount returns the payment amount being allocated.
func (e *Engine) Amount() decimal.Decimal { return e.amount }

// Allocated returns the sum of all current allocations.
func (e *Engine) Allocated() decimal.Decimal {
	total := decimal.Zero
	for _, a := range e.allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// Remaining is the unallocated part of the payment. Negative when the user has
// over-allocated; that state is legal mid-edit and rejected only at Validate.
func (e *Engine) Remaining() decimal.Decimal {
	return e.amount.Sub(e.Allocated())
}

// Allocations returns the current allocation list in insertion order.
func (e *Engine) Allocations() []Allocation {
	out := make([]Allocation, len(e.allocations))
	copy(out, e.allocations)
	return out
}

// Add allocates an invoice with min(invoice balance, payment amount).
// Re-adding an already-allocated invoice is a no-op.
func (e *Engine) Add(invoiceID int) error {
	idx, ok := e.invoiceIdx[invoiceID]
	if !ok {
		return fmt.Errorf("%w: invoice %d", ErrUnknownInvoice, invoiceID)
	}
	if _, exists := e.allocIdx[invoiceID]; exists {
		return nil
	}
	amount := decimal.Min(e.invoices[idx].BalanceAmount, e.amount)
	e.allocIdx[invoiceID] = len(e.allocations)
	e.allocations = append(e.allocations, Allocation{InvoiceID: invoiceID, Amount: amount})
	return nil
}

// Set changes an existing allocation's amount, clamped to [0, invoice balance].
// It is deliberately not clamped against the remaining payment: the user may
// rebalance freely and any over-allocation is caught at Validate.
func (e *Engine) Set(invoiceID int, amount decimal.Decimal) error {
	invIdx, ok := e.invoiceIdx[invoiceID]
	if !ok {
		return fmt.Errorf("%w: invoice %d", ErrUnknownInvoice, invoiceID)
	}
	aIdx, ok := e.allocIdx[invoiceID]
	if !ok {
		return fmt.Errorf("%w: invoice %d", ErrNotAllocated, invoiceID)
	}

	if amount.Sign() < 0 {
		amount = decimal.Zero
	}
	amount = decimal.Min(amount, e.invoices[invIdx].BalanceAmount)
	e.allocations[aIdx].Amount = amount
	return nil
}

// Remove deletes the allocation for the invoice. The freed amount is not
// redistributed. Removing an unallocated invoice is a no-op.
func (e *Engine) Remove(invoiceID int) {
	aIdx, ok := e.allocIdx[invoiceID]
	if !ok {
		return
	}
	e.allocations = append(e.allocations[:aIdx], e.allocations[aIdx+1:]...)
	delete(e.allocIdx, invoiceID)
	for id, i := range e.allocIdx {
		if i > aIdx {
			e.allocIdx[id] = i - 1
		}
	}
}

// AutoAllocate fills unallocated invoices oldest first with
// min(invoice balance, remaining budget) until the budget runs out. Existing
// allocations count against the budget and are never overwritten, so calling
// it after manual edits only tops up what is still empty.
func (e *Engine) AutoAllocate() {
	remaining := e.Remaining()
	for _, inv := range e.invoices {
		if remaining.Sign() <= 0 {
			return
		}
		if _, exists := e.allocIdx[inv.InvoiceID]; exists {
			continue
		}
		amount := decimal.Min(inv.BalanceAmount, remaining)
		e.allocIdx[inv.InvoiceID] = len(e.allocations)
		e.allocations = append(e.allocations, Allocation{InvoiceID: inv.InvoiceID, Amount: amount})
		remaining = remaining.Sub(amount)
	}
}

// Validate is the submit gate. Every condition must hold: positive payment
// amount, at least one allocation, no zero-amount rows, and the allocated
// total exactly equal to the payment amount. Partial allocation is rejected
// so money is never silently unaccounted for.
func (e *Engine) Validate() error {
	if e.amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	if len(e.allocations) == 0 {
		return ErrNoAllocations
	}
	for _, a := range e.allocations {
		if a.Amount.Sign() <= 0 {
			return fmt.Errorf("%w: invoice %d", ErrZeroAllocation, a.InvoiceID)
		}
	}
	if allocated := e.Allocated(); !allocated.Equal(e.amount) {
		return fmt.Errorf("%w: allocated %s of %s", ErrAllocationMismatch, allocated, e.amount)
	}
	return nil
}

// ValidateSubmission checks a ready-made allocation list against a payment
// amount and the outstanding set, applying the same rules as Engine.Validate
// plus the per-invoice balance cap. Used at the API boundary where the
// allocation list arrives already built by the client.
func ValidateSubmission(amount decimal.Decimal, allocations []Allocation, invoices []OutstandingInvoice) error {
	if amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	if len(allocations) == 0 {
		return ErrNoAllocations
	}

	balances := make(map[int]decimal.Decimal, len(invoices))
	for _, inv := range invoices {
		balances[inv.InvoiceID] = inv.BalanceAmount
	}

	seen := make(map[int]bool, len(allocations))
	total := decimal.Zero
	for _, a := range allocations {
		balance, ok := balances[a.InvoiceID]
		if !ok {
			return fmt.Errorf("%w: invoice %d", ErrUnknownInvoice, a.InvoiceID)
		}
		if seen[a.InvoiceID] {
			return fmt.Errorf("duplicate allocation for invoice %d", a.InvoiceID)
		}
		seen[a.InvoiceID] = true
		if a.Amount.Sign() <= 0 {
			return fmt.Errorf("%w: invoice %d", ErrZeroAllocation, a.InvoiceID)
		}
		if a.Amount.GreaterThan(balance) {
			return fmt.Errorf("allocation %s exceeds balance %s on invoice %d", a.Amount, balance, a.InvoiceID)
		}
		total = total.Add(a.Amount)
	}

	if !total.Equal(amount) {
		return fmt.Errorf("%w: allocated %s of %s", ErrAllocationMismatch, total, amount)
	}
	return nil
}
