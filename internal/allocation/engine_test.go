package allocation

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func outstanding(pairs ...string) []OutstandingInvoice {
	// pairs come as id, balance, id, balance ...
	if len(pairs)%2 != 0 {
		panic("outstanding wants id/balance pairs")
	}
	var invoices []OutstandingInvoice
	for i := 0; i < len(pairs); i += 2 {
		id := int(amt(pairs[i]).IntPart())
		invoices = append(invoices, OutstandingInvoice{InvoiceID: id, BalanceAmount: amt(pairs[i+1])})
	}
	return invoices
}

func allocs(e *Engine) map[int]string {
	out := make(map[int]string)
	for _, a := range e.Allocations() {
		out[a.InvoiceID] = a.Amount.String()
	}
	return out
}

func TestAutoAllocateFillsOldestFirst(t *testing.T) {
	// GIVEN a 500 payment against invoices [{1, 300}, {2, 400}] oldest first
	e := NewEngine(amt("500"), outstanding("1", "300", "2", "400"))

	// WHEN auto-allocate runs
	e.AutoAllocate()

	// THEN invoice 1 is paid off and invoice 2 takes the remainder
	want := map[int]string{1: "300", 2: "200"}
	if got := allocs(e); !reflect.DeepEqual(got, want) {
		t.Errorf("allocations = %v, want %v", got, want)
	}
	if !e.Remaining().IsZero() {
		t.Errorf("remaining = %s, want 0", e.Remaining())
	}
	if err := e.Validate(); err != nil {
		t.Errorf("fully allocated payment must validate, got %v", err)
	}
}

func TestAutoAllocateIsIdempotent(t *testing.T) {
	// GIVEN a payment auto-allocated once
	e := NewEngine(amt("500"), outstanding("1", "300", "2", "400"))
	e.AutoAllocate()
	first := allocs(e)

	// WHEN auto-allocate runs again with no edits in between
	e.AutoAllocate()

	// THEN nothing changes
	if got := allocs(e); !reflect.DeepEqual(got, first) {
		t.Errorf("second auto-allocate changed allocations: %v -> %v", first, got)
	}
}

func TestAutoAllocateAfterManualEditOnlyTopsUpEmptyInvoices(t *testing.T) {
	// GIVEN invoice 1 manually allocated 100 out of a 500 payment
	e := NewEngine(amt("500"), outstanding("1", "300", "2", "400", "3", "50"))
	if err := e.Add(1); err != nil {
		t.Fatal(err)
	}
	if err := e.Set(1, amt("100")); err != nil {
		t.Fatal(err)
	}

	// WHEN auto-allocate runs
	e.AutoAllocate()

	// THEN the manual allocation survives; the 400 left after invoice 1 all
	// goes to invoice 2 and invoice 3 gets nothing
	want := map[int]string{1: "100", 2: "400"}
	if got := allocs(e); !reflect.DeepEqual(got, want) {
		t.Errorf("allocations = %v, want %v", got, want)
	}
}

func TestAddClampsToInvoiceBalanceAndPaymentAmount(t *testing.T) {
	// GIVEN a 200 payment and an invoice with a 300 balance
	e := NewEngine(amt("200"), outstanding("1", "300", "2", "50"))

	// WHEN both invoices are added manually
	if err := e.Add(1); err != nil {
		t.Fatal(err)
	}
	if err := e.Add(2); err != nil {
		t.Fatal(err)
	}

	// THEN invoice 1 is clamped to the payment amount and invoice 2 to its balance
	want := map[int]string{1: "200", 2: "50"}
	if got := allocs(e); !reflect.DeepEqual(got, want) {
		t.Errorf("allocations = %v, want %v", got, want)
	}
}

func TestReAddingAnAllocatedInvoiceIsANoOp(t *testing.T) {
	e := NewEngine(amt("500"), outstanding("1", "300"))
	if err := e.Add(1); err != nil {
		t.Fatal(err)
	}
	if err := e.Set(1, amt("120")); err != nil {
		t.Fatal(err)
	}

	// WHEN the same invoice is added again
	if err := e.Add(1); err != nil {
		t.Fatal(err)
	}

	// THEN the manual amount is untouched
	if got := allocs(e); got[1] != "120" {
		t.Errorf("allocation = %s, want the manual 120 preserved", got[1])
	}
}

func TestSetClampsToBalanceButNotToRemainingPayment(t *testing.T) {
	e := NewEngine(amt("500"), outstanding("1", "300", "2", "400"))
	e.AutoAllocate() // 1:300, 2:200

	// WHEN invoice 2's allocation is raised past the remaining payment
	if err := e.Set(2, amt("400")); err != nil {
		t.Fatal(err)
	}

	// THEN the edit is allowed (over-allocation is a submit-time error) ...
	if got := allocs(e); got[2] != "400" {
		t.Errorf("allocation = %s, want 400 (edit not clamped against payment)", got[2])
	}
	if !e.Remaining().Equal(amt("-200")) {
		t.Errorf("remaining = %s, want -200", e.Remaining())
	}

	// ... but an amount past the invoice balance is clamped silently
	if err := e.Set(2, amt("1000")); err != nil {
		t.Fatal(err)
	}
	if got := allocs(e); got[2] != "400" {
		t.Errorf("allocation = %s, want clamp to 400 balance", got[2])
	}

	// ... and a negative edit clamps to zero
	if err := e.Set(2, amt("-5")); err != nil {
		t.Fatal(err)
	}
	if got := allocs(e); got[2] != "0" {
		t.Errorf("allocation = %s, want clamp to 0", got[2])
	}
}

func TestSubmitBlockedWhenAllocatedTotalDiffersFromPayment(t *testing.T) {
	// GIVEN 1:300 and 2 manually set to 250 against a 500 payment
	e := NewEngine(amt("500"), outstanding("1", "300", "2", "400"))
	e.AutoAllocate()
	if err := e.Set(2, amt("250")); err != nil {
		t.Fatal(err)
	}

	// WHEN the submit gate runs with 550 allocated of 500
	err := e.Validate()

	// THEN the mismatch blocks submission
	if !errors.Is(err, ErrAllocationMismatch) {
		t.Errorf("Validate() = %v, want ErrAllocationMismatch", err)
	}
}

func TestValidateRejectsEmptyAndNonPositive(t *testing.T) {
	// No allocations at all
	e := NewEngine(amt("500"), outstanding("1", "300"))
	if err := e.Validate(); !errors.Is(err, ErrNoAllocations) {
		t.Errorf("Validate() = %v, want ErrNoAllocations", err)
	}

	// Zero payment amount
	e = NewEngine(decimal.Zero, outstanding("1", "300"))
	if err := e.Validate(); !errors.Is(err, ErrNonPositiveAmount) {
		t.Errorf("Validate() = %v, want ErrNonPositiveAmount", err)
	}

	// A zeroed-out allocation row left behind by edits
	e = NewEngine(amt("300"), outstanding("1", "300", "2", "100"))
	if err := e.Add(1); err != nil {
		t.Fatal(err)
	}
	if err := e.Add(2); err != nil {
		t.Fatal(err)
	}
	if err := e.Set(1, amt("300")); err != nil {
		t.Fatal(err)
	}
	if err := e.Set(2, amt("0")); err != nil {
		t.Fatal(err)
	}
	if err := e.Validate(); !errors.Is(err, ErrZeroAllocation) {
		t.Errorf("Validate() = %v, want ErrZeroAllocation", err)
	}
}

func TestRemoveDropsAllocationWithoutRedistributing(t *testing.T) {
	e := NewEngine(amt("500"), outstanding("1", "300", "2", "400"))
	e.AutoAllocate()

	// WHEN invoice 1's allocation is removed
	e.Remove(1)

	// THEN its amount is simply freed, not moved onto invoice 2
	want := map[int]string{2: "200"}
	if got := allocs(e); !reflect.DeepEqual(got, want) {
		t.Errorf("allocations = %v, want %v", got, want)
	}
	if !e.Remaining().Equal(amt("300")) {
		t.Errorf("remaining = %s, want 300", e.Remaining())
	}

	// AND the invoice can be re-added afterwards
	if err := e.Add(1); err != nil {
		t.Fatal(err)
	}
	if got := allocs(e); got[1] != "300" {
		t.Errorf("re-added allocation = %s, want 300", got[1])
	}
}

func TestAddUnknownInvoiceFails(t *testing.T) {
	e := NewEngine(amt("500"), outstanding("1", "300"))
	if err := e.Add(99); !errors.Is(err, ErrUnknownInvoice) {
		t.Errorf("Add(99) = %v, want ErrUnknownInvoice", err)
	}
	if err := e.Set(99, amt("10")); !errors.Is(err, ErrUnknownInvoice) {
		t.Errorf("Set(99) = %v, want ErrUnknownInvoice", err)
	}
}

func TestValidateSubmissionChecksBalanceCapAndDuplicates(t *testing.T) {
	invoices := outstanding("1", "300", "2", "400")

	// A well-formed submission passes
	ok := []Allocation{{InvoiceID: 1, Amount: amt("300")}, {InvoiceID: 2, Amount: amt("200")}}
	if err := ValidateSubmission(amt("500"), ok, invoices); err != nil {
		t.Errorf("valid submission rejected: %v", err)
	}

	// Over-balance allocation is rejected at the boundary (no silent clamp here)
	over := []Allocation{{InvoiceID: 1, Amount: amt("350")}, {InvoiceID: 2, Amount: amt("150")}}
	if err := ValidateSubmission(amt("500"), over, invoices); err == nil {
		t.Error("allocation above invoice balance must be rejected")
	}

	// Two allocations for the same invoice are rejected
	dup := []Allocation{{InvoiceID: 1, Amount: amt("250")}, {InvoiceID: 1, Amount: amt("250")}}
	if err := ValidateSubmission(amt("500"), dup, invoices); err == nil {
		t.Error("duplicate invoice allocations must be rejected")
	}

	// Sum mismatch is rejected
	short := []Allocation{{InvoiceID: 1, Amount: amt("300")}}
	if err := ValidateSubmission(amt("500"), short, invoices); !errors.Is(err, ErrAllocationMismatch) {
		t.Errorf("partial allocation = %v, want ErrAllocationMismatch", err)
	}
}
