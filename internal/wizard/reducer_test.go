package wizard

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"backoffice-backend/internal/pricing"
)

var t0 = time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// standardItem is qty=2, rate=100, flat discount 10, tax 10% -> line total 209
func standardItem() pricing.LineItem {
	return pricing.LineItem{
		ItemRef:        7,
		Description:    "Widget",
		Quantity:       dec("2"),
		Rate:           dec("100"),
		TaxRatePercent: dec("10"),
		Discount:       pricing.Discount{Type: pricing.DiscountTypeFlat, Value: dec("10")},
	}
}

func mustReduce(t *testing.T, d Draft, actions ...Action) Draft {
	t.Helper()
	var err error
	for _, a := range actions {
		d, err = Reduce(d, a)
		if err != nil {
			t.Fatalf("Reduce(%T) failed: %v", a, err)
		}
	}
	return d
}

// draftAtItems returns a draft with a customer selected, sitting on step 2.
func draftAtItems(t *testing.T) Draft {
	t.Helper()
	return mustReduce(t, NewDraft(t0), SelectCustomer{CustomerID: 42}, NextStep{})
}

func TestLeavingStepOneRequiresACustomer(t *testing.T) {
	// GIVEN a fresh draft with no customer selected
	d := NewDraft(t0)

	// WHEN the user tries to continue
	_, err := Reduce(d, NextStep{})

	// THEN the transition is blocked; no default customer is assumed
	if !errors.Is(err, ErrCustomerRequired) {
		t.Fatalf("NextStep without customer = %v, want ErrCustomerRequired", err)
	}

	// AND selecting a customer unblocks it
	d = mustReduce(t, d, SelectCustomer{CustomerID: 42}, NextStep{})
	if d.Step != StepItems {
		t.Errorf("step = %d, want %d", d.Step, StepItems)
	}
}

func TestItemEditorAlwaysReturnsToItemsStep(t *testing.T) {
	d := draftAtItems(t)

	// Add flow: step 3 then back to 2 on save
	d = mustReduce(t, d, BeginAddItem{})
	if d.Step != StepAddOrEditItem {
		t.Fatalf("step = %d, want %d", d.Step, StepAddOrEditItem)
	}
	d = mustReduce(t, d, SaveItem{Item: standardItem()})
	if d.Step != StepItems || len(d.Items) != 1 {
		t.Fatalf("after save: step=%d items=%d, want step=2 items=1", d.Step, len(d.Items))
	}

	// Edit flow: step 3 then back to 2 on cancel, item untouched
	d = mustReduce(t, d, BeginEditItem{ItemID: d.Items[0].ID}, CancelItem{})
	if d.Step != StepItems || len(d.Items) != 1 {
		t.Fatalf("after cancel: step=%d items=%d, want step=2 items=1", d.Step, len(d.Items))
	}

	// Step 3 cannot be jumped into or out of directly
	if _, err := Reduce(d, GoToStep{Step: StepAddOrEditItem}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("GoToStep(3) = %v, want ErrInvalidTransition", err)
	}
	d = mustReduce(t, d, BeginAddItem{})
	if _, err := Reduce(d, GoToStep{Step: StepItems}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("GoToStep out of step 3 = %v, want ErrInvalidTransition", err)
	}
}

func TestEditingAnItemReplacesItInPlace(t *testing.T) {
	d := mustReduce(t, draftAtItems(t), BeginAddItem{}, SaveItem{Item: standardItem()})
	id := d.Items[0].ID

	edited := standardItem()
	edited.Quantity = dec("5")
	d = mustReduce(t, d, BeginEditItem{ItemID: id}, SaveItem{Item: edited})

	if len(d.Items) != 1 {
		t.Fatalf("items = %d, want the edit to replace, not append", len(d.Items))
	}
	if d.Items[0].ID != id {
		t.Errorf("item ID changed on edit: %s -> %s", id, d.Items[0].ID)
	}
	if !d.Items[0].Quantity.Equal(dec("5")) {
		t.Errorf("quantity = %s, want 5", d.Items[0].Quantity)
	}
}

func TestPaymentAmountSeedsOnceFromGrandTotal(t *testing.T) {
	// GIVEN a draft with one 209 line, arriving at the payment step
	d := mustReduce(t, draftAtItems(t), BeginAddItem{}, SaveItem{Item: standardItem()}, NextStep{})
	if d.Step != StepPayment {
		t.Fatalf("step = %d, want %d", d.Step, StepPayment)
	}

	// THEN the payment amount is seeded from the grand total
	if !d.Payment.Amount.Equal(dec("209")) {
		t.Fatalf("seeded amount = %s, want 209", d.Payment.Amount)
	}

	// WHEN the user goes back and edits the item so the grand total becomes 250
	bigger := standardItem()
	bigger.ID = d.Items[0].ID
	bigger.Rate = dec("118.18")
	d = mustReduce(t, d, GoToStep{Step: StepItems})
	d = mustReduce(t, d, BeginEditItem{ItemID: d.Items[0].ID}, SaveItem{Item: bigger})
	if d.Totals().GrandTotal.Equal(dec("209")) {
		t.Fatal("test item edit should have changed the grand total")
	}

	// AND returns to the payment step
	d = mustReduce(t, d, GoToStep{Step: StepPayment})

	// THEN the seeded amount is NOT re-synced; it records collected intent
	if !d.Payment.Amount.Equal(dec("209")) {
		t.Errorf("amount after revisit = %s, want the original 209", d.Payment.Amount)
	}

	// Only an explicit edit changes it
	d = mustReduce(t, d, SetPayment{Record: true, Date: t0, Amount: dec("250"), Method: "cash"})
	if !d.Payment.Amount.Equal(dec("250")) {
		t.Errorf("amount after manual edit = %s, want 250", d.Payment.Amount)
	}
}

func TestBackNavigationIsNonDestructive(t *testing.T) {
	// GIVEN a fully filled draft on review
	d := mustReduce(t, draftAtItems(t),
		BeginAddItem{}, SaveItem{Item: standardItem()},
		NextStep{},
		SetPayment{Record: true, Date: t0, Amount: dec("209"), Method: "cash"},
		NextStep{},
	)
	if d.Step != StepReview {
		t.Fatalf("step = %d, want %d", d.Step, StepReview)
	}

	// WHEN the user walks all the way back to step 1
	d = mustReduce(t, d, GoToStep{Step: StepCustomerAndDates})

	// THEN nothing was cleared
	if d.CustomerID != 42 || len(d.Items) != 1 || !d.Payment.Record {
		t.Errorf("back navigation cleared draft state: customer=%d items=%d payment=%v",
			d.CustomerID, len(d.Items), d.Payment.Record)
	}
}

func TestDiscardConfirmationPredicate(t *testing.T) {
	// A fresh untouched draft closes silently
	d := NewDraft(t0)
	if d.NeedsDiscardConfirmation() {
		t.Error("fresh draft on step 1 must not require confirmation")
	}

	// Past step 1 requires confirmation even with no items
	past := mustReduce(t, d, SelectCustomer{CustomerID: 42}, NextStep{})
	if !past.NeedsDiscardConfirmation() {
		t.Error("draft past step 1 must require confirmation")
	}

	// Items on board require confirmation regardless of step
	withItems := mustReduce(t, past, BeginAddItem{}, SaveItem{Item: standardItem()})
	withItems.Step = StepCustomerAndDates
	if !withItems.NeedsDiscardConfirmation() {
		t.Error("draft with items must require confirmation")
	}
}

func TestSubmitPayloadRequiresCustomerAndItems(t *testing.T) {
	// Missing items
	d := draftAtItems(t)
	if _, err := d.BuildSubmitPayload(); !errors.Is(err, ErrNoItems) {
		t.Errorf("BuildSubmitPayload without items = %v, want ErrNoItems", err)
	}

	// Missing customer
	empty := NewDraft(t0)
	if _, err := empty.BuildSubmitPayload(); !errors.Is(err, ErrCustomerRequired) {
		t.Errorf("BuildSubmitPayload without customer = %v, want ErrCustomerRequired", err)
	}
}

func TestSubmitPayloadNormalizesItemsAndPayment(t *testing.T) {
	d := mustReduce(t, draftAtItems(t),
		SetDiscountPolicy{Kind: PolicyPerDocument, DocumentDiscount: pricing.Discount{Type: pricing.DiscountTypePercent, Value: dec("5")}},
		BeginAddItem{}, SaveItem{Item: standardItem()},
		NextStep{},
		SetPayment{Record: true, Date: t0, Amount: dec("210"), Method: "cash", Reference: "RCP-1"},
	)

	payload, err := d.BuildSubmitPayload()
	if err != nil {
		t.Fatal(err)
	}

	if payload.CustomerID != 42 {
		t.Errorf("customer = %d, want 42", payload.CustomerID)
	}
	if payload.DiscountPolicy != string(PolicyPerDocument) || payload.DocumentDiscountType != "percent" {
		t.Errorf("policy = %s/%s, want per_document/percent", payload.DiscountPolicy, payload.DocumentDiscountType)
	}
	if len(payload.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(payload.Items))
	}
	line := payload.Items[0]
	if line.ItemRef != 7 || !line.Quantity.Equal(dec("2")) || !line.UnitPrice.Equal(dec("100")) {
		t.Errorf("normalized line = %+v", line)
	}
	if !payload.RecordPayment || payload.Payment == nil {
		t.Fatal("payment must be attached when record is set")
	}
	if !payload.Payment.Amount.Equal(dec("210")) || payload.Payment.Reference != "RCP-1" {
		t.Errorf("payment = %+v", payload.Payment)
	}
}

func TestStoreApplyKeepsDraftOnReducerError(t *testing.T) {
	s := NewStore(func() time.Time { return t0 })
	d := s.Create()

	// WHEN an invalid action is applied
	if _, err := s.Apply(d.ID, NextStep{}); !errors.Is(err, ErrCustomerRequired) {
		t.Fatalf("Apply = %v, want ErrCustomerRequired", err)
	}

	// THEN the stored draft is unchanged and still usable
	got, err := s.Get(d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Step != StepCustomerAndDates {
		t.Errorf("step = %d, want unchanged step 1", got.Step)
	}

	// AND discard removes it for good
	if err := s.Discard(d.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(d.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("Get after discard = %v, want ErrDraftNotFound", err)
	}
}
