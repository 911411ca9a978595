package wizard

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"backoffice-backend/internal/pricing"
)

var (
	ErrCustomerRequired  = errors.New("a customer must be selected before continuing")
	ErrUnknownItem       = errors.New("no such line item in the draft")
	ErrInvalidTransition = errors.New("transition not allowed from the current step")
	ErrNoItems           = errors.New("an invoice needs at least one line item")
)

// Action is a single draft mutation or step transition.
type Action interface {
	isAction()
}

type SelectCustomer struct {
	CustomerID int
}

type SetDates struct {
	InvoiceDate time.Time
	DueDate     time.Time
}

type SetTermsAndNotes struct {
	Terms string
	Notes string
}

type SetDiscountPolicy struct {
	Kind             PolicyKind
	DocumentDiscount pricing.Discount
}

// NextStep advances 1→2, 2→4 and 4→5. Step 3 is only entered through
// BeginAddItem/BeginEditItem and only left through SaveItem/CancelItem.
type NextStep struct{}

// GoToStep jumps to a step directly (back navigation uses this). Moving
// backward never clears draft fields.
type GoToStep struct {
	Step Step
}

type BeginAddItem struct{}

type BeginEditItem struct {
	ItemID string
}

type SaveItem struct {
	Item pricing.LineItem
}

type CancelItem struct{}

type RemoveItem struct {
	ItemID string
}

type SetPayment struct {
	Record    bool
	Date      time.Time
	Amount    decimal.Decimal
	Method    string
	Reference string
	Notes     string
}

func (SelectCustomer) isAction()    {}
func (SetDates) isAction()          {}
func (SetTermsAndNotes) isAction()  {}
func (SetDiscountPolicy) isAction() {}
func (NextStep) isAction()          {}
func (GoToStep) isAction()          {}
func (BeginAddItem) isAction()      {}
func (BeginEditItem) isAction()     {}
func (SaveItem) isAction()          {}
func (CancelItem) isAction()        {}
func (RemoveItem) isAction()        {}
func (SetPayment) isAction()        {}

// Reduce applies one action to a draft and returns the new draft. Pure: the
// input draft is never mutated, and a returned error leaves it unchanged.
func Reduce(d Draft, action Action) (Draft, error) {
	switch a := action.(type) {
	case SelectCustomer:
		d.CustomerID = a.CustomerID
		return d, nil

	case SetDates:
		d.InvoiceDate = a.InvoiceDate
		d.DueDate = a.DueDate
		return d, nil

	case SetTermsAndNotes:
		d.Terms = a.Terms
		d.Notes = a.Notes
		return d, nil

	case SetDiscountPolicy:
		d.DiscountPolicy = a.Kind
		d.DocumentDiscount = a.DocumentDiscount
		return d, nil

	case NextStep:
		return advance(d)

	case GoToStep:
		return goTo(d, a.Step)

	case BeginAddItem:
		if d.Step != StepItems {
			return d, fmt.Errorf("%w: add item from step %d", ErrInvalidTransition, d.Step)
		}
		d.Step = StepAddOrEditItem
		d.EditingItemID = ""
		return d, nil

	case BeginEditItem:
		if d.Step != StepItems {
			return d, fmt.Errorf("%w: edit item from step %d", ErrInvalidTransition, d.Step)
		}
		if d.itemIndex(a.ItemID) < 0 {
			return d, fmt.Errorf("%w: %s", ErrUnknownItem, a.ItemID)
		}
		d.Step = StepAddOrEditItem
		d.EditingItemID = a.ItemID
		return d, nil

	case SaveItem:
		if d.Step != StepAddOrEditItem {
			return d, fmt.Errorf("%w: save item from step %d", ErrInvalidTransition, d.Step)
		}
		items := d.cloneItems()
		if d.EditingItemID != "" {
			idx := d.itemIndex(d.EditingItemID)
			if idx < 0 {
				return d, fmt.Errorf("%w: %s", ErrUnknownItem, d.EditingItemID)
			}
			a.Item.ID = d.EditingItemID
			items[idx] = a.Item
		} else {
			if a.Item.ID == "" {
				a.Item.ID = uuid.NewString()
			}
			items = append(items, a.Item)
		}
		d.Items = items
		d.EditingItemID = ""
		d.Step = StepItems
		return d, nil

	case CancelItem:
		if d.Step != StepAddOrEditItem {
			return d, fmt.Errorf("%w: cancel item from step %d", ErrInvalidTransition, d.Step)
		}
		d.EditingItemID = ""
		d.Step = StepItems
		return d, nil

	case RemoveItem:
		idx := d.itemIndex(a.ItemID)
		if idx < 0 {
			return d, fmt.Errorf("%w: %s", ErrUnknownItem, a.ItemID)
		}
		items := d.cloneItems()
		d.Items = append(items[:idx], items[idx+1:]...)
		return d, nil

	case SetPayment:
		d.Payment = PaymentDetails{
			Record:    a.Record,
			Date:      a.Date,
			Amount:    a.Amount,
			Method:    a.Method,
			Reference: a.Reference,
			Notes:     a.Notes,
		}
		return d, nil

	default:
		return d, fmt.Errorf("unknown wizard action %T", action)
	}
}

func advance(d Draft) (Draft, error) {
	switch d.Step {
	case StepCustomerAndDates:
		return goTo(d, StepItems)
	case StepItems:
		return goTo(d, StepPayment)
	case StepPayment:
		return goTo(d, StepReview)
	default:
		// Step 3 leaves only via SaveItem/CancelItem; step 5 only via submit.
		return d, fmt.Errorf("%w: next from step %d", ErrInvalidTransition, d.Step)
	}
}

func goTo(d Draft, target Step) (Draft, error) {
	if target < StepCustomerAndDates || target > StepReview {
		return d, fmt.Errorf("%w: no step %d", ErrInvalidTransition, target)
	}
	if target == StepAddOrEditItem {
		return d, fmt.Errorf("%w: step 3 is entered by adding or editing an item", ErrInvalidTransition)
	}
	if target == d.Step {
		return d, nil
	}
	if d.Step == StepAddOrEditItem {
		return d, fmt.Errorf("%w: step 3 is left by saving or cancelling the item", ErrInvalidTransition)
	}

	// Leaving step 1 forward requires a selected customer; no defaults.
	if d.Step == StepCustomerAndDates && target > StepCustomerAndDates && d.CustomerID == 0 {
		return d, ErrCustomerRequired
	}

	d.Step = target

	// First entry to the payment step seeds the amount from the current grand
	// total, exactly once. Later grand-total changes never overwrite it: the
	// seeded figure records what the user intended to collect.
	if target == StepPayment && !d.PaymentSeeded {
		d.Payment.Amount = d.Totals().GrandTotal
		d.PaymentSeeded = true
	}
	return d, nil
}
