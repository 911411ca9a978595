package pricing

import "github.com/shopspring/decimal"

// DiscountType selects how a discount value is interpreted
type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent" // value is a percentage of the base
	DiscountTypeFlat    DiscountType = "flat"    // value is a fixed amount
)

// Discount is a single discount figure (percent or flat)
type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// LineItem is one line of a draft invoice. It exists only inside a draft;
// persisted invoice items are a separate model.
type LineItem struct {
	ID             string          `json:"id"`
	ItemRef        int             `json:"item_ref"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	Rate           decimal.Decimal `json:"rate"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	Discount       Discount        `json:"discount"`
}

// Policy determines which discount fields are authoritative on a document.
// Exactly one policy is active per document; the inactive side's fields are
// ignored, never combined.
type Policy interface {
	isPolicy()
}

// PerItem applies each line's own discount; there is no document-level discount.
type PerItem struct{}

// PerDocument applies one document-level discount; per-line discounts are ignored.
type PerDocument struct {
	Discount Discount
}

func (PerItem) isPolicy()     {}
func (PerDocument) isPolicy() {}

// DocumentTotals holds the derived figures for a document. Never stored;
// recomputed from the line items and policy on every mutation.
type DocumentTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

var hundred = decimal.NewFromInt(100)

// ItemDiscountAmount returns the discount carried by the line itself.
// Only meaningful under the PerItem policy.
func ItemDiscountAmount(item LineItem) decimal.Decimal {
	if item.Discount.Type == DiscountTypeFlat {
		return item.Discount.Value
	}
	return item.Quantity.Mul(item.Rate).Mul(item.Discount.Value).Div(hundred)
}

// ItemTotal returns the line total including tax, rounded to 2 decimal places.
// Under PerItem the line's own discount reduces the tax base; under PerDocument
// the line is taxed on its full amount and the document discount is applied at
// the document level only.
func ItemTotal(item LineItem, policy Policy) decimal.Decimal {
	base := item.Quantity.Mul(item.Rate)
	if _, ok := policy.(PerItem); ok {
		base = base.Sub(ItemDiscountAmount(item))
	}
	total := base.Add(base.Mul(item.TaxRatePercent).Div(hundred))
	return total.Round(2)
}

// ComputeTotals derives the document figures from the line items and policy.
//
// Tax is always computed per item on the after-item-discount base; a document
// discount never reduces the tax base. Subtotal, DiscountTotal and TaxTotal are
// each rounded to 2 decimal places and GrandTotal is derived from the rounded
// components, so GrandTotal == Subtotal - DiscountTotal + TaxTotal holds exactly.
//
// Zero quantity or rate yields a zero-amount line and is not an error; negative
// values are not rejected here, callers clamp first if they disallow them.
func ComputeTotals(items []LineItem, policy Policy) DocumentTotals {
	subtotal := decimal.Zero
	discountTotal := decimal.Zero
	taxTotal := decimal.Zero

	perItem := false
	if _, ok := policy.(PerItem); ok {
		perItem = true
	}

	for _, item := range items {
		lineAmount := item.Quantity.Mul(item.Rate)
		subtotal = subtotal.Add(lineAmount)

		taxBase := lineAmount
		if perItem {
			itemDiscount := ItemDiscountAmount(item)
			discountTotal = discountTotal.Add(itemDiscount)
			taxBase = taxBase.Sub(itemDiscount)
		}
		taxTotal = taxTotal.Add(taxBase.Mul(item.TaxRatePercent).Div(hundred))
	}

	if doc, ok := policy.(PerDocument); ok {
		if doc.Discount.Type == DiscountTypeFlat {
			discountTotal = doc.Discount.Value
		} else {
			discountTotal = subtotal.Mul(doc.Discount.Value).Div(hundred)
		}
	}

	subtotal = subtotal.Round(2)
	discountTotal = discountTotal.Round(2)
	taxTotal = taxTotal.Round(2)

	return DocumentTotals{
		Subtotal:      subtotal,
		DiscountTotal: discountTotal,
		TaxTotal:      taxTotal,
		GrandTotal:    subtotal.Sub(discountTotal).Add(taxTotal),
	}
}
