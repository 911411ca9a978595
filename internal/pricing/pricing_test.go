package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func line(qty, rate, tax string, discType DiscountType, discValue string) LineItem {
	return LineItem{
		Quantity:       dec(qty),
		Rate:           dec(rate),
		TaxRatePercent: dec(tax),
		Discount:       Discount{Type: discType, Value: dec(discValue)},
	}
}

func TestPerItemFlatDiscountTaxesAfterDiscountBase(t *testing.T) {
	// GIVEN one line: qty=2, rate=100, flat discount 10, tax 10%
	item := line("2", "100", "10", DiscountTypeFlat, "10")

	// WHEN totals are computed under the per-item policy
	totals := ComputeTotals([]LineItem{item}, PerItem{})

	// THEN subtotal=200, discount=10, tax on 190 = 19, grand total 209
	if !totals.Subtotal.Equal(dec("200")) {
		t.Errorf("subtotal = %s, want 200", totals.Subtotal)
	}
	if !totals.DiscountTotal.Equal(dec("10")) {
		t.Errorf("discount total = %s, want 10", totals.DiscountTotal)
	}
	if !totals.TaxTotal.Equal(dec("19")) {
		t.Errorf("tax total = %s, want 19", totals.TaxTotal)
	}
	if !totals.GrandTotal.Equal(dec("209")) {
		t.Errorf("grand total = %s, want 209", totals.GrandTotal)
	}
	if !ItemTotal(item, PerItem{}).Equal(dec("209")) {
		t.Errorf("item total = %s, want 209", ItemTotal(item, PerItem{}))
	}
}

func TestPerDocumentDiscountNeverReducesTaxBase(t *testing.T) {
	// GIVEN the same line but a 5% document-level discount
	item := line("2", "100", "10", DiscountTypeFlat, "10")
	policy := PerDocument{Discount: Discount{Type: DiscountTypePercent, Value: dec("5")}}

	// WHEN totals are computed
	totals := ComputeTotals([]LineItem{item}, policy)

	// THEN the line discount is ignored, tax is on the full 200,
	// and the document discount comes off after tax was figured
	if !totals.Subtotal.Equal(dec("200")) {
		t.Errorf("subtotal = %s, want 200", totals.Subtotal)
	}
	if !totals.TaxTotal.Equal(dec("20")) {
		t.Errorf("tax total = %s, want 20 (full base)", totals.TaxTotal)
	}
	if !totals.DiscountTotal.Equal(dec("10")) {
		t.Errorf("discount total = %s, want 10 (5%% of 200)", totals.DiscountTotal)
	}
	if !totals.GrandTotal.Equal(dec("210")) {
		t.Errorf("grand total = %s, want 210", totals.GrandTotal)
	}
}

func TestItemTotalIndependentOfOtherLines(t *testing.T) {
	// GIVEN a line computed alone and the same line inside a larger document
	item := line("3", "50", "18", DiscountTypePercent, "10")
	other := line("7", "99.99", "12", DiscountTypeFlat, "5")

	alone := ItemTotal(item, PerItem{})
	_ = ComputeTotals([]LineItem{other, item}, PerItem{})
	together := ItemTotal(item, PerItem{})

	// THEN the per-line figure does not depend on the document it sits in
	if !alone.Equal(together) {
		t.Errorf("item total changed with document context: %s vs %s", alone, together)
	}

	// AND it matches (qty*rate - discount) * (1 + tax/100)
	base := dec("150").Sub(dec("15"))
	want := base.Add(base.Mul(dec("18")).Div(dec("100"))).Round(2)
	if !alone.Equal(want) {
		t.Errorf("item total = %s, want %s", alone, want)
	}
}

func TestGrandTotalReconcilesExactlyAfterRounding(t *testing.T) {
	// GIVEN lines whose intermediate figures do not land on 2 decimal places
	items := []LineItem{
		line("3", "33.33", "7.5", DiscountTypePercent, "3.33"),
		line("1.5", "19.99", "18", DiscountTypeFlat, "0.01"),
		line("7", "0.07", "5", DiscountTypePercent, "50"),
	}

	for _, policy := range []Policy{
		PerItem{},
		PerDocument{Discount: Discount{Type: DiscountTypePercent, Value: dec("2.5")}},
	} {
		totals := ComputeTotals(items, policy)

		// THEN grandTotal == subtotal - discountTotal + taxTotal holds exactly
		want := totals.Subtotal.Sub(totals.DiscountTotal).Add(totals.TaxTotal)
		if !totals.GrandTotal.Equal(want) {
			t.Errorf("grand total %s does not reconcile with components (want %s)", totals.GrandTotal, want)
		}
	}
}

func TestZeroQuantityLineYieldsZeroAmountButIsKept(t *testing.T) {
	// GIVEN a zero-quantity line alongside a normal one
	items := []LineItem{
		line("0", "100", "10", DiscountTypePercent, "5"),
		line("1", "100", "10", DiscountTypePercent, "0"),
	}

	totals := ComputeTotals(items, PerItem{})

	// THEN the zero line contributes nothing but does not break the document
	if !totals.Subtotal.Equal(dec("100")) {
		t.Errorf("subtotal = %s, want 100", totals.Subtotal)
	}
	if !totals.GrandTotal.Equal(dec("110")) {
		t.Errorf("grand total = %s, want 110", totals.GrandTotal)
	}
	if !ItemTotal(items[0], PerItem{}).Equal(decimal.Zero.Round(2)) {
		t.Errorf("zero line item total = %s, want 0", ItemTotal(items[0], PerItem{}))
	}
}

func TestEmptyDocumentHasAllZeroTotals(t *testing.T) {
	totals := ComputeTotals(nil, PerItem{})
	for name, got := range map[string]decimal.Decimal{
		"subtotal":       totals.Subtotal,
		"discount total": totals.DiscountTotal,
		"tax total":      totals.TaxTotal,
		"grand total":    totals.GrandTotal,
	} {
		if !got.IsZero() {
			t.Errorf("%s = %s, want 0 for empty document", name, got)
		}
	}
}

func TestPerDocumentFlatDiscountIsTakenVerbatim(t *testing.T) {
	items := []LineItem{line("4", "25", "0", DiscountTypePercent, "0")}
	policy := PerDocument{Discount: Discount{Type: DiscountTypeFlat, Value: dec("12.50")}}

	totals := ComputeTotals(items, policy)

	if !totals.DiscountTotal.Equal(dec("12.50")) {
		t.Errorf("discount total = %s, want 12.50", totals.DiscountTotal)
	}
	if !totals.GrandTotal.Equal(dec("87.50")) {
		t.Errorf("grand total = %s, want 87.50", totals.GrandTotal)
	}
}
