package wizard

import (
	"backoffice-backend/internal/models"
)

// BuildSubmitPayload converts the draft into the normalized create-invoice
// request. It requires a selected customer and at least one line item; a
// failed build (or a failed submission downstream) leaves the draft intact so
// the user can fix and re-submit.
func (d Draft) BuildSubmitPayload() (*models.CreateInvoiceRequest, error) {
	if d.CustomerID == 0 {
		return nil, ErrCustomerRequired
	}
	if len(d.Items) == 0 {
		return nil, ErrNoItems
	}

	req := &models.CreateInvoiceRequest{
		CustomerID:     d.CustomerID,
		InvoiceDate:    d.InvoiceDate,
		DueDate:        d.DueDate,
		Terms:          d.Terms,
		Notes:          d.Notes,
		DiscountPolicy: string(d.DiscountPolicy),
		Items:          make([]models.CreateInvoiceItemRequest, 0, len(d.Items)),
	}
	if d.DiscountPolicy == PolicyPerDocument {
		req.DocumentDiscountType = string(d.DocumentDiscount.Type)
		req.DocumentDiscountValue = d.DocumentDiscount.Value
	}

	for _, item := range d.Items {
		req.Items = append(req.Items, models.CreateInvoiceItemRequest{
			ItemRef:       item.ItemRef,
			Description:   item.Description,
			Quantity:      item.Quantity,
			UnitPrice:     item.Rate,
			TaxRate:       item.TaxRatePercent,
			DiscountType:  string(item.Discount.Type),
			DiscountValue: item.Discount.Value,
		})
	}

	if d.Payment.Record {
		req.RecordPayment = true
		req.Payment = &models.InvoicePaymentRequest{
			Date:      d.Payment.Date,
			Amount:    d.Payment.Amount,
			Method:    d.Payment.Method,
			Reference: d.Payment.Reference,
			Notes:     d.Payment.Notes,
		}
	}
	return req, nil
}
