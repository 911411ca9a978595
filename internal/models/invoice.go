package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is derived from paid vs total and stored for cheap filtering
type InvoiceStatus string

const (
	InvoiceStatusUnpaid        InvoiceStatus = "unpaid"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
)

// Invoice represents a persisted sales invoice.
// Invariant kept by the repositories: balance_amount == total_amount - paid_amount.
type Invoice struct {
	ID           int       `json:"id"`
	DocumentNo   string    `json:"document_no"`
	CustomerID   int       `json:"customer_id"`
	CustomerName string    `json:"customer_name,omitempty"` // Joined from customers table
	InvoiceDate  time.Time `json:"invoice_date"`
	DueDate      time.Time `json:"due_date"`
	Terms        string    `json:"terms"`
	Notes        string    `json:"notes"`

	DiscountPolicy        string          `json:"discount_policy"` // per_item or per_document
	DocumentDiscountType  string          `json:"document_discount_type,omitempty"`
	DocumentDiscountValue decimal.Decimal `json:"document_discount_value"`

	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	Status        InvoiceStatus   `json:"status"`

	CreatedByUserID int       `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Items []InvoiceItem `json:"items,omitempty"`
}

// InvoiceItem is one persisted line of an invoice
type InvoiceItem struct {
	ID             int             `json:"id"`
	InvoiceID      int             `json:"invoice_id"`
	ItemID         int             `json:"item_id"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	DiscountType   string          `json:"discount_type"` // percent or flat
	DiscountValue  decimal.Decimal `json:"discount_value"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// CreateInvoiceItemRequest is a normalized line in the create payload
type CreateInvoiceItemRequest struct {
	ItemRef       int             `json:"item_ref"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// InvoicePaymentRequest is the optional immediate payment attached on create.
// It is applied fully allocated to the new invoice in the same transaction.
type InvoicePaymentRequest struct {
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

// CreateInvoiceRequest represents the request to create an invoice. Totals are
// always recomputed server-side from the items; any client-sent figures are
// ignored.
type CreateInvoiceRequest struct {
	CustomerID            int                        `json:"customer_id"`
	InvoiceDate           time.Time                  `json:"invoice_date"`
	DueDate               time.Time                  `json:"due_date"`
	Terms                 string                     `json:"terms"`
	Notes                 string                     `json:"notes"`
	DiscountPolicy        string                     `json:"discount_policy"`
	DocumentDiscountType  string                     `json:"document_discount_type,omitempty"`
	DocumentDiscountValue decimal.Decimal            `json:"document_discount_value"`
	Items                 []CreateInvoiceItemRequest `json:"items"`
	RecordPayment         bool                       `json:"record_payment,omitempty"`
	Payment               *InvoicePaymentRequest     `json:"payment,omitempty"`
}

// OutstandingInvoice is the allocation-dialog view of an open invoice,
// listed date ascending (oldest first)
type OutstandingInvoice struct {
	ID            int             `json:"id"`
	DocumentNo    string          `json:"document_no"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	DueDate       time.Time       `json:"due_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
}
