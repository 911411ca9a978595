package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment represents a received customer payment
type Payment struct {
	ID              int                 `json:"id"`
	ReceiptNumber   string              `json:"receipt_number"`
	CustomerID      int                 `json:"customer_id"`
	CustomerName    string              `json:"customer_name,omitempty"` // Joined from customers table
	Date            time.Time           `json:"date"`
	Amount          decimal.Decimal     `json:"amount"`
	Method          string              `json:"method"` // cash, bank_transfer, cheque, online
	Reference       string              `json:"reference"`
	Notes           string              `json:"notes"`
	CreatedByUserID int                 `json:"created_by_user_id"`
	CreatedAt       time.Time           `json:"created_at"`
	Allocations     []PaymentAllocation `json:"allocations,omitempty"`
}

// PaymentAllocation links part of a payment to one invoice.
// At most one allocation per invoice per payment.
type PaymentAllocation struct {
	ID        int             `json:"id"`
	PaymentID int             `json:"payment_id"`
	InvoiceID int             `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// AllocationRequest is one {invoice_id, amount} pair in a payment submission
type AllocationRequest struct {
	InvoiceID int             `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// RecordPaymentRequest represents the payment submission. The allocations must
// sum exactly to the amount; partial allocation is rejected at the boundary.
type RecordPaymentRequest struct {
	CustomerID  int                 `json:"customer_id"`
	Date        time.Time           `json:"date"`
	Amount      decimal.Decimal     `json:"amount"`
	Method      string              `json:"method"`
	Reference   string              `json:"reference"`
	Notes       string              `json:"notes"`
	Allocations []AllocationRequest `json:"allocations"`
}
