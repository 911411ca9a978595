package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OnlineTransactionStatus represents the status of an online payment
type OnlineTransactionStatus string

const (
	OnlineTxStatusPending  OnlineTransactionStatus = "pending"
	OnlineTxStatusSuccess  OnlineTransactionStatus = "success"
	OnlineTxStatusFailed   OnlineTransactionStatus = "failed"
	OnlineTxStatusRefunded OnlineTransactionStatus = "refunded"
)

// OnlineTransaction represents a Razorpay payment transaction. On capture it
// is converted into a regular Payment auto-allocated oldest-first across the
// customer's outstanding invoices.
type OnlineTransaction struct {
	ID                int    `json:"id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string `json:"-"` // Don't expose signature in JSON

	CustomerID   int    `json:"customer_id"`
	CustomerName string `json:"customer_name,omitempty"`

	Amount decimal.Decimal `json:"amount"`

	// Payment details from Razorpay
	UTRNumber     string `json:"utr_number,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"` // upi, card, netbanking, wallet
	Bank          string `json:"bank,omitempty"`
	VPA           string `json:"vpa,omitempty"` // UPI ID
	CardLast4     string `json:"card_last4,omitempty"`

	Status        OnlineTransactionStatus `json:"status"`
	FailureReason string                  `json:"failure_reason,omitempty"`

	// Linked records, set once the capture was applied
	PaymentID     *int `json:"payment_id,omitempty"`
	LedgerEntryID *int `json:"ledger_entry_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CreateOnlinePaymentRequest initiates an online payment against a customer's
// outstanding balance
type CreateOnlinePaymentRequest struct {
	CustomerID int             `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// CreateOrderResponse is returned to the frontend for Razorpay checkout
type CreateOrderResponse struct {
	OrderID       string `json:"order_id"`
	Amount        int64  `json:"amount"` // In paise
	Currency      string `json:"currency"`
	KeyID         string `json:"key_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

// VerifyPaymentRequest is sent from the frontend after the Razorpay callback
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// RazorpayWebhookPayload represents the webhook payload from Razorpay
type RazorpayWebhookPayload struct {
	Event     string                 `json:"event"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt int64                  `json:"created_at"`
}
