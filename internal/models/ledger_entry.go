package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryType represents the type of ledger entry
type LedgerEntryType string

const (
	LedgerEntryTypeInvoice       LedgerEntryType = "INVOICE"        // Invoice issued (debit)
	LedgerEntryTypePayment       LedgerEntryType = "PAYMENT"        // Customer payment received (credit)
	LedgerEntryTypeOnlinePayment LedgerEntryType = "ONLINE_PAYMENT" // Online payment via Razorpay (includes UTR)
	LedgerEntryTypeAdjustment    LedgerEntryType = "ADJUSTMENT"     // Manual correction, either side
)

// LedgerEntry represents a single row in a customer's account ledger.
// Exactly one of Debit/Credit is nonzero on a well-formed entry.
type LedgerEntry struct {
	ID              int             `json:"id"`
	CustomerID      int             `json:"customer_id"`
	CustomerName    string          `json:"customer_name,omitempty"`
	EntryType       LedgerEntryType `json:"entry_type"`
	Description     string          `json:"description"`
	EntryDate       time.Time       `json:"entry_date"`
	Debit           decimal.Decimal `json:"debit"`           // Money owed (increases balance)
	Credit          decimal.Decimal `json:"credit"`          // Money paid (decreases balance)
	RunningBalance  decimal.Decimal `json:"running_balance"` // Balance after this entry
	ReferenceID     *int            `json:"reference_id"`    // Links to invoice_id or payment_id
	ReferenceType   string          `json:"reference_type"`  // 'invoice', 'payment', 'online_transaction'
	CreatedByUserID int             `json:"created_by_user_id"`
	CreatedByName   string          `json:"created_by_name,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Notes           string          `json:"notes"`
}

// CreateLedgerEntryRequest is used when appending a ledger entry
type CreateLedgerEntryRequest struct {
	CustomerID      int             `json:"customer_id"`
	EntryType       LedgerEntryType `json:"entry_type"`
	Description     string          `json:"description"`
	EntryDate       time.Time       `json:"entry_date"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	ReferenceID     *int            `json:"reference_id"`
	ReferenceType   string          `json:"reference_type"`
	CreatedByUserID int             `json:"created_by_user_id"`
	Notes           string          `json:"notes"`
}

// LedgerSummary provides totals for a customer account
type LedgerSummary struct {
	CustomerID     int             `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	CurrentBalance decimal.Decimal `json:"current_balance"` // Debit - Credit
	EntryCount     int             `json:"entry_count"`
}
