package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
	CreditLimit decimal.Decimal `json:"credit_limit"` // 0 = no limit configured
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateCustomerRequest represents the request body for creating a customer
type CreateCustomerRequest struct {
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// UpdateCustomerRequest represents the request body for updating a customer
type UpdateCustomerRequest struct {
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// CustomerBalanceResponse is the header-balance payload. DerivedBalance is
// recomputed from the ledger feed and cross-checked against the stored value.
type CustomerBalanceResponse struct {
	CustomerID         int              `json:"customer_id"`
	CurrentBalance     decimal.Decimal  `json:"current_balance"`
	DerivedBalance     decimal.Decimal  `json:"derived_balance"`
	Consistent         bool             `json:"consistent"`
	CreditLimit        decimal.Decimal  `json:"credit_limit"`
	UtilizationPercent *decimal.Decimal `json:"utilization_percent"`
	UtilizationLevel   string           `json:"utilization_level"`
}
