// Package ledger derives running balances and credit-utilization state from a
// customer's debit/credit entry sequence. Everything here is pure; the stored
// running_balance column is written by the repository and cross-checked against
// these derivations at the service boundary.
package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is the minimal debit/credit view of a ledger row.
// Exactly one of Debit/Credit is nonzero on a well-formed entry.
type Entry struct {
	ID     int             `json:"id"`
	Date   time.Time       `json:"date"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// StatementLine is an entry paired with the balance after it.
type StatementLine struct {
	Entry
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// Utilization classification thresholds, in percent. Policy constants used
// uniformly for alerting, not computed from anything.
const (
	CriticalUtilizationPercent = 90
	WarningUtilizationPercent  = 75
)

// UtilizationLevel classifies how much of the credit limit is in use.
type UtilizationLevel string

const (
	UtilizationNormal        UtilizationLevel = "normal"
	UtilizationWarning       UtilizationLevel = "warning"
	UtilizationCritical      UtilizationLevel = "critical"
	UtilizationNotApplicable UtilizationLevel = "n/a" // no positive credit limit
)

// AccountState is the derived credit position of a customer account.
type AccountState struct {
	CurrentBalance     decimal.Decimal  `json:"current_balance"`
	CreditLimit        decimal.Decimal  `json:"credit_limit"`
	UtilizationPercent *decimal.Decimal `json:"utilization_percent"` // nil when credit limit <= 0
	Level              UtilizationLevel `json:"level"`
}

// sortedByDate returns a copy of entries in date-ascending order. The sort is
// stable so same-day entries keep their feed order. Input is never assumed to
// be ordered; a mis-ordered feed would otherwise silently corrupt every
// running balance after the misplaced entry.
func sortedByDate(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// RunningBalances returns the entries in date-ascending order, each paired
// with the balance after applying it: runningBalance[k] = Σ_{j<=k} (debit-credit).
func RunningBalances(entries []Entry) []StatementLine {
	return RunningBalancesFrom(entries, decimal.Zero)
}

// RunningBalancesFrom derives running balances starting from an opening
// balance. Used when entries are only one page of a statement: the opening
// balance is the sum of every entry before the page, so each line's balance
// matches what a derivation over the full history would give.
func RunningBalancesFrom(entries []Entry, opening decimal.Decimal) []StatementLine {
	ordered := sortedByDate(entries)
	lines := make([]StatementLine, 0, len(ordered))

	balance := opening
	for _, e := range ordered {
		balance = balance.Add(e.Debit).Sub(e.Credit)
		lines = append(lines, StatementLine{Entry: e, RunningBalance: balance})
	}
	return lines
}

// CurrentBalance is total debit minus total credit over the whole set. Order
// independent; equals the last running balance when the set is exhaustive.
func CurrentBalance(entries []Entry) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range entries {
		balance = balance.Add(e.Debit).Sub(e.Credit)
	}
	return balance
}

// DeriveAccountState computes the customer's balance and credit utilization.
// A credit limit of zero (or below) means utilization is not applicable,
// never a division fault.
func DeriveAccountState(entries []Entry, creditLimit decimal.Decimal) AccountState {
	state := AccountState{
		CurrentBalance: CurrentBalance(entries),
		CreditLimit:    creditLimit,
		Level:          UtilizationNotApplicable,
	}

	if creditLimit.Sign() <= 0 {
		return state
	}

	utilization := state.CurrentBalance.Div(creditLimit).Mul(decimal.NewFromInt(100))
	state.UtilizationPercent = &utilization
	state.Level = ClassifyUtilization(utilization)
	return state
}

// ClassifyUtilization maps a utilization percentage onto the alert level.
func ClassifyUtilization(percent decimal.Decimal) UtilizationLevel {
	switch {
	case percent.GreaterThanOrEqual(decimal.NewFromInt(CriticalUtilizationPercent)):
		return UtilizationCritical
	case percent.GreaterThanOrEqual(decimal.NewFromInt(WarningUtilizationPercent)):
		return UtilizationWarning
	default:
		return UtilizationNormal
	}
}
