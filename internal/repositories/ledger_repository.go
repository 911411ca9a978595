package repositories

import (
	"context"
	"fmt"

	"backoffice-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so ledger appends can
// run standalone or inside an invoice/payment transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type LedgerRepository struct {
	DB *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{DB: db}
}

// Append creates a new ledger entry and stores the running balance after it
func (r *LedgerRepository) Append(ctx context.Context, entry *models.CreateLedgerEntryRequest) (*models.LedgerEntry, error) {
	return appendEntry(ctx, r.DB, entry)
}

// AppendTx appends within a caller-owned transaction. The caller must already
// hold locks on the rows that made it compute debit/credit, so the balance
// read here is consistent.
func (r *LedgerRepository) AppendTx(ctx context.Context, tx pgx.Tx, entry *models.CreateLedgerEntryRequest) (*models.LedgerEntry, error) {
	return appendEntry(ctx, tx, entry)
}

func appendEntry(ctx context.Context, q querier, entry *models.CreateLedgerEntryRequest) (*models.LedgerEntry, error) {
	// Current balance for the customer; zero when this is the first entry
	var currentBalance decimal.Decimal
	err := q.QueryRow(ctx,
		`SELECT COALESCE(SUM(debit) - SUM(credit), 0) FROM ledger_entries WHERE customer_id = $1`,
		entry.CustomerID,
	).Scan(&currentBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to read current balance: %w", err)
	}

	runningBalance := currentBalance.Add(entry.Debit).Sub(entry.Credit)

	query := `
		INSERT INTO ledger_entries (
			customer_id, entry_type, description, entry_date,
			debit, credit, running_balance, reference_id, reference_type,
			created_by_user_id, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	result := &models.LedgerEntry{
		CustomerID:      entry.CustomerID,
		EntryType:       entry.EntryType,
		Description:     entry.Description,
		EntryDate:       entry.EntryDate,
		Debit:           entry.Debit,
		Credit:          entry.Credit,
		RunningBalance:  runningBalance,
		ReferenceID:     entry.ReferenceID,
		ReferenceType:   entry.ReferenceType,
		CreatedByUserID: entry.CreatedByUserID,
		Notes:           entry.Notes,
	}
	err = q.QueryRow(ctx, query,
		entry.CustomerID,
		entry.EntryType,
		entry.Description,
		entry.EntryDate,
		entry.Debit,
		entry.Credit,
		runningBalance,
		entry.ReferenceID,
		entry.ReferenceType,
		entry.CreatedByUserID,
		entry.Notes,
	).Scan(&result.ID, &result.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return result, nil
}

// GetBalance returns the current balance for a customer
func (r *LedgerRepository) GetBalance(ctx context.Context, customerID int) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(debit) - SUM(credit), 0) FROM ledger_entries WHERE customer_id = $1`,
		customerID,
	).Scan(&balance)
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// GetBalanceBefore returns the sum of debit minus credit over the first
// offset entries of the customer's statement, in the same order GetByCustomer
// pages through it. This is the opening balance for a page starting at offset.
func (r *LedgerRepository) GetBalanceBefore(ctx context.Context, customerID int, offset int) (decimal.Decimal, error) {
	if offset <= 0 {
		return decimal.Zero, nil
	}

	var balance decimal.Decimal
	err := r.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(debit) - SUM(credit), 0) FROM (
			SELECT debit, credit FROM ledger_entries
			WHERE customer_id = $1
			ORDER BY entry_date ASC, id ASC
			LIMIT $2
		) preceding`,
		customerID, offset,
	).Scan(&balance)
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// GetByCustomer returns a customer's ledger in statement order: date
// ascending, ties broken by insertion order
func (r *LedgerRepository) GetByCustomer(ctx context.Context, customerID int, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 500
	}

	query := `
		SELECT l.id, l.customer_id, c.name, l.entry_type, COALESCE(l.description, ''),
		       l.entry_date, l.debit, l.credit, l.running_balance,
		       l.reference_id, COALESCE(l.reference_type, ''),
		       l.created_by_user_id, COALESCE(u.name, 'System'),
		       l.created_at, COALESCE(l.notes, '')
		FROM ledger_entries l
		JOIN customers c ON c.id = l.customer_id
		LEFT JOIN users u ON u.id = l.created_by_user_id
		WHERE l.customer_id = $1
		ORDER BY l.entry_date ASC, l.id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		err := rows.Scan(
			&e.ID, &e.CustomerID, &e.CustomerName, &e.EntryType, &e.Description,
			&e.EntryDate, &e.Debit, &e.Credit, &e.RunningBalance,
			&e.ReferenceID, &e.ReferenceType,
			&e.CreatedByUserID, &e.CreatedByName, &e.CreatedAt, &e.Notes,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// GetSummaryByCustomer returns balance totals for a customer, or nil when the
// customer has no ledger entries yet
func (r *LedgerRepository) GetSummaryByCustomer(ctx context.Context, customerID int) (*models.LedgerSummary, error) {
	query := `
		SELECT l.customer_id, MAX(c.name),
		       COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0),
		       COALESCE(SUM(l.debit) - SUM(l.credit), 0), COUNT(*)
		FROM ledger_entries l
		JOIN customers c ON c.id = l.customer_id
		WHERE l.customer_id = $1
		GROUP BY l.customer_id
	`

	var s models.LedgerSummary
	err := r.DB.QueryRow(ctx, query, customerID).Scan(
		&s.CustomerID, &s.CustomerName,
		&s.TotalDebit, &s.TotalCredit, &s.CurrentBalance, &s.EntryCount,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // No entries for this customer
		}
		return nil, err
	}
	return &s, nil
}

// GetDebtors returns customers with positive balance (they owe money)
func (r *LedgerRepository) GetDebtors(ctx context.Context) ([]models.LedgerSummary, error) {
	query := `
		SELECT l.customer_id, MAX(c.name),
		       COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0),
		       COALESCE(SUM(l.debit) - SUM(l.credit), 0) AS current_balance, COUNT(*)
		FROM ledger_entries l
		JOIN customers c ON c.id = l.customer_id
		GROUP BY l.customer_id
		HAVING SUM(l.debit) - SUM(l.credit) > 0
		ORDER BY current_balance DESC
	`

	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.LedgerSummary
	for rows.Next() {
		var s models.LedgerSummary
		err := rows.Scan(
			&s.CustomerID, &s.CustomerName,
			&s.TotalDebit, &s.TotalCredit, &s.CurrentBalance, &s.EntryCount,
		)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}
