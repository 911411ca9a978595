package repositories

import (
	"context"
	"fmt"
	"sort"

	"backoffice-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PaymentRepository struct {
	DB            *pgxpool.Pool
	receiptPrefix string
}

func NewPaymentRepository(db *pgxpool.Pool, receiptPrefix string) *PaymentRepository {
	if receiptPrefix == "" {
		receiptPrefix = "RCP"
	}
	return &PaymentRepository{DB: db, receiptPrefix: receiptPrefix}
}

// CreateWithAllocations records a payment and its allocations in one
// transaction. Each allocated invoice is locked with FOR UPDATE and its
// balance re-checked under the lock, so a concurrent payment against the
// same invoice cannot overpay it. Either everything is written or nothing is.
// A receipt-number collision with a concurrent payment is retried with a
// fresh number.
func (r *PaymentRepository) CreateWithAllocations(ctx context.Context, p *models.Payment, allocations []models.AllocationRequest) error {
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		err = r.createWithAllocations(ctx, p, allocations)
		if !isUniqueViolation(err) {
			return err
		}
	}
	return fmt.Errorf("receipt number contention, retries exhausted: %w", err)
}

func (r *PaymentRepository) createWithAllocations(ctx context.Context, p *models.Payment, allocations []models.AllocationRequest) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the allocated invoices in id order to avoid deadlocks between
	// concurrent payments, then re-validate each allocation under the lock
	locked := make([]models.AllocationRequest, len(allocations))
	copy(locked, allocations)
	sort.Slice(locked, func(i, j int) bool { return locked[i].InvoiceID < locked[j].InvoiceID })
	for _, a := range locked {
		var balance decimal.Decimal
		err := tx.QueryRow(ctx,
			`SELECT balance_amount FROM invoices WHERE id = $1 AND customer_id = $2 FOR UPDATE`,
			a.InvoiceID, p.CustomerID,
		).Scan(&balance)
		if err != nil {
			return fmt.Errorf("invoice %d not found for customer %d: %w", a.InvoiceID, p.CustomerID, err)
		}
		if a.Amount.GreaterThan(balance) {
			return fmt.Errorf("allocation %s to invoice %d exceeds its balance %s", a.Amount, a.InvoiceID, balance)
		}
	}

	var next int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM payments`).Scan(&next); err != nil {
		return fmt.Errorf("failed to generate receipt number: %w", err)
	}
	p.ReceiptNumber = fmt.Sprintf("%s-%05d", r.receiptPrefix, next)

	err = tx.QueryRow(ctx, `
		INSERT INTO payments (receipt_number, customer_id, payment_date, amount, method, reference, notes, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		p.ReceiptNumber, p.CustomerID, p.Date, p.Amount, p.Method, p.Reference, p.Notes, p.CreatedByUserID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	p.Allocations = p.Allocations[:0]
	for _, a := range allocations {
		alloc := models.PaymentAllocation{PaymentID: p.ID, InvoiceID: a.InvoiceID, Amount: a.Amount}
		err = tx.QueryRow(ctx, `
			INSERT INTO payment_allocations (payment_id, invoice_id, amount)
			VALUES ($1, $2, $3) RETURNING id`,
			alloc.PaymentID, alloc.InvoiceID, alloc.Amount,
		).Scan(&alloc.ID)
		if err != nil {
			return fmt.Errorf("failed to create payment allocation: %w", err)
		}
		p.Allocations = append(p.Allocations, alloc)

		// Apply the allocation to the invoice; status follows paid vs total
		_, err = tx.Exec(ctx, `
			UPDATE invoices SET
				paid_amount = paid_amount + $1,
				balance_amount = total_amount - (paid_amount + $1),
				status = CASE
					WHEN paid_amount + $1 >= total_amount THEN 'paid'
					WHEN paid_amount + $1 > 0 THEN 'partially_paid'
					ELSE 'unpaid'
				END,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = $2`,
			a.Amount, a.InvoiceID)
		if err != nil {
			return fmt.Errorf("failed to update invoice %d: %w", a.InvoiceID, err)
		}
	}

	entryType := models.LedgerEntryTypePayment
	if p.Method == "online" {
		entryType = models.LedgerEntryTypeOnlinePayment
	}
	_, err = appendEntry(ctx, tx, &models.CreateLedgerEntryRequest{
		CustomerID:      p.CustomerID,
		EntryType:       entryType,
		Description:     fmt.Sprintf("Payment %s (%s)", p.ReceiptNumber, p.Method),
		EntryDate:       p.Date,
		Debit:           decimal.Zero,
		Credit:          p.Amount,
		ReferenceID:     &p.ID,
		ReferenceType:   "payment",
		CreatedByUserID: p.CreatedByUserID,
		Notes:           p.Notes,
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Get returns a payment with its allocations
func (r *PaymentRepository) Get(ctx context.Context, id int) (*models.Payment, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT p.id, p.receipt_number, p.customer_id, c.name, p.payment_date, p.amount,
		       p.method, COALESCE(p.reference, ''), COALESCE(p.notes, ''), p.created_by_user_id, p.created_at
		FROM payments p
		JOIN customers c ON c.id = p.customer_id
		WHERE p.id = $1`, id)

	var p models.Payment
	err := row.Scan(&p.ID, &p.ReceiptNumber, &p.CustomerID, &p.CustomerName, &p.Date, &p.Amount,
		&p.Method, &p.Reference, &p.Notes, &p.CreatedByUserID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx,
		`SELECT id, payment_id, invoice_id, amount FROM payment_allocations WHERE payment_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a models.PaymentAllocation
		if err := rows.Scan(&a.ID, &a.PaymentID, &a.InvoiceID, &a.Amount); err != nil {
			return nil, err
		}
		p.Allocations = append(p.Allocations, a)
	}
	return &p, rows.Err()
}

// List returns payments newest first, optionally filtered by customer
func (r *PaymentRepository) List(ctx context.Context, customerID int, limit, offset int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.DB.Query(ctx, `
		SELECT p.id, p.receipt_number, p.customer_id, c.name, p.payment_date, p.amount,
		       p.method, COALESCE(p.reference, ''), COALESCE(p.notes, ''), p.created_by_user_id, p.created_at
		FROM payments p
		JOIN customers c ON c.id = p.customer_id
		WHERE ($1 = 0 OR p.customer_id = $1)
		ORDER BY p.payment_date DESC, p.id DESC
		LIMIT $2 OFFSET $3`, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		err := rows.Scan(&p.ID, &p.ReceiptNumber, &p.CustomerID, &p.CustomerName, &p.Date, &p.Amount,
			&p.Method, &p.Reference, &p.Notes, &p.CreatedByUserID, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
