package repositories

import (
	"context"
	"errors"
	"fmt"

	"backoffice-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// numberAttempts bounds the retries when two creates race to the same
// document or receipt number and one loses on the UNIQUE constraint
const numberAttempts = 3

// isUniqueViolation reports whether err is a PostgreSQL unique_violation
// (SQLSTATE 23505), the error a losing racer gets on a number collision
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type InvoiceRepository struct {
	DB             *pgxpool.Pool
	documentPrefix string
	receiptPrefix  string
}

func NewInvoiceRepository(db *pgxpool.Pool, documentPrefix, receiptPrefix string) *InvoiceRepository {
	if documentPrefix == "" {
		documentPrefix = "INV"
	}
	if receiptPrefix == "" {
		receiptPrefix = "RCP"
	}
	return &InvoiceRepository{DB: db, documentPrefix: documentPrefix, receiptPrefix: receiptPrefix}
}

// invoiceStatus derives the stored status from paid vs total
func invoiceStatus(total, paid decimal.Decimal) models.InvoiceStatus {
	switch {
	case paid.GreaterThanOrEqual(total) && total.IsPositive():
		return models.InvoiceStatusPaid
	case paid.IsPositive():
		return models.InvoiceStatusPartiallyPaid
	default:
		return models.InvoiceStatusUnpaid
	}
}

// Create persists the invoice, its items, the ledger debit and the optional
// immediate payment in one transaction. The caller has already computed the
// totals; immediatePayment, when non-nil, is fully allocated to this invoice
// and its amount must not exceed the invoice total. A document-number
// collision with a concurrent create is retried with a fresh number.
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice, immediatePayment *models.Payment) error {
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		err = r.create(ctx, inv, immediatePayment)
		if !isUniqueViolation(err) {
			return err
		}
	}
	return fmt.Errorf("document number contention, retries exhausted: %w", err)
}

func (r *InvoiceRepository) create(ctx context.Context, inv *models.Invoice, immediatePayment *models.Payment) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Next document number; the UNIQUE constraint on document_no is the
	// backstop if two creates race
	var next int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM invoices`).Scan(&next); err != nil {
		return fmt.Errorf("failed to generate document number: %w", err)
	}
	inv.DocumentNo = fmt.Sprintf("%s-%05d", r.documentPrefix, next)

	inv.PaidAmount = decimal.Zero
	inv.BalanceAmount = inv.TotalAmount
	inv.Status = invoiceStatus(inv.TotalAmount, inv.PaidAmount)

	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (
			document_no, customer_id, invoice_date, due_date, terms, notes,
			discount_policy, document_discount_type, document_discount_value,
			subtotal, discount_total, tax_total, total_amount,
			paid_amount, balance_amount, status, created_by_user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at`,
		inv.DocumentNo, inv.CustomerID, inv.InvoiceDate, inv.DueDate, inv.Terms, inv.Notes,
		inv.DiscountPolicy, inv.DocumentDiscountType, inv.DocumentDiscountValue,
		inv.Subtotal, inv.DiscountTotal, inv.TaxTotal, inv.TotalAmount,
		inv.PaidAmount, inv.BalanceAmount, inv.Status, inv.CreatedByUserID,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	for i := range inv.Items {
		item := &inv.Items[i]
		item.InvoiceID = inv.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO invoice_items (
				invoice_id, item_id, description, quantity, unit_price,
				tax_rate_percent, discount_type, discount_value, line_total
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			item.InvoiceID, item.ItemID, item.Description, item.Quantity, item.UnitPrice,
			item.TaxRatePercent, item.DiscountType, item.DiscountValue, item.LineTotal,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to create invoice item: %w", err)
		}
	}

	// Debit the customer's ledger for the full invoice amount
	_, err = appendEntry(ctx, tx, &models.CreateLedgerEntryRequest{
		CustomerID:      inv.CustomerID,
		EntryType:       models.LedgerEntryTypeInvoice,
		Description:     fmt.Sprintf("Invoice %s", inv.DocumentNo),
		EntryDate:       inv.InvoiceDate,
		Debit:           inv.TotalAmount,
		Credit:          decimal.Zero,
		ReferenceID:     &inv.ID,
		ReferenceType:   "invoice",
		CreatedByUserID: inv.CreatedByUserID,
	})
	if err != nil {
		return err
	}

	if immediatePayment != nil {
		if err := r.applyImmediatePayment(ctx, tx, inv, immediatePayment); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// applyImmediatePayment records the payment taken in the invoice wizard's
// payment step, allocated fully to the invoice just created
func (r *InvoiceRepository) applyImmediatePayment(ctx context.Context, tx pgx.Tx, inv *models.Invoice, p *models.Payment) error {
	var next int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM payments`).Scan(&next); err != nil {
		return fmt.Errorf("failed to generate receipt number: %w", err)
	}
	p.ReceiptNumber = fmt.Sprintf("%s-%05d", r.receiptPrefix, next)
	p.CustomerID = inv.CustomerID

	err := tx.QueryRow(ctx, `
		INSERT INTO payments (receipt_number, customer_id, payment_date, amount, method, reference, notes, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		p.ReceiptNumber, p.CustomerID, p.Date, p.Amount, p.Method, p.Reference, p.Notes, p.CreatedByUserID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	alloc := models.PaymentAllocation{PaymentID: p.ID, InvoiceID: inv.ID, Amount: p.Amount}
	err = tx.QueryRow(ctx, `
		INSERT INTO payment_allocations (payment_id, invoice_id, amount)
		VALUES ($1, $2, $3) RETURNING id`,
		alloc.PaymentID, alloc.InvoiceID, alloc.Amount,
	).Scan(&alloc.ID)
	if err != nil {
		return fmt.Errorf("failed to create payment allocation: %w", err)
	}
	p.Allocations = []models.PaymentAllocation{alloc}

	inv.PaidAmount = inv.PaidAmount.Add(p.Amount)
	inv.BalanceAmount = inv.TotalAmount.Sub(inv.PaidAmount)
	inv.Status = invoiceStatus(inv.TotalAmount, inv.PaidAmount)
	_, err = tx.Exec(ctx, `
		UPDATE invoices SET paid_amount=$1, balance_amount=$2, status=$3, updated_at=CURRENT_TIMESTAMP
		WHERE id=$4`,
		inv.PaidAmount, inv.BalanceAmount, inv.Status, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to update invoice balance: %w", err)
	}

	_, err = appendEntry(ctx, tx, &models.CreateLedgerEntryRequest{
		CustomerID:      p.CustomerID,
		EntryType:       models.LedgerEntryTypePayment,
		Description:     fmt.Sprintf("Payment %s against invoice %s", p.ReceiptNumber, inv.DocumentNo),
		EntryDate:       p.Date,
		Debit:           decimal.Zero,
		Credit:          p.Amount,
		ReferenceID:     &p.ID,
		ReferenceType:   "payment",
		CreatedByUserID: p.CreatedByUserID,
	})
	return err
}

// Get returns an invoice with its line items
func (r *InvoiceRepository) Get(ctx context.Context, id int) (*models.Invoice, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT i.id, i.document_no, i.customer_id, c.name, i.invoice_date, COALESCE(i.due_date, i.invoice_date),
		       COALESCE(i.terms, ''), COALESCE(i.notes, ''),
		       i.discount_policy, COALESCE(i.document_discount_type, ''), i.document_discount_value,
		       i.subtotal, i.discount_total, i.tax_total, i.total_amount,
		       i.paid_amount, i.balance_amount, i.status, i.created_by_user_id, i.created_at, i.updated_at
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.id = $1`, id)

	var inv models.Invoice
	err := row.Scan(
		&inv.ID, &inv.DocumentNo, &inv.CustomerID, &inv.CustomerName, &inv.InvoiceDate, &inv.DueDate,
		&inv.Terms, &inv.Notes,
		&inv.DiscountPolicy, &inv.DocumentDiscountType, &inv.DocumentDiscountValue,
		&inv.Subtotal, &inv.DiscountTotal, &inv.TaxTotal, &inv.TotalAmount,
		&inv.PaidAmount, &inv.BalanceAmount, &inv.Status, &inv.CreatedByUserID, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, invoice_id, COALESCE(item_id, 0), COALESCE(description, ''), quantity, unit_price,
		       tax_rate_percent, discount_type, discount_value, line_total
		FROM invoice_items WHERE invoice_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.InvoiceItem
		err := rows.Scan(&item.ID, &item.InvoiceID, &item.ItemID, &item.Description, &item.Quantity,
			&item.UnitPrice, &item.TaxRatePercent, &item.DiscountType, &item.DiscountValue, &item.LineTotal)
		if err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, item)
	}
	return &inv, rows.Err()
}

// List returns invoices, newest first, optionally filtered by customer
func (r *InvoiceRepository) List(ctx context.Context, customerID int, limit, offset int) ([]models.Invoice, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT i.id, i.document_no, i.customer_id, c.name, i.invoice_date, COALESCE(i.due_date, i.invoice_date),
		       i.discount_policy, i.subtotal, i.discount_total, i.tax_total, i.total_amount,
		       i.paid_amount, i.balance_amount, i.status, i.created_by_user_id, i.created_at, i.updated_at
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE ($1 = 0 OR i.customer_id = $1)
		ORDER BY i.invoice_date DESC, i.id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.DB.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		var inv models.Invoice
		err := rows.Scan(
			&inv.ID, &inv.DocumentNo, &inv.CustomerID, &inv.CustomerName, &inv.InvoiceDate, &inv.DueDate,
			&inv.DiscountPolicy, &inv.Subtotal, &inv.DiscountTotal, &inv.TaxTotal, &inv.TotalAmount,
			&inv.PaidAmount, &inv.BalanceAmount, &inv.Status, &inv.CreatedByUserID, &inv.CreatedAt, &inv.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// GetOutstandingByCustomer returns the customer's open invoices oldest first,
// the order the payment dialog and auto-allocation walk them in
func (r *InvoiceRepository) GetOutstandingByCustomer(ctx context.Context, customerID int) ([]models.OutstandingInvoice, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, document_no, invoice_date, COALESCE(due_date, invoice_date),
		       total_amount, paid_amount, balance_amount
		FROM invoices
		WHERE customer_id = $1 AND balance_amount > 0
		ORDER BY invoice_date ASC, id ASC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []models.OutstandingInvoice
	for rows.Next() {
		var inv models.OutstandingInvoice
		err := rows.Scan(&inv.ID, &inv.DocumentNo, &inv.InvoiceDate, &inv.DueDate,
			&inv.TotalAmount, &inv.PaidAmount, &inv.BalanceAmount)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}
