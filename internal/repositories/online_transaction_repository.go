package repositories

import (
	"context"
	"time"

	"backoffice-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type OnlineTransactionRepository struct {
	DB *pgxpool.Pool
}

func NewOnlineTransactionRepository(db *pgxpool.Pool) *OnlineTransactionRepository {
	return &OnlineTransactionRepository{DB: db}
}

// Create records a pending transaction when a Razorpay order is created
func (r *OnlineTransactionRepository) Create(ctx context.Context, t *models.OnlineTransaction) error {
	return r.DB.QueryRow(ctx, `
		INSERT INTO online_transactions (razorpay_order_id, customer_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		t.RazorpayOrderID, t.CustomerID, t.Amount, t.Status,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *OnlineTransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*models.OnlineTransaction, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT t.id, t.razorpay_order_id, COALESCE(t.razorpay_payment_id, ''), COALESCE(t.razorpay_signature, ''),
		       t.customer_id, c.name, t.amount,
		       COALESCE(t.utr_number, ''), COALESCE(t.payment_method, ''), COALESCE(t.bank, ''),
		       COALESCE(t.vpa, ''), COALESCE(t.card_last4, ''),
		       t.status, COALESCE(t.failure_reason, ''), t.payment_id, t.ledger_entry_id,
		       t.created_at, t.completed_at
		FROM online_transactions t
		JOIN customers c ON c.id = t.customer_id
		WHERE t.razorpay_order_id = $1`, orderID)

	var t models.OnlineTransaction
	err := row.Scan(
		&t.ID, &t.RazorpayOrderID, &t.RazorpayPaymentID, &t.RazorpaySignature,
		&t.CustomerID, &t.CustomerName, &t.Amount,
		&t.UTRNumber, &t.PaymentMethod, &t.Bank, &t.VPA, &t.CardLast4,
		&t.Status, &t.FailureReason, &t.PaymentID, &t.LedgerEntryID,
		&t.CreatedAt, &t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkSuccess records the captured payment details and the linked payment row.
// Only a pending transaction transitions; a second capture of the same order
// is a no-op, which keeps webhook plus verify-callback delivery idempotent.
func (r *OnlineTransactionRepository) MarkSuccess(ctx context.Context, t *models.OnlineTransaction) (bool, error) {
	now := time.Now()
	tag, err := r.DB.Exec(ctx, `
		UPDATE online_transactions SET
			razorpay_payment_id=$1, razorpay_signature=$2, utr_number=$3,
			payment_method=$4, bank=$5, vpa=$6, card_last4=$7,
			status=$8, payment_id=$9, ledger_entry_id=$10, completed_at=$11
		WHERE razorpay_order_id=$12 AND status=$13`,
		t.RazorpayPaymentID, t.RazorpaySignature, t.UTRNumber,
		t.PaymentMethod, t.Bank, t.VPA, t.CardLast4,
		models.OnlineTxStatusSuccess, t.PaymentID, t.LedgerEntryID, now,
		t.RazorpayOrderID, models.OnlineTxStatusPending)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	t.Status = models.OnlineTxStatusSuccess
	t.CompletedAt = &now
	return true, nil
}

// LinkPayment records the payment row created when the capture was applied
func (r *OnlineTransactionRepository) LinkPayment(ctx context.Context, orderID string, paymentID int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE online_transactions SET payment_id=$1 WHERE razorpay_order_id=$2`,
		paymentID, orderID)
	return err
}

func (r *OnlineTransactionRepository) MarkFailed(ctx context.Context, orderID, reason string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE online_transactions SET status=$1, failure_reason=$2, completed_at=$3
		WHERE razorpay_order_id=$4 AND status=$5`,
		models.OnlineTxStatusFailed, reason, time.Now(), orderID, models.OnlineTxStatusPending)
	return err
}

// ListByCustomer returns a customer's online transactions, newest first
func (r *OnlineTransactionRepository) ListByCustomer(ctx context.Context, customerID int, limit int) ([]models.OnlineTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.DB.Query(ctx, `
		SELECT t.id, t.razorpay_order_id, COALESCE(t.razorpay_payment_id, ''),
		       t.customer_id, c.name, t.amount,
		       COALESCE(t.utr_number, ''), COALESCE(t.payment_method, ''),
		       t.status, COALESCE(t.failure_reason, ''), t.payment_id, t.ledger_entry_id,
		       t.created_at, t.completed_at
		FROM online_transactions t
		JOIN customers c ON c.id = t.customer_id
		WHERE t.customer_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2`, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.OnlineTransaction
	for rows.Next() {
		var t models.OnlineTransaction
		err := rows.Scan(
			&t.ID, &t.RazorpayOrderID, &t.RazorpayPaymentID,
			&t.CustomerID, &t.CustomerName, &t.Amount,
			&t.UTRNumber, &t.PaymentMethod,
			&t.Status, &t.FailureReason, &t.PaymentID, &t.LedgerEntryID,
			&t.CreatedAt, &t.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
