package repository

import (
	"context"
	"database/sql"

	"stagedoor/internal/database"
	"stagedoor/internal/models"
)

type PaymentRepository struct {
	db *database.DB
}

func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// RecordFailedPayment stores a declined settlement attempt. Failed rows are
// history only; they never affect booking state.
func (r *PaymentRepository) RecordFailedPayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (booking_id, amount_cents, payment_method,
		                      payment_status, transaction_id)
		VALUES ($1, $2, $3, 'Failed', $4)
		RETURNING payment_id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		payment.BookingID,
		int64(payment.Amount),
		payment.Method,
		payment.TransactionID,
	).Scan(&payment.PaymentID, &payment.CreatedAt)
	if err != nil {
		return err
	}

	payment.Status = models.PaymentFailed
	return nil
}

func (r *PaymentRepository) GetCompletedByBooking(ctx context.Context, bookingID int64) (*models.Payment, error) {
	query := `
		SELECT payment_id, booking_id, amount_cents, payment_method,
		       payment_status, transaction_id, refund_transaction_id,
		       refunded_at, created_at
		FROM payments
		WHERE booking_id = $1 AND payment_status = 'Completed'
		ORDER BY created_at DESC
		LIMIT 1`

	payment, err := r.scanPayment(r.db.QueryRowContext(ctx, query, bookingID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	query := `
		SELECT payment_id, booking_id, amount_cents, payment_method,
		       payment_status, transaction_id, refund_transaction_id,
		       refunded_at, created_at
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		payment, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}

	return payments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PaymentRepository) scanPayment(row rowScanner) (*models.Payment, error) {
	payment := &models.Payment{}
	var amount int64
	err := row.Scan(
		&payment.PaymentID,
		&payment.BookingID,
		&amount,
		&payment.Method,
		&payment.Status,
		&payment.TransactionID,
		&payment.RefundTxnID,
		&payment.RefundedAt,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	payment.Amount = models.Money(amount)
	return payment, nil
}
