package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stagedoor/internal/database"
	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/models"

	"github.com/lib/pq"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateWithLineItems commits a new Pending booking as one atomic unit:
// performance row lock, occupancy check against every Pending/Confirmed
// booking of the performance, booking + line item inserts and the
// available_seats decrement all happen in a single transaction. The row lock
// serializes competing create calls for the same performance, so two requests
// for overlapping seats can never both pass the check.
func (r *BookingRepository) CreateWithLineItems(ctx context.Context, booking *models.Booking, items []models.LineItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	var available int
	lockQuery := `
		SELECT performance_status, available_seats
		FROM performances
		WHERE performance_id = $1
		FOR UPDATE`
	err = tx.QueryRowContext(ctx, lockQuery, booking.PerformanceID).Scan(&status, &available)
	if err == sql.ErrNoRows {
		return fmt.Errorf("performance %d: %w", booking.PerformanceID, apperrors.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if status != models.PerformanceScheduled {
		return fmt.Errorf("performance %d is %s: %w", booking.PerformanceID, status, apperrors.ErrInvalidState)
	}

	seatIDs := make([]int64, len(items))
	for i, item := range items {
		seatIDs[i] = item.SeatID
	}

	// First conflicting seat in ascending seat-id order, if any.
	var conflict int64
	conflictQuery := `
		SELECT li.seat_id
		FROM booking_line_items li
		JOIN bookings b ON b.booking_id = li.booking_id
		WHERE b.performance_id = $1
		  AND b.booking_status IN ('Pending', 'Confirmed')
		  AND li.seat_id = ANY($2)
		ORDER BY li.seat_id
		LIMIT 1`
	err = tx.QueryRowContext(ctx, conflictQuery, booking.PerformanceID, pq.Array(seatIDs)).Scan(&conflict)
	if err == nil {
		return &apperrors.SeatConflictError{SeatID: conflict}
	}
	if err != sql.ErrNoRows {
		return err
	}

	insertBooking := `
		INSERT INTO bookings (user_id, performance_id, booking_reference,
		                      total_amount_cents, booking_status, payment_deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING booking_id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, insertBooking,
		booking.UserID,
		booking.PerformanceID,
		booking.Reference,
		int64(booking.TotalAmount),
		booking.Status,
		booking.PaymentDeadline,
	).Scan(&booking.BookingID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return err
	}

	insertItem := `
		INSERT INTO booking_line_items (booking_id, seat_id, row_number,
		                                seat_number, seat_category, unit_price_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING line_item_id`
	for i := range items {
		items[i].BookingID = booking.BookingID
		err = tx.QueryRowContext(ctx, insertItem,
			booking.BookingID,
			items[i].SeatID,
			items[i].RowNumber,
			items[i].SeatNumber,
			items[i].Category,
			int64(items[i].UnitPrice),
		).Scan(&items[i].LineItemID)
		if err != nil {
			return err
		}
	}

	decrement := `
		UPDATE performances
		SET available_seats = available_seats - $1, updated_at = NOW()
		WHERE performance_id = $2`
	if _, err := tx.ExecContext(ctx, decrement, len(items), booking.PerformanceID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *BookingRepository) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return r.getBooking(ctx, `WHERE booking_id = $1`, id)
}

func (r *BookingRepository) GetBookingByReference(ctx context.Context, ref string) (*models.Booking, error) {
	return r.getBooking(ctx, `WHERE booking_reference = $1`, ref)
}

func (r *BookingRepository) getBooking(ctx context.Context, where string, arg interface{}) (*models.Booking, error) {
	booking := &models.Booking{}
	var total int64
	var refund *int64
	query := `
		SELECT booking_id, user_id, performance_id, booking_reference,
		       total_amount_cents, booking_status, payment_deadline,
		       cancelled_at, refund_amount_cents, created_at, updated_at
		FROM bookings ` + where

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&booking.BookingID,
		&booking.UserID,
		&booking.PerformanceID,
		&booking.Reference,
		&total,
		&booking.Status,
		&booking.PaymentDeadline,
		&booking.CancelledAt,
		&refund,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	booking.TotalAmount = models.Money(total)
	if refund != nil {
		m := models.Money(*refund)
		booking.RefundAmount = &m
	}
	return booking, nil
}

func (r *BookingRepository) ListBookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	query := `
		SELECT booking_id, user_id, performance_id, booking_reference,
		       total_amount_cents, booking_status, payment_deadline,
		       cancelled_at, refund_amount_cents, created_at, updated_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		var total int64
		var refund *int64
		err := rows.Scan(
			&booking.BookingID,
			&booking.UserID,
			&booking.PerformanceID,
			&booking.Reference,
			&total,
			&booking.Status,
			&booking.PaymentDeadline,
			&booking.CancelledAt,
			&refund,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		booking.TotalAmount = models.Money(total)
		if refund != nil {
			m := models.Money(*refund)
			booking.RefundAmount = &m
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func (r *BookingRepository) GetLineItems(ctx context.Context, bookingID int64) ([]models.LineItem, error) {
	query := `
		SELECT line_item_id, booking_id, seat_id, row_number, seat_number,
		       seat_category, unit_price_cents
		FROM booking_line_items
		WHERE booking_id = $1
		ORDER BY seat_id`

	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var item models.LineItem
		var price int64
		err := rows.Scan(
			&item.LineItemID,
			&item.BookingID,
			&item.SeatID,
			&item.RowNumber,
			&item.SeatNumber,
			&item.Category,
			&price,
		)
		if err != nil {
			return nil, err
		}
		item.UnitPrice = models.Money(price)
		items = append(items, item)
	}

	return items, rows.Err()
}

// ConfirmPending settles a booking: the conditional UPDATE is the optimistic
// transition guard, so a reaper sweep that already cancelled the booking (or a
// concurrent settle) makes this a no-op failure rather than a double apply.
func (r *BookingRepository) ConfirmPending(ctx context.Context, bookingID int64, payment *models.Payment, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	transition := `
		UPDATE bookings
		SET booking_status = 'Confirmed', updated_at = NOW()
		WHERE booking_id = $1
		  AND booking_status = 'Pending'
		  AND (payment_deadline IS NULL OR payment_deadline > $2)`
	res, err := tx.ExecContext(ctx, transition, bookingID, now)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("booking %d cannot be settled: %w", bookingID, apperrors.ErrInvalidState)
	}

	insertPayment := `
		INSERT INTO payments (booking_id, amount_cents, payment_method,
		                      payment_status, transaction_id)
		VALUES ($1, $2, $3, 'Completed', $4)
		RETURNING payment_id, created_at`
	err = tx.QueryRowContext(ctx, insertPayment,
		bookingID,
		int64(payment.Amount),
		payment.Method,
		payment.TransactionID,
	).Scan(&payment.PaymentID, &payment.CreatedAt)
	if err != nil {
		return err
	}
	payment.BookingID = bookingID
	payment.Status = models.PaymentCompleted

	return tx.Commit()
}

// ReleaseSeats is the single seat-release path shared by user cancellation,
// admin override and refunds' availability restore. The conditional UPDATE
// makes it idempotent: once the booking left the from set, repeat calls
// release nothing and the counter moves exactly once.
func (r *BookingRepository) ReleaseSeats(ctx context.Context, bookingID int64, from []string) (bool, int, error) {
	transition := `
		UPDATE bookings
		SET booking_status = 'Cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE booking_id = $1 AND booking_status = ANY($2)
		RETURNING performance_id`
	return r.release(ctx, transition, bookingID, pq.Array(from))
}

// ExpirePending is ReleaseSeats restricted to Pending bookings whose payment
// deadline has elapsed, so a sweep can never reclaim a booking that a racing
// settlement just confirmed.
func (r *BookingRepository) ExpirePending(ctx context.Context, bookingID int64, now time.Time) (bool, int, error) {
	transition := `
		UPDATE bookings
		SET booking_status = 'Cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE booking_id = $1
		  AND booking_status = 'Pending'
		  AND payment_deadline IS NOT NULL
		  AND payment_deadline <= $2
		RETURNING performance_id`
	return r.release(ctx, transition, bookingID, now)
}

func (r *BookingRepository) release(ctx context.Context, transition string, bookingID int64, arg interface{}) (bool, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	var performanceID int64
	err = tx.QueryRowContext(ctx, transition, bookingID, arg).Scan(&performanceID)
	if err == sql.ErrNoRows {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}

	seats, err := r.restoreAvailability(ctx, tx, bookingID, performanceID)
	if err != nil {
		return false, 0, err
	}

	return true, seats, tx.Commit()
}

func (r *BookingRepository) RefundConfirmed(ctx context.Context, bookingID int64, amount models.Money, refundTxnID string, paymentID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var performanceID int64
	transition := `
		UPDATE bookings
		SET booking_status = 'Refunded', refund_amount_cents = $2,
		    cancelled_at = NOW(), updated_at = NOW()
		WHERE booking_id = $1 AND booking_status = 'Confirmed'
		RETURNING performance_id`
	err = tx.QueryRowContext(ctx, transition, bookingID, int64(amount)).Scan(&performanceID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("booking %d cannot be refunded: %w", bookingID, apperrors.ErrInvalidState)
	}
	if err != nil {
		return err
	}

	markRefunded := `
		UPDATE payments
		SET payment_status = 'Refunded', refund_transaction_id = $1, refunded_at = NOW()
		WHERE payment_id = $2 AND payment_status = 'Completed'`
	res, err := tx.ExecContext(ctx, markRefunded, refundTxnID, paymentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("payment %d: %w", paymentID, apperrors.ErrNoCompletedPayment)
	}

	if _, err := r.restoreAvailability(ctx, tx, bookingID, performanceID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *BookingRepository) restoreAvailability(ctx context.Context, tx *sql.Tx, bookingID, performanceID int64) (int, error) {
	var seats int
	countQuery := `SELECT COUNT(*) FROM booking_line_items WHERE booking_id = $1`
	if err := tx.QueryRowContext(ctx, countQuery, bookingID).Scan(&seats); err != nil {
		return 0, err
	}

	increment := `
		UPDATE performances
		SET available_seats = available_seats + $1, updated_at = NOW()
		WHERE performance_id = $2`
	if _, err := tx.ExecContext(ctx, increment, seats, performanceID); err != nil {
		return 0, err
	}

	return seats, nil
}

func (r *BookingRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]models.Booking, error) {
	query := `
		SELECT booking_id, user_id, performance_id, booking_reference,
		       total_amount_cents, booking_status, payment_deadline,
		       cancelled_at, refund_amount_cents, created_at, updated_at
		FROM bookings
		WHERE booking_status = 'Pending'
		  AND payment_deadline IS NOT NULL
		  AND payment_deadline <= $1
		ORDER BY payment_deadline`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		var total int64
		var refund *int64
		err := rows.Scan(
			&booking.BookingID,
			&booking.UserID,
			&booking.PerformanceID,
			&booking.Reference,
			&total,
			&booking.Status,
			&booking.PaymentDeadline,
			&booking.CancelledAt,
			&refund,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		booking.TotalAmount = models.Money(total)
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}
