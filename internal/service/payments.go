package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/external"
	"stagedoor/internal/metrics"
	"stagedoor/internal/models"
	"stagedoor/internal/reference"
	"stagedoor/internal/repository"
)

// PaymentService settles and refunds bookings through the payment gateway.
type PaymentService struct {
	repos     *repository.Repositories
	publisher Publisher
	gateway   external.PaymentGateway
	ticketing TicketIssuer
	refs      *reference.Generator

	now func() time.Time
}

func NewPaymentService(repos *repository.Repositories, publisher Publisher, gateway external.PaymentGateway, ticketing TicketIssuer, refs *reference.Generator) *PaymentService {
	return &PaymentService{
		repos:     repos,
		publisher: publisher,
		gateway:   gateway,
		ticketing: ticketing,
		refs:      refs,
		now:       time.Now,
	}
}

// Settle charges the gateway and confirms the booking. The booking must still
// be Pending with an unexpired deadline; a deadline found expired here is
// reclaimed on the spot rather than left for the next sweep.
func (s *PaymentService) Settle(ctx context.Context, req *models.SettlePaymentRequest) (*models.SettlePaymentResponse, error) {
	booking, err := s.repos.Bookings.GetBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %d: %w", req.BookingID, apperrors.ErrNotFound)
	}

	now := s.now()
	if booking.Status == models.BookingPending &&
		booking.PaymentDeadline != nil && !booking.PaymentDeadline.After(now) {
		if _, _, err := s.repos.Bookings.ExpirePending(ctx, booking.BookingID, now); err != nil {
			slog.Error("Failed to expire booking on settle", "booking_id", booking.BookingID, "error", err)
		} else {
			metrics.BookingsExpiredTotal.Inc()
		}
		return nil, fmt.Errorf("payment deadline passed for booking %d: %w", booking.BookingID, apperrors.ErrInvalidState)
	}
	if booking.Status != models.BookingPending {
		return nil, fmt.Errorf("booking %d is %s: %w", booking.BookingID, booking.Status, apperrors.ErrInvalidState)
	}

	if !req.Amount.WithinOneCent(booking.TotalAmount) {
		return nil, fmt.Errorf("paid %s for a %s booking: %w",
			req.Amount, booking.TotalAmount, apperrors.ErrAmountMismatch)
	}

	txnID := s.refs.NextTransactionID()
	metrics.PaymentAttemptsTotal.Inc()

	chargeStart := time.Now()
	result, err := s.gateway.Charge(ctx, &external.ChargeRequest{
		TransactionID:    txnID,
		BookingReference: booking.Reference,
		Amount:           int64(req.Amount),
		Method:           req.Method,
	})
	metrics.PaymentProcessingLatency.Observe(time.Since(chargeStart).Seconds())
	if err != nil {
		return nil, fmt.Errorf("payment gateway unavailable: %w", err)
	}

	if !result.Success {
		failed := &models.Payment{
			BookingID:     booking.BookingID,
			Amount:        req.Amount,
			Method:        req.Method,
			TransactionID: txnID,
		}
		if err := s.repos.Payments.RecordFailedPayment(ctx, failed); err != nil {
			slog.Error("Failed to record declined payment", "booking_id", booking.BookingID, "error", err)
		}

		metrics.PaymentFailedTotal.WithLabelValues(result.FailureReason).Inc()
		s.publish(models.EventPaymentFailed, models.PaymentFailedEvent{
			BookingID: booking.BookingID,
			Reason:    result.FailureReason,
			Timestamp: s.now(),
		})

		return nil, fmt.Errorf("%s: %w", result.FailureReason, apperrors.ErrGatewayDeclined)
	}

	payment := &models.Payment{
		Amount:        req.Amount,
		Method:        req.Method,
		TransactionID: txnID,
	}
	if err := s.repos.Bookings.ConfirmPending(ctx, booking.BookingID, payment, now); err != nil {
		// Charged but the booking left Pending in the meantime (expired or
		// cancelled). Reverse the charge so the customer is not out of pocket.
		refundErr := s.gateway.Refund(ctx, &external.RefundRequest{
			TransactionID: s.refs.NextTransactionID(),
			OriginalTxnID: txnID,
			Amount:        int64(req.Amount),
		})
		if refundErr != nil {
			slog.Error("Failed to reverse charge after lost confirmation race",
				"booking_id", booking.BookingID, "transaction_id", txnID, "error", refundErr)
		}
		return nil, err
	}

	metrics.PaymentSuccessTotal.Inc()
	metrics.BookingsConfirmedTotal.Inc()
	s.publish(models.EventBookingConfirmed, models.BookingConfirmedEvent{
		BookingID:     booking.BookingID,
		Reference:     booking.Reference,
		PerformanceID: booking.PerformanceID,
		TransactionID: txnID,
		Timestamp:     s.now(),
	})
	s.publish(models.EventPaymentCompleted, models.PaymentCompletedEvent{
		PaymentID:     payment.PaymentID,
		BookingID:     booking.BookingID,
		TransactionID: txnID,
		Amount:        payment.Amount,
		Timestamp:     s.now(),
	})

	s.issueTicket(booking)

	return &models.SettlePaymentResponse{
		PaymentID:     payment.PaymentID,
		TransactionID: payment.TransactionID,
		Status:        payment.Status,
		Amount:        payment.Amount,
	}, nil
}

// Refund reverses a confirmed booking's payment. Amount defaults to the full
// booking total; partial refunds up to the total are allowed, and the caller
// applies any time-window refund policy before asking.
func (s *PaymentService) Refund(ctx context.Context, req *models.RefundRequest) (*models.RefundResponse, error) {
	booking, err := s.repos.Bookings.GetBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %d: %w", req.BookingID, apperrors.ErrNotFound)
	}
	if booking.Status != models.BookingConfirmed {
		return nil, fmt.Errorf("booking %d is %s: %w", booking.BookingID, booking.Status, apperrors.ErrInvalidState)
	}

	payment, err := s.repos.Payments.GetCompletedByBooking(ctx, booking.BookingID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, fmt.Errorf("booking %d: %w", booking.BookingID, apperrors.ErrNoCompletedPayment)
	}

	amount := booking.TotalAmount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount <= 0 || amount > booking.TotalAmount {
		return nil, fmt.Errorf("refund of %s against a %s booking: %w",
			amount, booking.TotalAmount, apperrors.ErrAmountMismatch)
	}

	refundTxnID := s.refs.NextTransactionID()
	if err := s.gateway.Refund(ctx, &external.RefundRequest{
		TransactionID: refundTxnID,
		OriginalTxnID: payment.TransactionID,
		Amount:        int64(amount),
	}); err != nil {
		return nil, fmt.Errorf("payment gateway refund failed: %w", err)
	}

	if err := s.repos.Bookings.RefundConfirmed(ctx, booking.BookingID, amount, refundTxnID, payment.PaymentID); err != nil {
		return nil, err
	}

	metrics.BookingsRefundedTotal.Inc()
	s.publish(models.EventBookingRefunded, models.BookingRefundedEvent{
		BookingID:    booking.BookingID,
		RefundAmount: amount,
		RefundTxnID:  refundTxnID,
		Timestamp:    s.now(),
	})

	return &models.RefundResponse{
		BookingID:    booking.BookingID,
		RefundAmount: amount,
		RefundTxnID:  refundTxnID,
		Status:       models.BookingRefunded,
	}, nil
}

// History returns every settlement attempt recorded against a booking.
func (s *PaymentService) History(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	booking, err := s.repos.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %d: %w", bookingID, apperrors.ErrNotFound)
	}
	return s.repos.Payments.ListByBooking(ctx, bookingID)
}

func (s *PaymentService) issueTicket(booking *models.Booking) {
	if s.ticketing == nil {
		return
	}

	// Ticket delivery is out of band; a slow or failing provider never holds
	// up the settlement response.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var email string
		if user, err := s.repos.Users.GetByID(ctx, booking.UserID); err == nil && user != nil {
			email = user.Email
		}

		err := s.ticketing.IssueTicket(ctx, &external.IssueTicketRequest{
			BookingReference: booking.Reference,
			QRPayload:        booking.QRPayload(),
			Email:            email,
		})
		if err != nil {
			slog.Error("Failed to issue ticket", "booking_id", booking.BookingID, "error", err)
		}
	}()
}

func (s *PaymentService) publish(subject string, event interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(subject, event); err != nil {
		slog.Error("Failed to publish event", "subject", subject, "error", err)
	}
}
