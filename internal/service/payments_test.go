package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/external"
	"stagedoor/internal/models"
	"stagedoor/internal/reference"
	"stagedoor/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	mem      *repository.Memory
	gateway  *external.MockGateway
	bookings *BookingService
	payments *PaymentService
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	mem := newTestStore(t)
	repos := repository.NewMemoryRepositories(mem)
	refs := reference.NewGenerator()
	gateway := external.NewMockGateway(&external.MockGatewayConfig{SuccessRate: 1.0})

	return &paymentFixture{
		mem:      mem,
		gateway:  gateway,
		bookings: NewBookingService(repos, nil, refs, 15*time.Minute),
		payments: NewPaymentService(repos, nil, gateway, nil, refs),
	}
}

func (f *paymentFixture) createBooking(t *testing.T, seatIDs ...int64) *models.BookingReceipt {
	t.Helper()
	receipt, err := f.bookings.Create(context.Background(), 1, &models.CreateBookingRequest{
		PerformanceID: 1,
		SeatIDs:       seatIDs,
	})
	require.NoError(t, err)
	return receipt
}

func TestSettlePayment(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	receipt := f.createBooking(t, 1, 2)

	resp, err := f.payments.Settle(ctx, &models.SettlePaymentRequest{
		BookingID: receipt.BookingID,
		Method:    "card",
		Amount:    receipt.TotalAmount,
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentCompleted, resp.Status)
	assert.Regexp(t, `^TXN\d{14}[A-Z0-9]{6}$`, resp.TransactionID)
	assert.Equal(t, receipt.TotalAmount, resp.Amount)

	booking, err := f.mem.GetBooking(ctx, receipt.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, booking.Status)
}

func TestSettlePaymentAmountMismatch(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	receipt := f.createBooking(t, 1)

	_, err := f.payments.Settle(ctx, &models.SettlePaymentRequest{
		BookingID: receipt.BookingID,
		Method:    "card",
		Amount:    receipt.TotalAmount - 500,
	})
	assert.True(t, errors.Is(err, apperrors.ErrAmountMismatch))

	booking, err := f.mem.GetBooking(ctx, receipt.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, booking.Status)
}

func TestSettlePaymentOneCentTolerance(t *testing.T) {
	f := newPaymentFixture(t)

	receipt := f.createBooking(t, 1)

	_, err := f.payments.Settle(context.Background(), &models.SettlePaymentRequest{
		BookingID: receipt.BookingID,
		Method:    "card",
		Amount:    receipt.TotalAmount + 1,
	})
	assert.NoError(t, err, "one cent off is accepted")
}

func TestSettlePaymentDeclined(t *testing.T) {
	f := newPaymentFixture(t)
	f.gateway.SetSuccessRate(0)
	ctx := context.Background()

	receipt := f.createBooking(t, 1)

	_, err := f.payments.Settle(ctx, &models.SettlePaymentRequest{
		BookingID: receipt.BookingID,
		Method:    "card",
		Amount:    receipt.TotalAmount,
	})
	require.True(t, errors.Is(err, apperrors.ErrGatewayDeclined))

	// Booking stays Pending; the decline is recorded for the audit trail.
	booking, err := f.mem.GetBooking(ctx, receipt.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, booking.Status)

	history, err := f.payments.History(ctx, receipt.BookingID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.PaymentFailed, history[0].Status)

	// The booking can be retried after a decline.
	f.gateway.SetSuccessRate(1)
	_, err = f.payments.Settle(ctx, &models.SettlePaymentRequest{
		BookingID: receipt.BookingID,
		Method:    "card",
		Amount:    receipt.TotalAmount,
	})
	assert.NoError(t, err)
}

func TestSettlePaymentAfterDeadline(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	receipt := f.createBooking(t, 1, 2)

	f.payments.now = func() time.Time { return receipt.PaymentDeadline.Add(time.Second) }

	_, err := f.payments.Settle(ctx, &models.SettlePaymentRequest{
		BookingID: receipt.BookingID,
		Method:    "card",
		Amount:    receipt.TotalAmount,
	})
	require.True(t, errors.Is(err, apperrors.ErrInvalidState))

	// The lazy check reclaimed the booking on the spot.
	booking, err := f.mem.GetBooking(ctx, receipt.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, booking.Status)

	perf, err := f.mem.GetPerformance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, perf.AvailableSeats)
}

func TestSettlePaymentWrongState(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	receipt := f.createBooking(t, 1)
	require.NoError(t, f.bookings.Cancel(ctx, 1, receipt.BookingID))

	_, err := f.payments.Settle(ctx, &models.SettlePaymentRequest{
		BookingID: receipt.BookingID,
		Method:    "card",
		Amount:    receipt.TotalAmount,
	})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))

	_, err = f.payments.Settle(ctx, &models.SettlePaymentRequest{
		BookingID: 4242,
		Method:    "card",
		Amount:    100,
	})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// A settlement and a sweep racing on the same booking must resolve to exactly
// one winner: either the booking confirms and the sweep skips it, or the sweep
// reclaims it and settlement reports an invalid state.
func TestSettleVersusSweepExclusive(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newPaymentFixture(t)
		ctx := context.Background()

		receipt := f.createBooking(t, 1, 2)

		// Settlement arrives just inside the deadline while the sweep already
		// considers it due.
		f.payments.now = func() time.Time { return receipt.PaymentDeadline.Add(-time.Second) }
		f.bookings.now = func() time.Time { return receipt.PaymentDeadline.Add(time.Second) }

		var settleErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, settleErr = f.payments.Settle(ctx, &models.SettlePaymentRequest{
				BookingID: receipt.BookingID,
				Method:    "card",
				Amount:    receipt.TotalAmount,
			})
		}()
		go func() {
			defer wg.Done()
			_, _ = f.bookings.SweepExpired(ctx)
		}()
		wg.Wait()

		booking, err := f.mem.GetBooking(ctx, receipt.BookingID)
		require.NoError(t, err)

		if settleErr == nil {
			assert.Equal(t, models.BookingConfirmed, booking.Status)
		} else {
			assert.True(t, errors.Is(settleErr, apperrors.ErrInvalidState))
			assert.Equal(t, models.BookingCancelled, booking.Status)
		}

		perf, err := f.mem.GetPerformance(ctx, 1)
		require.NoError(t, err)
		if booking.Status == models.BookingConfirmed {
			assert.Equal(t, 8, perf.AvailableSeats)
		} else {
			assert.Equal(t, 10, perf.AvailableSeats)
		}
	}
}

func TestRefund(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	receipt := f.createBooking(t, 1, 2)
	_, err := f.payments.Settle(ctx, &models.SettlePaymentRequest{
		BookingID: receipt.BookingID,
		Method:    "card",
		Amount:    receipt.TotalAmount,
	})
	require.NoError(t, err)

	resp, err := f.payments.Refund(ctx, &models.RefundRequest{BookingID: receipt.BookingID})
	require.NoError(t, err)

	assert.Equal(t, receipt.TotalAmount, resp.RefundAmount, "defaults to full total")
	assert.Equal(t, models.BookingRefunded, resp.Status)
	assert.Regexp(t, `^TXN`, resp.RefundTxnID)

	booking, err := f.mem.GetBooking(ctx, receipt.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingRefunded, booking.Status)
	require.NotNil(t, booking.RefundAmount)
	assert.Equal(t, receipt.TotalAmount, *booking.RefundAmount)

	perf, err := f.mem.GetPerformance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, perf.AvailableSeats, "seats resellable after refund")

	// Refunded is terminal.
	_, err = f.payments.Refund(ctx, &models.RefundRequest{BookingID: receipt.BookingID})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
}

func TestPartialRefund(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	receipt := f.createBooking(t, 1, 2)
	_, err := f.payments.Settle(ctx, &models.SettlePaymentRequest{
		BookingID: receipt.BookingID,
		Method:    "card",
		Amount:    receipt.TotalAmount,
	})
	require.NoError(t, err)

	half := receipt.TotalAmount / 2
	resp, err := f.payments.Refund(ctx, &models.RefundRequest{
		BookingID: receipt.BookingID,
		Amount:    &half,
	})
	require.NoError(t, err)
	assert.Equal(t, half, resp.RefundAmount)
}

func TestRefundValidation(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	receipt := f.createBooking(t, 1)

	// Pending bookings have nothing to refund.
	_, err := f.payments.Refund(ctx, &models.RefundRequest{BookingID: receipt.BookingID})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))

	_, err = f.payments.Settle(ctx, &models.SettlePaymentRequest{
		BookingID: receipt.BookingID,
		Method:    "card",
		Amount:    receipt.TotalAmount,
	})
	require.NoError(t, err)

	tooMuch := receipt.TotalAmount * 2
	_, err = f.payments.Refund(ctx, &models.RefundRequest{
		BookingID: receipt.BookingID,
		Amount:    &tooMuch,
	})
	assert.True(t, errors.Is(err, apperrors.ErrAmountMismatch))

	_, err = f.payments.Refund(ctx, &models.RefundRequest{BookingID: 4242})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
