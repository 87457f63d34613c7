package repository

import (
	"context"
	"time"

	"stagedoor/internal/models"
)

// PerformanceContext carries the show/venue fields a booking receipt displays.
type PerformanceContext struct {
	ShowTitle    string
	StartsAt     time.Time
	VenueName    string
	VenueAddress string
}

// PerformanceStore reads the performance schedule. Availability counters are
// never written through this interface; they move only inside BookingStore
// transactions.
type PerformanceStore interface {
	GetPerformance(ctx context.Context, id int64) (*models.Performance, error)
	ListPerformances(ctx context.Context) ([]models.ListPerformancesResponseItem, error)
	PerformanceContext(ctx context.Context, id int64) (*PerformanceContext, error)
}

// SeatStore reads venue seats and the live seat map.
type SeatStore interface {
	GetSeats(ctx context.Context, venueID int64, seatIDs []int64) ([]models.Seat, error)
	ListSeatMap(ctx context.Context, performanceID int64) ([]models.ListSeatsResponseItem, error)
}

// PricingStore is the pricing resolver: (performance, seat category) → price.
// Returns ErrPricingNotConfigured when no price row exists for the pair.
type PricingStore interface {
	PriceFor(ctx context.Context, performanceID int64, category string) (models.Money, error)
}

// BookingStore owns every seat-occupancy mutation. Each method that moves a
// booking between states runs as one transaction that pairs the status change
// with its availability-counter adjustment, so the occupancy ledger and the
// counter can never drift apart.
type BookingStore interface {
	// CreateWithLineItems atomically checks the requested seats against all
	// Pending/Confirmed bookings for the performance, inserts the booking and
	// its line items, and decrements available_seats. On contention it returns
	// a SeatConflictError naming the lowest conflicting seat id and persists
	// nothing.
	CreateWithLineItems(ctx context.Context, booking *models.Booking, items []models.LineItem) error

	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, ref string) (*models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error)
	GetLineItems(ctx context.Context, bookingID int64) ([]models.LineItem, error)

	// ConfirmPending transitions Pending→Confirmed and records the completed
	// payment in the same transaction. The transition is conditional on the
	// booking still being Pending with an unexpired deadline as of now;
	// losing that race yields ErrInvalidState and no side effects.
	ConfirmPending(ctx context.Context, bookingID int64, payment *models.Payment, now time.Time) error

	// ReleaseSeats transitions the booking to Cancelled if its status is in
	// from, restoring available_seats by the booking's seat count. A second
	// call finds no matching row and reports released=false without touching
	// the counter.
	ReleaseSeats(ctx context.Context, bookingID int64, from []string) (released bool, seats int, err error)

	// ExpirePending is the reaper's release: it only fires for Pending
	// bookings whose payment_deadline is at or before now.
	ExpirePending(ctx context.Context, bookingID int64, now time.Time) (released bool, seats int, err error)

	// RefundConfirmed transitions Confirmed→Refunded, marks the completed
	// payment Refunded and restores availability, all in one transaction.
	RefundConfirmed(ctx context.Context, bookingID int64, amount models.Money, refundTxnID string, paymentID int64) error

	ListExpiredPending(ctx context.Context, now time.Time) ([]models.Booking, error)
}

// PaymentStore reads settlement history and records failed attempts.
// Completed payments are written by BookingStore.ConfirmPending.
type PaymentStore interface {
	RecordFailedPayment(ctx context.Context, payment *models.Payment) error
	GetCompletedByBooking(ctx context.Context, bookingID int64) (*models.Payment, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]models.Payment, error)
}

// UserStore backs authentication lookups.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
