package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/metrics"
	"stagedoor/internal/models"
	"stagedoor/internal/reference"
	"stagedoor/internal/repository"
)

// BookingService owns the booking lifecycle: creation, lookups, cancellation
// and the expired-booking sweep. All state transitions go through the
// BookingStore, which pairs each one with its availability adjustment.
type BookingService struct {
	repos       *repository.Repositories
	publisher   Publisher
	refs        *reference.Generator
	graceWindow time.Duration

	now func() time.Time
}

func NewBookingService(repos *repository.Repositories, publisher Publisher, refs *reference.Generator, graceWindow time.Duration) *BookingService {
	return &BookingService{
		repos:       repos,
		publisher:   publisher,
		refs:        refs,
		graceWindow: graceWindow,
		now:         time.Now,
	}
}

// Create places a Pending hold on the requested seats. Prices are resolved
// up front and locked into line items; any missing price aborts before seats
// are touched. Duplicate seat ids in the request collapse to one.
func (s *BookingService) Create(ctx context.Context, userID int64, req *models.CreateBookingRequest) (*models.BookingReceipt, error) {
	seatIDs := dedupeSorted(req.SeatIDs)

	perf, err := s.repos.Performances.GetPerformance(ctx, req.PerformanceID)
	if err != nil {
		return nil, err
	}
	if perf == nil {
		return nil, fmt.Errorf("performance %d: %w", req.PerformanceID, apperrors.ErrNotFound)
	}
	if perf.Status != models.PerformanceScheduled {
		return nil, fmt.Errorf("performance %d is %s: %w", perf.PerformanceID, perf.Status, apperrors.ErrInvalidState)
	}

	seats, err := s.repos.Seats.GetSeats(ctx, perf.VenueID, seatIDs)
	if err != nil {
		return nil, err
	}
	if len(seats) != len(seatIDs) {
		return nil, fmt.Errorf("one or more seats do not exist at this venue: %w", apperrors.ErrNotFound)
	}

	var items []models.LineItem
	var total models.Money
	for _, seat := range seats {
		if !seat.IsActive {
			return nil, fmt.Errorf("seat %d is not available for sale: %w", seat.SeatID, apperrors.ErrInvalidState)
		}
		price, err := s.repos.Pricing.PriceFor(ctx, perf.PerformanceID, seat.Category)
		if err != nil {
			return nil, err
		}
		items = append(items, models.LineItem{
			SeatID:     seat.SeatID,
			RowNumber:  seat.RowNumber,
			SeatNumber: seat.SeatNumber,
			Category:   seat.Category,
			UnitPrice:  price,
		})
		total += price
	}

	deadline := s.now().Add(s.graceWindow)
	booking := &models.Booking{
		UserID:          userID,
		PerformanceID:   perf.PerformanceID,
		Reference:       s.refs.Next(),
		TotalAmount:     total,
		Status:          models.BookingPending,
		PaymentDeadline: &deadline,
	}

	if err := s.repos.Bookings.CreateWithLineItems(ctx, booking, items); err != nil {
		if errors.Is(err, apperrors.ErrSeatConflict) {
			metrics.SeatConflictsTotal.Inc()
		}
		return nil, err
	}
	booking.LineItems = items

	metrics.BookingsCreatedTotal.Inc()
	s.publish(models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID:     booking.BookingID,
		Reference:     booking.Reference,
		PerformanceID: booking.PerformanceID,
		UserID:        booking.UserID,
		SeatCount:     len(items),
		TotalAmount:   booking.TotalAmount,
		Timestamp:     s.now(),
	})

	return s.buildReceipt(ctx, booking)
}

// Get returns the booking receipt visible to its owner.
func (s *BookingService) Get(ctx context.Context, bookingID int64) (*models.BookingReceipt, error) {
	booking, err := s.repos.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %d: %w", bookingID, apperrors.ErrNotFound)
	}
	return s.loadReceipt(ctx, booking)
}

func (s *BookingService) GetByReference(ctx context.Context, ref string) (*models.BookingReceipt, error) {
	booking, err := s.repos.Bookings.GetBookingByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", ref, apperrors.ErrNotFound)
	}
	return s.loadReceipt(ctx, booking)
}

func (s *BookingService) ListByUser(ctx context.Context, userID int64) ([]models.ListBookingsResponseItem, error) {
	bookings, err := s.repos.Bookings.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.ListBookingsResponseItem, len(bookings))
	for i, b := range bookings {
		items[i] = models.ListBookingsResponseItem{
			BookingID:     b.BookingID,
			Reference:     b.Reference,
			PerformanceID: b.PerformanceID,
			Status:        b.Status,
			TotalAmount:   b.TotalAmount,
		}
	}
	return items, nil
}

// Cancel releases a Pending or Confirmed booking. Calling it again once the
// booking is terminal returns ErrInvalidState; the seats were released exactly
// once.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID int64) error {
	booking, err := s.repos.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil || booking.UserID != userID {
		return fmt.Errorf("booking %d: %w", bookingID, apperrors.ErrNotFound)
	}

	released, seats, err := s.repos.Bookings.ReleaseSeats(ctx, bookingID,
		[]string{models.BookingPending, models.BookingConfirmed})
	if err != nil {
		return err
	}
	if !released {
		return fmt.Errorf("booking %d is %s: %w", bookingID, booking.Status, apperrors.ErrInvalidState)
	}

	metrics.BookingsCancelledTotal.Inc()
	s.publish(models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID:     bookingID,
		PerformanceID: booking.PerformanceID,
		SeatsReleased: seats,
		Reason:        "user_cancelled",
		Timestamp:     s.now(),
	})

	return nil
}

// SweepExpired reclaims every Pending booking whose payment deadline has
// passed. Each booking is expired individually through the conditional
// transition, so a settlement racing the sweep wins or loses cleanly per
// booking.
func (s *BookingService) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.repos.Bookings.ListExpiredPending(ctx, now)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, booking := range expired {
		released, seats, err := s.repos.Bookings.ExpirePending(ctx, booking.BookingID, now)
		if err != nil {
			slog.Error("Failed to expire booking", "booking_id", booking.BookingID, "error", err)
			continue
		}
		if !released {
			continue
		}

		reclaimed++
		metrics.BookingsExpiredTotal.Inc()
		s.publish(models.EventBookingExpired, models.BookingExpiredEvent{
			BookingID:     booking.BookingID,
			PerformanceID: booking.PerformanceID,
			SeatsReleased: seats,
			Timestamp:     now,
		})
	}

	return reclaimed, nil
}

func (s *BookingService) loadReceipt(ctx context.Context, booking *models.Booking) (*models.BookingReceipt, error) {
	items, err := s.repos.Bookings.GetLineItems(ctx, booking.BookingID)
	if err != nil {
		return nil, err
	}
	booking.LineItems = items
	return s.buildReceipt(ctx, booking)
}

func (s *BookingService) buildReceipt(ctx context.Context, booking *models.Booking) (*models.BookingReceipt, error) {
	pc, err := s.repos.Performances.PerformanceContext(ctx, booking.PerformanceID)
	if err != nil {
		return nil, err
	}
	if pc == nil {
		pc = &repository.PerformanceContext{}
	}

	seats := make([]models.BookingSeat, len(booking.LineItems))
	for i, item := range booking.LineItems {
		seats[i] = models.BookingSeat{
			SeatID:     item.SeatID,
			Row:        item.RowNumber,
			SeatNumber: item.SeatNumber,
			Category:   item.Category,
			Price:      item.UnitPrice,
		}
	}

	return &models.BookingReceipt{
		BookingID:       booking.BookingID,
		Reference:       booking.Reference,
		Status:          booking.Status,
		TotalAmount:     booking.TotalAmount,
		PaymentDeadline: booking.PaymentDeadline,
		ShowTitle:       pc.ShowTitle,
		PerformanceAt:   pc.StartsAt,
		VenueName:       pc.VenueName,
		VenueAddress:    pc.VenueAddress,
		Seats:           seats,
	}, nil
}

func (s *BookingService) publish(subject string, event interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(subject, event); err != nil {
		slog.Error("Failed to publish event", "subject", subject, "error", err)
	}
}

func dedupeSorted(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
