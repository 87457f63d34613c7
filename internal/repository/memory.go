package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/models"
)

// Memory is an in-process store implementing every repository interface with
// the same transition semantics as the Postgres implementations. One mutex
// serializes all mutations, mirroring the row-lock serialization the database
// gives the SQL paths. Used by tests and by local runs without Postgres.
type Memory struct {
	mu sync.Mutex

	users        map[int64]*models.User
	shows        map[int64]*models.Show
	venues       map[int64]*models.Venue
	seats        map[int64]*models.Seat
	performances map[int64]*models.Performance
	pricing      map[int64]map[string]models.Money
	bookings     map[int64]*models.Booking
	lineItems    map[int64][]models.LineItem
	payments     map[int64][]*models.Payment

	nextBookingID  int64
	nextLineItemID int64
	nextPaymentID  int64
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[int64]*models.User),
		shows:        make(map[int64]*models.Show),
		venues:       make(map[int64]*models.Venue),
		seats:        make(map[int64]*models.Seat),
		performances: make(map[int64]*models.Performance),
		pricing:      make(map[int64]map[string]models.Money),
		bookings:     make(map[int64]*models.Booking),
		lineItems:    make(map[int64][]models.LineItem),
		payments:     make(map[int64][]*models.Payment),
	}
}

// Seed helpers for tests and local fixtures.

func (m *Memory) AddUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.UserID] = &u
}

func (m *Memory) AddShow(s models.Show) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shows[s.ShowID] = &s
}

func (m *Memory) AddVenue(v models.Venue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.venues[v.VenueID] = &v
}

func (m *Memory) AddSeat(s models.Seat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seats[s.SeatID] = &s
}

func (m *Memory) AddPerformance(p models.Performance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.performances[p.PerformanceID] = &p
}

func (m *Memory) SetPrice(performanceID int64, category string, price models.Money) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pricing[performanceID] == nil {
		m.pricing[performanceID] = make(map[string]models.Money)
	}
	m.pricing[performanceID][category] = price
}

// PerformanceStore

func (m *Memory) GetPerformance(ctx context.Context, id int64) (*models.Performance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	perf, ok := m.performances[id]
	if !ok {
		return nil, nil
	}
	copy := *perf
	return &copy, nil
}

func (m *Memory) ListPerformances(ctx context.Context) ([]models.ListPerformancesResponseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var items []models.ListPerformancesResponseItem
	for _, perf := range m.performances {
		item := models.ListPerformancesResponseItem{
			PerformanceID:  perf.PerformanceID,
			ShowID:         perf.ShowID,
			StartsAt:       perf.StartsAt,
			Status:         perf.Status,
			TotalSeats:     perf.TotalSeats,
			AvailableSeats: perf.AvailableSeats,
		}
		if show, ok := m.shows[perf.ShowID]; ok {
			item.ShowTitle = show.Title
		}
		if venue, ok := m.venues[perf.VenueID]; ok {
			item.VenueName = venue.VenueName
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].StartsAt.Before(items[j].StartsAt) })
	return items, nil
}

func (m *Memory) PerformanceContext(ctx context.Context, id int64) (*PerformanceContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	perf, ok := m.performances[id]
	if !ok {
		return nil, nil
	}
	pc := &PerformanceContext{StartsAt: perf.StartsAt}
	if show, ok := m.shows[perf.ShowID]; ok {
		pc.ShowTitle = show.Title
	}
	if venue, ok := m.venues[perf.VenueID]; ok {
		pc.VenueName = venue.VenueName
		pc.VenueAddress = venue.AddressLine1 + ", " + venue.City
	}
	return pc, nil
}

// SeatStore

func (m *Memory) GetSeats(ctx context.Context, venueID int64, seatIDs []int64) ([]models.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var seats []models.Seat
	for _, id := range seatIDs {
		seat, ok := m.seats[id]
		if !ok || seat.VenueID != venueID {
			continue
		}
		seats = append(seats, *seat)
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].SeatID < seats[j].SeatID })
	return seats, nil
}

func (m *Memory) ListSeatMap(ctx context.Context, performanceID int64) ([]models.ListSeatsResponseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	perf, ok := m.performances[performanceID]
	if !ok {
		return nil, nil
	}

	occupied := m.occupiedSeatsLocked(performanceID)

	var items []models.ListSeatsResponseItem
	for _, seat := range m.seats {
		if seat.VenueID != perf.VenueID || !seat.IsActive {
			continue
		}
		item := models.ListSeatsResponseItem{
			SeatID:     seat.SeatID,
			Row:        seat.RowNumber,
			SeatNumber: seat.SeatNumber,
			Category:   seat.Category,
			Occupied:   occupied[seat.SeatID],
		}
		if prices, ok := m.pricing[performanceID]; ok {
			if price, ok := prices[seat.Category]; ok {
				p := price
				item.Price = &p
			}
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Row != items[j].Row {
			return items[i].Row < items[j].Row
		}
		return items[i].SeatNumber < items[j].SeatNumber
	})
	return items, nil
}

// occupiedSeatsLocked derives the live occupancy set from Pending/Confirmed
// bookings. Callers must hold m.mu.
func (m *Memory) occupiedSeatsLocked(performanceID int64) map[int64]bool {
	occupied := make(map[int64]bool)
	for _, booking := range m.bookings {
		if booking.PerformanceID != performanceID {
			continue
		}
		if booking.Status != models.BookingPending && booking.Status != models.BookingConfirmed {
			continue
		}
		for _, item := range m.lineItems[booking.BookingID] {
			occupied[item.SeatID] = true
		}
	}
	return occupied
}

// PricingStore

func (m *Memory) PriceFor(ctx context.Context, performanceID int64, category string) (models.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prices, ok := m.pricing[performanceID]; ok {
		if price, ok := prices[category]; ok {
			return price, nil
		}
	}
	return 0, fmt.Errorf("category %q for performance %d: %w",
		category, performanceID, apperrors.ErrPricingNotConfigured)
}

// BookingStore

func (m *Memory) CreateWithLineItems(ctx context.Context, booking *models.Booking, items []models.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	perf, ok := m.performances[booking.PerformanceID]
	if !ok {
		return fmt.Errorf("performance %d: %w", booking.PerformanceID, apperrors.ErrNotFound)
	}
	if perf.Status != models.PerformanceScheduled {
		return fmt.Errorf("performance %d is %s: %w", booking.PerformanceID, perf.Status, apperrors.ErrInvalidState)
	}

	occupied := m.occupiedSeatsLocked(booking.PerformanceID)
	var conflict int64 = -1
	for _, item := range items {
		if occupied[item.SeatID] && (conflict < 0 || item.SeatID < conflict) {
			conflict = item.SeatID
		}
	}
	if conflict >= 0 {
		return &apperrors.SeatConflictError{SeatID: conflict}
	}

	m.nextBookingID++
	booking.BookingID = m.nextBookingID
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	stored := *booking
	m.bookings[booking.BookingID] = &stored

	list := make([]models.LineItem, len(items))
	for i := range items {
		m.nextLineItemID++
		items[i].LineItemID = m.nextLineItemID
		items[i].BookingID = booking.BookingID
		list[i] = items[i]
	}
	m.lineItems[booking.BookingID] = list

	perf.AvailableSeats -= len(items)
	perf.UpdatedAt = now
	return nil
}

func (m *Memory) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	booking, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	copy := *booking
	return &copy, nil
}

func (m *Memory) GetBookingByReference(ctx context.Context, ref string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, booking := range m.bookings {
		if booking.Reference == ref {
			copy := *booking
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListBookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bookings []models.Booking
	for _, booking := range m.bookings {
		if booking.UserID == userID {
			bookings = append(bookings, *booking)
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return bookings, nil
}

func (m *Memory) GetLineItems(ctx context.Context, bookingID int64) ([]models.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]models.LineItem, len(m.lineItems[bookingID]))
	copy(items, m.lineItems[bookingID])
	sort.Slice(items, func(i, j int) bool { return items[i].SeatID < items[j].SeatID })
	return items, nil
}

func (m *Memory) ConfirmPending(ctx context.Context, bookingID int64, payment *models.Payment, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	booking, ok := m.bookings[bookingID]
	if !ok || booking.Status != models.BookingPending {
		return fmt.Errorf("booking %d cannot be settled: %w", bookingID, apperrors.ErrInvalidState)
	}
	if booking.PaymentDeadline != nil && !booking.PaymentDeadline.After(now) {
		return fmt.Errorf("booking %d cannot be settled: %w", bookingID, apperrors.ErrInvalidState)
	}

	booking.Status = models.BookingConfirmed
	booking.UpdatedAt = time.Now()

	m.nextPaymentID++
	payment.PaymentID = m.nextPaymentID
	payment.BookingID = bookingID
	payment.Status = models.PaymentCompleted
	payment.CreatedAt = time.Now()

	stored := *payment
	m.payments[bookingID] = append(m.payments[bookingID], &stored)
	return nil
}

func (m *Memory) ReleaseSeats(ctx context.Context, bookingID int64, from []string) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	booking, ok := m.bookings[bookingID]
	if !ok {
		return false, 0, nil
	}
	matched := false
	for _, status := range from {
		if booking.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return false, 0, nil
	}
	return true, m.cancelLocked(booking), nil
}

func (m *Memory) ExpirePending(ctx context.Context, bookingID int64, now time.Time) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	booking, ok := m.bookings[bookingID]
	if !ok || booking.Status != models.BookingPending {
		return false, 0, nil
	}
	if booking.PaymentDeadline == nil || booking.PaymentDeadline.After(now) {
		return false, 0, nil
	}
	return true, m.cancelLocked(booking), nil
}

// cancelLocked performs the status flip and availability restore shared by
// ReleaseSeats and ExpirePending. Callers must hold m.mu.
func (m *Memory) cancelLocked(booking *models.Booking) int {
	now := time.Now()
	booking.Status = models.BookingCancelled
	booking.CancelledAt = &now
	booking.UpdatedAt = now

	seats := len(m.lineItems[booking.BookingID])
	if perf, ok := m.performances[booking.PerformanceID]; ok {
		perf.AvailableSeats += seats
		perf.UpdatedAt = now
	}
	return seats
}

func (m *Memory) RefundConfirmed(ctx context.Context, bookingID int64, amount models.Money, refundTxnID string, paymentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	booking, ok := m.bookings[bookingID]
	if !ok || booking.Status != models.BookingConfirmed {
		return fmt.Errorf("booking %d cannot be refunded: %w", bookingID, apperrors.ErrInvalidState)
	}

	var payment *models.Payment
	for _, p := range m.payments[bookingID] {
		if p.PaymentID == paymentID && p.Status == models.PaymentCompleted {
			payment = p
			break
		}
	}
	if payment == nil {
		return fmt.Errorf("payment %d: %w", paymentID, apperrors.ErrNoCompletedPayment)
	}

	now := time.Now()
	booking.Status = models.BookingRefunded
	booking.RefundAmount = &amount
	booking.CancelledAt = &now
	booking.UpdatedAt = now

	payment.Status = models.PaymentRefunded
	payment.RefundTxnID = &refundTxnID
	payment.RefundedAt = &now

	seats := len(m.lineItems[bookingID])
	if perf, ok := m.performances[booking.PerformanceID]; ok {
		perf.AvailableSeats += seats
		perf.UpdatedAt = now
	}
	return nil
}

func (m *Memory) ListExpiredPending(ctx context.Context, now time.Time) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bookings []models.Booking
	for _, booking := range m.bookings {
		if booking.Status != models.BookingPending {
			continue
		}
		if booking.PaymentDeadline == nil || booking.PaymentDeadline.After(now) {
			continue
		}
		bookings = append(bookings, *booking)
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].PaymentDeadline.Before(*bookings[j].PaymentDeadline)
	})
	return bookings, nil
}

// PaymentStore

func (m *Memory) RecordFailedPayment(ctx context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextPaymentID++
	payment.PaymentID = m.nextPaymentID
	payment.Status = models.PaymentFailed
	payment.CreatedAt = time.Now()

	stored := *payment
	m.payments[payment.BookingID] = append(m.payments[payment.BookingID], &stored)
	return nil
}

func (m *Memory) GetCompletedByBooking(ctx context.Context, bookingID int64) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.payments[bookingID]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Status == models.PaymentCompleted {
			copy := *list[i]
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListByBooking(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var payments []models.Payment
	for _, p := range m.payments[bookingID] {
		payments = append(payments, *p)
	}
	return payments, nil
}

// UserStore

func (m *Memory) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copy := *user
	return &copy, nil
}

func (m *Memory) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, nil
}
