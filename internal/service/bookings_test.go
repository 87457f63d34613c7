package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/models"
	"stagedoor/internal/reference"
	"stagedoor/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *repository.Memory {
	t.Helper()

	mem := repository.NewMemory()
	mem.AddUser(models.User{UserID: 1, Email: "alice@example.com", IsActive: true})
	mem.AddUser(models.User{UserID: 2, Email: "bob@example.com", IsActive: true})
	mem.AddShow(models.Show{ShowID: 1, Title: "The Phantom Waltz", Genre: "musical", DurationMinutes: 150})
	mem.AddVenue(models.Venue{VenueID: 1, VenueName: "Grand Majestic", AddressLine1: "12 Curtain Lane", City: "London"})

	for i := int64(1); i <= 10; i++ {
		category := "standard"
		if i <= 3 {
			category = "premium"
		}
		mem.AddSeat(models.Seat{
			SeatID: i, VenueID: 1, RowNumber: "A", SeatNumber: strconv.FormatInt(i, 10),
			Category: category, IsActive: true,
		})
	}
	mem.AddSeat(models.Seat{SeatID: 99, VenueID: 1, RowNumber: "Z", SeatNumber: "1", Category: "standard", IsActive: false})

	mem.AddPerformance(models.Performance{
		PerformanceID: 1, ShowID: 1, VenueID: 1,
		StartsAt:   time.Now().Add(72 * time.Hour),
		TotalSeats: 10, AvailableSeats: 10,
		Status: models.PerformanceScheduled,
	})
	mem.SetPrice(1, "premium", 12500)
	mem.SetPrice(1, "standard", 7500)

	return mem
}

func newBookingService(mem *repository.Memory) *BookingService {
	repos := repository.NewMemoryRepositories(mem)
	return NewBookingService(repos, nil, reference.NewGenerator(), 15*time.Minute)
}

func TestCreateBooking(t *testing.T) {
	svc := newBookingService(newTestStore(t))

	receipt, err := svc.Create(context.Background(), 1, &models.CreateBookingRequest{
		PerformanceID: 1,
		SeatIDs:       []int64{1, 5},
	})
	require.NoError(t, err)

	assert.Equal(t, models.BookingPending, receipt.Status)
	assert.Regexp(t, `^THR-\d{8}-[A-Z0-9]{5}$`, receipt.Reference)
	assert.Equal(t, models.Money(12500+7500), receipt.TotalAmount)
	assert.Len(t, receipt.Seats, 2)
	assert.Equal(t, "The Phantom Waltz", receipt.ShowTitle)
	require.NotNil(t, receipt.PaymentDeadline)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), *receipt.PaymentDeadline, 5*time.Second)
}

func TestCreateBookingDuplicateSeatIDsCollapse(t *testing.T) {
	mem := newTestStore(t)
	svc := newBookingService(mem)

	receipt, err := svc.Create(context.Background(), 1, &models.CreateBookingRequest{
		PerformanceID: 1,
		SeatIDs:       []int64{4, 4, 4},
	})
	require.NoError(t, err)

	assert.Len(t, receipt.Seats, 1)
	assert.Equal(t, models.Money(7500), receipt.TotalAmount)

	perf, err := mem.GetPerformance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 9, perf.AvailableSeats)
}

func TestCreateBookingSeatConflict(t *testing.T) {
	svc := newBookingService(newTestStore(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{2, 3}})
	require.NoError(t, err)

	_, err = svc.Create(ctx, 2, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{3, 4}})
	require.Error(t, err)

	var conflict *apperrors.SeatConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, int64(3), conflict.SeatID)
	assert.True(t, errors.Is(err, apperrors.ErrSeatConflict))
}

func TestCreateBookingConcurrentSingleSeat(t *testing.T) {
	mem := newTestStore(t)
	svc := newBookingService(mem)
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, int64(i%2+1), &models.CreateBookingRequest{
				PerformanceID: 1,
				SeatIDs:       []int64{7},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, apperrors.ErrSeatConflict))
		}
	}
	assert.Equal(t, 1, succeeded)

	perf, err := mem.GetPerformance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 9, perf.AvailableSeats)
}

func TestCreateBookingValidation(t *testing.T) {
	svc := newBookingService(newTestStore(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, &models.CreateBookingRequest{PerformanceID: 42, SeatIDs: []int64{1}})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "unknown performance")

	_, err = svc.Create(ctx, 1, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{12345}})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "unknown seat")

	_, err = svc.Create(ctx, 1, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{99}})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState), "inactive seat")
}

func TestCreateBookingPricingNotConfigured(t *testing.T) {
	mem := newTestStore(t)
	mem.AddSeat(models.Seat{SeatID: 50, VenueID: 1, RowNumber: "B", SeatNumber: "1", Category: "box", IsActive: true})
	svc := newBookingService(mem)

	_, err := svc.Create(context.Background(), 1, &models.CreateBookingRequest{
		PerformanceID: 1,
		SeatIDs:       []int64{50},
	})
	assert.True(t, errors.Is(err, apperrors.ErrPricingNotConfigured))

	// Nothing was held.
	perf, perr := mem.GetPerformance(context.Background(), 1)
	require.NoError(t, perr)
	assert.Equal(t, 10, perf.AvailableSeats)
}

func TestPriceLockedAtCreation(t *testing.T) {
	mem := newTestStore(t)
	svc := newBookingService(mem)
	ctx := context.Background()

	receipt, err := svc.Create(ctx, 1, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{1}})
	require.NoError(t, err)
	require.Equal(t, models.Money(12500), receipt.TotalAmount)

	// A later repricing must not touch the stored line items.
	mem.SetPrice(1, "premium", 20000)

	again, err := svc.Get(ctx, receipt.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.Money(12500), again.TotalAmount)
	assert.Equal(t, models.Money(12500), again.Seats[0].Price)
}

func TestCancelBooking(t *testing.T) {
	mem := newTestStore(t)
	svc := newBookingService(mem)
	ctx := context.Background()

	receipt, err := svc.Create(ctx, 1, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{1, 2}})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, 1, receipt.BookingID))

	perf, err := mem.GetPerformance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, perf.AvailableSeats, "seats returned to inventory")

	// A second cancel finds the booking terminal.
	err = svc.Cancel(ctx, 1, receipt.BookingID)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))

	perf, err = mem.GetPerformance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, perf.AvailableSeats, "availability restored exactly once")
}

func TestCancelBookingNotOwner(t *testing.T) {
	svc := newBookingService(newTestStore(t))
	ctx := context.Background()

	receipt, err := svc.Create(ctx, 1, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{1}})
	require.NoError(t, err)

	err = svc.Cancel(ctx, 2, receipt.BookingID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCancelFreesSeatForRebooking(t *testing.T) {
	svc := newBookingService(newTestStore(t))
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{6}})
	require.NoError(t, err)

	_, err = svc.Create(ctx, 2, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{6}})
	require.True(t, errors.Is(err, apperrors.ErrSeatConflict))

	require.NoError(t, svc.Cancel(ctx, 1, first.BookingID))

	_, err = svc.Create(ctx, 2, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{6}})
	assert.NoError(t, err)
}

func TestSweepExpired(t *testing.T) {
	mem := newTestStore(t)
	svc := newBookingService(mem)
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{1, 2}})
	require.NoError(t, err)
	second, err := svc.Create(ctx, 2, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{3}})
	require.NoError(t, err)

	// Move the clock past both deadlines.
	svc.now = func() time.Time { return second.PaymentDeadline.Add(time.Minute) }

	reclaimed, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, reclaimed)

	perf, err := mem.GetPerformance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, perf.AvailableSeats)

	gone, err := mem.GetBooking(ctx, first.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, gone.Status)
}

func TestSweepSkipsConfirmedAndUnexpired(t *testing.T) {
	mem := newTestStore(t)
	svc := newBookingService(mem)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{1}})
	require.NoError(t, err)

	reclaimed, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed, "deadline not reached yet")
}

func TestListByUser(t *testing.T) {
	svc := newBookingService(newTestStore(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{1}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{2}})
	require.NoError(t, err)

	mine, err := svc.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.BookingPending, mine[0].Status)
}

func TestGetByReference(t *testing.T) {
	svc := newBookingService(newTestStore(t))
	ctx := context.Background()

	receipt, err := svc.Create(ctx, 1, &models.CreateBookingRequest{PerformanceID: 1, SeatIDs: []int64{8}})
	require.NoError(t, err)

	found, err := svc.GetByReference(ctx, receipt.Reference)
	require.NoError(t, err)
	assert.Equal(t, receipt.BookingID, found.BookingID)

	_, err = svc.GetByReference(ctx, "THR-19700101-XXXXX")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
