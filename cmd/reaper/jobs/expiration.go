package jobs

import (
	"context"
	"log/slog"
	"time"

	"stagedoor/internal/service"
)

// ExpirationJob sweeps expired Pending bookings on a fixed interval.
type ExpirationJob struct {
	bookings *service.BookingService
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
}

func NewExpirationJob(bookings *service.BookingService, interval time.Duration) *ExpirationJob {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ExpirationJob{
		bookings: bookings,
		interval: interval,
		done:     make(chan bool),
	}
}

// Start begins the background sweep loop. The first sweep runs immediately.
func (j *ExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting booking expiration job", "check_interval", j.interval)

	j.ticker = time.NewTicker(j.interval)

	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				j.sweep(ctx)
			case <-j.done:
				slog.Info("Booking expiration job stopped")
				return
			}
		}
	}()
}

func (j *ExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *ExpirationJob) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, j.interval)
	defer cancel()

	reclaimed, err := j.bookings.SweepExpired(sweepCtx)
	if err != nil {
		slog.Error("Sweep failed", "error", err)
		return
	}

	if reclaimed > 0 {
		slog.Info("Reclaimed expired bookings", "count", reclaimed)
	} else {
		slog.Debug("No expired bookings found")
	}
}
