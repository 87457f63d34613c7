package errors

import (
	"errors"
	"fmt"
)

// Recoverable domain errors. Handlers translate these into HTTP statuses;
// anything else bubbling out of the core is an infrastructure failure.
var (
	ErrNotFound             = errors.New("entity not found")
	ErrInvalidState         = errors.New("operation not allowed in current state")
	ErrSeatConflict         = errors.New("seat already taken")
	ErrPricingNotConfigured = errors.New("no price configured for seat category")
	ErrAmountMismatch       = errors.New("payment amount does not match booking total")
	ErrGatewayDeclined      = errors.New("payment declined by gateway")
	ErrNoCompletedPayment   = errors.New("booking has no completed payment")
)

// SeatConflictError names the first contended seat (ascending seat id) so the
// client can re-render the seat map.
type SeatConflictError struct {
	SeatID int64
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat %d is already booked for this performance", e.SeatID)
}

func (e *SeatConflictError) Unwrap() error {
	return ErrSeatConflict
}
