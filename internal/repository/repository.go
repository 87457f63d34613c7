package repository

import (
	"stagedoor/internal/database"
)

// Repositories bundles the store implementations handed to the service layer.
type Repositories struct {
	Performances PerformanceStore
	Seats        SeatStore
	Pricing      PricingStore
	Bookings     BookingStore
	Payments     PaymentStore
	Users        UserStore
}

// NewRepositories wires the Postgres-backed stores.
func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Performances: NewPerformanceRepository(db),
		Seats:        NewSeatRepository(db),
		Pricing:      NewPricingRepository(db),
		Bookings:     NewBookingRepository(db),
		Payments:     NewPaymentRepository(db),
		Users:        NewUserRepository(db),
	}
}

// NewMemoryRepositories backs every store with one shared in-memory instance.
func NewMemoryRepositories(mem *Memory) *Repositories {
	return &Repositories{
		Performances: mem,
		Seats:        mem,
		Pricing:      mem,
		Bookings:     mem,
		Payments:     mem,
		Users:        mem,
	}
}
