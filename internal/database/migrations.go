package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createShowsTable,
		createVenuesTable,
		createSeatsTable,
		createPerformancesTable,
		createPerformancePricingTable,
		createBookingsTable,
		createBookingLineItemsTable,
		createPaymentsTable,
		createOccupancyIndexes,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    first_name VARCHAR(100) NOT NULL,
    last_name VARCHAR(100) NOT NULL,
    is_admin BOOLEAN NOT NULL DEFAULT FALSE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    registered_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createShowsTable = `
CREATE TABLE IF NOT EXISTS shows (
    show_id SERIAL PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    description TEXT,
    genre VARCHAR(50) NOT NULL,
    duration_minutes INTEGER NOT NULL,
    language VARCHAR(50),
    age_rating VARCHAR(10),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createVenuesTable = `
CREATE TABLE IF NOT EXISTS venues (
    venue_id SERIAL PRIMARY KEY,
    venue_name VARCHAR(100) NOT NULL,
    address_line1 VARCHAR(100) NOT NULL,
    city VARCHAR(50) NOT NULL,
    country VARCHAR(50) NOT NULL,
    total_capacity INTEGER NOT NULL
);`

const createSeatsTable = `
CREATE TABLE IF NOT EXISTS seats (
    seat_id SERIAL PRIMARY KEY,
    venue_id INTEGER NOT NULL REFERENCES venues(venue_id) ON DELETE CASCADE,
    row_number VARCHAR(10) NOT NULL,
    seat_number VARCHAR(10) NOT NULL,
    seat_category VARCHAR(20) NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,

    UNIQUE(venue_id, row_number, seat_number)
);`

const createPerformancesTable = `
CREATE TABLE IF NOT EXISTS performances (
    performance_id SERIAL PRIMARY KEY,
    show_id INTEGER NOT NULL REFERENCES shows(show_id) ON DELETE CASCADE,
    venue_id INTEGER NOT NULL REFERENCES venues(venue_id),
    starts_at TIMESTAMP NOT NULL,
    total_seats INTEGER NOT NULL,
    available_seats INTEGER NOT NULL,
    performance_status VARCHAR(20) NOT NULL DEFAULT 'Scheduled',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (performance_status IN ('Scheduled', 'Cancelled', 'Completed')),
    CHECK (available_seats >= 0 AND available_seats <= total_seats)
);`

const createPerformancePricingTable = `
CREATE TABLE IF NOT EXISTS performance_pricing (
    pricing_id SERIAL PRIMARY KEY,
    performance_id INTEGER NOT NULL REFERENCES performances(performance_id) ON DELETE CASCADE,
    seat_category VARCHAR(20) NOT NULL,
    price_cents BIGINT NOT NULL,

    UNIQUE(performance_id, seat_category)
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    booking_id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(user_id),
    performance_id INTEGER NOT NULL REFERENCES performances(performance_id),
    booking_reference VARCHAR(20) UNIQUE NOT NULL,
    total_amount_cents BIGINT NOT NULL,
    booking_status VARCHAR(20) NOT NULL DEFAULT 'Pending',
    payment_deadline TIMESTAMP,
    cancelled_at TIMESTAMP,
    refund_amount_cents BIGINT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (booking_status IN ('Pending', 'Confirmed', 'Cancelled', 'Refunded'))
);`

const createBookingLineItemsTable = `
CREATE TABLE IF NOT EXISTS booking_line_items (
    line_item_id SERIAL PRIMARY KEY,
    booking_id INTEGER NOT NULL REFERENCES bookings(booking_id) ON DELETE CASCADE,
    seat_id INTEGER NOT NULL REFERENCES seats(seat_id),
    row_number VARCHAR(10) NOT NULL,
    seat_number VARCHAR(10) NOT NULL,
    seat_category VARCHAR(20) NOT NULL,
    unit_price_cents BIGINT NOT NULL,

    UNIQUE(booking_id, seat_id)
);`

const createPaymentsTable = `
CREATE TABLE IF NOT EXISTS payments (
    payment_id SERIAL PRIMARY KEY,
    booking_id INTEGER NOT NULL REFERENCES bookings(booking_id),
    amount_cents BIGINT NOT NULL,
    payment_method VARCHAR(50) NOT NULL,
    payment_status VARCHAR(20) NOT NULL,
    transaction_id VARCHAR(100) NOT NULL,
    refund_transaction_id VARCHAR(100),
    refunded_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (payment_status IN ('Completed', 'Failed', 'Refunded'))
);`

const createOccupancyIndexes = `
CREATE INDEX IF NOT EXISTS bookings_performance_status_idx
ON bookings (performance_id, booking_status);
CREATE INDEX IF NOT EXISTS bookings_deadline_idx
ON bookings (payment_deadline) WHERE booking_status = 'Pending';
CREATE INDEX IF NOT EXISTS line_items_seat_idx
ON booking_line_items (seat_id);`
