package models

import (
	"strconv"
	"time"
)

// Performance statuses.
const (
	PerformanceScheduled = "Scheduled"
	PerformanceCancelled = "Cancelled"
	PerformanceCompleted = "Completed"
)

// Booking statuses. Pending and Confirmed hold seats; Cancelled and Refunded
// are terminal.
const (
	BookingPending   = "Pending"
	BookingConfirmed = "Confirmed"
	BookingCancelled = "Cancelled"
	BookingRefunded  = "Refunded"
)

// Payment statuses.
const (
	PaymentCompleted = "Completed"
	PaymentFailed    = "Failed"
	PaymentRefunded  = "Refunded"
)

// User represents a user in the system
type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// Show is a theatre production; performances are its scheduled stagings.
type Show struct {
	ShowID          int64     `json:"show_id" db:"show_id"`
	Title           string    `json:"title" db:"title"`
	Description     *string   `json:"description" db:"description"`
	Genre           string    `json:"genre" db:"genre"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	Language        *string   `json:"language" db:"language"`
	AgeRating       *string   `json:"age_rating" db:"age_rating"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Venue owns seats; performances reference it.
type Venue struct {
	VenueID       int64  `json:"venue_id" db:"venue_id"`
	VenueName     string `json:"venue_name" db:"venue_name"`
	AddressLine1  string `json:"address_line1" db:"address_line1"`
	City          string `json:"city" db:"city"`
	Country       string `json:"country" db:"country"`
	TotalCapacity int    `json:"total_capacity" db:"total_capacity"`
}

// Seat is a physical venue seat. Immutable apart from the active flag.
type Seat struct {
	SeatID     int64  `json:"seat_id" db:"seat_id"`
	VenueID    int64  `json:"venue_id" db:"venue_id"`
	RowNumber  string `json:"row_number" db:"row_number"`
	SeatNumber string `json:"seat_number" db:"seat_number"`
	Category   string `json:"category" db:"seat_category"`
	IsActive   bool   `json:"is_active" db:"is_active"`
}

// Performance is one scheduled staging of a show at a venue.
//
// AvailableSeats is owned by the booking core: it always equals TotalSeats
// minus the seats held by Pending/Confirmed bookings, and is only mutated
// inside the same transaction as the occupancy change it accounts for.
type Performance struct {
	PerformanceID  int64     `json:"performance_id" db:"performance_id"`
	ShowID         int64     `json:"show_id" db:"show_id"`
	VenueID        int64     `json:"venue_id" db:"venue_id"`
	StartsAt       time.Time `json:"starts_at" db:"starts_at"`
	TotalSeats     int       `json:"total_seats" db:"total_seats"`
	AvailableSeats int       `json:"available_seats" db:"available_seats"`
	Status         string    `json:"status" db:"performance_status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Booking reserves N seats for one performance by one user. Its line items,
// reference and total are fixed at creation and never recomputed.
type Booking struct {
	BookingID        int64      `json:"booking_id" db:"booking_id"`
	UserID           int64      `json:"user_id" db:"user_id"`
	PerformanceID    int64      `json:"performance_id" db:"performance_id"`
	Reference        string     `json:"reference" db:"booking_reference"`
	TotalAmount      Money      `json:"total_amount" db:"total_amount_cents"`
	Status           string     `json:"status" db:"booking_status"`
	PaymentDeadline  *time.Time `json:"payment_deadline" db:"payment_deadline"`
	CancelledAt      *time.Time `json:"cancelled_at" db:"cancelled_at"`
	RefundAmount     *Money     `json:"refund_amount" db:"refund_amount_cents"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
	LineItems        []LineItem `json:"line_items,omitempty"` // Not from the bookings table, filled separately
}

// LineItem is one seat's price-locked entry within a booking. The unit price
// comes from the pricing resolver at creation time and is never re-derived.
type LineItem struct {
	LineItemID int64  `json:"line_item_id" db:"line_item_id"`
	BookingID  int64  `json:"booking_id" db:"booking_id"`
	SeatID     int64  `json:"seat_id" db:"seat_id"`
	RowNumber  string `json:"row_number" db:"row_number"`
	SeatNumber string `json:"seat_number" db:"seat_number"`
	Category   string `json:"category" db:"seat_category"`
	UnitPrice  Money  `json:"unit_price" db:"unit_price_cents"`
}

// Payment is one settlement attempt against a booking. A booking may carry
// several Failed attempts but at most one Completed payment that is not
// later Refunded.
type Payment struct {
	PaymentID     int64      `json:"payment_id" db:"payment_id"`
	BookingID     int64      `json:"booking_id" db:"booking_id"`
	Amount        Money      `json:"amount" db:"amount_cents"`
	Method        string     `json:"method" db:"payment_method"`
	Status        string     `json:"status" db:"payment_status"`
	TransactionID string     `json:"transaction_id" db:"transaction_id"`
	RefundTxnID   *string    `json:"refund_transaction_id" db:"refund_transaction_id"`
	RefundedAt    *time.Time `json:"refunded_at" db:"refunded_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// QRPayload is the string encoded into the ticket QR code for gate validation.
func (b *Booking) QRPayload() string {
	return "THEATRE_BOOKING:" + b.Reference + ":" + strconv.FormatInt(b.BookingID, 10)
}
