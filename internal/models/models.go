package models

import "time"

// CreateBookingRequest - request body for POST /api/bookings
type CreateBookingRequest struct {
	PerformanceID int64   `json:"performance_id" binding:"required"`
	SeatIDs       []int64 `json:"seat_ids" binding:"required,min=1"`
}

// BookingSeat - one seat line on a booking receipt
type BookingSeat struct {
	SeatID     int64  `json:"seat_id"`
	Row        string `json:"row"`
	SeatNumber string `json:"seat_number"`
	Category   string `json:"category"`
	Price      Money  `json:"price"`
}

// BookingReceipt - response for booking creation and lookups, with the
// show/venue context needed for receipt display
type BookingReceipt struct {
	BookingID       int64         `json:"booking_id"`
	Reference       string        `json:"reference"`
	Status          string        `json:"status"`
	TotalAmount     Money         `json:"total_amount"`
	PaymentDeadline *time.Time    `json:"payment_deadline,omitempty"`
	ShowTitle       string        `json:"show_title"`
	PerformanceAt   time.Time     `json:"performance_at"`
	VenueName       string        `json:"venue_name"`
	VenueAddress    string        `json:"venue_address"`
	Seats           []BookingSeat `json:"seats"`
}

// ListBookingsResponseItem - element of the caller's booking list
type ListBookingsResponseItem struct {
	BookingID     int64  `json:"booking_id"`
	Reference     string `json:"reference"`
	PerformanceID int64  `json:"performance_id"`
	Status        string `json:"status"`
	TotalAmount   Money  `json:"total_amount"`
}

// CancelBookingRequest - request body for PATCH /api/bookings/cancel
type CancelBookingRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

// SettlePaymentRequest - request body for POST /api/payments
type SettlePaymentRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Method    string `json:"method" binding:"required"`
	Amount    Money  `json:"amount" binding:"required"`
}

// SettlePaymentResponse - recorded payment for a settled booking
type SettlePaymentResponse struct {
	PaymentID     int64  `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Amount        Money  `json:"amount"`
}

// RefundRequest - request body for POST /api/payments/refund. Amount is
// optional; the caller applies any time-window refund policy and omitting it
// refunds the full booking total.
type RefundRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Amount    *Money `json:"amount,omitempty"`
}

// RefundResponse - result of a refund
type RefundResponse struct {
	BookingID    int64  `json:"booking_id"`
	RefundAmount Money  `json:"refund_amount"`
	RefundTxnID  string `json:"refund_transaction_id"`
	Status       string `json:"status"`
}

// SweepResponse - result of an expired-booking sweep
type SweepResponse struct {
	Reclaimed int `json:"reclaimed"`
}

// ListSeatsResponseItem - seat map entry with live availability
type ListSeatsResponseItem struct {
	SeatID     int64  `json:"seat_id"`
	Row        string `json:"row"`
	SeatNumber string `json:"seat_number"`
	Category   string `json:"category"`
	Price      *Money `json:"price,omitempty"`
	Occupied   bool   `json:"occupied"`
}

// ListPerformancesResponseItem - schedule entry
type ListPerformancesResponseItem struct {
	PerformanceID  int64     `json:"performance_id"`
	ShowID         int64     `json:"show_id"`
	ShowTitle      string    `json:"show_title"`
	VenueName      string    `json:"venue_name"`
	StartsAt       time.Time `json:"starts_at"`
	Status         string    `json:"status"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
}

// ShowSearchResponseItem - catalog search hit
type ShowSearchResponseItem struct {
	ShowID          int64  `json:"show_id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Genre           string `json:"genre"`
	DurationMinutes int    `json:"duration_minutes"`
}
