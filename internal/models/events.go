package models

import "time"

// Subjects for booking lifecycle events published to NATS Streaming.
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingExpired   = "booking.expired"
	EventBookingRefunded  = "booking.refunded"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
)

// BookingCreatedEvent is published after a Pending booking commits.
type BookingCreatedEvent struct {
	BookingID     int64     `json:"booking_id"`
	Reference     string    `json:"reference"`
	PerformanceID int64     `json:"performance_id"`
	UserID        int64     `json:"user_id"`
	SeatCount     int       `json:"seat_count"`
	TotalAmount   Money     `json:"total_amount"`
	Timestamp     time.Time `json:"timestamp"`
}

// BookingConfirmedEvent is published after settlement succeeds.
type BookingConfirmedEvent struct {
	BookingID     int64     `json:"booking_id"`
	Reference     string    `json:"reference"`
	PerformanceID int64     `json:"performance_id"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// BookingCancelledEvent covers user cancels and admin overrides.
type BookingCancelledEvent struct {
	BookingID     int64     `json:"booking_id"`
	PerformanceID int64     `json:"performance_id"`
	SeatsReleased int       `json:"seats_released"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

// BookingExpiredEvent is published when the reaper reclaims a booking.
type BookingExpiredEvent struct {
	BookingID     int64     `json:"booking_id"`
	PerformanceID int64     `json:"performance_id"`
	SeatsReleased int       `json:"seats_released"`
	Timestamp     time.Time `json:"timestamp"`
}

// BookingRefundedEvent is published after a refund commits.
type BookingRefundedEvent struct {
	BookingID    int64     `json:"booking_id"`
	RefundAmount Money     `json:"refund_amount"`
	RefundTxnID  string    `json:"refund_transaction_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// PaymentCompletedEvent is published alongside BookingConfirmedEvent.
type PaymentCompletedEvent struct {
	PaymentID     int64     `json:"payment_id"`
	BookingID     int64     `json:"booking_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        Money     `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}

// PaymentFailedEvent is published for declined settlement attempts.
type PaymentFailedEvent struct {
	BookingID int64     `json:"booking_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
