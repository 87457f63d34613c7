package repository

import (
	"context"

	"stagedoor/internal/database"
	"stagedoor/internal/models"

	"github.com/lib/pq"
)

type SeatRepository struct {
	db *database.DB
}

func NewSeatRepository(db *database.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

// GetSeats loads the requested seats of a venue, ordered by seat id.
// Seats that do not exist or belong to another venue are simply absent from
// the result; the caller decides how to treat the gap.
func (r *SeatRepository) GetSeats(ctx context.Context, venueID int64, seatIDs []int64) ([]models.Seat, error) {
	query := `
		SELECT seat_id, venue_id, row_number, seat_number, seat_category, is_active
		FROM seats
		WHERE venue_id = $1 AND seat_id = ANY($2)
		ORDER BY seat_id`

	rows, err := r.db.QueryContext(ctx, query, venueID, pq.Array(seatIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []models.Seat
	for rows.Next() {
		var seat models.Seat
		err := rows.Scan(
			&seat.SeatID,
			&seat.VenueID,
			&seat.RowNumber,
			&seat.SeatNumber,
			&seat.Category,
			&seat.IsActive,
		)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	return seats, rows.Err()
}

// ListSeatMap returns the venue's active seats for a performance with the
// occupancy derived from Pending/Confirmed bookings and the configured price
// per category.
func (r *SeatRepository) ListSeatMap(ctx context.Context, performanceID int64) ([]models.ListSeatsResponseItem, error) {
	query := `
		SELECT s.seat_id, s.row_number, s.seat_number, s.seat_category,
		       pp.price_cents,
		       EXISTS (
		           SELECT 1 FROM booking_line_items li
		           JOIN bookings b ON b.booking_id = li.booking_id
		           WHERE li.seat_id = s.seat_id
		             AND b.performance_id = p.performance_id
		             AND b.booking_status IN ('Pending', 'Confirmed')
		       ) AS occupied
		FROM performances p
		JOIN seats s ON s.venue_id = p.venue_id AND s.is_active
		LEFT JOIN performance_pricing pp
		       ON pp.performance_id = p.performance_id AND pp.seat_category = s.seat_category
		WHERE p.performance_id = $1
		ORDER BY s.row_number, s.seat_number`

	rows, err := r.db.QueryContext(ctx, query, performanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ListSeatsResponseItem
	for rows.Next() {
		var item models.ListSeatsResponseItem
		var price *int64
		err := rows.Scan(
			&item.SeatID,
			&item.Row,
			&item.SeatNumber,
			&item.Category,
			&price,
			&item.Occupied,
		)
		if err != nil {
			return nil, err
		}
		if price != nil {
			m := models.Money(*price)
			item.Price = &m
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
