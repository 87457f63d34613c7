package repository

import (
	"context"
	"database/sql"

	"stagedoor/internal/database"
	"stagedoor/internal/models"
)

type PerformanceRepository struct {
	db *database.DB
}

func NewPerformanceRepository(db *database.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

func (r *PerformanceRepository) GetPerformance(ctx context.Context, id int64) (*models.Performance, error) {
	perf := &models.Performance{}
	query := `
		SELECT performance_id, show_id, venue_id, starts_at, total_seats,
		       available_seats, performance_status, created_at, updated_at
		FROM performances
		WHERE performance_id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&perf.PerformanceID,
		&perf.ShowID,
		&perf.VenueID,
		&perf.StartsAt,
		&perf.TotalSeats,
		&perf.AvailableSeats,
		&perf.Status,
		&perf.CreatedAt,
		&perf.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return perf, err
}

func (r *PerformanceRepository) ListPerformances(ctx context.Context) ([]models.ListPerformancesResponseItem, error) {
	query := `
		SELECT p.performance_id, p.show_id, s.title, v.venue_name, p.starts_at,
		       p.performance_status, p.total_seats, p.available_seats
		FROM performances p
		JOIN shows s ON s.show_id = p.show_id
		JOIN venues v ON v.venue_id = p.venue_id
		ORDER BY p.starts_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ListPerformancesResponseItem
	for rows.Next() {
		var item models.ListPerformancesResponseItem
		err := rows.Scan(
			&item.PerformanceID,
			&item.ShowID,
			&item.ShowTitle,
			&item.VenueName,
			&item.StartsAt,
			&item.Status,
			&item.TotalSeats,
			&item.AvailableSeats,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *PerformanceRepository) PerformanceContext(ctx context.Context, id int64) (*PerformanceContext, error) {
	pc := &PerformanceContext{}
	query := `
		SELECT s.title, p.starts_at, v.venue_name, v.address_line1 || ', ' || v.city
		FROM performances p
		JOIN shows s ON s.show_id = p.show_id
		JOIN venues v ON v.venue_id = p.venue_id
		WHERE p.performance_id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&pc.ShowTitle,
		&pc.StartsAt,
		&pc.VenueName,
		&pc.VenueAddress,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return pc, err
}
