package repository

import (
	"context"
	"database/sql"
	"fmt"

	"stagedoor/internal/database"
	apperrors "stagedoor/internal/errors"
	"stagedoor/internal/models"
)

type PricingRepository struct {
	db *database.DB
}

func NewPricingRepository(db *database.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

// PriceFor resolves the unit price for a seat category at a performance.
// A missing price row is a configuration gap, not a user error, and aborts
// booking creation with ErrPricingNotConfigured.
func (r *PricingRepository) PriceFor(ctx context.Context, performanceID int64, category string) (models.Money, error) {
	var cents int64
	query := `
		SELECT price_cents
		FROM performance_pricing
		WHERE performance_id = $1 AND seat_category = $2`

	err := r.db.QueryRowContext(ctx, query, performanceID, category).Scan(&cents)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("category %q for performance %d: %w",
			category, performanceID, apperrors.ErrPricingNotConfigured)
	}
	if err != nil {
		return 0, err
	}

	return models.Money(cents), nil
}
