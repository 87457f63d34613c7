package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"stagedoor/internal/config"
	"stagedoor/internal/database"
	"stagedoor/internal/logger"
)

var (
	clearExisting = flag.Bool("clear", false, "Clear existing catalog data before seeding")
	performances  = flag.Int("performances", 4, "Number of performances to schedule per show")
	rows          = flag.Int("rows", 20, "Seat rows per venue")
	seatsPerRow   = flag.Int("seats-per-row", 30, "Seats per row")
)

type seeder struct {
	db *database.DB
}

// Seeds a demo catalog: venues with seat grids, shows, scheduled performances
// and per-category pricing. Intended for local development and load tests.
func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting catalog seeder...")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	s := &seeder{db: db}

	if *clearExisting {
		if err := s.clear(); err != nil {
			slog.Error("Failed to clear existing data", "error", err)
			os.Exit(1)
		}
	}

	if err := s.seed(); err != nil {
		slog.Error("Failed to seed catalog", "error", err)
		os.Exit(1)
	}

	slog.Info("Catalog seeding completed successfully!")
}

func (s *seeder) clear() error {
	tables := []string{
		"payments", "booking_line_items", "bookings",
		"performance_pricing", "performances", "seats", "shows", "venues",
	}
	for _, table := range tables {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	slog.Info("Cleared existing catalog data")
	return nil
}

func (s *seeder) seed() error {
	venueID, err := s.seedVenue("Grand Majestic Theatre", "12 Curtain Lane", "London")
	if err != nil {
		return err
	}

	totalSeats, err := s.seedSeats(venueID)
	if err != nil {
		return err
	}
	slog.Info("Seeded venue", "venue_id", venueID, "seats", totalSeats)

	shows := []struct {
		title, genre, description string
		duration                  int
	}{
		{"The Phantom Waltz", "musical", "A masked composer haunts the opera house", 150},
		{"Twelfth Night", "comedy", "Shakespeare's tale of mistaken identity", 135},
		{"The Glass Menagerie", "drama", "A memory play of fragile dreams", 125},
	}

	for _, show := range shows {
		showID, err := s.seedShow(show.title, show.description, show.genre, show.duration)
		if err != nil {
			return err
		}

		for i := 0; i < *performances; i++ {
			day := time.Now().AddDate(0, 0, 7+i*3)
			startsAt := time.Date(day.Year(), day.Month(), day.Day(), 19, 0, 0, 0, time.Local)
			perfID, err := s.seedPerformance(showID, venueID, startsAt, totalSeats)
			if err != nil {
				return err
			}
			if err := s.seedPricing(perfID); err != nil {
				return err
			}
		}

		slog.Info("Seeded show", "show_id", showID, "title", show.title, "performances", *performances)
	}

	return nil
}

func (s *seeder) seedVenue(name, address, city string) (int64, error) {
	var id int64
	err := s.db.QueryRow(`
		INSERT INTO venues (venue_name, address_line1, city, country, total_capacity)
		VALUES ($1, $2, $3, 'GB', $4)
		RETURNING venue_id`,
		name, address, city, *rows*(*seatsPerRow),
	).Scan(&id)
	return id, err
}

func (s *seeder) seedSeats(venueID int64) (int, error) {
	count := 0
	for row := 1; row <= *rows; row++ {
		category := categoryForRow(row)
		label := rowLabel(row)
		for seat := 1; seat <= *seatsPerRow; seat++ {
			_, err := s.db.Exec(`
				INSERT INTO seats (venue_id, row_number, seat_number, seat_category, is_active)
				VALUES ($1, $2, $3, $4, TRUE)
				ON CONFLICT (venue_id, row_number, seat_number) DO NOTHING`,
				venueID, label, fmt.Sprintf("%d", seat), category,
			)
			if err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func (s *seeder) seedShow(title, description, genre string, duration int) (int64, error) {
	var id int64
	err := s.db.QueryRow(`
		INSERT INTO shows (title, description, genre, duration_minutes, language, age_rating)
		VALUES ($1, $2, $3, $4, 'en', 'PG')
		RETURNING show_id`,
		title, description, genre, duration,
	).Scan(&id)
	return id, err
}

func (s *seeder) seedPerformance(showID, venueID int64, startsAt time.Time, totalSeats int) (int64, error) {
	var id int64
	err := s.db.QueryRow(`
		INSERT INTO performances (show_id, venue_id, starts_at, total_seats, available_seats, performance_status)
		VALUES ($1, $2, $3, $4, $4, 'Scheduled')
		RETURNING performance_id`,
		showID, venueID, startsAt, totalSeats,
	).Scan(&id)
	return id, err
}

func (s *seeder) seedPricing(performanceID int64) error {
	prices := map[string]int64{
		"premium":  12500,
		"standard": 7500,
		"balcony":  4500,
	}
	for category, cents := range prices {
		_, err := s.db.Exec(`
			INSERT INTO performance_pricing (performance_id, seat_category, price_cents)
			VALUES ($1, $2, $3)
			ON CONFLICT (performance_id, seat_category) DO UPDATE SET price_cents = EXCLUDED.price_cents`,
			performanceID, category, cents,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func categoryForRow(row int) string {
	switch {
	case row <= 5:
		return "premium"
	case row <= 15:
		return "standard"
	default:
		return "balcony"
	}
}

func rowLabel(row int) string {
	// A..Z, then AA..AZ for deeper halls.
	label := ""
	for row > 0 {
		row--
		label = string(rune('A'+row%26)) + label
		row /= 26
	}
	return label
}
