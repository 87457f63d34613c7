package main

import (
	"context"
	"log/slog"
	"os"

	"stagedoor/internal/config"
	"stagedoor/internal/database"
	"stagedoor/internal/logger"
	"stagedoor/internal/models"
	"stagedoor/internal/search"
)

// Rebuilds the Elasticsearch show index from the database. Safe to run at any
// time; documents are upserted by show id.
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting show reindex...")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	esClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		slog.Error("Failed to connect to Elasticsearch", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	shows, err := loadShows(ctx, db)
	if err != nil {
		slog.Error("Failed to load shows", "error", err)
		os.Exit(1)
	}

	indexed := 0
	for _, show := range shows {
		doc := &search.ShowDocument{
			ShowID:          show.ShowID,
			Title:           show.Title,
			Genre:           show.Genre,
			DurationMinutes: show.DurationMinutes,
			CreatedAt:       show.CreatedAt,
		}
		if show.Description != nil {
			doc.Description = *show.Description
		}

		if err := esClient.IndexShow(ctx, doc); err != nil {
			slog.Error("Failed to index show", "show_id", show.ShowID, "error", err)
			continue
		}
		indexed++
	}

	count, err := esClient.Count(ctx, "", "")
	if err != nil {
		slog.Warn("Failed to count indexed documents", "error", err)
	}

	slog.Info("Reindex completed", "indexed", indexed, "total_in_index", count)
}

func loadShows(ctx context.Context, db *database.DB) ([]models.Show, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT show_id, title, description, genre, duration_minutes, created_at, updated_at
		FROM shows
		ORDER BY show_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shows []models.Show
	for rows.Next() {
		var show models.Show
		err := rows.Scan(
			&show.ShowID,
			&show.Title,
			&show.Description,
			&show.Genre,
			&show.DurationMinutes,
			&show.CreatedAt,
			&show.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		shows = append(shows, show)
	}

	return shows, rows.Err()
}
