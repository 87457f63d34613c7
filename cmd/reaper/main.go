package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"stagedoor/cmd/reaper/jobs"
	"stagedoor/internal/config"
	"stagedoor/internal/database"
	"stagedoor/internal/logger"
	"stagedoor/internal/messaging"
	"stagedoor/internal/reference"
	"stagedoor/internal/repository"
	"stagedoor/internal/service"
)

// Standalone expiration worker for deployments that disable the in-process
// reaper (REAPER_INTERVAL_SEC=0) and sweep from a dedicated instance instead.
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}
	defer natsClient.Close()

	repos := repository.NewRepositories(db)
	bookings := service.NewBookingService(repos, natsClient, reference.NewGenerator(), cfg.PaymentGraceWindow)

	job := jobs.NewExpirationJob(bookings, cfg.ReaperInterval)
	job.Start(context.Background())

	slog.Info("Reaper started", "interval", cfg.ReaperInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	job.Stop()
	slog.Info("Reaper stopped")
}
