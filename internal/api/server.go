package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"stagedoor/internal/cache"
	"stagedoor/internal/config"
	"stagedoor/internal/database"
	"stagedoor/internal/external"
	"stagedoor/internal/handlers"
	"stagedoor/internal/logger"
	"stagedoor/internal/messaging"
	"stagedoor/internal/middleware"
	"stagedoor/internal/repository"
	"stagedoor/internal/search"
	"stagedoor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires the HTTP API together: storage, event bus, search, cache,
// external collaborators and the in-process reaper.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	repos    *repository.Repositories

	reaperStop chan struct{}
}

func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}

	esClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		// Search is a derived view; booking traffic must not depend on it.
		slog.Warn("Elasticsearch unavailable, show search disabled", "error", err)
		esClient = nil
	}

	valkeyClient, err := cache.NewValkeyClient(cfg.Cache)
	if err != nil {
		slog.Warn("Valkey unavailable, auth cache disabled", "error", err)
		valkeyClient = nil
	}

	var gateway external.PaymentGateway
	if cfg.Gateway.UseMock {
		gateway = external.NewMockGateway(nil)
		slog.Info("Using mock payment gateway")
	} else {
		gateway = external.NewGatewayClient(cfg.Gateway)
	}
	ticketingClient := external.NewTicketingClient(cfg.Ticketing)

	repos := repository.NewRepositories(db)

	services := service.NewServices(service.Deps{
		Repos:       repos,
		Publisher:   natsClient,
		Gateway:     gateway,
		Ticketing:   ticketingClient,
		Search:      esClient,
		GraceWindow: cfg.PaymentGraceWindow,
	})

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:     router,
		config:     cfg,
		db:         db,
		nats:       natsClient,
		valkey:     valkeyClient,
		services:   services,
		repos:      repos,
		reaperStop: make(chan struct{}),
	}

	server.setupRoutes()
	server.startReaper()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.New(s.services)

	api := s.router.Group("/api")
	api.Use(middleware.BasicAuth(s.repos.Users, s.valkey))
	{
		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("", h.ListBookings)
			bookings.GET("/:id", h.GetBooking)
			bookings.GET("/reference/:ref", h.GetBookingByReference)
			bookings.PATCH("/cancel", h.CancelBooking)
		}

		payments := api.Group("/payments")
		{
			payments.POST("", h.SettlePayment)
			payments.POST("/refund", h.RefundPayment)
			payments.GET("/booking/:id", h.PaymentHistory)
		}

		api.GET("/shows", h.SearchShows)

		performances := api.Group("/performances")
		{
			performances.GET("", h.ListPerformances)
			performances.GET("/:id/seats", h.ListSeats)
		}

		api.POST("/sweep", h.SweepExpired)
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// startReaper runs the expired-booking sweep on a fixed interval so seats
// held by abandoned bookings return to inventory without waiting for the next
// settle attempt.
func (s *Server) startReaper() {
	interval := s.config.ReaperInterval
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.reaperStop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				reclaimed, err := s.services.Bookings.SweepExpired(ctx)
				cancel()
				if err != nil {
					slog.Error("Expired booking sweep failed", "error", err)
					continue
				}
				if reclaimed > 0 {
					slog.Info("Reclaimed expired bookings", "count", reclaimed)
				}
			}
		}
	}()
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "stagedoor-api",
		"version": "1.0.0",
	})
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) Cleanup() error {
	close(s.reaperStop)

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			slog.Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
