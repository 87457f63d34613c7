package service

import (
	"context"
	"time"

	"stagedoor/internal/external"
	"stagedoor/internal/reference"
	"stagedoor/internal/repository"
	"stagedoor/internal/search"
)

// Publisher is the event bus boundary. Publishing is best effort; services
// log failures and never let an undelivered event fail a booking operation.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// TicketIssuer delivers e-tickets after a booking is confirmed.
type TicketIssuer interface {
	IssueTicket(ctx context.Context, req *external.IssueTicketRequest) error
}

// Services bundles the business logic handed to the HTTP handlers.
type Services struct {
	Bookings *BookingService
	Payments *PaymentService
	Shows    *ShowService
}

type Deps struct {
	Repos       *repository.Repositories
	Publisher   Publisher
	Gateway     external.PaymentGateway
	Ticketing   TicketIssuer
	Search      *search.ElasticsearchClient
	GraceWindow time.Duration
}

func NewServices(deps Deps) *Services {
	refs := reference.NewGenerator()

	return &Services{
		Bookings: NewBookingService(deps.Repos, deps.Publisher, refs, deps.GraceWindow),
		Payments: NewPaymentService(deps.Repos, deps.Publisher, deps.Gateway, deps.Ticketing, refs),
		Shows:    NewShowService(deps.Repos, deps.Search),
	}
}
