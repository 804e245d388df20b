// Package handlers exposes the roast API over HTTP.
//
// Handlers are transport-thin: they decode input, call application services,
// and translate results and typed errors into HTTP responses.
package handlers

import (
	"context"

	"github.com/tbourn/go-roast-backend/internal/domain"
	"github.com/tbourn/go-roast-backend/internal/payment"
	"github.com/tbourn/go-roast-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// RoastService runs the roast pipeline for one URL.
type RoastService interface {
	Generate(ctx context.Context, url string, upgrade bool) (*services.RoastOutcome, error)
}

// PaymentService creates (or replays) payment orders.
type PaymentService interface {
	CreateOrder(ctx context.Context, idempotencyKey string) (*payment.Order, bool, error)
}

// EventService records analytics events.
type EventService interface {
	Record(ctx context.Context, eventType, url, userAgent, clientIP string) error
}

// StatsService serves the dashboard counts.
type StatsService interface {
	Stats(ctx context.Context) (domain.Stats, error)
}

// ExampleService lists and filters curated example roasts.
type ExampleService interface {
	Search(query string, limit int) ([]domain.Example, error)
}

//
// Handler wiring
//

// Handlers groups the API endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	roastSvc   RoastService
	paySvc     PaymentService
	eventSvc   EventService
	statsSvc   StatsService
	exampleSvc ExampleService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(roastSvc RoastService, paySvc PaymentService, eventSvc EventService, statsSvc StatsService, exampleSvc ExampleService) *Handlers {
	return &Handlers{
		roastSvc:   roastSvc,
		paySvc:     paySvc,
		eventSvc:   eventSvc,
		statsSvc:   statsSvc,
		exampleSvc: exampleSvc,
	}
}
