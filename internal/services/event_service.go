package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-roast-backend/internal/domain"
)

// EventStore persists analytics events.
type EventStore interface {
	InsertEvent(ctx context.Context, rec *domain.EventRecord) error
}

// EventService records client analytics events such as shares.
type EventService struct {
	Store EventStore
}

// NewEventService constructs an EventService.
func NewEventService(st EventStore) *EventService { return &EventService{Store: st} }

// Record stores one event. The user agent is kept verbatim; the client IP is
// only stored as its SHA-256 hex digest. Store failures wrap
// ErrEventNotRecorded.
func (s *EventService) Record(ctx context.Context, eventType, url, userAgent, clientIP string) error {
	tr := otel.Tracer("services/EventService")
	ctx, span := tr.Start(ctx, "Record",
		trace.WithAttributes(attribute.String("event.type", eventType)),
	)
	defer span.End()

	rec := &domain.EventRecord{
		EventType: eventType,
		URL:       url,
		UserAgent: userAgent,
		IPHash:    HashIP(clientIP),
	}
	if err := s.Store.InsertEvent(ctx, rec); err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("event_type", eventType).Msg("event insert failed")
		return fmt.Errorf("%w: %v", ErrEventNotRecorded, err)
	}
	eventsRecorded.Inc()
	return nil
}

// HashIP returns the lowercase hex SHA-256 of ip. An empty ip hashes the
// empty string.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}
