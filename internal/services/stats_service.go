package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/tbourn/go-roast-backend/internal/domain"
)

// StatsStore computes the dashboard counts.
type StatsStore interface {
	Stats(ctx context.Context) (domain.Stats, error)
}

// StatsService serves the dashboard.
type StatsService struct {
	Store StatsStore
}

// NewStatsService constructs a StatsService.
func NewStatsService(st StatsStore) *StatsService { return &StatsService{Store: st} }

// Stats returns the number of roasts, created payments and Twitter shares.
func (s *StatsService) Stats(ctx context.Context) (domain.Stats, error) {
	ctx, span := otel.Tracer("services/StatsService").Start(ctx, "Stats")
	defer span.End()

	st, err := s.Store.Stats(ctx)
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Msg("dashboard stats failed")
		return domain.Stats{}, fmt.Errorf("%w: %v", ErrStatsUnavailable, err)
	}
	return st, nil
}
