// Package services – RoastService
//
// RoastService runs the roast pipeline for one submitted URL:
//
//	validate → fetch → extract → prompt → complete → parse → (persist) → respond
//
// The pipeline exits early on an invalid or blocked URL, a failed fetch and a
// failed completion. A reply that is not valid JSON is not an error; the
// outcome is marked Degraded and carries the raw text.
//
// Only parsed results are persisted. The write happens in the background
// with its own timeout, detached from request cancellation, and its failure
// is logged and never reaches the caller. Wait drains pending writes.
package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-roast-backend/internal/completion"
	"github.com/tbourn/go-roast-backend/internal/domain"
	"github.com/tbourn/go-roast-backend/internal/extract"
	"github.com/tbourn/go-roast-backend/internal/fetch"
	"github.com/tbourn/go-roast-backend/internal/prompt"
	"github.com/tbourn/go-roast-backend/internal/reply"
	"github.com/tbourn/go-roast-backend/internal/urlguard"
)

// DefaultWriteTimeout bounds a background roast write when none is set.
const DefaultWriteTimeout = 5 * time.Second

// PageFetcher retrieves the HTML of a page. Failures are *fetch.Error.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Completer produces the model reply for a rendered prompt.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

// RoastStore persists roast records.
type RoastStore interface {
	InsertRoast(ctx context.Context, rec *domain.RoastRecord) error
}

// RoastOutcome is the result of a successful pipeline run.
type RoastOutcome struct {
	Result domain.RoastResult
	// Raw is the unmodified model reply.
	Raw string
	// Degraded is true when Raw was not valid JSON; Result.Roast then holds Raw.
	Degraded bool
	// Upgrade echoes the template that was used.
	Upgrade bool
}

// RoastService coordinates the roast pipeline.
type RoastService struct {
	Fetcher   PageFetcher
	Completer Completer
	Store     RoastStore

	// WriteTimeout bounds each background write; <= 0 means DefaultWriteTimeout.
	WriteTimeout time.Duration

	pending sync.WaitGroup
}

// NewRoastService wires a RoastService.
func NewRoastService(f PageFetcher, c Completer, st RoastStore, writeTimeout time.Duration) *RoastService {
	return &RoastService{Fetcher: f, Completer: c, Store: st, WriteTimeout: writeTimeout}
}

// Generate runs the pipeline for rawURL.
//
// Errors:
//   - urlguard.ErrMissingURL / ErrInvalidURL / ErrBlockedTarget
//   - *fetch.Error when the site could not be retrieved
//   - *completion.UpstreamError when the model call failed
func (s *RoastService) Generate(ctx context.Context, rawURL string, upgrade bool) (*RoastOutcome, error) {
	tr := otel.Tracer("services/RoastService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(attribute.Bool("roast.upgrade", upgrade)),
	)
	defer span.End()

	tmpl := templateLabel(upgrade)
	log := zerolog.Ctx(ctx)

	// Validating
	target := strings.TrimSpace(rawURL)
	if _, err := urlguard.Check(target); err != nil {
		outcome := "invalid"
		if errors.Is(err, urlguard.ErrBlockedTarget) {
			outcome = "blocked"
		}
		roastsTotal.WithLabelValues(tmpl, outcome).Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("roast.url", target))

	// Fetching
	html, err := s.Fetcher.Fetch(ctx, target)
	if err != nil {
		roastsTotal.WithLabelValues(tmpl, "fetch_failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		var fe *fetch.Error
		if errors.As(err, &fe) {
			log.Info().Int("status", fe.StatusCode).Str("url", target).Msg("site fetch failed")
		}
		return nil, err
	}

	// Extracting, Prompting
	snap := extract.Snapshot(html)
	p := prompt.Build(target, snap, upgrade)
	span.SetAttributes(
		attribute.Int("prompt.max_tokens", p.MaxTokens),
		attribute.Float64("prompt.temperature", p.Temperature),
	)

	// Completing
	raw, err := s.Completer.Complete(ctx, completion.Request{
		Prompt:      p.Text,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	})
	if err != nil {
		roastsTotal.WithLabelValues(tmpl, "upstream_failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		log.Error().Err(err).Str("url", target).Msg("completion failed")
		return nil, err
	}

	// Parsing
	res, ok := reply.Parse(raw)
	if !ok {
		roastsTotal.WithLabelValues(tmpl, "degraded").Inc()
		span.SetAttributes(attribute.Bool("roast.degraded", true))
		log.Warn().Str("url", target).Msg("model reply was not valid JSON")
		return &RoastOutcome{Result: res, Raw: raw, Degraded: true, Upgrade: upgrade}, nil
	}

	// Persisting
	s.persist(ctx, &domain.RoastRecord{
		URL:     target,
		Roast:   res.Roast,
		Advice:  res.Advice,
		Jokes:   res.Jokes,
		Upgrade: upgrade,
	})

	roastsTotal.WithLabelValues(tmpl, "ok").Inc()
	return &RoastOutcome{Result: res, Raw: raw, Upgrade: upgrade}, nil
}

// persist writes rec in the background.
func (s *RoastService) persist(ctx context.Context, rec *domain.RoastRecord) {
	if s.Store == nil {
		return
	}
	timeout := s.WriteTimeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	// Keep trace and logger, drop the request's cancellation.
	bg := context.WithoutCancel(ctx)
	log := zerolog.Ctx(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		wctx, cancel := context.WithTimeout(bg, timeout)
		defer cancel()

		if err := s.Store.InsertRoast(wctx, rec); err != nil {
			roastPersistFailures.Inc()
			log.Error().Err(err).Str("url", rec.URL).Msg("roast insert failed")
		}
	}()
}

// Wait blocks until every background write started so far has finished.
func (s *RoastService) Wait() {
	s.pending.Wait()
}
