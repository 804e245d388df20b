// Package services – PaymentService
//
// PaymentService creates the fixed-price order that unlocks an upgraded
// roast. Every order is recorded in the payments collection on a best-effort
// basis. When the caller supplies an idempotency key that was already used
// within the configured TTL, the recorded order is returned instead of a new
// one being created at the gateway.
//
// Concurrent calls with the same key share one gateway call inside the
// process. Across processes the store's unique key decides the winner; a
// loser returns the winner's order and its own gateway order is abandoned
// unpaid.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-roast-backend/internal/domain"
	"github.com/tbourn/go-roast-backend/internal/payment"
	"github.com/tbourn/go-roast-backend/internal/repo"
)

// Payment defaults.
const (
	DefaultPaymentAmount   int64 = 4900 // paise
	DefaultPaymentCurrency       = "INR"
)

// OrderGateway creates orders at the payment provider.
type OrderGateway interface {
	CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.Order, error)
}

// PaymentStore persists and looks up payment records. InsertPayment returns
// repo.ErrDuplicate when the idempotency key is already held.
type PaymentStore interface {
	InsertPayment(ctx context.Context, rec *domain.PaymentRecord) error
	FindPaymentByIdempotencyKey(ctx context.Context, key string, since time.Time) (*domain.PaymentRecord, error)
}

// PaymentService creates payment orders.
type PaymentService struct {
	Gateway OrderGateway
	Store   PaymentStore

	Amount         int64
	Currency       string
	IdempotencyTTL time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time

	inflight singleflight.Group
}

// orderResult is what one keyed gateway call resolves to.
type orderResult struct {
	order    *payment.Order
	replayed bool
}

// NewPaymentService constructs a PaymentService with the default price.
func NewPaymentService(gw OrderGateway, st PaymentStore, idemTTL time.Duration) *PaymentService {
	return &PaymentService{
		Gateway:        gw,
		Store:          st,
		Amount:         DefaultPaymentAmount,
		Currency:       DefaultPaymentCurrency,
		IdempotencyTTL: idemTTL,
	}
}

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *PaymentService) replayable(idemKey string) bool {
	return idemKey != "" && s.Store != nil && s.IdempotencyTTL > 0
}

// CreateOrder returns a new order, or the recorded one when idemKey was
// already used inside the TTL window. replayed reports which case applied.
// Gateway failures are *payment.Error.
func (s *PaymentService) CreateOrder(ctx context.Context, idemKey string) (order *payment.Order, replayed bool, err error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "CreateOrder",
		trace.WithAttributes(attribute.Bool("payment.idempotent", idemKey != "")),
	)
	defer span.End()

	if !s.replayable(idemKey) {
		res, err := s.create(ctx, idemKey)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "order creation failed")
			return nil, false, err
		}
		return res.order, false, nil
	}

	// Only the leader's closure runs; waiting callers get its result.
	leader := false
	v, err, _ := s.inflight.Do(idemKey, func() (any, error) {
		leader = true
		if prev := s.lookup(ctx, idemKey, s.now()); prev != nil {
			return orderResult{order: orderFromRecord(prev), replayed: true}, nil
		}
		return s.create(ctx, idemKey)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order creation failed")
		return nil, false, err
	}

	res := v.(orderResult)
	if res.replayed || !leader {
		paymentOrders.WithLabelValues("replayed").Inc()
		span.SetAttributes(attribute.Bool("payment.replayed", true))
		return res.order, true, nil
	}
	return res.order, false, nil
}

// create calls the gateway and records the order. When the store reports the
// key as taken, the holder inside the TTL window wins and is returned as a
// replay; an expired holder keeps the key and the new order is recorded
// without one.
func (s *PaymentService) create(ctx context.Context, idemKey string) (orderResult, error) {
	log := zerolog.Ctx(ctx)
	now := s.now()

	order, err := s.Gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:      s.Amount,
		Currency:    s.Currency,
		Receipt:     fmt.Sprintf("roast_%d", now.UnixMilli()),
		AutoCapture: true,
	})
	if err != nil {
		paymentOrders.WithLabelValues("failed").Inc()
		log.Error().Err(err).Msg("payment order creation failed")
		return orderResult{}, err
	}
	paymentOrders.WithLabelValues("created").Inc()
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("payment.order_id", order.ID))

	if s.Store == nil {
		return orderResult{order: order}, nil
	}

	rec := &domain.PaymentRecord{
		OrderID:        order.ID,
		Amount:         order.Amount,
		Currency:       order.Currency,
		Receipt:        order.Receipt,
		Status:         domain.PaymentStatusCreated,
		IdempotencyKey: idemKey,
		CreatedAt:      now,
	}
	err = s.Store.InsertPayment(ctx, rec)
	if errors.Is(err, repo.ErrDuplicate) {
		if prev := s.lookup(ctx, idemKey, now); prev != nil {
			log.Warn().Str("order_id", order.ID).Str("winner", prev.OrderID).
				Msg("idempotency key already recorded; abandoning new order")
			return orderResult{order: orderFromRecord(prev), replayed: true}, nil
		}
		rec.ID, rec.IdempotencyKey = "", ""
		err = s.Store.InsertPayment(ctx, rec)
	}
	if err != nil {
		log.Error().Err(err).Str("order_id", order.ID).Msg("payment insert failed")
	}
	return orderResult{order: order}, nil
}

// HasReplay reports whether idemKey maps to a recorded order inside the TTL
// window at now.
func (s *PaymentService) HasReplay(ctx context.Context, idemKey string, now time.Time) (bool, error) {
	if !s.replayable(idemKey) {
		return false, nil
	}
	_, err := s.Store.FindPaymentByIdempotencyKey(ctx, idemKey, now.Add(-s.IdempotencyTTL))
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// lookup returns the replayable record for idemKey or nil. Lookup errors are
// logged and treated as a miss.
func (s *PaymentService) lookup(ctx context.Context, idemKey string, now time.Time) *domain.PaymentRecord {
	if !s.replayable(idemKey) {
		return nil
	}
	prev, err := s.Store.FindPaymentByIdempotencyKey(ctx, idemKey, now.Add(-s.IdempotencyTTL))
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("idempotency lookup failed")
		}
		return nil
	}
	return prev
}

func orderFromRecord(rec *domain.PaymentRecord) *payment.Order {
	return &payment.Order{
		ID:        rec.OrderID,
		Entity:    "order",
		Amount:    rec.Amount,
		AmountDue: rec.Amount,
		Currency:  rec.Currency,
		Receipt:   rec.Receipt,
		Status:    rec.Status,
		CreatedAt: rec.CreatedAt.Unix(),
	}
}
