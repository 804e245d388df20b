package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/go-roast-backend/internal/completion"
	"github.com/tbourn/go-roast-backend/internal/domain"
	"github.com/tbourn/go-roast-backend/internal/payment"
	"github.com/tbourn/go-roast-backend/internal/repo"
)

func newTestStore(t *testing.T) *repo.SQLStore {
	t.Helper()
	st, err := repo.OpenSQLStore(filepath.Join(t.TempDir(), fmt.Sprintf("svc_%d.db", time.Now().UnixNano())))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

// stubFetcher returns a fixed body or error and counts calls.
type stubFetcher struct {
	mu    sync.Mutex
	body  string
	err   error
	calls int
	urls  []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.urls = append(f.urls, url)
	return f.body, f.err
}

// stubCompleter returns a fixed reply or error and records requests.
type stubCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []completion.Request
}

func (c *stubCompleter) Complete(_ context.Context, req completion.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	return c.reply, c.err
}

func (c *stubCompleter) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reqs)
}

var errStoreDown = errors.New("store down")

// failingStore rejects every write and read.
type failingStore struct {
	mu      sync.Mutex
	inserts int
}

func (s *failingStore) InsertRoast(context.Context, *domain.RoastRecord) error {
	s.mu.Lock()
	s.inserts++
	s.mu.Unlock()
	return errStoreDown
}

func (s *failingStore) InsertPayment(context.Context, *domain.PaymentRecord) error {
	s.mu.Lock()
	s.inserts++
	s.mu.Unlock()
	return errStoreDown
}

func (s *failingStore) FindPaymentByIdempotencyKey(context.Context, string, time.Time) (*domain.PaymentRecord, error) {
	return nil, errStoreDown
}

func (s *failingStore) InsertEvent(context.Context, *domain.EventRecord) error {
	return errStoreDown
}

func (s *failingStore) Stats(context.Context) (domain.Stats, error) {
	return domain.Stats{}, errStoreDown
}

func (s *failingStore) attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

// stubGateway hands out sequential order IDs, optionally after a delay.
type stubGateway struct {
	mu    sync.Mutex
	err   error
	delay time.Duration
	calls int
	last  payment.OrderRequest
}

func (g *stubGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (*payment.Order, error) {
	time.Sleep(g.delay)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Order{
		ID:        fmt.Sprintf("order_%d", g.calls),
		Entity:    "order",
		Amount:    req.Amount,
		AmountDue: req.Amount,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    "created",
	}, nil
}

func (g *stubGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// missingLookupStore hides recorded payments from the first misses lookups,
// like a second instance that has not seen a concurrent insert yet.
type missingLookupStore struct {
	PaymentStore
	mu     sync.Mutex
	misses int
}

func (s *missingLookupStore) FindPaymentByIdempotencyKey(ctx context.Context, key string, since time.Time) (*domain.PaymentRecord, error) {
	s.mu.Lock()
	if s.misses > 0 {
		s.misses--
		s.mu.Unlock()
		return nil, repo.ErrNotFound
	}
	s.mu.Unlock()
	return s.PaymentStore.FindPaymentByIdempotencyKey(ctx, key, since)
}

const minimalHTML = `<html><head><title>Example</title></head><body><h1>Hello</h1></body></html>`
