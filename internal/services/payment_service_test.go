package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/go-roast-backend/internal/domain"
	"github.com/tbourn/go-roast-backend/internal/payment"
)

func TestPayment_CreateOrder_DefaultsAndRecord(t *testing.T) {
	st := newTestStore(t)
	gw := &stubGateway{}
	svc := NewPaymentService(gw, st, time.Hour)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.Now = func() time.Time { return fixed }

	order, replayed, err := svc.CreateOrder(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if replayed {
		t.Fatalf("first order cannot be a replay")
	}
	if gw.last.Amount != 4900 || gw.last.Currency != "INR" || !gw.last.AutoCapture {
		t.Fatalf("unexpected order request: %+v", gw.last)
	}
	if want := "roast_1735787045000"; gw.last.Receipt != want {
		t.Fatalf("receipt = %q, want %q", gw.last.Receipt, want)
	}
	if order.ID != "order_1" {
		t.Fatalf("unexpected order: %+v", order)
	}

	stats, _ := st.Stats(context.Background())
	if stats.Payments != 1 {
		t.Fatalf("expected a created payment row, got %+v", stats)
	}
}

func TestPayment_CreateOrder_IdempotentReplay(t *testing.T) {
	st := newTestStore(t)
	gw := &stubGateway{}
	svc := NewPaymentService(gw, st, time.Hour)
	ctx := context.Background()

	first, _, err := svc.CreateOrder(ctx, "key-1")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	again, replayed, err := svc.CreateOrder(ctx, "key-1")
	if err != nil {
		t.Fatalf("CreateOrder replay: %v", err)
	}
	if !replayed || again.ID != first.ID || again.Amount != first.Amount {
		t.Fatalf("expected replay of %+v, got %+v (replayed=%v)", first, again, replayed)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway should be called once, got %d", gw.calls)
	}

	if ok, err := svc.HasReplay(ctx, "key-1", time.Now()); err != nil || !ok {
		t.Fatalf("HasReplay = %v, %v", ok, err)
	}
	if ok, _ := svc.HasReplay(ctx, "key-1", time.Now().Add(2*time.Hour)); ok {
		t.Fatalf("replay must expire after the TTL")
	}

	// A different key creates a new order.
	other, replayed, _ := svc.CreateOrder(ctx, "key-2")
	if replayed || other.ID == first.ID {
		t.Fatalf("different key must create a new order")
	}
}

func TestPayment_CreateOrder_ConcurrentSameKey(t *testing.T) {
	gw := &stubGateway{delay: 50 * time.Millisecond}
	svc := NewPaymentService(gw, newTestStore(t), time.Hour)

	const n = 5
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		ids   = make([]string, n)
		fresh = make([]bool, n)
		errs  = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			order, replayed, err := svc.CreateOrder(context.Background(), "same-key")
			errs[i], fresh[i] = err, !replayed
			if order != nil {
				ids[i] = order.ID
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if got := gw.count(); got != 1 {
		t.Fatalf("gateway orders created for one key: %d", got)
	}
	created := 0
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if ids[i] != "order_1" {
			t.Fatalf("call %d got order %q", i, ids[i])
		}
		if fresh[i] {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one non-replayed response, got %d", created)
	}
}

func TestPayment_CreateOrder_DuplicateKeyReturnsWinner(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	winner := &domain.PaymentRecord{OrderID: "order_winner", Amount: 4900, Currency: "INR",
		Status: domain.PaymentStatusCreated, IdempotencyKey: "k"}
	if err := st.InsertPayment(ctx, winner); err != nil {
		t.Fatalf("seed: %v", err)
	}

	gw := &stubGateway{}
	svc := NewPaymentService(gw, &missingLookupStore{PaymentStore: st, misses: 1}, time.Hour)

	order, replayed, err := svc.CreateOrder(ctx, "k")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if !replayed || order.ID != "order_winner" {
		t.Fatalf("expected the recorded winner, got %+v (replayed=%v)", order, replayed)
	}
	if gw.count() != 1 {
		t.Fatalf("expected the losing gateway call, got %d", gw.count())
	}
	if stats, _ := st.Stats(ctx); stats.Payments != 1 {
		t.Fatalf("losing order must not be recorded, got %+v", stats)
	}
}

func TestPayment_CreateOrder_ExpiredKeyHolder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	old := &domain.PaymentRecord{OrderID: "order_old", Amount: 4900, Currency: "INR",
		Status: domain.PaymentStatusCreated, IdempotencyKey: "k",
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour)}
	if err := st.InsertPayment(ctx, old); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := NewPaymentService(&stubGateway{}, st, time.Hour)
	order, replayed, err := svc.CreateOrder(ctx, "k")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if replayed || order.ID != "order_1" {
		t.Fatalf("expired key must create a new order, got %+v (replayed=%v)", order, replayed)
	}
	if stats, _ := st.Stats(ctx); stats.Payments != 2 {
		t.Fatalf("new order must still be recorded, got %+v", stats)
	}
}

func TestPayment_CreateOrder_GatewayFailure(t *testing.T) {
	gwErr := &payment.Error{Err: errors.New("auth failed")}
	svc := NewPaymentService(&stubGateway{err: gwErr}, newTestStore(t), time.Hour)

	_, _, err := svc.CreateOrder(context.Background(), "")
	var pe *payment.Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *payment.Error, got %v", err)
	}
}

func TestPayment_CreateOrder_StoreFailureIsBestEffort(t *testing.T) {
	st := &failingStore{}
	svc := NewPaymentService(&stubGateway{}, st, time.Hour)

	order, replayed, err := svc.CreateOrder(context.Background(), "k")
	if err != nil || replayed || !strings.HasPrefix(order.ID, "order_") {
		t.Fatalf("store failure must not fail the order: %+v %v %v", order, replayed, err)
	}
	if st.attempts() != 1 {
		t.Fatalf("expected one insert attempt, got %d", st.attempts())
	}

	if _, err := svc.HasReplay(context.Background(), "k", time.Now()); !errors.Is(err, errStoreDown) {
		t.Fatalf("HasReplay should surface lookup errors, got %v", err)
	}
}

func TestPayment_HasReplay_Disabled(t *testing.T) {
	svc := NewPaymentService(&stubGateway{}, newTestStore(t), 0)
	if ok, err := svc.HasReplay(context.Background(), "k", time.Now()); ok || err != nil {
		t.Fatalf("TTL 0 disables replays, got %v %v", ok, err)
	}
	if ok, _ := svc.HasReplay(context.Background(), "", time.Now()); ok {
		t.Fatalf("empty key never replays")
	}
}
