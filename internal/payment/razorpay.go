// Package payment creates checkout orders at the payment gateway.
//
// Only order creation is modelled. Capture, webhooks and signature checks
// happen between the browser and the gateway and never reach this service.
package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// OrderRequest describes an order to create. Amount is in the smallest
// currency unit (paise for INR).
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	// AutoCapture captures the payment as soon as it is authorised.
	AutoCapture bool
}

// Order is the gateway's view of a created order, returned to the browser as
// is so the checkout widget can open it.
type Order struct {
	ID         string `json:"id"`
	Entity     string `json:"entity,omitempty"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt,omitempty"`
	Status     string `json:"status"`
	Attempts   int64  `json:"attempts"`
	CreatedAt  int64  `json:"created_at,omitempty"`
}

// Error reports a failed gateway call.
type Error struct {
	Err error
}

func (e *Error) Error() string { return "payment gateway: " + e.Err.Error() }

// Unwrap exposes the SDK error.
func (e *Error) Unwrap() error { return e.Err }

// OrderCreator is the subset of the Razorpay SDK used here; *resources.Order
// satisfies it.
type OrderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay creates orders through the razorpay-go SDK.
type Razorpay struct {
	orders OrderCreator
}

// NewRazorpay builds a gateway authenticated with the key pair.
func NewRazorpay(keyID, keySecret string) *Razorpay {
	client := razorpay.NewClient(keyID, keySecret)
	return &Razorpay{orders: client.Order}
}

// NewRazorpayWith wraps an existing OrderCreator (tests, custom clients).
func NewRazorpayWith(orders OrderCreator) *Razorpay {
	return &Razorpay{orders: orders}
}

// CreateOrder creates an order. The SDK call itself is not cancellable, so a
// cancelled ctx only stops the wait; the order may still be created.
func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	capture := 0
	if req.AutoCapture {
		capture = 1
	}
	data := map[string]interface{}{
		"amount":          req.Amount,
		"currency":        req.Currency,
		"receipt":         req.Receipt,
		"payment_capture": capture,
	}

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := r.orders.Create(data, nil)
		done <- result{body: body, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, &Error{Err: ctx.Err()}
	case res = <-done:
	}
	if res.err != nil {
		return nil, &Error{Err: res.err}
	}

	order := decodeOrder(res.body)
	if order.ID == "" {
		return nil, &Error{Err: fmt.Errorf("order response without id")}
	}
	return order, nil
}

func decodeOrder(m map[string]interface{}) *Order {
	return &Order{
		ID:         str(m["id"]),
		Entity:     str(m["entity"]),
		Amount:     num(m["amount"]),
		AmountPaid: num(m["amount_paid"]),
		AmountDue:  num(m["amount_due"]),
		Currency:   str(m["currency"]),
		Receipt:    str(m["receipt"]),
		Status:     str(m["status"]),
		Attempts:   num(m["attempts"]),
		CreatedAt:  num(m["created_at"]),
	}
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

// num accepts the float64 produced by encoding/json as well as native ints.
func num(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
