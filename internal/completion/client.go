// Package completion sends rendered prompts to a hosted chat-completion model.
//
// A Client talks to one Provider with two model identifiers. The primary
// model is always tried first. If, and only if, it answers with a rate-limit
// signal the identical request is sent once to the fallback model. Any other
// failure, or a failed fallback, surfaces as *UpstreamError. A Client never
// makes more than two attempts per call.
package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// ErrRateLimited is returned (possibly wrapped) by providers when the model
// refuses a call because of quota or rate limits.
var ErrRateLimited = errors.New("rate limited")

// Request is the provider-neutral input of one completion.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Provider performs a single completion against model.
type Provider interface {
	Complete(ctx context.Context, model string, req Request) (string, error)
}

// UpstreamError reports a completion that failed for good.
type UpstreamError struct {
	// Model is the identifier of the last model tried.
	Model string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion via %s failed: %v", e.Model, e.Err)
}

// Unwrap exposes the provider error.
func (e *UpstreamError) Unwrap() error { return e.Err }

// Detail is the upstream message without the model prefix, suitable for
// clients.
func (e *UpstreamError) Detail() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

var attempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "roast_completion_attempts_total",
		Help: "Completion calls by model and outcome (ok, rate_limited, error).",
	},
	[]string{"model", "outcome"},
)

func init() {
	prometheus.MustRegister(attempts)
}

// Client applies the primary/fallback policy on top of a Provider.
type Client struct {
	Provider      Provider
	PrimaryModel  string
	FallbackModel string
}

// NewClient builds a Client.
func NewClient(p Provider, primary, fallback string) *Client {
	return &Client{Provider: p, PrimaryModel: primary, FallbackModel: fallback}
}

// Complete returns the text of the first message the model produced.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	out, err := c.try(ctx, c.PrimaryModel, req)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, ErrRateLimited) || c.FallbackModel == "" {
		return "", &UpstreamError{Model: c.PrimaryModel, Err: err}
	}

	zerolog.Ctx(ctx).Warn().
		Str("model", c.PrimaryModel).
		Str("fallback", c.FallbackModel).
		Msg("completion rate limited, retrying with fallback model")

	out, err = c.try(ctx, c.FallbackModel, req)
	if err != nil {
		return "", &UpstreamError{Model: c.FallbackModel, Err: err}
	}
	return out, nil
}

func (c *Client) try(ctx context.Context, model string, req Request) (string, error) {
	out, err := c.Provider.Complete(ctx, model, req)
	switch {
	case err == nil:
		attempts.WithLabelValues(model, "ok").Inc()
	case errors.Is(err, ErrRateLimited):
		attempts.WithLabelValues(model, "rate_limited").Inc()
	default:
		attempts.WithLabelValues(model, "error").Inc()
	}
	return out, err
}
