// Package fetch retrieves the HTML of a site about to be roasted.
//
// A Fetcher issues exactly one GET per call through a gocolly collector that
// carries a fixed, identifying User-Agent. There is no retry and no timeout
// beyond the collector's default. Every failure is reported as *Error, whose
// Message is safe to show to the end user.
//
// Redirects are followed (at most maxRedirects) only while each new target
// passes the same host check the API applies to submitted URLs. That check
// is syntactic: a public name resolving to a private address still passes.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/tbourn/go-roast-backend/internal/urlguard"
)

// DefaultUserAgent identifies the bot to the sites it fetches.
const DefaultUserAgent = "AI-Roast-Bot/1.0"

const maxRedirects = 10

// BlockedMessage is the user-facing message for a redirect to a refused host.
const BlockedMessage = "Blocked for security reasons"

var (
	// ErrRedirectBlocked is the cause when a redirect points at a host the
	// service refuses to contact. The chain also matches
	// urlguard.ErrBlockedTarget.
	ErrRedirectBlocked = errors.New("redirect to blocked host")

	// ErrTooManyRedirects is the cause when a redirect chain exceeds
	// maxRedirects.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Config controls fetcher behavior.
type Config struct {
	// UserAgent overrides DefaultUserAgent when non-empty.
	UserAgent string
	// FriendlyErrors picks a humorous message from the pool for non-2xx
	// responses; when false a deterministic status message is used.
	FriendlyErrors bool
	// Rand is the source for FriendlyMessage. Nil seeds from the clock.
	Rand *rand.Rand
	// Transport replaces the collector's HTTP transport (tests).
	Transport http.RoundTripper
	// BlockHost refuses redirect targets; nil means urlguard.IsBlockedHost.
	BlockHost func(host string) bool
}

// Error is returned for every failed fetch.
//
// StatusCode is the upstream HTTP status, or 0 for network-level failures.
// Message is user-facing; Err carries the underlying cause when there is one.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Fetcher fetches pages with a colly collector.
type Fetcher struct {
	cfg  Config
	base *colly.Collector

	mu  sync.Mutex // guards rnd; *rand.Rand is not safe for concurrent use
	rnd *rand.Rand
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	c := colly.NewCollector(colly.Async(false))
	c.UserAgent = cfg.UserAgent
	c.IgnoreRobotsTxt = true
	// Every request is independent; repeated roasts of the same site are allowed.
	c.AllowURLRevisit = true
	// Hand non-2xx responses to OnResponse so the status can be inspected here
	// instead of colly turning them into opaque errors.
	c.ParseHTTPErrorResponse = true
	if cfg.Transport != nil {
		c.WithTransport(cfg.Transport)
	}
	if cfg.BlockHost == nil {
		cfg.BlockHost = urlguard.IsBlockedHost
	}
	c.SetRedirectHandler(redirectPolicy(cfg.BlockHost))

	return &Fetcher{cfg: cfg, base: c, rnd: rnd}
}

// Fetch GETs rawURL and returns the response body as a string.
//
// A non-2xx status yields *Error with the status code and a friendly (or
// deterministic) message. A transport failure yields *Error with
// "Error fetching site: <cause>".
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	var (
		status  int
		body    []byte
		respErr error
	)

	collector := f.base.Clone()
	collector.UserAgent = f.cfg.UserAgent
	collector.AllowURLRevisit = true
	collector.ParseHTTPErrorResponse = true
	collector.IgnoreRobotsTxt = true

	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		respErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	var visitErr error
	select {
	case <-ctx.Done():
		return "", networkError(ctx.Err())
	case visitErr = <-done:
	}

	if visitErr == nil {
		visitErr = respErr
	}
	if errors.Is(visitErr, ErrRedirectBlocked) {
		return "", &Error{Message: BlockedMessage, Err: visitErr}
	}
	if visitErr != nil && status == 0 {
		return "", networkError(visitErr)
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return "", &Error{
			StatusCode: status,
			Message:    f.statusMessage(status),
			Err:        visitErr,
		}
	}
	return string(body), nil
}

// redirectPolicy re-applies the host check to every redirect hop.
func redirectPolicy(blocked func(host string) bool) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return ErrTooManyRedirects
		}
		if blocked(req.URL.Hostname()) {
			return fmt.Errorf("%w: %w: %s", ErrRedirectBlocked, urlguard.ErrBlockedTarget, req.URL.Hostname())
		}
		return nil
	}
}

func (f *Fetcher) statusMessage(status int) string {
	if !f.cfg.FriendlyErrors {
		return StatusMessage(status)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return FriendlyMessage(f.rnd)
}

func networkError(err error) *Error {
	return &Error{
		Message: "Error fetching site: " + err.Error(),
		Err:     err,
	}
}

// StatusMessage is the deterministic message for a non-2xx response.
func StatusMessage(status int) string {
	return fmt.Sprintf("site responded with status %d", status)
}
