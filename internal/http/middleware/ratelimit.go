// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the per-client token-bucket limiter that guards the roast
// API. Every roast costs a page fetch and a model call, so the limiter is the
// main cost protection; it is not an authorization mechanism.
//
// Client identity:
//   - The API is anonymous, so the client address is the only identity.
//   - The address comes from c.ClientIP(), which only honors X-Forwarded-For
//     and X-Real-IP when the socket peer is a trusted proxy (see
//     TrustProxies). With no trusted proxies the socket peer is used, so a
//     client cannot pick its own bucket by rotating headers.
//   - IPv6 clients are bucketed by their /64 prefix: a single subscriber
//     usually controls the whole prefix and can otherwise mint fresh
//     addresses at will.
//
// The limiter is process-local; idle buckets are evicted opportunistically
// to bound memory.
package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipv6BucketBits is the prefix length IPv6 clients are bucketed by.
const ipv6BucketBits = 64

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// TrustProxies configures which socket peers may supply the client address
// through forwarding headers. An empty list trusts none. It returns the
// error from gin for a malformed entry.
func TrustProxies(r *gin.Engine, proxies []string) error {
	// gin trusts every peer until this is called.
	return r.SetTrustedProxies(proxies)
}

// ClientKey returns the bucket identity for the request: "ip:<v4>" for IPv4
// clients and "ip6:<prefix>/64" for IPv6 clients.
func ClientKey(c *gin.Context) string {
	raw := c.ClientIP()
	ip := net.ParseIP(raw)
	if ip == nil {
		return "ip:" + raw
	}
	if v4 := ip.To4(); v4 != nil {
		return "ip:" + v4.String()
	}
	mask := net.CIDRMask(ipv6BucketBits, 128)
	return "ip6:" + ip.Mask(mask).String() + "/" + strconv.Itoa(ipv6BucketBits)
}

// KeyByClientIP returns a keyFunc that buckets requests by ClientKey.
func KeyByClientIP() keyFunc { return ClientKey }

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client token-bucket limiter. It is safe for
// concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	idleTTL time.Duration
	lookups uint64
	sweepN  uint64
}

// NewRateLimiter builds a limiter refilling rps tokens per second up to
// burst (values <= 0 are coerced to 1), keyed by keyFn.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = ClientKey
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		idleTTL: 10 * time.Minute,
		sweepN:  5000,
	}
}

// limiterFor returns the bucket for key, creating it on first use. Every
// sweepN lookups idle buckets are dropped first, so a stale bucket is
// evicted even when it is the one being requested.
func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= rl.sweepN {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// retryAfter is the whole number of seconds until one token refills.
func (rl *RateLimiter) retryAfter() string {
	if rl.rps <= 0 {
		return "60"
	}
	secs := math.Ceil(1 / float64(rl.rps))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatFloat(secs, 'f', 0, 64)
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay that should not consume tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns the Gin middleware. Replays flagged by IdempotencyValidator
// pass through; otherwise a request without a token is rejected with 429, a
// Retry-After header and the standard error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		key := rl.keyFn(c)
		if rl.limiterFor(key, time.Now()).Allow() {
			c.Next()
			return
		}

		rateLimited.WithLabelValues(routeLabel(c)).Inc()

		c.Header("Retry-After", rl.retryAfter())
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"error":      "rate limit exceeded",
		})
	}
}
