// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-roast-backend/docs"
	"github.com/tbourn/go-roast-backend/internal/config"
	"github.com/tbourn/go-roast-backend/internal/http/handlers"
	"github.com/tbourn/go-roast-backend/internal/http/middleware"
	"github.com/tbourn/go-roast-backend/internal/repo"
	"github.com/tbourn/go-roast-backend/internal/services"
)

// Dependencies are the process-scoped collaborators the API is built from.
type Dependencies struct {
	Store     repo.Store
	Fetcher   services.PageFetcher
	Completer services.Completer
	Gateway   services.OrderGateway
	// Examples is optional; nil uses the embedded catalogue.
	Examples *services.ExampleService
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: scrubbed access logs + request-scoped logger
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Compression (responses only, /metrics excluded)
//  8. CORS and Security headers
//
// Idempotency validation and rate limiting are attached per route, the
// validator first so a replayed payment skips the limiter.
//
// The returned RoastService owns the background roast writes; callers drain
// it with Wait on shutdown.
func RegisterRoutes(r *gin.Engine, deps Dependencies, cfg config.Config) *services.RoastService {
	r.HandleMethodNotAllowed = true

	// Client IP (rate-limit buckets, event IP hashes) comes from the socket
	// peer unless that peer is a configured proxy.
	if err := middleware.TrustProxies(r, cfg.TrustedProxies); err != nil {
		log.Error().Err(err).Strs("trusted_proxies", cfg.TrustedProxies).Msg("invalid trusted proxies; trusting none")
		_ = middleware.TrustProxies(r, nil)
	}

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key", "X-Razorpay-Signature"},
		LogHeaders:  cfg.LogLevel == "debug",
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 8) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", handlers.HeaderIdempotencyReplayed}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		methods := strings.Join(allowedMethods(r, c.Request.URL.Path), ", ")
		c.Header("Allow", methods)
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "Only "+methods+" allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) {
		if deps.Store != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Store.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← store/fetcher/completer/gateway
	roastSvc := services.NewRoastService(deps.Fetcher, deps.Completer, deps.Store, cfg.Store.WriteTimeout)
	paySvc := services.NewPaymentService(deps.Gateway, deps.Store, cfg.IdempotencyTTL)
	if cfg.Payment.Amount > 0 {
		paySvc.Amount = cfg.Payment.Amount
	}
	if cfg.Payment.Currency != "" {
		paySvc.Currency = cfg.Payment.Currency
	}
	exampleSvc := deps.Examples
	if exampleSvc == nil {
		exampleSvc = services.NewExampleService()
	}
	h := handlers.New(
		roastSvc,
		paySvc,
		services.NewEventService(deps.Store),
		services.NewStatsService(deps.Store),
		exampleSvc,
	)

	// Per-route guards
	limit := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP()).Handler()
	idem := middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		middleware.IdempotencyLookup(paySvc.HasReplay),
	)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api"
	{
		api.POST("/roast", limit, h.PostRoast)
		api.POST("/payment", idem, limit, h.PostPayment)
		api.POST("/event", limit, h.PostEvent)
		api.GET("/dashboard", limit, h.GetDashboard)
		api.GET("/examples", h.ListExamples)
	}
	return roastSvc
}

// allowedMethods lists the methods registered for path, for 405 responses.
func allowedMethods(r *gin.Engine, path string) []string {
	var out []string
	for _, ri := range r.Routes() {
		if ri.Path == path {
			out = append(out, ri.Method)
		}
	}
	sort.Strings(out)
	return out
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
