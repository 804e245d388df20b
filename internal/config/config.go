// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the document store, the completion provider, the page fetcher,
// payments, rate limiting and observability.
//
// Secrets (completion API key, Razorpay key pair) and the store URI have no
// defaults; Load fails when they are missing so the process never starts in a
// half-configured state.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-roast-backend/internal/sysutil"
)

// Completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-roast-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StoreConfig selects and tunes the document store.
type StoreConfig struct {
	URI          string        // STORE_URI: mongodb://…, mongodb+srv://… or sqlite:<path>
	Database     string        // STORE_DATABASE (MongoDB only)
	WriteTimeout time.Duration // STORE_WRITE_TIMEOUT for background roast writes
}

// CompletionConfig configures the language-model provider.
type CompletionConfig struct {
	Provider      string // COMPLETION_PROVIDER: openai|gemini
	APIKey        string // COMPLETION_API_KEY (falls back to GROQ_API_KEY)
	BaseURL       string // COMPLETION_BASE_URL; empty means the provider default
	Model         string // COMPLETION_MODEL
	FallbackModel string // COMPLETION_FALLBACK_MODEL; used once after a rate limit
}

// FetchConfig configures the page fetcher.
type FetchConfig struct {
	UserAgent      string // FETCH_USER_AGENT
	FriendlyErrors bool   // FETCH_FRIENDLY_ERRORS
}

// PaymentConfig configures the Razorpay order flow.
type PaymentConfig struct {
	KeyID     string // RAZORPAY_KEY_ID
	KeySecret string // RAZORPAY_KEY_SECRET
	Amount    int64  // PAYMENT_AMOUNT in the smallest currency unit
	Currency  string // PAYMENT_CURRENCY
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s; roasts wait on the model
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Domain
	Store      StoreConfig
	Completion CompletionConfig
	Fetch      FetchConfig
	Payment    PaymentConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS           CORSConfig
	Security       SecurityConfig
	TrustedProxies []string // TRUSTED_PROXIES: IPs/CIDRs allowed to set X-Forwarded-For; empty trusts none

	// Idempotency
	IdempotencyTTL time.Duration // how long a payment Idempotency-Key replays

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 64<<10)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// Domain
		Store: StoreConfig{
			URI:          strings.TrimSpace(getenv("STORE_URI", "")),
			Database:     getenv("STORE_DATABASE", "airoast"),
			WriteTimeout: getdur("STORE_WRITE_TIMEOUT", 5*time.Second),
		},
		Completion: CompletionConfig{
			Provider:      strings.ToLower(getenv("COMPLETION_PROVIDER", ProviderOpenAI)),
			APIKey:        sysutil.FirstNonEmpty(os.Getenv("COMPLETION_API_KEY"), os.Getenv("GROQ_API_KEY")),
			BaseURL:       getenv("COMPLETION_BASE_URL", ""),
			Model:         getenv("COMPLETION_MODEL", "llama-3.3-70b-versatile"),
			FallbackModel: getenv("COMPLETION_FALLBACK_MODEL", "groq/compound-mini"),
		},
		Fetch: FetchConfig{
			UserAgent:      getenv("FETCH_USER_AGENT", "AI-Roast-Bot/1.0"),
			FriendlyErrors: getbool("FETCH_FRIENDLY_ERRORS", true),
		},
		Payment: PaymentConfig{
			KeyID:     getenv("RAZORPAY_KEY_ID", ""),
			KeySecret: getenv("RAZORPAY_KEY_SECRET", ""),
			Amount:    int64(getint("PAYMENT_AMOUNT", 4900)),
			Currency:  strings.ToUpper(getenv("PAYMENT_CURRENCY", "INR")),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},
		TrustedProxies: splitCSV(getenv("TRUSTED_PROXIES", "")),

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-roast-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if cfg.Store.URI == "" {
		return cfg, errors.New("STORE_URI is required")
	}
	if cfg.Store.WriteTimeout <= 0 {
		return cfg, errors.New("STORE_WRITE_TIMEOUT must be > 0")
	}
	switch cfg.Completion.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return cfg, fmt.Errorf("COMPLETION_PROVIDER must be %q or %q", ProviderOpenAI, ProviderGemini)
	}
	if strings.TrimSpace(cfg.Completion.APIKey) == "" {
		return cfg, errors.New("COMPLETION_API_KEY (or GROQ_API_KEY) is required")
	}
	if strings.TrimSpace(cfg.Completion.Model) == "" {
		return cfg, errors.New("COMPLETION_MODEL must not be empty")
	}
	if cfg.Payment.KeyID == "" || cfg.Payment.KeySecret == "" {
		return cfg, errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required")
	}
	if cfg.Payment.Amount <= 0 {
		return cfg, errors.New("PAYMENT_AMOUNT must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	for _, p := range cfg.TrustedProxies {
		if !validProxy(p) {
			return cfg, fmt.Errorf("TRUSTED_PROXIES: %q is not an IP or CIDR", p)
		}
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if sysutil.IsTruthy(v) {
			return true
		}
		if sysutil.IsFalsy(v) {
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func validProxy(p string) bool {
	if net.ParseIP(p) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(p)
	return err == nil
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
