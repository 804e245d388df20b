// Command server runs the website roast API.
//
// @title       Website Roast API
// @version     1.0
// @description Fetches a website, asks a language model to roast it and returns improvement tips.
// @BasePath    /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-roast-backend/internal/completion"
	"github.com/tbourn/go-roast-backend/internal/config"
	"github.com/tbourn/go-roast-backend/internal/fetch"
	httpapi "github.com/tbourn/go-roast-backend/internal/http"
	"github.com/tbourn/go-roast-backend/internal/observability"
	"github.com/tbourn/go-roast-backend/internal/payment"
	"github.com/tbourn/go-roast-backend/internal/repo"
	"github.com/tbourn/go-roast-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=…".
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	log.Logger = sysutil.NewLogger(os.Stdout, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	store, err := repo.Shared(ctx, cfg.Store.URI, cfg.Store.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("store open failed")
	}

	provider, err := newProvider(cfg.Completion)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Completion.Provider).Msg("completion provider setup failed")
	}

	deps := httpapi.Dependencies{
		Store: store,
		Fetcher: fetch.New(fetch.Config{
			UserAgent:      cfg.Fetch.UserAgent,
			FriendlyErrors: cfg.Fetch.FriendlyErrors,
		}),
		Completer: completion.NewClient(provider, cfg.Completion.Model, cfg.Completion.FallbackModel),
		Gateway:   payment.NewRazorpay(cfg.Payment.KeyID, cfg.Payment.KeySecret),
	}

	r := gin.New()
	roasts := httpapi.RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("base_path", cfg.APIBasePath).
			Str("provider", cfg.Completion.Provider).
			Str("model", cfg.Completion.Model).
			Str("version", version).
			Msg("http server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	// In-flight roast writes finish before the store goes away.
	roasts.Wait()
	if err := store.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("store close error")
	}
	if err := otelShutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown error")
	}
	log.Info().Msg("shutdown complete")
}

func newProvider(cfg config.CompletionConfig) (completion.Provider, error) {
	if cfg.Provider == config.ProviderGemini {
		p, err := completion.NewGeminiProvider(cfg.APIKey, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return completion.NewOpenAIProvider(cfg.BaseURL, cfg.APIKey), nil
}
