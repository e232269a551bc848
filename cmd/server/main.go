package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/DulceVerde/server/internal/catalog"
	"github.com/DulceVerde/server/internal/circuitbreaker"
	"github.com/DulceVerde/server/internal/config"
	"github.com/DulceVerde/server/internal/httpserver"
	"github.com/DulceVerde/server/internal/idempotency"
	"github.com/DulceVerde/server/internal/lifecycle"
	"github.com/DulceVerde/server/internal/logger"
	"github.com/DulceVerde/server/internal/metrics"
	stripesvc "github.com/DulceVerde/server/internal/stripe"
)

const serviceName = "dulce-verde"

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Local development convenience; a missing .env file is fine.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	appLogger := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     serviceName,
		Version:     version,
		Environment: cfg.Logging.Environment,
	})

	appLogger.Info().
		Str("address", cfg.Server.Address).
		Str("stripe_mode", cfg.Stripe.Mode).
		Msg("server.starting")

	// The process boots even with incomplete checkout settings; both
	// checkout handlers re-check per request and answer 500 until the
	// configuration is fixed.
	if err := cfg.ValidateCheckout(); err != nil {
		appLogger.Warn().
			Err(err).
			Msg("server.checkout_config_incomplete")
	}

	resources := lifecycle.NewManager()

	metricsCollector := metrics.New(prometheus.DefaultRegisterer)

	catalogRepo := catalog.NewRepository(cfg.Catalog)

	breaker := circuitbreaker.NewManagerFromConfig(cfg.CircuitBreaker, appLogger)

	stripeClient := stripesvc.NewClient(cfg.Stripe, breaker, metricsCollector)

	idempotencyStore := idempotency.NewMemoryStore()
	resources.RegisterFunc("idempotency-store", func() error {
		idempotencyStore.Stop()
		return nil
	})

	server := httpserver.New(cfg, catalogRepo, stripeClient, idempotencyStore, metricsCollector, appLogger)

	go func() {
		appLogger.Info().
			Str("address", cfg.Server.Address).
			Msg("server.listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error().
				Err(err).
				Msg("server.listen_failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("server.shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error().
			Err(err).
			Msg("server.shutdown_failed")
	}

	if err := resources.Close(); err != nil {
		appLogger.Error().
			Err(err).
			Msg("server.resource_cleanup_failed")
	}

	appLogger.Info().Msg("server.stopped")
}
