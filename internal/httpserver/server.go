package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/DulceVerde/server/internal/catalog"
	"github.com/DulceVerde/server/internal/config"
	apierrors "github.com/DulceVerde/server/internal/errors"
	"github.com/DulceVerde/server/internal/idempotency"
	"github.com/DulceVerde/server/internal/logger"
	"github.com/DulceVerde/server/internal/metrics"
	"github.com/DulceVerde/server/internal/ratelimit"
	stripesvc "github.com/DulceVerde/server/internal/stripe"
)

var serverStartTime = time.Now()

// checkoutProvider is the slice of the Stripe client the handlers need.
type checkoutProvider interface {
	CreateCheckoutSession(ctx context.Context, req stripesvc.CreateSessionRequest) (stripesvc.CreateSessionResult, error)
	GetSessionSummary(ctx context.Context, sessionID string) (stripesvc.SessionSummary, error)
}

// Server wires handlers, middleware, and dependencies.
type Server struct {
	handlers
	httpServer *http.Server
}

type handlers struct {
	cfg              *config.Config
	catalog          catalog.Repository
	checkout         checkoutProvider
	idempotencyStore idempotency.Store
	metrics          *metrics.Metrics
	logger           zerolog.Logger
}

// New builds the HTTP server with configured router.
func New(cfg *config.Config, catalogRepo catalog.Repository, checkout checkoutProvider, idempotencyStore idempotency.Store, metricsCollector *metrics.Metrics, appLogger zerolog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		handlers: handlers{
			cfg:              cfg,
			catalog:          catalogRepo,
			checkout:         checkout,
			idempotencyStore: idempotencyStore,
			metrics:          metricsCollector,
			logger:           appLogger,
		},
		httpServer: &http.Server{
			Addr:         cfg.Server.Address,
			ReadTimeout:  cfg.Server.ReadTimeout.Duration,
			WriteTimeout: cfg.Server.WriteTimeout.Duration,
			IdleTimeout:  cfg.Server.IdleTimeout.Duration,
			Handler:      router,
		},
	}

	configureRouter(router, s.handlers)

	return s
}

// configureRouter attaches the storefront routes to an existing router.
func configureRouter(router chi.Router, handler handlers) {
	if router == nil {
		return
	}

	cfg := handler.cfg

	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}).Handler)
	}

	// Security headers middleware (applied first for all responses)
	router.Use(securityHeadersMiddleware)

	// Structured logging middleware (BEFORE RequestID for context propagation)
	router.Use(logger.Middleware(handler.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	rateLimitCfg := ratelimit.FromConfig(cfg.RateLimit, handler.metrics)
	router.Use(ratelimit.GlobalLimiter(rateLimitCfg))
	router.Use(ratelimit.IPLimiter(rateLimitCfg))

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMethodNotAllowed, "method not allowed")
	})

	prefix := cfg.Server.RoutePrefix

	// Lightweight endpoints with a short timeout
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Get("/health", handler.health)
		r.Get(prefix+"/checkout/v1/products", handler.listProducts)
		// Prometheus metrics, protected by optional admin API key
		r.With(adminMetricsAuth(cfg.Server.AdminMetricsAPIKey)).Handle(prefix+"/metrics", promhttp.Handler())
	})

	var onReplay func()
	if handler.metrics != nil {
		onReplay = handler.metrics.ObserveIdempotentReplay
	}
	idempotencyMW := idempotency.Middleware(handler.idempotencyStore, 24*time.Hour, onReplay)

	// Checkout endpoints. No timeout middleware here: the session creation
	// call blocks on Stripe for as long as Stripe takes, and the request
	// context still cancels when the client goes away.
	router.Group(func(r chi.Router) {
		r.With(idempotencyMW).Post(prefix+"/checkout/v1/session", handler.createCheckoutSession)
		r.Get(prefix+"/checkout/v1/session", handler.getSessionSummary)
	})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
