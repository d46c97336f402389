// Package routes wires the edge HTTP surface: signed negotiation endpoints,
// health probes, and metrics.
package routes

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aura/gateway/limiter"
	"aura/gateway/middleware"
	negotiationv1 "aura/proto/negotiation/v1"
)

// EngineClient is the slice of the engine RPC the handlers need. The real
// implementation lives in gateway/client; tests substitute a stub.
type EngineClient interface {
	Negotiate(ctx context.Context, req *negotiationv1.NegotiateRequest) (*negotiationv1.NegotiateResponse, error)
	CheckDealStatus(ctx context.Context, req *negotiationv1.CheckDealStatusRequest) (*negotiationv1.CheckDealStatusResponse, error)
	Check(ctx context.Context, req *negotiationv1.HealthCheckRequest) (*negotiationv1.HealthCheckResponse, error)
}

// Config assembles the router's collaborators.
type Config struct {
	Engine        EngineClient
	Authenticator *middleware.Authenticator
	Limiter       *limiter.Limiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
}

// New builds the edge router.
func New(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{engine: cfg.Engine, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))

	obs := cfg.Observability
	if obs != nil {
		r.Get("/healthz", obs.Middleware("healthz")(http.HandlerFunc(h.healthz)).ServeHTTP)
		r.Get("/readyz", obs.Middleware("readyz")(http.HandlerFunc(h.readyz)).ServeHTTP)
		r.Handle("/metrics", obs.MetricsHandler())
	} else {
		r.Get("/healthz", h.healthz)
		r.Get("/readyz", h.readyz)
	}

	r.Route("/v1", func(sr chi.Router) {
		if obs != nil {
			sr.Use(obs.Middleware("v1"))
		}
		if cfg.Authenticator != nil {
			sr.Use(cfg.Authenticator.Middleware())
		}
		if cfg.Limiter != nil {
			sr.Use(middleware.RateLimit(cfg.Limiter))
		}
		sr.Post("/negotiate", h.negotiate)
		sr.Post("/deals/{dealID}/status", h.dealStatus)
	})

	return r
}

type handlers struct {
	engine EngineClient
	logger *slog.Logger
}
