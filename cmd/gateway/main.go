// Command gateway serves the signed public HTTP surface and forwards
// negotiation traffic to the engine over gRPC.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"aura/gateway/auth"
	"aura/gateway/client"
	"aura/gateway/config"
	"aura/gateway/limiter"
	"aura/gateway/middleware"
	"aura/gateway/routes"
	"aura/observability/logging"
	"aura/observability/otel"
)

func main() {
	configPath := flag.String("config", "", "path to the gateway config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup("aura-gateway", cfg.Telemetry.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Metrics || cfg.Telemetry.Tracing {
		shutdown, err := otel.Init(ctx, otel.Config{
			ServiceName: "aura-gateway",
			Environment: cfg.Telemetry.Environment,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			Metrics:     cfg.Telemetry.Metrics,
			Traces:      cfg.Telemetry.Tracing,
		})
		if err != nil {
			logger.Error("init telemetry", "error", err)
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("telemetry shutdown", "error", err)
			}
		}()
	}

	store, err := counterStore(cfg.CacheURL)
	if err != nil {
		logger.Error("init rate limit store", "error", err)
		os.Exit(1)
	}

	engine, err := client.Dial(cfg.EngineAddress)
	if err != nil {
		logger.Error("dial engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	handler := routes.New(routes.Config{
		Engine:        engine,
		Authenticator: middleware.NewAuthenticator(auth.NewVerifier(cfg.Auth.ClockSkew, nil), logger),
		Limiter:       limiter.New(store, int64(cfg.RateLimit.Requests), cfg.RateLimit.Window, logger, nil),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName:   "aura-gateway",
			MetricsPrefix: "gateway",
			LogRequests:   true,
		}, logger),
		Logger: logger,
	})

	server := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      otelhttp.NewHandler(handler, "aura-gateway"),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "addr", cfg.ListenAddress, "engine", cfg.EngineAddress)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}
}

// counterStore picks the rate limit backend: shared counters in redis when a
// cache URL is configured, otherwise per-process memory.
func counterStore(cacheURL string) (limiter.CounterStore, error) {
	if cacheURL == "" {
		return limiter.NewMemoryStore(nil), nil
	}
	opts, err := redis.ParseURL(cacheURL)
	if err != nil {
		return nil, err
	}
	return limiter.NewRedisStore(redis.NewClient(opts)), nil
}
