// Command cored runs the negotiation engine: pricing strategy, deal store,
// and chain settlement behind the internal gRPC surface.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aura/core/chain"
	"aura/core/config"
	"aura/core/market"
	"aura/core/server"
	"aura/core/storage"
	"aura/core/strategy"
	"aura/observability/logging"
	"aura/observability/otel"
)

func main() {
	configPath := flag.String("config", "", "path to the engine config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup("aura-cored", cfg.Telemetry.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Metrics || cfg.Telemetry.Tracing {
		shutdown, err := otel.Init(ctx, otel.Config{
			ServiceName: "aura-cored",
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

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}

	pricing, err := strategy.New(strategy.Config{
		Name:               cfg.Strategy.Name,
		HighValueThreshold: cfg.Strategy.HighValueThreshold,
		LLM: strategy.LLMConfig{
			BaseURL:      cfg.Strategy.BaseURL,
			APIKey:       cfg.Strategy.APIKey,
			BusinessType: cfg.Strategy.BusinessType,
			MarketLoad:   cfg.Strategy.MarketLoad,
			TriggerPrice: cfg.Strategy.TriggerPrice,
			Logger:       logger,
		},
	})
	if err != nil {
		logger.Error("init strategy", "error", err)
		os.Exit(1)
	}

	var mkt *market.Market
	if cfg.Chain.Enabled {
		mkt, err = openMarket(ctx, cfg, store, logger)
		if err != nil {
			logger.Error("init settlement", "error", err)
			os.Exit(1)
		}
	}

	registry := prometheus.NewRegistry()
	svc, err := server.New(server.Config{
		Store:         store,
		Market:        mkt,
		Strategy:      pricing,
		CryptoEnabled: cfg.Chain.Enabled,
		Logger:        logger,
		Registry:      registry,
	})
	if err != nil {
		logger.Error("init service", "error", err)
		os.Exit(1)
	}

	grpcServer := server.NewGRPCServer(svc, logger, cfg.RPCPerMinute)
	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		logger.Error("listen", "addr", cfg.ListenAddress, "error", err)
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.MetricsAddress, Handler: mux}
		go func() {
			logger.Info("metrics listening", "addr", cfg.MetricsAddress)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics serve", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("engine listening", "addr", cfg.ListenAddress, "crypto_enabled", cfg.Chain.Enabled)
		errCh <- grpcServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("serve", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		if metricsServer != nil {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = metricsServer.Shutdown(flushCtx)
			cancel()
		}
		done := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			grpcServer.Stop()
		}
	}
}

func openStore(cfg config.Config) (*storage.Store, error) {
	if cfg.DatabaseDSN != "" {
		return storage.Open(cfg.DatabaseDSN)
	}
	return storage.OpenSQLite(cfg.DatabasePath)
}

func openMarket(ctx context.Context, cfg config.Config, store *storage.Store, logger *slog.Logger) (*market.Market, error) {
	watcher, err := chain.NewWatcher(chain.WatcherConfig{
		RPCURL:          cfg.Chain.RPCURL,
		Network:         cfg.Chain.Network,
		WalletKey:       cfg.Chain.WalletKey,
		StableTokenMint: cfg.Chain.StableTokenMint,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	var source chain.RateSource
	if !cfg.Pricing.UseFixedRates {
		oracle := chain.NewOracle(cfg.Pricing.OracleTTL)
		feeds := make([]chain.Feed, 0, len(cfg.Pricing.Feeds))
		for _, feed := range cfg.Pricing.Feeds {
			feeds = append(feeds, chain.Feed{Token: feed.Token, Name: feed.Name, URL: feed.URL})
		}
		go chain.NewFeedPoller(oracle, feeds, cfg.Pricing.FeedInterval, nil, logger).Run(ctx)
		source = oracle
	}
	converter, err := chain.NewConverter(chain.ConverterConfig{
		UseFixedRates: cfg.Pricing.UseFixedRates,
		USDPerNative:  cfg.Pricing.USDPerSOL,
		USDPerStable:  cfg.Pricing.USDPerUSDC,
		Source:        source,
	}, nil)
	if err != nil {
		return nil, err
	}
	box, err := market.NewSecretBox(cfg.Chain.SecretKey)
	if err != nil {
		return nil, err
	}
	return market.New(market.Config{
		Store:     store,
		Watcher:   watcher,
		Converter: converter,
		Secrets:   box,
		Currency:  cfg.Chain.Currency,
		DealTTL:   cfg.Chain.DealTTL,
		Logger:    logger,
	})
}
