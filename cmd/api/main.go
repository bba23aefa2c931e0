package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/seeds-admin/internal/app"
	"github.com/noah-isme/seeds-admin/internal/common"
	"github.com/noah-isme/seeds-admin/internal/config"
	"github.com/noah-isme/seeds-admin/internal/health"
	"github.com/noah-isme/seeds-admin/internal/invoice"
	"github.com/noah-isme/seeds-admin/internal/obs"
	"github.com/noah-isme/seeds-admin/internal/ratelimit"
	"github.com/noah-isme/seeds-admin/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		Enabled:       cfg.Obs.EnableTracing,
		ServiceName:   cfg.Obs.ServiceName,
		Endpoint:      cfg.Obs.OTLPEndpoint,
		Exporter:      cfg.Obs.TracingExporter,
		SamplingRatio: cfg.Obs.SamplingRatio,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Error().Err(err).Msg("shutdown tracer")
			}
		}()
	}

	var httpMetrics *obs.HTTPMetrics
	var gatherer prometheus.Gatherer
	if cfg.Obs.EnablePrometheus {
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
		resilience.MustRegisterMetrics(cfg.Obs.MetricsNamespace, nil)
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
		gatherer = prometheus.DefaultGatherer
	}

	openCtx, cancelOpen := context.WithTimeout(ctx, 10*time.Second)
	deps, err := app.Open(openCtx, cfg, logger)
	cancelOpen()
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()

	ledger, err := deps.Ledger(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("open ledger")
	}

	svc, err := app.NewServices(app.ServiceOptions{
		Config:     cfg,
		Logger:     logger,
		Repository: deps.CatalogRepository(),
		Ledger:     ledger,
		Redis:      deps.Redis,
		Events:     deps.Events(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build services")
	}
	if cfg.SeedDemoCatalog && !cfg.IsProduction() {
		if err := app.SeedCatalog(ctx, svc.Catalog, logger); err != nil {
			logger.Error().Err(err).Msg("seed demo catalog")
		}
	}

	store, err := ratelimit.NewRedisStore(deps.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("rate limit store")
	}
	globalLimiter, err := ratelimit.NewFixedWindow(cfg.RateLimit, store)
	if err != nil {
		logger.Fatal().Err(err).Str("rate", cfg.RateLimit).Msg("parse RATE_LIMIT")
	}
	checkoutLimiter := ratelimit.SlidingWindow{
		Client: deps.Redis,
		Prefix: "ratelimit:checkout",
		Window: time.Minute,
		Max:    cfg.CheckoutRateLimit,
	}

	var pprofHandler http.Handler
	if cfg.Obs.EnablePprof {
		pprofHandler = obs.Pprof(cfg.Obs.PprofUser, cfg.Obs.PprofPass)
	}
	tracingService := ""
	if cfg.Obs.EnableTracing {
		tracingService = cfg.Obs.ServiceName
	}

	var tasks invoice.Enqueuer
	if cfg.SharedLedger() {
		tasks = deps.Tasks
	} else {
		logger.Warn().Msg("invoice export disabled: the worker cannot read an in-memory ledger")
	}

	handler := app.NewRouter(app.RouterConfig{
		Services:        svc,
		Logger:          logger,
		Probes:          deps.Probes(),
		Idem:            common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL},
		Limiter:         globalLimiter,
		CheckoutLimiter: checkoutLimiter,
		Tasks:           tasks,
		InvoiceLogoURL:  cfg.InvoiceLogoURL,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		Metrics:         httpMetrics,
		Gatherer:        gatherer,
		Pprof:           pprofHandler,
		TracingService:  tracingService,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("ledger", cfg.LedgerBackend).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
		health.SetReady(false)
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}
}
