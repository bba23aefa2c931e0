package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/seeds-admin/internal/app"
	"github.com/noah-isme/seeds-admin/internal/config"
	"github.com/noah-isme/seeds-admin/internal/invoice"
	"github.com/noah-isme/seeds-admin/internal/lock"
	"github.com/noah-isme/seeds-admin/internal/obs"
	"github.com/noah-isme/seeds-admin/internal/order"
	"github.com/noah-isme/seeds-admin/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("component", "worker").Logger()
	if !cfg.SharedLedger() {
		logger.Fatal().Str("ledger", cfg.LedgerBackend).Msg("worker needs a shared ledger; set LEDGER_BACKEND to postgres or mongo")
	}
	if cfg.Obs.EnablePrometheus {
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
		resilience.MustRegisterMetrics(cfg.Obs.MetricsNamespace, nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	bus := deps.Events()
	orders, err := order.NewService(order.ServiceConfig{Ledger: ledger, Events: bus, Logger: logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("build order service")
	}
	generator, err := app.NewInvoiceGenerator(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("build invoice generator")
	}

	mux := asynq.NewServeMux()
	mux.Handle(invoice.TypeExport, &invoice.ExportWorker{
		Orders:    orders,
		Generator: generator,
		Exporter:  invoice.DirExporter{Dir: cfg.InvoiceDir},
		Events:    bus,
		Lock:      lock.Redis{Client: deps.Redis, Prefix: "lock", TTL: time.Minute, Wait: 2 * time.Second},
		Logger:    logger,
	})

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse task queue url")
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.WorkerConcurrency,
		Logger:          obs.TaskLogger{Logger: logger},
		ShutdownTimeout: 20 * time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Warn().Err(err).Str("task", task.Type()).Msg("task failed")
		}),
	})

	logger.Info().Str("invoice_dir", cfg.InvoiceDir).Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}
