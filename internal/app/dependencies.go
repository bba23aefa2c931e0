// Package app wires configuration, connections and services into the HTTP API
// and the background worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/noah-isme/seeds-admin/internal/catalog"
	"github.com/noah-isme/seeds-admin/internal/config"
	"github.com/noah-isme/seeds-admin/internal/events"
	"github.com/noah-isme/seeds-admin/internal/health"
	"github.com/noah-isme/seeds-admin/internal/obs"
	"github.com/noah-isme/seeds-admin/internal/order"
	"github.com/noah-isme/seeds-admin/internal/resilience"
)

const ordersCollection = "orders"

// Dependencies enumerates the connections shared across modules. Fields are
// nil when the configuration does not call for them.
type Dependencies struct {
	Config    *config.Config
	Logger    zerolog.Logger
	DB        *pgxpool.Pool
	Mongo     *mongo.Client
	Redis     *redis.Client
	Tasks     *asynq.Client
	Publisher *events.KafkaPublisher

	closers []func() error
}

// Open connects to every backend the configuration names. On error the
// connections opened so far are closed.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *Dependencies, err error) {
	d := &Dependencies{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	if cfg.DatabaseURL != "" {
		if d.DB, err = openPostgres(ctx, cfg.DatabaseURL); err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() error { d.DB.Close(); return nil })
	}

	if cfg.LedgerBackend == config.LedgerMongo {
		d.Mongo, err = mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI).SetAppName("seeds-admin"))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		d.closers = append(d.closers, func() error { return d.Mongo.Disconnect(context.Background()) })
		if err = d.Mongo.Ping(ctx, readpref.Primary()); err != nil {
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	d.Redis = redis.NewClient(redisOpts)
	d.closers = append(d.closers, d.Redis.Close)
	if err := redisotel.InstrumentTracing(d.Redis); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.Obs.EnablePrometheus {
		if err := redisotel.InstrumentMetrics(d.Redis); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err = d.Redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	taskOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse task queue url: %w", err)
	}
	d.Tasks = asynq.NewClient(taskOpt)
	d.closers = append(d.closers, d.Tasks.Close)

	if len(cfg.KafkaBrokers) > 0 {
		d.Publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		d.closers = append(d.closers, d.Publisher.Close)
	}
	return d, nil
}

func openPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "seeds-admin"
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Close releases connections in reverse order of opening.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Error().Err(err).Msg("close dependency")
		}
	}
	d.closers = nil
}

// Ledger returns the order store selected by LEDGER_BACKEND.
func (d *Dependencies) Ledger(ctx context.Context) (order.Ledger, error) {
	switch d.Config.LedgerBackend {
	case config.LedgerPostgres:
		if d.DB == nil {
			return nil, errors.New("postgres ledger requires DATABASE_URL")
		}
		return order.PostgresLedger{DB: d.DB}, nil
	case config.LedgerMongo:
		if d.Mongo == nil {
			return nil, errors.New("mongo ledger requires MONGO_URI")
		}
		l := order.MongoLedger{Collection: d.Mongo.Database(d.Config.MongoDatabase).Collection(ordersCollection)}
		if err := l.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return l, nil
	default:
		d.Logger.Warn().Msg("using in-memory ledger; orders are lost on restart")
		return order.NewMemoryLedger(), nil
	}
}

// CatalogRepository returns the postgres repository when a database is
// configured and an in-memory one otherwise.
func (d *Dependencies) CatalogRepository() catalog.Repository {
	if d.DB != nil {
		return catalog.PostgresRepository{DB: d.DB}
	}
	return catalog.NewMemoryRepository()
}

// Events builds the bus: Kafka behind a circuit breaker when brokers are
// configured, plus a log notifier.
func (d *Dependencies) Events() *events.Bus {
	bus := &events.Bus{Notifiers: []events.Notifier{events.LogNotifier{Logger: d.Logger}}}
	if d.Publisher != nil {
		breaker := resilience.NewBreaker("kafka", 5, 0.5, 30*time.Second)
		breaker.Logger = d.Logger
		bus.Publisher = events.GuardedPublisher{Next: d.Publisher, Breaker: breaker}
	}
	return bus
}

// Probes lists readiness checks for every open backend.
func (d *Dependencies) Probes() []health.Probe {
	var probes []health.Probe
	if d.DB != nil {
		probes = append(probes, health.Probe{Name: "postgres", Check: d.DB.Ping})
	}
	if d.Mongo != nil {
		probes = append(probes, health.Probe{Name: "mongo", Check: func(ctx context.Context) error {
			return d.Mongo.Ping(ctx, readpref.Primary())
		}})
	}
	if d.Redis != nil {
		probes = append(probes, health.Probe{Name: "redis", Timeout: 300 * time.Millisecond, Check: func(ctx context.Context) error {
			return d.Redis.Ping(ctx).Err()
		}})
	}
	return probes
}
