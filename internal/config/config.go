package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Ledger backends.
const (
	LedgerPostgres = "postgres"
	LedgerMongo    = "mongo"
	LedgerMemory   = "memory"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	LedgerBackend      string
	DatabaseURL        string
	MongoURI           string
	MongoDatabase      string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	CORSAllowedOrigins []string
	CartTTL            time.Duration
	IdempotencyTTL     time.Duration
	CatalogCacheTTL    time.Duration
	KafkaBrokers       []string
	KafkaTopic         string
	InvoiceDir         string
	InvoiceNumbering   string
	InvoiceTimezone    string
	InvoiceBranding    string
	InvoiceLogoURL     string
	RateLimit          string
	CheckoutRateLimit  int
	WorkerConcurrency  int
	SeedDemoCatalog    bool
	Obs                Obs
}

// Obs groups logging, metrics and tracing settings.
type Obs struct {
	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	MetricsBuckets   string
	EnablePrometheus bool
	EnableTracing    bool
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	ServiceName      string
	EnablePprof      bool
	PprofUser        string
	PprofPass        string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		LedgerBackend:      strings.ToLower(strings.TrimSpace(k.String("LEDGER_BACKEND"))),
		DatabaseURL:        k.String("DATABASE_URL"),
		MongoURI:           k.String("MONGO_URI"),
		MongoDatabase:      valueOrDefault(k.String("MONGO_DATABASE"), "seeds"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          valueOrDefault(k.String("JWT_ISSUER"), "seeds-admin"),
		JWTAudience:        valueOrDefault(k.String("JWT_AUDIENCE"), "seeds-admin-app"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CartTTL:            parseDuration(k.String("CART_TTL"), "168h"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CatalogCacheTTL:    parseDuration(k.String("CATALOG_CACHE_TTL"), "1m"),
		KafkaBrokers:       splitAndTrim(k.String("KAFKA_BROKERS")),
		KafkaTopic:         valueOrDefault(k.String("KAFKA_TOPIC"), "seeds.admin.events"),
		InvoiceDir:         valueOrDefault(k.String("INVOICE_DIR"), "./invoices"),
		InvoiceNumbering:   valueOrDefault(k.String("INVOICE_NUMBERING"), "clock"),
		InvoiceTimezone:    valueOrDefault(k.String("INVOICE_TIMEZONE"), "Asia/Kolkata"),
		InvoiceBranding:    strings.TrimSpace(k.String("INVOICE_BRANDING_FILE")),
		InvoiceLogoURL:     strings.TrimSpace(k.String("INVOICE_LOGO_URL")),
		RateLimit:          valueOrDefault(k.String("RATE_LIMIT"), "120-M"),
		CheckoutRateLimit:  parseInt(k.String("CHECKOUT_RATE_LIMIT"), 10),
		WorkerConcurrency:  parseInt(k.String("WORKER_CONCURRENCY"), 5),
		SeedDemoCatalog:    parseBoolDefault(k.String("SEED_DEMO_CATALOG"), false),
		Obs: Obs{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "seeds"),
			MetricsBuckets:   k.String("OBS_METRICS_BUCKETS_MS"),
			EnablePrometheus: parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
			EnableTracing:    parseBoolDefault(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:     k.String("OBS_OTLP_ENDPOINT"),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
			ServiceName:      valueOrDefault(k.String("OBS_SERVICE_NAME"), "seeds-admin"),
			EnablePprof:      parseBoolDefault(k.String("OBS_ENABLE_PPROF"), false),
			PprofUser:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
			PprofPass:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
		},
	}

	if cfg.LedgerBackend == "" {
		cfg.LedgerBackend = LedgerMemory
		if cfg.DatabaseURL != "" {
			cfg.LedgerBackend = LedgerPostgres
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LedgerBackend {
	case LedgerPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres ledger")
		}
	case LedgerMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo ledger")
		}
	case LedgerMemory:
	default:
		return fmt.Errorf("LEDGER_BACKEND %q is not one of postgres, mongo, memory", c.LedgerBackend)
	}
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// SharedLedger reports whether orders written by one process are visible to
// the others. The in-memory ledger is private to its process.
func (c *Config) SharedLedger() bool {
	return c.LedgerBackend != LedgerMemory
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
