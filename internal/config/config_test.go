package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seeds-admin/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"REDIS_URL":      "redis://localhost:6379/0",
		"JWT_SECRET":     "secret",
		"DATABASE_URL":   "",
		"LEDGER_BACKEND": "",
		"MONGO_URI":      "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, config.LedgerMemory, cfg.LedgerBackend)
	require.False(t, cfg.SharedLedger())
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 168*time.Hour, cfg.CartTTL)
	require.Equal(t, "clock", cfg.InvoiceNumbering)
	require.Equal(t, "Asia/Kolkata", cfg.InvoiceTimezone)
	require.Equal(t, 5, cfg.WorkerConcurrency)
	require.True(t, cfg.Obs.EnablePrometheus)
}

func TestLoadPicksPostgresWhenDatabaseURLSet(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = "postgres://localhost/seeds"
	env["KAFKA_BROKERS"] = "k1:9092, k2:9092,"
	env["CART_TTL"] = "bogus"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, config.LedgerPostgres, cfg.LedgerBackend)
	require.True(t, cfg.SharedLedger())
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 168*time.Hour, cfg.CartTTL)
}

func TestLoadValidatesLedger(t *testing.T) {
	env := baseEnv()
	env["LEDGER_BACKEND"] = "mongo"
	_, err := config.LoadForTests(env)
	require.ErrorContains(t, err, "MONGO_URI")

	env["MONGO_URI"] = "mongodb://localhost:27017"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, "seeds", cfg.MongoDatabase)

	env["LEDGER_BACKEND"] = "sqlite"
	_, err = config.LoadForTests(env)
	require.Error(t, err)
}

func TestLoadRequiresSecrets(t *testing.T) {
	env := baseEnv()
	env["JWT_SECRET"] = ""
	_, err := config.LoadForTests(env)
	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadOpsToggles(t *testing.T) {
	env := baseEnv()
	env["OBS_ENABLE_PPROF"] = "yes"
	env["SECURE_PPROF_BASIC_AUTH_USER"] = " ops "
	env["SEED_DEMO_CATALOG"] = "true"
	env["CHECKOUT_RATE_LIMIT"] = "-3"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.True(t, cfg.Obs.EnablePprof)
	require.Equal(t, "ops", cfg.Obs.PprofUser)
	require.True(t, cfg.SeedDemoCatalog)
	require.Equal(t, 10, cfg.CheckoutRateLimit)
}
