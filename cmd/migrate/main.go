package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/noah-isme/seeds-admin/internal/obs"
	"github.com/noah-isme/seeds-admin/migrations"
)

const usage = "usage: migrate [up|down|version|force N]"

func main() {
	_ = godotenv.Load()
	logger := obs.NewLogger("console", "info")

	flag.Parse()
	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}
	m, err := migrations.New(dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("open migrations")
	}
	defer func() { _, _ = m.Close() }()

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return
		}
		err = verr
		if err == nil {
			fmt.Printf("version %d dirty=%t\n", v, dirty)
		}
	case "force":
		v, perr := strconv.Atoi(flag.Arg(1))
		if perr != nil {
			logger.Fatal().Msg(usage)
		}
		err = m.Force(v)
	default:
		logger.Fatal().Msg(usage)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal().Err(err).Str("cmd", cmd).Msg("migrate failed")
	}
	logger.Info().Str("cmd", cmd).Msg("migrate done")
}
