// Command seeder loads the demo seed catalog into Postgres and prints an admin
// token for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/noah-isme/seeds-admin/internal/app"
	"github.com/noah-isme/seeds-admin/internal/auth"
	"github.com/noah-isme/seeds-admin/internal/catalog"
	"github.com/noah-isme/seeds-admin/internal/obs"
)

func main() {
	name := flag.String("name", "Admin", "display name carried in the dev token")
	subject := flag.String("subject", "admin", "user id carried in the dev token")
	ttl := flag.Duration("ttl", 12*time.Hour, "dev token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	logger := obs.NewLogger("console", "info")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()

		svc, err := catalog.NewService(catalog.ServiceConfig{
			Repository: catalog.PostgresRepository{DB: pool},
			Logger:     logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("build catalog service")
		}
		if err := app.SeedCatalog(ctx, svc, logger); err != nil {
			logger.Fatal().Err(err).Msg("seed catalog")
		}
	} else {
		logger.Warn().Msg("DATABASE_URL is not set, skipping catalog seed")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal().Msg("JWT_SECRET is not set")
	}
	authSvc, err := auth.NewService(auth.Config{
		Secret:   secret,
		Issuer:   os.Getenv("JWT_ISSUER"),
		Audience: os.Getenv("JWT_AUDIENCE"),
		TokenTTL: *ttl,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build auth service")
	}
	token, exp, err := authSvc.Issue(auth.Claims{Subject: *subject, Name: *name, Roles: []string{auth.RoleAdmin}})
	if err != nil {
		logger.Fatal().Err(err).Msg("issue token")
	}
	logger.Info().Time("expires", exp).Msg("dev admin token")
	fmt.Println(token)
}
