package app

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seeds-admin/internal/auth"
	"github.com/noah-isme/seeds-admin/internal/cart"
	"github.com/noah-isme/seeds-admin/internal/catalog"
	"github.com/noah-isme/seeds-admin/internal/checkout"
	"github.com/noah-isme/seeds-admin/internal/config"
	"github.com/noah-isme/seeds-admin/internal/events"
	"github.com/noah-isme/seeds-admin/internal/invoice"
	"github.com/noah-isme/seeds-admin/internal/order"
)

// Services holds the domain services behind the HTTP API.
type Services struct {
	Auth     *auth.Service
	Catalog  *catalog.Service
	Orders   *order.Service
	Carts    *cart.Service
	Checkout *checkout.Service
	Invoices *invoice.Generator
}

// ServiceOptions are the inputs NewServices needs. Redis may be nil, in which
// case catalog caching is off and carts cannot be used.
type ServiceOptions struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Repository catalog.Repository
	Ledger     order.Ledger
	Redis      *redis.Client
	Events     events.Emitter
}

// NewServices builds every domain service from opts.
func NewServices(opts ServiceOptions) (*Services, error) {
	cfg := opts.Config
	authSvc, err := auth.NewService(auth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		return nil, err
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{
		Repository: opts.Repository,
		Cache:      catalog.NewCache(opts.Redis, cfg.CatalogCacheTTL),
		Logger:     opts.Logger.With().Str("component", "catalog").Logger(),
	})
	if err != nil {
		return nil, err
	}

	orderSvc, err := order.NewService(order.ServiceConfig{
		Ledger: opts.Ledger,
		Events: opts.Events,
		Logger: opts.Logger.With().Str("component", "order").Logger(),
	})
	if err != nil {
		return nil, err
	}

	cartSvc := &cart.Service{
		Store:    cart.RedisStore{Client: opts.Redis, TTL: cfg.CartTTL},
		Products: catalogSvc,
	}

	gen, err := NewInvoiceGenerator(cfg)
	if err != nil {
		return nil, err
	}

	return &Services{
		Auth:     authSvc,
		Catalog:  catalogSvc,
		Orders:   orderSvc,
		Carts:    cartSvc,
		Checkout: checkout.NewService(cartSvc, orderSvc, opts.Logger.With().Str("component", "checkout").Logger()),
		Invoices: gen,
	}, nil
}

// NewInvoiceGenerator applies the invoice branding, numbering and timezone settings.
func NewInvoiceGenerator(cfg *config.Config) (*invoice.Generator, error) {
	branding, err := invoice.LoadBranding(cfg.InvoiceBranding)
	if err != nil {
		return nil, err
	}
	gen := invoice.NewGenerator()
	gen.Branding = branding
	gen.Numberer = invoice.NumbererFor(cfg.InvoiceNumbering)
	gen.Location = invoice.LoadLocation(cfg.InvoiceTimezone)
	return gen, nil
}

// SeedCatalog loads the demo catalog into an empty repository.
func SeedCatalog(ctx context.Context, s *catalog.Service, logger zerolog.Logger) error {
	existing, err := s.ListProducts(ctx, "", true)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	n, err := catalog.Seed(ctx, s)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	logger.Info().Int("products", n).Msg("demo catalog loaded")
	return nil
}
