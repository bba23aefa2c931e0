package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seeds-admin/internal/auth"
	"github.com/noah-isme/seeds-admin/internal/cart"
	"github.com/noah-isme/seeds-admin/internal/catalog"
	"github.com/noah-isme/seeds-admin/internal/checkout"
	"github.com/noah-isme/seeds-admin/internal/common"
	"github.com/noah-isme/seeds-admin/internal/health"
	"github.com/noah-isme/seeds-admin/internal/invoice"
	"github.com/noah-isme/seeds-admin/internal/obs"
	"github.com/noah-isme/seeds-admin/internal/order"
	"github.com/noah-isme/seeds-admin/internal/ratelimit"
	"github.com/noah-isme/seeds-admin/internal/security"
)

const maxBodyBytes = 1 << 20

// RouterConfig carries everything the HTTP surface needs. Nil limiters,
// metrics, gatherer and pprof switch the matching feature off.
type RouterConfig struct {
	Services        *Services
	Logger          zerolog.Logger
	Probes          []health.Probe
	Idem            common.Idem
	Limiter         ratelimit.Limiter
	CheckoutLimiter ratelimit.Limiter
	Tasks           invoice.Enqueuer
	InvoiceLogoURL  string
	CORSOrigins     []string
	Metrics         *obs.HTTPMetrics
	Gatherer        prometheus.Gatherer
	Pprof           http.Handler
	TracingService  string
}

// NewRouter builds the chi router for the admin API.
func NewRouter(cfg RouterConfig) http.Handler {
	svc := cfg.Services
	authMiddleware := auth.Middleware{Service: svc.Auth}
	requireAdmin := auth.RequireRole(auth.RoleAdmin)
	onLimitError := func(err error) { cfg.Logger.Warn().Err(err).Msg("rate limiter unavailable") }

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: svc.Catalog})
	cartHandler := &cart.Handler{Svc: svc.Carts}
	checkoutHandler := &checkout.Handler{Svc: svc.Checkout}
	orderHandler := &order.Handler{Service: svc.Orders}
	orderAdmin := &order.AdminHandler{Service: svc.Orders}
	invoiceHandler := &invoice.Handler{
		Orders:    svc.Orders,
		Generator: svc.Invoices,
		Queue:     cfg.Tasks,
		LogoURL:   cfg.InvoiceLogoURL,
	}
	healthHandler := health.Handler{Probes: cfg.Probes}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{}.Middleware)
	r.Use(security.BodyLimit{Max: maxBodyBytes}.Middleware)
	if cfg.TracingService != "" {
		r.Use(obs.Tracing(cfg.TracingService))
	}
	r.Use(obs.HTTPObs{Metrics: cfg.Metrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: cfg.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.CORSOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Total-Count", "X-Invoice-Number"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.Pprof != nil {
		r.Mount("/debug/pprof", http.StripPrefix("/debug/pprof", cfg.Pprof))
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(authMiddleware.Authenticate)
		v.Use(ratelimit.Handler{Limiter: cfg.Limiter, OnError: onLimitError}.Middleware)

		v.Get("/categories", catalogHandler.Categories)
		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{id}", catalogHandler.Product)
		v.Post("/products/pricing", catalogHandler.PricingPreview)

		v.Group(func(a chi.Router) {
			a.Use(authMiddleware.RequireAuth)

			a.Route("/cart", func(c chi.Router) {
				c.Get("/", cartHandler.Get)
				c.Delete("/", cartHandler.Clear)
				c.Post("/items", cartHandler.AddItem)
				c.Patch("/items/{itemId}", cartHandler.UpdateItem)
				c.Delete("/items/{itemId}", cartHandler.RemoveItem)
			})

			a.With(
				ratelimit.Handler{Limiter: cfg.CheckoutLimiter, OnError: onLimitError}.Middleware,
				cfg.Idem.Middleware,
			).Post("/checkout", checkoutHandler.Checkout)

			a.Get("/orders", orderHandler.List)
			a.Get("/orders/{id}", orderHandler.Get)
			a.Get("/orders/{id}/invoice", invoiceHandler.View)
			a.With(cfg.Idem.Middleware).Post("/orders/{id}/invoice/export", invoiceHandler.Export)

			a.Route("/admin", func(admin chi.Router) {
				admin.Use(requireAdmin)
				admin.Post("/products", catalogHandler.Create)
				admin.Patch("/products/{id}/active", catalogHandler.SetActive)
				admin.Patch("/orders/{id}/status", orderAdmin.PatchStatus)
			})
		})
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
