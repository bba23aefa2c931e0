package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/seeds-admin/internal/common"
)

// Service orchestrates catalog reads, admin writes and caching.
type Service struct {
	repo     Repository
	cache    *Cache
	validate *validator.Validate
	log      zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Repository Repository
	Cache      *Cache
	Logger     zerolog.Logger
}

// ProductInput is the admin payload for adding a product.
type ProductInput struct {
	Name          string   `json:"name" validate:"required,max=200"`
	Category      string   `json:"category" validate:"required"`
	Description   string   `json:"description" validate:"max=2000"`
	ImageURL      string   `json:"imageUrl" validate:"omitempty,url"`
	MRP           float64  `json:"mrp" validate:"gt=0"`
	OfferPercent  *float64 `json:"offerPercent" validate:"omitempty,gte=0,lte=100"`
	SalePrice     *float64 `json:"salePrice" validate:"omitempty,gte=0"`
	PricedBy      string   `json:"pricedBy" validate:"omitempty,oneof=offer sale"`
	BagWeight     *float64 `json:"bagWeight" validate:"omitempty,gt=0"`
	Germination   *float64 `json:"germination" validate:"omitempty,gte=0,lte=100"`
	YieldDuration *int     `json:"yieldDuration" validate:"omitempty,gt=0"`
	Season        string   `json:"season" validate:"omitempty,oneof=KHARIF RABI NONE"`
	Active        *bool    `json:"isActive"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repository == nil {
		return nil, errors.New("catalog: repository is required")
	}
	return &Service{
		repo:     cfg.Repository,
		cache:    cfg.Cache,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      cfg.Logger,
	}, nil
}

// ListCategories returns the fixed category list.
func (s *Service) ListCategories(context.Context) []Category {
	return Categories()
}

// ListProducts returns products filtered by category. Inactive products are
// only included when includeInactive is set.
func (s *Service) ListProducts(ctx context.Context, category string, includeInactive bool) ([]Product, error) {
	f := Filter{Category: strings.TrimSpace(category), ActiveOnly: !includeInactive}
	key, err := s.cache.Key(ctx, fmt.Sprintf("products:%s:%t", strings.ToLower(f.Category), f.ActiveOnly))
	if err != nil {
		s.log.Warn().Err(err).Msg("catalog cache key unavailable")
		key = ""
	}
	var cached []Product
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	} else if hit {
		return cached, nil
	}

	products, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, common.ExternalServiceFailure("catalog", err)
	}
	if products == nil {
		products = []Product{}
	}
	if err := s.cache.SetJSON(ctx, key, products); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return products, nil
}

// GetProduct returns a single product.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if errors.Is(err, ErrNotFound) {
		return Product{}, common.NewAppError(common.CodeNotFound, "product not found", http.StatusNotFound, err)
	}
	if err != nil {
		return Product{}, common.ExternalServiceFailure("catalog", err)
	}
	return p, nil
}

// PreviewPricing resolves the sale price / offer percent pair without persisting anything.
func (s *Service) PreviewPricing(in PriceInput) (PriceQuote, error) {
	quote, err := ResolvePricing(in)
	if err != nil {
		return PriceQuote{}, common.NewAppError(common.CodeValidation, "mrp and an offer percent or sale price are required", http.StatusBadRequest, err)
	}
	return quote, nil
}

// CreateProduct validates the admin input, resolves pricing and stores the product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if err := s.validate.Struct(in); err != nil {
		return Product{}, common.ValidationError(err)
	}
	quote, err := s.PreviewPricing(PriceInput{
		MRP:          in.MRP,
		OfferPercent: in.OfferPercent,
		SalePrice:    in.SalePrice,
		PricedBy:     in.PricedBy,
	})
	if err != nil {
		return Product{}, err
	}
	if quote.SalePrice.IsNegative() || quote.SalePrice.GreaterThan(quote.MRP) {
		return Product{}, common.NewAppError(common.CodeValidation, "sale price must be between 0 and mrp", http.StatusBadRequest, nil)
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}
	p := Product{
		Name:          in.Name,
		Category:      in.Category,
		Description:   strings.TrimSpace(in.Description),
		ImageURL:      strings.TrimSpace(in.ImageURL),
		Price:         quote.SalePrice,
		MRP:           decimal.NewNullDecimal(quote.MRP),
		OfferPercent:  decimal.NewNullDecimal(quote.OfferPercent),
		BagWeight:     in.BagWeight,
		Germination:   in.Germination,
		YieldDuration: in.YieldDuration,
		Season:        Season(in.Season),
		Active:        active,
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, common.ExternalServiceFailure("catalog", err)
	}
	s.invalidate(ctx)
	s.log.Info().Str("product_id", created.ID).Str("price", created.Price.StringFixed(2)).Msg("product created")
	return created, nil
}

// SetActive toggles product visibility.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	err := s.repo.SetActive(ctx, strings.TrimSpace(id), active)
	if errors.Is(err, ErrNotFound) {
		return common.NewAppError(common.CodeNotFound, "product not found", http.StatusNotFound, err)
	}
	if err != nil {
		return common.ExternalServiceFailure("catalog", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}
