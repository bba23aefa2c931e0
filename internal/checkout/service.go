package checkout

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/seeds-admin/internal/common"
	"github.com/noah-isme/seeds-admin/internal/obs"
	"github.com/noah-isme/seeds-admin/internal/order"
	"github.com/noah-isme/seeds-admin/internal/pricing"
)

// Defaults applied when the caller carries no identity claims.
const (
	DefaultUserID    = "admin"
	DefaultOrderedBy = "Admin"
)

// Input is the checkout payload: customer details plus an optional final discount.
type Input struct {
	Customer order.CustomerDetails `json:"customerDetails"`
}

// Output is returned once the order has been stored.
type Output struct {
	OrderID   string            `json:"orderId"`
	Status    order.Status      `json:"status"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// Carts is the slice of the cart service used by checkout.
type Carts interface {
	Items(ctx context.Context, userID string) ([]order.CartItem, error)
	Clear(ctx context.Context, userID string) error
}

// Orders places priced orders.
type Orders interface {
	Place(ctx context.Context, o order.Order) (order.Order, error)
}

// Service turns a cart into a pending order.
type Service struct {
	Carts    Carts
	Orders   Orders
	Logger   zerolog.Logger
	Now      func() time.Time
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(carts Carts, orders Orders, logger zerolog.Logger) *Service {
	return &Service{
		Carts:    carts,
		Orders:   orders,
		Logger:   logger,
		Now:      time.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Create validates the customer, prices the caller's cart, stores the order and
// clears the cart.
func (s *Service) Create(ctx context.Context, in Input) (Output, error) {
	in.Customer.Name = strings.TrimSpace(in.Customer.Name)
	in.Customer.Address = strings.TrimSpace(in.Customer.Address)
	in.Customer.MobileNo = strings.TrimSpace(in.Customer.MobileNo)
	if err := s.validate.Struct(in.Customer); err != nil {
		return Output{}, common.ValidationError(err)
	}
	discount := decimal.Zero
	if in.Customer.FinalDiscount.Valid {
		if in.Customer.FinalDiscount.Decimal.IsNegative() {
			appErr := common.NewAppError(common.CodeValidation, "invalid payload", http.StatusBadRequest, pricing.ErrInvalidNumericInput)
			appErr.Details = map[string]any{"fields": map[string]string{"finalDiscount": "gte"}}
			return Output{}, appErr
		}
		discount = in.Customer.FinalDiscount.Decimal
	}

	userID, ok := common.UserID(ctx)
	if !ok || userID == "" {
		userID = DefaultUserID
	}
	orderedBy := common.Actor(ctx)
	if orderedBy == "" {
		orderedBy = DefaultOrderedBy
	}

	items, err := s.Carts.Items(ctx, userID)
	if err != nil {
		return Output{}, err
	}
	if len(items) == 0 {
		return Output{}, common.NewAppError("CART_EMPTY", "cart is empty", http.StatusBadRequest, nil)
	}

	summary := pricing.Compute(order.PricingItems(items), discount)
	for _, w := range summary.Warnings {
		obs.IncCounter(obs.PricingWarningsTotal, w.Field)
		s.Logger.Warn().Err(w).Str("user_id", userID).Msg("pricing term ignored")
	}

	customer := in.Customer
	placed, err := s.Orders.Place(ctx, order.Order{
		UserID:          userID,
		OrderedBy:       orderedBy,
		Items:           items,
		OrderDate:       s.now().UTC(),
		Status:          order.StatusPending,
		CustomerDetails: &customer,
		TotalAmount:     decimal.NewNullDecimal(summary.Subtotal),
		Discount:        decimal.NewNullDecimal(summary.Discount),
		FinalAmount:     decimal.NewNullDecimal(summary.Total),
		NeedsReview:     summary.NeedsReview,
	})
	if err != nil {
		return Output{}, err
	}

	if err := s.Carts.Clear(ctx, userID); err != nil {
		s.Logger.Error().Err(err).Str("order_id", placed.ID).Msg("cart not cleared after checkout")
	}
	return Output{OrderID: placed.ID, Status: placed.Status, Breakdown: summary.Breakdown()}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
