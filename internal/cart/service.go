package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/seeds-admin/internal/catalog"
	"github.com/noah-isme/seeds-admin/internal/common"
	"github.com/noah-isme/seeds-admin/internal/order"
	"github.com/noah-isme/seeds-admin/internal/pricing"
)

// MaxQuantity bounds the quantity of a single cart line.
const MaxQuantity = 10000

var (
	// ErrItemNotFound is returned when a cart line does not exist.
	ErrItemNotFound = errors.New("cart: item not found")
	// ErrQuantityLimit is returned when a line would exceed MaxQuantity.
	ErrQuantityLimit = errors.New("cart: quantity limit exceeded")
)

// ProductLookup resolves catalog products.
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

// Service encapsulates cart domain operations.
type Service struct {
	Store    Store
	Products ProductLookup
}

// View is a cart with its priced summary.
type View struct {
	Items   []order.CartItem  `json:"items"`
	Summary pricing.Breakdown `json:"summary"`
}

func newView(c Cart) View {
	return View{
		Items:   c.Items,
		Summary: pricing.Compute(order.PricingItems(c.Items), decimal.Zero).Breakdown(),
	}
}

// Get returns the user's cart.
func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	c, err := s.Store.Load(ctx, userID)
	if err != nil {
		return View{}, common.ExternalServiceFailure("cart", err)
	}
	return newView(c), nil
}

// Items returns the raw cart lines, used by checkout.
func (s *Service) Items(ctx context.Context, userID string) ([]order.CartItem, error) {
	c, err := s.Store.Load(ctx, userID)
	if err != nil {
		return nil, common.ExternalServiceFailure("cart", err)
	}
	return c.Items, nil
}

// Add puts qty units of a product in the cart, capturing its current price.
// Adding a product already in the cart increases that line's quantity.
func (s *Service) Add(ctx context.Context, userID, productID string, qty int) (View, error) {
	if qty < 1 {
		return View{}, common.NewAppError(common.CodeValidation, "quantity must be at least 1", http.StatusBadRequest, nil)
	}
	if qty > MaxQuantity {
		return View{}, quantityLimitError()
	}
	p, err := s.Products.GetProduct(ctx, strings.TrimSpace(productID))
	if err != nil {
		return View{}, err
	}
	if !p.Active {
		return View{}, common.NewAppError(common.CodeConflict, "product is not available", http.StatusConflict, nil)
	}
	c, err := s.Store.Update(ctx, userID, func(c *Cart) error {
		for i := range c.Items {
			if c.Items[i].Product.ID == p.ID {
				if c.Items[i].Quantity > MaxQuantity-qty {
					return ErrQuantityLimit
				}
				c.Items[i].Quantity += qty
				return nil
			}
		}
		c.Items = append(c.Items, order.CartItem{
			ID:       uuid.NewString(),
			Product:  p,
			Quantity: qty,
			Price:    p.Price,
		})
		return nil
	})
	return s.result(c, err)
}

// SetQuantity changes a line's quantity. A quantity of zero or less removes the line.
func (s *Service) SetQuantity(ctx context.Context, userID, itemID string, qty int) (View, error) {
	if qty > MaxQuantity {
		return View{}, quantityLimitError()
	}
	c, err := s.Store.Update(ctx, userID, func(c *Cart) error {
		for i := range c.Items {
			if c.Items[i].ID != itemID {
				continue
			}
			if qty <= 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			} else {
				c.Items[i].Quantity = qty
			}
			return nil
		}
		return ErrItemNotFound
	})
	return s.result(c, err)
}

// Remove deletes a line from the cart.
func (s *Service) Remove(ctx context.Context, userID, itemID string) (View, error) {
	return s.SetQuantity(ctx, userID, itemID, 0)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.Store.Delete(ctx, userID); err != nil {
		return common.ExternalServiceFailure("cart", err)
	}
	return nil
}

func quantityLimitError() error {
	return common.NewAppError(common.CodeValidation,
		fmt.Sprintf("quantity must not exceed %d", MaxQuantity), http.StatusBadRequest, ErrQuantityLimit)
}

func (s *Service) result(c Cart, err error) (View, error) {
	if errors.Is(err, ErrItemNotFound) {
		return View{}, common.NewAppError(common.CodeNotFound, "cart item not found", http.StatusNotFound, err)
	}
	if errors.Is(err, ErrQuantityLimit) {
		return View{}, quantityLimitError()
	}
	if err != nil {
		return View{}, common.ExternalServiceFailure("cart", err)
	}
	return newView(c), nil
}
