package checkout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seeds-admin/internal/catalog"
	"github.com/noah-isme/seeds-admin/internal/common"
	"github.com/noah-isme/seeds-admin/internal/order"
)

type stubCarts struct {
	items   map[string][]order.CartItem
	cleared []string
}

func (s *stubCarts) Items(_ context.Context, userID string) ([]order.CartItem, error) {
	return s.items[userID], nil
}

func (s *stubCarts) Clear(_ context.Context, userID string) error {
	s.cleared = append(s.cleared, userID)
	delete(s.items, userID)
	return nil
}

type brokenLedger struct{ *order.MemoryLedger }

func (brokenLedger) CreateOrder(context.Context, order.Order) (string, error) {
	return "", errors.New("ledger offline")
}

func wheat(qty int) order.CartItem {
	return order.CartItem{
		ID:       "line-1",
		Product:  catalog.Product{ID: "p1", Name: "Wheat Seed", Price: decimal.NewFromInt(100), Active: true},
		Quantity: qty,
		Price:    decimal.NewFromInt(100),
	}
}

func customer(discount string) order.CustomerDetails {
	c := order.CustomerDetails{Name: "Ravi", MobileNo: "9876543210", Address: "Nashik", PaymentMethod: order.PaymentCash}
	if discount != "" {
		c.FinalDiscount = decimal.NewNullDecimal(decimal.RequireFromString(discount))
	}
	return c
}

func newCheckout(t *testing.T, ledger order.Ledger, carts *stubCarts) *Service {
	t.Helper()
	orders, err := order.NewService(order.ServiceConfig{Ledger: ledger, Logger: zerolog.Nop()})
	require.NoError(t, err)
	svc := NewService(carts, orders, zerolog.Nop())
	svc.Now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestCheckoutCreatesPendingOrder(t *testing.T) {
	ledger := order.NewMemoryLedger()
	carts := &stubCarts{items: map[string][]order.CartItem{"u1": {wheat(2)}}}
	svc := newCheckout(t, ledger, carts)

	ctx := common.WithActor(common.WithUserID(context.Background(), "u1"), "Asha")
	out, err := svc.Create(ctx, Input{Customer: customer("20")})
	require.NoError(t, err)
	require.Equal(t, order.StatusPending, out.Status)
	require.Equal(t, "200.00", out.Breakdown.Subtotal)
	require.Equal(t, "20.00", out.Breakdown.Discount)
	require.Equal(t, "180.00", out.Breakdown.FinalAmount)
	require.Equal(t, []string{"u1"}, carts.cleared)

	stored, err := ledger.GetOrder(context.Background(), out.OrderID)
	require.NoError(t, err)
	require.Equal(t, "Asha", stored.OrderedBy)
	require.Equal(t, "u1", stored.UserID)
	require.True(t, stored.FinalAmount.Decimal.Equal(decimal.NewFromInt(180)))
	require.True(t, stored.TotalAmount.Decimal.Sub(stored.Discount.Decimal).Equal(stored.FinalAmount.Decimal))
	require.False(t, stored.NeedsReview)
}

func TestCheckoutDefaultsIdentity(t *testing.T) {
	ledger := order.NewMemoryLedger()
	carts := &stubCarts{items: map[string][]order.CartItem{DefaultUserID: {wheat(1)}}}
	svc := newCheckout(t, ledger, carts)

	out, err := svc.Create(context.Background(), Input{Customer: customer("")})
	require.NoError(t, err)
	stored, err := ledger.GetOrder(context.Background(), out.OrderID)
	require.NoError(t, err)
	require.Equal(t, DefaultOrderedBy, stored.OrderedBy)
	require.True(t, stored.Discount.Decimal.IsZero())
}

func TestCheckoutClampsOversizedDiscount(t *testing.T) {
	ledger := order.NewMemoryLedger()
	carts := &stubCarts{items: map[string][]order.CartItem{DefaultUserID: {wheat(1)}}}
	svc := newCheckout(t, ledger, carts)

	out, err := svc.Create(context.Background(), Input{Customer: customer("150")})
	require.NoError(t, err)
	require.Equal(t, "0.00", out.Breakdown.FinalAmount)
	require.True(t, out.Breakdown.NeedsReview)

	stored, err := ledger.GetOrder(context.Background(), out.OrderID)
	require.NoError(t, err)
	require.True(t, stored.NeedsReview)
	require.True(t, stored.Discount.Decimal.Equal(decimal.NewFromInt(150)))
}

func TestCheckoutValidation(t *testing.T) {
	carts := &stubCarts{items: map[string][]order.CartItem{DefaultUserID: {wheat(1)}}}
	svc := newCheckout(t, order.NewMemoryLedger(), carts)
	var appErr *common.AppError

	bad := customer("")
	bad.MobileNo = "12345"
	bad.PaymentMethod = "cheque"
	_, err := svc.Create(context.Background(), Input{Customer: bad})
	require.ErrorAs(t, err, &appErr)
	fields := appErr.Details.(map[string]any)["fields"].(map[string]string)
	require.Equal(t, "len", fields["mobileNo"])
	require.Equal(t, "oneof", fields["paymentMethod"])

	_, err = svc.Create(context.Background(), Input{Customer: customer("-1")})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	require.Empty(t, carts.cleared)
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := newCheckout(t, order.NewMemoryLedger(), &stubCarts{items: map[string][]order.CartItem{}})
	_, err := svc.Create(context.Background(), Input{Customer: customer("")})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "CART_EMPTY", appErr.Code)
}

func TestCheckoutLedgerFailureKeepsCart(t *testing.T) {
	carts := &stubCarts{items: map[string][]order.CartItem{DefaultUserID: {wheat(1)}}}
	svc := newCheckout(t, brokenLedger{order.NewMemoryLedger()}, carts)

	_, err := svc.Create(context.Background(), Input{Customer: customer("")})
	require.ErrorIs(t, err, common.ErrExternalService)
	require.Empty(t, carts.cleared)
	require.Len(t, carts.items[DefaultUserID], 1)
}

func TestCheckoutHandler(t *testing.T) {
	carts := &stubCarts{items: map[string][]order.CartItem{DefaultUserID: {wheat(2)}}}
	h := &Handler{Svc: newCheckout(t, order.NewMemoryLedger(), carts)}

	body := `{"customerDetails":{"name":"Ravi","mobileNo":"9876543210","address":"Nashik","paymentMethod":"upi","finalDiscount":"20"}}`
	rec := httptest.NewRecorder()
	h.Checkout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"finalAmount":"180.00"`)

	rec = httptest.NewRecorder()
	h.Checkout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader("{")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
