package order

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/seeds-admin/internal/catalog"
	"github.com/noah-isme/seeds-admin/internal/pricing"
)

// ErrNotFound is returned by ledgers when an order does not exist.
var ErrNotFound = errors.New("order: not found")

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("order: invalid status transition")

// Status is the order lifecycle state.
type Status string

// Order statuses.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an admin may move an order from s to next.
// Only pending orders change state.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && (next == StatusCompleted || next == StatusCanceled)
}

// ParseStatus normalises raw into a Status.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

// Payment methods.
const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

// CartItem is a product line with the unit price captured when it was added.
type CartItem struct {
	ID       string          `json:"id"`
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// LineTotal returns quantity times unit price.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// CustomerDetails is captured at checkout and embedded in the order.
type CustomerDetails struct {
	Name          string              `json:"name" validate:"required,max=120"`
	MobileNo      string              `json:"mobileNo" validate:"required,len=10,numeric"`
	Address       string              `json:"address" validate:"required,max=500"`
	PaymentMethod PaymentMethod       `json:"paymentMethod" validate:"required,oneof=cash card upi"`
	FinalDiscount decimal.NullDecimal `json:"finalDiscount"`
}

// Order is a priced purchase. Amounts are frozen once the order is stored;
// CustomerDetails and the amounts may be missing on historical snapshots.
type Order struct {
	ID              string              `json:"id"`
	UserID          string              `json:"userId"`
	OrderedBy       string              `json:"orderedBy"`
	Items           []CartItem          `json:"items"`
	OrderDate       time.Time           `json:"orderDate"`
	Status          Status              `json:"status"`
	CustomerDetails *CustomerDetails    `json:"customerDetails,omitempty"`
	TotalAmount     decimal.NullDecimal `json:"totalAmount"`
	Discount        decimal.NullDecimal `json:"discount"`
	FinalAmount     decimal.NullDecimal `json:"finalAmount"`
	NeedsReview     bool                `json:"needsReview,omitempty"`
}

// PricingItems converts the order lines into calculator input.
func PricingItems(items []CartItem) []pricing.Item {
	out := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		out = append(out, pricing.Item{Qty: it.Quantity, UnitPrice: it.Price})
	}
	return out
}

func cloneOrder(o Order) Order {
	cp := o
	if o.Items != nil {
		cp.Items = append([]CartItem(nil), o.Items...)
	}
	if o.CustomerDetails != nil {
		cd := *o.CustomerDetails
		cp.CustomerDetails = &cd
	}
	return cp
}
