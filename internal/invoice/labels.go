package invoice

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/seeds-admin/internal/order"
	"github.com/noah-isme/seeds-admin/internal/pricing"
)

const notAvailable = "N/A"

// StatusLabel is the uppercased status text and its display colour.
type StatusLabel struct {
	Text  string
	Color string
}

// Status colours.
const (
	ColorAmber = "#ff9800"
	ColorGreen = "#4caf50"
	ColorRed   = "#f44336"
	ColorGray  = "#888888"
)

// LabelForStatus maps an order status to its label. Unknown statuses keep their
// text and render gray.
func LabelForStatus(s order.Status) StatusLabel {
	text := strings.ToUpper(strings.TrimSpace(string(s)))
	if text == "" {
		text = notAvailable
	}
	switch s {
	case order.StatusPending:
		return StatusLabel{Text: text, Color: ColorAmber}
	case order.StatusCompleted:
		return StatusLabel{Text: text, Color: ColorGreen}
	case order.StatusCanceled:
		return StatusLabel{Text: text, Color: ColorRed}
	}
	return StatusLabel{Text: text, Color: ColorGray}
}

// LabelForPayment maps a payment method to its display text.
func LabelForPayment(m order.PaymentMethod) string {
	switch m {
	case order.PaymentCash:
		return "Cash on Delivery"
	case order.PaymentCard:
		return "Card Payment"
	case order.PaymentUPI:
		return "UPI Payment"
	}
	return notAvailable
}

// Rupees formats an amount as ₹ with two decimals.
func Rupees(d decimal.Decimal) string {
	return "₹" + pricing.Format(d)
}

// DiscountRupees formats a discount with a leading minus sign (U+2212).
func DiscountRupees(d decimal.Decimal) string {
	return "−" + Rupees(d)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
