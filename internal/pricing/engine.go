package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumericInput marks an input term that was excluded from a computation.
var ErrInvalidNumericInput = errors.New("pricing: invalid numeric input")

// DiscountIndex is the Warning index used for the order-level discount.
const DiscountIndex = -1

var hundred = decimal.NewFromInt(100)

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice decimal.Decimal
}

// Warning reports an input term that was treated as zero.
type Warning struct {
	Index int
	Field string
	Value string
}

func (w Warning) Error() string {
	if w.Index == DiscountIndex {
		return fmt.Sprintf("%s: %s %s", ErrInvalidNumericInput, w.Field, w.Value)
	}
	return fmt.Sprintf("%s: item %d %s %s", ErrInvalidNumericInput, w.Index, w.Field, w.Value)
}

// Unwrap lets errors.Is match ErrInvalidNumericInput.
func (w Warning) Unwrap() error { return ErrInvalidNumericInput }

// Summary aggregates computed pricing components.
type Summary struct {
	ItemCount   int
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	NeedsReview bool
	Warnings    []Warning
}

// Breakdown is the presentation form of a Summary with amounts fixed to two decimals.
type Breakdown struct {
	ItemCount   int    `json:"itemCount"`
	Subtotal    string `json:"subtotal"`
	Discount    string `json:"discount"`
	FinalAmount string `json:"finalAmount"`
	NeedsReview bool   `json:"needsReview,omitempty"`
}

// Breakdown formats the summary for display.
func (s Summary) Breakdown() Breakdown {
	return Breakdown{
		ItemCount:   s.ItemCount,
		Subtotal:    Format(s.Subtotal),
		Discount:    Format(s.Discount),
		FinalAmount: Format(s.Total),
		NeedsReview: s.NeedsReview,
	}
}

// ItemCount sums the quantities of valid items, saturating at math.MaxInt.
func ItemCount(items []Item) int {
	count := 0
	for _, it := range items {
		if !validItem(it) {
			continue
		}
		if count > math.MaxInt-it.Qty {
			return math.MaxInt
		}
		count += it.Qty
	}
	return count
}

// Subtotal sums quantity times unit price over valid items.
func Subtotal(items []Item) decimal.Decimal {
	subtotal := decimal.Zero
	for _, it := range items {
		if !validItem(it) {
			continue
		}
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	return subtotal
}

// FinalAmount returns subtotal minus discount, floored at zero. The second
// return value reports whether the floor was applied.
func FinalAmount(subtotal, discount decimal.Decimal) (decimal.Decimal, bool) {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero, true
	}
	return total, false
}

// Compute calculates cart totals given the provided inputs.
func Compute(items []Item, discount decimal.Decimal) Summary {
	var warnings []Warning
	for i, it := range items {
		if it.Qty < 0 {
			warnings = append(warnings, Warning{Index: i, Field: "qty", Value: fmt.Sprint(it.Qty)})
			continue
		}
		if it.UnitPrice.IsNegative() {
			warnings = append(warnings, Warning{Index: i, Field: "unitPrice", Value: it.UnitPrice.String()})
		}
	}
	if discount.IsNegative() {
		warnings = append(warnings, Warning{Index: DiscountIndex, Field: "discount", Value: discount.String()})
		discount = decimal.Zero
	}
	subtotal := Subtotal(items)
	total, clamped := FinalAmount(subtotal, discount)
	return Summary{
		ItemCount:   ItemCount(items),
		Subtotal:    subtotal,
		Discount:    discount,
		Total:       total,
		NeedsReview: clamped,
		Warnings:    warnings,
	}
}

// SalePrice derives the sale price from an MRP and an offer percentage:
// mrp * (1 - offer/100). ok is false when either input is not finite.
func SalePrice(mrp, offerPercent float64) (decimal.Decimal, bool) {
	if !finite(mrp) || !finite(offerPercent) {
		return decimal.Decimal{}, false
	}
	m := decimal.NewFromFloat(mrp)
	off := m.Mul(decimal.NewFromFloat(offerPercent)).Div(hundred)
	return m.Sub(off), true
}

// OfferPercent derives the offer percentage from an MRP and a sale price:
// (mrp - sale) / mrp * 100. ok is false for non-finite inputs or mrp <= 0.
func OfferPercent(mrp, salePrice float64) (decimal.Decimal, bool) {
	if !finite(mrp) || !finite(salePrice) || mrp <= 0 {
		return decimal.Decimal{}, false
	}
	m := decimal.NewFromFloat(mrp)
	s := decimal.NewFromFloat(salePrice)
	return m.Sub(s).Div(m).Mul(hundred), true
}

// Format renders an amount with exactly two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func validItem(it Item) bool {
	return it.Qty > 0 && !it.UnitPrice.IsNegative()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
