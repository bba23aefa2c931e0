package invoice

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/noah-isme/seeds-admin/internal/order"
)

// Numberer assigns invoice numbers of the form INV-<year>-<6 digits>.
type Numberer interface {
	Number(o order.Order, now time.Time) string
}

// ClockNumberer derives the suffix from the generation time in milliseconds.
// Regenerating the same order yields a different number.
type ClockNumberer struct{}

// Number implements Numberer.
func (ClockNumberer) Number(_ order.Order, now time.Time) string {
	return fmt.Sprintf("INV-%d-%06d", now.Year(), now.UnixMilli()%1_000_000)
}

// OrderNumberer derives the number from the order id and order year, so every
// regeneration of an order carries the same number.
type OrderNumberer struct{}

// Number implements Numberer.
func (OrderNumberer) Number(o order.Order, _ time.Time) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(o.ID))
	return fmt.Sprintf("INV-%d-%06d", o.OrderDate.Year(), h.Sum32()%1_000_000)
}

// NumbererFor returns the strategy configured by name ("clock" or "order").
func NumbererFor(name string) Numberer {
	if strings.EqualFold(strings.TrimSpace(name), "order") {
		return OrderNumberer{}
	}
	return ClockNumberer{}
}
