package invoice_test

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seeds-admin/internal/catalog"
	"github.com/noah-isme/seeds-admin/internal/invoice"
	"github.com/noah-isme/seeds-admin/internal/order"
)

var orderDate = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func wheatOrder() order.Order {
	return order.Order{
		ID:        "ord-1",
		UserID:    "admin",
		OrderedBy: "Admin",
		Items: []order.CartItem{{
			ID:       "item-1",
			Product:  catalog.Product{ID: "p1", Name: "Wheat", Price: decimal.NewFromInt(100)},
			Quantity: 2,
			Price:    decimal.NewFromInt(100),
		}},
		OrderDate: orderDate,
		Status:    order.StatusPending,
		CustomerDetails: &order.CustomerDetails{
			Name:          "Ravi",
			MobileNo:      "9876543210",
			Address:       "Nashik",
			PaymentMethod: order.PaymentUPI,
		},
		TotalAmount: decimal.NewNullDecimal(decimal.NewFromInt(200)),
		Discount:    decimal.NewNullDecimal(decimal.NewFromInt(20)),
		FinalAmount: decimal.NewNullDecimal(decimal.NewFromInt(180)),
	}
}

func fixedGenerator(at time.Time) *invoice.Generator {
	g := invoice.NewGenerator()
	g.Now = func() time.Time { return at }
	return g
}

func render(t *testing.T, g *invoice.Generator, o order.Order) string {
	t.Helper()
	doc, err := g.Generate(o, "")
	require.NoError(t, err)
	return string(doc.HTML)
}

func TestGenerateWheatOrder(t *testing.T) {
	genAt := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	doc, err := fixedGenerator(genAt).Generate(wheatOrder(), "https://cdn.example.com/logo.png")
	require.NoError(t, err)

	html := string(doc.HTML)
	require.Contains(t, html, "Wheat")
	require.Contains(t, html, "₹100.00")
	require.Contains(t, html, "₹200.00")
	require.Contains(t, html, "−₹20.00")
	require.Contains(t, html, "₹180.00")
	require.Contains(t, html, "Subtotal (2 items)")
	require.Contains(t, html, "UPI Payment")
	require.Contains(t, html, "PENDING")
	require.Contains(t, html, "#ff9800")
	require.Contains(t, html, "18 October 2026, 02:30 pm")
	require.Contains(t, html, "https://cdn.example.com/logo.png")

	require.Equal(t, "Invoice_ord-1_2026-10-19.html", doc.FileName)
	require.Equal(t, invoice.ContentType, doc.ContentType)
	require.Regexp(t, `^INV-2026-\d{6}$`, doc.Number)
	require.Contains(t, html, doc.Number)
}

func TestGenerateOmitsDiscountLine(t *testing.T) {
	g := fixedGenerator(orderDate)
	for name, discount := range map[string]decimal.NullDecimal{
		"absent": {},
		"zero":   decimal.NewNullDecimal(decimal.Zero),
	} {
		t.Run(name, func(t *testing.T) {
			o := wheatOrder()
			o.Discount = discount
			o.FinalAmount = decimal.NewNullDecimal(decimal.NewFromInt(200))
			html := render(t, g, o)
			require.NotContains(t, html, "Discount (−)")
			require.NotContains(t, html, "−₹")
		})
	}
}

func TestGenerateWithoutDiscountOrFinalAmount(t *testing.T) {
	o := wheatOrder()
	o.Discount = decimal.NullDecimal{}
	o.FinalAmount = decimal.NullDecimal{}
	o.TotalAmount = decimal.NewNullDecimal(decimal.NewFromInt(200))

	html := render(t, fixedGenerator(orderDate), o)
	require.NotContains(t, html, "Discount (−)")
	final := finalAmountLine.FindStringSubmatch(html)
	require.Len(t, final, 2)
	require.Equal(t, "₹200.00", final[1])
}

var finalAmountLine = regexp.MustCompile(`FINAL AMOUNT</span>\s*<span class="breakdown-value">([^<]*)</span>`)

func TestGenerateMissingCustomerDetails(t *testing.T) {
	o := wheatOrder()
	o.CustomerDetails = nil

	inv, err := fixedGenerator(orderDate).Build(o)
	require.NoError(t, err)
	require.Equal(t, "N/A", inv.CustomerName)
	require.Equal(t, "N/A", inv.CustomerPhone)
	require.Equal(t, "N/A", inv.Address)
	require.Equal(t, "N/A", inv.Payment)

	html := render(t, fixedGenerator(orderDate), o)
	require.GreaterOrEqual(t, strings.Count(html, "N/A"), 4)
}

func TestGenerateStatusColours(t *testing.T) {
	o := wheatOrder()
	o.Status = order.StatusCompleted
	html := render(t, fixedGenerator(orderDate), o)
	require.Contains(t, html, "COMPLETED")
	require.Contains(t, html, "#4caf50")

	o.Status = order.Status("shipped")
	html = render(t, fixedGenerator(orderDate), o)
	require.Contains(t, html, "SHIPPED")
	require.Contains(t, html, "#888888")
}

func TestGenerateRecomputesMissingAmounts(t *testing.T) {
	o := wheatOrder()
	o.TotalAmount = decimal.NullDecimal{}
	o.FinalAmount = decimal.NullDecimal{}

	inv, err := fixedGenerator(orderDate).Build(o)
	require.NoError(t, err)
	require.Equal(t, "200.00", inv.Subtotal.StringFixed(2))
	require.Equal(t, "180.00", inv.FinalAmount.StringFixed(2))
	require.Equal(t, 2, inv.ItemCount)
}

func TestGenerateEmptyItems(t *testing.T) {
	o := wheatOrder()
	o.Items = []order.CartItem{}
	o.TotalAmount = decimal.NullDecimal{}
	o.Discount = decimal.NullDecimal{}
	o.FinalAmount = decimal.NullDecimal{}
	html := render(t, fixedGenerator(orderDate), o)
	require.Contains(t, html, "No items found")
	require.Contains(t, html, "Subtotal (0 items)")
}

func TestGenerateIsDeterministicApartFromNumber(t *testing.T) {
	o := wheatOrder()
	g := fixedGenerator(orderDate)
	first, err := g.Generate(o, "")
	require.NoError(t, err)

	g.Now = func() time.Time { return orderDate.Add(1234 * time.Millisecond) }
	second, err := g.Generate(o, "")
	require.NoError(t, err)
	require.NotEqual(t, first.Number, second.Number)

	strip := func(d invoice.Document) string {
		return strings.ReplaceAll(string(d.HTML), d.Number, "")
	}
	require.Equal(t, strip(first), strip(second))
}

func TestOrderNumbererIsStable(t *testing.T) {
	g := fixedGenerator(orderDate)
	g.Numberer = invoice.OrderNumberer{}
	first, err := g.Generate(wheatOrder(), "")
	require.NoError(t, err)
	g.Now = func() time.Time { return orderDate.Add(time.Hour) }
	second, err := g.Generate(wheatOrder(), "")
	require.NoError(t, err)
	require.Equal(t, first.Number, second.Number)
	require.Equal(t, first.HTML, second.HTML)
}

func TestGenerateRejectsInvalidSnapshot(t *testing.T) {
	cases := map[string]func(*order.Order){
		"missing id":    func(o *order.Order) { o.ID = "" },
		"missing items": func(o *order.Order) { o.Items = nil },
		"missing date":  func(o *order.Order) { o.OrderDate = time.Time{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			o := wheatOrder()
			mutate(&o)
			_, err := fixedGenerator(orderDate).Generate(o, "")
			require.True(t, errors.Is(err, invoice.ErrInvalidOrderSnapshot))
		})
	}
}

func TestLabels(t *testing.T) {
	require.Equal(t, invoice.StatusLabel{Text: "CANCELED", Color: invoice.ColorRed}, invoice.LabelForStatus(order.StatusCanceled))
	require.Equal(t, "Cash on Delivery", invoice.LabelForPayment(order.PaymentCash))
	require.Equal(t, "Card Payment", invoice.LabelForPayment(order.PaymentCard))
	require.Equal(t, "N/A", invoice.LabelForPayment(order.PaymentMethod("cheque")))
	require.Equal(t, "₹0.50", invoice.Rupees(decimal.RequireFromString("0.5")))
	require.Equal(t, "−₹20.00", invoice.DiscountRupees(decimal.NewFromInt(20)))
}

func TestDates(t *testing.T) {
	at := time.Date(2026, 1, 5, 18, 45, 0, 0, time.UTC)
	require.Equal(t, "6 January 2026, 12:15 am", invoice.LongDate(at, nil))
	require.Equal(t, "6 Jan 2026", invoice.ShortDate(at, invoice.DefaultLocation))
	require.Equal(t, "5 Jan 2026", invoice.ShortDate(at, time.UTC))
	require.Equal(t, invoice.DefaultLocation, invoice.LoadLocation("Not/AZone"))
	require.Equal(t, invoice.DefaultLocation, invoice.LoadLocation(""))
}

func TestNumbererFor(t *testing.T) {
	require.IsType(t, invoice.OrderNumberer{}, invoice.NumbererFor("ORDER"))
	require.IsType(t, invoice.ClockNumberer{}, invoice.NumbererFor(""))
	at := time.UnixMilli(1_760_000_123_456).UTC()
	require.Equal(t, "INV-2025-123456", invoice.ClockNumberer{}.Number(order.Order{}, at))
}

func TestLoadBrandingOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "branding.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Green Fields\nphone: \"+91-9000000000\"\n"), 0o600))

	b, err := invoice.LoadBranding(path)
	require.NoError(t, err)
	require.Equal(t, "Green Fields", b.Name)
	require.Equal(t, "+91-9000000000", b.Phone)
	require.Equal(t, invoice.DefaultBranding().ReturnPolicy, b.ReturnPolicy)

	b, err = invoice.LoadBranding("")
	require.NoError(t, err)
	require.Equal(t, invoice.DefaultBranding(), b)

	_, err = invoice.LoadBranding(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
