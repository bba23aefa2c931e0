package invoice

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/seeds-admin/internal/order"
	"github.com/noah-isme/seeds-admin/internal/pricing"
)

//go:embed templates/invoice.html.tmpl
var templateFS embed.FS

var invoiceTemplate = template.Must(template.New("invoice.html.tmpl").Funcs(template.FuncMap{
	"rupees":   Rupees,
	"discount": DiscountRupees,
}).ParseFS(templateFS, "templates/invoice.html.tmpl"))

// Generator renders invoices. It holds no mutable state and is safe for concurrent use.
type Generator struct {
	Branding Branding
	Numberer Numberer
	Location *time.Location
	Now      func() time.Time
}

// NewGenerator returns a Generator with default branding, clock numbering and IST dates.
func NewGenerator() *Generator {
	return &Generator{
		Branding: DefaultBranding(),
		Numberer: ClockNumberer{},
		Location: DefaultLocation,
		Now:      time.Now,
	}
}

type view struct {
	Invoice     Invoice
	Brand       Branding
	LogoURL     template.URL
	StatusColor template.CSS
}

// Build derives the invoice for o without rendering it.
func (g *Generator) Build(o order.Order) (Invoice, error) {
	if err := Validate(o); err != nil {
		return Invoice{}, err
	}
	now := g.now()
	numberer := g.Numberer
	if numberer == nil {
		numberer = ClockNumberer{}
	}

	lines := make([]Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, Line{
			Name:      orNA(it.Product.Name),
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			Total:     it.LineTotal(),
		})
	}
	items := order.PricingItems(o.Items)

	subtotal := pricing.Subtotal(items)
	if o.TotalAmount.Valid {
		subtotal = o.TotalAmount.Decimal
	}
	discount := decimal.Zero
	if o.Discount.Valid && o.Discount.Decimal.IsPositive() {
		discount = o.Discount.Decimal
	}
	final, _ := pricing.FinalAmount(subtotal, discount)
	if o.FinalAmount.Valid {
		final = o.FinalAmount.Decimal
	}

	inv := Invoice{
		Number:      numberer.Number(o, now),
		OrderID:     o.ID,
		Date:        LongDate(o.OrderDate, g.Location),
		OrderDate:   ShortDate(o.OrderDate, g.Location),
		Status:      LabelForStatus(o.Status),
		Payment:     notAvailable,
		Lines:       lines,
		ItemCount:   pricing.ItemCount(items),
		Subtotal:    subtotal,
		Discount:    discount,
		FinalAmount: final,
		GeneratedAt: now,
	}
	inv.CustomerName, inv.CustomerPhone, inv.Address = notAvailable, notAvailable, notAvailable
	if cd := o.CustomerDetails; cd != nil {
		inv.CustomerName = orNA(cd.Name)
		inv.CustomerPhone = orNA(cd.MobileNo)
		inv.Address = orNA(cd.Address)
		inv.Payment = LabelForPayment(cd.PaymentMethod)
	}
	return inv, nil
}

// Generate renders o as an HTML document. logoURL overrides the branding logo when set.
func (g *Generator) Generate(o order.Order, logoURL string) (Document, error) {
	inv, err := g.Build(o)
	if err != nil {
		return Document{}, err
	}
	if logoURL == "" {
		logoURL = g.Branding.LogoURL
	}
	var buf bytes.Buffer
	err = invoiceTemplate.Execute(&buf, view{
		Invoice:     inv,
		Brand:       g.Branding,
		LogoURL:     template.URL(logoURL),
		StatusColor: template.CSS(inv.Status.Color),
	})
	if err != nil {
		return Document{}, fmt.Errorf("invoice: render: %w", err)
	}
	return Document{
		Number:      inv.Number,
		OrderID:     o.ID,
		FileName:    FileName(o.ID, inv.GeneratedAt),
		ContentType: ContentType,
		HTML:        buf.Bytes(),
	}, nil
}

// Validate checks the structural fields an invoice cannot be built without.
func Validate(o order.Order) error {
	switch {
	case o.ID == "":
		return fmt.Errorf("%w: missing order id", ErrInvalidOrderSnapshot)
	case o.Items == nil:
		return fmt.Errorf("%w: missing items", ErrInvalidOrderSnapshot)
	case o.OrderDate.IsZero():
		return fmt.Errorf("%w: missing order date", ErrInvalidOrderSnapshot)
	}
	return nil
}

// FileName returns Invoice_<orderId>_<YYYY-MM-DD>.html for the generation date.
func FileName(orderID string, at time.Time) string {
	return fmt.Sprintf("Invoice_%s_%s.html", orderID, at.UTC().Format("2006-01-02"))
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
