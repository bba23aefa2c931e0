package catalog

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/seeds-admin/internal/pricing"
)

// ErrPricingUnavailable is returned when neither an offer percent nor a sale price can be derived.
var ErrPricingUnavailable = errors.New("catalog: pricing unavailable")

// Which field the operator edited last.
const (
	PricedByOffer = "offer"
	PricedBySale  = "sale"
)

// PriceInput carries the MRP and whichever of offer percent / sale price the operator entered.
type PriceInput struct {
	MRP          float64  `json:"mrp"`
	OfferPercent *float64 `json:"offerPercent"`
	SalePrice    *float64 `json:"salePrice"`
	PricedBy     string   `json:"pricedBy"`
}

// PriceQuote is the resolved pair of sale price and offer percent, rounded to two decimals.
type PriceQuote struct {
	MRP          decimal.Decimal `json:"mrp"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	OfferPercent decimal.Decimal `json:"offerPercent"`
}

// ResolvePricing treats the last edited field as authoritative and recomputes the other.
// Without an explicit PricedBy, a supplied sale price wins only when no offer percent is given.
func ResolvePricing(in PriceInput) (PriceQuote, error) {
	bySale := in.PricedBy == PricedBySale || (in.PricedBy == "" && in.OfferPercent == nil && in.SalePrice != nil)
	if bySale {
		if in.SalePrice == nil {
			return PriceQuote{}, ErrPricingUnavailable
		}
		offer, ok := pricing.OfferPercent(in.MRP, *in.SalePrice)
		if !ok {
			return PriceQuote{}, ErrPricingUnavailable
		}
		return PriceQuote{
			MRP:          decimal.NewFromFloat(in.MRP).Round(2),
			SalePrice:    decimal.NewFromFloat(*in.SalePrice).Round(2),
			OfferPercent: offer.Round(2),
		}, nil
	}
	offerPercent := 0.0
	if in.OfferPercent != nil {
		offerPercent = *in.OfferPercent
	}
	sale, ok := pricing.SalePrice(in.MRP, offerPercent)
	if !ok {
		return PriceQuote{}, ErrPricingUnavailable
	}
	return PriceQuote{
		MRP:          decimal.NewFromFloat(in.MRP).Round(2),
		SalePrice:    sale.Round(2),
		OfferPercent: decimal.NewFromFloat(offerPercent).Round(2),
	}, nil
}
