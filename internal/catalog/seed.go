package catalog

import (
	"context"
	"fmt"
)

// DemoProducts is a small starter catalog for development environments.
func DemoProducts() []ProductInput {
	f := func(v float64) *float64 { return &v }
	i := func(v int) *int { return &v }
	return []ProductInput{
		{Name: "Wheat HD-2967", Category: "Vegetable Seeds", Description: "High yielding wheat for irrigated plains.",
			MRP: 1200, OfferPercent: f(10), PricedBy: PricedByOffer, BagWeight: f(40), Germination: f(85), YieldDuration: i(140), Season: string(SeasonRabi)},
		{Name: "Tomato Hybrid Saaho", Category: "Vegetable Seeds", Description: "Firm fruits, tolerant to leaf curl.",
			MRP: 650, SalePrice: f(585), PricedBy: PricedBySale, BagWeight: f(0.01), Germination: f(90), YieldDuration: i(75), Season: string(SeasonKharif)},
		{Name: "Okra Arka Anamika", Category: "Vegetable Seeds",
			MRP: 320, OfferPercent: f(0), PricedBy: PricedByOffer, BagWeight: f(0.5), Germination: f(80), YieldDuration: i(55), Season: string(SeasonKharif)},
		{Name: "Watermelon Sugar Baby", Category: "Fruit Seeds", Description: "Sweet round fruits, early maturity.",
			MRP: 480, OfferPercent: f(5), PricedBy: PricedByOffer, BagWeight: f(0.05), Germination: f(88), YieldDuration: i(80), Season: string(SeasonNone)},
		{Name: "Marigold African Orange", Category: "Flower Seeds",
			MRP: 250, SalePrice: f(225), PricedBy: PricedBySale, BagWeight: f(0.01), Germination: f(75), YieldDuration: i(60), Season: string(SeasonNone)},
	}
}

// Seed adds DemoProducts through s and returns how many were created.
func Seed(ctx context.Context, s *Service) (int, error) {
	n := 0
	for _, in := range DemoProducts() {
		if _, err := s.CreateProduct(ctx, in); err != nil {
			return n, fmt.Errorf("seed %q: %w", in.Name, err)
		}
		n++
	}
	return n, nil
}
