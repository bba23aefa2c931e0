package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Season is the sowing season a seed is sold for.
type Season string

// Supported seasons.
const (
	SeasonKharif Season = "KHARIF"
	SeasonRabi   Season = "RABI"
	SeasonNone   Season = "NONE"
)

// Valid reports whether s is a known season. The empty season is valid and means unspecified.
func (s Season) Valid() bool {
	switch s {
	case "", SeasonKharif, SeasonRabi, SeasonNone:
		return true
	}
	return false
}

// Product is a seed product as listed in the catalog.
type Product struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Category      string              `json:"category"`
	Description   string              `json:"description"`
	ImageURL      string              `json:"imageUrl"`
	Price         decimal.Decimal     `json:"price"`
	MRP           decimal.NullDecimal `json:"mrp"`
	OfferPercent  decimal.NullDecimal `json:"offerPercent"`
	BagWeight     *float64            `json:"bagWeight,omitempty"`
	Germination   *float64            `json:"germination,omitempty"`
	YieldDuration *int                `json:"yieldDuration,omitempty"`
	Season        Season              `json:"season,omitempty"`
	Active        bool                `json:"isActive"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// Category groups products for browsing.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Categories returns the fixed seed categories offered by the store.
func Categories() []Category {
	return []Category{
		{ID: "1", Name: "Vegetable Seeds", Description: "High-quality vegetable seeds for farming"},
		{ID: "2", Name: "Fruit Seeds", Description: "Premium fruit seeds for orchards"},
		{ID: "3", Name: "Flower Seeds", Description: "Beautiful flower seeds for gardens"},
	}
}
