package invoice

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Branding holds the issuer details and fixed texts printed on every invoice.
type Branding struct {
	Name         string `yaml:"name"`
	Tagline      string `yaml:"tagline"`
	Email        string `yaml:"email"`
	Phone        string `yaml:"phone"`
	Address      string `yaml:"address"`
	LogoURL      string `yaml:"logoUrl"`
	Notes        string `yaml:"notes"`
	PaymentTerms string `yaml:"paymentTerms"`
	ReturnPolicy string `yaml:"returnPolicy"`
	Shipping     string `yaml:"shipping"`
	ThankYou     string `yaml:"thankYou"`
	Copyright    string `yaml:"copyright"`
}

// DefaultBranding returns the built-in issuer details.
func DefaultBranding() Branding {
	return Branding{
		Name:         "Suryadev Seeds",
		Tagline:      "Premium Quality Seeds & Agricultural Products",
		Email:        "info@suryadeveseeds.com",
		Phone:        "+91-XXXXXXXXXX",
		Address:      "Suryadev Seeds, City, State - PIN",
		Notes:        "Thank you for your order! Please ensure payment is completed as per the selected payment method. For any queries, contact our support team.",
		PaymentTerms: "Due upon receipt of invoice",
		ReturnPolicy: "7 days from delivery for defects",
		Shipping:     "Free delivery on orders above ₹5000",
		ThankYou:     "Thank you for your business! We appreciate your support.",
		Copyright:    "© 2026 Suryadev Seeds. All rights reserved.",
	}
}

// LoadBranding reads a YAML file and overlays it on DefaultBranding. An empty
// path returns the defaults.
func LoadBranding(path string) (Branding, error) {
	b := DefaultBranding()
	if path == "" {
		return b, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Branding{}, fmt.Errorf("invoice: read branding: %w", err)
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Branding{}, fmt.Errorf("invoice: parse branding: %w", err)
	}
	return b, nil
}
