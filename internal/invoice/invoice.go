// Package invoice renders printable invoices from stored orders and exports them as files.
package invoice

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidOrderSnapshot is returned when an order lacks its id, its items slot or its date.
var ErrInvalidOrderSnapshot = errors.New("invoice: invalid order snapshot")

// ContentType of rendered documents.
const ContentType = "text/html; charset=utf-8"

// Line is one row of the item table.
type Line struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// Invoice is the derived view of an order. It is never stored.
type Invoice struct {
	Number        string
	OrderID       string
	Date          string
	OrderDate     string
	CustomerName  string
	CustomerPhone string
	Address       string
	Status        StatusLabel
	Payment       string
	Lines         []Line
	ItemCount     int
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	FinalAmount   decimal.Decimal
	GeneratedAt   time.Time
}

// Document is a rendered invoice ready to be served or written to disk.
type Document struct {
	Number      string
	OrderID     string
	FileName    string
	ContentType string
	HTML        []byte
}
