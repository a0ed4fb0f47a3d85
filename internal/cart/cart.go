package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/catalog"
)

// Line is one cart entry: the product's full attribute set plus the held
// quantity. The persisted form is the flat JSON of both.
type Line struct {
	catalog.Product
	Quantity int `json:"quantity"`
}

// Subtotal is the line's price contribution (unit price times quantity).
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
