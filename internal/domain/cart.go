package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is an anonymous container of pending selections, keyed by an
// opaque uuid so ids cannot be guessed or enumerated.
type Cart struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// CartItem holds at most one row per (cart, product); merging the same
// product into a cart accumulates quantity instead of adding rows.
type CartItem struct {
	ID        int64  `json:"id"`
	CartID    string `json:"cart_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`

	// Denormalized product fields, populated on reads for the cart view.
	ProductTitle string          `json:"-"`
	UnitPrice    decimal.Decimal `json:"-"`
}

// TotalPrice is the line total at the product's current price.
func (i CartItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
