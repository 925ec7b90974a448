package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is published after a cart has been converted into an
// order and the transaction committed.
type OrderPlacedEvent struct {
	OrderID    int64           `json:"order_id"`
	CustomerID int64           `json:"customer_id"`
	Items      []OrderItem     `json:"items"`
	Total      decimal.Decimal `json:"total"`
	PlacedAt   time.Time       `json:"placed_at"`
}
