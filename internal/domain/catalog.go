package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Collection struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	FeaturedProductID *int64 `json:"featured_product_id,omitempty"`
}

type Product struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Inventory    int             `json:"inventory"`
	LastUpdate   time.Time       `json:"last_update"`
	CollectionID int64           `json:"collection_id"`
	PromotionIDs []int64         `json:"promotion_ids,omitempty"`
}

// Validate enforces the catalog bounds: a price must be positive, while
// zero inventory is legal (a product can be sold out).
func (p *Product) Validate() error {
	if p.Title == "" {
		return Validationf("title", "must not be empty")
	}
	if p.Slug == "" {
		return Validationf("slug", "must not be empty")
	}
	if !p.UnitPrice.IsPositive() {
		return Validationf("unit_price", "must be greater than zero")
	}
	if p.Inventory < 0 {
		return Validationf("inventory", "must not be negative")
	}
	if p.CollectionID == 0 {
		return Validationf("collection_id", "is required")
	}
	return nil
}

type Promotion struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Discount    float64 `json:"discount"`
}
