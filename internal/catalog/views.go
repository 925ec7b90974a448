package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var taxRate = decimal.NewFromFloat(1.1)

// ProductView is the API representation of a product.
type ProductView struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	PriceWithTax decimal.Decimal `json:"price_with_tax"`
	Inventory    int             `json:"inventory"`
	LastUpdate   time.Time       `json:"last_update"`
	CollectionID int64           `json:"collection_id"`
	PromotionIDs []int64         `json:"promotion_ids,omitempty"`
}

func NewProductView(p domain.Product) ProductView {
	return ProductView{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		UnitPrice:    p.UnitPrice,
		PriceWithTax: p.UnitPrice.Mul(taxRate).Round(3),
		Inventory:    p.Inventory,
		LastUpdate:   p.LastUpdate,
		CollectionID: p.CollectionID,
		PromotionIDs: p.PromotionIDs,
	}
}

func NewProductViews(products []domain.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, NewProductView(p))
	}
	return views
}

// CollectionView is the API representation of a collection.
type CollectionView struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	FeaturedProductID *int64 `json:"featured_product_id,omitempty"`
	ProductsCount     int    `json:"products_count"`
}

func NewCollectionView(c CollectionWithCount) CollectionView {
	return CollectionView{
		ID:                c.ID,
		Title:             c.Title,
		FeaturedProductID: c.FeaturedProductID,
		ProductsCount:     c.ProductsCount,
	}
}

func NewCollectionViews(collections []CollectionWithCount) []CollectionView {
	views := make([]CollectionView, 0, len(collections))
	for _, c := range collections {
		views = append(views, NewCollectionView(c))
	}
	return views
}
