package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// ItemProductView is the trimmed product embedded in cart item views.
type ItemProductView struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type ItemView struct {
	ID         int64           `json:"id"`
	Product    ItemProductView `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func NewItemView(item domain.CartItem) ItemView {
	return ItemView{
		ID: item.ID,
		Product: ItemProductView{
			ID:        item.ProductID,
			Title:     item.ProductTitle,
			UnitPrice: item.UnitPrice,
		},
		Quantity:   item.Quantity,
		TotalPrice: item.TotalPrice(),
	}
}

func NewItemViews(items []domain.CartItem) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, NewItemView(item))
	}
	return views
}

type View struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	Items      []ItemView      `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func NewView(c domain.Cart, items []domain.CartItem) View {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice())
	}
	return View{
		ID:         c.ID,
		CreatedAt:  c.CreatedAt,
		Items:      NewItemViews(items),
		TotalPrice: total,
	}
}
