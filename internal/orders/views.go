package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type ItemProductView struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type ItemView struct {
	ID        int64           `json:"id"`
	Product   ItemProductView `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type View struct {
	ID            int64                `json:"id"`
	CustomerID    int64                `json:"customer_id"`
	PlacedAt      time.Time            `json:"placed_at"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	Items         []ItemView           `json:"items"`
	Total         decimal.Decimal      `json:"total"`
}

func NewView(o domain.Order) View {
	items := make([]ItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemView{
			ID:        item.ID,
			Product:   ItemProductView{ID: item.ProductID, Title: item.ProductTitle},
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return View{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		PlacedAt:      o.PlacedAt,
		PaymentStatus: o.PaymentStatus,
		Items:         items,
		Total:         o.Total(),
	}
}

func NewViews(orders []domain.Order) []View {
	views := make([]View, 0, len(orders))
	for _, o := range orders {
		views = append(views, NewView(o))
	}
	return views
}
