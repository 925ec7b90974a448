package admin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
)

const lowInventoryThreshold = 10

// CatalogStore is the catalog surface the product and collection
// screens read from.
type CatalogStore interface {
	ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]domain.Product, error)
	ListCollections(ctx context.Context) ([]catalog.CollectionWithCount, error)
	ClearInventory(ctx context.Context, ids []int64) (int64, error)
}

// CustomerStore lists customer profiles for the customers screen.
type CustomerStore interface {
	List(ctx context.Context) ([]domain.Customer, error)
}

// OrderStore is the order surface the orders and customers screens
// read from.
type OrderStore interface {
	List(ctx context.Context, customerID *int64) ([]domain.Order, error)
	CountByCustomer(ctx context.Context) (map[int64]int, error)
}

type productRow struct {
	domain.Product
	CollectionTitle string
}

type customerRow struct {
	domain.Customer
	OrdersCount int
}

// Screens builds the list screens for every store entity.
func Screens(catalogStore CatalogStore, customerStore CustomerStore, orderStore OrderStore) []ScreenConfig {
	return []ScreenConfig{
		productsScreen(catalogStore),
		collectionsScreen(catalogStore),
		customersScreen(customerStore, orderStore),
		ordersScreen(orderStore),
	}
}

func pageParam(query url.Values) int {
	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	return page
}

func productsScreen(store CatalogStore) ScreenConfig {
	const perPage = 10
	return ScreenConfig{
		Slug:  "products",
		Title: "Products",
		Columns: []Column{
			{Name: "Title", Value: func(row any) string {
				return row.(productRow).Title
			}},
			{Name: "Unit price", Value: func(row any) string {
				return row.(productRow).UnitPrice.StringFixed(2)
			}},
			{Name: "Inventory status", Value: func(row any) string {
				if row.(productRow).Inventory < lowInventoryThreshold {
					return "Low"
				}
				return "OK"
			}},
			{Name: "Collection", Value: func(row any) string {
				return row.(productRow).CollectionTitle
			}},
		},
		Filters: []Filter{
			{
				Label: "Inventory",
				Param: "inventory",
				Options: []FilterOption{
					{Value: "low", Label: "Low"},
					{Value: "ok", Label: "OK"},
				},
			},
		},
		Actions: []Action{
			{
				Slug: "clear-inventory",
				Name: "Clear inventory",
				Run:  store.ClearInventory,
			},
		},
		Rows: func(ctx context.Context, query url.Values) ([]any, error) {
			filter := catalog.ProductFilter{
				Search:   query.Get("search"),
				Page:     pageParam(query),
				PageSize: perPage,
			}
			switch query.Get("inventory") {
			case "low":
				below := lowInventoryThreshold
				filter.InventoryBelow = &below
			case "ok":
				above := lowInventoryThreshold - 1
				filter.InventoryAbove = &above
			}
			if raw := query.Get("collection_id"); raw != "" {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return nil, domain.Validationf("collection_id", "must be an integer")
				}
				filter.CollectionID = &id
			}

			products, err := store.ListProducts(ctx, filter)
			if err != nil {
				return nil, err
			}
			collections, err := store.ListCollections(ctx)
			if err != nil {
				return nil, err
			}
			titles := make(map[int64]string, len(collections))
			for _, c := range collections {
				titles[c.ID] = c.Title
			}

			rows := make([]any, 0, len(products))
			for _, p := range products {
				rows = append(rows, productRow{Product: p, CollectionTitle: titles[p.CollectionID]})
			}
			return rows, nil
		},
		RowID: func(row any) int64 {
			return row.(productRow).ID
		},
	}
}

func collectionsScreen(store CatalogStore) ScreenConfig {
	return ScreenConfig{
		Slug:  "collections",
		Title: "Collections",
		Columns: []Column{
			{Name: "Title", Value: func(row any) string {
				return row.(catalog.CollectionWithCount).Title
			}},
			{Name: "Products", Value: func(row any) string {
				return strconv.Itoa(row.(catalog.CollectionWithCount).ProductsCount)
			}},
		},
		Rows: func(ctx context.Context, query url.Values) ([]any, error) {
			collections, err := store.ListCollections(ctx)
			if err != nil {
				return nil, err
			}
			rows := make([]any, 0, len(collections))
			for _, c := range collections {
				rows = append(rows, c)
			}
			return rows, nil
		},
		RowID: func(row any) int64 {
			return row.(catalog.CollectionWithCount).ID
		},
	}
}

func customersScreen(store CustomerStore, orderStore OrderStore) ScreenConfig {
	return ScreenConfig{
		Slug:  "customers",
		Title: "Customers",
		Columns: []Column{
			{Name: "User", Value: func(row any) string {
				return strconv.FormatInt(row.(customerRow).UserID, 10)
			}},
			{Name: "Phone", Value: func(row any) string {
				return row.(customerRow).Phone
			}},
			{Name: "Membership", Value: func(row any) string {
				return string(row.(customerRow).Membership)
			}},
			{Name: "Orders", Value: func(row any) string {
				return strconv.Itoa(row.(customerRow).OrdersCount)
			}},
		},
		Filters: []Filter{
			{
				Label: "Membership",
				Param: "membership",
				Options: []FilterOption{
					{Value: string(domain.MembershipBronze), Label: "Bronze"},
					{Value: string(domain.MembershipSilver), Label: "Silver"},
					{Value: string(domain.MembershipGold), Label: "Gold"},
				},
			},
		},
		Rows: func(ctx context.Context, query url.Values) ([]any, error) {
			customers, err := store.List(ctx)
			if err != nil {
				return nil, err
			}
			counts, err := orderStore.CountByCustomer(ctx)
			if err != nil {
				return nil, err
			}

			membership := query.Get("membership")
			rows := make([]any, 0, len(customers))
			for _, c := range customers {
				if membership != "" && string(c.Membership) != membership {
					continue
				}
				rows = append(rows, customerRow{Customer: c, OrdersCount: counts[c.ID]})
			}
			return rows, nil
		},
		RowID: func(row any) int64 {
			return row.(customerRow).ID
		},
	}
}

func ordersScreen(store OrderStore) ScreenConfig {
	return ScreenConfig{
		Slug:  "orders",
		Title: "Orders",
		Columns: []Column{
			{Name: "ID", Value: func(row any) string {
				return strconv.FormatInt(row.(domain.Order).ID, 10)
			}},
			{Name: "Placed at", Value: func(row any) string {
				return row.(domain.Order).PlacedAt.Format("2006-01-02 15:04")
			}},
			{Name: "Payment status", Value: func(row any) string {
				return string(row.(domain.Order).PaymentStatus)
			}},
			{Name: "Customer", Value: func(row any) string {
				return fmt.Sprintf("customer %d", row.(domain.Order).CustomerID)
			}},
			{Name: "Total", Value: func(row any) string {
				order := row.(domain.Order)
				return order.Total().StringFixed(2)
			}},
		},
		Filters: []Filter{
			{
				Label: "Payment status",
				Param: "payment_status",
				Options: []FilterOption{
					{Value: string(domain.PaymentStatusPending), Label: "Pending"},
					{Value: string(domain.PaymentStatusComplete), Label: "Complete"},
					{Value: string(domain.PaymentStatusFailed), Label: "Failed"},
				},
			},
		},
		Rows: func(ctx context.Context, query url.Values) ([]any, error) {
			orders, err := store.List(ctx, nil)
			if err != nil {
				return nil, err
			}

			status := query.Get("payment_status")
			rows := make([]any, 0, len(orders))
			for _, o := range orders {
				if status != "" && string(o.PaymentStatus) != status {
					continue
				}
				rows = append(rows, o)
			}
			return rows, nil
		},
		RowID: func(row any) int64 {
			return row.(domain.Order).ID
		},
	}
}
