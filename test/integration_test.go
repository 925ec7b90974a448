//go:build integration

package test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/customers"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/orders"
)

func seedCollection(ctx context.Context, t *testing.T, repo *catalog.Repository, title string) *domain.Collection {
	t.Helper()
	c := &domain.Collection{Title: title}
	if err := repo.CreateCollection(ctx, c); err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}
	return c
}

func seedProduct(ctx context.Context, t *testing.T, repo *catalog.Repository, collectionID int64, title, price string, inventory int) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Title:        title,
		Slug:         title,
		UnitPrice:    decimal.RequireFromString(price),
		Inventory:    inventory,
		CollectionID: collectionID,
	}
	if err := repo.CreateProduct(ctx, p); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return p
}

func seedCustomer(ctx context.Context, t *testing.T, repo *customers.Repository, userID int64) *domain.Customer {
	t.Helper()
	c := &domain.Customer{
		UserID:     userID,
		Phone:      "555-0100",
		Membership: domain.MembershipBronze,
	}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}
	return c
}

func TestCartItemMerge(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	catalogRepo := catalog.NewRepository(db)
	cartRepo := cart.NewRepository(db)

	collection := seedCollection(ctx, t, catalogRepo, "merge-test")
	product := seedProduct(ctx, t, catalogRepo, collection.ID, "widget", "9.99", 20)

	c, err := cartRepo.Create(ctx)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}

	first, err := cartRepo.AddItem(ctx, c.ID, product.ID, 2)
	if err != nil {
		t.Fatalf("failed to add item: %v", err)
	}
	second, err := cartRepo.AddItem(ctx, c.ID, product.ID, 3)
	if err != nil {
		t.Fatalf("failed to add item again: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected same cart item row, got ids %d and %d", first.ID, second.ID)
	}
	if second.Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", second.Quantity)
	}
	if second.ProductTitle != "widget" {
		t.Fatalf("expected product title widget, got %q", second.ProductTitle)
	}
	if !second.UnitPrice.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("expected unit price 9.99, got %s", second.UnitPrice)
	}

	items, err := cartRepo.ListItems(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected a single cart item row, got %d", len(items))
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	cartRepo := cart.NewRepository(db)

	c, err := cartRepo.Create(ctx)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}

	_, err = cartRepo.AddItem(ctx, c.ID, 999999, 1)
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	items, err := cartRepo.ListItems(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to list items: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no cart items after failed add, got %d", len(items))
	}
}

func TestOrderPlacement(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	catalogRepo := catalog.NewRepository(db)
	cartRepo := cart.NewRepository(db)
	customerRepo := customers.NewRepository(db)
	orderRepo := orders.NewRepository(db)

	collection := seedCollection(ctx, t, catalogRepo, "placement-test")
	widget := seedProduct(ctx, t, catalogRepo, collection.ID, "widget", "10.00", 50)
	gadget := seedProduct(ctx, t, catalogRepo, collection.ID, "gadget", "2.50", 50)
	customer := seedCustomer(ctx, t, customerRepo, 42)

	c, err := cartRepo.Create(ctx)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}
	if _, err := cartRepo.AddItem(ctx, c.ID, widget.ID, 2); err != nil {
		t.Fatalf("failed to add widget: %v", err)
	}
	if _, err := cartRepo.AddItem(ctx, c.ID, gadget.ID, 4); err != nil {
		t.Fatalf("failed to add gadget: %v", err)
	}

	order, err := orderRepo.Place(ctx, 42, c.ID)
	if err != nil {
		t.Fatalf("failed to place order: %v", err)
	}

	if order.CustomerID != customer.ID {
		t.Fatalf("expected customer id %d, got %d", customer.ID, order.CustomerID)
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("expected pending payment status, got %s", order.PaymentStatus)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(order.Items))
	}
	if want := decimal.RequireFromString("30.00"); !order.Total().Equal(want) {
		t.Fatalf("expected total %s, got %s", want, order.Total())
	}

	// The cart survives placement but its items do not, so the same
	// cart cannot be converted twice.
	items, err := cartRepo.ListItems(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to list items after placement: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected cart to be emptied, got %d items", len(items))
	}

	_, err = orderRepo.Place(ctx, 42, c.ID)
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error on second placement, got %v", err)
	}
}

func TestOrderPlacementSnapshotsPrices(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	catalogRepo := catalog.NewRepository(db)
	cartRepo := cart.NewRepository(db)
	customerRepo := customers.NewRepository(db)
	orderRepo := orders.NewRepository(db)

	collection := seedCollection(ctx, t, catalogRepo, "snapshot-test")
	product := seedProduct(ctx, t, catalogRepo, collection.ID, "widget", "10.00", 50)
	seedCustomer(ctx, t, customerRepo, 7)

	c, err := cartRepo.Create(ctx)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}
	if _, err := cartRepo.AddItem(ctx, c.ID, product.ID, 1); err != nil {
		t.Fatalf("failed to add item: %v", err)
	}

	order, err := orderRepo.Place(ctx, 7, c.ID)
	if err != nil {
		t.Fatalf("failed to place order: %v", err)
	}

	product.UnitPrice = decimal.RequireFromString("99.99")
	if err := catalogRepo.UpdateProduct(ctx, product); err != nil {
		t.Fatalf("failed to update product price: %v", err)
	}

	fetched, err := orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if want := decimal.RequireFromString("10.00"); !fetched.Items[0].UnitPrice.Equal(want) {
		t.Fatalf("expected snapshotted unit price %s, got %s", want, fetched.Items[0].UnitPrice)
	}
}

func TestOrderPlacementUnknownCart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	customerRepo := customers.NewRepository(db)
	orderRepo := orders.NewRepository(db)

	seedCustomer(ctx, t, customerRepo, 13)

	_, err := orderRepo.Place(ctx, 13, "11111111-2222-3333-4444-555555555555")
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not found error, got %v", err)
	}

	all, err := orderRepo.List(ctx, nil)
	if err != nil {
		t.Fatalf("failed to list orders: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no orders after failed placement, got %d", len(all))
	}
}

func TestDeleteGuards(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	catalogRepo := catalog.NewRepository(db)
	cartRepo := cart.NewRepository(db)
	customerRepo := customers.NewRepository(db)
	orderRepo := orders.NewRepository(db)

	collection := seedCollection(ctx, t, catalogRepo, "guard-test")
	product := seedProduct(ctx, t, catalogRepo, collection.ID, "widget", "5.00", 50)
	customer := seedCustomer(ctx, t, customerRepo, 21)

	c, err := cartRepo.Create(ctx)
	if err != nil {
		t.Fatalf("failed to create cart: %v", err)
	}
	if _, err := cartRepo.AddItem(ctx, c.ID, product.ID, 1); err != nil {
		t.Fatalf("failed to add item: %v", err)
	}
	if _, err := orderRepo.Place(ctx, 21, c.ID); err != nil {
		t.Fatalf("failed to place order: %v", err)
	}

	var conflict *domain.ConflictError

	if err := catalogRepo.DeleteCollection(ctx, collection.ID); !errors.As(err, &conflict) {
		t.Fatalf("expected conflict deleting collection with products, got %v", err)
	}
	if err := catalogRepo.DeleteProduct(ctx, product.ID); !errors.As(err, &conflict) {
		t.Fatalf("expected conflict deleting ordered product, got %v", err)
	}
	if err := customerRepo.Delete(ctx, customer.ID); !errors.As(err, &conflict) {
		t.Fatalf("expected conflict deleting customer with orders, got %v", err)
	}
}

func TestDuplicateCustomerProfile(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	customerRepo := customers.NewRepository(db)
	seedCustomer(ctx, t, customerRepo, 33)

	err := customerRepo.Create(ctx, &domain.Customer{
		UserID:     33,
		Phone:      "555-0101",
		Membership: domain.MembershipGold,
	})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict for duplicate user id, got %v", err)
	}
}

func TestOrderEventRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	producer := messaging.NewProducer(brokers, messaging.TopicOrderPlaced)
	defer func() { _ = producer.Close() }()

	event := domain.OrderPlacedEvent{
		OrderID:    1,
		CustomerID: 42,
		Total:      decimal.RequireFromString("30.00"),
		PlacedAt:   time.Now().UTC(),
	}
	if err := producer.Publish(ctx, "1", event); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	consumer := messaging.NewConsumer(brokers, messaging.TopicOrderPlaced, "test-group",
		messaging.WithStartOffset(kafkago.FirstOffset),
	)
	defer func() { _ = consumer.Close() }()

	received := make(chan domain.OrderPlacedEvent, 1)
	consumeCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()

	go func() {
		_ = consumer.Consume(consumeCtx, func(ctx context.Context, payload []byte) error {
			var got domain.OrderPlacedEvent
			if err := json.Unmarshal(payload, &got); err != nil {
				return err
			}
			received <- got
			return nil
		})
	}()

	select {
	case got := <-received:
		if got.OrderID != event.OrderID {
			t.Fatalf("expected order id %d, got %d", event.OrderID, got.OrderID)
		}
		if !got.Total.Equal(event.Total) {
			t.Fatalf("expected total %s, got %s", event.Total, got.Total)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}
