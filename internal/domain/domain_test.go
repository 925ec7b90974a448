package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProduct() Product {
	return Product{
		Title:        "widget",
		Slug:         "widget",
		UnitPrice:    decimal.RequireFromString("9.99"),
		Inventory:    5,
		CollectionID: 1,
	}
}

func TestProduct_Validate(t *testing.T) {
	t.Run("accepts a valid product", func(t *testing.T) {
		p := validProduct()
		require.NoError(t, p.Validate())
	})

	t.Run("accepts zero inventory", func(t *testing.T) {
		p := validProduct()
		p.Inventory = 0
		require.NoError(t, p.Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Product)
		field  string
	}{
		{"empty title", func(p *Product) { p.Title = "" }, "title"},
		{"empty slug", func(p *Product) { p.Slug = "" }, "slug"},
		{"zero price", func(p *Product) { p.UnitPrice = decimal.Zero }, "unit_price"},
		{"negative price", func(p *Product) { p.UnitPrice = decimal.RequireFromString("-1") }, "unit_price"},
		{"negative inventory", func(p *Product) { p.Inventory = -1 }, "inventory"},
		{"missing collection", func(p *Product) { p.CollectionID = 0 }, "collection_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProduct()
			tt.mutate(&p)

			err := p.Validate()
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.field, validation.Field)
		})
	}
}

func TestCustomer_Validate(t *testing.T) {
	t.Run("accepts a valid customer", func(t *testing.T) {
		c := Customer{UserID: 1, Phone: "555-0100", Membership: MembershipBronze}
		require.NoError(t, c.Validate())
	})

	t.Run("requires a user id", func(t *testing.T) {
		c := Customer{Phone: "555-0100", Membership: MembershipBronze}
		var validation *ValidationError
		require.ErrorAs(t, c.Validate(), &validation)
		assert.Equal(t, "user_id", validation.Field)
	})

	t.Run("rejects an unknown membership", func(t *testing.T) {
		c := Customer{UserID: 1, Phone: "555-0100", Membership: "platinum"}
		var validation *ValidationError
		require.ErrorAs(t, c.Validate(), &validation)
		assert.Equal(t, "membership", validation.Field)
	})
}

func TestMembership_Valid(t *testing.T) {
	assert.True(t, MembershipBronze.Valid())
	assert.True(t, MembershipSilver.Valid())
	assert.True(t, MembershipGold.Valid())
	assert.False(t, Membership("platinum").Valid())
	assert.False(t, Membership("").Valid())
}

func TestPaymentStatus_Valid(t *testing.T) {
	assert.True(t, PaymentStatusPending.Valid())
	assert.True(t, PaymentStatusComplete.Valid())
	assert.True(t, PaymentStatusFailed.Valid())
	assert.False(t, PaymentStatus("refunded").Valid())
}

func TestCartItem_TotalPrice(t *testing.T) {
	item := CartItem{Quantity: 3, UnitPrice: decimal.RequireFromString("2.50")}
	assert.True(t, item.TotalPrice().Equal(decimal.RequireFromString("7.50")))
}

func TestOrder_Total(t *testing.T) {
	t.Run("sums line totals", func(t *testing.T) {
		o := Order{Items: []OrderItem{
			{Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{Quantity: 4, UnitPrice: decimal.RequireFromString("2.50")},
		}}
		assert.True(t, o.Total().Equal(decimal.RequireFromString("30.00")))
	})

	t.Run("is zero without items", func(t *testing.T) {
		var o Order
		assert.True(t, o.Total().Equal(decimal.Zero))
	})
}

func TestErrorMessages(t *testing.T) {
	assert.EqualError(t, Validationf("quantity", "must be at least %d", 1), "invalid quantity: must be at least 1")
	assert.EqualError(t, NotFound("cart", "abc"), `cart "abc" not found`)
	assert.EqualError(t, Conflictf("product", "still referenced"), "product: still referenced")
}
