package pricing

import (
	"testing"

	"tabletap/internal/core"
	"tabletap/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testMenu() map[string]models.MenuItem {
	return map[string]models.MenuItem{
		"item-a": {ID: "item-a", Name: "Margherita", Price: d("10"), Category: "pizza", IsAvailable: true},
		"item-b": {ID: "item-b", Name: "Lemonade", Price: d("3"), Category: "drinks", IsAvailable: true},
		"item-c": {ID: "item-c", Name: "Off Menu", Price: d("7"), Category: "pizza", IsAvailable: false},
	}
}

func TestPriceBasicOrder(t *testing.T) {
	// 2x item A at $10 plus 1x item B at $3 with a $2 modifier,
	// 10% tax, no discount.
	quote, err := Price(
		[]models.CreateOrderItemRequest{
			{MenuItemID: "item-a", Quantity: 2},
			{MenuItemID: "item-b", Quantity: 1, Modifiers: []models.Modifier{{Name: "extra syrup", Price: d("2")}}},
		},
		testMenu(), d("10"), "", decimal.Zero, decimal.Zero,
	)
	require.NoError(t, err)

	assert.True(t, quote.Subtotal.Equal(d("25")), "subtotal %s", quote.Subtotal)
	assert.True(t, quote.Tax.Equal(d("2.5")), "tax %s", quote.Tax)
	assert.True(t, quote.Total.Equal(d("27.5")), "total %s", quote.Total)

	require.Len(t, quote.Items, 2)
	assert.True(t, quote.Items[0].TotalPrice.Equal(d("20")))
	assert.True(t, quote.Items[1].TotalPrice.Equal(d("5")))
	assert.Equal(t, models.ItemPending, quote.Items[0].Status)
	assert.NotEmpty(t, quote.Items[0].ID)
	assert.Equal(t, "Margherita", quote.Items[0].Snapshot.Name)
}

func TestPricePercentageDiscount(t *testing.T) {
	// Same order with a 10% discount: tax applies to the discounted
	// subtotal, not the gross one.
	quote, err := Price(
		[]models.CreateOrderItemRequest{
			{MenuItemID: "item-a", Quantity: 2},
			{MenuItemID: "item-b", Quantity: 1, Modifiers: []models.Modifier{{Name: "extra syrup", Price: d("2")}}},
		},
		testMenu(), d("10"), models.DiscountPercentage, d("10"), decimal.Zero,
	)
	require.NoError(t, err)

	assert.True(t, quote.Discount.Equal(d("2.5")), "discount %s", quote.Discount)
	assert.True(t, quote.Tax.Equal(d("2.25")), "tax %s", quote.Tax)
	assert.True(t, quote.Total.Equal(d("24.75")), "total %s", quote.Total)
}

func TestPriceFixedDiscountClamped(t *testing.T) {
	quote, err := Price(
		[]models.CreateOrderItemRequest{{MenuItemID: "item-b", Quantity: 1}},
		testMenu(), d("10"), models.DiscountFixed, d("50"), decimal.Zero,
	)
	require.NoError(t, err)

	// A fixed discount larger than the subtotal never produces a
	// negative remainder.
	assert.True(t, quote.Discount.Equal(d("3")))
	assert.True(t, quote.Tax.Equal(decimal.Zero))
	assert.True(t, quote.Total.Equal(decimal.Zero))
}

func TestPriceTipNotTaxed(t *testing.T) {
	quote, err := Price(
		[]models.CreateOrderItemRequest{{MenuItemID: "item-a", Quantity: 1}},
		testMenu(), d("10"), "", decimal.Zero, d("3"),
	)
	require.NoError(t, err)

	assert.True(t, quote.Tax.Equal(d("1")))
	assert.True(t, quote.Total.Equal(d("14")))
}

func TestPriceSubtotalMatchesItems(t *testing.T) {
	quote, err := Price(
		[]models.CreateOrderItemRequest{
			{MenuItemID: "item-a", Quantity: 3, Modifiers: []models.Modifier{{Name: "extra cheese", Price: d("1.5")}}},
			{MenuItemID: "item-b", Quantity: 2},
		},
		testMenu(), d("10"), models.DiscountFixed, d("4"), d("2"),
	)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, item := range quote.Items {
		sum = sum.Add(item.TotalPrice)
	}
	assert.True(t, quote.Subtotal.Equal(sum))
	assert.True(t, quote.Total.Equal(quote.Subtotal.Sub(quote.Discount).Add(quote.Tax).Add(quote.Tip)))
}

func TestPriceRejections(t *testing.T) {
	menu := testMenu()

	tests := []struct {
		name  string
		lines []models.CreateOrderItemRequest
	}{
		{"unknown item", []models.CreateOrderItemRequest{{MenuItemID: "nope", Quantity: 1}}},
		{"unavailable item", []models.CreateOrderItemRequest{{MenuItemID: "item-c", Quantity: 1}}},
		{"zero quantity", []models.CreateOrderItemRequest{{MenuItemID: "item-a", Quantity: 0}}},
		{"no items", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Price(tt.lines, menu, d("10"), "", decimal.Zero, decimal.Zero)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestPriceRejectsBadDiscounts(t *testing.T) {
	lines := []models.CreateOrderItemRequest{{MenuItemID: "item-a", Quantity: 1}}

	_, err := Price(lines, testMenu(), d("10"), models.DiscountPercentage, d("150"), decimal.Zero)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = Price(lines, testMenu(), d("10"), models.DiscountFixed, d("-1"), decimal.Zero)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = Price(lines, testMenu(), d("10"), "bogus", d("1"), decimal.Zero)
	assert.ErrorIs(t, err, core.ErrValidation)
}
