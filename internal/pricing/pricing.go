// Package pricing computes order money amounts from menu snapshots.
// All arithmetic stays in decimal form; rounding to presentation
// precision happens at the edges, never here.
package pricing

import (
	"fmt"

	"tabletap/internal/core"
	"tabletap/pkg/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quote is the priced form of an order request.
type Quote struct {
	Items    []models.OrderItem
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Tip      decimal.Decimal
	Total    decimal.Decimal
}

// Price resolves every requested line against the menu snapshot set and
// computes subtotal, discount, tax and total. Tax applies to the
// discounted subtotal at the tenant's rate; tip is added after tax and
// is not taxed.
func Price(
	lines []models.CreateOrderItemRequest,
	menu map[string]models.MenuItem,
	taxRatePercent decimal.Decimal,
	discountType models.DiscountType,
	discountValue decimal.Decimal,
	tip decimal.Decimal,
) (*Quote, error) {
	if len(lines) == 0 {
		return nil, &core.ValidationError{Detail: "order has no items"}
	}
	if len(lines) > core.MaxItemsPerOrder {
		return nil, &core.ValidationError{Detail: fmt.Sprintf("order has more than %d items", core.MaxItemsPerOrder)}
	}
	if tip.IsNegative() {
		return nil, &core.ValidationError{Detail: "tip must not be negative"}
	}
	if discountValue.IsNegative() {
		return nil, &core.ValidationError{Detail: "discount must not be negative"}
	}

	quote := &Quote{
		Items:    make([]models.OrderItem, 0, len(lines)),
		Subtotal: decimal.Zero,
		Tip:      tip,
	}

	for i, line := range lines {
		if line.Quantity <= 0 || line.Quantity > core.MaxItemQuantity {
			return nil, &core.ValidationError{Detail: fmt.Sprintf("item %d: quantity %d out of range [1, %d]", i+1, line.Quantity, core.MaxItemQuantity)}
		}

		menuItem, ok := menu[line.MenuItemID]
		if !ok {
			return nil, &core.ValidationError{Detail: fmt.Sprintf("menu item %s not found", line.MenuItemID)}
		}
		if !menuItem.IsAvailable {
			return nil, &core.ValidationError{Detail: fmt.Sprintf("menu item %s is not available", menuItem.Name)}
		}

		unit := menuItem.Price
		for _, mod := range line.Modifiers {
			if mod.Price.IsNegative() {
				return nil, &core.ValidationError{Detail: fmt.Sprintf("item %d: modifier %s has negative price", i+1, mod.Name)}
			}
			unit = unit.Add(mod.Price)
		}
		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))

		quote.Items = append(quote.Items, models.OrderItem{
			ID:         uuid.NewString(),
			MenuItemID: menuItem.ID,
			Snapshot: models.ItemSnapshot{
				Name:     menuItem.Name,
				Price:    menuItem.Price,
				Category: menuItem.Category,
			},
			Quantity:            line.Quantity,
			BasePrice:           menuItem.Price,
			Modifiers:           line.Modifiers,
			TotalPrice:          lineTotal,
			Status:              models.ItemPending,
			SpecialInstructions: line.SpecialInstructions,
		})
		quote.Subtotal = quote.Subtotal.Add(lineTotal)
	}

	switch discountType {
	case models.DiscountPercentage:
		if discountValue.GreaterThan(hundred) {
			return nil, &core.ValidationError{Detail: "percentage discount exceeds 100"}
		}
		quote.Discount = quote.Subtotal.Mul(discountValue).Div(hundred)
	case models.DiscountFixed:
		// Never leave a negative remainder.
		quote.Discount = decimal.Min(discountValue, quote.Subtotal)
	case "":
		quote.Discount = decimal.Zero
	default:
		return nil, &core.ValidationError{Detail: fmt.Sprintf("unknown discount type %q", discountType)}
	}

	quote.Tax = quote.Subtotal.Sub(quote.Discount).Mul(taxRatePercent).Div(hundred)
	quote.Total = quote.Subtotal.Sub(quote.Discount).Add(quote.Tax).Add(quote.Tip)

	return quote, nil
}
