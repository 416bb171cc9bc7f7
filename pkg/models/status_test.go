package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"pending to confirmed", OrderPending, OrderConfirmed, true},
		{"confirmed to preparing", OrderConfirmed, OrderPreparing, true},
		{"ready is derived, not requestable", OrderPreparing, OrderReady, false},
		{"served is derived, not requestable", OrderReady, OrderServed, false},
		{"served to completed", OrderServed, OrderCompleted, true},
		{"pending to preparing skips a step", OrderPending, OrderPreparing, false},
		{"served to ready goes backwards", OrderServed, OrderReady, false},
		{"cancel from pending", OrderPending, OrderCancelled, true},
		{"cancel from served", OrderServed, OrderCancelled, true},
		{"cancel from completed", OrderCompleted, OrderCancelled, false},
		{"cancel from cancelled", OrderCancelled, OrderCancelled, false},
		{"completed is terminal", OrderCompleted, OrderServed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestItemStatusCanTransition(t *testing.T) {
	assert.True(t, ItemPending.CanTransition(ItemPreparing))
	assert.True(t, ItemPreparing.CanTransition(ItemReady))
	assert.True(t, ItemReady.CanTransition(ItemServed))
	assert.False(t, ItemPending.CanTransition(ItemServed))
	assert.False(t, ItemServed.CanTransition(ItemReady))
}

func items(statuses ...ItemStatus) []OrderItem {
	out := make([]OrderItem, len(statuses))
	for i, s := range statuses {
		out[i] = OrderItem{Status: s}
	}
	return out
}

func TestDeriveOrderStatus(t *testing.T) {
	tests := []struct {
		name    string
		items   []OrderItem
		current OrderStatus
		want    OrderStatus
	}{
		{"all ready promotes preparing", items(ItemReady, ItemReady), OrderPreparing, OrderReady},
		{"ready and served promotes preparing", items(ItemReady, ItemServed), OrderPreparing, OrderReady},
		{"one still preparing keeps status", items(ItemReady, ItemPreparing), OrderPreparing, OrderPreparing},
		{"all served promotes to served", items(ItemServed, ItemServed), OrderReady, OrderServed},
		{"all ready does not promote confirmed", items(ItemReady, ItemReady), OrderConfirmed, OrderConfirmed},
		{"terminal is untouched", items(ItemServed, ItemServed), OrderCancelled, OrderCancelled},
		{"no items keeps status", nil, OrderPreparing, OrderPreparing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveOrderStatus(tt.items, tt.current))
		})
	}
}

func TestDeriveOrderStatusIdempotent(t *testing.T) {
	// Re-evaluating after no new item changes must never move the
	// status again.
	mixes := [][]OrderItem{
		items(ItemReady, ItemReady),
		items(ItemServed, ItemServed),
		items(ItemReady, ItemServed),
		items(ItemPreparing, ItemReady),
	}
	for _, mix := range mixes {
		for _, start := range []OrderStatus{OrderConfirmed, OrderPreparing, OrderReady, OrderServed} {
			once := DeriveOrderStatus(mix, start)
			assert.Equal(t, once, DeriveOrderStatus(mix, once))
		}
	}
}

func TestOrderItemLookup(t *testing.T) {
	order := Order{Items: []OrderItem{{ID: "a"}, {ID: "b"}}}

	item, ok := order.Item("b")
	assert.True(t, ok)
	assert.Equal(t, "b", item.ID)

	// The pointer addresses the aggregate's own item, so point
	// updates stick.
	item.Status = ItemReady
	assert.Equal(t, ItemReady, order.Items[1].Status)

	_, ok = order.Item("missing")
	assert.False(t, ok)
}
