package models

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemServed    ItemStatus = "served"
)

// orderNext lists the transitions an actor may request directly.
// Ready and served are derived from item statuses and are only
// reachable through DeriveOrderStatus, never by request.
var orderNext = map[OrderStatus]OrderStatus{
	OrderPending:   OrderConfirmed,
	OrderConfirmed: OrderPreparing,
	OrderServed:    OrderCompleted,
}

var itemNext = map[ItemStatus]ItemStatus{
	ItemPending:   ItemPreparing,
	ItemPreparing: ItemReady,
	ItemReady:     ItemServed,
}

// IsTerminal reports whether the order can no longer change state.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransition reports whether an actor may request moving an order
// from one status to another. Cancellation is reachable from any
// non-terminal state.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if to == OrderCancelled {
		return true
	}
	return orderNext[s] == to
}

func (s ItemStatus) CanTransition(to ItemStatus) bool {
	return itemNext[s] == to
}

// DeriveOrderStatus applies the status-implication rules after an item
// write: all items served implies the order is served; all items at
// least ready promotes a preparing order to ready. Must be evaluated
// after every item-status change, and is idempotent.
func DeriveOrderStatus(items []OrderItem, current OrderStatus) OrderStatus {
	if current.IsTerminal() || len(items) == 0 {
		return current
	}

	allServed := true
	allReady := true
	for i := range items {
		switch items[i].Status {
		case ItemServed:
		case ItemReady:
			allServed = false
		default:
			allServed = false
			allReady = false
		}
	}

	if allServed {
		return OrderServed
	}
	if allReady && current == OrderPreparing {
		return OrderReady
	}
	return current
}

func ValidOrderType(t OrderType) bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeout, OrderTypeDelivery:
		return true
	}
	return false
}

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobile:
		return true
	}
	return false
}
