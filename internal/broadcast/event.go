package broadcast

import (
	"time"

	"tabletap/pkg/models"
)

type EventType string

const (
	EventOrderNew       EventType = "order:new"
	EventOrderUpdated   EventType = "order:updated"
	EventOrderReady     EventType = "order:ready"
	EventOrderCancelled EventType = "order:cancelled"
	EventItemReady      EventType = "item:ready"
)

// Event describes one order lifecycle change. Events reference state
// that is already durable; there is no replay buffer, a late
// subscriber reconciles with a full-state pull.
type Event struct {
	Type        EventType          `json:"type"`
	TenantID    string             `json:"tenant_id"`
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	OrderStatus models.OrderStatus `json:"order_status"`
	ItemID      string             `json:"item_id,omitempty"`
	At          time.Time          `json:"at"`
}

// Publisher is the seam between mutators and transports. Publishing is
// fire-and-forget: implementations never block the caller on slow
// subscribers and never report delivery failures back.
type Publisher interface {
	Publish(event Event)
}
