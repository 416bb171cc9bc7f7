// Package broadcast fans order lifecycle events out to subscribed
// display clients, keyed by tenant.
package broadcast

import (
	"fmt"
	"sync"

	"tabletap/internal/core"
	"tabletap/pkg/logger"

	"github.com/google/uuid"
)

type subscriber struct {
	id string
	ch chan Event
}

// Hub is the in-process fan-out. Every subscriber owns a bounded
// buffer; when a subscriber's buffer is full its events are dropped,
// never queued without bound and never blocking the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[string]*subscriber // tenant id -> subscription id
	logger *logger.Logger
	closed bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[string]*subscriber),
		logger: log,
	}
}

// Subscription is one client's view of a tenant's event stream.
type Subscription struct {
	C <-chan Event

	hub      *Hub
	tenantID string
	id       string
}

func (s *Subscription) Unsubscribe() {
	s.hub.remove(s.tenantID, s.id)
}

// Subscribe registers a new independent subscriber for the tenant.
// Every event published after this call is delivered to it; earlier
// events are missed permanently.
func (h *Hub) Subscribe(tenantID string) *Subscription {
	sub := &subscriber{
		id: uuid.NewString(),
		ch: make(chan Event, core.SubscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
	} else {
		tenantSubs, ok := h.subs[tenantID]
		if !ok {
			tenantSubs = make(map[string]*subscriber)
			h.subs[tenantID] = tenantSubs
		}
		tenantSubs[sub.id] = sub
	}

	return &Subscription{
		C:        sub.ch,
		hub:      h,
		tenantID: tenantID,
		id:       sub.id,
	}
}

// Publish delivers the event to every current subscriber of the
// event's tenant. The lock keeps per-tenant delivery order consistent
// across subscribers; sends are non-blocking so a stalled subscriber
// only loses its own events.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	for _, sub := range h.subs[event.TenantID] {
		select {
		case sub.ch <- event:
		default:
			h.logger.Warn("", "event_dropped",
				fmt.Sprintf("Subscriber %s buffer full, dropped %s for order %s", sub.id, event.Type, event.OrderNumber))
		}
	}
}

func (h *Hub) remove(tenantID, subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tenantSubs, ok := h.subs[tenantID]
	if !ok {
		return
	}
	sub, ok := tenantSubs[subID]
	if !ok {
		return
	}
	delete(tenantSubs, subID)
	if len(tenantSubs) == 0 {
		delete(h.subs, tenantID)
	}
	close(sub.ch)
}

// Close terminates every subscription. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, tenantSubs := range h.subs {
		for _, sub := range tenantSubs {
			close(sub.ch)
		}
	}
	h.subs = make(map[string]map[string]*subscriber)
}
