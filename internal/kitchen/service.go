// Package kitchen is the kitchen staff's view of active orders: a FIFO
// queue of confirmed and preparing orders plus the transitions kitchen
// actors drive. First ordered, first prepared.
package kitchen

import (
	"context"
	"fmt"
	"time"

	"tabletap/internal/broadcast"
	"tabletap/internal/core"
	"tabletap/internal/store"
	"tabletap/pkg/logger"
	"tabletap/pkg/models"
)

type Coordinator struct {
	store     store.OrderStore
	publisher broadcast.Publisher
	logger    *logger.Logger
}

func NewCoordinator(st store.OrderStore, publisher broadcast.Publisher, log *logger.Logger) *Coordinator {
	return &Coordinator{
		store:     st,
		publisher: publisher,
		logger:    log,
	}
}

func kitchenActor(actor models.Actor) error {
	if actor.Role != models.RoleKitchen && actor.Role != models.RoleManager {
		return fmt.Errorf("%w: %s actors cannot drive kitchen transitions", core.ErrInvalidOperation, actor.Role)
	}
	return nil
}

// Queue lists active orders oldest first.
func (c *Coordinator) Queue(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	return c.store.ListOrders(ctx, actor.TenantID, store.OrderFilter{
		Statuses:    []models.OrderStatus{models.OrderConfirmed, models.OrderPreparing},
		OldestFirst: true,
	})
}

// Pending lists confirmed orders the kitchen has not started.
func (c *Coordinator) Pending(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	return c.store.ListOrders(ctx, actor.TenantID, store.OrderFilter{
		Statuses:    []models.OrderStatus{models.OrderConfirmed},
		OldestFirst: true,
	})
}

// InProgress lists orders currently being prepared.
func (c *Coordinator) InProgress(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	return c.store.ListOrders(ctx, actor.TenantID, store.OrderFilter{
		Statuses:    []models.OrderStatus{models.OrderPreparing},
		OldestFirst: true,
	})
}

// StartOrder moves a confirmed order to preparing and pulls every
// pending item along. One order:updated fires after the write lands.
func (c *Coordinator) StartOrder(ctx context.Context, actor models.Actor, orderID string) (*models.Order, error) {
	if err := kitchenActor(actor); err != nil {
		return nil, err
	}

	order, err := store.MutateOrder(ctx, c.store, actor.TenantID, orderID, func(o *models.Order) error {
		if o.Status != models.OrderConfirmed {
			return &core.TransitionError{From: string(o.Status), To: string(models.OrderPreparing)}
		}
		o.Status = models.OrderPreparing
		for i := range o.Items {
			if o.Items[i].Status == models.ItemPending {
				o.Items[i].Status = models.ItemPreparing
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logTransition(ctx, actor, order, "kitchen started order")
	c.publish(broadcast.EventOrderUpdated, actor.TenantID, order, "")
	return order, nil
}

// MarkItemReady readies one item and re-evaluates the derived order
// status. When the last item tips the order over, the single event is
// order:ready, not item:ready plus an unobserved order change.
func (c *Coordinator) MarkItemReady(ctx context.Context, actor models.Actor, orderID, itemID string) (*models.Order, error) {
	if err := kitchenActor(actor); err != nil {
		return nil, err
	}

	var event broadcast.EventType
	order, err := store.MutateOrder(ctx, c.store, actor.TenantID, orderID, func(o *models.Order) error {
		if o.Status.IsTerminal() {
			return fmt.Errorf("%w: order is %s", core.ErrInvalidOperation, o.Status)
		}
		item, ok := o.Item(itemID)
		if !ok {
			return core.ErrNotFound
		}
		if item.Status == models.ItemReady || item.Status == models.ItemServed {
			return core.ErrAlreadyReady
		}

		now := time.Now()
		item.Status = models.ItemReady
		item.PreparedBy = actor.ID
		item.PreparedAt = &now

		before := o.Status
		o.Status = models.DeriveOrderStatus(o.Items, o.Status)
		if o.Status == models.OrderReady && before != models.OrderReady {
			event = broadcast.EventOrderReady
		} else {
			event = broadcast.EventItemReady
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logTransition(ctx, actor, order, fmt.Sprintf("item %s ready", itemID))
	c.publish(event, actor.TenantID, order, itemID)
	return order, nil
}

// CompleteOrder is the kitchen's bulk shortcut: every remaining item
// is forced to ready and the order closes. The paid flag is untouched;
// settlement stays with the payment engine.
func (c *Coordinator) CompleteOrder(ctx context.Context, actor models.Actor, orderID string) (*models.Order, error) {
	if err := kitchenActor(actor); err != nil {
		return nil, err
	}

	order, err := store.MutateOrder(ctx, c.store, actor.TenantID, orderID, func(o *models.Order) error {
		if o.Status.IsTerminal() {
			return &core.TransitionError{From: string(o.Status), To: string(models.OrderCompleted)}
		}
		now := time.Now()
		for i := range o.Items {
			switch o.Items[i].Status {
			case models.ItemPending, models.ItemPreparing:
				o.Items[i].Status = models.ItemReady
				o.Items[i].PreparedBy = actor.ID
				o.Items[i].PreparedAt = &now
			}
		}
		o.Status = models.OrderCompleted
		o.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logTransition(ctx, actor, order, "kitchen completed order")
	c.publish(broadcast.EventOrderUpdated, actor.TenantID, order, "")
	return order, nil
}

func (c *Coordinator) logTransition(ctx context.Context, actor models.Actor, order *models.Order, note string) {
	if err := c.store.LogOrderStatus(ctx, actor.TenantID, order.ID, order.Status, actor.ID, note); err != nil {
		c.logger.Error("", "status_log_failed", "Failed to log kitchen transition", err)
	}
}

func (c *Coordinator) publish(eventType broadcast.EventType, tenantID string, order *models.Order, itemID string) {
	c.publisher.Publish(broadcast.Event{
		Type:        eventType,
		TenantID:    tenantID,
		OrderID:     order.ID,
		OrderNumber: order.Number,
		OrderStatus: order.Status,
		ItemID:      itemID,
		At:          time.Now(),
	})
}
