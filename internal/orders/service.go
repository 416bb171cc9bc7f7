// Package orders is the composition root of order fulfillment: it
// sequences pricing, persistence, state transitions and broadcast, and
// surfaces the external order API.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tabletap/internal/broadcast"
	"tabletap/internal/core"
	"tabletap/internal/payments"
	"tabletap/internal/pricing"
	"tabletap/internal/store"
	"tabletap/pkg/logger"
	"tabletap/pkg/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuResolver is the read-only menu catalog contract.
type MenuResolver interface {
	ResolveMenuItems(ctx context.Context, tenantID string, ids []string) (map[string]models.MenuItem, error)
}

// TableService flips table occupancy. Failures here are logged, not
// surfaced: the order itself is already durable.
type TableService interface {
	SetOccupied(ctx context.Context, tenantID, tableID, orderID string) error
	ClearTable(ctx context.Context, tenantID, tableID string) error
}

// TenantConfig resolves per-tenant settings.
type TenantConfig interface {
	TaxRatePercent(ctx context.Context, tenantID string) (decimal.Decimal, error)
}

type Service struct {
	store     store.Store
	menu      MenuResolver
	tables    TableService
	tenantCfg TenantConfig
	payments  *payments.Service
	publisher broadcast.Publisher
	logger    *logger.Logger
}

func NewService(
	st store.Store,
	menu MenuResolver,
	tables TableService,
	tenantCfg TenantConfig,
	pay *payments.Service,
	publisher broadcast.Publisher,
	log *logger.Logger,
) *Service {
	return &Service{
		store:     st,
		menu:      menu,
		tables:    tables,
		tenantCfg: tenantCfg,
		payments:  pay,
		publisher: publisher,
		logger:    log,
	}
}

// CreateOrder prices the request, assigns the next order number for
// the tenant's day, persists the order and broadcasts order:new.
func (s *Service) CreateOrder(ctx context.Context, actor models.Actor, req models.CreateOrderRequest) (*models.Order, error) {
	if !models.ValidOrderType(req.Type) {
		return nil, &core.ValidationError{Detail: fmt.Sprintf("unknown order type %q", req.Type)}
	}
	if req.Type == models.OrderTypeDineIn && req.TableID == "" {
		return nil, &core.ValidationError{Detail: "dine_in order requires a table"}
	}

	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.MenuItemID)
	}
	menu, err := s.menu.ResolveMenuItems(ctx, actor.TenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve menu items: %w", err)
	}

	taxRate, err := s.tenantCfg.TaxRatePercent(ctx, actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tax rate: %w", err)
	}

	quote, err := pricing.Price(req.Items, menu, taxRate, req.DiscountType, req.DiscountValue, req.Tip)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		ID:           uuid.NewString(),
		TenantID:     actor.TenantID,
		Type:         req.Type,
		Status:       models.OrderPending,
		TableID:      req.TableID,
		CustomerID:   req.CustomerID,
		CreatedBy:    actor.ID,
		Items:        quote.Items,
		Subtotal:     quote.Subtotal,
		DiscountType: req.DiscountType,
		Discount:     quote.Discount,
		Tax:          quote.Tax,
		Tip:          quote.Tip,
		Total:        quote.Total,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.persistWithNumber(ctx, order); err != nil {
		return nil, err
	}

	if err := s.store.LogOrderStatus(ctx, actor.TenantID, order.ID, order.Status, actor.ID, "order created"); err != nil {
		s.logger.Error("", "status_log_failed", "Failed to log order creation", err)
	}

	if order.Type == models.OrderTypeDineIn {
		if err := s.tables.SetOccupied(ctx, actor.TenantID, order.TableID, order.ID); err != nil {
			s.logger.Error("", "table_occupy_failed",
				fmt.Sprintf("Failed to mark table %s occupied for order %s", order.TableID, order.Number), err)
		}
	}

	s.publisher.Publish(broadcast.Event{
		Type:        broadcast.EventOrderNew,
		TenantID:    actor.TenantID,
		OrderID:     order.ID,
		OrderNumber: order.Number,
		OrderStatus: order.Status,
		At:          time.Now(),
	})

	return order, nil
}

// persistWithNumber assigns the next per-tenant per-day sequence and
// inserts the order. Two orders racing for the same sequence hit the
// (tenant, number) unique index; the loser re-reads and retries.
func (s *Service) persistWithNumber(ctx context.Context, order *models.Order) error {
	prefix := "ORD_" + time.Now().UTC().Format("20060102") + "_"

	for attempt := 0; attempt < core.MaxNumberRetries; attempt++ {
		last, err := s.store.LastOrderNumber(ctx, order.TenantID, prefix)
		if err != nil {
			return fmt.Errorf("failed to read order sequence: %w", err)
		}

		seq := 1
		if last != "" {
			parts := strings.Split(last, "_")
			if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
				seq = n + 1
			}
		}
		order.Number = fmt.Sprintf("%s%03d", prefix, seq)

		err = s.store.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, core.ErrNumberTaken) {
			return err
		}
	}
	return core.ErrContention
}

func (s *Service) GetOrder(ctx context.Context, actor models.Actor, orderID string) (*models.Order, error) {
	return s.store.GetOrder(ctx, actor.TenantID, orderID)
}

func (s *Service) ListOrders(ctx context.Context, actor models.Actor, filter store.OrderFilter) ([]models.Order, error) {
	return s.store.ListOrders(ctx, actor.TenantID, filter)
}

// UpdateOrderStatus applies an actor-requested transition. Derived
// transitions (ready/served from items) are not requestable here.
func (s *Service) UpdateOrderStatus(ctx context.Context, actor models.Actor, orderID string, to models.OrderStatus) (*models.Order, error) {
	if to == models.OrderCancelled {
		return s.CancelOrder(ctx, actor, orderID)
	}

	if to == models.OrderPreparing && actor.Role != models.RoleKitchen && actor.Role != models.RoleManager {
		return nil, fmt.Errorf("%w: only kitchen actors start preparation", core.ErrInvalidOperation)
	}

	order, err := store.MutateOrder(ctx, s.store, actor.TenantID, orderID, func(o *models.Order) error {
		if !o.Status.CanTransition(to) {
			return &core.TransitionError{From: string(o.Status), To: string(to)}
		}
		if to == models.OrderCompleted && !o.IsPaid {
			// The paid flag is owned by the payment engine; settle
			// through CompleteOrder instead of forcing the status.
			return fmt.Errorf("%w: order has an outstanding balance", core.ErrInvalidOperation)
		}
		applyOrderTransition(o, to)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, actor, order, "status updated")
	return order, nil
}

// applyOrderTransition writes the new status plus its side effects on
// the aggregate.
func applyOrderTransition(o *models.Order, to models.OrderStatus) {
	o.Status = to
	switch to {
	case models.OrderPreparing:
		// Starting a confirmed order pulls every pending item along.
		for i := range o.Items {
			if o.Items[i].Status == models.ItemPending {
				o.Items[i].Status = models.ItemPreparing
			}
		}
	case models.OrderCompleted:
		now := time.Now()
		o.CompletedAt = &now
	}
}

// UpdateItemStatus moves one item and re-evaluates the derived order
// status. Exactly one event fires: the derived order:ready when the
// order auto-advances, otherwise item:ready or order:updated.
func (s *Service) UpdateItemStatus(ctx context.Context, actor models.Actor, orderID, itemID string, to models.ItemStatus) (*models.Order, error) {
	var event broadcast.EventType

	order, err := store.MutateOrder(ctx, s.store, actor.TenantID, orderID, func(o *models.Order) error {
		var err error
		event, err = advanceItem(o, itemID, to, actor.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.LogOrderStatus(ctx, actor.TenantID, order.ID, order.Status, actor.ID, fmt.Sprintf("item %s -> %s", itemID, to)); err != nil {
		s.logger.Error("", "status_log_failed", "Failed to log item transition", err)
	}

	s.publisher.Publish(broadcast.Event{
		Type:        event,
		TenantID:    actor.TenantID,
		OrderID:     order.ID,
		OrderNumber: order.Number,
		OrderStatus: order.Status,
		ItemID:      itemID,
		At:          time.Now(),
	})
	return order, nil
}

// advanceItem mutates one item inside the aggregate and applies the
// derived order status. Returns the single event type the mutation
// produces.
func advanceItem(o *models.Order, itemID string, to models.ItemStatus, actorID string) (broadcast.EventType, error) {
	if o.Status.IsTerminal() {
		return "", fmt.Errorf("%w: order is %s", core.ErrInvalidOperation, o.Status)
	}

	item, ok := o.Item(itemID)
	if !ok {
		return "", core.ErrNotFound
	}

	if to == models.ItemReady && (item.Status == models.ItemReady || item.Status == models.ItemServed) {
		return "", core.ErrAlreadyReady
	}
	if !item.Status.CanTransition(to) && !(item.Status == models.ItemPending && to == models.ItemReady) {
		return "", &core.TransitionError{From: string(item.Status), To: string(to)}
	}

	item.Status = to
	if to == models.ItemReady {
		now := time.Now()
		item.PreparedBy = actorID
		item.PreparedAt = &now
	}

	before := o.Status
	o.Status = models.DeriveOrderStatus(o.Items, o.Status)

	switch {
	case o.Status == models.OrderReady && before != models.OrderReady:
		return broadcast.EventOrderReady, nil
	case o.Status != before:
		return broadcast.EventOrderUpdated, nil
	case to == models.ItemReady:
		return broadcast.EventItemReady, nil
	default:
		return broadcast.EventOrderUpdated, nil
	}
}

// CancelOrder is a terminal status write, never a delete. Completed
// orders cannot be cancelled.
func (s *Service) CancelOrder(ctx context.Context, actor models.Actor, orderID string) (*models.Order, error) {
	order, err := store.MutateOrder(ctx, s.store, actor.TenantID, orderID, func(o *models.Order) error {
		if o.Status.IsTerminal() {
			return fmt.Errorf("%w: order is already %s", core.ErrInvalidOperation, o.Status)
		}
		o.Status = models.OrderCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	if order.Type == models.OrderTypeDineIn && order.TableID != "" {
		if err := s.tables.ClearTable(ctx, actor.TenantID, order.TableID); err != nil {
			s.logger.Error("", "table_clear_failed",
				fmt.Sprintf("Failed to clear table %s after cancelling order %s", order.TableID, order.Number), err)
		}
	}

	if err := s.store.LogOrderStatus(ctx, actor.TenantID, order.ID, order.Status, actor.ID, "order cancelled"); err != nil {
		s.logger.Error("", "status_log_failed", "Failed to log cancellation", err)
	}

	s.publisher.Publish(broadcast.Event{
		Type:        broadcast.EventOrderCancelled,
		TenantID:    actor.TenantID,
		OrderID:     order.ID,
		OrderNumber: order.Number,
		OrderStatus: order.Status,
		At:          time.Now(),
	})
	return order, nil
}

// CompleteOrder is the cashier settlement path. The paid flag stays
// payment-amount-driven: any outstanding balance becomes a full
// payment record through the payment engine before the order closes.
func (s *Service) CompleteOrder(ctx context.Context, actor models.Actor, orderID string, method models.PaymentMethod) (*models.Order, error) {
	current, err := s.store.GetOrder(ctx, actor.TenantID, orderID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(models.OrderCompleted) {
		return nil, &core.TransitionError{From: string(current.Status), To: string(models.OrderCompleted)}
	}

	if !current.IsPaid {
		remaining, err := s.payments.OutstandingBalance(ctx, actor.TenantID, orderID)
		if err != nil {
			return nil, err
		}
		if remaining.IsPositive() {
			if _, err := s.payments.Create(ctx, actor, models.CreatePaymentRequest{
				OrderID: orderID,
				Amount:  remaining,
				Method:  method,
				Notes:   "settled at completion",
			}); err != nil {
				return nil, err
			}
		}
	}

	order, err := store.MutateOrder(ctx, s.store, actor.TenantID, orderID, func(o *models.Order) error {
		if !o.Status.CanTransition(models.OrderCompleted) {
			return &core.TransitionError{From: string(o.Status), To: string(models.OrderCompleted)}
		}
		applyOrderTransition(o, models.OrderCompleted)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if order.Type == models.OrderTypeDineIn && order.TableID != "" {
		if err := s.tables.ClearTable(ctx, actor.TenantID, order.TableID); err != nil {
			s.logger.Error("", "table_clear_failed",
				fmt.Sprintf("Failed to clear table %s after completing order %s", order.TableID, order.Number), err)
		}
	}

	s.afterTransition(ctx, actor, order, "order completed")
	return order, nil
}

func (s *Service) afterTransition(ctx context.Context, actor models.Actor, order *models.Order, note string) {
	if err := s.store.LogOrderStatus(ctx, actor.TenantID, order.ID, order.Status, actor.ID, note); err != nil {
		s.logger.Error("", "status_log_failed", "Failed to log status transition", err)
	}

	eventType := broadcast.EventOrderUpdated
	if order.Status == models.OrderReady {
		eventType = broadcast.EventOrderReady
	}
	s.publisher.Publish(broadcast.Event{
		Type:        eventType,
		TenantID:    actor.TenantID,
		OrderID:     order.ID,
		OrderNumber: order.Number,
		OrderStatus: order.Status,
		At:          time.Now(),
	})
}
