package kitchen_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"tabletap/internal/broadcast"
	"tabletap/internal/core"
	"tabletap/internal/kitchen"
	"tabletap/internal/store"
	"tabletap/pkg/logger"
	"tabletap/pkg/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	chef   = models.Actor{TenantID: "t1", ID: "k1", Role: models.RoleKitchen}
	waiter = models.Actor{TenantID: "t1", ID: "w1", Role: models.RoleWaiter}
)

type capturePublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (c *capturePublisher) Publish(event broadcast.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *capturePublisher) all() []broadcast.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]broadcast.Event(nil), c.events...)
}

func newCoordinator(t *testing.T) (*kitchen.Coordinator, *store.Memory, *capturePublisher) {
	t.Helper()
	st := store.NewMemory()
	pub := &capturePublisher{}
	return kitchen.NewCoordinator(st, pub, logger.NewLogger("test")), st, pub
}

func seedOrder(t *testing.T, st *store.Memory, number string, status models.OrderStatus, itemCount int) *models.Order {
	t.Helper()

	itemStatus := models.ItemPending
	if status == models.OrderPreparing {
		itemStatus = models.ItemPreparing
	}

	items := make([]models.OrderItem, itemCount)
	for i := range items {
		items[i] = models.OrderItem{
			ID:         uuid.NewString(),
			MenuItemID: "item-a",
			Snapshot:   models.ItemSnapshot{Name: "Margherita", Price: decimal.NewFromInt(10)},
			Quantity:   1,
			BasePrice:  decimal.NewFromInt(10),
			TotalPrice: decimal.NewFromInt(10),
			Status:     itemStatus,
		}
	}

	now := time.Now()
	order := &models.Order{
		ID:        uuid.NewString(),
		TenantID:  "t1",
		Number:    number,
		Type:      models.OrderTypeTakeout,
		Status:    status,
		CreatedBy: "w1",
		Items:     items,
		Subtotal:  decimal.NewFromInt(int64(itemCount) * 10),
		Tax:       decimal.NewFromInt(int64(itemCount)),
		Total:     decimal.NewFromInt(int64(itemCount) * 11),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.CreateOrder(context.Background(), order))
	return order
}

func TestQueueIsFIFOAndActiveOnly(t *testing.T) {
	coordinator, st, _ := newCoordinator(t)
	ctx := context.Background()

	oldest := seedOrder(t, st, "ORD_20260901_001", models.OrderConfirmed, 1)
	time.Sleep(time.Millisecond)
	middle := seedOrder(t, st, "ORD_20260901_002", models.OrderPreparing, 1)
	time.Sleep(time.Millisecond)
	newest := seedOrder(t, st, "ORD_20260901_003", models.OrderConfirmed, 1)
	seedOrder(t, st, "ORD_20260901_004", models.OrderServed, 1)
	seedOrder(t, st, "ORD_20260901_005", models.OrderCancelled, 1)

	queue, err := coordinator.Queue(ctx, chef)
	require.NoError(t, err)
	require.Len(t, queue, 3)
	assert.Equal(t, oldest.Number, queue[0].Number)
	assert.Equal(t, middle.Number, queue[1].Number)
	assert.Equal(t, newest.Number, queue[2].Number)

	pending, err := coordinator.Pending(ctx, chef)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, models.OrderConfirmed, pending[0].Status)

	inProgress, err := coordinator.InProgress(ctx, chef)
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, middle.Number, inProgress[0].Number)
}

func TestStartOrder(t *testing.T) {
	coordinator, st, pub := newCoordinator(t)
	ctx := context.Background()
	order := seedOrder(t, st, "ORD_20260901_001", models.OrderConfirmed, 2)

	started, err := coordinator.StartOrder(ctx, chef, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPreparing, started.Status)
	for _, item := range started.Items {
		assert.Equal(t, models.ItemPreparing, item.Status)
	}

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, broadcast.EventOrderUpdated, events[0].Type)

	// Starting twice trips the state machine.
	_, err = coordinator.StartOrder(ctx, chef, order.ID)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestStartOrderRequiresKitchenActor(t *testing.T) {
	coordinator, st, pub := newCoordinator(t)
	order := seedOrder(t, st, "ORD_20260901_001", models.OrderConfirmed, 1)

	_, err := coordinator.StartOrder(context.Background(), waiter, order.ID)
	assert.ErrorIs(t, err, core.ErrInvalidOperation)
	assert.Empty(t, pub.all())
}

func TestMarkItemReady(t *testing.T) {
	coordinator, st, pub := newCoordinator(t)
	ctx := context.Background()
	order := seedOrder(t, st, "ORD_20260901_001", models.OrderPreparing, 2)

	updated, err := coordinator.MarkItemReady(ctx, chef, order.ID, order.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPreparing, updated.Status)
	assert.Equal(t, models.ItemReady, updated.Items[0].Status)
	assert.Equal(t, "k1", updated.Items[0].PreparedBy)
	require.NotNil(t, updated.Items[0].PreparedAt)

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, broadcast.EventItemReady, events[0].Type)

	// The final item tips the order to ready and emits exactly one
	// order:ready event.
	updated, err = coordinator.MarkItemReady(ctx, chef, order.ID, order.Items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderReady, updated.Status)

	events = pub.all()
	require.Len(t, events, 2)
	assert.Equal(t, broadcast.EventOrderReady, events[1].Type)
}

func TestMarkItemReadyRejections(t *testing.T) {
	coordinator, st, pub := newCoordinator(t)
	ctx := context.Background()
	order := seedOrder(t, st, "ORD_20260901_001", models.OrderPreparing, 2)

	_, err := coordinator.MarkItemReady(ctx, chef, order.ID, order.Items[0].ID)
	require.NoError(t, err)

	_, err = coordinator.MarkItemReady(ctx, chef, order.ID, order.Items[0].ID)
	assert.ErrorIs(t, err, core.ErrAlreadyReady)

	_, err = coordinator.MarkItemReady(ctx, chef, order.ID, "ghost-item")
	assert.ErrorIs(t, err, core.ErrNotFound)

	cancelled := seedOrder(t, st, "ORD_20260901_002", models.OrderCancelled, 1)
	_, err = coordinator.MarkItemReady(ctx, chef, cancelled.ID, cancelled.Items[0].ID)
	assert.ErrorIs(t, err, core.ErrInvalidOperation)

	// Failures emit nothing beyond the one successful event.
	assert.Len(t, pub.all(), 1)
}

func TestCompleteOrderShortcut(t *testing.T) {
	coordinator, st, pub := newCoordinator(t)
	ctx := context.Background()
	order := seedOrder(t, st, "ORD_20260901_001", models.OrderPreparing, 3)

	// One item already done, the rest get forced to ready.
	_, err := coordinator.MarkItemReady(ctx, chef, order.ID, order.Items[0].ID)
	require.NoError(t, err)

	completed, err := coordinator.CompleteOrder(ctx, chef, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	for _, item := range completed.Items {
		assert.Equal(t, models.ItemReady, item.Status)
	}

	// The kitchen shortcut never settles money.
	assert.False(t, completed.IsPaid)

	events := pub.all()
	require.Len(t, events, 2)
	assert.Equal(t, broadcast.EventOrderUpdated, events[1].Type)

	_, err = coordinator.CompleteOrder(ctx, chef, order.ID)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}
