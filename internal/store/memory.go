package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tabletap/internal/core"
	"tabletap/pkg/models"

	"github.com/shopspring/decimal"
)

type statusLogEntry struct {
	tenantID  string
	orderID   string
	status    models.OrderStatus
	changedBy string
	note      string
	changedAt time.Time
}

// Memory is an in-process Store with the same conditional-write
// semantics as the Postgres implementation. It backs the test suites
// and single-node development runs.
type Memory struct {
	mu        sync.RWMutex
	orders    map[string]*models.Order   // order id -> order
	payments  map[string]*models.Payment // payment id -> payment
	statusLog []statusLogEntry
}

func NewMemory() *Memory {
	return &Memory{
		orders:   make(map[string]*models.Order),
		payments: make(map[string]*models.Payment),
	}
}

func cloneOrder(o *models.Order) *models.Order {
	clone := *o
	clone.Items = make([]models.OrderItem, len(o.Items))
	copy(clone.Items, o.Items)
	for i := range clone.Items {
		if mods := clone.Items[i].Modifiers; mods != nil {
			clone.Items[i].Modifiers = append([]models.Modifier(nil), mods...)
		}
		if t := clone.Items[i].PreparedAt; t != nil {
			tc := *t
			clone.Items[i].PreparedAt = &tc
		}
	}
	if t := o.PaidAt; t != nil {
		tc := *t
		clone.PaidAt = &tc
	}
	if t := o.CompletedAt; t != nil {
		tc := *t
		clone.CompletedAt = &tc
	}
	return &clone
}

func clonePayment(p *models.Payment) *models.Payment {
	clone := *p
	if t := p.RefundedAt; t != nil {
		tc := *t
		clone.RefundedAt = &tc
	}
	return &clone
}

func (m *Memory) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.orders {
		if existing.TenantID == order.TenantID && existing.Number == order.Number {
			return core.ErrNumberTaken
		}
	}

	order.Version = 1
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *Memory) GetOrder(ctx context.Context, tenantID, orderID string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[orderID]
	if !ok || order.TenantID != tenantID {
		return nil, core.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (m *Memory) ListOrders(ctx context.Context, tenantID string, filter OrderFilter) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Order
	for _, order := range m.orders {
		if order.TenantID != tenantID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, order.Status) {
			continue
		}
		if filter.Type != "" && order.Type != filter.Type {
			continue
		}
		if filter.TableID != "" && order.TableID != filter.TableID {
			continue
		}
		out = append(out, *cloneOrder(order))
	}

	sort.Slice(out, func(i, j int) bool {
		if filter.OldestFirst {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *Memory) UpdateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.orders[order.ID]
	if !ok || existing.TenantID != order.TenantID {
		return core.ErrNotFound
	}
	if existing.Version != order.Version {
		return core.ErrVersionConflict
	}

	order.Version++
	order.UpdatedAt = time.Now()
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *Memory) LastOrderNumber(ctx context.Context, tenantID, prefix string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	last := ""
	for _, order := range m.orders {
		if order.TenantID != tenantID || !strings.HasPrefix(order.Number, prefix) {
			continue
		}
		if numberLess(last, order.Number) {
			last = order.Number
		}
	}
	return last, nil
}

// numberLess orders same-prefix order numbers by their numeric suffix:
// length first, so _1000 sorts above _999 once the zero pad overflows.
func numberLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func (m *Memory) LogOrderStatus(ctx context.Context, tenantID, orderID string, status models.OrderStatus, changedBy, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statusLog = append(m.statusLog, statusLogEntry{
		tenantID:  tenantID,
		orderID:   orderID,
		status:    status,
		changedBy: changedBy,
		note:      note,
		changedAt: time.Now(),
	})
	return nil
}

func (m *Memory) CreatePayment(ctx context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.payments[payment.ID] = clonePayment(payment)
	return nil
}

func (m *Memory) GetPayment(ctx context.Context, tenantID, paymentID string) (*models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	payment, ok := m.payments[paymentID]
	if !ok || payment.TenantID != tenantID {
		return nil, core.ErrNotFound
	}
	return clonePayment(payment), nil
}

func (m *Memory) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.payments[payment.ID]
	if !ok || existing.TenantID != payment.TenantID {
		return core.ErrNotFound
	}
	m.payments[payment.ID] = clonePayment(payment)
	return nil
}

func (m *Memory) DeletePayment(ctx context.Context, tenantID, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.payments[paymentID]
	if !ok || existing.TenantID != tenantID {
		return core.ErrNotFound
	}
	delete(m.payments, paymentID)
	return nil
}

func (m *Memory) ListPayments(ctx context.Context, tenantID string, filter PaymentFilter) ([]models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Payment
	for _, payment := range m.payments {
		if payment.TenantID != tenantID {
			continue
		}
		if filter.OrderID != "" && payment.OrderID != filter.OrderID {
			continue
		}
		if filter.Status != "" && payment.Status != filter.Status {
			continue
		}
		if filter.Method != "" && payment.Method != filter.Method {
			continue
		}
		if filter.From != nil && payment.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !payment.CreatedAt.Before(*filter.To) {
			continue
		}
		out = append(out, *clonePayment(payment))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) SumCompleted(ctx context.Context, tenantID, orderID string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := decimal.Zero
	for _, payment := range m.payments {
		if payment.TenantID == tenantID && payment.OrderID == orderID && payment.Status == models.PaymentCompleted {
			sum = sum.Add(payment.Amount)
		}
	}
	return sum, nil
}

func containsStatus(statuses []models.OrderStatus, s models.OrderStatus) bool {
	for _, status := range statuses {
		if status == s {
			return true
		}
	}
	return false
}
