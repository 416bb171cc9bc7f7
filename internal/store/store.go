// Package store persists orders and payments. Every read and write is
// scoped by tenant id; no query spans tenants.
package store

import (
	"context"
	"time"

	"tabletap/pkg/models"

	"github.com/shopspring/decimal"
)

type OrderFilter struct {
	Statuses []models.OrderStatus
	Type     models.OrderType
	TableID  string
	// OldestFirst orders by creation time ascending (the kitchen
	// queue view); default is newest first.
	OldestFirst bool
	Limit       int
}

type PaymentFilter struct {
	OrderID string
	Status  models.PaymentStatus
	Method  models.PaymentMethod
	From    *time.Time
	To      *time.Time
}

type OrderStore interface {
	// CreateOrder persists a new order. Returns ErrNumberTaken when
	// another order already holds (tenant, number).
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, tenantID, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context, tenantID string, filter OrderFilter) ([]models.Order, error)
	// UpdateOrder writes the full aggregate conditionally on
	// order.Version and bumps it. Returns ErrVersionConflict when the
	// stored version moved underneath the caller.
	UpdateOrder(ctx context.Context, order *models.Order) error
	// LastOrderNumber returns the highest order number with the given
	// prefix, or "" when none exists.
	LastOrderNumber(ctx context.Context, tenantID, prefix string) (string, error)
	LogOrderStatus(ctx context.Context, tenantID, orderID string, status models.OrderStatus, changedBy, note string) error
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, tenantID, paymentID string) (*models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	// DeletePayment removes a payment row. Only the payment service
	// calls this, and only for failed payments.
	DeletePayment(ctx context.Context, tenantID, paymentID string) error
	ListPayments(ctx context.Context, tenantID string, filter PaymentFilter) ([]models.Payment, error)
	// SumCompleted returns the sum of completed payment amounts for
	// one order.
	SumCompleted(ctx context.Context, tenantID, orderID string) (decimal.Decimal, error)
}

type Store interface {
	OrderStore
	PaymentStore
}
