// Package payments reconciles payments against orders: accepted
// payments never exceed the outstanding balance, and the order's paid
// flag follows the completed-payment sum exclusively.
package payments

import (
	"context"
	"fmt"
	"time"

	"tabletap/internal/core"
	"tabletap/internal/locking"
	"tabletap/internal/store"
	"tabletap/pkg/logger"
	"tabletap/pkg/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	store  store.Store
	locks  *locking.Keyed
	logger *logger.Logger
}

func NewService(st store.Store, log *logger.Logger) *Service {
	return &Service{
		store:  st,
		locks:  locking.NewKeyed(),
		logger: log,
	}
}

// lockOrder is the per-order serialization point. The balance check
// and the write happen under it, closing the double-spend race; a
// request that cannot acquire it in time fails with the retryable
// contention error instead of blocking.
func (s *Service) lockOrder(ctx context.Context, tenantID, orderID string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, core.OrderLockTimeout)
	defer cancel()

	release, err := s.locks.Acquire(lockCtx, tenantID+"/"+orderID)
	if err != nil {
		return nil, core.ErrContention
	}
	return release, nil
}

// Create accepts a payment against an order. Equality with the
// remaining balance is allowed; exceeding it is not. Payments are born
// completed, there is no pending-confirmation step in this domain.
func (s *Service) Create(ctx context.Context, actor models.Actor, req models.CreatePaymentRequest) (*models.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, &core.ValidationError{Detail: "amount must be positive"}
	}
	if !models.ValidPaymentMethod(req.Method) {
		return nil, &core.ValidationError{Detail: fmt.Sprintf("unknown payment method %q", req.Method)}
	}
	if req.Tip.IsNegative() {
		return nil, &core.ValidationError{Detail: "tip must not be negative"}
	}

	release, err := s.lockOrder(ctx, actor.TenantID, req.OrderID)
	if err != nil {
		return nil, err
	}
	defer release()

	order, err := s.store.GetOrder(ctx, actor.TenantID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, core.ErrAlreadySettled
	}

	paid, err := s.store.SumCompleted(ctx, actor.TenantID, order.ID)
	if err != nil {
		return nil, err
	}
	if paid.GreaterThanOrEqual(order.Total) {
		// The ledger already covers the total; the flag can only lag
		// behind it when an earlier flip failed mid-way. Repair it so
		// the settled state reads consistently again.
		if err := s.setPaid(ctx, actor.TenantID, order.ID, true); err != nil {
			s.logger.Error("", "paid_flag_repair_failed", "Failed to repair paid flag", err)
		}
		return nil, core.ErrAlreadySettled
	}
	remaining := order.Total.Sub(paid)
	if req.Amount.GreaterThan(remaining) {
		return nil, fmt.Errorf("%w: amount %s, remaining %s", core.ErrExceedsBalance, req.Amount, remaining)
	}

	payment := &models.Payment{
		ID:          uuid.NewString(),
		TenantID:    actor.TenantID,
		OrderID:     order.ID,
		Amount:      req.Amount,
		Method:      req.Method,
		Status:      models.PaymentCompleted,
		Tip:         req.Tip,
		ProcessedBy: actor.ID,
		Notes:       req.Notes,
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	if paid.Add(req.Amount).GreaterThanOrEqual(order.Total) {
		if err := s.setPaid(ctx, actor.TenantID, order.ID, true); err != nil {
			return nil, err
		}
		s.logger.Info("", "order_settled",
			fmt.Sprintf("Order %s fully paid", order.Number))
	}

	return payment, nil
}

// Refund flips one completed payment to refunded and reopens the
// order's balance when the completed sum drops below its total.
// Refunded payments never transition back; a new payment must be
// created instead.
func (s *Service) Refund(ctx context.Context, actor models.Actor, paymentID, reason string) (*models.Payment, error) {
	payment, err := s.store.GetPayment(ctx, actor.TenantID, paymentID)
	if err != nil {
		return nil, err
	}

	release, err := s.lockOrder(ctx, actor.TenantID, payment.OrderID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock; the first read only located the order.
	payment, err = s.store.GetPayment(ctx, actor.TenantID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status == models.PaymentRefunded {
		return nil, core.ErrAlreadyRefunded
	}
	if payment.Status != models.PaymentCompleted {
		return nil, fmt.Errorf("%w: payment is %s", core.ErrNotRefundable, payment.Status)
	}

	now := time.Now()
	payment.Status = models.PaymentRefunded
	payment.RefundReason = reason
	payment.RefundedAt = &now
	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, actor.TenantID, payment.OrderID)
	if err != nil {
		return nil, err
	}
	paid, err := s.store.SumCompleted(ctx, actor.TenantID, order.ID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid && paid.LessThan(order.Total) {
		if err := s.setPaid(ctx, actor.TenantID, order.ID, false); err != nil {
			return nil, err
		}
		s.logger.Info("", "order_reopened",
			fmt.Sprintf("Order %s balance reopened by refund", order.Number))
	}

	return payment, nil
}

// Remove deletes a payment row. Only failed payments may be removed;
// completed ones must be refunded, keeping the ledger auditable.
func (s *Service) Remove(ctx context.Context, actor models.Actor, paymentID string) error {
	payment, err := s.store.GetPayment(ctx, actor.TenantID, paymentID)
	if err != nil {
		return err
	}
	if payment.Status != models.PaymentFailed {
		return fmt.Errorf("%w: only failed payments can be removed", core.ErrInvalidOperation)
	}
	return s.store.DeletePayment(ctx, actor.TenantID, paymentID)
}

func (s *Service) Get(ctx context.Context, actor models.Actor, paymentID string) (*models.Payment, error) {
	return s.store.GetPayment(ctx, actor.TenantID, paymentID)
}

func (s *Service) List(ctx context.Context, actor models.Actor, filter store.PaymentFilter) ([]models.Payment, error) {
	return s.store.ListPayments(ctx, actor.TenantID, filter)
}

// OutstandingBalance is the order total minus its completed payments.
func (s *Service) OutstandingBalance(ctx context.Context, tenantID, orderID string) (decimal.Decimal, error) {
	order, err := s.store.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	paid, err := s.store.SumCompleted(ctx, tenantID, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return order.Total.Sub(paid), nil
}

// DailyTotal aggregates completed payments between local midnights of
// the given day (today when zero), broken down per method.
func (s *Service) DailyTotal(ctx context.Context, actor models.Actor, day time.Time) (*models.DailyTotal, error) {
	if day.IsZero() {
		day = time.Now()
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	payments, err := s.store.ListPayments(ctx, actor.TenantID, store.PaymentFilter{
		Status: models.PaymentCompleted,
		From:   &start,
		To:     &end,
	})
	if err != nil {
		return nil, err
	}

	total := &models.DailyTotal{
		Date:     start.Format("2006-01-02"),
		Total:    decimal.Zero,
		ByMethod: make(map[models.PaymentMethod]decimal.Decimal),
	}
	for _, payment := range payments {
		total.Total = total.Total.Add(payment.Amount)
		total.Count++
		total.ByMethod[payment.Method] = total.ByMethod[payment.Method].Add(payment.Amount)
	}
	return total, nil
}

// setPaid flips the order's paid flag through the same conditional
// write path every other order mutation uses.
func (s *Service) setPaid(ctx context.Context, tenantID, orderID string, paid bool) error {
	_, err := store.MutateOrder(ctx, s.store, tenantID, orderID, func(o *models.Order) error {
		o.IsPaid = paid
		if paid {
			now := time.Now()
			o.PaidAt = &now
		} else {
			o.PaidAt = nil
		}
		return nil
	})
	return err
}
