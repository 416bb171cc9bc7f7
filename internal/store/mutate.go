package store

import (
	"context"
	"errors"

	"tabletap/internal/core"
	"tabletap/pkg/models"
)

// MutateOrder runs an optimistic read-modify-write against one order:
// re-fetch, apply fn, conditional write. A version conflict re-reads
// and retries; once retries run out the caller gets ErrContention,
// which is the one error callers may retry themselves.
func MutateOrder(ctx context.Context, s OrderStore, tenantID, orderID string, fn func(*models.Order) error) (*models.Order, error) {
	for attempt := 0; attempt < core.MaxWriteRetries; attempt++ {
		order, err := s.GetOrder(ctx, tenantID, orderID)
		if err != nil {
			return nil, err
		}

		if err := fn(order); err != nil {
			return nil, err
		}

		err = s.UpdateOrder(ctx, order)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, core.ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, core.ErrContention
}
