// Package tables flips table occupancy on order lifecycle
// transitions. Table CRUD and reservations live outside the core.
package tables

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

func (s *Service) SetOccupied(ctx context.Context, tenantID, tableID, orderID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE restaurant_tables
		SET status = 'occupied', current_order_id = $1
		WHERE tenant_id = $2 AND id = $3
	`, orderID, tenantID, tableID)
	if err != nil {
		return fmt.Errorf("failed to occupy table: %w", err)
	}
	return nil
}

func (s *Service) ClearTable(ctx context.Context, tenantID, tableID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE restaurant_tables
		SET status = 'available', current_order_id = NULL
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, tableID)
	if err != nil {
		return fmt.Errorf("failed to clear table: %w", err)
	}
	return nil
}

// Noop satisfies the table contract when no table backend is wired.
type Noop struct{}

func (Noop) SetOccupied(ctx context.Context, tenantID, tableID, orderID string) error { return nil }
func (Noop) ClearTable(ctx context.Context, tenantID, tableID string) error           { return nil }
