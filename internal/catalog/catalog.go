// Package catalog is the read-only menu lookup consumed at order
// creation. Menu CRUD lives outside the core; only resolution is
// needed here.
package catalog

import (
	"context"
	"fmt"

	"tabletap/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// ResolveMenuItems looks the ids up within the tenant's menu and
// returns what it found, keyed by id. Missing ids are simply absent;
// the pricing engine decides what that means.
func (c *Catalog) ResolveMenuItems(ctx context.Context, tenantID string, ids []string) (map[string]models.MenuItem, error) {
	if len(ids) == 0 {
		return map[string]models.MenuItem{}, nil
	}

	rows, err := c.pool.Query(ctx, `
		SELECT id, name, price::text, category, is_available
		FROM menu_items
		WHERE tenant_id = $1 AND id = ANY($2)
	`, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve menu items: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.MenuItem, len(ids))
	for rows.Next() {
		var (
			item  models.MenuItem
			price string
		)
		if err := rows.Scan(&item.ID, &item.Name, &price, &item.Category, &item.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("failed to parse menu price: %w", err)
		}
		out[item.ID] = item
	}
	return out, rows.Err()
}

// Static serves a fixed menu. Used by tests and local development.
type Static struct {
	Items map[string]models.MenuItem
}

func (s *Static) ResolveMenuItems(ctx context.Context, tenantID string, ids []string) (map[string]models.MenuItem, error) {
	out := make(map[string]models.MenuItem, len(ids))
	for _, id := range ids {
		if item, ok := s.Items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}
