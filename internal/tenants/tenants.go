// Package tenants exposes the per-tenant configuration the core
// consumes, currently just the tax rate.
package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Config struct {
	pool        *pgxpool.Pool
	defaultRate decimal.Decimal
}

func NewConfig(pool *pgxpool.Pool, defaultRatePercent float64) *Config {
	return &Config{
		pool:        pool,
		defaultRate: decimal.NewFromFloat(defaultRatePercent),
	}
}

func (c *Config) TaxRatePercent(ctx context.Context, tenantID string) (decimal.Decimal, error) {
	var rate string
	err := c.pool.QueryRow(ctx,
		`SELECT tax_rate_percent::text FROM tenant_settings WHERE tenant_id = $1`,
		tenantID).Scan(&rate)
	if errors.Is(err, pgx.ErrNoRows) {
		return c.defaultRate, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read tenant settings: %w", err)
	}
	return decimal.NewFromString(rate)
}

// Static returns one rate for every tenant. Used by tests.
type Static struct {
	Rate decimal.Decimal
}

func (s *Static) TaxRatePercent(ctx context.Context, tenantID string) (decimal.Decimal, error) {
	return s.Rate, nil
}
