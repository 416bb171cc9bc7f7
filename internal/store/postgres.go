package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tabletap/internal/core"
	"tabletap/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schema string

// Postgres is the durable Store. Order items live as a JSONB document
// inside the order row: items are only ever written as part of their
// aggregate, which keeps the conditional update a single-row matter.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the tables on first run.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (p *Postgres) CreateOrder(ctx context.Context, order *models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	order.Version = 1
	_, err = p.pool.Exec(ctx, `
		INSERT INTO orders (
			id, tenant_id, number, type, status, table_id, customer_id,
			created_by, items, subtotal, discount_type, discount, tax,
			tip, total, is_paid, paid_at, completed_at, created_at,
			updated_at, version
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10::numeric,
			$11, $12::numeric, $13::numeric, $14::numeric, $15::numeric,
			$16, $17, $18, $19, $20, $21
		)
	`,
		order.ID, order.TenantID, order.Number, order.Type, order.Status,
		order.TableID, order.CustomerID, order.CreatedBy, items,
		order.Subtotal.String(), order.DiscountType, order.Discount.String(),
		order.Tax.String(), order.Tip.String(), order.Total.String(),
		order.IsPaid, order.PaidAt, order.CompletedAt, order.CreatedAt,
		order.UpdatedAt, order.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrNumberTaken
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

const orderColumns = `
	id, tenant_id, number, type, status, table_id, customer_id,
	created_by, items, subtotal::text, discount_type, discount::text,
	tax::text, tip::text, total::text, is_paid, paid_at, completed_at,
	created_at, updated_at, version`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order    models.Order
		items    []byte
		subtotal string
		discount string
		tax      string
		tip      string
		total    string
	)
	err := row.Scan(
		&order.ID, &order.TenantID, &order.Number, &order.Type,
		&order.Status, &order.TableID, &order.CustomerID, &order.CreatedBy,
		&items, &subtotal, &order.DiscountType, &discount, &tax, &tip,
		&total, &order.IsPaid, &order.PaidAt, &order.CompletedAt,
		&order.CreatedAt, &order.UpdatedAt, &order.Version,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}
	for _, amount := range []struct {
		src string
		dst *decimal.Decimal
	}{
		{subtotal, &order.Subtotal},
		{discount, &order.Discount},
		{tax, &order.Tax},
		{tip, &order.Tip},
		{total, &order.Total},
	} {
		d, err := decimal.NewFromString(amount.src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount: %w", err)
		}
		*amount.dst = d
	}
	return &order, nil
}

func (p *Postgres) GetOrder(ctx context.Context, tenantID, orderID string) (*models.Order, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE tenant_id = $1 AND id = $2`,
		tenantID, orderID)

	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (p *Postgres) ListOrders(ctx context.Context, tenantID string, filter OrderFilter) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1`
	args := []any{tenantID}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		query += fmt.Sprintf(" AND status = ANY($%d)", len(args))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.TableID != "" {
		args = append(args, filter.TableID)
		query += fmt.Sprintf(" AND table_id = $%d", len(args))
	}
	if filter.OldestFirst {
		query += " ORDER BY created_at ASC"
	} else {
		query += " ORDER BY created_at DESC"
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		out = append(out, *order)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateOrder(ctx context.Context, order *models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	tag, err := p.pool.Exec(ctx, `
		UPDATE orders SET
			status = $1, items = $2::jsonb, is_paid = $3, paid_at = $4,
			completed_at = $5, updated_at = NOW(), version = version + 1
		WHERE tenant_id = $6 AND id = $7 AND version = $8
	`,
		order.Status, items, order.IsPaid, order.PaidAt, order.CompletedAt,
		order.TenantID, order.ID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row moved on or it never existed in this tenant;
		// both read as a conflict to the retry loop.
		return core.ErrVersionConflict
	}

	order.Version++
	order.UpdatedAt = time.Now()
	return nil
}

func (p *Postgres) LastOrderNumber(ctx context.Context, tenantID, prefix string) (string, error) {
	// Suffixes are zero-padded to a minimum width, so ordering by
	// length first keeps 1000 above 999 once the pad overflows.
	var number string
	err := p.pool.QueryRow(ctx, `
		SELECT number FROM orders
		WHERE tenant_id = $1 AND number LIKE $2 || '%'
		ORDER BY length(number) DESC, number DESC LIMIT 1
	`, tenantID, prefix).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last order number: %w", err)
	}
	return number, nil
}

func (p *Postgres) LogOrderStatus(ctx context.Context, tenantID, orderID string, status models.OrderStatus, changedBy, note string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO order_status_log (tenant_id, order_id, status, changed_by, note)
		VALUES ($1, $2, $3, $4, $5)
	`, tenantID, orderID, status, changedBy, note)
	if err != nil {
		return fmt.Errorf("failed to insert status log: %w", err)
	}
	return nil
}

func (p *Postgres) CreatePayment(ctx context.Context, payment *models.Payment) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO payments (
			id, tenant_id, order_id, amount, method, status,
			transaction_id, tip, processed_by, notes, refund_reason,
			refunded_at, created_at
		)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8::numeric, $9, $10, $11, $12, $13)
	`,
		payment.ID, payment.TenantID, payment.OrderID, payment.Amount.String(),
		payment.Method, payment.Status, payment.TransactionID,
		payment.Tip.String(), payment.ProcessedBy, payment.Notes,
		payment.RefundReason, payment.RefundedAt, payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

const paymentColumns = `
	id, tenant_id, order_id, amount::text, method, status,
	transaction_id, tip::text, processed_by, notes, refund_reason,
	refunded_at, created_at`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var (
		payment models.Payment
		amount  string
		tip     string
	)
	err := row.Scan(
		&payment.ID, &payment.TenantID, &payment.OrderID, &amount,
		&payment.Method, &payment.Status, &payment.TransactionID, &tip,
		&payment.ProcessedBy, &payment.Notes, &payment.RefundReason,
		&payment.RefundedAt, &payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if payment.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	if payment.Tip, err = decimal.NewFromString(tip); err != nil {
		return nil, fmt.Errorf("failed to parse tip: %w", err)
	}
	return &payment, nil
}

func (p *Postgres) GetPayment(ctx context.Context, tenantID, paymentID string) (*models.Payment, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE tenant_id = $1 AND id = $2`,
		tenantID, paymentID)

	payment, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

func (p *Postgres) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE payments SET
			status = $1, refund_reason = $2, refunded_at = $3
		WHERE tenant_id = $4 AND id = $5
	`, payment.Status, payment.RefundReason, payment.RefundedAt,
		payment.TenantID, payment.ID)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (p *Postgres) DeletePayment(ctx context.Context, tenantID, paymentID string) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM payments WHERE tenant_id = $1 AND id = $2`,
		tenantID, paymentID)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (p *Postgres) ListPayments(ctx context.Context, tenantID string, filter PaymentFilter) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tenant_id = $1`
	args := []any{tenantID}

	if filter.OrderID != "" {
		args = append(args, filter.OrderID)
		query += fmt.Sprintf(" AND order_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Method != "" {
		args = append(args, string(filter.Method))
		query += fmt.Sprintf(" AND method = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	query += " ORDER BY created_at ASC"

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var out []models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		out = append(out, *payment)
	}
	return out, rows.Err()
}

func (p *Postgres) SumCompleted(ctx context.Context, tenantID, orderID string) (decimal.Decimal, error) {
	var sum string
	err := p.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::text FROM payments
		WHERE tenant_id = $1 AND order_id = $2 AND status = 'completed'
	`, tenantID, orderID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments: %w", err)
	}
	return decimal.NewFromString(sum)
}
