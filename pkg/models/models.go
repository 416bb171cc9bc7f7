package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeout  OrderType = "takeout"
	OrderTypeDelivery OrderType = "delivery"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Actor is the authenticated identity attached to every inbound call.
// Authentication happens upstream; the core trusts this triple.
type Actor struct {
	TenantID string `json:"tenant_id"`
	ID       string `json:"actor_id"`
	Role     string `json:"actor_role"`
}

// ItemSnapshot is a frozen copy of menu item data captured at order
// creation, so later catalog edits never alter historical orders.
type ItemSnapshot struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

type Modifier struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type OrderItem struct {
	ID                  string          `json:"id"`
	MenuItemID          string          `json:"menu_item_id"`
	Snapshot            ItemSnapshot    `json:"snapshot"`
	Quantity            int             `json:"quantity"`
	BasePrice           decimal.Decimal `json:"base_price"`
	Modifiers           []Modifier      `json:"modifiers,omitempty"`
	TotalPrice          decimal.Decimal `json:"total_price"`
	Status              ItemStatus      `json:"status"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	PreparedBy          string          `json:"prepared_by,omitempty"`
	PreparedAt          *time.Time      `json:"prepared_at,omitempty"`
}

type Order struct {
	ID           string          `json:"id"`
	TenantID     string          `json:"tenant_id"`
	Number       string          `json:"number"`
	Type         OrderType       `json:"type"`
	Status       OrderStatus     `json:"status"`
	TableID      string          `json:"table_id,omitempty"`
	CustomerID   string          `json:"customer_id,omitempty"`
	CreatedBy    string          `json:"created_by"`
	Items        []OrderItem     `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	DiscountType DiscountType    `json:"discount_type,omitempty"`
	Discount     decimal.Decimal `json:"discount"`
	Tax          decimal.Decimal `json:"tax"`
	Tip          decimal.Decimal `json:"tip"`
	Total        decimal.Decimal `json:"total"`
	IsPaid       bool            `json:"is_paid"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Version backs the store's conditional writes. Incremented on
	// every successful update.
	Version int64 `json:"version"`
}

// Item finds an item by id inside the aggregate. Items are never
// addressed outside their order.
func (o *Order) Item(itemID string) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i], true
		}
	}
	return nil, false
}

type Payment struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	Status        PaymentStatus   `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Tip           decimal.Decimal `json:"tip"`
	ProcessedBy   string          `json:"processed_by"`
	Notes         string          `json:"notes,omitempty"`
	RefundReason  string          `json:"refund_reason,omitempty"`
	RefundedAt    *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MenuItem is the read-only catalog view resolved at order creation.
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	IsAvailable bool            `json:"is_available"`
}

type CreateOrderItemRequest struct {
	MenuItemID          string     `json:"menu_item_id"`
	Quantity            int        `json:"quantity"`
	Modifiers           []Modifier `json:"modifiers,omitempty"`
	SpecialInstructions string     `json:"special_instructions,omitempty"`
}

type CreateOrderRequest struct {
	Type         OrderType                `json:"type"`
	TableID      string                   `json:"table_id,omitempty"`
	CustomerID   string                   `json:"customer_id,omitempty"`
	Items        []CreateOrderItemRequest `json:"items"`
	DiscountType DiscountType             `json:"discount_type,omitempty"`
	// DiscountValue is a percentage for percentage discounts and an
	// absolute amount for fixed ones.
	DiscountValue decimal.Decimal `json:"discount_value"`
	Tip           decimal.Decimal `json:"tip"`
}

type CreatePaymentRequest struct {
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
	Method  PaymentMethod   `json:"method"`
	Tip     decimal.Decimal `json:"tip"`
	Notes   string          `json:"notes,omitempty"`
}

// DailyTotal aggregates completed payments for one calendar day.
type DailyTotal struct {
	Date     string                            `json:"date"`
	Total    decimal.Decimal                   `json:"total"`
	Count    int                               `json:"count"`
	ByMethod map[PaymentMethod]decimal.Decimal `json:"by_method"`
}
