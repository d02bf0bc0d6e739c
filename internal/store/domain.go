package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesOrderStatus enumerates the lifecycle of a persisted sale.
type SalesOrderStatus string

const (
	// SalesOrderStatusCompleted is assigned on creation.
	SalesOrderStatusCompleted SalesOrderStatus = "completed"
	// SalesOrderStatusCancelled marks a sale kept for history only.
	SalesOrderStatusCancelled SalesOrderStatus = "cancelled"
)

// Product is a catalog entry. When HasVariants is set, Stock mirrors the sum of its variants.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	SellPrice   decimal.Decimal `json:"sell_price"`
	Stock       int             `json:"stock"`
	HasVariants bool            `json:"has_variants"`
	CreatedAt   time.Time       `json:"created_at"`
	Variants    []Variant       `json:"variants,omitempty"`
}

// Variant is a sub-SKU owned by exactly one product.
type Variant struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	SKU             string          `json:"sku"`
	Stock           int             `json:"stock"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
}

// Customer is referenced by sales orders.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Supplier is referenced by purchase orders.
type Supplier struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SalesOrder header. Items are populated on reads.
type SalesOrder struct {
	ID           string           `json:"id"`
	CustomerID   string           `json:"customer_id"`
	CustomerName string           `json:"customer_name,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	Status       SalesOrderStatus `json:"status"`
	Subtotal     decimal.Decimal  `json:"subtotal"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	Items        []SalesItem      `json:"items"`
}

// SalesItem is one cart line of a sale with its price snapshot.
type SalesItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	Position    int             `json:"position"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	VariantID   *string         `json:"variant_id,omitempty"`
	VariantName string          `json:"variant_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// PurchaseOrder header. Items are populated on reads.
type PurchaseOrder struct {
	ID           string          `json:"id"`
	SupplierID   string          `json:"supplier_id"`
	SupplierName string          `json:"supplier_name,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Items        []PurchaseItem  `json:"items"`
}

// PurchaseItem is one received line of a purchase order.
type PurchaseItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	Position    int             `json:"position"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	VariantID   *string         `json:"variant_id,omitempty"`
	VariantName string          `json:"variant_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Expense is an operating cost counted against profit.
type Expense struct {
	ID          string          `json:"id"`
	ExpenseDate time.Time       `json:"expense_date"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	PaymentMode string          `json:"payment_mode,omitempty"`
	Vendor      string          `json:"vendor,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PeriodFilter bounds reads by timestamp. From is inclusive, To exclusive, zero means unbounded.
type PeriodFilter struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the period.
func (f PeriodFilter) Contains(t time.Time) bool {
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.Before(f.To) {
		return false
	}
	return true
}
