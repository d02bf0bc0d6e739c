package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
)

// CreateSaleInput is a cart submitted at the till.
type CreateSaleInput struct {
	CustomerID  string               `json:"customer_id" validate:"required"`
	Items       []inventory.LineItem `json:"items" validate:"required,min=1,dive"`
	TotalAmount decimal.Decimal      `json:"total_amount"`

	IdempotencyKey string `json:"-"`
	Actor          string `json:"-"`
}

// StockCheckInput asks for the availability of a cart without submitting it.
type StockCheckInput struct {
	Items []inventory.LineItem `json:"items" validate:"required,min=1,dive"`
}

// StockCheckResult reports per-line availability.
type StockCheckResult struct {
	OK    bool                     `json:"ok"`
	Items []inventory.Availability `json:"items"`
}

// ListSalesRequest filters the sales history.
type ListSalesRequest struct {
	From time.Time
	To   time.Time
}
