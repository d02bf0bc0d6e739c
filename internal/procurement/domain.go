package procurement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
)

// CreatePurchaseOrderInput is a receipt of goods from a supplier.
// UnitAmount on each line is the unit cost paid.
type CreatePurchaseOrderInput struct {
	SupplierID string               `json:"supplier_id" validate:"required"`
	Items      []inventory.LineItem `json:"items" validate:"required,min=1,dive"`

	Actor string `json:"-"`
}

// InlineProductInput creates a product while a purchase order is being drafted.
type InlineProductInput struct {
	Name            string          `json:"name" validate:"required,max=200"`
	SKU             string          `json:"sku" validate:"max=64"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	SellPrice       decimal.Decimal `json:"sell_price"`
	VariantName     string          `json:"variant_name" validate:"max=120"`
	VariantSKU      string          `json:"variant_sku" validate:"max=64"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`

	Actor string `json:"-"`
}

// InlineProductResult carries the ids to substitute into the draft lines.
type InlineProductResult struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
	SKU       string  `json:"sku"`
}

// ListPurchaseOrdersRequest filters the purchase history.
type ListPurchaseOrdersRequest struct {
	From time.Time
	To   time.Time
}
