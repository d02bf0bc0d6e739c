package sales

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// EffectiveUnitPrice is the product price plus the variant adjustment, when a variant is sold.
func EffectiveUnitPrice(product store.Product, variant *store.Variant) decimal.Decimal {
	price := product.SellPrice
	if variant != nil {
		price = price.Add(variant.PriceAdjustment)
	}
	return price
}

// CalculateLineSubtotal returns quantity × unit price.
func CalculateLineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// SumSubtotals totals the cart.
func SumSubtotals(items []store.SalesItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	return total
}
