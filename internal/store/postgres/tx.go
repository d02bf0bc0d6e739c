package postgres

import (
	"context"

	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// txStore is the unit of work handed to WithTx callbacks.
type txStore struct {
	queries
}

var _ store.Tx = (*txStore)(nil)

func (t *txStore) GetProductForUpdate(ctx context.Context, id string) (store.Product, error) {
	return t.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (t *txStore) GetVariantForUpdate(ctx context.Context, id string) (store.Variant, error) {
	v, err := scanVariant(t.q.QueryRow(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return store.Variant{}, mapError("lock variant "+id, err)
	}
	return v, nil
}

func (t *txStore) UpdateProductStock(ctx context.Context, id string, stock int) error {
	tag, err := t.q.Exec(ctx, `UPDATE products SET stock = $2 WHERE id = $1`, id, stock)
	if err != nil {
		return mapError("update product stock", err)
	}
	return notFoundIfNone(tag, "product", id)
}

func (t *txStore) UpdateVariantStock(ctx context.Context, id string, stock int) error {
	tag, err := t.q.Exec(ctx, `UPDATE product_variants SET stock = $2 WHERE id = $1`, id, stock)
	if err != nil {
		return mapError("update variant stock", err)
	}
	return notFoundIfNone(tag, "variant", id)
}

// ============================================================================
// CATALOG
// ============================================================================

func (t *txStore) InsertProduct(ctx context.Context, p store.Product) error {
	_, err := t.q.Exec(ctx, `INSERT INTO products (id, name, sku, cost_price, sell_price, stock, has_variants, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.SKU, p.CostPrice, p.SellPrice, p.Stock, p.HasVariants, p.CreatedAt)
	return mapError("insert product", err)
}

func (t *txStore) UpdateProduct(ctx context.Context, p store.Product) error {
	tag, err := t.q.Exec(ctx, `UPDATE products SET name = $2, sku = $3, cost_price = $4, sell_price = $5 WHERE id = $1`,
		p.ID, p.Name, p.SKU, p.CostPrice, p.SellPrice)
	if err != nil {
		return mapError("update product", err)
	}
	return notFoundIfNone(tag, "product", p.ID)
}

func (t *txStore) SetProductHasVariants(ctx context.Context, id string, hasVariants bool) error {
	tag, err := t.q.Exec(ctx, `UPDATE products SET has_variants = $2 WHERE id = $1`, id, hasVariants)
	if err != nil {
		return mapError("set product has_variants", err)
	}
	return notFoundIfNone(tag, "product", id)
}

// DeleteProduct relies on the variant cascade. Order lines referencing the product fail the foreign key.
func (t *txStore) DeleteProduct(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return mapError("delete product", err)
	}
	return notFoundIfNone(tag, "product", id)
}

func (t *txStore) InsertVariant(ctx context.Context, v store.Variant) error {
	_, err := t.q.Exec(ctx, `INSERT INTO product_variants (id, product_id, name, sku, stock, price_adjustment)
VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.ProductID, v.Name, v.SKU, v.Stock, v.PriceAdjustment)
	return mapError("insert variant", err)
}

func (t *txStore) InsertCustomer(ctx context.Context, c store.Customer) error {
	_, err := t.q.Exec(ctx, `INSERT INTO customers (id, name, email, phone, address, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Email, c.Phone, c.Address, c.CreatedAt)
	return mapError("insert customer", err)
}

func (t *txStore) InsertSupplier(ctx context.Context, s store.Supplier) error {
	_, err := t.q.Exec(ctx, `INSERT INTO suppliers (id, name, email, phone, address, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.Name, s.Email, s.Phone, s.Address, s.CreatedAt)
	return mapError("insert supplier", err)
}

// ============================================================================
// ORDERS
// ============================================================================

func (t *txStore) InsertSalesOrder(ctx context.Context, o store.SalesOrder) error {
	_, err := t.q.Exec(ctx, `INSERT INTO sales_orders (id, customer_id, created_at, status, subtotal, total_amount)
VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.CustomerID, o.CreatedAt, string(o.Status), o.Subtotal, o.TotalAmount)
	return mapError("insert sales order", err)
}

func (t *txStore) InsertSalesItems(ctx context.Context, items []store.SalesItem) error {
	for _, it := range items {
		_, err := t.q.Exec(ctx, `INSERT INTO sales_items (id, order_id, position, product_id, variant_id, quantity, unit_price, subtotal)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, it.OrderID, it.Position, it.ProductID, it.VariantID, it.Quantity, it.UnitPrice, it.Subtotal)
		if err != nil {
			return mapError("insert sales item", err)
		}
	}
	return nil
}

func (t *txStore) DeleteSalesOrder(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM sales_orders WHERE id = $1`, id)
	if err != nil {
		return mapError("delete sales order", err)
	}
	return notFoundIfNone(tag, "sales order", id)
}

func (t *txStore) InsertPurchaseOrder(ctx context.Context, o store.PurchaseOrder) error {
	_, err := t.q.Exec(ctx, `INSERT INTO purchase_orders (id, supplier_id, created_at, total_amount) VALUES ($1, $2, $3, $4)`,
		o.ID, o.SupplierID, o.CreatedAt, o.TotalAmount)
	return mapError("insert purchase order", err)
}

func (t *txStore) InsertPurchaseItems(ctx context.Context, items []store.PurchaseItem) error {
	for _, it := range items {
		_, err := t.q.Exec(ctx, `INSERT INTO purchase_items (id, order_id, position, product_id, variant_id, quantity, unit_cost, line_total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, it.OrderID, it.Position, it.ProductID, it.VariantID, it.Quantity, it.UnitCost, it.LineTotal)
		if err != nil {
			return mapError("insert purchase item", err)
		}
	}
	return nil
}

func (t *txStore) DeletePurchaseOrder(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return mapError("delete purchase order", err)
	}
	return notFoundIfNone(tag, "purchase order", id)
}

func (t *txStore) InsertExpense(ctx context.Context, e store.Expense) error {
	_, err := t.q.Exec(ctx, `INSERT INTO expenses (id, expense_date, category, amount, description, payment_mode, vendor, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.ExpenseDate, e.Category, e.Amount, e.Description, e.PaymentMode, e.Vendor, e.CreatedAt)
	return mapError("insert expense", err)
}

func (t *txStore) DeleteExpense(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return mapError("delete expense", err)
	}
	return notFoundIfNone(tag, "expense", id)
}
